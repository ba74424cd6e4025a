// Package analysis drives the cross-product of dates, areas of interest,
// polarizations and processing methods: it resolves and loads every product in
// a unit, aligns the grids onto the unit's reference shape, and assembles flat
// metric rows for the persistence and reporting layers.
package analysis

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/eoverify/rtcqa/internal/methods"
)

// VegCoefs are the quadratic coefficients rescaling the soil-moisture
// normalization range from an NDVI value: range = A*ndvi^2 + B*ndvi + C.
// They are empirically tuned for the study area, not physically derived, so
// they stay configurable rather than fixed.
type VegCoefs struct {
	A float64 `json:"a"`
	B float64 `json:"b"`
	C float64 `json:"c"`
}

// Config is the immutable configuration for one analysis batch. Every core
// operation receives it explicitly; there is no ambient process-wide state,
// so the pipeline is constructible against synthetic configurations in tests.
type Config struct {
	// Product directories.
	HyP3Dir        string `json:"hyp3_dir"`
	GEEDir         string `json:"gee_dir"`
	PyroSARKartDir string `json:"pyrosar_kartverket_dir"`
	PyroSARCopDir  string `json:"pyrosar_copernicus_dir"`

	// Output directories.
	ResultsDir string `json:"results_dir"`
	FiguresDir string `json:"figures_dir"`

	// Comparison keys.
	Dates         []string `json:"dates"` // acquisition dates, YYYYMMDD
	PrimaryDate   string   `json:"primary_date"`
	AOIs          []string `json:"aois"`
	Polarizations []string `json:"polarizations"`

	// Orbits maps each date to its pass direction ("Ascending"/"Descending").
	Orbits map[string]string `json:"orbits"`

	// ExpectedDB is the physically expected mean backscatter per polarization,
	// used by the extended mode's calibration bias.
	ExpectedDB map[string]float64 `json:"expected_db"`

	VegCorrection VegCoefs `json:"veg_correction"`
}

// Default returns the configuration for the 2017 Sentinel-1 study: twenty
// comparison dates, three areas of interest, both polarizations.
func Default(dataDir string) Config {
	multitemp := filepath.Join(dataDir, "multitemporal")
	return Config{
		HyP3Dir:        filepath.Join(multitemp, "hyp3"),
		GEEDir:         filepath.Join(multitemp, "gee"),
		PyroSARKartDir: filepath.Join(multitemp, "pyrosar_kartverket"),
		PyroSARCopDir:  filepath.Join(multitemp, "pyrosar_copernicus"),
		ResultsDir:     "results",
		FiguresDir:     "figures",
		Dates: []string{
			"20170508", "20170515", "20170526",
			"20170607", "20170613", "20170614", "20170620", "20170624", "20170630",
			"20170707", "20170714", "20170720",
			"20170801", "20170807", "20170823", "20170831",
			"20170924", "20170928",
			"20171010", "20171016",
		},
		PrimaryDate:   "20170613",
		AOIs:          []string{"jorde", "skog_flatt", "skog_bratt"},
		Polarizations: []string{"vv", "vh"},
		Orbits: map[string]string{
			"20170508": "Descending", "20170515": "Descending", "20170526": "Descending",
			"20170607": "Descending", "20170613": "Ascending", "20170614": "Descending",
			"20170620": "Descending", "20170624": "Ascending", "20170630": "Ascending",
			"20170707": "Ascending", "20170714": "Descending", "20170720": "Descending",
			"20170801": "Descending", "20170807": "Descending", "20170823": "Ascending",
			"20170831": "Descending", "20170924": "Descending", "20170928": "Ascending",
			"20171010": "Ascending", "20171016": "Ascending",
		},
		ExpectedDB:    map[string]float64{"vv": -6.5, "vh": -12.5},
		VegCorrection: VegCoefs{A: -10, B: 4, C: 7},
	}
}

// FileConfig is the JSON overlay schema: every field is optional and, when
// present, replaces the corresponding Config value. The same file can be kept
// alongside the data archive to pin a study configuration.
type FileConfig struct {
	HyP3Dir        *string            `json:"hyp3_dir,omitempty"`
	GEEDir         *string            `json:"gee_dir,omitempty"`
	PyroSARKartDir *string            `json:"pyrosar_kartverket_dir,omitempty"`
	PyroSARCopDir  *string            `json:"pyrosar_copernicus_dir,omitempty"`
	ResultsDir     *string            `json:"results_dir,omitempty"`
	FiguresDir     *string            `json:"figures_dir,omitempty"`
	Dates          []string           `json:"dates,omitempty"`
	PrimaryDate    *string            `json:"primary_date,omitempty"`
	AOIs           []string           `json:"aois,omitempty"`
	Polarizations  []string           `json:"polarizations,omitempty"`
	Orbits         map[string]string  `json:"orbits,omitempty"`
	ExpectedDB     map[string]float64 `json:"expected_db,omitempty"`
	VegCorrection  *VegCoefs          `json:"veg_correction,omitempty"`
}

// Load reads a JSON overlay from path and applies it on top of base.
func Load(path string, base Config) (Config, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return base, fmt.Errorf("read config: %w", err)
	}
	var fc FileConfig
	if err := json.Unmarshal(raw, &fc); err != nil {
		return base, fmt.Errorf("parse config %s: %w", path, err)
	}
	return fc.Apply(base), nil
}

// Apply overlays the file values onto base and returns the result.
func (fc FileConfig) Apply(base Config) Config {
	out := base
	if fc.HyP3Dir != nil {
		out.HyP3Dir = *fc.HyP3Dir
	}
	if fc.GEEDir != nil {
		out.GEEDir = *fc.GEEDir
	}
	if fc.PyroSARKartDir != nil {
		out.PyroSARKartDir = *fc.PyroSARKartDir
	}
	if fc.PyroSARCopDir != nil {
		out.PyroSARCopDir = *fc.PyroSARCopDir
	}
	if fc.ResultsDir != nil {
		out.ResultsDir = *fc.ResultsDir
	}
	if fc.FiguresDir != nil {
		out.FiguresDir = *fc.FiguresDir
	}
	if fc.Dates != nil {
		out.Dates = fc.Dates
	}
	if fc.PrimaryDate != nil {
		out.PrimaryDate = *fc.PrimaryDate
	}
	if fc.AOIs != nil {
		out.AOIs = fc.AOIs
	}
	if fc.Polarizations != nil {
		out.Polarizations = fc.Polarizations
	}
	if fc.Orbits != nil {
		out.Orbits = fc.Orbits
	}
	if fc.ExpectedDB != nil {
		out.ExpectedDB = fc.ExpectedDB
	}
	if fc.VegCorrection != nil {
		out.VegCorrection = *fc.VegCorrection
	}
	return out
}

// Resolver builds the product resolver for this configuration.
func (c Config) Resolver() *methods.Resolver {
	return &methods.Resolver{
		HyP3Dir:        c.HyP3Dir,
		GEEDir:         c.GEEDir,
		PyroSARKartDir: c.PyroSARKartDir,
		PyroSARCopDir:  c.PyroSARCopDir,
	}
}
