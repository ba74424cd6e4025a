// Package methods enumerates the RTC processing chains under comparison and
// resolves their product files on disk. The enumeration is closed: every
// pipeline component switches over Method values rather than free-form
// strings, so an unknown method is unrepresentable.
package methods

// Method identifies one RTC processing chain.
type Method int

const (
	// HyP3Gamma is the ASF HyP3 GAMMA chain (Copernicus 30 m DEM), the
	// designated reference for inter-method comparison.
	HyP3Gamma Method = iota
	// PyroSARKartverket is the PyroSAR/SNAP chain with the Kartverket 10 m DEM.
	PyroSARKartverket
	// PyroSARCopernicus is the PyroSAR/SNAP chain with the Copernicus 30 m DEM.
	PyroSARCopernicus
	// GEES1ARDKartverket is the GEE s1_ard chain with the Kartverket 10 m DEM.
	GEES1ARDKartverket
	// GEES1ARDCopernicus is the GEE s1_ard chain with the Copernicus 30 m DEM.
	GEES1ARDCopernicus
	// GEEStandard is the GEE standard GRD product with no terrain correction,
	// kept as the uncorrected baseline.
	GEEStandard

	numMethods
)

// Info carries display and provenance metadata for one method.
type Info struct {
	Key         string // stable identifier used in file names, tables and CSV output
	Name        string // human-readable chain description
	DEM         string // DEM source, empty for the uncorrected baseline
	IsReference bool
	Color       string // series color used by the reporting layer
	Marker      string // series marker used by the reporting layer
}

var infos = [numMethods]Info{
	HyP3Gamma:          {Key: "hyp3_gamma", Name: "HyP3 GAMMA (Cop. 30m)", DEM: "copernicus_30m", IsReference: true, Color: "black", Marker: "circle"},
	PyroSARKartverket:  {Key: "pyrosar_kartverket", Name: "PyroSAR/SNAP (Kart. 10m)", DEM: "kartverket_10m", Color: "purple", Marker: "rect"},
	PyroSARCopernicus:  {Key: "pyrosar_copernicus", Name: "PyroSAR/SNAP (Cop. 30m)", DEM: "copernicus_30m", Color: "magenta", Marker: "triangle"},
	GEES1ARDKartverket: {Key: "gee_s1ard_kartverket", Name: "GEE s1_ard (Kart. 10m)", DEM: "kartverket_10m", Color: "blue", Marker: "diamond"},
	GEES1ARDCopernicus: {Key: "gee_s1ard_copernicus", Name: "GEE s1_ard (Cop. 30m)", DEM: "copernicus_30m", Color: "green", Marker: "pin"},
	GEEStandard:        {Key: "gee_standard", Name: "GEE Standard GRD", Color: "red", Marker: "arrow"},
}

// All lists every method in canonical iteration order. The reference method
// comes first; this order decides which grid establishes a unit's reference
// shape when the reference product is absent.
func All() []Method {
	out := make([]Method, 0, numMethods)
	for m := Method(0); m < numMethods; m++ {
		out = append(out, m)
	}
	return out
}

// Reference returns the designated reference method.
func Reference() Method { return HyP3Gamma }

// Meta returns the metadata for m.
func (m Method) Meta() Info { return infos[m] }

// Key returns the stable string identifier for m.
func (m Method) Key() string { return infos[m].Key }

// Name returns the display name for m.
func (m Method) Name() string { return infos[m].Name }

// IsReference reports whether m is the designated reference chain.
func (m Method) IsReference() bool { return infos[m].IsReference }

func (m Method) String() string { return m.Key() }

// FromKey maps a stable identifier back to its Method. The second return is
// false for unknown keys.
func FromKey(key string) (Method, bool) {
	for m := Method(0); m < numMethods; m++ {
		if infos[m].Key == key {
			return m, true
		}
	}
	return 0, false
}
