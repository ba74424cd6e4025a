package raster

import (
	"fmt"
	"math"
	"os"
)

// ReadFunc reads one band of a raster file into a Grid. Implementations return
// raw values; invalid-value masking and unit conversion happen in Loader.
type ReadFunc func(path string) (*Grid, error)

// Loader reads backscatter and angle products and normalizes them for the
// metric engine. The zero value is not usable; construct with NewLoader.
type Loader struct {
	read ReadFunc
}

// NewLoader returns a Loader backed by the given reader. A nil reader selects
// the default GDAL-backed implementation when the binary is built with it.
func NewLoader(read ReadFunc) *Loader {
	if read == nil {
		read = defaultRead
	}
	return &Loader{read: read}
}

// Load reads one band from path. A missing file yields (nil, nil): absence is
// an expected condition in a sparse product archive, not an error. Values <= 0
// are forced to NaN before any dB conversion; with asDB set, surviving values
// are converted via 10*log10.
func (l *Loader) Load(path string, asDB bool) (*Grid, error) {
	if path == "" {
		return nil, nil
	}
	if _, err := os.Stat(path); err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("stat %s: %w", path, err)
	}
	g, err := l.read(path)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}
	for i, v := range g.Data {
		if v <= 0 || math.IsInf(v, 0) || math.IsNaN(v) {
			g.Data[i] = math.NaN()
			continue
		}
		if asDB {
			g.Data[i] = 10 * math.Log10(v)
		}
	}
	return g, nil
}

// LoadAngle reads an angle product without the positive-domain mask: incidence
// angles are already in an unsigned unit and only non-finite samples are
// invalid. With radians set, values are converted to degrees.
func (l *Loader) LoadAngle(path string, radians bool) (*Grid, error) {
	if path == "" {
		return nil, nil
	}
	if _, err := os.Stat(path); err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("stat %s: %w", path, err)
	}
	g, err := l.read(path)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}
	for i, v := range g.Data {
		if math.IsInf(v, 0) {
			g.Data[i] = math.NaN()
			continue
		}
		if radians {
			g.Data[i] = v * 180 / math.Pi
		}
	}
	return g, nil
}
