//go:build gdal
// +build gdal

package raster

import (
	"fmt"
	"math"

	"github.com/lukeroth/gdal"
)

// ReadGDAL reads band 1 of a GDAL-readable raster (GeoTIFF in practice) into a
// Grid, mapping the band's NoDataValue to NaN. It is the default ReadFunc when
// the binary is built with the gdal tag.
func ReadGDAL(path string) (*Grid, error) {
	ds, err := gdal.Open(path, gdal.ReadOnly)
	if err != nil {
		return nil, fmt.Errorf("gdal open: %w", err)
	}
	defer ds.Close()

	cols := ds.RasterXSize()
	rows := ds.RasterYSize()
	if rows <= 0 || cols <= 0 {
		return nil, fmt.Errorf("gdal open: empty raster %dx%d", rows, cols)
	}

	g := NewGrid(rows, cols)
	band := ds.RasterBand(1)
	if err := band.IO(gdal.Read, 0, 0, cols, rows, g.Data, cols, rows, 0, 0); err != nil {
		return nil, fmt.Errorf("gdal band read: %w", err)
	}

	if nodata, ok := band.NoDataValue(); ok {
		for i, v := range g.Data {
			if v == nodata {
				g.Data[i] = math.NaN()
			}
		}
	}

	gt := ds.GeoTransform()
	copy(g.Transform[:], gt[:])
	g.CRS = ds.Projection()
	return g, nil
}

func defaultRead(path string) (*Grid, error) { return ReadGDAL(path) }
