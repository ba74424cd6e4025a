//go:build !gdal
// +build !gdal

package raster

import "errors"

// Without the gdal build tag there is no default raster reader; callers must
// inject a ReadFunc. Keeps the toolkit buildable on hosts without libgdal.
func defaultRead(path string) (*Grid, error) {
	return nil, errors.New("raster: built without gdal support; provide a ReadFunc to NewLoader")
}
