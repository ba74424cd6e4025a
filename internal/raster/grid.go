// Package raster holds the in-memory grid model shared by every analysis mode:
// loading single-band georeferenced rasters, aligning grids onto a common shape,
// and estimating integer-pixel co-registration offsets.
//
// Missing or invalid pixels are represented by NaN and excluded from every
// downstream statistic. Linear-domain backscatter grids never contain finite
// values <= 0 once loaded.
package raster

import (
	"fmt"
	"math"
)

// Transform is an affine geotransform in GDAL coefficient order:
// x = T[0] + col*T[1] + row*T[2]
// y = T[3] + col*T[4] + row*T[5]
type Transform [6]float64

// RowCol inverts the transform, mapping world coordinates to pixel indices.
// The second return is false when the transform is degenerate (zero determinant).
func (t Transform) RowCol(x, y float64) (row, col int, ok bool) {
	det := t[1]*t[5] - t[2]*t[4]
	if det == 0 {
		return 0, 0, false
	}
	dx := x - t[0]
	dy := y - t[3]
	fcol := (dx*t[5] - dy*t[2]) / det
	frow := (dy*t[1] - dx*t[4]) / det
	return int(math.Floor(frow)), int(math.Floor(fcol)), true
}

// Origin returns the world coordinates of the top-left corner.
func (t Transform) Origin() (x, y float64) { return t[0], t[3] }

// Grid is one band of a georeferenced raster: row-major float64 samples plus
// the affine transform and CRS they were read with. NaN marks missing pixels.
type Grid struct {
	Rows, Cols int
	Data       []float64
	Transform  Transform
	CRS        string
}

// NewGrid allocates a rows x cols grid with all samples zero.
func NewGrid(rows, cols int) *Grid {
	return &Grid{Rows: rows, Cols: cols, Data: make([]float64, rows*cols)}
}

// At returns the sample at (row, col). Callers are expected to stay in bounds.
func (g *Grid) At(row, col int) float64 { return g.Data[row*g.Cols+col] }

// Set stores a sample at (row, col).
func (g *Grid) Set(row, col int, v float64) { g.Data[row*g.Cols+col] = v }

// Shape returns (rows, cols).
func (g *Grid) Shape() (int, int) { return g.Rows, g.Cols }

// SameShape reports whether g and o have identical dimensions.
func (g *Grid) SameShape(o *Grid) bool { return g.Rows == o.Rows && g.Cols == o.Cols }

// Clone returns a deep copy sharing no storage with g.
func (g *Grid) Clone() *Grid {
	out := &Grid{Rows: g.Rows, Cols: g.Cols, Transform: g.Transform, CRS: g.CRS}
	out.Data = make([]float64, len(g.Data))
	copy(out.Data, g.Data)
	return out
}

// ValidCount returns the number of finite samples.
func (g *Grid) ValidCount() int {
	n := 0
	for _, v := range g.Data {
		if !math.IsNaN(v) && !math.IsInf(v, 0) {
			n++
		}
	}
	return n
}

// Sample returns the value at world coordinates (x, y), or NaN when the point
// falls outside the grid or the transform cannot be inverted.
func (g *Grid) Sample(x, y float64) float64 {
	row, col, ok := g.Transform.RowCol(x, y)
	if !ok || row < 0 || row >= g.Rows || col < 0 || col >= g.Cols {
		return math.NaN()
	}
	return g.At(row, col)
}

func (g *Grid) String() string {
	return fmt.Sprintf("Grid(%dx%d, valid=%d)", g.Rows, g.Cols, g.ValidCount())
}
