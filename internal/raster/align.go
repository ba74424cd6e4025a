package raster

import "math"

// Align resamples g to (rows, cols) with bilinear interpolation so pairwise
// comparison is pixel-for-pixel valid. When the shape already matches, g is
// returned unchanged. NaN samples propagate into any output pixel they
// contribute to; resampling is a smoothing operation, not an exact pixel
// reprojection, which is a known limitation when native resolutions differ by
// non-integer ratios.
func Align(g *Grid, rows, cols int) *Grid {
	if g.Rows == rows && g.Cols == cols {
		return g
	}
	out := &Grid{Rows: rows, Cols: cols, Data: make([]float64, rows*cols), Transform: g.Transform, CRS: g.CRS}

	// Endpoint-preserving coordinate mapping: output corners sample input
	// corners, matching order-1 spline zoom semantics.
	rScale := 0.0
	if rows > 1 {
		rScale = float64(g.Rows-1) / float64(rows-1)
	}
	cScale := 0.0
	if cols > 1 {
		cScale = float64(g.Cols-1) / float64(cols-1)
	}

	for r := 0; r < rows; r++ {
		sr := float64(r) * rScale
		r0 := int(math.Floor(sr))
		r1 := r0 + 1
		if r1 >= g.Rows {
			r1 = g.Rows - 1
		}
		fr := sr - float64(r0)
		for c := 0; c < cols; c++ {
			sc := float64(c) * cScale
			c0 := int(math.Floor(sc))
			c1 := c0 + 1
			if c1 >= g.Cols {
				c1 = g.Cols - 1
			}
			fc := sc - float64(c0)

			v00 := g.At(r0, c0)
			v01 := g.At(r0, c1)
			v10 := g.At(r1, c0)
			v11 := g.At(r1, c1)

			top := v00*(1-fc) + v01*fc
			bot := v10*(1-fc) + v11*fc
			out.Set(r, c, top*(1-fr)+bot*fr)
		}
	}
	return out
}
