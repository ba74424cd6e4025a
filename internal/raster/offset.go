package raster

import (
	"math"

	"gonum.org/v1/gonum/stat"
)

// minOverlapPixels is the smallest joint-valid overlap for which a shift
// candidate's correlation is considered meaningful.
const minOverlapPixels = 50

// degenerateStd is the standard deviation below which a grid carries no
// correlation signal and the search short-circuits to (0, 0).
const degenerateStd = 1e-6

// FindOffset estimates the integer-pixel misregistration of test relative to
// ref by exhaustive normalized cross-correlation over all shifts
// (dy, dx) in [-maxShift, maxShift]^2.
//
// Both grids are copied with non-finite samples zeroed. If either has standard
// deviation below 1e-6 the inputs are degenerate and (0, 0) is returned
// without evaluating any shift. Otherwise both are z-score normalized and each
// candidate shift of test (nearest-neighbor, zero fill outside the frame) is
// scored by the Pearson correlation over jointly nonzero pixels; candidates
// with fewer than 50 such pixels are skipped. The scan runs dy ascending
// outer, dx ascending inner, and the first maximum encountered wins ties, so
// results are deterministic.
//
// This is a coarse brute-force primitive, not a geodetic-grade registration
// algorithm. The cost is bounded by (2*maxShift+1)^2 candidate evaluations.
func FindOffset(ref, test *Grid, maxShift int) (dy, dx int) {
	refZ := zeroFilled(ref)
	testZ := zeroFilled(test)

	if !zscore(refZ) || !zscore(testZ) {
		return 0, 0
	}

	bestCorr := math.Inf(-1)
	bestDy, bestDx := 0, 0
	refBuf := make([]float64, 0, len(refZ.Data))
	testBuf := make([]float64, 0, len(testZ.Data))

	for dy := -maxShift; dy <= maxShift; dy++ {
		for dx := -maxShift; dx <= maxShift; dx++ {
			refBuf = refBuf[:0]
			testBuf = testBuf[:0]
			for r := 0; r < refZ.Rows; r++ {
				sr := r - dy
				if sr < 0 || sr >= testZ.Rows {
					continue
				}
				for c := 0; c < refZ.Cols; c++ {
					sc := c - dx
					if sc < 0 || sc >= testZ.Cols {
						continue
					}
					rv := refZ.At(r, c)
					tv := testZ.At(sr, sc)
					if rv != 0 && tv != 0 {
						refBuf = append(refBuf, rv)
						testBuf = append(testBuf, tv)
					}
				}
			}
			if len(refBuf) < minOverlapPixels {
				continue
			}
			corr := stat.Correlation(refBuf, testBuf, nil)
			if corr > bestCorr {
				bestCorr = corr
				bestDy, bestDx = dy, dx
			}
		}
	}
	return bestDy, bestDx
}

// Shift translates g by (dy, dx) pixels using nearest-neighbor resampling with
// constant fill outside the frame. Positive dy moves content down, positive dx
// moves content right. Use it to apply an offset found by FindOffset.
func Shift(g *Grid, dy, dx int, fill float64) *Grid {
	out := &Grid{Rows: g.Rows, Cols: g.Cols, Data: make([]float64, len(g.Data)), Transform: g.Transform, CRS: g.CRS}
	for r := 0; r < g.Rows; r++ {
		sr := r - dy
		for c := 0; c < g.Cols; c++ {
			sc := c - dx
			if sr < 0 || sr >= g.Rows || sc < 0 || sc >= g.Cols {
				out.Set(r, c, fill)
				continue
			}
			out.Set(r, c, g.At(sr, sc))
		}
	}
	return out
}

// zeroFilled clones g with every non-finite sample replaced by zero.
func zeroFilled(g *Grid) *Grid {
	out := g.Clone()
	for i, v := range out.Data {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			out.Data[i] = 0
		}
	}
	return out
}

// zscore normalizes g in place to zero mean and unit variance over all
// samples. It reports false when the population standard deviation is below
// the degeneracy threshold.
func zscore(g *Grid) bool {
	mean := stat.Mean(g.Data, nil)
	variance := stat.PopVariance(g.Data, nil)
	std := math.Sqrt(variance)
	if std < degenerateStd {
		return false
	}
	for i, v := range g.Data {
		g.Data[i] = (v - mean) / std
	}
	return true
}
