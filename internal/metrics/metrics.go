// Package metrics implements the statistical battery used to score RTC
// processing chains: univariate backscatter statistics, pairwise agreement
// with the reference chain, and the incidence-angle dependence regression.
//
// All functions are pure and operate only over finite samples (over the joint
// finite mask for pairwise metrics). When the valid-sample count is below a
// metric's threshold the result is undefined: numeric fields are NaN and the
// Valid flag is false, never a value computed from too few points.
package metrics

import (
	"math"

	"gonum.org/v1/gonum/stat"
	"gonum.org/v1/gonum/stat/distuv"
)

// minCorrelationSamples is the smallest joint sample count for which a Pearson
// correlation (and its significance) is defined.
const minCorrelationSamples = 3

// Regression filter bounds and threshold. Angles outside [15, 60] degrees are
// dominated by geometric edge artifacts; backscatter outside (-40, 5) dB is
// treated as outlier content.
const (
	liaMinDeg          = 15.0
	liaMaxDeg          = 60.0
	backscatterMinDB   = -40.0
	backscatterMaxDB   = 5.0
	minRegressionCount = 20
)

// Stats summarizes the valid samples of one grid.
type Stats struct {
	Mean float64
	Std  float64 // population standard deviation
	CV   float64 // coefficient of variation, percent
	N    int
}

// Describe computes mean, population standard deviation and coefficient of
// variation over the finite samples of data. With no valid samples every
// numeric field is NaN and N is 0.
func Describe(data []float64) Stats {
	valid := finite(data)
	if len(valid) == 0 {
		return Stats{Mean: math.NaN(), Std: math.NaN(), CV: math.NaN()}
	}
	mean := stat.Mean(valid, nil)
	std := math.Sqrt(stat.PopVariance(valid, nil))
	return Stats{
		Mean: mean,
		Std:  std,
		CV:   std / math.Abs(mean) * 100,
		N:    len(valid),
	}
}

// RMSE returns the root-mean-square error between a and b over their joint
// finite mask, NaN when the mask is empty or the lengths differ. Symmetric in
// its arguments.
func RMSE(a, b []float64) float64 {
	if len(a) != len(b) {
		return math.NaN()
	}
	sum, n := 0.0, 0
	for i := range a {
		if jointValid(a[i], b[i]) {
			d := a[i] - b[i]
			sum += d * d
			n++
		}
	}
	if n == 0 {
		return math.NaN()
	}
	return math.Sqrt(sum / float64(n))
}

// Bias returns the signed mean difference a-b over the joint finite mask, NaN
// when the mask is empty or the lengths differ. Order matters: pass test
// first, reference second.
func Bias(a, b []float64) float64 {
	if len(a) != len(b) {
		return math.NaN()
	}
	sum, n := 0.0, 0
	for i := range a {
		if jointValid(a[i], b[i]) {
			sum += a[i] - b[i]
			n++
		}
	}
	if n == 0 {
		return math.NaN()
	}
	return sum / float64(n)
}

// Correlation returns the Pearson correlation coefficient between a and b over
// their joint finite mask and its two-sided significance from the Student's t
// distribution with n-2 degrees of freedom. Both values are NaN when fewer
// than 3 joint samples exist or the lengths differ.
func Correlation(a, b []float64) (r, p float64) {
	if len(a) != len(b) {
		return math.NaN(), math.NaN()
	}
	var xs, ys []float64
	for i := range a {
		if jointValid(a[i], b[i]) {
			xs = append(xs, a[i])
			ys = append(ys, b[i])
		}
	}
	n := len(xs)
	if n < minCorrelationSamples {
		return math.NaN(), math.NaN()
	}
	r = stat.Correlation(xs, ys, nil)
	p = pearsonPValue(r, n)
	return r, p
}

// pearsonPValue converts a correlation coefficient into a two-sided p-value
// via the t statistic r*sqrt((n-2)/(1-r^2)).
func pearsonPValue(r float64, n int) float64 {
	df := float64(n - 2)
	denom := 1 - r*r
	if denom <= 0 {
		// |r| == 1: the t statistic diverges and the correlation is exact.
		return 0
	}
	t := math.Abs(r) * math.Sqrt(df/denom)
	dist := distuv.StudentsT{Mu: 0, Sigma: 1, Nu: df}
	return 2 * dist.Survival(t)
}

// Regression holds an ordinary-least-squares fit of backscatter on local
// incidence angle. Slope is in dB per degree; a well terrain-corrected chain
// has slope magnitude near zero.
type Regression struct {
	Slope     float64
	Intercept float64
	R2        float64
	N         int
	Valid     bool
}

// LIASlope regresses backscatter (dB) on local incidence angle (degrees),
// restricted to samples with angle in [15, 60] and backscatter in (-40, 5).
// With fewer than 20 surviving samples, or mismatched input lengths, the fit
// is undefined: NaN fields, the surviving count in N, Valid false.
func LIASlope(bsDB, liaDeg []float64) Regression {
	if len(bsDB) != len(liaDeg) {
		return Regression{Slope: math.NaN(), Intercept: math.NaN(), R2: math.NaN()}
	}
	var lia, bs []float64
	for i := range bsDB {
		if !jointValid(bsDB[i], liaDeg[i]) {
			continue
		}
		if liaDeg[i] < liaMinDeg || liaDeg[i] > liaMaxDeg {
			continue
		}
		if bsDB[i] <= backscatterMinDB || bsDB[i] >= backscatterMaxDB {
			continue
		}
		lia = append(lia, liaDeg[i])
		bs = append(bs, bsDB[i])
	}
	if len(lia) < minRegressionCount {
		return Regression{Slope: math.NaN(), Intercept: math.NaN(), R2: math.NaN(), N: len(lia)}
	}
	intercept, slope := stat.LinearRegression(lia, bs, nil, false)
	r := stat.Correlation(lia, bs, nil)
	return Regression{
		Slope:     slope,
		Intercept: intercept,
		R2:        r * r,
		N:         len(lia),
		Valid:     true,
	}
}

// SlopeQuality buckets a regression slope into the reporting quality bands.
// It is a presentation aid, not a gate.
func SlopeQuality(slope float64) string {
	abs := math.Abs(slope)
	switch {
	case math.IsNaN(slope):
		return "undefined"
	case abs < 0.05:
		return "good"
	case abs < 0.10:
		return "marginal"
	default:
		return "poor"
	}
}

// finite returns the finite samples of data in order.
func finite(data []float64) []float64 {
	out := make([]float64, 0, len(data))
	for _, v := range data {
		if !math.IsNaN(v) && !math.IsInf(v, 0) {
			out = append(out, v)
		}
	}
	return out
}

func jointValid(a, b float64) bool {
	return !math.IsNaN(a) && !math.IsInf(a, 0) && !math.IsNaN(b) && !math.IsInf(b, 0)
}
