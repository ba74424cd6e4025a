package analysis

import (
	"math"
	"sort"
	"time"

	"gonum.org/v1/gonum/stat"

	"github.com/eoverify/rtcqa/internal/logutil"
	"github.com/eoverify/rtcqa/internal/methods"
	"github.com/eoverify/rtcqa/internal/metrics"
)

// FieldObservation is one in-situ soil-moisture measurement: world
// coordinates in the raster CRS, volumetric water content, and the Sentinel-2
// NDVI at the site for vegetation correction.
type FieldObservation struct {
	Date  time.Time
	X, Y  float64
	Theta float64 // volumetric soil moisture
	NDVI  float64
}

// DateMatch pairs a SAR acquisition date with the nearest field campaign date.
type DateMatch struct {
	SARDate   string
	FieldDate time.Time
}

// MatchDates pairs each SAR date (YYYYMMDD) with the closest field date within
// maxDays. Unmatched SAR dates are dropped.
func MatchDates(sarDates []string, fieldDates []time.Time, maxDays int) []DateMatch {
	var out []DateMatch
	for _, s := range sarDates {
		sd, err := time.Parse("20060102", s)
		if err != nil {
			continue
		}
		best := time.Time{}
		bestDiff := math.MaxFloat64
		for _, f := range fieldDates {
			d := math.Abs(f.Sub(sd).Hours() / 24)
			if d < bestDiff {
				bestDiff = d
				best = f
			}
		}
		if !best.IsZero() && bestDiff <= float64(maxDays) {
			out = append(out, DateMatch{SARDate: s, FieldDate: best})
		}
	}
	return out
}

// FilterDates restricts dates to the given months and/or orbit direction.
// Nil months or an empty orbit leave that axis unfiltered.
func (c Config) FilterDates(dates []string, months []time.Month, orbit string) []string {
	out := dates
	if len(months) > 0 {
		var keep []string
		for _, d := range out {
			t, err := time.Parse("20060102", d)
			if err != nil {
				continue
			}
			for _, m := range months {
				if t.Month() == m {
					keep = append(keep, d)
					break
				}
			}
		}
		out = keep
	}
	if orbit != "" {
		var keep []string
		for _, d := range out {
			if c.Orbits[d] == orbit {
				keep = append(keep, d)
			}
		}
		out = keep
	}
	return out
}

// minDatePairs is the smallest number of valid point pairs a matched date must
// contribute before it enters the pooled validation statistics.
const minDatePairs = 3

// MoistureResult scores one method's soil-moisture retrieval against field
// measurements pooled over all matched dates.
type MoistureResult struct {
	Method string
	Pol    string
	R      float64
	RMSE   float64
	Bias   float64 // retrieved minus measured
	N      int
}

// ValidateMoisture maps a method's backscatter to soil moisture by min-max
// normalization between its pooled 5th and 95th dB percentiles, optionally
// rescaling the upper bound per date from the mean field NDVI through the
// configured vegetation-correction quadratic, then samples the moisture map
// at the field points and pools the pairs across dates. A date contributing
// fewer than 3 valid pairs is excluded from the pool. Returns nil when no
// usable pairs exist.
func (a *Aggregator) ValidateMoisture(m methods.Method, field []FieldObservation, matches []DateMatch, aoi, pol string, vegCorrection bool) *MoistureResult {
	// Pool backscatter over all matched dates to fix the normalization range.
	var pooled []float64
	for _, match := range matches {
		u, ok := a.loadUnit(match.SARDate, aoi, pol, true)
		if !ok {
			continue
		}
		g := u.Grids[m]
		if g == nil {
			continue
		}
		for _, v := range g.Data {
			if !math.IsNaN(v) && !math.IsInf(v, 0) {
				pooled = append(pooled, v)
			}
		}
	}
	if len(pooled) == 0 {
		logutil.Logf("no valid backscatter to calibrate %s over %s/%s", m, aoi, pol)
		return nil
	}
	sort.Float64s(pooled)
	gammaMin := stat.Quantile(0.05, stat.LinInterp, pooled, nil)
	gammaMax := stat.Quantile(0.95, stat.LinInterp, pooled, nil)

	smMin, smMax := fieldRange(field)

	var measured, retrieved []float64
	for _, match := range matches {
		u, ok := a.loadUnit(match.SARDate, aoi, pol, true)
		if !ok {
			continue
		}
		g := u.Grids[m]
		if g == nil {
			continue
		}

		subset := fieldOn(field, match.FieldDate)
		if len(subset) == 0 {
			continue
		}

		// Vegetation correction replaces the upper bound when the quadratic
		// yields a usable range, and clips the normalized value either way;
		// a degenerate range falls back to the pooled percentile.
		upper := gammaMax
		clamp := false
		if vegCorrection {
			clamp = true
			ndvi := meanNDVI(subset)
			span := a.cfg.VegCorrection.A*ndvi*ndvi + a.cfg.VegCorrection.B*ndvi + a.cfg.VegCorrection.C
			if corrected := gammaMin + span; corrected > gammaMin {
				upper = corrected
			}
		}

		var dateMeasured, dateRetrieved []float64
		for _, obs := range subset {
			v := g.Sample(obs.X, obs.Y)
			if math.IsNaN(v) || math.IsNaN(obs.Theta) {
				continue
			}
			norm := (v - gammaMin) / (upper - gammaMin)
			if clamp {
				norm = math.Min(math.Max(norm, 0), 1)
			}
			dateRetrieved = append(dateRetrieved, norm*(smMax-smMin)+smMin)
			dateMeasured = append(dateMeasured, obs.Theta)
		}
		// A date with too few valid pairs carries no signal of its own and
		// would only add noise to the pooled statistics.
		if len(dateMeasured) < minDatePairs {
			continue
		}
		measured = append(measured, dateMeasured...)
		retrieved = append(retrieved, dateRetrieved...)
	}

	if len(measured) < 3 {
		return nil
	}
	r, _ := metrics.Correlation(measured, retrieved)
	return &MoistureResult{
		Method: m.Key(),
		Pol:    pol,
		R:      r,
		RMSE:   metrics.RMSE(measured, retrieved),
		Bias:   metrics.Bias(retrieved, measured),
		N:      len(measured),
	}
}

func fieldRange(field []FieldObservation) (min, max float64) {
	min, max = math.Inf(1), math.Inf(-1)
	for _, f := range field {
		if math.IsNaN(f.Theta) {
			continue
		}
		if f.Theta < min {
			min = f.Theta
		}
		if f.Theta > max {
			max = f.Theta
		}
	}
	return min, max
}

func fieldOn(field []FieldObservation, date time.Time) []FieldObservation {
	var out []FieldObservation
	for _, f := range field {
		if f.Date.Equal(date) {
			out = append(out, f)
		}
	}
	return out
}

func meanNDVI(field []FieldObservation) float64 {
	sum, n := 0.0, 0
	for _, f := range field {
		if !math.IsNaN(f.NDVI) {
			sum += f.NDVI
			n++
		}
	}
	if n == 0 {
		return math.NaN()
	}
	return sum / float64(n)
}
