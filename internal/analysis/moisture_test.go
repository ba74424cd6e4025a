package analysis

import (
	"math"
	"path/filepath"
	"testing"
	"time"

	"github.com/eoverify/rtcqa/internal/methods"
	"github.com/eoverify/rtcqa/internal/raster"
)

func day(s string) time.Time {
	t, err := time.Parse("2006-01-02", s)
	if err != nil {
		panic(err)
	}
	return t
}

func TestMatchDates(t *testing.T) {
	field := []time.Time{day("2017-06-12"), day("2017-07-01")}
	matches := MatchDates([]string{"20170613", "20170630", "20170801"}, field, 3)

	if len(matches) != 2 {
		t.Fatalf("expected 2 matches, got %d", len(matches))
	}
	if matches[0].SARDate != "20170613" || !matches[0].FieldDate.Equal(day("2017-06-12")) {
		t.Fatalf("first match = %+v", matches[0])
	}
	if matches[1].SARDate != "20170630" || !matches[1].FieldDate.Equal(day("2017-07-01")) {
		t.Fatalf("second match = %+v", matches[1])
	}
}

func TestFilterDates(t *testing.T) {
	cfg := Default("data")
	dates := []string{"20170613", "20170614", "20170801"}

	june := cfg.FilterDates(dates, []time.Month{time.June}, "")
	if len(june) != 2 {
		t.Fatalf("june filter = %v", june)
	}

	asc := cfg.FilterDates(dates, nil, "Ascending")
	if len(asc) != 1 || asc[0] != "20170613" {
		t.Fatalf("ascending filter = %v", asc)
	}

	both := cfg.FilterDates(dates, []time.Month{time.June}, "Descending")
	if len(both) != 1 || both[0] != "20170614" {
		t.Fatalf("combined filter = %v", both)
	}
}

func TestValidateMoisture(t *testing.T) {
	ta := newTestArchive(t)

	// 10x10 grid with a left-right backscatter gradient, 10 m pixels.
	g := raster.NewGrid(10, 10)
	g.Transform = raster.Transform{0, 10, 0, 0, 0, -10}
	for r := 0; r < 10; r++ {
		for c := 0; c < 10; c++ {
			g.Set(r, c, 0.05+0.02*float64(c))
		}
	}
	ta.add(t, filepath.Join(ta.cfg.HyP3Dir, testDate), testAOI+"_hyp3_vv.tif", g)

	fieldDate := day("2017-06-12")
	var field []FieldObservation
	// Wetter sites sit on the brighter side of the gradient.
	for c := 0; c < 10; c++ {
		field = append(field, FieldObservation{
			Date:  fieldDate,
			X:     float64(c)*10 + 5,
			Y:     -45,
			Theta: 0.10 + 0.03*float64(c),
			NDVI:  0.5,
		})
	}
	matches := MatchDates(ta.cfg.Dates, []time.Time{fieldDate}, 3)
	if len(matches) != 1 {
		t.Fatalf("expected 1 matched date, got %d", len(matches))
	}

	agg := New(ta.cfg, ta.read)
	res := agg.ValidateMoisture(methods.HyP3Gamma, field, matches, testAOI, "vv", false)
	if res == nil {
		t.Fatal("expected a moisture result")
	}
	if res.N != 10 {
		t.Fatalf("n = %d, want 10", res.N)
	}
	if res.R < 0.9 {
		t.Fatalf("expected strong correlation with the moisture gradient, got %v", res.R)
	}
	if res.RMSE < 0 || math.IsNaN(res.RMSE) {
		t.Fatalf("rmse = %v", res.RMSE)
	}
}

func TestValidateMoistureVegCorrectionClamps(t *testing.T) {
	ta := newTestArchive(t)

	g := raster.NewGrid(10, 10)
	g.Transform = raster.Transform{0, 10, 0, 0, 0, -10}
	for r := 0; r < 10; r++ {
		for c := 0; c < 10; c++ {
			g.Set(r, c, 0.05+0.02*float64(c))
		}
	}
	ta.add(t, filepath.Join(ta.cfg.HyP3Dir, testDate), testAOI+"_hyp3_vv.tif", g)

	fieldDate := day("2017-06-12")
	field := []FieldObservation{
		{Date: fieldDate, X: 5, Y: -5, Theta: 0.10, NDVI: 0.8},
		{Date: fieldDate, X: 95, Y: -5, Theta: 0.40, NDVI: 0.8},
		{Date: fieldDate, X: 55, Y: -5, Theta: 0.25, NDVI: 0.8},
	}
	matches := []DateMatch{{SARDate: testDate, FieldDate: fieldDate}}

	agg := New(ta.cfg, ta.read)
	res := agg.ValidateMoisture(methods.HyP3Gamma, field, matches, testAOI, "vv", true)
	if res == nil {
		t.Fatal("expected a moisture result")
	}
	// The clamped normalization cannot leave the field moisture range.
	smMin, smMax := 0.10, 0.40
	if res.Bias < smMin-smMax || res.Bias > smMax-smMin {
		t.Fatalf("bias %v outside achievable range", res.Bias)
	}
}

func TestValidateMoistureVegFallbackClamps(t *testing.T) {
	ta := newTestArchive(t)
	// Coefficients yielding a non-positive range: the upper bound falls back
	// to the pooled 95th percentile but the clip to [0, 1] must still apply.
	ta.cfg.VegCorrection = VegCoefs{A: 0, B: 0, C: -1}

	// Strictly increasing linear values 0.01..1.00 so the dB percentiles are
	// well separated and the first three cells sit below the 5th percentile.
	g := raster.NewGrid(10, 10)
	g.Transform = raster.Transform{0, 10, 0, 0, 0, -10}
	for i := range g.Data {
		g.Data[i] = 0.01 * float64(i+1)
	}
	ta.add(t, filepath.Join(ta.cfg.HyP3Dir, testDate), testAOI+"_hyp3_vv.tif", g)

	fieldDate := day("2017-06-12")
	field := []FieldObservation{
		{Date: fieldDate, X: 5, Y: -5, Theta: 0.10, NDVI: 0.5},
		{Date: fieldDate, X: 15, Y: -5, Theta: 0.20, NDVI: 0.5},
		{Date: fieldDate, X: 25, Y: -5, Theta: 0.30, NDVI: 0.5},
	}
	matches := []DateMatch{{SARDate: testDate, FieldDate: fieldDate}}

	agg := New(ta.cfg, ta.read)
	res := agg.ValidateMoisture(methods.HyP3Gamma, field, matches, testAOI, "vv", true)
	if res == nil {
		t.Fatal("expected a moisture result")
	}
	if res.N != 3 {
		t.Fatalf("n = %d, want 3", res.N)
	}
	// Each field cell is below the 5th percentile, so every clipped retrieval
	// is the field minimum 0.10 and the bias is exactly -0.10.
	if math.Abs(res.Bias+0.10) > 1e-9 {
		t.Fatalf("bias = %v, want -0.10", res.Bias)
	}
	wantRMSE := math.Sqrt((0 + 0.01 + 0.04) / 3)
	if math.Abs(res.RMSE-wantRMSE) > 1e-9 {
		t.Fatalf("rmse = %v, want %v", res.RMSE, wantRMSE)
	}
}

func TestValidateMoistureSkipsSparseDates(t *testing.T) {
	ta := newTestArchive(t)
	ta.cfg.Dates = []string{"20170613", "20170614"}

	g := raster.NewGrid(10, 10)
	g.Transform = raster.Transform{0, 10, 0, 0, 0, -10}
	for r := 0; r < 10; r++ {
		for c := 0; c < 10; c++ {
			g.Set(r, c, 0.05+0.02*float64(c))
		}
	}
	ta.add(t, filepath.Join(ta.cfg.HyP3Dir, "20170613"), testAOI+"_hyp3_vv.tif", g)
	ta.add(t, filepath.Join(ta.cfg.HyP3Dir, "20170614"), testAOI+"_hyp3_vv.tif", g.Clone())

	dense := day("2017-06-13")
	sparse := day("2017-06-14")
	field := []FieldObservation{
		{Date: dense, X: 5, Y: -5, Theta: 0.10, NDVI: 0.5},
		{Date: dense, X: 35, Y: -5, Theta: 0.20, NDVI: 0.5},
		{Date: dense, X: 75, Y: -5, Theta: 0.30, NDVI: 0.5},
		// Two points are not enough for this date to enter the pool.
		{Date: sparse, X: 15, Y: -5, Theta: 0.15, NDVI: 0.5},
		{Date: sparse, X: 55, Y: -5, Theta: 0.25, NDVI: 0.5},
	}
	matches := []DateMatch{
		{SARDate: "20170613", FieldDate: dense},
		{SARDate: "20170614", FieldDate: sparse},
	}

	agg := New(ta.cfg, ta.read)
	res := agg.ValidateMoisture(methods.HyP3Gamma, field, matches, testAOI, "vv", false)
	if res == nil {
		t.Fatal("expected a moisture result")
	}
	if res.N != 3 {
		t.Fatalf("n = %d, want 3 (sparse date excluded)", res.N)
	}
}

func TestValidateMoistureNoData(t *testing.T) {
	muteLogs(t)
	ta := newTestArchive(t)
	agg := New(ta.cfg, ta.read)

	res := agg.ValidateMoisture(methods.HyP3Gamma, nil,
		[]DateMatch{{SARDate: testDate, FieldDate: day("2017-06-12")}}, testAOI, "vv", false)
	if res != nil {
		t.Fatalf("expected nil result for an empty archive, got %+v", res)
	}
}
