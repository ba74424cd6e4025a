package metrics

import (
	"math"
	"testing"
)

func TestDescribeZeroVariance(t *testing.T) {
	s := Describe([]float64{1, 1, 1, 1})
	if s.N != 4 {
		t.Fatalf("expected n=4 got %d", s.N)
	}
	if s.Mean != 1 {
		t.Fatalf("expected mean=1 got %v", s.Mean)
	}
	if s.CV != 0 {
		t.Fatalf("expected cv=0 for constant data, got %v", s.CV)
	}
}

func TestDescribeAllMissing(t *testing.T) {
	nan := math.NaN()
	s := Describe([]float64{nan, nan, nan})
	if s.N != 0 {
		t.Fatalf("expected n=0 got %d", s.N)
	}
	if !math.IsNaN(s.Mean) || !math.IsNaN(s.Std) || !math.IsNaN(s.CV) {
		t.Fatalf("expected undefined fields, got %+v", s)
	}
}

func TestDescribeSkipsNonFinite(t *testing.T) {
	s := Describe([]float64{2, math.NaN(), 4, math.Inf(1)})
	if s.N != 2 {
		t.Fatalf("expected n=2 got %d", s.N)
	}
	if s.Mean != 3 {
		t.Fatalf("expected mean=3 got %v", s.Mean)
	}
}

func TestRMSEProperties(t *testing.T) {
	a := []float64{1, 2, 3, 4}
	b := []float64{1.5, 2.5, 2.5, 4}

	if got := RMSE(a, a); got != 0 {
		t.Fatalf("rmse(a,a) = %v, want 0", got)
	}
	ab, ba := RMSE(a, b), RMSE(b, a)
	if ab < 0 {
		t.Fatalf("rmse must be non-negative, got %v", ab)
	}
	if ab != ba {
		t.Fatalf("rmse not symmetric: %v vs %v", ab, ba)
	}
}

func TestRMSEEmptyMask(t *testing.T) {
	nan := math.NaN()
	if got := RMSE([]float64{nan, 1}, []float64{2, nan}); !math.IsNaN(got) {
		t.Fatalf("expected NaN for empty joint mask, got %v", got)
	}
}

func TestBiasAntisymmetry(t *testing.T) {
	a := []float64{1, 2, 3}
	b := []float64{2, 2, 5}
	if Bias(a, b) != -Bias(b, a) {
		t.Fatalf("bias(a,b)=%v, bias(b,a)=%v", Bias(a, b), Bias(b, a))
	}
	if got := Bias(a, b); got != -1 {
		t.Fatalf("bias = %v, want -1", got)
	}
}

func TestCorrelationSymmetryAndSignificance(t *testing.T) {
	a := []float64{1, 2, 3, 4, 5, 6}
	b := []float64{1.1, 2.3, 2.8, 4.2, 4.9, 6.1}

	rab, pab := Correlation(a, b)
	rba, _ := Correlation(b, a)
	if rab != rba {
		t.Fatalf("correlation not symmetric: %v vs %v", rab, rba)
	}
	if rab < 0.99 {
		t.Fatalf("expected strong correlation, got %v", rab)
	}
	if pab < 0 || pab > 1 {
		t.Fatalf("p-value out of range: %v", pab)
	}
	if pab > 0.01 {
		t.Fatalf("expected significant correlation, p=%v", pab)
	}
}

func TestCorrelationPerfect(t *testing.T) {
	a := []float64{1, 2, 3, 4}
	r, p := Correlation(a, a)
	if math.Abs(r-1) > 1e-12 {
		t.Fatalf("expected r=1, got %v", r)
	}
	if p > 1e-9 {
		t.Fatalf("expected vanishing p for exact correlation, got %v", p)
	}
}

func TestCorrelationInsufficientSamples(t *testing.T) {
	r, p := Correlation([]float64{1, 2}, []float64{3, 4})
	if !math.IsNaN(r) || !math.IsNaN(p) {
		t.Fatalf("expected undefined correlation below 3 samples, got r=%v p=%v", r, p)
	}
}

func TestLIASlopeFlatBackscatter(t *testing.T) {
	// 50 samples: angle sweeps the filter window, backscatter is -10 dB plus
	// a small oscillation uncorrelated with angle.
	n := 50
	lia := make([]float64, n)
	bs := make([]float64, n)
	for i := 0; i < n; i++ {
		lia[i] = 15 + 45*float64(i)/float64(n-1)
		bs[i] = -10 + 0.01*math.Sin(float64(i)*2.39996)
	}
	reg := LIASlope(bs, lia)
	if !reg.Valid {
		t.Fatalf("expected valid regression, n=%d", reg.N)
	}
	if math.Abs(reg.Slope) >= 0.02 {
		t.Fatalf("expected near-zero slope for terrain-flat data, got %v", reg.Slope)
	}
	if reg.R2 > 0.2 {
		t.Fatalf("expected r2 near zero, got %v", reg.R2)
	}
}

func TestLIASlopeRecoversTrend(t *testing.T) {
	n := 40
	lia := make([]float64, n)
	bs := make([]float64, n)
	for i := 0; i < n; i++ {
		lia[i] = 15 + 45*float64(i)/float64(n-1)
		bs[i] = -5 - 0.2*lia[i]
	}
	reg := LIASlope(bs, lia)
	if !reg.Valid {
		t.Fatalf("expected valid regression, n=%d", reg.N)
	}
	if math.Abs(reg.Slope+0.2) > 1e-9 {
		t.Fatalf("slope = %v, want -0.2", reg.Slope)
	}
	if math.Abs(reg.R2-1) > 1e-9 {
		t.Fatalf("r2 = %v, want 1", reg.R2)
	}
	if math.Abs(reg.Intercept+5) > 1e-9 {
		t.Fatalf("intercept = %v, want -5", reg.Intercept)
	}
}

func TestLIASlopeInsufficientSamples(t *testing.T) {
	lia := []float64{20, 30, 40, 50}
	bs := []float64{-10, -11, -12, -13}
	reg := LIASlope(bs, lia)
	if reg.Valid {
		t.Fatal("expected undefined regression below 20 samples")
	}
	if reg.N != 4 {
		t.Fatalf("expected surviving count 4, got %d", reg.N)
	}
	if !math.IsNaN(reg.Slope) || !math.IsNaN(reg.Intercept) || !math.IsNaN(reg.R2) {
		t.Fatalf("expected NaN fields, got %+v", reg)
	}
}

func TestLIASlopeFilterWindow(t *testing.T) {
	// Samples outside the angle window or the dB window must not count.
	n := 30
	lia := make([]float64, 0, n*2)
	bs := make([]float64, 0, n*2)
	for i := 0; i < n; i++ {
		lia = append(lia, 15+45*float64(i)/float64(n-1))
		bs = append(bs, -10+0.01*float64(i%5))
	}
	// Outliers: steep angles and clipped backscatter.
	lia = append(lia, 5, 70, 30, 30)
	bs = append(bs, -10, -10, -45, 10)

	reg := LIASlope(bs, lia)
	if reg.N != n {
		t.Fatalf("expected %d filtered samples, got %d", n, reg.N)
	}
}

func TestSlopeQuality(t *testing.T) {
	cases := []struct {
		slope float64
		want  string
	}{
		{0.01, "good"},
		{-0.04, "good"},
		{0.07, "marginal"},
		{-0.3, "poor"},
		{math.NaN(), "undefined"},
	}
	for _, c := range cases {
		if got := SlopeQuality(c.slope); got != c.want {
			t.Errorf("SlopeQuality(%v) = %q, want %q", c.slope, got, c.want)
		}
	}
}

func TestPairwiseLengthMismatch(t *testing.T) {
	a := []float64{1, 2, 3, 4}
	b := []float64{1, 2, 3}

	if v := RMSE(a, b); !math.IsNaN(v) {
		t.Errorf("RMSE on mismatched lengths = %v, want NaN", v)
	}
	if v := Bias(a, b); !math.IsNaN(v) {
		t.Errorf("Bias on mismatched lengths = %v, want NaN", v)
	}
	r, p := Correlation(a, b)
	if !math.IsNaN(r) || !math.IsNaN(p) {
		t.Errorf("Correlation on mismatched lengths = %v, %v, want NaN, NaN", r, p)
	}
	reg := LIASlope(a, b)
	if reg.Valid || !math.IsNaN(reg.Slope) || reg.N != 0 {
		t.Errorf("LIASlope on mismatched lengths = %+v, want undefined", reg)
	}
}
