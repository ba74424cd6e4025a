package analysis

import (
	"math"

	"github.com/eoverify/rtcqa/internal/logutil"
	"github.com/eoverify/rtcqa/internal/methods"
	"github.com/eoverify/rtcqa/internal/metrics"
	"github.com/eoverify/rtcqa/internal/raster"
)

// extendedMinSamples is the joint-valid floor for the extended mode's
// reference agreement metrics, which are meaningless over a handful of
// overlap pixels.
const extendedMinSamples = 10

// extended-mode window for the mean dB estimate; values outside it are
// decibel outliers.
const (
	extendedMeanMinDB = -50.0
	extendedMeanMaxDB = 10.0
)

// Aggregator runs the analysis modes over the configured date, AOI,
// polarization and method cross-product. Grids are loaded fresh per unit and
// discarded once the unit's rows are emitted; nothing is cached across units,
// so units stay independent and idempotent.
type Aggregator struct {
	cfg      Config
	resolver *methods.Resolver
	loader   *raster.Loader
}

// New builds an Aggregator for cfg. read may be nil to use the default
// GDAL-backed reader.
func New(cfg Config, read raster.ReadFunc) *Aggregator {
	return &Aggregator{
		cfg:      cfg,
		resolver: cfg.Resolver(),
		loader:   raster.NewLoader(read),
	}
}

// Config returns the configuration the aggregator was built with.
func (a *Aggregator) Config() Config { return a.cfg }

// Unit holds every loadable method grid for one (date, AOI, polarization)
// key, aligned onto the unit's reference shape.
type Unit struct {
	Date, AOI, Pol string
	Grids          map[methods.Method]*raster.Grid
	Transform      raster.Transform
	RefRows        int
	RefCols        int
}

// Ref returns the reference method's grid, or nil when it is absent from the
// unit.
func (u *Unit) Ref() *raster.Grid { return u.Grids[methods.Reference()] }

// loadUnit resolves and loads every configured method for one key. The
// reference shape is taken from the reference method when its product loads;
// otherwise from the first grid loaded in canonical method order. Every other
// grid is aligned to that shape before any metric sees it. A key with no
// loadable products returns ok=false.
func (a *Aggregator) loadUnit(date, aoi, pol string, asDB bool) (*Unit, bool) {
	u := &Unit{Date: date, AOI: aoi, Pol: pol, Grids: make(map[methods.Method]*raster.Grid)}
	order := make([]methods.Method, 0, 6)

	for _, m := range methods.All() {
		path, ok := a.resolver.Resolve(date, aoi, m, pol)
		if !ok {
			continue
		}
		g, err := a.loader.Load(path, asDB)
		if err != nil {
			logutil.Warnf("load %s: %v", path, err)
			continue
		}
		if g == nil {
			continue
		}
		u.Grids[m] = g
		order = append(order, m)
	}
	if len(order) == 0 {
		return nil, false
	}

	shapeFrom := order[0]
	if ref := u.Ref(); ref != nil {
		shapeFrom = methods.Reference()
	}
	u.RefRows, u.RefCols = u.Grids[shapeFrom].Shape()
	u.Transform = u.Grids[shapeFrom].Transform

	for _, m := range order {
		u.Grids[m] = raster.Align(u.Grids[m], u.RefRows, u.RefCols)
	}
	return u, true
}

// StatsRow is one univariate statistics record.
type StatsRow struct {
	Date, AOI, Pol string
	Method         string
	MethodName     string
	Mean, Std, CV  float64
	N              int
}

// ComparisonRow is one pairwise record against the reference chain.
type ComparisonRow struct {
	Date, AOI, Pol string
	Method         string
	MethodName     string
	Ref            string
	RMSE, Bias     float64
	R, P           float64
}

// ExtendedRow carries the calibration-oriented metrics: mean dB inside the
// plausibility window, bias against the physically expected level, CV in the
// linear domain, and agreement with the reference.
type ExtendedRow struct {
	Date, AOI, Pol string
	Method         string
	MeanDB         float64
	BiasVsExpected float64
	CV             float64
	RMSEVsRef      float64
	R2VsRef        float64
}

// LIARow is one incidence-angle regression record.
type LIARow struct {
	Date, AOI, Pol string
	Method         string
	Slope          float64
	Intercept      float64
	R2             float64
	N              int
	Quality        string
}

// Stats computes per-method univariate statistics (in dB) for every
// (date, AOI, polarization) unit over the given dates. Methods without a
// product for a unit are omitted from that unit only.
func (a *Aggregator) Stats(dates []string) []StatsRow {
	var rows []StatsRow
	a.eachUnit(dates, func(date, aoi, pol string) {
		u, ok := a.loadUnit(date, aoi, pol, true)
		if !ok {
			logutil.Logf("no data for %s/%s/%s", date, aoi, pol)
			return
		}
		for _, m := range methods.All() {
			g := u.Grids[m]
			if g == nil {
				continue
			}
			s := metrics.Describe(g.Data)
			rows = append(rows, StatsRow{
				Date: date, AOI: aoi, Pol: pol,
				Method: m.Key(), MethodName: m.Name(),
				Mean: s.Mean, Std: s.Std, CV: s.CV, N: s.N,
			})
		}
	})
	return rows
}

// Compare computes pairwise RMSE, bias, and Pearson correlation of every
// non-reference method against the reference chain. Units where the reference
// product is absent yield no comparison rows.
func (a *Aggregator) Compare(dates []string) []ComparisonRow {
	var rows []ComparisonRow
	ref := methods.Reference()
	a.eachUnit(dates, func(date, aoi, pol string) {
		u, ok := a.loadUnit(date, aoi, pol, true)
		if !ok {
			return
		}
		refGrid := u.Ref()
		if refGrid == nil {
			logutil.Logf("reference %s absent for %s/%s/%s; skipping comparison", ref, date, aoi, pol)
			return
		}
		for _, m := range methods.All() {
			if m == ref {
				continue
			}
			g := u.Grids[m]
			if g == nil {
				continue
			}
			r, p := metrics.Correlation(g.Data, refGrid.Data)
			rows = append(rows, ComparisonRow{
				Date: date, AOI: aoi, Pol: pol,
				Method: m.Key(), MethodName: m.Name(), Ref: ref.Key(),
				RMSE: metrics.RMSE(g.Data, refGrid.Data),
				Bias: metrics.Bias(g.Data, refGrid.Data),
				R:    r, P: p,
			})
		}
	})
	return rows
}

// Extended computes the calibration metrics. The CV is evaluated in linear
// power (where it acts as a texture proxy) while the remaining metrics use
// the dB grids.
func (a *Aggregator) Extended(dates []string) []ExtendedRow {
	var rows []ExtendedRow
	ref := methods.Reference()
	a.eachUnit(dates, func(date, aoi, pol string) {
		linear, okLin := a.loadUnit(date, aoi, pol, false)
		db, ok := a.loadUnit(date, aoi, pol, true)
		if !ok {
			return
		}
		refGrid := db.Ref()
		expected := a.cfg.ExpectedDB[pol]
		for _, m := range methods.All() {
			g := db.Grids[m]
			if g == nil {
				continue
			}
			meanDB := windowedMean(g.Data, extendedMeanMinDB, extendedMeanMaxDB)
			row := ExtendedRow{
				Date: date, AOI: aoi, Pol: pol, Method: m.Key(),
				MeanDB:         meanDB,
				BiasVsExpected: meanDB - expected,
				CV:             math.NaN(),
				RMSEVsRef:      math.NaN(),
				R2VsRef:        math.NaN(),
			}
			if okLin {
				if lg := linear.Grids[m]; lg != nil {
					row.CV = metrics.Describe(lg.Data).CV
				}
			}
			if refGrid != nil && m != ref {
				if jointCount(g.Data, refGrid.Data) >= extendedMinSamples {
					row.RMSEVsRef = metrics.RMSE(g.Data, refGrid.Data)
					if r, _ := metrics.Correlation(g.Data, refGrid.Data); !math.IsNaN(r) {
						row.R2VsRef = r * r
					}
				}
			}
			rows = append(rows, row)
		}
	})
	return rows
}

// LIADetail pairs a regression row with the aligned sample grids that
// produced it, so the reporting layer can render scatter figures without
// re-resolving and re-loading the products.
type LIADetail struct {
	Row           LIARow
	Reg           metrics.Regression
	LIADeg        []float64
	BackscatterDB []float64
}

// LIA regresses backscatter on local incidence angle per method. The
// reference chain's backscatter product anchors the unit's shape; units where
// it is absent are dropped (observable in coverage reporting).
func (a *Aggregator) LIA(dates []string) []LIARow {
	details := a.LIADetailed(dates)
	rows := make([]LIARow, len(details))
	for i, d := range details {
		rows[i] = d.Row
	}
	return rows
}

// LIADetailed is LIA keeping the per-method sample vectors alongside each row.
func (a *Aggregator) LIADetailed(dates []string) []LIADetail {
	var details []LIADetail
	a.eachUnit(dates, func(date, aoi, pol string) {
		refPath, ok := a.resolver.Resolve(date, aoi, methods.Reference(), pol)
		if !ok {
			return
		}
		refGrid, err := a.loader.Load(refPath, true)
		if err != nil || refGrid == nil {
			return
		}
		refRows, refCols := refGrid.Shape()

		for _, m := range methods.All() {
			path, ok := a.resolver.Resolve(date, aoi, m, pol)
			if !ok {
				continue
			}
			bs, err := a.loader.Load(path, true)
			if err != nil || bs == nil {
				continue
			}
			liaPath, radians, ok := a.resolver.ResolveLIA(date, aoi, m)
			if !ok {
				continue
			}
			lia, err := a.loader.LoadAngle(liaPath, radians)
			if err != nil || lia == nil {
				continue
			}

			bs = raster.Align(bs, refRows, refCols)
			lia = raster.Align(lia, refRows, refCols)

			reg := metrics.LIASlope(bs.Data, lia.Data)
			details = append(details, LIADetail{
				Row: LIARow{
					Date: date, AOI: aoi, Pol: pol, Method: m.Key(),
					Slope: reg.Slope, Intercept: reg.Intercept, R2: reg.R2, N: reg.N,
					Quality: metrics.SlopeQuality(reg.Slope),
				},
				Reg:           reg,
				LIADeg:        lia.Data,
				BackscatterDB: bs.Data,
			})
		}
	})
	return details
}

// eachUnit invokes fn for every (date, AOI, polarization) combination in the
// configured iteration order.
func (a *Aggregator) eachUnit(dates []string, fn func(date, aoi, pol string)) {
	for _, date := range dates {
		for _, aoi := range a.cfg.AOIs {
			for _, pol := range a.cfg.Polarizations {
				fn(date, aoi, pol)
			}
		}
	}
}

// windowedMean averages the finite samples inside (lo, hi), NaN when none.
func windowedMean(data []float64, lo, hi float64) float64 {
	sum, n := 0.0, 0
	for _, v := range data {
		if !math.IsNaN(v) && v > lo && v < hi {
			sum += v
			n++
		}
	}
	if n == 0 {
		return math.NaN()
	}
	return sum / float64(n)
}

// jointCount returns the size of the joint finite mask of a and b.
func jointCount(a, b []float64) int {
	n := 0
	for i := range a {
		if !math.IsNaN(a[i]) && !math.IsInf(a[i], 0) && !math.IsNaN(b[i]) && !math.IsInf(b[i], 0) {
			n++
		}
	}
	return n
}
