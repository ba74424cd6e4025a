// Command rtcqa runs the RTC comparison analysis modes over a local product
// archive and writes flat result tables (CSV and SQLite) plus optional HTML
// and PNG reports.
package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"time"

	"github.com/eoverify/rtcqa/internal/analysis"
	"github.com/eoverify/rtcqa/internal/methods"
	"github.com/eoverify/rtcqa/internal/report"
	"github.com/eoverify/rtcqa/internal/results"
	"github.com/eoverify/rtcqa/internal/version"
)

type options struct {
	mode        string
	dataDir     string
	configPath  string
	date        string
	dbPath      string
	htmlReport  bool
	figures     bool
	fieldPath   string
	aoi         string
	vegCorrect  bool
	showVersion bool
}

func parseFlags() options {
	var o options
	flag.StringVar(&o.mode, "mode", "stats", "analysis mode: stats | compare | extended | lia | multitemp | lia-multitemp | coverage | moisture")
	flag.StringVar(&o.dataDir, "data", "data", "root of the product archive")
	flag.StringVar(&o.configPath, "config", "", "optional JSON config overlay")
	flag.StringVar(&o.date, "date", "", "acquisition date (YYYYMMDD); defaults to the configured primary date")
	flag.StringVar(&o.dbPath, "db", "", "optional SQLite results database path")
	flag.BoolVar(&o.htmlReport, "html", false, "write an HTML time-series report (multitemp mode)")
	flag.BoolVar(&o.figures, "figures", true, "write scatter figures (lia modes)")
	flag.StringVar(&o.fieldPath, "field", "", "field campaign CSV: date,x,y,theta,ndvi (moisture mode)")
	flag.StringVar(&o.aoi, "aoi", "", "area of interest (moisture mode); defaults to the first configured AOI")
	flag.BoolVar(&o.vegCorrect, "veg", false, "apply the vegetation correction (moisture mode)")
	flag.BoolVar(&o.showVersion, "version", false, "print build information and exit")
	flag.Parse()
	return o
}

func main() {
	o := parseFlags()

	if o.showVersion {
		fmt.Printf("rtcqa %s (%s, built %s)\n", version.Version, version.GitSHA, version.BuildTime)
		return
	}

	cfg := analysis.Default(o.dataDir)
	if o.configPath != "" {
		var err error
		cfg, err = analysis.Load(o.configPath, cfg)
		if err != nil {
			log.Fatalf("config: %v", err)
		}
	}
	if err := os.MkdirAll(cfg.ResultsDir, 0755); err != nil {
		log.Fatalf("create results dir: %v", err)
	}

	date := o.date
	if date == "" {
		date = cfg.PrimaryDate
	}

	agg := analysis.New(cfg, nil)

	var store *results.Store
	if o.dbPath != "" {
		var err error
		store, err = results.Open(o.dbPath)
		if err != nil {
			log.Fatalf("results db: %v", err)
		}
		defer store.Close()
	}

	switch o.mode {
	case "stats":
		rows := agg.Stats([]string{date})
		mustCSV(results.WriteStatsCSV(resultPath(cfg, "stats_"+date+".csv"), rows))
		persist(store, o.mode, cfg, func(runID string) error { return store.InsertStats(runID, rows) })
		log.Printf("stats: %d rows for %s", len(rows), date)

	case "compare":
		rows := agg.Compare([]string{date})
		mustCSV(results.WriteComparisonCSV(resultPath(cfg, "comparison_"+date+".csv"), rows))
		persist(store, o.mode, cfg, func(runID string) error { return store.InsertComparisons(runID, rows) })
		log.Printf("compare: %d rows for %s", len(rows), date)

	case "extended":
		rows := agg.Extended([]string{date})
		mustCSV(results.WriteExtendedCSV(resultPath(cfg, "extended_"+date+".csv"), rows))
		log.Printf("extended: %d rows for %s", len(rows), date)

	case "lia":
		details := agg.LIADetailed([]string{date})
		rows := liaRows(details)
		mustCSV(results.WriteLIACSV(resultPath(cfg, "lia_"+date+".csv"), rows))
		persist(store, o.mode, cfg, func(runID string) error { return store.InsertLIA(runID, rows) })
		if o.figures {
			writeScatterFigures(cfg, details)
		}
		log.Printf("lia: %d rows for %s", len(rows), date)

	case "multitemp":
		stats := agg.Stats(cfg.Dates)
		comparisons := agg.Compare(cfg.Dates)
		mustCSV(results.WriteStatsCSV(resultPath(cfg, "stats_timeseries.csv"), stats))
		mustCSV(results.WriteComparisonCSV(resultPath(cfg, "comparison_timeseries.csv"), comparisons))
		persist(store, o.mode, cfg, func(runID string) error {
			if err := store.InsertStats(runID, stats); err != nil {
				return err
			}
			return store.InsertComparisons(runID, comparisons)
		})
		if o.htmlReport {
			path := resultPath(cfg, "timeseries.html")
			if err := report.WriteTimeSeriesHTML(path, stats, comparisons, cfg); err != nil {
				log.Fatalf("html report: %v", err)
			}
			log.Printf("report written to %s", path)
		}
		log.Printf("multitemp: %d stats rows, %d comparison rows", len(stats), len(comparisons))

	case "lia-multitemp":
		details := agg.LIADetailed(cfg.Dates)
		rows := liaRows(details)
		mustCSV(results.WriteLIACSV(resultPath(cfg, "lia_multitemporal.csv"), rows))
		persist(store, o.mode, cfg, func(runID string) error { return store.InsertLIA(runID, rows) })
		if o.figures {
			writeScatterFigures(cfg, details)
		}
		log.Printf("lia-multitemp: %d rows", len(rows))

	case "moisture":
		if o.fieldPath == "" {
			log.Fatal("moisture mode requires -field")
		}
		field, err := analysis.LoadFieldObservations(o.fieldPath)
		if err != nil {
			log.Fatalf("field data: %v", err)
		}
		aoi := o.aoi
		if aoi == "" {
			aoi = cfg.AOIs[0]
		}
		rows := validateMoisture(agg, cfg, field, aoi, o.vegCorrect)
		mustCSV(results.WriteMoistureCSV(resultPath(cfg, "moisture_"+aoi+".csv"), rows))
		log.Printf("moisture: %d rows for %s", len(rows), aoi)

	case "coverage":
		rows := agg.Coverage()
		mustCSV(results.WriteCoverageCSV(resultPath(cfg, "coverage.csv"), rows))
		available := 0
		for _, r := range rows {
			if r.VV || r.VH {
				available++
			}
		}
		log.Printf("coverage: %d/%d (date, aoi, method) keys have products", available, len(rows))

	default:
		fmt.Fprintf(os.Stderr, "unknown mode %q\n", o.mode)
		flag.Usage()
		os.Exit(2)
	}
}

// fieldMatchWindowDays is how far a SAR acquisition may sit from a field
// campaign date and still validate against it.
const fieldMatchWindowDays = 3

func resultPath(cfg analysis.Config, name string) string {
	return filepath.Join(cfg.ResultsDir, name)
}

func liaRows(details []analysis.LIADetail) []analysis.LIARow {
	rows := make([]analysis.LIARow, len(details))
	for i, d := range details {
		rows[i] = d.Row
	}
	return rows
}

// writeScatterFigures renders one backscatter-vs-LIA scatter per regression
// row into the figures directory. A row whose samples all fall outside the
// regression window is skipped rather than failing the run.
func writeScatterFigures(cfg analysis.Config, details []analysis.LIADetail) {
	if err := os.MkdirAll(cfg.FiguresDir, 0755); err != nil {
		log.Fatalf("create figures dir: %v", err)
	}
	written := 0
	for _, d := range details {
		r := d.Row
		name := fmt.Sprintf("lia_scatter_%s_%s_%s_%s.png", r.AOI, r.Pol, r.Date, r.Method)
		title := fmt.Sprintf("%s %s %s %s", r.AOI, r.Pol, r.Date, r.Method)
		path := filepath.Join(cfg.FiguresDir, name)
		if err := report.WriteLIAScatterPNG(path, title, d.LIADeg, d.BackscatterDB, d.Reg); err != nil {
			log.Printf("skip figure %s: %v", name, err)
			continue
		}
		written++
	}
	log.Printf("wrote %d scatter figures to %s", written, cfg.FiguresDir)
}

// validateMoisture scores every method and polarization against the field
// campaign and returns the defined results in canonical order.
func validateMoisture(agg *analysis.Aggregator, cfg analysis.Config, field []analysis.FieldObservation, aoi string, veg bool) []analysis.MoistureResult {
	matches := analysis.MatchDates(cfg.Dates, fieldDates(field), fieldMatchWindowDays)
	if len(matches) == 0 {
		log.Fatal("no acquisition dates match the field campaign")
	}
	var rows []analysis.MoistureResult
	for _, pol := range cfg.Polarizations {
		for _, m := range methods.All() {
			res := agg.ValidateMoisture(m, field, matches, aoi, pol, veg)
			if res == nil {
				continue
			}
			rows = append(rows, *res)
		}
	}
	return rows
}

// fieldDates returns the distinct campaign dates in observation order.
func fieldDates(field []analysis.FieldObservation) []time.Time {
	seen := make(map[time.Time]bool)
	var out []time.Time
	for _, f := range field {
		if !seen[f.Date] {
			seen[f.Date] = true
			out = append(out, f.Date)
		}
	}
	return out
}

func mustCSV(err error) {
	if err != nil {
		log.Fatalf("write csv: %v", err)
	}
}

// persist records the run and its rows when a store is configured.
func persist(store *results.Store, mode string, cfg analysis.Config, insert func(runID string) error) {
	if store == nil {
		return
	}
	snapshot, err := json.Marshal(cfg)
	if err != nil {
		log.Fatalf("marshal config: %v", err)
	}
	runID, err := store.BeginRun(mode, string(snapshot))
	if err != nil {
		log.Fatalf("record run: %v", err)
	}
	if err := insert(runID); err != nil {
		log.Fatalf("persist rows: %v", err)
	}
}
