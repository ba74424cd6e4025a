package results

import (
	"encoding/csv"
	"fmt"
	"math"
	"os"
	"strconv"

	"github.com/eoverify/rtcqa/internal/analysis"
)

// WriteStatsCSV writes stats rows to path. Undefined metrics are written as
// empty cells.
func WriteStatsCSV(path string, rows []analysis.StatsRow) error {
	records := [][]string{{"date", "aoi", "pol", "method", "method_name", "mean", "std", "cv", "n"}}
	for _, r := range rows {
		records = append(records, []string{
			r.Date, r.AOI, r.Pol, r.Method, r.MethodName,
			cell(r.Mean), cell(r.Std), cell(r.CV), strconv.Itoa(r.N),
		})
	}
	return writeCSV(path, records)
}

// WriteComparisonCSV writes reference-comparison rows to path.
func WriteComparisonCSV(path string, rows []analysis.ComparisonRow) error {
	records := [][]string{{"date", "aoi", "pol", "method", "method_name", "ref", "rmse", "bias", "r", "p"}}
	for _, r := range rows {
		records = append(records, []string{
			r.Date, r.AOI, r.Pol, r.Method, r.MethodName, r.Ref,
			cell(r.RMSE), cell(r.Bias), cell(r.R), cell(r.P),
		})
	}
	return writeCSV(path, records)
}

// WriteLIACSV writes incidence-angle regression rows to path.
func WriteLIACSV(path string, rows []analysis.LIARow) error {
	records := [][]string{{"date", "aoi", "pol", "method", "slope", "intercept", "r2", "n", "quality"}}
	for _, r := range rows {
		records = append(records, []string{
			r.Date, r.AOI, r.Pol, r.Method,
			cell(r.Slope), cell(r.Intercept), cell(r.R2), strconv.Itoa(r.N), r.Quality,
		})
	}
	return writeCSV(path, records)
}

// WriteExtendedCSV writes calibration-metric rows to path.
func WriteExtendedCSV(path string, rows []analysis.ExtendedRow) error {
	records := [][]string{{"date", "aoi", "pol", "method", "mean_db", "bias", "cv", "rmse_vs_ref", "r2_vs_ref"}}
	for _, r := range rows {
		records = append(records, []string{
			r.Date, r.AOI, r.Pol, r.Method,
			cell(r.MeanDB), cell(r.BiasVsExpected), cell(r.CV), cell(r.RMSEVsRef), cell(r.R2VsRef),
		})
	}
	return writeCSV(path, records)
}

// WriteMoistureCSV writes soil-moisture validation rows to path.
func WriteMoistureCSV(path string, rows []analysis.MoistureResult) error {
	records := [][]string{{"method", "pol", "r", "rmse", "bias", "n"}}
	for _, r := range rows {
		records = append(records, []string{
			r.Method, r.Pol,
			cell(r.R), cell(r.RMSE), cell(r.Bias), strconv.Itoa(r.N),
		})
	}
	return writeCSV(path, records)
}

// WriteCoverageCSV writes the availability matrix to path.
func WriteCoverageCSV(path string, rows []analysis.CoverageRow) error {
	records := [][]string{{"date", "aoi", "method", "vv", "vh", "lia"}}
	for _, r := range rows {
		records = append(records, []string{
			r.Date, r.AOI, r.Method,
			strconv.FormatBool(r.VV), strconv.FormatBool(r.VH), strconv.FormatBool(r.LIA),
		})
	}
	return writeCSV(path, records)
}

func writeCSV(path string, records [][]string) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}
	w := csv.NewWriter(f)
	if err := w.WriteAll(records); err != nil {
		f.Close()
		return fmt.Errorf("write %s: %w", path, err)
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("close %s: %w", path, err)
	}
	return nil
}

func cell(v float64) string {
	if math.IsNaN(v) {
		return ""
	}
	return strconv.FormatFloat(v, 'g', -1, 64)
}
