// Package report renders analysis rows into browsable artifacts: an HTML page
// of time-series charts and PNG scatter plots of the incidence-angle
// regressions. It is a pure consumer of row slices and owns no analysis logic.
package report

import (
	"fmt"
	"os"
	"sort"

	"github.com/go-echarts/go-echarts/v2/charts"
	"github.com/go-echarts/go-echarts/v2/components"
	"github.com/go-echarts/go-echarts/v2/opts"

	"github.com/eoverify/rtcqa/internal/analysis"
	"github.com/eoverify/rtcqa/internal/methods"
)

// WriteTimeSeriesHTML renders per-AOI CV and RMSE time-series charts into one
// HTML page at path. Each method is a line series keyed by its display color;
// dates missing for a method leave gaps rather than zeros.
func WriteTimeSeriesHTML(path string, stats []analysis.StatsRow, comparisons []analysis.ComparisonRow, cfg analysis.Config) error {
	page := components.NewPage()
	page.SetPageTitle("RTC method comparison")

	for _, aoi := range cfg.AOIs {
		for _, pol := range cfg.Polarizations {
			page.AddCharts(
				cvChart(stats, aoi, pol, cfg),
				rmseChart(comparisons, aoi, pol, cfg),
			)
		}
	}

	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create report: %w", err)
	}
	defer f.Close()
	if err := page.Render(f); err != nil {
		return fmt.Errorf("render report: %w", err)
	}
	return nil
}

func cvChart(rows []analysis.StatsRow, aoi, pol string, cfg analysis.Config) components.Charter {
	line := charts.NewLine()
	line.SetGlobalOptions(
		charts.WithTitleOpts(opts.Title{
			Title:    fmt.Sprintf("CV - %s / %s", aoi, pol),
			Subtitle: "coefficient of variation (%), lower is smoother",
		}),
		charts.WithYAxisOpts(opts.YAxis{Name: "CV (%)"}),
		charts.WithTooltipOpts(opts.Tooltip{Show: opts.Bool(true)}),
	)

	dates := sortedDates(cfg)
	line.SetXAxis(dates)
	for _, m := range methods.All() {
		byDate := make(map[string]float64)
		for _, r := range rows {
			if r.AOI == aoi && r.Pol == pol && r.Method == m.Key() {
				byDate[r.Date] = r.CV
			}
		}
		if len(byDate) == 0 {
			continue
		}
		data := make([]opts.LineData, 0, len(dates))
		for _, d := range dates {
			if v, ok := byDate[d]; ok {
				data = append(data, opts.LineData{Value: v})
			} else {
				data = append(data, opts.LineData{Value: nil})
			}
		}
		line.AddSeries(m.Name(), data,
			charts.WithLineStyleOpts(opts.LineStyle{Color: m.Meta().Color}),
			charts.WithItemStyleOpts(opts.ItemStyle{Color: m.Meta().Color}),
		)
	}
	return line
}

func rmseChart(rows []analysis.ComparisonRow, aoi, pol string, cfg analysis.Config) components.Charter {
	line := charts.NewLine()
	line.SetGlobalOptions(
		charts.WithTitleOpts(opts.Title{
			Title:    fmt.Sprintf("RMSE vs %s - %s / %s", methods.Reference().Name(), aoi, pol),
			Subtitle: "dB",
		}),
		charts.WithYAxisOpts(opts.YAxis{Name: "RMSE (dB)"}),
		charts.WithTooltipOpts(opts.Tooltip{Show: opts.Bool(true)}),
	)

	dates := sortedDates(cfg)
	line.SetXAxis(dates)
	for _, m := range methods.All() {
		if m.IsReference() {
			continue
		}
		byDate := make(map[string]float64)
		for _, r := range rows {
			if r.AOI == aoi && r.Pol == pol && r.Method == m.Key() {
				byDate[r.Date] = r.RMSE
			}
		}
		if len(byDate) == 0 {
			continue
		}
		data := make([]opts.LineData, 0, len(dates))
		for _, d := range dates {
			if v, ok := byDate[d]; ok {
				data = append(data, opts.LineData{Value: v})
			} else {
				data = append(data, opts.LineData{Value: nil})
			}
		}
		line.AddSeries(m.Name(), data,
			charts.WithLineStyleOpts(opts.LineStyle{Color: m.Meta().Color}),
			charts.WithItemStyleOpts(opts.ItemStyle{Color: m.Meta().Color}),
		)
	}
	return line
}

func sortedDates(cfg analysis.Config) []string {
	dates := append([]string(nil), cfg.Dates...)
	sort.Strings(dates)
	return dates
}
