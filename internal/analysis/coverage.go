package analysis

import "github.com/eoverify/rtcqa/internal/methods"

// CoverageRow reports which products resolve for one (date, AOI, method) key.
// Units dropped from an analysis because their products are missing show up
// here rather than as errors in the batch.
type CoverageRow struct {
	Date, AOI string
	Method    string
	VV, VH    bool
	LIA       bool
}

// Coverage resolves (without loading) every product across the configured
// dates and AOIs and returns the availability matrix.
func (a *Aggregator) Coverage() []CoverageRow {
	var rows []CoverageRow
	for _, date := range a.cfg.Dates {
		for _, aoi := range a.cfg.AOIs {
			for _, m := range methods.All() {
				_, vv := a.resolver.Resolve(date, aoi, m, "vv")
				_, vh := a.resolver.Resolve(date, aoi, m, "vh")
				_, _, lia := a.resolver.ResolveLIA(date, aoi, m)
				rows = append(rows, CoverageRow{
					Date: date, AOI: aoi, Method: m.Key(),
					VV: vv, VH: vh, LIA: lia,
				})
			}
		}
	}
	return rows
}
