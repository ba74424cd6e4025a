package analysis

import (
	"encoding/csv"
	"fmt"
	"math"
	"os"
	"strconv"
	"time"

	"github.com/eoverify/rtcqa/internal/logutil"
)

// LoadFieldObservations reads a field campaign table from a CSV file with the
// header date,x,y,theta,ndvi. Dates are YYYYMMDD in the raster archive
// convention; x and y are world coordinates in the raster CRS; theta is
// volumetric soil moisture; ndvi may be empty when no optical acquisition
// covers the site (it parses as NaN and is ignored by the vegetation
// correction). Rows that fail to parse are skipped with a warning rather than
// aborting the campaign.
func LoadFieldObservations(path string) ([]FieldObservation, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open field data: %w", err)
	}
	defer f.Close()

	r := csv.NewReader(f)
	r.FieldsPerRecord = -1
	records, err := r.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("parse field data %s: %w", path, err)
	}
	if len(records) < 2 {
		return nil, fmt.Errorf("field data %s has no observation rows", path)
	}

	var out []FieldObservation
	for i, rec := range records[1:] {
		obs, err := parseFieldRow(rec)
		if err != nil {
			logutil.Warnf("field data %s row %d: %v", path, i+2, err)
			continue
		}
		out = append(out, obs)
	}
	if len(out) == 0 {
		return nil, fmt.Errorf("field data %s has no parseable rows", path)
	}
	return out, nil
}

func parseFieldRow(rec []string) (FieldObservation, error) {
	if len(rec) < 5 {
		return FieldObservation{}, fmt.Errorf("expected 5 columns, got %d", len(rec))
	}
	date, err := time.Parse("20060102", rec[0])
	if err != nil {
		return FieldObservation{}, fmt.Errorf("bad date %q", rec[0])
	}
	x, err := strconv.ParseFloat(rec[1], 64)
	if err != nil {
		return FieldObservation{}, fmt.Errorf("bad x %q", rec[1])
	}
	y, err := strconv.ParseFloat(rec[2], 64)
	if err != nil {
		return FieldObservation{}, fmt.Errorf("bad y %q", rec[2])
	}
	theta, err := strconv.ParseFloat(rec[3], 64)
	if err != nil {
		return FieldObservation{}, fmt.Errorf("bad theta %q", rec[3])
	}
	ndvi := parseOptionalFloat(rec[4])
	return FieldObservation{Date: date, X: x, Y: y, Theta: theta, NDVI: ndvi}, nil
}

// parseOptionalFloat treats an empty or unparseable cell as a missing value.
func parseOptionalFloat(s string) float64 {
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return math.NaN()
	}
	return v
}
