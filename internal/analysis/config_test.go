package analysis

import (
	"os"
	"path/filepath"
	"testing"
)

func TestDefaultConfigConsistency(t *testing.T) {
	cfg := Default("data")

	if len(cfg.Dates) != 20 {
		t.Fatalf("expected 20 comparison dates, got %d", len(cfg.Dates))
	}
	if len(cfg.AOIs) != 3 {
		t.Fatalf("expected 3 AOIs, got %d", len(cfg.AOIs))
	}
	primaryKnown := false
	for _, d := range cfg.Dates {
		if _, ok := cfg.Orbits[d]; !ok {
			t.Errorf("date %s has no orbit direction", d)
		}
		if d == cfg.PrimaryDate {
			primaryKnown = true
		}
	}
	if !primaryKnown {
		t.Fatalf("primary date %s is not a comparison date", cfg.PrimaryDate)
	}
	for _, pol := range cfg.Polarizations {
		if _, ok := cfg.ExpectedDB[pol]; !ok {
			t.Errorf("polarization %s has no expected dB level", pol)
		}
	}
}

func TestLoadOverlay(t *testing.T) {
	base := Default("data")
	path := filepath.Join(t.TempDir(), "cfg.json")
	overlay := `{
		"results_dir": "out",
		"dates": ["20170613"],
		"polarizations": ["vv"],
		"veg_correction": {"a": -8, "b": 3, "c": 6}
	}`
	if err := os.WriteFile(path, []byte(overlay), 0644); err != nil {
		t.Fatalf("write overlay: %v", err)
	}

	got, err := Load(path, base)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if got.ResultsDir != "out" {
		t.Fatalf("results dir = %s", got.ResultsDir)
	}
	if len(got.Dates) != 1 || got.Dates[0] != "20170613" {
		t.Fatalf("dates = %v", got.Dates)
	}
	if got.VegCorrection.A != -8 {
		t.Fatalf("veg coefs = %+v", got.VegCorrection)
	}
	// Untouched fields keep their defaults.
	if got.PrimaryDate != base.PrimaryDate {
		t.Fatalf("primary date changed: %s", got.PrimaryDate)
	}
	if len(got.AOIs) != 3 {
		t.Fatalf("aois overridden unexpectedly: %v", got.AOIs)
	}
}

func TestLoadMissingFile(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "nope.json"), Default("data")); err == nil {
		t.Fatal("expected an error for a missing config file")
	}
}
