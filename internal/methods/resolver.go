package methods

import (
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/eoverify/rtcqa/internal/logutil"
)

// Resolver maps (date, AOI, method, polarization) keys to product files using
// an explicit, ordered candidate-rule table per method. Evaluation stops at
// the first rule that yields an existing file; when every rule misses, the
// product is absent. Resolution never returns an error.
type Resolver struct {
	HyP3Dir        string
	GEEDir         string
	PyroSARKartDir string
	PyroSARCopDir  string
}

// ruleKind distinguishes the candidate-path strategies. Exact rules name one
// file; scan rules walk a directory in sorted order so matches stay
// deterministic without filesystem globbing.
type ruleKind int

const (
	ruleExact ruleKind = iota
	ruleScanCropped
	ruleScanUncropped // last resort; emits a shape-mismatch warning when used
)

type rule struct {
	kind ruleKind
	dir  string
	name string // exact file name, or the token a scan must contain
}

// Resolve returns the backscatter product path for the key, or ok=false when
// no candidate exists. pol is the lowercase polarization ("vv" or "vh").
func (r *Resolver) Resolve(date, aoi string, m Method, pol string) (string, bool) {
	for _, ru := range r.backscatterRules(date, aoi, m, pol) {
		if path, ok := ru.eval(); ok {
			if ru.kind == ruleScanUncropped {
				logutil.Warnf("using uncropped %s product for %s/%s/%s; shapes may not match", m, date, aoi, pol)
			}
			return path, true
		}
	}
	return "", false
}

// ResolveLIA returns the local-incidence-angle product path for the key along
// with whether the stored values are radians (requiring conversion to
// degrees). The GRD baseline has no angle product of its own and borrows the
// HyP3 one.
func (r *Resolver) ResolveLIA(date, aoi string, m Method) (path string, radians, ok bool) {
	switch m {
	case HyP3Gamma, GEEStandard:
		ru := rule{kind: ruleExact, dir: filepath.Join(r.HyP3Dir, date), name: aoi + "_hyp3_inc.tif"}
		path, ok = ru.eval()
		return path, true, ok
	case PyroSARKartverket, PyroSARCopernicus:
		dir := filepath.Join(r.pyrosarBase(m), date, aoi)
		rules := []rule{
			{kind: ruleExact, dir: dir, name: aoi + "_localIncidenceAngle_cropped.tif"},
			{kind: ruleScanUncropped, dir: dir, name: "localIncidenceAngle"},
		}
		for _, ru := range rules {
			if path, ok = ru.eval(); ok {
				if ru.kind == ruleScanUncropped {
					logutil.Warnf("using uncropped incidence-angle product for %s/%s/%s", m, date, aoi)
				}
				return path, false, true
			}
		}
		return "", false, false
	case GEES1ARDKartverket:
		ru := rule{kind: ruleExact, dir: filepath.Join(r.GEEDir, date), name: aoi + "_s1ard_kartverket_lia.tif"}
		path, ok = ru.eval()
		return path, false, ok
	case GEES1ARDCopernicus:
		ru := rule{kind: ruleExact, dir: filepath.Join(r.GEEDir, date), name: aoi + "_s1ard_copernicus_lia.tif"}
		path, ok = ru.eval()
		return path, false, ok
	}
	return "", false, false
}

func (r *Resolver) backscatterRules(date, aoi string, m Method, pol string) []rule {
	switch m {
	case HyP3Gamma:
		return []rule{{kind: ruleExact, dir: filepath.Join(r.HyP3Dir, date), name: aoi + "_hyp3_" + pol + ".tif"}}
	case GEES1ARDKartverket:
		return []rule{{kind: ruleExact, dir: filepath.Join(r.GEEDir, date), name: aoi + "_s1ard_kartverket_" + pol + ".tif"}}
	case GEES1ARDCopernicus:
		return []rule{{kind: ruleExact, dir: filepath.Join(r.GEEDir, date), name: aoi + "_s1ard_copernicus_" + pol + ".tif"}}
	case GEEStandard:
		return []rule{{kind: ruleExact, dir: filepath.Join(r.GEEDir, date), name: aoi + "_standard_" + pol + ".tif"}}
	case PyroSARKartverket, PyroSARCopernicus:
		dir := filepath.Join(r.pyrosarBase(m), date, aoi)
		upper := strings.ToUpper(pol)
		return []rule{
			{kind: ruleExact, dir: dir, name: aoi + "_" + upper + "_gamma0-rtc_cropped.tif"},
			{kind: ruleScanCropped, dir: dir, name: upper},
			{kind: ruleScanUncropped, dir: dir, name: "_" + upper + "_gamma0-rtc.tif"},
		}
	}
	return nil
}

func (r *Resolver) pyrosarBase(m Method) string {
	if m == PyroSARCopernicus {
		return r.PyroSARCopDir
	}
	return r.PyroSARKartDir
}

// eval applies one rule against the filesystem.
func (ru rule) eval() (string, bool) {
	switch ru.kind {
	case ruleExact:
		path := filepath.Join(ru.dir, ru.name)
		if fileExists(path) {
			return path, true
		}
		return "", false
	case ruleScanCropped:
		return scanDir(ru.dir, func(name string) bool {
			return strings.HasSuffix(name, ".tif") &&
				strings.Contains(name, ru.name) &&
				strings.Contains(name, "cropped")
		})
	case ruleScanUncropped:
		return scanDir(ru.dir, func(name string) bool {
			return strings.HasSuffix(name, ".tif") &&
				!strings.Contains(name, "cropped") &&
				strings.Contains(name, ru.name)
		})
	}
	return "", false
}

// scanDir returns the lexicographically first regular file in dir accepted by
// match. A missing directory is simply no match.
func scanDir(dir string, match func(name string) bool) (string, bool) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return "", false
	}
	names := make([]string, 0, len(entries))
	for _, e := range entries {
		if e.Type().IsRegular() && match(e.Name()) {
			names = append(names, e.Name())
		}
	}
	if len(names) == 0 {
		return "", false
	}
	sort.Strings(names)
	return filepath.Join(dir, names[0]), true
}

func fileExists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && !info.IsDir()
}
