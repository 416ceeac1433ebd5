package dataset

import (
	"path/filepath"
	"strings"
)

// SentinelLabel is the explicit non-response category materialized when
// sentinel retention is on. Downstream recode rules match it like any other
// category.
const SentinelLabel = "Don't know/Refused (VOL.)"

// Options controls loading behavior.
type Options struct {
	// WeightColumn names the per-respondent sampling weight. Required.
	WeightColumn string
	// RetainSentinels keeps "don't know/refused" style responses as an
	// explicit category instead of leaving the row unset.
	RetainSentinels bool
}

// Open loads a labeled survey dataset by file extension: Stata .dta files
// directly, or .csv extracts accompanied by a <name>.codebook.yaml sidecar
// describing levels, code-to-label mappings, and sentinel categories.
func Open(path string, opt Options) (*Table, error) {
	if opt.WeightColumn == "" {
		return nil, formatErr(path, "no weight column configured", nil)
	}
	switch strings.ToLower(filepath.Ext(path)) {
	case ".dta":
		return openStata(path, opt)
	case ".csv":
		return openCSV(path, opt)
	default:
		return nil, formatErr(path, "unsupported format (want .dta or .csv)", nil)
	}
}

func checkWeights(path string, c *Column) error {
	for i := 0; i < c.Len(); i++ {
		if w := c.Value(i); w < 0 {
			return formatErr(path, "negative sampling weight", nil)
		}
	}
	return nil
}
