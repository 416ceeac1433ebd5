package dataset

import (
	"fmt"
	"os"
	"sort"

	"github.com/kshedden/datareader"
)

// openStata reads a Stata .dta file. Value labels are applied in-reader so
// coded responses arrive as their human-readable categories; level order
// follows ascending code order from the file's value-label tables.
func openStata(path string, opt Options) (*Table, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, formatErr(path, "open", err)
	}
	defer f.Close()

	rdr, err := datareader.NewStataReader(f)
	if err != nil {
		return nil, formatErr(path, "not a readable Stata file", err)
	}
	rdr.InsertCategoryLabels = true
	rdr.ConvertDates = true

	series, err := rdr.Read(-1)
	if err != nil {
		return nil, formatErr(path, "read records", err)
	}
	if len(series) == 0 || series[0].Length() == 0 {
		return nil, formatErr(path, "no records", nil)
	}

	var cols []*Column
	weightSeen := false
	for j, ser := range series {
		if ser.Name == opt.WeightColumn {
			vals, missing, err := ser.AsFloat64Slice()
			if err != nil {
				return nil, formatErr(path, "weight column is not numeric", err)
			}
			for i, m := range missing {
				if m {
					return nil, formatErr(path, fmt.Sprintf("missing sampling weight at record %d", i), nil)
				}
			}
			wc := NewNumeric(ser.Name, vals)
			if err := checkWeights(path, wc); err != nil {
				return nil, err
			}
			cols = append(cols, wc)
			weightSeen = true
			continue
		}

		labels, missing, err := ser.AsStringSlice()
		if err != nil {
			return nil, formatErr(path, "column "+ser.Name+" unreadable", err)
		}
		levels := labeledLevels(rdr, j)
		for i, m := range missing {
			if m {
				if opt.RetainSentinels {
					labels[i] = SentinelLabel
				} else {
					labels[i] = ""
				}
			}
		}
		levels = extendLevels(levels, labels)
		cols = append(cols, NewCategorical(ser.Name, levels, labels))
	}
	if !weightSeen {
		return nil, formatErr(path, "weight column "+opt.WeightColumn+" not found", nil)
	}
	return NewTable(cols...)
}

// labeledLevels recovers the declared category order for column j from the
// file's value-label table, ascending by code.
func labeledLevels(rdr *datareader.StataReader, j int) []string {
	if j >= len(rdr.ValueLabelNames) {
		return nil
	}
	table, ok := rdr.ValueLabels[rdr.ValueLabelNames[j]]
	if !ok {
		return nil
	}
	codes := make([]int32, 0, len(table))
	for code := range table {
		codes = append(codes, code)
	}
	sort.Slice(codes, func(a, b int) bool { return codes[a] < codes[b] })
	levels := make([]string, len(codes))
	for i, code := range codes {
		levels[i] = table[code]
	}
	return levels
}

// extendLevels appends labels observed in the data but absent from the
// declared levels, in first-appearance order. Blank labels stay unset.
func extendLevels(levels []string, labels []string) []string {
	seen := make(map[string]bool, len(levels))
	for _, l := range levels {
		seen[l] = true
	}
	for _, l := range labels {
		if l == "" || seen[l] {
			continue
		}
		seen[l] = true
		levels = append(levels, l)
	}
	return levels
}
