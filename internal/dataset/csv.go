package dataset

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"
)

// codebook is the YAML sidecar accompanying a CSV extract. It supplies what a
// .dta file carries natively: level order, code-to-label mappings, and which
// categories are non-response sentinels.
type codebook struct {
	Variables map[string]codebookVar `yaml:"variables"`
}

type codebookVar struct {
	Levels    []string          `yaml:"levels"`
	Codes     map[string]string `yaml:"codes"`
	Sentinels []string          `yaml:"sentinels"`
}

// CodebookPath returns the sidecar path for a CSV extract:
// survey.csv -> survey.codebook.yaml.
func CodebookPath(csvPath string) string {
	return strings.TrimSuffix(csvPath, ".csv") + ".codebook.yaml"
}

// openCSV reads a CSV extract plus its codebook sidecar. Columns without a
// codebook entry become categorical with levels in first-appearance order.
func openCSV(path string, opt Options) (*Table, error) {
	cb, err := loadCodebook(path)
	if err != nil {
		return nil, err
	}

	f, err := os.Open(path)
	if err != nil {
		return nil, formatErr(path, "open", err)
	}
	defer f.Close()

	r := csv.NewReader(f)
	r.TrimLeadingSpace = true
	header, err := r.Read()
	if err != nil {
		return nil, formatErr(path, "read header", err)
	}
	for i := range header {
		header[i] = strings.TrimSpace(header[i])
	}
	cells := make([][]string, len(header))
	rows := 0
	for {
		rec, err := r.Read()
		if err != nil {
			if errors.Is(err, io.EOF) {
				break
			}
			return nil, formatErr(path, fmt.Sprintf("read record %d", rows+1), err)
		}
		if len(rec) != len(header) {
			return nil, formatErr(path, fmt.Sprintf("record %d has %d fields, want %d", rows+1, len(rec), len(header)), nil)
		}
		for j, v := range rec {
			cells[j] = append(cells[j], strings.TrimSpace(v))
		}
		rows++
	}
	if rows == 0 {
		return nil, formatErr(path, "no records", nil)
	}

	var cols []*Column
	weightSeen := false
	for j, name := range header {
		if name == opt.WeightColumn {
			vals := make([]float64, rows)
			for i, raw := range cells[j] {
				w, err := strconv.ParseFloat(raw, 64)
				if err != nil {
					return nil, formatErr(path, fmt.Sprintf("weight at record %d is not numeric", i+1), err)
				}
				vals[i] = w
			}
			wc := NewNumeric(name, vals)
			if err := checkWeights(path, wc); err != nil {
				return nil, err
			}
			cols = append(cols, wc)
			weightSeen = true
			continue
		}
		cols = append(cols, categoricalFromCells(name, cells[j], cb.Variables[name], opt))
	}
	if !weightSeen {
		return nil, formatErr(path, "weight column "+opt.WeightColumn+" not found", nil)
	}
	return NewTable(cols...)
}

func loadCodebook(csvPath string) (*codebook, error) {
	cbPath := CodebookPath(csvPath)
	b, err := os.ReadFile(cbPath)
	if err != nil {
		if os.IsNotExist(err) {
			return &codebook{}, nil
		}
		return nil, formatErr(cbPath, "read codebook", err)
	}
	var cb codebook
	if err := yaml.Unmarshal(b, &cb); err != nil {
		return nil, formatErr(cbPath, "parse codebook", err)
	}
	return &cb, nil
}

func categoricalFromCells(name string, raw []string, v codebookVar, opt Options) *Column {
	sentinel := make(map[string]bool, len(v.Sentinels))
	for _, s := range v.Sentinels {
		sentinel[s] = true
	}
	labels := make([]string, len(raw))
	for i, cell := range raw {
		label := cell
		if v.Codes != nil {
			if mapped, ok := v.Codes[cell]; ok {
				label = mapped
			}
		}
		if sentinel[label] && !opt.RetainSentinels {
			label = ""
		}
		labels[i] = label
	}
	levels := v.Levels
	if !opt.RetainSentinels && len(levels) > 0 {
		kept := make([]string, 0, len(levels))
		for _, l := range levels {
			if !sentinel[l] {
				kept = append(kept, l)
			}
		}
		levels = kept
	}
	levels = extendLevels(levels, labels)
	return NewCategorical(name, levels, labels)
}
