// Package report prints weighted estimates as text summaries and optionally
// exports them to an XLSX workbook, one sheet per estimate.
package report

import (
	"fmt"
	"io"
	"strings"

	"github.com/xuri/excelize/v2"

	"github.com/ad1ttya/pollbar/internal/aggregate"
)

// Section is one named estimate in a report.
type Section struct {
	Name string
	Est  *aggregate.Estimates
}

// Text writes all sections to w in a compact bracket-headed layout.
func Text(w io.Writer, runID string, sections []Section) {
	fmt.Fprintf(w, "[WEIGHTED ESTIMATES]\n")
	if runID != "" {
		fmt.Fprintf(w, "Run: %s\n", runID)
	}
	for _, s := range sections {
		fmt.Fprintf(w, "\n[%s]\n", strings.ToUpper(s.Name))
		if len(s.Est.Within) > 0 {
			fmt.Fprintf(w, "(percentages within %s)\n", strings.Join(s.Est.Within, ", "))
		}
		if len(s.Est.Keys) == 2 {
			facets, err := s.Est.Facets(s.Est.Keys[1])
			if err == nil {
				for _, fc := range facets {
					fmt.Fprintf(w, "- %s\n", fc.Label)
					for _, r := range fc.Rows {
						fmt.Fprintf(w, "  • %s: %.1f%% (weighted n=%.1f)\n", r.Labels[0], r.Share*100, r.Sum)
					}
				}
				continue
			}
		}
		for _, r := range s.Est.Rows {
			fmt.Fprintf(w, "- %s: %.1f%% (weighted n=%.1f)\n", r.Labels[0], r.Share*100, r.Sum)
		}
	}
}

// XLSX writes every section to path as its own worksheet.
func XLSX(path string, sections []Section) error {
	f := excelize.NewFile()
	defer f.Close()
	for _, s := range sections {
		sheet := sheetName(s.Name)
		if _, err := f.NewSheet(sheet); err != nil {
			return fmt.Errorf("sheet %s: %w", sheet, err)
		}
		header := append(append([]string(nil), s.Est.Keys...), "weighted_n", "share")
		for col, v := range header {
			cell, err := excelize.CoordinatesToCellName(col+1, 1)
			if err != nil {
				return err
			}
			if err := f.SetCellValue(sheet, cell, v); err != nil {
				return err
			}
		}
		for i, r := range s.Est.Rows {
			row := make([]interface{}, 0, len(header))
			for _, l := range r.Labels {
				row = append(row, l)
			}
			row = append(row, r.Sum, r.Share)
			for col, v := range row {
				cell, err := excelize.CoordinatesToCellName(col+1, i+2)
				if err != nil {
					return err
				}
				if err := f.SetCellValue(sheet, cell, v); err != nil {
					return err
				}
			}
		}
	}
	if len(sections) > 0 {
		if err := f.DeleteSheet("Sheet1"); err != nil {
			return fmt.Errorf("drop default sheet: %w", err)
		}
	}
	if err := f.SaveAs(path); err != nil {
		return fmt.Errorf("save workbook: %w", err)
	}
	return nil
}

// sheetName fits a section name into Excel's 31-character sheet name limit
// and strips characters Excel rejects.
func sheetName(name string) string {
	repl := strings.NewReplacer(":", " ", "\\", " ", "/", " ", "?", " ", "*", " ", "[", " ", "]", " ")
	s := strings.TrimSpace(repl.Replace(name))
	if len(s) > 31 {
		s = s[:31]
	}
	if s == "" {
		s = "estimates"
	}
	return s
}
