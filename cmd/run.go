package cmd

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/ad1ttya/pollbar/internal/aggregate"
	"github.com/ad1ttya/pollbar/internal/chart"
	"github.com/ad1ttya/pollbar/internal/dataset"
	"github.com/ad1ttya/pollbar/internal/recode"
	"github.com/ad1ttya/pollbar/internal/report"
)

const shareTolerance = 1e-9

var (
	runWeight    string
	runSentinels bool
	runOutDir    string
	runXLSX      bool
	runWidthIn   float64
	runHeightIn  float64
)

var runCmd = &cobra.Command{
	Use:   "run [dataset]",
	Short: "Load a survey file, recode, and render weighted estimate charts",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		path := ""
		if len(args) == 1 {
			path = args[0]
		} else if cfg != nil {
			path = cfg.Dataset
		}
		if path == "" {
			return fmt.Errorf("no dataset given (pass a path or set `dataset` in config)")
		}

		opt := dataset.Options{WeightColumn: runWeight, RetainSentinels: runSentinels}
		if cfg != nil {
			if !cmd.Flags().Changed("weight") {
				opt.WeightColumn = cfg.WeightColumn
			}
			if !cmd.Flags().Changed("retain-sentinels") {
				opt.RetainSentinels = cfg.RetainSentinels
			}
		}
		outDir := runOutDir
		if cfg != nil && !cmd.Flags().Changed("out") {
			outDir = cfg.OutputDir
		}
		exportXLSX := runXLSX
		if cfg != nil && cfg.XLSXExport {
			exportXLSX = true
		}
		chartOpt := chart.Options{WidthIn: runWidthIn, HeightIn: runHeightIn}
		if cfg != nil {
			if !cmd.Flags().Changed("width") {
				chartOpt.WidthIn = cfg.ChartWidthIn
			}
			if !cmd.Flags().Changed("height") {
				chartOpt.HeightIn = cfg.ChartHeightIn
			}
		}

		runID := uuid.NewString()
		debugf("run %s: loading %s (weight=%s, sentinels=%v)\n", runID, path, opt.WeightColumn, opt.RetainSentinels)

		t, err := dataset.Open(path, opt)
		if err != nil {
			return err
		}
		debugf("loaded %d respondents, %d columns\n", t.NumRows(), len(t.Columns()))

		t, cov, err := recode.Derive(t, recode.TrumpApproval())
		if err != nil {
			return err
		}
		if cov.Unset > 0 {
			fmt.Fprintf(os.Stderr, "⚠ Warning: %d rows not covered by approval rules\n", cov.Unset)
		}

		sections := []report.Section{}
		overall, err := aggregate.GroupPercentages(t, []string{recode.ApprovalVar}, opt.WeightColumn, nil)
		if err != nil {
			return err
		}
		if err := overall.Check(shareTolerance); err != nil {
			return err
		}
		sections = append(sections, report.Section{Name: "Trump approval", Est: overall})

		type demo struct {
			column   string
			collapse recode.CollapseMap
			levels   []string
			title    string
		}
		demos := []demo{
			{recode.EducationVar, recode.EducationCollapse(), recode.EducationLevels, "Trump approval by education"},
			{recode.AgeVar, recode.AgeCollapse(), recode.AgeLevels, "Trump approval by age"},
		}
		var faceted []report.Section
		for _, d := range demos {
			if _, ok := t.Column(d.column); !ok {
				fmt.Fprintf(os.Stderr, "⚠ Warning: dataset has no %s column, skipping %q\n", d.column, d.title)
				continue
			}
			t, err = recode.Collapse(t, d.column, d.collapse, d.levels)
			if err != nil {
				return err
			}
			est, err := aggregate.GroupPercentages(t, []string{recode.ApprovalVar, d.column}, opt.WeightColumn, []string{d.column})
			if err != nil {
				return err
			}
			if err := est.Check(shareTolerance); err != nil {
				return err
			}
			s := report.Section{Name: d.title, Est: est}
			sections = append(sections, s)
			faceted = append(faceted, s)
		}

		report.Text(os.Stdout, runID, sections)

		if err := os.MkdirAll(outDir, 0o755); err != nil {
			return fmt.Errorf("mkdir output dir: %w", err)
		}
		short := runID[:8]
		caption := "Weighted share of respondents"

		o := chartOpt
		o.Title = "Trump approval"
		o.Caption = caption
		o.Path = filepath.Join(outDir, fmt.Sprintf("approval_%s.png", short))
		if err := chart.HBar(overall, o); err != nil {
			return err
		}
		fmt.Fprintf(os.Stderr, "✔ wrote %s\n", o.Path)

		for _, s := range faceted {
			o := chartOpt
			o.Title = s.Name
			o.Caption = caption
			o.Path = filepath.Join(outDir, fmt.Sprintf("approval_by_%s_%s.png", s.Est.Keys[1], short))
			if err := chart.FacetedHBar(s.Est, s.Est.Keys[1], o); err != nil {
				return err
			}
			fmt.Fprintf(os.Stderr, "✔ wrote %s\n", o.Path)
		}

		if exportXLSX {
			xp := filepath.Join(outDir, fmt.Sprintf("estimates_%s.xlsx", short))
			if err := report.XLSX(xp, sections); err != nil {
				return err
			}
			fmt.Fprintf(os.Stderr, "✔ wrote %s\n", xp)
		}
		return nil
	},
}

func init() {
	runCmd.Flags().StringVar(&runWeight, "weight", "weight", "sampling weight column")
	runCmd.Flags().BoolVar(&runSentinels, "retain-sentinels", true, "keep don't-know/refused responses as an explicit category")
	runCmd.Flags().StringVar(&runOutDir, "out", "charts", "directory for chart and workbook output")
	runCmd.Flags().BoolVar(&runXLSX, "xlsx", false, "also export estimate tables to an XLSX workbook")
	runCmd.Flags().Float64Var(&runWidthIn, "width", 8, "chart width in inches")
	runCmd.Flags().Float64Var(&runHeightIn, "height", 5, "chart height in inches (per facet)")
	rootCmd.AddCommand(runCmd)
}
