package cmd

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/ad1ttya/pollbar/internal/dataset"
)

var (
	inspectWeight    string
	inspectSentinels bool
)

var inspectCmd = &cobra.Command{
	Use:   "inspect <dataset>",
	Short: "Print the schema of a survey file: columns, levels, unset counts",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		opt := dataset.Options{WeightColumn: inspectWeight, RetainSentinels: inspectSentinels}
		if cfg != nil {
			if !cmd.Flags().Changed("weight") {
				opt.WeightColumn = cfg.WeightColumn
			}
			if !cmd.Flags().Changed("retain-sentinels") {
				opt.RetainSentinels = cfg.RetainSentinels
			}
		}
		t, err := dataset.Open(args[0], opt)
		if err != nil {
			return err
		}
		fmt.Printf("[DATASET]\nFile: %s\nRespondents: %d\nColumns: %d\n\n[SCHEMA]\n", args[0], t.NumRows(), len(t.Columns()))
		for _, s := range t.Schema() {
			if s.Kind == "numeric" {
				fmt.Printf("- %s: numeric (weight)\n", s.Name)
				continue
			}
			fmt.Printf("- %s: categorical", s.Name)
			if s.Unset > 0 {
				fmt.Printf(" (unset %d)", s.Unset)
			}
			fmt.Printf(" — %s\n", strings.Join(s.Levels, " | "))
		}
		return nil
	},
}

func init() {
	inspectCmd.Flags().StringVar(&inspectWeight, "weight", "weight", "sampling weight column")
	inspectCmd.Flags().BoolVar(&inspectSentinels, "retain-sentinels", true, "keep don't-know/refused responses as an explicit category")
	rootCmd.AddCommand(inspectCmd)
}
