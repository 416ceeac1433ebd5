package cmd

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	cfgpkg "github.com/ad1ttya/pollbar/internal/config"
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "View or set pollbar configuration",
}

var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show effective configuration",
	RunE: func(cmd *cobra.Command, args []string) error {
		if cfg == nil {
			fmt.Println("No config loaded")
			return nil
		}
		fmt.Printf("dataset: %s\n", cfg.Dataset)
		fmt.Printf("weight_column: %s\n", cfg.WeightColumn)
		fmt.Printf("retain_sentinels: %v\n", cfg.RetainSentinels)
		fmt.Printf("output_dir: %s\n", cfg.OutputDir)
		fmt.Printf("chart_width_in: %.1f\n", cfg.ChartWidthIn)
		fmt.Printf("chart_height_in: %.1f\n", cfg.ChartHeightIn)
		fmt.Printf("xlsx_export: %v\n", cfg.XLSXExport)
		return nil
	},
}

var configSetCmd = &cobra.Command{
	Use:   "set <key> <value>",
	Short: "Set a config value and save to disk",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		key, val := args[0], args[1]
		if cfg == nil {
			c, err := cfgpkg.Load(cfgFile)
			if err != nil {
				return err
			}
			cfg = c
		}
		switch key {
		case "dataset":
			cfg.Dataset = val
		case "weight_column":
			cfg.WeightColumn = val
		case "retain_sentinels":
			b, err := strconv.ParseBool(val)
			if err != nil {
				return fmt.Errorf("invalid bool for retain_sentinels: %v", val)
			}
			cfg.RetainSentinels = b
		case "output_dir":
			cfg.OutputDir = val
		case "chart_width_in":
			f, err := strconv.ParseFloat(val, 64)
			if err != nil || f <= 0 {
				return fmt.Errorf("invalid size for chart_width_in: %v", val)
			}
			cfg.ChartWidthIn = f
		case "chart_height_in":
			f, err := strconv.ParseFloat(val, 64)
			if err != nil || f <= 0 {
				return fmt.Errorf("invalid size for chart_height_in: %v", val)
			}
			cfg.ChartHeightIn = f
		case "xlsx_export":
			b, err := strconv.ParseBool(val)
			if err != nil {
				return fmt.Errorf("invalid bool for xlsx_export: %v", val)
			}
			cfg.XLSXExport = b
		default:
			return fmt.Errorf("unknown key: %s", key)
		}
		if err := cfgpkg.Save(cfg, cfgFile); err != nil {
			return err
		}
		fmt.Println("Saved config")
		return nil
	},
}

func init() {
	rootCmd.AddCommand(configCmd)
	configCmd.AddCommand(configShowCmd)
	configCmd.AddCommand(configSetCmd)
}
