package config

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"
)

// Global configuration structure.
type Global struct {
	// Dataset is the input survey file (.dta, or .csv with a codebook).
	Dataset         string  `mapstructure:"dataset" yaml:"dataset"`
	WeightColumn    string  `mapstructure:"weight_column" yaml:"weight_column"`
	RetainSentinels bool    `mapstructure:"retain_sentinels" yaml:"retain_sentinels"`
	OutputDir       string  `mapstructure:"output_dir" yaml:"output_dir"`
	ChartWidthIn    float64 `mapstructure:"chart_width_in" yaml:"chart_width_in"`
	ChartHeightIn   float64 `mapstructure:"chart_height_in" yaml:"chart_height_in"`
	XLSXExport      bool    `mapstructure:"xlsx_export" yaml:"xlsx_export"`
}

// Save writes the given configuration to the cfgFile path. If cfgFile is
// empty, it writes to ~/.pollbar/config.yaml, creating the directory if
// necessary.
func Save(c *Global, cfgFile string) error {
	var path string
	if cfgFile != "" {
		path = cfgFile
	} else {
		home, err := os.UserHomeDir()
		if err != nil {
			return fmt.Errorf("resolve home dir: %w", err)
		}
		dir := filepath.Join(home, ".pollbar")
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("mkdir config dir: %w", err)
		}
		path = filepath.Join(dir, "config.yaml")
	}
	b, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("marshal yaml: %w", err)
	}
	if err := os.WriteFile(path, b, 0o644); err != nil {
		return fmt.Errorf("write config: %w", err)
	}
	return nil
}

// Load loads configuration from file, env, and defaults.
// Precedence: flags (cfgFile) > env > config file > defaults.
func Load(cfgFile string) (*Global, error) {
	v := viper.New()
	v.SetEnvPrefix("POLLBAR")
	v.AutomaticEnv()

	// Defaults
	v.SetDefault("dataset", "")
	v.SetDefault("weight_column", "weight")
	v.SetDefault("retain_sentinels", true)
	v.SetDefault("output_dir", "charts")
	v.SetDefault("chart_width_in", 8.0)
	v.SetDefault("chart_height_in", 5.0)
	v.SetDefault("xlsx_export", false)

	// Config file
	if cfgFile != "" {
		v.SetConfigFile(cfgFile)
	} else {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, fmt.Errorf("resolve home dir: %w", err)
		}
		dir := filepath.Join(home, ".pollbar")
		_ = os.MkdirAll(dir, 0o755)
		v.AddConfigPath(dir)
		v.SetConfigName("config")
		v.SetConfigType("yaml")
	}
	// optional read
	_ = v.ReadInConfig()

	var c Global
	if err := v.Unmarshal(&c); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}
	return &c, nil
}
