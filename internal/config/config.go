package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"
)

const configDirName = ".energyinsights"

// Global configuration structure.
type Global struct {
	DataFile        string `mapstructure:"data_file" yaml:"data_file"`
	TimestampColumn string `mapstructure:"timestamp_column" yaml:"timestamp_column"`
	UsageColumn     string `mapstructure:"usage_column" yaml:"usage_column"`
	// Delimiter is "," ";" or "tab"; empty auto-detects from the file name.
	Delimiter string `mapstructure:"delimiter" yaml:"delimiter"`
	// Timezone is an IANA name applied to timestamps before taking the hour.
	Timezone string `mapstructure:"timezone" yaml:"timezone"`

	// Thresholds, in standard deviations above the mean
	HighUsageSigma float64 `mapstructure:"high_usage_sigma" yaml:"high_usage_sigma"`
	AnomalySigma   float64 `mapstructure:"anomaly_sigma" yaml:"anomaly_sigma"`
	StdDev         string  `mapstructure:"stddev" yaml:"stddev"`

	OutputFormat       string `mapstructure:"output_format" yaml:"output_format"`
	SkipEmptyHighUsage bool   `mapstructure:"skip_empty_high_usage" yaml:"skip_empty_high_usage"`
}

// Save writes the given configuration to the cfgFile path. If cfgFile is empty,
// it writes to ~/.energyinsights/config.yaml, creating the directory if necessary.
func Save(c *Global, cfgFile string) error {
	var path string
	if cfgFile != "" {
		path = cfgFile
	} else {
		home, err := os.UserHomeDir()
		if err != nil {
			return fmt.Errorf("resolve home dir: %w", err)
		}
		dir := filepath.Join(home, configDirName)
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
// Precedence: env > config file > defaults. Flags are applied by the caller.
func Load(cfgFile string) (*Global, error) {
	v := viper.New()
	v.SetEnvPrefix("ENERGYINSIGHTS")
	v.AutomaticEnv()

	v.SetDefault("data_file", "energy_usage_data.csv")
	v.SetDefault("timestamp_column", "timestamp")
	v.SetDefault("usage_column", "usage")
	v.SetDefault("delimiter", "")
	v.SetDefault("timezone", "")
	v.SetDefault("high_usage_sigma", 1.0)
	v.SetDefault("anomaly_sigma", 2.0)
	v.SetDefault("stddev", "sample")
	v.SetDefault("output_format", "text")
	v.SetDefault("skip_empty_high_usage", false)

	if cfgFile != "" {
		v.SetConfigFile(cfgFile)
	} else {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, fmt.Errorf("resolve home dir: %w", err)
		}
		v.AddConfigPath(filepath.Join(home, configDirName))
		v.SetConfigName("config")
		v.SetConfigType("yaml")
	}
	if err := v.ReadInConfig(); err != nil {
		// missing config is fine; a broken one is not
		var nf viper.ConfigFileNotFoundError
		if !errors.As(err, &nf) && !errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("read config: %w", err)
		}
	}

	var c Global
	if err := v.Unmarshal(&c); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}
	return &c, nil
}
