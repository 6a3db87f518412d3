package cmd

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/KaramelBytes/energy-insights/internal/analysis"
	cfgpkg "github.com/KaramelBytes/energy-insights/internal/config"
	"github.com/KaramelBytes/energy-insights/internal/pipeline"
	"github.com/spf13/cobra"
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "View or set Energy Insights configuration",
}

var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show effective configuration",
	RunE: func(cmd *cobra.Command, args []string) error {
		out := cmd.OutOrStdout()
		if cfg == nil {
			fmt.Fprintln(out, "No config loaded")
			return nil
		}
		fmt.Fprintf(out, "data_file: %s\n", cfg.DataFile)
		fmt.Fprintf(out, "timestamp_column: %s\n", cfg.TimestampColumn)
		fmt.Fprintf(out, "usage_column: %s\n", cfg.UsageColumn)
		if cfg.Delimiter != "" {
			fmt.Fprintf(out, "delimiter: %s\n", cfg.Delimiter)
		}
		if cfg.Timezone != "" {
			fmt.Fprintf(out, "timezone: %s\n", cfg.Timezone)
		}
		fmt.Fprintf(out, "high_usage_sigma: %.3f\n", cfg.HighUsageSigma)
		fmt.Fprintf(out, "anomaly_sigma: %.3f\n", cfg.AnomalySigma)
		fmt.Fprintf(out, "stddev: %s\n", cfg.StdDev)
		fmt.Fprintf(out, "output_format: %s\n", cfg.OutputFormat)
		fmt.Fprintf(out, "skip_empty_high_usage: %t\n", cfg.SkipEmptyHighUsage)
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
		case "data_file":
			cfg.DataFile = val
		case "timestamp_column":
			cfg.TimestampColumn = val
		case "usage_column":
			cfg.UsageColumn = val
		case "delimiter":
			switch val {
			case ",", ";", "tab", "":
				cfg.Delimiter = val
			default:
				return fmt.Errorf("invalid delimiter: %s (use ',' ';' or tab)", val)
			}
		case "timezone":
			cfg.Timezone = val
		case "high_usage_sigma", "anomaly_sigma":
			f, err := strconv.ParseFloat(val, 64)
			if err != nil || f < 0 {
				return fmt.Errorf("invalid float for %s: %v (must be >= 0)", key, val)
			}
			if key == "high_usage_sigma" {
				cfg.HighUsageSigma = f
			} else {
				cfg.AnomalySigma = f
			}
		case "stddev":
			est, err := analysis.ParseEstimator(val)
			if err != nil {
				return err
			}
			cfg.StdDev = string(est)
		case "output_format":
			f, err := pipeline.ParseFormat(val)
			if err != nil {
				return err
			}
			cfg.OutputFormat = string(f)
		case "skip_empty_high_usage":
			b, err := strconv.ParseBool(strings.TrimSpace(val))
			if err != nil {
				return fmt.Errorf("invalid bool for skip_empty_high_usage: %v", val)
			}
			cfg.SkipEmptyHighUsage = b
		default:
			return fmt.Errorf("unknown key: %s", key)
		}
		if err := cfgpkg.Save(cfg, cfgFile); err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), "Saved config")
		return nil
	},
}

func init() {
	rootCmd.AddCommand(configCmd)
	configCmd.AddCommand(configShowCmd)
	configCmd.AddCommand(configSetCmd)
}
