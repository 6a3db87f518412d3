package cmd

import (
	"fmt"
	"os"

	cfgpkg "github.com/KaramelBytes/energy-insights/internal/config"
	"github.com/KaramelBytes/energy-insights/internal/log"
	"github.com/spf13/cobra"
)

var (
	cfgFile string
	debug   bool

	// Loaded configuration; nil if loading failed
	cfg *cfgpkg.Global
)

var rootCmd = &cobra.Command{
	Use:   "energyinsights",
	Short: "Energy Insights: turn smart-meter CSV exports into usage recommendations",
	Long: `Energy Insights reads a smart-meter usage export, computes the average usage per hour of day,
flags unusually high hours and individual readings, and prints actionable recommendations.

Run without arguments to analyze ./energy_usage_data.csv (or the configured data_file).`,
	Args:         cobra.NoArgs,
	SilenceUsage: true,
	RunE:         runAnalyze,
}

// Execute is the entry point called by main.main()
func Execute() {
	defer log.Sync()
	if err := rootCmd.Execute(); err != nil {
		log.Errorw("command failed", "error", err)
		fmt.Fprintln(os.Stderr, "✗ Error:", err)
		log.Sync()
		os.Exit(1)
	}
}

func init() {
	cobra.OnInitialize(loadConfig)
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is ~/.energyinsights/config.yaml)")
	rootCmd.PersistentFlags().BoolVar(&debug, "debug", false, "enable debug output")
}

func loadConfig() {
	if err := log.Init(debug); err != nil {
		fmt.Fprintf(os.Stderr, "⚠ Warning: %v\n", err)
	}
	c, err := cfgpkg.Load(cfgFile)
	if err != nil {
		// Non-fatal: fall back to built-in defaults
		fmt.Fprintf(os.Stderr, "⚠ Warning: failed to load config: %v\n", err)
		cfg = nil
		return
	}
	cfg = c
	log.Debugw("config loaded", "file", cfgFile, "data_file", cfg.DataFile)
}
