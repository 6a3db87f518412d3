package cmd

import (
	"bytes"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/KaramelBytes/energy-insights/internal/analysis"
	"github.com/KaramelBytes/energy-insights/internal/pipeline"
	"github.com/KaramelBytes/energy-insights/internal/utils"
	"github.com/spf13/cobra"
)

var (
	anaTimestampCol string
	anaUsageCol     string
	anaDelimiter    string
	anaTimezone     string
	anaHighSigma    float64
	anaAnomalySigma float64
	anaStdDev       string
	anaFormat       string
	anaOutputPath   string
	anaProfile      bool
	anaSkipEmpty    bool
	anaFailOnError  bool
)

var analyzeCmd = &cobra.Command{
	Use:   "analyze [file]",
	Short: "Analyze a usage CSV/TSV and print actionable insights",
	Args:  cobra.MaximumNArgs(1),
	RunE:  runAnalyze,
}

func init() {
	rootCmd.AddCommand(analyzeCmd)
	analyzeCmd.Flags().StringVar(&anaTimestampCol, "timestamp-col", "", "name of the timestamp column (default from config: timestamp)")
	analyzeCmd.Flags().StringVar(&anaUsageCol, "usage-col", "", "name of the usage column (default from config: usage)")
	analyzeCmd.Flags().StringVar(&anaDelimiter, "delimiter", "", "CSV delimiter: ',' | ';' | 'tab' (auto-detect if omitted)")
	analyzeCmd.Flags().StringVar(&anaTimezone, "timezone", "", "IANA time zone used to derive the hour of day")
	analyzeCmd.Flags().Float64Var(&anaHighSigma, "high-sigma", 1, "std deviations above the mean of hourly means for a high-usage hour")
	analyzeCmd.Flags().Float64Var(&anaAnomalySigma, "anomaly-sigma", 2, "std deviations above the mean usage for an anomalous reading")
	analyzeCmd.Flags().StringVar(&anaStdDev, "stddev", "", "standard deviation estimator: sample|population")
	analyzeCmd.Flags().StringVarP(&anaFormat, "format", "f", "", "output format: text|json|yaml")
	analyzeCmd.Flags().StringVarP(&anaOutputPath, "output", "o", "", "optional path to write the output instead of stdout")
	analyzeCmd.Flags().BoolVar(&anaProfile, "profile", false, "append the hourly profile and anomaly table (text format)")
	analyzeCmd.Flags().BoolVar(&anaSkipEmpty, "skip-empty-highs", false, "omit the high-usage note when no hour is flagged")
	analyzeCmd.Flags().BoolVar(&anaFailOnError, "fail-on-error", false, "exit non-zero when a stage fails")
}

func runAnalyze(cmd *cobra.Command, args []string) error {
	path, opt, err := buildOptions(cmd, args)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	var buf bytes.Buffer
	toFile := anaOutputPath != "" && cmd.Flags().Changed("output")
	w := out
	if toFile {
		w = &buf
	}

	res, runErr := pipeline.Run(w, path, opt)
	var se *pipeline.StageError
	if runErr != nil && !errors.As(runErr, &se) {
		return runErr
	}
	if toFile {
		if res == nil {
			// nothing to save; surface the stage message
			fmt.Fprint(out, buf.String())
		} else {
			if err := utils.SafeWriteFile(anaOutputPath, buf.Bytes()); err != nil {
				return fmt.Errorf("write output: %w", err)
			}
			fmt.Fprintf(out, "✓ Wrote insights to %s\n", anaOutputPath)
		}
	}
	if se != nil && cmd.Flags().Changed("fail-on-error") && anaFailOnError {
		return fmt.Errorf("%s stage failed", se.Stage)
	}
	return nil
}

// buildOptions merges config values with flags; flags win only when set.
func buildOptions(cmd *cobra.Command, args []string) (string, pipeline.Options, error) {
	opt := pipeline.DefaultOptions()
	path := pipeline.DefaultDataFile

	delim, tz, stddev, format := "", "", "", ""
	if cfg != nil {
		if cfg.DataFile != "" {
			path = cfg.DataFile
		}
		if cfg.TimestampColumn != "" {
			opt.Loader.TimestampColumn = cfg.TimestampColumn
		}
		if cfg.UsageColumn != "" {
			opt.Analysis.UsageColumn = cfg.UsageColumn
		}
		opt.Analysis.HighUsageSigma = cfg.HighUsageSigma
		opt.Analysis.AnomalySigma = cfg.AnomalySigma
		opt.Insights.SkipEmptyHighUsage = cfg.SkipEmptyHighUsage
		delim, tz, stddev, format = cfg.Delimiter, cfg.Timezone, cfg.StdDev, cfg.OutputFormat
	}
	if len(args) == 1 {
		path = args[0]
	}

	f := cmd.Flags()
	if f.Changed("timestamp-col") && anaTimestampCol != "" {
		opt.Loader.TimestampColumn = anaTimestampCol
	}
	if f.Changed("usage-col") && anaUsageCol != "" {
		opt.Analysis.UsageColumn = anaUsageCol
	}
	if f.Changed("high-sigma") {
		opt.Analysis.HighUsageSigma = anaHighSigma
	}
	if f.Changed("anomaly-sigma") {
		opt.Analysis.AnomalySigma = anaAnomalySigma
	}
	if f.Changed("skip-empty-highs") {
		opt.Insights.SkipEmptyHighUsage = anaSkipEmpty
	}
	if f.Changed("profile") {
		opt.ShowProfile = anaProfile
	}
	if f.Changed("delimiter") {
		delim = anaDelimiter
	}
	if f.Changed("timezone") {
		tz = anaTimezone
	}
	if f.Changed("stddev") {
		stddev = anaStdDev
	}
	if f.Changed("format") {
		format = anaFormat
	}

	switch delim {
	case "":
	case ",":
		opt.Loader.Delimiter = ','
	case "\t", "tab":
		opt.Loader.Delimiter = '\t'
	case ";":
		opt.Loader.Delimiter = ';'
	default:
		return "", opt, fmt.Errorf("unsupported --delimiter: %s", delim)
	}
	if strings.TrimSpace(tz) != "" {
		loc, err := time.LoadLocation(strings.TrimSpace(tz))
		if err != nil {
			return "", opt, fmt.Errorf("invalid timezone %q: %w", tz, err)
		}
		opt.Loader.Location = loc
	}
	est, err := analysis.ParseEstimator(stddev)
	if err != nil {
		return "", opt, err
	}
	opt.Analysis.Estimator = est
	if opt.Format, err = pipeline.ParseFormat(format); err != nil {
		return "", opt, err
	}
	if opt.Analysis.HighUsageSigma < 0 || opt.Analysis.AnomalySigma < 0 {
		return "", opt, fmt.Errorf("sigma thresholds must be >= 0")
	}
	return path, opt, nil
}
