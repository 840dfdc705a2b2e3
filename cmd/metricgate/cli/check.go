package cli

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/metricgate/metricgate/internal/whitelist"
	"github.com/spf13/cobra"
)

var checkCmd = &cobra.Command{
	Use:   "check [metric name ...]",
	Short: "Dry-run metric names against the whitelist",
	Long: `Check what verdict each metric name would receive from the configured
whitelist, without writing to the blocked-metric log. Useful for testing
and debugging whitelist rules.`,
	Example: `  metricgate check -c settings.yaml cpu.load mem.used disk.io
  metricgate check collectd.cpu-0.cpu-idle`,
	Args: cobra.MinimumNArgs(1),
	RunE: runCheck,
}

func init() {
	rootCmd.AddCommand(checkCmd)
}

func runCheck(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	patterns := whitelist.LoadPatterns(logger, cfg.WhitelistPath, cfg.AllowUnsafePatterns)

	var opts []whitelist.Option
	if cfg.CacheSize > 0 {
		opts = append(opts, whitelist.WithCacheSize(cfg.CacheSize))
	}
	// nil recorder: a dry run must not touch the blocked-metric log
	classifier, err := whitelist.NewClassifier(logger, patterns, nil, opts...)
	if err != nil {
		return fmt.Errorf("creating classifier: %w", err)
	}

	type verdict struct {
		Metric  string `json:"metric"`
		Allowed bool   `json:"allowed"`
	}
	output := struct {
		Verdicts []verdict `json:"verdicts"`
		Rejected int64     `json:"rejected"`
	}{}
	for _, name := range args {
		output.Verdicts = append(output.Verdicts, verdict{
			Metric:  name,
			Allowed: classifier.Allowed(name),
		})
	}
	output.Rejected = classifier.Rejected()

	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(output)
}
