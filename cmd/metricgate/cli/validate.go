package cli

import (
	"bufio"
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/metricgate/metricgate/internal/whitelist"
	"github.com/spf13/cobra"
)

var validateCmd = &cobra.Command{
	Use:   "validate [whitelist file]",
	Short: "Validate a whitelist file",
	Long: `Validate reports every whitelist rule that would be dropped at load
time and why. With no argument the configured whitelist file is checked.
Exits nonzero if any rule would be dropped.`,
	Example: `  metricgate validate -c settings.yaml
  metricgate validate whitelist.conf`,
	Args: cobra.MaximumNArgs(1),
	RunE: runValidate,
}

func init() {
	rootCmd.AddCommand(validateCmd)
}

func runValidate(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	path := cfg.WhitelistPath
	if len(args) == 1 {
		path = args[0]
	}

	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("opening whitelist file: %w", err)
	}
	defer f.Close()

	type result struct {
		Rule    string `json:"rule"`
		Pattern string `json:"pattern,omitempty"`
		Error   string `json:"error,omitempty"`
	}
	results := []result{}
	dropped := 0

	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		wrapped, err := whitelist.ValidatePattern(line, cfg.AllowUnsafePatterns)
		if err != nil {
			results = append(results, result{Rule: line, Error: err.Error()})
			dropped++
			continue
		}
		results = append(results, result{Rule: line, Pattern: wrapped})
	}
	if err := scanner.Err(); err != nil {
		return fmt.Errorf("reading whitelist file: %w", err)
	}

	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	if err := enc.Encode(results); err != nil {
		return err
	}

	if dropped > 0 {
		return fmt.Errorf("%d whitelist rules would be dropped", dropped)
	}
	return nil
}
