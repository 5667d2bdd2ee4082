package main

import (
	"encoding/json"
	"fmt"
	"io"
	"time"

	"github.com/spf13/cobra"

	"reportcard-analyzer/internal/analysis"
	"reportcard-analyzer/internal/render"
	"reportcard-analyzer/internal/shared/config"
	"reportcard-analyzer/internal/shared/telemetry"
)

// options carries the global flags and the loaded configuration.
type options struct {
	endpoint string
	timeout  time.Duration
	jsonOut  bool
	logLevel string

	cfg config.Config
}

func newRootCmd() *cobra.Command {
	opts := &options{}

	rootCmd := &cobra.Command{
		Use:   "reportcard",
		Short: "Analyze report cards with the remote analysis service",
		Long: `reportcard sends a report card PDF or a set of free-text notes to the
analysis service and prints the strengths and areas for improvement it returns.

Configuration comes from .env, the YAML file named by REPORTCARD_CONFIG and
environment variables. Flags override all of them.`,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return opts.load(cmd)
		},
	}

	rootCmd.PersistentFlags().StringVar(&opts.endpoint, "endpoint", "", "Analysis endpoint URL (default from ANALYZE_ENDPOINT)")
	rootCmd.PersistentFlags().DurationVar(&opts.timeout, "timeout", 0, "Request timeout (default from ANALYZE_TIMEOUT_SECONDS)")
	rootCmd.PersistentFlags().BoolVar(&opts.jsonOut, "json", false, "Print the final view state as JSON")
	rootCmd.PersistentFlags().StringVar(&opts.logLevel, "log-level", "", "Log level: debug, info, warn, error")

	rootCmd.AddCommand(newAnalyzeCmd(opts), newServeCmd(opts))
	return rootCmd
}

func (o *options) load(cmd *cobra.Command) error {
	cfg := config.Load()
	if cmd.Flags().Changed("endpoint") {
		cfg.AnalyzeEndpoint = o.endpoint
	}
	if cmd.Flags().Changed("timeout") {
		if o.timeout < 0 {
			return fmt.Errorf("--timeout must not be negative")
		}
		cfg.RequestTimeout = o.timeout
	}
	if o.logLevel != "" {
		cfg.LogLevel = o.logLevel
	}
	telemetry.SetLevel(cfg.LogLevel)
	o.cfg = cfg
	return nil
}

// print writes st either as JSON or through the terminal renderer.
func (o *options) print(w io.Writer, st analysis.State) error {
	if o.jsonOut {
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(st)
	}
	return render.Terminal(w, st)
}
