package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
)

var (
	version = "dev"
	commit  = "unknown"
	date    = "unknown"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := newRootCmd().ExecuteContext(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

// rootOptions holds the persistent flags shared by all subcommands.
type rootOptions struct {
	logLevel    string
	prettyLogs  bool
	metricsAddr string
	envFile     string
}

func newRootCmd() *cobra.Command {
	opts := &rootOptions{}

	rootCmd := &cobra.Command{
		Use:   "catalog",
		Short: "Browse a remote product catalog",
		Long: `catalog loads a product collection from a paged JSON API and lets you
search it and page through it, either interactively or as a printed table.`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	flags := rootCmd.PersistentFlags()
	flags.StringVar(&opts.logLevel, "log-level", "info", "log level (debug, info, warn, error, disabled)")
	flags.BoolVar(&opts.prettyLogs, "pretty-logs", false, "human-readable log output instead of JSON")
	flags.StringVar(&opts.metricsAddr, "metrics-addr", "", "serve /metrics and /health on this address (e.g. :9090)")
	flags.StringVar(&opts.envFile, "env-file", ".env", "optional file with CATALOG_* variables")

	rootCmd.AddCommand(newBrowseCmd(opts))
	rootCmd.AddCommand(newListCmd(opts))
	rootCmd.AddCommand(newVersionCmd())

	return rootCmd
}

// overrides returns the config keys set explicitly on the command line.
func (o *rootOptions) overrides(cmd *cobra.Command) map[string]any {
	out := make(map[string]any)
	flags := cmd.Flags()
	if flags.Changed("log-level") {
		out["log.level"] = o.logLevel
	}
	if flags.Changed("pretty-logs") {
		out["log.pretty"] = o.prettyLogs
	}
	if flags.Changed("metrics-addr") {
		out["metrics.addr"] = o.metricsAddr
	}
	return out
}
