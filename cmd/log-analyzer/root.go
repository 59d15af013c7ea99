package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/stackvity/log-analyzer/internal/cli"
	"github.com/stackvity/log-analyzer/internal/cli/config"
	"github.com/stackvity/log-analyzer/pkg/analyzer"
)

var (
	// These are set during build time using -ldflags
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

// newRootCmd builds the base command. Each call returns a fresh command with
// its own flag state.
func newRootCmd() *cobra.Command {
	var (
		cfgFile     string // Path to config file
		profileName string // Name of profile to use
		verbose     bool   // Verbose logging flag
	)

	rootCmd := &cobra.Command{
		Use:   "log-analyzer [-i <logDir>] [-o <reportFile>]",
		Short: "Summarizes a directory of plain-text log files into a report.",
		Long: `log-analyzer scans a directory tree of log files whose lines look like

  2024-01-15 10:30:00 ERROR Connection refused

and writes a single report with per-level counts, the error rate, the most
common error message and the warnings raised while reading the files.`,
		Version:       fmt.Sprintf("%s (commit: %s, built: %s)", version, commit, date),
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer cancel()

			opts, logger, err := config.LoadAndValidate(cfgFile, profileName, version, verbose, cmd.Flags())
			if err != nil {
				return err
			}
			return cli.Run(ctx, opts, logger, cmd.OutOrStdout())
		},
	}
	rootCmd.SetVersionTemplate(`{{.Name}} version {{.Version}}` + "\n")

	// Persistent flags
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "Configuration file path (default is search standard locations like ., $HOME/.config/log-analyzer/)")
	rootCmd.PersistentFlags().StringVar(&profileName, "profile", "", "Name of configuration profile to use")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable verbose (debug) logging output (disables the progress spinner)")
	rootCmd.PersistentFlags().StringP("input", "i", analyzer.DefaultInputPath, "Log directory to scan recursively")
	rootCmd.PersistentFlags().StringP("output", "o", analyzer.DefaultOutputPath, "Report file to create or overwrite")

	// Local flags; names align with the bindings in internal/cli/config
	rootCmd.Flags().StringArray("ignore", []string{}, "Gitignore-style patterns for files/directories to skip (can be specified multiple times)")
	rootCmd.Flags().String("secondary-encoding", analyzer.DefaultSecondaryEncoding, `Fallback encoding for files that are not valid UTF-8 (e.g. "utf-16", "windows-1252")`)
	rootCmd.Flags().Bool("no-trace", false, `Do not print "Bad line:" diagnostics to stdout`)
	rootCmd.Flags().Bool("no-progress", false, "Disable the progress spinner even in a TTY")
	rootCmd.Flags().String("summary-format", string(analyzer.DefaultSummaryFormat), `Console summary after the run ("none", "text", "json")`)

	return rootCmd
}

// run executes the command line and returns the process exit code.
func run(ctx context.Context, args []string, stdout, stderr io.Writer) int {
	rootCmd := newRootCmd()
	rootCmd.SetArgs(args)
	rootCmd.SetOut(stdout)
	rootCmd.SetErr(stderr)
	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintf(stderr, "Error: %s\n", err)
		return 1
	}
	return 0
}

// Execute runs the root command with the process arguments and exits with its status.
func Execute() {
	os.Exit(run(context.Background(), os.Args[1:], os.Stdout, os.Stderr))
}
