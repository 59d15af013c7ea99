package cli

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/stackvity/log-analyzer/internal/cli/hooks"
	"github.com/stackvity/log-analyzer/pkg/analyzer"
)

// SuccessMessage is printed on stdout after the report has been written.
const SuccessMessage = "Analysis completed successfully"

// newProgressBar returns the stderr spinner when progress output applies, nil otherwise.
var newProgressBar = func(opts analyzer.Options) hooks.ProgressBar {
	if hooks.ShouldShowProgress(opts.ProgressEnabled, opts.Verbose, int(os.Stderr.Fd())) {
		return hooks.NewSpinner(os.Stderr)
	}
	return nil
}

// Run orchestrates the main application logic after configuration loading.
// It wires the CLI hooks, runs the analysis, and prints the success line and
// the optional console summary to stdout.
func Run(ctx context.Context, opts analyzer.Options, logger *slog.Logger, stdout io.Writer) error {
	progressBar := newProgressBar(opts)
	if opts.EventHooks == nil {
		opts.EventHooks = hooks.NewCLIHooks(logger, opts.Verbose, progressBar, os.Stderr)
	}
	if opts.TraceWriter == nil {
		opts.TraceWriter = stdout
	}

	stats, err := analyzer.Analyze(ctx, opts)
	if err != nil {
		// OnRunComplete only fires on success, so the spinner is cleared here.
		if progressBar != nil {
			_ = progressBar.Close()
			_, _ = fmt.Fprintln(os.Stderr)
		}
		logger.Debug("Analysis failed", slog.String("error", err.Error()))
		return err
	}

	if _, err := fmt.Fprintln(stdout, SuccessMessage); err != nil {
		return fmt.Errorf("failed to write to stdout: %w", err)
	}
	if err := PrintSummary(stdout, opts.SummaryFormat, stats); err != nil {
		logger.Warn("Failed to print console summary", slog.String("error", err.Error()))
	}
	return nil
}
