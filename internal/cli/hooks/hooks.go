package hooks

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"sync"

	"github.com/schollz/progressbar/v3"
	"golang.org/x/term"

	"github.com/stackvity/log-analyzer/pkg/analyzer"
)

// CLIHooks implements the analyzer.Hooks interface, bridging library events
// to the CLI's logger and progress spinner.
type CLIHooks struct {
	logger         *slog.Logger
	verboseEnabled bool
	progressBar    ProgressBar // nil when no spinner is drawn
	out            io.Writer   // Stream the spinner draws on
	mu             sync.Mutex  // Serializes spinner updates from the walker and engine goroutines
}

// ProgressBar defines the interface needed to interact with the progress bar.
// *progressbar.ProgressBar satisfies it.
type ProgressBar interface {
	Add(num int) error
	Describe(description string)
	Close() error
}

// NewCLIHooks creates a new CLIHooks instance. Pass nil for progBar when no
// spinner should be drawn. out receives the newline after the spinner closes
// and defaults to os.Stderr.
func NewCLIHooks(logger *slog.Logger, verboseEnabled bool, progBar ProgressBar, out io.Writer) analyzer.Hooks {
	if out == nil {
		out = os.Stderr
	}
	return &CLIHooks{
		logger:         logger,
		verboseEnabled: verboseEnabled,
		progressBar:    progBar,
		out:            out,
	}
}

// NewSpinner creates an indeterminate progress spinner that counts scanned
// files on w.
func NewSpinner(w io.Writer) ProgressBar {
	return progressbar.NewOptions(-1,
		progressbar.OptionSetWriter(w),
		progressbar.OptionSetDescription("Scanning logs"),
		progressbar.OptionSpinnerType(14),
		progressbar.OptionShowCount(),
		progressbar.OptionClearOnFinish(),
	)
}

// ShouldShowProgress reports whether a spinner should be drawn on the stream
// with file descriptor fd. Verbose logging and a non-terminal stream disable it.
func ShouldShowProgress(progressEnabled, verbose bool, fd int) bool {
	return progressEnabled && !verbose && term.IsTerminal(fd)
}

// --- Interface Method Implementations ---

// OnFileDiscovered handles the event when a file is found by the walker.
func (h *CLIHooks) OnFileDiscovered(path string) error {
	if h.verboseEnabled {
		h.logger.Debug("File discovered", "path", path)
	}
	return nil // Library ignores hook errors
}

// OnFileStatusUpdate handles events when a file's processing status changes.
func (h *CLIHooks) OnFileStatusUpdate(path string, status analyzer.Status, message string) error {
	// Verbose Logging Mode
	if h.verboseEnabled {
		logLevel := slog.LevelDebug
		logMsg := "File status updated"
		attrs := []any{
			slog.String("path", path),
			slog.String("status", string(status)),
		}
		if message != "" {
			logKey := "message"
			if status == analyzer.StatusFailed {
				logKey = "error"
			}
			attrs = append(attrs, slog.String(logKey, message))
		}
		switch status {
		case analyzer.StatusSuccess, analyzer.StatusSkipped:
			logLevel = slog.LevelInfo
		case analyzer.StatusFailed:
			logLevel = slog.LevelWarn
			logMsg = "File processing failed"
		}
		h.logger.Log(context.Background(), logLevel, logMsg, attrs...)
		return nil
	}

	// Progress Bar Mode (Non-Verbose, TTY)
	if h.progressBar != nil {
		h.mu.Lock()
		defer h.mu.Unlock()
		switch status {
		case analyzer.StatusProcessing:
			h.progressBar.Describe(fmt.Sprintf("Scanning %s", filepath.Base(path)))
		case analyzer.StatusSuccess, analyzer.StatusFailed, analyzer.StatusSkipped:
			_ = h.progressBar.Add(1)
		}
		return nil
	}

	// Standard Log Mode: only failures, at debug level, since they land in the report anyway
	if status == analyzer.StatusFailed {
		h.logger.Debug("File processing failed", "path", path, "error", message)
	}
	return nil
}

// OnRunComplete finalizes the progress bar, if one was used.
func (h *CLIHooks) OnRunComplete(stats *analyzer.RunStatistics) error {
	if h.progressBar != nil {
		h.mu.Lock()
		_ = h.progressBar.Close()
		h.mu.Unlock()
		_, _ = fmt.Fprintln(h.out)
	}
	if h.verboseEnabled {
		h.logger.Debug("Run complete hook invoked", slog.Int("filesProcessed", stats.FilesProcessed), slog.Int("warnings", len(stats.Warnings)))
	}
	return nil
}
