package analyzer

import (
	"io"
	"log/slog"
	"time"

	"github.com/stackvity/log-analyzer/pkg/analyzer/encoding"
)

// Hooks defines callbacks for status updates during a run.
// All calls happen on the Engine's goroutine, except OnFileDiscovered which
// is called from the walker goroutine.
type Hooks interface {
	OnFileDiscovered(path string) error
	OnFileStatusUpdate(path string, status Status, message string) error
	OnRunComplete(stats *RunStatistics) error
}

// NoOpHooks provides a default, do-nothing implementation of the Hooks interface.
type NoOpHooks struct{}

// OnFileDiscovered implements the Hooks interface. It performs no action.
func (h *NoOpHooks) OnFileDiscovered(path string) error { return nil }

// OnFileStatusUpdate implements the Hooks interface. It performs no action.
func (h *NoOpHooks) OnFileStatusUpdate(path string, status Status, message string) error {
	return nil
}

// OnRunComplete implements the Hooks interface. It performs no action.
func (h *NoOpHooks) OnRunComplete(stats *RunStatistics) error { return nil }

// Options holds all configuration for a single run.
type Options struct {
	// --- Core Paths ---
	InputPath  string `mapstructure:"input"`  // Root log directory
	OutputPath string `mapstructure:"output"` // Report file, created or truncated

	// --- Application Info ---
	AppVersion     string `mapstructure:"-"`
	ConfigFilePath string `mapstructure:"-"` // Path to the loaded config file (for logging)
	ProfileName    string `mapstructure:"-"`

	// --- Behavior & Control ---
	Verbose           bool          `mapstructure:"verbose"`
	IgnorePatterns    []string      `mapstructure:"ignore"`            // Gitignore-style patterns, merged with .loganalyzerignore
	SecondaryEncoding string        `mapstructure:"secondaryEncoding"` // Fallback when content is not UTF-8
	TraceEnabled      bool          `mapstructure:"trace"`             // Print "Bad line:" diagnostics
	ProgressEnabled   bool          `mapstructure:"progress"`          // Hint for the CLI to draw a spinner
	SummaryFormat     SummaryFormat `mapstructure:"summaryFormat"`     // Console summary after the run

	// --- Injected Dependencies ---
	EventHooks    Hooks            `mapstructure:"-"` // Optional: defaults to NoOpHooks
	Logger        slog.Handler     `mapstructure:"-"` // Required: logging backend
	Decoder       encoding.Decoder `mapstructure:"-"` // Optional: defaults to a two-stage decoder
	TraceWriter   io.Writer        `mapstructure:"-"` // Optional: defaults to os.Stdout
	WalkerFactory WalkerFactory    `mapstructure:"-"` // Optional: factory for Walker (testing)
	Clock         func() time.Time `mapstructure:"-"` // Optional: stamps the report title, defaults to time.Now
}
