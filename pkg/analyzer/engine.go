package analyzer

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync/atomic"
	"time"

	"github.com/stackvity/log-analyzer/pkg/analyzer/encoding"
)

// pathBufferSize bounds how far the walker may run ahead of the processing loop.
const pathBufferSize = 16

// errEngineReused is returned when Run is called on an Engine that already ran.
var errEngineReused = errors.New("engine has already run")

// Engine orchestrates one analysis run: it validates the root, consumes the
// walker's paths one at a time through the File Processor, and writes the
// report exactly once.
type Engine struct {
	opts          *Options
	logger        *slog.Logger
	hooks         Hooks
	walkerFactory WalkerFactory
	processor     *FileProcessor
	clock         func() time.Time
	state         atomic.Value // State
}

// NewEngine creates and initializes a new Engine instance, validating options and setting up dependencies.
func NewEngine(opts Options) (*Engine, error) {
	if opts.Logger == nil {
		return nil, fmt.Errorf("%w: Logger implementation (slog.Handler) cannot be nil", ErrConfigValidation)
	}
	if opts.InputPath == "" {
		return nil, fmt.Errorf("%w: input path cannot be empty", ErrConfigValidation)
	}
	if opts.OutputPath == "" {
		return nil, fmt.Errorf("%w: output path cannot be empty", ErrConfigValidation)
	}
	logger := slog.New(opts.Logger).With(slog.String("component", "engine"))

	if opts.EventHooks == nil {
		opts.EventHooks = &NoOpHooks{}
	}
	if opts.Decoder == nil {
		secondary := opts.SecondaryEncoding
		if secondary == "" {
			secondary = DefaultSecondaryEncoding
		}
		decoder, err := encoding.NewTwoStageDecoder(secondary)
		if err != nil {
			return nil, fmt.Errorf("%w: secondary encoding: %w", ErrConfigValidation, err)
		}
		opts.Decoder = decoder
		logger.Debug("Decoder not provided, using default two-stage decoder.", slog.String("secondary", secondary))
	}
	if opts.TraceWriter == nil {
		opts.TraceWriter = os.Stdout
	}
	walkerFactory := opts.WalkerFactory
	if walkerFactory == nil {
		walkerFactory = NewWalker
	}
	clock := opts.Clock
	if clock == nil {
		clock = time.Now
	}

	engine := &Engine{
		opts:          &opts,
		logger:        logger,
		hooks:         opts.EventHooks,
		walkerFactory: walkerFactory,
		clock:         clock,
	}
	engine.processor = NewFileProcessor(engine.opts, opts.Logger, opts.Decoder)
	engine.state.Store(StateIdle)
	return engine, nil
}

// State returns the Engine's current phase. It is safe to call from hooks.
func (e *Engine) State() State {
	return e.state.Load().(State)
}

func (e *Engine) setState(s State) {
	e.logger.Debug("Engine state change", slog.String("from", string(e.State())), slog.String("to", string(s)))
	e.state.Store(s)
}

// Run performs the analysis. Fatal faults (a missing root directory, a report
// that cannot be written, cancellation) are returned as *AnalysisError. The
// statistics are returned whenever scanning started, even on failure.
func (e *Engine) Run(ctx context.Context) (*RunStatistics, error) {
	if e.State() != StateIdle {
		return nil, &AnalysisError{Cause: errEngineReused}
	}
	startTime := time.Now()

	if err := e.checkInputDirectory(); err != nil {
		e.logger.Error("Input directory check failed", slog.String("path", e.opts.InputPath), slog.String("error", err.Error()))
		e.setState(StateFailed)
		return nil, &AnalysisError{Cause: err}
	}

	e.setState(StateScanning)
	e.logger.Info("Starting log analysis run", slog.String("input", e.opts.InputPath), slog.String("output", e.opts.OutputPath))
	stats := NewRunStatistics()
	if err := e.scan(ctx, stats); err != nil {
		e.setState(StateFailed)
		return stats, &AnalysisError{Cause: err}
	}

	if err := WriteReportFile(e.opts.OutputPath, stats, e.clock()); err != nil {
		e.logger.Error("Failed to write report", slog.String("path", e.opts.OutputPath), slog.String("error", err.Error()))
		e.setState(StateFailed)
		return stats, &AnalysisError{Cause: err}
	}
	e.setState(StateDone)

	e.logger.Info("Log analysis run finished",
		slog.Duration("duration", time.Since(startTime)),
		slog.Int("filesProcessed", stats.FilesProcessed),
		slog.Int("totalEntries", stats.TotalEntries),
		slog.Int("warnings", len(stats.Warnings)),
	)
	if hookErr := e.hooks.OnRunComplete(stats); hookErr != nil {
		e.logger.Warn("OnRunComplete hook returned an error", slog.String("error", hookErr.Error()))
	}
	return stats, nil
}

// checkInputDirectory enforces that the root exists and is a directory.
func (e *Engine) checkInputDirectory() error {
	info, err := os.Stat(e.opts.InputPath)
	if err != nil || !info.IsDir() {
		return fmt.Errorf("%w: %s", ErrDirectoryNotFound, e.opts.InputPath)
	}
	return nil
}

// scan runs the walker in its own goroutine and processes every path it
// yields on the calling goroutine, so stats has a single writer.
func (e *Engine) scan(ctx context.Context, stats *RunStatistics) error {
	runCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	pathChan := make(chan string, pathBufferSize)
	walker, err := e.walkerFactory(e.opts, pathChan, e.opts.Logger)
	if err != nil {
		return fmt.Errorf("walker initialization failed: %w", err)
	}

	walkerDone := make(chan error, 1)
	go func() {
		walkerDone <- walker.StartWalk(runCtx)
	}()

	for path := range pathChan {
		if runCtx.Err() != nil {
			continue // drain until the walker closes the channel
		}
		e.processWithBoundary(runCtx, path, stats)
	}
	walkErr := <-walkerDone

	if ctxErr := ctx.Err(); ctxErr != nil {
		e.logger.Info("Log analysis run cancelled", slog.String("reason", ctxErr.Error()))
		return ctxErr
	}
	if walkErr != nil {
		// Traversal faults are not fatal; whatever was reached is reported.
		e.logger.Error("Directory walk ended with an error", slog.String("error", walkErr.Error()))
	}
	return nil
}

// processWithBoundary runs the File Processor for one path and classifies
// whatever it returns, so no single file can abort the run.
func (e *Engine) processWithBoundary(ctx context.Context, path string, stats *RunStatistics) {
	name := filepath.Base(path)
	relPath := e.relativePath(path)
	e.statusUpdate(relPath, StatusProcessing, "")

	warningsBefore := len(stats.Warnings)
	status, err := e.safeProcess(ctx, path, stats)
	switch {
	case err == nil:
	case ctx.Err() != nil && errors.Is(err, ctx.Err()):
		return
	case errors.Is(err, ErrPermissionDenied):
		status = StatusFailed
		stats.RecordFailure(FailurePermission, fmt.Sprintf("skipped %s (permission denied)", name))
	case errors.Is(err, ErrEncoding):
		status = StatusFailed
		stats.RecordFailure(FailureEncoding, fmt.Sprintf("Skipped %s (encoding error)", name))
	default:
		status = StatusFailed
		stats.RecordFailure(FailureUnhandled, fmt.Sprintf("Skipped %s (%s)", name, err))
	}
	if err != nil {
		e.logger.Debug("File fault recovered", slog.String("path", relPath), slog.String("error", err.Error()))
	}

	message := ""
	if len(stats.Warnings) > warningsBefore {
		message = stats.Warnings[len(stats.Warnings)-1]
	}
	e.statusUpdate(relPath, status, message)
}

// safeProcess converts a panic inside the File Processor into an error.
func (e *Engine) safeProcess(ctx context.Context, path string, stats *RunStatistics) (status Status, err error) {
	defer func() {
		if r := recover(); r != nil {
			e.logger.Error("Panic recovered while processing file", slog.String("path", path), slog.Any("panicValue", r))
			status, err = StatusFailed, fmt.Errorf("panic: %v", r)
		}
	}()
	return e.processor.ProcessFile(ctx, path, stats)
}

func (e *Engine) statusUpdate(relPath string, status Status, message string) {
	if hookErr := e.hooks.OnFileStatusUpdate(relPath, status, message); hookErr != nil {
		e.logger.Warn("Event hook OnFileStatusUpdate failed", slog.String("path", relPath), slog.String("error", hookErr.Error()))
	}
}

func (e *Engine) relativePath(path string) string {
	relPath, err := filepath.Rel(e.opts.InputPath, path)
	if err != nil || relPath == "." || filepath.IsAbs(relPath) {
		return filepath.Base(path)
	}
	return filepath.ToSlash(relPath)
}
