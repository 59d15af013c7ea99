package analyzer

import (
	"errors"
	"fmt"
)

// --- Exported Error Variables ---
// Library users can check against these using errors.Is. Per-file and per-line
// variants are recovered into RunStatistics; only ErrDirectoryNotFound and
// ErrReportWrite end a run.

var (
	// ErrDirectoryNotFound indicates the root directory is missing or is not a directory.
	// Fatal: the run aborts before scanning and no report is written.
	ErrDirectoryNotFound = errors.New("log directory not found")

	// ErrPermissionDenied indicates a file could not be opened for reading.
	// Returned by FileProcessor.ProcessFile and recorded by the Engine.
	ErrPermissionDenied = errors.New("permission denied")

	// ErrEncoding indicates the content was valid under neither the primary
	// nor the secondary encoding.
	ErrEncoding = errors.New("encoding error")

	// ErrReportWrite indicates the report file could not be created, written or flushed.
	// Fatal: scanning has completed, but the statistics are never persisted.
	ErrReportWrite = errors.New("failed to write report")

	// ErrConfigValidation indicates that the provided Options failed validation.
	ErrConfigValidation = errors.New("invalid configuration options provided")
)

// LineError is a recoverable rejection of a single log line.
type LineError struct {
	Line   int
	Kind   FailureKind
	Reason string
}

func (e *LineError) Error() string {
	return e.Reason
}

// AnalysisError is the only error type returned to callers of Engine.Run and Analyze.
type AnalysisError struct {
	Cause error
}

func (e *AnalysisError) Error() string {
	return fmt.Sprintf("Analysis failed: %s", e.Cause)
}

func (e *AnalysisError) Unwrap() error {
	return e.Cause
}
