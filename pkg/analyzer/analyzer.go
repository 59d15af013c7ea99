// Package analyzer scans a directory of plain-text log files, aggregates
// level counts, error-message frequency and per-kind failure counts into one
// RunStatistics, and writes a fixed-layout summary report.
//
// Each line is expected to look like
//
//	2024-01-15 10:30:00 ERROR Connection refused
//
// that is a date, a time, a level and a free-form message separated by
// whitespace. Per-line and per-file faults never stop a run; only a missing
// input directory, an unwritable report or cancellation do, and those are
// returned as *AnalysisError.
package analyzer

import (
	"context"
	"log/slog"
)

// Analyze is the main entry point for the library. It builds an Engine from
// opts and runs it once.
func Analyze(ctx context.Context, opts Options) (*RunStatistics, error) {
	engine, err := NewEngine(opts)
	if err != nil {
		if opts.Logger != nil {
			slog.New(opts.Logger).Error("Engine initialization failed", slog.String("error", err.Error()))
		}
		return nil, &AnalysisError{Cause: err}
	}
	return engine.Run(ctx)
}
