package analyzer

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strings"
	"time"
)

// isoTimestampLayout is the seconds-precision part of the report title timestamp.
const isoTimestampLayout = "2006-01-02T15:04:05"

// reportWriter remembers the first write error so rendering reads top to bottom.
type reportWriter struct {
	w   io.Writer
	err error
}

func (rw *reportWriter) printf(format string, args ...any) {
	if rw.err != nil {
		return
	}
	_, rw.err = fmt.Fprintf(rw.w, format, args...)
}

// RenderReport writes the plain-text report for stats to w. now stamps the
// title line. The layout is a fixed contract; downstream tooling may parse it.
func RenderReport(w io.Writer, stats *RunStatistics, now time.Time) error {
	rw := &reportWriter{w: w}

	rw.printf("%s - %s\n", ReportTitle, isoformat(now))
	rw.printf("%s\n\n", strings.Repeat("=", SeparatorWidth))

	rw.printf("Files processed: %d\n", stats.FilesProcessed)
	rw.printf("Total log entries: %d\n", stats.TotalEntries)
	if stats.TotalEntries > 0 {
		rw.printf("Error rate: %.1f%%\n\n", stats.ErrorRate())
	} else {
		rw.printf("No valid log entries found\n\n")
	}

	rw.printf("Log Type Counts:\n")
	if stats.TotalEntries > 0 {
		for _, level := range stats.LevelCounts.Keys() {
			count := stats.LevelCounts.Get(level)
			rw.printf("- %s: %d (%.1f%%)\n", level, count, percentOf(count, stats.TotalEntries))
		}
	}

	if message, count, ok := stats.ErrorMessages.Max(); ok {
		rw.printf("\nMost Common Error: %s (%d occurrences)\n", message, count)
	}

	if len(stats.Warnings) > 0 {
		rw.printf("\nWarnings:\n")
		shown := stats.Warnings
		if len(shown) > MaxReportedWarnings {
			shown = shown[:MaxReportedWarnings]
		}
		for _, warning := range shown {
			rw.printf("- %s\n", warning)
		}
		if extra := len(stats.Warnings) - MaxReportedWarnings; extra > 0 {
			rw.printf("- ...(%d more warnings)\n", extra)
		}
	}

	return rw.err
}

// WriteReportFile creates or truncates path and renders the report into it.
// Every failure wraps ErrReportWrite.
func WriteReportFile(path string, stats *RunStatistics, now time.Time) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrReportWrite, err)
	}
	bw := bufio.NewWriter(f)
	if err := RenderReport(bw, stats, now); err != nil {
		_ = f.Close()
		return fmt.Errorf("%w: %w", ErrReportWrite, err)
	}
	if err := bw.Flush(); err != nil {
		_ = f.Close()
		return fmt.Errorf("%w: %w", ErrReportWrite, err)
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("%w: %w", ErrReportWrite, err)
	}
	return nil
}

// isoformat renders t as YYYY-MM-DDTHH:MM:SS, with a six-digit fraction only
// when the microsecond component is non-zero.
func isoformat(t time.Time) string {
	s := t.Format(isoTimestampLayout)
	if micro := t.Nanosecond() / int(time.Microsecond); micro != 0 {
		s += fmt.Sprintf(".%06d", micro)
	}
	return s
}

func percentOf(count, total int) float64 {
	if total == 0 {
		return 0
	}
	return float64(count) / float64(total) * 100
}

// --- Console summary ---

// Summary is a machine-readable digest of a run, printed by the CLI when a
// summary format is requested. The report file is independent of it.
type Summary struct {
	FilesProcessed  int            `json:"files_processed"`
	TotalEntries    int            `json:"total_entries"`
	ErrorRate       float64        `json:"error_rate"`
	LevelCounts     []LevelCount   `json:"level_counts"`
	FailureCounts   map[string]int `json:"failure_counts"`
	MostCommonError *ErrorCount    `json:"most_common_error,omitempty"`
	WarningCount    int            `json:"warning_count"`
}

// LevelCount is one row of the level breakdown, in first-seen order.
type LevelCount struct {
	Level   string  `json:"level"`
	Count   int     `json:"count"`
	Percent float64 `json:"percent"`
}

// ErrorCount is the most frequent ERROR message.
type ErrorCount struct {
	Message string `json:"message"`
	Count   int    `json:"count"`
}

// NewSummary builds a Summary from the final statistics. Every failure kind
// appears in FailureCounts, with zero for kinds that never occurred.
func NewSummary(stats *RunStatistics) Summary {
	summary := Summary{
		FilesProcessed: stats.FilesProcessed,
		TotalEntries:   stats.TotalEntries,
		ErrorRate:      stats.ErrorRate(),
		LevelCounts:    make([]LevelCount, 0, stats.LevelCounts.Len()),
		FailureCounts:  make(map[string]int, len(FailureKinds)),
		WarningCount:   len(stats.Warnings),
	}
	for _, level := range stats.LevelCounts.Keys() {
		count := stats.LevelCounts.Get(level)
		summary.LevelCounts = append(summary.LevelCounts, LevelCount{
			Level:   level,
			Count:   count,
			Percent: percentOf(count, stats.TotalEntries),
		})
	}
	for _, kind := range FailureKinds {
		summary.FailureCounts[string(kind)] = stats.Failures(kind)
	}
	if message, count, ok := stats.ErrorMessages.Max(); ok {
		summary.MostCommonError = &ErrorCount{Message: message, Count: count}
	}
	return summary
}
