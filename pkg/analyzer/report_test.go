package analyzer_test

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stackvity/log-analyzer/pkg/analyzer"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var reportTime = time.Date(2024, 1, 15, 10, 30, 0, 0, time.Local)

type failingWriter struct{}

func (failingWriter) Write(p []byte) (int, error) { return 0, errors.New("disk full") }

func sampleStats() *analyzer.RunStatistics {
	stats := analyzer.NewRunStatistics()
	stats.MarkFileProcessed()
	stats.MarkFileProcessed()
	stats.RecordEntry(analyzer.LogEntry{Level: "INFO", Message: "started"})
	stats.RecordEntry(analyzer.LogEntry{Level: "ERROR", Message: "timeout"})
	stats.RecordEntry(analyzer.LogEntry{Level: "INFO", Message: "ok"})
	stats.RecordEntry(analyzer.LogEntry{Level: "INFO", Message: "ok"})
	stats.RecordFailure(analyzer.FailureFormat, "app.log line 5: Incomplete log entry")
	return stats
}

func render(t *testing.T, stats *analyzer.RunStatistics, now time.Time) string {
	t.Helper()
	var buf bytes.Buffer
	require.NoError(t, analyzer.RenderReport(&buf, stats, now))
	return buf.String()
}

func TestRenderReport_FullLayout(t *testing.T) {
	expected := "Log Analysis Report - 2024-01-15T10:30:00\n" +
		"========================================\n" +
		"\n" +
		"Files processed: 2\n" +
		"Total log entries: 4\n" +
		"Error rate: 25.0%\n" +
		"\n" +
		"Log Type Counts:\n" +
		"- INFO: 3 (75.0%)\n" +
		"- ERROR: 1 (25.0%)\n" +
		"\n" +
		"Most Common Error: timeout (1 occurrences)\n" +
		"\n" +
		"Warnings:\n" +
		"- app.log line 5: Incomplete log entry\n"

	assert.Equal(t, expected, render(t, sampleStats(), reportTime))
}

func TestRenderReport_NoEntries(t *testing.T) {
	stats := analyzer.NewRunStatistics()

	expected := "Log Analysis Report - 2024-01-15T10:30:00\n" +
		"========================================\n" +
		"\n" +
		"Files processed: 0\n" +
		"Total log entries: 0\n" +
		"No valid log entries found\n" +
		"\n" +
		"Log Type Counts:\n"

	assert.Equal(t, expected, render(t, stats, reportTime))
}

func TestRenderReport_NoErrorLevel(t *testing.T) {
	stats := analyzer.NewRunStatistics()
	stats.MarkFileProcessed()
	stats.RecordEntry(analyzer.LogEntry{Level: "INFO", Message: "hello"})

	out := render(t, stats, reportTime)

	assert.Contains(t, out, "Error rate: 0.0%\n")
	assert.Contains(t, out, "- INFO: 1 (100.0%)\n")
	assert.NotContains(t, out, "- ERROR:", "Absent levels get no distribution line")
	assert.NotContains(t, out, "Most Common Error")
	assert.NotContains(t, out, "Warnings:")
}

func TestRenderReport_TitleTimestamp(t *testing.T) {
	testCases := []struct {
		name     string
		now      time.Time
		expected string
	}{
		{"Whole seconds", time.Date(2024, 3, 9, 8, 5, 7, 0, time.Local), "2024-03-09T08:05:07"},
		{"Microseconds", time.Date(2024, 3, 9, 8, 5, 7, 123456000, time.Local), "2024-03-09T08:05:07.123456"},
		{"Leading zero microseconds", time.Date(2024, 3, 9, 8, 5, 7, 1000, time.Local), "2024-03-09T08:05:07.000001"},
		{"Sub-microsecond only", time.Date(2024, 3, 9, 8, 5, 7, 999, time.Local), "2024-03-09T08:05:07"},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			out := render(t, analyzer.NewRunStatistics(), tc.now)
			firstLine := strings.SplitN(out, "\n", 2)[0]
			assert.Equal(t, "Log Analysis Report - "+tc.expected, firstLine)
		})
	}
}

func TestRenderReport_MostCommonErrorTieBreak(t *testing.T) {
	stats := analyzer.NewRunStatistics()
	for _, msg := range []string{"a", "b", "b", "a", "c"} {
		stats.RecordEntry(analyzer.LogEntry{Level: "ERROR", Message: msg})
	}

	out := render(t, stats, reportTime)

	assert.Contains(t, out, "\nMost Common Error: a (2 occurrences)\n", "The first message to reach the maximum wins")
}

func TestRenderReport_WarningsCap(t *testing.T) {
	testCases := []struct {
		count   int
		trailer string
	}{
		{5, ""},
		{6, "- ...(1 more warnings)\n"},
		{7, "- ...(2 more warnings)\n"},
	}

	for _, tc := range testCases {
		t.Run(fmt.Sprintf("%d warnings", tc.count), func(t *testing.T) {
			stats := analyzer.NewRunStatistics()
			for i := 1; i <= tc.count; i++ {
				stats.RecordFailure(analyzer.FailureEmpty, fmt.Sprintf("Empty file: f%d.log", i))
			}

			out := render(t, stats, reportTime)

			var want strings.Builder
			want.WriteString("\nWarnings:\n")
			for i := 1; i <= analyzer.MaxReportedWarnings; i++ {
				fmt.Fprintf(&want, "- Empty file: f%d.log\n", i)
			}
			want.WriteString(tc.trailer)
			assert.True(t, strings.HasSuffix(out, want.String()), "got:\n%s", out)
			assert.NotContains(t, out, fmt.Sprintf("f%d.log", analyzer.MaxReportedWarnings+1))
		})
	}
}

func TestRenderReport_WriteError(t *testing.T) {
	err := analyzer.RenderReport(failingWriter{}, sampleStats(), reportTime)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "disk full")
}

func TestWriteReportFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "report.txt")
	require.NoError(t, os.WriteFile(path, []byte(strings.Repeat("stale content\n", 100)), 0644))

	err := analyzer.WriteReportFile(path, sampleStats(), reportTime)

	require.NoError(t, err)
	content, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, render(t, sampleStats(), reportTime), string(content), "Existing file is truncated")
}

func TestWriteReportFile_Unwritable(t *testing.T) {
	path := filepath.Join(t.TempDir(), "missing-dir", "report.txt")

	err := analyzer.WriteReportFile(path, sampleStats(), reportTime)

	require.Error(t, err)
	assert.ErrorIs(t, err, analyzer.ErrReportWrite)
	assert.ErrorIs(t, err, os.ErrNotExist)
}

func TestNewSummary(t *testing.T) {
	summary := analyzer.NewSummary(sampleStats())

	assert.Equal(t, 2, summary.FilesProcessed)
	assert.Equal(t, 4, summary.TotalEntries)
	assert.InDelta(t, 25.0, summary.ErrorRate, 1e-9)
	require.Len(t, summary.LevelCounts, 2)
	assert.Equal(t, analyzer.LevelCount{Level: "INFO", Count: 3, Percent: 75}, summary.LevelCounts[0])
	assert.Equal(t, analyzer.LevelCount{Level: "ERROR", Count: 1, Percent: 25}, summary.LevelCounts[1])
	assert.Len(t, summary.FailureCounts, len(analyzer.FailureKinds), "Every kind is present")
	assert.Equal(t, 1, summary.FailureCounts["format"])
	assert.Equal(t, 0, summary.FailureCounts["permission"])
	require.NotNil(t, summary.MostCommonError)
	assert.Equal(t, "timeout", summary.MostCommonError.Message)
	assert.Equal(t, 1, summary.WarningCount)

	data, err := json.Marshal(summary)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"level_counts":[{"level":"INFO","count":3,"percent":75}`)
}

func TestNewSummary_Empty(t *testing.T) {
	summary := analyzer.NewSummary(analyzer.NewRunStatistics())

	assert.Nil(t, summary.MostCommonError)
	assert.Empty(t, summary.LevelCounts)
	assert.NotNil(t, summary.LevelCounts, "Encodes as an empty list, not null")
	assert.Zero(t, summary.ErrorRate)
}
