package analyzer_test

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"golang.org/x/text/encoding/unicode"

	"github.com/stackvity/log-analyzer/internal/testutil"
	"github.com/stackvity/log-analyzer/pkg/analyzer"
	"github.com/stackvity/log-analyzer/pkg/analyzer/encoding"
)

func newTestProcessor(t *testing.T, trace bool) (*analyzer.FileProcessor, *bytes.Buffer) {
	t.Helper()
	decoder, err := encoding.NewTwoStageDecoder(analyzer.DefaultSecondaryEncoding)
	require.NoError(t, err)
	traceBuf := &bytes.Buffer{}
	opts := &analyzer.Options{TraceEnabled: trace, TraceWriter: traceBuf}
	return analyzer.NewFileProcessor(opts, testutil.DiscardHandler(), decoder), traceBuf
}

func encodeUTF16(t *testing.T, text string) []byte {
	t.Helper()
	encoded, err := unicode.UTF16(unicode.LittleEndian, unicode.UseBOM).NewEncoder().Bytes([]byte(text))
	require.NoError(t, err)
	return encoded
}

func TestProcessFile_ValidFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "app.log")
	testutil.CreateDummyFile(t, path, "2024-01-15 10:30:00 INFO Service started\n"+
		"2024-01-15 10:31:00 ERROR Connection refused\n"+
		"\n"+
		"2024-01-15 10:32:00 ERROR Connection refused\n")
	proc, traceBuf := newTestProcessor(t, true)
	stats := analyzer.NewRunStatistics()

	status, err := proc.ProcessFile(context.Background(), path, stats)

	require.NoError(t, err)
	assert.Equal(t, analyzer.StatusSuccess, status)
	assert.Equal(t, 1, stats.FilesProcessed)
	assert.Equal(t, 3, stats.TotalEntries)
	assert.Equal(t, 2, stats.LevelCounts.Get("ERROR"))
	assert.Equal(t, 2, stats.ErrorMessages.Get("Connection refused"))
	assert.Empty(t, stats.Warnings)
	assert.Empty(t, traceBuf.String())
}

func TestProcessFile_LineEndings(t *testing.T) {
	testCases := []struct {
		name    string
		content string
	}{
		{"CRLF", "2024-01-15 10:30:00 INFO one\r\n2024-01-15 10:30:01 WARN two\r\n"},
		{"Lone CR", "2024-01-15 10:30:00 INFO one\r2024-01-15 10:30:01 WARN two"},
		{"No trailing newline", "2024-01-15 10:30:00 INFO one\n2024-01-15 10:30:01 WARN two"},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "app.log")
			testutil.CreateDummyFile(t, path, tc.content)
			proc, _ := newTestProcessor(t, true)
			stats := analyzer.NewRunStatistics()

			status, err := proc.ProcessFile(context.Background(), path, stats)

			require.NoError(t, err)
			assert.Equal(t, analyzer.StatusSuccess, status)
			assert.Equal(t, 2, stats.TotalEntries)
			assert.Equal(t, []string{"INFO", "WARN"}, stats.LevelCounts.Keys())
			assert.Empty(t, stats.Warnings)
		})
	}
}

func TestProcessFile_EmptyFiles(t *testing.T) {
	for name, content := range map[string]string{
		"zero bytes":  "",
		"whitespace":  "   \n\t\n\r\n  ",
		"only breaks": "\n\n\n",
	} {
		t.Run(name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "empty.log")
			testutil.CreateDummyFile(t, path, content)
			proc, _ := newTestProcessor(t, true)
			stats := analyzer.NewRunStatistics()

			status, err := proc.ProcessFile(context.Background(), path, stats)

			require.NoError(t, err)
			assert.Equal(t, analyzer.StatusSkipped, status)
			assert.Equal(t, 0, stats.FilesProcessed, "Empty files are not counted as processed")
			assert.Equal(t, 1, stats.Failures(analyzer.FailureEmpty))
			assert.Equal(t, []string{"Empty file: empty.log"}, stats.Warnings)
		})
	}
}

func TestProcessFile_BadLines(t *testing.T) {
	path := filepath.Join(t.TempDir(), "mixed.log")
	testutil.CreateDummyFile(t, path, "2024-01-15 10:30:00 INFO ok\n"+
		"  garbage  \n"+
		"2024-02-30 10:30:00 ERROR bad day\n"+
		"2024-01-15 10:30:00 ERROR real\n")
	proc, traceBuf := newTestProcessor(t, true)
	stats := analyzer.NewRunStatistics()

	status, err := proc.ProcessFile(context.Background(), path, stats)

	require.NoError(t, err)
	assert.Equal(t, analyzer.StatusSuccess, status, "Format faults do not fail the file")
	assert.Equal(t, 1, stats.FilesProcessed)
	assert.Equal(t, 2, stats.TotalEntries)
	assert.Equal(t, 2, stats.Failures(analyzer.FailureFormat))
	assert.Equal(t, []string{
		"mixed.log line 2: Incomplete log entry",
		"mixed.log line 3: Invalid timestamp in line 3",
	}, stats.Warnings)
	assert.Equal(t, "Bad line: garbage\nBad line: 2024-02-30 10:30:00 ERROR bad day\n", traceBuf.String())
}

func TestProcessFile_TraceDisabled(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad.log")
	testutil.CreateDummyFile(t, path, "garbage\n")
	proc, traceBuf := newTestProcessor(t, false)
	stats := analyzer.NewRunStatistics()

	_, err := proc.ProcessFile(context.Background(), path, stats)

	require.NoError(t, err)
	assert.Empty(t, traceBuf.String())
	assert.Equal(t, []string{"bad.log line 1: Incomplete log entry"}, stats.Warnings, "Warnings are recorded regardless of trace")
}

func TestProcessFile_UTF16Fallback(t *testing.T) {
	path := filepath.Join(t.TempDir(), "wide.log")
	content := "2024-01-15 10:30:00 INFO wide one\u20282024-01-15 10:30:01 ERROR wide two\r\ngarbage\n"
	testutil.CreateDummyBytes(t, path, encodeUTF16(t, content))
	proc, traceBuf := newTestProcessor(t, true)
	stats := analyzer.NewRunStatistics()

	status, err := proc.ProcessFile(context.Background(), path, stats)

	require.NoError(t, err)
	assert.Equal(t, analyzer.StatusSuccess, status)
	assert.Equal(t, 2, stats.TotalEntries, "U+2028 is a line boundary on the fallback path")
	assert.Equal(t, 1, stats.ErrorMessages.Get("wide two"))
	assert.Equal(t, []string{"wide.log line 3: Incomplete log entry"}, stats.Warnings)
	assert.Equal(t, "Bad line: garbage\n", traceBuf.String())
}

func TestProcessFile_UndecodableReturnsEncodingError(t *testing.T) {
	path := filepath.Join(t.TempDir(), "broken.log")
	encoded := encodeUTF16(t, "2024-01-15 10:30:00 INFO x\n")
	testutil.CreateDummyBytes(t, path, append(encoded, 0xff))
	proc, _ := newTestProcessor(t, true)
	stats := analyzer.NewRunStatistics()

	status, err := proc.ProcessFile(context.Background(), path, stats)

	require.Error(t, err)
	assert.ErrorIs(t, err, analyzer.ErrEncoding)
	assert.ErrorIs(t, err, encoding.ErrDecode)
	assert.Equal(t, analyzer.StatusFailed, status)
	assert.Empty(t, stats.Warnings, "The caller records encoding faults")
	assert.Equal(t, 0, stats.FilesProcessed)
}

func TestProcessFile_DirectoryIsSkipped(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "nested.log")
	testutil.CreateDummyDir(t, dir)
	proc, _ := newTestProcessor(t, true)
	stats := analyzer.NewRunStatistics()

	status, err := proc.ProcessFile(context.Background(), dir, stats)

	require.NoError(t, err)
	assert.Equal(t, analyzer.StatusSkipped, status)
	assert.Empty(t, stats.Warnings)
}

func TestProcessFile_MissingFileIsProcessingFailure(t *testing.T) {
	path := filepath.Join(t.TempDir(), "vanished.log")
	proc, _ := newTestProcessor(t, true)
	stats := analyzer.NewRunStatistics()

	status, err := proc.ProcessFile(context.Background(), path, stats)

	require.NoError(t, err)
	assert.Equal(t, analyzer.StatusFailed, status)
	assert.Equal(t, 1, stats.Failures(analyzer.FailureProcessing))
	require.Len(t, stats.Warnings, 1)
	assert.Contains(t, stats.Warnings[0], "Failed to process vanished.log: ")
}

func TestProcessFile_PermissionDenied(t *testing.T) {
	if os.Geteuid() == 0 {
		t.Skip("permission bits are not enforced for root")
	}
	path := filepath.Join(t.TempDir(), "secret.log")
	testutil.CreateDummyFile(t, path, "2024-01-15 10:30:00 INFO hidden\n")
	require.NoError(t, os.Chmod(path, 0o000))
	t.Cleanup(func() { _ = os.Chmod(path, 0o644) })
	proc, _ := newTestProcessor(t, true)
	stats := analyzer.NewRunStatistics()

	status, err := proc.ProcessFile(context.Background(), path, stats)

	require.Error(t, err)
	assert.ErrorIs(t, err, analyzer.ErrPermissionDenied)
	assert.Equal(t, analyzer.StatusFailed, status)
	assert.Empty(t, stats.Warnings)
}

func TestProcessFile_DecoderFault(t *testing.T) {
	path := filepath.Join(t.TempDir(), "app.log")
	testutil.CreateDummyFile(t, path, "2024-01-15 10:30:00 INFO x\n")
	decoder := new(testutil.MockDecoder)
	decoder.On("Decode", mock.Anything).Return(nil, errors.New("decoder exploded")).Once()
	proc := analyzer.NewFileProcessor(&analyzer.Options{}, testutil.DiscardHandler(), decoder)
	stats := analyzer.NewRunStatistics()

	status, err := proc.ProcessFile(context.Background(), path, stats)

	require.NoError(t, err)
	assert.Equal(t, analyzer.StatusFailed, status)
	assert.Equal(t, []string{"Failed to process app.log: decoder exploded"}, stats.Warnings)
	decoder.AssertExpectations(t)
}

func TestProcessFile_CancelledContext(t *testing.T) {
	path := filepath.Join(t.TempDir(), "app.log")
	testutil.CreateDummyFile(t, path, "2024-01-15 10:30:00 INFO x\n")
	proc, _ := newTestProcessor(t, true)
	stats := analyzer.NewRunStatistics()
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := proc.ProcessFile(ctx, path, stats)

	assert.ErrorIs(t, err, context.Canceled)
	assert.Zero(t, stats.TotalEntries)
}

func TestSplitLines(t *testing.T) {
	assert.Equal(t, []string{"a", "b", ""}, analyzer.SplitLines("a\r\nb\n"))
	assert.Equal(t, []string{"a", "b"}, analyzer.SplitLines("a\rb"))
	assert.Equal(t, []string{"a\u2028b"}, analyzer.SplitLines("a\u2028b"), "Only CR and LF split on the primary path")
}

func TestSplitUniversalLines(t *testing.T) {
	assert.Nil(t, analyzer.SplitUniversalLines(""))
	assert.Equal(t, []string{"a", "b", "c", "d"}, analyzer.SplitUniversalLines("a\u2028b\u0085c\fd\n"))
	assert.Equal(t, []string{"a", "", "b"}, analyzer.SplitUniversalLines("a\r\n\rb"))
}
