package analyzer

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"syscall"

	"github.com/stackvity/log-analyzer/pkg/analyzer/encoding"
)

// universalNewlines are the line boundaries honoured after a fallback decode,
// matching str.splitlines semantics. "\r\n" must come first.
var universalNewlines = strings.NewReplacer(
	"\r\n", "\n",
	"\r", "\n",
	"\v", "\n",
	"\f", "\n",
	"\x1c", "\n",
	"\x1d", "\n",
	"\x1e", "\n",
	"\u0085", "\n",
	"\u2028", "\n",
	"\u2029", "\n",
)

// lineEndings converts CRLF and lone CR to LF on the primary path.
var lineEndings = strings.NewReplacer("\r\n", "\n", "\r", "\n")

// FileProcessor reads one file, splits it into lines, and folds every line
// into the run's RunStatistics.
type FileProcessor struct {
	opts    *Options
	logger  *slog.Logger
	decoder encoding.Decoder
	trace   io.Writer
}

// NewFileProcessor creates a new FileProcessor.
func NewFileProcessor(opts *Options, loggerHandler slog.Handler, decoder encoding.Decoder) *FileProcessor {
	trace := opts.TraceWriter
	if trace == nil {
		trace = os.Stdout
	}
	return &FileProcessor{
		opts:    opts,
		logger:  slog.New(loggerHandler).With(slog.String("component", "processor")),
		decoder: decoder,
		trace:   trace,
	}
}

// ProcessFile analyzes a single file and records the outcome in stats.
//
// Empty, unreadable and per-line format faults are absorbed into stats. Two
// faults are returned for the caller to classify: a permission failure
// (wrapping ErrPermissionDenied) and an undecodable file (wrapping ErrEncoding).
// A path that resolves to a directory is skipped without any record.
func (p *FileProcessor) ProcessFile(ctx context.Context, path string, stats *RunStatistics) (Status, error) {
	name := filepath.Base(path)
	logArgs := []any{slog.String("path", path)}

	select {
	case <-ctx.Done():
		return StatusFailed, ctx.Err()
	default:
	}

	info, err := os.Stat(path)
	if err != nil {
		return p.readFailure(name, stats, err)
	}
	if info.IsDir() {
		p.logger.Debug("Skipping directory entry", logArgs...)
		return StatusSkipped, nil
	}

	content, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, syscall.EISDIR) {
			return StatusSkipped, nil
		}
		return p.readFailure(name, stats, err)
	}

	lines, err := p.decodeLines(content)
	if err != nil {
		if errors.Is(err, encoding.ErrDecode) {
			return StatusFailed, fmt.Errorf("%w: %s: %w", ErrEncoding, name, err)
		}
		stats.RecordFailure(FailureProcessing, fmt.Sprintf("Failed to process %s: %s", name, err))
		return StatusFailed, nil
	}

	if allBlank(lines) {
		stats.RecordFailure(FailureEmpty, fmt.Sprintf("Empty file: %s", name))
		p.logger.Debug("Empty file", logArgs...)
		return StatusSkipped, nil
	}

	stats.MarkFileProcessed()
	parsed, rejected := 0, 0
	for i, line := range lines {
		lineNum := i + 1
		entry, ok, err := ParseEntry(line, lineNum)
		if err != nil {
			var lineErr *LineError
			if !errors.As(err, &lineErr) {
				lineErr = &LineError{Line: lineNum, Kind: FailureFormat, Reason: err.Error()}
			}
			rejected++
			p.traceBadLine(line)
			stats.RecordFailure(lineErr.Kind, fmt.Sprintf("%s line %d: %s", name, lineNum, lineErr.Reason))
			continue
		}
		if ok {
			parsed++
			stats.RecordEntry(entry)
		}
	}

	p.logger.Debug("Processed file", append(logArgs, slog.Int("lines", len(lines)), slog.Int("entries", parsed), slog.Int("rejected", rejected))...)
	return StatusSuccess, nil
}

// readFailure classifies a stat or read fault.
func (p *FileProcessor) readFailure(name string, stats *RunStatistics, err error) (Status, error) {
	if errors.Is(err, fs.ErrPermission) {
		return StatusFailed, fmt.Errorf("%w: %w", ErrPermissionDenied, err)
	}
	stats.RecordFailure(FailureProcessing, fmt.Sprintf("Failed to process %s: %s", name, err))
	return StatusFailed, nil
}

// decodeLines decodes content and splits it into lines. The fallback encoding
// path splits on universal newlines.
func (p *FileProcessor) decodeLines(content []byte) ([]string, error) {
	if p.decoder == nil {
		return nil, errors.New("no decoder configured")
	}
	result, err := p.decoder.Decode(content)
	if err != nil {
		return nil, err
	}
	if result.Fallback {
		p.logger.Debug("Decoded with secondary encoding", slog.String("encoding", result.Encoding))
		return SplitUniversalLines(result.Text), nil
	}
	return SplitLines(result.Text), nil
}

func (p *FileProcessor) traceBadLine(line string) {
	if !p.opts.TraceEnabled {
		return
	}
	fmt.Fprintf(p.trace, "Bad line: %s\n", strings.TrimSpace(line))
}

// SplitLines normalizes CRLF and CR to LF and splits on LF. Trailing
// terminators produce a final empty line, which the parser skips as blank.
func SplitLines(text string) []string {
	return strings.Split(lineEndings.Replace(text), "\n")
}

// SplitUniversalLines splits on every universal newline boundary and drops the
// empty element after a trailing terminator.
func SplitUniversalLines(text string) []string {
	if text == "" {
		return nil
	}
	lines := strings.Split(universalNewlines.Replace(text), "\n")
	if lines[len(lines)-1] == "" {
		lines = lines[:len(lines)-1]
	}
	return lines
}

func allBlank(lines []string) bool {
	for _, line := range lines {
		if strings.TrimSpace(line) != "" {
			return false
		}
	}
	return true
}
