package analyzer

import (
	"fmt"
	"regexp"
	"strings"
	"time"
)

// timestampShape pins the digit count of every field. time.Parse alone
// accepts a single-digit hour.
var timestampShape = regexp.MustCompile(`^\d{4}-\d{2}-\d{2} \d{2}:\d{2}:\d{2}$`)

// LogEntry represents a single parsed log line. Entries are folded into
// RunStatistics and never retained.
type LogEntry struct {
	Timestamp time.Time
	Level     string
	Message   string
}

// ParseEntry converts one raw line into a LogEntry.
//
// A blank line returns ok == false and a nil error: it is skipped, not counted.
// A malformed line returns a *LineError of kind FailureFormat. Level is kept
// verbatim, and the message is the remaining tokens joined by single spaces.
func ParseEntry(line string, lineNum int) (entry LogEntry, ok bool, err error) {
	trimmed := strings.TrimSpace(line)
	if trimmed == "" {
		return LogEntry{}, false, nil
	}

	parts := strings.Fields(trimmed)
	if len(parts) < minEntryTokens {
		return LogEntry{}, false, &LineError{Line: lineNum, Kind: FailureFormat, Reason: ReasonIncompleteEntry}
	}

	timestampStr := parts[0] + " " + parts[1]
	ts, parseErr := parseTimestamp(timestampStr)
	if parseErr != nil {
		return LogEntry{}, false, &LineError{Line: lineNum, Kind: FailureFormat, Reason: fmt.Sprintf(reasonInvalidTimestamp, lineNum)}
	}

	return LogEntry{
		Timestamp: ts,
		Level:     parts[2],
		Message:   strings.Join(parts[3:], " "),
	}, true, nil
}

// parseTimestamp validates the fixed YYYY-MM-DD HH:MM:SS shape and the calendar values.
func parseTimestamp(s string) (time.Time, error) {
	if !timestampShape.MatchString(s) {
		return time.Time{}, fmt.Errorf("timestamp %q does not match %s", s, TimestampLayout)
	}
	return time.Parse(TimestampLayout, s)
}
