package analyzer

// Counter is a string-keyed count table that remembers first-seen key order.
// Lookups of absent keys return zero.
type Counter struct {
	keys   []string
	counts map[string]int
}

// NewCounter creates an empty Counter.
func NewCounter() *Counter {
	return &Counter{counts: make(map[string]int)}
}

// Inc adds one to key, creating it on first use.
func (c *Counter) Inc(key string) {
	if _, ok := c.counts[key]; !ok {
		c.keys = append(c.keys, key)
	}
	c.counts[key]++
}

// Get returns the count for key, or zero.
func (c *Counter) Get(key string) int {
	return c.counts[key]
}

// Keys returns the keys in first-seen order.
func (c *Counter) Keys() []string {
	out := make([]string, len(c.keys))
	copy(out, c.keys)
	return out
}

// Len returns the number of distinct keys.
func (c *Counter) Len() int {
	return len(c.keys)
}

// Total returns the sum of all counts.
func (c *Counter) Total() int {
	total := 0
	for _, k := range c.keys {
		total += c.counts[k]
	}
	return total
}

// Max returns the key with the highest count. On a tie the first-seen key wins.
// ok is false when the counter is empty.
func (c *Counter) Max() (key string, count int, ok bool) {
	for _, k := range c.keys {
		if n := c.counts[k]; !ok || n > count {
			key, count, ok = k, n, true
		}
	}
	return key, count, ok
}

// RunStatistics is the run-wide accumulator. It is created empty by the Engine,
// mutated by the File Processor, and read once by the Report Renderer.
// It is not safe for concurrent use; the Engine touches it from one goroutine.
type RunStatistics struct {
	FilesProcessed int
	TotalEntries   int
	LevelCounts    *Counter
	FailureCounts  *Counter
	ErrorMessages  *Counter
	Warnings       []string
}

// NewRunStatistics creates an empty accumulator.
func NewRunStatistics() *RunStatistics {
	return &RunStatistics{
		LevelCounts:   NewCounter(),
		FailureCounts: NewCounter(),
		ErrorMessages: NewCounter(),
		Warnings:      make([]string, 0, 16),
	}
}

// RecordEntry folds one parsed entry into the level, total and error-message counters.
func (s *RunStatistics) RecordEntry(entry LogEntry) {
	s.IncLevel(entry.Level)
	s.TotalEntries++
	if entry.Level == ErrorLevel {
		s.IncErrorMessage(entry.Message)
	}
}

// RecordFailure bumps the failure kind and appends its warning.
func (s *RunStatistics) RecordFailure(kind FailureKind, warning string) {
	s.IncFailure(kind)
	s.AddWarning(warning)
}

// MarkFileProcessed counts one file with at least one non-blank line.
func (s *RunStatistics) MarkFileProcessed() {
	s.FilesProcessed++
}

func (s *RunStatistics) IncLevel(level string) {
	s.LevelCounts.Inc(level)
}

func (s *RunStatistics) IncFailure(kind FailureKind) {
	s.FailureCounts.Inc(string(kind))
}

func (s *RunStatistics) IncErrorMessage(message string) {
	s.ErrorMessages.Inc(message)
}

func (s *RunStatistics) AddWarning(warning string) {
	s.Warnings = append(s.Warnings, warning)
}

// Failures returns the count recorded for kind.
func (s *RunStatistics) Failures(kind FailureKind) int {
	return s.FailureCounts.Get(string(kind))
}

// ErrorRate returns the ERROR share of all entries as a percentage, or zero
// when there are no entries.
func (s *RunStatistics) ErrorRate() float64 {
	if s.TotalEntries == 0 {
		return 0
	}
	return float64(s.LevelCounts.Get(ErrorLevel)) / float64(s.TotalEntries) * 100
}
