package analyzer

// Constants defining default values for configuration options.
// These are used when setting up Viper defaults in the configuration loading process.
const (
	// DefaultInputPath is the log directory scanned when none is configured.
	DefaultInputPath = "logs/"
	// DefaultOutputPath is the report file written when none is configured.
	DefaultOutputPath = "report.txt"
	// DefaultSecondaryEncoding is the fallback used when a file is not valid UTF-8.
	DefaultSecondaryEncoding = "utf-16"
	// DefaultTraceEnabled controls the "Bad line:" operator trace on stdout.
	DefaultTraceEnabled = true
	// DefaultProgressEnabled controls the scanning spinner on a TTY.
	DefaultProgressEnabled = true
	// DefaultSummaryFormat is the default console summary after a run.
	DefaultSummaryFormat = SummaryFormatNone
	// DefaultVerbose is the default state for verbose logging.
	DefaultVerbose = false
	// IgnoreFileName is looked up from the input directory upwards.
	IgnoreFileName = ".loganalyzerignore"
)

// Constants describing the accepted line grammar.
const (
	// TimestampLayout is the time.Parse layout for the two leading tokens.
	TimestampLayout = "2006-01-02 15:04:05"
	// ErrorLevel is the only level that feeds the error-message frequency table.
	ErrorLevel = "ERROR"
	// minEntryTokens is the minimum token count of a valid entry: date, time, level, message.
	minEntryTokens = 4
)

// Constants describing the report layout.
const (
	// ReportTitle prefixes the header line of every report.
	ReportTitle = "Log Analysis Report"
	// SeparatorWidth is the width of the rule under the title.
	SeparatorWidth = 40
	// MaxReportedWarnings caps the warnings listed in a report.
	MaxReportedWarnings = 5
)

// Reasons attached to per-line format rejections.
const (
	ReasonIncompleteEntry  = "Incomplete log entry"
	reasonInvalidTimestamp = "Invalid timestamp in line %d"
)
