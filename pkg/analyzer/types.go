package analyzer

// Status defines the possible processing states of a file during a run.
type Status string

// Constants representing the defined file processing statuses.
const (
	StatusPending    Status = "pending"
	StatusProcessing Status = "processing"
	StatusSuccess    Status = "success"
	StatusFailed     Status = "failed"
	StatusSkipped    Status = "skipped"
)

// FailureKind buckets a recovered fault. The vocabulary is fixed.
type FailureKind string

// Constants representing the failure kinds tracked in RunStatistics.FailureCounts.
const (
	FailurePermission FailureKind = "permission"
	FailureEncoding   FailureKind = "encoding"
	FailureUnhandled  FailureKind = "unhandled"
	FailureEmpty      FailureKind = "empty"
	FailureFormat     FailureKind = "format"
	FailureProcessing FailureKind = "processing"
)

// FailureKinds lists every failure kind in a stable order.
var FailureKinds = []FailureKind{
	FailurePermission,
	FailureEncoding,
	FailureUnhandled,
	FailureEmpty,
	FailureFormat,
	FailureProcessing,
}

// State is a phase of the Engine's run state machine.
type State string

// Engine states. A run moves Idle -> Scanning -> Done, or ends in Failed.
const (
	StateIdle     State = "idle"
	StateScanning State = "scanning"
	StateDone     State = "done"
	StateFailed   State = "failed"
)

// SummaryFormat defines the console summary printed after a successful run.
type SummaryFormat string

const (
	SummaryFormatNone SummaryFormat = "none"
	SummaryFormatText SummaryFormat = "text"
	SummaryFormatJSON SummaryFormat = "json"
)
