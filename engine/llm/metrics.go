package llm

import "time"

// Recorder receives orchestration metrics. Implementations must be safe for
// concurrent use; a nil-safe no-op is available via NopRecorder.
type Recorder interface {
	RecordRemoteCall(endpoint, outcome string, duration time.Duration)
	RecordEndpointFailure(kind FailureKind)
	RecordToolExecution(tool string, success bool)
}

type nopRecorder struct{}

func (nopRecorder) RecordRemoteCall(string, string, time.Duration) {}
func (nopRecorder) RecordEndpointFailure(FailureKind)              {}
func (nopRecorder) RecordToolExecution(string, bool)               {}

// NopRecorder returns a recorder that discards everything.
func NopRecorder() Recorder {
	return nopRecorder{}
}
