package app

// StopReason is logged when the app shuts down.
type StopReason string

const (
	StopSignal       StopReason = "signal"
	StopStreamFailed StopReason = "stream_failed"
	StopFatalError   StopReason = "fatal_error"
)
