// Package metrics provides lightweight hooks for instrumentation.
package metrics

// Transfer and relay outcome labels.
const (
	OutcomeOK                = "ok"
	OutcomeInsufficientFunds = "insufficient_funds"
	OutcomeRecipientNotFound = "recipient_not_found"
	OutcomeInvalidAmount     = "invalid_amount"
	OutcomeUpstreamError     = "upstream_error"
	OutcomeError             = "error"
)

// Recorder captures metric events for the application.
// Implementations can expose these to Prometheus, StatsD, etc.
type Recorder interface {
	// Account metrics
	IncAccountRegistered()
	IncLoginSuccess()
	IncLoginFailure()

	// Ledger metrics
	IncTransfer(outcome string)

	// AI relay metrics
	IncChatRelay(outcome string)
}

// Snapshotter exposes a snapshot of current metrics.
type Snapshotter interface {
	Snapshot() Snapshot
}
