// Package metrics provides lightweight hooks for instrumentation.
package metrics

import "time"

// Auth action outcomes.
const (
	OutcomeSuccess = "success"
	OutcomeFailure = "failure"
)

// Recorder captures metric events for the application.
// Implementations can expose these to Prometheus, StatsD, etc.
type Recorder interface {
	// Auth form actions: login, signup, signout, forgot_password, reset_password, callback
	IncAuthAction(action, outcome string)
	IncSessionRefreshed()

	// Sales mutations
	IncSalesCreated(n int)
	IncSalesUpdated()
	IncSalesDeleted(n int)
	IncSalesImportFailed(n int)
	IncExport(format string)

	// Backend round trips
	ObserveBackendCall(op string, duration time.Duration, err error)
}

// Snapshotter exposes a snapshot of current metrics.
type Snapshotter interface {
	Snapshot() Snapshot
}
