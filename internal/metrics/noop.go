package metrics

import "time"

// NoopRecorder implements Recorder with no-op methods.
type NoopRecorder struct{}

// NewNoop returns a Recorder that discards all metrics.
func NewNoop() Recorder {
	return &NoopRecorder{}
}

func (n *NoopRecorder) IncAuthAction(action, outcome string) {}
func (n *NoopRecorder) IncSessionRefreshed() {}
func (n *NoopRecorder) IncSalesCreated(int) {}
func (n *NoopRecorder) IncSalesUpdated() {}
func (n *NoopRecorder) IncSalesDeleted(int) {}
func (n *NoopRecorder) IncSalesImportFailed(int) {}
func (n *NoopRecorder) IncExport(format string) {}
func (n *NoopRecorder) ObserveBackendCall(op string, duration time.Duration, err error) {}
