package metrics

import (
	"sync"
	"sync/atomic"
	"time"
)

// Snapshot captures current in-memory counters.
type Snapshot struct {
	AuthActions          map[string]uint64 `json:"auth_actions"`
	SessionsRefreshed    uint64            `json:"sessions_refreshed"`
	SalesCreated         uint64            `json:"sales_created"`
	SalesUpdated         uint64            `json:"sales_updated"`
	SalesDeleted         uint64            `json:"sales_deleted"`
	SalesImportFailed    uint64            `json:"sales_import_failed"`
	Exports              map[string]uint64 `json:"exports"`
	BackendCalls         uint64            `json:"backend_calls"`
	BackendErrors        uint64            `json:"backend_errors"`
	BackendDurationTotal time.Duration     `json:"backend_duration_total_ns"`
}

// InMemoryRecorder stores metrics in memory for tests and the /metrics endpoint.
type InMemoryRecorder struct {
	sessionsRefreshed   uint64
	salesCreated        uint64
	salesUpdated        uint64
	salesDeleted        uint64
	salesImportFailed   uint64
	backendCalls        uint64
	backendErrors       uint64
	backendDurationNano int64

	mu          sync.Mutex
	authActions map[string]uint64
	exports     map[string]uint64
}

// NewInMemory returns a Recorder that stores counters in memory.
func NewInMemory() *InMemoryRecorder {
	return &InMemoryRecorder{
		authActions: make(map[string]uint64),
		exports:     make(map[string]uint64),
	}
}

// Snapshot returns a copy of the counters.
func (m *InMemoryRecorder) Snapshot() Snapshot {
	m.mu.Lock()
	auth := make(map[string]uint64, len(m.authActions))
	for k, v := range m.authActions {
		auth[k] = v
	}
	exports := make(map[string]uint64, len(m.exports))
	for k, v := range m.exports {
		exports[k] = v
	}
	m.mu.Unlock()

	return Snapshot{
		AuthActions:          auth,
		SessionsRefreshed:    atomic.LoadUint64(&m.sessionsRefreshed),
		SalesCreated:         atomic.LoadUint64(&m.salesCreated),
		SalesUpdated:         atomic.LoadUint64(&m.salesUpdated),
		SalesDeleted:         atomic.LoadUint64(&m.salesDeleted),
		SalesImportFailed:    atomic.LoadUint64(&m.salesImportFailed),
		Exports:              exports,
		BackendCalls:         atomic.LoadUint64(&m.backendCalls),
		BackendErrors:        atomic.LoadUint64(&m.backendErrors),
		BackendDurationTotal: time.Duration(atomic.LoadInt64(&m.backendDurationNano)),
	}
}

// IncAuthAction counts an auth action under "<action>.<outcome>".
func (m *InMemoryRecorder) IncAuthAction(action, outcome string) {
	m.mu.Lock()
	m.authActions[action+"."+outcome]++
	m.mu.Unlock()
}

func (m *InMemoryRecorder) IncSessionRefreshed() {
	atomic.AddUint64(&m.sessionsRefreshed, 1)
}

func (m *InMemoryRecorder) IncSalesCreated(n int) {
	atomic.AddUint64(&m.salesCreated, uint64(n))
}

func (m *InMemoryRecorder) IncSalesUpdated() {
	atomic.AddUint64(&m.salesUpdated, 1)
}

func (m *InMemoryRecorder) IncSalesDeleted(n int) {
	atomic.AddUint64(&m.salesDeleted, uint64(n))
}

func (m *InMemoryRecorder) IncSalesImportFailed(n int) {
	atomic.AddUint64(&m.salesImportFailed, uint64(n))
}

func (m *InMemoryRecorder) IncExport(format string) {
	m.mu.Lock()
	m.exports[format]++
	m.mu.Unlock()
}

// ObserveBackendCall records one round trip to the backend.
func (m *InMemoryRecorder) ObserveBackendCall(_ string, duration time.Duration, err error) {
	atomic.AddUint64(&m.backendCalls, 1)
	atomic.AddInt64(&m.backendDurationNano, duration.Nanoseconds())
	if err != nil {
		atomic.AddUint64(&m.backendErrors, 1)
	}
}
