package observability

import (
	"strconv"
	"sync"
	"time"
)

// Metrics provides basic in-memory counters for workflows and HTTP traffic.
type Metrics struct {
	mu            sync.Mutex
	workflowCount map[string]int64
	requestCount  map[string]int64
	errorCount    map[string]int64
}

// NewMetrics initializes metrics storage.
func NewMetrics() *Metrics {
	return &Metrics{
		workflowCount: make(map[string]int64),
		requestCount:  make(map[string]int64),
		errorCount:    make(map[string]int64),
	}
}

// RecordWorkflow increments a named workflow counter, e.g. tickets_opened.
func (m *Metrics) RecordWorkflow(name string) {
	if m == nil {
		return
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.workflowCount[name]++
}

// AddWorkflow adds n to a named workflow counter (used by the pruning sweep).
func (m *Metrics) AddWorkflow(name string, n int64) {
	if m == nil || n == 0 {
		return
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.workflowCount[name] += n
}

// RecordRequest increments counters for requests.
func (m *Metrics) RecordRequest(path, method string, status int, duration time.Duration) {
	if m == nil {
		return
	}
	key := pathKey(path, method, status)
	m.mu.Lock()
	defer m.mu.Unlock()
	m.requestCount[key]++
}

// RecordError increments error counters.
func (m *Metrics) RecordError(path, method, code string) {
	if m == nil {
		return
	}
	key := path + "|" + method + "|" + code
	m.mu.Lock()
	defer m.mu.Unlock()
	m.errorCount[key]++
}

// Snapshot copies current counters for the admin metrics endpoint.
func (m *Metrics) Snapshot() (workflows, requests, errors map[string]int64) {
	if m == nil {
		return nil, nil, nil
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	return copyCounts(m.workflowCount), copyCounts(m.requestCount), copyCounts(m.errorCount)
}

func copyCounts(src map[string]int64) map[string]int64 {
	dst := make(map[string]int64, len(src))
	for k, v := range src {
		dst[k] = v
	}
	return dst
}

func pathKey(path, method string, status int) string {
	return path + "|" + method + "|" + strconv.Itoa(status)
}
