package metrics

import (
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/telecuidado/backend/internal/types"
)

// Metrics holds all application metrics
type Metrics struct {
	mu sync.RWMutex

	// Import metrics
	ImportsTotal       int64
	ImportRowsTotal    int64
	ImportsSkippedRows int64
	ImportErrorsTotal  int64

	// Analysis metrics
	AnalysesTotal        int64
	AnalysisErrorsTotal  int64
	lastAnalysisDuration time.Duration

	// Latest analysis snapshot gauges
	callsTotal          int
	attributionCoverage int
	followUpsByStatus   map[types.FollowUpStatus]int

	// WebSocket metrics
	WebSocketConnectionsTotal    int64
	WebSocketDisconnectionsTotal int64
	WebSocketMessagesTotal       int64
	activeConnections            int64

	// HTTP metrics
	httpRequestsTotal    map[string]map[int]int64 // endpoint -> status -> count
	httpRequestDurations map[string][]float64     // endpoint -> durations

	// Timing
	startTime time.Time
}

// Global metrics instance
var instance *Metrics
var once sync.Once

// Get returns the singleton metrics instance
func Get() *Metrics {
	once.Do(func() {
		instance = &Metrics{
			followUpsByStatus:    make(map[types.FollowUpStatus]int),
			httpRequestsTotal:    make(map[string]map[int]int64),
			httpRequestDurations: make(map[string][]float64),
			startTime:            time.Now(),
		}
	})
	return instance
}

// RecordImport records a completed workbook import
func (m *Metrics) RecordImport(rows, skipped int) {
	m.mu.Lock()
	m.ImportsTotal++
	m.ImportRowsTotal += int64(rows)
	m.ImportsSkippedRows += int64(skipped)
	m.mu.Unlock()
}

// RecordImportError increments the import error counter
func (m *Metrics) RecordImportError() {
	m.mu.Lock()
	m.ImportErrorsTotal++
	m.mu.Unlock()
}

// RecordAnalysis records one analysis run and refreshes the snapshot gauges
func (m *Metrics) RecordAnalysis(duration time.Duration, a *types.Analysis) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.AnalysesTotal++
	m.lastAnalysisDuration = duration

	m.callsTotal = a.Global.TotalCalls
	m.attributionCoverage = a.Diagnostics.AttributionCoverage
	m.followUpsByStatus = make(map[types.FollowUpStatus]int)
	for _, f := range a.FollowUps {
		m.followUpsByStatus[f.Status]++
	}
}

// RecordAnalysisError increments the analysis error counter
func (m *Metrics) RecordAnalysisError() {
	m.mu.Lock()
	m.AnalysisErrorsTotal++
	m.mu.Unlock()
}

// RecordWebSocketConnect increments connection counters
func (m *Metrics) RecordWebSocketConnect() {
	m.mu.Lock()
	m.WebSocketConnectionsTotal++
	m.activeConnections++
	m.mu.Unlock()
}

// RecordWebSocketDisconnect increments disconnection counter
func (m *Metrics) RecordWebSocketDisconnect() {
	m.mu.Lock()
	m.WebSocketDisconnectionsTotal++
	m.activeConnections--
	m.mu.Unlock()
}

// RecordWebSocketMessage increments message counter
func (m *Metrics) RecordWebSocketMessage() {
	m.mu.Lock()
	m.WebSocketMessagesTotal++
	m.mu.Unlock()
}

// RecordHTTPRequest records an HTTP request
func (m *Metrics) RecordHTTPRequest(endpoint string, statusCode int, duration time.Duration) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.httpRequestsTotal[endpoint] == nil {
		m.httpRequestsTotal[endpoint] = make(map[int]int64)
	}
	m.httpRequestsTotal[endpoint][statusCode]++

	// Keep last 100 durations for percentile calculation
	if len(m.httpRequestDurations[endpoint]) >= 100 {
		m.httpRequestDurations[endpoint] = m.httpRequestDurations[endpoint][1:]
	}
	m.httpRequestDurations[endpoint] = append(m.httpRequestDurations[endpoint], duration.Seconds())
}

// GetActiveConnections returns current WebSocket connections
func (m *Metrics) GetActiveConnections() int64 {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.activeConnections
}

// Handler returns an HTTP handler for the /metrics endpoint
func (m *Metrics) Handler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		m.mu.RLock()
		defer m.mu.RUnlock()

		w.Header().Set("Content-Type", "text/plain; charset=utf-8")

		// Helper to write metric
		write := func(name string, value interface{}, labels ...string) {
			labelStr := ""
			if len(labels) > 0 {
				labelStr = "{"
				for i := 0; i < len(labels); i += 2 {
					if i > 0 {
						labelStr += ","
					}
					labelStr += labels[i] + "=\"" + labels[i+1] + "\""
				}
				labelStr += "}"
			}

			switch v := value.(type) {
			case int:
				w.Write([]byte(name + labelStr + " " + strconv.Itoa(v) + "\n"))
			case int64:
				w.Write([]byte(name + labelStr + " " + strconv.FormatInt(v, 10) + "\n"))
			case float64:
				w.Write([]byte(name + labelStr + " " + strconv.FormatFloat(v, 'f', 6, 64) + "\n"))
			}
		}

		// System metrics
		write("telecuidado_uptime_seconds", time.Since(m.startTime).Seconds())

		// Import metrics
		write("telecuidado_imports_total", m.ImportsTotal)
		write("telecuidado_import_rows_total", m.ImportRowsTotal)
		write("telecuidado_import_skipped_rows_total", m.ImportsSkippedRows)
		write("telecuidado_import_errors_total", m.ImportErrorsTotal)

		// Analysis metrics
		write("telecuidado_analyses_total", m.AnalysesTotal)
		write("telecuidado_analysis_errors_total", m.AnalysisErrorsTotal)
		write("telecuidado_analysis_duration_seconds", m.lastAnalysisDuration.Seconds())
		write("telecuidado_calls_total", m.callsTotal)
		write("telecuidado_attribution_coverage_percent", m.attributionCoverage)

		// Follow-up backlog by status
		for status, count := range m.followUpsByStatus {
			write("telecuidado_followups", count, "status", string(status))
		}

		// WebSocket metrics
		write("telecuidado_websocket_connections_total", m.WebSocketConnectionsTotal)
		write("telecuidado_websocket_disconnections_total", m.WebSocketDisconnectionsTotal)
		write("telecuidado_websocket_active_connections", m.activeConnections)
		write("telecuidado_websocket_messages_total", m.WebSocketMessagesTotal)

		// HTTP metrics
		for endpoint, statusCodes := range m.httpRequestsTotal {
			for status, count := range statusCodes {
				write("telecuidado_http_requests_total", count, "endpoint", endpoint, "status", strconv.Itoa(status))
			}
		}
	}
}
