package observability

import (
	"context"
	"io"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/yungbote/catalog-mapping-backend/internal/platform/logger"
)

// Metrics is the process-wide Prometheus registry of the mapping backend.
// Every method is safe on a nil receiver, so callers never check Enabled.
type Metrics struct {
	apiRequests      *CounterVec
	apiLatency       *HistogramVec
	apiInflight      *Gauge
	apiErrors        *Counter
	mappingOps       *CounterVec
	mappingLatency   *HistogramVec
	importRows       *CounterVec
	suggestionsBulk  *CounterVec
	validationIssues *CounterVec
	busEvents        *CounterVec
}

var (
	initOnce sync.Once
	instance *Metrics
)

// Current returns the registry created by Init, or nil when metrics are off.
func Current() *Metrics {
	return instance
}

func Init(enabled bool) *Metrics {
	if !enabled {
		return nil
	}
	initOnce.Do(func() {
		instance = newMetrics()
	})
	return instance
}

func newMetrics() *Metrics {
	return &Metrics{
		apiRequests: NewCounterVec("cm_api_requests_total", "Total API requests by method/route/status.", []string{"method", "route", "status"}),
		apiLatency: NewHistogramVec(
			"cm_api_request_duration_seconds",
			"API request latency in seconds by method/route/status.",
			[]string{"method", "route", "status"},
			[]float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2, 5},
		),
		apiInflight: NewGauge("cm_api_inflight_requests", "In-flight API requests."),
		apiErrors:   NewCounter("cm_api_server_errors_total", "API requests answered with a 5xx status."),
		mappingOps:  NewCounterVec("cm_mapping_operations_total", "Mapping service operations by operation/outcome.", []string{"op", "outcome"}),
		mappingLatency: NewHistogramVec(
			"cm_mapping_operation_duration_seconds",
			"Mapping service operation latency in seconds.",
			[]string{"op"},
			[]float64{0.001, 0.005, 0.01, 0.05, 0.1, 0.25, 0.5, 1, 5},
		),
		importRows:       NewCounterVec("cm_import_rows_total", "Imported attribute mapping rows by outcome.", []string{"outcome"}),
		suggestionsBulk:  NewCounterVec("cm_suggestions_bulk_total", "Suggestions handled by bulk apply, by outcome.", []string{"outcome"}),
		validationIssues: NewCounterVec("cm_validation_issues_total", "Default-category drift findings by reason.", []string{"reason"}),
		busEvents:        NewCounterVec("cm_bus_events_total", "Mapping change events by type/direction.", []string{"type", "direction"}),
	}
}

// StartServer serves the exposition on addr until ctx ends.
func (m *Metrics) StartServer(ctx context.Context, log *logger.Logger, addr string) {
	if m == nil {
		return
	}
	addr = strings.TrimSpace(addr)
	if addr == "" {
		return
	}
	srv := &http.Server{
		Addr:              addr,
		Handler:           http.HandlerFunc(m.WriteHTTP),
		ReadHeaderTimeout: 5 * time.Second,
	}
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		_ = srv.Shutdown(shutdownCtx)
		cancel()
	}()
	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			if log != nil {
				log.Error("metrics server failed", "error", err, "addr", addr)
			}
		}
	}()
}

func (m *Metrics) WriteHTTP(w http.ResponseWriter, _ *http.Request) {
	if m == nil {
		w.WriteHeader(http.StatusServiceUnavailable)
		return
	}
	w.Header().Set("Content-Type", "text/plain; version=0.0.4")
	_ = m.WritePrometheus(w)
}

func (m *Metrics) WritePrometheus(w io.Writer) error {
	if m == nil {
		return nil
	}
	for _, c := range []collector{
		m.apiRequests, m.apiLatency, m.apiInflight, m.apiErrors,
		m.mappingOps, m.mappingLatency, m.importRows, m.suggestionsBulk,
		m.validationIssues, m.busEvents,
	} {
		if err := c.WritePrometheus(w); err != nil {
			return err
		}
	}
	return nil
}

func (m *Metrics) ObserveAPI(method, route, status string, dur time.Duration) {
	if m == nil {
		return
	}
	if method == "" {
		method = "UNKNOWN"
	}
	if route == "" {
		route = "unknown"
	}
	if status == "" {
		status = "0"
	}
	m.apiRequests.Inc(method, route, status)
	m.apiLatency.Observe(dur.Seconds(), method, route, status)
	if isServerErrorStatus(status) {
		m.apiErrors.Inc()
	}
}

func (m *Metrics) ApiInflightInc() {
	if m == nil {
		return
	}
	m.apiInflight.Inc()
}

func (m *Metrics) ApiInflightDec() {
	if m == nil {
		return
	}
	m.apiInflight.Dec()
}

// ObserveMappingOp records one service operation; a nil err counts as "ok".
func (m *Metrics) ObserveMappingOp(op string, err error, dur time.Duration) {
	if m == nil {
		return
	}
	outcome := "ok"
	if err != nil {
		outcome = "error"
	}
	m.mappingOps.Inc(op, outcome)
	m.mappingLatency.Observe(dur.Seconds(), op)
}

func (m *Metrics) ObserveImport(applied, skipped int) {
	if m == nil {
		return
	}
	m.importRows.Add(float64(applied), "applied")
	m.importRows.Add(float64(skipped), "skipped")
}

func (m *Metrics) ObserveBulkApply(applied, failed int) {
	if m == nil {
		return
	}
	m.suggestionsBulk.Add(float64(applied), "applied")
	m.suggestionsBulk.Add(float64(failed), "failed")
}

// ObserveValidation counts findings per reason code name.
func (m *Metrics) ObserveValidation(stats map[string]int) {
	if m == nil {
		return
	}
	for reason, n := range stats {
		m.validationIssues.Add(float64(n), reason)
	}
}

func (m *Metrics) IncBusEvent(eventType, direction string) {
	if m == nil {
		return
	}
	m.busEvents.Inc(eventType, direction)
}

func isServerErrorStatus(status string) bool {
	status = strings.TrimSpace(status)
	return len(status) == 3 && status[0] == '5'
}
