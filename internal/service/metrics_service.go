package service

import (
	"fmt"
	"net/http"
	"runtime"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/SMTech-UK/workload-wizard-sub001/internal/models"
)

// MetricsService encapsulates Prometheus instrumentation for HTTP traffic and the allocation engine.
type MetricsService struct {
	registry          *prometheus.Registry
	handler           http.Handler
	requestDuration   *prometheus.HistogramVec
	requestTotal      *prometheus.CounterVec
	cacheLookups      *prometheus.CounterVec
	cacheLatency      prometheus.Observer
	allocationSaves   *prometheus.CounterVec
	assignmentChanges *prometheus.CounterVec
	batchRows         *prometheus.CounterVec
	capacityLecturers *prometheus.GaugeVec
}

// NewMetricsService registers the collectors on a private registry.
func NewMetricsService() *MetricsService {
	registry := prometheus.NewRegistry()

	requestDuration := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "http_request_duration_seconds",
		Help:    "Duration of HTTP requests in seconds",
		Buckets: prometheus.DefBuckets,
	}, []string{"method", "path", "status"})

	requestTotal := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "http_requests_total",
		Help: "Total number of HTTP requests",
	}, []string{"method", "path", "status"})

	cacheLookups := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "workload_cache_lookups_total",
		Help: "Workload overview cache lookups by result",
	}, []string{"result"})

	cacheLatency := prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "workload_cache_latency_seconds",
		Help:    "Latency for workload cache operations",
		Buckets: prometheus.DefBuckets,
	})

	allocationSaves := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "admin_allocation_saves_total",
		Help: "Admin allocation save attempts by outcome",
	}, []string{"outcome"})

	assignmentChanges := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "module_assignment_changes_total",
		Help: "Lecturer assignment changes on module iterations",
	}, []string{"action"})

	batchRows := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "batch_rows_total",
		Help: "Rows processed by bulk import and rollover",
	}, []string{"operation", "outcome"})

	capacityLecturers := prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Name: "lecturer_capacity_status",
		Help: "Lecturers in the default academic year per capacity status",
	}, []string{"organisation_id", "status"})

	goroutines := prometheus.NewGaugeFunc(prometheus.GaugeOpts{
		Name: "goroutines_total",
		Help: "Total number of goroutines",
	}, func() float64 {
		return float64(runtime.NumGoroutine())
	})

	registry.MustRegister(requestDuration, requestTotal, cacheLookups, cacheLatency, allocationSaves, assignmentChanges, batchRows, capacityLecturers, goroutines)

	return &MetricsService{
		registry:          registry,
		handler:           promhttp.HandlerFor(registry, promhttp.HandlerOpts{}),
		requestDuration:   requestDuration,
		requestTotal:      requestTotal,
		cacheLookups:      cacheLookups,
		cacheLatency:      cacheLatency,
		allocationSaves:   allocationSaves,
		assignmentChanges: assignmentChanges,
		batchRows:         batchRows,
		capacityLecturers: capacityLecturers,
	}
}

// Handler exposes the Prometheus HTTP handler.
func (m *MetricsService) Handler() http.Handler {
	if m == nil {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusServiceUnavailable)
		})
	}
	return m.handler
}

// Registry exposes the underlying registry.
func (m *MetricsService) Registry() *prometheus.Registry {
	if m == nil {
		return nil
	}
	return m.registry
}

// ObserveHTTPRequest records request metrics.
func (m *MetricsService) ObserveHTTPRequest(method, path string, status int, duration time.Duration) {
	if m == nil {
		return
	}
	labelStatus := fmt.Sprintf("%d", status)
	m.requestDuration.WithLabelValues(method, path, labelStatus).Observe(duration.Seconds())
	m.requestTotal.WithLabelValues(method, path, labelStatus).Inc()
}

// RecordCacheLookup counts a workload cache hit or miss.
func (m *MetricsService) RecordCacheLookup(hit bool, duration time.Duration) {
	if m == nil {
		return
	}
	result := "miss"
	if hit {
		result = "hit"
	}
	m.cacheLookups.WithLabelValues(result).Inc()
	m.cacheLatency.Observe(duration.Seconds())
}

// RecordAllocationSave counts an admin allocation save outcome: saved, rejected or invalid.
func (m *MetricsService) RecordAllocationSave(outcome string) {
	if m == nil {
		return
	}
	m.allocationSaves.WithLabelValues(outcome).Inc()
}

// RecordAssignmentChange counts an assign or unassign.
func (m *MetricsService) RecordAssignmentChange(action string) {
	if m == nil {
		return
	}
	m.assignmentChanges.WithLabelValues(action).Inc()
}

// RecordBatch counts the successful and failed rows of a batch operation.
func (m *MetricsService) RecordBatch(operation string, results []models.BulkResult) {
	if m == nil {
		return
	}
	summary := models.SummarizeResults(results)
	m.batchRows.WithLabelValues(operation, "success").Add(float64(summary.Successful))
	m.batchRows.WithLabelValues(operation, "failure").Add(float64(summary.Failed))
}

// SetCapacityDistribution replaces the capacity gauges with the given per-organisation counts.
func (m *MetricsService) SetCapacityDistribution(counts map[string]map[models.CapacityStatus]int) {
	if m == nil {
		return
	}
	m.capacityLecturers.Reset()
	for organisationID, byStatus := range counts {
		for _, status := range models.CapacityStatuses {
			m.capacityLecturers.WithLabelValues(organisationID, string(status)).Set(float64(byStatus[status]))
		}
	}
}
