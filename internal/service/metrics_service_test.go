package service

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/SMTech-UK/workload-wizard-sub001/internal/models"
)

func gatheredValue(t *testing.T, m *MetricsService, name string, labels map[string]string) float64 {
	t.Helper()
	families, err := m.Registry().Gather()
	require.NoError(t, err)
	for _, family := range families {
		if family.GetName() != name {
			continue
		}
	metrics:
		for _, metric := range family.GetMetric() {
			for _, pair := range metric.GetLabel() {
				if want, ok := labels[pair.GetName()]; ok && want != pair.GetValue() {
					continue metrics
				}
			}
			if counter := metric.GetCounter(); counter != nil {
				return counter.GetValue()
			}
			return metric.GetGauge().GetValue()
		}
	}
	return 0
}

func TestMetricsServiceCounters(t *testing.T) {
	m := NewMetricsService()

	m.RecordAllocationSave("rejected")
	m.RecordAssignmentChange("assign")
	m.RecordAssignmentChange("assign")
	m.RecordBatch("bulk_import", []models.BulkResult{{Success: true}, {Success: false}, {Success: true}})
	m.RecordCacheLookup(true, time.Millisecond)

	assert.Equal(t, 1.0, gatheredValue(t, m, "admin_allocation_saves_total", map[string]string{"outcome": "rejected"}))
	assert.Equal(t, 2.0, gatheredValue(t, m, "module_assignment_changes_total", map[string]string{"action": "assign"}))
	assert.Equal(t, 2.0, gatheredValue(t, m, "batch_rows_total", map[string]string{"operation": "bulk_import", "outcome": "success"}))
	assert.Equal(t, 1.0, gatheredValue(t, m, "batch_rows_total", map[string]string{"operation": "bulk_import", "outcome": "failure"}))
	assert.Equal(t, 1.0, gatheredValue(t, m, "workload_cache_lookups_total", map[string]string{"result": "hit"}))
}

func TestMetricsServiceCapacityDistribution(t *testing.T) {
	m := NewMetricsService()
	m.SetCapacityDistribution(map[string]map[models.CapacityStatus]int{
		"org-1": {models.CapacityOverloaded: 2, models.CapacityAvailable: 5},
	})

	assert.Equal(t, 2.0, gatheredValue(t, m, "lecturer_capacity_status", map[string]string{"organisation_id": "org-1", "status": "overloaded"}))
	assert.Equal(t, 5.0, gatheredValue(t, m, "lecturer_capacity_status", map[string]string{"organisation_id": "org-1", "status": "available"}))
	assert.Equal(t, 0.0, gatheredValue(t, m, "lecturer_capacity_status", map[string]string{"organisation_id": "org-1", "status": "at-capacity"}))
}

func TestMetricsServiceNilSafe(t *testing.T) {
	var m *MetricsService
	assert.NotPanics(t, func() {
		m.RecordAllocationSave("saved")
		m.RecordBatch("rollover", nil)
		m.SetCapacityDistribution(nil)
	})
}
