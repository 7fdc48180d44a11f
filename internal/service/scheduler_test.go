package service

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/SMTech-UK/workload-wizard-sub001/internal/models"
)

type stubSnapshotSource struct {
	rows []models.CapacityStatusCount
	err  error
}

func (s stubSnapshotSource) ListCapacitySnapshot(ctx context.Context) ([]models.CapacityStatusCount, error) {
	return s.rows, s.err
}

type recordingGauge struct {
	counts map[string]map[models.CapacityStatus]int
	calls  int
}

func (r *recordingGauge) SetCapacityDistribution(counts map[string]map[models.CapacityStatus]int) {
	r.counts = counts
	r.calls++
}

func TestCapacityPollerRefresh(t *testing.T) {
	gauge := &recordingGauge{}
	poller := NewCapacityPoller(stubSnapshotSource{rows: []models.CapacityStatusCount{
		{OrganisationID: "org-1", TotalAllocated: 1000, TotalContract: 1500},
		{OrganisationID: "org-1", TotalAllocated: 1500, TotalContract: 1500},
		{OrganisationID: "org-2", TotalAllocated: 1600, TotalContract: 1500},
	}}, gauge, nil)

	poller.Refresh(context.Background())
	require.Equal(t, 1, gauge.calls)
	assert.Equal(t, 1, gauge.counts["org-1"][models.CapacityAvailable])
	assert.Equal(t, 1, gauge.counts["org-1"][models.CapacityAtCapacity])
	assert.Equal(t, 0, gauge.counts["org-1"][models.CapacityOverloaded])
	assert.Equal(t, 1, gauge.counts["org-2"][models.CapacityOverloaded])
}

func TestCapacityPollerKeepsGaugesOnError(t *testing.T) {
	gauge := &recordingGauge{}
	NewCapacityPoller(stubSnapshotSource{err: errors.New("db down")}, gauge, nil).Refresh(context.Background())
	assert.Equal(t, 0, gauge.calls)
}

func TestSchedulerRunsRegisteredJob(t *testing.T) {
	s := NewScheduler(nil)
	var runs int32
	require.NoError(t, s.Register("tick", "@every 1s", func(ctx context.Context) {
		atomic.AddInt32(&runs, 1)
	}))
	assert.Error(t, s.Register("bad", "not a spec", func(ctx context.Context) {}))

	s.Start()
	assert.Eventually(t, func() bool { return atomic.LoadInt32(&runs) > 0 }, 3*time.Second, 50*time.Millisecond)
	s.Stop()
}
