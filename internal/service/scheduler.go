package service

import (
	"context"
	"fmt"
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"

	"github.com/SMTech-UK/workload-wizard-sub001/internal/models"
)

// Scheduler runs named periodic jobs. Overlapping runs of the same job are skipped.
type Scheduler struct {
	cron   *cron.Cron
	logger *zap.Logger
}

// NewScheduler constructs a scheduler using standard cron specs and descriptors such as "@every 30s".
func NewScheduler(logger *zap.Logger) *Scheduler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Scheduler{
		cron:   cron.New(cron.WithChain(cron.Recover(cron.DefaultLogger), cron.SkipIfStillRunning(cron.DefaultLogger))),
		logger: logger,
	}
}

// Register adds a job under spec.
func (s *Scheduler) Register(name, spec string, job func(ctx context.Context)) error {
	_, err := s.cron.AddFunc(spec, func() {
		start := time.Now()
		job(context.Background())
		s.logger.Debug("scheduled job finished", zap.String("job", name), zap.Duration("duration", time.Since(start)))
	})
	if err != nil {
		return fmt.Errorf("register job %s: %w", name, err)
	}
	s.logger.Info("scheduled job registered", zap.String("job", name), zap.String("spec", spec))
	return nil
}

// Start begins running registered jobs in the background.
func (s *Scheduler) Start() {
	s.cron.Start()
}

// Stop halts scheduling and waits for running jobs.
func (s *Scheduler) Stop() {
	<-s.cron.Stop().Done()
}

type capacitySnapshotSource interface {
	ListCapacitySnapshot(ctx context.Context) ([]models.CapacityStatusCount, error)
}

type capacityGauge interface {
	SetCapacityDistribution(counts map[string]map[models.CapacityStatus]int)
}

// CapacityPoller refreshes the per-organisation capacity status gauges.
type CapacityPoller struct {
	source capacitySnapshotSource
	gauge  capacityGauge
	logger *zap.Logger
}

// NewCapacityPoller constructs the poller.
func NewCapacityPoller(source capacitySnapshotSource, gauge capacityGauge, logger *zap.Logger) *CapacityPoller {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &CapacityPoller{source: source, gauge: gauge, logger: logger}
}

// Refresh classifies every live lecturer of each organisation's default year and publishes the counts.
func (p *CapacityPoller) Refresh(ctx context.Context) {
	rows, err := p.source.ListCapacitySnapshot(ctx)
	if err != nil {
		p.logger.Warn("capacity snapshot failed", zap.Error(err))
		return
	}
	p.gauge.SetCapacityDistribution(CapacityDistribution(rows))
}

// CapacityDistribution counts lecturers per organisation and status.
func CapacityDistribution(rows []models.CapacityStatusCount) map[string]map[models.CapacityStatus]int {
	counts := make(map[string]map[models.CapacityStatus]int)
	for _, row := range rows {
		perOrg, ok := counts[row.OrganisationID]
		if !ok {
			perOrg = make(map[models.CapacityStatus]int, len(models.CapacityStatuses))
			for _, status := range models.CapacityStatuses {
				perOrg[status] = 0
			}
			counts[row.OrganisationID] = perOrg
		}
		perOrg[ClassifyCapacity(row.TotalAllocated, row.TotalContract)]++
	}
	return counts
}
