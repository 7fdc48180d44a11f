package service

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"

	"github.com/SMTech-UK/workload-wizard-sub001/internal/models"
	appErrors "github.com/SMTech-UK/workload-wizard-sub001/pkg/errors"
	"github.com/SMTech-UK/workload-wizard-sub001/pkg/logger"
)

// OverviewCacheRepository abstracts storage of cached workload overviews.
type OverviewCacheRepository interface {
	GetOverview(ctx context.Context, organisationID, academicYearID string) (*models.WorkloadOverview, error)
	SetOverview(ctx context.Context, organisationID string, overview *models.WorkloadOverview, ttl time.Duration) error
	InvalidateOrganisation(ctx context.Context, organisationID string) error
}

// CacheInvalidator drops cached derived views of an organisation after a mutation.
type CacheInvalidator interface {
	Invalidate(ctx context.Context, organisationID string)
}

// CacheService caches workload overviews. Failures degrade to a miss and are logged.
type CacheService struct {
	repo    OverviewCacheRepository
	metrics *MetricsService
	ttl     time.Duration
	logger  *zap.Logger
	enabled bool
}

// NewCacheService constructs a cache service.
func NewCacheService(repo OverviewCacheRepository, metrics *MetricsService, ttl time.Duration, logger *zap.Logger, enabled bool) *CacheService {
	if ttl <= 0 {
		ttl = 5 * time.Minute
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &CacheService{repo: repo, metrics: metrics, ttl: ttl, logger: logger, enabled: enabled}
}

// Enabled indicates whether caching is active.
func (s *CacheService) Enabled() bool {
	return s != nil && s.enabled && s.repo != nil
}

// Overview returns a cached overview, or false on a miss.
func (s *CacheService) Overview(ctx context.Context, organisationID, academicYearID string) (*models.WorkloadOverview, bool) {
	if !s.Enabled() {
		return nil, false
	}
	start := time.Now()
	overview, err := s.repo.GetOverview(ctx, organisationID, academicYearID)
	hit := err == nil && overview != nil
	s.metrics.RecordCacheLookup(hit, time.Since(start))
	if err != nil && !errors.Is(err, appErrors.ErrCacheMiss) {
		logger.WithContext(ctx, s.logger).Warn("cache get failed", zap.String("organisation_id", organisationID), zap.Error(err))
	}
	return overview, hit
}

// StoreOverview caches an overview for the configured TTL.
func (s *CacheService) StoreOverview(ctx context.Context, organisationID string, overview *models.WorkloadOverview) {
	if !s.Enabled() {
		return
	}
	if err := s.repo.SetOverview(ctx, organisationID, overview, s.ttl); err != nil {
		logger.WithContext(ctx, s.logger).Warn("cache set failed", zap.String("organisation_id", organisationID), zap.Error(err))
	}
}

// Invalidate drops every cached overview of the organisation.
func (s *CacheService) Invalidate(ctx context.Context, organisationID string) {
	if !s.Enabled() {
		return
	}
	if err := s.repo.InvalidateOrganisation(ctx, organisationID); err != nil {
		logger.WithContext(ctx, s.logger).Warn("cache invalidate failed", zap.String("organisation_id", organisationID), zap.Error(err))
	}
}

type noopInvalidator struct{}

func (noopInvalidator) Invalidate(context.Context, string) {}

func invalidatorOrNoop(inv CacheInvalidator) CacheInvalidator {
	if inv == nil {
		return noopInvalidator{}
	}
	return inv
}
