package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/SMTech-UK/workload-wizard-sub001/internal/models"
	"github.com/SMTech-UK/workload-wizard-sub001/pkg/cache"
	appErrors "github.com/SMTech-UK/workload-wizard-sub001/pkg/errors"
)

// CacheRepository stores workload overviews in Redis. A nil client behaves as an
// always-empty cache.
type CacheRepository struct {
	client *redis.Client
}

// NewCacheRepository constructs a cache repository.
func NewCacheRepository(client *redis.Client) *CacheRepository {
	return &CacheRepository{client: client}
}

// GetOverview loads a cached overview or returns ErrCacheMiss.
func (r *CacheRepository) GetOverview(ctx context.Context, organisationID, academicYearID string) (*models.WorkloadOverview, error) {
	if r.client == nil {
		return nil, appErrors.ErrCacheMiss
	}

	key := cache.WorkloadKey(organisationID, academicYearID)
	raw, err := r.client.Get(ctx, key).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, appErrors.ErrCacheMiss
		}
		return nil, fmt.Errorf("redis get %s: %w", key, err)
	}

	var overview models.WorkloadOverview
	if err := json.Unmarshal(raw, &overview); err != nil {
		return nil, fmt.Errorf("unmarshal overview %s: %w", key, err)
	}
	return &overview, nil
}

// SetOverview stores an overview under its organisation/year key.
func (r *CacheRepository) SetOverview(ctx context.Context, organisationID string, overview *models.WorkloadOverview, ttl time.Duration) error {
	if r.client == nil || overview == nil {
		return nil
	}

	key := cache.WorkloadKey(organisationID, overview.AcademicYearID)
	payload, err := json.Marshal(overview)
	if err != nil {
		return fmt.Errorf("marshal overview %s: %w", key, err)
	}
	if err := r.client.Set(ctx, key, payload, ttl).Err(); err != nil {
		return fmt.Errorf("redis set %s: %w", key, err)
	}
	return nil
}

// InvalidateOrganisation drops every cached overview of the organisation.
func (r *CacheRepository) InvalidateOrganisation(ctx context.Context, organisationID string) error {
	if r.client == nil {
		return nil
	}

	pattern := cache.WorkloadPattern(organisationID)
	iter := r.client.Scan(ctx, 0, pattern, 100).Iterator()
	var keys []string
	for iter.Next(ctx) {
		keys = append(keys, iter.Val())
	}
	if err := iter.Err(); err != nil {
		return fmt.Errorf("redis scan %s: %w", pattern, err)
	}
	if len(keys) == 0 {
		return nil
	}
	if err := r.client.Del(ctx, keys...).Err(); err != nil {
		return fmt.Errorf("redis delete %s: %w", pattern, err)
	}
	return nil
}

// Close releases the underlying Redis connection if present.
func (r *CacheRepository) Close() error {
	if r.client == nil {
		return nil
	}
	return r.client.Close()
}
