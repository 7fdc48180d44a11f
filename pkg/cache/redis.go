package cache

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/SMTech-UK/workload-wizard-sub001/pkg/config"
)

// NewRedis returns a configured Redis client.
func NewRedis(ctx context.Context, cfg config.RedisConfig) (*redis.Client, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     fmt.Sprintf("%s:%d", cfg.Host, cfg.Port),
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	if err := client.Ping(pingCtx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("ping redis: %w", err)
	}

	return client, nil
}

// WorkloadKey builds the cache key for a year overview of an organisation.
func WorkloadKey(organisationID, academicYearID string) string {
	return fmt.Sprintf("workload:%s:%s", organisationID, academicYearID)
}

// WorkloadPattern matches every cached overview of an organisation.
func WorkloadPattern(organisationID string) string {
	return fmt.Sprintf("workload:%s:*", organisationID)
}
