package config

import (
	"testing"
	"time"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
)

func TestDefaults(t *testing.T) {
	v := viper.New()
	setDefaults(v)
	cfg := fromViper(v)

	assert.Equal(t, EnvDevelopment, cfg.Env)
	assert.Equal(t, 8080, cfg.Port)
	assert.Equal(t, "workload_wizard", cfg.Database.Name)
	assert.Equal(t, 5*time.Minute, cfg.Cache.WorkloadTTL)
	assert.Equal(t, "batch", cfg.Audit.BulkMode)
	assert.Equal(t, "none", cfg.Audit.RolloverMode)
	assert.Equal(t, "@every 30s", cfg.Metrics.PollSpec)
	assert.Nil(t, cfg.JWT.Audience)
	assert.Equal(t, 24*time.Hour, cfg.Reports.ResultTTL)
	assert.Equal(t, "dev_secret", cfg.Reports.SigningSecret)
}

func TestOverrides(t *testing.T) {
	v := viper.New()
	setDefaults(v)
	v.Set("WORKLOAD_CACHE_TTL", "90s")
	v.Set("AUDIT_ROLLOVER_MODE", "ITEM")
	v.Set("ALLOWED_ORIGINS", "https://a.example.com, ,https://b.example.com")
	cfg := fromViper(v)

	assert.Equal(t, 90*time.Second, cfg.Cache.WorkloadTTL)
	assert.Equal(t, "item", cfg.Audit.RolloverMode)
	assert.Equal(t, []string{"https://a.example.com", "https://b.example.com"}, cfg.CORS.AllowedOrigins)
}

func TestParseDurationFallback(t *testing.T) {
	assert.Equal(t, time.Minute, parseDuration("nonsense", time.Minute))
	assert.Equal(t, time.Minute, parseDuration("", time.Minute))
	assert.Equal(t, 2*time.Second, parseDuration("2s", time.Minute))
}
