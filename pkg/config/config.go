package config

import (
	"errors"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

const (
	EnvDevelopment = "development"
	EnvProduction  = "production"
)

type Config struct {
	Env       string
	Port      int
	APIPrefix string

	Database DatabaseConfig
	Redis    RedisConfig
	JWT      JWTConfig
	CORS     CORSConfig
	Log      LogConfig
	Cache    CacheConfig
	Audit    AuditConfig
	Metrics  MetricsConfig
	Reports  ReportsConfig
}

type DatabaseConfig struct {
	Host         string
	Port         int
	User         string
	Password     string
	Name         string
	SSLMode      string
	MaxOpenConns int
	MaxIdleConns int
}

type RedisConfig struct {
	Host     string
	Port     int
	Password string
	DB       int
}

type JWTConfig struct {
	Secret   string
	Issuer   string
	Audience []string
}

type CORSConfig struct {
	AllowedOrigins []string
}

type LogConfig struct {
	Level  string
	Format string
}

// CacheConfig governs caching of workload overviews.
type CacheConfig struct {
	Enabled     bool
	WorkloadTTL time.Duration
}

// AuditConfig controls audit delivery and batch granularity.
type AuditConfig struct {
	Async        bool
	Workers      int
	Retries      int
	BulkMode     string
	RolloverMode string
}

// MetricsConfig configures the capacity gauge poller.
type MetricsConfig struct {
	Enabled  bool
	PollSpec string
}

// ReportsConfig controls workload report exports and their signed download links.
type ReportsConfig struct {
	Enabled       bool
	Dir           string
	ResultTTL     time.Duration
	SigningSecret string
	CleanupSpec   string
}

func Load() (*Config, error) {
	_ = godotenv.Load()

	v := viper.New()
	v.SetConfigFile(".env")
	v.SetConfigType("env")
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) && !isMissingFile(err) {
			return nil, err
		}
	}

	return fromViper(v), nil
}

func fromViper(v *viper.Viper) *Config {
	cfg := &Config{}

	cfg.Env = v.GetString("ENV")
	cfg.Port = v.GetInt("PORT")
	cfg.APIPrefix = v.GetString("API_PREFIX")

	cfg.Database = DatabaseConfig{
		Host:         v.GetString("DB_HOST"),
		Port:         v.GetInt("DB_PORT"),
		User:         v.GetString("DB_USER"),
		Password:     v.GetString("DB_PASSWORD"),
		Name:         v.GetString("DB_NAME"),
		SSLMode:      v.GetString("DB_SSL_MODE"),
		MaxOpenConns: v.GetInt("DB_MAX_OPEN_CONNS"),
		MaxIdleConns: v.GetInt("DB_MAX_IDLE_CONNS"),
	}

	cfg.Redis = RedisConfig{
		Host:     v.GetString("REDIS_HOST"),
		Port:     v.GetInt("REDIS_PORT"),
		Password: v.GetString("REDIS_PASSWORD"),
		DB:       v.GetInt("REDIS_DB"),
	}

	cfg.JWT = JWTConfig{
		Secret:   v.GetString("JWT_SECRET"),
		Issuer:   v.GetString("JWT_ISSUER"),
		Audience: splitAndTrim(v.GetString("JWT_AUDIENCE")),
	}

	cfg.CORS = CORSConfig{AllowedOrigins: splitAndTrim(v.GetString("ALLOWED_ORIGINS"))}

	cfg.Log = LogConfig{
		Level:  v.GetString("LOG_LEVEL"),
		Format: v.GetString("LOG_FORMAT"),
	}

	cfg.Cache = CacheConfig{
		Enabled:     v.GetBool("ENABLE_CACHE"),
		WorkloadTTL: parseDuration(v.GetString("WORKLOAD_CACHE_TTL"), 5*time.Minute),
	}

	cfg.Audit = AuditConfig{
		Async:        v.GetBool("AUDIT_ASYNC"),
		Workers:      v.GetInt("AUDIT_WORKERS"),
		Retries:      v.GetInt("AUDIT_RETRIES"),
		BulkMode:     strings.ToLower(v.GetString("AUDIT_BULK_MODE")),
		RolloverMode: strings.ToLower(v.GetString("AUDIT_ROLLOVER_MODE")),
	}

	cfg.Metrics = MetricsConfig{
		Enabled:  v.GetBool("ENABLE_METRICS"),
		PollSpec: v.GetString("METRICS_POLL_SPEC"),
	}

	cfg.Reports = ReportsConfig{
		Enabled:       v.GetBool("ENABLE_REPORTS"),
		Dir:           v.GetString("REPORTS_DIR"),
		ResultTTL:     parseDuration(v.GetString("REPORTS_RESULT_TTL"), 24*time.Hour),
		SigningSecret: v.GetString("REPORTS_SIGNING_SECRET"),
		CleanupSpec:   v.GetString("REPORTS_CLEANUP_SPEC"),
	}
	if cfg.Reports.SigningSecret == "" {
		cfg.Reports.SigningSecret = cfg.JWT.Secret
	}

	return cfg
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("ENV", EnvDevelopment)
	v.SetDefault("PORT", 8080)
	v.SetDefault("API_PREFIX", "/api/v1")

	v.SetDefault("DB_HOST", "localhost")
	v.SetDefault("DB_PORT", 5432)
	v.SetDefault("DB_USER", "postgres")
	v.SetDefault("DB_PASSWORD", "postgres")
	v.SetDefault("DB_NAME", "workload_wizard")
	v.SetDefault("DB_SSL_MODE", "disable")
	v.SetDefault("DB_MAX_OPEN_CONNS", 10)
	v.SetDefault("DB_MAX_IDLE_CONNS", 5)

	v.SetDefault("REDIS_HOST", "localhost")
	v.SetDefault("REDIS_PORT", 6379)
	v.SetDefault("REDIS_PASSWORD", "")
	v.SetDefault("REDIS_DB", 0)

	v.SetDefault("JWT_SECRET", "dev_secret")
	v.SetDefault("JWT_ISSUER", "")
	v.SetDefault("JWT_AUDIENCE", "")

	v.SetDefault("ALLOWED_ORIGINS", "")
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("LOG_FORMAT", "json")

	v.SetDefault("ENABLE_CACHE", false)
	v.SetDefault("WORKLOAD_CACHE_TTL", "5m")

	v.SetDefault("AUDIT_ASYNC", false)
	v.SetDefault("AUDIT_WORKERS", 2)
	v.SetDefault("AUDIT_RETRIES", 3)
	v.SetDefault("AUDIT_BULK_MODE", "batch")
	v.SetDefault("AUDIT_ROLLOVER_MODE", "none")

	v.SetDefault("ENABLE_METRICS", true)
	v.SetDefault("METRICS_POLL_SPEC", "@every 30s")

	v.SetDefault("ENABLE_REPORTS", true)
	v.SetDefault("REPORTS_DIR", "./reports")
	v.SetDefault("REPORTS_RESULT_TTL", "24h")
	v.SetDefault("REPORTS_SIGNING_SECRET", "")
	v.SetDefault("REPORTS_CLEANUP_SPEC", "@hourly")
}

func isMissingFile(err error) bool {
	return strings.Contains(err.Error(), "no such file or directory")
}

func parseDuration(raw string, fallback time.Duration) time.Duration {
	if raw == "" {
		return fallback
	}

	d, err := time.ParseDuration(raw)
	if err != nil {
		return fallback
	}

	return d
}

func splitAndTrim(raw string) []string {
	if raw == "" {
		return nil
	}

	parts := strings.Split(raw, ",")
	result := make([]string, 0, len(parts))
	for _, part := range parts {
		trimmed := strings.TrimSpace(part)
		if trimmed != "" {
			result = append(result, trimmed)
		}
	}

	return result
}
