package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"

	"github.com/dooh-ops/backend/internal/schedule"
)

// Config holds application configuration loaded from environment.
type Config struct {
	Server     ServerConfig
	Database   DatabaseConfig
	Redis      RedisConfig
	JWT        JWTConfig
	AWS        AWSConfig
	Scheduling SchedulingConfig
	Media      MediaConfig
	Worker     WorkerConfig
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Port               string
	ReadTimeout        int
	WriteTimeout       int
	CORSAllowedOrigins string // comma-separated, or "*" for all (e.g. http://localhost:3000,http://localhost:3001)
}

// DatabaseConfig holds PostgreSQL connection settings.
type DatabaseConfig struct {
	URL      string // if set, used as-is (e.g. postgres://localhost:5432/dooh?sslmode=disable)
	Host     string
	Port     string
	User     string
	Password string
	DBName   string
	SSLMode  string
	MaxConns int
}

// RedisConfig holds Redis connection settings.
type RedisConfig struct {
	Addr     string
	Password string
	DB       int
}

// JWTConfig holds JWT signing and validation settings.
type JWTConfig struct {
	Secret      string
	ExpireHours int
}

// AWSConfig holds AWS credentials and the creative bucket.
type AWSConfig struct {
	Region               string
	AccessKeyID          string
	SecretAccessKey      string
	Endpoint             string // S3-compatible endpoint (MinIO, R2); empty for AWS
	MediaBucket          string
	PublicBaseURL        string
	PresignExpireMinutes int
}

// SchedulingConfig holds the occupancy, conflict and validation heuristics.
type SchedulingConfig struct {
	DefaultCapacityQuota    int
	SoftConflictThreshold   int
	MinLegibleHeight        int
	AspectRatioTolerance    float64
	DefaultTargetResolution string
	DecodeTimeout           time.Duration
}

// MediaConfig holds creative upload and probing settings.
type MediaConfig struct {
	FFProbePath string
	MaxUploadMB int
}

// WorkerConfig holds background validation worker settings.
type WorkerConfig struct {
	Concurrency int
	MetricsPort string // serves /metrics and /health; empty disables
}

// DSN returns the PostgreSQL connection string.
// If DatabaseConfig.URL is set (e.g. DATABASE_URL env), it is used as-is; otherwise built from components.
func (c DatabaseConfig) DSN() string {
	if c.URL != "" {
		return c.URL
	}
	return fmt.Sprintf(
		"postgres://%s:%s@%s:%s/%s?sslmode=%s",
		c.User, c.Password, c.Host, c.Port, c.DBName, c.SSLMode,
	)
}

// Rules converts the scheduling section into engine rules. Unset values keep the defaults.
func (c SchedulingConfig) Rules() schedule.Rules {
	return schedule.Rules{
		DefaultCapacityQuota:    c.DefaultCapacityQuota,
		SoftConflictThreshold:   c.SoftConflictThreshold,
		MinLegibleHeight:        c.MinLegibleHeight,
		AspectRatioTolerance:    c.AspectRatioTolerance,
		DefaultTargetResolution: c.DefaultTargetResolution,
		DecodeTimeout:           c.DecodeTimeout,
	}.WithDefaults()
}

// MaxUploadBytes returns the upload limit in bytes.
func (c MediaConfig) MaxUploadBytes() int64 {
	return int64(c.MaxUploadMB) * 1024 * 1024
}

// Load reads configuration from environment, with optional .env file.
func Load() (*Config, error) {
	_ = godotenv.Load()      // .env
	_ = godotenv.Load("env") // env (no leading dot)

	cfg := &Config{
		Server: ServerConfig{
			Port:               getEnv("PORT", "8080"),
			ReadTimeout:        getEnvInt("READ_TIMEOUT_SEC", 30),
			WriteTimeout:       getEnvInt("WRITE_TIMEOUT_SEC", 60),
			CORSAllowedOrigins: getEnv("CORS_ALLOWED_ORIGINS", "http://localhost:3000,http://localhost:3001"),
		},
		Database: DatabaseConfig{
			URL:      getEnv("DATABASE_URL", ""),
			Host:     getEnv("DB_HOST", "localhost"),
			Port:     getEnv("DB_PORT", "5432"),
			User:     getEnv("DB_USER", "postgres"),
			Password: getEnv("DB_PASSWORD", "postgres"),
			DBName:   getEnv("DB_NAME", "dooh"),
			SSLMode:  getEnv("DB_SSLMODE", "disable"),
			MaxConns: getEnvInt("DB_MAX_CONNS", 0),
		},
		Redis: RedisConfig{
			Addr:     getEnv("REDIS_ADDR", "localhost:6379"),
			Password: getEnv("REDIS_PASSWORD", ""),
			DB:       getEnvInt("REDIS_DB", 0),
		},
		JWT: JWTConfig{
			Secret:      getEnv("JWT_SECRET", "change-me-in-production"),
			ExpireHours: getEnvInt("JWT_EXPIRE_HOURS", 24),
		},
		AWS: AWSConfig{
			Region:               getEnv("AWS_REGION", "us-east-1"),
			AccessKeyID:          getEnv("AWS_ACCESS_KEY_ID", ""),
			SecretAccessKey:      getEnv("AWS_SECRET_ACCESS_KEY", ""),
			Endpoint:             getEnv("AWS_S3_ENDPOINT", ""),
			MediaBucket:          getEnv("AWS_S3_MEDIA_BUCKET", "dooh-media"),
			PublicBaseURL:        getEnv("MEDIA_PUBLIC_BASE_URL", ""),
			PresignExpireMinutes: getEnvInt("AWS_PRESIGN_EXPIRE_MINUTES", 15),
		},
		Scheduling: SchedulingConfig{
			DefaultCapacityQuota:    getEnvInt("DEFAULT_CAPACITY_QUOTA", schedule.DefaultCapacityQuota),
			SoftConflictThreshold:   getEnvInt("SOFT_CONFLICT_THRESHOLD", schedule.DefaultSoftConflictThreshold),
			MinLegibleHeight:        getEnvInt("MIN_LEGIBLE_HEIGHT", schedule.DefaultMinLegibleHeight),
			AspectRatioTolerance:    getEnvFloat("ASPECT_RATIO_TOLERANCE", schedule.DefaultAspectRatioTolerance),
			DefaultTargetResolution: getEnv("DEFAULT_TARGET_RESOLUTION", schedule.DefaultTargetResolution),
			DecodeTimeout:           getEnvDuration("DECODE_TIMEOUT", schedule.DefaultDecodeTimeout),
		},
		Media: MediaConfig{
			FFProbePath: getEnv("FFPROBE_PATH", "ffprobe"),
			MaxUploadMB: getEnvInt("MEDIA_MAX_UPLOAD_MB", 200),
		},
		Worker: WorkerConfig{
			Concurrency: getEnvInt("WORKER_CONCURRENCY", 2),
			MetricsPort: getEnv("WORKER_METRICS_PORT", "9091"),
		},
	}
	if cfg.Scheduling.DecodeTimeout <= 0 {
		return nil, fmt.Errorf("DECODE_TIMEOUT must be positive")
	}
	return cfg, nil
}

func getEnvInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return fallback
}

func getEnvFloat(key string, fallback float64) float64 {
	if v := os.Getenv(key); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			return f
		}
	}
	return fallback
}

// getEnvDuration accepts Go durations ("15s") or a bare number of seconds.
func getEnvDuration(key string, fallback time.Duration) time.Duration {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return fallback
	}
	if d, err := time.ParseDuration(v); err == nil {
		return d
	}
	if n, err := strconv.Atoi(v); err == nil {
		return time.Duration(n) * time.Second
	}
	return fallback
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
