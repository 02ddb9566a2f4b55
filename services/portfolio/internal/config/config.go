package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// ConfigPath is used when PORTFOLIO_CONFIG is not set.
const ConfigPath = "config.yaml"

const (
	CacheRedis  = "redis"
	CacheFile   = "file"
	CacheMemory = "memory"

	MediaMinio = "minio"
	MediaFile  = "file"
)

// MinioConfig holds object storage settings.
type MinioConfig struct {
	Endpoint      string `yaml:"endpoint"`
	AccessKey     string `yaml:"accessKey"`
	SecretKey     string `yaml:"secretKey"`
	Bucket        string `yaml:"bucket"`
	UseSSL        bool   `yaml:"useSSL"`
	PublicBaseURL string `yaml:"publicBaseURL"`
}

// FileConfig represents configuration loaded from YAML.
type FileConfig struct {
	Port                      string      `yaml:"port"`
	LogLevel                  string      `yaml:"logLevel"`
	DatabaseURL               string      `yaml:"databaseURL"`
	RedisAddr                 string      `yaml:"redisAddr"`
	RedisPassword             string      `yaml:"redisPassword"`
	CacheBackend              string      `yaml:"cacheBackend"`
	CacheDir                  string      `yaml:"cacheDir"`
	MediaBackend              string      `yaml:"mediaBackend"`
	Minio                     MinioConfig `yaml:"minio"`
	MediaDir                  string      `yaml:"mediaDir"`
	MediaBaseURL              string      `yaml:"mediaBaseURL"`
	MediaBucket               string      `yaml:"mediaBucket"`
	PlaceholderImages         []string    `yaml:"placeholderImages"`
	PlaceholderFile           string      `yaml:"placeholderFile"`
	MaxUploadBytes            int64       `yaml:"maxUploadBytes"`
	UploadConcurrency         int         `yaml:"uploadConcurrency"`
	RemoteTimeout             string      `yaml:"remoteTimeout"`
	ConnectivityRecheck       string      `yaml:"connectivityRecheck"`
	AdminUsername             string      `yaml:"adminUsername"`
	AdminPasswordHash         string      `yaml:"adminPasswordHash"`
	JWTSecret                 string      `yaml:"jwtSecret"`
	SessionTTL                string      `yaml:"sessionTTL"`
	AMQPURL                   string      `yaml:"amqpURL"`
	AMQPExchange              string      `yaml:"amqpExchange"`
	EventsStream              string      `yaml:"eventsStream"`
	LoginRateLimitPerMinute   int         `yaml:"loginRateLimitPerMinute"`
	ContactRateLimitPerMinute int         `yaml:"contactRateLimitPerMinute"`
	TrustedProxyCIDRs         []string    `yaml:"trustedProxyCidrs"`
	AllowedOrigins            []string    `yaml:"allowedOrigins"`
	ShutdownTimeout           string      `yaml:"shutdownTimeout"`
}

// Durations are the parsed duration settings.
type Durations struct {
	RemoteTimeout       time.Duration
	ConnectivityRecheck time.Duration
	SessionTTL          time.Duration
	ShutdownTimeout     time.Duration
}

// Path returns PORTFOLIO_CONFIG or the default path.
func Path() string {
	if v := strings.TrimSpace(os.Getenv("PORTFOLIO_CONFIG")); v != "" {
		return v
	}
	return ConfigPath
}

// Load reads .env (when present), the YAML file at path, and environment
// overrides, then fills defaults and validates.
func Load(path string) (FileConfig, error) {
	cfg := FileConfig{}
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return cfg, fmt.Errorf("load .env: %w", err)
	}
	if path == "" {
		path = Path()
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, fmt.Errorf("read config: %w", err)
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("parse config: %w", err)
	}
	applyEnv(&cfg)
	applyDefaults(&cfg)
	if err := validateConfig(cfg); err != nil {
		return cfg, err
	}
	return cfg, nil
}

func applyEnv(cfg *FileConfig) {
	envString(&cfg.Port, "PORT")
	envString(&cfg.LogLevel, "LOG_LEVEL")
	envString(&cfg.DatabaseURL, "DATABASE_URL")
	envString(&cfg.RedisAddr, "REDIS_ADDR")
	envString(&cfg.RedisPassword, "REDIS_PASSWORD")
	envString(&cfg.CacheBackend, "PORTFOLIO_CACHE_BACKEND")
	envString(&cfg.CacheDir, "PORTFOLIO_CACHE_DIR")
	envString(&cfg.MediaBackend, "PORTFOLIO_MEDIA_BACKEND")
	envString(&cfg.Minio.Endpoint, "MINIO_ENDPOINT")
	envString(&cfg.Minio.AccessKey, "MINIO_ACCESS_KEY")
	envString(&cfg.Minio.SecretKey, "MINIO_SECRET_KEY")
	envString(&cfg.Minio.Bucket, "MINIO_BUCKET")
	envBool(&cfg.Minio.UseSSL, "MINIO_USE_SSL")
	envString(&cfg.Minio.PublicBaseURL, "MINIO_PUBLIC_BASE_URL")
	envString(&cfg.MediaDir, "PORTFOLIO_MEDIA_DIR")
	envString(&cfg.MediaBaseURL, "PORTFOLIO_MEDIA_BASE_URL")
	envString(&cfg.MediaBucket, "PORTFOLIO_MEDIA_BUCKET")
	envCSV(&cfg.PlaceholderImages, "PORTFOLIO_PLACEHOLDER_IMAGES")
	envString(&cfg.PlaceholderFile, "PORTFOLIO_PLACEHOLDER_FILE")
	if v := os.Getenv("PORTFOLIO_MAX_UPLOAD_BYTES"); v != "" {
		if n, err := strconv.ParseInt(strings.TrimSpace(v), 10, 64); err == nil {
			cfg.MaxUploadBytes = n
		}
	}
	envInt(&cfg.UploadConcurrency, "PORTFOLIO_UPLOAD_CONCURRENCY")
	envString(&cfg.RemoteTimeout, "PORTFOLIO_REMOTE_TIMEOUT")
	envString(&cfg.ConnectivityRecheck, "PORTFOLIO_CONNECTIVITY_RECHECK")
	envString(&cfg.AdminUsername, "PORTFOLIO_ADMIN_USERNAME")
	envString(&cfg.AdminPasswordHash, "PORTFOLIO_ADMIN_PASSWORD_HASH")
	envString(&cfg.JWTSecret, "JWT_SECRET")
	envString(&cfg.SessionTTL, "PORTFOLIO_SESSION_TTL")
	envString(&cfg.AMQPURL, "AMQP_URL")
	envString(&cfg.AMQPExchange, "AMQP_EXCHANGE")
	envString(&cfg.EventsStream, "PORTFOLIO_EVENTS_STREAM")
	envInt(&cfg.LoginRateLimitPerMinute, "PORTFOLIO_LOGIN_RATE_LIMIT_PER_MINUTE")
	envInt(&cfg.ContactRateLimitPerMinute, "PORTFOLIO_CONTACT_RATE_LIMIT_PER_MINUTE")
	envCSV(&cfg.TrustedProxyCIDRs, "PORTFOLIO_TRUSTED_PROXY_CIDRS")
	envCSV(&cfg.AllowedOrigins, "PORTFOLIO_ALLOWED_ORIGINS")
	envString(&cfg.ShutdownTimeout, "PORTFOLIO_SHUTDOWN_TIMEOUT")
}

func applyDefaults(cfg *FileConfig) {
	if cfg.LogLevel == "" {
		cfg.LogLevel = "info"
	}
	cfg.CacheBackend = strings.ToLower(strings.TrimSpace(cfg.CacheBackend))
	if cfg.CacheBackend == "" {
		cfg.CacheBackend = CacheMemory
		if strings.TrimSpace(cfg.RedisAddr) != "" {
			cfg.CacheBackend = CacheRedis
		}
	}
	if cfg.CacheBackend == CacheFile && strings.TrimSpace(cfg.CacheDir) == "" {
		cfg.CacheDir = "data/cache"
	}
	cfg.MediaBackend = strings.ToLower(strings.TrimSpace(cfg.MediaBackend))
	if cfg.MediaBackend == "" {
		cfg.MediaBackend = MediaFile
		if strings.TrimSpace(cfg.Minio.Endpoint) != "" {
			cfg.MediaBackend = MediaMinio
		}
	}
	if cfg.MediaBucket == "" {
		cfg.MediaBucket = "media"
	}
	if cfg.Minio.Bucket == "" {
		cfg.Minio.Bucket = cfg.MediaBucket
	}
	if cfg.MediaDir == "" {
		cfg.MediaDir = "data/media"
	}
	if cfg.MediaBaseURL == "" {
		cfg.MediaBaseURL = "/media"
	}
	if cfg.MaxUploadBytes <= 0 {
		cfg.MaxUploadBytes = 20 * 1024 * 1024
	}
	if cfg.UploadConcurrency <= 0 {
		cfg.UploadConcurrency = 4
	}
	if cfg.RemoteTimeout == "" {
		cfg.RemoteTimeout = "5s"
	}
	if cfg.ConnectivityRecheck == "" {
		cfg.ConnectivityRecheck = "30s"
	}
	if cfg.SessionTTL == "" {
		cfg.SessionTTL = "12h"
	}
	if cfg.ShutdownTimeout == "" {
		cfg.ShutdownTimeout = "10s"
	}
	if cfg.EventsStream == "" {
		cfg.EventsStream = "portfolio:events"
	}
	if cfg.LoginRateLimitPerMinute == 0 {
		cfg.LoginRateLimitPerMinute = 10
	}
	if cfg.ContactRateLimitPerMinute == 0 {
		cfg.ContactRateLimitPerMinute = 5
	}
}

func validateConfig(cfg FileConfig) error {
	if cfg.Port == "" {
		return errors.New("config: port is required (set in config.yaml or PORT)")
	}
	if strings.TrimSpace(cfg.AdminUsername) == "" {
		return errors.New("config: adminUsername is required")
	}
	if strings.TrimSpace(cfg.AdminPasswordHash) == "" {
		return errors.New("config: adminPasswordHash is required (generate with portfolioctl hash-password)")
	}
	if len(cfg.JWTSecret) < 32 {
		return errors.New("config: jwtSecret must be at least 32 bytes")
	}
	switch cfg.CacheBackend {
	case CacheRedis:
		if strings.TrimSpace(cfg.RedisAddr) == "" {
			return errors.New("config: redisAddr is required for the redis cache backend")
		}
	case CacheFile, CacheMemory:
	default:
		return fmt.Errorf("config: unknown cacheBackend %q (redis|file|memory)", cfg.CacheBackend)
	}
	switch cfg.MediaBackend {
	case MediaMinio:
		if strings.TrimSpace(cfg.Minio.Endpoint) == "" {
			return errors.New("config: minio.endpoint is required for the minio media backend")
		}
	case MediaFile:
	default:
		return fmt.Errorf("config: unknown mediaBackend %q (minio|file)", cfg.MediaBackend)
	}
	if cfg.LoginRateLimitPerMinute < 0 || cfg.ContactRateLimitPerMinute < 0 {
		return errors.New("config: rate limits must be >= 0")
	}
	if _, err := cfg.Durations(); err != nil {
		return err
	}
	return nil
}

// Durations parses the duration settings.
func (c FileConfig) Durations() (Durations, error) {
	var d Durations
	var err error
	if d.RemoteTimeout, err = parseDuration("remoteTimeout", c.RemoteTimeout); err != nil {
		return d, err
	}
	if d.ConnectivityRecheck, err = parseDuration("connectivityRecheck", c.ConnectivityRecheck); err != nil {
		return d, err
	}
	if d.SessionTTL, err = parseDuration("sessionTTL", c.SessionTTL); err != nil {
		return d, err
	}
	if d.ShutdownTimeout, err = parseDuration("shutdownTimeout", c.ShutdownTimeout); err != nil {
		return d, err
	}
	return d, nil
}

func parseDuration(name, value string) (time.Duration, error) {
	dur, err := time.ParseDuration(strings.TrimSpace(value))
	if err != nil {
		return 0, fmt.Errorf("config: invalid %s duration: %w", name, err)
	}
	if dur <= 0 {
		return 0, fmt.Errorf("config: %s must be positive", name)
	}
	return dur, nil
}

func envString(dst *string, name string) {
	if v := os.Getenv(name); v != "" {
		*dst = strings.TrimSpace(v)
	}
}

func envInt(dst *int, name string) {
	if v := os.Getenv(name); v != "" {
		if n, err := strconv.Atoi(strings.TrimSpace(v)); err == nil {
			*dst = n
		}
	}
}

func envBool(dst *bool, name string) {
	if v := os.Getenv(name); v != "" {
		if b, err := strconv.ParseBool(strings.TrimSpace(v)); err == nil {
			*dst = b
		}
	}
}

func envCSV(dst *[]string, name string) {
	if v := os.Getenv(name); v != "" {
		*dst = splitCSV(v)
	}
}

func splitCSV(value string) []string {
	parts := strings.Split(value, ",")
	out := make([]string, 0, len(parts))
	for _, part := range parts {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		out = append(out, part)
	}
	return out
}
