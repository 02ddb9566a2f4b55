package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

const validYAML = `
port: "8080"
adminUsername: admin
adminPasswordHash: "$2a$10$abcdefghijklmnopqrstuv"
jwtSecret: "0123456789abcdef0123456789abcdef"
placeholderImages:
  - https://img.test/a.jpg
`

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(body), 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return path
}

func TestLoadAppliesDefaults(t *testing.T) {
	t.Chdir(t.TempDir())
	cfg, err := Load(writeConfig(t, validYAML))
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.CacheBackend != CacheMemory || cfg.MediaBackend != MediaFile {
		t.Fatalf("unexpected backends: cache=%q media=%q", cfg.CacheBackend, cfg.MediaBackend)
	}
	if cfg.UploadConcurrency != 4 || cfg.MaxUploadBytes != 20*1024*1024 {
		t.Fatalf("unexpected upload defaults: %+v", cfg)
	}
	d, err := cfg.Durations()
	if err != nil {
		t.Fatalf("durations: %v", err)
	}
	if d.RemoteTimeout != 5*time.Second || d.ConnectivityRecheck != 30*time.Second {
		t.Fatalf("unexpected durations: %+v", d)
	}
	if len(cfg.PlaceholderImages) != 1 {
		t.Fatalf("expected placeholder images from yaml, got %v", cfg.PlaceholderImages)
	}
}

func TestLoadEnvOverrides(t *testing.T) {
	t.Chdir(t.TempDir())
	t.Setenv("REDIS_ADDR", "localhost:6379")
	t.Setenv("PORTFOLIO_ALLOWED_ORIGINS", "https://a.dev, https://b.dev")
	t.Setenv("PORTFOLIO_REMOTE_TIMEOUT", "2s")
	t.Setenv("MINIO_USE_SSL", "true")
	t.Setenv("MINIO_ENDPOINT", "minio:9000")

	cfg, err := Load(writeConfig(t, validYAML))
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.CacheBackend != CacheRedis {
		t.Fatalf("expected redis cache when redisAddr is set, got %q", cfg.CacheBackend)
	}
	if cfg.MediaBackend != MediaMinio || !cfg.Minio.UseSSL || cfg.Minio.Bucket != "media" {
		t.Fatalf("unexpected minio config: %+v", cfg.Minio)
	}
	if strings.Join(cfg.AllowedOrigins, "|") != "https://a.dev|https://b.dev" {
		t.Fatalf("unexpected origins: %v", cfg.AllowedOrigins)
	}
	if d, _ := cfg.Durations(); d.RemoteTimeout != 2*time.Second {
		t.Fatalf("unexpected remote timeout: %v", d.RemoteTimeout)
	}
}

func TestLoadReadsDotEnv(t *testing.T) {
	dir := t.TempDir()
	t.Chdir(dir)
	if err := os.WriteFile(filepath.Join(dir, ".env"), []byte("PORTFOLIO_CONTACT_RATE_LIMIT_PER_MINUTE=3\n"), 0o600); err != nil {
		t.Fatalf("write .env: %v", err)
	}
	t.Cleanup(func() { os.Unsetenv("PORTFOLIO_CONTACT_RATE_LIMIT_PER_MINUTE") })

	cfg, err := Load(writeConfig(t, validYAML))
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.ContactRateLimitPerMinute != 3 {
		t.Fatalf("expected .env override, got %d", cfg.ContactRateLimitPerMinute)
	}
}

func TestValidateConfig(t *testing.T) {
	t.Chdir(t.TempDir())
	tests := []struct {
		name string
		yaml string
		want string
	}{
		{name: "short secret", yaml: strings.Replace(validYAML, "0123456789abcdef0123456789abcdef", "short", 1), want: "jwtSecret"},
		{name: "missing hash", yaml: strings.Replace(validYAML, `adminPasswordHash: "$2a$10$abcdefghijklmnopqrstuv"`, "", 1), want: "adminPasswordHash"},
		{name: "redis without addr", yaml: validYAML + "cacheBackend: redis\n", want: "redisAddr"},
		{name: "unknown media", yaml: validYAML + "mediaBackend: s3\n", want: "mediaBackend"},
		{name: "bad duration", yaml: validYAML + "remoteTimeout: soon\n", want: "remoteTimeout"},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			_, err := Load(writeConfig(t, tc.yaml))
			if err == nil || !strings.Contains(err.Error(), tc.want) {
				t.Fatalf("expected error mentioning %q, got %v", tc.want, err)
			}
		})
	}
}

func TestPathHonoursEnv(t *testing.T) {
	t.Setenv("PORTFOLIO_CONFIG", "/etc/portfolio.yaml")
	if got := Path(); got != "/etc/portfolio.yaml" {
		t.Fatalf("unexpected path %q", got)
	}
}
