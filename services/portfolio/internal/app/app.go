package app

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"time"

	"darkwave/internal/connectivity"
	"darkwave/internal/ratelimit"
	"darkwave/pkg/auth"
	"darkwave/pkg/cache"
	"darkwave/pkg/domain"
	"darkwave/pkg/media"
	"darkwave/pkg/notify"
	"darkwave/pkg/resource"
	"darkwave/pkg/storage"
	"darkwave/pkg/store"
)

// Config holds runtime configuration for the portfolio core. The Store,
// Cache, Objects, Publisher, and Revoker fields override the settings that
// would otherwise build them.
type Config struct {
	DatabaseURL string
	Store       store.Store

	CacheBackend  string
	CacheDir      string
	RedisAddr     string
	RedisPassword string
	Cache         cache.Backend

	MediaBackend string
	Minio        storage.MinioConfig
	MediaDir     string
	MediaBaseURL string
	MediaBucket  string
	Objects      storage.ObjectStore

	PlaceholderImages []string
	PlaceholderFile   string
	UploadConcurrency int

	RemoteTimeout       time.Duration
	ConnectivityRecheck time.Duration

	AdminUsername     string
	AdminPasswordHash string
	JWTSecret         string
	SessionTTL        time.Duration
	Revoker           auth.TokenRevoker

	AMQPURL      string
	AMQPExchange string
	// EventsStream is the Redis stream used when AMQP is not configured.
	EventsStream string
	Publisher    notify.Publisher

	LoginRateLimitPerMinute   int
	ContactRateLimitPerMinute int

	Logger *slog.Logger
}

// App wires the resource services, uploads, auth, and notifications.
type App struct {
	Projects *resource.Service[domain.Project]
	Posts    *resource.Service[domain.BlogPost]
	Messages *resource.MessageService
	Uploads  *media.Uploader
	Admin    *auth.Admin

	LoginLimiter   ratelimit.Limiter
	ContactLimiter ratelimit.Limiter

	store     store.Store
	monitor   *connectivity.Monitor
	publisher notify.Publisher
	mediaRoot string
	seeders   []func(context.Context)
	closers   []io.Closer
	logger    *slog.Logger
}

// New constructs the application.
func New(cfg Config) (*App, error) {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	a := &App{logger: logger}
	ok := false
	defer func() {
		if !ok {
			_ = a.Close()
		}
	}()

	a.initStore(cfg)
	backend, err := a.cacheBackend(cfg)
	if err != nil {
		return nil, err
	}
	a.initResources(cfg, backend)
	if err := a.initMedia(cfg); err != nil {
		return nil, err
	}
	if err := a.initAuth(cfg); err != nil {
		return nil, err
	}
	if err := a.initLimiters(cfg); err != nil {
		return nil, err
	}
	if err := a.initPublisher(cfg); err != nil {
		return nil, err
	}
	ok = true
	return a, nil
}

func (a *App) initStore(cfg Config) {
	dataStore := cfg.Store
	if dataStore == nil {
		if cfg.DatabaseURL == "" {
			a.logger.Warn("databaseURL not set, using in-memory remote store")
			dataStore = store.NewMemoryStore()
		} else {
			dataStore = store.NewLazyGormStore(cfg.DatabaseURL)
		}
	}
	a.store = dataStore
	a.closers = append(a.closers, dataStore)
	a.monitor = connectivity.New(dataStore.Ping, connectivity.Options{
		Interval: cfg.ConnectivityRecheck,
		Timeout:  cfg.RemoteTimeout,
		Logger:   a.logger,
	})
}

func (a *App) cacheBackend(cfg Config) (cache.Backend, error) {
	if cfg.Cache != nil {
		return cfg.Cache, nil
	}
	backend, err := NewCacheBackend(cfg)
	if err != nil {
		return nil, err
	}
	if closer, ok := backend.(io.Closer); ok {
		a.closers = append(a.closers, closer)
	}
	return backend, nil
}

// NewCacheBackend builds the cache backend named by cfg.CacheBackend. The
// Redis backend must be closed by the caller.
func NewCacheBackend(cfg Config) (cache.Backend, error) {
	switch cfg.CacheBackend {
	case "redis":
		backend, err := cache.NewRedisBackend(cfg.RedisAddr, cfg.RedisPassword, "portfolio")
		if err != nil {
			return nil, fmt.Errorf("init redis cache: %w", err)
		}
		return backend, nil
	case "file":
		backend, err := cache.NewFileBackend(cfg.CacheDir)
		if err != nil {
			return nil, fmt.Errorf("init file cache: %w", err)
		}
		return backend, nil
	case "", "memory":
		return cache.NewMemoryBackend(), nil
	default:
		return nil, fmt.Errorf("unknown cache backend %q", cfg.CacheBackend)
	}
}

func (a *App) initResources(cfg Config, backend cache.Backend) {
	opts := resource.Options{
		Logger:  a.logger,
		Monitor: a.monitor,
		Timeout: cfg.RemoteTimeout,
	}
	projects := cache.NewCollection[domain.Project](backend, domain.KindProjects, a.logger)
	posts := cache.NewCollection[domain.BlogPost](backend, domain.KindBlogPosts, a.logger)
	messages := cache.NewCollection[domain.ContactMessage](backend, domain.KindMessages, a.logger)

	a.Projects = resource.New(resource.Projects(), a.store.Projects(), projects, opts)
	a.Posts = resource.New(resource.BlogPosts(), a.store.BlogPosts(), posts, opts)
	a.Messages = resource.NewMessageService(a.store.Messages(), messages, opts)
	a.seeders = []func(context.Context){projects.Init, posts.Init, messages.Init}
}

func (a *App) initMedia(cfg Config) error {
	objects := cfg.Objects
	if objects == nil {
		switch cfg.MediaBackend {
		case "minio":
			minioStore, err := storage.NewMinioStore(cfg.Minio)
			if err != nil {
				return fmt.Errorf("init minio store: %w", err)
			}
			objects = minioStore
		case "", "file":
			bucket := cfg.MediaBucket
			if bucket == "" {
				bucket = "media"
			}
			fileStore, err := storage.NewFileStore(cfg.MediaDir, bucket, cfg.MediaBaseURL)
			if err != nil {
				return fmt.Errorf("init file store: %w", err)
			}
			a.mediaRoot = fileStore.Root()
			objects = fileStore
		default:
			return fmt.Errorf("unknown media backend %q", cfg.MediaBackend)
		}
	}
	a.Uploads = media.New(objects, media.Options{
		ImagePlaceholders: cfg.PlaceholderImages,
		FilePlaceholder:   cfg.PlaceholderFile,
		Concurrency:       cfg.UploadConcurrency,
		Logger:            a.logger,
	})
	return nil
}

func (a *App) initAuth(cfg Config) error {
	revoker := cfg.Revoker
	if revoker == nil {
		if cfg.RedisAddr != "" {
			redisRevoker, err := auth.NewRedisTokenRevoker(cfg.RedisAddr, cfg.RedisPassword, "portfolio:revoked")
			if err != nil {
				return fmt.Errorf("init token revoker: %w", err)
			}
			a.closers = append(a.closers, redisRevoker)
			revoker = redisRevoker
		} else {
			revoker = auth.NewMemoryTokenRevoker()
		}
	}
	ttl := cfg.SessionTTL
	if ttl <= 0 {
		ttl = 12 * time.Hour
	}
	sessions, err := auth.NewSessions(cfg.JWTSecret, ttl, revoker, auth.SessionOptions{})
	if err != nil {
		return fmt.Errorf("init sessions: %w", err)
	}
	admin, err := auth.NewAdmin(cfg.AdminUsername, cfg.AdminPasswordHash, sessions)
	if err != nil {
		return fmt.Errorf("init admin: %w", err)
	}
	a.Admin = admin
	return nil
}

func (a *App) initLimiters(cfg Config) error {
	newLimiter := func(name string, limit int) (ratelimit.Limiter, error) {
		if limit <= 0 {
			return nil, nil
		}
		if cfg.RedisAddr == "" {
			return ratelimit.NewMemoryLimiter(limit, time.Minute)
		}
		limiter, err := ratelimit.NewRedisFixedWindowLimiter(cfg.RedisAddr, cfg.RedisPassword, "portfolio:ratelimit:"+name, limit, time.Minute)
		if err != nil {
			return nil, fmt.Errorf("init %s limiter: %w", name, err)
		}
		a.closers = append(a.closers, limiter)
		return limiter, nil
	}
	var err error
	if a.LoginLimiter, err = newLimiter("login", cfg.LoginRateLimitPerMinute); err != nil {
		return err
	}
	if a.ContactLimiter, err = newLimiter("contact", cfg.ContactRateLimitPerMinute); err != nil {
		return err
	}
	return nil
}

func (a *App) initPublisher(cfg Config) error {
	switch {
	case cfg.Publisher != nil:
		a.publisher = cfg.Publisher
	case cfg.AMQPURL != "":
		publisher, err := notify.NewAMQPPublisher(cfg.AMQPURL, cfg.AMQPExchange)
		if err != nil {
			return fmt.Errorf("init amqp publisher: %w", err)
		}
		a.publisher = publisher
	case cfg.RedisAddr != "":
		publisher, err := notify.NewRedisStreamPublisher(cfg.RedisAddr, cfg.RedisPassword, cfg.EventsStream, 0)
		if err != nil {
			return fmt.Errorf("init event stream: %w", err)
		}
		a.publisher = publisher
	default:
		a.publisher = notify.Nop{}
	}
	a.closers = append(a.closers, a.publisher)
	return nil
}

// Start seeds empty cache keys and keeps the connectivity state fresh until
// ctx is done.
func (a *App) Start(ctx context.Context) {
	a.InitCache(ctx)
	go a.monitor.Run(ctx)
}

// InitCache writes an empty list under every cache key that is absent.
func (a *App) InitCache(ctx context.Context) {
	for _, seed := range a.seeders {
		seed(ctx)
	}
}

// MediaRoot is the directory served under /media/, or "" when media lives
// in object storage.
func (a *App) MediaRoot() string {
	return a.mediaRoot
}

// Close releases every client the app opened.
func (a *App) Close() error {
	var errs []error
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i].Close(); err != nil {
			errs = append(errs, err)
		}
	}
	a.closers = nil
	return errors.Join(errs...)
}
