package app

import (
	"darkwave/pkg/storage"
	"darkwave/services/portfolio/internal/config"
)

// ConfigFromFile maps the loaded file configuration onto Config.
func ConfigFromFile(fc config.FileConfig) (Config, error) {
	durations, err := fc.Durations()
	if err != nil {
		return Config{}, err
	}
	return Config{
		DatabaseURL:   fc.DatabaseURL,
		CacheBackend:  fc.CacheBackend,
		CacheDir:      fc.CacheDir,
		RedisAddr:     fc.RedisAddr,
		RedisPassword: fc.RedisPassword,
		MediaBackend:  fc.MediaBackend,
		Minio: storage.MinioConfig{
			Endpoint:      fc.Minio.Endpoint,
			AccessKey:     fc.Minio.AccessKey,
			SecretKey:     fc.Minio.SecretKey,
			Bucket:        fc.Minio.Bucket,
			UseSSL:        fc.Minio.UseSSL,
			PublicBaseURL: fc.Minio.PublicBaseURL,
		},
		MediaDir:                  fc.MediaDir,
		MediaBaseURL:              fc.MediaBaseURL,
		MediaBucket:               fc.MediaBucket,
		PlaceholderImages:         fc.PlaceholderImages,
		PlaceholderFile:           fc.PlaceholderFile,
		UploadConcurrency:         fc.UploadConcurrency,
		RemoteTimeout:             durations.RemoteTimeout,
		ConnectivityRecheck:       durations.ConnectivityRecheck,
		AdminUsername:             fc.AdminUsername,
		AdminPasswordHash:         fc.AdminPasswordHash,
		JWTSecret:                 fc.JWTSecret,
		SessionTTL:                durations.SessionTTL,
		AMQPURL:                   fc.AMQPURL,
		AMQPExchange:              fc.AMQPExchange,
		EventsStream:              fc.EventsStream,
		LoginRateLimitPerMinute:   fc.LoginRateLimitPerMinute,
		ContactRateLimitPerMinute: fc.ContactRateLimitPerMinute,
	}, nil
}
