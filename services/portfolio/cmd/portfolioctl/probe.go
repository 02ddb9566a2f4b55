package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"darkwave/pkg/cache"
	"darkwave/pkg/storage"
	"darkwave/pkg/store"
	"darkwave/services/portfolio/internal/app"

	"github.com/spf13/cobra"
)

var probeTimeout time.Duration

var probeCmd = &cobra.Command{
	Use:   "probe",
	Short: "Check the database, cache, and media backends",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadAppConfig()
		if err != nil {
			return err
		}
		ctx, cancel := context.WithTimeout(cmd.Context(), probeTimeout)
		defer cancel()

		out := cmd.OutOrStdout()
		failed := false
		for _, check := range []struct {
			name     string
			run      func(context.Context, app.Config) (string, error)
			classify func(error) store.ErrorClass
		}{
			{"database", probeDatabase, store.Classify},
			{"cache", probeCache, store.Classify},
			{"media", probeMedia, storage.Classify},
		} {
			detail, err := check.run(ctx, cfg)
			if err != nil {
				failed = true
				class := check.classify(err)
				fmt.Fprintf(out, "%s %s (%s: %v)\n", labelStyle.Render(check.name), failStyle.Render("down"), class, err)
				continue
			}
			fmt.Fprintf(out, "%s %s %s\n", labelStyle.Render(check.name), okStyle.Render("ok"), detail)
		}
		if failed {
			return errors.New("one or more backends are unavailable")
		}
		return nil
	},
}

func init() {
	probeCmd.Flags().DurationVar(&probeTimeout, "timeout", 10*time.Second, "overall probe timeout")
}

func probeDatabase(ctx context.Context, cfg app.Config) (string, error) {
	if cfg.DatabaseURL == "" {
		return "(not configured, cache only)", nil
	}
	db, err := store.OpenGorm(ctx, cfg.DatabaseURL)
	if err != nil {
		return "", err
	}
	if sqlDB, err := db.DB(); err == nil {
		defer sqlDB.Close()
	}
	return "postgres", nil
}

func probeCache(ctx context.Context, cfg app.Config) (string, error) {
	backend, err := app.NewCacheBackend(cfg)
	if err != nil {
		return "", err
	}
	if closer, ok := backend.(io.Closer); ok {
		defer closer.Close()
	}
	if redisBackend, ok := backend.(*cache.RedisBackend); ok {
		if err := redisBackend.Ping(ctx); err != nil {
			return "", err
		}
	}
	if _, _, err := backend.Load(ctx, "probe"); err != nil {
		return "", err
	}
	return cfg.CacheBackend, nil
}

func probeMedia(ctx context.Context, cfg app.Config) (string, error) {
	var objects storage.ObjectStore
	switch cfg.MediaBackend {
	case "minio":
		minioStore, err := storage.NewMinioStore(cfg.Minio)
		if err != nil {
			return "", err
		}
		objects = minioStore
	default:
		bucket := cfg.MediaBucket
		if bucket == "" {
			bucket = "media"
		}
		fileStore, err := storage.NewFileStore(cfg.MediaDir, bucket, cfg.MediaBaseURL)
		if err != nil {
			return "", err
		}
		objects = fileStore
	}
	exists, err := objects.BucketExists(ctx)
	if err != nil {
		return "", err
	}
	if !exists {
		return fmt.Sprintf("%s (bucket not created yet)", cfg.MediaBackend), nil
	}
	return cfg.MediaBackend, nil
}
