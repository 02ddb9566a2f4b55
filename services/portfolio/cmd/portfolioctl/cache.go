package main

import (
	"fmt"
	"io"
	"sort"
	"strings"

	"darkwave/pkg/cache"
	"darkwave/pkg/domain"
	"darkwave/services/portfolio/internal/app"

	"github.com/spf13/cobra"
)

var cacheCmd = &cobra.Command{
	Use:   "cache",
	Short: "Inspect or clear the local entity cache",
}

var cacheDumpCmd = &cobra.Command{
	Use:   "dump <collection>",
	Short: "Print the cached JSON list for a collection",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		kind, err := resolveKind(args[0])
		if err != nil {
			return err
		}
		return withCache(func(backend cache.Backend) error {
			data, ok, err := backend.Load(cmd.Context(), kind.CacheKey)
			if err != nil {
				return fmt.Errorf("reading %s: %w", kind.CacheKey, err)
			}
			if !ok {
				fmt.Fprintf(cmd.ErrOrStderr(), "%s is not cached\n", kind.CacheKey)
				return nil
			}
			fmt.Fprintln(cmd.OutOrStdout(), string(data))
			return nil
		})
	},
}

var cacheResetCmd = &cobra.Command{
	Use:   "reset <collection>",
	Short: "Remove the cached list and pending ids for a collection",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		kind, err := resolveKind(args[0])
		if err != nil {
			return err
		}
		return withCache(func(backend cache.Backend) error {
			for _, key := range []string{kind.CacheKey, cache.PendingKey(kind.CacheKey)} {
				if err := backend.Delete(cmd.Context(), key); err != nil {
					return fmt.Errorf("deleting %s: %w", key, err)
				}
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s %s\n", okStyle.Render("cleared"), kind.CacheKey)
			return nil
		})
	},
}

func init() {
	cacheCmd.AddCommand(cacheDumpCmd, cacheResetCmd)
}

func resolveKind(name string) (domain.Kind, error) {
	if kind, ok := domain.KindByCollection(strings.TrimSpace(name)); ok {
		return kind, nil
	}
	names := make([]string, 0, len(domain.Kinds()))
	for _, kind := range domain.Kinds() {
		names = append(names, kind.Collection)
	}
	sort.Strings(names)
	return domain.Kind{}, fmt.Errorf("unknown collection %q (want one of %s)", name, strings.Join(names, ", "))
}

func withCache(fn func(cache.Backend) error) error {
	cfg, err := loadAppConfig()
	if err != nil {
		return err
	}
	backend, err := app.NewCacheBackend(cfg)
	if err != nil {
		return err
	}
	if closer, ok := backend.(io.Closer); ok {
		defer closer.Close()
	}
	return fn(backend)
}
