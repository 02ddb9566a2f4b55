package main

import (
	"errors"
	"fmt"

	"darkwave/pkg/notify"

	"github.com/spf13/cobra"
)

var eventsCount int64

var eventsCmd = &cobra.Command{
	Use:   "events",
	Short: "Show recent events from the Redis event stream",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadAppConfig()
		if err != nil {
			return err
		}
		if cfg.RedisAddr == "" {
			return errors.New("redisAddr is not configured")
		}
		stream, err := notify.NewRedisStreamPublisher(cfg.RedisAddr, cfg.RedisPassword, cfg.EventsStream, 0)
		if err != nil {
			return err
		}
		defer stream.Close()
		events, err := stream.Recent(cmd.Context(), eventsCount)
		if err != nil {
			return err
		}
		out := cmd.OutOrStdout()
		for _, e := range events {
			fmt.Fprintf(out, "%s %s %s\n", labelStyle.Render(e.OccurredAt.Format("2006-01-02 15:04:05")), e.Type, e.ID)
		}
		return nil
	},
}

func init() {
	eventsCmd.Flags().Int64VarP(&eventsCount, "count", "n", 20, "number of events to show")
}
