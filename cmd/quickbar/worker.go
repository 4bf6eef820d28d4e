package main

import (
	"quickbar/config"
	"quickbar/internal/service"
	"quickbar/internal/storage"

	"github.com/spf13/cobra"
)

func NewStatsWorkerCommand(opts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "stats-worker",
		Short: "Aggregate order events into per-venue stats",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, log := opts.Config, opts.Log

			rdb := config.MustInitRedis(cfg.Redis, log)
			defer rdb.Close()

			reader := config.NewKafkaReader(cfg.Kafka)
			defer reader.Close()

			log.WithField("topic", cfg.Kafka.Topic).Info("starting stats worker")
			service.NewStatsConsumer(reader, storage.NewRedisStats(rdb), log).Start(cmd.Context())
			return nil
		},
	}
}
