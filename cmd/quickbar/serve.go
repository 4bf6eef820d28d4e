package main

import (
	"context"
	"errors"
	"time"

	"quickbar/config"
	httpapi "quickbar/internal/api/http"
	"quickbar/internal/auth"
	"quickbar/internal/docstore"
	"quickbar/internal/service"
	"quickbar/internal/storage"

	"github.com/spf13/cobra"
)

const sweepInterval = time.Minute

func NewServeCommand(opts *RootOptions) *cobra.Command {
	var migrateFirst bool

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the customer, tablet and admin screens",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(cmd.Context(), opts, migrateFirst)
		},
	}
	cmd.Flags().BoolVar(&migrateFirst, "migrate", false, "apply pending migrations before serving")

	return cmd
}

func runServe(ctx context.Context, opts *RootOptions, migrateFirst bool) error {
	cfg, log := opts.Config, opts.Log
	if cfg.Auth.JWTSecret == "" {
		return errors.New("JWT secret key not set (JWT_SECRET_KEY or auth.jwt_secret)")
	}

	db := config.MustInitPostgres(cfg.Database, log)
	defer db.Close()

	if migrateFirst {
		m, err := storage.NewMigrator(db, cfg.Database.Name)
		if err != nil {
			return err
		}
		if err := storage.MigrateUp(m, log); err != nil {
			return err
		}
	}

	rdb := config.MustInitRedis(cfg.Redis, log)
	defer rdb.Close()

	writer := config.NewKafkaWriter(cfg.Kafka)
	defer writer.Close()
	publisher := storage.NewKafkaPublisher(writer)

	store := docstore.NewPostgresStore(db, log)
	go func() {
		if err := store.Listen(ctx, cfg.Database.ConnString()); err != nil {
			log.WithError(err).Error("docstore change feed stopped")
		}
	}()

	sessions := storage.NewRedisSessionStorage(rdb, cfg.Session.TTL)
	customers := service.NewCustomerRegistry(store, func(deviceID string) service.SessionStorage {
		return sessions.ForDevice(deviceID)
	}, publisher, log, cfg.Session.Idle)
	staff := service.NewStaffRegistry(store, service.NewVenueGate(store, log), publisher, log, cfg.Session.Idle)
	go customers.Run(ctx, sweepInterval)
	go staff.Run(ctx, sweepInterval)

	gates := service.NewRoleGates(service.NewRetryingLookup(service.StoreRoleLookup{Store: store}, log), log)
	go sweepGates(ctx, gates, cfg.Session.Idle)

	authSvc := auth.NewService(
		auth.NewPostgresCredentials(db),
		auth.NewTokenIssuer(cfg.Auth.JWTSecret, cfg.Auth.TokenTTL),
		storage.NewRedisRevocations(rdb),
		log,
	)

	stats := storage.NewRedisStats(rdb)
	handler := httpapi.NewHandler(
		customers,
		staff,
		service.NewMenuService(store),
		service.NewVenueService(store, stats, log),
		service.DefaultQRGenerator{BaseURL: cfg.HTTP.PublicBaseURL},
		authSvc,
		gates,
		log,
	)
	handler.Stats = stats
	handler.SecureCookies = cfg.HTTP.SecureCookies

	log.WithField("addr", cfg.HTTP.Addr).Info("quickbar starting")
	return httpapi.StartServer(ctx, cfg.HTTP.Addr, httpapi.NewRouter(handler), log)
}

func sweepGates(ctx context.Context, gates *service.RoleGates, idle time.Duration) {
	ticker := time.NewTicker(sweepInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			gates.Sweep(idle)
		}
	}
}
