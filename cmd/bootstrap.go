package cmd

import (
	"context"
	"errors"
	"fmt"

	"file-storage/core/config"
	"file-storage/core/database"
	"file-storage/core/logger"
	"file-storage/core/storage"
	"file-storage/feature/objects"
	"file-storage/feature/profiles"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"go.uber.org/zap"
)

// services bundles the components shared by every command.
type services struct {
	cfg      *config.Config
	logger   *zap.Logger
	metrics  *prometheus.Registry
	store    *profiles.Store
	resolver *profiles.Resolver
	builder  *storage.Builder
	objects  *objects.Service
}

func bootstrap(ctx context.Context) (*services, error) {
	cfg, err := config.LoadConfig(".")
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	logg, err := logger.New(&cfg.Log)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize logger: %w", err)
	}

	// Profiles are optional; without a database only the default storage config is served
	var store *profiles.Store
	if db, err := database.Connect(cfg.Database); err != nil {
		if !errors.Is(err, database.ErrDisabled) {
			logg.Warn("Optional database connection failed", zap.Error(err))
		}
	} else {
		store = profiles.NewStore(db)
		if err := store.Migrate(ctx); err != nil {
			logg.Warn("Profile table unusable, continuing without profiles", zap.Error(err))
			store = nil
		} else {
			logg.Info("Connected to profile database", zap.String("driver", cfg.Database.Driver))
		}
	}

	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	builder := storage.NewBuilder(storage.NewRegistry(), logg, storage.WithMetrics(storage.NewMetrics(reg)))
	resolver := profiles.NewResolver(store, cfg.Storage, cfg.Server.AllowDynamicBuckets)

	return &services{
		cfg:      cfg,
		logger:   logg,
		metrics:  reg,
		store:    store,
		resolver: resolver,
		builder:  builder,
		objects:  objects.NewService(resolver, builder, logg),
	}, nil
}

// close releases every cached client and flushes the logger.
func (r *services) close() {
	r.builder.Registry().Clear()
	_ = r.logger.Sync()
}
