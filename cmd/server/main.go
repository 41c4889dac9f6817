package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"beacon-guardian/internal/config"
	"beacon-guardian/internal/db"
	"beacon-guardian/internal/gatewaymqtt"
	httpapi "beacon-guardian/internal/http"
	"beacon-guardian/internal/logging"
	"beacon-guardian/internal/migrations"
	"beacon-guardian/internal/services"
	"beacon-guardian/internal/store"

	"github.com/joho/godotenv"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// backend is everything the services need from a storage driver.
type backend interface {
	services.TenantStore
	services.ElderStore
	services.GatewayStore
	services.DeviceStore
	services.SignalLogStore
	services.AlertStore
	Ping(ctx context.Context) error
}

func main() {
	_ = godotenv.Load()
	cfg := config.Load()

	logger, cleanupLogs, err := logging.New(logging.Options{
		Level:         cfg.LogLevel,
		Format:        cfg.LogFormat,
		ServiceName:   "beacon-guardian",
		Dir:           cfg.LogDir,
		RetentionDays: cfg.LogRetentionDays,
	})
	if err != nil {
		log.Fatalf("logger: %v", err)
	}
	defer cleanupLogs()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGTERM, syscall.SIGINT)
	defer stop()

	storage, closeStorage, err := openBackend(ctx, cfg, logger)
	if err != nil {
		logger.Fatal("Storage setup failed", zap.String("driver", cfg.StorageDriver), zap.Error(err))
	}
	defer closeStorage()

	var tenants services.TenantStore = storage
	if cfg.Redis.Addr != "" {
		client := store.NewRedisClient(cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB)
		defer client.Close()
		if err := client.Ping(ctx).Err(); err != nil {
			logger.Warn("Redis unreachable, tenant cache will fall back to storage", zap.String("addr", cfg.Redis.Addr), zap.Error(err))
		}
		tenants = store.NewTenantCache(storage, client, time.Duration(cfg.TenantCacheSeconds)*time.Second, logger.Named("tenant-cache"))
	}

	location, err := time.LoadLocation(cfg.TimeZone)
	if err != nil {
		logger.Warn("Unknown time zone, using UTC", zap.String("timezone", cfg.TimeZone), zap.Error(err))
		location = time.UTC
	}
	messages, err := services.NewMessages(cfg.Locale, location)
	if err != nil {
		logger.Fatal("Message catalog setup failed", zap.Error(err))
	}

	hub := services.NewAlertHub()
	sender := services.NewLineSender(cfg.LineAPIBaseURL, time.Duration(cfg.NotifyTimeoutSeconds)*time.Second, logger.Named("line"))
	dispatcher := services.NewDispatcher(tenants, storage, storage, sender, messages, cfg.LiffBaseURL, logger.Named("dispatcher"))
	alerts := services.NewAlertService(storage, hub, logger.Named("alerts"))
	ingest := &services.IngestService{
		Elders:   storage,
		Gateways: storage,
		Devices:  storage,
		Logs:     storage,
		Alerts:   alerts,
		Notifier: dispatcher,
		Messages: messages,
		Now:      time.Now,
		Logger:   logger.Named("ingest"),
	}
	sweeper := &services.Sweeper{
		Tenants:  tenants,
		Elders:   storage,
		Alerts:   alerts,
		Notifier: dispatcher,
		Messages: messages,
		Now:      time.Now,
		Logger:   logger.Named("sweep"),
	}

	server := &httpapi.Server{
		Config:     cfg,
		Ingest:     ingest,
		Dispatcher: dispatcher,
		Alerts:     alerts,
		Hub:        hub,
		Health:     services.HealthProbe{Storage: cfg.StorageDriver, Ping: storage.Ping, DiskPath: cfg.LogDir},
		Tokens:     services.TokenService{Secret: []byte(cfg.JWTSecret), Issuer: cfg.JWTIssuer},
		Logger:     logger.Named("http"),
	}
	httpServer := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           server.Router(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	group, groupCtx := errgroup.WithContext(ctx)
	group.Go(func() error {
		hub.Run(groupCtx)
		return nil
	})
	group.Go(func() error {
		sweepLoop(groupCtx, sweeper, time.Duration(cfg.SweepIntervalMinutes)*time.Minute, logger)
		return nil
	})
	if cfg.MQTT.Broker != "" {
		subscriber := gatewaymqtt.NewSubscriber(cfg.MQTT, ingest, logger.Named("mqtt"))
		group.Go(func() error {
			// The HTTP endpoint keeps serving gateways when the broker is unreachable.
			if err := subscriber.Run(groupCtx); err != nil {
				logger.Error("MQTT subscriber stopped", zap.String("broker", cfg.MQTT.Broker), zap.Error(err))
			}
			return nil
		})
	}
	group.Go(func() error {
		logger.Info("Listening", zap.String("addr", httpServer.Addr), zap.String("storage", cfg.StorageDriver))
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("http server: %w", err)
		}
		return nil
	})
	group.Go(func() error {
		<-groupCtx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return httpServer.Shutdown(shutdownCtx)
	})

	if err := group.Wait(); err != nil {
		logger.Error("Shutdown with error", zap.Error(err))
		return
	}
	logger.Info("Shutdown complete")
}

func openBackend(ctx context.Context, cfg config.Config, logger *zap.Logger) (backend, func(), error) {
	switch cfg.StorageDriver {
	case config.StorageMemory:
		mem := store.NewMemory()
		if cfg.SeedFile != "" {
			if err := mem.LoadSeed(cfg.SeedFile); err != nil {
				return nil, nil, fmt.Errorf("seed %s: %w", cfg.SeedFile, err)
			}
			logger.Info("Loaded seed file", zap.String("path", cfg.SeedFile))
		}
		return mem, func() {}, nil
	case config.StoragePostgres:
		database, err := db.Open(ctx, cfg.DatabaseURL)
		if err != nil {
			return nil, nil, err
		}
		if err := migrations.Apply(database); err != nil {
			_ = database.Close()
			return nil, nil, fmt.Errorf("migrations: %w", err)
		}
		return store.NewPostgres(database), func() { _ = database.Close() }, nil
	default:
		return nil, nil, fmt.Errorf("unknown storage driver %q", cfg.StorageDriver)
	}
}

// sweepLoop runs the inactivity sweep every interval. The first run happens one interval after start.
func sweepLoop(ctx context.Context, sweeper *services.Sweeper, interval time.Duration, logger *zap.Logger) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			if _, err := sweeper.Run(ctx); err != nil && ctx.Err() == nil {
				logger.Error("Inactivity sweep failed", zap.Error(err))
			}
		case <-ctx.Done():
			return
		}
	}
}
