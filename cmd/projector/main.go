package main

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"

	"github.com/example/retail-pos/internal/config"
	"github.com/example/retail-pos/internal/infrastructure/kafka"
	"github.com/example/retail-pos/internal/infrastructure/store"
	"github.com/example/retail-pos/internal/logging"
	"github.com/example/retail-pos/internal/projection"
)

var log = logging.New("projector")

func main() {
	cfg := config.Load()
	logging.Setup(cfg.LogLevel, cfg.LogFormat)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg); err != nil {
		log.WithError(err).Error("projector stopped")
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg config.Config) error {
	if cfg.DatabaseURL == "" || len(cfg.KafkaBrokers) == 0 {
		return errors.New("the projector needs DATABASE_URL and KAFKA_BROKERS")
	}
	log.WithField("brokers", cfg.KafkaBrokers).
		WithField("topic", cfg.KafkaTopic).
		WithField("group", cfg.KafkaGroup).
		Info("starting projector")

	db, err := store.ConnectPostgres(cfg.DatabaseURL)
	if err != nil {
		return err
	}
	defer db.Close()
	if err := store.Migrate(ctx, db); err != nil {
		return err
	}

	pool, err := store.ConnectPool(ctx, cfg.DatabaseURL)
	if err != nil {
		return err
	}
	defer pool.Close()

	projector := projection.NewProjector(store.NewPostgresReadStore(pool))

	// Rebuild from the event log first so a fresh read database catches up
	// before live events arrive.
	if cfg.ReplayOnStart {
		events := store.NewPostgresEventStore(db, nil).GetAllEvents()
		if err := projector.Replay(ctx, events); err != nil {
			return err
		}
	}

	consumer := kafka.NewConsumer(cfg.KafkaBrokers, cfg.KafkaTopic, cfg.KafkaGroup)
	defer consumer.Close()

	log.Info("consuming events")
	if err := consumer.Consume(ctx, projector.HandleEvent); err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	log.Info("shutting down")
	return nil
}
