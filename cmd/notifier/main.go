package main

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"

	"github.com/example/retail-pos/internal/config"
	"github.com/example/retail-pos/internal/domain/money"
	"github.com/example/retail-pos/internal/email"
	"github.com/example/retail-pos/internal/infrastructure/kafka"
	"github.com/example/retail-pos/internal/infrastructure/store"
	"github.com/example/retail-pos/internal/logging"
	"github.com/example/retail-pos/internal/notification"
	"github.com/example/retail-pos/internal/query"
	"github.com/sirupsen/logrus"
)

// consumerGroup is dedicated so notifications never compete with projection.
const consumerGroup = "email-notifier"

var log = logging.New("notifier")

func main() {
	cfg := config.Load()
	logging.Setup(cfg.LogLevel, cfg.LogFormat)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg); err != nil {
		log.WithError(err).Error("notifier stopped")
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg config.Config) error {
	if cfg.DatabaseURL == "" || len(cfg.KafkaBrokers) == 0 {
		return errors.New("the notifier needs DATABASE_URL and KAFKA_BROKERS")
	}
	log.WithFields(logrus.Fields{
		"brokers":     cfg.KafkaBrokers,
		"topic":       cfg.KafkaTopic,
		"smtp":        cfg.SMTPHost + ":" + cfg.SMTPPort,
		"store_email": cfg.StoreEmail,
	}).Info("starting notifier")

	// Product and user lookups read the models the projector maintains.
	pool, err := store.ConnectPool(ctx, cfg.DatabaseURL)
	if err != nil {
		return err
	}
	defer pool.Close()
	queries := query.NewHandler(store.NewPostgresReadStore(pool))

	mailer := email.NewService(cfg.SMTPHost, cfg.SMTPPort, cfg.SMTPFrom, money.ParseCurrency(cfg.Currency))
	handler := notification.NewHandler(mailer, queries, cfg.StoreEmail)

	consumer := kafka.NewConsumer(cfg.KafkaBrokers, cfg.KafkaTopic, consumerGroup)
	defer consumer.Close()

	log.Info("consuming events")
	if err := consumer.Consume(ctx, handler.HandleEvent); err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	log.Info("shutting down")
	return nil
}
