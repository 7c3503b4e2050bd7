package main

import (
	"context"
	"database/sql"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/example/retail-pos/internal/api"
	"github.com/example/retail-pos/internal/auth"
	"github.com/example/retail-pos/internal/command"
	"github.com/example/retail-pos/internal/config"
	"github.com/example/retail-pos/internal/domain/cart"
	"github.com/example/retail-pos/internal/domain/inventory"
	"github.com/example/retail-pos/internal/domain/lookup"
	"github.com/example/retail-pos/internal/domain/product"
	"github.com/example/retail-pos/internal/domain/sale"
	"github.com/example/retail-pos/internal/domain/supplier"
	"github.com/example/retail-pos/internal/domain/user"
	"github.com/example/retail-pos/internal/infrastructure/kafka"
	"github.com/example/retail-pos/internal/infrastructure/redisx"
	"github.com/example/retail-pos/internal/infrastructure/store"
	"github.com/example/retail-pos/internal/logging"
	"github.com/example/retail-pos/internal/projection"
	"github.com/example/retail-pos/internal/query"
)

var log = logging.New("api")

func main() {
	cfg := config.Load()
	logging.Setup(cfg.LogLevel, cfg.LogFormat)
	if err := cfg.Validate(); err != nil {
		log.WithError(err).Fatal("invalid configuration")
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg); err != nil {
		log.WithError(err).Error("api stopped")
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg config.Config) error {
	log.WithFields(map[string]any{
		"postgres": cfg.DatabaseURL != "",
		"kafka":    cfg.KafkaBrokers,
		"redis":    cfg.RedisAddr != "",
	}).Info("starting retail POS API")

	checks := map[string]api.HealthCheck{}

	// Read side
	var readStore store.ReadStoreInterface = store.NewReadStore()
	var db *sql.DB
	if cfg.DatabaseURL != "" {
		var err error
		db, err = store.ConnectPostgres(cfg.DatabaseURL)
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
		readStore = store.NewPostgresReadStore(pool)
		checks["postgres"] = db.PingContext
		log.Info("connected to PostgreSQL")
	}
	projector := projection.NewProjector(readStore)

	// Write side: events reach the read models through Kafka when it is configured,
	// otherwise they are projected as they are appended.
	var publisher store.Publisher = projection.NewSyncPublisher(projector)
	if len(cfg.KafkaBrokers) > 0 {
		producer := kafka.NewProducer(cfg.KafkaBrokers, cfg.KafkaTopic)
		defer producer.Close()
		publisher = producer
	}

	var eventStore store.EventStoreInterface
	if db != nil {
		pgStore := store.NewPostgresEventStore(db, publisher)
		eventStore = pgStore
		if cfg.ReplayOnStart {
			if err := projector.Replay(ctx, pgStore.GetAllEvents()); err != nil {
				return err
			}
		}
	} else {
		eventStore = store.NewEventStore(publisher)
	}

	// With Kafka and no shared read database the API keeps its own read models current.
	var wg sync.WaitGroup
	if len(cfg.KafkaBrokers) > 0 && db == nil {
		consumer := kafka.NewConsumer(cfg.KafkaBrokers, cfg.KafkaTopic, cfg.KafkaGroup+"-api")
		defer consumer.Close()
		wg.Add(1)
		go func() {
			defer wg.Done()
			if err := consumer.Consume(ctx, projector.HandleEvent); err != nil && ctx.Err() == nil {
				log.WithError(err).Error("projection consumer stopped")
			}
		}()
	}

	// Redis: checkout idempotency and the logout revocation list
	var idempotency api.IdempotencyStore
	var revoker api.TokenRevoker
	if cfg.RedisAddr != "" {
		rdb := redisx.New(cfg.RedisAddr)
		defer rdb.Close()
		if err := redisx.Ping(ctx, rdb); err != nil {
			return err
		}
		idempotency = redisx.NewIdempotency(rdb)
		revoker = redisx.NewRevoker(rdb)
		checks["redis"] = func(ctx context.Context) error { return redisx.Ping(ctx, rdb) }
		log.Info("connected to Redis")
	}

	queries := query.NewHandler(readStore)
	commands := command.NewHandler(command.Services{
		Categories:  lookup.NewService(lookup.Category, eventStore),
		Departments: lookup.NewService(lookup.Department, eventStore),
		Suppliers:   supplier.NewService(eventStore),
		Products:    product.NewService(eventStore),
		Inventory:   inventory.NewService(eventStore),
		Carts:       cart.NewService(eventStore),
		Sales:       sale.NewService(eventStore),
		Users:       user.NewService(eventStore),
	}, queries)

	jwtService := auth.NewJWTService(cfg.JWTSecret, cfg.AccessTTL, cfg.RefreshTTL)

	router := api.NewRouter(api.RouterConfig{
		Handlers:     api.NewHandlers(commands, queries, idempotency),
		AuthHandlers: api.NewAuthHandlers(commands, queries, jwtService, revoker),
		JWTService:   jwtService,
		Revoker:      revoker,
		HealthChecks: checks,
		ServiceName:  cfg.ServiceName,
	})

	server := &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		log.WithField("addr", cfg.HTTPAddr).Info("server started")
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	log.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	err := server.Shutdown(shutdownCtx)
	wg.Wait()
	return err
}
