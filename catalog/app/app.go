package app

import (
	"context"
	"fmt"
	"io"
	"net"
	"os"
	"os/signal"
	"syscall"
	"time"

	goredis "github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/Astemirdum/library-catalog/catalog/config"
	"github.com/Astemirdum/library-catalog/catalog/internal/feed"
	"github.com/Astemirdum/library-catalog/catalog/internal/handler"
	"github.com/Astemirdum/library-catalog/catalog/internal/model"
	"github.com/Astemirdum/library-catalog/catalog/internal/repository"
	"github.com/Astemirdum/library-catalog/catalog/internal/server"
	"github.com/Astemirdum/library-catalog/catalog/internal/service"
	"github.com/Astemirdum/library-catalog/catalog/migrations"
	"github.com/Astemirdum/library-catalog/pkg/kafka"
	"github.com/Astemirdum/library-catalog/pkg/logger"
	"github.com/Astemirdum/library-catalog/pkg/postgres"
	"github.com/Astemirdum/library-catalog/pkg/redis"
)

func Run(cfg *config.Config) error {
	log := logger.NewLogger(cfg.Log, "catalog")
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	var (
		repo    repository.Repository
		closers []func()
	)
	switch cfg.Store {
	case config.DriverMemory:
		repo = repository.NewMemoryRepository(log)
	case config.DriverPostgres:
		db, err := postgres.NewPostgresDB(ctx, &cfg.Database, migrations.MigrationFiles)
		if err != nil {
			return fmt.Errorf("db init %v", err)
		}
		closers = append(closers, db.Close)
		pgRepo, err := repository.NewRepository(db, log)
		if err != nil {
			return fmt.Errorf("repo %v", err)
		}
		repo = pgRepo
	default:
		return fmt.Errorf("unknown store driver %q", cfg.Store)
	}
	defer func() {
		for i := len(closers) - 1; i >= 0; i-- {
			closers[i]()
		}
	}()

	var svc *service.Service
	hub := feed.NewHub(log, map[model.Collection]feed.Loader{
		model.CollectionBooks: func(ctx context.Context) (any, error) {
			books, err := svc.ListBooks(ctx, model.BookFilter{})
			return books.Items, err
		},
		model.CollectionLoans: func(ctx context.Context) (any, error) {
			return svc.ListLoans(ctx)
		},
	})

	opts := []service.Option{service.WithNotifier(hub)}

	if cfg.Redis.Enabled() {
		rdb, err := redis.NewClient(ctx, cfg.Redis)
		if err != nil {
			return fmt.Errorf("redis.NewClient %v", err)
		}
		closers = append(closers, func() { closeRedis(rdb, log) })
		opts[0] = service.WithNotifier(feed.NewRedisNotifier(rdb, log))
		go feed.Listen(ctx, rdb, hub, log)
	}

	if cfg.Kafka.Enabled() {
		producer, err := kafka.NewAsyncProducer(cfg.Kafka)
		if err != nil {
			return fmt.Errorf("kafka.NewAsyncProducer %v", err)
		}
		topic := cfg.Kafka.Topic
		if topic == "" {
			topic = kafka.CatalogTopic
		}
		events := service.NewEventLog(producer, topic, log)
		closers = append(closers, func() { closeEvents(events, log) })
		opts = append(opts, service.WithEventLog(events))
	}

	svc = service.NewService(repo, log, opts...)

	h := handler.New(svc, hub, log)
	srv := server.NewServer(cfg.Server, h.NewRouter())
	srv.RegisterOnShutdown(h.Shutdown)
	log.Info("http server start ON: ",
		zap.String("addr",
			net.JoinHostPort(cfg.Server.Host, cfg.Server.Port)),
		zap.String("store", string(cfg.Store)))
	go func() {
		if err := srv.Run(); err != nil {
			log.Error("server run", zap.Error(err))
		}
	}()

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, os.Interrupt, syscall.SIGTERM, syscall.SIGINT)
	termSig := <-sig

	log.Debug("Graceful shutdown", zap.Any("signal", termSig))

	closeCtx, closeCancel := context.WithTimeout(context.Background(), time.Second*5)
	defer closeCancel()

	if err := srv.Stop(closeCtx); err != nil {
		log.Error("srv.Stop", zap.Error(err))
	}
	cancel()
	log.Info("Graceful shutdown finished")
	return nil
}

func closeRedis(rdb *goredis.Client, log *zap.Logger) {
	if err := rdb.Close(); err != nil {
		log.Error("redis close", zap.Error(err))
	}
}

func closeEvents(events io.Closer, log *zap.Logger) {
	if err := events.Close(); err != nil {
		log.Error("kafka producer close", zap.Error(err))
	}
}
