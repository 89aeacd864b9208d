package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/redis/go-redis/v9"
	"github.com/robfig/cron/v3"

	"dogbot/config"
	"dogbot/pkg/bot"
	"dogbot/pkg/broadcast"
	"dogbot/pkg/logger"
	"dogbot/pkg/metrics"
	"dogbot/pkg/ops"
	"dogbot/pkg/session"
	"dogbot/service"
	"dogbot/storage"
	"dogbot/storage/postgres"
	"dogbot/storage/sqlite"
)

func main() {
	// 1. Config and logger
	cfg := config.Load()
	log := logger.New(cfg.ServiceName, cfg.LoggerLevel)

	ctx, stop := context.WithCancel(context.Background())
	defer stop()

	// 2. Storage
	stg, err := openStorage(ctx, cfg, log)
	if err != nil {
		log.Error("Failed to open storage", logger.String("driver", cfg.DBDriver), logger.Error(err))
		os.Exit(1)
	}
	defer stg.Close()

	// 3. Metrics
	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	m := metrics.New(reg)

	// 4. Sessions
	sched := cron.New()
	sessions, err := openSessions(ctx, cfg, sched, m, log)
	if err != nil {
		log.Error("Failed to open session store", logger.String("backend", cfg.SessionBackend), logger.Error(err))
		os.Exit(1)
	}

	// 5. Telegram, services and router
	api, err := bot.NewAPI(cfg.TelegramBotToken, log)
	if err != nil {
		log.Error("Failed to initialize telegram client", logger.Error(err))
		os.Exit(1)
	}
	msg := bot.NewMessenger(api)
	loc := cfg.Location()

	dispatcher := broadcast.New(msg, log,
		broadcast.WithBatch(cfg.BroadcastBatch),
		broadcast.WithPause(cfg.BroadcastPause),
		broadcast.WithMetrics(m),
	)
	svc := service.New(stg, service.Deps{
		Messenger:        msg,
		Dispatcher:       dispatcher,
		Metrics:          m,
		AdminIDs:         cfg.AdminIDs,
		DispatcherChatID: cfg.DispatcherChatID,
		Location:         loc,
	}, log)

	router := bot.NewRouter(svc, sessions, msg, log,
		bot.WithLocation(loc),
		bot.WithMetrics(m),
	)
	b := bot.New(api, router, log)

	// 6. Background jobs
	sched.Start()
	defer sched.Stop()

	go func() {
		addr := fmt.Sprintf(":%d", cfg.AppPort)
		if err := ops.Serve(ctx, addr, ops.NewRouter(stg, reg, log), log); err != nil {
			log.Error("ops server stopped", logger.Error(err))
		}
	}()

	go b.Start()

	log.Info("🚀 Dog walking bot is running",
		logger.String("db", cfg.DBDriver),
		logger.String("sessions", cfg.SessionBackend),
		logger.Int("admins", len(cfg.AdminIDs)),
	)

	// 7. Graceful Shutdown listener
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM, syscall.SIGINT)
	<-quit

	log.Info("Stopping bot and shutting down...")
	b.Stop()
	stop()
}

func openStorage(ctx context.Context, cfg config.Config, log logger.ILogger) (storage.IStorage, error) {
	switch cfg.DBDriver {
	case config.DriverPostgres:
		pg, err := postgres.New(ctx, cfg, log)
		if err != nil {
			return nil, err
		}
		return pg, nil
	case config.DriverSQLite:
		return sqlite.New(ctx, cfg.SQLitePath, log)
	}
	return nil, fmt.Errorf("unknown DB_DRIVER %q", cfg.DBDriver)
}

func openSessions(ctx context.Context, cfg config.Config, sched *cron.Cron, m *metrics.Metrics, log logger.ILogger) (session.Store, error) {
	switch cfg.SessionBackend {
	case config.SessionMemory:
		mem := session.NewMemory(cfg.SessionTTL)
		_, err := mem.Schedule(sched, "@every 10m", func(n int) {
			m.SessionsSwept(n)
			if n > 0 {
				log.Debug("expired sessions swept", logger.Int("count", n))
			}
		})
		if err != nil {
			return nil, err
		}
		return mem, nil
	case config.SessionRedis:
		client := redis.NewClient(&redis.Options{
			Addr:     cfg.RedisHost + ":" + cfg.RedisPort,
			Password: cfg.RedisPassword,
			DB:       cfg.RedisDB,
		})
		if err := client.Ping(ctx).Err(); err != nil {
			return nil, fmt.Errorf("redis ping: %w", err)
		}
		return session.NewRedis(client, cfg.SessionTTL), nil
	}
	return nil, fmt.Errorf("unknown SESSION_BACKEND %q", cfg.SessionBackend)
}
