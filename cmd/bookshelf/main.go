package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/redis/go-redis/v9"

	"bookshelf/internal/config"
	"bookshelf/internal/database"
	"bookshelf/internal/handler"
	"bookshelf/internal/notify"
	"bookshelf/internal/service"
	"bookshelf/internal/store"
	"bookshelf/internal/store/memstore"
	"bookshelf/internal/store/mongostore"
	"bookshelf/internal/store/pgstore"
	"bookshelf/internal/token"
	"bookshelf/internal/validate"
	"bookshelf/internal/worker"
)

const memoryQueueSize = 256

func main() {
	if err := run(); err != nil {
		slog.Error("fatal", "error", err)
		os.Exit(1)
	}
}

func run() error {
	_ = godotenv.Load()

	cfg, err := config.Load(os.Args[1:])
	if err != nil {
		return err
	}
	setupLogger(cfg)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	st, err := openStore(ctx, cfg)
	if err != nil {
		return err
	}
	defer func() {
		closeCtx, closeCancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer closeCancel()
		if err := st.Close(closeCtx); err != nil {
			slog.Error("failed to close store", "error", err)
		}
	}()

	queue, closeQueue, err := openQueue(cfg)
	if err != nil {
		return err
	}
	defer closeQueue()

	templates, err := notify.NewTemplates()
	if err != nil {
		return fmt.Errorf("failed to compile templates: %w", err)
	}
	dispatcher := notify.NewDispatcher(queue, templates)

	var sender notify.Sender = notify.LogSender{}
	if cfg.SMTPHost != "" {
		sender = notify.NewSMTPSender(cfg.SMTPHost, cfg.SMTPPort, cfg.SenderMail, cfg.SenderPassword, cfg.SenderMail)
	} else {
		slog.Warn("SMTP_HOST not set, notifications are only logged")
	}

	// Services
	v := validate.New()
	svc := handler.Services{
		Auth:   service.NewAuthService(st, token.NewCodec(cfg.JWTSecret, cfg.TokenTTL), v, dispatcher),
		Users:  service.NewUserService(st),
		Books:  service.NewBookService(st, v),
		Orders: service.NewOrderService(st, st, st, dispatcher, v, cfg.LoanPeriod()),
	}

	// Workers
	notificationWorker := worker.NewNotificationWorker(queue, sender)
	overdueWorker := worker.NewOverdueWorker(svc.Orders, cfg.OverdueInterval)
	go notificationWorker.Start(ctx)
	go overdueWorker.Start(ctx)

	srv := &http.Server{
		Addr: cfg.RunAddress,
		Handler: handler.NewRouter(svc, handler.RouterOptions{
			Production: cfg.IsProduction(),
			LoginRPS:   cfg.LoginRPS,
			LoginBurst: cfg.LoginBurst,
		}),
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
	}

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	slog.Info("starting server", "addr", cfg.RunAddress, "env", cfg.Env)

	serveErr := make(chan error, 1)
	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
		}
	}()

	select {
	case <-quit:
	case err := <-serveErr:
		return fmt.Errorf("server failed: %w", err)
	}
	slog.Info("shutting down...")

	cancel() // stop worker
	ctxShut, cancelShut := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancelShut()

	if err := srv.Shutdown(ctxShut); err != nil {
		slog.Error("server shutdown failed", "error", err)
	}

	slog.Info("server stopped")
	return nil
}

func setupLogger(cfg *config.Config) {
	var level slog.Level
	if err := level.UnmarshalText([]byte(cfg.LogLevel)); err != nil {
		level = slog.LevelInfo
	}
	opts := &slog.HandlerOptions{Level: level}

	var h slog.Handler = slog.NewTextHandler(os.Stdout, opts)
	if cfg.IsProduction() {
		h = slog.NewJSONHandler(os.Stdout, opts)
	}
	slog.SetDefault(slog.New(h))
}

func openStore(ctx context.Context, cfg *config.Config) (store.Store, error) {
	switch {
	case strings.HasPrefix(cfg.DatabaseURI, "memory://"):
		slog.Warn("using in-memory store, data is lost on restart")
		return memstore.New(), nil

	case database.IsMongoURI(cfg.DatabaseURI):
		connectCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
		defer cancel()
		db, err := database.NewMongo(connectCtx, cfg.DatabaseURI, cfg.MongoDatabase)
		if err != nil {
			return nil, err
		}
		st := mongostore.New(db)
		if err := st.EnsureIndexes(connectCtx); err != nil {
			_ = st.Close(ctx)
			return nil, fmt.Errorf("failed to ensure indexes: %w", err)
		}
		return st, nil

	default:
		db, err := database.NewDB(cfg.DatabaseURI)
		if err != nil {
			return nil, err
		}
		if err := database.InitSchema(db); err != nil {
			database.CloseDB(ctx, db)
			return nil, fmt.Errorf("failed to init DB schema: %w", err)
		}
		return pgstore.New(db), nil
	}
}

func openQueue(cfg *config.Config) (notify.Queue, func(), error) {
	if cfg.RedisURL == "" {
		return notify.NewMemoryQueue(memoryQueueSize), func() {}, nil
	}

	opts, err := redis.ParseURL(cfg.RedisURL)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to parse redis url: %w", err)
	}
	client := redis.NewClient(opts)
	closeClient := func() {
		if err := client.Close(); err != nil {
			slog.Error("failed to close redis", "error", err)
		}
	}
	return notify.NewRedisQueue(client, cfg.NotifyQueueKey), closeClient, nil
}
