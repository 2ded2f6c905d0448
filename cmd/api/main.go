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

	"github.com/abduss/contactbook/internal/auth"
	"github.com/abduss/contactbook/internal/config"
	"github.com/abduss/contactbook/internal/contact"
	"github.com/abduss/contactbook/internal/logger"
	"github.com/abduss/contactbook/internal/metrics"
	"github.com/abduss/contactbook/internal/server"
	"github.com/abduss/contactbook/internal/storage"
	"github.com/abduss/contactbook/internal/token"
	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"go.uber.org/zap"
)

func main() {
	// A missing .env is fine; the environment may already be populated.
	_ = godotenv.Load()

	zlog, err := logger.Init()
	if err != nil {
		log.Fatalf("init logger: %v", err)
	}
	defer func() { _ = zlog.Sync() }()

	if err := run(zlog); err != nil {
		zlog.Fatal("contactbook api stopped", zap.Error(err))
	}
}

func run(zlog *zap.Logger) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	dbPool, err := storage.NewPostgresPool(ctx, cfg.Postgres)
	if err != nil {
		return fmt.Errorf("connect postgres: %w", err)
	}
	defer dbPool.Close()

	if err := storage.Migrate(ctx, dbPool); err != nil {
		return fmt.Errorf("migrate: %w", err)
	}

	minioClient, err := storage.NewMinIOClient(cfg.MinIO)
	if err != nil {
		return fmt.Errorf("connect minio: %w", err)
	}
	if err := storage.EnsureBucket(ctx, minioClient, cfg.MinIO.Bucket, cfg.MinIO.Region); err != nil {
		return fmt.Errorf("ensure bucket: %w", err)
	}

	metrics.InitMetrics()

	credentials, err := auth.NewCredentialStore(auth.NewRepository(dbPool), auth.NewBcryptHasher(cfg.Auth.BcryptCost))
	if err != nil {
		return fmt.Errorf("credential store: %w", err)
	}
	authService := auth.NewService(credentials, token.NewManager(cfg.Auth), zlog)

	contactService := contact.NewService(
		contact.NewRepository(dbPool),
		contact.NewMinIOStore(minioClient),
		cfg.MinIO,
		zlog,
	)

	gin.SetMode(gin.ReleaseMode)
	router := server.NewRouter(server.Dependencies{
		Config:         cfg,
		DB:             dbPool,
		ObjectStore:    minioClient,
		Logger:         zlog,
		AuthService:    authService,
		ContactService: contactService,
	})

	httpServer := &http.Server{
		Addr:         cfg.Server.Address(),
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	serveErr := make(chan error, 1)
	go func() {
		zlog.Info("contactbook api listening", zap.String("addr", cfg.Server.Address()))
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
		}
		close(serveErr)
	}()

	select {
	case err := <-serveErr:
		if err != nil {
			return fmt.Errorf("http server: %w", err)
		}
	case <-ctx.Done():
	}
	stop()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	zlog.Info("shutting down gracefully")
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	return nil
}
