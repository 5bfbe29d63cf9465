package main

import (
	"context"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/gfi/datareview/internal/auth"
	"github.com/gfi/datareview/internal/config"
	"github.com/gfi/datareview/internal/intake"
	"github.com/gfi/datareview/internal/logger"
	"github.com/gfi/datareview/internal/review"
	"github.com/gfi/datareview/internal/server"
	"github.com/gfi/datareview/internal/storage"
	"github.com/joho/godotenv"
	"go.uber.org/zap"
)

func main() {
	_ = godotenv.Load()

	zapLog, err := logger.Init()
	if err != nil {
		log.Fatalf("init logger: %v", err)
	}
	defer zapLog.Sync()

	cfg, err := config.Load()
	if err != nil {
		zapLog.Fatal("load config", zap.Error(err))
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	dbPool, err := storage.NewPostgresPool(ctx, cfg.Postgres)
	if err != nil {
		zapLog.Fatal("connect postgres", zap.Error(err))
	}
	defer dbPool.Close()

	if err := storage.EnsureSchema(ctx, dbPool); err != nil {
		zapLog.Fatal("ensure schema", zap.Error(err))
	}

	objectStore, err := storage.NewBlobStore(ctx, cfg)
	if err != nil {
		zapLog.Fatal("connect object store", zap.Error(err))
	}

	authRepo := auth.NewRepository(dbPool)
	authService := auth.NewService(authRepo, cfg.Auth)

	intakeService := intake.NewService(objectStore, cfg.Blob, zapLog)
	reviewService := review.NewService(objectStore, review.NewLogRecorder(zapLog), zapLog)

	router := server.NewRouter(server.Dependencies{
		Config:        cfg,
		DB:            dbPool,
		ObjectStore:   objectStore,
		AuthService:   authService,
		IntakeService: intakeService,
		ReviewService: reviewService,
	})

	httpServer := &http.Server{
		Addr:         cfg.Server.Address(),
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	go func() {
		zapLog.Info("data review API listening",
			zap.String("addr", cfg.Server.Address()),
			zap.String("backend", cfg.Blob.Backend),
			zap.String("bucket", cfg.Blob.Bucket))
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			zapLog.Fatal("http server", zap.Error(err))
		}
	}()

	<-ctx.Done()
	stop()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	zapLog.Info("shutting down gracefully")
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		zapLog.Error("shutdown", zap.Error(err))
	}
}
