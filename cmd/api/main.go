// cmd/api/main.go
package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"networth-tracker/internal/auth"
	"networth-tracker/internal/cache"
	"networth-tracker/internal/catalog"
	"networth-tracker/internal/config"
	"networth-tracker/internal/handler"
	"networth-tracker/internal/logger"
	"networth-tracker/internal/middleware"
	"networth-tracker/internal/storage/gormstore"
	"networth-tracker/internal/storage/postgres"
	"networth-tracker/internal/storage/sqlite"

	"github.com/gin-gonic/gin"
	"golang.org/x/sync/errgroup"
	"golang.org/x/time/rate"
)

func main() {
	cfg := config.MustLoad()

	log := logger.New(cfg.Env)
	slog.SetDefault(log)

	if cfg.Env == config.EnvProd {
		gin.SetMode(gin.ReleaseMode)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	store, closeStore, err := openStorage(ctx, cfg, log)
	if err != nil {
		slog.Error("failed to open storage", "error", err, "driver", cfg.DB.Driver)
		os.Exit(1)
	}
	defer closeStore()

	dashCache := openCache(ctx, cfg)
	defer dashCache.Close()

	limiter := middleware.NewRateLimiter(rate.Limit(cfg.Auth.RPS), cfg.Auth.Burst)

	router := handler.NewRouter(handler.Deps{
		Store:          store,
		Tokens:         auth.NewTokenService(cfg.JWT.Secret, cfg.JWT.ExpiresIn),
		Dashboard:      cache.NewDashboard(dashCache, cfg.Cache.TTL),
		RateLimiter:    limiter,
		Defaults:       catalog.Defaults,
		RequestTimeout: cfg.RequestTimeout,
		SecureCookies:  cfg.SecureCookies(),
		DetailedErrors: cfg.Env != config.EnvProd,
		PublicDir:      cfg.Files.PublicDir,
		UploadDir:      cfg.Files.UploadDir,
		MaxPhotoBytes:  cfg.Files.MaxPhotoBytes,
	})

	srv := &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       cfg.RequestTimeout + 30*time.Second,
		WriteTimeout:      cfg.RequestTimeout + 5*time.Second,
		IdleTimeout:       2 * time.Minute,
		MaxHeaderBytes:    1 << 20,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		limiter.Run(gctx)
		return nil
	})
	g.Go(func() error {
		slog.Info("server started", "addr", cfg.HTTPAddr, "env", cfg.Env, "driver", cfg.DB.Driver)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		slog.Info("shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	if err := g.Wait(); err != nil {
		slog.Error("server stopped with error", "error", err)
		closeStore()
		os.Exit(1)
	}
	slog.Info("server stopped")
}

func openStorage(ctx context.Context, cfg *config.Config, log *slog.Logger) (*gormstore.Storage, func(), error) {
	if cfg.DB.Driver == config.DriverSQLite {
		store, err := sqlite.New(cfg.DB.SQLitePath, log)
		if err != nil {
			return nil, nil, err
		}
		return store, func() { _ = store.Close() }, nil
	}
	return postgres.New(ctx, cfg.DB.URL, cfg.DB.AutoMigrate, log)
}

// openCache falls back to no caching when Redis is not configured or unreachable.
func openCache(ctx context.Context, cfg *config.Config) cache.Cache {
	if cfg.Cache.RedisURL == "" {
		return cache.Noop{}
	}
	c, err := cache.NewRedisCache(ctx, cfg.Cache.RedisURL)
	if err != nil {
		slog.Warn("redis unavailable, dashboard caching disabled", "error", err)
		return cache.Noop{}
	}
	return c
}
