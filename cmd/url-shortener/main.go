package main

import (
	"context"
	"errors"
	"log/slog"
	"net"
	"net/http"
	"os"
	"os/signal"
	"time"

	"github.com/go-chi/httplog/v2"
	"github.com/hireko/url-shortener/internal/config"
	"github.com/hireko/url-shortener/internal/database/postgres"
	"github.com/hireko/url-shortener/internal/shortener"
	"golang.org/x/sync/errgroup"

	myhttp "github.com/hireko/url-shortener/internal/api/http"
)

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt)
	defer cancel()

	if err := run(ctx); err != nil {
		panic(err)
	}
}

func run(ctx context.Context) error {
	cfg, err := config.Load(os.Getenv("CONFIG_PATH"))
	if err != nil {
		return err
	}

	logger := httplog.NewLogger("url-shortener", httplog.Options{
		LogLevel: slog.LevelInfo,
		Concise:  cfg.Env != config.EnvProd,
	})

	g, ctx := errgroup.WithContext(ctx)

	db, err := postgres.New(
		ctx,
		cfg.Postgres.DSN(),
		postgres.WithConnMaxIdleTime(cfg.Postgres.ConnMaxIdleTime),
		postgres.WithConnMaxLifetime(cfg.Postgres.ConnMaxLifetime),
		postgres.WithMaxIdleConns(cfg.Postgres.MaxIdleConns),
		postgres.WithMaxOpenConns(cfg.Postgres.MaxOpenConns),
	)
	if err != nil {
		return err
	}
	g.Go(func() error {
		<-ctx.Done()
		return db.Close()
	})

	if err := postgres.RunMigrations("file://migrations", cfg.Postgres.DSN()); err != nil {
		return err
	}

	store := postgres.NewMappingStore(db)
	urlSvc := shortener.NewService(store, logger.Logger, cfg.Shortener.ExpiryDays)

	// Physical deletion of expired rows is passive: the sweep only trims
	// storage, liveness is always decided by the expiry evaluator.
	g.Go(func() error {
		ticker := time.NewTicker(cfg.Shortener.SweepInterval)
		defer ticker.Stop()

		for {
			select {
			case <-ctx.Done():
				return nil
			case <-ticker.C:
				n, err := store.DeleteExpired(ctx, time.Now().UTC())
				if err != nil {
					logger.Error("failed to sweep expired url mappings", slog.Any("err", err))
					continue
				}
				if n > 0 {
					logger.Info("swept expired url mappings", slog.Int64("deleted", n))
				}
			}
		}
	})

	r := myhttp.NewRouter(logger, urlSvc, cfg.Shortener.BaseURL)

	server := &http.Server{
		Addr:           cfg.HTTPServer.Addr(),
		Handler:        r,
		ReadTimeout:    cfg.HTTPServer.ReadTimeout,
		WriteTimeout:   cfg.HTTPServer.WriteTimeout,
		IdleTimeout:    cfg.HTTPServer.IdleTimeout,
		MaxHeaderBytes: cfg.HTTPServer.MaxHeaderBytes,
		BaseContext: func(_ net.Listener) context.Context {
			return ctx
		},
	}

	g.Go(func() error {
		var err error

		switch cfg.Env {
		case config.EnvProd:
			err = server.ListenAndServeTLS(cfg.HTTPServer.CertFile, cfg.HTTPServer.KeyFile)
		default:
			err = server.ListenAndServe()
		}

		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})

	g.Go(func() error {
		<-ctx.Done()
		return server.Shutdown(context.Background())
	})

	return g.Wait()
}
