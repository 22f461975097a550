package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"golang.org/x/sync/errgroup"

	"bizbook/internal/auth"
	"bizbook/internal/books"
	"bizbook/internal/config"
	"bizbook/internal/events"
	apphttp "bizbook/internal/http"
	applog "bizbook/internal/log"
	"bizbook/internal/localstore"
	"bizbook/internal/remote"
	"bizbook/internal/remote/gist"
)

func main() {
	// Load .env file for local development (ignore errors in production/docker)
	_ = godotenv.Load()

	// Setup structured logging
	logger := applog.New(applog.DefaultConfig())
	applog.SetDefault(logger)

	logger.Info("Starting bizbook")

	// Load configuration
	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		logger.Error("Configuration validation failed", "error", err)
		os.Exit(1)
	}

	// Local mirror
	store, err := localstore.Open(cfg.SQLiteDBPath)
	if err != nil {
		logger.Error("Failed to open local store", "error", err, "path", cfg.SQLiteDBPath)
		os.Exit(1)
	}
	defer store.Close()

	// Remote document store (optional)
	var remoteStore remote.DocumentStore
	if cfg.RemoteConfigured() {
		client, err := gist.New(gist.Config{
			Token:    cfg.GistToken,
			GistID:   cfg.GistID,
			Filename: cfg.GistFilename,
		})
		if err != nil {
			logger.Error("Failed to initialize gist client", "error", err)
			os.Exit(1)
		}
		remoteStore = client
		logger.Info("Gist remote store initialized", "gist_id", cfg.GistID, "filename", cfg.GistFilename)
	} else {
		logger.Info("Remote store disabled - no gist credentials provided")
	}

	// Mutation events (optional)
	var publisher books.EventPublisher
	if cfg.AMQPURL != "" {
		client, err := events.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue)
		if err != nil {
			logger.Error("Failed to initialize AMQP client", "error", err)
			os.Exit(1)
		}
		defer client.Close()
		publisher = client
		logger.Info("AMQP event publisher initialized", "exchange", cfg.AMQPExchange, "queue", cfg.AMQPQueue)
	} else {
		logger.Info("Mutation events disabled - no AMQP URL provided")
	}

	ledger := books.New(store, remoteStore, publisher)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Initial load; a failed remote fetch falls back to the local mirror.
	if err := ledger.Load(ctx); err != nil {
		logger.Warn("Initial load degraded", "error", err, "state", ledger.State())
	}

	// Authentication (optional; without users the API runs open)
	var provider auth.Provider
	if len(cfg.Users) > 0 {
		provider, err = auth.NewStaticProvider(cfg.Users)
		if err != nil {
			logger.Error("Failed to parse user table", "error", err)
			os.Exit(1)
		}
	} else {
		logger.Warn("No users configured - API runs without authentication")
	}

	srv := apphttp.NewServer(":"+cfg.Port, ledger, provider, apphttp.Options{
		StartingCash: cfg.StartingCash,
		StartingUPI:  cfg.StartingUPI,
	})
	srv.ReadTimeout = 10 * time.Second
	srv.WriteTimeout = 10 * time.Second
	srv.IdleTimeout = 60 * time.Second
	srv.MaxHeaderBytes = 1 << 16 // 64KB

	poller := books.NewPoller(ledger, books.PollerConfig{Interval: cfg.PollInterval})

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		logger.Info("Starting bizbook server", "port", cfg.Port)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			return err
		}
		return nil
	})

	g.Go(func() error {
		if remoteStore == nil {
			return nil
		}
		return poller.Start(gctx)
	})

	g.Go(func() error {
		sigChan := make(chan os.Signal, 1)
		signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
		defer signal.Stop(sigChan)

		select {
		case sig := <-sigChan:
			logger.Info("Shutdown signal received", "signal", sig.String())
		case <-gctx.Done():
			return gctx.Err()
		}

		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer shutdownCancel()

		if poller.IsRunning() {
			if err := poller.Stop(shutdownCtx); err != nil {
				logger.Error("Poller shutdown error", "error", err)
			}
		}
		if err := srv.Shutdown(shutdownCtx); err != nil {
			logger.Error("Server shutdown error", "error", err)
		}
		cancel()
		return nil
	})

	if err := g.Wait(); err != nil && err != context.Canceled {
		logger.Error("Server error", "error", err)
		os.Exit(1)
	}

	logger.Info("Server stopped gracefully")
}
