package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"time"

	"fechamento/internal/amqp"
	"fechamento/internal/cache"
	"fechamento/internal/cli"
	"fechamento/internal/core"
	apphttp "fechamento/internal/http"
	applog "fechamento/internal/log"
	"fechamento/internal/services"
)

func main() {
	cfg, logger := cli.Bootstrap(applog.ComponentApp)

	ctx, cancel := cli.ShutdownContext(logger)
	defer cancel()

	result := cli.InitBackend(ctx, logger, cfg)
	defer func() {
		if err := result.Close(); err != nil {
			logger.Error("Backend cleanup failed", applog.FieldError, err)
		}
	}()
	store := result.Backend

	opts := []services.Option{services.WithSnapshots(store)}
	checks := map[string]apphttp.ReadinessCheck{"backend": store.Ping}

	// Closing requests are only accepted with a broker
	if cfg.AMQPEnabled() {
		amqpClient, err := amqp.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue)
		if err != nil {
			logger.Warn("Failed to initialize AMQP client, asynchronous closings disabled", applog.FieldError, err)
		} else {
			defer amqpClient.Close()
			opts = append(opts, services.WithPublisher(amqpClient))
			checks["amqp"] = func(context.Context) error {
				if !amqpClient.Ready() {
					return errors.New("broker connection not ready")
				}
				return nil
			}
			logger.Info("AMQP client initialized", "exchange", cfg.AMQPExchange, "queue", cfg.AMQPQueue)
		}
	} else {
		logger.Info("AMQP disabled - closing requests will be rejected")
	}

	closings := services.NewClosingService(store, opts...)

	// REPORT_CACHE_TTL=0 recomputes every summary request
	var summaries *cache.LRUCache[core.MonthlySummary]
	cacheManager := cache.NewManager()
	if cfg.ReportCacheTTL > 0 {
		summaries = cache.NewLRUCache[core.MonthlySummary](cfg.ReportCacheSize, cfg.ReportCacheTTL)
		cacheManager.Register(summaries)
		cacheManager.StartCleanup(cfg.ReportCacheTTL)
		logger.Info("Summary cache enabled", "ttl", cfg.ReportCacheTTL, "size", cfg.ReportCacheSize)
	}
	defer cacheManager.Stop()

	srv := apphttp.NewServer(":"+cfg.Port, closings, apphttp.Options{
		Logger:    logger,
		Summaries: summaries,
		Checks:    checks,
	})

	// Configure server timeouts and limits
	srv.ReadTimeout = 10 * time.Second
	srv.WriteTimeout = 30 * time.Second
	srv.IdleTimeout = 60 * time.Second
	srv.MaxHeaderBytes = 1 << 16 // 64KB

	stopped := make(chan struct{})
	go func() {
		defer close(stopped)
		<-ctx.Done()

		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer shutdownCancel()

		if err := srv.Shutdown(shutdownCtx); err != nil {
			logger.Error("Server shutdown error", applog.FieldError, err)
		}
	}()

	logger.Info("Starting fechamento server", "port", cfg.Port, "backend", cfg.DataBackend)
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.Error("Server error", applog.FieldError, err, "port", cfg.Port)
		os.Exit(1)
	}

	<-stopped
	logger.Info("Server stopped gracefully")
}
