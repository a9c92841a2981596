package main

import (
	"context"
	"errors"
	"os"
	"time"

	"fechamento/internal/amqp"
	"fechamento/internal/cli"
	applog "fechamento/internal/log"
	"fechamento/internal/services"
	"fechamento/internal/sheets"
	gsheet "fechamento/internal/sheets/google"
	"fechamento/internal/worker"
)

func main() {
	cfg, logger := cli.Bootstrap(applog.ComponentWorker)
	logger.Info("Starting fechamento-worker")

	if !cfg.AMQPEnabled() {
		logger.Error("AMQP_URL is required by the worker")
		os.Exit(1)
	}

	ctx, cancel := cli.ShutdownContext(logger)
	defer cancel()

	result := cli.InitBackend(ctx, logger, cfg)
	defer result.Close()

	// Google Sheets export is optional
	var reports sheets.ReportWriter
	if cfg.SheetsEnabled() {
		client, err := gsheet.New(ctx, cfg.GoogleSpreadsheetID, cfg.GoogleSheetName)
		if err != nil {
			logger.Error("Failed to initialize Google Sheets client", applog.FieldError, err)
			os.Exit(1)
		}
		reports = client
		logger.Info("Google Sheets export enabled", "spreadsheet_id", cfg.GoogleSpreadsheetID, "sheet", cfg.GoogleSheetName)
	} else {
		logger.Info("Google Sheets disabled - no GOOGLE_SPREADSHEET_ID provided")
	}

	amqpClient, err := amqp.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue)
	if err != nil {
		logger.Error("Failed to initialize AMQP client", applog.FieldError, err)
		os.Exit(1)
	}
	defer amqpClient.Close()

	closings := services.NewClosingService(result.Backend, services.WithSnapshots(result.Backend))
	closingWorker := worker.NewClosingWorker(closings, reports)

	if cfg.AutoCloseInterval > 0 {
		autoCloser := services.NewAutoCloser(closings, func(ctx context.Context, year int, month time.Month) error {
			return closingWorker.HandleClosingRequest(ctx, amqp.NewClosingRequestMessage(year, month))
		}, services.AutoCloserConfig{
			PollInterval: cfg.AutoCloseInterval,
			Lookback:     cfg.AutoCloseLookback,
		})
		if err := autoCloser.Start(ctx); err != nil {
			logger.Error("Failed to start auto closer", applog.FieldError, err)
			os.Exit(1)
		}
		defer func() {
			stopCtx, stopCancel := context.WithTimeout(context.Background(), 30*time.Second)
			defer stopCancel()
			_ = autoCloser.Stop(stopCtx)
		}()
	}

	done := make(chan struct{})
	go func() {
		defer close(done)
		if err := amqpClient.ConsumeClosingRequests(ctx, closingWorker.HandleClosingRequest); err != nil && !errors.Is(err, context.Canceled) {
			logger.Error("Message consumption failed", applog.FieldError, err)
		}
		cancel()
	}()

	<-ctx.Done()
	logger.Info("Shutting down worker...")

	select {
	case <-done:
		logger.Info("Worker shutdown complete")
	case <-time.After(30 * time.Second):
		logger.Warn("Shutdown timeout reached")
	}
}
