package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"fechamento/internal/sheets"
)

// AutoCloserConfig holds configuration for the auto closer
type AutoCloserConfig struct {
	// PollInterval is how often finished months are checked (default: 1h)
	PollInterval time.Duration

	// Lookback is how many finished months are checked per poll (default: 1)
	Lookback int
}

// DefaultAutoCloserConfig returns sensible defaults
func DefaultAutoCloserConfig() AutoCloserConfig {
	return AutoCloserConfig{
		PollInterval: time.Hour,
		Lookback:     1,
	}
}

// CloseFunc closes one month.
type CloseFunc func(ctx context.Context, year int, month time.Month) error

// AutoCloser closes finished months that have no snapshot yet.
type AutoCloser struct {
	closings *ClosingService
	close    CloseFunc
	config   AutoCloserConfig

	// Lifecycle management
	mu      sync.Mutex
	running bool
	stopCh  chan struct{}
	doneCh  chan struct{}
}

// NewAutoCloser creates an auto closer. closeFn defaults to storing a
// snapshot through closings.
func NewAutoCloser(closings *ClosingService, closeFn CloseFunc, config AutoCloserConfig) *AutoCloser {
	if config.PollInterval <= 0 {
		config.PollInterval = DefaultAutoCloserConfig().PollInterval
	}
	if config.Lookback < 1 {
		config.Lookback = 1
	}
	if closeFn == nil {
		closeFn = func(ctx context.Context, year int, month time.Month) error {
			_, err := closings.Close(ctx, year, month)
			return err
		}
	}
	return &AutoCloser{
		closings: closings,
		close:    closeFn,
		config:   config,
	}
}

// Start begins the polling loop. Returns an error if already running.
func (a *AutoCloser) Start(ctx context.Context) error {
	a.mu.Lock()
	if a.running {
		a.mu.Unlock()
		return fmt.Errorf("auto closer is already running")
	}
	a.running = true
	a.stopCh = make(chan struct{})
	a.doneCh = make(chan struct{})
	a.mu.Unlock()

	go a.runLoop(ctx)

	slog.InfoContext(ctx, "Auto closer started",
		"poll_interval", a.config.PollInterval,
		"lookback", a.config.Lookback)

	return nil
}

// Stop gracefully stops the loop and waits for the current check.
func (a *AutoCloser) Stop(ctx context.Context) error {
	a.mu.Lock()
	if !a.running {
		a.mu.Unlock()
		return nil
	}
	stopCh, doneCh := a.stopCh, a.doneCh
	a.running = false
	a.mu.Unlock()

	close(stopCh)

	select {
	case <-doneCh:
		slog.InfoContext(ctx, "Auto closer stopped gracefully")
		return nil
	case <-ctx.Done():
		slog.WarnContext(ctx, "Auto closer stop timed out")
		return ctx.Err()
	}
}

// IsRunning returns whether the loop is currently running
func (a *AutoCloser) IsRunning() bool {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.running
}

func (a *AutoCloser) runLoop(ctx context.Context) {
	defer close(a.doneCh)

	ticker := time.NewTicker(a.config.PollInterval)
	defer ticker.Stop()

	// Check immediately on startup
	a.check(ctx)

	for {
		select {
		case <-a.stopCh:
			return
		case <-ctx.Done():
			return
		case <-ticker.C:
			a.check(ctx)
		}
	}
}

func (a *AutoCloser) check(ctx context.Context) {
	closed, err := a.CheckNow(ctx)
	if err != nil {
		slog.ErrorContext(ctx, "Auto close check failed", "error", err, "closed", closed)
		return
	}
	if closed > 0 {
		slog.InfoContext(ctx, "Finished months closed", "closed", closed)
	}
}

// CheckNow closes every month of the lookback window that has no snapshot
// and returns how many it closed. The current month is never closed.
func (a *AutoCloser) CheckNow(ctx context.Context) (int, error) {
	year, month := a.closings.CurrentPeriod()

	var errs []error
	closed := 0
	for i := a.config.Lookback; i >= 1; i-- {
		first := time.Date(year, month-time.Month(i), 1, 0, 0, 0, 0, time.UTC)
		y, m := first.Year(), first.Month()

		_, err := a.closings.LatestClosing(ctx, y, m)
		if err == nil {
			continue
		}
		if !errors.Is(err, sheets.ErrSnapshotNotFound) {
			errs = append(errs, fmt.Errorf("latest closing %d-%02d: %w", y, int(m), err))
			continue
		}

		if err := a.close(ctx, y, m); err != nil {
			errs = append(errs, fmt.Errorf("close %d-%02d: %w", y, int(m), err))
			continue
		}
		slog.InfoContext(ctx, "Month closed automatically", "year", y, "month", int(m))
		closed++
	}
	return closed, errors.Join(errs...)
}
