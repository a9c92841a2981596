package http

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"sort"
	"time"

	"fechamento/internal/cache"
	"fechamento/internal/core"
	"fechamento/internal/export"
	applog "fechamento/internal/log"
	"fechamento/internal/services"
	"fechamento/internal/sheets"
)

const xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

func handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// handleReady runs every readiness check and reports the failing ones.
func (s *Server) handleReady(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 3*time.Second)
	defer cancel()

	names := make([]string, 0, len(s.checks))
	for name := range s.checks {
		names = append(names, name)
	}
	sort.Strings(names)

	failures := map[string]string{}
	for _, name := range names {
		if err := s.checks[name](ctx); err != nil {
			failures[name] = err.Error()
		}
	}

	if len(failures) > 0 {
		applog.FromContext(r.Context()).WarnContext(r.Context(), "Readiness check failed", "failures", failures)
		writeJSON(w, http.StatusServiceUnavailable, map[string]any{"status": "unavailable", "failures": failures})
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ready"})
}

func (s *Server) handleSummary(w http.ResponseWriter, r *http.Request) {
	year, month, err := s.parsePeriod(r)
	if err != nil {
		s.fail(w, r, err, http.StatusBadRequest)
		return
	}

	summary, err := s.summary(r.Context(), year, month)
	if err != nil {
		s.fail(w, r, err, http.StatusBadGateway)
		return
	}
	writeJSON(w, http.StatusOK, summary)
}

func (s *Server) handleInvoices(w http.ResponseWriter, r *http.Request) {
	year, month, err := s.parsePeriod(r)
	if err != nil {
		s.fail(w, r, err, http.StatusBadRequest)
		return
	}

	invoices, err := s.closings.Invoices(r.Context(), year, month)
	if err != nil {
		s.fail(w, r, err, http.StatusBadGateway)
		return
	}
	writeJSON(w, http.StatusOK, invoices)
}

func (s *Server) handleHistory(w http.ResponseWriter, r *http.Request) {
	year, err := s.parseYear(r)
	if err != nil {
		s.fail(w, r, err, http.StatusBadRequest)
		return
	}

	history, err := s.closings.History(r.Context(), year)
	if err != nil {
		s.fail(w, r, err, http.StatusBadGateway)
		return
	}
	if history == nil {
		history = []core.HistoricalEntry{}
	}
	writeJSON(w, http.StatusOK, history)
}

// handleExport streams a workbook with the month and the series of its year.
func (s *Server) handleExport(w http.ResponseWriter, r *http.Request) {
	year, month, err := s.parsePeriod(r)
	if err != nil {
		s.fail(w, r, err, http.StatusBadRequest)
		return
	}

	summary, err := s.summary(r.Context(), year, month)
	if err != nil {
		s.fail(w, r, err, http.StatusBadGateway)
		return
	}
	history, err := s.closings.History(r.Context(), year)
	if err != nil {
		s.fail(w, r, err, http.StatusBadGateway)
		return
	}

	data, err := export.ClosingXLSX(summary, history)
	if err != nil {
		s.fail(w, r, fmt.Errorf("render workbook: %w", err), http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", xlsxContentType)
	w.Header().Set("Content-Disposition", fmt.Sprintf(`attachment; filename="fechamento-%04d-%02d.xlsx"`, year, int(month)))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(data)
}

// handleRequestClosing enqueues a closing for the worker.
func (s *Server) handleRequestClosing(w http.ResponseWriter, r *http.Request) {
	year, month, err := s.parsePeriod(r)
	if err != nil {
		s.fail(w, r, err, http.StatusBadRequest)
		return
	}

	id, err := s.closings.RequestClosing(r.Context(), year, month)
	if err != nil {
		s.fail(w, r, err, http.StatusBadGateway)
		return
	}

	// the stored closing may be recomputed from newer records
	if s.summaries != nil {
		s.summaries.Delete(cache.PeriodKey("summary", year, month))
	}

	writeJSON(w, http.StatusAccepted, map[string]any{
		"id":    id,
		"year":  year,
		"month": int(month),
	})
}

func (s *Server) handleLatestClosing(w http.ResponseWriter, r *http.Request) {
	year, month, err := s.parsePeriod(r)
	if err != nil {
		s.fail(w, r, err, http.StatusBadRequest)
		return
	}

	snap, err := s.closings.LatestClosing(r.Context(), year, month)
	if err != nil {
		s.fail(w, r, err, http.StatusBadGateway)
		return
	}
	writeJSON(w, http.StatusOK, snap)
}

// summary reads through the summary cache when one is configured.
func (s *Server) summary(ctx context.Context, year int, month time.Month) (core.MonthlySummary, error) {
	if s.summaries == nil {
		return s.closings.Summary(ctx, year, month)
	}
	return s.summaries.GetOrLoad(ctx, cache.PeriodKey("summary", year, month), func(ctx context.Context) (core.MonthlySummary, error) {
		return s.closings.Summary(ctx, year, month)
	})
}

// fail logs err and writes it with the status matching its kind. fallback
// is used for errors of no known kind.
func (s *Server) fail(w http.ResponseWriter, r *http.Request, err error, fallback int) {
	status := statusFor(err, fallback)
	logger := applog.FromContext(r.Context())
	if status >= http.StatusInternalServerError {
		logger.ErrorContext(r.Context(), "Request failed", applog.FieldPath, r.URL.Path, applog.FieldError, err)
	} else {
		logger.DebugContext(r.Context(), "Request rejected", applog.FieldPath, r.URL.Path, applog.FieldError, err)
	}
	writeError(w, status, err.Error())
}

func statusFor(err error, fallback int) int {
	switch {
	case errors.Is(err, services.ErrInvalidPeriod):
		return http.StatusBadRequest
	case errors.Is(err, sheets.ErrSnapshotNotFound):
		return http.StatusNotFound
	case errors.Is(err, services.ErrNotConfigured):
		return http.StatusServiceUnavailable
	case errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout
	default:
		return fallback
	}
}
