package http

import (
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"fechamento/internal/services"
)

// parsePeriod extracts year and month from query parameters, defaulting to
// the current period of the closing service. Malformed values are rejected
// rather than silently replaced.
func (s *Server) parsePeriod(r *http.Request) (int, time.Month, error) {
	year, month := s.closings.CurrentPeriod()

	q := r.URL.Query()
	if v := strings.TrimSpace(q.Get("year")); v != "" {
		y, err := strconv.Atoi(v)
		if err != nil {
			return 0, 0, fmt.Errorf("%w: year %q", services.ErrInvalidPeriod, v)
		}
		year = y
	}
	if v := strings.TrimSpace(q.Get("month")); v != "" {
		m, err := strconv.Atoi(v)
		if err != nil {
			return 0, 0, fmt.Errorf("%w: month %q", services.ErrInvalidPeriod, v)
		}
		month = time.Month(m)
	}
	return year, month, nil
}

// parseYear is parsePeriod for endpoints without a month.
func (s *Server) parseYear(r *http.Request) (int, error) {
	year, _ := s.closings.CurrentPeriod()
	if v := strings.TrimSpace(r.URL.Query().Get("year")); v != "" {
		y, err := strconv.Atoi(v)
		if err != nil {
			return 0, fmt.Errorf("%w: year %q", services.ErrInvalidPeriod, v)
		}
		year = y
	}
	return year, nil
}
