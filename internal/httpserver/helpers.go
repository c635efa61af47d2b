package httpserver

import (
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/Skotchmaster/storefront/internal/service"
	middleware "github.com/Skotchmaster/storefront/pkg/middleware/auth"
)

const (
	DefaultPageSize = 20
	MaxPageSize     = 100
)

func ParseIntDefault(s string, def int) int {
	if s == "" {
		return def
	}
	if v, err := strconv.Atoi(s); err == nil {
		return v
	}
	return def
}

func Calculate(page, size int) (offset int, limit int) {
	if page < 1 {
		page = 1
	}
	if size < 1 {
		size = DefaultPageSize
	}
	if size > MaxPageSize {
		size = MaxPageSize
	}
	return (page - 1) * size, size
}

func pageMeta(page, limit, offset int, total int64) map[string]any {
	return map[string]any{
		"page":        page,
		"size":        limit,
		"total":       total,
		"total_pages": (total + int64(limit) - 1) / int64(limit),
		"has_prev":    page > 1,
		"has_next":    int64(offset+limit) < total,
	}
}

func getUserID(c echo.Context) (uint, error) {
	id, ok := middleware.UserID(c)
	if !ok {
		return 0, errors.New("unauthorized")
	}
	return id, nil
}

func parseID(c echo.Context, name string) (uint, error) {
	v, err := strconv.ParseUint(c.Param(name), 10, 64)
	if err != nil || v == 0 {
		return 0, errors.New(name + " must be a positive integer")
	}
	return uint(v), nil
}

var statusBySentinel = []struct {
	err    error
	status int
}{
	{service.ErrValidation, http.StatusBadRequest},
	{service.ErrUnauthorized, http.StatusUnauthorized},
	{service.ErrPaymentRejected, http.StatusPaymentRequired},
	{service.ErrNotFound, http.StatusNotFound},
	{service.ErrConflict, http.StatusConflict},
}

// statusAndMessage maps a service error to its HTTP status and the text shown
// to the client. Internal errors never leak their text.
func statusAndMessage(err error) (int, string) {
	for _, s := range statusBySentinel {
		if errors.Is(err, s.err) {
			return s.status, strings.TrimSuffix(err.Error(), ": "+s.err.Error())
		}
	}
	return http.StatusInternalServerError, "internal error"
}

// fail logs err under event and turns it into an echo.HTTPError.
func fail(l *slog.Logger, event string, err error) error {
	status, msg := statusAndMessage(err)
	if status >= 500 {
		l.Error(event, "status", status, "error", err)
	} else {
		l.Warn(event, "status", status, "reason", msg, "error", err)
	}
	return echo.NewHTTPError(status, msg)
}

func unauthorized(l *slog.Logger, event string, err error) error {
	l.Warn(event, "status", 401, "error", err)
	return echo.NewHTTPError(http.StatusUnauthorized, "unauthorized")
}

func badRequest(l *slog.Logger, event, reason string, err error) error {
	l.Warn(event, "status", 400, "reason", reason, "error", err)
	return echo.NewHTTPError(http.StatusBadRequest, reason)
}
