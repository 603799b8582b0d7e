// Package health реализует проверку состояния сервиса.
package health

import (
	"context"
	"log/slog"
	"net/http"
	"runtime"
	"time"

	"github.com/go-chi/render"

	"github.com/magabrotheeeer/learnify-backend/internal/http/response"
	"github.com/magabrotheeeer/learnify-backend/internal/lib/sl"
)

const pingTimeout = 2 * time.Second

// Pinger зависимость, доступность которой проверяется.
type Pinger interface {
	Ping(ctx context.Context) error
}

// Handler опрашивает базу данных и Redis.
type Handler struct {
	log     *slog.Logger
	db      Pinger
	cache   Pinger
	started time.Time
	now     func() time.Time
}

// New создает новый экземпляр Handler.
func New(log *slog.Logger, db, cache Pinger) *Handler {
	return &Handler{
		log:     log,
		db:      db,
		cache:   cache,
		started: time.Now(),
		now:     time.Now,
	}
}

type serviceStatus struct {
	Status string `json:"status"`
}

type systemStatus struct {
	Goroutines int    `json:"goroutines"`
	HeapAlloc  uint64 `json:"heapAlloc"`
	Uptime     string `json:"uptime"`
}

// ServeHTTP godoc
// @Summary Состояние сервиса
// @Tags Health
// @Produce  json
// @Success 200 {object} response.Response
// @Failure 503 {object} response.ErrorResponse "Зависимость недоступна"
// @Router /health [get]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.health"

	ctx, cancel := context.WithTimeout(r.Context(), pingTimeout)
	defer cancel()

	var failures []response.FieldError
	check := func(name string, p Pinger) serviceStatus {
		if err := p.Ping(ctx); err != nil {
			h.log.Error("dependency is down", slog.String("op", op), slog.String("dependency", name), sl.Err(err))
			failures = append(failures, response.FieldError{Path: name, Message: name + " is unreachable"})
			return serviceStatus{Status: "disconnected"}
		}
		return serviceStatus{Status: "connected"}
	}

	var mem runtime.MemStats
	runtime.ReadMemStats(&mem)
	now := h.now()

	data := map[string]any{
		"timestamp": now.UTC().Format(time.RFC3339),
		"services": map[string]any{
			"database": check("database", h.db),
			"redis":    check("redis", h.cache),
			"system": systemStatus{
				Goroutines: runtime.NumGoroutine(),
				HeapAlloc:  mem.HeapAlloc,
				Uptime:     now.Sub(h.started).Round(time.Second).String(),
			},
		},
	}

	if len(failures) > 0 {
		data["status"] = "unhealthy"
		resp := response.Error("service is unhealthy")
		resp.Data = data
		resp.Errors = failures
		render.Status(r, http.StatusServiceUnavailable)
		render.JSON(w, r, resp)
		return
	}

	data["status"] = "healthy"
	render.JSON(w, r, response.OK("service is healthy", data))
}
