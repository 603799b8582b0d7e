// Package published реализует HTTP-обработчик каталога опубликованных курсов.
package published

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"

	"github.com/magabrotheeeer/learnify-backend/internal/http/params"
	"github.com/magabrotheeeer/learnify-backend/internal/http/response"
	"github.com/magabrotheeeer/learnify-backend/internal/lib/sl"
	"github.com/magabrotheeeer/learnify-backend/internal/services/course"
)

// Handler отдаёт страницу каталога.
type Handler struct {
	log     *slog.Logger
	service Service
}

// Service описывает интерфейс бизнес-логики каталога.
type Service interface {
	ListPublished(ctx context.Context, page, limit int) (*course.Page, error)
}

// New создает новый экземпляр Handler.
func New(log *slog.Logger, service Service) *Handler {
	return &Handler{log: log, service: service}
}

// ServeHTTP godoc
// @Summary Опубликованные курсы
// @Tags Course
// @Produce  json
// @Param page query int false "Номер страницы" default(1)
// @Param limit query int false "Размер страницы, до 100" default(10)
// @Success 200 {object} response.Response
// @Failure 400 {object} response.ErrorResponse "Некорректные параметры"
// @Router /course/published [get]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.course.published"

	log := h.log.With(
		slog.String("op", op),
		slog.String("request_id", middleware.GetReqID(r.Context())),
	)

	page, err := params.Int(r, "page", 1)
	if err != nil {
		response.RenderError(w, r, err)
		return
	}
	limit, err := params.Int(r, "limit", course.DefaultLimit)
	if err != nil {
		response.RenderError(w, r, err)
		return
	}

	result, err := h.service.ListPublished(r.Context(), page, limit)
	if err != nil {
		log.Error("failed to list published courses", sl.Err(err))
		response.RenderError(w, r, err)
		return
	}
	render.JSON(w, r, response.OK("", result))
}
