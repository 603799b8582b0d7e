// Package lectures реализует HTTP-обработчик списка лекций курса.
package lectures

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"

	"github.com/magabrotheeeer/learnify-backend/internal/http/middlewarectx"
	"github.com/magabrotheeeer/learnify-backend/internal/http/params"
	"github.com/magabrotheeeer/learnify-backend/internal/http/response"
	"github.com/magabrotheeeer/learnify-backend/internal/lib/sl"
	"github.com/magabrotheeeer/learnify-backend/internal/models"
)

// Handler возвращает лекции курса по порядку.
type Handler struct {
	log     *slog.Logger
	service Service
}

// Service описывает интерфейс бизнес-логики.
type Service interface {
	ListLectures(ctx context.Context, userUID, courseID string) ([]models.Lecture, error)
}

// New создает новый экземпляр Handler.
func New(log *slog.Logger, service Service) *Handler {
	return &Handler{log: log, service: service}
}

// ServeHTTP godoc
// @Summary Лекции курса
// @Tags Course
// @Produce  json
// @Param courseId path string true "ID курса"
// @Success 200 {object} response.Response
// @Failure 404 {object} response.ErrorResponse "Курс не найден"
// @Router /course/c/{courseId}/lectures [get]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.course.lectures"

	log := h.log.With(
		slog.String("op", op),
		slog.String("request_id", middleware.GetReqID(r.Context())),
	)

	courseID, err := params.UUID(r, "courseId")
	if err != nil {
		response.RenderError(w, r, err)
		return
	}

	lectures, err := h.service.ListLectures(r.Context(), middlewarectx.UserUIDFrom(r.Context()), courseID)
	if err != nil {
		log.Info("failed to list lectures", slog.String("course_id", courseID), sl.Err(err))
		response.RenderError(w, r, err)
		return
	}
	render.JSON(w, r, response.OK("", map[string]any{"lectures": lectures}))
}
