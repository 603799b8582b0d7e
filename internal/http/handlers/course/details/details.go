// Package details реализует HTTP-обработчик карточки курса.
//
// Ссылки на видео закрытых лекций отдаются только автору курса и купившим его.
package details

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

// Handler возвращает курс с лекциями.
type Handler struct {
	log     *slog.Logger
	service Service
}

// Service описывает интерфейс бизнес-логики.
type Service interface {
	GetCourse(ctx context.Context, userUID, courseID string) (*models.Course, error)
}

// New создает новый экземпляр Handler.
func New(log *slog.Logger, service Service) *Handler {
	return &Handler{log: log, service: service}
}

// ServeHTTP godoc
// @Summary Карточка курса
// @Tags Course
// @Produce  json
// @Param courseId path string true "ID курса"
// @Success 200 {object} response.Response
// @Failure 404 {object} response.ErrorResponse "Курс не найден"
// @Router /course/c/{courseId} [get]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.course.details"

	log := h.log.With(
		slog.String("op", op),
		slog.String("request_id", middleware.GetReqID(r.Context())),
	)

	courseID, err := params.UUID(r, "courseId")
	if err != nil {
		response.RenderError(w, r, err)
		return
	}

	course, err := h.service.GetCourse(r.Context(), middlewarectx.UserUIDFrom(r.Context()), courseID)
	if err != nil {
		log.Info("failed to get course", slog.String("course_id", courseID), sl.Err(err))
		response.RenderError(w, r, err)
		return
	}
	render.JSON(w, r, response.OK("", map[string]any{"course": course}))
}
