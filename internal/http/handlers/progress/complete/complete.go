// Package complete реализует отметку курса пройденным целиком.
package complete

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
	"github.com/magabrotheeeer/learnify-backend/internal/services/progress"
)

// Handler отмечает все лекции курса просмотренными.
type Handler struct {
	log     *slog.Logger
	service Service
}

// Service описывает интерфейс бизнес-логики прогресса.
type Service interface {
	MarkCourseCompleted(ctx context.Context, userUID, courseID string) (*progress.CourseProgress, error)
}

// New создает новый экземпляр Handler.
func New(log *slog.Logger, service Service) *Handler {
	return &Handler{log: log, service: service}
}

// ServeHTTP godoc
// @Summary Завершить курс
// @Tags Progress
// @Produce  json
// @Security BearerAuth
// @Param courseId path string true "ID курса"
// @Success 200 {object} response.Response
// @Failure 400 {object} response.ErrorResponse "Некорректный ID"
// @Failure 403 {object} response.ErrorResponse "Нет доступа к курсу"
// @Failure 404 {object} response.ErrorResponse "Курс не найден"
// @Router /progress/{courseId}/complete [patch]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.progress.complete"

	log := h.log.With(
		slog.String("op", op),
		slog.String("request_id", middleware.GetReqID(r.Context())),
	)

	courseID, err := params.UUID(r, "courseId")
	if err != nil {
		response.RenderError(w, r, err)
		return
	}

	p, err := h.service.MarkCourseCompleted(r.Context(), middlewarectx.UserUIDFrom(r.Context()), courseID)
	if err != nil {
		log.Info("failed to complete course", slog.String("course_id", courseID), sl.Err(err))
		response.RenderError(w, r, err)
		return
	}
	render.JSON(w, r, response.OK("course marked as completed", p))
}
