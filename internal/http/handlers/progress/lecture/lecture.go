// Package lecture реализует отметку просмотра лекции.
package lecture

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

// Handler отмечает лекцию просмотренной и пересчитывает прогресс.
type Handler struct {
	log     *slog.Logger
	service Service
}

// Service описывает интерфейс бизнес-логики прогресса.
type Service interface {
	UpdateLectureProgress(ctx context.Context, userUID, courseID, lectureID string) (*progress.CourseProgress, error)
}

// New создает новый экземпляр Handler.
func New(log *slog.Logger, service Service) *Handler {
	return &Handler{log: log, service: service}
}

// ServeHTTP godoc
// @Summary Отметить лекцию просмотренной
// @Description Повторная отметка не меняет прогресс. Курс считается завершённым, когда просмотрены все лекции.
// @Tags Progress
// @Produce  json
// @Security BearerAuth
// @Param courseId path string true "ID курса"
// @Param lectureId path string true "ID лекции"
// @Success 200 {object} response.Response
// @Failure 400 {object} response.ErrorResponse "Некорректный ID"
// @Failure 403 {object} response.ErrorResponse "Нет доступа к курсу"
// @Failure 404 {object} response.ErrorResponse "Курс или лекция не найдены"
// @Router /progress/{courseId}/lectures/{lectureId} [patch]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.progress.lecture"

	log := h.log.With(
		slog.String("op", op),
		slog.String("request_id", middleware.GetReqID(r.Context())),
	)

	courseID, err := params.UUID(r, "courseId")
	if err != nil {
		response.RenderError(w, r, err)
		return
	}
	lectureID, err := params.UUID(r, "lectureId")
	if err != nil {
		response.RenderError(w, r, err)
		return
	}

	p, err := h.service.UpdateLectureProgress(r.Context(), middlewarectx.UserUIDFrom(r.Context()), courseID, lectureID)
	if err != nil {
		log.Info("failed to update lecture progress",
			slog.String("course_id", courseID),
			slog.String("lecture_id", lectureID),
			sl.Err(err))
		response.RenderError(w, r, err)
		return
	}
	render.JSON(w, r, response.OK("lecture progress updated", p))
}
