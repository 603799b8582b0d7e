// Package lectureadd реализует HTTP-обработчик добавления лекции в курс.
package lectureadd

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"
	"github.com/go-playground/validator"

	"github.com/magabrotheeeer/learnify-backend/internal/http/middlewarectx"
	"github.com/magabrotheeeer/learnify-backend/internal/http/params"
	"github.com/magabrotheeeer/learnify-backend/internal/http/response"
	"github.com/magabrotheeeer/learnify-backend/internal/lib/sl"
	"github.com/magabrotheeeer/learnify-backend/internal/lib/validate"
	"github.com/magabrotheeeer/learnify-backend/internal/models"
)

// Handler добавляет лекцию в конец курса.
type Handler struct {
	log      *slog.Logger
	service  Service
	validate *validator.Validate
}

// Service описывает интерфейс бизнес-логики.
type Service interface {
	AddLecture(ctx context.Context, userUID, courseID string, req models.CreateLectureRequest) (*models.Lecture, error)
}

// New создает новый экземпляр Handler.
func New(log *slog.Logger, service Service) *Handler {
	return &Handler{
		log:      log,
		service:  service,
		validate: validate.New(),
	}
}

// ServeHTTP godoc
// @Summary Добавление лекции
// @Description Видео загружается заранее через /media/upload-video, сюда передаются url и publicId.
// @Tags Course
// @Accept  json
// @Produce  json
// @Security BearerAuth
// @Param courseId path string true "ID курса"
// @Param request body models.CreateLectureRequest true "Лекция"
// @Success 201 {object} response.Response
// @Failure 400 {object} response.ErrorResponse "Ошибка валидации"
// @Failure 403 {object} response.ErrorResponse "Курс принадлежит другому преподавателю"
// @Router /course/c/{courseId}/lectures [post]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.course.lectureadd"

	log := h.log.With(
		slog.String("op", op),
		slog.String("request_id", middleware.GetReqID(r.Context())),
	)

	courseID, err := params.UUID(r, "courseId")
	if err != nil {
		response.RenderError(w, r, err)
		return
	}

	var req models.CreateLectureRequest
	if err = json.NewDecoder(r.Body).Decode(&req); err != nil {
		log.Error("failed to decode request body", sl.Err(err))
		response.DecodeError(w, r, err)
		return
	}
	if err = h.validate.Struct(req); err != nil {
		log.Info("validation failed", sl.Err(err))
		response.Invalid(w, r, err)
		return
	}

	lecture, err := h.service.AddLecture(r.Context(), middlewarectx.UserUIDFrom(r.Context()), courseID, req)
	if err != nil {
		log.Error("failed to add lecture", slog.String("course_id", courseID), sl.Err(err))
		response.RenderError(w, r, err)
		return
	}

	render.Status(r, http.StatusCreated)
	render.JSON(w, r, response.OK("lecture added successfully", map[string]any{"lecture": lecture}))
}
