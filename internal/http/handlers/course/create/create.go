// Package create реализует HTTP-обработчик создания курса преподавателем.
package create

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"
	"github.com/go-playground/validator"

	"github.com/magabrotheeeer/learnify-backend/internal/http/middlewarectx"
	"github.com/magabrotheeeer/learnify-backend/internal/http/response"
	"github.com/magabrotheeeer/learnify-backend/internal/lib/sl"
	"github.com/magabrotheeeer/learnify-backend/internal/lib/validate"
	"github.com/magabrotheeeer/learnify-backend/internal/models"
)

// Handler создаёт черновик курса.
type Handler struct {
	log      *slog.Logger
	service  Service
	validate *validator.Validate
}

// Service описывает интерфейс бизнес-логики создания курса.
type Service interface {
	CreateCourse(ctx context.Context, instructorUID string, req models.CreateCourseRequest) (*models.Course, error)
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
// @Summary Создание курса
// @Tags Course
// @Accept  json
// @Produce  json
// @Security BearerAuth
// @Param request body models.CreateCourseRequest true "Данные курса"
// @Success 201 {object} response.Response "Курс создан"
// @Failure 400 {object} response.ErrorResponse "Ошибка валидации"
// @Failure 403 {object} response.ErrorResponse "Только для преподавателей"
// @Router /course [post]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.course.create"

	log := h.log.With(
		slog.String("op", op),
		slog.String("request_id", middleware.GetReqID(r.Context())),
	)

	var req models.CreateCourseRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		log.Error("failed to decode request body", sl.Err(err))
		response.DecodeError(w, r, err)
		return
	}
	if err := h.validate.Struct(req); err != nil {
		log.Info("validation failed", sl.Err(err))
		response.Invalid(w, r, err)
		return
	}

	course, err := h.service.CreateCourse(r.Context(), middlewarectx.UserUIDFrom(r.Context()), req)
	if err != nil {
		log.Error("failed to create course", sl.Err(err))
		response.RenderError(w, r, err)
		return
	}

	render.Status(r, http.StatusCreated)
	render.JSON(w, r, response.OK("course created successfully", map[string]any{"course": course}))
}
