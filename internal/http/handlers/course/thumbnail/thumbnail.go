// Package thumbnail реализует HTTP-обработчик загрузки обложки курса.
package thumbnail

import (
	"context"
	"io"
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

const maxMemory = 8 << 20

// Handler принимает файл thumbnail из multipart-формы.
type Handler struct {
	log     *slog.Logger
	service Service
}

// Service описывает интерфейс бизнес-логики.
type Service interface {
	UploadThumbnail(ctx context.Context, userUID, courseID, filename, contentType string, r io.Reader) (*models.Course, error)
}

// New создает новый экземпляр Handler.
func New(log *slog.Logger, service Service) *Handler {
	return &Handler{log: log, service: service}
}

// ServeHTTP godoc
// @Summary Обложка курса
// @Tags Course
// @Accept  multipart/form-data
// @Produce  json
// @Security BearerAuth
// @Param courseId path string true "ID курса"
// @Param thumbnail formData file true "Изображение"
// @Success 200 {object} response.Response
// @Failure 400 {object} response.ErrorResponse "Файл не передан или формат не поддерживается"
// @Failure 403 {object} response.ErrorResponse "Курс принадлежит другому преподавателю"
// @Router /course/c/{courseId}/thumbnail [patch]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.course.thumbnail"

	log := h.log.With(
		slog.String("op", op),
		slog.String("request_id", middleware.GetReqID(r.Context())),
	)

	courseID, err := params.UUID(r, "courseId")
	if err != nil {
		response.RenderError(w, r, err)
		return
	}

	if err = r.ParseMultipartForm(maxMemory); err != nil {
		log.Info("failed to parse multipart form", sl.Err(err))
		response.DecodeError(w, r, err)
		return
	}
	file, header, err := r.FormFile("thumbnail")
	if err != nil {
		render.Status(r, http.StatusBadRequest)
		render.JSON(w, r, response.Error("thumbnail file is required"))
		return
	}
	defer func() { _ = file.Close() }()

	course, err := h.service.UploadThumbnail(r.Context(), middlewarectx.UserUIDFrom(r.Context()), courseID,
		header.Filename, header.Header.Get("Content-Type"), file)
	if err != nil {
		log.Error("failed to upload thumbnail", slog.String("course_id", courseID), sl.Err(err))
		response.RenderError(w, r, err)
		return
	}
	render.JSON(w, r, response.OK("thumbnail updated successfully", map[string]any{"course": course}))
}
