// Package upload реализует загрузку видео лекций в хранилище.
package upload

import (
	"bytes"
	"context"
	"io"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"

	"github.com/magabrotheeeer/learnify-backend/internal/http/response"
	"github.com/magabrotheeeer/learnify-backend/internal/lib/sl"
	"github.com/magabrotheeeer/learnify-backend/internal/media"
)

const (
	maxMemory = 32 << 20
	sniffLen  = 512
)

// Storage описывает хранилище медиафайлов.
type Storage interface {
	Upload(ctx context.Context, folder media.Folder, filename, contentType string, r io.Reader) (*media.File, error)
}

// Handler принимает видеофайл из поля file.
type Handler struct {
	log     *slog.Logger
	storage Storage
}

// New создает новый экземпляр Handler.
func New(log *slog.Logger, storage Storage) *Handler {
	return &Handler{log: log, storage: storage}
}

// ServeHTTP godoc
// @Summary Загрузка видео лекции
// @Description Возвращает publicId и url, которые передаются при добавлении лекции.
// @Tags Media
// @Accept  multipart/form-data
// @Produce  json
// @Security BearerAuth
// @Param file formData file true "Видео"
// @Success 200 {object} response.Response
// @Failure 400 {object} response.ErrorResponse "Файл не передан или формат не поддерживается"
// @Failure 413 {object} response.ErrorResponse "Файл слишком большой"
// @Router /media/upload-video [post]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.media.upload"

	log := h.log.With(
		slog.String("op", op),
		slog.String("request_id", middleware.GetReqID(r.Context())),
	)

	if err := r.ParseMultipartForm(maxMemory); err != nil {
		log.Info("failed to parse multipart form", sl.Err(err))
		response.DecodeError(w, r, err)
		return
	}
	file, header, err := r.FormFile("file")
	if err != nil {
		render.Status(r, http.StatusBadRequest)
		render.JSON(w, r, response.Error("file is required"))
		return
	}
	defer func() { _ = file.Close() }()

	body := io.Reader(file)
	contentType := header.Header.Get("Content-Type")
	if contentType == "" || contentType == "application/octet-stream" {
		head := make([]byte, sniffLen)
		n, err := io.ReadFull(file, head)
		if err != nil && err != io.ErrUnexpectedEOF && err != io.EOF {
			log.Error("failed to read upload", sl.Err(err))
			response.RenderError(w, r, err)
			return
		}
		contentType = http.DetectContentType(head[:n])
		body = io.MultiReader(bytes.NewReader(head[:n]), file)
	}

	uploaded, err := h.storage.Upload(r.Context(), media.FolderLectures, header.Filename, contentType, body)
	if err != nil {
		log.Error("failed to upload video", slog.String("content_type", contentType), sl.Err(err))
		response.RenderError(w, r, err)
		return
	}

	log.Info("video uploaded", slog.String("public_id", uploaded.PublicID), slog.Int64("size", header.Size))
	render.JSON(w, r, response.OK("video uploaded successfully", uploaded))
}
