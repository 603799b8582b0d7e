// Package profileupdate реализует HTTP-обработчик обновления профиля.
//
// Запрос приходит multipart-формой: поля name и bio, необязательный файл avatar.
package profileupdate

import (
	"context"
	"errors"
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
	"github.com/magabrotheeeer/learnify-backend/internal/services/auth"
)

const maxMemory = 8 << 20

// Handler обновляет профиль текущего пользователя.
type Handler struct {
	log      *slog.Logger
	service  Service
	validate *validator.Validate
}

// Service описывает интерфейс бизнес-логики обновления профиля.
type Service interface {
	UpdateProfile(ctx context.Context, userUID string, req models.UpdateProfileRequest, avatar *auth.Avatar) (*models.User, error)
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
// @Summary Обновление профиля
// @Tags User
// @Accept  multipart/form-data
// @Produce  json
// @Security BearerAuth
// @Param name formData string false "Имя"
// @Param bio formData string false "О себе"
// @Param avatar formData file false "Аватар"
// @Success 200 {object} response.Response
// @Failure 400 {object} response.ErrorResponse "Ошибка валидации"
// @Failure 401 {object} response.ErrorResponse "Не авторизован"
// @Router /user/profile [patch]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.user.profileupdate"

	log := h.log.With(
		slog.String("op", op),
		slog.String("request_id", middleware.GetReqID(r.Context())),
	)

	if err := r.ParseMultipartForm(maxMemory); err != nil && !errors.Is(err, http.ErrNotMultipart) {
		log.Error("failed to parse multipart form", sl.Err(err))
		response.DecodeError(w, r, err)
		return
	}
	req := models.UpdateProfileRequest{
		Name: r.FormValue("name"),
		Bio:  r.FormValue("bio"),
	}
	if err := h.validate.Struct(req); err != nil {
		log.Info("validation failed", sl.Err(err))
		response.Invalid(w, r, err)
		return
	}

	var avatar *auth.Avatar
	file, header, err := r.FormFile("avatar")
	switch {
	case err == nil:
		defer func() { _ = file.Close() }()
		avatar = &auth.Avatar{
			Filename:    header.Filename,
			ContentType: header.Header.Get("Content-Type"),
			Body:        file,
		}
	case errors.Is(err, http.ErrMissingFile), errors.Is(err, http.ErrNotMultipart):
	default:
		log.Error("failed to read avatar", sl.Err(err))
		response.DecodeError(w, r, err)
		return
	}

	user, err := h.service.UpdateProfile(r.Context(), middlewarectx.UserUIDFrom(r.Context()), req, avatar)
	if err != nil {
		log.Error("failed to update profile", sl.Err(err))
		response.RenderError(w, r, err)
		return
	}

	log.Info("profile updated", slog.String("user_uid", user.UUID))
	render.JSON(w, r, response.OK("profile updated successfully", map[string]any{"user": user}))
}
