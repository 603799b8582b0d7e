// Package signin реализует HTTP-обработчик входа пользователя.
//
// При успешной аутентификации токен записывается в httpOnly cookie
// и дублируется в теле ответа для клиентов с заголовком Authorization.
package signin

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"
	"github.com/go-playground/validator"

	"github.com/magabrotheeeer/learnify-backend/internal/http/cookie"
	"github.com/magabrotheeeer/learnify-backend/internal/http/response"
	"github.com/magabrotheeeer/learnify-backend/internal/lib/sl"
	"github.com/magabrotheeeer/learnify-backend/internal/lib/validate"
	"github.com/magabrotheeeer/learnify-backend/internal/models"
	"github.com/magabrotheeeer/learnify-backend/internal/services/auth"
)

// Handler обрабатывает HTTP-запросы для авторизации.
type Handler struct {
	log      *slog.Logger
	service  Service
	cookie   cookie.Config
	validate *validator.Validate
}

// Service описывает интерфейс бизнес-логики аутентификации.
type Service interface {
	Signin(ctx context.Context, req models.SigninRequest) (*auth.Session, error)
}

// New создает новый экземпляр Handler.
func New(log *slog.Logger, service Service, cookieCfg cookie.Config) *Handler {
	return &Handler{
		log:      log,
		service:  service,
		cookie:   cookieCfg,
		validate: validate.New(),
	}
}

// ServeHTTP godoc
// @Summary Вход пользователя
// @Description Проверяет email и пароль, выставляет cookie сессии и возвращает JWT.
// @Tags User
// @Accept  json
// @Produce  json
// @Param request body models.SigninRequest true "Учетные данные пользователя"
// @Success 200 {object} response.Response "Успешная авторизация"
// @Failure 400 {object} response.ErrorResponse "Ошибка валидации"
// @Failure 401 {object} response.ErrorResponse "Неверные учетные данные"
// @Failure 500 {object} response.ErrorResponse "Внутренняя ошибка сервера"
// @Router /user/signin [post]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.auth.signin"

	log := h.log.With(
		slog.String("op", op),
		slog.String("request_id", middleware.GetReqID(r.Context())),
	)

	var req models.SigninRequest
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

	session, err := h.service.Signin(r.Context(), req)
	if err != nil {
		log.Info("signin failed", sl.Err(err))
		response.RenderError(w, r, err)
		return
	}

	cookie.Set(w, h.cookie, session.Token, session.ExpiresAt)
	log.Info("signin success", slog.String("user_uid", session.User.UUID))
	render.JSON(w, r, response.OK("user signed in successfully", map[string]any{
		"user":  session.User,
		"token": session.Token,
	}))
}
