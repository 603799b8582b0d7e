// Package signout реализует HTTP-обработчик выхода пользователя.
package signout

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"

	"github.com/magabrotheeeer/learnify-backend/internal/http/cookie"
	"github.com/magabrotheeeer/learnify-backend/internal/http/middlewarectx"
	"github.com/magabrotheeeer/learnify-backend/internal/http/response"
	"github.com/magabrotheeeer/learnify-backend/internal/lib/jwt"
	"github.com/magabrotheeeer/learnify-backend/internal/lib/sl"
)

// Handler отзывает токен и удаляет cookie сессии.
type Handler struct {
	log     *slog.Logger
	service Service
	cookie  cookie.Config
}

// Service описывает интерфейс бизнес-логики выхода.
type Service interface {
	Signout(ctx context.Context, claims *jwt.CustomClaims) error
}

// New создает новый экземпляр Handler.
func New(log *slog.Logger, service Service, cookieCfg cookie.Config) *Handler {
	return &Handler{
		log:     log,
		service: service,
		cookie:  cookieCfg,
	}
}

// ServeHTTP godoc
// @Summary Выход пользователя
// @Tags User
// @Produce  json
// @Security BearerAuth
// @Success 200 {object} response.Response
// @Failure 401 {object} response.ErrorResponse "Не авторизован"
// @Router /user/signout [post]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.auth.signout"

	log := h.log.With(
		slog.String("op", op),
		slog.String("request_id", middleware.GetReqID(r.Context())),
	)

	claims, _ := middlewarectx.ClaimsFrom(r.Context())
	if err := h.service.Signout(r.Context(), claims); err != nil {
		log.Error("failed to revoke token", sl.Err(err))
		response.RenderError(w, r, err)
		return
	}

	cookie.Clear(w, h.cookie)
	render.JSON(w, r, response.OK("user signed out successfully", nil))
}
