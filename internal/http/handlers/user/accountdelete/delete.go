// Package accountdelete реализует HTTP-обработчик удаления аккаунта.
package accountdelete

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

// Handler деактивирует аккаунт текущего пользователя.
type Handler struct {
	log     *slog.Logger
	service Service
	cookie  cookie.Config
}

// Service описывает интерфейс бизнес-логики удаления аккаунта.
type Service interface {
	DeleteAccount(ctx context.Context, claims *jwt.CustomClaims) error
}

// New создает новый экземпляр Handler.
func New(log *slog.Logger, service Service, cookieCfg cookie.Config) *Handler {
	return &Handler{log: log, service: service, cookie: cookieCfg}
}

// ServeHTTP godoc
// @Summary Удаление аккаунта
// @Tags User
// @Produce  json
// @Security BearerAuth
// @Success 200 {object} response.Response
// @Failure 401 {object} response.ErrorResponse "Не авторизован"
// @Router /user/account [delete]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.user.accountdelete"

	log := h.log.With(
		slog.String("op", op),
		slog.String("request_id", middleware.GetReqID(r.Context())),
	)

	claims, ok := middlewarectx.ClaimsFrom(r.Context())
	if !ok {
		render.Status(r, http.StatusUnauthorized)
		render.JSON(w, r, response.Error("not authenticated"))
		return
	}
	if err := h.service.DeleteAccount(r.Context(), claims); err != nil {
		log.Error("failed to delete account", sl.Err(err))
		response.RenderError(w, r, err)
		return
	}

	cookie.Clear(w, h.cookie)
	log.Info("account deleted", slog.String("user_uid", claims.UserUID))
	render.JSON(w, r, response.OK("account deleted successfully", nil))
}
