// Package webhook реализует приём событий Stripe.
//
// Тело читается целиком без разбора: подпись Stripe-Signature
// проверяется по исходным байтам.
package webhook

import (
	"context"
	"io"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"

	"github.com/magabrotheeeer/learnify-backend/internal/http/response"
	"github.com/magabrotheeeer/learnify-backend/internal/lib/sl"
	"github.com/magabrotheeeer/learnify-backend/internal/services/purchase"
)

// SignatureHeader заголовок с подписью события Stripe.
const SignatureHeader = "Stripe-Signature"

// Service описывает интерфейс обработки событий.
type Service interface {
	HandleStripeEvent(ctx context.Context, payload []byte, signature string) (*purchase.WebhookResult, error)
}

// Handler принимает webhook Stripe.
type Handler struct {
	log     *slog.Logger
	service Service
}

// New создает новый экземпляр Handler.
func New(log *slog.Logger, service Service) *Handler {
	return &Handler{log: log, service: service}
}

// ServeHTTP godoc
// @Summary Webhook Stripe
// @Tags Purchase
// @Accept  json
// @Produce  json
// @Param Stripe-Signature header string true "Подпись события"
// @Success 200 {object} response.Response
// @Failure 400 {object} response.ErrorResponse "Некорректное тело"
// @Failure 401 {object} response.ErrorResponse "Подпись не прошла проверку"
// @Failure 404 {object} response.ErrorResponse "Покупка не найдена"
// @Router /purchase/webhook [post]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.purchase.webhook"

	log := h.log.With(
		slog.String("op", op),
		slog.String("request_id", middleware.GetReqID(r.Context())),
	)

	payload, err := io.ReadAll(r.Body)
	if err != nil {
		log.Error("failed to read webhook body", sl.Err(err))
		response.DecodeError(w, r, err)
		return
	}

	result, err := h.service.HandleStripeEvent(r.Context(), payload, r.Header.Get(SignatureHeader))
	if err != nil {
		log.Error("failed to process webhook event", sl.Err(err))
		response.RenderError(w, r, err)
		return
	}

	log.Info("webhook processed",
		slog.String("event_id", result.EventID),
		slog.String("type", result.Type),
		slog.Bool("processed", result.Processed))
	render.JSON(w, r, response.OK("", map[string]any{"received": true}))
}
