// Package checkout реализует HTTP-обработчик создания сессии оплаты Stripe.
package checkout

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
	"github.com/magabrotheeeer/learnify-backend/internal/services/purchase"
)

// Handler начинает покупку курса через Stripe Checkout.
type Handler struct {
	log      *slog.Logger
	service  Service
	validate *validator.Validate
}

// Service описывает интерфейс бизнес-логики покупки.
type Service interface {
	InitiateStripeCheckout(ctx context.Context, userUID, courseID string) (*purchase.CheckoutResult, error)
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
// @Summary Оплата курса через Stripe
// @Description Создаёт сессию Stripe Checkout и ожидающую покупку. Клиент переходит по checkoutUrl.
// @Tags Purchase
// @Accept  json
// @Produce  json
// @Security BearerAuth
// @Param request body models.CourseIDRequest true "ID курса"
// @Success 200 {object} response.Response
// @Failure 400 {object} response.ErrorResponse "Ошибка валидации"
// @Failure 404 {object} response.ErrorResponse "Курс не найден"
// @Failure 409 {object} response.ErrorResponse "Курс уже куплен"
// @Router /purchase/checkout/session [post]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.purchase.checkout"

	log := h.log.With(
		slog.String("op", op),
		slog.String("request_id", middleware.GetReqID(r.Context())),
	)

	var req models.CourseIDRequest
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

	result, err := h.service.InitiateStripeCheckout(r.Context(), middlewarectx.UserUIDFrom(r.Context()), req.CourseID)
	if err != nil {
		log.Error("failed to create checkout session", slog.String("course_id", req.CourseID), sl.Err(err))
		response.RenderError(w, r, err)
		return
	}

	log.Info("checkout session created", slog.String("session_id", result.SessionID))
	render.JSON(w, r, response.OK("checkout session created", result))
}
