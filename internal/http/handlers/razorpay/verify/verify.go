// Package verify реализует HTTP-обработчик подтверждения оплаты Razorpay.
package verify

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

// Handler проверяет подпись платежа и завершает покупку.
type Handler struct {
	log      *slog.Logger
	service  Service
	validate *validator.Validate
}

// Service описывает интерфейс бизнес-логики.
type Service interface {
	VerifyRazorpayPayment(ctx context.Context, userUID string, req models.VerifyPaymentRequest) (*models.CoursePurchase, error)
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
// @Summary Подтверждение оплаты Razorpay
// @Tags Razorpay
// @Accept  json
// @Produce  json
// @Security BearerAuth
// @Param request body models.VerifyPaymentRequest true "Данные платежа из виджета"
// @Success 200 {object} response.Response
// @Failure 400 {object} response.ErrorResponse "Ошибка валидации"
// @Failure 401 {object} response.ErrorResponse "Подпись не совпала"
// @Failure 404 {object} response.ErrorResponse "Покупка не найдена"
// @Router /razorpay/verify-payment [post]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.razorpay.verify"

	log := h.log.With(
		slog.String("op", op),
		slog.String("request_id", middleware.GetReqID(r.Context())),
	)

	var req models.VerifyPaymentRequest
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

	p, err := h.service.VerifyRazorpayPayment(r.Context(), middlewarectx.UserUIDFrom(r.Context()), req)
	if err != nil {
		log.Warn("payment verification failed", slog.String("order_id", req.OrderID), sl.Err(err))
		response.RenderError(w, r, err)
		return
	}

	log.Info("payment verified", slog.String("order_id", req.OrderID), slog.String("course_id", p.CourseID))
	render.JSON(w, r, response.OK("payment verified successfully", map[string]any{"courseId": p.CourseID}))
}
