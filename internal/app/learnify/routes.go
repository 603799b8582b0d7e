package learnify

import (
	"log/slog"

	"github.com/go-chi/chi"
	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/cors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	httpSwagger "github.com/swaggo/http-swagger"

	"github.com/magabrotheeeer/learnify-backend/internal/config"
	"github.com/magabrotheeeer/learnify-backend/internal/http/cookie"
	"github.com/magabrotheeeer/learnify-backend/internal/http/handlers/auth/signin"
	"github.com/magabrotheeeer/learnify-backend/internal/http/handlers/auth/signout"
	"github.com/magabrotheeeer/learnify-backend/internal/http/handlers/auth/signup"
	"github.com/magabrotheeeer/learnify-backend/internal/http/handlers/course/create"
	"github.com/magabrotheeeer/learnify-backend/internal/http/handlers/course/details"
	"github.com/magabrotheeeer/learnify-backend/internal/http/handlers/course/lectureadd"
	"github.com/magabrotheeeer/learnify-backend/internal/http/handlers/course/lectures"
	"github.com/magabrotheeeer/learnify-backend/internal/http/handlers/course/mine"
	"github.com/magabrotheeeer/learnify-backend/internal/http/handlers/course/published"
	"github.com/magabrotheeeer/learnify-backend/internal/http/handlers/course/search"
	"github.com/magabrotheeeer/learnify-backend/internal/http/handlers/course/thumbnail"
	courseupdate "github.com/magabrotheeeer/learnify-backend/internal/http/handlers/course/update"
	"github.com/magabrotheeeer/learnify-backend/internal/http/handlers/health"
	"github.com/magabrotheeeer/learnify-backend/internal/http/handlers/media/upload"
	progresscomplete "github.com/magabrotheeeer/learnify-backend/internal/http/handlers/progress/complete"
	progressget "github.com/magabrotheeeer/learnify-backend/internal/http/handlers/progress/get"
	progresslecture "github.com/magabrotheeeer/learnify-backend/internal/http/handlers/progress/lecture"
	progressreset "github.com/magabrotheeeer/learnify-backend/internal/http/handlers/progress/reset"
	"github.com/magabrotheeeer/learnify-backend/internal/http/handlers/purchase/checkout"
	purchaselist "github.com/magabrotheeeer/learnify-backend/internal/http/handlers/purchase/list"
	purchasestatus "github.com/magabrotheeeer/learnify-backend/internal/http/handlers/purchase/status"
	"github.com/magabrotheeeer/learnify-backend/internal/http/handlers/purchase/webhook"
	"github.com/magabrotheeeer/learnify-backend/internal/http/handlers/razorpay/createorder"
	"github.com/magabrotheeeer/learnify-backend/internal/http/handlers/razorpay/verify"
	"github.com/magabrotheeeer/learnify-backend/internal/http/handlers/user/accountdelete"
	"github.com/magabrotheeeer/learnify-backend/internal/http/handlers/user/passwordchange"
	"github.com/magabrotheeeer/learnify-backend/internal/http/handlers/user/passwordforgot"
	"github.com/magabrotheeeer/learnify-backend/internal/http/handlers/user/passwordreset"
	"github.com/magabrotheeeer/learnify-backend/internal/http/handlers/user/profile"
	"github.com/magabrotheeeer/learnify-backend/internal/http/handlers/user/profileupdate"
	"github.com/magabrotheeeer/learnify-backend/internal/http/middlewarectx"
	"github.com/magabrotheeeer/learnify-backend/internal/metrics"
	"github.com/magabrotheeeer/learnify-backend/internal/models"
)

// webhookBodyLimit размер события Stripe с запасом.
const webhookBodyLimit = 64 << 10

// Deps зависимости маршрутов.
type Deps struct {
	Services Services
	Media    upload.Storage
	DB       health.Pinger
	Cache    health.Pinger
	Metrics  *metrics.Metrics
}

// RegisterRoutes регистрирует все маршруты приложения.
func RegisterRoutes(r chi.Router, cfg *config.Config, logger *slog.Logger, deps Deps) {
	svc := deps.Services
	cookieCfg := cookie.Config{Name: cfg.CookieName, Secure: !cfg.IsDev()}
	requireAuth := middlewarectx.JWTMiddleware(svc.Auth, cfg.CookieName, logger)
	optionalAuth := middlewarectx.OptionalAuth(svc.Auth, cfg.CookieName, logger)
	instructorOnly := middlewarectx.RestrictTo(logger, models.RoleInstructor)
	jsonLimit := middlewarectx.BodyLimit(cfg.MaxBodyBytes)
	uploadLimit := middlewarectx.BodyLimit(cfg.MaxUploadBytes)

	// Глобальные middleware
	r.Use(
		middleware.RequestID,
		middleware.RealIP,
		middleware.Logger,
		middlewarectx.Recoverer(logger, cfg.IsDev()),
		deps.Metrics.Middleware,
		cors.Handler(cors.Options{
			AllowedOrigins:   []string{cfg.ClientURL},
			AllowedMethods:   []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
			AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-Request-Id"},
			AllowCredentials: true,
			MaxAge:           300,
		}),
	)

	r.Route("/api", func(r chi.Router) {
		r.Use(middlewarectx.NewRateLimiter(cfg.RateLimit, logger).Middleware)

		r.Route("/v1", func(r chi.Router) {
			r.Get("/health", health.New(logger, deps.DB, deps.Cache).ServeHTTP)

			// Webhook Stripe без аутентификации, подпись проверяется по сырому телу
			r.With(middlewarectx.BodyLimit(webhookBodyLimit)).
				Post("/purchase/webhook", webhook.New(logger, svc.Purchase).ServeHTTP)

			// Открытые конечные точки
			r.Group(func(r chi.Router) {
				r.Use(jsonLimit)
				r.Post("/user/signup", signup.New(logger, svc.Auth).ServeHTTP)
				r.Post("/user/signin", signin.New(logger, svc.Auth, cookieCfg).ServeHTTP)
				r.Post("/user/forgot-password", passwordforgot.New(logger, svc.Auth).ServeHTTP)
				r.Post("/user/reset-password/{token}", passwordreset.New(logger, svc.Auth).ServeHTTP)
				r.Get("/course/published", published.New(logger, svc.Course).ServeHTTP)
				r.Get("/course/search", search.New(logger, svc.Course).ServeHTTP)
			})

			// Каталог доступен гостям, авторизация раскрывает купленные лекции
			r.Group(func(r chi.Router) {
				r.Use(optionalAuth)
				r.Get("/course/c/{courseId}", details.New(logger, svc.Course).ServeHTTP)
				r.Get("/course/c/{courseId}/lectures", lectures.New(logger, svc.Course).ServeHTTP)
			})

			// Группа с JWT аутентификацией
			r.Group(func(r chi.Router) {
				r.Use(requireAuth)

				r.With(uploadLimit).Patch("/user/profile", profileupdate.New(logger, svc.Auth).ServeHTTP)

				r.Group(func(r chi.Router) {
					r.Use(jsonLimit)
					r.Post("/user/signout", signout.New(logger, svc.Auth, cookieCfg).ServeHTTP)
					r.Get("/user/profile", profile.New(logger, svc.Auth).ServeHTTP)
					r.Patch("/user/change-password", passwordchange.New(logger, svc.Auth).ServeHTTP)
					r.Delete("/user/account", accountdelete.New(logger, svc.Auth, cookieCfg).ServeHTTP)

					r.Post("/purchase/checkout/session", checkout.New(logger, svc.Purchase).ServeHTTP)
					r.Get("/purchase/{courseId}/status", purchasestatus.New(logger, svc.Purchase).ServeHTTP)
					r.Get("/purchase", purchaselist.New(logger, svc.Purchase).ServeHTTP)
					r.Post("/razorpay/create-order", createorder.New(logger, svc.Purchase).ServeHTTP)
					r.Post("/razorpay/verify-payment", verify.New(logger, svc.Purchase).ServeHTTP)

					r.Get("/progress/{courseId}", progressget.New(logger, svc.Progress).ServeHTTP)
					r.Patch("/progress/{courseId}/lectures/{lectureId}", progresslecture.New(logger, svc.Progress).ServeHTTP)
					r.Patch("/progress/{courseId}/complete", progresscomplete.New(logger, svc.Progress).ServeHTTP)
					r.Patch("/progress/{courseId}/reset", progressreset.New(logger, svc.Progress).ServeHTTP)
				})

				// Только для преподавателей
				r.Group(func(r chi.Router) {
					r.Use(instructorOnly)

					r.Group(func(r chi.Router) {
						r.Use(jsonLimit)
						r.Post("/course", create.New(logger, svc.Course).ServeHTTP)
						r.Get("/course", mine.New(logger, svc.Course).ServeHTTP)
						r.Patch("/course/c/{courseId}", courseupdate.New(logger, svc.Course).ServeHTTP)
						r.Post("/course/c/{courseId}/lectures", lectureadd.New(logger, svc.Course).ServeHTTP)
					})

					r.Group(func(r chi.Router) {
						r.Use(uploadLimit)
						r.Patch("/course/c/{courseId}/thumbnail", thumbnail.New(logger, svc.Course).ServeHTTP)
						r.Post("/media/upload-video", upload.New(logger, deps.Media).ServeHTTP)
					})
				})
			})
		})
	})

	r.Handle("/metrics", promhttp.Handler())
	// Swagger docs endpoint
	r.Get("/docs/*", httpSwagger.WrapHandler)
}
