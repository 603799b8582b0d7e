// Package learnify собирает зависимости и запускает HTTP-сервер маркетплейса курсов.
package learnify

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/magabrotheeeer/learnify-backend/internal/cache"
	"github.com/magabrotheeeer/learnify-backend/internal/config"
	"github.com/magabrotheeeer/learnify-backend/internal/lib/jwt"
	"github.com/magabrotheeeer/learnify-backend/internal/lib/sl"
	"github.com/magabrotheeeer/learnify-backend/internal/lib/smtp"
	"github.com/magabrotheeeer/learnify-backend/internal/media"
	"github.com/magabrotheeeer/learnify-backend/internal/metrics"
	"github.com/magabrotheeeer/learnify-backend/internal/migrations"
	"github.com/magabrotheeeer/learnify-backend/internal/paymentgateway"
	authservice "github.com/magabrotheeeer/learnify-backend/internal/services/auth"
	courseservice "github.com/magabrotheeeer/learnify-backend/internal/services/course"
	progressservice "github.com/magabrotheeeer/learnify-backend/internal/services/progress"
	purchaseservice "github.com/magabrotheeeer/learnify-backend/internal/services/purchase"
	"github.com/magabrotheeeer/learnify-backend/internal/services/scheduler"
	senderservice "github.com/magabrotheeeer/learnify-backend/internal/services/sender"
	"github.com/magabrotheeeer/learnify-backend/internal/storage/repository"
)

const shutdownTimeout = 15 * time.Second

// App HTTP-приложение со всеми внешними подключениями.
type App struct {
	server    *http.Server
	scheduler *scheduler.Service
	logger    *slog.Logger
	db        *repository.Storage
	cache     *cache.Cache
	media     *media.Storage
}

// Services сервисы, которые обслуживают маршруты.
type Services struct {
	Auth     *authservice.Service
	Course   *courseservice.Service
	Purchase *purchaseservice.Service
	Progress *progressservice.Service
}

// New подключается к базе, Redis и хранилищу, применяет миграции и собирает роутер.
func New(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*App, error) {
	const op = "app.learnify.New"

	db, err := repository.New(cfg.StorageConnectionString)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	version, err := migrations.Run(db.DB, cfg.MigrationsPath)
	if err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	logger.Info("database schema is up to date", slog.Uint64("version", uint64(version)))

	cacheRedis, err := cache.InitServer(ctx, cfg.RedisConnection)
	if err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	mediaStorage, err := media.New(ctx, cfg.GCS, logger)
	if err != nil {
		_ = cacheRedis.Close()
		_ = db.Close()
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	m := metrics.New(prometheus.DefaultRegisterer)
	mailer := senderservice.NewSenderService(smtp.NewTransport(cfg.SMTP, logger), cfg.ClientURL, logger)
	stripeGateway := paymentgateway.NewStripe(cfg.Stripe, cfg.ClientURL, nil)
	razorpayGateway := paymentgateway.NewRazorpay(cfg.Razorpay)

	services := Services{
		Auth:     authservice.New(db, jwt.NewJWTMaker(cfg.JWTSecretKey, cfg.TokenTTL), cacheRedis, mailer, mediaStorage, logger),
		Course:   courseservice.New(db, mediaStorage, cacheRedis, logger),
		Purchase: purchaseservice.New(db, stripeGateway, razorpayGateway, cacheRedis, m, logger),
		Progress: progressservice.New(db, m, logger),
	}

	router := chi.NewRouter()
	RegisterRoutes(router, cfg, logger, Deps{
		Services: services,
		Media:    mediaStorage,
		DB:       db,
		Cache:    cacheRedis,
		Metrics:  m,
	})

	srv := &http.Server{
		Addr:         cfg.AddressHTTP,
		Handler:      router,
		ReadTimeout:  cfg.TimeoutHTTP,
		WriteTimeout: cfg.TimeoutHTTP,
		IdleTimeout:  cfg.IdleTimeout,
	}

	return &App{
		server:    srv,
		scheduler: scheduler.New(db, cfg.Scheduler, logger),
		logger:    logger,
		db:        db,
		cache:     cacheRedis,
		media:     mediaStorage,
	}, nil
}

// Run обслуживает запросы и запускает очистку покупок до отмены ctx,
// после чего завершает сервер и закрывает подключения.
func (a *App) Run(ctx context.Context) error {
	schedCtx, stopScheduler := context.WithCancel(ctx)
	schedDone := make(chan struct{})
	go func() {
		defer close(schedDone)
		a.scheduler.Run(schedCtx)
	}()

	errCh := make(chan error, 1)
	go func() {
		a.logger.Info("HTTP server starting", slog.String("address", a.server.Addr))
		err := a.server.ListenAndServe()
		if errors.Is(err, http.ErrServerClosed) {
			errCh <- nil
		} else {
			errCh <- err
		}
	}()

	var err error
	select {
	case err = <-errCh:
	case <-ctx.Done():
		timeoutCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		a.logger.Info("shutting down HTTP server gracefully")
		err = a.server.Shutdown(timeoutCtx)
	}

	stopScheduler()
	<-schedDone
	a.close()
	return err
}

func (a *App) close() {
	if err := a.media.Close(); err != nil {
		a.logger.Warn("failed to close media storage", sl.Err(err))
	}
	if err := a.cache.Close(); err != nil {
		a.logger.Warn("failed to close redis", sl.Err(err))
	}
	if err := a.db.Close(); err != nil {
		a.logger.Warn("failed to close database", sl.Err(err))
	}
}
