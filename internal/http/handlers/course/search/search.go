// Package search реализует HTTP-обработчик поиска по каталогу курсов.
package search

import (
	"context"
	"log/slog"
	"net/http"
	"strings"

	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"

	"github.com/magabrotheeeer/learnify-backend/internal/http/params"
	"github.com/magabrotheeeer/learnify-backend/internal/http/response"
	"github.com/magabrotheeeer/learnify-backend/internal/lib/apperr"
	"github.com/magabrotheeeer/learnify-backend/internal/lib/sl"
	"github.com/magabrotheeeer/learnify-backend/internal/models"
	"github.com/magabrotheeeer/learnify-backend/internal/services/course"
)

var sortOptions = map[string]bool{
	"":           true,
	"newest":     true,
	"price-low":  true,
	"price-high": true,
	"title":      true,
}

var levels = map[string]bool{
	"":                       true,
	models.LevelBeginner:     true,
	models.LevelIntermediate: true,
	models.LevelAdvanced:     true,
}

// Handler ищет опубликованные курсы.
type Handler struct {
	log     *slog.Logger
	service Service
}

// Service описывает интерфейс бизнес-логики поиска.
type Service interface {
	Search(ctx context.Context, p course.SearchParams) (*course.Page, error)
}

// New создает новый экземпляр Handler.
func New(log *slog.Logger, service Service) *Handler {
	return &Handler{log: log, service: service}
}

// ServeHTTP godoc
// @Summary Поиск курсов
// @Tags Course
// @Produce  json
// @Param query query string false "Текст в названии, подзаголовке или описании"
// @Param category query string false "Категория"
// @Param level query string false "beginner, intermediate или advanced"
// @Param minPrice query number false "Минимальная цена"
// @Param maxPrice query number false "Максимальная цена"
// @Param sortBy query string false "newest, price-low, price-high, title"
// @Param page query int false "Номер страницы" default(1)
// @Param limit query int false "Размер страницы" default(10)
// @Success 200 {object} response.Response
// @Failure 400 {object} response.ErrorResponse "Некорректные параметры"
// @Router /course/search [get]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.course.search"

	log := h.log.With(
		slog.String("op", op),
		slog.String("request_id", middleware.GetReqID(r.Context())),
	)

	p, err := parseParams(r)
	if err != nil {
		log.Info("invalid search parameters", sl.Err(err))
		response.RenderError(w, r, err)
		return
	}

	result, err := h.service.Search(r.Context(), p)
	if err != nil {
		log.Error("search failed", sl.Err(err))
		response.RenderError(w, r, err)
		return
	}
	render.JSON(w, r, response.OK("", result))
}

func parseParams(r *http.Request) (course.SearchParams, error) {
	q := r.URL.Query()
	p := course.SearchParams{
		Query:    strings.TrimSpace(q.Get("query")),
		Category: strings.TrimSpace(q.Get("category")),
		Level:    q.Get("level"),
		SortBy:   q.Get("sortBy"),
	}
	if !levels[p.Level] {
		return p, apperr.New(apperr.ErrInvalidInput, "level must be one of: beginner intermediate advanced")
	}
	if !sortOptions[p.SortBy] {
		return p, apperr.New(apperr.ErrInvalidInput, "sortBy must be one of: newest price-low price-high title")
	}

	var err error
	if p.PriceMin, err = params.Float(r, "minPrice"); err != nil {
		return p, err
	}
	if p.PriceMax, err = params.Float(r, "maxPrice"); err != nil {
		return p, err
	}
	if p.Page, err = params.Int(r, "page", 1); err != nil {
		return p, err
	}
	if p.Limit, err = params.Int(r, "limit", course.DefaultLimit); err != nil {
		return p, err
	}
	return p, nil
}
