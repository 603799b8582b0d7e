// Package params разбирает параметры пути и строки запроса.
package params

import (
	"fmt"
	"net/http"
	"strconv"

	"github.com/go-chi/chi"
	"github.com/google/uuid"

	"github.com/magabrotheeeer/learnify-backend/internal/lib/apperr"
)

// UUID возвращает параметр пути name, если это корректный UUID.
func UUID(r *http.Request, name string) (string, error) {
	raw := chi.URLParam(r, name)
	id, err := uuid.Parse(raw)
	if err != nil {
		return "", apperr.New(apperr.ErrInvalidInput, fmt.Sprintf("invalid %s", name))
	}
	return id.String(), nil
}

// Int возвращает целый параметр строки запроса или def, если параметра нет.
func Int(r *http.Request, name string, def int) (int, error) {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return def, nil
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return 0, apperr.New(apperr.ErrInvalidInput, fmt.Sprintf("%s must be a number", name))
	}
	return v, nil
}

// Float возвращает необязательный числовой параметр строки запроса.
func Float(r *http.Request, name string) (*float64, error) {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return nil, nil
	}
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil || v < 0 {
		return nil, apperr.New(apperr.ErrInvalidInput, fmt.Sprintf("%s must be a non-negative number", name))
	}
	return &v, nil
}
