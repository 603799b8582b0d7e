// Package apperr содержит прикладные ошибки сервиса и их соответствие HTTP-статусам.
package apperr

import (
	"errors"
	"net/http"
)

// Базовые категории ошибок. Сервисы оборачивают их через fmt.Errorf("%w").
var (
	ErrNotFound         = errors.New("not found")
	ErrAlreadyExists    = errors.New("already exists")
	ErrConflict         = errors.New("conflict")
	ErrForbidden        = errors.New("forbidden")
	ErrUnauthorized     = errors.New("unauthorized")
	ErrInvalidSignature = errors.New("invalid signature")
	ErrInvalidInput     = errors.New("invalid input")
)

// Error ошибка с сообщением для клиента. Err определяет HTTP-статус.
type Error struct {
	Msg string
	Err error
}

func (e *Error) Error() string {
	if e.Err == nil {
		return e.Msg
	}
	return e.Msg + ": " + e.Err.Error()
}

func (e *Error) Unwrap() error { return e.Err }

// New создаёт ошибку категории kind с сообщением для клиента.
func New(kind error, msg string) *Error {
	return &Error{Msg: msg, Err: kind}
}

// WithMessage добавляет сообщение для клиента, если err относится к категории kind.
// Остальные ошибки возвращаются без изменений.
func WithMessage(err, kind error, msg string) error {
	if err == nil || !errors.Is(err, kind) {
		return err
	}
	return &Error{Msg: msg, Err: err}
}

// Status возвращает HTTP-статус для ошибки. Неизвестные ошибки дают 500.
func Status(err error) int {
	switch {
	case err == nil:
		return http.StatusOK
	case errors.Is(err, ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, ErrAlreadyExists), errors.Is(err, ErrConflict):
		return http.StatusConflict
	case errors.Is(err, ErrForbidden):
		return http.StatusForbidden
	case errors.Is(err, ErrUnauthorized), errors.Is(err, ErrInvalidSignature):
		return http.StatusUnauthorized
	case errors.Is(err, ErrInvalidInput):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

// Message возвращает безопасный для клиента текст ошибки.
func Message(err error) string {
	var appErr *Error
	if errors.As(err, &appErr) {
		return appErr.Msg
	}
	switch Status(err) {
	case http.StatusNotFound:
		return "resource not found"
	case http.StatusConflict:
		return "resource already exists"
	case http.StatusForbidden:
		return "access denied"
	case http.StatusUnauthorized:
		return "unauthorized"
	case http.StatusBadRequest:
		return "invalid input"
	default:
		return "internal error"
	}
}
