// Package response содержит вспомогательные типы и функции для формирования
// унифицированных JSON‑ответов HTTP‑обработчиков.
package response

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/go-chi/render"
	"github.com/go-playground/validator"

	"github.com/magabrotheeeer/learnify-backend/internal/lib/apperr"
)

// Response описывает стандартную структуру JSON‑ответа сервера.
// Stack заполняется только в режиме разработки при панике обработчика.
type Response struct {
	Success bool         `json:"success"`
	Message string       `json:"message,omitempty"`
	Data    any          `json:"data,omitempty"`
	Errors  []FieldError `json:"errors,omitempty"`
	Stack   string       `json:"stack,omitempty"`
}

// FieldError ошибка валидации одного поля запроса.
type FieldError struct {
	Path    string `json:"path"`
	Message string `json:"message"`
}

// ErrorResponse структура ошибки для Swagger-документации.
type ErrorResponse struct {
	Success bool   `json:"success" example:"false"`
	Message string `json:"message" example:"course not found"`
}

// OK возвращает успешный Response с сообщением и данными.
func OK(msg string, data any) Response {
	return Response{
		Success: true,
		Message: msg,
		Data:    data,
	}
}

// Error возвращает Response с ошибкой и переданным сообщением.
func Error(msg string) Response {
	return Response{
		Success: false,
		Message: msg,
	}
}

// ValidationError формирует ответ со списком нарушений по полям.
func ValidationError(errs validator.ValidationErrors) Response {
	fields := make([]FieldError, 0, len(errs))
	for _, err := range errs {
		fields = append(fields, FieldError{Path: err.Field(), Message: fieldMessage(err)})
	}
	return Response{
		Success: false,
		Message: "validation failed",
		Errors:  fields,
	}
}

func fieldMessage(err validator.FieldError) string {
	switch err.ActualTag() {
	case "required":
		return fmt.Sprintf("%s is required", err.Field())
	case "email":
		return "invalid email address"
	case "uuid":
		return fmt.Sprintf("%s must be a valid id", err.Field())
	case "url":
		return fmt.Sprintf("%s must be a valid URL", err.Field())
	case "min":
		return fmt.Sprintf("%s must be at least %s characters", err.Field(), err.Param())
	case "max":
		return fmt.Sprintf("%s must be at most %s characters", err.Field(), err.Param())
	case "gte":
		return fmt.Sprintf("%s must be greater than or equal to %s", err.Field(), err.Param())
	case "oneof":
		return fmt.Sprintf("%s must be one of: %s", err.Field(), err.Param())
	case "password":
		return "password must contain at least one uppercase letter, one lowercase letter, one number and one special character"
	case "personname":
		return "name can only contain letters and spaces"
	case "nefield":
		return "new password must be different from current password"
	default:
		return fmt.Sprintf("%s is not valid", err.Field())
	}
}

// FromError переводит ошибку сервиса в HTTP-статус и тело ответа.
// Внутренние детали ошибок клиенту не передаются.
func FromError(err error) (int, Response) {
	return apperr.Status(err), Error(apperr.Message(err))
}

// RenderError отправляет клиенту ответ для ошибки сервиса.
func RenderError(w http.ResponseWriter, r *http.Request, err error) {
	status, resp := FromError(err)
	render.Status(r, status)
	render.JSON(w, r, resp)
}

// DecodeError ответ на тело запроса, которое не удалось разобрать.
func DecodeError(w http.ResponseWriter, r *http.Request, err error) {
	var maxErr *http.MaxBytesError
	if errors.As(err, &maxErr) {
		render.Status(r, http.StatusRequestEntityTooLarge)
		render.JSON(w, r, Error("request body too large"))
		return
	}
	render.Status(r, http.StatusBadRequest)
	render.JSON(w, r, Error("invalid request body"))
}

// Invalid отправляет ответ на ошибку валидации запроса.
func Invalid(w http.ResponseWriter, r *http.Request, err error) {
	render.Status(r, http.StatusBadRequest)
	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) {
		render.JSON(w, r, ValidationError(verrs))
		return
	}
	render.JSON(w, r, Error("invalid request"))
}
