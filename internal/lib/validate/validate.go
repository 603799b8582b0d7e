// Package validate настраивает go-playground/validator для запросов API.
package validate

import (
	"reflect"
	"strings"
	"unicode"

	"github.com/go-playground/validator"
)

// New возвращает валидатор с правилами password и personname.
// В ошибках поля называются по json-тегам.
func New() *validator.Validate {
	v := validator.New()
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		if name == "" {
			return f.Name
		}
		return name
	})
	_ = v.RegisterValidation("password", func(fl validator.FieldLevel) bool {
		return StrongPassword(fl.Field().String())
	})
	_ = v.RegisterValidation("personname", func(fl validator.FieldLevel) bool {
		return PersonName(fl.Field().String())
	})
	return v
}

// StrongPassword пароль содержит цифру, строчную и заглавную буквы и спецсимвол из !@#$%^&*.
func StrongPassword(s string) bool {
	var digit, lower, upper, special bool
	for _, r := range s {
		switch {
		case unicode.IsDigit(r):
			digit = true
		case unicode.IsLower(r):
			lower = true
		case unicode.IsUpper(r):
			upper = true
		case strings.ContainsRune("!@#$%^&*", r):
			special = true
		}
	}
	return digit && lower && upper && special
}

// PersonName имя состоит только из латинских букв и пробелов.
func PersonName(s string) bool {
	for _, r := range s {
		if r != ' ' && (r < 'a' || r > 'z') && (r < 'A' || r > 'Z') {
			return false
		}
	}
	return strings.TrimSpace(s) != ""
}
