// Package cookie выставляет и удаляет cookie сессии с JWT.
package cookie

import (
	"net/http"
	"time"
)

// Config параметры cookie сессии.
type Config struct {
	Name   string
	Secure bool
}

// Set записывает токен в httpOnly cookie до момента expiresAt.
func Set(w http.ResponseWriter, cfg Config, token string, expiresAt time.Time) {
	http.SetCookie(w, &http.Cookie{
		Name:     cfg.Name,
		Value:    token,
		Path:     "/",
		Expires:  expiresAt,
		MaxAge:   int(time.Until(expiresAt).Seconds()),
		HttpOnly: true,
		Secure:   cfg.Secure,
		SameSite: sameSite(cfg.Secure),
	})
}

// Clear удаляет cookie сессии.
func Clear(w http.ResponseWriter, cfg Config) {
	http.SetCookie(w, &http.Cookie{
		Name:     cfg.Name,
		Value:    "",
		Path:     "/",
		Expires:  time.Unix(0, 0),
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   cfg.Secure,
		SameSite: sameSite(cfg.Secure),
	})
}

// Клиент живёт на другом домене, поэтому в production нужен SameSite=None.
func sameSite(secure bool) http.SameSite {
	if secure {
		return http.SameSiteNoneMode
	}
	return http.SameSiteLaxMode
}
