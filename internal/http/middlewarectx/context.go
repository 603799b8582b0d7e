// Package middlewarectx содержит HTTP middleware приложения: аутентификацию
// по JWT, проверку ролей, ограничение частоты запросов и перехват паник.
// Данные аутентифицированного пользователя передаются обработчикам через контекст.
package middlewarectx

import (
	"context"

	"github.com/magabrotheeeer/learnify-backend/internal/lib/jwt"
)

// Key тип для ключей контекста HTTP-запроса.
type Key string

const (
	// UserUID ключ для идентификатора пользователя в контексте
	UserUID Key = "user_uid"
	// Role ключ для роли пользователя в контексте
	Role Key = "role"
	// Claims ключ для разобранного токена в контексте
	Claims Key = "claims"
)

// WithClaims кладёт данные токена в контекст.
func WithClaims(ctx context.Context, claims *jwt.CustomClaims) context.Context {
	ctx = context.WithValue(ctx, UserUID, claims.UserUID)
	ctx = context.WithValue(ctx, Role, claims.Role)
	return context.WithValue(ctx, Claims, claims)
}

// UserUIDFrom возвращает идентификатор пользователя или пустую строку для анонимного запроса.
func UserUIDFrom(ctx context.Context) string {
	uid, _ := ctx.Value(UserUID).(string)
	return uid
}

// RoleFrom возвращает роль пользователя из контекста.
func RoleFrom(ctx context.Context) string {
	role, _ := ctx.Value(Role).(string)
	return role
}

// ClaimsFrom возвращает разобранный токен из контекста.
func ClaimsFrom(ctx context.Context) (*jwt.CustomClaims, bool) {
	claims, ok := ctx.Value(Claims).(*jwt.CustomClaims)
	return claims, ok && claims != nil
}
