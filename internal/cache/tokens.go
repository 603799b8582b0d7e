package cache

import (
	"context"
	"time"
)

const revokedTokenPrefix = "auth:revoked:"

// RevokeToken помечает jti отозванным до истечения срока действия токена.
func (c *Cache) RevokeToken(ctx context.Context, tokenID string, expiresAt time.Time) error {
	ttl := time.Until(expiresAt)
	if ttl <= 0 {
		return nil
	}
	_, err := c.MarkOnce(ctx, revokedTokenPrefix+tokenID, ttl)
	return err
}

// IsTokenRevoked проверяет, был ли jti отозван при выходе пользователя.
func (c *Cache) IsTokenRevoked(ctx context.Context, tokenID string) (bool, error) {
	return c.Exists(ctx, revokedTokenPrefix+tokenID)
}
