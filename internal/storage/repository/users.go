package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/magabrotheeeer/learnify-backend/internal/models"
)

const userColumns = `uid, name, email, password_hash, role, avatar, bio, is_active,
	last_active, reset_token_hash, reset_token_expires_at, created_at, updated_at`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanUser(row rowScanner) (*models.User, error) {
	u := &models.User{}
	var resetHash sql.NullString
	var resetExpires sql.NullTime
	if err := row.Scan(&u.UUID, &u.Name, &u.Email, &u.PasswordHash, &u.Role, &u.Avatar, &u.Bio,
		&u.IsActive, &u.LastActive, &resetHash, &resetExpires, &u.CreatedAt, &u.UpdatedAt); err != nil {
		return nil, err
	}
	if resetHash.Valid {
		u.ResetTokenHash = &resetHash.String
	}
	if resetExpires.Valid {
		u.ResetTokenExpiresAt = &resetExpires.Time
	}
	return u, nil
}

// CreateUser сохраняет нового пользователя и возвращает его UID.
// Занятый email возвращает apperr.ErrAlreadyExists.
func (s *Storage) CreateUser(ctx context.Context, user models.User) (string, error) {
	const op = "storage.CreateUser"
	if err := checkCtx(ctx, op); err != nil {
		return "", err
	}

	var uid string
	query := `INSERT INTO users (name, email, password_hash, role)
			  VALUES ($1, $2, $3, $4)
			  RETURNING uid`
	if err := s.DB.QueryRowContext(ctx, query,
		user.Name, user.Email, user.PasswordHash, user.Role).Scan(&uid); err != nil {
		return "", wrapErr(op, err)
	}
	return uid, nil
}

// GetUserByID возвращает пользователя по UID.
func (s *Storage) GetUserByID(ctx context.Context, userUID string) (*models.User, error) {
	const op = "storage.GetUserByID"
	if err := checkCtx(ctx, op); err != nil {
		return nil, err
	}

	row := s.DB.QueryRowContext(ctx, `SELECT `+userColumns+` FROM users WHERE uid = $1`, userUID)
	u, err := scanUser(row)
	if err != nil {
		return nil, wrapErr(op, err)
	}
	return u, nil
}

// GetUserByEmail возвращает пользователя по email.
func (s *Storage) GetUserByEmail(ctx context.Context, email string) (*models.User, error) {
	const op = "storage.GetUserByEmail"
	if err := checkCtx(ctx, op); err != nil {
		return nil, err
	}

	row := s.DB.QueryRowContext(ctx, `SELECT `+userColumns+` FROM users WHERE email = $1`, email)
	u, err := scanUser(row)
	if err != nil {
		return nil, wrapErr(op, err)
	}
	return u, nil
}

// GetUserByResetToken ищет активного пользователя с непросроченным токеном сброса пароля.
func (s *Storage) GetUserByResetToken(ctx context.Context, tokenHash string, now time.Time) (*models.User, error) {
	const op = "storage.GetUserByResetToken"
	if err := checkCtx(ctx, op); err != nil {
		return nil, err
	}

	query := `SELECT ` + userColumns + ` FROM users
			  WHERE reset_token_hash = $1 AND reset_token_expires_at > $2 AND is_active`
	u, err := scanUser(s.DB.QueryRowContext(ctx, query, tokenHash, now))
	if err != nil {
		return nil, wrapErr(op, err)
	}
	return u, nil
}

// UpdateUserProfile обновляет имя, описание и аватар пользователя.
func (s *Storage) UpdateUserProfile(ctx context.Context, userUID, name, bio, avatar string) (*models.User, error) {
	const op = "storage.UpdateUserProfile"
	if err := checkCtx(ctx, op); err != nil {
		return nil, err
	}

	query := `UPDATE users
			  SET name = $2, bio = $3, avatar = $4, updated_at = NOW()
			  WHERE uid = $1 AND is_active
			  RETURNING ` + userColumns
	u, err := scanUser(s.DB.QueryRowContext(ctx, query, userUID, name, bio, avatar))
	if err != nil {
		return nil, wrapErr(op, err)
	}
	return u, nil
}

// UpdateUserPassword меняет хэш пароля и сбрасывает токен восстановления.
func (s *Storage) UpdateUserPassword(ctx context.Context, userUID, passwordHash string) error {
	const op = "storage.UpdateUserPassword"
	if err := checkCtx(ctx, op); err != nil {
		return err
	}

	query := `UPDATE users
			  SET password_hash = $2, reset_token_hash = NULL, reset_token_expires_at = NULL, updated_at = NOW()
			  WHERE uid = $1`
	return s.execOne(ctx, op, query, userUID, passwordHash)
}

// SetResetToken сохраняет хэш токена сброса пароля и срок его действия.
func (s *Storage) SetResetToken(ctx context.Context, userUID, tokenHash string, expiresAt time.Time) error {
	const op = "storage.SetResetToken"
	if err := checkCtx(ctx, op); err != nil {
		return err
	}

	query := `UPDATE users SET reset_token_hash = $2, reset_token_expires_at = $3 WHERE uid = $1`
	return s.execOne(ctx, op, query, userUID, tokenHash, expiresAt)
}

// UpdateLastActive фиксирует время последнего входа.
func (s *Storage) UpdateLastActive(ctx context.Context, userUID string) error {
	const op = "storage.UpdateLastActive"
	if err := checkCtx(ctx, op); err != nil {
		return err
	}
	return s.execOne(ctx, op, `UPDATE users SET last_active = NOW() WHERE uid = $1`, userUID)
}

// DeactivateUser мягко удаляет пользователя, снимая флаг активности.
func (s *Storage) DeactivateUser(ctx context.Context, userUID string) error {
	const op = "storage.DeactivateUser"
	if err := checkCtx(ctx, op); err != nil {
		return err
	}
	query := `UPDATE users SET is_active = FALSE, updated_at = NOW() WHERE uid = $1 AND is_active`
	return s.execOne(ctx, op, query, userUID)
}

// ListEnrolledCourseIDs возвращает курсы, оплата которых пользователем завершена.
func (s *Storage) ListEnrolledCourseIDs(ctx context.Context, userUID string) ([]string, error) {
	const op = "storage.ListEnrolledCourseIDs"
	query := `SELECT DISTINCT course_id FROM course_purchases
			  WHERE user_uid = $1 AND status = 'completed'
			  ORDER BY course_id`
	return s.queryIDs(ctx, op, query, userUID)
}

// ListCreatedCourseIDs возвращает курсы, созданные преподавателем.
func (s *Storage) ListCreatedCourseIDs(ctx context.Context, userUID string) ([]string, error) {
	const op = "storage.ListCreatedCourseIDs"
	query := `SELECT id FROM courses WHERE instructor_uid = $1 ORDER BY created_at`
	return s.queryIDs(ctx, op, query, userUID)
}

func (s *Storage) queryIDs(ctx context.Context, op, query string, args ...any) ([]string, error) {
	if err := checkCtx(ctx, op); err != nil {
		return nil, err
	}
	rows, err := s.DB.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	defer func() {
		_ = rows.Close()
	}()

	ids := []string{}
	for rows.Next() {
		var id string
		if err = rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		ids = append(ids, id)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return ids, nil
}

// execOne выполняет запрос, который должен затронуть ровно одну строку.
func (s *Storage) execOne(ctx context.Context, op, query string, args ...any) error {
	res, err := s.DB.ExecContext(ctx, query, args...)
	if err != nil {
		return wrapErr(op, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	if n == 0 {
		return wrapErr(op, sql.ErrNoRows)
	}
	return nil
}
