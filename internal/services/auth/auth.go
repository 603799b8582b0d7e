// Package auth отвечает за учётные записи: регистрацию, вход и выход,
// профиль пользователя и восстановление пароля.
package auth

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"time"

	"github.com/magabrotheeeer/learnify-backend/internal/lib/apperr"
	"github.com/magabrotheeeer/learnify-backend/internal/lib/jwt"
	"github.com/magabrotheeeer/learnify-backend/internal/lib/password"
	"github.com/magabrotheeeer/learnify-backend/internal/lib/sl"
	"github.com/magabrotheeeer/learnify-backend/internal/media"
	"github.com/magabrotheeeer/learnify-backend/internal/models"
)

// ResetTokenTTL время действия ссылки на сброс пароля.
const ResetTokenTTL = 10 * time.Minute

var errInvalidCredentials = apperr.New(apperr.ErrUnauthorized, "invalid email or password")

// UserRepository описывает контракт для работы с пользователями в базе данных.
type UserRepository interface {
	CreateUser(ctx context.Context, user models.User) (string, error)
	GetUserByID(ctx context.Context, userUID string) (*models.User, error)
	GetUserByEmail(ctx context.Context, email string) (*models.User, error)
	GetUserByResetToken(ctx context.Context, tokenHash string, now time.Time) (*models.User, error)
	UpdateUserProfile(ctx context.Context, userUID, name, bio, avatar string) (*models.User, error)
	UpdateUserPassword(ctx context.Context, userUID, passwordHash string) error
	SetResetToken(ctx context.Context, userUID, tokenHash string, expiresAt time.Time) error
	UpdateLastActive(ctx context.Context, userUID string) error
	DeactivateUser(ctx context.Context, userUID string) error
	ListEnrolledCourseIDs(ctx context.Context, userUID string) ([]string, error)
	ListCreatedCourseIDs(ctx context.Context, userUID string) ([]string, error)
}

// TokenStore хранит отозванные при выходе токены.
type TokenStore interface {
	RevokeToken(ctx context.Context, tokenID string, expiresAt time.Time) error
	IsTokenRevoked(ctx context.Context, tokenID string) (bool, error)
}

// Mailer отправляет письма со ссылкой на сброс пароля.
type Mailer interface {
	SendPasswordReset(email, name, token string) error
}

// MediaStorage хранилище аватаров.
type MediaStorage interface {
	Upload(ctx context.Context, folder media.Folder, filename, contentType string, r io.Reader) (*media.File, error)
	Delete(ctx context.Context, publicID string) error
	PublicIDFromURL(url string) (string, bool)
}

// Avatar загружаемый файл аватара.
type Avatar struct {
	Filename    string
	ContentType string
	Body        io.Reader
}

// Session результат успешного входа.
type Session struct {
	Token     string       `json:"-"`
	ExpiresAt time.Time    `json:"-"`
	User      *models.User `json:"user"`
}

// Service отвечает за регистрацию, авторизацию и профиль пользователя.
type Service struct {
	users    UserRepository
	jwtMaker jwt.Maker
	tokens   TokenStore
	mailer   Mailer
	media    MediaStorage
	log      *slog.Logger
	now      func() time.Time
}

// New создает новый экземпляр Service.
func New(users UserRepository, jwtMaker jwt.Maker, tokens TokenStore, mailer Mailer, mediaStorage MediaStorage, log *slog.Logger) *Service {
	return &Service{
		users:    users,
		jwtMaker: jwtMaker,
		tokens:   tokens,
		mailer:   mailer,
		media:    mediaStorage,
		log:      log,
		now:      time.Now,
	}
}

// Signup создает пользователя с хэшированным паролем. Роль по умолчанию student.
func (s *Service) Signup(ctx context.Context, req models.SignupRequest) (*models.User, error) {
	const op = "services.auth.Signup"

	hashed, err := password.GetHash(req.Password)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	role := req.Role
	if role == "" {
		role = models.RoleStudent
	}
	user := models.User{
		Name:         strings.TrimSpace(req.Name),
		Email:        normalizeEmail(req.Email),
		PasswordHash: hashed,
		Role:         role,
	}
	uid, err := s.users.CreateUser(ctx, user)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, apperr.WithMessage(err, apperr.ErrAlreadyExists, "user already exists with this email"))
	}
	user.UUID = uid
	user.IsActive = true

	s.log.Info("user registered", slog.String("user_uid", uid), slog.String("role", role))
	return &user, nil
}

// Signin проверяет пароль и выпускает JWT. Неизвестный email, неверный пароль
// и деактивированный аккаунт неразличимы для клиента.
func (s *Service) Signin(ctx context.Context, req models.SigninRequest) (*Session, error) {
	const op = "services.auth.Signin"

	user, err := s.users.GetUserByEmail(ctx, normalizeEmail(req.Email))
	if errors.Is(err, apperr.ErrNotFound) {
		return nil, fmt.Errorf("%s: %w", op, errInvalidCredentials)
	}
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	if !user.IsActive {
		return nil, fmt.Errorf("%s: %w", op, errInvalidCredentials)
	}
	if err = password.CompareHash(user.PasswordHash, req.Password); err != nil {
		return nil, fmt.Errorf("%s: %w", op, errInvalidCredentials)
	}

	token, err := s.jwtMaker.GenerateToken(user.UUID, user.Role)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	if err = s.users.UpdateLastActive(ctx, user.UUID); err != nil {
		s.log.Warn("failed to update last active", slog.String("user_uid", user.UUID), sl.Err(err))
	}

	return &Session{
		Token:     token,
		ExpiresAt: s.now().Add(s.jwtMaker.TTL()),
		User:      user,
	}, nil
}

// Signout отзывает токен до окончания срока его действия.
func (s *Service) Signout(ctx context.Context, claims *jwt.CustomClaims) error {
	const op = "services.auth.Signout"
	if claims == nil || claims.ID == "" || claims.ExpiresAt == nil {
		return nil
	}
	if err := s.tokens.RevokeToken(ctx, claims.ID, claims.ExpiresAt.Time); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}

// Authenticate разбирает токен и проверяет, что он не отозван, а пользователь активен.
func (s *Service) Authenticate(ctx context.Context, token string) (*jwt.CustomClaims, error) {
	const op = "services.auth.Authenticate"

	claims, err := s.jwtMaker.ParseToken(token)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, apperr.New(apperr.ErrUnauthorized, "invalid token"))
	}
	revoked, err := s.tokens.IsTokenRevoked(ctx, claims.ID)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	if revoked {
		return nil, fmt.Errorf("%s: %w", op, apperr.New(apperr.ErrUnauthorized, "token has been revoked"))
	}
	user, err := s.users.GetUserByID(ctx, claims.UserUID)
	if err != nil && !errors.Is(err, apperr.ErrNotFound) {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	if user == nil || !user.IsActive {
		return nil, fmt.Errorf("%s: %w", op, apperr.New(apperr.ErrUnauthorized, "user not found"))
	}
	claims.Role = user.Role
	return claims, nil
}

// Profile возвращает профиль с идентификаторами купленных и созданных курсов.
func (s *Service) Profile(ctx context.Context, userUID string) (*models.User, error) {
	const op = "services.auth.Profile"

	user, err := s.activeUser(ctx, userUID)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	if user.EnrolledCourses, err = s.users.ListEnrolledCourseIDs(ctx, userUID); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	if user.IsInstructor() {
		if user.CreatedCourses, err = s.users.ListCreatedCourseIDs(ctx, userUID); err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
	}
	return user, nil
}

// UpdateProfile меняет имя и описание. Если передан аватар, он загружается
// в хранилище, а прежний файл удаляется.
func (s *Service) UpdateProfile(ctx context.Context, userUID string, req models.UpdateProfileRequest, avatar *Avatar) (*models.User, error) {
	const op = "services.auth.UpdateProfile"

	current, err := s.activeUser(ctx, userUID)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	name, bio, avatarURL := current.Name, current.Bio, current.Avatar
	if v := strings.TrimSpace(req.Name); v != "" {
		name = v
	}
	if req.Bio != "" {
		bio = req.Bio
	}

	var uploaded *media.File
	if avatar != nil {
		uploaded, err = s.media.Upload(ctx, media.FolderAvatars, avatar.Filename, avatar.ContentType, avatar.Body)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		avatarURL = uploaded.URL
	}

	user, err := s.users.UpdateUserProfile(ctx, userUID, name, bio, avatarURL)
	if err != nil {
		if uploaded != nil {
			_ = s.media.Delete(ctx, uploaded.PublicID)
		}
		return nil, fmt.Errorf("%s: %w", op, apperr.WithMessage(err, apperr.ErrNotFound, "user not found"))
	}

	if uploaded != nil {
		if oldID, ok := s.media.PublicIDFromURL(current.Avatar); ok {
			if err = s.media.Delete(ctx, oldID); err != nil {
				s.log.Warn("failed to delete previous avatar", slog.String("public_id", oldID), sl.Err(err))
			}
		}
	}
	return user, nil
}

// ChangePassword меняет пароль после проверки текущего.
func (s *Service) ChangePassword(ctx context.Context, userUID string, req models.ChangePasswordRequest) error {
	const op = "services.auth.ChangePassword"

	user, err := s.activeUser(ctx, userUID)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	if err = password.CompareHash(user.PasswordHash, req.CurrentPassword); err != nil {
		return fmt.Errorf("%s: %w", op, apperr.New(apperr.ErrUnauthorized, "current password is incorrect"))
	}
	hashed, err := password.GetHash(req.NewPassword)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	if err = s.users.UpdateUserPassword(ctx, userUID, hashed); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	s.log.Info("password changed", slog.String("user_uid", userUID))
	return nil
}

// ForgotPassword выпускает токен сброса и отправляет ссылку на почту.
// Для неизвестного email ничего не делает и ошибку не возвращает.
func (s *Service) ForgotPassword(ctx context.Context, email string) error {
	const op = "services.auth.ForgotPassword"

	user, err := s.users.GetUserByEmail(ctx, normalizeEmail(email))
	if errors.Is(err, apperr.ErrNotFound) {
		s.log.Info("password reset requested for unknown email")
		return nil
	}
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	if !user.IsActive {
		return nil
	}

	token, hash, err := password.NewResetToken()
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	if err = s.users.SetResetToken(ctx, user.UUID, hash, s.now().Add(ResetTokenTTL)); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	if err = s.mailer.SendPasswordReset(user.Email, user.Name, token); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}

// ResetPassword устанавливает новый пароль по токену из письма.
func (s *Service) ResetPassword(ctx context.Context, token, newPassword string) error {
	const op = "services.auth.ResetPassword"

	user, err := s.users.GetUserByResetToken(ctx, password.HashResetToken(token), s.now())
	if errors.Is(err, apperr.ErrNotFound) {
		return fmt.Errorf("%s: %w", op, apperr.New(apperr.ErrInvalidInput, "invalid or expired reset token"))
	}
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	hashed, err := password.GetHash(newPassword)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	if err = s.users.UpdateUserPassword(ctx, user.UUID, hashed); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	s.log.Info("password reset", slog.String("user_uid", user.UUID))
	return nil
}

// DeleteAccount деактивирует аккаунт и отзывает текущий токен.
func (s *Service) DeleteAccount(ctx context.Context, claims *jwt.CustomClaims) error {
	const op = "services.auth.DeleteAccount"

	if err := s.users.DeactivateUser(ctx, claims.UserUID); err != nil {
		return fmt.Errorf("%s: %w", op, apperr.WithMessage(err, apperr.ErrNotFound, "user not found"))
	}
	if err := s.Signout(ctx, claims); err != nil {
		s.log.Warn("failed to revoke token of deleted account", sl.Err(err))
	}

	s.log.Info("account deactivated", slog.String("user_uid", claims.UserUID))
	return nil
}

func (s *Service) activeUser(ctx context.Context, userUID string) (*models.User, error) {
	user, err := s.users.GetUserByID(ctx, userUID)
	if err != nil {
		return nil, apperr.WithMessage(err, apperr.ErrNotFound, "user not found")
	}
	if !user.IsActive {
		return nil, apperr.New(apperr.ErrNotFound, "user not found")
	}
	return user, nil
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
