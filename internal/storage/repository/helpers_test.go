package repository

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"

	"github.com/magabrotheeeer/learnify-backend/internal/migrations"
	"github.com/magabrotheeeer/learnify-backend/internal/models"
)

// TestDataFactory содержит методы для создания тестовых данных
type TestDataFactory struct {
	storage *Storage
}

// NewTestDataFactory создает новую фабрику тестовых данных
func NewTestDataFactory(storage *Storage) *TestDataFactory {
	return &TestDataFactory{storage: storage}
}

// CreateUser создает тестового пользователя и возвращает его UID
func (f *TestDataFactory) CreateUser(t *testing.T, name, email, role string) string {
	t.Helper()
	uid, err := f.storage.CreateUser(context.Background(), models.User{
		Name:         name,
		Email:        email,
		PasswordHash: "$2a$10$hash",
		Role:         role,
	})
	require.NoError(t, err)
	return uid
}

// CreateCourse создает опубликованный или черновой курс преподавателя
func (f *TestDataFactory) CreateCourse(t *testing.T, instructorUID, title string, price float64, published bool) *models.Course {
	t.Helper()
	c, err := f.storage.CreateCourse(context.Background(), models.Course{
		Title:         title,
		Subtitle:      title + " subtitle",
		Description:   title + " description",
		Category:      "programming",
		Level:         models.LevelBeginner,
		Price:         price,
		InstructorUID: instructorUID,
	})
	require.NoError(t, err)
	if published {
		c, err = f.storage.UpdateCourse(context.Background(), c.ID, models.CourseUpdate{IsPublished: &published})
		require.NoError(t, err)
	}
	return c
}

// CreateLectures добавляет n лекций в курс и возвращает их ID по порядку
func (f *TestDataFactory) CreateLectures(t *testing.T, courseID string, n int) []string {
	t.Helper()
	ids := make([]string, 0, n)
	for i := 0; i < n; i++ {
		l, err := f.storage.AddLecture(context.Background(), models.Lecture{
			CourseID: courseID,
			Title:    "Lecture",
			Duration: 10,
		})
		require.NoError(t, err)
		ids = append(ids, l.ID)
	}
	return ids
}

// setupTestDatabase поднимает PostgreSQL в контейнере и накатывает миграции
func setupTestDatabase(t *testing.T) (*Storage, func()) {
	t.Helper()
	if testing.Short() {
		t.Skip("skipping container test in short mode")
	}
	ctx := context.Background()

	pgContainer, err := postgres.Run(ctx,
		"postgres:15-alpine",
		postgres.WithDatabase("testdb"),
		postgres.WithUsername("testuser"),
		postgres.WithPassword("testpass"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(60*time.Second),
		),
	)
	require.NoError(t, err, "failed to start container")

	dsn, err := pgContainer.ConnectionString(ctx, "sslmode=disable")
	require.NoError(t, err)

	storage, err := New(dsn)
	require.NoError(t, err)

	migrationsPath, err := filepath.Abs("../../../migrations")
	require.NoError(t, err)
	_, err = migrations.Run(storage.DB, migrationsPath)
	require.NoError(t, err)

	return storage, func() {
		_ = storage.Close()
		if err := pgContainer.Terminate(ctx); err != nil {
			t.Logf("failed to terminate container: %s", err)
		}
	}
}
