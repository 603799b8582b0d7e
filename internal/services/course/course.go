// Package course реализует каталог курсов: создание и редактирование курсов
// преподавателями, добавление лекций и выдачу каталога с учётом доступа к видео.
package course

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/magabrotheeeer/learnify-backend/internal/lib/apperr"
	"github.com/magabrotheeeer/learnify-backend/internal/lib/sl"
	"github.com/magabrotheeeer/learnify-backend/internal/media"
	"github.com/magabrotheeeer/learnify-backend/internal/models"
)

const (
	publishedCachePrefix = "courses:published:"
	publishedCacheTTL    = 5 * time.Minute

	// DefaultLimit размер страницы каталога по умолчанию.
	DefaultLimit = 10
	// MaxLimit наибольший размер страницы каталога.
	MaxLimit = 100
)

// Repository хранилище курсов и лекций.
type Repository interface {
	CreateCourse(ctx context.Context, course models.Course) (*models.Course, error)
	GetCourse(ctx context.Context, courseID string) (*models.Course, error)
	UpdateCourse(ctx context.Context, courseID string, upd models.CourseUpdate) (*models.Course, error)
	SetCourseThumbnail(ctx context.Context, courseID, thumbnail string) error
	ListCoursesByInstructor(ctx context.Context, instructorUID string) ([]*models.Course, error)
	SearchCourses(ctx context.Context, f models.CourseFilter) ([]*models.Course, int, error)
	AddLecture(ctx context.Context, lecture models.Lecture) (*models.Lecture, error)
	ListLectures(ctx context.Context, courseID string) ([]models.Lecture, error)
	HasCompletedPurchase(ctx context.Context, userUID, courseID string) (bool, error)
}

// MediaStorage хранилище обложек курсов.
type MediaStorage interface {
	Upload(ctx context.Context, folder media.Folder, filename, contentType string, r io.Reader) (*media.File, error)
	Delete(ctx context.Context, publicID string) error
	PublicIDFromURL(url string) (string, bool)
}

// Cache кэш страниц каталога.
type Cache interface {
	Get(ctx context.Context, key string, result any) (bool, error)
	Set(ctx context.Context, key string, value any, expiration time.Duration) error
	InvalidatePrefix(ctx context.Context, prefix string) error
}

// Page страница каталога.
type Page struct {
	Courses    []*models.Course `json:"courses"`
	Total      int              `json:"total"`
	Page       int              `json:"page"`
	Limit      int              `json:"limit"`
	TotalPages int              `json:"totalPages"`
}

// SearchParams параметры поиска по каталогу.
type SearchParams struct {
	Query    string
	Category string
	Level    string
	PriceMin *float64
	PriceMax *float64
	SortBy   string
	Page     int
	Limit    int
}

// Service бизнес-логика каталога курсов.
type Service struct {
	repo  Repository
	media MediaStorage
	cache Cache
	log   *slog.Logger
}

// New создаёт сервис курсов.
func New(repo Repository, mediaStorage MediaStorage, cache Cache, log *slog.Logger) *Service {
	return &Service{
		repo:  repo,
		media: mediaStorage,
		cache: cache,
		log:   log,
	}
}

// CreateCourse создаёт черновик курса преподавателя.
func (s *Service) CreateCourse(ctx context.Context, instructorUID string, req models.CreateCourseRequest) (*models.Course, error) {
	const op = "services.course.CreateCourse"

	course, err := s.repo.CreateCourse(ctx, models.Course{
		Title:         req.Title,
		Subtitle:      req.Subtitle,
		Description:   req.Description,
		Category:      req.Category,
		Level:         req.Level,
		Price:         req.Price,
		InstructorUID: instructorUID,
	})
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	s.log.Info("course created", slog.String("course_id", course.ID), slog.String("instructor_uid", instructorUID))
	return course, nil
}

// UpdateCourse частично обновляет курс. Изменять курс может только его автор,
// опубликовать можно курс хотя бы с одной лекцией.
func (s *Service) UpdateCourse(ctx context.Context, userUID, courseID string, req models.UpdateCourseRequest) (*models.Course, error) {
	const op = "services.course.UpdateCourse"

	current, err := s.ownedCourse(ctx, userUID, courseID)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	if req.IsPublished != nil && *req.IsPublished && current.TotalLectures == 0 {
		return nil, fmt.Errorf("%s: %w", op, apperr.New(apperr.ErrInvalidInput, "add at least one lecture before publishing"))
	}

	course, err := s.repo.UpdateCourse(ctx, courseID, req.ToUpdate())
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, apperr.WithMessage(err, apperr.ErrNotFound, "course not found"))
	}
	s.invalidateCatalog(ctx)

	s.log.Info("course updated", slog.String("course_id", courseID))
	return course, nil
}

// UploadThumbnail заменяет обложку курса. Прежний файл удаляется из хранилища.
func (s *Service) UploadThumbnail(ctx context.Context, userUID, courseID, filename, contentType string, r io.Reader) (*models.Course, error) {
	const op = "services.course.UploadThumbnail"

	current, err := s.ownedCourse(ctx, userUID, courseID)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	file, err := s.media.Upload(ctx, media.FolderThumbnails, filename, contentType, r)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	if err = s.repo.SetCourseThumbnail(ctx, courseID, file.URL); err != nil {
		_ = s.media.Delete(ctx, file.PublicID)
		return nil, fmt.Errorf("%s: %w", op, apperr.WithMessage(err, apperr.ErrNotFound, "course not found"))
	}
	if oldID, ok := s.media.PublicIDFromURL(current.Thumbnail); ok {
		if err = s.media.Delete(ctx, oldID); err != nil {
			s.log.Warn("failed to delete previous thumbnail", slog.String("public_id", oldID), sl.Err(err))
		}
	}
	s.invalidateCatalog(ctx)

	current.Thumbnail = file.URL
	return current, nil
}

// GetCourse возвращает курс с лекциями. Черновик виден только автору.
func (s *Service) GetCourse(ctx context.Context, userUID, courseID string) (*models.Course, error) {
	const op = "services.course.GetCourse"

	course, err := s.visibleCourse(ctx, userUID, courseID)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	lectures, err := s.lecturesFor(ctx, userUID, course)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	course.Lectures = lectures
	return course, nil
}

// ListLectures возвращает лекции курса; ссылки на видео закрытых лекций
// получают только автор курса и купившие его.
func (s *Service) ListLectures(ctx context.Context, userUID, courseID string) ([]models.Lecture, error) {
	const op = "services.course.ListLectures"

	course, err := s.visibleCourse(ctx, userUID, courseID)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	lectures, err := s.lecturesFor(ctx, userUID, course)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return lectures, nil
}

// AddLecture добавляет лекцию в конец курса.
func (s *Service) AddLecture(ctx context.Context, userUID, courseID string, req models.CreateLectureRequest) (*models.Lecture, error) {
	const op = "services.course.AddLecture"

	if _, err := s.ownedCourse(ctx, userUID, courseID); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	lecture, err := s.repo.AddLecture(ctx, models.Lecture{
		CourseID:    courseID,
		Title:       req.Title,
		Description: req.Description,
		VideoURL:    req.VideoURL,
		PublicID:    req.PublicID,
		Duration:    req.Duration,
		IsPreview:   req.IsPreview,
	})
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, apperr.WithMessage(err, apperr.ErrNotFound, "course not found"))
	}
	s.invalidateCatalog(ctx)

	s.log.Info("lecture added",
		slog.String("course_id", courseID),
		slog.String("lecture_id", lecture.ID),
		slog.Int("order", lecture.Order))
	return lecture, nil
}

// ListMyCourses возвращает курсы преподавателя, включая черновики.
func (s *Service) ListMyCourses(ctx context.Context, instructorUID string) ([]*models.Course, error) {
	const op = "services.course.ListMyCourses"

	courses, err := s.repo.ListCoursesByInstructor(ctx, instructorUID)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	if courses == nil {
		courses = []*models.Course{}
	}
	return courses, nil
}

// ListPublished возвращает страницу опубликованных курсов, новые первыми.
// Страницы кэшируются в Redis и сбрасываются при изменении курсов.
func (s *Service) ListPublished(ctx context.Context, page, limit int) (*Page, error) {
	const op = "services.course.ListPublished"
	page, limit = normalizePage(page, limit)

	cacheKey := fmt.Sprintf("%s%d:%d", publishedCachePrefix, page, limit)
	var cached Page
	found, err := s.cache.Get(ctx, cacheKey, &cached)
	if err != nil {
		s.log.Warn("failed to read catalog cache", slog.String("key", cacheKey), sl.Err(err))
	}
	if found {
		return &cached, nil
	}

	result, err := s.search(ctx, models.CourseFilter{}, page, limit)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	if err = s.cache.Set(ctx, cacheKey, result, publishedCacheTTL); err != nil {
		s.log.Warn("failed to cache catalog page", slog.String("key", cacheKey), sl.Err(err))
	}
	return result, nil
}

// Search ищет опубликованные курсы по тексту, категории, уровню и цене.
func (s *Service) Search(ctx context.Context, p SearchParams) (*Page, error) {
	const op = "services.course.Search"
	if p.PriceMin != nil && p.PriceMax != nil && *p.PriceMin > *p.PriceMax {
		return nil, fmt.Errorf("%s: %w", op, apperr.New(apperr.ErrInvalidInput, "minimum price exceeds maximum price"))
	}
	page, limit := normalizePage(p.Page, p.Limit)

	result, err := s.search(ctx, models.CourseFilter{
		Query:    p.Query,
		Category: p.Category,
		Level:    p.Level,
		PriceMin: p.PriceMin,
		PriceMax: p.PriceMax,
		SortBy:   p.SortBy,
	}, page, limit)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return result, nil
}

func (s *Service) search(ctx context.Context, f models.CourseFilter, page, limit int) (*Page, error) {
	f.Limit = limit
	f.Offset = (page - 1) * limit
	courses, total, err := s.repo.SearchCourses(ctx, f)
	if err != nil {
		return nil, err
	}
	if courses == nil {
		courses = []*models.Course{}
	}
	return &Page{
		Courses:    courses,
		Total:      total,
		Page:       page,
		Limit:      limit,
		TotalPages: (total + limit - 1) / limit,
	}, nil
}

func (s *Service) ownedCourse(ctx context.Context, userUID, courseID string) (*models.Course, error) {
	course, err := s.repo.GetCourse(ctx, courseID)
	if err != nil {
		return nil, apperr.WithMessage(err, apperr.ErrNotFound, "course not found")
	}
	if course.InstructorUID != userUID {
		return nil, apperr.New(apperr.ErrForbidden, "not authorized to update this course")
	}
	return course, nil
}

func (s *Service) visibleCourse(ctx context.Context, userUID, courseID string) (*models.Course, error) {
	course, err := s.repo.GetCourse(ctx, courseID)
	if err != nil {
		return nil, apperr.WithMessage(err, apperr.ErrNotFound, "course not found")
	}
	if !course.VisibleTo(userUID) {
		return nil, apperr.New(apperr.ErrNotFound, "course not found")
	}
	return course, nil
}

func (s *Service) lecturesFor(ctx context.Context, userUID string, course *models.Course) ([]models.Lecture, error) {
	lectures, err := s.repo.ListLectures(ctx, course.ID)
	if err != nil {
		return nil, err
	}
	purchased := false
	if userUID != "" && course.InstructorUID != userUID {
		if purchased, err = s.repo.HasCompletedPurchase(ctx, userUID, course.ID); err != nil {
			return nil, err
		}
	}
	return models.RedactLectures(lectures, course.HasFullAccess(userUID, purchased)), nil
}

func (s *Service) invalidateCatalog(ctx context.Context) {
	if err := s.cache.InvalidatePrefix(ctx, publishedCachePrefix); err != nil {
		s.log.Warn("failed to invalidate catalog cache", sl.Err(err))
	}
}

func normalizePage(page, limit int) (int, int) {
	if page < 1 {
		page = 1
	}
	if limit < 1 {
		limit = DefaultLimit
	}
	if limit > MaxLimit {
		limit = MaxLimit
	}
	return page, limit
}
