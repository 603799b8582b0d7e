// Package progress ведёт учёт прохождения лекций курса пользователем.
package progress

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math"

	"github.com/magabrotheeeer/learnify-backend/internal/lib/apperr"
	"github.com/magabrotheeeer/learnify-backend/internal/metrics"
	"github.com/magabrotheeeer/learnify-backend/internal/models"
)

// Repository хранилище курсов, покупок и прогресса.
type Repository interface {
	GetCourse(ctx context.Context, courseID string) (*models.Course, error)
	ListLectures(ctx context.Context, courseID string) ([]models.Lecture, error)
	GetLecture(ctx context.Context, courseID, lectureID string) (*models.Lecture, error)
	HasCompletedPurchase(ctx context.Context, userUID, courseID string) (bool, error)
	GetProgress(ctx context.Context, userUID, courseID string) (*models.CourseProgress, error)
	CompleteLecture(ctx context.Context, userUID, courseID, lectureID string) (*models.CourseProgress, error)
	CompleteAllLectures(ctx context.Context, userUID, courseID string) (*models.CourseProgress, error)
	ResetProgress(ctx context.Context, userUID, courseID string) (*models.CourseProgress, error)
}

// CourseProgress ответ с курсом и прогрессом пользователя по нему.
type CourseProgress struct {
	CourseDetails        *models.Course           `json:"courseDetails"`
	Progress             []models.LectureProgress `json:"progress"`
	IsCompleted          bool                     `json:"isCompleted"`
	CompletionPercentage int                      `json:"completionPercentage"`
}

// Service бизнес-логика прогресса.
type Service struct {
	repo    Repository
	metrics *metrics.Metrics
	log     *slog.Logger
}

// New создаёт сервис прогресса.
func New(repo Repository, m *metrics.Metrics, log *slog.Logger) *Service {
	return &Service{
		repo:    repo,
		metrics: m,
		log:     log,
	}
}

// CompletionPercentage округлённая доля пройденных лекций. Для курса без лекций 0.
func CompletionPercentage(completed, total int) int {
	if total <= 0 || completed <= 0 {
		return 0
	}
	if completed > total {
		completed = total
	}
	return int(math.Round(100 * float64(completed) / float64(total)))
}

// GetCourseProgress возвращает курс с лекциями и прогресс пользователя.
// Если пользователь ещё не начинал курс, прогресс пустой.
func (s *Service) GetCourseProgress(ctx context.Context, userUID, courseID string) (*CourseProgress, error) {
	const op = "services.progress.GetCourseProgress"

	course, lectures, fullAccess, err := s.loadCourse(ctx, userUID, courseID)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	p, err := s.repo.GetProgress(ctx, userUID, courseID)
	if errors.Is(err, apperr.ErrNotFound) {
		return view(course, lectures, fullAccess, nil), nil
	}
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return view(course, lectures, fullAccess, p), nil
}

// UpdateLectureProgress отмечает лекцию пройденной. Закрытые лекции может
// отмечать только купивший курс или его автор.
func (s *Service) UpdateLectureProgress(ctx context.Context, userUID, courseID, lectureID string) (*CourseProgress, error) {
	const op = "services.progress.UpdateLectureProgress"

	course, lectures, fullAccess, err := s.loadCourse(ctx, userUID, courseID)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	lecture, err := s.repo.GetLecture(ctx, courseID, lectureID)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, apperr.WithMessage(err, apperr.ErrNotFound, "lecture not found"))
	}
	if !lecture.IsPreview && !fullAccess {
		return nil, fmt.Errorf("%s: %w", op, apperr.New(apperr.ErrForbidden, "purchase the course to track this lecture"))
	}

	p, err := s.repo.CompleteLecture(ctx, userUID, courseID, lectureID)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, apperr.WithMessage(err, apperr.ErrNotFound, "course not found"))
	}
	s.metrics.ProgressUpdates.WithLabelValues("lecture").Inc()

	s.log.Info("lecture completed",
		slog.String("user_uid", userUID),
		slog.String("course_id", courseID),
		slog.String("lecture_id", lectureID),
		slog.Bool("course_completed", p.IsCompleted))
	return view(course, lectures, fullAccess, p), nil
}

// MarkCourseCompleted отмечает пройденными все лекции курса.
func (s *Service) MarkCourseCompleted(ctx context.Context, userUID, courseID string) (*CourseProgress, error) {
	const op = "services.progress.MarkCourseCompleted"

	course, lectures, fullAccess, err := s.loadCourse(ctx, userUID, courseID)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	if !fullAccess {
		return nil, fmt.Errorf("%s: %w", op, apperr.New(apperr.ErrForbidden, "purchase the course to complete it"))
	}

	p, err := s.repo.CompleteAllLectures(ctx, userUID, courseID)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	s.metrics.ProgressUpdates.WithLabelValues("complete").Inc()

	s.log.Info("course marked as completed", slog.String("user_uid", userUID), slog.String("course_id", courseID))
	return view(course, lectures, fullAccess, p), nil
}

// ResetCourseProgress снимает отметки о прохождении со всех лекций курса.
func (s *Service) ResetCourseProgress(ctx context.Context, userUID, courseID string) (*CourseProgress, error) {
	const op = "services.progress.ResetCourseProgress"

	course, lectures, fullAccess, err := s.loadCourse(ctx, userUID, courseID)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	p, err := s.repo.ResetProgress(ctx, userUID, courseID)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, apperr.WithMessage(err, apperr.ErrNotFound, "course progress not found"))
	}
	s.metrics.ProgressUpdates.WithLabelValues("reset").Inc()

	s.log.Info("course progress reset", slog.String("user_uid", userUID), slog.String("course_id", courseID))
	return view(course, lectures, fullAccess, p), nil
}

func (s *Service) loadCourse(ctx context.Context, userUID, courseID string) (*models.Course, []models.Lecture, bool, error) {
	course, err := s.repo.GetCourse(ctx, courseID)
	if err != nil {
		return nil, nil, false, apperr.WithMessage(err, apperr.ErrNotFound, "course not found")
	}
	if !course.VisibleTo(userUID) {
		return nil, nil, false, apperr.New(apperr.ErrNotFound, "course not found")
	}
	lectures, err := s.repo.ListLectures(ctx, courseID)
	if err != nil {
		return nil, nil, false, err
	}
	purchased, err := s.repo.HasCompletedPurchase(ctx, userUID, courseID)
	if err != nil {
		return nil, nil, false, err
	}
	return course, lectures, course.HasFullAccess(userUID, purchased), nil
}

func view(course *models.Course, lectures []models.Lecture, fullAccess bool, p *models.CourseProgress) *CourseProgress {
	course.Lectures = models.RedactLectures(lectures, fullAccess)
	out := &CourseProgress{
		CourseDetails: course,
		Progress:      []models.LectureProgress{},
	}
	if p == nil {
		return out
	}
	if p.LectureProgress != nil {
		out.Progress = p.LectureProgress
	}
	done := completedLectures(lectures, p.LectureProgress)
	out.IsCompleted = len(lectures) > 0 && done == len(lectures)
	out.CompletionPercentage = CompletionPercentage(done, len(lectures))
	return out
}

// completedLectures число лекций курса, отмеченных пройденными.
// Записи о лекциях, которых нет в списке, не учитываются.
func completedLectures(lectures []models.Lecture, entries []models.LectureProgress) int {
	completed := make(map[string]bool, len(entries))
	for _, e := range entries {
		if e.IsCompleted {
			completed[e.LectureID] = true
		}
	}
	n := 0
	for _, l := range lectures {
		if completed[l.ID] {
			n++
		}
	}
	return n
}
