package repository

import (
	"context"
	"fmt"

	"github.com/magabrotheeeer/learnify-backend/internal/models"
)

const courseSelect = `SELECT c.id, c.title, c.subtitle, c.description, c.category, c.level,
		c.price::float8, c.thumbnail, c.instructor_uid, c.is_published, c.created_at, c.updated_at,
		(SELECT COUNT(*) FROM lectures l WHERE l.course_id = c.id),
		(SELECT COALESCE(SUM(l.duration), 0)::float8 FROM lectures l WHERE l.course_id = c.id),
		(SELECT COUNT(DISTINCT p.user_uid) FROM course_purchases p
			WHERE p.course_id = c.id AND p.status = 'completed')
	FROM courses c`

// sortOrders допустимые варианты сортировки каталога.
var sortOrders = map[string]string{
	"":           "c.created_at DESC",
	"newest":     "c.created_at DESC",
	"price-low":  "c.price ASC, c.created_at DESC",
	"price-high": "c.price DESC, c.created_at DESC",
	"title":      "c.title ASC",
}

func scanCourse(row rowScanner) (*models.Course, error) {
	c := &models.Course{}
	if err := row.Scan(&c.ID, &c.Title, &c.Subtitle, &c.Description, &c.Category, &c.Level,
		&c.Price, &c.Thumbnail, &c.InstructorUID, &c.IsPublished, &c.CreatedAt, &c.UpdatedAt,
		&c.TotalLectures, &c.TotalDuration, &c.EnrolledStudents); err != nil {
		return nil, err
	}
	return c, nil
}

// CreateCourse сохраняет курс преподавателя и возвращает его с присвоенным ID.
func (s *Storage) CreateCourse(ctx context.Context, course models.Course) (*models.Course, error) {
	const op = "storage.CreateCourse"
	if err := checkCtx(ctx, op); err != nil {
		return nil, err
	}

	var id string
	query := `INSERT INTO courses (title, subtitle, description, category, level, price, thumbnail, instructor_uid)
			  VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
			  RETURNING id`
	if err := s.DB.QueryRowContext(ctx, query,
		course.Title, course.Subtitle, course.Description, course.Category, course.Level,
		course.Price, course.Thumbnail, course.InstructorUID).Scan(&id); err != nil {
		return nil, wrapErr(op, err)
	}
	return s.GetCourse(ctx, id)
}

// GetCourse возвращает курс по ID без списка лекций.
func (s *Storage) GetCourse(ctx context.Context, courseID string) (*models.Course, error) {
	const op = "storage.GetCourse"
	if err := checkCtx(ctx, op); err != nil {
		return nil, err
	}

	c, err := scanCourse(s.DB.QueryRowContext(ctx, courseSelect+` WHERE c.id = $1`, courseID))
	if err != nil {
		return nil, wrapErr(op, err)
	}
	return c, nil
}

// UpdateCourse применяет частичное обновление курса.
func (s *Storage) UpdateCourse(ctx context.Context, courseID string, upd models.CourseUpdate) (*models.Course, error) {
	const op = "storage.UpdateCourse"
	if err := checkCtx(ctx, op); err != nil {
		return nil, err
	}

	query := `UPDATE courses SET
				title        = COALESCE($2, title),
				subtitle     = COALESCE($3, subtitle),
				description  = COALESCE($4, description),
				category     = COALESCE($5, category),
				level        = COALESCE($6, level),
				price        = COALESCE($7::numeric, price),
				is_published = COALESCE($8, is_published),
				updated_at   = NOW()
			  WHERE id = $1`
	if err := s.execOne(ctx, op, query, courseID, upd.Title, upd.Subtitle, upd.Description,
		upd.Category, upd.Level, upd.Price, upd.IsPublished); err != nil {
		return nil, err
	}
	return s.GetCourse(ctx, courseID)
}

// SetCourseThumbnail сохраняет ссылку на обложку курса.
func (s *Storage) SetCourseThumbnail(ctx context.Context, courseID, thumbnail string) error {
	const op = "storage.SetCourseThumbnail"
	if err := checkCtx(ctx, op); err != nil {
		return err
	}
	query := `UPDATE courses SET thumbnail = $2, updated_at = NOW() WHERE id = $1`
	return s.execOne(ctx, op, query, courseID, thumbnail)
}

// ListCoursesByInstructor возвращает все курсы преподавателя, новые первыми.
func (s *Storage) ListCoursesByInstructor(ctx context.Context, instructorUID string) ([]*models.Course, error) {
	const op = "storage.ListCoursesByInstructor"
	query := courseSelect + ` WHERE c.instructor_uid = $1 ORDER BY c.created_at DESC`
	return s.queryCourses(ctx, op, query, instructorUID)
}

// SearchCourses ищет по опубликованным курсам с фильтрами и сортировкой.
func (s *Storage) SearchCourses(ctx context.Context, f models.CourseFilter) ([]*models.Course, int, error) {
	const op = "storage.SearchCourses"
	if err := checkCtx(ctx, op); err != nil {
		return nil, 0, err
	}
	order, ok := sortOrders[f.SortBy]
	if !ok {
		order = sortOrders[""]
	}

	where := ` WHERE c.is_published
		AND ($1 = '' OR c.title ILIKE '%' || $1 || '%' OR c.subtitle ILIKE '%' || $1 || '%'
			OR c.description ILIKE '%' || $1 || '%')
		AND ($2 = '' OR c.category = $2)
		AND ($3 = '' OR c.level = $3)
		AND ($4::numeric IS NULL OR c.price >= $4::numeric)
		AND ($5::numeric IS NULL OR c.price <= $5::numeric)`
	args := []any{f.Query, f.Category, f.Level, f.PriceMin, f.PriceMax}

	var total int
	if err := s.DB.QueryRowContext(ctx, `SELECT COUNT(*) FROM courses c`+where, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("%s: %w", op, err)
	}

	query := courseSelect + where + ` ORDER BY ` + order + ` LIMIT $6 OFFSET $7`
	courses, err := s.queryCourses(ctx, op, query, append(args, f.Limit, f.Offset)...)
	if err != nil {
		return nil, 0, err
	}
	return courses, total, nil
}

func (s *Storage) queryCourses(ctx context.Context, op, query string, args ...any) ([]*models.Course, error) {
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

	result := []*models.Course{}
	for rows.Next() {
		c, err := scanCourse(rows)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		result = append(result, c)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return result, nil
}
