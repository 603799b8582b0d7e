package repository

import (
	"context"
	"fmt"

	"github.com/magabrotheeeer/learnify-backend/internal/models"
)

const lectureColumns = `id, course_id, title, description, video_url, public_id,
	duration::float8, is_preview, lecture_order, created_at`

func scanLecture(row rowScanner) (*models.Lecture, error) {
	l := &models.Lecture{}
	if err := row.Scan(&l.ID, &l.CourseID, &l.Title, &l.Description, &l.VideoURL, &l.PublicID,
		&l.Duration, &l.IsPreview, &l.Order, &l.CreatedAt); err != nil {
		return nil, err
	}
	return l, nil
}

// AddLecture добавляет лекцию в конец курса. Порядковый номер равен
// текущему числу лекций плюс один; строка курса блокируется на время вставки.
func (s *Storage) AddLecture(ctx context.Context, lecture models.Lecture) (*models.Lecture, error) {
	const op = "storage.AddLecture"
	if err := checkCtx(ctx, op); err != nil {
		return nil, err
	}

	tx, err := s.DB.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	defer rollback(tx)

	var courseID string
	if err = tx.QueryRowContext(ctx, `SELECT id FROM courses WHERE id = $1 FOR UPDATE`,
		lecture.CourseID).Scan(&courseID); err != nil {
		return nil, wrapErr(op, err)
	}

	var order int
	if err = tx.QueryRowContext(ctx, `SELECT COUNT(*) + 1 FROM lectures WHERE course_id = $1`,
		courseID).Scan(&order); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	query := `INSERT INTO lectures (course_id, title, description, video_url, public_id, duration, is_preview, lecture_order)
			  VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
			  RETURNING ` + lectureColumns
	created, err := scanLecture(tx.QueryRowContext(ctx, query, courseID, lecture.Title, lecture.Description,
		lecture.VideoURL, lecture.PublicID, lecture.Duration, lecture.IsPreview, order))
	if err != nil {
		return nil, wrapErr(op, err)
	}
	if _, err = tx.ExecContext(ctx, `UPDATE courses SET updated_at = NOW() WHERE id = $1`, courseID); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	if err = tx.Commit(); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return created, nil
}

// GetLecture возвращает лекцию курса. Лекция другого курса считается отсутствующей.
func (s *Storage) GetLecture(ctx context.Context, courseID, lectureID string) (*models.Lecture, error) {
	const op = "storage.GetLecture"
	if err := checkCtx(ctx, op); err != nil {
		return nil, err
	}
	query := `SELECT ` + lectureColumns + ` FROM lectures WHERE id = $1 AND course_id = $2`
	l, err := scanLecture(s.DB.QueryRowContext(ctx, query, lectureID, courseID))
	if err != nil {
		return nil, wrapErr(op, err)
	}
	return l, nil
}

// ListLectures возвращает лекции курса по порядку.
func (s *Storage) ListLectures(ctx context.Context, courseID string) ([]models.Lecture, error) {
	const op = "storage.ListLectures"
	if err := checkCtx(ctx, op); err != nil {
		return nil, err
	}
	rows, err := s.DB.QueryContext(ctx,
		`SELECT `+lectureColumns+` FROM lectures WHERE course_id = $1 ORDER BY lecture_order`, courseID)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	defer func() {
		_ = rows.Close()
	}()

	lectures := []models.Lecture{}
	for rows.Next() {
		l, err := scanLecture(rows)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		lectures = append(lectures, *l)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return lectures, nil
}
