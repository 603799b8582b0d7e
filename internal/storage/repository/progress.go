package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/magabrotheeeer/learnify-backend/internal/models"
)

// MarkCompletedWatchTime значение watch_time для лекций, отмеченных пройденными целиком.
const MarkCompletedWatchTime = 100

type querier interface {
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
}

// GetProgress возвращает прогресс пользователя по курсу.
func (s *Storage) GetProgress(ctx context.Context, userUID, courseID string) (*models.CourseProgress, error) {
	const op = "storage.GetProgress"
	if err := checkCtx(ctx, op); err != nil {
		return nil, err
	}
	p, err := loadProgress(ctx, s.DB, userUID, courseID)
	if err != nil {
		return nil, wrapErr(op, err)
	}
	return p, nil
}

// CompleteLecture отмечает лекцию пройденной и пересчитывает флаг завершения курса.
//
// Строка course_progress создаётся при первом обращении. Вставка с ON CONFLICT DO UPDATE
// удерживает блокировку строки до конца транзакции, поэтому параллельные
// обновления одной пары (пользователь, курс) выполняются последовательно.
func (s *Storage) CompleteLecture(ctx context.Context, userUID, courseID, lectureID string) (*models.CourseProgress, error) {
	const op = "storage.CompleteLecture"
	return s.inProgressTx(ctx, op, userUID, courseID, true, func(tx *sql.Tx, progressID string) error {
		_, err := tx.ExecContext(ctx, `
			INSERT INTO lecture_progress (progress_id, lecture_id, is_completed, watch_time, last_watched)
			VALUES ($1, $2, TRUE, 0, NOW())
			ON CONFLICT (progress_id, lecture_id)
			DO UPDATE SET is_completed = TRUE, last_watched = NOW()`, progressID, lectureID)
		return err
	})
}

// CompleteAllLectures отмечает пройденными все лекции курса.
func (s *Storage) CompleteAllLectures(ctx context.Context, userUID, courseID string) (*models.CourseProgress, error) {
	const op = "storage.CompleteAllLectures"
	return s.inProgressTx(ctx, op, userUID, courseID, true, func(tx *sql.Tx, progressID string) error {
		_, err := tx.ExecContext(ctx, `
			INSERT INTO lecture_progress (progress_id, lecture_id, is_completed, watch_time, last_watched)
			SELECT $1, l.id, TRUE, $3, NOW() FROM lectures l WHERE l.course_id = $2
			ON CONFLICT (progress_id, lecture_id)
			DO UPDATE SET is_completed = TRUE, watch_time = EXCLUDED.watch_time, last_watched = NOW()`,
			progressID, courseID, MarkCompletedWatchTime)
		return err
	})
}

// ResetProgress снимает отметки со всех лекций курса.
// Если прогресса ещё нет, возвращает apperr.ErrNotFound.
func (s *Storage) ResetProgress(ctx context.Context, userUID, courseID string) (*models.CourseProgress, error) {
	const op = "storage.ResetProgress"
	return s.inProgressTx(ctx, op, userUID, courseID, false, func(tx *sql.Tx, progressID string) error {
		_, err := tx.ExecContext(ctx, `
			UPDATE lecture_progress SET is_completed = FALSE, watch_time = 0
			WHERE progress_id = $1`, progressID)
		return err
	})
}

// inProgressTx блокирует (и при create=true создаёт) строку прогресса, выполняет
// mutate, пересчитывает is_completed и возвращает итоговое состояние.
func (s *Storage) inProgressTx(ctx context.Context, op, userUID, courseID string, create bool,
	mutate func(tx *sql.Tx, progressID string) error) (*models.CourseProgress, error) {
	if err := checkCtx(ctx, op); err != nil {
		return nil, err
	}

	tx, err := s.DB.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	defer rollback(tx)

	var progressID string
	if create {
		err = tx.QueryRowContext(ctx, `
			INSERT INTO course_progress (user_uid, course_id)
			VALUES ($1, $2)
			ON CONFLICT (user_uid, course_id) DO UPDATE SET last_accessed = NOW()
			RETURNING id`, userUID, courseID).Scan(&progressID)
	} else {
		err = tx.QueryRowContext(ctx, `
			SELECT id FROM course_progress
			WHERE user_uid = $1 AND course_id = $2
			FOR UPDATE`, userUID, courseID).Scan(&progressID)
	}
	if err != nil {
		return nil, wrapErr(op, err)
	}

	if err = mutate(tx, progressID); err != nil {
		return nil, wrapErr(op, err)
	}

	// Сравнение по множеству лекций курса: учитываются только записи о лекциях
	// этого курса, а курс без лекций никогда не считается завершённым.
	if _, err = tx.ExecContext(ctx, `
		UPDATE course_progress cp SET
			last_accessed = NOW(),
			is_completed = (
				SELECT COUNT(*) > 0 AND COUNT(*) = COUNT(lp.lecture_id)
				FROM lectures l
				LEFT JOIN lecture_progress lp
					ON lp.lecture_id = l.id AND lp.progress_id = cp.id AND lp.is_completed
				WHERE l.course_id = cp.course_id
			)
		WHERE cp.id = $1`, progressID); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	p, err := loadProgress(ctx, tx, userUID, courseID)
	if err != nil {
		return nil, wrapErr(op, err)
	}
	if err = tx.Commit(); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return p, nil
}

func loadProgress(ctx context.Context, q querier, userUID, courseID string) (*models.CourseProgress, error) {
	p := &models.CourseProgress{}
	// is_completed вычисляется по текущему списку лекций: после добавления
	// лекции сохранённый флаг устаревает до следующего обновления прогресса.
	err := q.QueryRowContext(ctx, `
		SELECT cp.id, cp.user_uid, cp.course_id, cp.last_accessed,
			(
				SELECT COUNT(*) > 0 AND COUNT(*) = COUNT(lp.lecture_id)
				FROM lectures l
				LEFT JOIN lecture_progress lp
					ON lp.lecture_id = l.id AND lp.progress_id = cp.id AND lp.is_completed
				WHERE l.course_id = cp.course_id
			)
		FROM course_progress cp
		WHERE cp.user_uid = $1 AND cp.course_id = $2`, userUID, courseID).
		Scan(&p.ID, &p.UserUID, &p.CourseID, &p.LastAccessed, &p.IsCompleted)
	if err != nil {
		return nil, err
	}

	rows, err := q.QueryContext(ctx, `
		SELECT lp.lecture_id, lp.is_completed, lp.watch_time, lp.last_watched
		FROM lecture_progress lp
		JOIN lectures l ON l.id = lp.lecture_id
		WHERE lp.progress_id = $1
		ORDER BY l.lecture_order`, p.ID)
	if err != nil {
		return nil, err
	}
	defer func() {
		_ = rows.Close()
	}()

	p.LectureProgress = []models.LectureProgress{}
	for rows.Next() {
		var lp models.LectureProgress
		if err = rows.Scan(&lp.LectureID, &lp.IsCompleted, &lp.WatchTime, &lp.LastWatched); err != nil {
			return nil, err
		}
		p.LectureProgress = append(p.LectureProgress, lp)
	}
	return p, rows.Err()
}
