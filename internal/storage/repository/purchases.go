package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/magabrotheeeer/learnify-backend/internal/models"
)

const purchaseColumns = `id, course_id, user_uid, amount::float8, currency, status,
	payment_method, payment_id, created_at, updated_at`

func scanPurchase(row rowScanner) (*models.CoursePurchase, error) {
	p := &models.CoursePurchase{}
	if err := row.Scan(&p.ID, &p.CourseID, &p.UserUID, &p.Amount, &p.Currency, &p.Status,
		&p.PaymentMethod, &p.PaymentID, &p.CreatedAt, &p.UpdatedAt); err != nil {
		return nil, err
	}
	return p, nil
}

// CreatePurchase сохраняет покупку в статусе pending.
func (s *Storage) CreatePurchase(ctx context.Context, p models.CoursePurchase) (*models.CoursePurchase, error) {
	const op = "storage.CreatePurchase"
	if err := checkCtx(ctx, op); err != nil {
		return nil, err
	}

	query := `INSERT INTO course_purchases (course_id, user_uid, amount, currency, status, payment_method, payment_id)
			  VALUES ($1, $2, $3, $4, 'pending', $5, $6)
			  RETURNING ` + purchaseColumns
	created, err := scanPurchase(s.DB.QueryRowContext(ctx, query,
		p.CourseID, p.UserUID, p.Amount, p.Currency, p.PaymentMethod, p.PaymentID))
	if err != nil {
		return nil, wrapErr(op, err)
	}
	return created, nil
}

// GetPurchaseByPaymentID ищет покупку по идентификатору сессии или заказа шлюза.
func (s *Storage) GetPurchaseByPaymentID(ctx context.Context, method, paymentID string) (*models.CoursePurchase, error) {
	const op = "storage.GetPurchaseByPaymentID"
	if err := checkCtx(ctx, op); err != nil {
		return nil, err
	}

	query := `SELECT ` + purchaseColumns + ` FROM course_purchases WHERE payment_method = $1 AND payment_id = $2`
	p, err := scanPurchase(s.DB.QueryRowContext(ctx, query, method, paymentID))
	if err != nil {
		return nil, wrapErr(op, err)
	}
	return p, nil
}

// CompletePurchase переводит покупку из pending в completed. Если amount не nil,
// сумма заменяется на подтверждённую шлюзом. Возвращает changed=false, если
// покупка уже была завершена ранее; в этом случае запись не меняется.
func (s *Storage) CompletePurchase(ctx context.Context, method, paymentID string, amount *float64) (*models.CoursePurchase, bool, error) {
	const op = "storage.CompletePurchase"
	if err := checkCtx(ctx, op); err != nil {
		return nil, false, err
	}

	query := `UPDATE course_purchases
			  SET status = 'completed', amount = COALESCE($3::numeric, amount), updated_at = NOW()
			  WHERE payment_method = $1 AND payment_id = $2 AND status = 'pending'
			  RETURNING ` + purchaseColumns
	p, err := scanPurchase(s.DB.QueryRowContext(ctx, query, method, paymentID, amount))
	if err == nil {
		return p, true, nil
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return nil, false, fmt.Errorf("%s: %w", op, err)
	}

	existing, err := s.GetPurchaseByPaymentID(ctx, method, paymentID)
	if err != nil {
		return nil, false, fmt.Errorf("%s: %w", op, err)
	}
	return existing, false, nil
}

// HasCompletedPurchase сообщает, оплатил ли пользователь курс.
func (s *Storage) HasCompletedPurchase(ctx context.Context, userUID, courseID string) (bool, error) {
	const op = "storage.HasCompletedPurchase"
	if err := checkCtx(ctx, op); err != nil {
		return false, err
	}

	var exists bool
	query := `SELECT EXISTS (
				SELECT 1 FROM course_purchases
				WHERE user_uid = $1 AND course_id = $2 AND status = 'completed'
			  )`
	if err := s.DB.QueryRowContext(ctx, query, userUID, courseID).Scan(&exists); err != nil {
		return false, fmt.Errorf("%s: %w", op, err)
	}
	return exists, nil
}

// ListCompletedPurchases возвращает завершённые покупки пользователя вместе с курсами.
func (s *Storage) ListCompletedPurchases(ctx context.Context, userUID string) ([]models.PurchasedCourse, error) {
	const op = "storage.ListCompletedPurchases"
	if err := checkCtx(ctx, op); err != nil {
		return nil, err
	}

	query := `SELECT p.id, p.course_id, p.user_uid, p.amount::float8, p.currency, p.status,
				p.payment_method, p.payment_id, p.created_at, p.updated_at,
				c.id, c.title, c.subtitle, c.description, c.category, c.level, c.price::float8,
				c.thumbnail, c.instructor_uid, c.is_published, c.created_at, c.updated_at
			  FROM course_purchases p
			  JOIN courses c ON c.id = p.course_id
			  WHERE p.user_uid = $1 AND p.status = 'completed'
			  ORDER BY p.updated_at DESC`
	rows, err := s.DB.QueryContext(ctx, query, userUID)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	defer func() {
		_ = rows.Close()
	}()

	result := []models.PurchasedCourse{}
	for rows.Next() {
		var pc models.PurchasedCourse
		p, c := &pc.Purchase, &pc.Course
		if err = rows.Scan(&p.ID, &p.CourseID, &p.UserUID, &p.Amount, &p.Currency, &p.Status,
			&p.PaymentMethod, &p.PaymentID, &p.CreatedAt, &p.UpdatedAt,
			&c.ID, &c.Title, &c.Subtitle, &c.Description, &c.Category, &c.Level, &c.Price,
			&c.Thumbnail, &c.InstructorUID, &c.IsPublished, &c.CreatedAt, &c.UpdatedAt); err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		result = append(result, pc)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return result, nil
}

// DeleteStalePendingPurchases удаляет неоплаченные покупки, созданные раньше before.
func (s *Storage) DeleteStalePendingPurchases(ctx context.Context, before time.Time) (int64, error) {
	const op = "storage.DeleteStalePendingPurchases"
	if err := checkCtx(ctx, op); err != nil {
		return 0, err
	}

	res, err := s.DB.ExecContext(ctx,
		`DELETE FROM course_purchases WHERE status = 'pending' AND created_at < $1`, before)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", op, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("%s: %w", op, err)
	}
	return n, nil
}
