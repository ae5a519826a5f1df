package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/cinexnema-cyber/teste-0101-sub001/internal/models"
)

// GetSubscription возвращает подписку учётной записи.
// Если записи нет, возвращает (nil, nil) — статус трактуется как none.
func (s *Storage) GetSubscription(ctx context.Context, accountUID string) (*models.Subscription, error) {
	const op = "storage.GetSubscription"
	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	query := `SELECT account_uid, plan, status, period_start, period_end,
			      last_confirmed_payment_id, version, updated_at
			  FROM subscriptions
			  WHERE account_uid = $1`
	sub := &models.Subscription{}
	row := s.DB.QueryRowContext(ctx, query, accountUID)

	var lastPaymentID sql.NullString
	if err := row.Scan(&sub.AccountUID, &sub.Plan, &sub.Status, &sub.PeriodStart,
		&sub.PeriodEnd, &lastPaymentID, &sub.Version, &sub.UpdatedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	if lastPaymentID.Valid {
		sub.LastConfirmedPaymentID = &lastPaymentID.String
	}
	return sub, nil
}

// InsertSubscription вставляет новую подписку с версией 1.
// Конфликт по account_uid означает гонку с параллельной вставкой:
// вызывающий перечитывает запись и повторяет через UpdateSubscriptionCAS.
func (s *Storage) InsertSubscription(ctx context.Context, sub models.Subscription) (bool, error) {
	const op = "storage.InsertSubscription"
	select {
	case <-ctx.Done():
		return false, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	query := `INSERT INTO subscriptions (account_uid, plan, status, period_start, period_end,
			      last_confirmed_payment_id, version, updated_at)
			  VALUES ($1, $2, $3, $4, $5, $6, 1, now())
			  ON CONFLICT (account_uid) DO NOTHING`
	result, err := s.DB.ExecContext(ctx, query,
		sub.AccountUID, sub.Plan, sub.Status, sub.PeriodStart, sub.PeriodEnd,
		sub.LastConfirmedPaymentID)
	if err != nil {
		return false, fmt.Errorf("%s: %w", op, err)
	}
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("%s: %w", op, err)
	}
	return rowsAffected == 1, nil
}

// UpdateSubscriptionCAS обновляет подписку по сравнению версий.
// Возвращает false, если версия в базе уже изменилась: вызывающий
// перечитывает запись и повторяет расчёт.
func (s *Storage) UpdateSubscriptionCAS(ctx context.Context, sub models.Subscription, expectedVersion int64) (bool, error) {
	const op = "storage.UpdateSubscriptionCAS"
	select {
	case <-ctx.Done():
		return false, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	query := `UPDATE subscriptions
			  SET plan = $1, status = $2, period_start = $3, period_end = $4,
			      last_confirmed_payment_id = $5, version = version + 1, updated_at = now()
			  WHERE account_uid = $6 AND version = $7`
	result, err := s.DB.ExecContext(ctx, query,
		sub.Plan, sub.Status, sub.PeriodStart, sub.PeriodEnd,
		sub.LastConfirmedPaymentID, sub.AccountUID, expectedVersion)
	if err != nil {
		return false, fmt.Errorf("%s: %w", op, err)
	}
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("%s: %w", op, err)
	}
	return rowsAffected == 1, nil
}

// CancelSubscription переводит подписку в статус cancelled и возвращает
// число изменённых строк. Отмена — единственный переход статуса,
// выполняемый вне воркера сверки.
func (s *Storage) CancelSubscription(ctx context.Context, accountUID string) (int, error) {
	const op = "storage.CancelSubscription"
	select {
	case <-ctx.Done():
		return 0, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	query := `UPDATE subscriptions
			  SET status = $1, version = version + 1, updated_at = now()
			  WHERE account_uid = $2 AND status = $3`
	result, err := s.DB.ExecContext(ctx, query,
		models.SubscriptionStatusCancelled, accountUID, models.SubscriptionStatusActive)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", op, err)
	}
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("%s: %w", op, err)
	}
	return int(rowsAffected), nil
}
