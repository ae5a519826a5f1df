package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgconn"

	"github.com/cinexnema-cyber/teste-0101-sub001/internal/models"
)

const uniqueViolation = "23505"

// CreateIntent вставляет новое платёжное намерение. Частичный уникальный
// индекс по (account_uid, plan) для нетерминальных статусов гарантирует
// не более одной незавершённой оплаты на план даже при гонке запросов.
func (s *Storage) CreateIntent(ctx context.Context, intent models.PaymentIntent) error {
	const op = "storage.CreateIntent"
	select {
	case <-ctx.Done():
		return fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	query := `INSERT INTO payment_intents (id, account_uid, plan, rail, external_reference,
			      status, created_at, expires_at)
			  VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`
	_, err := s.DB.ExecContext(ctx, query,
		intent.ID, intent.AccountUID, intent.Plan, intent.Rail, intent.ExternalReference,
		intent.Status, intent.CreatedAt, intent.ExpiresAt)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
			return fmt.Errorf("%s: %w", op, ErrDuplicateActiveIntent)
		}
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}

// GetIntent возвращает намерение по ID. Если записи нет, возвращает (nil, nil).
func (s *Storage) GetIntent(ctx context.Context, id string) (*models.PaymentIntent, error) {
	const op = "storage.GetIntent"
	return s.getIntent(ctx, op, `WHERE id = $1`, id)
}

// GetIntentByExternalReference возвращает намерение по идентификатору
// платежа на стороне провайдера. Если записи нет, возвращает (nil, nil).
func (s *Storage) GetIntentByExternalReference(ctx context.Context, externalReference string) (*models.PaymentIntent, error) {
	const op = "storage.GetIntentByExternalReference"
	return s.getIntent(ctx, op, `WHERE external_reference = $1`, externalReference)
}

// GetActiveIntent возвращает нетерминальное намерение пары учётная запись + план.
// Если записи нет, возвращает (nil, nil).
func (s *Storage) GetActiveIntent(ctx context.Context, accountUID, plan string) (*models.PaymentIntent, error) {
	const op = "storage.GetActiveIntent"
	return s.getIntent(ctx, op,
		`WHERE account_uid = $1 AND plan = $2
		   AND status IN ('created', 'awaiting_confirmation', 'pending_unknown')`,
		accountUID, plan)
}

func (s *Storage) getIntent(ctx context.Context, op, where string, args ...any) (*models.PaymentIntent, error) {
	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	query := `SELECT id, account_uid, plan, rail, external_reference, status,
			      created_at, expires_at, confirmed_at
			  FROM payment_intents ` + where
	intent := &models.PaymentIntent{}
	row := s.DB.QueryRowContext(ctx, query, args...)

	var externalReference sql.NullString
	var confirmedAt sql.NullTime
	if err := row.Scan(&intent.ID, &intent.AccountUID, &intent.Plan, &intent.Rail,
		&externalReference, &intent.Status, &intent.CreatedAt, &intent.ExpiresAt, &confirmedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	if externalReference.Valid {
		intent.ExternalReference = &externalReference.String
	}
	if confirmedAt.Valid {
		intent.ConfirmedAt = &confirmedAt.Time
	}
	return intent, nil
}

// SetIntentAwaiting записывает внешний идентификатор платежа и переводит
// намерение в awaiting_confirmation. Возвращает число изменённых строк.
func (s *Storage) SetIntentAwaiting(ctx context.Context, id, externalReference string) (int, error) {
	const op = "storage.SetIntentAwaiting"
	select {
	case <-ctx.Done():
		return 0, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	query := `UPDATE payment_intents
			  SET external_reference = $1, status = $2
			  WHERE id = $3 AND status = $4`
	result, err := s.DB.ExecContext(ctx, query,
		externalReference, models.IntentStatusAwaiting, id, models.IntentStatusCreated)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", op, err)
	}
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("%s: %w", op, err)
	}
	return int(rowsAffected), nil
}

// UpdateIntentStatus переводит намерение в новый статус. Переходы из
// терминальных статусов блокируются условием WHERE: подтверждённое
// намерение неизменяемо, исправления оформляются новым намерением.
// Возвращает число изменённых строк (0 — намерение уже терминально).
func (s *Storage) UpdateIntentStatus(ctx context.Context, id, status string, confirmedAt *time.Time) (int, error) {
	const op = "storage.UpdateIntentStatus"
	select {
	case <-ctx.Done():
		return 0, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	query := `UPDATE payment_intents
			  SET status = $1, confirmed_at = COALESCE($2, confirmed_at)
			  WHERE id = $3
			    AND status IN ('created', 'awaiting_confirmation', 'pending_unknown')`
	result, err := s.DB.ExecContext(ctx, query, status, confirmedAt, id)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", op, err)
	}
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("%s: %w", op, err)
	}
	return int(rowsAffected), nil
}

// ExpireOverdueIntents переводит просроченные нетерминальные намерения
// в expired и возвращает их количество.
func (s *Storage) ExpireOverdueIntents(ctx context.Context, now time.Time) (int, error) {
	const op = "storage.ExpireOverdueIntents"
	select {
	case <-ctx.Done():
		return 0, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	query := `UPDATE payment_intents
			  SET status = $1
			  WHERE status IN ('created', 'awaiting_confirmation', 'pending_unknown')
			    AND expires_at < $2`
	result, err := s.DB.ExecContext(ctx, query, models.IntentStatusExpired, now)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", op, err)
	}
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("%s: %w", op, err)
	}
	return int(rowsAffected), nil
}

// ListAwaitingIntentsByRails возвращает неистёкшие намерения в статусе
// awaiting_confirmation для перечисленных каналов. Используется воркером
// опроса провайдера для каналов без webhook.
func (s *Storage) ListAwaitingIntentsByRails(ctx context.Context, railNames []string, limit int) ([]*models.PaymentIntent, error) {
	const op = "storage.ListAwaitingIntentsByRails"
	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	query := `SELECT id, account_uid, plan, rail, external_reference, status,
			      created_at, expires_at, confirmed_at
			  FROM payment_intents
			  WHERE status = $1
			    AND rail = ANY($2)
			    AND external_reference IS NOT NULL
			  ORDER BY created_at
			  LIMIT $3`
	rows, err := s.DB.QueryContext(ctx, query, models.IntentStatusAwaiting, railNames, limit)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	defer func() {
		_ = rows.Close()
	}()

	var result []*models.PaymentIntent
	for rows.Next() {
		var item models.PaymentIntent
		var externalReference sql.NullString
		var confirmedAt sql.NullTime
		if err := rows.Scan(&item.ID, &item.AccountUID, &item.Plan, &item.Rail,
			&externalReference, &item.Status, &item.CreatedAt, &item.ExpiresAt, &confirmedAt); err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		if externalReference.Valid {
			item.ExternalReference = &externalReference.String
		}
		if confirmedAt.Valid {
			item.ConfirmedAt = &confirmedAt.Time
		}
		result = append(result, &item)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return result, nil
}
