package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/cinexnema-cyber/teste-0101-sub001/internal/models"
)

// CreateRevenueWindow фиксирует окно выручки автора. Повторная вставка
// игнорируется: первая одобренная публикация неизменяема. Возвращает true,
// если окно было создано этим вызовом.
func (s *Storage) CreateRevenueWindow(ctx context.Context, window models.CreatorRevenueWindow) (bool, error) {
	const op = "storage.CreateRevenueWindow"
	select {
	case <-ctx.Done():
		return false, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	query := `INSERT INTO creator_revenue_windows (creator_uid, first_approved_publish_at, promotional_share_ends_at)
			  VALUES ($1, $2, $3)
			  ON CONFLICT (creator_uid) DO NOTHING`
	result, err := s.DB.ExecContext(ctx, query,
		window.CreatorUID, window.FirstApprovedPublishAt, window.PromotionalShareEndsAt)
	if err != nil {
		return false, fmt.Errorf("%s: %w", op, err)
	}
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("%s: %w", op, err)
	}
	return rowsAffected == 1, nil
}

// GetRevenueWindow возвращает окно выручки автора.
// Если записи нет, возвращает (nil, nil).
func (s *Storage) GetRevenueWindow(ctx context.Context, creatorUID string) (*models.CreatorRevenueWindow, error) {
	const op = "storage.GetRevenueWindow"
	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	query := `SELECT creator_uid, first_approved_publish_at, promotional_share_ends_at
			  FROM creator_revenue_windows
			  WHERE creator_uid = $1`
	w := &models.CreatorRevenueWindow{}
	row := s.DB.QueryRowContext(ctx, query, creatorUID)
	if err := row.Scan(&w.CreatorUID, &w.FirstApprovedPublishAt, &w.PromotionalShareEndsAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return w, nil
}
