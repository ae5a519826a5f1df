package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/cinexnema-cyber/teste-0101-sub001/internal/models"
)

// CreateAccount сохраняет новую учётную запись и возвращает её UID.
func (s *Storage) CreateAccount(ctx context.Context, account models.Account) (string, error) {
	const op = "storage.CreateAccount"
	select {
	case <-ctx.Done():
		return "", fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	var newUID string
	query := `INSERT INTO accounts (email, password_hash, role)
			  VALUES ($1, $2, $3)
			  RETURNING uid;`
	if err := s.DB.QueryRowContext(ctx, query,
		account.Email, account.PasswordHash, account.Role).Scan(&newUID); err != nil {
		return "", fmt.Errorf("%s: %w", op, err)
	}
	return newUID, nil
}

// GetAccountByEmail возвращает учётную запись по email без учёта регистра.
// Если запись не найдена, возвращает (nil, nil).
func (s *Storage) GetAccountByEmail(ctx context.Context, email string) (*models.Account, error) {
	const op = "storage.GetAccountByEmail"
	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	query := `SELECT uid, email, password_hash, role, created_at
			  FROM accounts
			  WHERE LOWER(email) = LOWER($1)`
	a := &models.Account{}
	row := s.DB.QueryRowContext(ctx, query, email)
	if err := row.Scan(&a.UID, &a.Email, &a.PasswordHash, &a.Role, &a.CreatedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return a, nil
}

// GetAccount возвращает учётную запись по её UID.
// Если запись не найдена, возвращает (nil, nil).
func (s *Storage) GetAccount(ctx context.Context, uid string) (*models.Account, error) {
	const op = "storage.GetAccount"
	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	query := `SELECT uid, email, password_hash, role, created_at
			  FROM accounts
			  WHERE uid = $1`
	a := &models.Account{}
	row := s.DB.QueryRowContext(ctx, query, uid)
	if err := row.Scan(&a.UID, &a.Email, &a.PasswordHash, &a.Role, &a.CreatedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return a, nil
}

// UpdateAccountRole меняет роль учётной записи и возвращает число изменённых строк.
// Используется только переходом одобрения автора: роль не выставляется пользователем.
func (s *Storage) UpdateAccountRole(ctx context.Context, uid, role string) (int, error) {
	const op = "storage.UpdateAccountRole"
	select {
	case <-ctx.Done():
		return 0, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	query := `UPDATE accounts SET role = $1 WHERE uid = $2`
	result, err := s.DB.ExecContext(ctx, query, role, uid)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", op, err)
	}
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("%s: %w", op, err)
	}
	return int(rowsAffected), nil
}
