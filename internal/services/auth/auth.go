// Package auth содержит логику бизнес-уровня для регистрации,
// авторизации и валидации JWT.
package auth

import (
	"context"
	"errors"
	"fmt"

	"github.com/cinexnema-cyber/teste-0101-sub001/internal/lib/jwt"
	"github.com/cinexnema-cyber/teste-0101-sub001/internal/lib/password"
	"github.com/cinexnema-cyber/teste-0101-sub001/internal/models"
)

// Ошибки аутентификации.
var (
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrEmailTaken         = errors.New("email already registered")
)

// AccountRepository описывает контракт для работы с учётными записями.
type AccountRepository interface {
	// CreateAccount сохраняет новую учётную запись и возвращает её UID.
	CreateAccount(ctx context.Context, account models.Account) (string, error)
	// GetAccountByEmail возвращает учётную запись по email либо (nil, nil).
	GetAccountByEmail(ctx context.Context, email string) (*models.Account, error)
}

// AuthService отвечает за регистрацию, авторизацию и валидацию JWT.
type AuthService struct {
	accounts AccountRepository
	jwtMaker jwt.Maker
}

// NewAuthService создает новый экземпляр AuthService.
func NewAuthService(accounts AccountRepository, jwtMaker jwt.Maker) *AuthService {
	return &AuthService{
		accounts: accounts,
		jwtMaker: jwtMaker,
	}
}

// Register создаёт учётную запись с ролью user. Роли subscriber и creator
// регистрацией не назначаются: первая выводится из подписки, вторая —
// только переходом одобрения.
func (s *AuthService) Register(ctx context.Context, email, plainPassword string) (string, error) {
	const op = "auth.Register"

	existing, err := s.accounts.GetAccountByEmail(ctx, email)
	if err != nil {
		return "", fmt.Errorf("%s: %w", op, err)
	}
	if existing != nil {
		return "", fmt.Errorf("%s: %w", op, ErrEmailTaken)
	}

	hash, err := password.GetHash(plainPassword)
	if err != nil {
		return "", fmt.Errorf("%s: %w", op, err)
	}

	uid, err := s.accounts.CreateAccount(ctx, models.Account{
		Email:        email,
		PasswordHash: hash,
		Role:         models.RoleUser,
	})
	if err != nil {
		return "", fmt.Errorf("%s: %w", op, err)
	}
	return uid, nil
}

// Login проверяет учётные данные и возвращает JWT вместе с учётной записью.
func (s *AuthService) Login(ctx context.Context, email, plainPassword string) (string, *models.Account, error) {
	const op = "auth.Login"

	account, err := s.accounts.GetAccountByEmail(ctx, email)
	if err != nil {
		return "", nil, fmt.Errorf("%s: %w", op, err)
	}
	if account == nil {
		return "", nil, fmt.Errorf("%s: %w", op, ErrInvalidCredentials)
	}
	if err := password.CompareHash(account.PasswordHash, plainPassword); err != nil {
		return "", nil, fmt.Errorf("%s: %w", op, ErrInvalidCredentials)
	}

	token, err := s.jwtMaker.GenerateToken(account.UID, account.Role)
	if err != nil {
		return "", nil, fmt.Errorf("%s: %w", op, err)
	}
	return token, account, nil
}

// ValidateToken проверяет JWT и возвращает его claims.
func (s *AuthService) ValidateToken(tokenStr string) (*jwt.CustomClaims, error) {
	return s.jwtMaker.ParseToken(tokenStr)
}
