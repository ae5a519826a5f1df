// Package revenue реализует расчёт доли выручки автора и переход
// одобрения автора, фиксирующий окно льготной выручки.
package revenue

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/cinexnema-cyber/teste-0101-sub001/internal/models"
)

// Доли выручки: до конца льготного окна автор получает всё,
// после — действует комиссия платформы 30%.
const (
	promoCreatorPct    = 100
	promoPlatformPct   = 0
	defaultCreatorPct  = 70
	defaultPlatformPct = 30
)

// ErrWindowNotFound — у автора нет зафиксированного окна выручки
// (нет ни одной одобренной публикации).
var ErrWindowNotFound = errors.New("creator revenue window not found")

// WindowRepository определяет методы хранилища окон выручки.
type WindowRepository interface {
	// CreateRevenueWindow фиксирует окно, false — окно уже существовало.
	CreateRevenueWindow(ctx context.Context, window models.CreatorRevenueWindow) (bool, error)
	// GetRevenueWindow возвращает окно автора либо (nil, nil).
	GetRevenueWindow(ctx context.Context, creatorUID string) (*models.CreatorRevenueWindow, error)
}

// AccountRepository определяет методы хранилища учётных записей,
// нужные переходу одобрения автора.
type AccountRepository interface {
	GetAccount(ctx context.Context, uid string) (*models.Account, error)
	UpdateAccountRole(ctx context.Context, uid, role string) (int, error)
}

// Service реализует расчёт доли выручки и одобрение авторов.
type Service struct {
	windows     WindowRepository
	accounts    AccountRepository
	graceMonths int
	log         *slog.Logger
}

// NewService создает новый экземпляр Service.
func NewService(windows WindowRepository, accounts AccountRepository, graceMonths int, log *slog.Logger) *Service {
	return &Service{
		windows:     windows,
		accounts:    accounts,
		graceMonths: graceMonths,
		log:         log,
	}
}

// Share — чистая функция распределения выручки на момент at.
// Льготное окно — полуинтервал [FirstApprovedPublishAt, PromotionalShareEndsAt):
// сам момент окончания уже принадлежит обычному тарифу.
func Share(window *models.CreatorRevenueWindow, at time.Time) models.RevenueShare {
	if at.Before(window.PromotionalShareEndsAt) {
		return models.RevenueShare{CreatorPct: promoCreatorPct, PlatformPct: promoPlatformPct}
	}
	return models.RevenueShare{CreatorPct: defaultCreatorPct, PlatformPct: defaultPlatformPct}
}

// ShareFor возвращает распределение выручки автора на момент at.
// Нулевой at означает "сейчас"; прошедший момент допустим для
// пересчёта выплат задним числом и аудита.
func (s *Service) ShareFor(ctx context.Context, creatorUID string, at time.Time) (models.RevenueShare, error) {
	const op = "revenue.ShareFor"

	window, err := s.windows.GetRevenueWindow(ctx, creatorUID)
	if err != nil {
		return models.RevenueShare{}, fmt.Errorf("%s: %w", op, err)
	}
	if window == nil {
		return models.RevenueShare{}, fmt.Errorf("%s: %w", op, ErrWindowNotFound)
	}

	if at.IsZero() {
		at = time.Now().UTC()
	}
	return Share(window, at), nil
}

// ApproveCreator выполняет переход одобрения автора: назначает роль creator
// и фиксирует окно выручки от первой одобренной публикации. Повторное
// одобрение не сдвигает уже зафиксированное окно.
func (s *Service) ApproveCreator(ctx context.Context, creatorUID string, approvedAt time.Time) (*models.CreatorRevenueWindow, error) {
	const op = "revenue.ApproveCreator"

	account, err := s.accounts.GetAccount(ctx, creatorUID)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	if account == nil {
		return nil, fmt.Errorf("%s: account not found", op)
	}

	if approvedAt.IsZero() {
		approvedAt = time.Now().UTC()
	}
	window := models.CreatorRevenueWindow{
		CreatorUID:             creatorUID,
		FirstApprovedPublishAt: approvedAt,
		PromotionalShareEndsAt: approvedAt.AddDate(0, s.graceMonths, 0),
	}

	created, err := s.windows.CreateRevenueWindow(ctx, window)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	if !created {
		existing, err := s.windows.GetRevenueWindow(ctx, creatorUID)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		window = *existing
	}

	// Роль admin одобрение не понижает.
	if account.Role == models.RoleUser {
		if _, err := s.accounts.UpdateAccountRole(ctx, creatorUID, models.RoleCreator); err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
	}

	s.log.Info("creator approved",
		slog.String("creator_uid", creatorUID),
		slog.Time("promotional_share_ends_at", window.PromotionalShareEndsAt))
	return &window, nil
}
