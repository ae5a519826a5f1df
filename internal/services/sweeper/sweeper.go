// Package sweeper содержит фоновые обходы платёжных намерений:
// истечение просроченных и опрос провайдера для каналов без webhook.
package sweeper

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/cinexnema-cyber/teste-0101-sub001/internal/lib/sl"
	"github.com/cinexnema-cyber/teste-0101-sub001/internal/models"
	"github.com/cinexnema-cyber/teste-0101-sub001/internal/paymentprovider"
	"github.com/cinexnema-cyber/teste-0101-sub001/internal/rails"
	"github.com/cinexnema-cyber/teste-0101-sub001/internal/services/intent"
)

// pollBatchSize ограничивает число намерений за один проход опроса.
const pollBatchSize = 100

// IntentRepository определяет методы хранилища намерений, нужные обходам.
type IntentRepository interface {
	// ExpireOverdueIntents переводит просроченные намерения в expired.
	ExpireOverdueIntents(ctx context.Context, now time.Time) (int, error)
	// ListAwaitingIntentsByRails возвращает ожидающие намерения каналов опроса.
	ListAwaitingIntentsByRails(ctx context.Context, railNames []string, limit int) ([]*models.PaymentIntent, error)
}

// StatusApplier определяет применение статуса провайдера к намерению.
type StatusApplier interface {
	ApplyProviderStatusByReference(ctx context.Context, externalReference, providerStatus string) (string, error)
}

// Gateway определяет чтение статуса платежа у провайдера.
type Gateway interface {
	GetPayment(ctx context.Context, externalReference string) (*paymentprovider.PaymentResponse, error)
}

// Service реализует фоновые обходы платёжных намерений.
type Service struct {
	repo    IntentRepository
	intents StatusApplier
	gateway Gateway
	log     *slog.Logger
}

// NewService создает новый экземпляр Service.
func NewService(repo IntentRepository, intents StatusApplier, gateway Gateway, log *slog.Logger) *Service {
	return &Service{
		repo:    repo,
		intents: intents,
		gateway: gateway,
		log:     log,
	}
}

// RunExpireOverdue переводит просроченные нетерминальные намерения в expired.
// Страхует ленивое истечение при чтении: намерение истекает и без опроса
// статуса клиентом.
func (s *Service) RunExpireOverdue(ctx context.Context) error {
	const op = "sweeper.RunExpireOverdue"

	count, err := s.repo.ExpireOverdueIntents(ctx, time.Now().UTC())
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	if count > 0 {
		s.log.Info("overdue payment intents expired", slog.Int("count", count))
	}
	return nil
}

// RunPollProvider опрашивает провайдера по намерениям каналов без webhook
// и применяет полученные статусы. Ошибка по одному намерению не прерывает
// проход: неизвестный статус уже помечен pending_unknown, остальное
// доедет на следующем проходе.
func (s *Service) RunPollProvider(ctx context.Context) error {
	const op = "sweeper.RunPollProvider"

	items, err := s.repo.ListAwaitingIntentsByRails(ctx, rails.PollRails(), pollBatchSize)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	for _, item := range items {
		log := s.log.With(
			slog.String("intent_id", item.ID),
			slog.String("rail", item.Rail),
		)

		payment, err := s.gateway.GetPayment(ctx, *item.ExternalReference)
		if err != nil {
			log.Error("failed to poll payment provider", sl.Err(err))
			continue
		}

		status, err := s.intents.ApplyProviderStatusByReference(ctx, *item.ExternalReference, payment.Status)
		if err != nil {
			if errors.Is(err, intent.ErrUnknownProviderStatus) {
				log.Warn("provider returned unknown status",
					slog.String("provider_status", payment.Status))
				continue
			}
			log.Error("failed to apply provider status", sl.Err(err))
			continue
		}
		if models.IntentStatusIsTerminal(status) {
			log.Info("polled intent resolved", slog.String("status", status))
		}
	}
	return nil
}
