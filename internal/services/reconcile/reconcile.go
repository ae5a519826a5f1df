// Package reconcile реализует воркер сверки платежей: единственную точку,
// переводящую подтверждения платёжных намерений в изменения подписки.
// Воркер идемпотентен по ID намерения и аддитивен по времени: повторные
// и пришедшие не по порядку подтверждения не искажают оплаченный период.
package reconcile

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/cinexnema-cyber/teste-0101-sub001/internal/lib/sl"
	"github.com/cinexnema-cyber/teste-0101-sub001/internal/metrics"
	"github.com/cinexnema-cyber/teste-0101-sub001/internal/models"
	subscriptionsvc "github.com/cinexnema-cyber/teste-0101-sub001/internal/services/subscription"
)

// ErrReconciliationConflict возвращается после исчерпания повторов
// оптимистичной записи. Требует вмешательства оператора.
var ErrReconciliationConflict = errors.New("reconciliation conflict: retries exhausted")

// maxRetries — число повторов CAS-записи при конкурентных подтверждениях
// одной учётной записи.
const maxRetries = 3

// SubscriptionRepository определяет методы хранилища подписок, нужные воркеру.
type SubscriptionRepository interface {
	// GetSubscription возвращает подписку учётной записи либо (nil, nil).
	GetSubscription(ctx context.Context, accountUID string) (*models.Subscription, error)
	// InsertSubscription вставляет новую подписку, false при проигранной гонке вставки.
	InsertSubscription(ctx context.Context, sub models.Subscription) (bool, error)
	// UpdateSubscriptionCAS обновляет подписку по сравнению версий, false при конфликте.
	UpdateSubscriptionCAS(ctx context.Context, sub models.Subscription, expectedVersion int64) (bool, error)
}

// Cache описывает инвалидацию читающего кеша подписок.
type Cache interface {
	Invalidate(key string) error
}

// Worker применяет исходы платёжных намерений к реестру подписок.
type Worker struct {
	repo  SubscriptionRepository
	cache Cache
	log   *slog.Logger
}

// NewWorker создает новый экземпляр Worker.
func NewWorker(repo SubscriptionRepository, cache Cache, log *slog.Logger) *Worker {
	return &Worker{
		repo:  repo,
		cache: cache,
		log:   log,
	}
}

// OnPaymentConfirmed применяет подтверждённое намерение к подписке.
// Идемпотентно: намерение, чей ID уже записан в last_confirmed_payment_id,
// не продлевает период повторно. Конкурентные подтверждения сериализуются
// CAS-записью по счётчику версий с перечитыванием и повтором.
func (w *Worker) OnPaymentConfirmed(ctx context.Context, intent *models.PaymentIntent) (*models.Subscription, error) {
	const op = "reconcile.OnPaymentConfirmed"
	log := w.log.With(
		slog.String("op", op),
		slog.String("intent_id", intent.ID),
		slog.String("account_uid", intent.AccountUID),
	)

	for i := 0; i < maxRetries; i++ {
		sub, err := w.repo.GetSubscription(ctx, intent.AccountUID)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}

		if sub != nil && sub.LastConfirmedPaymentID != nil && *sub.LastConfirmedPaymentID == intent.ID {
			log.Info("intent already applied, skipping")
			metrics.Reconciliations.WithLabelValues("noop").Inc()
			return sub, nil
		}

		now := time.Now().UTC()
		next := extend(sub, intent, now)

		if sub == nil {
			inserted, err := w.repo.InsertSubscription(ctx, next)
			if err != nil {
				return nil, fmt.Errorf("%s: %w", op, err)
			}
			if !inserted {
				// Гонка вставки с параллельным подтверждением: перечитываем.
				continue
			}
			next.Version = 1
		} else {
			applied, err := w.repo.UpdateSubscriptionCAS(ctx, next, sub.Version)
			if err != nil {
				return nil, fmt.Errorf("%s: %w", op, err)
			}
			if !applied {
				continue
			}
			next.Version = sub.Version + 1
		}

		w.invalidate(intent.AccountUID)
		log.Info("subscription extended",
			slog.String("plan", next.Plan),
			slog.Time("period_end", next.PeriodEnd))
		metrics.Reconciliations.WithLabelValues("applied").Inc()
		return &next, nil
	}

	metrics.Reconciliations.WithLabelValues("conflict").Inc()
	return nil, fmt.Errorf("%s: %w", op, ErrReconciliationConflict)
}

// OnPaymentTerminalFailure фиксирует неуспешное намерение. Подписка
// не изменяется: неудавшаяся новая попытка не понижает статус.
func (w *Worker) OnPaymentTerminalFailure(_ context.Context, intent *models.PaymentIntent) error {
	const op = "reconcile.OnPaymentTerminalFailure"
	w.log.Info("payment intent finished without confirmation",
		slog.String("op", op),
		slog.String("intent_id", intent.ID),
		slog.String("status", intent.Status))
	metrics.Reconciliations.WithLabelValues("failure_ignored").Inc()
	return nil
}

// extend рассчитывает следующее состояние подписки. Новый конец периода —
// max(текущий конец, now) + длительность плана: раннее продление наращивает
// остаток, а не стирает его; позднее подтверждение второго платежа тоже
// добавляет время, ведь пользователь действительно заплатил дважды.
func extend(sub *models.Subscription, intent *models.PaymentIntent, now time.Time) models.Subscription {
	base := now
	periodStart := now
	var version int64

	if sub != nil {
		version = sub.Version
		if sub.PeriodEnd.After(now) {
			base = sub.PeriodEnd
		}
		if sub.EffectiveStatus(now) == models.SubscriptionStatusActive {
			periodStart = sub.PeriodStart
		}
	}

	intentID := intent.ID
	return models.Subscription{
		AccountUID:             intent.AccountUID,
		Plan:                   intent.Plan,
		Status:                 models.SubscriptionStatusActive,
		PeriodStart:            periodStart,
		PeriodEnd:              base.Add(models.PlanDuration(intent.Plan)),
		LastConfirmedPaymentID: &intentID,
		Version:                version,
		UpdatedAt:              now,
	}
}

func (w *Worker) invalidate(accountUID string) {
	key := subscriptionsvc.CacheKey(accountUID)
	if err := w.cache.Invalidate(key); err != nil {
		w.log.Warn("failed to invalidate subscription cache", slog.String("key", key), sl.Err(err))
	}
}
