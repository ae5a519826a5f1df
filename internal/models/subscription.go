package models

import "time"

// Тарифные планы подписки.
const (
	PlanMonthly = "monthly"
	PlanYearly  = "yearly"
)

// Статусы подписки. Переходы между статусами выполняет только
// воркер сверки платежей либо явная отмена пользователем.
const (
	SubscriptionStatusNone      = "none"
	SubscriptionStatusPending   = "pending"
	SubscriptionStatusActive    = "active"
	SubscriptionStatusExpired   = "expired"
	SubscriptionStatusCancelled = "cancelled"
)

// Subscription представляет текущий оплаченный период доступа учётной записи.
// На одну учётную запись приходится не более одной нетерминальной подписки.
type Subscription struct {
	AccountUID             string     // Учётная запись, которой принадлежит подписка
	Plan                   string     // Тарифный план: monthly или yearly
	Status                 string     // Текущий статус подписки
	PeriodStart            time.Time  // Начало оплаченного периода
	PeriodEnd              time.Time  // Конец оплаченного периода, всегда >= PeriodStart
	LastConfirmedPaymentID *string    // ID последнего применённого платежа (ключ идемпотентности)
	Version                int64      // Счётчик версий для оптимистичной блокировки записи
	UpdatedAt              time.Time  // Время последнего изменения
}

// PlanDuration возвращает длительность оплачиваемого периода для плана.
// Неизвестный план трактуется как monthly: списать лишнее хуже, чем недодать.
func PlanDuration(plan string) time.Duration {
	if plan == PlanYearly {
		return 365 * 24 * time.Hour
	}
	return 30 * 24 * time.Hour
}

// EffectiveStatus возвращает статус подписки с ленивой проверкой истечения:
// хранимый статус active при PeriodEnd < now считается expired. Хранимая
// запись при этом не изменяется — мутации выполняет только воркер сверки.
func (s *Subscription) EffectiveStatus(now time.Time) string {
	if s == nil {
		return SubscriptionStatusNone
	}
	if s.Status == SubscriptionStatusActive && s.PeriodEnd.Before(now) {
		return SubscriptionStatusExpired
	}
	return s.Status
}
