package models

import "time"

// Платёжные каналы (rails), по которым принимается оплата.
const (
	RailCard          = "card"
	RailInstant       = "instant_transfer"
	RailBankSlip      = "bank_slip"
	RailWallet        = "wallet_redirect"
	RailGeneratedLink = "generated_link"
)

// Статусы платёжного намерения. Терминальные статусы не допускают
// дальнейших автоматических переходов; подтверждённое намерение
// неизменяемо — исправления оформляются новым намерением.
const (
	IntentStatusCreated        = "created"
	IntentStatusAwaiting       = "awaiting_confirmation"
	IntentStatusPendingUnknown = "pending_unknown"
	IntentStatusConfirmed      = "confirmed"
	IntentStatusRejected       = "rejected"
	IntentStatusCancelled      = "cancelled"
	IntentStatusExpired        = "expired"
)

// PaymentIntent представляет одну попытку оплаты со своим жизненным циклом,
// отдельным от подписки, которую она может продлить.
type PaymentIntent struct {
	ID                string     // Уникальный идентификатор намерения
	AccountUID        string     // Учётная запись, инициировавшая оплату
	Plan              string     // Оплачиваемый тарифный план
	Rail              string     // Платёжный канал
	ExternalReference *string    // Идентификатор платежа на стороне провайдера
	Status            string     // Текущий статус намерения
	CreatedAt         time.Time  // Момент инициации оплаты
	ExpiresAt         time.Time  // Дедлайн подтверждения, зависит от канала
	ConfirmedAt       *time.Time // Момент подтверждения оплаты
}

// IsTerminal сообщает, достигло ли намерение терминального статуса.
func (p *PaymentIntent) IsTerminal() bool {
	return IntentStatusIsTerminal(p.Status)
}

// IntentStatusIsTerminal проверяет терминальность статуса намерения.
func IntentStatusIsTerminal(status string) bool {
	switch status {
	case IntentStatusConfirmed, IntentStatusRejected, IntentStatusCancelled, IntentStatusExpired:
		return true
	}
	return false
}

// DummyCheckout используется для приёма данных инициации оплаты из JSON-запроса.
type DummyCheckout struct {
	Plan string `json:"plan" validate:"required,oneof=monthly yearly"`
	Rail string `json:"rail" validate:"required,oneof=card instant_transfer bank_slip wallet_redirect generated_link"`
}
