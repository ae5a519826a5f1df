// Package rails описывает платёжные каналы в виде таблицы: механизм
// подтверждения, дедлайн и отображение статусов провайдера на словарь
// статусов платёжного намерения. Новый канал добавляется строкой таблицы,
// без изменений в обработчиках или воркере сверки.
package rails

import (
	"time"

	"github.com/cinexnema-cyber/teste-0101-sub001/internal/models"
)

// Confirmation — механизм подтверждения платежа для канала.
type Confirmation string

const (
	// ConfirmWebhook — провайдер присылает callback.
	ConfirmWebhook Confirmation = "webhook"
	// ConfirmPoll — статус опрашивается у провайдера.
	ConfirmPoll Confirmation = "poll"
	// ConfirmManual — подтверждение вносит оператор.
	ConfirmManual Confirmation = "manual"
)

// Spec описывает один платёжный канал.
type Spec struct {
	Confirmation Confirmation      // Механизм подтверждения
	Expiry       time.Duration     // Срок жизни неподтверждённого намерения
	Statuses     map[string]string // Статус провайдера -> статус намерения
}

var table = map[string]Spec{
	models.RailCard: {
		Confirmation: ConfirmWebhook,
		Expiry:       15 * time.Minute,
		Statuses: map[string]string{
			"approved":  models.IntentStatusConfirmed,
			"declined":  models.IntentStatusRejected,
			"cancelled": models.IntentStatusCancelled,
			"expired":   models.IntentStatusExpired,
		},
	},
	models.RailInstant: {
		Confirmation: ConfirmWebhook,
		Expiry:       30 * time.Minute,
		Statuses: map[string]string{
			"paid":      models.IntentStatusConfirmed,
			"refused":   models.IntentStatusRejected,
			"cancelled": models.IntentStatusCancelled,
			"expired":   models.IntentStatusExpired,
		},
	},
	models.RailBankSlip: {
		Confirmation: ConfirmPoll,
		Expiry:       72 * time.Hour,
		Statuses: map[string]string{
			"settled":   models.IntentStatusConfirmed,
			"rejected":  models.IntentStatusRejected,
			"cancelled": models.IntentStatusCancelled,
			"expired":   models.IntentStatusExpired,
		},
	},
	models.RailWallet: {
		Confirmation: ConfirmWebhook,
		Expiry:       30 * time.Minute,
		Statuses: map[string]string{
			"succeeded": models.IntentStatusConfirmed,
			"failed":    models.IntentStatusRejected,
			"cancelled": models.IntentStatusCancelled,
			"expired":   models.IntentStatusExpired,
		},
	},
	// У канала generated_link нет ни webhook, ни цели опроса:
	// терминальный статус вносит оператор через админский маршрут.
	models.RailGeneratedLink: {
		Confirmation: ConfirmManual,
		Expiry:       24 * time.Hour,
		Statuses: map[string]string{
			"confirmed": models.IntentStatusConfirmed,
			"rejected":  models.IntentStatusRejected,
			"cancelled": models.IntentStatusCancelled,
			"expired":   models.IntentStatusExpired,
		},
	},
}

// Lookup возвращает описание канала по его имени.
func Lookup(rail string) (Spec, bool) {
	spec, ok := table[rail]
	return spec, ok
}

// MapProviderStatus отображает статус провайдера на статус намерения.
// Неизвестный статус возвращает ok=false: такие сигналы не продвигают
// подписку, а помечаются для ручного разбора.
func MapProviderStatus(rail, providerStatus string) (string, bool) {
	spec, ok := table[rail]
	if !ok {
		return "", false
	}
	status, ok := spec.Statuses[providerStatus]
	return status, ok
}

// PollRails возвращает каналы, подтверждаемые опросом провайдера.
func PollRails() []string {
	var result []string
	for rail, spec := range table {
		if spec.Confirmation == ConfirmPoll {
			result = append(result, rail)
		}
	}
	return result
}
