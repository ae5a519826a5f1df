package rabbitmq

import "time"

// ProviderStatusEvent — событие статуса платежа от провайдера,
// публикуемое webhook-обработчиком и потребляемое воркером сверки.
type ProviderStatusEvent struct {
	ExternalReference string    `json:"external_reference"` // ID платежа на стороне провайдера
	ProviderStatus    string    `json:"provider_status"`    // статус в словаре провайдера
	Rail              string    `json:"rail"`               // платёжный канал
	ReceivedAt        time.Time `json:"received_at"`        // момент приёма webhook
}
