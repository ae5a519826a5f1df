package rabbitmq

// QueueConfig описывает очередь и её ключ маршрутизации.
type QueueConfig struct {
	QueueName  string
	RoutingKey string
}

const (
	// ProviderStatusQueue — очередь событий статусов платежей.
	ProviderStatusQueue = "payments.provider_status"
	// ProviderStatusRoutingKey — ключ маршрутизации событий статусов.
	ProviderStatusRoutingKey = "provider_status"
)

// GetPaymentQueues возвращает очереди платёжных событий.
// Webhook-обработчик публикует в payments.provider_status, воркер сверки потребляет.
func GetPaymentQueues() []QueueConfig {
	return []QueueConfig{
		{QueueName: ProviderStatusQueue, RoutingKey: ProviderStatusRoutingKey},
	}
}
