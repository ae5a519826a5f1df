// Package paymentwebhook реализует HTTP-обработчик callback'ов платёжного
// провайдера. Обработчик проверяет подпись, извлекает идентификатор платежа
// и статус и публикует событие в очередь: сверка выполняется асинхронно,
// провайдер получает быстрый 2xx и не ретраит доставку.
package paymentwebhook

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi"

	"github.com/cinexnema-cyber/teste-0101-sub001/internal/lib/rabbitmq"
	"github.com/cinexnema-cyber/teste-0101-sub001/internal/lib/sl"
	"github.com/cinexnema-cyber/teste-0101-sub001/internal/metrics"
	"github.com/cinexnema-cyber/teste-0101-sub001/internal/rails"
)

// Publisher публикует событие статуса платежа в очередь сверки.
type Publisher interface {
	Publish(event rabbitmq.ProviderStatusEvent) error
}

// Handler управляет HTTP-запросами от платёжного провайдера.
type Handler struct {
	log           *slog.Logger // Логгер для записи информации и ошибок
	publisher     Publisher
	webhookSecret string // Секрет для проверки подписи
}

// New создает новый Handler с переданными логгером, издателем и секретом.
func New(log *slog.Logger, publisher Publisher, secret string) *Handler {
	return &Handler{
		log:           log,
		publisher:     publisher,
		webhookSecret: secret,
	}
}

// Payload — тело callback'а провайдера.
type Payload struct {
	Event  string `json:"event"`
	Object struct {
		ID     string `json:"id"`     // ID платежа на стороне провайдера
		Status string `json:"status"` // статус платежа в словаре провайдера
		Amount struct {
			Value    string `json:"value"`
			Currency string `json:"currency"`
		} `json:"amount"`
		Metadata map[string]string `json:"metadata"` // intent_id, account_uid, plan
	} `json:"object"`
}

// verifySignature проверяет подпись webhook (X-Api-Signature).
func (h *Handler) verifySignature(body []byte, signature string) bool {
	mac := hmac.New(sha256.New, []byte(h.webhookSecret))
	mac.Write(body)
	expectedSig := base64.StdEncoding.EncodeToString(mac.Sum(nil))
	return hmac.Equal([]byte(expectedSig), []byte(signature))
}

// ServeHTTP godoc
// @Summary Принять callback платёжного провайдера
// @Description Проверяет подпись и публикует статус платежа в очередь сверки.
// @Tags Payments
// @Accept  json
// @Param rail path string true "Платёжный канал"
// @Param X-Api-Signature header string true "HMAC-SHA256 подпись тела"
// @Success 200 "Событие принято"
// @Failure 400 "Некорректное тело запроса"
// @Failure 401 "Неверная подпись"
// @Failure 404 "Неизвестный платёжный канал"
// @Router /payments/webhook/{rail} [post]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.payment.webhook"
	rail := chi.URLParam(r, "rail")
	log := h.log.With(slog.String("op", op), slog.String("rail", rail))

	if _, ok := rails.Lookup(rail); !ok {
		log.Error("unknown payment rail in webhook path")
		w.WriteHeader(http.StatusNotFound)
		return
	}

	body, err := io.ReadAll(r.Body)
	if err != nil {
		log.Error("failed to read webhook body", sl.Err(err))
		w.WriteHeader(http.StatusBadRequest)
		return
	}
	defer func() {
		_ = r.Body.Close()
	}()

	signature := r.Header.Get("X-Api-Signature")
	if signature == "" || !h.verifySignature(body, signature) {
		log.Error("invalid or missing webhook signature")
		w.WriteHeader(http.StatusUnauthorized)
		return
	}

	var payload Payload
	if err := json.Unmarshal(body, &payload); err != nil {
		log.Error("failed to unmarshal webhook payload", sl.Err(err))
		w.WriteHeader(http.StatusBadRequest)
		return
	}
	if payload.Object.ID == "" || payload.Object.Status == "" {
		log.Error("webhook payload missing payment id or status")
		w.WriteHeader(http.StatusBadRequest)
		return
	}

	metrics.WebhookEvents.WithLabelValues(rail).Inc()

	// Статус здесь не интерпретируется: отображение на словарь намерения
	// и неизвестные статусы — забота воркера сверки. Провайдеру важен
	// только быстрый 2xx.
	event := rabbitmq.ProviderStatusEvent{
		ExternalReference: payload.Object.ID,
		ProviderStatus:    payload.Object.Status,
		Rail:              rail,
		ReceivedAt:        time.Now().UTC(),
	}
	if err := h.publisher.Publish(event); err != nil {
		log.Error("failed to publish provider status event", sl.Err(err))
		w.WriteHeader(http.StatusInternalServerError)
		return
	}

	log.Info("webhook accepted",
		slog.String("payment_id", payload.Object.ID),
		slog.String("provider_status", payload.Object.Status))
	w.WriteHeader(http.StatusOK)
}
