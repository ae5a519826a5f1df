// Package paymentprovider реализует HTTP-клиент платёжного шлюза:
// создание checkout-сессии для выбранного канала и чтение статуса платежа
// для каналов, подтверждаемых опросом.
package paymentprovider

import "time"

// Amount представляет денежную сумму.
type Amount struct {
	Value    string `json:"value"`    // сумма, например "29.90"
	Currency string `json:"currency"` // валюта, например "BRL"
}

// CreateCheckoutRequest представляет запрос на создание checkout-сессии.
type CreateCheckoutRequest struct {
	Amount   Amount            `json:"amount"`
	Method   string            `json:"method"`             // платёжный канал на стороне шлюза
	Metadata map[string]string `json:"metadata,omitempty"` // intent_id, account_uid, plan
}

// Checkout описывает способ завершения оплаты, возвращённый шлюзом:
// ссылка для redirect-каналов либо код/строка для каналов с инструкцией
// на экране (линия банковского буклета, код мгновенного перевода).
type Checkout struct {
	Type string `json:"type"`           // "url" или "code"
	URL  string `json:"url,omitempty"`  // адрес hosted checkout
	Code string `json:"code,omitempty"` // код или платёжная строка
}

// CreateCheckoutResponse представляет ответ на создание checkout-сессии.
type CreateCheckoutResponse struct {
	ID        string    `json:"id"`     // ID платежа на стороне шлюза
	Status    string    `json:"status"` // статус платежа у провайдера
	Amount    Amount    `json:"amount"`
	Checkout  Checkout  `json:"checkout"`
	CreatedAt time.Time `json:"created_at"`
}

// PaymentResponse представляет статус платежа при опросе.
type PaymentResponse struct {
	ID     string `json:"id"`
	Status string `json:"status"`
	Amount Amount `json:"amount"`
}
