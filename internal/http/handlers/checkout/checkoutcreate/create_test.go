package checkoutcreate

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/cinexnema-cyber/teste-0101-sub001/internal/http/middlewarectx"
	"github.com/cinexnema-cyber/teste-0101-sub001/internal/models"
	"github.com/cinexnema-cyber/teste-0101-sub001/internal/paymentprovider"
	"github.com/cinexnema-cyber/teste-0101-sub001/internal/services/intent"
)

type ServiceMock struct{ mock.Mock }

func (m *ServiceMock) CreateCheckout(ctx context.Context, accountUID, plan, rail string) (*intent.CheckoutResult, error) {
	args := m.Called(ctx, accountUID, plan, rail)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*intent.CheckoutResult), args.Error(1)
}

func (m *ServiceMock) ActiveIntent(ctx context.Context, accountUID, plan string) (*models.PaymentIntent, error) {
	args := m.Called(ctx, accountUID, plan)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.PaymentIntent), args.Error(1)
}

func newNoopLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, &slog.HandlerOptions{}))
}

func newCheckoutRequest(t *testing.T, body string, accountUID string) *http.Request {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, "/checkout", bytes.NewBufferString(body))
	req.Header.Set("Content-Type", "application/json")
	if accountUID != "" {
		ctx := context.WithValue(req.Context(), middlewarectx.AccountUID, accountUID)
		req = req.WithContext(ctx)
	}
	return req
}

func TestHandler_ServeHTTP_Success(t *testing.T) {
	service := new(ServiceMock)
	handler := New(newNoopLogger(), service)

	now := time.Now().UTC()
	result := &intent.CheckoutResult{
		Intent: &models.PaymentIntent{
			ID:         "intent-1",
			AccountUID: "uid-1",
			Plan:       models.PlanMonthly,
			Rail:       models.RailCard,
			Status:     models.IntentStatusAwaiting,
			ExpiresAt:  now.Add(15 * time.Minute),
		},
		Checkout: paymentprovider.Checkout{Type: "url", URL: "https://pay.example/checkout/1"},
	}
	service.On("CreateCheckout", mock.Anything, "uid-1", "monthly", "card").Return(result, nil).Once()

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, newCheckoutRequest(t, `{"plan": "monthly", "rail": "card"}`, "uid-1"))

	require.Equal(t, http.StatusOK, rec.Code)

	var resp struct {
		Status string `json:"status"`
		Data   struct {
			IntentID string `json:"intent_id"`
			Status   string `json:"status"`
			Checkout struct {
				Type string `json:"type"`
				URL  string `json:"url"`
			} `json:"checkout"`
		} `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "OK", resp.Status)
	assert.Equal(t, "intent-1", resp.Data.IntentID)
	assert.Equal(t, models.IntentStatusAwaiting, resp.Data.Status)
	assert.Equal(t, "https://pay.example/checkout/1", resp.Data.Checkout.URL)

	service.AssertExpectations(t)
}

// Повторная инициация при живом намерении возвращает 409 и данные
// для возобновления уже начатой оплаты.
func TestHandler_ServeHTTP_DuplicateActiveIntent(t *testing.T) {
	service := new(ServiceMock)
	handler := New(newNoopLogger(), service)

	active := &models.PaymentIntent{
		ID:         "intent-1",
		AccountUID: "uid-1",
		Plan:       models.PlanMonthly,
		Rail:       models.RailBankSlip,
		Status:     models.IntentStatusAwaiting,
		ExpiresAt:  time.Now().UTC().Add(48 * time.Hour),
	}
	service.On("CreateCheckout", mock.Anything, "uid-1", "monthly", "card").
		Return(nil, intent.ErrDuplicateActiveIntent).Once()
	service.On("ActiveIntent", mock.Anything, "uid-1", "monthly").Return(active, nil).Once()

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, newCheckoutRequest(t, `{"plan": "monthly", "rail": "card"}`, "uid-1"))

	require.Equal(t, http.StatusConflict, rec.Code)

	var resp struct {
		Status string `json:"status"`
		Error  string `json:"error"`
		Data   struct {
			IntentID string `json:"intent_id"`
			Rail     string `json:"rail"`
		} `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "Error", resp.Status)
	assert.Equal(t, "payment already in progress", resp.Error)
	assert.Equal(t, "intent-1", resp.Data.IntentID)
	assert.Equal(t, models.RailBankSlip, resp.Data.Rail)

	service.AssertExpectations(t)
}

func TestHandler_ServeHTTP_Unauthorized(t *testing.T) {
	service := new(ServiceMock)
	handler := New(newNoopLogger(), service)

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, newCheckoutRequest(t, `{"plan": "monthly", "rail": "card"}`, ""))

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	service.AssertNotCalled(t, "CreateCheckout", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestHandler_ServeHTTP_BadRequests(t *testing.T) {
	tests := []struct {
		name     string
		body     string
		wantCode int
	}{
		{
			name:     "невалидный JSON",
			body:     `{plan:`,
			wantCode: http.StatusBadRequest,
		},
		{
			name:     "неизвестный план",
			body:     `{"plan": "weekly", "rail": "card"}`,
			wantCode: http.StatusUnprocessableEntity,
		},
		{
			name:     "неизвестный канал",
			body:     `{"plan": "monthly", "rail": "crypto"}`,
			wantCode: http.StatusUnprocessableEntity,
		},
		{
			name:     "пустое тело",
			body:     `{}`,
			wantCode: http.StatusUnprocessableEntity,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			service := new(ServiceMock)
			handler := New(newNoopLogger(), service)

			rec := httptest.NewRecorder()
			handler.ServeHTTP(rec, newCheckoutRequest(t, tt.body, "uid-1"))

			assert.Equal(t, tt.wantCode, rec.Code)
			service.AssertNotCalled(t, "CreateCheckout", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
		})
	}
}
