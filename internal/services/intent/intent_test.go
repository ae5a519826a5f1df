package intent

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/cinexnema-cyber/teste-0101-sub001/internal/config"
	"github.com/cinexnema-cyber/teste-0101-sub001/internal/models"
	"github.com/cinexnema-cyber/teste-0101-sub001/internal/paymentprovider"
	"github.com/cinexnema-cyber/teste-0101-sub001/internal/storage/repository"
)

type RepoMock struct{ mock.Mock }

func (m *RepoMock) CreateIntent(ctx context.Context, intent models.PaymentIntent) error {
	return m.Called(ctx, intent).Error(0)
}

func (m *RepoMock) GetIntent(ctx context.Context, id string) (*models.PaymentIntent, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.PaymentIntent), args.Error(1)
}

func (m *RepoMock) GetIntentByExternalReference(ctx context.Context, externalReference string) (*models.PaymentIntent, error) {
	args := m.Called(ctx, externalReference)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.PaymentIntent), args.Error(1)
}

func (m *RepoMock) GetActiveIntent(ctx context.Context, accountUID, plan string) (*models.PaymentIntent, error) {
	args := m.Called(ctx, accountUID, plan)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.PaymentIntent), args.Error(1)
}

func (m *RepoMock) SetIntentAwaiting(ctx context.Context, id, externalReference string) (int, error) {
	args := m.Called(ctx, id, externalReference)
	return args.Int(0), args.Error(1)
}

func (m *RepoMock) UpdateIntentStatus(ctx context.Context, id, status string, confirmedAt *time.Time) (int, error) {
	args := m.Called(ctx, id, status, confirmedAt)
	return args.Int(0), args.Error(1)
}

type ReconcilerMock struct{ mock.Mock }

func (m *ReconcilerMock) OnPaymentConfirmed(ctx context.Context, intent *models.PaymentIntent) (*models.Subscription, error) {
	args := m.Called(ctx, intent)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Subscription), args.Error(1)
}

func (m *ReconcilerMock) OnPaymentTerminalFailure(ctx context.Context, intent *models.PaymentIntent) error {
	return m.Called(ctx, intent).Error(0)
}

type GatewayMock struct{ mock.Mock }

func (m *GatewayMock) CreateCheckout(ctx context.Context, req paymentprovider.CreateCheckoutRequest) (*paymentprovider.CreateCheckoutResponse, error) {
	args := m.Called(ctx, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*paymentprovider.CreateCheckoutResponse), args.Error(1)
}

func newNoopLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, &slog.HandlerOptions{}))
}

func testPlans() config.Plans {
	return config.Plans{MonthlyPrice: "29.90", YearlyPrice: "299.00", Currency: "BRL"}
}

func newService(repo *RepoMock, rec *ReconcilerMock, gw *GatewayMock) *Service {
	return NewService(repo, rec, gw, testPlans(), newNoopLogger())
}

func awaitingIntent(id, rail string) *models.PaymentIntent {
	now := time.Now().UTC()
	ref := "ext-" + id
	return &models.PaymentIntent{
		ID:                id,
		AccountUID:        "uid-1",
		Plan:              models.PlanMonthly,
		Rail:              rail,
		ExternalReference: &ref,
		Status:            models.IntentStatusAwaiting,
		CreatedAt:         now,
		ExpiresAt:         now.Add(15 * time.Minute),
	}
}

func TestService_CreateCheckout(t *testing.T) {
	repo := new(RepoMock)
	gw := new(GatewayMock)
	service := newService(repo, new(ReconcilerMock), gw)

	repo.On("CreateIntent", mock.Anything, mock.MatchedBy(func(i models.PaymentIntent) bool {
		return i.AccountUID == "uid-1" &&
			i.Plan == models.PlanMonthly &&
			i.Rail == models.RailCard &&
			i.Status == models.IntentStatusCreated
	})).Return(nil).Once()
	gw.On("CreateCheckout", mock.Anything, mock.MatchedBy(func(req paymentprovider.CreateCheckoutRequest) bool {
		return req.Amount.Value == "29.90" && req.Amount.Currency == "BRL" && req.Method == models.RailCard
	})).Return(&paymentprovider.CreateCheckoutResponse{
		ID:       "ext-1",
		Status:   "pending",
		Checkout: paymentprovider.Checkout{Type: "url", URL: "https://pay.example/ext-1"},
	}, nil).Once()
	repo.On("SetIntentAwaiting", mock.Anything, mock.Anything, "ext-1").Return(1, nil).Once()

	result, err := service.CreateCheckout(context.Background(), "uid-1", models.PlanMonthly, models.RailCard)
	require.NoError(t, err)

	assert.Equal(t, models.IntentStatusAwaiting, result.Intent.Status)
	assert.Equal(t, "ext-1", *result.Intent.ExternalReference)
	// Дедлайн карты — 15 минут от создания.
	assert.WithinDuration(t, time.Now().UTC().Add(15*time.Minute), result.Intent.ExpiresAt, 5*time.Second)
	assert.Equal(t, "https://pay.example/ext-1", result.Checkout.URL)

	repo.AssertExpectations(t)
	gw.AssertExpectations(t)
}

func TestService_CreateCheckout_UnknownRail(t *testing.T) {
	repo := new(RepoMock)
	service := newService(repo, new(ReconcilerMock), new(GatewayMock))

	_, err := service.CreateCheckout(context.Background(), "uid-1", models.PlanMonthly, "crypto")
	require.ErrorIs(t, err, ErrUnknownRail)
	repo.AssertNotCalled(t, "CreateIntent", mock.Anything, mock.Anything)
}

// Второе незавершённое намерение того же плана отклоняется до похода в шлюз.
func TestService_CreateCheckout_DuplicateActiveIntent(t *testing.T) {
	repo := new(RepoMock)
	gw := new(GatewayMock)
	service := newService(repo, new(ReconcilerMock), gw)

	repo.On("CreateIntent", mock.Anything, mock.Anything).
		Return(repository.ErrDuplicateActiveIntent).Once()

	_, err := service.CreateCheckout(context.Background(), "uid-1", models.PlanMonthly, models.RailCard)
	require.ErrorIs(t, err, ErrDuplicateActiveIntent)

	gw.AssertNotCalled(t, "CreateCheckout", mock.Anything, mock.Anything)
}

// Ошибка шлюза закрывает намерение, чтобы не блокировать повторную попытку.
func TestService_CreateCheckout_GatewayErrorCancelsIntent(t *testing.T) {
	repo := new(RepoMock)
	gw := new(GatewayMock)
	service := newService(repo, new(ReconcilerMock), gw)

	repo.On("CreateIntent", mock.Anything, mock.Anything).Return(nil).Once()
	gw.On("CreateCheckout", mock.Anything, mock.Anything).
		Return(nil, errors.New("gateway unavailable")).Once()
	repo.On("UpdateIntentStatus", mock.Anything, mock.Anything, models.IntentStatusCancelled, (*time.Time)(nil)).
		Return(1, nil).Once()

	_, err := service.CreateCheckout(context.Background(), "uid-1", models.PlanMonthly, models.RailCard)
	require.Error(t, err)

	repo.AssertExpectations(t)
}

func TestService_ApplyProviderStatus_Confirmed(t *testing.T) {
	repo := new(RepoMock)
	rec := new(ReconcilerMock)
	service := newService(repo, rec, new(GatewayMock))

	current := awaitingIntent("intent-1", models.RailCard)
	repo.On("GetIntent", mock.Anything, "intent-1").Return(current, nil).Once()
	repo.On("UpdateIntentStatus", mock.Anything, "intent-1", models.IntentStatusConfirmed, mock.Anything).
		Return(1, nil).Once()
	rec.On("OnPaymentConfirmed", mock.Anything, mock.MatchedBy(func(i *models.PaymentIntent) bool {
		return i.ID == "intent-1" && i.Status == models.IntentStatusConfirmed && i.ConfirmedAt != nil
	})).Return(&models.Subscription{AccountUID: "uid-1"}, nil).Once()

	status, err := service.ApplyProviderStatus(context.Background(), "intent-1", "approved")
	require.NoError(t, err)
	assert.Equal(t, models.IntentStatusConfirmed, status)

	repo.AssertExpectations(t)
	rec.AssertExpectations(t)
}

func TestService_ApplyProviderStatus_Rejected(t *testing.T) {
	repo := new(RepoMock)
	rec := new(ReconcilerMock)
	service := newService(repo, rec, new(GatewayMock))

	current := awaitingIntent("intent-1", models.RailCard)
	repo.On("GetIntent", mock.Anything, "intent-1").Return(current, nil).Once()
	repo.On("UpdateIntentStatus", mock.Anything, "intent-1", models.IntentStatusRejected, (*time.Time)(nil)).
		Return(1, nil).Once()
	rec.On("OnPaymentTerminalFailure", mock.Anything, mock.Anything).Return(nil).Once()

	status, err := service.ApplyProviderStatus(context.Background(), "intent-1", "declined")
	require.NoError(t, err)
	assert.Equal(t, models.IntentStatusRejected, status)

	rec.AssertNotCalled(t, "OnPaymentConfirmed", mock.Anything, mock.Anything)
}

// Статус вне словаря канала не продвигает подписку: намерение откладывается
// в pending_unknown до ручного разбора.
func TestService_ApplyProviderStatus_UnknownStatusFailsClosed(t *testing.T) {
	repo := new(RepoMock)
	rec := new(ReconcilerMock)
	service := newService(repo, rec, new(GatewayMock))

	current := awaitingIntent("intent-1", models.RailCard)
	repo.On("GetIntent", mock.Anything, "intent-1").Return(current, nil).Once()
	repo.On("UpdateIntentStatus", mock.Anything, "intent-1", models.IntentStatusPendingUnknown, (*time.Time)(nil)).
		Return(1, nil).Once()

	status, err := service.ApplyProviderStatus(context.Background(), "intent-1", "charged_back")
	require.ErrorIs(t, err, ErrUnknownProviderStatus)
	assert.Equal(t, models.IntentStatusPendingUnknown, status)

	rec.AssertNotCalled(t, "OnPaymentConfirmed", mock.Anything, mock.Anything)
	rec.AssertNotCalled(t, "OnPaymentTerminalFailure", mock.Anything, mock.Anything)
}

// Повторная доставка подтверждения по уже подтверждённому намерению
// прогоняет сверку ещё раз: она идемпотентна, а пропущенный вызов доедет.
func TestService_ApplyProviderStatus_DuplicateConfirmationReplays(t *testing.T) {
	repo := new(RepoMock)
	rec := new(ReconcilerMock)
	service := newService(repo, rec, new(GatewayMock))

	now := time.Now().UTC()
	current := awaitingIntent("intent-1", models.RailCard)
	current.Status = models.IntentStatusConfirmed
	current.ConfirmedAt = &now

	repo.On("GetIntent", mock.Anything, "intent-1").Return(current, nil).Once()
	rec.On("OnPaymentConfirmed", mock.Anything, current).
		Return(&models.Subscription{AccountUID: "uid-1"}, nil).Once()

	status, err := service.ApplyProviderStatus(context.Background(), "intent-1", "approved")
	require.NoError(t, err)
	assert.Equal(t, models.IntentStatusConfirmed, status)

	repo.AssertNotCalled(t, "UpdateIntentStatus", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
	rec.AssertExpectations(t)
}

// Подтверждённое намерение неизменяемо: противоречащий сигнал игнорируется.
func TestService_ApplyProviderStatus_TerminalMismatchIgnored(t *testing.T) {
	repo := new(RepoMock)
	rec := new(ReconcilerMock)
	service := newService(repo, rec, new(GatewayMock))

	current := awaitingIntent("intent-1", models.RailCard)
	current.Status = models.IntentStatusRejected

	repo.On("GetIntent", mock.Anything, "intent-1").Return(current, nil).Once()

	status, err := service.ApplyProviderStatus(context.Background(), "intent-1", "approved")
	require.NoError(t, err)
	assert.Equal(t, models.IntentStatusRejected, status)

	repo.AssertNotCalled(t, "UpdateIntentStatus", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
	rec.AssertNotCalled(t, "OnPaymentConfirmed", mock.Anything, mock.Anything)
}

func TestService_ApplyProviderStatusByReference_NotFound(t *testing.T) {
	repo := new(RepoMock)
	service := newService(repo, new(ReconcilerMock), new(GatewayMock))

	repo.On("GetIntentByExternalReference", mock.Anything, "ext-missing").Return(nil, nil).Once()

	_, err := service.ApplyProviderStatusByReference(context.Background(), "ext-missing", "approved")
	require.ErrorIs(t, err, ErrIntentNotFound)
}

// Просроченное нетерминальное намерение истекает при чтении статуса.
func TestService_GetIntentStatus_LazyExpiry(t *testing.T) {
	repo := new(RepoMock)
	service := newService(repo, new(ReconcilerMock), new(GatewayMock))

	current := awaitingIntent("intent-1", models.RailCard)
	current.ExpiresAt = time.Now().UTC().Add(-time.Minute)

	repo.On("GetIntent", mock.Anything, "intent-1").Return(current, nil).Once()
	repo.On("UpdateIntentStatus", mock.Anything, "intent-1", models.IntentStatusExpired, (*time.Time)(nil)).
		Return(1, nil).Once()

	status, err := service.GetIntentStatus(context.Background(), "intent-1")
	require.NoError(t, err)
	assert.Equal(t, models.IntentStatusExpired, status)

	repo.AssertExpectations(t)
}

func TestService_GetIntentStatus_TerminalNotExpired(t *testing.T) {
	repo := new(RepoMock)
	service := newService(repo, new(ReconcilerMock), new(GatewayMock))

	current := awaitingIntent("intent-1", models.RailCard)
	current.Status = models.IntentStatusConfirmed
	current.ExpiresAt = time.Now().UTC().Add(-time.Minute)

	repo.On("GetIntent", mock.Anything, "intent-1").Return(current, nil).Once()

	status, err := service.GetIntentStatus(context.Background(), "intent-1")
	require.NoError(t, err)
	assert.Equal(t, models.IntentStatusConfirmed, status)

	repo.AssertNotCalled(t, "UpdateIntentStatus", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}
