package sweeper

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/cinexnema-cyber/teste-0101-sub001/internal/models"
	"github.com/cinexnema-cyber/teste-0101-sub001/internal/paymentprovider"
	"github.com/cinexnema-cyber/teste-0101-sub001/internal/services/intent"
)

type RepoMock struct{ mock.Mock }

func (m *RepoMock) ExpireOverdueIntents(ctx context.Context, now time.Time) (int, error) {
	args := m.Called(ctx, now)
	return args.Int(0), args.Error(1)
}

func (m *RepoMock) ListAwaitingIntentsByRails(ctx context.Context, railNames []string, limit int) ([]*models.PaymentIntent, error) {
	args := m.Called(ctx, railNames, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.PaymentIntent), args.Error(1)
}

type ApplierMock struct{ mock.Mock }

func (m *ApplierMock) ApplyProviderStatusByReference(ctx context.Context, externalReference, providerStatus string) (string, error) {
	args := m.Called(ctx, externalReference, providerStatus)
	return args.String(0), args.Error(1)
}

type GatewayMock struct{ mock.Mock }

func (m *GatewayMock) GetPayment(ctx context.Context, externalReference string) (*paymentprovider.PaymentResponse, error) {
	args := m.Called(ctx, externalReference)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*paymentprovider.PaymentResponse), args.Error(1)
}

func newNoopLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, &slog.HandlerOptions{}))
}

func pollIntent(id string) *models.PaymentIntent {
	ref := "ext-" + id
	now := time.Now().UTC()
	return &models.PaymentIntent{
		ID:                id,
		AccountUID:        "uid-1",
		Plan:              models.PlanMonthly,
		Rail:              models.RailBankSlip,
		ExternalReference: &ref,
		Status:            models.IntentStatusAwaiting,
		CreatedAt:         now,
		ExpiresAt:         now.Add(72 * time.Hour),
	}
}

func TestService_RunExpireOverdue(t *testing.T) {
	repo := new(RepoMock)
	service := NewService(repo, new(ApplierMock), new(GatewayMock), newNoopLogger())

	repo.On("ExpireOverdueIntents", mock.Anything, mock.Anything).Return(4, nil).Once()

	err := service.RunExpireOverdue(context.Background())
	require.NoError(t, err)
	repo.AssertExpectations(t)
}

func TestService_RunPollProvider(t *testing.T) {
	repo := new(RepoMock)
	applier := new(ApplierMock)
	gw := new(GatewayMock)
	service := NewService(repo, applier, gw, newNoopLogger())

	first := pollIntent("intent-1")
	second := pollIntent("intent-2")

	repo.On("ListAwaitingIntentsByRails", mock.Anything, []string{models.RailBankSlip}, pollBatchSize).
		Return([]*models.PaymentIntent{first, second}, nil).Once()
	gw.On("GetPayment", mock.Anything, "ext-intent-1").
		Return(&paymentprovider.PaymentResponse{ID: "ext-intent-1", Status: "settled"}, nil).Once()
	gw.On("GetPayment", mock.Anything, "ext-intent-2").
		Return(&paymentprovider.PaymentResponse{ID: "ext-intent-2", Status: "rejected"}, nil).Once()
	applier.On("ApplyProviderStatusByReference", mock.Anything, "ext-intent-1", "settled").
		Return(models.IntentStatusConfirmed, nil).Once()
	applier.On("ApplyProviderStatusByReference", mock.Anything, "ext-intent-2", "rejected").
		Return(models.IntentStatusRejected, nil).Once()

	err := service.RunPollProvider(context.Background())
	require.NoError(t, err)

	repo.AssertExpectations(t)
	gw.AssertExpectations(t)
	applier.AssertExpectations(t)
}

// Сбой по одному намерению не прерывает проход опроса.
func TestService_RunPollProvider_ContinuesAfterErrors(t *testing.T) {
	repo := new(RepoMock)
	applier := new(ApplierMock)
	gw := new(GatewayMock)
	service := NewService(repo, applier, gw, newNoopLogger())

	first := pollIntent("intent-1")
	second := pollIntent("intent-2")
	third := pollIntent("intent-3")

	repo.On("ListAwaitingIntentsByRails", mock.Anything, mock.Anything, mock.Anything).
		Return([]*models.PaymentIntent{first, second, third}, nil).Once()
	gw.On("GetPayment", mock.Anything, "ext-intent-1").
		Return(nil, errors.New("provider timeout")).Once()
	gw.On("GetPayment", mock.Anything, "ext-intent-2").
		Return(&paymentprovider.PaymentResponse{ID: "ext-intent-2", Status: "weird_status"}, nil).Once()
	gw.On("GetPayment", mock.Anything, "ext-intent-3").
		Return(&paymentprovider.PaymentResponse{ID: "ext-intent-3", Status: "settled"}, nil).Once()
	applier.On("ApplyProviderStatusByReference", mock.Anything, "ext-intent-2", "weird_status").
		Return(models.IntentStatusPendingUnknown, intent.ErrUnknownProviderStatus).Once()
	applier.On("ApplyProviderStatusByReference", mock.Anything, "ext-intent-3", "settled").
		Return(models.IntentStatusConfirmed, nil).Once()

	err := service.RunPollProvider(context.Background())
	require.NoError(t, err)

	gw.AssertExpectations(t)
	applier.AssertExpectations(t)
}
