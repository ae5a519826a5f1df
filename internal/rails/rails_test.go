package rails

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cinexnema-cyber/teste-0101-sub001/internal/models"
)

func TestLookup(t *testing.T) {
	tests := []struct {
		name             string
		rail             string
		wantOk           bool
		wantConfirmation Confirmation
	}{
		{name: "карта подтверждается webhook", rail: models.RailCard, wantOk: true, wantConfirmation: ConfirmWebhook},
		{name: "банковский буклет опрашивается", rail: models.RailBankSlip, wantOk: true, wantConfirmation: ConfirmPoll},
		{name: "сгенерированная ссылка подтверждается вручную", rail: models.RailGeneratedLink, wantOk: true, wantConfirmation: ConfirmManual},
		{name: "неизвестный канал отклоняется", rail: "crypto", wantOk: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			spec, ok := Lookup(tt.rail)
			require.Equal(t, tt.wantOk, ok)
			if ok {
				assert.Equal(t, tt.wantConfirmation, spec.Confirmation)
				assert.Positive(t, spec.Expiry)
				assert.NotEmpty(t, spec.Statuses)
			}
		})
	}
}

func TestMapProviderStatus(t *testing.T) {
	tests := []struct {
		name           string
		rail           string
		providerStatus string
		want           string
		wantOk         bool
	}{
		{name: "approved по карте подтверждает", rail: models.RailCard, providerStatus: "approved", want: models.IntentStatusConfirmed, wantOk: true},
		{name: "declined по карте отклоняет", rail: models.RailCard, providerStatus: "declined", want: models.IntentStatusRejected, wantOk: true},
		{name: "paid по мгновенному переводу подтверждает", rail: models.RailInstant, providerStatus: "paid", want: models.IntentStatusConfirmed, wantOk: true},
		{name: "settled по буклету подтверждает", rail: models.RailBankSlip, providerStatus: "settled", want: models.IntentStatusConfirmed, wantOk: true},
		{name: "неизвестный статус провайдера не отображается", rail: models.RailCard, providerStatus: "charged_back", wantOk: false},
		{name: "статус чужого канала не отображается", rail: models.RailCard, providerStatus: "paid", wantOk: false},
		{name: "неизвестный канал не отображается", rail: "crypto", providerStatus: "approved", wantOk: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := MapProviderStatus(tt.rail, tt.providerStatus)
			require.Equal(t, tt.wantOk, ok)
			if ok {
				assert.Equal(t, tt.want, got)
			}
		})
	}
}

func TestPollRails(t *testing.T) {
	polled := PollRails()
	assert.Equal(t, []string{models.RailBankSlip}, polled)
}

// Отображённые статусы каждого канала обязаны быть терминальными:
// нетерминальный результат отображения означал бы вечное намерение.
func TestMappedStatusesAreTerminal(t *testing.T) {
	for rail, spec := range table {
		for providerStatus, mapped := range spec.Statuses {
			assert.True(t, models.IntentStatusIsTerminal(mapped),
				"rail %s provider status %s maps to non-terminal %s", rail, providerStatus, mapped)
		}
	}
}
