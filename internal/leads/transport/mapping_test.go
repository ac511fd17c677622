package transport

import (
	"testing"

	"training_leads_backend/internal/leads/domain"
	"training_leads_backend/internal/leads/lifecycle"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseOutcomeAcceptsHyphens(t *testing.T) {
	o, err := ParseOutcome("No-Answer-Unreachable")
	require.NoError(t, err)
	assert.Equal(t, domain.OutcomeNoAnswerUnreachable, o)

	_, err = ParseOutcome("hung up")
	assert.Error(t, err)
}

func TestParseFinancingType(t *testing.T) {
	f, err := ParseFinancingType("training-account")
	require.NoError(t, err)
	assert.Equal(t, domain.FinancingTrainingAccount, f)
}

func TestParseStatusesMapsLegacyNames(t *testing.T) {
	statuses, err := ParseStatuses("rdv_manque, a-rappeler,perdu,enrolled")
	require.NoError(t, err)
	assert.Equal(t, []domain.Status{domain.StatusCallbackPending, domain.StatusLost, domain.StatusEnrolled}, statuses)

	statuses, err = ParseStatuses("")
	require.NoError(t, err)
	assert.Nil(t, statuses)

	_, err = ParseStatuses("new,pending_forever")
	assert.Error(t, err)
}

func TestToPaymentResponseInEuros(t *testing.T) {
	total := domain.Money(90000)
	resp := ToPaymentResponse(lifecycle.Result{
		LeadID:          uuid.New(),
		PreviousStatus:  domain.StatusAwaitingPayment,
		NewStatus:       domain.StatusEnrolled,
		Score:           86,
		Grade:           domain.GradeA,
		TotalAmount:     &total,
		AmountPaid:      30000,
		ThresholdAmount: 27000,
		Enrolled:        true,
	})

	assert.True(t, resp.Success)
	assert.Equal(t, "enrolled", resp.NewStatus)
	assert.Equal(t, 900.0, *resp.TotalAmount)
	assert.Equal(t, 300.0, *resp.AmountPaid)
	assert.Equal(t, 270.0, *resp.ThresholdAmount)
	assert.True(t, *resp.Enrolled)
}
