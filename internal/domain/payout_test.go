package domain

import (
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewPayout(t *testing.T) {
	userID := uuid.New()

	p, err := NewPayout(userID, 200, 2, MethodBank, map[string]string{"iban": "DE00"})
	require.NoError(t, err)

	assert.Equal(t, PayoutPending, p.Status)
	assert.InDelta(t, 4.0, p.ProcessingFee, 1e-9)
	assert.InDelta(t, 196.0, p.NetAmount, 1e-9)
	assert.True(t, strings.HasPrefix(p.PayoutRef, "WD"))

	_, err = NewPayout(userID, 0, 2, MethodBank, nil)
	assert.ErrorIs(t, err, ErrInvalidAmount)

	_, err = NewPayout(userID, 100, 2, "cash", nil)
	assert.Error(t, err)
}

func TestPayoutTransitions(t *testing.T) {
	adminID := uuid.New()

	newPending := func() *Payout {
		p, err := NewPayout(uuid.New(), 100, 2, MethodCrypto, nil)
		require.NoError(t, err)
		return p
	}

	t.Run("happy path to completed", func(t *testing.T) {
		p := newPending()
		require.NoError(t, p.Transition(PayoutApproved, &adminID))
		assert.NotNil(t, p.ProcessedAt)
		assert.Equal(t, &adminID, p.ProcessedBy)

		require.NoError(t, p.Transition(PayoutProcessing, &adminID))
		require.NoError(t, p.Transition(PayoutCompleted, &adminID))
		assert.NotNil(t, p.CompletedAt)
		assert.False(t, p.IsOpen())
	})

	t.Run("fail then retry", func(t *testing.T) {
		p := newPending()
		require.NoError(t, p.Transition(PayoutApproved, &adminID))
		require.NoError(t, p.Transition(PayoutProcessing, &adminID))

		require.NoError(t, p.Transition(PayoutFailed, &adminID))
		assert.Equal(t, 1, p.RetryCount)
		assert.NotNil(t, p.LastRetryAt)
		assert.False(t, p.IsOpen())

		// Retry resumes processing without bumping the counter again.
		require.NoError(t, p.Transition(PayoutProcessing, &adminID))
		assert.Equal(t, 1, p.RetryCount)
		assert.True(t, p.IsOpen())
	})

	t.Run("illegal moves", func(t *testing.T) {
		p := newPending()
		assert.ErrorIs(t, p.Transition(PayoutCompleted, &adminID), ErrInvalidTransition)
		assert.ErrorIs(t, p.Transition(PayoutProcessing, &adminID), ErrInvalidTransition)

		require.NoError(t, p.Transition(PayoutRejected, &adminID))
		// Rejected is terminal.
		for _, to := range []string{PayoutApproved, PayoutProcessing, PayoutCompleted, PayoutCancelled} {
			assert.ErrorIs(t, p.Transition(to, &adminID), ErrInvalidTransition)
		}
	})

	t.Run("cancel only from pending", func(t *testing.T) {
		p := newPending()
		require.NoError(t, p.Transition(PayoutCancelled, nil))

		p = newPending()
		require.NoError(t, p.Transition(PayoutApproved, &adminID))
		assert.ErrorIs(t, p.Transition(PayoutCancelled, nil), ErrInvalidTransition)
	})
}
