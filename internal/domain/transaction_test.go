package domain

import (
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewTransaction(t *testing.T) {
	userID := uuid.New()

	txn, err := NewTransaction(userID, TxDirectIncome, 50, "direct bonus")
	require.NoError(t, err)

	assert.Equal(t, TxPending, txn.Status)
	assert.True(t, strings.HasPrefix(txn.TxID, "TXN"))
	assert.False(t, txn.IsTerminal())

	// Zero is allowed; a truncated commission can legitimately be zero.
	_, err = NewTransaction(userID, TxLevelIncome, 0, "")
	assert.NoError(t, err)

	_, err = NewTransaction(userID, TxWithdrawal, -10, "")
	assert.ErrorIs(t, err, ErrInvalidAmount)
}

func TestTransactionCompleteIsOneWay(t *testing.T) {
	adminID := uuid.New()
	txn, err := NewTransaction(uuid.New(), TxWithdrawal, 100, "payout")
	require.NoError(t, err)

	require.NoError(t, txn.Complete(&adminID))
	assert.Equal(t, TxCompleted, txn.Status)
	assert.NotNil(t, txn.CompletedAt)

	// A second completion must be refused, not silently re-applied.
	assert.ErrorIs(t, txn.Complete(&adminID), ErrInvalidTransition)
	assert.ErrorIs(t, txn.Fail("late failure", &adminID), ErrInvalidTransition)
}

func TestTransactionFailAndCancel(t *testing.T) {
	txn, err := NewTransaction(uuid.New(), TxWithdrawal, 100, "payout")
	require.NoError(t, err)

	require.NoError(t, txn.Fail("bank bounced", nil))
	assert.Equal(t, TxFailed, txn.Status)
	assert.Equal(t, "bank bounced", txn.Notes)
	assert.ErrorIs(t, txn.Cancel(), ErrInvalidTransition)

	txn2, err := NewTransaction(uuid.New(), TxWithdrawal, 100, "payout")
	require.NoError(t, err)
	require.NoError(t, txn2.Cancel())
	assert.Equal(t, TxCancelled, txn2.Status)
}
