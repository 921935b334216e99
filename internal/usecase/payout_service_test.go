package usecase

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"provest/internal/domain"
)

// fundedUser creates a user whose wallet holds amount in the bonus category.
func fundedUser(t *testing.T, env *testEnv, amount float64) *domain.User {
	t.Helper()
	u := env.addUser("FUND"+uuid.NewString()[:4], nil)
	_, err := env.ledger.AddIncome(context.Background(), u.ID, domain.CategoryBonus, amount, IncomeMeta{
		Description: "test funding",
	})
	require.NoError(t, err)
	return u
}

func TestPayoutRequestReserves(t *testing.T) {
	env := newTestEnv()
	ctx := context.Background()
	user := fundedUser(t, env, 200)

	payout, err := env.payoutSvc.Request(ctx, user.ID, 50, domain.MethodBank, map[string]string{"iban": "XX00"})
	require.NoError(t, err)
	assert.Equal(t, domain.PayoutPending, payout.Status)
	assert.Equal(t, 1.0, payout.ProcessingFee)
	assert.Equal(t, 49.0, payout.NetAmount)
	require.NotNil(t, payout.TransactionID)

	w := env.db.wallets[user.ID]
	assert.Equal(t, 50.0, w.PendingWithdrawal)
	assert.Equal(t, 200.0, w.TotalBalance)
	assert.Equal(t, 150.0, w.AvailableBalance())

	// The paired withdrawal record stays pending until settlement.
	record := env.db.txns[*payout.TransactionID]
	require.NotNil(t, record)
	assert.Equal(t, domain.TxPending, record.Status)
	assert.Equal(t, payout.PayoutRef, record.Notes)
}

func TestPayoutRequestIneligible(t *testing.T) {
	env := newTestEnv()
	ctx := context.Background()
	user := fundedUser(t, env, 30)

	_, err := env.payoutSvc.Request(ctx, user.ID, 100, domain.MethodBank, nil)
	var elig *domain.EligibilityError
	require.ErrorAs(t, err, &elig)
	assert.ErrorIs(t, err, domain.ErrWithdrawalNotEligible)
	assert.False(t, elig.Result.Eligible)
	assert.Equal(t, "amount exceeds available balance", elig.Result.Reason)

	// Nothing was reserved.
	assert.Equal(t, 0.0, env.db.wallets[user.ID].PendingWithdrawal)
}

func TestPayoutCancelReleases(t *testing.T) {
	env := newTestEnv()
	ctx := context.Background()
	user := fundedUser(t, env, 200)

	payout, err := env.payoutSvc.Request(ctx, user.ID, 50, domain.MethodBank, nil)
	require.NoError(t, err)

	require.NoError(t, env.payoutSvc.Cancel(ctx, user.ID, payout.ID))

	stored := env.db.payouts[payout.ID]
	assert.Equal(t, domain.PayoutCancelled, stored.Status)
	assert.Equal(t, 0.0, env.db.wallets[user.ID].PendingWithdrawal)
	assert.Equal(t, 200.0, env.db.wallets[user.ID].TotalBalance)
	assert.Equal(t, domain.TxCancelled, env.db.txns[*payout.TransactionID].Status)
}

func TestPayoutCancelNotOwner(t *testing.T) {
	env := newTestEnv()
	ctx := context.Background()
	user := fundedUser(t, env, 200)
	other := env.addUser("OTHR0001", nil)

	payout, err := env.payoutSvc.Request(ctx, user.ID, 50, domain.MethodBank, nil)
	require.NoError(t, err)

	assert.ErrorIs(t, env.payoutSvc.Cancel(ctx, other.ID, payout.ID), domain.ErrNotFound)
}

func TestPayoutCompleteSettlesOnce(t *testing.T) {
	env := newTestEnv()
	ctx := context.Background()
	user := fundedUser(t, env, 200)
	admin := env.addUser("ADMN0001", nil)

	payout, err := env.payoutSvc.Request(ctx, user.ID, 50, domain.MethodBank, nil)
	require.NoError(t, err)

	require.NoError(t, env.payoutSvc.Approve(ctx, admin.ID, payout.ID))
	require.NoError(t, env.payoutSvc.StartProcessing(ctx, admin.ID, payout.ID))
	require.NoError(t, env.payoutSvc.Complete(ctx, admin.ID, payout.ID))

	w := env.db.wallets[user.ID]
	assert.Equal(t, 150.0, w.TotalBalance)
	assert.Equal(t, 0.0, w.PendingWithdrawal)
	assert.Equal(t, 50.0, w.TotalWithdrawn)
	assert.Equal(t, 50.0, w.TodayWithdrawal)

	stored := env.db.payouts[payout.ID]
	assert.Equal(t, domain.PayoutCompleted, stored.Status)
	assert.Equal(t, domain.TxCompleted, env.db.txns[*payout.TransactionID].Status)

	// A second Complete loses the conditional update and must not deduct
	// again.
	assert.ErrorIs(t, env.payoutSvc.Complete(ctx, admin.ID, payout.ID), domain.ErrInvalidTransition)
	assert.Equal(t, 150.0, env.db.wallets[user.ID].TotalBalance)
	assert.Equal(t, 50.0, env.db.wallets[user.ID].TotalWithdrawn)
}

func TestPayoutCompleteAtomicWithSettlement(t *testing.T) {
	env := newTestEnv()
	ctx := context.Background()
	user := fundedUser(t, env, 200)
	admin := env.addUser("ADMN0006", nil)

	payout, err := env.payoutSvc.Request(ctx, user.ID, 50, domain.MethodBank, nil)
	require.NoError(t, err)
	require.NoError(t, env.payoutSvc.Approve(ctx, admin.ID, payout.ID))
	require.NoError(t, env.payoutSvc.StartProcessing(ctx, admin.ID, payout.ID))

	// Finalize the withdrawal record out from under the payout. Settlement
	// must now fail, and because the status flip commits together with it,
	// the payout stays processing with its reservation intact rather than
	// becoming completed-but-unsettled.
	require.NoError(t, env.db.txns[*payout.TransactionID].Fail("manual intervention", nil))

	err = env.payoutSvc.Complete(ctx, admin.ID, payout.ID)
	assert.ErrorIs(t, err, domain.ErrInvalidTransition)

	stored := env.db.payouts[payout.ID]
	assert.Equal(t, domain.PayoutProcessing, stored.Status)
	w := env.db.wallets[user.ID]
	assert.Equal(t, 200.0, w.TotalBalance)
	assert.Equal(t, 50.0, w.PendingWithdrawal)
	assert.Equal(t, 0.0, w.TotalWithdrawn)
}

func TestPayoutRejectRequiresReason(t *testing.T) {
	env := newTestEnv()
	ctx := context.Background()
	user := fundedUser(t, env, 200)
	admin := env.addUser("ADMN0002", nil)

	payout, err := env.payoutSvc.Request(ctx, user.ID, 50, domain.MethodBank, nil)
	require.NoError(t, err)

	assert.Error(t, env.payoutSvc.Reject(ctx, admin.ID, payout.ID, ""))

	require.NoError(t, env.payoutSvc.Reject(ctx, admin.ID, payout.ID, "documents missing"))
	stored := env.db.payouts[payout.ID]
	assert.Equal(t, domain.PayoutRejected, stored.Status)
	assert.Equal(t, "documents missing", stored.RejectReason)
	assert.Equal(t, 0.0, env.db.wallets[user.ID].PendingWithdrawal)
	assert.Equal(t, domain.TxFailed, env.db.txns[*payout.TransactionID].Status)
}

func TestPayoutFailAndRetry(t *testing.T) {
	env := newTestEnv()
	ctx := context.Background()
	user := fundedUser(t, env, 200)
	admin := env.addUser("ADMN0003", nil)

	payout, err := env.payoutSvc.Request(ctx, user.ID, 50, domain.MethodBank, nil)
	require.NoError(t, err)
	require.NoError(t, env.payoutSvc.Approve(ctx, admin.ID, payout.ID))
	require.NoError(t, env.payoutSvc.StartProcessing(ctx, admin.ID, payout.ID))

	require.NoError(t, env.payoutSvc.Fail(ctx, admin.ID, payout.ID, "gateway timeout"))
	stored := env.db.payouts[payout.ID]
	assert.Equal(t, domain.PayoutFailed, stored.Status)
	assert.Equal(t, 1, stored.RetryCount)
	assert.Equal(t, 0.0, env.db.wallets[user.ID].PendingWithdrawal)

	// Retry re-takes the reservation and re-enters processing without
	// bumping the retry counter.
	require.NoError(t, env.payoutSvc.Retry(ctx, admin.ID, payout.ID))
	stored = env.db.payouts[payout.ID]
	assert.Equal(t, domain.PayoutProcessing, stored.Status)
	assert.Equal(t, 1, stored.RetryCount)
	assert.Equal(t, 50.0, env.db.wallets[user.ID].PendingWithdrawal)

	require.NoError(t, env.payoutSvc.Complete(ctx, admin.ID, payout.ID))
	assert.Equal(t, 150.0, env.db.wallets[user.ID].TotalBalance)
}

func TestPayoutRetryOnlyFromFailed(t *testing.T) {
	env := newTestEnv()
	ctx := context.Background()
	user := fundedUser(t, env, 200)
	admin := env.addUser("ADMN0004", nil)

	payout, err := env.payoutSvc.Request(ctx, user.ID, 50, domain.MethodBank, nil)
	require.NoError(t, err)

	assert.ErrorIs(t, env.payoutSvc.Retry(ctx, admin.ID, payout.ID), domain.ErrInvalidTransition)
}

func TestPayoutVisibility(t *testing.T) {
	env := newTestEnv()
	ctx := context.Background()
	user := fundedUser(t, env, 200)
	other := env.addUser("OTHR0002", nil)

	payout, err := env.payoutSvc.Request(ctx, user.ID, 50, domain.MethodBank, nil)
	require.NoError(t, err)

	got, err := env.payoutSvc.GetPayout(ctx, user.ID, false, payout.ID)
	require.NoError(t, err)
	assert.Equal(t, payout.ID, got.ID)

	_, err = env.payoutSvc.GetPayout(ctx, other.ID, false, payout.ID)
	assert.ErrorIs(t, err, domain.ErrNotFound)

	got, err = env.payoutSvc.GetPayout(ctx, other.ID, true, payout.ID)
	require.NoError(t, err)
	assert.Equal(t, payout.ID, got.ID)
}
