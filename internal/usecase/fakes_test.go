package usecase

import (
	"context"
	"sort"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"provest/internal/domain"
)

// testEnv wires the services against the in-memory fakes.
type testEnv struct {
	db        *memStore
	users     *fakeUserRepo
	wallets   *fakeWalletRepo
	txns      *fakeTxnRepo
	payouts   *fakePayoutRepo
	settings  *fakeSettingsRepo
	ledger    *LedgerService
	referrals *ReferralService
	payoutSvc *PayoutService
}

func newTestEnv() *testEnv {
	db := newMemStore()
	env := &testEnv{
		db:       db,
		users:    &fakeUserRepo{db: db},
		wallets:  &fakeWalletRepo{db: db},
		txns:     &fakeTxnRepo{db: db},
		payouts:  &fakePayoutRepo{db: db},
		settings: &fakeSettingsRepo{db: db},
	}
	logger := zap.NewNop()
	env.ledger = NewLedgerService(env.wallets, env.txns, env.users, env.settings, logger)
	env.referrals = NewReferralService(env.users, env.wallets, logger)
	env.payoutSvc = NewPayoutService(env.payouts, env.wallets, env.txns, env.settings, logger)
	return env
}

// addUser creates an active user with a wallet, optionally under a sponsor.
func (e *testEnv) addUser(code string, sponsor *domain.User) *domain.User {
	now := time.Now()
	u := &domain.User{
		ID:           uuid.New(),
		Email:        code + "@test.local",
		Name:         code,
		Role:         domain.RoleUser,
		ReferralCode: code,
		IsActive:     true,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if sponsor != nil {
		u.SponsorID = &sponsor.ID
		u.Level = sponsor.Level + 1
	}
	e.db.users[u.ID] = u
	e.db.wallets[u.ID] = domain.NewWallet(u.ID)
	return u
}

// memStore backs the in-memory repository fakes. The fakes mirror the SQL
// implementations' semantics: guarded reservations, completed-record inserts
// paired with wallet mutations, and conditional payout status updates.
type memStore struct {
	users   map[uuid.UUID]*domain.User
	wallets map[uuid.UUID]*domain.Wallet // keyed by user ID
	txns    map[uuid.UUID]*domain.Transaction
	payouts map[uuid.UUID]domain.Payout // by value, copies on read
	limits  domain.WithdrawalLimits
}

func newMemStore() *memStore {
	return &memStore{
		users:   make(map[uuid.UUID]*domain.User),
		wallets: make(map[uuid.UUID]*domain.Wallet),
		txns:    make(map[uuid.UUID]*domain.Transaction),
		payouts: make(map[uuid.UUID]domain.Payout),
		limits:  domain.DefaultWithdrawalLimits(),
	}
}

// --- users ---

type fakeUserRepo struct{ db *memStore }

func (f *fakeUserRepo) Create(_ context.Context, user *domain.User) error {
	f.db.users[user.ID] = user
	return nil
}

func (f *fakeUserRepo) GetByID(_ context.Context, id uuid.UUID) (*domain.User, error) {
	u, ok := f.db.users[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return u, nil
}

func (f *fakeUserRepo) GetByEmail(_ context.Context, email string) (*domain.User, error) {
	for _, u := range f.db.users {
		if u.Email == email {
			return u, nil
		}
	}
	return nil, domain.ErrNotFound
}

func (f *fakeUserRepo) GetByReferralCode(_ context.Context, code string) (*domain.User, error) {
	for _, u := range f.db.users {
		if u.ReferralCode == code {
			return u, nil
		}
	}
	return nil, domain.ErrNotFound
}

func (f *fakeUserRepo) IncrementTeamCounters(_ context.Context, userID uuid.UUID, direct bool) error {
	u, ok := f.db.users[userID]
	if !ok {
		return domain.ErrNotFound
	}
	u.TotalTeamSize++
	if direct {
		u.DirectReferralCount++
	}
	return nil
}

func (f *fakeUserRepo) AddEarnings(_ context.Context, userID uuid.UUID, amount float64) error {
	u, ok := f.db.users[userID]
	if !ok {
		return domain.ErrNotFound
	}
	u.TotalEarnings += amount
	return nil
}

func (f *fakeUserRepo) SetCurrentPlan(_ context.Context, userID uuid.UUID, planID *uuid.UUID) error {
	u, ok := f.db.users[userID]
	if !ok {
		return domain.ErrNotFound
	}
	u.CurrentPlanID = planID
	return nil
}

func (f *fakeUserRepo) GetActivePlanHolders(_ context.Context) ([]*domain.User, error) {
	var out []*domain.User
	for _, u := range f.db.users {
		if u.CurrentPlanID != nil && u.IsActive {
			out = append(out, u)
		}
	}
	return out, nil
}

func (f *fakeUserRepo) GetAll(_ context.Context) ([]*domain.User, error) {
	out := make([]*domain.User, 0, len(f.db.users))
	for _, u := range f.db.users {
		out = append(out, u)
	}
	return out, nil
}

// --- wallets ---

type fakeWalletRepo struct{ db *memStore }

func (f *fakeWalletRepo) Create(_ context.Context, wallet *domain.Wallet) error {
	f.db.wallets[wallet.UserID] = wallet
	return nil
}

func (f *fakeWalletRepo) GetByUserID(_ context.Context, userID uuid.UUID) (*domain.Wallet, error) {
	w, ok := f.db.wallets[userID]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return w, nil
}

func (f *fakeWalletRepo) CreditIncome(ctx context.Context, userID uuid.UUID, category string, amount float64, record *domain.Transaction) error {
	w, ok := f.db.wallets[userID]
	if !ok {
		return domain.ErrNotFound
	}
	if err := w.AddIncome(category, amount); err != nil {
		return err
	}
	if record != nil {
		record.BalanceBefore = w.TotalBalance - amount
		record.BalanceAfter = w.TotalBalance
		now := time.Now()
		record.Status = domain.TxCompleted
		record.CompletedAt = &now
		f.db.txns[record.ID] = record
	}
	return nil
}

func (f *fakeWalletRepo) Debit(ctx context.Context, userID uuid.UUID, amount float64, record *domain.Transaction) error {
	return f.debit(userID, amount, record, false)
}

func (f *fakeWalletRepo) Invest(ctx context.Context, userID uuid.UUID, amount float64, record *domain.Transaction) error {
	return f.debit(userID, amount, record, true)
}

func (f *fakeWalletRepo) debit(userID uuid.UUID, amount float64, record *domain.Transaction, invest bool) error {
	w, ok := f.db.wallets[userID]
	if !ok {
		return domain.ErrNotFound
	}
	before := w.TotalBalance
	if _, err := w.Deduct(amount); err != nil {
		return err
	}
	if invest {
		w.TotalInvested += amount
		w.ActiveInvestment += amount
	}
	if record != nil {
		record.BalanceBefore = before
		record.BalanceAfter = w.TotalBalance
		now := time.Now()
		record.Status = domain.TxCompleted
		record.CompletedAt = &now
		f.db.txns[record.ID] = record
	}
	return nil
}

func (f *fakeWalletRepo) ReleaseInvestment(_ context.Context, userID uuid.UUID, amount float64) error {
	w, ok := f.db.wallets[userID]
	if !ok {
		return domain.ErrNotFound
	}
	w.ActiveInvestment -= amount
	if w.ActiveInvestment < 0 {
		w.ActiveInvestment = 0
	}
	return nil
}

func (f *fakeWalletRepo) Reserve(_ context.Context, userID uuid.UUID, amount float64) error {
	if amount <= 0 {
		return domain.ErrInvalidAmount
	}
	w, ok := f.db.wallets[userID]
	if !ok {
		return domain.ErrNotFound
	}
	if w.TotalBalance-w.PendingWithdrawal < amount {
		return domain.ErrInsufficientBalance
	}
	w.PendingWithdrawal += amount
	return nil
}

func (f *fakeWalletRepo) Release(_ context.Context, userID uuid.UUID, amount float64) error {
	w, ok := f.db.wallets[userID]
	if !ok {
		return domain.ErrNotFound
	}
	w.PendingWithdrawal -= amount
	if w.PendingWithdrawal < 0 {
		w.PendingWithdrawal = 0
	}
	return nil
}

// Settle mirrors the SQL implementation's atomicity: the guarded payout
// flip, the wallet mutation and the record completion either all apply or
// none do.
func (f *fakeWalletRepo) Settle(_ context.Context, payout *domain.Payout, record *domain.Transaction, now time.Time) error {
	storedPayout, ok := f.db.payouts[payout.ID]
	if !ok {
		return domain.ErrNotFound
	}
	if storedPayout.Status != domain.PayoutProcessing {
		return domain.ErrInvalidTransition
	}
	w, ok := f.db.wallets[payout.UserID]
	if !ok {
		return domain.ErrNotFound
	}
	if record != nil {
		stored, ok := f.db.txns[record.ID]
		if !ok || stored.IsTerminal() {
			return domain.ErrInvalidTransition
		}
	}

	amount := payout.Amount
	scratch := *w
	before := scratch.TotalBalance
	scratch.ResetDailyWindowIfNeeded(now)
	scratch.PendingWithdrawal -= amount
	if scratch.PendingWithdrawal < 0 {
		scratch.PendingWithdrawal = 0
	}
	if _, err := scratch.Deduct(amount); err != nil {
		return err
	}
	scratch.TotalWithdrawn += amount
	scratch.TodayWithdrawal += amount
	scratch.LastWithdrawalDate = &now

	*w = scratch
	f.db.payouts[payout.ID] = *payout
	if record != nil {
		stored := f.db.txns[record.ID]
		stored.Status = domain.TxCompleted
		stored.CompletedAt = &now
		stored.BalanceBefore = before
		stored.BalanceAfter = w.TotalBalance
	}
	return nil
}

func (f *fakeWalletRepo) Update(_ context.Context, wallet *domain.Wallet) error {
	f.db.wallets[wallet.UserID] = wallet
	return nil
}

// --- transactions ---

type fakeTxnRepo struct{ db *memStore }

func (f *fakeTxnRepo) Create(_ context.Context, txn *domain.Transaction) error {
	f.db.txns[txn.ID] = txn
	return nil
}

func (f *fakeTxnRepo) GetByID(_ context.Context, id uuid.UUID) (*domain.Transaction, error) {
	t, ok := f.db.txns[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return t, nil
}

func (f *fakeTxnRepo) GetByRef(_ context.Context, ref string) (*domain.Transaction, error) {
	for _, t := range f.db.txns {
		if t.TxID == ref {
			return t, nil
		}
	}
	return nil, domain.ErrNotFound
}

func (f *fakeTxnRepo) MarkCompleted(_ context.Context, id uuid.UUID, processedBy *uuid.UUID) error {
	t, ok := f.db.txns[id]
	if !ok {
		return domain.ErrNotFound
	}
	return t.Complete(processedBy)
}

func (f *fakeTxnRepo) MarkFailed(_ context.Context, id uuid.UUID, reason string, processedBy *uuid.UUID) error {
	t, ok := f.db.txns[id]
	if !ok {
		return domain.ErrNotFound
	}
	return t.Fail(reason, processedBy)
}

func (f *fakeTxnRepo) MarkCancelled(_ context.Context, id uuid.UUID) error {
	t, ok := f.db.txns[id]
	if !ok {
		return domain.ErrNotFound
	}
	return t.Cancel()
}

func (f *fakeTxnRepo) ListByUser(_ context.Context, userID uuid.UUID, filter domain.TransactionFilter) ([]*domain.Transaction, error) {
	var out []*domain.Transaction
	for _, t := range f.db.txns {
		if t.UserID != userID {
			continue
		}
		if filter.Type != "" && t.Type != filter.Type {
			continue
		}
		if filter.Status != "" && t.Status != filter.Status {
			continue
		}
		out = append(out, t)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

func (f *fakeTxnRepo) SumCompleted(_ context.Context, userID uuid.UUID, txType string, planID *uuid.UUID) (float64, error) {
	sum := 0.0
	for _, t := range f.db.txns {
		if t.UserID != userID || t.Type != txType || t.Status != domain.TxCompleted {
			continue
		}
		if planID != nil && (t.PlanID == nil || *t.PlanID != *planID) {
			continue
		}
		sum += t.Amount
	}
	return sum, nil
}

func (f *fakeTxnRepo) AggregateByType(_ context.Context, userID uuid.UUID, from, to time.Time) ([]domain.TypeAggregate, error) {
	byType := make(map[string]*domain.TypeAggregate)
	for _, t := range f.db.txns {
		if t.UserID != userID || t.Status != domain.TxCompleted {
			continue
		}
		if t.CreatedAt.Before(from) || t.CreatedAt.After(to) {
			continue
		}
		agg, ok := byType[t.Type]
		if !ok {
			agg = &domain.TypeAggregate{Type: t.Type}
			byType[t.Type] = agg
		}
		agg.Total += t.Amount
		agg.Count++
	}
	var out []domain.TypeAggregate
	for _, agg := range byType {
		out = append(out, *agg)
	}
	return out, nil
}

// --- payouts ---

type fakePayoutRepo struct{ db *memStore }

func (f *fakePayoutRepo) Create(_ context.Context, payout *domain.Payout) error {
	f.db.payouts[payout.ID] = *payout
	return nil
}

func (f *fakePayoutRepo) GetByID(_ context.Context, id uuid.UUID) (*domain.Payout, error) {
	p, ok := f.db.payouts[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	copied := p
	return &copied, nil
}

func (f *fakePayoutRepo) ListByUser(_ context.Context, userID uuid.UUID, limit int) ([]*domain.Payout, error) {
	var out []*domain.Payout
	for _, p := range f.db.payouts {
		if p.UserID == userID {
			copied := p
			out = append(out, &copied)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (f *fakePayoutRepo) ListByStatus(_ context.Context, status string, limit int) ([]*domain.Payout, error) {
	var out []*domain.Payout
	for _, p := range f.db.payouts {
		if p.Status == status {
			copied := p
			out = append(out, &copied)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (f *fakePayoutRepo) UpdateStatus(_ context.Context, payout *domain.Payout, expectedStatus string) error {
	stored, ok := f.db.payouts[payout.ID]
	if !ok {
		return domain.ErrNotFound
	}
	if stored.Status != expectedStatus {
		return domain.ErrInvalidTransition
	}
	f.db.payouts[payout.ID] = *payout
	return nil
}

func (f *fakePayoutRepo) SumOpenByUser(_ context.Context) (map[uuid.UUID]float64, error) {
	out := make(map[uuid.UUID]float64)
	for _, p := range f.db.payouts {
		if p.IsOpen() {
			out[p.UserID] += p.Amount
		}
	}
	return out, nil
}

// --- settings ---

type fakeSettingsRepo struct{ db *memStore }

func (f *fakeSettingsRepo) Get(_ context.Context, key string) (*domain.Setting, error) {
	return nil, domain.ErrNotFound
}

func (f *fakeSettingsRepo) Set(_ context.Context, setting *domain.Setting) error {
	return setting.Validate()
}

func (f *fakeSettingsRepo) GetAll(_ context.Context) ([]*domain.Setting, error) {
	return nil, nil
}

func (f *fakeSettingsRepo) WithdrawalLimits(_ context.Context) (domain.WithdrawalLimits, error) {
	return f.db.limits, nil
}
