package domain

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// UserRepository defines the interface for user data operations.
type UserRepository interface {
	// Create creates a new user
	Create(ctx context.Context, user *User) error

	// GetByID retrieves a user by ID
	GetByID(ctx context.Context, id uuid.UUID) (*User, error)

	// GetByEmail retrieves a user by email
	GetByEmail(ctx context.Context, email string) (*User, error)

	// GetByReferralCode retrieves a user by their referral code
	GetByReferralCode(ctx context.Context, code string) (*User, error)

	// IncrementTeamCounters bumps totalTeamSize by 1 and, when direct is
	// true, directReferralCount by 1
	IncrementTeamCounters(ctx context.Context, userID uuid.UUID, direct bool) error

	// AddEarnings adds to the user's lifetime earnings counter
	AddEarnings(ctx context.Context, userID uuid.UUID, amount float64) error

	// SetCurrentPlan records the plan the user currently holds
	SetCurrentPlan(ctx context.Context, userID uuid.UUID, planID *uuid.UUID) error

	// GetActivePlanHolders retrieves users holding a plan, for ROI runs
	GetActivePlanHolders(ctx context.Context) ([]*User, error)

	// GetAll retrieves all users
	GetAll(ctx context.Context) ([]*User, error)
}

// WalletRepository defines wallet persistence. Mutating operations that pair
// with a transaction record insert the record in the same database
// transaction so the wallet and the ledger can never diverge.
type WalletRepository interface {
	// Create creates a wallet for a user
	Create(ctx context.Context, wallet *Wallet) error

	// GetByUserID retrieves the wallet owned by a user
	GetByUserID(ctx context.Context, userID uuid.UUID) (*Wallet, error)

	// CreditIncome atomically increments one income category, recomputes
	// the total, and inserts the paired completed transaction record
	CreditIncome(ctx context.Context, userID uuid.UUID, category string, amount float64, record *Transaction) error

	// Debit removes amount proportionally across categories under a row
	// lock and inserts the paired transaction record
	Debit(ctx context.Context, userID uuid.UUID, amount float64, record *Transaction) error

	// Invest debits amount and moves it into the invested counters,
	// inserting the paired plan purchase record
	Invest(ctx context.Context, userID uuid.UUID, amount float64, record *Transaction) error

	// ReleaseInvestment moves a matured plan amount out of activeInvestment
	ReleaseInvestment(ctx context.Context, userID uuid.UUID, amount float64) error

	// Reserve earmarks amount for an open payout (pendingWithdrawal)
	Reserve(ctx context.Context, userID uuid.UUID, amount float64) error

	// Release returns a reservation to the available balance
	Release(ctx context.Context, userID uuid.UUID, amount float64) error

	// Settle finalizes a processing payout exactly once: flips the payout
	// to completed (guarded on its current status), deducts the amount
	// from the categories, releases the reservation and bumps the
	// withdrawal counters, completing the paired withdrawal record, all
	// atomically
	Settle(ctx context.Context, payout *Payout, record *Transaction, now time.Time) error

	// Update persists a wallet snapshot (daily-window resets)
	Update(ctx context.Context, wallet *Wallet) error
}

// TransactionRepository defines the append-mostly monetary event log.
type TransactionRepository interface {
	// Create appends a transaction record
	Create(ctx context.Context, txn *Transaction) error

	// GetByID retrieves a transaction by ID
	GetByID(ctx context.Context, id uuid.UUID) (*Transaction, error)

	// GetByRef retrieves a transaction by its human-decodable reference
	GetByRef(ctx context.Context, ref string) (*Transaction, error)

	// MarkCompleted transitions a non-terminal transaction to completed;
	// returns ErrInvalidTransition when it is already terminal
	MarkCompleted(ctx context.Context, id uuid.UUID, processedBy *uuid.UUID) error

	// MarkFailed transitions a non-terminal transaction to failed
	MarkFailed(ctx context.Context, id uuid.UUID, reason string, processedBy *uuid.UUID) error

	// MarkCancelled transitions a pending transaction to cancelled
	MarkCancelled(ctx context.Context, id uuid.UUID) error

	// ListByUser retrieves a user's transactions, newest first
	ListByUser(ctx context.Context, userID uuid.UUID, filter TransactionFilter) ([]*Transaction, error)

	// SumCompleted sums completed amounts of a type for a user, optionally
	// scoped to a plan
	SumCompleted(ctx context.Context, userID uuid.UUID, txType string, planID *uuid.UUID) (float64, error)

	// AggregateByType groups completed sums/counts in a date window
	AggregateByType(ctx context.Context, userID uuid.UUID, from, to time.Time) ([]TypeAggregate, error)
}

// PlanRepository defines plan persistence.
type PlanRepository interface {
	// Create saves a new plan
	Create(ctx context.Context, plan *Plan) error

	// Update saves plan changes
	Update(ctx context.Context, plan *Plan) error

	// GetByID retrieves a plan by ID
	GetByID(ctx context.Context, id uuid.UUID) (*Plan, error)

	// ListVisible retrieves plans shown to users
	ListVisible(ctx context.Context) ([]*Plan, error)

	// ListAll retrieves every plan, for the admin surface
	ListAll(ctx context.Context) ([]*Plan, error)

	// IncrementPurchase bumps the purchase counter and revenue accumulator
	IncrementPurchase(ctx context.Context, id uuid.UUID, amount float64) error
}

// PayoutRepository defines payout persistence. Status moves are expressed as
// conditional updates so an illegal or repeated transition surfaces as
// ErrInvalidTransition instead of silently re-applying side effects.
type PayoutRepository interface {
	// Create saves a new payout request
	Create(ctx context.Context, payout *Payout) error

	// GetByID retrieves a payout by ID
	GetByID(ctx context.Context, id uuid.UUID) (*Payout, error)

	// ListByUser retrieves a user's payouts, newest first
	ListByUser(ctx context.Context, userID uuid.UUID, limit int) ([]*Payout, error)

	// ListByStatus retrieves payouts in a given status, oldest first
	ListByStatus(ctx context.Context, status string, limit int) ([]*Payout, error)

	// UpdateStatus applies a transition guarded on the expected current
	// status; zero rows updated means ErrInvalidTransition
	UpdateStatus(ctx context.Context, payout *Payout, expectedStatus string) error

	// SumOpenByUser sums reservation-holding payout amounts per user
	SumOpenByUser(ctx context.Context) (map[uuid.UUID]float64, error)
}

// SettingsRepository defines configuration persistence.
type SettingsRepository interface {
	// Get retrieves a setting by key
	Get(ctx context.Context, key string) (*Setting, error)

	// Set validates and upserts a setting
	Set(ctx context.Context, setting *Setting) error

	// GetAll retrieves all settings
	GetAll(ctx context.Context) ([]*Setting, error)

	// WithdrawalLimits assembles the typed limits consulted by the ledger
	WithdrawalLimits(ctx context.Context) (WithdrawalLimits, error)
}
