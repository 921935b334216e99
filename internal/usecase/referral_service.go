package usecase

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"provest/internal/domain"
)

// maxChainDepth bounds every upline traversal. A chain longer than this is
// treated as corrupt rather than walked to exhaustion.
const maxChainDepth = 100

const referralCodeCharset = "ABCDEFGHJKLMNPQRSTUVWXYZ23456789"
const referralCodeLength = 8

// ErrSponsorNotFound is returned when a registration names an unknown
// referral code.
var ErrSponsorNotFound = errors.New("sponsor referral code not found")

// RegisterInput is the data needed to place a new user in the hierarchy.
type RegisterInput struct {
	Email        string
	Name         string
	PasswordHash string
	SponsorCode  string
}

// ReferralService owns the sponsor graph: registration, upline traversal
// and the team-size counters.
type ReferralService struct {
	users   domain.UserRepository
	wallets domain.WalletRepository
	logger  *zap.Logger
}

// NewReferralService creates a new ReferralService
func NewReferralService(users domain.UserRepository, wallets domain.WalletRepository, logger *zap.Logger) *ReferralService {
	return &ReferralService{users: users, wallets: wallets, logger: logger}
}

// Register creates a user under the given sponsor (or as a root when no
// sponsor code is supplied), creates their wallet, and propagates the
// team-size increment up the whole chain. The immediate sponsor also gets a
// direct referral count bump.
func (s *ReferralService) Register(ctx context.Context, input RegisterInput) (*domain.User, error) {
	var sponsor *domain.User
	if input.SponsorCode != "" {
		found, err := s.users.GetByReferralCode(ctx, input.SponsorCode)
		if err != nil {
			if errors.Is(err, domain.ErrNotFound) {
				return nil, ErrSponsorNotFound
			}
			return nil, err
		}
		sponsor = found
	}

	code, err := s.newReferralCode(ctx)
	if err != nil {
		return nil, err
	}

	now := time.Now()
	user := &domain.User{
		ID:           uuid.New(),
		Email:        input.Email,
		Name:         input.Name,
		PasswordHash: input.PasswordHash,
		Role:         domain.RoleUser,
		ReferralCode: code,
		IsActive:     true,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if sponsor != nil {
		user.SponsorID = &sponsor.ID
		user.Level = sponsor.Level + 1
	}

	if err := s.users.Create(ctx, user); err != nil {
		return nil, err
	}
	if err := s.wallets.Create(ctx, domain.NewWallet(user.ID)); err != nil {
		return nil, fmt.Errorf("failed to create wallet for user: %w", err)
	}

	if sponsor != nil {
		chain, err := s.SponsorChain(ctx, user)
		if err != nil {
			return nil, err
		}
		for i, ancestor := range chain {
			if err := s.users.IncrementTeamCounters(ctx, ancestor.ID, i == 0); err != nil {
				s.logger.Error("failed to propagate team size",
					zap.String("ancestor_id", ancestor.ID.String()),
					zap.String("user_id", user.ID.String()),
					zap.Error(err))
			}
		}
	}

	s.logger.Info("user registered",
		zap.String("user_id", user.ID.String()),
		zap.String("referral_code", user.ReferralCode),
		zap.Int("level", user.Level))

	return user, nil
}

// SponsorChain walks the upline from the immediate sponsor to the root.
// The traversal keeps a visited set and a depth bound; hitting either fails
// with ErrCorruptGraph instead of looping.
func (s *ReferralService) SponsorChain(ctx context.Context, user *domain.User) ([]*domain.User, error) {
	visited := map[uuid.UUID]bool{user.ID: true}
	var chain []*domain.User

	current := user
	for current.SponsorID != nil {
		if len(chain) >= maxChainDepth {
			return nil, domain.ErrCorruptGraph
		}
		if visited[*current.SponsorID] {
			return nil, domain.ErrCorruptGraph
		}
		sponsor, err := s.users.GetByID(ctx, *current.SponsorID)
		if err != nil {
			if errors.Is(err, domain.ErrNotFound) {
				// Dangling sponsor reference; the chain ends here.
				break
			}
			return nil, err
		}
		visited[sponsor.ID] = true
		chain = append(chain, sponsor)
		current = sponsor
	}

	return chain, nil
}

func (s *ReferralService) newReferralCode(ctx context.Context) (string, error) {
	for attempt := 0; attempt < 5; attempt++ {
		code := make([]byte, referralCodeLength)
		for i := range code {
			code[i] = referralCodeCharset[rand.Intn(len(referralCodeCharset))]
		}
		_, err := s.users.GetByReferralCode(ctx, string(code))
		if errors.Is(err, domain.ErrNotFound) {
			return string(code), nil
		}
		if err != nil {
			return "", err
		}
	}
	return "", fmt.Errorf("failed to generate a unique referral code")
}
