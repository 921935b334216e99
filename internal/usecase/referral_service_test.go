package usecase

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"provest/internal/domain"
)

func TestReferralRegisterChain(t *testing.T) {
	env := newTestEnv()
	ctx := context.Background()

	root, err := env.referrals.Register(ctx, RegisterInput{Email: "a@test.local", Name: "A"})
	require.NoError(t, err)
	assert.Nil(t, root.SponsorID)
	assert.Equal(t, 0, root.Level)
	assert.Len(t, root.ReferralCode, 8)

	// Build A <- B <- C <- D <- E, each registering under the previous.
	prev := root
	chain := []*domain.User{root}
	for _, name := range []string{"B", "C", "D", "E"} {
		u, err := env.referrals.Register(ctx, RegisterInput{
			Email:       name + "@test.local",
			Name:        name,
			SponsorCode: prev.ReferralCode,
		})
		require.NoError(t, err)
		require.NotNil(t, u.SponsorID)
		assert.Equal(t, prev.ID, *u.SponsorID)
		assert.Equal(t, prev.Level+1, u.Level)
		chain = append(chain, u)
		prev = u
	}

	// Every user got a wallet.
	for _, u := range chain {
		w, err := env.wallets.GetByUserID(ctx, u.ID)
		require.NoError(t, err)
		assert.Equal(t, 0.0, w.TotalBalance)
	}

	// Team sizes count all descendants; direct counts only children.
	wantTeam := []int{4, 3, 2, 1, 0}
	for i, u := range chain {
		stored := env.db.users[u.ID]
		assert.Equal(t, wantTeam[i], stored.TotalTeamSize, "team size of %s", u.Name)
		if i < len(chain)-1 {
			assert.Equal(t, 1, stored.DirectReferralCount, "direct count of %s", u.Name)
		} else {
			assert.Equal(t, 0, stored.DirectReferralCount)
		}
	}
}

func TestReferralRegisterUnknownSponsor(t *testing.T) {
	env := newTestEnv()

	_, err := env.referrals.Register(context.Background(), RegisterInput{
		Email:       "x@test.local",
		Name:        "X",
		SponsorCode: "NOPE1234",
	})
	assert.ErrorIs(t, err, ErrSponsorNotFound)
}

func TestSponsorChainOrder(t *testing.T) {
	env := newTestEnv()
	ctx := context.Background()

	a := env.addUser("AAAA1111", nil)
	b := env.addUser("BBBB1111", a)
	c := env.addUser("CCCC1111", b)
	d := env.addUser("DDDD1111", c)
	e := env.addUser("EEEE1111", d)

	chain, err := env.referrals.SponsorChain(ctx, e)
	require.NoError(t, err)
	require.Len(t, chain, 4)
	assert.Equal(t, d.ID, chain[0].ID)
	assert.Equal(t, c.ID, chain[1].ID)
	assert.Equal(t, b.ID, chain[2].ID)
	assert.Equal(t, a.ID, chain[3].ID)
}

func TestSponsorChainCycle(t *testing.T) {
	env := newTestEnv()
	ctx := context.Background()

	a := env.addUser("AAAA2222", nil)
	b := env.addUser("BBBB2222", a)
	a.SponsorID = &b.ID

	_, err := env.referrals.SponsorChain(ctx, b)
	assert.ErrorIs(t, err, domain.ErrCorruptGraph)
}

func TestSponsorChainDanglingSponsor(t *testing.T) {
	env := newTestEnv()
	ctx := context.Background()

	a := env.addUser("AAAA3333", nil)
	b := env.addUser("BBBB3333", a)
	c := env.addUser("CCCC3333", b)

	// A points at a sponsor that no longer exists; the walk ends at A.
	ghost := uuid.New()
	a.SponsorID = &ghost

	chain, err := env.referrals.SponsorChain(ctx, c)
	require.NoError(t, err)
	require.Len(t, chain, 2)
	assert.Equal(t, b.ID, chain[0].ID)
	assert.Equal(t, a.ID, chain[1].ID)
}
