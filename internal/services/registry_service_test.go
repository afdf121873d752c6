package services

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tbourn/go-market-backend/internal/domain"
	"github.com/tbourn/go-market-backend/internal/reputation"
)

func TestRegistry_RegisterDefaults(t *testing.T) {
	m := newMarket(t)
	ctx := context.Background()

	u, err := m.registry.RegisterUser(ctx, "  Alice ")
	require.NoError(t, err)
	assert.Equal(t, "U1000", u.ID)
	assert.Equal(t, "Alice", u.DisplayName)
	assert.Equal(t, domain.ActorUser, u.Kind)
	assert.Equal(t, reputation.NewStanding(), u.Standing)

	mer, err := m.registry.CreateMerchant(ctx, "Bob", "licensed seller")
	require.NoError(t, err)
	assert.Equal(t, "U1001", mer.ID)
	assert.Equal(t, "licensed seller", mer.Qualification)
	assert.Empty(t, mer.ProductIDs)
	assert.Equal(t, 80, mer.CreditScore)

	_, err = m.registry.RegisterUser(ctx, "   ")
	assert.ErrorIs(t, err, ErrEmptyName)
	_, err = m.registry.CreateMerchant(ctx, "", "q")
	assert.ErrorIs(t, err, ErrInvalidInput)
}

func TestRegistry_FindDistinguishesKinds(t *testing.T) {
	m := newMarket(t)
	ctx := context.Background()
	alice := m.user(t, "Alice")
	bob := m.merchant(t, "Bob")

	got, err := m.registry.FindUser(ctx, alice.ID)
	require.NoError(t, err)
	assert.Equal(t, "Alice", got.DisplayName)

	_, err = m.registry.FindUser(ctx, bob.ID)
	assert.ErrorIs(t, err, ErrActorNotUser)
	assert.ErrorIs(t, err, ErrWrongActorKind)

	_, err = m.registry.FindUser(ctx, "U9999")
	assert.ErrorIs(t, err, ErrUserNotFound)

	_, err = m.registry.FindMerchant(ctx, alice.ID)
	assert.ErrorIs(t, err, ErrActorNotMerchant)

	_, err = m.registry.FindMerchant(ctx, "U9999")
	assert.ErrorIs(t, err, ErrMerchantNotFound)

	p := m.product(t, bob.ID, "Phone", "electronics", 1)
	found, err := m.registry.FindMerchant(ctx, bob.ID)
	require.NoError(t, err)
	assert.Equal(t, []string{p.ID}, found.ProductIDs)
	assert.Equal(t, 1, found.ProductCount)
}

func TestRegistry_ResolveActorKind(t *testing.T) {
	m := newMarket(t)
	ctx := context.Background()
	alice := m.user(t, "Alice")
	bob := m.merchant(t, "Bob")

	for id, want := range map[string]domain.ActorKind{
		alice.ID: domain.ActorUser,
		bob.ID:   domain.ActorMerchant,
		"nope":   domain.ActorUnknown,
	} {
		got, err := m.registry.ResolveActorKind(ctx, id)
		require.NoError(t, err)
		assert.Equal(t, want, got, id)
	}
}

func TestRegistry_SearchUsersRankedAndCaseSensitive(t *testing.T) {
	m := newMarket(t)
	ctx := context.Background()

	ann := m.user(t, "Ann")
	anna := m.user(t, "Anna")
	_ = m.user(t, "anne")
	_ = m.merchant(t, "Annex") // merchants are never returned as users

	// Raise Anna above Ann through a completed sale.
	shop := m.merchant(t, "Shop")
	p := m.product(t, shop.ID, "Pen", "office", 5)
	tr := m.exchanged(t, anna.ID, p.ID)
	_, err := m.txs.CompleteAndReview(ctx, tr.ID, 3, "ok")
	require.NoError(t, err)

	got, err := m.registry.SearchUsers(ctx, "Ann")
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, anna.ID, got[0].ID)
	assert.Equal(t, 81, got[0].CreditScore)
	assert.Equal(t, reputation.TierStandard, got[0].Tier)
	assert.Equal(t, ann.ID, got[1].ID)

	// Rows carry the tier of the live credit score.
	require.NoError(t, m.db.Model(&domain.Identity{}).Where("id = ?", ann.ID).Update("credit_score", 55).Error)
	got, err = m.registry.SearchUsers(ctx, "Ann")
	require.NoError(t, err)
	assert.Equal(t, anna.ID, got[0].ID)
	assert.Equal(t, ann.ID, got[1].ID)
	assert.Equal(t, 55, got[1].CreditScore)
	assert.Equal(t, reputation.TierRestricted, got[1].Tier)

	none, err := m.registry.SearchUsers(ctx, "Zed")
	require.NoError(t, err)
	assert.Empty(t, none)
}

func TestRegistry_SearchMerchantsByNameOrQualification(t *testing.T) {
	m := newMarket(t)
	ctx := context.Background()

	a, _ := m.registry.CreateMerchant(ctx, "Gadget Hub", "phones")
	b, _ := m.registry.CreateMerchant(ctx, "Corner", "used phones")
	_, _ = m.registry.CreateMerchant(ctx, "Books", "paper")

	got, err := m.registry.SearchMerchants(ctx, "phones")
	require.NoError(t, err)
	require.Len(t, got, 2)
	// Equal credit: listing order is kept.
	assert.Equal(t, []string{a.ID, b.ID}, []string{got[0].ID, got[1].ID})

	byName, err := m.registry.SearchMerchants(ctx, "Hub")
	require.NoError(t, err)
	require.Len(t, byName, 1)
	assert.Equal(t, a.ID, byName[0].ID)
}

func TestRegistry_ShowTier(t *testing.T) {
	m := newMarket(t)
	ctx := context.Background()
	alice := m.user(t, "Alice")
	bob := m.merchant(t, "Bob")

	v, err := m.registry.ShowTier(ctx, alice.ID)
	require.NoError(t, err)
	assert.Equal(t, reputation.TierStandard, v.Tier)
	assert.Equal(t, 80, v.CreditScore)
	assert.Equal(t, domain.ActorUser, v.Kind)

	v, err = m.registry.ShowTier(ctx, bob.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.ActorMerchant, v.Kind)

	_, err = m.registry.ShowTier(ctx, "U404")
	assert.ErrorIs(t, err, ErrIdentityNotFound)
}

func TestRegistry_Performance(t *testing.T) {
	m := newMarket(t)
	ctx := context.Background()
	alice := m.user(t, "Alice")
	bob := m.merchant(t, "Bob")

	v, err := m.registry.Performance(ctx, bob.ID, alice.ID)
	require.NoError(t, err)
	assert.Equal(t, reputation.Performance{TransactionCount: 0, ReturnCount: 0, SuccessRate: 100}, v.Performance)

	p := m.product(t, bob.ID, "Phone", "electronics", 1)
	tr := m.exchanged(t, alice.ID, p.ID)
	_, err = m.txs.CompleteAndReview(ctx, tr.ID, 4, "fine")
	require.NoError(t, err)

	v, err = m.registry.Performance(ctx, bob.ID, alice.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, v.TransactionCount)
	assert.Equal(t, 100.0, v.SuccessRate)

	_, err = m.registry.Performance(ctx, alice.ID, alice.ID)
	assert.ErrorIs(t, err, ErrActorNotMerchant)
	_, err = m.registry.Performance(ctx, bob.ID, bob.ID)
	assert.ErrorIs(t, err, ErrActorNotUser)
	_, err = m.registry.Performance(ctx, bob.ID, "U404")
	assert.ErrorIs(t, err, ErrUserNotFound)
	_, err = m.registry.Performance(ctx, "U404", alice.ID)
	assert.ErrorIs(t, err, ErrMerchantNotFound)
}
