package repository

import (
	"context"
	"testing"
	"time"

	"stockengine/internal/domain/model"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWaitlist_ClaimIsExclusive(t *testing.T) {
	gdb := newTestDB(t)
	p := seedProduct(t, gdb, 1, 0)
	w := NewWaitlistGormRepository(gdb)
	ctx := context.Background()

	e, err := w.Create(ctx, model.WaitlistEntry{Email: "A@example.com", ProductID: p.ID, VariantKey: "gold/s"})
	require.NoError(t, err)
	assert.Equal(t, "a@example.com", e.Email)
	assert.Equal(t, model.WaitlistStatusPending, e.Status)

	now := time.Now().UTC()
	ok, err := w.Claim(ctx, e.ID, "t1", now, now.Add(-5*time.Minute))
	require.NoError(t, err)
	assert.True(t, ok)

	//占有中は他のトークンで取れない
	ok, err = w.Claim(ctx, e.ID, "t2", now, now.Add(-5*time.Minute))
	require.NoError(t, err)
	assert.False(t, ok)

	//別トークンではNOTIFIEDにできない
	ok, err = w.MarkNotified(ctx, e.ID, "t2", now)
	require.NoError(t, err)
	assert.False(t, ok)

	ok, err = w.MarkNotified(ctx, e.ID, "t1", now)
	require.NoError(t, err)
	assert.True(t, ok)

	//NOTIFIEDは二度と取れない
	ok, err = w.Claim(ctx, e.ID, "t3", now.Add(time.Hour), now.Add(time.Hour))
	require.NoError(t, err)
	assert.False(t, ok)

	pending, err := w.ListPending(ctx, p.ID, "gold/s")
	require.NoError(t, err)
	assert.Empty(t, pending)
}

func TestWaitlist_StaleClaimCanBeRetaken(t *testing.T) {
	gdb := newTestDB(t)
	p := seedProduct(t, gdb, 1, 0)
	w := NewWaitlistGormRepository(gdb)
	ctx := context.Background()

	e, err := w.Create(ctx, model.WaitlistEntry{Email: "b@example.com", ProductID: p.ID, VariantKey: "gold/s"})
	require.NoError(t, err)

	old := time.Now().UTC().Add(-10 * time.Minute)
	ok, err := w.Claim(ctx, e.ID, "old", old, old.Add(-5*time.Minute))
	require.NoError(t, err)
	require.True(t, ok)

	now := time.Now().UTC()
	ok, err = w.Claim(ctx, e.ID, "new", now, now.Add(-5*time.Minute))
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestWaitlist_ReleaseKeepsPending(t *testing.T) {
	gdb := newTestDB(t)
	p := seedProduct(t, gdb, 1, 0)
	w := NewWaitlistGormRepository(gdb)
	ctx := context.Background()

	e, err := w.Create(ctx, model.WaitlistEntry{Email: "c@example.com", ProductID: p.ID, VariantKey: "gold/s"})
	require.NoError(t, err)

	now := time.Now().UTC()
	ok, err := w.Claim(ctx, e.ID, "t1", now, now.Add(-5*time.Minute))
	require.NoError(t, err)
	require.True(t, ok)
	require.NoError(t, w.Release(ctx, e.ID, "t1"))

	got, found, err := w.FindPending(ctx, "c@example.com", p.ID, "gold/s")
	require.NoError(t, err)
	require.True(t, found)
	assert.Equal(t, "", got.ClaimToken)

	ok, err = w.Claim(ctx, e.ID, "t2", now, now.Add(-5*time.Minute))
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestGift_IncrementUsageOnlyWhenActive(t *testing.T) {
	gdb := newTestDB(t)
	g := NewGiftGormRepository(gdb)
	ctx := context.Background()

	active, err := g.Create(ctx, model.GiftDefinition{Name: "Pouch", Probability: 10, IsActive: true})
	require.NoError(t, err)
	inactive, err := g.Create(ctx, model.GiftDefinition{Name: "Charm", Probability: 10, IsActive: false})
	require.NoError(t, err)
	_, err = g.Create(ctx, model.GiftDefinition{Name: "Box", Probability: 10, MinPurchase: 5000, IsActive: true})
	require.NoError(t, err)

	ok, err := g.IncrementUsage(ctx, active.ID)
	require.NoError(t, err)
	assert.True(t, ok)
	ok, err = g.IncrementUsage(ctx, inactive.ID)
	require.NoError(t, err)
	assert.False(t, ok)

	got, err := g.FindByID(ctx, active.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(1), got.UsageCount)

	eligible, err := g.ListEligible(ctx, 1000)
	require.NoError(t, err)
	require.Len(t, eligible, 1)
	assert.Equal(t, active.ID, eligible[0].ID)
}
