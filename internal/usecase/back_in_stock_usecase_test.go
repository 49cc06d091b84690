package usecase

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"stockengine/internal/domain/model"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

type shiftedClock struct{ d time.Duration }

func (c shiftedClock) Now() time.Time { return time.Now().Add(c.d) }

// waitlist_entriesのstatus更新をn回だけ失敗させる
func failMarkNotified(t *testing.T, gdb *gorm.DB, n int32) *atomic.Int32 {
	t.Helper()
	left := &atomic.Int32{}
	left.Store(n)
	require.NoError(t, gdb.Callback().Update().Before("gorm:update").Register("test:fail_mark_notified", func(tx *gorm.DB) {
		if tx.Statement.Schema == nil || tx.Statement.Schema.Table != "waitlist_entries" {
			return
		}
		m, ok := tx.Statement.Dest.(map[string]interface{})
		if !ok {
			return
		}
		if _, marks := m["status"]; !marks {
			return
		}
		if left.Add(-1) >= 0 {
			_ = tx.AddError(errors.New("database is locked"))
		}
	}))
	return left
}

func subscribe(t *testing.T, e *testEnv, email string, productID int64) SubscribeOutput {
	t.Helper()
	out, err := e.notifier.Subscribe(context.Background(), email, productID, "gold/s")
	require.NoError(t, err)
	return out
}

// 在庫0→5（MOQ2）で待ちの2人に1通ずつ。次の入荷では送らない
func TestBackInStock_RestockNotifiesOnce(t *testing.T) {
	e := newTestEnv(t)
	ctx := context.Background()
	p := e.product(t, "Chain", 2, 0)

	subscribe(t, e, "a@example.com", p.ID)
	subscribe(t, e, "b@example.com", p.ID)

	_, err := e.inv.SetStock(ctx, testAdminID, p.ID, "gold/s", 5, "arrival")
	require.NoError(t, err)

	assert.ElementsMatch(t, []string{"a@example.com", "b@example.com"}, e.mailer.sentTo())

	pending, err := e.repos.Waitlist().ListPending(ctx, p.ID, "gold/s")
	require.NoError(t, err)
	assert.Empty(t, pending)

	_, err = e.inv.Restock(ctx, testAdminID, p.ID, "gold/s", 3, "")
	require.NoError(t, err)
	assert.Len(t, e.mailer.sentTo(), 2)

	res, err := e.notifier.NotifyRestock(ctx, p.ID, "gold/s")
	require.NoError(t, err)
	assert.Equal(t, 0, res.Sent)
}

// 送信後の記録が1回失敗してもやり直して、占有切れ後に再送しない
func TestBackInStock_MarkNotifiedRetriedAfterSend(t *testing.T) {
	e := newTestEnv(t)
	ctx := context.Background()
	p := e.product(t, "Chain", 1, 0)
	subscribe(t, e, "a@example.com", p.ID)
	left := failMarkNotified(t, e.db, 1)

	_, err := e.inv.Restock(ctx, testAdminID, p.ID, "gold/s", 2, "")
	require.NoError(t, err)
	assert.Equal(t, []string{"a@example.com"}, e.mailer.sentTo())
	assert.Equal(t, int32(-1), left.Load())

	var entry model.WaitlistEntry
	require.NoError(t, e.db.Where("email = ?", "a@example.com").First(&entry).Error)
	assert.Equal(t, model.WaitlistStatusNotified, entry.Status)

	e.notifier.clock = shiftedClock{d: DefaultClaimTTL + time.Minute}
	res, err := e.notifier.NotifyRestock(ctx, p.ID, "gold/s")
	require.NoError(t, err)
	assert.Equal(t, 0, res.Sent)
	assert.Len(t, e.mailer.sentTo(), 1)
}

func TestBackInStock_FailedSendStaysPending(t *testing.T) {
	e := newTestEnv(t)
	ctx := context.Background()
	p := e.product(t, "Chain", 1, 0)

	subscribe(t, e, "ok@example.com", p.ID)
	subscribe(t, e, "down@example.com", p.ID)
	e.mailer.fail["down@example.com"] = true

	_, err := e.inv.Restock(ctx, testAdminID, p.ID, "gold/s", 2, "")
	require.NoError(t, err)
	assert.Equal(t, []string{"ok@example.com"}, e.mailer.sentTo())

	pending, err := e.repos.Waitlist().ListPending(ctx, p.ID, "gold/s")
	require.NoError(t, err)
	require.Len(t, pending, 1)
	assert.Equal(t, "down@example.com", pending[0].Email)
	assert.Equal(t, model.WaitlistStatusPending, pending[0].Status)

	//復旧後の再スキャンで届く
	e.mailer.fail["down@example.com"] = false
	res, err := e.notifier.NotifyRestock(ctx, p.ID, "gold/s")
	require.NoError(t, err)
	assert.Equal(t, 1, res.Pending)
	assert.Equal(t, 1, res.Sent)
	assert.Equal(t, 0, res.Failed)
	assert.ElementsMatch(t, []string{"ok@example.com", "down@example.com"}, e.mailer.sentTo())
}

func TestBackInStock_BelowMOQDoesNotNotify(t *testing.T) {
	e := newTestEnv(t)
	ctx := context.Background()
	p := e.product(t, "Chain", 5, 0)
	subscribe(t, e, "a@example.com", p.ID)

	_, err := e.inv.Restock(ctx, testAdminID, p.ID, "gold/s", 4, "")
	require.NoError(t, err)
	assert.Empty(t, e.mailer.sentTo())

	res, err := e.notifier.NotifyRestock(ctx, p.ID, "gold/s")
	require.NoError(t, err)
	assert.True(t, res.BelowMOQ)

	_, err = e.inv.Restock(ctx, testAdminID, p.ID, "gold/s", 1, "")
	require.NoError(t, err)
	assert.Equal(t, []string{"a@example.com"}, e.mailer.sentTo())
}

func TestBackInStock_Subscribe(t *testing.T) {
	e := newTestEnv(t)
	ctx := context.Background()
	p := e.product(t, "Chain", 2, 1)

	first := subscribe(t, e, "A@Example.com", p.ID)
	assert.True(t, first.Created)
	assert.Equal(t, model.WaitlistStatusPending, first.Entry.Status)

	again := subscribe(t, e, "A@Example.com", p.ID)
	assert.False(t, again.Created)
	assert.Equal(t, first.Entry.ID, again.Entry.ID)

	_, err := e.notifier.Subscribe(ctx, "not-an-email", p.ID, "gold/s")
	assertHTTPStatus(t, err, 400)

	_, err = e.notifier.Subscribe(ctx, "a@example.com", p.ID, "silver/m")
	assertHTTPStatus(t, err, 404)

	//MOQ以上あるときは受け付けない
	_, err = e.inv.SetStock(ctx, testAdminID, p.ID, "gold/s", 2, "")
	require.NoError(t, err)
	_, err = e.notifier.Subscribe(ctx, "late@example.com", p.ID, "gold/s")
	assertHTTPStatus(t, err, 409)
}

func TestBackInStock_NotifyUnknownProduct(t *testing.T) {
	e := newTestEnv(t)

	_, err := e.notifier.NotifyRestock(context.Background(), 999, "gold/s")
	assertHTTPStatus(t, err, 404)
}
