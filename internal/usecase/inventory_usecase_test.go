package usecase

import (
	"context"
	"testing"

	"stockengine/internal/domain/model"
	repo "stockengine/internal/repository"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInventory_AdminCreateProduct_StandardVariant(t *testing.T) {
	e := newTestEnv(t)

	out, err := e.inv.AdminCreateProduct(context.Background(), testAdminID, AdminCreateProductInput{
		Name:             "Plain Band",
		Price:            80,
		MinOrderQuantity: 1,
		IsActive:         true,
		Stock:            7,
	})
	require.NoError(t, err)
	require.Len(t, out.Variants, 1)
	assert.Equal(t, model.StandardVariantKey, out.Variants[0].VariantKey)
	assert.Equal(t, int64(7), out.Variants[0].Stock)
	assert.Equal(t, int64(7), out.Variants[0].InitialStock)
}

func TestInventory_AdminCreateProduct_Validation(t *testing.T) {
	e := newTestEnv(t)
	ctx := context.Background()

	tests := []struct {
		name   string
		in     AdminCreateProductInput
		status int
	}{
		{"empty name", AdminCreateProductInput{Name: " ", Price: 1}, 400},
		{"negative price", AdminCreateProductInput{Name: "x", Price: -1}, 400},
		{"negative stock", AdminCreateProductInput{Name: "x", Stock: -1}, 400},
		{"duplicate variant", AdminCreateProductInput{Name: "x", Variants: []AdminCreateVariantInput{
			{Color: "Gold", Size: "S"}, {Color: "gold", Size: "s"},
		}}, 400},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := e.inv.AdminCreateProduct(ctx, testAdminID, tt.in)
			assertHTTPStatus(t, err, tt.status)
		})
	}

	_, err := e.inv.AdminCreateProduct(ctx, 0, AdminCreateProductInput{Name: "x"})
	assertHTTPStatus(t, err, 401)
}

func TestInventory_SetStock_LogsByDirection(t *testing.T) {
	e := newTestEnv(t)
	ctx := context.Background()
	p := e.product(t, "Ring", 1, 10)

	down, err := e.inv.SetStock(ctx, testAdminID, p.ID, "gold/s", 6, "damaged")
	require.NoError(t, err)
	assert.Equal(t, StockChangeOutput{ProductID: p.ID, VariantKey: "gold/s", Before: 10, After: 6, Delta: -4}, down)

	same, err := e.inv.SetStock(ctx, testAdminID, p.ID, "gold/s", 6, "")
	require.NoError(t, err)
	assert.Equal(t, int64(0), same.Delta)

	up, err := e.inv.SetStock(ctx, testAdminID, p.ID, "gold/s", 9, "")
	require.NoError(t, err)
	assert.Equal(t, int64(3), up.Delta)

	logs := e.logsOf(t, p.ID)
	require.Len(t, logs, 2)
	assert.Equal(t, model.InventoryReasonRestock, logs[0].Reason)
	assert.Equal(t, int64(3), logs[0].Change)
	assert.Equal(t, model.InventoryReasonAdjustment, logs[1].Reason)
	assert.Equal(t, int64(-4), logs[1].Change)
	assert.Equal(t, model.AdminActor(testAdminID), logs[1].PerformedBy)

	audits, err := e.repos.AuditLogs().List(ctx, repo.AuditQuery{Actions: []model.AuditAction{model.AuditActionUpdateStock}})
	require.NoError(t, err)
	require.Len(t, audits, 2)
	assert.JSONEq(t, `{"variant_key":"gold/s","stock":6}`, audits[0].BeforeJSON)

	_, err = e.inv.SetStock(ctx, testAdminID, p.ID, "gold/s", -1, "")
	assertHTTPStatus(t, err, 400)
	_, err = e.inv.SetStock(ctx, testAdminID, p.ID, "silver/m", 1, "")
	assertHTTPStatus(t, err, 404)
}

func TestInventory_Restock(t *testing.T) {
	e := newTestEnv(t)
	ctx := context.Background()
	p := e.product(t, "Ring", 1, 2)

	out, err := e.inv.Restock(ctx, testAdminID, p.ID, "GOLD/S", 5, "")
	require.NoError(t, err)
	assert.Equal(t, int64(2), out.Before)
	assert.Equal(t, int64(7), out.After)
	assert.Contains(t, e.cache.paths, productPath(p.ID))

	_, err = e.inv.Restock(ctx, testAdminID, p.ID, "gold/s", 0, "")
	assertHTTPStatus(t, err, 400)
}

// 販売・入荷・調整・返品が混ざっても initial + Σchange == stock
func TestInventory_VerifyConservation_AfterMixedChanges(t *testing.T) {
	e := newTestEnv(t)
	ctx := context.Background()
	p := e.product(t, "Ring", 1, 10)

	o1 := e.order(t, 1, 150, item(p.ID, 3))
	_, err := e.stock.Process(ctx, o1.ID)
	require.NoError(t, err)

	_, err = e.inv.Restock(ctx, testAdminID, p.ID, "gold/s", 4, "")
	require.NoError(t, err)
	_, err = e.inv.SetStock(ctx, testAdminID, p.ID, "gold/s", 8, "")
	require.NoError(t, err)

	o2 := e.order(t, 1, 100, item(p.ID, 2))
	_, err = e.stock.Process(ctx, o2.ID)
	require.NoError(t, err)
	e.advance(t, o2.ID, model.OrderStatusCancelled)

	reports, err := e.inv.VerifyConservation(ctx, p.ID)
	require.NoError(t, err)
	require.Len(t, reports, 1)
	r := reports[0]
	assert.True(t, r.OK)
	assert.Equal(t, int64(10), r.InitialStock)
	assert.Equal(t, int64(8), r.Stock)
	assert.Equal(t, int64(-2), r.LoggedChange)
}

func TestInventory_RecentLogs_Validation(t *testing.T) {
	e := newTestEnv(t)
	p := e.product(t, "Ring", 1, 1)

	_, err := e.inv.RecentLogs(context.Background(), p.ID, 201)
	assertHTTPStatus(t, err, 400)
	_, err = e.inv.RecentLogs(context.Background(), 999, 10)
	assertHTTPStatus(t, err, 404)

	logs, err := e.inv.RecentLogs(context.Background(), p.ID, 10)
	require.NoError(t, err)
	assert.Empty(t, logs)
}
