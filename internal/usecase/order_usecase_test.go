package usecase

import (
	"context"
	"testing"

	"stockengine/internal/domain/model"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func placeInput(key string, items ...PlaceOrderItemInput) PlaceOrderInput {
	return PlaceOrderInput{IdempotencyKey: key, PaidAmount: 100, Items: items}
}

func TestOrder_PlaceOrder_DeductsStock(t *testing.T) {
	e := newTestEnv(t)
	ctx := context.Background()
	p := e.product(t, "Ring", 2, 10)

	out, err := e.orders.PlaceOrder(ctx, 7, placeInput("k-1", PlaceOrderItemInput{ProductID: p.ID, VariantKey: "Gold/S", Quantity: 3}))
	require.NoError(t, err)

	assert.Equal(t, string(model.OrderStatusProcessing), out.Status)
	assert.True(t, out.StockProcessed)
	assert.Equal(t, int64(150), out.TotalAmount)
	assert.Equal(t, int64(50), out.DueAmount)
	require.Len(t, out.Items, 1)
	assert.Equal(t, "gold/s", out.Items[0].VariantKey)
	assert.Equal(t, "Ring", out.Items[0].Name)

	assert.Equal(t, int64(7), e.stockOf(t, p.ID))
	logs := e.logsOf(t, p.ID)
	require.Len(t, logs, 1)
	assert.Equal(t, model.InventoryReasonSale, logs[0].Reason)
	assert.Equal(t, model.OrderActor(out.ID), logs[0].PerformedBy)
}

// 同じキーの再送は同じ注文を返し、在庫は二重に減らない
func TestOrder_PlaceOrder_Idempotent(t *testing.T) {
	e := newTestEnv(t)
	ctx := context.Background()
	p := e.product(t, "Ring", 1, 10)
	in := placeInput("same-key", PlaceOrderItemInput{ProductID: p.ID, VariantKey: "gold/s", Quantity: 2})

	first, err := e.orders.PlaceOrder(ctx, 7, in)
	require.NoError(t, err)
	second, err := e.orders.PlaceOrder(ctx, 7, in)
	require.NoError(t, err)

	assert.Equal(t, first.ID, second.ID)
	assert.Equal(t, int64(8), e.stockOf(t, p.ID))
	assert.Len(t, e.logsOf(t, p.ID), 1)

	//別ユーザーなら別注文
	other, err := e.orders.PlaceOrder(ctx, 8, in)
	require.NoError(t, err)
	assert.NotEqual(t, first.ID, other.ID)
}

func TestOrder_PlaceOrder_OutOfStockCreatesNothing(t *testing.T) {
	e := newTestEnv(t)
	ctx := context.Background()
	a := e.product(t, "Ring", 1, 10)
	b := e.product(t, "Clasp", 1, 1)

	_, err := e.orders.PlaceOrder(ctx, 7, placeInput("k-2",
		PlaceOrderItemInput{ProductID: a.ID, VariantKey: "gold/s", Quantity: 3},
		PlaceOrderItemInput{ProductID: b.ID, VariantKey: "gold/s", Quantity: 2},
	))
	assertHTTPStatus(t, err, 409)

	assert.Equal(t, int64(10), e.stockOf(t, a.ID))
	assert.Empty(t, e.logsOf(t, a.ID))

	mine, err := e.orders.ListMyOrders(ctx, 7, 1, 20)
	require.NoError(t, err)
	assert.Empty(t, mine)
}

func TestOrder_PlaceOrder_Validation(t *testing.T) {
	e := newTestEnv(t)
	ctx := context.Background()
	p := e.product(t, "Ring", 3, 10)
	ok := PlaceOrderItemInput{ProductID: p.ID, VariantKey: "gold/s", Quantity: 3}

	tests := []struct {
		name   string
		userID int64
		in     PlaceOrderInput
		status int
	}{
		{"no user", 0, placeInput("k", ok), 401},
		{"no key", 7, placeInput(" ", ok), 400},
		{"no items", 7, placeInput("k"), 400},
		{"negative paid", 7, PlaceOrderInput{IdempotencyKey: "k", PaidAmount: -1, Items: []PlaceOrderItemInput{ok}}, 400},
		{"zero quantity", 7, placeInput("k", PlaceOrderItemInput{ProductID: p.ID, Quantity: 0}), 400},
		{"below moq", 7, placeInput("k", PlaceOrderItemInput{ProductID: p.ID, VariantKey: "gold/s", Quantity: 2}), 400},
		{"unknown product", 7, placeInput("k", PlaceOrderItemInput{ProductID: 999, Quantity: 3}), 404},
		{"unknown variant", 7, placeInput("k", PlaceOrderItemInput{ProductID: p.ID, VariantKey: "silver/m", Quantity: 3}), 404},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := e.orders.PlaceOrder(ctx, tt.userID, tt.in)
			assertHTTPStatus(t, err, tt.status)
		})
	}
	assert.Equal(t, int64(10), e.stockOf(t, p.ID))
}

func TestOrder_GetMyOrderDetail_OtherUserNotFound(t *testing.T) {
	e := newTestEnv(t)
	ctx := context.Background()
	p := e.product(t, "Ring", 1, 10)
	out, err := e.orders.PlaceOrder(ctx, 7, placeInput("k-3", PlaceOrderItemInput{ProductID: p.ID, VariantKey: "gold/s", Quantity: 1}))
	require.NoError(t, err)

	got, err := e.orders.GetMyOrderDetail(ctx, 7, out.ID)
	require.NoError(t, err)
	assert.Equal(t, out.ID, got.ID)
	require.Len(t, got.Items, 1)

	_, err = e.orders.GetMyOrderDetail(ctx, 8, out.ID)
	assertHTTPStatus(t, err, 404)

	mine, err := e.orders.ListMyOrders(ctx, 7, 1, 20)
	require.NoError(t, err)
	require.Len(t, mine, 1)
	_, err = e.orders.ListMyOrders(ctx, 7, 1, 101)
	assertHTTPStatus(t, err, 400)
}
