package usecase

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"

	"stockengine/internal/domain/model"
	"stockengine/internal/infra/db"
	infraRepo "stockengine/internal/infra/repository"
	"stockengine/internal/logger"
	repo "stockengine/internal/repository"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

var errMailDown = errors.New("smtp down")

// 送信内容を記録する。failに入ったアドレスは失敗させる
type fakeMailer struct {
	mu          sync.Mutex
	lowStock    []LowStockAlert
	backInStock []BackInStockMail
	fail        map[string]bool
	failAlerts  bool
}

func newFakeMailer() *fakeMailer {
	return &fakeMailer{fail: map[string]bool{}}
}

func (m *fakeMailer) SendLowStockAlert(ctx context.Context, a LowStockAlert) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failAlerts {
		return errMailDown
	}
	m.lowStock = append(m.lowStock, a)
	return nil
}

func (m *fakeMailer) SendBackInStockEmail(ctx context.Context, n BackInStockMail) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.fail[n.Email] {
		return errMailDown
	}
	m.backInStock = append(m.backInStock, n)
	return nil
}

func (m *fakeMailer) sentTo() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]string, 0, len(m.backInStock))
	for _, n := range m.backInStock {
		out = append(out, n.Email)
	}
	return out
}

type fakeCache struct {
	mu    sync.Mutex
	paths []string
}

func (c *fakeCache) Invalidate(ctx context.Context, paths ...string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.paths = append(c.paths, paths...)
}

type fixedRoller struct{ v float64 }

func (r fixedRoller) Float64() float64 { return r.v }

type testEnv struct {
	db     *gorm.DB
	tx     repo.TransactionManager
	repos  repo.TxRepos
	mailer *fakeMailer
	cache  *fakeCache

	stock    *OrderStockUsecase
	orders   *OrderUsecase
	admin    *AdminOrderUsecase
	inv      *InventoryUsecase
	notifier *BackInStockUsecase
	loyalty  *LoyaltyUsecase
	gifts    *GiftUsecase
}

const testAdminID int64 = 900

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	gdb, err := db.OpenMemory(strings.ReplaceAll(t.Name(), "/", "_"))
	require.NoError(t, err)
	require.NoError(t, db.Migrate(gdb))
	t.Cleanup(func() {
		if sqlDB, err := gdb.DB(); err == nil {
			_ = sqlDB.Close()
		}
	})

	log := logger.Discard()
	tx := infraRepo.NewTxManagerGorm(gdb)
	mailer := newFakeMailer()
	cache := &fakeCache{}

	stock := NewOrderStockUsecase(tx, NewLowStockWatcher(mailer, log), cache, log)
	notifier := NewBackInStockUsecase(tx, mailer, log)
	loyalty := NewLoyaltyUsecase(tx, model.DefaultVIPThreshold, log)

	return &testEnv{
		db:       gdb,
		tx:       tx,
		repos:    infraRepo.NewRepos(gdb),
		mailer:   mailer,
		cache:    cache,
		stock:    stock,
		orders:   NewOrderUsecase(tx, stock, log),
		admin:    NewAdminOrderUsecase(tx, loyalty, notifier, cache, log),
		inv:      NewInventoryUsecase(tx, notifier, cache, log),
		notifier: notifier,
		loyalty:  loyalty,
		gifts:    NewGiftUsecase(tx, log),
	}
}

// gold/sのバリアント1つの商品
func (e *testEnv) product(t *testing.T, name string, moq, stock int64) model.Product {
	t.Helper()
	out, err := e.inv.AdminCreateProduct(context.Background(), testAdminID, AdminCreateProductInput{
		Name:             name,
		Price:            50,
		MinOrderQuantity: moq,
		IsActive:         true,
		Variants:         []AdminCreateVariantInput{{Color: "gold", Size: "s", Stock: stock, Price: 50}},
	})
	require.NoError(t, err)
	return out.Product
}

// 在庫未処理のPENDING注文を直接作る
func (e *testEnv) order(t *testing.T, userID int64, total int64, items ...model.OrderItem) model.Order {
	t.Helper()
	ctx := context.Background()
	o := model.Order{
		UserID:         userID,
		Status:         model.OrderStatusPending,
		TotalAmount:    total,
		IdempotencyKey: uuid.NewString(),
	}
	id, err := e.repos.Orders().Create(ctx, o)
	require.NoError(t, err)
	require.NoError(t, e.repos.OrderItems().CreateBulk(ctx, id, items))
	o.ID = id
	return o
}

func item(productID int64, qty int64) model.OrderItem {
	return model.OrderItem{
		ProductID:           productID,
		VariantKey:          "gold/s",
		ProductNameSnapshot: "item",
		UnitPrice:           50,
		Quantity:            qty,
	}
}

func (e *testEnv) stockOf(t *testing.T, productID int64) int64 {
	t.Helper()
	v, err := e.repos.Inventory().FindVariant(context.Background(), productID, "gold/s")
	require.NoError(t, err)
	return v.Stock
}

func (e *testEnv) logsOf(t *testing.T, productID int64) []model.InventoryLog {
	t.Helper()
	logs, err := e.repos.InventoryLogs().Recent(context.Background(), productID, 200)
	require.NoError(t, err)
	return logs
}

func (e *testEnv) reloadOrder(t *testing.T, id int64) model.Order {
	t.Helper()
	o, err := e.repos.Orders().FindByID(context.Background(), id)
	require.NoError(t, err)
	return o
}

func (e *testEnv) advance(t *testing.T, orderID int64, statuses ...model.OrderStatus) {
	t.Helper()
	for _, s := range statuses {
		_, err := e.admin.UpdateStatus(context.Background(), testAdminID, orderID, AdminUpdateOrderStatusInput{Status: string(s)})
		require.NoError(t, err)
	}
}
