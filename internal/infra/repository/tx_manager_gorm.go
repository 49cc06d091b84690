package repository

import (
	"context"

	repo "stockengine/internal/repository"

	"gorm.io/gorm"
)

type txReposGorm struct {
	orders        repo.OrderRepository
	orderItems    repo.OrderItemRepository
	products      repo.ProductRepository
	inventory     repo.InventoryRepository
	inventoryLogs repo.InventoryLogRepository
	waitlist      repo.WaitlistRepository
	loyalty       repo.LoyaltyRepository
	gifts         repo.GiftRepository
	auditLogs     repo.AuditLogRepository
}

func (r *txReposGorm) Orders() repo.OrderRepository               { return r.orders }
func (r *txReposGorm) OrderItems() repo.OrderItemRepository       { return r.orderItems }
func (r *txReposGorm) Products() repo.ProductRepository           { return r.products }
func (r *txReposGorm) Inventory() repo.InventoryRepository        { return r.inventory }
func (r *txReposGorm) InventoryLogs() repo.InventoryLogRepository { return r.inventoryLogs }
func (r *txReposGorm) Waitlist() repo.WaitlistRepository          { return r.waitlist }
func (r *txReposGorm) Loyalty() repo.LoyaltyRepository            { return r.loyalty }
func (r *txReposGorm) Gifts() repo.GiftRepository                 { return r.gifts }
func (r *txReposGorm) AuditLogs() repo.AuditLogRepository         { return r.auditLogs }

// トランザクション外でも同じ形で使えるように
func NewRepos(db *gorm.DB) repo.TxRepos {
	return &txReposGorm{
		orders:        NewOrderGormRepository(db),
		orderItems:    NewOrderItemGormRepository(db),
		products:      NewProductGormRepository(db),
		inventory:     NewInventoryGormRepository(db),
		inventoryLogs: NewInventoryLogGormRepository(db),
		waitlist:      NewWaitlistGormRepository(db),
		loyalty:       NewLoyaltyGormRepository(db),
		gifts:         NewGiftGormRepository(db),
		auditLogs:     NewAuditLogGormRepository(db),
	}
}

type TxManagerGorm struct {
	db *gorm.DB
}

func NewTxManagerGorm(db *gorm.DB) *TxManagerGorm {
	return &TxManagerGorm{db: db}
}

func (tm *TxManagerGorm) WithinTx(ctx context.Context, fn func(r repo.TxRepos) error) error {
	return tm.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		//repoはtxを持ったDBで作り直す
		return fn(NewRepos(tx))
	})
}
