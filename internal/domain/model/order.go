package model

import (
	"strconv"
	"time"
)

type OrderStatus string

const (
	OrderStatusPending    OrderStatus = "PENDING"
	OrderStatusProcessing OrderStatus = "PROCESSING"
	OrderStatusShipped    OrderStatus = "SHIPPED"
	OrderStatusDelivered  OrderStatus = "DELIVERED"
	OrderStatusCancelled  OrderStatus = "CANCELLED"
)

// 許可される遷移だけを列挙する
var orderTransitions = map[OrderStatus][]OrderStatus{
	OrderStatusPending:    {OrderStatusProcessing, OrderStatusCancelled},
	OrderStatusProcessing: {OrderStatusShipped, OrderStatusCancelled},
	OrderStatusShipped:    {OrderStatusDelivered, OrderStatusCancelled},
	//配達済みの訂正（返品・誤登録）
	OrderStatusDelivered: {OrderStatusCancelled},
	OrderStatusCancelled: {},
}

func ParseOrderStatus(s string) (OrderStatus, bool) {
	st := OrderStatus(s)
	_, ok := orderTransitions[st]
	return st, ok
}

func (s OrderStatus) CanTransitionTo(next OrderStatus) bool {
	for _, n := range orderTransitions[s] {
		if n == next {
			return true
		}
	}
	return false
}

func (s OrderStatus) IsTerminal() bool {
	return s == OrderStatusCancelled
}

type Order struct {
	ID     int64       `gorm:"primaryKey;autoIncrement" json:"id"`
	UserID int64       `gorm:"not null;index;uniqueIndex:idx_order_user_idem" json:"user_id"`
	Status OrderStatus `gorm:"type:varchar(20);not null;index" json:"status"`
	//在庫減算済みフラグ（二重処理防止）
	StockProcessed bool      `gorm:"not null;default:false" json:"stock_processed"`
	TotalAmount    int64     `gorm:"not null" json:"total_amount"`
	PaidAmount     int64     `gorm:"not null;default:0" json:"paid_amount"`
	DueAmount      int64     `gorm:"not null;default:0" json:"due_amount"`
	IdempotencyKey string    `gorm:"type:varchar(255);not null;uniqueIndex:idx_order_user_idem" json:"-"`
	CreatedAt      time.Time `gorm:"not null;autoCreateTime" json:"created_at"`
	UpdatedAt      time.Time `gorm:"not null;autoUpdateTime" json:"updated_at"`
}

func (o Order) StockState() StockProcessState {
	if o.StockProcessed {
		return StockProcessed
	}
	return StockUnprocessed
}

// 支払額から残額を出す（マイナスにはしない）
func DueFor(total, paid int64) int64 {
	if paid >= total {
		return 0
	}
	return total - paid
}

// 注文ごとの在庫処理の状態
type StockProcessState string

const (
	StockUnprocessed StockProcessState = "UNPROCESSED"
	StockProcessing  StockProcessState = "PROCESSING"
	StockProcessed   StockProcessState = "PROCESSED"
	StockFailed      StockProcessState = "FAILED"
	//処理済みのため何もしなかった
	StockSkipped StockProcessState = "SKIPPED"
)

// 在庫ログのperformed_by
func OrderActor(orderID int64) string {
	return "Order #" + strconv.FormatInt(orderID, 10)
}
