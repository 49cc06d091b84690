package repository

import (
	"context"
	"time"

	"stockengine/internal/domain/model"
)

type AdminOrderListFilter struct {
	Page   int
	Limit  int
	Status string
	UserID *int64
	From   *time.Time
	To     *time.Time
}

type OrderRepository interface {
	FindByID(ctx context.Context, orderID int64) (model.Order, error)
	ListByUserID(ctx context.Context, userID int64, page int, limit int) ([]model.Order, int64, error)
	// 同じ(user_id, idempotency_key)があればErrDuplicate
	Create(ctx context.Context, order model.Order) (int64, error)

	// 現在のステータスがfromのときだけ更新（falseなら競合）
	UpdateStatusIfCurrent(ctx context.Context, orderID int64, from model.OrderStatus, to model.OrderStatus) (bool, error)

	// stock_processed=falseのときだけtrueにする
	MarkStockProcessed(ctx context.Context, orderID int64) (bool, error)

	Delete(ctx context.Context, orderID int64) error

	//検索（同じキーなら同じ結果を返す）
	FindByIdempotencyKey(ctx context.Context, userID int64, key string) (model.Order, bool, error)
	//管理者用の注文一覧
	ListAdmin(ctx context.Context, f AdminOrderListFilter) ([]model.Order, int64, error)

	// DELIVEREDの注文のtotal_amount合計
	SumDeliveredTotal(ctx context.Context, userID int64) (int64, error)
}
