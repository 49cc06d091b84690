package repository

import (
	"context"

	"stockengine/internal/domain/model"
)

// 在庫台帳。variants.stockを書き換えるのはここだけ。
// どの更新も読み取った値を条件にした1文のUPDATEで行う
type InventoryRepository interface {
	FindVariant(ctx context.Context, productID int64, variantKey string) (model.Variant, error)
	ListVariants(ctx context.Context, productID int64) ([]model.Variant, error)

	// 在庫が足りるときだけ減算。足りなければErrInsufficientStock
	Decrement(ctx context.Context, productID int64, variantKey string, qty int64) (int64, error)

	// 入荷・キャンセル戻し。上限なし
	Increase(ctx context.Context, productID int64, variantKey string, qty int64) (int64, error)

	// 管理者の直接上書き。差分（new - old）を返す
	SetAbsolute(ctx context.Context, productID int64, variantKey string, value int64) (delta int64, newStock int64, err error)
}
