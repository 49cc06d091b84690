package repository

import (
	"context"

	"stockengine/internal/domain/model"
)

// 在庫ログは追記のみ。更新・削除はない
type InventoryLogRepository interface {
	Append(ctx context.Context, entry model.InventoryLog) error

	// 新しい順
	Recent(ctx context.Context, productID int64, limit int) ([]model.InventoryLog, error)

	// バリアントのchange合計
	SumChanges(ctx context.Context, productID int64, variantKey string) (int64, error)
}
