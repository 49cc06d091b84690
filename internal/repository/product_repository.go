package repository

import (
	"context"

	"stockengine/internal/domain/model"
)

// 商品とバリアントの保存・取得。在庫数はInventoryRepositoryが持つ
type ProductRepository interface {
	FindByID(ctx context.Context, id int64) (model.Product, error)
	// variantsが空ならstandardバリアントを1つ作る
	Create(ctx context.Context, p model.Product, variants []model.Variant) (model.Product, error)
}
