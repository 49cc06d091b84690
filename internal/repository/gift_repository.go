package repository

import (
	"context"

	"stockengine/internal/domain/model"
)

type GiftRepository interface {
	// is_active かつ min_purchase <= orderTotal を id 昇順で
	ListEligible(ctx context.Context, orderTotal int64) ([]model.GiftDefinition, error)
	// 有効なときだけusage_countを+1（falseなら無効化された）
	IncrementUsage(ctx context.Context, giftID int64) (bool, error)
	Create(ctx context.Context, g model.GiftDefinition) (model.GiftDefinition, error)
	FindByID(ctx context.Context, giftID int64) (model.GiftDefinition, error)

	FindAward(ctx context.Context, orderID int64) (model.GiftAward, bool, error)
	CreateAward(ctx context.Context, a model.GiftAward) error
}
