package repository

import (
	"context"

	"stockengine/internal/domain/model"
)

type LoyaltyRepository interface {
	Find(ctx context.Context, customerID int64) (model.CustomerLoyalty, error)
	Upsert(ctx context.Context, l model.CustomerLoyalty) error
}
