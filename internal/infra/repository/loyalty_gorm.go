package repository

import (
	"context"
	"errors"
	"fmt"

	"stockengine/internal/domain/model"
	repo "stockengine/internal/repository"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type LoyaltyGormRepository struct {
	db *gorm.DB
}

func NewLoyaltyGormRepository(db *gorm.DB) *LoyaltyGormRepository {
	return &LoyaltyGormRepository{db: db}
}

func (r *LoyaltyGormRepository) Find(ctx context.Context, customerID int64) (model.CustomerLoyalty, error) {
	var l model.CustomerLoyalty
	err := r.db.WithContext(ctx).Where("customer_id = ?", customerID).First(&l).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return model.CustomerLoyalty{}, repo.ErrNotFound
	}
	if err != nil {
		return model.CustomerLoyalty{}, fmt.Errorf("find loyalty: %w", err)
	}
	return l, nil
}

// 集計結果で丸ごと置き換える
func (r *LoyaltyGormRepository) Upsert(ctx context.Context, l model.CustomerLoyalty) error {
	err := r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "customer_id"}},
		DoUpdates: clause.AssignmentColumns([]string{"total_spent", "is_vip", "updated_at"}),
	}).Create(&l).Error
	if err != nil {
		return fmt.Errorf("upsert loyalty: %w", err)
	}
	return nil
}
