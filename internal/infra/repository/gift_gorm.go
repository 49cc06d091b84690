package repository

import (
	"context"
	"errors"
	"fmt"

	"stockengine/internal/domain/model"
	repo "stockengine/internal/repository"

	"gorm.io/gorm"
)

type GiftGormRepository struct {
	db *gorm.DB
}

func NewGiftGormRepository(db *gorm.DB) *GiftGormRepository {
	return &GiftGormRepository{db: db}
}

// 抽選順を固定するためid昇順
func (r *GiftGormRepository) ListEligible(ctx context.Context, orderTotal int64) ([]model.GiftDefinition, error) {
	var gs []model.GiftDefinition
	err := r.db.WithContext(ctx).
		Where("is_active = ? AND min_purchase <= ?", true, orderTotal).
		Order("id asc").
		Find(&gs).Error
	if err != nil {
		return []model.GiftDefinition{}, fmt.Errorf("list gifts: %w", err)
	}
	return gs, nil
}

func (r *GiftGormRepository) IncrementUsage(ctx context.Context, giftID int64) (bool, error) {
	res := r.db.WithContext(ctx).Model(&model.GiftDefinition{}).
		Where("id = ? AND is_active = ?", giftID, true).
		Update("usage_count", gorm.Expr("usage_count + ?", 1))
	if res.Error != nil {
		return false, fmt.Errorf("increment gift usage: %w", res.Error)
	}
	return res.RowsAffected == 1, nil
}

func (r *GiftGormRepository) Create(ctx context.Context, g model.GiftDefinition) (model.GiftDefinition, error) {
	g.ID = 0
	if err := r.db.WithContext(ctx).Create(&g).Error; err != nil {
		return model.GiftDefinition{}, fmt.Errorf("create gift: %w", err)
	}
	return g, nil
}

func (r *GiftGormRepository) FindByID(ctx context.Context, giftID int64) (model.GiftDefinition, error) {
	var g model.GiftDefinition
	err := r.db.WithContext(ctx).First(&g, giftID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return model.GiftDefinition{}, repo.ErrNotFound
	}
	if err != nil {
		return model.GiftDefinition{}, fmt.Errorf("find gift: %w", err)
	}
	return g, nil
}

func (r *GiftGormRepository) FindAward(ctx context.Context, orderID int64) (model.GiftAward, bool, error) {
	var a model.GiftAward
	err := r.db.WithContext(ctx).Where("order_id = ?", orderID).First(&a).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return model.GiftAward{}, false, nil
	}
	if err != nil {
		return model.GiftAward{}, false, fmt.Errorf("find gift award: %w", err)
	}
	return a, true, nil
}

func (r *GiftGormRepository) CreateAward(ctx context.Context, a model.GiftAward) error {
	a.ID = 0
	if err := r.db.WithContext(ctx).Create(&a).Error; err != nil {
		if isDuplicateKey(err) {
			return repo.ErrDuplicate
		}
		return fmt.Errorf("create gift award: %w", err)
	}
	return nil
}
