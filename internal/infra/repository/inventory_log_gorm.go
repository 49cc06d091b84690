package repository

import (
	"context"
	"fmt"
	"time"

	"stockengine/internal/domain/model"
	repo "stockengine/internal/repository"

	"gorm.io/gorm"
)

type inventoryLogGormRepository struct {
	db *gorm.DB
}

func NewInventoryLogGormRepository(db *gorm.DB) repo.InventoryLogRepository {
	return &inventoryLogGormRepository{db: db}
}

func (r *inventoryLogGormRepository) Append(ctx context.Context, entry model.InventoryLog) error {
	entry.ID = 0
	entry.VariantKey = model.NormalizeVariantKey(entry.VariantKey)
	if entry.CreatedAt.IsZero() {
		entry.CreatedAt = time.Now()
	}
	if err := r.db.WithContext(ctx).Create(&entry).Error; err != nil {
		return fmt.Errorf("append inventory log: %w", err)
	}
	return nil
}

func (r *inventoryLogGormRepository) Recent(ctx context.Context, productID int64, limit int) ([]model.InventoryLog, error) {
	if limit <= 0 || limit > 200 {
		limit = 50
	}

	var logs []model.InventoryLog
	//新しい順
	if err := r.db.WithContext(ctx).
		Where("product_id = ?", productID).
		Order("id desc").
		Limit(limit).
		Find(&logs).Error; err != nil {
		return []model.InventoryLog{}, fmt.Errorf("list inventory logs: %w", err)
	}
	return logs, nil
}

func (r *inventoryLogGormRepository) SumChanges(ctx context.Context, productID int64, variantKey string) (int64, error) {
	var sum int64
	err := r.db.WithContext(ctx).
		Model(&model.InventoryLog{}).
		Where("product_id = ? AND variant_key = ?", productID, model.NormalizeVariantKey(variantKey)).
		Select("COALESCE(SUM(qty_change), 0)").
		Scan(&sum).Error
	if err != nil {
		return 0, fmt.Errorf("sum inventory logs: %w", err)
	}
	return sum, nil
}
