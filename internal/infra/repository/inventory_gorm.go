package repository

import (
	"context"
	"errors"
	"fmt"

	"stockengine/internal/domain/model"
	repo "stockengine/internal/repository"

	"gorm.io/gorm"
)

// SetAbsoluteの比較更新に負けたときの再試行回数
const setAbsoluteRetries = 3

type InventoryGormRepository struct {
	db *gorm.DB
}

func NewInventoryGormRepository(db *gorm.DB) *InventoryGormRepository {
	return &InventoryGormRepository{db: db}
}

func (r *InventoryGormRepository) FindVariant(ctx context.Context, productID int64, variantKey string) (model.Variant, error) {
	var v model.Variant
	err := r.db.WithContext(ctx).
		Where("product_id = ? AND variant_key = ?", productID, model.NormalizeVariantKey(variantKey)).
		First(&v).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return model.Variant{}, r.missing(ctx, productID)
	}
	if err != nil {
		return model.Variant{}, fmt.Errorf("find variant: %w", err)
	}
	return v, nil
}

func (r *InventoryGormRepository) ListVariants(ctx context.Context, productID int64) ([]model.Variant, error) {
	var vs []model.Variant
	if err := r.db.WithContext(ctx).
		Where("product_id = ?", productID).
		Order("id asc").
		Find(&vs).Error; err != nil {
		return []model.Variant{}, fmt.Errorf("list variants: %w", err)
	}
	return vs, nil
}

// 在庫が足りるときだけ減らす（stock >= qty を条件にした1文）
func (r *InventoryGormRepository) Decrement(ctx context.Context, productID int64, variantKey string, qty int64) (int64, error) {
	if qty <= 0 {
		return 0, repo.ErrInvalidQuantity
	}
	key := model.NormalizeVariantKey(variantKey)

	res := r.db.WithContext(ctx).
		Model(&model.Variant{}).
		Where("product_id = ? AND variant_key = ? AND stock >= ?", productID, key, qty).
		Update("stock", gorm.Expr("stock - ?", qty))
	if res.Error != nil {
		return 0, fmt.Errorf("decrement stock: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		//行がないのか、在庫が足りないのか
		if _, err := r.FindVariant(ctx, productID, key); err != nil {
			return 0, err
		}
		return 0, repo.ErrInsufficientStock
	}
	return r.currentStock(ctx, productID, key)
}

// 在庫戻し・入荷
func (r *InventoryGormRepository) Increase(ctx context.Context, productID int64, variantKey string, qty int64) (int64, error) {
	if qty <= 0 {
		return 0, repo.ErrInvalidQuantity
	}
	key := model.NormalizeVariantKey(variantKey)

	res := r.db.WithContext(ctx).
		Model(&model.Variant{}).
		Where("product_id = ? AND variant_key = ?", productID, key).
		Update("stock", gorm.Expr("stock + ?", qty))
	if res.Error != nil {
		return 0, fmt.Errorf("increase stock: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return 0, r.missing(ctx, productID)
	}
	return r.currentStock(ctx, productID, key)
}

// 読んだ値を条件に上書きする。負けたら読み直す
func (r *InventoryGormRepository) SetAbsolute(ctx context.Context, productID int64, variantKey string, value int64) (int64, int64, error) {
	if value < 0 {
		return 0, 0, repo.ErrInvalidQuantity
	}
	key := model.NormalizeVariantKey(variantKey)

	for i := 0; i < setAbsoluteRetries; i++ {
		v, err := r.FindVariant(ctx, productID, key)
		if err != nil {
			return 0, 0, err
		}
		if v.Stock == value {
			return 0, value, nil
		}

		res := r.db.WithContext(ctx).
			Model(&model.Variant{}).
			Where("id = ? AND stock = ?", v.ID, v.Stock).
			Update("stock", value)
		if res.Error != nil {
			return 0, 0, fmt.Errorf("set stock: %w", res.Error)
		}
		if res.RowsAffected == 1 {
			return value - v.Stock, value, nil
		}
	}
	return 0, 0, repo.ErrConflict
}

func (r *InventoryGormRepository) currentStock(ctx context.Context, productID int64, key string) (int64, error) {
	var stock int64
	err := r.db.WithContext(ctx).
		Model(&model.Variant{}).
		Where("product_id = ? AND variant_key = ?", productID, key).
		Select("stock").
		Scan(&stock).Error
	if err != nil {
		return 0, fmt.Errorf("read stock: %w", err)
	}
	return stock, nil
}

// 商品ごとないのか、バリアントだけないのか
func (r *InventoryGormRepository) missing(ctx context.Context, productID int64) error {
	var n int64
	if err := r.db.WithContext(ctx).Model(&model.Product{}).Where("id = ?", productID).Count(&n).Error; err != nil {
		return fmt.Errorf("find product: %w", err)
	}
	if n == 0 {
		return repo.ErrProductNotFound
	}
	return repo.ErrVariantNotFound
}
