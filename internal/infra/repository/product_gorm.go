package repository

import (
	"context"
	"errors"
	"fmt"

	"stockengine/internal/domain/model"
	repo "stockengine/internal/repository"

	"gorm.io/gorm"
)

type ProductGormRepository struct {
	db *gorm.DB
}

// DI
func NewProductGormRepository(db *gorm.DB) *ProductGormRepository {
	return &ProductGormRepository{db: db}
}

// IDで商品を取得
func (r *ProductGormRepository) FindByID(ctx context.Context, id int64) (model.Product, error) {
	var p model.Product
	err := r.db.WithContext(ctx).First(&p, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return model.Product{}, repo.ErrProductNotFound
	}
	if err != nil {
		return model.Product{}, fmt.Errorf("find product: %w", err)
	}
	return p, nil
}

// 商品とバリアントをまとめて作成
func (r *ProductGormRepository) Create(ctx context.Context, p model.Product, variants []model.Variant) (model.Product, error) {
	if p.MinOrderQuantity < 1 {
		p.MinOrderQuantity = 1
	}
	if len(variants) == 0 {
		variants = []model.Variant{{VariantKey: model.StandardVariantKey, Price: p.Price}}
	}

	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&p).Error; err != nil {
			return err
		}
		for i := range variants {
			v := variants[i]
			v.ID = 0
			v.ProductID = p.ID
			if v.VariantKey == "" {
				v.VariantKey = model.NewVariantKey(v.Color, v.Size)
			}
			v.VariantKey = model.NormalizeVariantKey(v.VariantKey)
			//作成時の在庫を初期在庫として残す
			v.InitialStock = v.Stock
			if err := tx.Create(&v).Error; err != nil {
				return err
			}
		}
		return nil
	})
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return model.Product{}, repo.ErrDuplicate
	}
	if err != nil {
		return model.Product{}, fmt.Errorf("create product: %w", err)
	}
	return p, nil
}
