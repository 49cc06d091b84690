package repository

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"stockengine/internal/domain/model"
	repo "stockengine/internal/repository"

	"gorm.io/gorm"
)

type WaitlistGormRepository struct {
	db *gorm.DB
}

func NewWaitlistGormRepository(db *gorm.DB) *WaitlistGormRepository {
	return &WaitlistGormRepository{db: db}
}

func (r *WaitlistGormRepository) Create(ctx context.Context, e model.WaitlistEntry) (model.WaitlistEntry, error) {
	e.ID = 0
	e.Email = strings.ToLower(strings.TrimSpace(e.Email))
	e.VariantKey = model.NormalizeVariantKey(e.VariantKey)
	if e.Status == "" {
		e.Status = model.WaitlistStatusPending
	}
	if err := r.db.WithContext(ctx).Create(&e).Error; err != nil {
		return model.WaitlistEntry{}, fmt.Errorf("create waitlist entry: %w", err)
	}
	return e, nil
}

func (r *WaitlistGormRepository) FindPending(ctx context.Context, email string, productID int64, variantKey string) (model.WaitlistEntry, bool, error) {
	var e model.WaitlistEntry
	err := r.db.WithContext(ctx).
		Where("email = ? AND product_id = ? AND variant_key = ? AND status = ?",
			strings.ToLower(strings.TrimSpace(email)), productID, model.NormalizeVariantKey(variantKey), model.WaitlistStatusPending).
		First(&e).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return model.WaitlistEntry{}, false, nil
	}
	if err != nil {
		return model.WaitlistEntry{}, false, fmt.Errorf("find waitlist entry: %w", err)
	}
	return e, true, nil
}

func (r *WaitlistGormRepository) ListPending(ctx context.Context, productID int64, variantKey string) ([]model.WaitlistEntry, error) {
	var es []model.WaitlistEntry
	err := r.db.WithContext(ctx).
		Where("product_id = ? AND variant_key = ? AND status = ?", productID, model.NormalizeVariantKey(variantKey), model.WaitlistStatusPending).
		Order("id asc").
		Find(&es).Error
	if err != nil {
		return []model.WaitlistEntry{}, fmt.Errorf("list waitlist: %w", err)
	}
	return es, nil
}

// 未占有か、占有が古いときだけ取る
func (r *WaitlistGormRepository) Claim(ctx context.Context, entryID int64, token string, now time.Time, staleBefore time.Time) (bool, error) {
	res := r.db.WithContext(ctx).Model(&model.WaitlistEntry{}).
		Where("id = ? AND status = ?", entryID, model.WaitlistStatusPending).
		Where("claim_token = '' OR claimed_at IS NULL OR claimed_at < ?", staleBefore).
		Updates(map[string]interface{}{
			"claim_token": token,
			"claimed_at":  now,
		})
	if res.Error != nil {
		return false, fmt.Errorf("claim waitlist entry: %w", res.Error)
	}
	return res.RowsAffected == 1, nil
}

func (r *WaitlistGormRepository) Release(ctx context.Context, entryID int64, token string) error {
	res := r.db.WithContext(ctx).Model(&model.WaitlistEntry{}).
		Where("id = ? AND claim_token = ? AND status = ?", entryID, token, model.WaitlistStatusPending).
		Updates(map[string]interface{}{
			"claim_token": "",
			"claimed_at":  nil,
		})
	if res.Error != nil {
		return fmt.Errorf("release waitlist entry: %w", res.Error)
	}
	return nil
}

func (r *WaitlistGormRepository) MarkNotified(ctx context.Context, entryID int64, token string, at time.Time) (bool, error) {
	res := r.db.WithContext(ctx).Model(&model.WaitlistEntry{}).
		Where("id = ? AND claim_token = ? AND status = ?", entryID, token, model.WaitlistStatusPending).
		Updates(map[string]interface{}{
			"status":      model.WaitlistStatusNotified,
			"notified_at": at,
		})
	if res.Error != nil {
		return false, fmt.Errorf("mark waitlist notified: %w", res.Error)
	}
	return res.RowsAffected == 1, nil
}

var _ repo.WaitlistRepository = (*WaitlistGormRepository)(nil)
