package repository

import (
	"context"
	"time"

	"stockengine/internal/domain/model"
)

type WaitlistRepository interface {
	Create(ctx context.Context, entry model.WaitlistEntry) (model.WaitlistEntry, error)
	FindPending(ctx context.Context, email string, productID int64, variantKey string) (model.WaitlistEntry, bool, error)
	ListPending(ctx context.Context, productID int64, variantKey string) ([]model.WaitlistEntry, error)

	// PENDINGかつ未占有（またはstaleBefore以前の占有）のときだけtokenで占有する
	Claim(ctx context.Context, entryID int64, token string, now time.Time, staleBefore time.Time) (bool, error)
	// 占有を解除（PENDINGのまま）
	Release(ctx context.Context, entryID int64, token string) error
	// 占有中のtokenが一致するときだけNOTIFIEDにする
	MarkNotified(ctx context.Context, entryID int64, token string, at time.Time) (bool, error)
}
