package usecase

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"stockengine/internal/domain/model"
	repo "stockengine/internal/repository"
)

// 配達済み注文の合計からVIPを決め直す。
// 加算ではなく毎回集計し直すので何度呼んでも同じ結果
type LoyaltyUsecase struct {
	tx        repo.TransactionManager
	threshold int64
	clock     Clock
	log       *slog.Logger
}

func NewLoyaltyUsecase(tx repo.TransactionManager, threshold int64, log *slog.Logger) *LoyaltyUsecase {
	if threshold <= 0 {
		threshold = model.DefaultVIPThreshold
	}
	return &LoyaltyUsecase{tx: tx, threshold: threshold, clock: SystemClock{}, log: log}
}

func (u *LoyaltyUsecase) Sync(ctx context.Context, customerID int64) (model.CustomerLoyalty, error) {
	if customerID <= 0 {
		return model.CustomerLoyalty{}, NewHTTPError(http.StatusBadRequest, "invalid customer id")
	}

	var out model.CustomerLoyalty
	err := u.tx.WithinTx(ctx, func(r repo.TxRepos) error {
		l, err := u.syncWith(ctx, r, customerID)
		out = l
		return err
	})
	if err != nil {
		return model.CustomerLoyalty{}, toHTTPError(err)
	}
	u.log.InfoContext(ctx, "loyalty synced", "customer_id", customerID, "total_spent", out.TotalSpent, "vip", out.IsVIP)
	return out, nil
}

// ステータス変更と同じtxで呼ぶ
func (u *LoyaltyUsecase) syncWith(ctx context.Context, r repo.TxRepos, customerID int64) (model.CustomerLoyalty, error) {
	total, err := r.Orders().SumDeliveredTotal(ctx, customerID)
	if err != nil {
		return model.CustomerLoyalty{}, err
	}
	l := model.CustomerLoyalty{
		CustomerID: customerID,
		TotalSpent: total,
		IsVIP:      model.IsVIP(total, u.threshold),
		UpdatedAt:  u.clock.Now(),
	}
	if err := r.Loyalty().Upsert(ctx, l); err != nil {
		return model.CustomerLoyalty{}, err
	}
	return l, nil
}

// 未集計の顧客はゼロ値で返す
func (u *LoyaltyUsecase) Get(ctx context.Context, customerID int64) (model.CustomerLoyalty, error) {
	if customerID <= 0 {
		return model.CustomerLoyalty{}, NewHTTPError(http.StatusBadRequest, "invalid customer id")
	}
	var out model.CustomerLoyalty
	err := u.tx.WithinTx(ctx, func(r repo.TxRepos) error {
		l, err := r.Loyalty().Find(ctx, customerID)
		if errors.Is(err, repo.ErrNotFound) {
			out = model.CustomerLoyalty{CustomerID: customerID}
			return nil
		}
		out = l
		return err
	})
	if err != nil {
		return model.CustomerLoyalty{}, toHTTPError(err)
	}
	return out, nil
}
