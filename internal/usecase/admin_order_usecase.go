package usecase

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"stockengine/internal/domain/model"
	"stockengine/internal/metrics"
	repo "stockengine/internal/repository"
)

type AdminOrderUsecase struct {
	tx       repo.TransactionManager
	loyalty  *LoyaltyUsecase
	notifier *BackInStockUsecase
	cache    CacheInvalidator
	log      *slog.Logger
}

func NewAdminOrderUsecase(tx repo.TransactionManager, loyalty *LoyaltyUsecase, notifier *BackInStockUsecase, cache CacheInvalidator, log *slog.Logger) *AdminOrderUsecase {
	return &AdminOrderUsecase{tx: tx, loyalty: loyalty, notifier: notifier, cache: cache, log: log}
}

type AdminUpdateOrderStatusInput struct {
	Status string
}

// 注文一覧
func (u *AdminOrderUsecase) List(ctx context.Context, f repo.AdminOrderListFilter) ([]OrderOutput, error) {
	// page/limitの最低限チェック
	if f.Page < 1 {
		return []OrderOutput{}, NewHTTPError(http.StatusBadRequest, "invalid page")
	}
	if f.Limit < 1 || f.Limit > 100 {
		return []OrderOutput{}, NewHTTPError(http.StatusBadRequest, "invalid limit")
	}
	if f.Status != "" {
		if _, ok := model.ParseOrderStatus(f.Status); !ok {
			return []OrderOutput{}, NewHTTPError(http.StatusBadRequest, "invalid status")
		}
	}

	var outs []OrderOutput

	err := u.tx.WithinTx(ctx, func(r repo.TxRepos) error {
		orders, _, err := r.Orders().ListAdmin(ctx, f)
		if err != nil {
			return err
		}

		outs = make([]OrderOutput, 0, len(orders))
		for _, o := range orders {
			items, err := r.OrderItems().ListByOrderID(ctx, o.ID)
			if err != nil {
				return err
			}
			outs = append(outs, toOrderOutput(o, items))
		}
		return nil
	})

	if err != nil {
		return []OrderOutput{}, toHTTPError(err)
	}
	return outs, nil
}

// ステータス更新。CANCELLEDへの遷移で在庫を戻し、
// DELIVEREDが絡む遷移では同じtxで累計購入額を集計し直す
func (u *AdminOrderUsecase) UpdateStatus(ctx context.Context, actorAdminUserID int64, orderID int64, in AdminUpdateOrderStatusInput) (OrderOutput, error) {
	if actorAdminUserID <= 0 {
		return OrderOutput{}, NewHTTPError(http.StatusUnauthorized, "unauthorized")
	}
	if orderID <= 0 {
		return OrderOutput{}, NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	next, ok := model.ParseOrderStatus(strings.ToUpper(strings.TrimSpace(in.Status)))
	if !ok {
		return OrderOutput{}, NewHTTPError(http.StatusBadRequest, "invalid status")
	}

	var (
		out      OrderOutput
		restored []VariantRef
	)

	err := u.tx.WithinTx(ctx, func(r repo.TxRepos) error {
		o, err := r.Orders().FindByID(ctx, orderID)
		if err != nil {
			return err
		}

		// すでに同じなら何もしない（キャンセル済みのキャンセルもここ）
		if o.Status == next {
			return u.fill(ctx, r, o, &out)
		}
		if !o.Status.CanTransitionTo(next) {
			return NewHTTPError(http.StatusConflict, "invalid status transition")
		}

		//読んだステータスを条件に更新
		updated, err := r.Orders().UpdateStatusIfCurrent(ctx, orderID, o.Status, next)
		if err != nil {
			return err
		}
		if !updated {
			cur, err := r.Orders().FindByID(ctx, orderID)
			if err != nil {
				return err
			}
			if cur.Status == next {
				//同時に同じ更新が入った
				return u.fill(ctx, r, cur, &out)
			}
			return repo.ErrConflict
		}
		prev := o.Status
		o.Status = next

		if next == model.OrderStatusCancelled && o.StockProcessed {
			restored, err = rollbackStock(ctx, r, o)
			if err != nil {
				return err
			}
		}

		if next == model.OrderStatusDelivered || prev == model.OrderStatusDelivered {
			if _, err := u.loyalty.syncWith(ctx, r, o.UserID); err != nil {
				return err
			}
		}

		if err := r.AuditLogs().Create(ctx, model.AuditLog{
			ActorUserID:  actorAdminUserID,
			Action:       model.AuditActionUpdateOrderStatus,
			ResourceType: model.AuditResourceOrder,
			ResourceID:   orderID,
			BeforeJSON:   auditJSON(map[string]any{"status": prev}),
			AfterJSON:    auditJSON(map[string]any{"status": next, "restored_items": len(restored)}),
			CreatedAt:    time.Now(),
		}); err != nil {
			return err
		}

		return u.fill(ctx, r, o, &out)
	})
	if err != nil {
		return OrderOutput{}, toHTTPError(err)
	}

	if len(restored) > 0 {
		u.log.InfoContext(ctx, "order cancelled, stock restored", "order_id", orderID, "variants", len(restored))
		u.cache.Invalidate(ctx, invalidatePaths(restored)...)
		u.notifier.AfterRestock(ctx, restored)
	}
	return out, nil
}

// 注文削除。未キャンセルで在庫処理済みなら先に在庫を戻す
func (u *AdminOrderUsecase) Delete(ctx context.Context, actorAdminUserID int64, orderID int64) error {
	if actorAdminUserID <= 0 {
		return NewHTTPError(http.StatusUnauthorized, "unauthorized")
	}
	if orderID <= 0 {
		return NewHTTPError(http.StatusBadRequest, "invalid id")
	}

	var restored []VariantRef
	err := u.tx.WithinTx(ctx, func(r repo.TxRepos) error {
		o, err := r.Orders().FindByID(ctx, orderID)
		if err != nil {
			return err
		}

		if !o.Status.IsTerminal() && o.StockState() == model.StockProcessed {
			restored, err = rollbackStock(ctx, r, o)
			if err != nil {
				return err
			}
		}

		if err := r.OrderItems().DeleteByOrderID(ctx, orderID); err != nil {
			return err
		}
		if err := r.Orders().Delete(ctx, orderID); err != nil {
			return err
		}

		if o.Status == model.OrderStatusDelivered {
			if _, err := u.loyalty.syncWith(ctx, r, o.UserID); err != nil {
				return err
			}
		}

		return r.AuditLogs().Create(ctx, model.AuditLog{
			ActorUserID:  actorAdminUserID,
			Action:       model.AuditActionDeleteOrder,
			ResourceType: model.AuditResourceOrder,
			ResourceID:   orderID,
			BeforeJSON:   auditJSON(map[string]any{"status": o.Status, "total_amount": o.TotalAmount, "stock_processed": o.StockProcessed}),
			AfterJSON:    auditJSON(map[string]any{"deleted": true, "restored_items": len(restored)}),
			CreatedAt:    time.Now(),
		})
	})
	if err != nil {
		return toHTTPError(err)
	}

	u.log.InfoContext(ctx, "order deleted", "order_id", orderID, "restored", len(restored))
	if len(restored) > 0 {
		u.cache.Invalidate(ctx, invalidatePaths(restored)...)
		u.notifier.AfterRestock(ctx, restored)
	}
	return nil
}

// 注文の監査履歴（新しい順）。削除済みの注文も引ける
func (u *AdminOrderUsecase) History(ctx context.Context, orderID int64) ([]model.AuditLog, error) {
	if orderID <= 0 {
		return []model.AuditLog{}, NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	var logs []model.AuditLog
	err := u.tx.WithinTx(ctx, func(r repo.TxRepos) error {
		var err error
		logs, err = r.AuditLogs().List(ctx, repo.AuditQuery{
			ResourceType: model.AuditResourceOrder,
			ResourceID:   orderID,
			Limit:        200,
		})
		return err
	})
	if err != nil {
		return []model.AuditLog{}, toHTTPError(err)
	}
	return logs, nil
}

func (u *AdminOrderUsecase) fill(ctx context.Context, r repo.TxRepos, o model.Order, out *OrderOutput) error {
	items, err := r.OrderItems().ListByOrderID(ctx, o.ID)
	if err != nil {
		return err
	}
	*out = toOrderOutput(o, items)
	return nil
}

// 明細ごとに在庫を戻してRETURNを記録する
func rollbackStock(ctx context.Context, r repo.TxRepos, o model.Order) ([]VariantRef, error) {
	items, err := r.OrderItems().ListByOrderID(ctx, o.ID)
	if err != nil {
		return nil, err
	}

	actor := model.OrderActor(o.ID)
	refs := make([]VariantRef, 0, len(items))
	for _, it := range items {
		//戻し先が消えていたら404で全体を巻き戻す
		if _, err := r.Inventory().Increase(ctx, it.ProductID, it.VariantKey, it.Quantity); err != nil {
			return nil, err
		}
		if err := r.InventoryLogs().Append(ctx, model.InventoryLog{
			ProductID:   it.ProductID,
			VariantKey:  it.VariantKey,
			Change:      it.Quantity,
			Reason:      model.InventoryReasonReturn,
			PerformedBy: actor,
			CreatedAt:   time.Now(),
		}); err != nil {
			return nil, err
		}
		metrics.StockChanges.WithLabelValues(string(model.InventoryReasonReturn)).Add(float64(it.Quantity))
		refs = append(refs, VariantRef{ProductID: it.ProductID, VariantKey: it.VariantKey})
	}
	return refs, nil
}

func auditJSON(v any) string {
	b, err := json.Marshal(v)
	if err != nil {
		return "{}"
	}
	return string(b)
}
