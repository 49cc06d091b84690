package usecase

import (
	"context"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"stockengine/internal/domain/model"
	"stockengine/internal/metrics"
	repo "stockengine/internal/repository"
)

// 管理者の商品登録と在庫操作
type InventoryUsecase struct {
	tx       repo.TransactionManager
	notifier *BackInStockUsecase
	cache    CacheInvalidator
	log      *slog.Logger
}

func NewInventoryUsecase(tx repo.TransactionManager, notifier *BackInStockUsecase, cache CacheInvalidator, log *slog.Logger) *InventoryUsecase {
	return &InventoryUsecase{tx: tx, notifier: notifier, cache: cache, log: log}
}

type AdminCreateVariantInput struct {
	Color            string `json:"color"`
	Size             string `json:"size"`
	Stock            int64  `json:"stock"`
	Price            int64  `json:"price"`
	MinOrderQuantity *int64 `json:"min_order_quantity"`
}

type AdminCreateProductInput struct {
	Name             string
	Price            int64
	MinOrderQuantity int64
	IsActive         bool
	//空ならstandardを1つ作る
	Variants []AdminCreateVariantInput
	//variantsが空のときのstandardの在庫
	Stock int64
}

type ProductOutput struct {
	Product  model.Product   `json:"product"`
	Variants []model.Variant `json:"variants"`
}

type StockChangeOutput struct {
	ProductID  int64  `json:"product_id"`
	VariantKey string `json:"variant_key"`
	Before     int64  `json:"before"`
	After      int64  `json:"after"`
	Delta      int64  `json:"delta"`
}

// 初期在庫＋ログの合計が現在庫と一致するか
type ConservationReport struct {
	ProductID    int64  `json:"product_id"`
	VariantKey   string `json:"variant_key"`
	InitialStock int64  `json:"initial_stock"`
	LoggedChange int64  `json:"logged_change"`
	Stock        int64  `json:"stock"`
	OK           bool   `json:"ok"`
}

func (u *InventoryUsecase) AdminCreateProduct(ctx context.Context, adminUserID int64, in AdminCreateProductInput) (ProductOutput, error) {
	if adminUserID <= 0 {
		return ProductOutput{}, NewHTTPError(http.StatusUnauthorized, "unauthorized")
	}
	name := strings.TrimSpace(in.Name)
	if name == "" {
		return ProductOutput{}, NewHTTPError(http.StatusBadRequest, "name required")
	}
	if in.Price < 0 {
		return ProductOutput{}, NewHTTPError(http.StatusBadRequest, "price must be >= 0")
	}
	if in.MinOrderQuantity < 0 {
		return ProductOutput{}, NewHTTPError(http.StatusBadRequest, "min_order_quantity must be >= 1")
	}
	if in.Stock < 0 {
		return ProductOutput{}, NewHTTPError(http.StatusBadRequest, "stock must be >= 0")
	}

	variants := make([]model.Variant, 0, len(in.Variants))
	keys := map[string]bool{}
	for _, vi := range in.Variants {
		if vi.Stock < 0 {
			return ProductOutput{}, NewHTTPError(http.StatusBadRequest, "stock must be >= 0")
		}
		if vi.MinOrderQuantity != nil && *vi.MinOrderQuantity < 1 {
			return ProductOutput{}, NewHTTPError(http.StatusBadRequest, "min_order_quantity must be >= 1")
		}
		key := model.NewVariantKey(vi.Color, vi.Size)
		if keys[key] {
			return ProductOutput{}, NewHTTPError(http.StatusBadRequest, "duplicate variant")
		}
		keys[key] = true
		price := vi.Price
		if price <= 0 {
			price = in.Price
		}
		variants = append(variants, model.Variant{
			VariantKey:       key,
			Color:            strings.TrimSpace(vi.Color),
			Size:             strings.TrimSpace(vi.Size),
			Stock:            vi.Stock,
			Price:            price,
			MinOrderQuantity: vi.MinOrderQuantity,
		})
	}
	if len(variants) == 0 {
		variants = append(variants, model.Variant{
			VariantKey: model.StandardVariantKey,
			Stock:      in.Stock,
			Price:      in.Price,
		})
	}

	var out ProductOutput
	err := u.tx.WithinTx(ctx, func(r repo.TxRepos) error {
		p, err := r.Products().Create(ctx, model.Product{
			Name:             name,
			Price:            in.Price,
			MinOrderQuantity: in.MinOrderQuantity,
			IsActive:         in.IsActive,
		}, variants)
		if err != nil {
			return err
		}
		vs, err := r.Inventory().ListVariants(ctx, p.ID)
		if err != nil {
			return err
		}
		out = ProductOutput{Product: p, Variants: vs}

		return r.AuditLogs().Create(ctx, model.AuditLog{
			ActorUserID:  adminUserID,
			Action:       model.AuditActionCreateProduct,
			ResourceType: model.AuditResourceProduct,
			ResourceID:   p.ID,
			BeforeJSON:   "{}",
			AfterJSON:    auditJSON(map[string]any{"name": p.Name, "variants": len(vs)}),
			CreatedAt:    time.Now(),
		})
	})
	if err != nil {
		return ProductOutput{}, toHTTPError(err)
	}
	return out, nil
}

// 在庫の直接上書き。増えればRESTOCK、減ればADJUSTMENTを記録し、
// 増えたときは再入荷通知を流す
func (u *InventoryUsecase) SetStock(ctx context.Context, adminUserID int64, productID int64, variantKey string, value int64, note string) (StockChangeOutput, error) {
	if adminUserID <= 0 {
		return StockChangeOutput{}, NewHTTPError(http.StatusUnauthorized, "unauthorized")
	}
	if productID <= 0 {
		return StockChangeOutput{}, NewHTTPError(http.StatusBadRequest, "invalid product id")
	}
	if value < 0 {
		return StockChangeOutput{}, NewHTTPError(http.StatusBadRequest, "stock must be >= 0")
	}
	key := model.NormalizeVariantKey(variantKey)

	out := StockChangeOutput{ProductID: productID, VariantKey: key}
	err := u.tx.WithinTx(ctx, func(r repo.TxRepos) error {
		delta, newStock, err := r.Inventory().SetAbsolute(ctx, productID, key, value)
		if err != nil {
			return err
		}
		out.Before, out.After, out.Delta = newStock-delta, newStock, delta
		if delta == 0 {
			return nil
		}

		reason := model.InventoryReasonRestock
		if delta < 0 {
			reason = model.InventoryReasonAdjustment
		}
		return u.record(ctx, r, adminUserID, out, reason, note)
	})
	if err != nil {
		return StockChangeOutput{}, toHTTPError(err)
	}

	u.afterChange(ctx, out)
	return out, nil
}

// 入荷（差分で加算）
func (u *InventoryUsecase) Restock(ctx context.Context, adminUserID int64, productID int64, variantKey string, qty int64, note string) (StockChangeOutput, error) {
	if adminUserID <= 0 {
		return StockChangeOutput{}, NewHTTPError(http.StatusUnauthorized, "unauthorized")
	}
	if productID <= 0 {
		return StockChangeOutput{}, NewHTTPError(http.StatusBadRequest, "invalid product id")
	}
	if qty <= 0 {
		return StockChangeOutput{}, NewHTTPError(http.StatusBadRequest, "invalid quantity")
	}
	key := model.NormalizeVariantKey(variantKey)

	out := StockChangeOutput{ProductID: productID, VariantKey: key, Delta: qty}
	err := u.tx.WithinTx(ctx, func(r repo.TxRepos) error {
		newStock, err := r.Inventory().Increase(ctx, productID, key, qty)
		if err != nil {
			return err
		}
		out.Before, out.After = newStock-qty, newStock
		return u.record(ctx, r, adminUserID, out, model.InventoryReasonRestock, note)
	})
	if err != nil {
		return StockChangeOutput{}, toHTTPError(err)
	}

	u.afterChange(ctx, out)
	return out, nil
}

// 在庫ログと監査ログを同じtxで残す
func (u *InventoryUsecase) record(ctx context.Context, r repo.TxRepos, adminUserID int64, c StockChangeOutput, reason model.InventoryReason, note string) error {
	if err := r.InventoryLogs().Append(ctx, model.InventoryLog{
		ProductID:   c.ProductID,
		VariantKey:  c.VariantKey,
		Change:      c.Delta,
		Reason:      reason,
		PerformedBy: model.AdminActor(adminUserID),
		CreatedAt:   time.Now(),
	}); err != nil {
		return err
	}

	v, err := r.Inventory().FindVariant(ctx, c.ProductID, c.VariantKey)
	if err != nil {
		return err
	}
	after := map[string]any{"variant_key": c.VariantKey, "stock": c.After, "reason": reason}
	if n := strings.TrimSpace(note); n != "" {
		after["note"] = n
	}
	return r.AuditLogs().Create(ctx, model.AuditLog{
		ActorUserID:  adminUserID,
		Action:       model.AuditActionUpdateStock,
		ResourceType: model.AuditResourceVariant,
		ResourceID:   v.ID,
		BeforeJSON:   auditJSON(map[string]any{"variant_key": c.VariantKey, "stock": c.Before}),
		AfterJSON:    auditJSON(after),
		CreatedAt:    time.Now(),
	})
}

func (u *InventoryUsecase) afterChange(ctx context.Context, c StockChangeOutput) {
	if c.Delta == 0 {
		return
	}
	reason := model.InventoryReasonRestock
	if c.Delta < 0 {
		reason = model.InventoryReasonAdjustment
		metrics.StockChanges.WithLabelValues(string(reason)).Add(float64(-c.Delta))
	} else {
		metrics.StockChanges.WithLabelValues(string(reason)).Add(float64(c.Delta))
	}
	u.log.InfoContext(ctx, "stock updated",
		"product_id", c.ProductID, "variant", c.VariantKey, "before", c.Before, "after", c.After, "reason", reason)

	u.cache.Invalidate(ctx, productPath(c.ProductID))
	if c.Delta > 0 {
		u.notifier.AfterRestock(ctx, []VariantRef{{ProductID: c.ProductID, VariantKey: c.VariantKey}})
	}
}

func (u *InventoryUsecase) RecentLogs(ctx context.Context, productID int64, limit int) ([]model.InventoryLog, error) {
	if productID <= 0 {
		return []model.InventoryLog{}, NewHTTPError(http.StatusBadRequest, "invalid product id")
	}
	if limit < 0 || limit > 200 {
		return []model.InventoryLog{}, NewHTTPError(http.StatusBadRequest, "invalid limit")
	}

	var logs []model.InventoryLog
	err := u.tx.WithinTx(ctx, func(r repo.TxRepos) error {
		if _, err := r.Products().FindByID(ctx, productID); err != nil {
			return err
		}
		var err error
		logs, err = r.InventoryLogs().Recent(ctx, productID, limit)
		return err
	})
	if err != nil {
		return []model.InventoryLog{}, toHTTPError(err)
	}
	return logs, nil
}

// 商品の全バリアントで initial_stock + Σchange == stock を確かめる
func (u *InventoryUsecase) VerifyConservation(ctx context.Context, productID int64) ([]ConservationReport, error) {
	if productID <= 0 {
		return []ConservationReport{}, NewHTTPError(http.StatusBadRequest, "invalid product id")
	}

	var reports []ConservationReport
	err := u.tx.WithinTx(ctx, func(r repo.TxRepos) error {
		if _, err := r.Products().FindByID(ctx, productID); err != nil {
			return err
		}
		vs, err := r.Inventory().ListVariants(ctx, productID)
		if err != nil {
			return err
		}
		reports = make([]ConservationReport, 0, len(vs))
		for _, v := range vs {
			sum, err := r.InventoryLogs().SumChanges(ctx, productID, v.VariantKey)
			if err != nil {
				return err
			}
			reports = append(reports, ConservationReport{
				ProductID:    productID,
				VariantKey:   v.VariantKey,
				InitialStock: v.InitialStock,
				LoggedChange: sum,
				Stock:        v.Stock,
				OK:           v.InitialStock+sum == v.Stock,
			})
		}
		return nil
	})
	if err != nil {
		return []ConservationReport{}, toHTTPError(err)
	}

	for _, rep := range reports {
		if !rep.OK {
			u.log.WarnContext(ctx, "inventory log mismatch",
				"product_id", rep.ProductID, "variant", rep.VariantKey,
				"initial", rep.InitialStock, "logged", rep.LoggedChange, "stock", rep.Stock)
		}
	}
	return reports, nil
}
