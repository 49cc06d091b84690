package usecase

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"stockengine/internal/domain/model"
	"stockengine/internal/metrics"
	repo "stockengine/internal/repository"
)

// 在庫不足の明細があり、注文全体をロールバックした
var errStockShortage = errors.New("stock shortage")

type StockItemResult struct {
	ProductID  int64  `json:"product_id"`
	VariantKey string `json:"variant_key"`
	Quantity   int64  `json:"quantity"`
	NewStock   int64  `json:"new_stock"`
	OK         bool   `json:"ok"`
	Error      string `json:"error,omitempty"`
}

// FAILEDのときItemsのOKは「試行では減算できた」の意味で、DBには残っていない
type StockProcessResult struct {
	OrderID int64                   `json:"order_id"`
	Status  model.StockProcessState `json:"status"`
	Items   []StockItemResult       `json:"items"`
	Error   string                  `json:"error,omitempty"`
}

// 注文の在庫減算。1注文の減算は1トランザクションで、全部成功か全部なしか
type OrderStockUsecase struct {
	tx      repo.TransactionManager
	watcher *LowStockWatcher
	cache   CacheInvalidator
	log     *slog.Logger
}

func NewOrderStockUsecase(tx repo.TransactionManager, watcher *LowStockWatcher, cache CacheInvalidator, log *slog.Logger) *OrderStockUsecase {
	return &OrderStockUsecase{tx: tx, watcher: watcher, cache: cache, log: log}
}

// stock_processed済みなら何もしない（SKIPPED）
func (u *OrderStockUsecase) Process(ctx context.Context, orderID int64) (StockProcessResult, error) {
	if orderID <= 0 {
		return StockProcessResult{}, NewHTTPError(400, "invalid id")
	}

	start := time.Now()
	defer func() { metrics.ProcessDuration.Observe(time.Since(start).Seconds()) }()

	res := StockProcessResult{OrderID: orderID, Status: model.StockProcessing}
	var alerts []LowStockAlert

	err := u.tx.WithinTx(ctx, func(r repo.TxRepos) error {
		o, err := r.Orders().FindByID(ctx, orderID)
		if err != nil {
			return err
		}
		if o.StockProcessed {
			res.Status = model.StockSkipped
			return nil
		}
		if o.Status.IsTerminal() {
			return NewHTTPError(http.StatusConflict, "order cancelled")
		}

		items, err := r.OrderItems().ListByOrderID(ctx, orderID)
		if err != nil {
			return err
		}

		out, err := u.applyOrder(ctx, r, o, items)
		res.Items = out.items
		if err != nil {
			return err
		}
		alerts = out.alerts
		return nil
	})

	switch {
	case err == nil:
		if res.Status != model.StockSkipped {
			res.Status = model.StockProcessed
		}
	case errors.Is(err, errStockShortage):
		res.Status = model.StockFailed
		res.Error = "out of stock"
		metrics.OrdersProcessed.WithLabelValues(string(res.Status)).Inc()
		u.log.WarnContext(ctx, "order stock processing failed", "order_id", orderID, "reason", "out of stock")
		return res, nil
	default:
		res.Status = model.StockFailed
		he, _ := AsHTTPError(toHTTPError(err))
		res.Error = he.Message
		metrics.OrdersProcessed.WithLabelValues(string(res.Status)).Inc()
		u.log.ErrorContext(ctx, "order stock processing error", "order_id", orderID, "error", err)
		return res, he
	}

	metrics.OrdersProcessed.WithLabelValues(string(res.Status)).Inc()
	if res.Status == model.StockProcessed {
		u.afterCommit(ctx, res.Items, alerts)
		u.log.InfoContext(ctx, "order stock processed", "order_id", orderID, "items", len(res.Items))
	}
	return res, nil
}

type applyOutput struct {
	items  []StockItemResult
	alerts []LowStockAlert
}

// トランザクション内で全明細を減算する。PlaceOrderからも使う。
// 不足があっても残りの明細は試し、最後にerrStockShortageを返す
func (u *OrderStockUsecase) applyOrder(ctx context.Context, r repo.TxRepos, o model.Order, items []model.OrderItem) (applyOutput, error) {
	out := applyOutput{items: make([]StockItemResult, 0, len(items))}
	shortage := false
	actor := model.OrderActor(o.ID)

	for _, it := range items {
		ir := StockItemResult{
			ProductID:  it.ProductID,
			VariantKey: model.NormalizeVariantKey(it.VariantKey),
			Quantity:   it.Quantity,
		}

		newStock, err := r.Inventory().Decrement(ctx, it.ProductID, it.VariantKey, it.Quantity)
		if errors.Is(err, repo.ErrInsufficientStock) {
			metrics.InsufficientStock.Inc()
			ir.Error = "insufficient stock"
			out.items = append(out.items, ir)
			shortage = true
			continue
		}
		if err != nil {
			ir.Error = err.Error()
			out.items = append(out.items, ir)
			return out, err
		}
		ir.OK = true
		ir.NewStock = newStock

		if err := r.InventoryLogs().Append(ctx, model.InventoryLog{
			ProductID:   it.ProductID,
			VariantKey:  it.VariantKey,
			Change:      -it.Quantity,
			Reason:      model.InventoryReasonSale,
			PerformedBy: actor,
			CreatedAt:   time.Now(),
		}); err != nil {
			return out, err
		}

		//減算のたびに閾値チェック
		p, err := r.Products().FindByID(ctx, it.ProductID)
		if err != nil {
			return out, err
		}
		v, err := r.Inventory().FindVariant(ctx, it.ProductID, it.VariantKey)
		if err != nil {
			return out, err
		}
		if a, low := u.watcher.Check(p, v, newStock); low {
			out.alerts = append(out.alerts, a)
		}

		out.items = append(out.items, ir)
	}

	if shortage {
		return out, errStockShortage
	}

	//全明細を試した後で処理済みにする
	ok, err := r.Orders().MarkStockProcessed(ctx, o.ID)
	if err != nil {
		return out, err
	}
	if !ok {
		//同時に別の処理が先に終わった
		return out, repo.ErrConflict
	}
	if o.Status == model.OrderStatusPending {
		if _, err := r.Orders().UpdateStatusIfCurrent(ctx, o.ID, model.OrderStatusPending, model.OrderStatusProcessing); err != nil {
			return out, err
		}
	}

	for _, ir := range out.items {
		metrics.StockChanges.WithLabelValues(string(model.InventoryReasonSale)).Add(float64(ir.Quantity))
	}
	return out, nil
}

// コミット後の副作用（アラート・キャッシュ）
func (u *OrderStockUsecase) afterCommit(ctx context.Context, items []StockItemResult, alerts []LowStockAlert) {
	u.watcher.Dispatch(ctx, alerts)

	seen := map[int64]bool{}
	paths := make([]string, 0, len(items))
	for _, it := range items {
		if seen[it.ProductID] {
			continue
		}
		seen[it.ProductID] = true
		paths = append(paths, productPath(it.ProductID))
	}
	u.cache.Invalidate(ctx, paths...)
}
