package usecase

import (
	"context"
	"log/slog"

	"stockengine/internal/domain/model"
	"stockengine/internal/metrics"
)

// threshold = MOQ * 2。0 < stock <= threshold ならアラート
func EvaluateLowStock(stock, moq int64) (bool, int64) {
	if moq < 1 {
		moq = 1
	}
	threshold := moq * 2
	return stock > 0 && stock <= threshold, threshold
}

// 減算のたびに呼ばれる。呼び出しをまたいだ重複抑止はしない
// （閾値以下で減り続ける間は毎回アラートが出る）
type LowStockWatcher struct {
	mailer Mailer
	log    *slog.Logger
}

func NewLowStockWatcher(mailer Mailer, log *slog.Logger) *LowStockWatcher {
	return &LowStockWatcher{mailer: mailer, log: log}
}

// 判定だけ。送信はDispatchで
func (w *LowStockWatcher) Check(p model.Product, v model.Variant, stock int64) (LowStockAlert, bool) {
	moq := v.EffectiveMOQ(p)
	low, threshold := EvaluateLowStock(stock, moq)
	if !low {
		return LowStockAlert{}, false
	}
	return LowStockAlert{
		ProductID:   p.ID,
		ProductName: p.Name,
		VariantKey:  v.VariantKey,
		Stock:       stock,
		MOQ:         moq,
		Threshold:   threshold,
	}, true
}

// コミット後に送る。失敗はログのみ
func (w *LowStockWatcher) Dispatch(ctx context.Context, alerts []LowStockAlert) {
	for _, a := range alerts {
		metrics.LowStockAlerts.Inc()
		if err := w.mailer.SendLowStockAlert(ctx, a); err != nil {
			metrics.Notifications.WithLabelValues("low_stock", "failed").Inc()
			w.log.WarnContext(ctx, "low stock alert failed",
				"product_id", a.ProductID, "variant", a.VariantKey, "stock", a.Stock, "error", err)
			continue
		}
		metrics.Notifications.WithLabelValues("low_stock", "sent").Inc()
		w.log.InfoContext(ctx, "low stock alert sent",
			"product_id", a.ProductID, "variant", a.VariantKey, "stock", a.Stock, "threshold", a.Threshold)
	}
}
