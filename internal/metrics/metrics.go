// Package metrics は在庫エンジンのPrometheusメトリクス。
// /metrics はserverで公開する
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// 在庫変動（reason別の数量）
	StockChanges = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "stockengine",
			Subsystem: "inventory",
			Name:      "stock_changes_total",
			Help:      "Units moved through the stock ledger, by reason.",
		},
		[]string{"reason"},
	)

	InsufficientStock = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: "stockengine",
			Subsystem: "inventory",
			Name:      "insufficient_stock_total",
			Help:      "Decrements rejected because stock was too low.",
		},
	)

	// 注文の在庫処理結果（PROCESSED / FAILED / SKIPPED）
	OrdersProcessed = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "stockengine",
			Subsystem: "orders",
			Name:      "stock_processed_total",
			Help:      "Order stock processing outcomes.",
		},
		[]string{"status"},
	)

	LowStockAlerts = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: "stockengine",
			Subsystem: "watcher",
			Name:      "low_stock_alerts_total",
			Help:      "Low stock alerts emitted.",
		},
	)

	// 送信結果（sent / failed）
	Notifications = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "stockengine",
			Subsystem: "mail",
			Name:      "notifications_total",
			Help:      "Mail notifications by kind and result.",
		},
		[]string{"kind", "result"},
	)

	GiftRolls = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "stockengine",
			Subsystem: "gifts",
			Name:      "rolls_total",
			Help:      "Gift rolls by outcome (won / none).",
		},
		[]string{"outcome"},
	)

	ProcessDuration = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: "stockengine",
			Subsystem: "orders",
			Name:      "stock_process_duration_seconds",
			Help:      "Time spent processing stock for one order.",
			Buckets:   prometheus.DefBuckets,
		},
	)
)

var registry = prometheus.NewRegistry()

func init() {
	registry.MustRegister(
		StockChanges,
		InsufficientStock,
		OrdersProcessed,
		LowStockAlerts,
		Notifications,
		GiftRolls,
		ProcessDuration,
	)
}

func Handler() http.Handler {
	return promhttp.HandlerFor(registry, promhttp.HandlerOpts{})
}
