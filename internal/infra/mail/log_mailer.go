package mail

import (
	"context"
	"log/slog"

	"stockengine/internal/usecase"
)

// SMTP未設定の開発環境用。送信内容をログに出すだけ
type LogMailer struct {
	log *slog.Logger
}

func NewLogMailer(log *slog.Logger) *LogMailer {
	return &LogMailer{log: log}
}

func (m *LogMailer) SendLowStockAlert(ctx context.Context, a usecase.LowStockAlert) error {
	m.log.InfoContext(ctx, "low stock alert (mail disabled)",
		"product", a.ProductName, "variant", a.VariantKey, "stock", a.Stock, "moq", a.MOQ)
	return nil
}

func (m *LogMailer) SendBackInStockEmail(ctx context.Context, n usecase.BackInStockMail) error {
	m.log.InfoContext(ctx, "back in stock mail (mail disabled)",
		"email", n.Email, "product_id", n.ProductID, "variant", n.VariantKey)
	return nil
}
