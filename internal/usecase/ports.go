package usecase

import (
	"context"
	"math/rand/v2"
	"time"
)

// 管理者向けの在庫少アラート
type LowStockAlert struct {
	ProductID   int64
	ProductName string
	VariantKey  string
	Stock       int64
	MOQ         int64
	Threshold   int64
}

// 再入荷通知メール
type BackInStockMail struct {
	Email       string
	ProductID   int64
	ProductName string
	VariantKey  string
}

// メール送信。失敗は呼び出し側でログに残すだけ
type Mailer interface {
	SendLowStockAlert(ctx context.Context, a LowStockAlert) error
	SendBackInStockEmail(ctx context.Context, m BackInStockMail) error
}

// 画面キャッシュの無効化。戻り値なし
type CacheInvalidator interface {
	Invalidate(ctx context.Context, paths ...string)
}

type Clock interface {
	Now() time.Time
}

type SystemClock struct{}

func (SystemClock) Now() time.Time { return time.Now() }

// [0,1)の乱数
type Roller interface {
	Float64() float64
}

type defaultRoller struct{}

func (defaultRoller) Float64() float64 { return rand.Float64() }

func productPath(productID int64) string {
	return "/products/" + itoa(productID)
}

// 在庫が戻ったバリアント
type VariantRef struct {
	ProductID  int64
	VariantKey string
}

func invalidatePaths(refs []VariantRef) []string {
	seen := map[int64]bool{}
	paths := make([]string, 0, len(refs))
	for _, r := range refs {
		if seen[r.ProductID] {
			continue
		}
		seen[r.ProductID] = true
		paths = append(paths, productPath(r.ProductID))
	}
	return paths
}
