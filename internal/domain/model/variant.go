package model

import (
	"strings"
	"time"
)

// バリエーションなし商品の暗黙バリアントのキー
const StandardVariantKey = "standard"

// 色×サイズの購入単位（SKU）。
// 在庫（stock）を書き換えてよいのは在庫リポジトリだけ。
type Variant struct {
	ID         int64  `gorm:"primaryKey;autoIncrement" json:"id"`
	ProductID  int64  `gorm:"not null;uniqueIndex:idx_variant_product_key" json:"product_id"`
	VariantKey string `gorm:"type:varchar(255);not null;uniqueIndex:idx_variant_product_key" json:"variant_key"`
	Color      string `gorm:"type:varchar(100)" json:"color"`
	Size       string `gorm:"type:varchar(100)" json:"size"`
	Stock      int64  `gorm:"not null;default:0" json:"stock"`
	//作成時点の在庫。監査ログとの突き合わせに使う
	InitialStock int64 `gorm:"not null;default:0" json:"initial_stock"`
	//nilなら商品のMOQを使う
	MinOrderQuantity *int64    `json:"min_order_quantity,omitempty"`
	Price            int64     `gorm:"not null" json:"price"`
	CreatedAt        time.Time `gorm:"not null;autoCreateTime" json:"created_at"`
	UpdatedAt        time.Time `gorm:"not null;autoUpdateTime" json:"updated_at"`
}

// バリアント側のMOQ、なければ商品側
func (v Variant) EffectiveMOQ(p Product) int64 {
	if v.MinOrderQuantity != nil && *v.MinOrderQuantity >= 1 {
		return *v.MinOrderQuantity
	}
	return p.MOQ()
}

// color/sizeからキーを作る。両方空ならstandard
func NewVariantKey(color, size string) string {
	c := strings.ToLower(strings.TrimSpace(color))
	s := strings.ToLower(strings.TrimSpace(size))
	if c == "" && s == "" {
		return StandardVariantKey
	}
	return c + "/" + s
}

// 空キーはstandard扱い
func NormalizeVariantKey(key string) string {
	k := strings.ToLower(strings.TrimSpace(key))
	if k == "" {
		return StandardVariantKey
	}
	return k
}
