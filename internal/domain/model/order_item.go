package model

import "time"

// 注文明細。商品名と単価は注文時点の値を持つ。
// 在庫の戻し先は(product_id, variant_key)
type OrderItem struct {
	ID                  int64     `gorm:"primaryKey;autoIncrement" json:"id"`
	OrderID             int64     `gorm:"not null;index" json:"order_id"`
	ProductID           int64     `gorm:"not null;index:idx_order_item_variant" json:"product_id"`
	VariantKey          string    `gorm:"type:varchar(255);not null;index:idx_order_item_variant" json:"variant_key"`
	ProductNameSnapshot string    `gorm:"type:varchar(255);not null" json:"product_name_snapshot"`
	UnitPrice           int64     `gorm:"not null" json:"unit_price"`
	Quantity            int64     `gorm:"not null" json:"quantity"`
	CreatedAt           time.Time `gorm:"not null;autoCreateTime" json:"created_at"`
}

func (it OrderItem) LineTotal() int64 {
	return it.UnitPrice * it.Quantity
}
