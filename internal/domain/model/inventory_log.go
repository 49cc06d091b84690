package model

import (
	"strconv"
	"time"
)

type InventoryReason string

const (
	InventoryReasonSale    InventoryReason = "SALE"
	InventoryReasonRestock InventoryReason = "RESTOCK"
	InventoryReasonReturn  InventoryReason = "RETURN"
	//管理者による在庫の引き下げ
	InventoryReasonAdjustment InventoryReason = "ADJUSTMENT"
)

// 在庫変動の履歴。作成のみで更新・削除はしない。
// バリアントごとの change の合計 = 現在庫 - 初期在庫
type InventoryLog struct {
	ID         int64  `gorm:"primaryKey;autoIncrement" json:"id"`
	ProductID  int64  `gorm:"not null;index:idx_invlog_variant" json:"product_id"`
	VariantKey string `gorm:"type:varchar(255);not null;index:idx_invlog_variant" json:"variant_key"`
	//マイナス=出庫、プラス=入庫
	Change      int64           `gorm:"column:qty_change;not null" json:"change"`
	Reason      InventoryReason `gorm:"type:varchar(20);not null;index" json:"reason"`
	PerformedBy string          `gorm:"type:varchar(255);not null" json:"performed_by"`
	CreatedAt   time.Time       `gorm:"not null;index" json:"created_at"`
}

func AdminActor(adminUserID int64) string {
	return "admin:" + strconv.FormatInt(adminUserID, 10)
}
