package model

import "time"

// 注文完了時の景品
type GiftDefinition struct {
	ID   int64  `gorm:"primaryKey;autoIncrement" json:"id"`
	Name string `gorm:"type:varchar(255);not null" json:"name"`
	//0〜100の抽選の取り分
	Probability float64   `gorm:"not null" json:"probability"`
	MinPurchase int64     `gorm:"not null;default:0" json:"min_purchase"`
	UsageCount  int64     `gorm:"not null;default:0" json:"usage_count"`
	IsActive    bool      `gorm:"not null;index" json:"is_active"`
	CreatedAt   time.Time `gorm:"not null;autoCreateTime" json:"created_at"`
	UpdatedAt   time.Time `gorm:"not null;autoUpdateTime" json:"updated_at"`
}

// 1注文1回まで
type GiftAward struct {
	ID        int64     `gorm:"primaryKey;autoIncrement" json:"id"`
	OrderID   int64     `gorm:"not null;uniqueIndex" json:"order_id"`
	GiftID    *int64    `json:"gift_id"`
	CreatedAt time.Time `gorm:"not null;autoCreateTime" json:"created_at"`
}
