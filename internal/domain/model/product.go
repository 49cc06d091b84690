package model

import (
	"time"

	"gorm.io/gorm"
)

type Product struct {
	ID   int64  `gorm:"primaryKey;autoIncrement" json:"id"`
	Name string `gorm:"type:varchar(255);not null" json:"name"`
	//最小注文数量（MOQ）。在庫アラートの閾値にも使う
	MinOrderQuantity int64          `gorm:"not null;default:1" json:"min_order_quantity"`
	Price            int64          `gorm:"not null" json:"price"`
	IsActive         bool           `gorm:"not null;default:false" json:"is_active"`
	CreatedAt        time.Time      `gorm:"not null;autoCreateTime" json:"created_at"`
	UpdatedAt        time.Time      `gorm:"not null;autoUpdateTime" json:"updated_at"`
	DeletedAt        gorm.DeletedAt `gorm:"index" json:"-"`
}

// MOQは1未満にならない
func (p Product) MOQ() int64 {
	if p.MinOrderQuantity < 1 {
		return 1
	}
	return p.MinOrderQuantity
}
