package model

import "time"

// 累計購入額とVIPフラグ。DELIVEREDの注文から毎回集計し直す
type CustomerLoyalty struct {
	CustomerID int64     `gorm:"primaryKey;autoIncrement:false" json:"customer_id"`
	TotalSpent int64     `gorm:"not null;default:0" json:"total_spent"`
	IsVIP      bool      `gorm:"column:is_vip;not null;default:false" json:"is_vip"`
	UpdatedAt  time.Time `gorm:"not null" json:"updated_at"`
}

const DefaultVIPThreshold int64 = 10000

func IsVIP(totalSpent, threshold int64) bool {
	return totalSpent >= threshold
}
