package model

import "time"

type WaitlistStatus string

const (
	WaitlistStatusPending  WaitlistStatus = "PENDING"
	WaitlistStatusNotified WaitlistStatus = "NOTIFIED"
)

// 再入荷通知の申し込み（Notify Me）。
// PENDING -> NOTIFIED は一度だけ、戻らない
type WaitlistEntry struct {
	ID         int64          `gorm:"primaryKey;autoIncrement" json:"id"`
	Email      string         `gorm:"type:varchar(255);not null;index" json:"email"`
	ProductID  int64          `gorm:"not null;index:idx_waitlist_variant" json:"product_id"`
	VariantKey string         `gorm:"type:varchar(255);not null;index:idx_waitlist_variant" json:"variant_key"`
	Status     WaitlistStatus `gorm:"type:varchar(20);not null;index" json:"status"`
	//送信中の占有トークン（空なら未占有）
	ClaimToken string     `gorm:"type:varchar(64);not null;default:''" json:"-"`
	ClaimedAt  *time.Time `json:"-"`
	NotifiedAt *time.Time `json:"notified_at,omitempty"`
	CreatedAt  time.Time  `gorm:"not null;autoCreateTime" json:"created_at"`
	UpdatedAt  time.Time  `gorm:"not null;autoUpdateTime" json:"updated_at"`
}
