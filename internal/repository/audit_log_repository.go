package repository

import (
	"context"
	"time"

	"stockengine/internal/domain/model"
)

// 監査ログの検索条件。ゼロ値の項目は絞り込まない
type AuditQuery struct {
	ResourceType model.AuditResourceType
	ResourceID   int64
	Actions      []model.AuditAction
	ActorUserID  int64
	Since        time.Time
	Limit        int
}

// 管理者操作の記録。在庫ログと同じく追記のみ
type AuditLogRepository interface {
	Create(ctx context.Context, log model.AuditLog) error
	// 新しい順
	List(ctx context.Context, q AuditQuery) ([]model.AuditLog, error)
}
