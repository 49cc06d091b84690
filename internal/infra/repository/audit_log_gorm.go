package repository

import (
	"context"
	"fmt"

	"stockengine/internal/domain/model"
	repo "stockengine/internal/repository"

	"gorm.io/gorm"
)

const (
	defaultAuditLimit = 50
	maxAuditLimit     = 200
)

type AuditLogGormRepository struct {
	db *gorm.DB
}

func NewAuditLogGormRepository(db *gorm.DB) *AuditLogGormRepository {
	return &AuditLogGormRepository{db: db}
}

func (r *AuditLogGormRepository) Create(ctx context.Context, log model.AuditLog) error {
	if log.BeforeJSON == "" {
		log.BeforeJSON = "{}"
	}
	if err := r.db.WithContext(ctx).Create(&log).Error; err != nil {
		return fmt.Errorf("create audit log (%s %s#%d): %w", log.Action, log.ResourceType, log.ResourceID, err)
	}
	return nil
}

func (r *AuditLogGormRepository) List(ctx context.Context, q repo.AuditQuery) ([]model.AuditLog, error) {
	limit := q.Limit
	if limit <= 0 || limit > maxAuditLimit {
		limit = defaultAuditLimit
	}

	var logs []model.AuditLog
	err := r.db.WithContext(ctx).
		Scopes(auditResource(q), auditActions(q.Actions), auditActorSince(q)).
		Order("id desc").
		Limit(limit).
		Find(&logs).Error
	if err != nil {
		return []model.AuditLog{}, fmt.Errorf("list audit logs: %w", err)
	}
	return logs, nil
}

func auditResource(q repo.AuditQuery) func(*gorm.DB) *gorm.DB {
	return func(db *gorm.DB) *gorm.DB {
		if q.ResourceType != "" {
			db = db.Where("resource_type = ?", q.ResourceType)
		}
		if q.ResourceID > 0 {
			db = db.Where("resource_id = ?", q.ResourceID)
		}
		return db
	}
}

func auditActions(actions []model.AuditAction) func(*gorm.DB) *gorm.DB {
	return func(db *gorm.DB) *gorm.DB {
		if len(actions) == 0 {
			return db
		}
		return db.Where("action IN ?", actions)
	}
}

func auditActorSince(q repo.AuditQuery) func(*gorm.DB) *gorm.DB {
	return func(db *gorm.DB) *gorm.DB {
		if q.ActorUserID > 0 {
			db = db.Where("actor_user_id = ?", q.ActorUserID)
		}
		if !q.Since.IsZero() {
			db = db.Where("created_at >= ?", q.Since)
		}
		return db
	}
}
