// Package app はapiとstockctlで共通の組み立て。
package app

import (
	"context"
	"log/slog"

	"stockengine/internal/config"
	"stockengine/internal/infra/cache"
	"stockengine/internal/infra/db"
	"stockengine/internal/infra/mail"
	infraRepo "stockengine/internal/infra/repository"
	"stockengine/internal/usecase"

	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

type App struct {
	DB *gorm.DB

	Orders      *usecase.OrderUsecase
	OrderStock  *usecase.OrderStockUsecase
	AdminOrders *usecase.AdminOrderUsecase
	Inventory   *usecase.InventoryUsecase
	BackInStock *usecase.BackInStockUsecase
	Loyalty     *usecase.LoyaltyUsecase
	Gifts       *usecase.GiftUsecase

	redis *redis.Client
}

// DB接続、マイグレーション、usecaseの生成まで
func New(ctx context.Context, cfg config.Config, log *slog.Logger) (*App, error) {
	gormDB, err := db.Connect()
	if err != nil {
		return nil, err
	}
	if err := db.Migrate(gormDB); err != nil {
		return nil, err
	}

	var (
		inv usecase.CacheInvalidator
		rdb *redis.Client
	)
	if cfg.RedisAddr != "" {
		rdb = redis.NewClient(&redis.Options{Addr: cfg.RedisAddr})
		//つながらなくても起動はする（無効化は送れないだけ）
		if err := rdb.Ping(ctx).Err(); err != nil {
			log.WarnContext(ctx, "redis unreachable, cache invalidation degraded", "addr", cfg.RedisAddr, "error", err)
		}
		inv = cache.NewRedisInvalidator(rdb, log)
	}

	a := Wire(gormDB, cfg, log, newMailer(cfg, log), inv)
	a.redis = rdb
	return a, nil
}

// 部品を差し込んで組み立てる。invがnilならキャッシュ無効化なし
func Wire(gormDB *gorm.DB, cfg config.Config, log *slog.Logger, mailer usecase.Mailer, inv usecase.CacheInvalidator) *App {
	if inv == nil {
		inv = cache.NoopInvalidator{}
	}
	tx := infraRepo.NewTxManagerGorm(gormDB)

	watcher := usecase.NewLowStockWatcher(mailer, log)
	stock := usecase.NewOrderStockUsecase(tx, watcher, inv, log)
	notifier := usecase.NewBackInStockUsecase(tx, mailer, log)
	loyalty := usecase.NewLoyaltyUsecase(tx, cfg.VIPThreshold, log)

	return &App{
		DB:          gormDB,
		Orders:      usecase.NewOrderUsecase(tx, stock, log),
		OrderStock:  stock,
		AdminOrders: usecase.NewAdminOrderUsecase(tx, loyalty, notifier, inv, log),
		Inventory:   usecase.NewInventoryUsecase(tx, notifier, inv, log),
		BackInStock: notifier,
		Loyalty:     loyalty,
		Gifts:       usecase.NewGiftUsecase(tx, log),
	}
}

func (a *App) Close() error {
	if a.redis != nil {
		_ = a.redis.Close()
	}
	sqlDB, err := a.DB.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

// SMTPの認証情報がなければログに出すだけ
func newMailer(cfg config.Config, log *slog.Logger) usecase.Mailer {
	if cfg.MailUsername == "" {
		return mail.NewLogMailer(log)
	}
	return mail.NewSMTPMailer(mail.SMTPConfig{
		Host:     cfg.MailHost,
		Port:     cfg.MailPort,
		Username: cfg.MailUsername,
		Password: cfg.MailPassword,
		From:     cfg.MailFrom,
	}, cfg.AdminEmail, cfg.StoreURL)
}
