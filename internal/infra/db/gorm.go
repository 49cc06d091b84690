package db

import (
	"fmt"
	"os"
	"time"

	"stockengine/internal/domain/model"

	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// Connect はDBに接続して *gorm.DB を返す。
// DB_DRIVER=sqlite ならDATABASE_URLをファイルパスとして使う
func Connect() (*gorm.DB, error) {
	driver := getenv("DB_DRIVER", "postgres")
	dsn := os.Getenv("DATABASE_URL")

	switch driver {
	case "sqlite":
		if dsn == "" {
			dsn = "stockengine.db?_busy_timeout=5000"
		}
		gdb, err := Open(sqlite.Open(dsn))
		if err != nil {
			return nil, err
		}
		//sqliteは書き込みが1本なので接続も1本
		if sqlDB, err := gdb.DB(); err == nil {
			sqlDB.SetMaxOpenConns(1)
		}
		return gdb, nil
	case "postgres":
		if dsn == "" {
			dsn = postgresDSN()
		}
		return Open(postgres.Open(dsn))
	default:
		return nil, fmt.Errorf("unsupported DB_DRIVER %q (postgres, sqlite)", driver)
	}
}

// Open は共通設定で開く。重複キーはgorm.ErrDuplicatedKeyに変換する
func Open(dialector gorm.Dialector) (*gorm.DB, error) {
	gdb, err := gorm.Open(dialector, &gorm.Config{
		TranslateError: true,
		Logger:         logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		return nil, fmt.Errorf("db: open: %w", err)
	}

	sqlDB, err := gdb.DB()
	if err != nil {
		return nil, fmt.Errorf("db: get sql.DB: %w", err)
	}
	sqlDB.SetMaxOpenConns(25)
	sqlDB.SetMaxIdleConns(10)
	sqlDB.SetConnMaxLifetime(5 * time.Minute)

	return gdb, nil
}

// テスト用のインメモリsqlite。nameごとに別DB、接続1本に固定する
func OpenMemory(name string) (*gorm.DB, error) {
	gdb, err := Open(sqlite.Open("file:" + name + "?mode=memory&cache=shared&_busy_timeout=5000"))
	if err != nil {
		return nil, err
	}
	sqlDB, err := gdb.DB()
	if err != nil {
		return nil, err
	}
	sqlDB.SetMaxOpenConns(1)
	sqlDB.SetConnMaxLifetime(0)
	return gdb, nil
}

func Migrate(gdb *gorm.DB) error {
	return gdb.AutoMigrate(
		&model.Product{},
		&model.Variant{},
		&model.Order{},
		&model.OrderItem{},
		&model.InventoryLog{},
		&model.AuditLog{},
		&model.WaitlistEntry{},
		&model.CustomerLoyalty{},
		&model.GiftDefinition{},
		&model.GiftAward{},
	)
}

func postgresDSN() string {
	host := getenv("POSTGRES_HOST", "localhost")
	port := getenv("POSTGRES_PORT", "5432")
	user := getenv("POSTGRES_USER", "postgres")
	pass := getenv("POSTGRES_PASSWORD", "postgres")
	name := getenv("POSTGRES_DB", "app")
	ssl := getenv("POSTGRES_SSLMODE", "disable")

	return fmt.Sprintf(
		"host=%s port=%s user=%s password=%s dbname=%s sslmode=%s",
		host, port, user, pass, name, ssl,
	)
}

func getenv(key string, def string) string {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	return v
}
