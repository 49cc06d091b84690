package repository

import (
	"context"
	"strings"
	"testing"

	"stockengine/internal/domain/model"
	"stockengine/internal/infra/db"

	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	gdb, err := db.OpenMemory(strings.ReplaceAll(t.Name(), "/", "_"))
	require.NoError(t, err)
	require.NoError(t, db.Migrate(gdb))
	t.Cleanup(func() {
		if sqlDB, err := gdb.DB(); err == nil {
			_ = sqlDB.Close()
		}
	})
	return gdb
}

// gold/sのバリアントを1つ持つ商品
func seedProduct(t *testing.T, gdb *gorm.DB, moq int64, stock int64) model.Product {
	t.Helper()
	p, err := NewProductGormRepository(gdb).Create(context.Background(), model.Product{
		Name:             "Gold chain",
		Price:            100,
		MinOrderQuantity: moq,
		IsActive:         true,
	}, []model.Variant{{Color: "Gold", Size: "S", Stock: stock, Price: 100}})
	require.NoError(t, err)
	return p
}
