// Package testutil 提供测试共用的数据库夹具。
package testutil

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
	"taskhub-go/internal/repository"
	"taskhub-go/pkg/database"
)

// NewDB 打开一个独立的内存 SQLite 数据库，完成建表与种子数据。
func NewDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := database.Open("sqlite", "file::memory:")
	require.NoError(t, err)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	// 内存库只存在于单个连接上
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })

	require.NoError(t, repository.AutoMigrate(db))
	require.NoError(t, repository.SeedTaskStatuses(context.Background(), db))
	return db
}
