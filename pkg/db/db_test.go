package db

import (
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/wyfcoding/ecommerce/pkg/contextx"
	"github.com/wyfcoding/ecommerce/pkg/logger"
	"gorm.io/gorm"
)

type widget struct {
	ID   uint `gorm:"primaryKey"`
	Name string
}

func openTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	gdb, err := Open(Config{
		Driver:       "sqlite",
		DSN:          fmt.Sprintf("file:%s?mode=memory&cache=shared", t.Name()),
		MaxOpenConns: 1,
	}, logger.Discard())
	require.NoError(t, err)
	require.NoError(t, gdb.AutoMigrate(&widget{}))
	t.Cleanup(func() { _ = Close(gdb) })
	return gdb
}

func TestOpen_UnsupportedDriver(t *testing.T) {
	_, err := Open(Config{Driver: "oracle"}, logger.Discard())
	assert.Error(t, err)
}

func TestUnitOfWork_Commit(t *testing.T) {
	gdb := openTestDB(t)
	uow := NewUnitOfWork(gdb)

	ctx, tx, err := uow.Begin(context.Background())
	require.NoError(t, err)
	require.NotNil(t, contextx.GetTx(ctx))
	require.NoError(t, contextx.GetTx(ctx).Create(&widget{Name: "kept"}).Error)
	require.NoError(t, tx.Commit())

	var count int64
	require.NoError(t, gdb.Model(&widget{}).Count(&count).Error)
	assert.Equal(t, int64(1), count)
}

func TestUnitOfWork_Rollback(t *testing.T) {
	gdb := openTestDB(t)
	uow := NewUnitOfWork(gdb)

	ctx, tx, err := uow.Begin(context.Background())
	require.NoError(t, err)
	require.NoError(t, contextx.GetTx(ctx).Create(&widget{Name: "discarded"}).Error)
	require.NoError(t, tx.Rollback())
	assert.NoError(t, tx.Rollback(), "second rollback is a no-op")

	var count int64
	require.NoError(t, gdb.Model(&widget{}).Count(&count).Error)
	assert.Zero(t, count)
}
