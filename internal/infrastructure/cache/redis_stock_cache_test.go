package cache

import (
	"context"
	"testing"
	"time"

	"github.com/jhoicas/inventario-lotes/internal/application/inventory"
	"github.com/jhoicas/inventario-lotes/pkg/config"
	"github.com/stretchr/testify/assert"
)

func TestKey(t *testing.T) {
	assert.Equal(t, "stock:p-1:s-1", Key(inventory.StockKey{ProductID: "p-1", StoreID: "s-1"}))
}

func TestInvalidate_SinClavesNoLlamaARedis(t *testing.T) {
	c := NewRedisStockCache(config.RedisConfig{Addr: "127.0.0.1:1", StockTTL: time.Minute})
	defer c.Close()
	assert.NoError(t, c.Invalidate(context.Background()))
	assert.NoError(t, c.Set(context.Background(), inventory.StockKey{}, nil))
}

func TestGet_ErrorDeConexionNoEsMiss(t *testing.T) {
	c := NewRedisStockCache(config.RedisConfig{Addr: "127.0.0.1:1", StockTTL: time.Minute})
	defer c.Close()
	ctx, cancel := context.WithTimeout(context.Background(), 500*time.Millisecond)
	defer cancel()
	level, hit, err := c.Get(ctx, inventory.StockKey{ProductID: "p", StoreID: "s"})
	assert.Error(t, err)
	assert.False(t, hit)
	assert.Nil(t, level)
}
