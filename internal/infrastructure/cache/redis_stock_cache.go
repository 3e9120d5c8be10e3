package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/jhoicas/inventario-lotes/internal/application/inventory"
	"github.com/jhoicas/inventario-lotes/pkg/config"
	"github.com/redis/go-redis/v9"
)

var _ inventory.StockCache = (*RedisStockCache)(nil)

const keyPrefix = "stock:"

// RedisStockCache guarda el StockLevel serializado en JSON con TTL.
// Es solo caché de lectura: el libro de lotes sigue siendo la fuente de verdad.
type RedisStockCache struct {
	client *redis.Client
	ttl    time.Duration
}

// NewRedisStockCache abre el cliente con la configuración de la app.
func NewRedisStockCache(cfg config.RedisConfig) *RedisStockCache {
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})
	return &RedisStockCache{client: client, ttl: cfg.StockTTL}
}

// Ping verifica la conexión.
func (c *RedisStockCache) Ping(ctx context.Context) error {
	return c.client.Ping(ctx).Err()
}

// Close cierra el cliente.
func (c *RedisStockCache) Close() error {
	return c.client.Close()
}

// Key stock:{producto}:{tienda}.
func Key(k inventory.StockKey) string {
	return keyPrefix + k.ProductID + ":" + k.StoreID
}

func (c *RedisStockCache) Get(ctx context.Context, key inventory.StockKey) (*inventory.StockLevel, bool, error) {
	val, err := c.client.Get(ctx, Key(key)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("redis get: %w", err)
	}
	var level inventory.StockLevel
	if err := json.Unmarshal(val, &level); err != nil {
		return nil, false, fmt.Errorf("decode stock level: %w", err)
	}
	return &level, true, nil
}

func (c *RedisStockCache) Set(ctx context.Context, key inventory.StockKey, level *inventory.StockLevel) error {
	if level == nil {
		return nil
	}
	payload, err := json.Marshal(level)
	if err != nil {
		return fmt.Errorf("encode stock level: %w", err)
	}
	return c.client.Set(ctx, Key(key), payload, c.ttl).Err()
}

// Invalidate borra las claves en un solo DEL.
func (c *RedisStockCache) Invalidate(ctx context.Context, keys ...inventory.StockKey) error {
	if len(keys) == 0 {
		return nil
	}
	names := make([]string, 0, len(keys))
	for _, k := range keys {
		names = append(names, Key(k))
	}
	return c.client.Del(ctx, names...).Err()
}
