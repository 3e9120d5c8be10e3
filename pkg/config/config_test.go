package config

import (
	"testing"
	"time"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFromViper_Defaults(t *testing.T) {
	cfg, err := fromViper(viper.New())
	require.NoError(t, err)

	assert.Equal(t, "postgres", cfg.Storage.Driver)
	assert.Equal(t, "fragments", cfg.Ledger.ReversalPolicy)
	assert.Equal(t, 3, cfg.Ledger.TxMaxRetries)
	assert.Equal(t, 30*time.Second, cfg.Redis.StockTTL)
	assert.False(t, cfg.Redis.Enabled())
	assert.True(t, cfg.Metrics.Enabled)
	assert.Equal(t, "0.0.0.0:8080", cfg.HTTP.Addr())
}

func TestFromViper_ValoresDesdeEntorno(t *testing.T) {
	v := viper.New()
	v.Set("REDIS_ADDR", "localhost:6379")
	v.Set("STOCK_CACHE_TTL", "2m")
	v.Set("METRICS_ENABLED", "false")
	v.Set("DB_AUTO_MIGRATE", "true")
	v.Set("DB_PORT", "6543")
	v.Set("LEDGER_REVERSAL_POLICY", "latest_lot")

	cfg, err := fromViper(v)
	require.NoError(t, err)

	assert.True(t, cfg.Redis.Enabled())
	assert.Equal(t, 2*time.Minute, cfg.Redis.StockTTL)
	assert.False(t, cfg.Metrics.Enabled)
	assert.True(t, cfg.DB.AutoMigrate)
	assert.Equal(t, 6543, cfg.DB.Port)
	assert.Equal(t, "latest_lot", cfg.Ledger.ReversalPolicy)
}

func TestFromViper_DriverInvalido(t *testing.T) {
	v := viper.New()
	v.Set("STORAGE_DRIVER", "mongo")
	_, err := fromViper(v)
	assert.Error(t, err)
}

func TestGetDuration_Segundos(t *testing.T) {
	v := viper.New()
	v.Set("TTL", "45")
	assert.Equal(t, 45*time.Second, getDuration(v, "TTL", time.Second))
}

func TestDSN_EscapaPassword(t *testing.T) {
	c := DBConfig{Host: "db", Port: 5432, User: "app", Password: "p@ss:word", DBName: "lotes", SSLMode: "disable"}
	assert.Equal(t, "postgres://app:p%40ss%3Aword@db:5432/lotes?sslmode=disable", c.DSN())
	assert.Equal(t, "postgres://x", DBConfig{DatabaseURL: "postgres://x"}.ConnectionString())
}
