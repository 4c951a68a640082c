package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestLoadEnv_Defaults(t *testing.T) {
	cfg := LoadEnv()

	assert.Equal(t, DefaultStockConfig().SaleDays, cfg.Stock.SaleDays)
	assert.Equal(t, 7, cfg.Stock.VelocityDays)
	assert.Equal(t, 7, cfg.Stock.LostSalesDays)
	assert.Equal(t, 20, cfg.Stock.PerPage)
	assert.Equal(t, time.Hour, cfg.Stock.CacheTTL)
	assert.False(t, cfg.Stock.Debug)
}

func TestLoadEnv_Overrides(t *testing.T) {
	t.Setenv("STOCK_SALE_DAYS", "30")
	t.Setenv("STOCK_VELOCITY_DAYS", "0")
	t.Setenv("STOCK_DEBUG", "true")
	t.Setenv("STOCK_CACHE_TTL", "60")
	t.Setenv("KAFKA_BROKERS", "k1:9092, k2:9092,")

	cfg := LoadEnv()

	assert.Equal(t, 30, cfg.Stock.SaleDays)
	assert.Equal(t, DefaultVelocityDays, cfg.Stock.VelocityDays, "non-positive windows fall back to the default")
	assert.True(t, cfg.Stock.Debug)
	assert.Equal(t, time.Minute, cfg.Stock.CacheTTL)
	assert.Equal(t, []string{"k1:9092", "k2:9092"}, cfg.Kafka.Brokers)
}

func TestGetEnvDuration(t *testing.T) {
	t.Setenv("TTL_A", "90s")
	t.Setenv("TTL_B", "-5")
	t.Setenv("TTL_C", "soon")

	assert.Equal(t, 90*time.Second, getEnvDuration("TTL_A", time.Hour))
	assert.Equal(t, time.Hour, getEnvDuration("TTL_B", time.Hour))
	assert.Equal(t, time.Hour, getEnvDuration("TTL_C", time.Hour))
	assert.Equal(t, time.Hour, getEnvDuration("TTL_MISSING", time.Hour))
}
