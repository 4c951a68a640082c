package config

import (
	"os"
	"strconv"
	"strings"
	"time"
)

type Config struct {
	Server   ServerConfig
	Logger   LoggerConfig
	Postgres PostgresConfig
	Redis    RedisConfig
	Kafka    KafkaConfig
	Elastic  ElasticsearchConfig
	Stock    StockConfig
}

type ServerConfig struct {
	AppEnv   string
	GRPCPort string
}

type LoggerConfig struct {
	Level             string
	Encoding          string
	DisableCaller     bool
	DisableStacktrace bool
}

type PostgresConfig struct {
	Host            string
	Port            string
	User            string
	Password        string
	DBName          string
	SSLMode         string
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime int
	ConnMaxIdleTime int
}

type RedisConfig struct {
	Addr     string
	Password string
	DB       int
}

type KafkaConfig struct {
	Brokers     []string
	OrdersTopic string
	StockTopic  string
	GroupID     string
}

type ElasticsearchConfig struct {
	Enabled   bool
	Addresses []string
	Username  string
	Password  string
	Index     string
}

// StockConfig holds the options of the classification engine. It is loaded once per
// process and passed to the engine explicitly.
type StockConfig struct {
	// SaleDays is the reorder horizon: stock must cover SaleDays of average sales.
	SaleDays int
	// VelocityDays is the trailing window used to compute the average daily sales.
	VelocityDays int
	// LostSalesDays is the window before a stockout used by the lost sales estimate.
	LostSalesDays int
	PerPage       int
	CacheTTL      time.Duration
	// Debug bypasses the cache entirely.
	Debug bool
}

const (
	DefaultSaleDays      = 14
	DefaultVelocityDays  = 7
	DefaultLostSalesDays = 7
	DefaultPerPage       = 20
)

func DefaultStockConfig() StockConfig {
	return StockConfig{
		SaleDays:      DefaultSaleDays,
		VelocityDays:  DefaultVelocityDays,
		LostSalesDays: DefaultLostSalesDays,
		PerPage:       DefaultPerPage,
		CacheTTL:      time.Hour,
	}
}

func LoadEnv() *Config {
	return &Config{
		Server: ServerConfig{
			AppEnv:   getEnv("APP_ENV", "dev"),
			GRPCPort: getEnv("GRPC_PORT", ":8084"),
		},
		Logger: LoggerConfig{
			Level:             getEnv("LOGGER_LEVEL", "info"),
			Encoding:          getEnv("LOGGER_ENCODING", "json"),
			DisableCaller:     getEnvBool("LOGGER_DISABLE_CALLER", false),
			DisableStacktrace: getEnvBool("LOGGER_DISABLE_STACKTRACE", true),
		},
		Postgres: PostgresConfig{
			Host:            getEnv("POSTGRES_HOST", "localhost"),
			Port:            getEnv("POSTGRES_PORT", "5433"),
			User:            getEnv("POSTGRES_USER", "omnipos"),
			Password:        getEnv("POSTGRES_PASSWORD", "omnipos"),
			DBName:          getEnv("POSTGRES_DB", "omnipos_stock"),
			SSLMode:         getEnv("POSTGRES_SSLMODE", "disable"),
			MaxOpenConns:    getEnvInt("POSTGRES_MAX_OPEN_CONNS", 10),
			MaxIdleConns:    getEnvInt("POSTGRES_MAX_IDLE_CONNS", 5),
			ConnMaxLifetime: getEnvInt("POSTGRES_CONN_MAX_LIFETIME", 300),
			ConnMaxIdleTime: getEnvInt("POSTGRES_CONN_MAX_IDLE_TIME", 60),
		},
		Redis: RedisConfig{
			Addr:     getEnv("REDIS_ADDR", "localhost:6379"),
			Password: getEnv("REDIS_PASSWORD", ""),
			DB:       getEnvInt("REDIS_DB", 0),
		},
		Kafka: KafkaConfig{
			Brokers:     getEnvSlice("KAFKA_BROKERS", []string{"localhost:9092"}),
			OrdersTopic: getEnv("KAFKA_TOPIC_ORDERS", "orders.events"),
			StockTopic:  getEnv("KAFKA_TOPIC_STOCK", "stock.events"),
			GroupID:     getEnv("KAFKA_GROUP_STOCK", "stock"),
		},
		Elastic: ElasticsearchConfig{
			Enabled:   getEnvBool("ELASTICSEARCH_ENABLED", true),
			Addresses: getEnvSlice("ELASTICSEARCH_ADDRESSES", []string{"http://localhost:9200"}),
			Username:  getEnv("ELASTICSEARCH_USERNAME", ""),
			Password:  getEnv("ELASTICSEARCH_PASSWORD", ""),
			Index:     getEnv("ELASTICSEARCH_INDEX", "products"),
		},
		Stock: StockConfig{
			SaleDays:      getEnvPositiveInt("STOCK_SALE_DAYS", DefaultSaleDays),
			VelocityDays:  getEnvPositiveInt("STOCK_VELOCITY_DAYS", DefaultVelocityDays),
			LostSalesDays: getEnvPositiveInt("STOCK_LOST_SALES_DAYS", DefaultLostSalesDays),
			PerPage:       getEnvInt("STOCK_PER_PAGE", DefaultPerPage),
			CacheTTL:      getEnvDuration("STOCK_CACHE_TTL", time.Hour),
			Debug:         getEnvBool("STOCK_DEBUG", false),
		},
	}
}

func getEnv(key, fallback string) string {
	if value, ok := os.LookupEnv(key); ok {
		return value
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	if value, ok := os.LookupEnv(key); ok {
		if i, err := strconv.Atoi(value); err == nil {
			return i
		}
	}
	return fallback
}

func getEnvPositiveInt(key string, fallback int) int {
	if i := getEnvInt(key, fallback); i > 0 {
		return i
	}
	return fallback
}

func getEnvBool(key string, fallback bool) bool {
	if value, ok := os.LookupEnv(key); ok {
		if b, err := strconv.ParseBool(value); err == nil {
			return b
		}
	}
	return fallback
}

// getEnvDuration accepts Go durations ("90s", "2h") or a plain number of seconds.
func getEnvDuration(key string, fallback time.Duration) time.Duration {
	value, ok := os.LookupEnv(key)
	if !ok {
		return fallback
	}
	if d, err := time.ParseDuration(value); err == nil && d > 0 {
		return d
	}
	if secs, err := strconv.Atoi(value); err == nil && secs > 0 {
		return time.Duration(secs) * time.Second
	}
	return fallback
}

func getEnvSlice(key string, fallback []string) []string {
	value, ok := os.LookupEnv(key)
	if !ok {
		return fallback
	}
	out := []string{}
	for _, v := range strings.Split(value, ",") {
		if v = strings.TrimSpace(v); v != "" {
			out = append(out, v)
		}
	}
	if len(out) == 0 {
		return fallback
	}
	return out
}
