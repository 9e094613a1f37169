package config

import (
	"log"
	"os"
	"time"

	"github.com/joho/godotenv"

	"storefront-widget/internal/kv"
)

const (
	BackendMemory   = "memory"
	BackendRedis    = "redis"
	BackendPostgres = "postgres"
)

type Config struct {
	AppEnv       string
	StoreBackend string

	RedisAddr string

	DBHost     string
	DBUser     string
	DBPassword string
	DBName     string
	DBPort     string

	CartKey  string
	OrderKey string

	// Status window policy and watcher cadence. These are heuristics, not
	// protocol, so they stay overridable per deployment.
	ETAOffset      time.Duration
	ReceivedWindow time.Duration
	PickupWindow   time.Duration
	PollInterval   time.Duration
}

func LoadConfig() *Config {
	_ = godotenv.Load()

	cfg := &Config{
		AppEnv:       os.Getenv("APP_ENV"),
		StoreBackend: getEnv("STORE_BACKEND", BackendMemory),
		RedisAddr:    getEnv("REDIS_ADDR", "localhost:6379"),
		DBHost:       os.Getenv("DB_HOST"),
		DBUser:       os.Getenv("DB_USER"),
		DBPassword:   os.Getenv("DB_PASSWORD"),
		DBName:       os.Getenv("DB_NAME"),
		DBPort:       getEnv("DB_PORT", "5432"),
		CartKey:      getEnv("CART_KEY", "cart"),
		OrderKey:     getEnv("ORDER_KEY", "lastOrder"),

		ETAOffset:      getDuration("ETA_OFFSET", 20*time.Minute),
		ReceivedWindow: getDuration("RECEIVED_WINDOW", time.Minute),
		PickupWindow:   getDuration("PICKUP_WINDOW", 30*time.Minute),
		PollInterval:   getDuration("POLL_INTERVAL", 2*time.Second),
	}

	if cfg.StoreBackend == BackendPostgres && cfg.DBHost == "" {
		log.Fatal("STORE_BACKEND=postgres requires DB_* environment variables")
	}

	return cfg
}

// Keys returns the store slot names for the cart and the current order.
func (c *Config) Keys() kv.Keys {
	return kv.Keys{Cart: c.CartKey, Order: c.OrderKey}
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getDuration(key string, fallback time.Duration) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		log.Printf("invalid duration in %s=%q, using %s", key, v, fallback)
		return fallback
	}
	return d
}
