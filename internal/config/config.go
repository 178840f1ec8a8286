package config

import (
	"log"
	"os"
	"strconv"

	"github.com/joho/godotenv"
	_ "github.com/lib/pq"
)

type Config struct {
	ServerPort  string
	LogLevel    string
	DatabaseURL string

	RedisAddr     string
	RedisPassword string

	ES_URL      string
	ES_USER     string
	ES_PASSWORD string

	JWTSecret     string
	RefreshSecret string

	KafkaAddress string

	TaxRate float64

	PaypalClientID  string
	PaypalSecret    string
	PaypalOAuthURL  string
	PaypalOrdersURL string
}

func Load() (*Config, error) {
	if err := godotenv.Load(".env"); err != nil {
		log.Printf("Notice: .env file not found: %v. Using system environment variables", err)
	}

	cfg := &Config{
		ServerPort:  envDefault("SERVER_PORT", "8080"),
		LogLevel:    envDefault("LOG_LEVEL", "info"),
		DatabaseURL: os.Getenv("DATABASE_URL"),

		RedisAddr:     envDefault("REDIS_ADDR", "localhost:6379"),
		RedisPassword: os.Getenv("REDIS_PASSWORD"),

		ES_URL:      os.Getenv("ES_URL"),
		ES_USER:     os.Getenv("ES_USER"),
		ES_PASSWORD: os.Getenv("ES_PASSWORD"),

		JWTSecret:     os.Getenv("JWT_SECRET"),
		RefreshSecret: os.Getenv("REFRESH_SECRET"),

		KafkaAddress: os.Getenv("KAFKA_ADDRESS"),

		TaxRate: envFloatDefault("TAX_RATE", 0),

		PaypalClientID:  os.Getenv("PAYPAL_CLIENT_ID"),
		PaypalSecret:    os.Getenv("PAYPAL_SECRET"),
		PaypalOAuthURL:  os.Getenv("PAYPAL_OAUTH_URL"),
		PaypalOrdersURL: os.Getenv("PAYPAL_ORDERS_URL"),
	}

	return cfg, nil
}

// MustLoad aborts on missing required values. TAX_RATE has to come from the
// environment so the cart provider and the order service agree on it.
func MustLoad() *Config {
	cfg, _ := Load()

	MustNonEmpty(cfg.DatabaseURL, "DATABASE_URL")
	MustNonEmpty(cfg.JWTSecret, "JWT_SECRET")
	MustNonEmpty(cfg.RefreshSecret, "REFRESH_SECRET")

	if cfg.TaxRate < 0 {
		log.Fatalf("TAX_RATE must be >= 0, got %v", cfg.TaxRate)
	}

	return cfg
}

func MustNonEmpty(value, envName string) {
	if value == "" {
		log.Fatalf("missing required env %s", envName)
	}
}

func envDefault(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func envFloatDefault(key string, def float64) float64 {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return def
	}
	return f
}
