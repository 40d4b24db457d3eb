package config

import (
	"log"
	"os"
	"strconv"

	"github.com/joho/godotenv"
)

// Config holds everything the engine reads from the environment.
type Config struct {
	DBHost     string
	DBPort     uint
	DBName     string
	DBUser     string
	DBPassword string
	DBSSLMode  string

	HTTPAddr string

	JWTSecret string

	NotifyWebhookURL string
	DocumentDir      string

	// InvoiceDueDays is added to now() for the dueDate of freshly
	// aggregated invoices.
	InvoiceDueDays int

	// DefaultCurrency is used when an imported bank row omits one.
	DefaultCurrency string
}

// Load reads .env if present, then the environment. Missing optional values
// fall back to defaults; a missing JWT secret is fatal at server start, not
// here, so tests can build configs freely.
func Load() Config {
	if err := godotenv.Load(); err != nil {
		log.Println("no .env file loaded, using environment")
	}

	return Config{
		DBHost:     getenv("DB_HOST", "localhost"),
		DBPort:     getenvUint("DB_PORT", 5432),
		DBName:     getenv("DB_NAME", "feeledger"),
		DBUser:     getenv("DB_USER", "postgres"),
		DBPassword: getenv("DB_PASSWORD", "postgres"),
		DBSSLMode:  getenv("DB_SSL_MODE", "disable"),

		HTTPAddr: getenv("HTTP_ADDR", ":8080"),

		JWTSecret: os.Getenv("JWT_SECRET"),

		NotifyWebhookURL: os.Getenv("NOTIFY_WEBHOOK_URL"),
		DocumentDir:      getenv("DOCUMENT_DIR", "documents"),

		InvoiceDueDays:  getenvInt("INVOICE_DUE_DAYS", 30),
		DefaultCurrency: getenv("DEFAULT_CURRENCY", "USD"),
	}
}

func getenv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getenvInt(key string, fallback int) int {
	v, err := strconv.Atoi(os.Getenv(key))
	if err != nil {
		return fallback
	}
	return v
}

func getenvUint(key string, fallback uint) uint {
	v, err := strconv.ParseUint(os.Getenv(key), 10, 32)
	if err != nil {
		return fallback
	}
	return uint(v)
}
