package config

import (
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	Port     string
	AppEnv   string
	LogLevel string

	DBDriver string // sqlite | postgres
	DBDSN    string

	JWTSecret string
	JWTTTL    time.Duration

	ImportTimeout  time.Duration
	ImportMaxBytes int

	LoginRateMax int // login attempts per IP per 10 minutes
}

// Load reads an optional .env file and then the process environment.
func Load() Config {
	_ = godotenv.Load()

	driver := strings.ToLower(get("DB_DRIVER", "sqlite"))
	if driver != "postgres" {
		driver = "sqlite"
	}
	dsn := get("DB_DSN", "")
	if dsn == "" {
		if driver == "postgres" {
			dsn = "host=localhost user=postgres password=postgres dbname=marketplace port=5432 sslmode=disable"
		} else {
			dsn = "marketplace.db" // sqlite file in project root
		}
	}

	return Config{
		Port:           get("PORT", "8080"),
		AppEnv:         get("APP_ENV", "development"),
		LogLevel:       get("LOG_LEVEL", "info"),
		DBDriver:       driver,
		DBDSN:          dsn,
		JWTSecret:      get("JWT_SECRET", "change-me-in-production"),
		JWTTTL:         duration("JWT_TTL", 24*time.Hour),
		ImportTimeout:  duration("IMPORT_TIMEOUT", 10*time.Second),
		ImportMaxBytes: integer("IMPORT_MAX_BYTES", 4<<20),
		LoginRateMax:   integer("LOGIN_RATE_MAX", 5),
	}
}

// Test returns a config suitable for in-memory tests.
func Test() Config {
	return Config{
		Port:           "0",
		AppEnv:         "test",
		LogLevel:       "error",
		DBDriver:       "sqlite",
		DBDSN:          ":memory:",
		JWTSecret:      "test-secret",
		JWTTTL:         time.Hour,
		ImportTimeout:  2 * time.Second,
		ImportMaxBytes: 1 << 20,
		LoginRateMax:   100,
	}
}

func get(key, def string) string {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		return v
	}
	return def
}

func duration(key string, def time.Duration) time.Duration {
	d, err := time.ParseDuration(get(key, ""))
	if err != nil || d <= 0 {
		return def
	}
	return d
}

func integer(key string, def int) int {
	n, err := strconv.Atoi(get(key, ""))
	if err != nil || n <= 0 {
		return def
	}
	return n
}
