package config

import (
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Store drivers understood by repositories.Open.
const (
	DriverPostgres = "postgres"
	DriverSQLite   = "sqlite"
	DriverMongo    = "mongo"
	DriverMemory   = "memory"
)

// Config holds everything the server and ledgerctl need at startup.
type Config struct {
	Env  string
	Port string

	StoreDriver string
	// UseTransactions lets operators switch units of work off for stores
	// that cannot run them (PgBouncer statement pooling, standalone mongod).
	UseTransactions bool

	PostgresDSN string
	SQLitePath  string
	MongoURI    string
	MongoDB     string

	DBMaxIdleConns    int
	DBMaxOpenConns    int
	DBConnMaxLifetime time.Duration
	DBConnMaxIdleTime time.Duration

	RedisHost     string
	RedisPort     string
	RedisPassword string
	RedisDB       int
	CacheTTL      time.Duration

	ReferralBonusCoins int64
	AllowedOrigins     string
	// InternalAPIToken guards /internal routes; empty disables the check.
	InternalAPIToken string
	// RateLimitPerMinute bounds referral redemptions per client IP.
	RateLimitPerMinute int
}

// LoadEnv loads variables from a .env file if present.
func LoadEnv() {
	if err := godotenv.Load(); err != nil {
		log.Printf("no .env file found: %v", err)
	}
}

// Load reads the process environment into a Config, applying defaults.
func Load() Config {
	return Config{
		Env:  GetEnv("ENV", "development"),
		Port: GetEnv("PORT", "3000"),

		StoreDriver:     strings.ToLower(GetEnv("LEDGER_STORE", DriverPostgres)),
		UseTransactions: GetBoolEnv("LEDGER_TRANSACTIONS", true),

		PostgresDSN: GetEnv("DATABASE_URL", postgresDSNFromParts()),
		SQLitePath:  GetEnv("SQLITE_PATH", "ledger.db"),
		MongoURI:    GetEnv("MONGODB_URI", "mongodb://localhost:27017"),
		MongoDB:     GetEnv("MONGODB_DATABASE", "ledger"),

		DBMaxIdleConns:    GetIntEnv("DB_MAX_IDLE_CONNS", 10),
		DBMaxOpenConns:    GetIntEnv("DB_MAX_OPEN_CONNS", 100),
		DBConnMaxLifetime: GetDurationEnv("DB_CONN_MAX_LIFETIME", time.Hour),
		DBConnMaxIdleTime: GetDurationEnv("DB_CONN_MAX_IDLE_TIME", 30*time.Minute),

		RedisHost:     GetEnv("REDIS_HOST", ""),
		RedisPort:     GetEnv("REDIS_PORT", "6379"),
		RedisPassword: GetEnv("REDIS_PASSWORD", ""),
		RedisDB:       GetIntEnv("REDIS_DB", 0),
		CacheTTL:      GetDurationEnv("CACHE_TTL", 5*time.Minute),

		ReferralBonusCoins: int64(GetIntEnv("REFERRAL_BONUS_COINS", 50)),
		AllowedOrigins:     GetEnv("ALLOWED_ORIGINS", "http://localhost:3000"),
		InternalAPIToken:   GetEnv("INTERNAL_API_TOKEN", ""),
		RateLimitPerMinute: GetIntEnv("RATE_LIMIT_PER_MINUTE", 10),
	}
}

func postgresDSNFromParts() string {
	return "host=" + GetEnv("DB_HOST", "localhost") +
		" user=" + GetEnv("DB_USER", "postgres") +
		" password=" + GetEnv("DB_PASSWORD", "postgres") +
		" dbname=" + GetEnv("DB_NAME", "ledger") +
		" port=" + GetEnv("DB_PORT", "5432") +
		" sslmode=disable"
}

// GetEnv returns an environment variable or a default value.
func GetEnv(key, defaultVal string) string {
	if val, ok := os.LookupEnv(key); ok && val != "" {
		return val
	}
	return defaultVal
}

// GetIntEnv returns an int environment variable or a default value.
func GetIntEnv(key string, defaultVal int) int {
	if val, ok := os.LookupEnv(key); ok {
		if i, err := strconv.Atoi(val); err == nil {
			return i
		}
	}
	return defaultVal
}

// GetBoolEnv returns a bool environment variable or a default value.
func GetBoolEnv(key string, defaultVal bool) bool {
	if val, ok := os.LookupEnv(key); ok {
		if b, err := strconv.ParseBool(val); err == nil {
			return b
		}
	}
	return defaultVal
}

// GetDurationEnv returns a duration environment variable or a default value.
func GetDurationEnv(key string, defaultVal time.Duration) time.Duration {
	if val, ok := os.LookupEnv(key); ok {
		if d, err := time.ParseDuration(val); err == nil {
			return d
		}
	}
	return defaultVal
}

// IsProduction checks if the app runs in production mode.
func (c Config) IsProduction() bool {
	return c.Env == "production"
}
