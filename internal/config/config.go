package config // package config loads application configuration from environment variables

import (
	"log"     // log reports configuration errors and halts execution
	"os"      // os provides access to environment variables
	"strconv" // strconv converts strings to other types
)

// Config holds all runtime configuration values.  Each field corresponds
// to an environment variable.  Booking policy values live here so they
// reach the policy component as an explicit struct instead of ambient
// globals; tests build their own Config per case.
type Config struct {
	Env  string // application environment (e.g. "dev", "prod")
	Port string // HTTP port to listen on

	DBUser string // database username
	DBPass string // database password (optional)
	DBHost string // database host address
	DBPort string // database port number
	DBName string // database name

	JWTSecret      string // secret used to sign JWTs
	AccessTTLMin   int    // access token time-to-live in minutes
	RefreshTTLDays int    // refresh token time-to-live in days
	BcryptCost     int    // bcrypt cost for password hashing

	DefaultDurationMin int // booking length in minutes when no end time is supplied
	MinGuests          int // smallest accepted guest count
	MaxGuests          int // largest accepted guest count (0 disables the cap)
	LockWaitSec        int // bounded wait for the per-table advisory lock

	PageSize    int // default page size for listings
	PageSizeMax int // hard ceiling on page size
}

// Load reads configuration from environment variables.  Required
// variables are enforced by must() and missing values exit with a fatal
// log message; policy and pagination values fall back to defaults.
func Load() Config {
	return Config{
		Env:            must("APP_ENV"),
		Port:           must("APP_PORT"),
		DBUser:         must("DB_USER"),
		DBPass:         os.Getenv("DB_PASS"), // empty allowed
		DBHost:         must("DB_HOST"),
		DBPort:         must("DB_PORT"),
		DBName:         must("DB_NAME"),
		JWTSecret:      must("JWT_SECRET"),
		AccessTTLMin:   mustInt("ACCESS_TOKEN_TTL_MIN"),
		RefreshTTLDays: mustInt("REFRESH_TOKEN_TTL_DAYS"),
		BcryptCost:     mustInt("BCRYPT_COST"),

		DefaultDurationMin: envInt("DEFAULT_DURATION_MIN", 240),
		MinGuests:          envInt("MIN_GUESTS", 1),
		MaxGuests:          envInt("MAX_GUESTS", 0),
		LockWaitSec:        envInt("LOCK_WAIT_SEC", 5),

		PageSize:    envInt("PAGE_SIZE_DEFAULT", 20),
		PageSizeMax: envInt("PAGE_SIZE_MAX", 100),
	}
}

// must retrieves a required environment variable or exits.
func must(key string) string {
	v, ok := os.LookupEnv(key)
	if !ok || v == "" {
		log.Fatalf("missing required env var: %s", key)
	}
	return v
}

// mustInt is like must() but converts the value to an integer.
func mustInt(key string) int {
	s := must(key)
	n, err := strconv.Atoi(s)
	if err != nil {
		log.Fatalf("invalid int for %s: %q", key, s)
	}
	return n
}

// envInt reads an optional integer variable with a default.
func envInt(key string, def int) int {
	s := os.Getenv(key)
	if s == "" {
		return def
	}
	n, err := strconv.Atoi(s)
	if err != nil {
		log.Fatalf("invalid int for %s: %q", key, s)
	}
	return n
}
