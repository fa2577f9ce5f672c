package config // package config loads application configuration from environment variables

import (
	"log"     // log is used to report configuration errors and halt execution
	"os"      // os provides access to environment variables
	"strconv" // strconv converts strings to other types
	"time"    // time is used for sweeper durations
)

// Config holds all runtime configuration values.  Each field corresponds to
// an environment variable.  The types reflect how the values are used in
// the application: strings for identifiers and secrets, durations for the
// background sweeper.
type Config struct {
	Env               string        // application environment (e.g. "dev", "prod")
	Port              string        // HTTP port to listen on
	StoreDriver       string        // entry store backend: "mysql" or "memory"
	DBUser            string        // database username
	DBPass            string        // database password (optional)
	DBHost            string        // database host address
	DBPort            string        // database port number
	DBName            string        // database name
	JWTSecret         string        // secret used to sign admin JWTs
	AccessTTLMin      int           // admin access token time-to-live in minutes
	AdminUser         string        // operator login name
	AdminPasswordHash string        // bcrypt hash of the operator password
	SweepInterval     time.Duration // how often the sweeper scans for stale called entries
	CalledTimeout     time.Duration // how long a called entry may stay unanswered before auto-cancel
}

// Load reads configuration values from environment variables and returns a
// Config.  Required variables are enforced by must() and missing values
// cause the program to exit with a fatal log message.  Database variables
// are only required when the MySQL store driver is selected; the in-memory
// driver exists for local development and demos.
func Load() Config {
	cfg := Config{
		Env:               must("APP_ENV"),                          // environment (dev/test/prod)
		Port:              must("APP_PORT"),                         // port to bind the HTTP server
		StoreDriver:       envStr("STORE_DRIVER", "mysql"),          // "memory" runs without a database
		JWTSecret:         must("JWT_SECRET"),                       // secret used for signing admin JWTs
		AccessTTLMin:      mustInt("ACCESS_TOKEN_TTL_MIN"),          // TTL for admin tokens in minutes
		AdminUser:         must("ADMIN_USER"),                       // operator login
		AdminPasswordHash: must("ADMIN_PASSWORD_HASH"),              // bcrypt hash of operator password
		SweepInterval:     envDur("SWEEP_INTERVAL", 30*time.Second), // sweeper tick
		CalledTimeout:     envDur("CALLED_TIMEOUT", 5*time.Minute),  // stale-call threshold
	}
	if cfg.StoreDriver == "mysql" {
		cfg.DBUser = must("DB_USER")      // database user
		cfg.DBPass = os.Getenv("DB_PASS") // database password (empty allowed)
		cfg.DBHost = must("DB_HOST")      // database host
		cfg.DBPort = must("DB_PORT")      // database port
		cfg.DBName = must("DB_NAME")      // database name
	}
	return cfg
}

// must retrieves the value of a required environment variable.  If the
// variable is unset or empty, the application logs a fatal error and exits.
func must(key string) string {
	v, ok := os.LookupEnv(key)
	if !ok || v == "" {
		log.Fatalf("missing required env var: %s", key)
	}
	return v
}

// mustInt is like must() but converts the retrieved string into an integer.
// If conversion fails, the application logs a fatal error and exits.
func mustInt(key string) int {
	s := must(key)
	n, err := strconv.Atoi(s)
	if err != nil {
		log.Fatalf("invalid int for %s: %q", key, s)
	}
	return n
}

func envStr(k, d string) string {
	if v := os.Getenv(k); v != "" {
		return v
	}
	return d
}

func envDur(k string, d time.Duration) time.Duration {
	v := os.Getenv(k)
	if v == "" {
		return d
	}
	if dur, err := time.ParseDuration(v); err == nil {
		return dur
	}
	return d
}
