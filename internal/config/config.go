package config // package config loads application configuration from environment variables

import (
	"log"     // log is used to report configuration errors and halt execution
	"os"      // os provides access to environment variables
	"strconv" // strconv converts strings to other types
)

// Config holds all runtime configuration values. Each field corresponds to an
// environment variable. Every cryptographic key in here is loaded exactly once
// at startup and is read-only afterwards; components receive the values they
// need explicitly instead of reading the environment themselves.
type Config struct {
	Env          string // application environment (e.g. "dev", "prod")
	Port         string // HTTP port to listen on
	DBUser       string // database username
	DBPass       string // database password (optional)
	DBHost       string // database host address
	DBPort       string // database port number
	DBName       string // database name
	DBMaxOpen    int    // max open connections in the pool
	DBMaxIdle    int    // max idle connections in the pool
	DBConnLife   int    // connection lifetime in minutes
	CipherKey    string // symmetric key protecting PII columns (email, phone)
	JWTSecret    string // secret used to sign JWTs
	JWTIssuer    string // expected "iss" claim on issued and accepted tokens
	JWTAudience  string // expected "aud" claim on issued and accepted tokens
	AccessTTLMin int    // access token time-to-live in minutes
	BcryptCost   int    // bcrypt cost for password and API-key hashing
	ImportEvery  int    // minutes between pet import runs (0 disables the worker)
}

// Load reads configuration values from environment variables and returns a
// Config. Required variables are enforced by must() and missing values cause
// the program to exit with a fatal log message; a service that cannot encrypt
// PII or sign tokens must not come up at all.
func Load() Config {
	return Config{
		Env:          must("APP_ENV"),
		Port:         must("APP_PORT"),
		DBUser:       must("DB_USER"),
		DBPass:       os.Getenv("DB_PASS"), // empty allowed
		DBHost:       must("DB_HOST"),
		DBPort:       must("DB_PORT"),
		DBName:       must("DB_NAME"),
		DBMaxOpen:    optInt("DB_MAX_OPEN_CONNS", 25),
		DBMaxIdle:    optInt("DB_MAX_IDLE_CONNS", 25),
		DBConnLife:   optInt("DB_CONN_LIFETIME_MIN", 30),
		CipherKey:    must("PII_CIPHER_KEY"),
		JWTSecret:    must("JWT_SECRET"),
		JWTIssuer:    must("JWT_ISSUER"),
		JWTAudience:  must("JWT_AUDIENCE"),
		AccessTTLMin: mustInt("ACCESS_TOKEN_TTL_MIN"),
		BcryptCost:   mustInt("BCRYPT_COST"),
		ImportEvery:  optInt("PET_IMPORT_EVERY_MIN", 60),
	}
}

// must retrieves the value of a required environment variable. If the
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

// optInt reads an optional integer variable, falling back to def when the
// variable is unset or unparsable.
func optInt(key string, def int) int {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return def
	}
	return n
}
