package config

import (
	"encoding/hex"
	"log"
	"os"
	"strconv"

	"github.com/joho/godotenv"
)

// Config holds application configuration
type Config struct {
	Port      string
	JWTKey    string
	SaltRound int

	VaultKey    []byte // 32-byte AES key for the credential vault
	SweepSecret string // shared secret for the scheduled sweep endpoint
	SweepCron   string // optional cron expression for the in-process sweep

	GradescopeBaseURL string

	EmailSender string
	Password    string // SMTP Password

	SyncTimeoutSec int // timeout for outbound provider calls
}

// AppConfig is a global variable to access configuration
var AppConfig *Config

// LoadConfig initializes configuration from environment variables or defaults
func LoadConfig() {
	// Load .env file if it exists
	if err := godotenv.Load(); err != nil {
		log.Println("Warning: .env file not found. Using system environment variables.")
	}

	AppConfig = &Config{
		Port:      getEnv("PORT", "3000"),
		JWTKey:    getEnv("JWT_SECRET_KEY", "defaultSecret"),
		SaltRound: getEnvInt("SALT_ROUND", 10),

		VaultKey:    loadVaultKey(),
		SweepSecret: getEnv("SWEEP_SECRET", ""),
		SweepCron:   getEnv("SWEEP_CRON", ""),

		GradescopeBaseURL: getEnv("GRADESCOPE_BASE_URL", "https://www.gradescope.com"),

		EmailSender: getEnv("EMAIL_SENDER", "defaultSecret"),
		Password:    getEnv("PASSWORD", "defaultSecret"),

		SyncTimeoutSec: getEnvInt("SYNC_TIMEOUT_SEC", 20),
	}

	// Validate critical configuration
	if AppConfig.JWTKey == "defaultSecret" {
		log.Println("Warning: Using default JWT_SECRET_KEY. Update it in your environment.")
	}
	if AppConfig.SweepSecret == "" {
		log.Println("Warning: SWEEP_SECRET is not set. The sweep endpoint will refuse all requests.")
	}
}

// loadVaultKey reads VAULT_KEY as a 64-char hex string. A missing or
// malformed key disables provider connections rather than falling back
// to a guessable default key.
func loadVaultKey() []byte {
	raw := os.Getenv("VAULT_KEY")
	if raw == "" {
		log.Println("Warning: VAULT_KEY is not set. Provider connections will be rejected.")
		return nil
	}

	key, err := hex.DecodeString(raw)
	if err != nil || len(key) != 32 {
		log.Println("Warning: VAULT_KEY must be 64 hex characters (32 bytes). Provider connections will be rejected.")
		return nil
	}
	return key
}

// getEnv retrieves an environment variable or returns a default value
func getEnv(key, defaultValue string) string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	return value
}

// getEnvInt retrieves an environment variable as an integer or returns the default integer value
func getEnvInt(key string, defaultValue int) int {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	intValue, err := strconv.Atoi(value)
	if err != nil {
		log.Printf("Error converting environment variable %s to int: %v", key, err)
		return defaultValue
	}
	return intValue
}
