package config

import (
	"crypto/rand"
	"encoding/hex"
	"flag"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config holds all configuration settings for the application.
type Config struct {
	// Server settings
	ListenAddress string
	ListenPort    string

	// Store settings
	StoreFilePath string
	SaveInterval  time.Duration
	EnableBackup  bool
	MaxStoreBytes int64

	// Account and session settings
	SessionTimeout    time.Duration
	MinPasswordLength int

	// Sync settings
	SyncDebounce   time.Duration
	SyncInterval   time.Duration
	SyncGraceDelay time.Duration

	// Authentication settings
	JwtSecret     string // The actual secret key
	JwtSecretFile string // Path to the file containing the secret
	TokenLifetime time.Duration
}

const (
	defaultAddress        = "0.0.0.0"
	defaultPort           = "8080"
	defaultStoreFile      = "./animevault.json" // Relative to working dir
	defaultSaveInterval   = 3 * time.Second
	defaultEnableBackup   = true
	defaultMaxStoreBytes  = int64(0) // 0 = unlimited
	defaultSessionTimeout = 24 * time.Hour
	defaultMinPassword    = 6
	defaultSyncDebounce   = 1 * time.Second
	defaultSyncInterval   = 30 * time.Second
	defaultSyncGrace      = 10 * time.Second
	defaultJwtSecretFile  = ""                 // No default file
	defaultJwtKeyFile     = "./animevault.key" // Default file if we generate a key
	defaultTokenLifetime  = 24 * time.Hour
)

// LoadConfig loads configuration from defaults, a .env file, environment
// variables, and the given command-line arguments. Flags take precedence
// over environment variables, which take precedence over defaults.
func LoadConfig(args []string) (*Config, error) {
	// A .env file is optional; when present it only fills unset variables.
	if err := godotenv.Load(); err == nil {
		log.Printf("INFO: Loaded environment from .env file")
	}

	cfg := &Config{}
	fs := flag.NewFlagSet("animevault", flag.ContinueOnError)

	// ANIMEVAULT_ prefix for environment variables to avoid conflicts
	fs.StringVar(&cfg.ListenAddress, "address", getEnv("ANIMEVAULT_LISTEN_ADDRESS", defaultAddress), "Server listen address (Env: ANIMEVAULT_LISTEN_ADDRESS)")
	fs.StringVar(&cfg.ListenPort, "port", getEnv("ANIMEVAULT_LISTEN_PORT", defaultPort), "Server listen port (Env: ANIMEVAULT_LISTEN_PORT)")
	fs.StringVar(&cfg.StoreFilePath, "store-file", getEnv("ANIMEVAULT_STORE_FILE_PATH", defaultStoreFile), "Path to the JSON store file (Env: ANIMEVAULT_STORE_FILE_PATH)")
	saveIntervalStr := fs.String("save-interval", getEnv("ANIMEVAULT_SAVE_INTERVAL", defaultSaveInterval.String()), "Debounce interval for saving the store (e.g., 5s, 100ms) (Env: ANIMEVAULT_SAVE_INTERVAL)")
	fs.BoolVar(&cfg.EnableBackup, "enable-backup", getEnvBool("ANIMEVAULT_ENABLE_BACKUP", defaultEnableBackup), "Enable store backup (.bak file) before saving (Env: ANIMEVAULT_ENABLE_BACKUP)")
	fs.Int64Var(&cfg.MaxStoreBytes, "max-store-bytes", getEnvInt64("ANIMEVAULT_MAX_STORE_BYTES", defaultMaxStoreBytes), "Store size budget in bytes, 0 for unlimited (Env: ANIMEVAULT_MAX_STORE_BYTES)")
	sessionTimeoutStr := fs.String("session-timeout", getEnv("ANIMEVAULT_SESSION_TIMEOUT", defaultSessionTimeout.String()), "Session inactivity timeout (Env: ANIMEVAULT_SESSION_TIMEOUT)")
	fs.IntVar(&cfg.MinPasswordLength, "min-password-length", int(getEnvInt64("ANIMEVAULT_MIN_PASSWORD_LENGTH", defaultMinPassword)), "Minimum account password length (Env: ANIMEVAULT_MIN_PASSWORD_LENGTH)")
	syncDebounceStr := fs.String("sync-debounce", getEnv("ANIMEVAULT_SYNC_DEBOUNCE", defaultSyncDebounce.String()), "Debounce interval for snapshot writes (Env: ANIMEVAULT_SYNC_DEBOUNCE)")
	syncIntervalStr := fs.String("sync-interval", getEnv("ANIMEVAULT_SYNC_INTERVAL", defaultSyncInterval.String()), "Background sync check interval (Env: ANIMEVAULT_SYNC_INTERVAL)")
	syncGraceStr := fs.String("sync-grace", getEnv("ANIMEVAULT_SYNC_GRACE", defaultSyncGrace.String()), "Delay before the first background sync check (Env: ANIMEVAULT_SYNC_GRACE)")
	fs.StringVar(&cfg.JwtSecretFile, "jwt-secret-file", getEnv("ANIMEVAULT_JWT_SECRET_FILE", defaultJwtSecretFile), "Path to file containing JWT secret key (overrides ANIMEVAULT_JWT_SECRET env var) (Env: ANIMEVAULT_JWT_SECRET_FILE)")
	tokenLifetimeStr := fs.String("token-lifetime", getEnv("ANIMEVAULT_TOKEN_LIFETIME", defaultTokenLifetime.String()), "JWT token lifetime (Env: ANIMEVAULT_TOKEN_LIFETIME)")

	if err := fs.Parse(args); err != nil {
		return nil, err
	}

	cfg.SaveInterval = parseDurationOr("save-interval", *saveIntervalStr, defaultSaveInterval)
	cfg.SessionTimeout = parseDurationOr("session-timeout", *sessionTimeoutStr, defaultSessionTimeout)
	cfg.SyncDebounce = parseDurationOr("sync-debounce", *syncDebounceStr, defaultSyncDebounce)
	cfg.SyncInterval = parseDurationOr("sync-interval", *syncIntervalStr, defaultSyncInterval)
	cfg.SyncGraceDelay = parseDurationOr("sync-grace", *syncGraceStr, defaultSyncGrace)
	cfg.TokenLifetime = parseDurationOr("token-lifetime", *tokenLifetimeStr, defaultTokenLifetime)

	if cfg.MinPasswordLength < 1 {
		log.Printf("WARN: Invalid min-password-length %d. Using default %d.", cfg.MinPasswordLength, defaultMinPassword)
		cfg.MinPasswordLength = defaultMinPassword
	}

	// --- JWT Secret Handling ---
	// Priority: File (CLI/Env) > Env Var > Default Key File > Generate
	var secretSource string

	// 1. Check explicit file path (from flag or ANIMEVAULT_JWT_SECRET_FILE env)
	if cfg.JwtSecretFile != "" {
		secretBytes, err := os.ReadFile(cfg.JwtSecretFile)
		if err == nil {
			cfg.JwtSecret = strings.TrimSpace(string(secretBytes))
			if cfg.JwtSecret != "" {
				log.Printf("INFO: Loaded JWT secret from specified file: %s", cfg.JwtSecretFile)
				secretSource = fmt.Sprintf("File (%s)", cfg.JwtSecretFile)
			} else {
				log.Printf("WARN: Specified JWT secret file '%s' is empty or contains only whitespace. Ignoring.", cfg.JwtSecretFile)
			}
		} else {
			log.Printf("WARN: Failed to read specified JWT secret file '%s': %v. Checking other sources.", cfg.JwtSecretFile, err)
		}
	}

	// 2. Check environment variable (ANIMEVAULT_JWT_SECRET) if not loaded from file
	if cfg.JwtSecret == "" {
		cfg.JwtSecret = strings.TrimSpace(getEnv("ANIMEVAULT_JWT_SECRET", ""))
		if cfg.JwtSecret != "" {
			log.Printf("INFO: Loaded JWT secret from ANIMEVAULT_JWT_SECRET environment variable.")
			secretSource = "Environment Variable (ANIMEVAULT_JWT_SECRET)"
		}
	}

	// 3. Check default key file if still no secret
	if cfg.JwtSecret == "" {
		secretBytes, err := os.ReadFile(defaultJwtKeyFile)
		if err == nil {
			cfg.JwtSecret = strings.TrimSpace(string(secretBytes))
			if cfg.JwtSecret != "" {
				log.Printf("INFO: Loaded JWT secret from default key file: %s", defaultJwtKeyFile)
				secretSource = fmt.Sprintf("Default Key File (%s)", defaultJwtKeyFile)
			} else {
				log.Printf("WARN: Default JWT key file '%s' is empty or contains only whitespace. Will attempt generation.", defaultJwtKeyFile)
			}
		} else if !os.IsNotExist(err) {
			log.Printf("WARN: Failed to read default JWT key file '%s': %v. Will attempt generation.", defaultJwtKeyFile, err)
		}
	}

	// 4. Generate secret if still not found and save to default file
	if cfg.JwtSecret == "" {
		log.Printf("INFO: JWT secret not found via file, environment variable, or default key file. Generating a new secret...")
		newSecret, err := generateRandomKey(32)
		if err != nil {
			return nil, fmt.Errorf("failed to generate JWT secret: %w", err)
		}
		cfg.JwtSecret = newSecret
		secretSource = "Generated (In Memory)"

		if err := os.WriteFile(defaultJwtKeyFile, []byte(newSecret), 0600); err != nil {
			log.Printf("WARN: Failed to save generated JWT secret to '%s': %v. The server will use the generated key for this session only.", defaultJwtKeyFile, err)
		} else {
			log.Printf("INFO: Successfully generated and saved new JWT secret to: %s", defaultJwtKeyFile)
			secretSource = fmt.Sprintf("Generated & Saved (%s)", defaultJwtKeyFile)
		}
	}

	if cfg.JwtSecret == "" {
		return nil, fmt.Errorf("failed to obtain a valid JWT secret after checking all sources and attempting generation")
	}

	// --- Store Path Validation ---
	absStorePath, err := filepath.Abs(cfg.StoreFilePath)
	if err != nil {
		return nil, fmt.Errorf("could not determine absolute path for store-file '%s': %w", cfg.StoreFilePath, err)
	}
	cfg.StoreFilePath = absStorePath

	fileInfo, err := os.Stat(cfg.StoreFilePath)
	if err == nil && fileInfo.IsDir() {
		return nil, fmt.Errorf("store path '%s' points to a directory, not a file", cfg.StoreFilePath)
	}
	// A missing file is fine: the store creates it on first save.

	logConfiguration(cfg, secretSource)

	return cfg, nil
}

// getEnv retrieves an environment variable or returns a default value.
func getEnv(key, fallback string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return fallback
}

// getEnvBool retrieves a boolean environment variable or returns a default value.
// Recognizes "true", "1", "yes" (case-insensitive) as true.
func getEnvBool(key string, fallback bool) bool {
	if value, exists := os.LookupEnv(key); exists {
		switch strings.ToLower(value) {
		case "true", "1", "yes":
			return true
		case "false", "0", "no":
			return false
		}
		log.Printf("WARN: Invalid boolean value for environment variable %s: '%s'. Using default: %t", key, value, fallback)
	}
	return fallback
}

// getEnvInt64 retrieves an integer environment variable or returns a default value.
func getEnvInt64(key string, fallback int64) int64 {
	if value, exists := os.LookupEnv(key); exists {
		n, err := strconv.ParseInt(value, 10, 64)
		if err == nil {
			return n
		}
		log.Printf("WARN: Invalid integer value for environment variable %s: '%s'. Using default: %d", key, value, fallback)
	}
	return fallback
}

func parseDurationOr(name, value string, fallback time.Duration) time.Duration {
	d, err := time.ParseDuration(value)
	if err != nil {
		log.Printf("WARN: Invalid %s duration '%s'. Using default %s. Error: %v", name, value, fallback, err)
		return fallback
	}
	return d
}

// logConfiguration prints the loaded configuration settings.
func logConfiguration(cfg *Config, secretSource string) {
	log.Println("--- Configuration ---")
	log.Printf("Server Address: %s", cfg.ListenAddress)
	log.Printf("Server Port: %s", cfg.ListenPort)
	log.Printf("Store File: %s", cfg.StoreFilePath)
	log.Printf("Store Save Interval: %s", cfg.SaveInterval)
	log.Printf("Store Backup Enabled: %t", cfg.EnableBackup)
	if cfg.MaxStoreBytes > 0 {
		log.Printf("Store Size Budget: %d bytes", cfg.MaxStoreBytes)
	} else {
		log.Printf("Store Size Budget: unlimited")
	}
	log.Printf("Session Timeout: %s", cfg.SessionTimeout)
	log.Printf("Minimum Password Length: %d", cfg.MinPasswordLength)
	log.Printf("Sync Debounce: %s", cfg.SyncDebounce)
	log.Printf("Sync Check Interval: %s", cfg.SyncInterval)
	log.Printf("Sync Startup Grace: %s", cfg.SyncGraceDelay)
	log.Printf("JWT Secret Source: %s", secretSource)
	log.Printf("JWT Token Lifetime: %s", cfg.TokenLifetime)
	log.Println("---------------------")
}

// generateRandomKey generates a cryptographically secure random key of the
// specified byte length and returns it as a hex-encoded string.
func generateRandomKey(length int) (string, error) {
	bytes := make([]byte, length)
	if _, err := rand.Read(bytes); err != nil {
		return "", fmt.Errorf("failed to read random bytes: %w", err)
	}
	return hex.EncodeToString(bytes), nil
}
