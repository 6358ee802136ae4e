package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config holds the application configuration.
type Config struct {
	ServerPort     int
	TasksFile      string
	UsersFile      string
	JWTSecret      string
	TokenTTL       time.Duration // zero means tokens never expire
	PasswordHash   string        // "sha256" or "bcrypt"
	AllowedOrigins []string
	LogLevel       string

	BackupPath      string
	BackupSchedule  string // standard cron expression, empty disables backups
	BackupKeep      int
	BackupMinFreeMB uint64
}

// Load reads an optional .env file, then builds the configuration from
// environment variables, falling back to defaults.
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("could not load .env: %w", err)
	}

	port, err := strconv.Atoi(getEnv("PORT", "8080"))
	if err != nil {
		return nil, fmt.Errorf("invalid PORT: %w", err)
	}

	ttl, err := time.ParseDuration(getEnv("TOKEN_TTL", "0s"))
	if err != nil {
		return nil, fmt.Errorf("invalid TOKEN_TTL: %w", err)
	}
	if ttl < 0 {
		return nil, fmt.Errorf("invalid TOKEN_TTL: must not be negative")
	}

	hash := strings.ToLower(getEnv("PASSWORD_HASH", "sha256"))
	if hash != "sha256" && hash != "bcrypt" {
		return nil, fmt.Errorf("invalid PASSWORD_HASH %q: want sha256 or bcrypt", hash)
	}

	keep, err := strconv.Atoi(getEnv("BACKUP_KEEP", "5"))
	if err != nil || keep < 1 {
		return nil, fmt.Errorf("invalid BACKUP_KEEP %q: want a positive integer", os.Getenv("BACKUP_KEEP"))
	}

	minFree, err := strconv.ParseUint(getEnv("BACKUP_MIN_FREE_MB", "0"), 10, 64)
	if err != nil {
		return nil, fmt.Errorf("invalid BACKUP_MIN_FREE_MB: %w", err)
	}

	return &Config{
		ServerPort:      port,
		TasksFile:       getEnv("TASKS_FILE", "./data/tasks.csv"),
		UsersFile:       getEnv("USERS_FILE", "./data/users.csv"),
		JWTSecret:       getEnv("JWT_SECRET", "secret"),
		TokenTTL:        ttl,
		PasswordHash:    hash,
		AllowedOrigins:  splitList(getEnv("CORS_ORIGINS", "http://localhost:3000")),
		LogLevel:        getEnv("LOG_LEVEL", "info"),
		BackupPath:      getEnv("BACKUP_PATH", "./backups"),
		BackupSchedule:  getEnv("BACKUP_SCHEDULE", ""),
		BackupKeep:      keep,
		BackupMinFreeMB: minFree,
	}, nil
}

// Helper to get an environment variable with a default value.
func getEnv(key, fallback string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return fallback
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
