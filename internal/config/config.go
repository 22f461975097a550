package config

import (
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

type Config struct {
	// HTTP Server
	Port string

	// Database
	SQLiteDBPath string

	// Remote document store (GitHub Gist)
	GistToken    string
	GistID       string
	GistFilename string

	// Sync
	PollInterval time.Duration

	// Dashboard starting balances
	StartingCash decimal.Decimal
	StartingUPI  decimal.Decimal

	// Users, comma-separated "user:pass:Display Name" entries
	Users []string

	// AMQP (optional)
	AMQPURL      string
	AMQPExchange string
	AMQPQueue    string
}

func Load() *Config {
	cfg := &Config{
		Port:         getEnv("PORT", "8081"),
		SQLiteDBPath: getEnv("SQLITE_DB_PATH", "./data/bizbook.db"),

		GistToken:    getEnv("GIST_TOKEN", ""),
		GistID:       getEnv("GIST_ID", ""),
		GistFilename: getEnv("GIST_FILENAME", "business-data.json"),

		PollInterval: getEnvDuration("POLL_INTERVAL", 30*time.Second),

		StartingCash: getEnvDecimal("STARTING_CASH", decimal.Zero),
		StartingUPI:  getEnvDecimal("STARTING_UPI", decimal.Zero),

		Users: getEnvList("USERS"),

		AMQPURL:      getEnv("AMQP_URL", ""),
		AMQPExchange: getEnv("AMQP_EXCHANGE", "bizbook"),
		AMQPQueue:    getEnv("AMQP_QUEUE", "record_events"),
	}

	return cfg
}

// RemoteConfigured reports whether gist credentials are complete.
func (c *Config) RemoteConfigured() bool {
	return c.GistToken != "" && c.GistID != ""
}

// Validate validates the configuration and returns an error if invalid
func (c *Config) Validate() error {
	var errors []string

	// Validate port
	if port, err := strconv.Atoi(c.Port); err != nil {
		errors = append(errors, fmt.Sprintf("invalid port '%s': must be a number", c.Port))
	} else if port < 1 || port > 65535 {
		errors = append(errors, fmt.Sprintf("invalid port %d: must be between 1 and 65535", port))
	}

	// Validate SQLite path
	if c.SQLiteDBPath == "" {
		errors = append(errors, "SQLite database path cannot be empty")
	} else {
		// Check if directory exists or can be created
		dir := filepath.Dir(c.SQLiteDBPath)
		if dir != "." && dir != "" {
			if _, err := os.Stat(dir); os.IsNotExist(err) {
				if err := os.MkdirAll(dir, 0755); err != nil {
					errors = append(errors, fmt.Sprintf("cannot create SQLite database directory '%s': %v", dir, err))
				}
			}
		}
	}

	// Gist credentials come as a pair
	if c.GistToken != "" && c.GistID == "" {
		errors = append(errors, "GIST_ID is required when GIST_TOKEN is provided")
	}
	if c.GistID != "" && c.GistToken == "" {
		errors = append(errors, "GIST_TOKEN is required when GIST_ID is provided")
	}
	if c.RemoteConfigured() && c.GistFilename == "" {
		errors = append(errors, "gist filename cannot be empty when the remote store is configured")
	}

	// Validate poll interval
	if c.PollInterval < time.Second {
		errors = append(errors, fmt.Sprintf("invalid poll interval %v: must be at least 1 second", c.PollInterval))
	} else if c.PollInterval > 24*time.Hour {
		errors = append(errors, fmt.Sprintf("invalid poll interval %v: must be at most 24 hours", c.PollInterval))
	}

	// Starting balances cannot be negative
	if c.StartingCash.IsNegative() {
		errors = append(errors, fmt.Sprintf("invalid starting cash %s: cannot be negative", c.StartingCash))
	}
	if c.StartingUPI.IsNegative() {
		errors = append(errors, fmt.Sprintf("invalid starting UPI balance %s: cannot be negative", c.StartingUPI))
	}

	// Validate user entries
	for _, entry := range c.Users {
		parts := strings.SplitN(entry, ":", 3)
		if len(parts) < 2 || parts[0] == "" || parts[1] == "" {
			errors = append(errors, fmt.Sprintf("malformed user entry '%s': want user:pass:Display Name", entry))
		}
	}

	// Validate AMQP URL if provided
	if c.AMQPURL != "" {
		if parsedURL, err := url.Parse(c.AMQPURL); err != nil {
			errors = append(errors, fmt.Sprintf("invalid AMQP URL '%s': %v", c.AMQPURL, err))
		} else if parsedURL.Scheme != "amqp" && parsedURL.Scheme != "amqps" {
			errors = append(errors, fmt.Sprintf("invalid AMQP URL scheme '%s': must be 'amqp' or 'amqps'", parsedURL.Scheme))
		}

		if c.AMQPExchange == "" {
			errors = append(errors, "AMQP exchange name cannot be empty when AMQP URL is provided")
		}
		if c.AMQPQueue == "" {
			errors = append(errors, "AMQP queue name cannot be empty when AMQP URL is provided")
		}
	}

	// Return combined errors
	if len(errors) > 0 {
		return fmt.Errorf("configuration validation failed:\n- %s", strings.Join(errors, "\n- "))
	}

	return nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return defaultValue
}

func getEnvDecimal(key string, defaultValue decimal.Decimal) decimal.Decimal {
	if value := os.Getenv(key); value != "" {
		if d, err := decimal.NewFromString(value); err == nil {
			return d
		}
	}
	return defaultValue
}

func getEnvList(key string) []string {
	value := os.Getenv(key)
	if value == "" {
		return nil
	}
	var out []string
	for _, part := range strings.Split(value, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
