package config

import (
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"slices"
	"strconv"
	"strings"
	"time"
)

type Config struct {
	// HTTP Server
	Port               string
	MaxUploadBytes     int64
	RateLimitPerMinute int

	// Categories document
	CategoriesFile string
	StrictKeywords bool

	// Logging
	LogLevel string

	// Statement sessions
	SessionTTL time.Duration
	SessionMax int

	// AMQP rule events; disabled when AMQPURL is empty
	AMQPURL      string
	AMQPExchange string
	AMQPQueue    string
}

var validLogLevels = []string{"debug", "info", "warn", "error"}

func Load() *Config {
	return &Config{
		Port:               getEnv("PORT", "8081"),
		MaxUploadBytes:     int64(getEnvInt("MAX_UPLOAD_BYTES", 10<<20)),
		RateLimitPerMinute: getEnvInt("RATE_LIMIT_PER_MINUTE", 60),

		CategoriesFile: getEnv("CATEGORIES_FILE", "./data/categories.json"),
		StrictKeywords: getEnvBool("STRICT_KEYWORDS", false),

		LogLevel: strings.ToLower(getEnv("LOG_LEVEL", "info")),

		SessionTTL: getEnvDuration("SESSION_TTL", 30*time.Minute),
		SessionMax: getEnvInt("SESSION_MAX", 100),

		AMQPURL:      getEnv("AMQP_URL", ""),
		AMQPExchange: getEnv("AMQP_EXCHANGE", "burnrate"),
		AMQPQueue:    getEnv("AMQP_QUEUE", "rule_events"),
	}
}

// AMQPEnabled reports whether rule events should be published.
func (c *Config) AMQPEnabled() bool {
	return c.AMQPURL != ""
}

// Validate validates the configuration and returns every problem in one error.
func (c *Config) Validate() error {
	var errors []string

	if port, err := strconv.Atoi(c.Port); err != nil {
		errors = append(errors, fmt.Sprintf("invalid port '%s': must be a number", c.Port))
	} else if port < 1 || port > 65535 {
		errors = append(errors, fmt.Sprintf("invalid port %d: must be between 1 and 65535", port))
	}

	if c.MaxUploadBytes < 1024 {
		errors = append(errors, fmt.Sprintf("invalid max upload size %d: must be at least 1024 bytes", c.MaxUploadBytes))
	}

	if c.RateLimitPerMinute < 1 {
		errors = append(errors, fmt.Sprintf("invalid rate limit %d: must be at least 1 request per minute", c.RateLimitPerMinute))
	}

	if c.CategoriesFile == "" {
		errors = append(errors, "categories file path cannot be empty")
	} else {
		dir := filepath.Dir(c.CategoriesFile)
		if dir != "." && dir != "" {
			if _, err := os.Stat(dir); os.IsNotExist(err) {
				if err := os.MkdirAll(dir, 0755); err != nil {
					errors = append(errors, fmt.Sprintf("cannot create categories directory '%s': %v", dir, err))
				}
			}
		}
	}

	if !slices.Contains(validLogLevels, c.LogLevel) {
		errors = append(errors, fmt.Sprintf("invalid log level '%s': must be one of %v", c.LogLevel, validLogLevels))
	}

	if c.SessionTTL < time.Minute {
		errors = append(errors, fmt.Sprintf("invalid session TTL %v: must be at least 1 minute", c.SessionTTL))
	} else if c.SessionTTL > 24*time.Hour {
		errors = append(errors, fmt.Sprintf("invalid session TTL %v: must be at most 24 hours", c.SessionTTL))
	}

	if c.SessionMax < 1 {
		errors = append(errors, fmt.Sprintf("invalid session max %d: must be at least 1", c.SessionMax))
	} else if c.SessionMax > 10000 {
		errors = append(errors, fmt.Sprintf("invalid session max %d: must be at most 10000", c.SessionMax))
	}

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

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if i, err := strconv.Atoi(value); err == nil {
			return i
		}
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

func getEnvBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if b, err := strconv.ParseBool(value); err == nil {
			return b
		}
	}
	return defaultValue
}
