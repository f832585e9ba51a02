package config

import (
	"errors"
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Config holds application settings from the config file and environment.
type Config struct {
	DatabaseDriver string `yaml:"database_driver"`
	DatabaseURL    string `yaml:"database_url"`
	HTTPAddr       string `yaml:"http_addr"`

	SessionHashKey      string        `yaml:"session_hash_key"`
	SessionBlockKey     string        `yaml:"session_block_key"`
	SessionTTL          time.Duration `yaml:"session_ttl"`
	SessionCookieSecure bool          `yaml:"session_cookie_secure"`
	JWTSecret           string        `yaml:"jwt_secret"`
	JWTTTL              time.Duration `yaml:"jwt_ttl"`

	BotToken string `yaml:"bot_token"`

	KafkaBrokers []string `yaml:"kafka_brokers"`
	KafkaTopic   string   `yaml:"kafka_topic"`

	RedisAddr     string `yaml:"redis_addr"`
	RedisPassword string `yaml:"redis_password"`
	RedisDB       int    `yaml:"redis_db"`

	LogLevel string `yaml:"log_level"`
	LogFile  string `yaml:"log_file"`
}

// Default returns the settings used when nothing overrides them.
func Default() Config {
	return Config{
		DatabaseDriver: "postgres",
		HTTPAddr:       ":8080",
		SessionTTL:     24 * time.Hour,
		JWTTTL:         time.Hour,
		KafkaTopic:     "notio.notes",
		LogLevel:       "info",
	}
}

// Load reads the YAML file at path when path is set, then .env from the
// working directory, then environment variables, each overriding the last.
func Load(path string) (Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return Config{}, fmt.Errorf("read config file (%s): %w", path, err)
		}
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return Config{}, fmt.Errorf("parse config file (%s): %w", path, err)
		}
	}

	if err := godotenv.Load(".env"); err != nil && !errors.Is(err, os.ErrNotExist) {
		log.Printf(".env not loaded: %v", err)
	}

	if err := applyEnv(&cfg); err != nil {
		return Config{}, err
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate checks settings that have no usable default.
func (c Config) Validate() error {
	var problems []string
	if c.DatabaseURL == "" {
		problems = append(problems, "DATABASE_URL is not set")
	}
	if c.DatabaseDriver != "postgres" && c.DatabaseDriver != "sqlite" {
		problems = append(problems, fmt.Sprintf("DATABASE_DRIVER %q is not one of postgres, sqlite", c.DatabaseDriver))
	}
	if c.JWTSecret == "" {
		problems = append(problems, "JWT_SECRET is not set")
	}
	switch len(c.SessionBlockKey) {
	case 0, 16, 24, 32:
	default:
		problems = append(problems, "SESSION_BLOCK_KEY must be 16, 24 or 32 bytes")
	}
	if len(problems) > 0 {
		return errors.New(strings.Join(problems, "; "))
	}
	return nil
}

// applyEnv overrides cfg with the environment variables that are set.
func applyEnv(cfg *Config) error {
	setString(&cfg.DatabaseDriver, "DATABASE_DRIVER")
	setString(&cfg.DatabaseURL, "DATABASE_URL")
	setString(&cfg.HTTPAddr, "HTTP_ADDR")
	setString(&cfg.SessionHashKey, "SESSION_HASH_KEY")
	setString(&cfg.SessionBlockKey, "SESSION_BLOCK_KEY")
	setString(&cfg.JWTSecret, "JWT_SECRET")
	setString(&cfg.BotToken, "BOT_TOKEN")
	setString(&cfg.KafkaTopic, "KAFKA_TOPIC")
	setString(&cfg.RedisAddr, "REDIS_ADDR")
	setString(&cfg.RedisPassword, "REDIS_PASSWORD")
	setString(&cfg.LogLevel, "LOG_LEVEL")
	setString(&cfg.LogFile, "LOG_FILE")

	if value := os.Getenv("KAFKA_BROKERS"); value != "" {
		cfg.KafkaBrokers = splitList(value)
	}

	var err error
	if cfg.SessionTTL, err = durationOr("SESSION_TTL", cfg.SessionTTL); err != nil {
		return err
	}
	if cfg.JWTTTL, err = durationOr("JWT_TTL", cfg.JWTTTL); err != nil {
		return err
	}
	if value := os.Getenv("REDIS_DB"); value != "" {
		if cfg.RedisDB, err = strconv.Atoi(value); err != nil {
			return fmt.Errorf("REDIS_DB: %w", err)
		}
	}
	if value := os.Getenv("SESSION_COOKIE_SECURE"); value != "" {
		if cfg.SessionCookieSecure, err = strconv.ParseBool(value); err != nil {
			return fmt.Errorf("SESSION_COOKIE_SECURE: %w", err)
		}
	}
	return nil
}

// setString replaces *dst with the environment variable key when it is set.
func setString(dst *string, key string) {
	if value := os.Getenv(key); value != "" {
		*dst = value
	}
}

// durationOr parses the environment variable key or returns fallback.
func durationOr(key string, fallback time.Duration) (time.Duration, error) {
	value := os.Getenv(key)
	if value == "" {
		return fallback, nil
	}
	d, err := time.ParseDuration(value)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", key, err)
	}
	return d, nil
}

// splitList splits a comma separated list and drops empty items.
func splitList(value string) []string {
	var items []string
	for _, item := range strings.Split(value, ",") {
		if item = strings.TrimSpace(item); item != "" {
			items = append(items, item)
		}
	}
	return items
}
