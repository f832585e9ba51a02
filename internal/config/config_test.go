package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func clearEnv(t *testing.T) {
	t.Helper()
	for _, key := range []string{
		"DATABASE_DRIVER", "DATABASE_URL", "HTTP_ADDR", "SESSION_HASH_KEY", "SESSION_BLOCK_KEY",
		"SESSION_TTL", "SESSION_COOKIE_SECURE", "JWT_SECRET", "JWT_TTL", "BOT_TOKEN",
		"KAFKA_BROKERS", "KAFKA_TOPIC", "REDIS_ADDR", "REDIS_PASSWORD", "REDIS_DB",
		"LOG_LEVEL", "LOG_FILE",
	} {
		t.Setenv(key, "")
	}
}

func TestLoadFromEnvironment(t *testing.T) {
	clearEnv(t)
	t.Setenv("DATABASE_URL", "postgres://notio@localhost/notio")
	t.Setenv("JWT_SECRET", "secret")
	t.Setenv("JWT_TTL", "15m")
	t.Setenv("KAFKA_BROKERS", "k1:9092, k2:9092,")
	t.Setenv("REDIS_DB", "3")

	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.HTTPAddr != ":8080" || cfg.DatabaseDriver != "postgres" {
		t.Fatalf("defaults not applied: %+v", cfg)
	}
	if cfg.JWTTTL != 15*time.Minute {
		t.Fatalf("expected 15m token ttl, got %v", cfg.JWTTTL)
	}
	if len(cfg.KafkaBrokers) != 2 || cfg.KafkaBrokers[1] != "k2:9092" {
		t.Fatalf("unexpected brokers %v", cfg.KafkaBrokers)
	}
	if cfg.RedisDB != 3 {
		t.Fatalf("expected redis db 3, got %d", cfg.RedisDB)
	}
}

func TestLoadFileThenEnvironment(t *testing.T) {
	clearEnv(t)
	path := filepath.Join(t.TempDir(), "notio.yaml")
	content := strings.Join([]string{
		"database_driver: sqlite",
		"database_url: file:notio.db",
		"jwt_secret: from-file",
		"session_ttl: 2h",
		"http_addr: :9000",
	}, "\n")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}
	t.Setenv("HTTP_ADDR", ":9100")

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.DatabaseDriver != "sqlite" || cfg.JWTSecret != "from-file" || cfg.SessionTTL != 2*time.Hour {
		t.Fatalf("file values not applied: %+v", cfg)
	}
	if cfg.HTTPAddr != ":9100" {
		t.Fatalf("environment should override file, got %q", cfg.HTTPAddr)
	}
}

func TestLoadReportsMissingSettings(t *testing.T) {
	clearEnv(t)
	_, err := Load("")
	if err == nil {
		t.Fatal("expected validation error")
	}
	for _, want := range []string{"DATABASE_URL", "JWT_SECRET"} {
		if !strings.Contains(err.Error(), want) {
			t.Errorf("error %q does not mention %s", err, want)
		}
	}
}

func TestLoadRejectsBadDuration(t *testing.T) {
	clearEnv(t)
	t.Setenv("DATABASE_URL", "x")
	t.Setenv("JWT_SECRET", "y")
	t.Setenv("SESSION_TTL", "forever")
	if _, err := Load(""); err == nil {
		t.Fatal("expected error for bad duration")
	}
}
