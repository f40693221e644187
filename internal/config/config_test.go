package config

import (
	"strings"
	"testing"
	"time"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("JWT_SECRET", "s3cret")
	t.Setenv("DB_PASSWORD", "pw")

	cfg, err := Load()
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Database.Driver != DriverPostgres {
		t.Fatalf("expected postgres driver, got %q", cfg.Database.Driver)
	}
	if cfg.Database.URL != "postgres://caseboard:pw@localhost:5432/caseboard?sslmode=disable" {
		t.Fatalf("unexpected url %q", cfg.Database.URL)
	}
	if cfg.Events.SyncInterval != 30*time.Second || cfg.Events.MaxRetries != 3 {
		t.Fatalf("unexpected events config %+v", cfg.Events)
	}
	if cfg.Address() != "0.0.0.0:8080" {
		t.Fatalf("unexpected address %q", cfg.Address())
	}
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("JWT_SECRET", "s3cret")
	t.Setenv("DB_DRIVER", "SQLite")
	t.Setenv("SQLITE_PATH", "/tmp/cases.db")
	t.Setenv("EVENTS_SYNC_INTERVAL", "5")
	t.Setenv("JWT_TOKEN_TTL", "90m")
	t.Setenv("DATABASE_URL", "postgres://elsewhere/db")

	cfg, err := Load()
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Database.Driver != DriverSQLite || cfg.SQLite.Path != "/tmp/cases.db" {
		t.Fatalf("unexpected store config %+v / %+v", cfg.Database, cfg.SQLite)
	}
	if cfg.Events.SyncInterval != 5*time.Second {
		t.Fatalf("expected bare seconds to parse, got %v", cfg.Events.SyncInterval)
	}
	if cfg.JWT.TokenTTL != 90*time.Minute {
		t.Fatalf("expected 90m ttl, got %v", cfg.JWT.TokenTTL)
	}
	if cfg.Database.URL != "postgres://elsewhere/db" {
		t.Fatalf("explicit DATABASE_URL must win, got %q", cfg.Database.URL)
	}
}

func TestValidate(t *testing.T) {
	t.Setenv("JWT_SECRET", "")
	t.Setenv("DB_DRIVER", "mysql")

	_, err := Load()
	if err == nil {
		t.Fatal("expected validation error")
	}
	for _, want := range []string{"JWT_SECRET", "mysql"} {
		if !strings.Contains(err.Error(), want) {
			t.Fatalf("expected %q in %v", want, err)
		}
	}
}
