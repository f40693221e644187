package store

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/fastygo/caseboard/domain"
	"github.com/fastygo/caseboard/internal/config"
)

func TestOpenSQLite(t *testing.T) {
	cfg := &config.Config{
		Database: config.DatabaseConfig{Driver: config.DriverSQLite},
		SQLite:   config.SQLiteConfig{Path: filepath.Join(t.TempDir(), "data", "cases.db")},
	}
	stores, err := Open(context.Background(), cfg, nil)
	if err != nil {
		t.Fatal(err)
	}
	defer stores.Close()

	ctx := context.Background()
	if err := stores.Pinger.Ping(ctx); err != nil {
		t.Fatalf("ping: %v", err)
	}
	u := &domain.User{Email: "a@example.com", Role: domain.RoleStandard, Enabled: true}
	if err := stores.Directory.UpsertUser(ctx, u); err != nil {
		t.Fatal(err)
	}
	if role, err := stores.Directory.RoleOf(ctx, u.ID); err != nil || role != domain.RoleStandard {
		t.Fatalf("RoleOf: %v, %v", role, err)
	}
	if all, err := stores.Tasks.GetAll(ctx); err != nil || len(all) != 0 {
		t.Fatalf("GetAll: %d, %v", len(all), err)
	}
}

func TestOpenUnknownDriver(t *testing.T) {
	cfg := &config.Config{Database: config.DatabaseConfig{Driver: "oracle"}}
	if _, err := Open(context.Background(), cfg, nil); err == nil {
		t.Fatal("expected error for unknown driver")
	}
}
