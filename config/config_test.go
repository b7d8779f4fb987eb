package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoadConfig_Defaults(t *testing.T) {
	cfg, err := LoadConfig(t.TempDir())
	if err != nil {
		t.Fatalf("LoadConfig without a file should not fail: %v", err)
	}
	if cfg.Server.HTTPAddress != ":3000" {
		t.Errorf("Expected default http address :3000, got %q", cfg.Server.HTTPAddress)
	}
	if cfg.Server.TickIntervalMS != 200 {
		t.Errorf("Expected default tick interval 200, got %d", cfg.Server.TickIntervalMS)
	}
	if cfg.Game.BoardSize != 10 || cfg.Game.RefreshEvery != 6 {
		t.Errorf("Unexpected game defaults: %+v", cfg.Game)
	}
	if cfg.Database.Enabled {
		t.Error("Database should be disabled by default")
	}
}

func TestLoadConfig_File(t *testing.T) {
	dir := t.TempDir()
	yaml := []byte(`
server:
  http_address: ":9999"
game:
  board_size: 16
database:
  enabled: true
  driver: sql
  postgres:
    port: 6543
`)
	if err := os.WriteFile(filepath.Join(dir, "config.yaml"), yaml, 0o600); err != nil {
		t.Fatal(err)
	}

	cfg, err := LoadConfig(dir)
	if err != nil {
		t.Fatalf("LoadConfig failed: %v", err)
	}
	if cfg.Server.HTTPAddress != ":9999" {
		t.Errorf("Expected :9999, got %q", cfg.Server.HTTPAddress)
	}
	if cfg.Game.BoardSize != 16 {
		t.Errorf("Expected board size 16, got %d", cfg.Game.BoardSize)
	}
	if !cfg.Database.Enabled || cfg.Database.Driver != "sql" || cfg.Database.Postgres.Port != 6543 {
		t.Errorf("Unexpected database config: %+v", cfg.Database)
	}
	if cfg.Game.NumberSeconds != 5 {
		t.Errorf("Unset keys should keep defaults, got number_seconds=%d", cfg.Game.NumberSeconds)
	}
}

func TestLoadConfig_Env(t *testing.T) {
	t.Setenv("INTERSPLICE_GAME_BOARD_SIZE", "24")
	cfg, err := LoadConfig(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Game.BoardSize != 24 {
		t.Errorf("Expected env override 24, got %d", cfg.Game.BoardSize)
	}
}
