package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoadFromDir_MissingFileUsesDefaults(t *testing.T) {
	dir := t.TempDir()
	t.Setenv("RECON_PORT", "")
	t.Setenv("RECON_DATA_DIR", "")
	t.Setenv("RECON_LOG_LEVEL", "")

	cfg, info, err := LoadFromDir(dir)
	if err != nil {
		t.Fatalf("LoadFromDir failed: %v", err)
	}
	if info.Path != "" || info.PortSpecified {
		t.Fatalf("unexpected info: %+v", info)
	}
	if cfg.Inputs.InventoryHeaderRow != 1 || cfg.Inputs.ReturnsSheet != "Sheet1" {
		t.Fatalf("unexpected input defaults: %+v", cfg.Inputs)
	}
	if cfg.Match.FuzzyMaxDistance != 0 || cfg.Recon.BrandSubtotals {
		t.Fatalf("fuzzy matching and subtotals should be off by default")
	}
}

func TestLoadFromDir_TomlAndEnvOverrides(t *testing.T) {
	dir := t.TempDir()
	t.Setenv("RECON_PORT", "")
	t.Setenv("RECON_DATA_DIR", "")
	t.Setenv("RECON_LOG_LEVEL", "")
	// .env 只填充未设置的变量
	os.Unsetenv("RECON_LOG_LEVEL")

	toml := `
[server]
port = 9000

[recon]
brand_subtotals = true

[match]
fuzzy_max_distance = 2
`
	if err := os.WriteFile(filepath.Join(dir, "config.toml"), []byte(toml), 0644); err != nil {
		t.Fatalf("write config failed: %v", err)
	}
	if err := os.WriteFile(filepath.Join(dir, ".env"), []byte("RECON_LOG_LEVEL=debug\n"), 0644); err != nil {
		t.Fatalf("write .env failed: %v", err)
	}

	cfg, info, err := LoadFromDir(dir)
	if err != nil {
		t.Fatalf("LoadFromDir failed: %v", err)
	}
	if !info.PortSpecified || cfg.Server.Port != 9000 {
		t.Fatalf("expected port 9000 from toml, got %d (specified=%v)", cfg.Server.Port, info.PortSpecified)
	}
	if !cfg.Recon.BrandSubtotals || cfg.Match.FuzzyMaxDistance != 2 {
		t.Fatalf("toml sections not applied: %+v %+v", cfg.Recon, cfg.Match)
	}
	if cfg.Log.Level != "debug" {
		t.Fatalf("expected log level from .env, got %q", cfg.Log.Level)
	}
	// 未配置的段保留默认值
	if cfg.Recon.ResultTTL != 30 {
		t.Fatalf("expected default result ttl, got %d", cfg.Recon.ResultTTL)
	}

	t.Setenv("RECON_PORT", "9100")
	cfg, _, err = LoadFromDir(dir)
	if err != nil {
		t.Fatalf("LoadFromDir failed: %v", err)
	}
	if cfg.Server.Port != 9100 {
		t.Fatalf("expected env port override, got %d", cfg.Server.Port)
	}
}

func TestResolveDataDir(t *testing.T) {
	t.Parallel()

	cfg := DefaultConfig()
	if got := ResolveDataDir(cfg, "/opt/recon"); got != filepath.Join("/opt/recon", "data") {
		t.Fatalf("unexpected relative data dir: %s", got)
	}
	cfg.Data.DataDir = "/var/lib/recon"
	if got := ResolveDataDir(cfg, "/opt/recon"); got != "/var/lib/recon" {
		t.Fatalf("unexpected absolute data dir: %s", got)
	}
	if cfg.MaxUploadBytes() != 64<<20 {
		t.Fatalf("unexpected upload limit: %d", cfg.MaxUploadBytes())
	}
}
