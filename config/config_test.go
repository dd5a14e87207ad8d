package config

import (
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestDefault(t *testing.T) {
	cfg := Default()
	if cfg.Resolver.Frames != 60 {
		t.Errorf("frames: got %d, want 60", cfg.Resolver.Frames)
	}
	if len(cfg.Resolver.Checkpoints) != 4 || cfg.Resolver.Checkpoints[3] != time.Second {
		t.Errorf("checkpoints: %v", cfg.Resolver.Checkpoints)
	}
	if cfg.Placement.Spacing != 12 || cfg.Placement.EdgePadding != 8 {
		t.Errorf("layout: %+v", cfg.Placement.Layout)
	}
	if cfg.Placement.Threshold != 1 {
		t.Errorf("threshold: %v", cfg.Placement.Threshold)
	}
	if cfg.Server.Addr != ":8090" {
		t.Errorf("addr: %q", cfg.Server.Addr)
	}
}

func TestLoadFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "anchorage.yaml")
	data := []byte(`
store:
  path: /tmp/a.db
resolver:
  frames: 30
  checkpoints: [100ms, 2s]
placement:
  spacing: 20
  callout_width: 300
browser:
  remote: ws://127.0.0.1:9222
log:
  level: debug
`)
	if err := os.WriteFile(path, data, 0o644); err != nil {
		t.Fatal(err)
	}
	cfg, err := LoadFile(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Store.Path != "/tmp/a.db" {
		t.Errorf("store path: %q", cfg.Store.Path)
	}
	s := cfg.Schedule()
	if s.Frames != 30 || len(s.Checkpoints) != 2 || s.Checkpoints[1] != 2*time.Second {
		t.Errorf("schedule: %+v", s)
	}
	if cfg.Placement.Spacing != 20 || cfg.Placement.EdgePadding != 8 {
		t.Errorf("placement: %+v", cfg.Placement)
	}
	if cfg.Placement.CalloutWidth != 300 || cfg.Placement.CalloutHeight != 120 {
		t.Errorf("callout: %+v", cfg.Placement)
	}
	if cfg.Browser.Remote != "ws://127.0.0.1:9222" || cfg.Browser.Stealth != "headless" {
		t.Errorf("browser: %+v", cfg.Browser)
	}
	if cfg.SlogLevel() != slog.LevelDebug {
		t.Errorf("level: %v", cfg.SlogLevel())
	}
}

func TestLoadFile_Errors(t *testing.T) {
	if _, err := LoadFile(filepath.Join(t.TempDir(), "missing.yaml")); err == nil {
		t.Error("missing file should fail")
	}
	if _, err := Parse([]byte("resolver: [")); err == nil {
		t.Error("bad yaml should fail")
	}
}
