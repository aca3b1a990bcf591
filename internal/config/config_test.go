package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestDefaultValidates(t *testing.T) {
	if err := Default().Validate(); err != nil {
		t.Fatalf("Default() should validate, got: %v", err)
	}
}

func TestValidateRejectsBadValues(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"zero tick rate", func(c *Config) { c.TickRate = 0 }},
		{"snapshot rate above tick rate", func(c *Config) { c.SnapshotRate = c.TickRate + 1 }},
		{"bad port", func(c *Config) { c.UDPPort = 0 }},
		{"too many ships", func(c *Config) { c.MaxPlayerShips = 9 }},
		{"min exceeds max", func(c *Config) { c.MinPlayersToStart = c.MaxPlayerShips + 1 }},
		{"degenerate bounds", func(c *Config) { c.MovementBounds = Rect{} }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(&cfg)
			if err := cfg.Validate(); err == nil {
				t.Errorf("expected validation error for %s", tt.name)
			}
		})
	}
}

func TestLoadFileOverlaysDefaults(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	contents := "udpPort: 9999\ntickRate: 60\nsnapshotRate: 30\n"
	if err := os.WriteFile(path, []byte(contents), 0o644); err != nil {
		t.Fatalf("write temp config: %v", err)
	}

	cfg, err := LoadFile(path)
	if err != nil {
		t.Fatalf("LoadFile error: %v", err)
	}
	if cfg.UDPPort != 9999 {
		t.Errorf("UDPPort = %d, want 9999", cfg.UDPPort)
	}
	// Fields absent from the file keep their Default() values.
	if cfg.MaxPlayerShips != Default().MaxPlayerShips {
		t.Errorf("MaxPlayerShips = %d, want default %d", cfg.MaxPlayerShips, Default().MaxPlayerShips)
	}
}

func TestLoadFileRejectsMalformed(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	if err := os.WriteFile(path, []byte("tickRate: -1\n"), 0o644); err != nil {
		t.Fatalf("write temp config: %v", err)
	}

	if _, err := LoadFile(path); err == nil {
		t.Errorf("expected LoadFile to reject negative tickRate")
	}
}

func TestRectClampAndContains(t *testing.T) {
	r := Rect{MinX: 0, MinY: 0, MaxX: 100, MaxY: 50}

	if !r.Contains(Vec2{X: 50, Y: 25}) {
		t.Errorf("expected point inside rect to be contained")
	}
	if r.Contains(Vec2{X: -1, Y: 25}) {
		t.Errorf("expected point outside rect to not be contained")
	}

	clamped := r.Clamp(Vec2{X: -10, Y: 200})
	if clamped.X != 0 || clamped.Y != 50 {
		t.Errorf("Clamp = %+v, want {0 50}", clamped)
	}
}
