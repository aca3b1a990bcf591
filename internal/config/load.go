package config

import (
	"fmt"
	"os"

	"github.com/google/uuid"
	"gopkg.in/yaml.v3"
)

// LoadFile reads a YAML config file, overlaying it onto Default(). A
// missing or empty field in the file keeps the default. Levels is replaced
// wholesale when present in the file; the map fields (Projectiles,
// Powerups) are decoded into the default maps, so a file entry overrides or
// adds its own key and the other default entries stay in place.
func LoadFile(path string) (Config, error) {
	cfg := Default()

	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("config: read %s: %w", path, err)
	}

	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return Config{}, fmt.Errorf("config: parse %s: %w", path, err)
	}

	if cfg.InstanceID == uuid.Nil {
		cfg.InstanceID = uuid.New()
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, fmt.Errorf("config: %s: %w", path, err)
	}

	return cfg, nil
}

// Validate checks the invariants the core assumes hold on its config
// record (spec §6 exit code 2: "malformed configuration").
func (c Config) Validate() error {
	if c.TickRate <= 0 {
		return fmt.Errorf("tickRate must be positive, got %d", c.TickRate)
	}
	if c.SnapshotRate <= 0 || c.SnapshotRate > c.TickRate {
		return fmt.Errorf("snapshotRate must be in (0, tickRate], got %d", c.SnapshotRate)
	}
	if c.UDPPort <= 0 || c.UDPPort > 65535 {
		return fmt.Errorf("udpPort out of range: %d", c.UDPPort)
	}
	if c.MaxPlayerShips <= 0 || c.MaxPlayerShips > 8 {
		return fmt.Errorf("maxPlayerShips must be in (0, 8], got %d", c.MaxPlayerShips)
	}
	if c.MinPlayersToStart <= 0 || c.MinPlayersToStart > c.MaxPlayerShips {
		return fmt.Errorf("minPlayersToStart must be in (0, maxPlayerShips], got %d", c.MinPlayersToStart)
	}
	if c.MovementBounds.MaxX <= c.MovementBounds.MinX || c.MovementBounds.MaxY <= c.MovementBounds.MinY {
		return fmt.Errorf("movementBounds is degenerate: %+v", c.MovementBounds)
	}
	return nil
}
