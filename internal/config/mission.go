// Package config loads the mission configuration file.
package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/banshee-data/mazesolver/internal/explore"
	"github.com/banshee-data/mazesolver/internal/maze"
	"github.com/banshee-data/mazesolver/internal/planner"
	"github.com/banshee-data/mazesolver/internal/serialmux"
)

// Transports accepted by MissionConfig.Transport.
const (
	TransportSerial  = "serial"
	TransportConsole = "console"
)

// Default values for fields omitted from the file.
const (
	DefaultSerialPath  = "/dev/serial0"
	DefaultJournalPath = "mazesolver.db"
	DefaultListen      = "localhost:8081"
)

// MissionConfig is the mission configuration. Every field is optional;
// the Get* methods fall back to the defaults, so partial files are safe.
type MissionConfig struct {
	Transport  *string                `json:"transport,omitempty" yaml:"transport,omitempty"`
	SerialPath *string                `json:"serial_path,omitempty" yaml:"serial_path,omitempty"`
	Serial     *serialmux.PortOptions `json:"serial,omitempty" yaml:"serial,omitempty"`

	MaxTilesPerAxis *int `json:"max_tiles_per_axis,omitempty" yaml:"max_tiles_per_axis,omitempty"`
	MoveCost        *int `json:"move_cost,omitempty" yaml:"move_cost,omitempty"`
	TurnCost        *int `json:"turn_cost,omitempty" yaml:"turn_cost,omitempty"`
	BumpCost        *int `json:"bump_cost,omitempty" yaml:"bump_cost,omitempty"`

	// JournalPath is the sqlite file steps are recorded to; "" disables
	// the journal.
	JournalPath *string `json:"journal_path,omitempty" yaml:"journal_path,omitempty"`
	Listen      *string `json:"listen,omitempty" yaml:"listen,omitempty"`
	// Verbose logs every step and prints the map after each move.
	Verbose *bool `json:"verbose,omitempty" yaml:"verbose,omitempty"`
}

func ptr[T any](v T) *T { return &v }

// DefaultMissionConfig returns a config with every field set to its
// default.
func DefaultMissionConfig() *MissionConfig {
	costs := planner.DefaultCosts()
	return &MissionConfig{
		Transport:       ptr(TransportSerial),
		SerialPath:      ptr(DefaultSerialPath),
		Serial:          &serialmux.PortOptions{BaudRate: serialmux.DefaultBaudRate},
		MaxTilesPerAxis: ptr(maze.DefaultMaxTilesPerAxis),
		MoveCost:        ptr(costs.Move),
		TurnCost:        ptr(costs.Turn),
		BumpCost:        ptr(costs.Bump),
		JournalPath:     ptr(DefaultJournalPath),
		Listen:          ptr(DefaultListen),
		Verbose:         ptr(false),
	}
}

// LoadMissionConfig loads a MissionConfig from a .json, .yaml or .yml file
// of at most 1MB, and validates it.
func LoadMissionConfig(path string) (*MissionConfig, error) {
	cleanPath := filepath.Clean(path)
	ext := strings.ToLower(filepath.Ext(cleanPath))
	if ext != ".json" && ext != ".yaml" && ext != ".yml" {
		return nil, fmt.Errorf("config file must have .json, .yaml or .yml extension, got %q", ext)
	}

	fileInfo, err := os.Stat(cleanPath)
	if err != nil {
		return nil, fmt.Errorf("failed to stat config file: %w", err)
	}
	const maxFileSize = 1 * 1024 * 1024 // 1MB
	if fileInfo.Size() > maxFileSize {
		return nil, fmt.Errorf("config file too large: %d bytes (max %d)", fileInfo.Size(), maxFileSize)
	}

	data, err := os.ReadFile(cleanPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	cfg := &MissionConfig{}
	if ext == ".json" {
		err = json.Unmarshal(data, cfg)
	} else {
		err = yaml.Unmarshal(data, cfg)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to parse config %s: %w", filepath.Base(cleanPath), err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

// Validate checks that the configuration values are valid.
func (c *MissionConfig) Validate() error {
	switch c.GetTransport() {
	case TransportSerial, TransportConsole:
	default:
		return fmt.Errorf("transport must be %q or %q, got %q", TransportSerial, TransportConsole, c.GetTransport())
	}
	if c.Serial != nil {
		if _, err := c.Serial.Normalize(); err != nil {
			return fmt.Errorf("serial: %w", err)
		}
	}
	if c.MaxTilesPerAxis != nil && *c.MaxTilesPerAxis < 3 {
		return fmt.Errorf("max_tiles_per_axis must be at least 3, got %d", *c.MaxTilesPerAxis)
	}
	for name, v := range map[string]*int{"move_cost": c.MoveCost, "turn_cost": c.TurnCost, "bump_cost": c.BumpCost} {
		if v != nil && *v < 0 {
			return fmt.Errorf("%s must be non-negative, got %d", name, *v)
		}
	}
	if c.MoveCost != nil && *c.MoveCost == 0 {
		return fmt.Errorf("move_cost must be positive")
	}
	return nil
}

// GetTransport returns the transport or TransportSerial if not set.
func (c *MissionConfig) GetTransport() string {
	if c.Transport == nil || *c.Transport == "" {
		return TransportSerial
	}
	return strings.ToLower(*c.Transport)
}

// GetSerialPath returns the serial device path or DefaultSerialPath if not set.
func (c *MissionConfig) GetSerialPath() string {
	if c.SerialPath == nil || *c.SerialPath == "" {
		return DefaultSerialPath
	}
	return *c.SerialPath
}

// GetSerial returns the serial port options; unset fields normalise to
// 115200 8N1.
func (c *MissionConfig) GetSerial() serialmux.PortOptions {
	if c.Serial == nil {
		return serialmux.PortOptions{}
	}
	return *c.Serial
}

// GetMaxTilesPerAxis returns the map capacity or the default if not set.
func (c *MissionConfig) GetMaxTilesPerAxis() int {
	if c.MaxTilesPerAxis == nil {
		return maze.DefaultMaxTilesPerAxis
	}
	return *c.MaxTilesPerAxis
}

// GetCosts returns the planner costs, defaulting each unset weight.
func (c *MissionConfig) GetCosts() planner.Costs {
	costs := planner.DefaultCosts()
	if c.MoveCost != nil {
		costs.Move = *c.MoveCost
	}
	if c.TurnCost != nil {
		costs.Turn = *c.TurnCost
	}
	if c.BumpCost != nil {
		costs.Bump = *c.BumpCost
	}
	return costs
}

// GetJournalPath returns the journal path or DefaultJournalPath if not set.
// An explicit empty string disables the journal.
func (c *MissionConfig) GetJournalPath() string {
	if c.JournalPath == nil {
		return DefaultJournalPath
	}
	return *c.JournalPath
}

// GetListen returns the debug HTTP address or DefaultListen if not set.
func (c *MissionConfig) GetListen() string {
	if c.Listen == nil {
		return DefaultListen
	}
	return *c.Listen
}

// GetVerbose returns the verbose flag or false if not set.
func (c *MissionConfig) GetVerbose() bool {
	return c.Verbose != nil && *c.Verbose
}

// EngineConfig converts the map and planner settings for explore.NewEngine.
func (c *MissionConfig) EngineConfig() explore.Config {
	return explore.Config{
		Costs:           c.GetCosts(),
		MaxTilesPerAxis: c.GetMaxTilesPerAxis(),
	}
}
