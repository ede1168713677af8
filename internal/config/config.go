// Package config loads the visualizer's YAML configuration. Every field is
// optional; the Get* methods supply defaults for anything left unset, so a
// partial file is safe.
package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/banshee-data/drive-visualizer/internal/ingest"
	"github.com/banshee-data/drive-visualizer/internal/mapimage"
)

// ExampleConfigPath is the example configuration checked into the repository.
const ExampleConfigPath = "config/visualizer.example.yaml"

// EnvAssetFolder names the environment variable holding the asset folder.
const EnvAssetFolder = "VISUALIZER_ASSET_FOLDER"

// Config is the root configuration.
type Config struct {
	// AssetFolder is the "asset folder" holding map tiles and snapshots.
	AssetFolder       *string `yaml:"asset_folder,omitempty"`
	FlushInterval     *string `yaml:"flush_interval,omitempty"`      // duration string like "100ms"
	StateBufferWindow *string `yaml:"state_buffer_window,omitempty"` // duration string like "10s"
	DebugListen       *string `yaml:"debug_listen,omitempty"`

	GRPC   *GRPCConfig   `yaml:"grpc,omitempty"`
	Ingest *IngestConfig `yaml:"ingest,omitempty"`
	Map    *MapConfig    `yaml:"map,omitempty"`
}

// GRPCConfig configures the stream hub.
type GRPCConfig struct {
	Listen     *string `yaml:"listen,omitempty"`
	MaxClients *int    `yaml:"max_clients,omitempty"`
}

// IngestConfig selects the input transports. An empty address, port or file
// disables that transport.
type IngestConfig struct {
	UDPListen  *string             `yaml:"udp_listen,omitempty"`
	UDPRcvBuf  *int                `yaml:"udp_rcvbuf,omitempty"`
	SerialPort *string             `yaml:"serial_port,omitempty"`
	Serial     *ingest.PortOptions `yaml:"serial,omitempty"`
	PCAPFile   *string             `yaml:"pcap_file,omitempty"`
	PCAPPort   *int                `yaml:"pcap_port,omitempty"`
	Realtime   *bool               `yaml:"pcap_realtime,omitempty"`
	Speed      *float64            `yaml:"pcap_speed,omitempty"`
}

// MapConfig configures the map layers rendered from tiles.
type MapConfig struct {
	Enabled           *bool    `yaml:"enabled,omitempty"`
	TileSize          *float64 `yaml:"tile_size,omitempty"`
	TilePixels        *int     `yaml:"tile_pixels,omitempty"`
	Resolution        *float64 `yaml:"resolution,omitempty"`
	Width             *int     `yaml:"width,omitempty"`
	Height            *int     `yaml:"height,omitempty"`
	CacheTiles        *int     `yaml:"cache_tiles,omitempty"`
	OccupiedThreshold *int     `yaml:"occupied_threshold,omitempty"`
}

// Empty returns a Config with every field unset.
func Empty() *Config {
	return &Config{}
}

// Load reads a YAML file. The file must have a .yaml or .yml extension and
// be at most 1MB.
func Load(path string) (*Config, error) {
	cleanPath := filepath.Clean(path)
	if ext := filepath.Ext(cleanPath); ext != ".yaml" && ext != ".yml" {
		return nil, fmt.Errorf("config file must have .yaml or .yml extension, got %q", ext)
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
	return Parse(data)
}

// Parse decodes and validates YAML. Unknown keys are rejected so typos do
// not silently fall back to defaults.
func Parse(data []byte) (*Config, error) {
	cfg := Empty()
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(cfg); err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("failed to parse config YAML: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

// Validate checks that the configuration values are valid.
func (c *Config) Validate() error {
	for name, v := range map[string]*string{
		"flush_interval":      c.FlushInterval,
		"state_buffer_window": c.StateBufferWindow,
	} {
		if v == nil || *v == "" {
			continue
		}
		d, err := time.ParseDuration(*v)
		if err != nil {
			return fmt.Errorf("invalid %s '%s': %w", name, *v, err)
		}
		if d <= 0 {
			return fmt.Errorf("%s must be positive, got %s", name, *v)
		}
	}

	if c.GRPC != nil && c.GRPC.MaxClients != nil && *c.GRPC.MaxClients < 0 {
		return fmt.Errorf("grpc.max_clients must be non-negative, got %d", *c.GRPC.MaxClients)
	}

	if in := c.Ingest; in != nil {
		if _, err := c.GetSerialOptions().Normalize(); err != nil {
			return fmt.Errorf("ingest.serial: %w", err)
		}
		if in.PCAPPort != nil && (*in.PCAPPort < 0 || *in.PCAPPort > 65535) {
			return fmt.Errorf("ingest.pcap_port out of range: %d", *in.PCAPPort)
		}
		if in.Speed != nil && *in.Speed <= 0 {
			return fmt.Errorf("ingest.pcap_speed must be positive, got %v", *in.Speed)
		}
	}

	if c.Map != nil {
		if err := c.GetMapConfig().Validate(); err != nil {
			return fmt.Errorf("map: %w", err)
		}
	}
	return nil
}

func durationOr(v *string, def time.Duration) time.Duration {
	if v == nil || *v == "" {
		return def
	}
	d, err := time.ParseDuration(*v)
	if err != nil || d <= 0 {
		return def
	}
	return d
}

func stringOr(v *string, def string) string {
	if v == nil {
		return def
	}
	return *v
}

func intOr(v *int, def int) int {
	if v == nil {
		return def
	}
	return *v
}

func floatOr(v *float64, def float64) float64 {
	if v == nil {
		return def
	}
	return *v
}

// GetAssetFolder returns the asset folder, or "" when unset.
func (c *Config) GetAssetFolder() string {
	return stringOr(c.AssetFolder, "")
}

// GetFlushInterval returns the publish cadence.
func (c *Config) GetFlushInterval() time.Duration {
	return durationOr(c.FlushInterval, 100*time.Millisecond)
}

// GetStateBufferWindow returns the driven path history window.
func (c *Config) GetStateBufferWindow() time.Duration {
	return durationOr(c.StateBufferWindow, 10*time.Second)
}

// GetDebugListen returns the debug HTTP address; "" disables it.
func (c *Config) GetDebugListen() string {
	return stringOr(c.DebugListen, "localhost:8091")
}

// GetGRPCListen returns the stream hub address.
func (c *Config) GetGRPCListen() string {
	if c.GRPC == nil {
		return "localhost:50061"
	}
	return stringOr(c.GRPC.Listen, "localhost:50061")
}

// GetGRPCMaxClients returns the subscriber limit.
func (c *Config) GetGRPCMaxClients() int {
	if c.GRPC == nil {
		return 8
	}
	return intOr(c.GRPC.MaxClients, 8)
}

func (c *Config) ingest() *IngestConfig {
	if c.Ingest == nil {
		return &IngestConfig{}
	}
	return c.Ingest
}

// GetUDPListen returns the UDP ingest address; "" disables it.
func (c *Config) GetUDPListen() string {
	return stringOr(c.ingest().UDPListen, "")
}

// GetUDPRcvBuf returns the UDP socket receive buffer size.
func (c *Config) GetUDPRcvBuf() int {
	return intOr(c.ingest().UDPRcvBuf, 4<<20)
}

// GetSerialPort returns the serial ingest device; "" disables it.
func (c *Config) GetSerialPort() string {
	return stringOr(c.ingest().SerialPort, "")
}

// GetSerialOptions returns the serial line settings, unnormalized.
func (c *Config) GetSerialOptions() ingest.PortOptions {
	if s := c.ingest().Serial; s != nil {
		return *s
	}
	return ingest.PortOptions{}
}

// GetPCAPFile returns the capture to replay; "" disables replay.
func (c *Config) GetPCAPFile() string {
	return stringOr(c.ingest().PCAPFile, "")
}

// GetReplayOptions returns the pcap replay settings.
func (c *Config) GetReplayOptions() ingest.ReplayOptions {
	in := c.ingest()
	opts := ingest.ReplayOptions{
		Port:  intOr(in.PCAPPort, 0),
		Speed: floatOr(in.Speed, 1),
	}
	if in.Realtime != nil {
		opts.Realtime = *in.Realtime
	}
	return opts
}

// GetMapEnabled reports whether map layers are rendered.
func (c *Config) GetMapEnabled() bool {
	if c.Map == nil || c.Map.Enabled == nil {
		return true
	}
	return *c.Map.Enabled
}

// GetMapConfig returns the tile renderer settings.
func (c *Config) GetMapConfig() mapimage.Config {
	out := mapimage.DefaultConfig()
	m := c.Map
	if m == nil {
		return out
	}
	out.TileSize = floatOr(m.TileSize, out.TileSize)
	out.TilePixels = intOr(m.TilePixels, out.TilePixels)
	out.Resolution = floatOr(m.Resolution, out.Resolution)
	out.Width = intOr(m.Width, out.Width)
	out.Height = intOr(m.Height, out.Height)
	out.CacheTiles = intOr(m.CacheTiles, out.CacheTiles)
	if m.OccupiedThreshold != nil {
		t := *m.OccupiedThreshold
		if t < 0 || t > 100 {
			t = -1 // int8 would wrap; Validate rejects -1
		}
		out.OccupiedThreshold = int8(t)
	}
	return out
}
