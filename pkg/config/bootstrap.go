package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"gopkg.in/yaml.v3"

	"github.com/open-teleop/simviz/pkg/scene"
	"github.com/open-teleop/simviz/pkg/session"
)

// Bootstrap file names looked up in the config directory, in order.
const (
	BootstrapFileYAML = "simviz_config.yaml"
	BootstrapFileTOML = "simviz_config.toml"
)

// Environment overrides applied after the file is loaded.
const (
	EnvServerAddress = "SIMVIZ_SERVER_ADDRESS"
	EnvHTTPPort      = "SIMVIZ_HTTP_PORT"
)

// ErrNoBootstrapFile is returned when the config directory has neither file.
var ErrNoBootstrapFile = errors.New("config: no bootstrap config file found")

// BootstrapConfig holds the initial configuration loaded from simviz_config.yaml
type BootstrapConfig struct {
	Logging    LoggingConfig         `yaml:"logging" toml:"logging"`
	Server     BootstrapServerConfig `yaml:"server" toml:"server"`
	Simulation SimulationConfig      `yaml:"simulation" toml:"simulation"`
	Display    scene.DisplayFlags    `yaml:"display" toml:"display"`
	Processing ProcessingConfig      `yaml:"processing" toml:"processing"`
	ZeroMQ     ZeroMQBootstrap       `yaml:"zeromq" toml:"zeromq"`
	Redis      RedisConfig           `yaml:"redis" toml:"redis"`
	Appearance AppearanceConfig      `yaml:"appearance" toml:"appearance"`
}

// LoggingConfig holds logging settings from bootstrap
type LoggingConfig struct {
	Level   string `yaml:"level" toml:"level"`
	LogPath string `yaml:"log_path,omitempty" toml:"log_path"`
}

// BootstrapServerConfig holds the HTTP API settings
type BootstrapServerConfig struct {
	HTTPPort int `yaml:"http_port" toml:"http_port"`
	// DisplayStateFile persists display toggles changed through the API.
	DisplayStateFile string `yaml:"display_state_file,omitempty" toml:"display_state_file"`
}

// SimulationConfig holds the connection to the simulation server
type SimulationConfig struct {
	Address          string `yaml:"address" toml:"address"`
	AutoConnect      bool   `yaml:"auto_connect" toml:"auto_connect"`
	ConnectTimeoutMs int    `yaml:"connect_timeout_ms" toml:"connect_timeout_ms"`
	ReadTimeoutMs    int    `yaml:"read_timeout_ms" toml:"read_timeout_ms"`
	WriteTimeoutMs   int    `yaml:"write_timeout_ms" toml:"write_timeout_ms"`
	TickIntervalMs   int    `yaml:"tick_interval_ms" toml:"tick_interval_ms"`
	MaxBufferSize    int    `yaml:"max_buffer_size" toml:"max_buffer_size"`
	DropStaleFrames  bool   `yaml:"drop_stale_frames" toml:"drop_stale_frames"`
}

// ProcessingConfig holds the frame feed worker configuration
type ProcessingConfig struct {
	Workers   int `yaml:"workers" toml:"workers"`
	QueueSize int `yaml:"queue_size" toml:"queue_size"`
}

// ZeroMQBootstrap holds ZeroMQ settings from bootstrap
type ZeroMQBootstrap struct {
	Enabled            bool   `yaml:"enabled" toml:"enabled"`
	PublishBindAddress string `yaml:"publish_bind_address" toml:"publish_bind_address"`
	// ControlBindAddress enables the REQ/REP control endpoint when set.
	ControlBindAddress    string `yaml:"control_bind_address,omitempty" toml:"control_bind_address"`
	StatusIntervalMs      int    `yaml:"status_interval_ms" toml:"status_interval_ms"`
	ControlPollIntervalMs int    `yaml:"control_poll_interval_ms" toml:"control_poll_interval_ms"`
}

// RedisConfig holds the optional Redis frame feed
type RedisConfig struct {
	Enabled  bool   `yaml:"enabled" toml:"enabled"`
	Address  string `yaml:"address" toml:"address"`
	Password string `yaml:"password,omitempty" toml:"password"`
	DB       int    `yaml:"db" toml:"db"`
	Channel  string `yaml:"channel" toml:"channel"`
}

// AppearanceConfig points at local material overrides
type AppearanceConfig struct {
	File string `yaml:"file,omitempty" toml:"file"`
}

// DefaultBootstrapConfig returns the configuration used for missing values.
func DefaultBootstrapConfig() *BootstrapConfig {
	return &BootstrapConfig{
		Logging: LoggingConfig{Level: "info"},
		Server:  BootstrapServerConfig{HTTPPort: 8090},
		Simulation: SimulationConfig{
			Address:          "127.0.0.1:8080",
			ConnectTimeoutMs: 5000,
			ReadTimeoutMs:    5000,
			WriteTimeoutMs:   2000,
			TickIntervalMs:   20,
		},
		Display:    scene.DefaultDisplayFlags(),
		Processing: ProcessingConfig{Workers: 1, QueueSize: 256},
		ZeroMQ: ZeroMQBootstrap{
			PublishBindAddress:    "tcp://*:5556",
			StatusIntervalMs:      1000,
			ControlPollIntervalMs: 500,
		},
		Redis: RedisConfig{Address: "localhost:6379", Channel: "simviz.frames"},
	}
}

// LoadBootstrapConfig loads simviz_config.yaml, or simviz_config.toml when
// there is no YAML file, from configDir
func LoadBootstrapConfig(configDir string) (*BootstrapConfig, error) {
	for _, name := range []string{BootstrapFileYAML, BootstrapFileTOML} {
		path := filepath.Join(configDir, name)
		if _, err := os.Stat(path); err == nil {
			return LoadBootstrapFile(path)
		}
	}
	return nil, fmt.Errorf("%w in '%s'", ErrNoBootstrapFile, configDir)
}

// LoadBootstrapFile loads a bootstrap file, picking the decoder by extension,
// then applies defaults, environment overrides and validation.
func LoadBootstrapFile(path string) (*BootstrapConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("error reading bootstrap config file '%s': %w", path, err)
	}

	cfg := DefaultBootstrapConfig()
	switch strings.ToLower(filepath.Ext(path)) {
	case ".toml":
		if _, err := toml.Decode(string(data), cfg); err != nil {
			return nil, fmt.Errorf("error parsing bootstrap config file '%s': %w", path, err)
		}
	default:
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("error parsing bootstrap config file '%s': %w", path, err)
		}
	}

	cfg.applyDefaults()
	if err := cfg.applyEnv(os.LookupEnv); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// applyDefaults fills zero values a file may have left behind.
func (c *BootstrapConfig) applyDefaults() {
	d := DefaultBootstrapConfig()
	if c.Logging.Level == "" {
		c.Logging.Level = d.Logging.Level
	}
	if c.Server.HTTPPort == 0 {
		c.Server.HTTPPort = d.Server.HTTPPort
	}
	sim := &c.Simulation
	if sim.ConnectTimeoutMs <= 0 {
		sim.ConnectTimeoutMs = d.Simulation.ConnectTimeoutMs
	}
	if sim.ReadTimeoutMs <= 0 {
		sim.ReadTimeoutMs = d.Simulation.ReadTimeoutMs
	}
	if sim.WriteTimeoutMs <= 0 {
		sim.WriteTimeoutMs = d.Simulation.WriteTimeoutMs
	}
	if sim.TickIntervalMs <= 0 {
		sim.TickIntervalMs = d.Simulation.TickIntervalMs
	}
	if c.Processing.Workers <= 0 {
		c.Processing.Workers = d.Processing.Workers
	}
	if c.Processing.QueueSize <= 0 {
		c.Processing.QueueSize = d.Processing.QueueSize
	}
	if c.ZeroMQ.StatusIntervalMs <= 0 {
		c.ZeroMQ.StatusIntervalMs = d.ZeroMQ.StatusIntervalMs
	}
	if c.ZeroMQ.ControlPollIntervalMs <= 0 {
		c.ZeroMQ.ControlPollIntervalMs = d.ZeroMQ.ControlPollIntervalMs
	}
	if c.Redis.Channel == "" {
		c.Redis.Channel = d.Redis.Channel
	}
}

func (c *BootstrapConfig) applyEnv(lookup func(string) (string, bool)) error {
	if v, ok := lookup(EnvServerAddress); ok && v != "" {
		c.Simulation.Address = v
	}
	if v, ok := lookup(EnvHTTPPort); ok && v != "" {
		port, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("invalid %s '%s': %w", EnvHTTPPort, v, err)
		}
		c.Server.HTTPPort = port
	}
	return nil
}

// Validate checks required fields
func (c *BootstrapConfig) Validate() error {
	if c.Simulation.Address == "" {
		return fmt.Errorf("missing required field in bootstrap config: simulation.address")
	}
	if c.Server.HTTPPort < 0 || c.Server.HTTPPort > 65535 {
		return fmt.Errorf("invalid server.http_port %d", c.Server.HTTPPort)
	}
	if c.ZeroMQ.Enabled && c.ZeroMQ.PublishBindAddress == "" {
		return fmt.Errorf("missing required field in bootstrap config: zeromq.publish_bind_address")
	}
	if c.Redis.Enabled && c.Redis.Address == "" {
		return fmt.Errorf("missing required field in bootstrap config: redis.address")
	}
	return nil
}

// SessionConfig converts the simulation section for the session package.
func (c *BootstrapConfig) SessionConfig() session.Config {
	return session.Config{
		Address:         c.Simulation.Address,
		ConnectTimeout:  millis(c.Simulation.ConnectTimeoutMs),
		ReadTimeout:     millis(c.Simulation.ReadTimeoutMs),
		WriteTimeout:    millis(c.Simulation.WriteTimeoutMs),
		MaxBufferSize:   c.Simulation.MaxBufferSize,
		DropStaleFrames: c.Simulation.DropStaleFrames,
	}
}

// TickInterval is the pose/contact polling period.
func (c *BootstrapConfig) TickInterval() time.Duration {
	return millis(c.Simulation.TickIntervalMs)
}

func millis(ms int) time.Duration {
	return time.Duration(ms) * time.Millisecond
}
