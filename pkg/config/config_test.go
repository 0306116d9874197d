package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/open-teleop/simviz/pkg/scene"
)

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("Failed to write %s: %v", name, err)
	}
	return path
}

func TestLoadBootstrapConfigYAML(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, BootstrapFileYAML, `
logging:
  level: debug
server:
  http_port: 9000
simulation:
  address: "10.0.0.5:8080"
  tick_interval_ms: 50
  drop_stale_frames: true
display:
  collision: true
  contact_forces: false
zeromq:
  enabled: true
  publish_bind_address: "tcp://*:6000"
`)

	cfg, err := LoadBootstrapConfig(dir)
	if err != nil {
		t.Fatalf("LoadBootstrapConfig failed: %v", err)
	}

	if cfg.Logging.Level != "debug" {
		t.Errorf("Expected level debug, got %s", cfg.Logging.Level)
	}
	if cfg.Server.HTTPPort != 9000 {
		t.Errorf("Expected http_port 9000, got %d", cfg.Server.HTTPPort)
	}
	if cfg.TickInterval() != 50*time.Millisecond {
		t.Errorf("Expected tick interval 50ms, got %v", cfg.TickInterval())
	}

	want := scene.DisplayFlags{Visual: true, Collision: true, ContactPoints: true, ContactForces: false}
	if cfg.Display != want {
		t.Errorf("Expected display %+v, got %+v", want, cfg.Display)
	}

	sc := cfg.SessionConfig()
	if sc.Address != "10.0.0.5:8080" || !sc.DropStaleFrames {
		t.Errorf("Unexpected session config %+v", sc)
	}
	if sc.ReadTimeout != 5*time.Second || sc.WriteTimeout != 2*time.Second {
		t.Errorf("Expected default timeouts, got read=%v write=%v", sc.ReadTimeout, sc.WriteTimeout)
	}
	if cfg.Processing.Workers != 1 || cfg.Processing.QueueSize != 256 {
		t.Errorf("Expected default processing config, got %+v", cfg.Processing)
	}
	if !cfg.ZeroMQ.Enabled || cfg.ZeroMQ.PublishBindAddress != "tcp://*:6000" {
		t.Errorf("Unexpected zeromq config %+v", cfg.ZeroMQ)
	}
}

func TestLoadBootstrapConfigTOML(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, BootstrapFileTOML, `
[simulation]
address = "sim.local:7000"
read_timeout_ms = 250

[redis]
enabled = true
address = "cache:6379"
channel = "frames"
`)

	cfg, err := LoadBootstrapConfig(dir)
	if err != nil {
		t.Fatalf("LoadBootstrapConfig failed: %v", err)
	}
	if cfg.Simulation.Address != "sim.local:7000" {
		t.Errorf("Expected address sim.local:7000, got %s", cfg.Simulation.Address)
	}
	if cfg.SessionConfig().ReadTimeout != 250*time.Millisecond {
		t.Errorf("Expected read timeout 250ms, got %v", cfg.SessionConfig().ReadTimeout)
	}
	if !cfg.Redis.Enabled || cfg.Redis.Channel != "frames" {
		t.Errorf("Unexpected redis config %+v", cfg.Redis)
	}
	if cfg.Display != scene.DefaultDisplayFlags() {
		t.Errorf("Expected default display flags, got %+v", cfg.Display)
	}
}

func TestLoadBootstrapConfigPrefersYAML(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, BootstrapFileYAML, "simulation:\n  address: yaml:1\n")
	writeFile(t, dir, BootstrapFileTOML, "[simulation]\naddress = \"toml:1\"\n")

	cfg, err := LoadBootstrapConfig(dir)
	if err != nil {
		t.Fatalf("LoadBootstrapConfig failed: %v", err)
	}
	if cfg.Simulation.Address != "yaml:1" {
		t.Errorf("Expected the YAML file to win, got %s", cfg.Simulation.Address)
	}
}

func TestLoadBootstrapConfigEnvOverrides(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, BootstrapFileYAML, "simulation:\n  address: file:1\n")
	t.Setenv(EnvServerAddress, "env:2")
	t.Setenv(EnvHTTPPort, "9100")

	cfg, err := LoadBootstrapConfig(dir)
	if err != nil {
		t.Fatalf("LoadBootstrapConfig failed: %v", err)
	}
	if cfg.Simulation.Address != "env:2" {
		t.Errorf("Expected env address, got %s", cfg.Simulation.Address)
	}
	if cfg.Server.HTTPPort != 9100 {
		t.Errorf("Expected env port 9100, got %d", cfg.Server.HTTPPort)
	}

	t.Setenv(EnvHTTPPort, "not-a-port")
	if _, err := LoadBootstrapConfig(dir); err == nil || !strings.Contains(err.Error(), EnvHTTPPort) {
		t.Errorf("Expected an error naming %s, got %v", EnvHTTPPort, err)
	}
}

func TestLoadBootstrapConfigErrors(t *testing.T) {
	tests := []struct {
		name    string
		file    string
		content string
		wantErr string
	}{
		{"empty address", BootstrapFileYAML, "simulation:\n  address: \"\"\n", "simulation.address"},
		{"zeromq without address", BootstrapFileYAML, "zeromq:\n  enabled: true\n  publish_bind_address: \"\"\n", "zeromq.publish_bind_address"},
		{"redis without address", BootstrapFileYAML, "redis:\n  enabled: true\n  address: \"\"\n", "redis.address"},
		{"bad port", BootstrapFileYAML, "server:\n  http_port: 70000\n", "http_port"},
		{"bad yaml", BootstrapFileYAML, "simulation: [", "error parsing"},
		{"bad toml", BootstrapFileTOML, "[simulation\n", "error parsing"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dir := t.TempDir()
			writeFile(t, dir, tt.file, tt.content)
			_, err := LoadBootstrapConfig(dir)
			if err == nil {
				t.Fatalf("Expected an error")
			}
			if !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("Expected error containing %q, got %v", tt.wantErr, err)
			}
		})
	}
}

func TestLoadBootstrapConfigMissing(t *testing.T) {
	_, err := LoadBootstrapConfig(t.TempDir())
	if err == nil || !strings.Contains(err.Error(), "no bootstrap config file") {
		t.Errorf("Expected ErrNoBootstrapFile, got %v", err)
	}
}

func TestLoadAppearanceOverrides(t *testing.T) {
	path := writeFile(t, t.TempDir(), "appearance.yaml", `
version: "1"
defaults:
  material: simviz/grey
materials:
  - name: ball
    material: rubber_blue
  - name: crate
  - name: arm
    material: steel
    disabled: true
  - name: ball
    material: rubber_green
`)

	overrides, err := LoadAppearanceOverrides(path)
	if err != nil {
		t.Fatalf("LoadAppearanceOverrides failed: %v", err)
	}

	hints := overrides.Hints()
	if len(hints) != 2 {
		t.Errorf("Expected 2 hints, got %v", hints)
	}
	if hints["ball"] != "rubber_green" {
		t.Errorf("Expected the later ball entry to win, got %s", hints["ball"])
	}
	if hints["crate"] != "simviz/grey" {
		t.Errorf("Expected the default material for crate, got %s", hints["crate"])
	}
	if _, ok := hints["arm"]; ok {
		t.Errorf("Disabled mapping should not resolve")
	}

	m, ok := overrides.GetMappingByName("crate")
	if !ok || m.Material != "simviz/grey" {
		t.Errorf("Expected crate mapping with default material, got %+v %v", m, ok)
	}
	if _, ok := overrides.GetMappingByName("ghost"); ok {
		t.Errorf("Expected no mapping for ghost")
	}
}

func TestLoadAppearanceOverridesErrors(t *testing.T) {
	dir := t.TempDir()
	if _, err := LoadAppearanceOverrides(filepath.Join(dir, "missing.yaml")); err == nil {
		t.Errorf("Expected an error for a missing file")
	}
	path := writeFile(t, dir, "noname.yaml", "materials:\n  - material: wood\n")
	if _, err := LoadAppearanceOverrides(path); err == nil || !strings.Contains(err.Error(), "no name") {
		t.Errorf("Expected a missing name error, got %v", err)
	}
}
