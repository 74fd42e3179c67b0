// Package config loads ferryman.jsonc, the single configuration file:
// host paths, the metrics listener, the health check schedule, optional
// rate limits and the set of runtimes to register.
package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
)

// Runtime kinds accepted in the runtimes section.
const (
	TypeSubprocess = "subprocess"
	TypeContainer  = "container"
	TypeLocal      = "local"
	TypeLangBridge = "langbridge"
)

// Config is the ferryman.jsonc file format.
type Config struct {
	Server   ServerConfig    `json:"server"`
	Paths    PathsConfig     `json:"paths"`
	Limits   LimitsConfig    `json:"limits"`
	Runtimes []RuntimeConfig `json:"runtimes"`
}

// ServerConfig holds the host-side listeners and schedules.
type ServerConfig struct {
	// MetricsAddress is where /metrics and /health are served.
	MetricsAddress string `json:"metrics_address"`
	// HealthSchedule is a 5-field cron expression for runtime probes.
	HealthSchedule string `json:"health_schedule"`
	// JSONLogs switches the log output format from text to JSON.
	JSONLogs bool `json:"json_logs"`
}

// PathsConfig holds host directories.
type PathsConfig struct {
	LogDir    string `json:"log_dir"`
	DataDir   string `json:"data_dir"`
	SocketDir string `json:"socket_dir"`
}

// LimitsConfig throttles the model-invoking operations per runtime.
// Zero means unlimited.
type LimitsConfig struct {
	RequestsPerSecond float64 `json:"requests_per_second"`
	Burst             int     `json:"burst"`
}

// RuntimeConfig declares one runtime to register at startup.
type RuntimeConfig struct {
	ID   string `json:"id"`
	Name string `json:"name"`
	// Type is subprocess, container, local or langbridge.
	Type string `json:"type"`
	// Command is the argv for subprocess runtimes, or the command
	// override for container runtimes.
	Command []string `json:"command,omitempty"`
	// Image is the container image for container runtimes.
	Image string `json:"image,omitempty"`
}

// Default returns the configuration used when no file is found.
func Default() *Config {
	return &Config{
		Server: ServerConfig{
			MetricsAddress: ":9090",
			HealthSchedule: "* * * * *",
		},
		Paths: PathsConfig{
			LogDir:    "logs",
			DataDir:   "data",
			SocketDir: "/tmp/ferryman-sockets",
		},
		Runtimes: []RuntimeConfig{
			{ID: "inproc", Name: "In-Process Echo", Type: TypeLocal},
		},
	}
}

// FindConfigPath returns the path to ferryman.jsonc using precedence:
// 1. configDir + /ferryman.jsonc (if configDir specified)
// 2. ./config/ferryman.jsonc (project-local)
// 3. ~/.ferryman/config/ferryman.jsonc (user global)
func FindConfigPath(configDir string) (string, error) {
	if configDir != "" {
		path := filepath.Join(configDir, "ferryman.jsonc")
		if _, err := os.Stat(path); err != nil {
			return "", fmt.Errorf("ferryman.jsonc not found in %s", configDir)
		}
		return path, nil
	}

	local := filepath.Join("config", "ferryman.jsonc")
	if _, err := os.Stat(local); err == nil {
		return local, nil
	}

	home, err := os.UserHomeDir()
	if err == nil {
		global := filepath.Join(home, ".ferryman", "config", "ferryman.jsonc")
		if _, err := os.Stat(global); err == nil {
			return global, nil
		}
	}

	return "", os.ErrNotExist
}

// Load reads and validates the configuration. When no file exists the
// defaults are returned.
func Load(configDir string) (*Config, error) {
	path, err := FindConfigPath(configDir)
	if err != nil {
		if os.IsNotExist(err) && configDir == "" {
			return Default(), nil
		}
		return nil, err
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", path, err)
	}

	cfg := Default()
	cfg.Runtimes = nil
	if err := json.Unmarshal(StripJSONComments(data), cfg); err != nil {
		return nil, fmt.Errorf("failed to parse %s: %w", path, err)
	}
	if len(cfg.Runtimes) == 0 {
		cfg.Runtimes = Default().Runtimes
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return cfg, nil
}

// Validate checks the runtime declarations for the mistakes a typo in
// the file would produce.
func (c *Config) Validate() error {
	seen := make(map[string]bool, len(c.Runtimes))
	for _, rt := range c.Runtimes {
		if rt.ID == "" {
			return fmt.Errorf("runtime with empty id")
		}
		if seen[rt.ID] {
			return fmt.Errorf("duplicate runtime id %q", rt.ID)
		}
		seen[rt.ID] = true

		switch rt.Type {
		case TypeSubprocess:
			if len(rt.Command) == 0 {
				return fmt.Errorf("runtime %q: subprocess requires a command", rt.ID)
			}
		case TypeContainer:
			if rt.Image == "" {
				return fmt.Errorf("runtime %q: container requires an image", rt.ID)
			}
		case TypeLangBridge:
			// The preset carries its own identity.
			if rt.ID != TypeLangBridge {
				return fmt.Errorf("runtime %q: langbridge preset must use id %q", rt.ID, TypeLangBridge)
			}
		case TypeLocal:
		default:
			return fmt.Errorf("runtime %q: unknown type %q", rt.ID, rt.Type)
		}
	}
	return nil
}
