// Package config provides unified configuration loading for orbitsim.
// It supports loading from YAML files and environment variables.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/nvandessel/orbitsim/internal/constants"
	"github.com/nvandessel/orbitsim/internal/simulation"
	"github.com/nvandessel/orbitsim/internal/store"
	"gopkg.in/yaml.v3"
)

// DirName is the per-user directory holding config.yaml.
const DirName = ".orbitsim"

// FileName is the config file name inside DirName.
const FileName = "config.yaml"

// ErrUnknownKey is returned by Get and Set for keys that do not exist.
var ErrUnknownKey = errors.New("unknown configuration key")

// OrbitConfig contains all orbitsim configuration settings.
type OrbitConfig struct {
	// Simulation holds the physical constants and engine settings.
	Simulation simulation.Config `json:"simulation" yaml:"simulation"`

	// Scenario selects the initial body set.
	Scenario ScenarioConfig `json:"scenario" yaml:"scenario"`

	// Logging contains settings for operational and step logging.
	Logging LoggingConfig `json:"logging" yaml:"logging"`

	// View configures the terminal driver.
	View ViewConfig `json:"view" yaml:"view"`

	// Server configures the websocket driver.
	Server ServerConfig `json:"server" yaml:"server"`

	// Record configures the trajectory recorder.
	Record RecordConfig `json:"record" yaml:"record"`
}

// ScenarioConfig selects a built-in scenario or a YAML scenario file.
// File wins when both are set.
type ScenarioConfig struct {
	Name string `json:"name" yaml:"name"`
	File string `json:"file,omitempty" yaml:"file,omitempty"`
}

// LoggingConfig configures orbitsim's logging behavior.
type LoggingConfig struct {
	// Level sets the log verbosity: "warn", "info" (default), "debug", or "trace".
	// "debug" enables step tracing to <trace_dir>/steps.jsonl.
	Level string `json:"level" yaml:"level"`

	// TraceDir is where step traces are written. Empty disables tracing.
	TraceDir string `json:"trace_dir,omitempty" yaml:"trace_dir,omitempty"`
}

// ViewConfig configures the interactive terminal view.
type ViewConfig struct {
	FPS           int     `json:"fps" yaml:"fps"`
	StepsPerFrame int     `json:"steps_per_frame" yaml:"steps_per_frame"`
	ScaleAU       float64 `json:"scale_au" yaml:"scale_au"`
	ShowTrails    bool    `json:"show_trails" yaml:"show_trails"`
	ShowDistances bool    `json:"show_distances" yaml:"show_distances"`
}

// ServerConfig configures the websocket frame server.
type ServerConfig struct {
	Addr          string        `json:"addr" yaml:"addr"`
	FrameInterval time.Duration `json:"frame_interval" yaml:"frame_interval"`
	StepsPerFrame int           `json:"steps_per_frame" yaml:"steps_per_frame"`
}

// RecordConfig configures the SQLite trajectory recorder.
type RecordConfig struct {
	// Path is the database file. Empty disables recording.
	Path string `json:"path,omitempty" yaml:"path,omitempty"`

	// MaxRuns keeps only the newest runs after each recording. 0 keeps all.
	MaxRuns int `json:"max_runs,omitempty" yaml:"max_runs,omitempty"`

	// MaxAge drops runs older than this after each recording ("30d", "2w",
	// "720h"). Empty keeps all. With MaxRuns also set a run survives if
	// either limit keeps it.
	MaxAge string `json:"max_age,omitempty" yaml:"max_age,omitempty"`
}

// Retention returns the run retention policy, or nil when no limit is set.
func (r RecordConfig) Retention() (store.RetentionPolicy, error) {
	var maxAge time.Duration
	if r.MaxAge != "" {
		d, err := store.ParseDuration(r.MaxAge)
		if err != nil {
			return nil, fmt.Errorf("record.max_age: %w", err)
		}
		maxAge = d
	}
	return store.NewRetentionPolicy(r.MaxRuns, maxAge), nil
}

// Default returns an OrbitConfig with sensible defaults.
func Default() *OrbitConfig {
	return &OrbitConfig{
		Simulation: simulation.DefaultConfig(),
		Scenario: ScenarioConfig{
			Name: "solar",
		},
		Logging: LoggingConfig{
			Level: "info",
		},
		View: ViewConfig{
			FPS:           30,
			StepsPerFrame: 1,
			ScaleAU:       constants.DefaultCellsPerAU,
			ShowTrails:    true,
			ShowDistances: true,
		},
		Server: ServerConfig{
			Addr:          "localhost:8080",
			FrameInterval: 50 * time.Millisecond,
			StepsPerFrame: 1,
		},
	}
}

// Path returns the default config file location, ~/.orbitsim/config.yaml.
func Path() (string, error) {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to get home directory: %w", err)
	}
	return filepath.Join(homeDir, DirName, FileName), nil
}

// Load loads configuration from the default locations and environment variables.
// Order: defaults -> ~/.orbitsim/config.yaml -> environment variables
func Load() (*OrbitConfig, error) {
	config := Default()

	// Try to load from default config file
	if configPath, err := Path(); err == nil {
		if _, statErr := os.Stat(configPath); statErr == nil {
			fileConfig, loadErr := LoadFromFile(configPath)
			if loadErr != nil {
				return nil, fmt.Errorf("loading config file: %w", loadErr)
			}
			config = fileConfig
		}
	}

	// Apply environment variable overrides
	applyEnvOverrides(config)

	return config, nil
}

// LoadPath loads path when it is set and the default locations otherwise.
// Environment overrides apply in both cases.
func LoadPath(path string) (*OrbitConfig, error) {
	if path == "" {
		return Load()
	}
	config, err := LoadFromFile(path)
	if err != nil {
		return nil, err
	}
	applyEnvOverrides(config)
	return config, nil
}

// LoadFromFile loads configuration from a specific YAML file.
// Keys missing from the file keep their defaults.
func LoadFromFile(path string) (*OrbitConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config file: %w", err)
	}

	config := Default()
	if err := yaml.Unmarshal(data, config); err != nil {
		return nil, fmt.Errorf("parsing config file: %w", err)
	}

	// Expand environment variables in paths
	config.Scenario.File = expandEnvVars(config.Scenario.File)
	config.Logging.TraceDir = expandEnvVars(config.Logging.TraceDir)
	config.Record.Path = expandEnvVars(config.Record.Path)

	return config, nil
}

// Save writes the configuration to path, creating its directory.
func (c *OrbitConfig) Save(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0700); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := os.WriteFile(path, data, 0600); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}
	return nil
}

// Validate checks that the configuration is valid.
func (c *OrbitConfig) Validate() error {
	if err := c.Simulation.Validate(); err != nil {
		return err
	}

	validLevels := map[string]bool{"warn": true, "info": true, "debug": true, "trace": true}
	if c.Logging.Level != "" && !validLevels[c.Logging.Level] {
		return fmt.Errorf("invalid log level: %s (valid: warn, info, debug, trace, or empty for default)", c.Logging.Level)
	}

	if c.View.FPS <= 0 {
		return fmt.Errorf("view.fps must be positive, got %d", c.View.FPS)
	}
	if c.View.StepsPerFrame <= 0 {
		return fmt.Errorf("view.steps_per_frame must be positive, got %d", c.View.StepsPerFrame)
	}
	if !(c.View.ScaleAU > 0) {
		return fmt.Errorf("view.scale_au must be positive, got %g", c.View.ScaleAU)
	}

	if c.Server.Addr == "" {
		return fmt.Errorf("server.addr must not be empty")
	}
	if c.Server.FrameInterval <= 0 {
		return fmt.Errorf("server.frame_interval must be positive, got %v", c.Server.FrameInterval)
	}
	if c.Server.StepsPerFrame <= 0 {
		return fmt.Errorf("server.steps_per_frame must be positive, got %d", c.Server.StepsPerFrame)
	}

	if c.Record.MaxRuns < 0 {
		return fmt.Errorf("record.max_runs must not be negative, got %d", c.Record.MaxRuns)
	}
	if _, err := c.Record.Retention(); err != nil {
		return err
	}

	return nil
}

type field struct {
	get func(c *OrbitConfig) any
	set func(c *OrbitConfig, v string) error
}

var fields = map[string]field{
	"simulation.gravitational_constant": {
		get: func(c *OrbitConfig) any { return c.Simulation.GravitationalConstant },
		set: func(c *OrbitConfig, v string) error { return parseFloat(v, &c.Simulation.GravitationalConstant) },
	},
	"simulation.time_step": {
		get: func(c *OrbitConfig) any { return c.Simulation.TimeStep },
		set: func(c *OrbitConfig, v string) error { return parseFloat(v, &c.Simulation.TimeStep) },
	},
	"simulation.max_trail_length": {
		get: func(c *OrbitConfig) any { return c.Simulation.MaxTrailLength },
		set: func(c *OrbitConfig, v string) error { return parseInt(v, &c.Simulation.MaxTrailLength) },
	},
	"simulation.workers": {
		get: func(c *OrbitConfig) any { return c.Simulation.Workers },
		set: func(c *OrbitConfig, v string) error { return parseInt(v, &c.Simulation.Workers) },
	},
	"scenario.name": {
		get: func(c *OrbitConfig) any { return c.Scenario.Name },
		set: func(c *OrbitConfig, v string) error { c.Scenario.Name = v; return nil },
	},
	"scenario.file": {
		get: func(c *OrbitConfig) any { return c.Scenario.File },
		set: func(c *OrbitConfig, v string) error { c.Scenario.File = v; return nil },
	},
	"logging.level": {
		get: func(c *OrbitConfig) any { return c.Logging.Level },
		set: func(c *OrbitConfig, v string) error { c.Logging.Level = v; return nil },
	},
	"logging.trace_dir": {
		get: func(c *OrbitConfig) any { return c.Logging.TraceDir },
		set: func(c *OrbitConfig, v string) error { c.Logging.TraceDir = v; return nil },
	},
	"view.fps": {
		get: func(c *OrbitConfig) any { return c.View.FPS },
		set: func(c *OrbitConfig, v string) error { return parseInt(v, &c.View.FPS) },
	},
	"view.steps_per_frame": {
		get: func(c *OrbitConfig) any { return c.View.StepsPerFrame },
		set: func(c *OrbitConfig, v string) error { return parseInt(v, &c.View.StepsPerFrame) },
	},
	"view.scale_au": {
		get: func(c *OrbitConfig) any { return c.View.ScaleAU },
		set: func(c *OrbitConfig, v string) error { return parseFloat(v, &c.View.ScaleAU) },
	},
	"view.show_trails": {
		get: func(c *OrbitConfig) any { return c.View.ShowTrails },
		set: func(c *OrbitConfig, v string) error { c.View.ShowTrails = parseBool(v); return nil },
	},
	"view.show_distances": {
		get: func(c *OrbitConfig) any { return c.View.ShowDistances },
		set: func(c *OrbitConfig, v string) error { c.View.ShowDistances = parseBool(v); return nil },
	},
	"server.addr": {
		get: func(c *OrbitConfig) any { return c.Server.Addr },
		set: func(c *OrbitConfig, v string) error { c.Server.Addr = v; return nil },
	},
	"server.frame_interval": {
		get: func(c *OrbitConfig) any { return c.Server.FrameInterval.String() },
		set: func(c *OrbitConfig, v string) error {
			d, err := time.ParseDuration(v)
			if err != nil {
				return fmt.Errorf("invalid duration: %s", v)
			}
			c.Server.FrameInterval = d
			return nil
		},
	},
	"server.steps_per_frame": {
		get: func(c *OrbitConfig) any { return c.Server.StepsPerFrame },
		set: func(c *OrbitConfig, v string) error { return parseInt(v, &c.Server.StepsPerFrame) },
	},
	"record.path": {
		get: func(c *OrbitConfig) any { return c.Record.Path },
		set: func(c *OrbitConfig, v string) error { c.Record.Path = v; return nil },
	},
	"record.max_runs": {
		get: func(c *OrbitConfig) any { return c.Record.MaxRuns },
		set: func(c *OrbitConfig, v string) error { return parseInt(v, &c.Record.MaxRuns) },
	},
	"record.max_age": {
		get: func(c *OrbitConfig) any { return c.Record.MaxAge },
		set: func(c *OrbitConfig, v string) error { c.Record.MaxAge = v; return nil },
	},
}

// Keys returns every dot-notation key accepted by Get and Set, sorted.
func Keys() []string {
	keys := make([]string, 0, len(fields))
	for k := range fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Get retrieves a configuration value by dot-notation key.
func (c *OrbitConfig) Get(key string) (any, error) {
	f, ok := fields[key]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownKey, key)
	}
	return f.get(c), nil
}

// Set assigns a configuration value by dot-notation key and re-validates.
// On failure the configuration is left unchanged.
func (c *OrbitConfig) Set(key, value string) error {
	f, ok := fields[key]
	if !ok {
		return fmt.Errorf("%w: %s", ErrUnknownKey, key)
	}

	next := *c
	if err := f.set(&next, value); err != nil {
		return fmt.Errorf("%s: %w", key, err)
	}
	if err := next.Validate(); err != nil {
		return err
	}
	*c = next
	return nil
}

// applyEnvOverrides applies environment variable overrides to the config.
func applyEnvOverrides(config *OrbitConfig) {
	if v := os.Getenv("ORBITSIM_GRAVITATIONAL_CONSTANT"); v != "" {
		_ = parseFloat(v, &config.Simulation.GravitationalConstant)
	}
	if v := os.Getenv("ORBITSIM_TIME_STEP"); v != "" {
		_ = parseFloat(v, &config.Simulation.TimeStep)
	}
	if v := os.Getenv("ORBITSIM_MAX_TRAIL_LENGTH"); v != "" {
		_ = parseInt(v, &config.Simulation.MaxTrailLength)
	}
	if v := os.Getenv("ORBITSIM_WORKERS"); v != "" {
		_ = parseInt(v, &config.Simulation.Workers)
	}

	if v := os.Getenv("ORBITSIM_SCENARIO"); v != "" {
		config.Scenario.Name = v
	}
	if v := os.Getenv("ORBITSIM_SCENARIO_FILE"); v != "" {
		config.Scenario.File = v
	}

	if v := os.Getenv("ORBITSIM_LOG_LEVEL"); v != "" {
		config.Logging.Level = v
	}
	if v := os.Getenv("ORBITSIM_TRACE_DIR"); v != "" {
		config.Logging.TraceDir = v
	}

	if v := os.Getenv("ORBITSIM_SERVER_ADDR"); v != "" {
		config.Server.Addr = v
	}
	if v := os.Getenv("ORBITSIM_RECORD_PATH"); v != "" {
		config.Record.Path = v
	}
}

func parseFloat(s string, dst *float64) error {
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return fmt.Errorf("invalid number: %s", s)
	}
	*dst = f
	return nil
}

func parseInt(s string, dst *int) error {
	n, err := strconv.Atoi(s)
	if err != nil {
		return fmt.Errorf("invalid integer: %s", s)
	}
	*dst = n
	return nil
}

func parseBool(s string) bool {
	return s == "true" || s == "1"
}

// expandEnvVars expands ${VAR} patterns in a string with environment variable values.
func expandEnvVars(s string) string {
	if !strings.Contains(s, "${") {
		return s
	}
	return os.Expand(s, os.Getenv)
}
