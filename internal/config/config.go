// Package config provides configuration management for the Heimdex Editor.
// Values come from defaults, then an optional YAML file in the data
// directory, then environment variables.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

const (
	// Default values
	DefaultPort     = 8788
	DefaultLogLevel = "info"
	DefaultDataDir  = ".heimdex-editor"
	DefaultUI       = UIWindow
	DefaultFFprobe  = "ffprobe"

	// Front ends
	UIWindow = "window"
	UITray   = "tray"
	UINone   = "none"

	// Environment variable names
	EnvPort     = "HEIMDEX_EDITOR_PORT"
	EnvLogLevel = "HEIMDEX_EDITOR_LOG_LEVEL"
	EnvDataDir  = "HEIMDEX_EDITOR_DATA_DIR"
	EnvUI       = "HEIMDEX_EDITOR_UI"
	EnvFFprobe  = "HEIMDEX_EDITOR_FFPROBE"

	// Generation backend environment variable names
	EnvBackendPython = "HEIMDEX_EDITOR_BACKEND_PYTHON"
	EnvBackendModule = "HEIMDEX_EDITOR_BACKEND_MODULE"

	// File names inside the data directory
	DBFilename     = "editor.db"
	ConfigFilename = "config.yaml"

	// Backend defaults
	DefaultBackendModule          = "heimdex_generate"
	DefaultBackendTimeoutDoctor   = 30   // seconds
	DefaultBackendTimeoutGenerate = 1800 // 30 minutes
)

// Config defines the application configuration interface
type Config interface {
	Port() int
	LogLevel() string
	DataDir() string
	DBPath() string
	OutputDir() string
	ConfigFile() string
	UI() string
	FFprobePath() string
	BackendPython() string
	BackendModule() string
	BackendTimeoutDoctor() time.Duration
	BackendTimeoutGenerate() time.Duration
}

// fileConfig is the YAML file layout. Zero values leave defaults in place.
type fileConfig struct {
	Port     int    `yaml:"port"`
	LogLevel string `yaml:"log_level"`
	UI       string `yaml:"ui"`
	FFprobe  string `yaml:"ffprobe"`
	Backend  struct {
		Python          string `yaml:"python"`
		Module          string `yaml:"module"`
		TimeoutDoctor   int    `yaml:"timeout_doctor_seconds"`
		TimeoutGenerate int    `yaml:"timeout_generate_seconds"`
	} `yaml:"backend"`
}

// EnvConfig reads configuration from the config file and environment
type EnvConfig struct {
	port     int
	logLevel string
	dataDir  string
	ui       string
	ffprobe  string

	backendPython          string
	backendModule          string
	backendTimeoutDoctor   int
	backendTimeoutGenerate int
}

// New creates a new EnvConfig with defaults, file values and environment
// variable overrides
func New() (*EnvConfig, error) {
	cfg := &EnvConfig{
		port:                   DefaultPort,
		logLevel:               DefaultLogLevel,
		dataDir:                defaultDataDir(),
		ui:                     DefaultUI,
		ffprobe:                DefaultFFprobe,
		backendTimeoutDoctor:   DefaultBackendTimeoutDoctor,
		backendTimeoutGenerate: DefaultBackendTimeoutGenerate,
	}

	// The data directory locates the config file, so it is resolved first
	if dd := os.Getenv(EnvDataDir); dd != "" {
		cfg.dataDir = dd
	}

	if err := cfg.loadFile(cfg.ConfigFile()); err != nil {
		return nil, err
	}

	// Override port from environment
	if p := os.Getenv(EnvPort); p != "" {
		port, err := strconv.Atoi(p)
		if err != nil {
			return nil, fmt.Errorf("invalid %s: %w", EnvPort, err)
		}
		cfg.port = port
	}
	if cfg.port < 1 || cfg.port > 65535 {
		return nil, fmt.Errorf("invalid port %d: port must be between 1 and 65535", cfg.port)
	}

	// Override log level from environment
	if ll := os.Getenv(EnvLogLevel); ll != "" {
		cfg.logLevel = ll
	}

	if ui := os.Getenv(EnvUI); ui != "" {
		cfg.ui = ui
	}
	switch cfg.ui {
	case UIWindow, UITray, UINone:
	default:
		return nil, fmt.Errorf("invalid ui %q: must be one of %s, %s, %s", cfg.ui, UIWindow, UITray, UINone)
	}

	if fp := os.Getenv(EnvFFprobe); fp != "" {
		cfg.ffprobe = fp
	}

	if bp := os.Getenv(EnvBackendPython); bp != "" {
		cfg.backendPython = bp
	}
	if bm := os.Getenv(EnvBackendModule); bm != "" {
		cfg.backendModule = bm
	}

	return cfg, nil
}

// loadFile applies the YAML file at path. A missing file is not an error.
func (c *EnvConfig) loadFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return fmt.Errorf("failed to read config file: %w", err)
	}

	var fc fileConfig
	if err := yaml.Unmarshal(data, &fc); err != nil {
		return fmt.Errorf("failed to parse config file %s: %w", path, err)
	}

	if fc.Port != 0 {
		c.port = fc.Port
	}
	if fc.LogLevel != "" {
		c.logLevel = fc.LogLevel
	}
	if fc.UI != "" {
		c.ui = fc.UI
	}
	if fc.FFprobe != "" {
		c.ffprobe = fc.FFprobe
	}
	if fc.Backend.Python != "" {
		c.backendPython = fc.Backend.Python
	}
	if fc.Backend.Module != "" {
		c.backendModule = fc.Backend.Module
	}
	if fc.Backend.TimeoutDoctor > 0 {
		c.backendTimeoutDoctor = fc.Backend.TimeoutDoctor
	}
	if fc.Backend.TimeoutGenerate > 0 {
		c.backendTimeoutGenerate = fc.Backend.TimeoutGenerate
	}
	return nil
}

// Port returns the HTTP server port
func (c *EnvConfig) Port() int {
	return c.port
}

// LogLevel returns the log level (debug, info, warn, error)
func (c *EnvConfig) LogLevel() string {
	return c.logLevel
}

// DataDir returns the data directory path
func (c *EnvConfig) DataDir() string {
	return c.dataDir
}

// DBPath returns the full path to the SQLite database file
func (c *EnvConfig) DBPath() string {
	return filepath.Join(c.dataDir, DBFilename)
}

// OutputDir is where generated clips and exports are written
func (c *EnvConfig) OutputDir() string {
	return filepath.Join(c.dataDir, "output")
}

// ConfigFile returns the path of the optional YAML config file
func (c *EnvConfig) ConfigFile() string {
	return filepath.Join(c.dataDir, ConfigFilename)
}

// UI returns the front end to start: window, tray or none
func (c *EnvConfig) UI() string {
	return c.ui
}

func (c *EnvConfig) FFprobePath() string {
	return c.ffprobe
}

func (c *EnvConfig) BackendPython() string {
	return c.backendPython
}

func (c *EnvConfig) BackendModule() string {
	if c.backendModule != "" {
		return c.backendModule
	}
	return DefaultBackendModule
}

func (c *EnvConfig) BackendTimeoutDoctor() time.Duration {
	return time.Duration(c.backendTimeoutDoctor) * time.Second
}

func (c *EnvConfig) BackendTimeoutGenerate() time.Duration {
	return time.Duration(c.backendTimeoutGenerate) * time.Second
}

// defaultDataDir returns the default data directory path
func defaultDataDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		// Fallback to current directory if home is not available
		return DefaultDataDir
	}
	return filepath.Join(home, DefaultDataDir)
}

// Version information (set at build time via ldflags)
var (
	Version   = "0.1.0"
	BuildTime = "unknown"
	GitCommit = "unknown"
)
