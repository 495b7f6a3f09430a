package generate

import (
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"gopkg.in/yaml.v3"
)

// Settings is the backend configuration the editor owns. It is passed to
// every generation run as command line flags.
type Settings struct {
	Model                   string `yaml:"model" json:"model"`
	AttentionMode           string `yaml:"attention_mode" json:"attention_mode"`
	TransformerQuantization string `yaml:"transformer_quantization" json:"transformer_quantization"`
	VAEPrecision            string `yaml:"vae_precision" json:"vae_precision"`
	Resolution              string `yaml:"resolution" json:"resolution"`
	Steps                   int    `yaml:"steps" json:"steps"`
	KeepOutputs             int    `yaml:"keep_outputs" json:"keep_outputs"`
}

func DefaultSettings() Settings {
	return Settings{
		Model:                   "t2v",
		AttentionMode:           "auto",
		TransformerQuantization: "int8",
		VAEPrecision:            "16",
		Resolution:              "832x480",
		Steps:                   30,
		KeepOutputs:             5,
	}
}

// Validate checks values the backend would reject.
func (s Settings) Validate() error {
	switch s.AttentionMode {
	case "auto", "sdpa", "flash", "xformers", "sage", "sage2":
	default:
		return fmt.Errorf("unknown attention mode %q", s.AttentionMode)
	}
	switch s.TransformerQuantization {
	case "int8", "bf16":
	default:
		return fmt.Errorf("unknown transformer quantization %q", s.TransformerQuantization)
	}
	switch s.VAEPrecision {
	case "16", "32":
	default:
		return fmt.Errorf("unknown vae precision %q", s.VAEPrecision)
	}
	var w, h int
	if _, err := fmt.Sscanf(s.Resolution, "%dx%d", &w, &h); err != nil || w <= 0 || h <= 0 {
		return fmt.Errorf("invalid resolution %q", s.Resolution)
	}
	if s.Model == "" {
		return fmt.Errorf("model is required")
	}
	if s.Steps < 1 {
		return fmt.Errorf("steps must be positive")
	}
	if s.KeepOutputs < 0 {
		return fmt.Errorf("keep_outputs must not be negative")
	}
	return nil
}

func (s Settings) args() []string {
	return []string{
		"--model", s.Model,
		"--attention", s.AttentionMode,
		"--quantization", s.TransformerQuantization,
		"--vae-precision", s.VAEPrecision,
		"--resolution", s.Resolution,
		"--steps", fmt.Sprint(s.Steps),
	}
}

// SettingsStore owns the persisted Settings. The file is read on first use;
// changes are validated and written back by Apply.
type SettingsStore struct {
	path string

	mu       sync.Mutex
	loaded   bool
	settings Settings
}

func NewSettingsStore(path string) *SettingsStore {
	return &SettingsStore{path: path}
}

// Get returns the current settings, loading them on first use. A missing
// file yields the defaults.
func (s *SettingsStore) Get() (Settings, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.load(); err != nil {
		return Settings{}, err
	}
	return s.settings, nil
}

// Apply mutates a copy of the settings with fn, validates it and saves it.
// On any error the stored settings are unchanged.
func (s *SettingsStore) Apply(fn func(*Settings)) (Settings, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.load(); err != nil {
		return Settings{}, err
	}

	next := s.settings
	fn(&next)
	if err := next.Validate(); err != nil {
		return s.settings, fmt.Errorf("invalid settings: %w", err)
	}
	if err := s.save(next); err != nil {
		return s.settings, err
	}
	s.settings = next
	return next, nil
}

func (s *SettingsStore) load() error {
	if s.loaded {
		return nil
	}
	settings := DefaultSettings()
	data, err := os.ReadFile(s.path)
	switch {
	case os.IsNotExist(err):
	case err != nil:
		return fmt.Errorf("failed to read settings: %w", err)
	default:
		if err := yaml.Unmarshal(data, &settings); err != nil {
			return fmt.Errorf("failed to parse settings %s: %w", s.path, err)
		}
	}
	s.settings = settings
	s.loaded = true
	return nil
}

func (s *SettingsStore) save(settings Settings) error {
	data, err := yaml.Marshal(settings)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(s.path), 0755); err != nil {
		return fmt.Errorf("failed to create settings directory: %w", err)
	}
	return os.WriteFile(s.path, data, 0644)
}
