package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/ChamsBouzaiene/pagechat/internal/engine"
)

const appDir = "pagechat"

// Config holds the user's persistent configuration preferences.
type Config struct {
	Provider      string  `json:"provider,omitempty"`       // openai, lmstudio, ollama
	Model         string  `json:"model,omitempty"`          // Completion model name
	BaseURL       string  `json:"base_url,omitempty"`       // Optional override for API base URL
	MaxTokens     int     `json:"max_tokens,omitempty"`     // Reply token cap
	Temperature   *float32 `json:"temperature,omitempty"`   // Sampling temperature; absent means the engine default
	ContextBudget int     `json:"context_budget,omitempty"` // Characters of context sent per request
	SettleMS      int     `json:"settle_ms,omitempty"`      // Wait before reading the page; negative disables
	UserAgent     string  `json:"user_agent,omitempty"`     // User-Agent for plain HTTP page loads
	BrowserURL    string  `json:"browser_url,omitempty"`    // DevTools WebSocket of a running Chrome
	DBPath        string  `json:"db_path,omitempty"`        // Location of the key-value database
}

// Dispatch returns the completion parameters; unset fields take engine defaults.
func (c *Config) Dispatch() engine.DispatchConfig {
	return engine.DispatchConfig{
		Model:         c.Model,
		MaxTokens:     c.MaxTokens,
		Temperature:   c.Temperature,
		ContextBudget: c.ContextBudget,
	}
}

// Settle returns the page settle wait. Zero means the extractor default.
func (c *Config) Settle() time.Duration {
	if c.SettleMS < 0 {
		return -1
	}
	return time.Duration(c.SettleMS) * time.Millisecond
}

// ApplyEnv overlays environment overrides onto c.
func (c *Config) ApplyEnv(getenv func(string) string) {
	if v := getenv("PAGECHAT_PROVIDER"); v != "" {
		c.Provider = v
	}
	if v := getenv("PAGECHAT_MODEL"); v != "" {
		c.Model = v
	}
	if v := getenv("OPENAI_BASE_URL"); v != "" {
		c.BaseURL = v
	}
	if v := getenv("PAGECHAT_SETTLE_MS"); v != "" {
		if ms, err := strconv.Atoi(v); err == nil {
			c.SettleMS = ms
		}
	}
	if v := getenv("PAGECHAT_DB"); v != "" {
		c.DBPath = v
	}
	if v := getenv("PAGECHAT_BROWSER_URL"); v != "" {
		c.BrowserURL = v
	}
}

// Manager handles loading and saving the configuration.
type Manager struct {
	configDir string
}

// NewManager creates a configuration manager rooted in the user config dir.
func NewManager() (*Manager, error) {
	configDir, err := os.UserConfigDir()
	if err != nil {
		return nil, fmt.Errorf("failed to get user config dir: %w", err)
	}
	return NewManagerAt(filepath.Join(configDir, appDir)), nil
}

// NewManagerAt creates a configuration manager rooted in dir.
func NewManagerAt(dir string) *Manager {
	return &Manager{configDir: dir}
}

// Dir returns the configuration directory.
func (m *Manager) Dir() string {
	return m.configDir
}

// GetConfigPath returns the absolute path to the config.json file.
func (m *Manager) GetConfigPath() string {
	return filepath.Join(m.configDir, "config.json")
}

// DefaultDBPath is where the key-value database lives unless configured.
func (m *Manager) DefaultDBPath() string {
	return filepath.Join(m.configDir, "pagechat.db")
}

// Load reads the configuration from disk.
// If the file does not exist, it returns an empty Config and no error.
func (m *Manager) Load() (*Config, error) {
	path := m.GetConfigPath()

	if _, err := os.Stat(path); os.IsNotExist(err) {
		return &Config{}, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	var cfg Config
	if err := json.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config json: %w", err)
	}

	return &cfg, nil
}

// LoadWithEnv reads the file and applies process environment overrides.
func (m *Manager) LoadWithEnv() (*Config, error) {
	cfg, err := m.Load()
	if err != nil {
		return nil, err
	}
	cfg.ApplyEnv(os.Getenv)
	return cfg, nil
}

// Save writes the configuration to disk with restricted permissions (0600).
func (m *Manager) Save(cfg *Config) error {
	if err := os.MkdirAll(m.configDir, 0755); err != nil {
		return fmt.Errorf("failed to create config dir: %w", err)
	}

	data, err := json.MarshalIndent(cfg, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	path := m.GetConfigPath()
	if err := os.WriteFile(path, data, 0600); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

// Exists checks if the configuration file has been created.
func (m *Manager) Exists() bool {
	_, err := os.Stat(m.GetConfigPath())
	return !os.IsNotExist(err)
}
