package model

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/viper"
)

// APIConfig holds settings for the marketplace REST backend.
type APIConfig struct {
	// BaseURL is the root URL of the REST API (e.g., https://api.example.com/api).
	BaseURL string `mapstructure:"base_url" yaml:"base_url"`

	// TimeoutSec bounds a single HTTP request.
	TimeoutSec int `mapstructure:"timeout_sec" yaml:"timeout_sec"`
}

// SocketConfig holds settings for the realtime event channel.
type SocketConfig struct {
	// URL is the websocket endpoint (e.g., ws://localhost:5000/ws).
	URL string `mapstructure:"url" yaml:"url"`

	// ReconnectAttempts bounds automatic reconnection before the
	// adapter gives up and the app runs on polling alone.
	ReconnectAttempts int `mapstructure:"reconnect_attempts" yaml:"reconnect_attempts"`

	// ReconnectDelaySec is the fixed delay between reconnect attempts.
	ReconnectDelaySec int `mapstructure:"reconnect_delay_sec" yaml:"reconnect_delay_sec"`
}

// DisplayConfig holds UI/rendering preferences.
type DisplayConfig struct {
	Theme string `mapstructure:"theme" yaml:"theme"`

	// PollIntervalSec is how often the notification cache and dashboard
	// counters re-fetch. Deliberately aggressive so the dashboards feel
	// live even when the channel never connects.
	PollIntervalSec int `mapstructure:"poll_interval_sec" yaml:"poll_interval_sec"`

	// RingingMs is how long the bell rings after a qualifying increase.
	RingingMs int `mapstructure:"ringing_ms" yaml:"ringing_ms"`

	// HighlightMs is how long a deep-linked row stays highlighted.
	HighlightMs int `mapstructure:"highlight_ms" yaml:"highlight_ms"`
}

// AppConfig is the top-level application configuration.
type AppConfig struct {
	API     APIConfig     `mapstructure:"api" yaml:"api"`
	Socket  SocketConfig  `mapstructure:"socket" yaml:"socket"`
	Display DisplayConfig `mapstructure:"display" yaml:"display"`
}

// DefaultConfigPath returns the default path for the configuration file,
// located at ~/.config/estatedesk/config.yaml.
func DefaultConfigPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join(".", "config.yaml")
	}
	return filepath.Join(home, ".config", "estatedesk", "config.yaml")
}

// DataDir returns the directory used for the local database and log file,
// creating it if needed.
func DataDir() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("resolving home directory: %w", err)
	}
	dir := filepath.Join(home, ".config", "estatedesk")
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("creating data directory %s: %w", dir, err)
	}
	return dir, nil
}

// defaultAppConfig returns a sensible default configuration.
func defaultAppConfig() *AppConfig {
	return &AppConfig{
		API: APIConfig{
			BaseURL:    "http://localhost:5000/api",
			TimeoutSec: 30,
		},
		Socket: SocketConfig{
			URL:               "ws://localhost:5000/ws",
			ReconnectAttempts: 5,
			ReconnectDelaySec: 1,
		},
		Display: DisplayConfig{
			Theme:           "default",
			PollIntervalSec: 1,
			RingingMs:       3000,
			HighlightMs:     3000,
		},
	}
}

// LoadConfig reads configuration from the given YAML file path using Viper.
// If the file does not exist, it returns a default configuration.
func LoadConfig(path string) (*AppConfig, error) {
	v := viper.New()
	v.SetConfigFile(path)
	v.SetConfigType("yaml")

	// Set defaults so missing keys resolve to sensible values.
	v.SetDefault("api.base_url", "http://localhost:5000/api")
	v.SetDefault("api.timeout_sec", 30)
	v.SetDefault("socket.url", "ws://localhost:5000/ws")
	v.SetDefault("socket.reconnect_attempts", 5)
	v.SetDefault("socket.reconnect_delay_sec", 1)
	v.SetDefault("display.theme", "default")
	v.SetDefault("display.poll_interval_sec", 1)
	v.SetDefault("display.ringing_ms", 3000)
	v.SetDefault("display.highlight_ms", 3000)

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(*os.PathError); ok {
			return defaultAppConfig(), nil
		}
		if _, ok := err.(viper.ConfigFileNotFoundError); ok {
			return defaultAppConfig(), nil
		}
		return nil, fmt.Errorf("reading config %s: %w", path, err)
	}

	cfg := defaultAppConfig()
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("parsing config %s: %w", path, err)
	}

	return cfg, nil
}

// SaveConfig writes the given configuration to a YAML file at path,
// creating parent directories if needed.
func SaveConfig(path string, cfg *AppConfig) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("creating config directory %s: %w", dir, err)
	}

	v := viper.New()
	v.SetConfigFile(path)
	v.SetConfigType("yaml")

	v.Set("api", cfg.API)
	v.Set("socket", cfg.Socket)
	v.Set("display", cfg.Display)

	if err := v.WriteConfigAs(path); err != nil {
		return fmt.Errorf("writing config to %s: %w", path, err)
	}

	return nil
}
