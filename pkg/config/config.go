// Package config loads the application configuration from JSON or YAML.
package config

import (
	"encoding/json"
	"log"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

type Config struct {
	App       AppConfig                 `json:"app" yaml:"app"`
	Gateways  map[string]GatewayConfig  `json:"gateways" yaml:"gateways"`
	Providers map[string]ProviderConfig `json:"providers" yaml:"providers"`
	Memory    MemoryConfig              `json:"memory" yaml:"memory"`
	Weather   WeatherConfig             `json:"weather" yaml:"weather"`
}

type AppConfig struct {
	Name      string `json:"name" yaml:"name"`
	Workspace string `json:"workspace" yaml:"workspace"`
	Prompts   string `json:"prompts" yaml:"prompts"`
}

type GatewayConfig struct {
	Token   string `json:"token" yaml:"token"`
	Enabled bool   `json:"enabled" yaml:"enabled"`
}

type ProviderConfig struct {
	APIKey  string `json:"api_key" yaml:"api_key"`
	Model   string `json:"model" yaml:"model"`
	BaseURL string `json:"base_url,omitempty" yaml:"base_url,omitempty"`
	Enabled bool   `json:"enabled" yaml:"enabled"`
}

type MemoryConfig struct {
	Type string `json:"type" yaml:"type"`
	Path string `json:"path" yaml:"path"`
}

// WeatherConfig overrides the retrieval pipeline's data sources. The
// timeout applies uniformly to every outbound call the pipeline makes.
type WeatherConfig struct {
	WttrBaseURL    string `json:"wttr_base_url,omitempty" yaml:"wttr_base_url,omitempty"`
	GeocodeURL     string `json:"geocode_url,omitempty" yaml:"geocode_url,omitempty"`
	ForecastURL    string `json:"forecast_url,omitempty" yaml:"forecast_url,omitempty"`
	TimeoutSeconds int    `json:"timeout_seconds,omitempty" yaml:"timeout_seconds,omitempty"`
}

func LoadConfig(path string) *Config {
	data, err := os.ReadFile(path)
	if err != nil {
		log.Fatalf("failed to read config file: %v", err)
	}

	var cfg Config
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		err = yaml.Unmarshal(data, &cfg)
	default:
		err = json.Unmarshal(data, &cfg)
	}
	if err != nil {
		log.Fatalf("failed to decode config file: %v", err)
	}

	if cfg.Weather.TimeoutSeconds <= 0 {
		cfg.Weather.TimeoutSeconds = 10
	}
	return &cfg
}

// GetDefaultProvider returns the first enabled provider
func (c *Config) GetDefaultProvider() (string, ProviderConfig) {
	for name, p := range c.Providers {
		if p.Enabled {
			return name, p
		}
	}
	return "", ProviderConfig{}
}

// GetTelegramConfig returns telegram config if enabled
func (c *Config) GetTelegramConfig() (GatewayConfig, bool) {
	tg, ok := c.Gateways["telegram"]
	if ok && tg.Enabled {
		return tg, true
	}
	return GatewayConfig{}, false
}
