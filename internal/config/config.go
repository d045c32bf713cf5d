// Package config loads the service configuration from YAML with
// environment overrides for deployment secrets.
package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Config is the full service configuration.
type Config struct {
	Server    ServerConfig    `yaml:"server"`
	Redis     RedisConfig     `yaml:"redis"`
	Providers ProvidersConfig `yaml:"providers"`
	Analysis  AnalysisConfig  `yaml:"analysis"`
}

// ServerConfig holds HTTP listener settings.
type ServerConfig struct {
	Host                string `yaml:"host"`
	Port                int    `yaml:"port"`
	ReadTimeoutSeconds  int    `yaml:"read_timeout_seconds"`
	WriteTimeoutSeconds int    `yaml:"write_timeout_seconds"`
	IdleTimeoutSeconds  int    `yaml:"idle_timeout_seconds"`
}

// ReadTimeout returns the read timeout as a duration.
func (s ServerConfig) ReadTimeout() time.Duration {
	return time.Duration(s.ReadTimeoutSeconds) * time.Second
}

// WriteTimeout returns the write timeout as a duration.
func (s ServerConfig) WriteTimeout() time.Duration {
	return time.Duration(s.WriteTimeoutSeconds) * time.Second
}

// IdleTimeout returns the idle timeout as a duration.
func (s ServerConfig) IdleTimeout() time.Duration {
	return time.Duration(s.IdleTimeoutSeconds) * time.Second
}

// Addr formats the listen address.
func (s ServerConfig) Addr() string { return fmt.Sprintf("%s:%d", s.Host, s.Port) }

// RedisConfig holds the shared cache tier settings. Empty Addr disables
// the tier.
type RedisConfig struct {
	Addr string `yaml:"addr"`
	DB   int    `yaml:"db"`
}

// ProviderConfig tunes one upstream client.
type ProviderConfig struct {
	BaseURL        string  `yaml:"base_url"`
	RPCURL         string  `yaml:"rpc_url"`
	APIKey         string  `yaml:"api_key"`
	TimeoutSeconds int     `yaml:"timeout_seconds"`
	RPS            float64 `yaml:"rps"`
	Burst          int     `yaml:"burst"`
}

// Timeout returns the request timeout as a duration.
func (p ProviderConfig) Timeout() time.Duration {
	return time.Duration(p.TimeoutSeconds) * time.Second
}

// ProvidersConfig groups all upstream clients.
type ProvidersConfig struct {
	Helius    ProviderConfig `yaml:"helius"`
	Jupiter   ProviderConfig `yaml:"jupiter"`
	CoinGecko ProviderConfig `yaml:"coingecko"`
}

// AnalysisConfig tunes the pipeline.
type AnalysisConfig struct {
	DefaultTxLimit int    `yaml:"default_tx_limit"`
	MaxTxLimit     int    `yaml:"max_tx_limit"`
	WeightsPath    string `yaml:"weights_path"`
}

// Default returns the configuration used when no file is given.
func Default() *Config {
	return &Config{
		Server: ServerConfig{
			Host:                "127.0.0.1",
			Port:                8080,
			ReadTimeoutSeconds:  15,
			WriteTimeoutSeconds: 60,
			IdleTimeoutSeconds:  60,
		},
		Providers: ProvidersConfig{
			Helius:    ProviderConfig{TimeoutSeconds: 20, RPS: 10, Burst: 5},
			Jupiter:   ProviderConfig{TimeoutSeconds: 15, RPS: 5, Burst: 3},
			CoinGecko: ProviderConfig{TimeoutSeconds: 10, RPS: 0.5, Burst: 2},
		},
		Analysis: AnalysisConfig{
			DefaultTxLimit: 100,
			MaxTxLimit:     500,
		},
	}
}

// Load reads path, merges it over defaults, then applies environment
// overrides. An empty path loads defaults plus environment only.
func Load(path string) (*Config, error) {
	cfg := Default()
	if path != "" {
		raw, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read config %s: %w", path, err)
		}
		if err := yaml.Unmarshal(raw, cfg); err != nil {
			return nil, fmt.Errorf("parse config %s: %w", path, err)
		}
	}
	cfg.applyEnv()
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) applyEnv() {
	if key := os.Getenv("HELIUS_API_KEY"); key != "" {
		c.Providers.Helius.APIKey = key
	}
	if addr := os.Getenv("REDIS_ADDR"); addr != "" {
		c.Redis.Addr = addr
	}
	if port := os.Getenv("HTTP_PORT"); port != "" {
		var p int
		if _, err := fmt.Sscanf(port, "%d", &p); err == nil && p > 0 {
			c.Server.Port = p
		}
	}
}

func (c *Config) validate() error {
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("invalid server port %d", c.Server.Port)
	}
	if c.Analysis.DefaultTxLimit <= 0 {
		return fmt.Errorf("default_tx_limit must be positive")
	}
	if c.Analysis.MaxTxLimit < c.Analysis.DefaultTxLimit {
		return fmt.Errorf("max_tx_limit %d below default_tx_limit %d",
			c.Analysis.MaxTxLimit, c.Analysis.DefaultTxLimit)
	}
	return nil
}
