package config

import (
	"fmt"
	"strings"

	"github.com/spf13/viper"

	"github.com/drug-response-server/internal/domain"
)

// Manager loads and validates server configuration using Viper
type Manager struct {
	v      *viper.Viper
	config *domain.Config
}

// NewManager creates a new configuration manager
func NewManager() (*Manager, error) {
	m := &Manager{v: viper.New()}
	if err := m.loadConfig(); err != nil {
		return nil, fmt.Errorf("failed to load configuration: %w", err)
	}
	return m, nil
}

// loadConfig loads configuration from file, environment and defaults
func (m *Manager) loadConfig() error {
	m.v.SetConfigName("config")
	m.v.SetConfigType("yaml")
	m.v.AddConfigPath(".")
	m.v.AddConfigPath("./config")
	m.v.AddConfigPath("/etc/drug-response-server/")

	m.v.SetEnvPrefix("DRP")
	m.v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	m.v.AutomaticEnv()

	m.setDefaults()

	// Config file is optional; defaults and env vars cover everything
	if err := m.v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return fmt.Errorf("error reading config file: %w", err)
		}
	}

	config := &domain.Config{}
	if err := m.v.Unmarshal(config); err != nil {
		return fmt.Errorf("error unmarshaling config: %w", err)
	}

	m.config = config
	return nil
}

// setDefaults sets default configuration values
func (m *Manager) setDefaults() {
	// Server defaults
	m.v.SetDefault("server.host", "0.0.0.0")
	m.v.SetDefault("server.port", 8080)
	m.v.SetDefault("server.read_timeout", "30s")
	m.v.SetDefault("server.write_timeout", "30s")
	m.v.SetDefault("server.idle_timeout", "120s")

	// Prediction backend defaults
	m.v.SetDefault("backend.base_url", "http://localhost:8000")
	m.v.SetDefault("backend.timeout", "30s")
	m.v.SetDefault("backend.rate_limit", 10)

	// External reference source defaults
	m.v.SetDefault("external_api.autocomplete.base_url", "https://pubchem.ncbi.nlm.nih.gov/rest/autocomplete/")
	m.v.SetDefault("external_api.autocomplete.timeout", "5s")
	m.v.SetDefault("external_api.autocomplete.rate_limit", 5)

	m.v.SetDefault("external_api.rxnorm.base_url", "https://rxnav.nlm.nih.gov/REST/")
	m.v.SetDefault("external_api.rxnorm.timeout", "5s")
	m.v.SetDefault("external_api.rxnorm.rate_limit", 5)

	m.v.SetDefault("external_api.openfda.base_url", "https://api.fda.gov/")
	m.v.SetDefault("external_api.openfda.timeout", "5s")
	m.v.SetDefault("external_api.openfda.rate_limit", 4)

	m.v.SetDefault("external_api.pubchem.base_url", "https://pubchem.ncbi.nlm.nih.gov/rest/pug/")
	m.v.SetDefault("external_api.pubchem.timeout", "5s")
	m.v.SetDefault("external_api.pubchem.rate_limit", 5)

	// Cache defaults
	m.v.SetDefault("cache.redis_enabled", false)
	m.v.SetDefault("cache.redis_url", "redis://localhost:6379")
	m.v.SetDefault("cache.default_ttl", "24h")
	m.v.SetDefault("cache.lru_size", 512)
	m.v.SetDefault("cache.pool_size", 10)
	m.v.SetDefault("cache.max_retries", 3)

	// Logging defaults
	m.v.SetDefault("logging.level", "info")
	m.v.SetDefault("logging.format", "json")
	m.v.SetDefault("logging.output", "stdout")
}

// GetConfig returns the complete configuration
func (m *Manager) GetConfig() *domain.Config {
	return m.config
}

// GetServerConfig returns server configuration
func (m *Manager) GetServerConfig() *domain.ServerConfig {
	return &m.config.Server
}

// GetBackendConfig returns prediction backend configuration
func (m *Manager) GetBackendConfig() *domain.BackendConfig {
	return &m.config.Backend
}

// GetExternalAPIConfig returns external source configuration
func (m *Manager) GetExternalAPIConfig() *domain.ExternalAPIConfig {
	return &m.config.ExternalAPI
}

// Reload reloads the configuration
func (m *Manager) Reload() error {
	return m.loadConfig()
}

// Validate validates the configuration
func (m *Manager) Validate() error {
	config := m.config

	if config.Server.Port <= 0 || config.Server.Port > 65535 {
		return fmt.Errorf("invalid server port: %d", config.Server.Port)
	}

	if config.Backend.BaseURL == "" {
		return fmt.Errorf("prediction backend base URL is required")
	}

	if config.ExternalAPI.Autocomplete.BaseURL == "" {
		return fmt.Errorf("autocomplete base URL is required")
	}
	if config.ExternalAPI.RxNorm.BaseURL == "" {
		return fmt.Errorf("RxNorm base URL is required")
	}
	if config.ExternalAPI.OpenFDA.BaseURL == "" {
		return fmt.Errorf("openFDA base URL is required")
	}
	if config.ExternalAPI.PubChem.BaseURL == "" {
		return fmt.Errorf("PubChem base URL is required")
	}

	if config.Cache.RedisEnabled && config.Cache.RedisURL == "" {
		return fmt.Errorf("Redis URL is required when Redis cache is enabled")
	}
	if config.Cache.LRUSize <= 0 {
		return fmt.Errorf("invalid LRU cache size: %d", config.Cache.LRUSize)
	}

	validLogLevels := map[string]bool{
		"debug": true, "info": true, "warn": true, "error": true, "fatal": true, "panic": true,
	}
	if !validLogLevels[strings.ToLower(config.Logging.Level)] {
		return fmt.Errorf("invalid log level: %s", config.Logging.Level)
	}

	return nil
}
