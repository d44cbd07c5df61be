package shared

import (
	_ "embed"
	"fmt"
	"os"
	"strconv"

	"github.com/BurntSushi/toml"
)

//go:embed config.example.toml
var exampleConf []byte

// Config represents the application configuration loaded from a TOML file.
type Config struct {
	Server    ServerConfig    `toml:"server"`
	Admin     AdminConfig     `toml:"admin"`
	Cookies   CookiesConfig   `toml:"cookies"`
	Retrieval RetrievalConfig `toml:"retrieval"`
	Database  DatabaseConfig  `toml:"database"`
}

// ServerConfig contains HTTP server settings.
type ServerConfig struct {
	Host           string   `toml:"host"`
	Port           int      `toml:"port"`
	AllowedOrigins []string `toml:"allowed_origins"`
	RateLimit      float64  `toml:"rate_limit"`
	RateBurst      int      `toml:"rate_burst"`
}

// AdminConfig contains the administrative secret gating cookie mutation.
//
// An empty key disables the upload/delete endpoints entirely (they fail
// closed with a misconfiguration error).
type AdminConfig struct {
	Key string `toml:"key"`
}

// CookiesConfig locates the singleton cookie artifact on disk.
type CookiesConfig struct {
	Path string `toml:"path"`
}

// RetrievalConfig contains extraction engine policy settings.
type RetrievalConfig struct {
	Binary               string   `toml:"binary"`
	Format               string   `toml:"format"`
	MergeContainer       string   `toml:"merge_container"`
	SocketTimeoutSeconds int      `toml:"socket_timeout_seconds"`
	Retries              int      `toml:"retries"`
	ExtractorRetries     int      `toml:"extractor_retries"`
	UserAgentPolicy      string   `toml:"user_agent_policy"`
	UserAgents           []string `toml:"user_agents"`
	WorkspaceRoot        string   `toml:"workspace_root"`
	MaxConcurrent        int      `toml:"max_concurrent"`
}

// DatabaseConfig contains database connection settings.
type DatabaseConfig struct {
	Path         string `toml:"path"`
	MaxOpenConns int    `toml:"max_open_conns"`
	MaxIdleConns int    `toml:"max_idle_conns"`
}

// LoadConfig reads and parses a TOML configuration file from the specified path.
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	var config Config
	if err := toml.Unmarshal(data, &config); err != nil {
		return nil, fmt.Errorf("%w: %s", ErrInvalidConfig, err)
	}

	return &config, nil
}

// DefaultConfig returns a Config with sensible defaults loaded from the embedded example config.
func DefaultConfig() *Config {
	var config Config
	if err := toml.Unmarshal(exampleConf, &config); err != nil {
		panic(fmt.Sprintf("failed to parse embedded default config: %v", err))
	}
	return &config
}

// CreateConfigFile creates a config.toml file at the specified path using the embedded example config.
func CreateConfigFile(path string) error {
	if _, err := os.Stat(path); err == nil {
		return fmt.Errorf("config file already exists at %s: %w", path, err)
	}

	if err := os.WriteFile(path, exampleConf, 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

// ApplyEnv overlays deployment environment variables onto the configuration.
//
// PORT and ADMIN_KEY are the two values hosting platforms inject at process
// start; they always win over the file.
func (c *Config) ApplyEnv() {
	if v := os.Getenv("PORT"); v != "" {
		if port, err := strconv.Atoi(v); err == nil {
			c.Server.Port = port
		}
	}
	if v := os.Getenv("ADMIN_KEY"); v != "" {
		c.Admin.Key = v
	}
}

// Addr returns the host:port pair the HTTP server listens on.
func (c *Config) Addr() string {
	return fmt.Sprintf("%s:%d", c.Server.Host, c.Server.Port)
}
