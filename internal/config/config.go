// ABOUTME: Configuration loading and parsing for updoot-server
// ABOUTME: Supports YAML files with environment variable expansion and a .env file

package config

import (
	"fmt"
	"os"
	"regexp"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Config represents the complete updoot-server configuration
type Config struct {
	Server   ServerConfig   `yaml:"server"`
	Database DatabaseConfig `yaml:"database"`
	Jellyfin JellyfinConfig `yaml:"jellyfin"`
	Admin    AdminConfig    `yaml:"admin"`
	Logging  LoggingConfig  `yaml:"logging"`
}

// ServerConfig holds the HTTP listener configuration
type ServerConfig struct {
	HTTPAddr string `yaml:"http_addr"`
	// RootPath is the URL prefix all routes are mounted under.
	RootPath string `yaml:"root_path"`
}

// DatabaseConfig holds database configuration
type DatabaseConfig struct {
	Path string `yaml:"path"`
}

// JellyfinConfig holds the connection settings for the Jellyfin server
// used to resolve display names.
type JellyfinConfig struct {
	URL     string        `yaml:"url"`
	APIKey  string        `yaml:"api_key"`
	Timeout time.Duration `yaml:"-"`

	// Raw string value for YAML unmarshaling
	TimeoutRaw string `yaml:"timeout"`
}

// AdminConfig lists the actor IDs allowed to use the admin endpoints
type AdminConfig struct {
	ActorIDs []string `yaml:"actor_ids"`
}

// LoggingConfig holds logging configuration
type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

// Load reads a configuration file from the given path and returns a parsed Config.
// A .env file in the working directory is loaded first, then environment
// variables in the format ${VAR_NAME} are expanded in the YAML content.
// A missing config file is not an error as long as the required fields can be
// filled from environment variables.
func Load(path string) (*Config, error) {
	// Match the original deployment style: secrets live in a .env file
	// next to the process. Ignore absence.
	_ = godotenv.Load()

	var cfg Config

	data, err := os.ReadFile(path)
	switch {
	case err == nil:
		expanded := expandEnvVars(string(data))
		if err := yaml.Unmarshal([]byte(expanded), &cfg); err != nil {
			return nil, fmt.Errorf("parsing config file: %w", err)
		}
	case os.IsNotExist(err):
		// Config entirely from environment
	default:
		return nil, fmt.Errorf("reading config file: %w", err)
	}

	applyEnvOverrides(&cfg)
	applyDefaults(&cfg)

	if err := parseDurations(&cfg); err != nil {
		return nil, fmt.Errorf("parsing durations: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validating config: %w", err)
	}

	return &cfg, nil
}

// applyEnvOverrides fills any field that has a dedicated environment variable.
// Environment values win over the config file, mirroring the original service.
func applyEnvOverrides(cfg *Config) {
	if v := os.Getenv("UPDOOT_HTTP_ADDR"); v != "" {
		cfg.Server.HTTPAddr = v
	}
	if v := os.Getenv("UPDOOT_ROOT_PATH"); v != "" {
		cfg.Server.RootPath = v
	}
	if v := os.Getenv("UPDOOT_DB_PATH"); v != "" {
		cfg.Database.Path = v
	}
	if v := os.Getenv("JELLYFIN_URL"); v != "" {
		cfg.Jellyfin.URL = v
	}
	if v := os.Getenv("JELLYFIN_API_KEY"); v != "" {
		cfg.Jellyfin.APIKey = v
	}
	if v := os.Getenv("UPDOOT_ADMIN_ACTOR_IDS"); v != "" {
		cfg.Admin.ActorIDs = splitActorIDs(v)
	}
	if v := os.Getenv("UPDOOT_LOG_LEVEL"); v != "" {
		cfg.Logging.Level = strings.ToLower(strings.TrimSpace(v))
	}
}

func applyDefaults(cfg *Config) {
	if cfg.Server.HTTPAddr == "" {
		cfg.Server.HTTPAddr = ":8080"
	}
	if cfg.Server.RootPath == "" {
		cfg.Server.RootPath = "/updoot"
	}
	if cfg.Database.Path == "" {
		cfg.Database.Path = "data/recommendations.db"
	}
	if cfg.Logging.Level == "" {
		cfg.Logging.Level = "info"
	}

	cfg.Server.RootPath = "/" + strings.Trim(cfg.Server.RootPath, "/")
	cfg.Jellyfin.URL = strings.TrimRight(strings.TrimSpace(cfg.Jellyfin.URL), "/")
	cfg.Admin.ActorIDs = normalizeActorIDs(cfg.Admin.ActorIDs)
}

// splitActorIDs parses a comma-separated actor ID list from the environment.
func splitActorIDs(s string) []string {
	return normalizeActorIDs(strings.Split(s, ","))
}

func normalizeActorIDs(ids []string) []string {
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		if trimmed := strings.TrimSpace(id); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}

// expandEnvVars replaces ${VAR_NAME} patterns with the corresponding environment variable values.
// If the environment variable is not set, it is replaced with an empty string.
func expandEnvVars(s string) string {
	re := regexp.MustCompile(`\$\{([^}]+)\}`)

	return re.ReplaceAllStringFunc(s, func(match string) string {
		varName := re.FindStringSubmatch(match)[1]
		return os.Getenv(varName)
	})
}

// Validate checks that all required configuration fields are present and valid.
// Returns an error describing the first validation failure encountered.
func (c *Config) Validate() error {
	if c.Server.HTTPAddr == "" {
		return fmt.Errorf("server.http_addr is required")
	}
	if c.Database.Path == "" {
		return fmt.Errorf("database.path is required")
	}
	if c.Jellyfin.URL == "" {
		return fmt.Errorf("jellyfin.url is required (or set JELLYFIN_URL)")
	}
	if c.Jellyfin.APIKey == "" {
		return fmt.Errorf("jellyfin.api_key is required (or set JELLYFIN_API_KEY)")
	}

	switch c.Logging.Level {
	case "", "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("logging.level %q is not one of debug, info, warn, error", c.Logging.Level)
	}

	return nil
}

// IsAdmin reports whether the given actor ID is in the configured admin list.
func (c *Config) IsAdmin(actorID string) bool {
	for _, id := range c.Admin.ActorIDs {
		if id == actorID {
			return true
		}
	}
	return false
}

// parseDurations converts the raw duration strings into time.Duration values
func parseDurations(cfg *Config) error {
	if cfg.Jellyfin.TimeoutRaw != "" {
		d, err := time.ParseDuration(cfg.Jellyfin.TimeoutRaw)
		if err != nil {
			return fmt.Errorf("parsing jellyfin.timeout %q: %w", cfg.Jellyfin.TimeoutRaw, err)
		}
		cfg.Jellyfin.Timeout = d
	}
	if cfg.Jellyfin.Timeout == 0 {
		cfg.Jellyfin.Timeout = 10 * time.Second
	}
	return nil
}
