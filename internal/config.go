package internal

import (
	"fmt"
	"log/slog"
	"time"

	validation "github.com/go-ozzo/ozzo-validation/v4"
)

// Auth modes.
const (
	AuthModeDisabled = "disabled"
	AuthModeJWT      = "jwt"
)

// Config represents the application configuration.
type Config struct {
	App    ApplicationConfig `yaml:"app"`
	SQLite SQLiteConfig      `yaml:"sqlite"`
	Auth   AuthConfig        `yaml:"auth"`
	Graph  GraphConfig       `yaml:"graph"`
	Tasks  TasksConfig       `yaml:"tasks"`
	Events EventsConfig      `yaml:"events"`
	MCP    MCPConfig         `yaml:"mcp"`
}

// Validate validates the configuration.
func (c *Config) Validate() error {
	if err := c.App.Validate(); err != nil {
		return err
	}
	if err := c.SQLite.Validate(); err != nil {
		return err
	}
	if err := c.Auth.Validate(); err != nil {
		return err
	}
	if err := c.Graph.Validate(); err != nil {
		return err
	}
	if err := c.Events.Validate(); err != nil {
		return err
	}
	return c.MCP.Validate()
}

// ApplicationConfig holds application-level configuration.
type ApplicationConfig struct {
	LogLevel slog.Level `yaml:"log_level"`
	HTTP     HTTPConfig `yaml:"http"`
}

// Validate validates the application configuration.
func (c *ApplicationConfig) Validate() error {
	return c.HTTP.Validate()
}

// HTTPConfig holds HTTP server configuration.
type HTTPConfig struct {
	Port int `yaml:"port"`
}

// Address returns HTTP server address.
func (c *HTTPConfig) Address() string {
	return fmt.Sprintf(":%d", c.Port)
}

// Validate validates the HTTP configuration.
func (c *HTTPConfig) Validate() error {
	return validation.ValidateStruct(c,
		validation.Field(&c.Port, validation.Required, validation.Min(1), validation.Max(65535)),
	)
}

// SQLiteConfig holds SQLite database configuration.
type SQLiteConfig struct {
	Path string `yaml:"path"`
}

// Validate validates the SQLite configuration.
func (c *SQLiteConfig) Validate() error {
	return validation.ValidateStruct(c,
		validation.Field(&c.Path, validation.Required),
	)
}

// AuthConfig holds authentication configuration.
//
// Mode controls how callers are identified:
//   - "disabled" (default): every request acts as DevExternalID, suitable for local dev.
//   - "jwt": HS256 bearer tokens signed with Secret.
type AuthConfig struct {
	Mode          string        `yaml:"mode"`
	Secret        string        `yaml:"secret"`
	TokenTTL      time.Duration `yaml:"token_ttl"`
	DevExternalID int64         `yaml:"dev_external_id"`
}

// Validate validates the auth configuration.
func (c *AuthConfig) Validate() error {
	if c.Mode == "" {
		c.Mode = AuthModeDisabled
	}
	if err := validation.ValidateStruct(c,
		validation.Field(&c.Mode, validation.Required, validation.In(AuthModeDisabled, AuthModeJWT)),
		validation.Field(&c.TokenTTL, validation.Min(time.Duration(0))),
	); err != nil {
		return err
	}
	switch c.Mode {
	case AuthModeJWT:
		if len(c.Secret) < 16 {
			return fmt.Errorf("auth: mode is %q but secret is shorter than 16 bytes", AuthModeJWT)
		}
	case AuthModeDisabled:
		if c.DevExternalID <= 0 {
			return fmt.Errorf("auth: mode is %q but dev_external_id is not set", AuthModeDisabled)
		}
	}
	return nil
}

// AuthEnabled returns true when bearer tokens are required.
func (c *AuthConfig) AuthEnabled() bool {
	return c.Mode == AuthModeJWT
}

// GraphConfig controls link rules and traversal limits.
type GraphConfig struct {
	AllowSelfLinks bool `yaml:"allow_self_links"`
	MaxDepth       int  `yaml:"max_depth"`
}

// Validate validates the graph configuration.
func (c *GraphConfig) Validate() error {
	return validation.ValidateStruct(c,
		validation.Field(&c.MaxDepth, validation.Required, validation.Min(1), validation.Max(10)),
	)
}

// TasksConfig controls task metadata behaviour.
type TasksConfig struct {
	AutoCompleteTimestamp bool `yaml:"auto_complete_timestamp"`
}

// EventsConfig controls the SSE broker.
type EventsConfig struct {
	GraphThrottle time.Duration `yaml:"graph_throttle"`
}

// Validate validates the events configuration.
func (c *EventsConfig) Validate() error {
	return validation.ValidateStruct(c,
		validation.Field(&c.GraphThrottle, validation.Min(time.Duration(0))),
	)
}

// MCPConfig holds the identity the MCP server acts as.
type MCPConfig struct {
	ExternalID int64 `yaml:"external_id"`
}

// Validate validates the MCP configuration.
func (c *MCPConfig) Validate() error {
	return validation.ValidateStruct(c,
		validation.Field(&c.ExternalID, validation.Min(int64(0))),
	)
}

// NewDefaultConfig returns a new Config with sensible default values.
func NewDefaultConfig() *Config {
	return &Config{
		App: ApplicationConfig{
			LogLevel: slog.LevelInfo,
			HTTP: HTTPConfig{
				Port: 8080,
			},
		},
		SQLite: SQLiteConfig{
			Path: "./telenote.db",
		},
		Auth: AuthConfig{
			Mode:          AuthModeDisabled,
			TokenTTL:      24 * time.Hour,
			DevExternalID: 1,
		},
		Graph: GraphConfig{
			AllowSelfLinks: true,
			MaxDepth:       3,
		},
		Tasks: TasksConfig{
			AutoCompleteTimestamp: true,
		},
		Events: EventsConfig{
			GraphThrottle: 2 * time.Second,
		},
	}
}
