package internal

import (
	"fmt"
	"log/slog"
	"time"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/go-ozzo/ozzo-validation/v4/is"

	"github.com/starford/nbshell/internal/localstore"
)

// Config represents the application configuration.
type Config struct {
	App      ApplicationConfig `yaml:"app"`
	Upstream UpstreamConfig    `yaml:"upstream"`
	Store    StoreConfig       `yaml:"store"`
	Sidebar  SidebarConfig     `yaml:"sidebar"`
	Types    TypesConfig       `yaml:"types"`
}

// Validate validates the configuration.
func (c *Config) Validate() error {
	if err := c.App.Validate(); err != nil {
		return fmt.Errorf("app: %w", err)
	}
	if err := c.Upstream.Validate(); err != nil {
		return fmt.Errorf("upstream: %w", err)
	}
	if err := c.Store.Validate(); err != nil {
		return fmt.Errorf("store: %w", err)
	}
	return c.Sidebar.Validate()
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

// UpstreamConfig points at the notebook server REST API.
type UpstreamConfig struct {
	BaseURL string        `yaml:"base_url"`
	Timeout time.Duration `yaml:"timeout"`
}

// Validate validates the upstream configuration.
func (c *UpstreamConfig) Validate() error {
	return validation.ValidateStruct(c,
		validation.Field(&c.BaseURL, validation.Required, is.URL),
		validation.Field(&c.Timeout, validation.Required, validation.Min(100*time.Millisecond)),
	)
}

// StoreConfig selects where the session ticket is persisted.
//
// Driver is "sqlite" (Path is the database file) or "file" (Path is a
// directory holding one file per key). Keys are stored as Prefix.key.
type StoreConfig struct {
	Driver string `yaml:"driver"`
	Path   string `yaml:"path"`
	Prefix string `yaml:"prefix"`
}

// Validate validates the store configuration.
func (c *StoreConfig) Validate() error {
	if c.Driver == "" {
		c.Driver = localstore.DriverSQLite
	}
	return validation.ValidateStruct(c,
		validation.Field(&c.Driver, validation.In(localstore.DriverSQLite, localstore.DriverFile)),
		validation.Field(&c.Path, validation.Required),
		validation.Field(&c.Prefix, validation.Required),
	)
}

// SidebarConfig controls how often the notebook listing is polled and how
// often browsers are told about changes.
type SidebarConfig struct {
	RefreshInterval time.Duration `yaml:"refresh_interval"`
	EventThrottle   time.Duration `yaml:"event_throttle"`
}

// Validate validates the sidebar configuration.
func (c *SidebarConfig) Validate() error {
	return validation.ValidateStruct(c,
		validation.Field(&c.RefreshInterval, validation.Required, validation.Min(time.Second)),
		validation.Field(&c.EventThrottle, validation.Min(time.Duration(0))),
	)
}

// TypesConfig locates the optional YAML field type map. An empty MapPath
// disables type formatting and its watcher.
type TypesConfig struct {
	MapPath string `yaml:"map_path"`
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
		Upstream: UpstreamConfig{
			BaseURL: "http://localhost:8081/api",
			Timeout: 5 * time.Second,
		},
		Store: StoreConfig{
			Driver: localstore.DriverSQLite,
			Path:   "./nbshell.db",
			Prefix: "zeppelin",
		},
		Sidebar: SidebarConfig{
			RefreshInterval: 10 * time.Second,
			EventThrottle:   2 * time.Second,
		},
	}
}
