package internal

import (
	"fmt"
	"log/slog"
	"time"

	validation "github.com/go-ozzo/ozzo-validation/v4"

	"github.com/starford/mdtree/internal/recordstore"
)

// Config represents the application configuration.
type Config struct {
	App      ApplicationConfig `yaml:"app"`
	Database DatabaseConfig    `yaml:"database"`
	Events   EventsConfig      `yaml:"events"`
	Client   ClientConfig      `yaml:"client"`
}

// Validate validates the configuration.
func (c *Config) Validate() error {
	if err := c.App.Validate(); err != nil {
		return err
	}
	if err := c.Database.Validate(); err != nil {
		return err
	}
	if err := c.Events.Validate(); err != nil {
		return err
	}
	return c.Client.Validate()
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
	Port       int  `yaml:"port"`
	RequestLog bool `yaml:"request_log"`
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

// DatabaseConfig selects the authority's record store.
//
// Driver is "sqlite3" (DSN is a file path) or "pgx" (DSN is a Postgres
// connection string).
type DatabaseConfig struct {
	Driver string `yaml:"driver"`
	DSN    string `yaml:"dsn"`
}

// Validate validates the database configuration.
func (c *DatabaseConfig) Validate() error {
	if c.Driver == "" {
		c.Driver = recordstore.DriverSQLite
	}
	return validation.ValidateStruct(c,
		validation.Field(&c.Driver, validation.Required, validation.In(recordstore.DriverSQLite, recordstore.DriverPostgres)),
		validation.Field(&c.DSN, validation.Required),
	)
}

// EventsConfig tunes the change-event stream.
type EventsConfig struct {
	TreeThrottle time.Duration `yaml:"tree_throttle"`
	KeepAlive    time.Duration `yaml:"keep_alive"`
}

// Validate validates the events configuration.
func (c *EventsConfig) Validate() error {
	return validation.ValidateStruct(c,
		validation.Field(&c.TreeThrottle, validation.Min(time.Duration(0))),
		validation.Field(&c.KeepAlive, validation.Required, validation.Min(time.Second)),
	)
}

// ClientConfig holds settings for the tree store client commands.
type ClientConfig struct {
	RemoteURL     string        `yaml:"remote_url"`
	StateDir      string        `yaml:"state_dir"`
	LoadAttempts  int           `yaml:"load_attempts"`
	LoadBackoff   time.Duration `yaml:"load_backoff"`
	MirrorTimeout time.Duration `yaml:"mirror_timeout"`
}

// Validate validates the client configuration.
func (c *ClientConfig) Validate() error {
	return validation.ValidateStruct(c,
		validation.Field(&c.RemoteURL, validation.Required),
		validation.Field(&c.StateDir, validation.Required),
		validation.Field(&c.LoadAttempts, validation.Required, validation.Min(1), validation.Max(10)),
		validation.Field(&c.LoadBackoff, validation.Min(time.Duration(0))),
		validation.Field(&c.MirrorTimeout, validation.Required),
	)
}

// NewDefaultConfig returns a new Config with sensible default values.
func NewDefaultConfig() *Config {
	return &Config{
		App: ApplicationConfig{
			LogLevel: slog.LevelInfo,
			HTTP: HTTPConfig{
				Port:       8080,
				RequestLog: true,
			},
		},
		Database: DatabaseConfig{
			Driver: recordstore.DriverSQLite,
			DSN:    "./mdtree.db",
		},
		Events: EventsConfig{
			TreeThrottle: 2 * time.Second,
			KeepAlive:    30 * time.Second,
		},
		Client: ClientConfig{
			RemoteURL:     "http://127.0.0.1:8080",
			StateDir:      "./.mdtree",
			LoadAttempts:  3,
			LoadBackoff:   time.Second,
			MirrorTimeout: 15 * time.Second,
		},
	}
}
