package config

import (
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/vango-dev/fluxe/internal/errors"
	"gopkg.in/yaml.v3"
)

const (
	// DefaultHost is the default devtools server host.
	DefaultHost = "localhost"

	// DefaultPort is the default devtools server port.
	DefaultPort = 7070

	// DefaultNamespace is the default metrics namespace.
	DefaultNamespace = "fluxe"

	// DefaultTracerName is the default OpenTelemetry tracer name.
	DefaultTracerName = "fluxe"

	// DefaultShutdownTimeout bounds the devtools server shutdown.
	DefaultShutdownTimeout = 5 * time.Second
)

// FileNames are the configuration file names Load looks for, in order.
var FileNames = []string{"fluxe.yaml", "fluxe.yml", "fluxe.json"}

// Config represents the complete fluxe configuration.
type Config struct {
	// Name is the application name, used in log lines.
	Name string `json:"name,omitempty" yaml:"name,omitempty"`

	// Log configures the structured logger.
	Log LogConfig `json:"log" yaml:"log"`

	// Devtools configures the inspection server.
	Devtools DevtoolsConfig `json:"devtools" yaml:"devtools"`

	// Metrics configures Prometheus metrics.
	Metrics MetricsConfig `json:"metrics" yaml:"metrics"`

	// Tracing configures OpenTelemetry tracing.
	Tracing TracingConfig `json:"tracing" yaml:"tracing"`

	// Demo configures the demo stores served by fluxe serve.
	Demo DemoConfig `json:"demo" yaml:"demo"`

	// path stores where the config was loaded from.
	path string
}

// LogConfig configures the structured logger.
type LogConfig struct {
	// Level is debug, info, warn or error (default: info).
	Level string `json:"level,omitempty" yaml:"level,omitempty"`

	// Format is text or json (default: text).
	Format string `json:"format,omitempty" yaml:"format,omitempty"`
}

// DevtoolsConfig configures the inspection server.
type DevtoolsConfig struct {
	Host string `json:"host,omitempty" yaml:"host,omitempty"`
	Port int    `json:"port,omitempty" yaml:"port,omitempty"`

	// MaxBodyBytes limits action request bodies (default: 1 MiB).
	MaxBodyBytes int64 `json:"max_body_bytes,omitempty" yaml:"max_body_bytes,omitempty"`

	// ShutdownTimeout bounds graceful shutdown (default: 5s).
	ShutdownTimeout Duration `json:"shutdown_timeout,omitempty" yaml:"shutdown_timeout,omitempty"`
}

// MetricsConfig configures Prometheus metrics.
type MetricsConfig struct {
	Enabled   bool   `json:"enabled" yaml:"enabled"`
	Namespace string `json:"namespace,omitempty" yaml:"namespace,omitempty"`
}

// TracingConfig configures OpenTelemetry tracing.
type TracingConfig struct {
	Enabled        bool   `json:"enabled" yaml:"enabled"`
	TracerName     string `json:"tracer_name,omitempty" yaml:"tracer_name,omitempty"`
	IncludeOptions bool   `json:"include_options,omitempty" yaml:"include_options,omitempty"`
}

// DemoConfig configures the demo stores.
type DemoConfig struct {
	// SeedFile is a YAML or JSON todo list loaded at startup. A relative
	// path is resolved against the config file's directory.
	SeedFile string `json:"seed_file,omitempty" yaml:"seed_file,omitempty"`
}

// Duration wraps time.Duration for YAML and JSON unmarshalling.
// It accepts duration strings like "5s" or "250ms".
type Duration time.Duration

// UnmarshalYAML implements yaml.Unmarshaler for Duration.
func (d *Duration) UnmarshalYAML(node *yaml.Node) error {
	var s string
	if err := node.Decode(&s); err != nil {
		return err
	}
	return d.parse(s)
}

// UnmarshalJSON implements json.Unmarshaler for Duration.
func (d *Duration) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return fmt.Errorf("duration must be a string like \"5s\": %w", err)
	}
	return d.parse(s)
}

// MarshalYAML implements yaml.Marshaler for Duration.
func (d Duration) MarshalYAML() (any, error) {
	return d.Duration().String(), nil
}

// MarshalJSON implements json.Marshaler for Duration.
func (d Duration) MarshalJSON() ([]byte, error) {
	return json.Marshal(d.Duration().String())
}

func (d *Duration) parse(s string) error {
	parsed, err := time.ParseDuration(s)
	if err != nil {
		return fmt.Errorf("invalid duration %q: %w", s, err)
	}
	*d = Duration(parsed)
	return nil
}

// Duration returns the underlying time.Duration value.
func (d Duration) Duration() time.Duration {
	return time.Duration(d)
}

// New creates a Config with default values.
func New() *Config {
	cfg := &Config{}
	cfg.applyDefaults()
	return cfg
}

// Load reads the first configuration file of FileNames found in dir.
func Load(dir string) (*Config, error) {
	for _, name := range FileNames {
		path := filepath.Join(dir, name)
		if _, err := os.Stat(path); err == nil {
			return LoadFile(path)
		}
	}
	return nil, errors.New(errors.CodeConfigRead).
		WithDetail("No fluxe.yaml, fluxe.yml or fluxe.json found in " + dir)
}

// LoadFile reads and validates the configuration file at path. The format
// follows the extension: .json is JSON, anything else YAML.
func LoadFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.New(errors.CodeConfigRead).Wrap(err)
	}

	cfg, err := Parse(data, formatOf(path))
	if err != nil {
		return nil, err
	}
	cfg.path = path
	return cfg, nil
}

// Format is a configuration file encoding.
type Format string

const (
	FormatYAML Format = "yaml"
	FormatJSON Format = "json"
)

func formatOf(path string) Format {
	if strings.EqualFold(filepath.Ext(path), ".json") {
		return FormatJSON
	}
	return FormatYAML
}

// Parse decodes, defaults and validates a configuration.
func Parse(data []byte, format Format) (*Config, error) {
	cfg := &Config{}

	var err error
	switch format {
	case FormatJSON:
		err = json.Unmarshal(data, cfg)
	default:
		err = yaml.Unmarshal(data, cfg)
	}
	if err != nil {
		return nil, errors.New(errors.CodeConfigRead).
			WithDetail(fmt.Sprintf("Failed to parse %s configuration: %v", format, err)).
			WithSuggestion(fmt.Sprintf("Check that the file is valid %s.", strings.ToUpper(string(format))))
	}

	cfg.applyDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Path returns the file the config was loaded from, if any.
func (c *Config) Path() string {
	return c.path
}

func (c *Config) applyDefaults() {
	if c.Log.Level == "" {
		c.Log.Level = "info"
	}
	if c.Log.Format == "" {
		c.Log.Format = "text"
	}
	if c.Devtools.Host == "" {
		c.Devtools.Host = DefaultHost
	}
	if c.Devtools.Port == 0 {
		c.Devtools.Port = DefaultPort
	}
	if c.Devtools.MaxBodyBytes == 0 {
		c.Devtools.MaxBodyBytes = 1 << 20
	}
	if c.Devtools.ShutdownTimeout == 0 {
		c.Devtools.ShutdownTimeout = Duration(DefaultShutdownTimeout)
	}
	if c.Metrics.Namespace == "" {
		c.Metrics.Namespace = DefaultNamespace
	}
	if c.Tracing.TracerName == "" {
		c.Tracing.TracerName = DefaultTracerName
	}
}

// Validate checks the configuration for invalid values.
func (c *Config) Validate() error {
	invalid := func(detail string) error {
		return errors.New(errors.CodeConfigInvalid).WithDetail(detail)
	}

	if _, err := ParseLevel(c.Log.Level); err != nil {
		return invalid(err.Error())
	}
	if c.Log.Format != "text" && c.Log.Format != "json" {
		return invalid(fmt.Sprintf("log.format must be text or json, got %q", c.Log.Format))
	}
	if c.Devtools.Port < 0 || c.Devtools.Port > 65535 {
		return invalid("devtools.port must be between 0 and 65535")
	}
	if c.Devtools.MaxBodyBytes < 0 {
		return invalid("devtools.max_body_bytes must not be negative")
	}
	if c.Devtools.ShutdownTimeout.Duration() < 0 {
		return invalid("devtools.shutdown_timeout must not be negative")
	}
	if strings.ContainsAny(c.Metrics.Namespace, "-. ") {
		return invalid(fmt.Sprintf("metrics.namespace %q may only contain letters, digits and underscores", c.Metrics.Namespace))
	}
	return nil
}

// DevtoolsAddress returns the devtools listen address.
func (c *Config) DevtoolsAddress() string {
	return net.JoinHostPort(c.Devtools.Host, strconv.Itoa(c.Devtools.Port))
}

// SeedPath returns the demo seed file path, resolved against the directory
// the config was loaded from. It is empty when no seed file is set.
func (c *Config) SeedPath() string {
	seed := c.Demo.SeedFile
	if seed == "" || filepath.IsAbs(seed) || c.path == "" {
		return seed
	}
	return filepath.Join(filepath.Dir(c.path), seed)
}

// ParseLevel converts a level name into a slog.Level.
func ParseLevel(name string) (slog.Level, error) {
	var level slog.Level
	if err := level.UnmarshalText([]byte(name)); err != nil {
		return 0, fmt.Errorf("log.level must be debug, info, warn or error, got %q", name)
	}
	return level, nil
}

// NewLogger creates the logger described by the config, writing to w.
func (l LogConfig) NewLogger(w io.Writer) *slog.Logger {
	level, err := ParseLevel(l.Level)
	if err != nil {
		level = slog.LevelInfo
	}
	opts := &slog.HandlerOptions{Level: level}
	if l.Format == "json" {
		return slog.New(slog.NewJSONHandler(w, opts))
	}
	return slog.New(slog.NewTextHandler(w, opts))
}

// Exists reports whether dir contains a configuration file.
func Exists(dir string) bool {
	for _, name := range FileNames {
		if _, err := os.Stat(filepath.Join(dir, name)); err == nil {
			return true
		}
	}
	return false
}
