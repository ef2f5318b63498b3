package odbc

import (
	"fmt"
	"os"
	"sort"
	"strings"
	"time"

	"go.uber.org/zap"
	"gopkg.in/yaml.v3"
)

// Duration is a time.Duration that unmarshals from yaml strings like
// "30s" or "1m".
type Duration time.Duration

func (d *Duration) UnmarshalYAML(value *yaml.Node) error {
	var s string
	if err := value.Decode(&s); err != nil {
		return err
	}
	v, err := time.ParseDuration(s)
	if err != nil {
		return newKindError(InvalidConfig, "bad duration %q: %v", s, err)
	}
	*d = Duration(v)
	return nil
}

func (d Duration) MarshalYAML() (interface{}, error) {
	return time.Duration(d).String(), nil
}

// Config describes one data source. Either DSN holds a complete
// connection string, or Driver/Server and friends are assembled into
// one by ConnectionString.
type Config struct {
	Driver   string `yaml:"driver"`
	Server   string `yaml:"server"`
	Port     int    `yaml:"port"`
	Database string `yaml:"database"`
	User     string `yaml:"user"`
	Password string `yaml:"password"`

	// Trusted selects integrated authentication instead of User/Password.
	Trusted bool `yaml:"trusted"`

	// DSN, when set, is passed to the driver untouched and the fields
	// above are ignored.
	DSN string `yaml:"dsn"`

	// Params are extra key=value attributes appended to the connection
	// string, e.g. TDS_Version for FreeTDS.
	Params map[string]string `yaml:"params"`

	LoginTimeout Duration `yaml:"login_timeout"`

	// ConnTimeout bounds individual driver calls after the connection
	// is up; zero leaves the driver default.
	ConnTimeout Duration `yaml:"conn_timeout"`

	PoolSize           int      `yaml:"pool_size"`
	PoolAcquireTimeout Duration `yaml:"pool_acquire_timeout"`

	Logger *zap.Logger `yaml:"-"`
}

// LoadConfig reads a YAML config file and validates it.
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read %q: %w", path, err)
	}
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse %q: %w", path, err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks the config before any driver call is made.
func (c *Config) Validate() error {
	if c.DSN == "" {
		if c.Driver == "" {
			return newKindError(InvalidConfig, "driver name is required")
		}
		if c.Server == "" {
			return newKindError(InvalidConfig, "server is required")
		}
	}
	if c.Port < 0 || c.Port > 65535 {
		return newKindError(InvalidConfig, "port %d out of range", c.Port)
	}
	if c.LoginTimeout < 0 {
		return newKindError(InvalidConfig, "login timeout must not be negative")
	}
	if c.ConnTimeout < 0 {
		return newKindError(InvalidConfig, "connection timeout must not be negative")
	}
	if c.PoolSize < 0 {
		return newKindError(InvalidConfig, "pool size must not be negative")
	}
	if c.PoolAcquireTimeout < 0 {
		return newKindError(InvalidConfig, "pool acquire timeout must not be negative")
	}
	for k, v := range c.Params {
		if k == "" {
			return newKindError(InvalidConfig, "empty parameter name")
		}
		if strings.ContainsAny(k, "=;") {
			return newKindError(InvalidConfig, "parameter name %q contains a separator", k)
		}
		if strings.ContainsAny(v, ";") {
			return newKindError(InvalidConfig, "parameter %q value contains a separator", k)
		}
	}
	return nil
}

// ConnectionString assembles the key=value connection string handed to
// SQLDriverConnect. Extra Params are appended in sorted order so the
// result is deterministic.
func (c *Config) ConnectionString() string {
	if c.DSN != "" {
		return c.DSN
	}
	var b strings.Builder
	pair := func(k, v string) {
		b.WriteString(k)
		b.WriteByte('=')
		b.WriteString(v)
		b.WriteByte(';')
	}
	pair("driver", "{"+c.Driver+"}")
	if c.Port != 0 {
		pair("server", fmt.Sprintf("%s,%d", c.Server, c.Port))
	} else {
		pair("server", c.Server)
	}
	if c.Database != "" {
		pair("database", c.Database)
	}
	if c.Trusted {
		pair("trusted_connection", "yes")
	} else if c.User != "" {
		pair("uid", c.User)
		pair("pwd", c.Password)
	}
	keys := make([]string, 0, len(c.Params))
	for k := range c.Params {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		pair(k, c.Params[k])
	}
	return b.String()
}

func (c *Config) logger() *zap.Logger {
	if c.Logger != nil {
		return c.Logger
	}
	return zap.NewNop()
}
