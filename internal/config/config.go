// Package config loads runner settings from a YAML file, QBUILD_ environment
// variables and command-line flags.
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/go-sql-driver/mysql"
	"github.com/pkg/errors"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

// EnvPrefix prefixes environment overrides, e.g. QBUILD_DSN.
const EnvPrefix = "QBUILD"

// Supported drivers.
const (
	DriverMySQL  = "mysql"
	DriverSQLite = "sqlite"
)

// Config holds everything needed to open a runner.
type Config struct {
	Driver          string        `mapstructure:"driver"`
	DSN             string        `mapstructure:"dsn"`
	MaxOpenConns    int           `mapstructure:"max_open_conns"`
	MaxIdleConns    int           `mapstructure:"max_idle_conns"`
	LogLevel        string        `mapstructure:"log_level"`
	Validate        bool          `mapstructure:"validate"`
	Strict          bool          `mapstructure:"strict"`
	Audit           string        `mapstructure:"audit"`
	Tracing         bool          `mapstructure:"tracing"`
	HealthInterval  time.Duration `mapstructure:"health_interval"`
	SensitiveFields []string      `mapstructure:"sensitive_fields"`
}

// Default returns the settings used for keys nobody set.
func Default() Config {
	return Config{
		Driver:   DriverMySQL,
		LogLevel: "info",
		Validate: true,
		Audit:    "none",
	}
}

// New returns a viper instance with defaults and environment binding set up.
func New() *viper.Viper {
	v := viper.New()
	d := Default()
	v.SetDefault("driver", d.Driver)
	v.SetDefault("dsn", d.DSN)
	v.SetDefault("max_open_conns", d.MaxOpenConns)
	v.SetDefault("max_idle_conns", d.MaxIdleConns)
	v.SetDefault("log_level", d.LogLevel)
	v.SetDefault("validate", d.Validate)
	v.SetDefault("strict", d.Strict)
	v.SetDefault("audit", d.Audit)
	v.SetDefault("tracing", d.Tracing)
	v.SetDefault("health_interval", d.HealthInterval)
	v.SetDefault("sensitive_fields", d.SensitiveFields)

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	v.AutomaticEnv()
	return v
}

// BindFlags registers the runner flags on fs and binds them to v. Flags use
// dashes: --max-open-conns, --log-level.
func BindFlags(v *viper.Viper, fs *pflag.FlagSet) error {
	d := Default()
	fs.String("driver", d.Driver, "database driver (mysql or sqlite)")
	fs.String("dsn", d.DSN, "data source name")
	fs.Int("max-open-conns", d.MaxOpenConns, "maximum open connections, 0 for unlimited")
	fs.Int("max-idle-conns", d.MaxIdleConns, "maximum idle connections")
	fs.String("log-level", d.LogLevel, "debug, info, warn or error")
	fs.Bool("validate", d.Validate, "screen statements for injection patterns")
	fs.Bool("strict", d.Strict, "reject quotes, semicolons and comments in statements")
	fs.String("audit", d.Audit, "audit level: none, writes or all")
	fs.Bool("tracing", d.Tracing, "emit OpenTelemetry spans")
	fs.Duration("health-interval", d.HealthInterval, "ping interval, 0 disables health checks")
	fs.StringSlice("sensitive-fields", d.SensitiveFields, "columns whose bindings are masked in logs")

	var err error
	fs.VisitAll(func(f *pflag.Flag) {
		if err != nil {
			return
		}
		err = v.BindPFlag(strings.ReplaceAll(f.Name, "-", "_"), f)
	})
	return errors.Wrap(err, "bind flags")
}

// Load reads path, if non-empty, into v and decodes the result.
func Load(v *viper.Viper, path string) (*Config, error) {
	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, errors.Wrapf(err, "read config %s", path)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, errors.Wrap(err, "decode config")
	}
	if err := cfg.Check(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// LoadFile is Load with a fresh viper instance.
func LoadFile(path string) (*Config, error) {
	return Load(New(), path)
}

// Check checks the driver, the DSN and the numeric limits.
func (c *Config) Check() error {
	switch c.Driver {
	case DriverMySQL:
		if _, err := mysql.ParseDSN(c.DSN); err != nil {
			return errors.Wrap(err, "invalid mysql dsn")
		}
	case DriverSQLite:
		if c.DSN == "" {
			return errors.New("sqlite dsn must not be empty")
		}
	default:
		return fmt.Errorf("unsupported driver %q", c.Driver)
	}

	if c.MaxOpenConns < 0 || c.MaxIdleConns < 0 || c.HealthInterval < 0 {
		return errors.New("connection limits and intervals must not be negative")
	}
	switch c.Audit {
	case "", "none", "writes", "all":
	default:
		return fmt.Errorf("unsupported audit level %q", c.Audit)
	}
	return nil
}
