package config

import (
	"fmt"
	"os"
	"strings"

	"github.com/mitchellh/mapstructure"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"
)

const (
	// EnvPrefix is the prefix of environment variables overriding config keys.
	// A key such as database.postgres.host maps to BUILDSTORE_DATABASE_POSTGRES_HOST.
	EnvPrefix = "BUILDSTORE"

	// DefaultLogLevel is the default logging level.
	DefaultLogLevel = "info"

	// DefaultDriver is the default database driver.
	DefaultDriver = DriverPostgres

	// DefaultPostgresPort is the default PostgreSQL port.
	DefaultPostgresPort = 5432

	// DefaultSSLMode is the default PostgreSQL sslmode.
	DefaultSSLMode = "disable"
)

// legacyEnv maps config keys to the environment variables the service
// deployment has always exported for its PostgreSQL instance.
var legacyEnv = map[string]string{
	"database.postgres.user":     "POSTGRESQL_USER",
	"database.postgres.password": "POSTGRESQL_PASSWORD",
	"database.postgres.database": "POSTGRESQL_DATABASE",
	"database.postgres.host":     "POSTGRESQL_SERVICE_HOST",
	"database.postgres.port":     "POSTGRESQL_SERVICE_PORT",
}

// Config is the root configuration for buildstore.
type Config struct {
	Global   GlobalConfig   `yaml:"global" mapstructure:"global"`
	Database DatabaseConfig `yaml:"database" mapstructure:"database"`
}

// GlobalConfig contains global application settings.
type GlobalConfig struct {
	LogLevel string `yaml:"log_level" mapstructure:"log_level"`
}

// Load reads the given configuration files, merging them in order, and
// applies environment overrides. With no paths the configuration is built
// from defaults and the environment alone.
func Load(paths ...string) (*Config, error) {
	v := viper.New()

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	setDefaults(v)

	for key, name := range legacyEnv {
		envKey := EnvPrefix + "_" + strings.ToUpper(strings.ReplaceAll(key, ".", "_"))
		if err := v.BindEnv(key, envKey, name); err != nil {
			return nil, fmt.Errorf("binding env for %s: %w", key, err)
		}
	}

	for _, path := range paths {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("reading config file: %w", err)
		}

		var raw map[string]any
		if err := yaml.Unmarshal(data, &raw); err != nil {
			return nil, fmt.Errorf("parsing config file %s: %w", path, err)
		}

		if err := v.MergeConfigMap(raw); err != nil {
			return nil, fmt.Errorf("merging config file %s: %w", path, err)
		}
	}

	var cfg Config

	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		Result:           &cfg,
		WeaklyTypedInput: true,
		TagName:          "mapstructure",
	})
	if err != nil {
		return nil, fmt.Errorf("creating config decoder: %w", err)
	}

	if err := decoder.Decode(v.AllSettings()); err != nil {
		return nil, fmt.Errorf("decoding config: %w", err)
	}

	cfg.applyDefaults()

	return &cfg, nil
}

// setDefaults registers every key with viper so that AutomaticEnv can
// override keys absent from the config files.
func setDefaults(v *viper.Viper) {
	v.SetDefault("global.log_level", DefaultLogLevel)
	v.SetDefault("database.driver", string(DefaultDriver))
	v.SetDefault("database.sqlite.path", "")
	v.SetDefault("database.postgres.host", "")
	v.SetDefault("database.postgres.port", DefaultPostgresPort)
	v.SetDefault("database.postgres.user", "")
	v.SetDefault("database.postgres.password", "")
	v.SetDefault("database.postgres.database", "")
	v.SetDefault("database.postgres.ssl_mode", DefaultSSLMode)
}

// applyDefaults fills values a config file explicitly left empty.
func (c *Config) applyDefaults() {
	if c.Global.LogLevel == "" {
		c.Global.LogLevel = DefaultLogLevel
	}

	if c.Database.Driver == "" {
		c.Database.Driver = DefaultDriver
	}

	if c.Database.Postgres.Port == 0 {
		c.Database.Postgres.Port = DefaultPostgresPort
	}

	if c.Database.Postgres.SSLMode == "" {
		c.Database.Postgres.SSLMode = DefaultSSLMode
	}
}

// Validate checks the configuration for errors.
func (c *Config) Validate() error {
	if err := c.Database.Validate(); err != nil {
		return fmt.Errorf("database: %w", err)
	}

	return nil
}

// Dump renders the configuration as YAML with the password masked.
func (c *Config) Dump() ([]byte, error) {
	masked := *c
	if masked.Database.Postgres.Password != "" {
		masked.Database.Postgres.Password = "********"
	}

	out, err := yaml.Marshal(&masked)
	if err != nil {
		return nil, fmt.Errorf("marshalling config: %w", err)
	}

	return out, nil
}
