// Package config loads ledgerbook settings from defaults, an optional
// ledgerbook.yaml, LEDGERBOOK_* environment variables and command-line
// flags, in increasing order of precedence.
package config

import (
	"strings"

	"github.com/cockroachdb/errors"
	"github.com/go-playground/validator/v10"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/roach88/ledgerbook/internal/ledger"
)

// ErrInvalidConfig marks configuration that fails validation.
var ErrInvalidConfig = errors.New("invalid configuration")

// EnvPrefix prefixes every environment variable, e.g. LEDGERBOOK_DATABASE_PATH.
const EnvPrefix = "LEDGERBOOK"

type Config struct {
	Database  DatabaseConfig    `mapstructure:"database" validate:"required"`
	Log       LogConfig         `mapstructure:"log" validate:"required"`
	Catalog   CatalogConfig     `mapstructure:"catalog"`
	Customers []ledger.Customer `mapstructure:"customers" validate:"dive"`

	// File is the config file that was read, empty if none.
	File string `mapstructure:"-"`
}

type DatabaseConfig struct {
	Path string `mapstructure:"path" validate:"required"`
}

type LogConfig struct {
	Level string `mapstructure:"level" validate:"oneof=debug info warn error"`
}

type CatalogConfig struct {
	// SeedFile replaces the built-in seed list when set.
	SeedFile string `mapstructure:"seed_file"`

	// SearchLimit caps product search results; 0 means unlimited.
	SearchLimit int `mapstructure:"search_limit" validate:"gte=0"`
}

// flagKeys maps config keys to the flag names that override them.
var flagKeys = map[string]string{
	"database.path":     "database",
	"log.level":         "log-level",
	"catalog.seed_file": "seed-file",
}

// Options controls where Load looks.
type Options struct {
	// File is an explicit config file. When empty, ledgerbook.yaml is
	// searched for in the working directory and $HOME/.config/ledgerbook,
	// and a missing file is not an error.
	File string

	// Flags, if set, override config values for the flags named in flagKeys
	// that the user changed.
	Flags *pflag.FlagSet
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("database.path", "./data/ledgerbook.db")
	v.SetDefault("log.level", "info")
	v.SetDefault("catalog.seed_file", "")
	v.SetDefault("catalog.search_limit", 10)
}

// Load builds the configuration.
func Load(opts Options) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	v.AutomaticEnv()

	if opts.File != "" {
		v.SetConfigFile(opts.File)
		if err := v.ReadInConfig(); err != nil {
			return nil, errors.Wrapf(err, "read config %s", opts.File)
		}
	} else {
		v.SetConfigName("ledgerbook")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath("$HOME/.config/ledgerbook")
		if err := v.ReadInConfig(); err != nil {
			var notFound viper.ConfigFileNotFoundError
			if !errors.As(err, &notFound) {
				return nil, errors.Wrap(err, "read config")
			}
		}
	}

	if opts.Flags != nil {
		for key, name := range flagKeys {
			f := opts.Flags.Lookup(name)
			if f == nil {
				continue
			}
			if err := v.BindPFlag(key, f); err != nil {
				return nil, errors.Wrapf(err, "bind flag --%s", name)
			}
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, errors.Wrap(err, "decode config")
	}
	cfg.File = v.ConfigFileUsed()
	cfg.Log.Level = strings.ToLower(cfg.Log.Level)
	if len(cfg.Customers) == 0 {
		cfg.Customers = ledger.DefaultCustomers()
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks struct constraints and that the customer registry can be
// built.
func (c Config) Validate() error {
	validate := validator.New(validator.WithRequiredStructEnabled())
	if err := validate.Struct(c); err != nil {
		return errors.Mark(errors.Wrap(err, "validate config"), ErrInvalidConfig)
	}
	if _, err := ledger.NewRegistry(c.Customers); err != nil {
		return errors.Mark(errors.Wrap(err, "validate config"), ErrInvalidConfig)
	}
	return nil
}

// Registry builds the customer registry from Customers.
func (c Config) Registry() (*ledger.Registry, error) {
	return ledger.NewRegistry(c.Customers)
}
