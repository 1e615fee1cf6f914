// Package config loads the server configuration from defaults, an optional
// config file, HABITS_* environment variables and command-line flags, in
// increasing order of precedence.
package config

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Environments accepted in Options.Env.
const (
	EnvDevelopment = "development"
	EnvProduction  = "production"
)

// Options holds the configuration values for the application. It is built
// once at startup and not modified afterwards.
type Options struct {
	// Env is "development" or "production". Development responses include error details.
	Env string `mapstructure:"env"`

	// Addr defines the server's listening address (ip:port).
	Addr string `mapstructure:"addr"`

	// DatabaseDSN holds the database connection string for the application.
	DatabaseDSN string `mapstructure:"database_dsn"`

	// JWTSecret signs session tokens.
	JWTSecret string `mapstructure:"jwt_secret"`
	// TokenTTL is the session token lifetime.
	TokenTTL time.Duration `mapstructure:"token_ttl"`

	// BcryptCost is the password hashing cost factor.
	BcryptCost int `mapstructure:"bcrypt_cost"`
	// HashWorkers bounds concurrent password hashes. Zero means one per CPU.
	HashWorkers int `mapstructure:"hash_workers"`

	LogLevel string `mapstructure:"log_level"`
	// LogFile, when set, receives a rotated copy of the log.
	LogFile string `mapstructure:"log_file"`

	// TLSCert and TLSKey enable HTTPS when both are set.
	TLSCert string `mapstructure:"tls_cert"`
	TLSKey  string `mapstructure:"tls_key"`

	// PurgeInterval is how often soft-deleted habits are purged.
	PurgeInterval time.Duration `mapstructure:"purge_interval"`
	// PurgeRetention is how long a soft-deleted habit is kept.
	PurgeRetention time.Duration `mapstructure:"purge_retention"`

	// Config is the path to the config file.
	Config string `mapstructure:"-"`
}

// IsDevelopment reports whether error details may be exposed to clients.
func (o *Options) IsDevelopment() bool { return o.Env == EnvDevelopment }

var defaults = map[string]any{
	"env":             EnvDevelopment,
	"addr":            "localhost:8080",
	"database_dsn":    "",
	"jwt_secret":      "",
	"token_ttl":       7 * 24 * time.Hour,
	"bcrypt_cost":     12,
	"hash_workers":    0,
	"log_level":       "info",
	"log_file":        "",
	"tls_cert":        "",
	"tls_key":         "",
	"purge_interval":  time.Hour,
	"purge_retention": 30 * 24 * time.Hour,
}

// flag name -> config key
var flagKeys = map[string]string{
	"a":               "addr",
	"d":               "database_dsn",
	"env":             "env",
	"jwt-secret":      "jwt_secret",
	"token-ttl":       "token_ttl",
	"bcrypt-cost":     "bcrypt_cost",
	"hash-workers":    "hash_workers",
	"log-level":       "log_level",
	"log-file":        "log_file",
	"tls-cert":        "tls_cert",
	"tls-key":         "tls_key",
	"purge-interval":  "purge_interval",
	"purge-retention": "purge_retention",
}

func newFlagSet(configPath *string) *flag.FlagSet {
	fs := flag.NewFlagSet("server", flag.ContinueOnError)
	fs.SetOutput(io.Discard)

	fs.String("a", "localhost:8080", "run on ip:port server")
	fs.String("d", "", "db address")
	fs.String("env", EnvDevelopment, "development or production")
	fs.String("jwt-secret", "", "token signing secret")
	fs.Duration("token-ttl", 7*24*time.Hour, "session token lifetime")
	fs.Int("bcrypt-cost", 12, "bcrypt cost factor")
	fs.Int("hash-workers", 0, "concurrent password hashes (0 = NumCPU)")
	fs.String("log-level", "info", "log level")
	fs.String("log-file", "", "rotated log file path")
	fs.String("tls-cert", "", "TLS certificate file")
	fs.String("tls-key", "", "TLS key file")
	fs.Duration("purge-interval", time.Hour, "soft-delete purge interval")
	fs.Duration("purge-retention", 30*24*time.Hour, "soft-delete retention")
	fs.StringVar(configPath, "config", "config.json", "path to config file")
	fs.StringVar(configPath, "c", "config.json", "path to config file (shorthand)")
	return fs
}

// Load parses args (without the program name) and the environment into Options.
func Load(args []string) (*Options, error) {
	var configPath string
	fs := newFlagSet(&configPath)
	if err := fs.Parse(args); err != nil {
		return nil, fmt.Errorf("parse flags: %w", err)
	}

	v := viper.New()
	for k, val := range defaults {
		v.SetDefault(k, val)
	}

	if p := os.Getenv("CONFIG"); p != "" && !flagSet(fs, "config", "c") {
		configPath = p
	}
	if configPath != "" {
		if _, err := os.Stat(configPath); err == nil {
			v.SetConfigFile(configPath)
			if err := v.ReadInConfig(); err != nil {
				return nil, fmt.Errorf("read config file: %w", err)
			}
		}
	}

	v.SetEnvPrefix("HABITS")
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()
	if err := v.BindEnv("addr", "HABITS_ADDR", "SERVER_ADDRESS"); err != nil {
		return nil, err
	}

	fs.Visit(func(f *flag.Flag) {
		if key, ok := flagKeys[f.Name]; ok {
			v.Set(key, f.Value.String())
		}
	})

	opts := &Options{}
	if err := v.Unmarshal(opts); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}
	opts.Config = configPath

	if err := opts.Validate(); err != nil {
		return nil, err
	}
	return opts, nil
}

func flagSet(fs *flag.FlagSet, names ...string) bool {
	found := false
	fs.Visit(func(f *flag.Flag) {
		for _, n := range names {
			if f.Name == n {
				found = true
			}
		}
	})
	return found
}

// Validate checks the values that the server cannot start without.
func (o *Options) Validate() error {
	var errs []error
	switch o.Env {
	case EnvDevelopment, EnvProduction:
	default:
		errs = append(errs, fmt.Errorf("env must be %q or %q, got %q", EnvDevelopment, EnvProduction, o.Env))
	}
	if o.JWTSecret == "" {
		errs = append(errs, errors.New("jwt_secret is required"))
	} else if o.Env == EnvProduction && len(o.JWTSecret) < 16 {
		errs = append(errs, errors.New("jwt_secret must be at least 16 bytes in production"))
	}
	if o.TokenTTL <= 0 {
		errs = append(errs, errors.New("token_ttl must be positive"))
	}
	if o.BcryptCost < 4 || o.BcryptCost > 31 {
		errs = append(errs, fmt.Errorf("bcrypt_cost must be within [4, 31], got %d", o.BcryptCost))
	}
	if o.HashWorkers < 0 {
		errs = append(errs, errors.New("hash_workers must not be negative"))
	}
	if (o.TLSCert == "") != (o.TLSKey == "") {
		errs = append(errs, errors.New("tls_cert and tls_key must be set together"))
	}
	if o.PurgeInterval <= 0 || o.PurgeRetention <= 0 {
		errs = append(errs, errors.New("purge_interval and purge_retention must be positive"))
	}
	return errors.Join(errs...)
}
