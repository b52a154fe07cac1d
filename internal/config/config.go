package config

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"slices"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

// Authentication strategies selectable with AUTH_TYPE. AuthDisabled, the
// unset value, turns the /api/v1 gate off.
const (
	AuthDisabled   = ""
	AuthNone       = "auth"
	AuthBasic      = "basic_auth"
	AuthSession    = "session_auth"
	AuthSessionExp = "session_exp_auth"
	AuthSessionDB  = "session_db_auth"
	AuthToken      = "token_auth"
)

// AuthTypes lists every accepted AUTH_TYPE value.
var AuthTypes = []string{AuthDisabled, AuthNone, AuthBasic, AuthSession, AuthSessionExp, AuthSessionDB, AuthToken}

// Persistence backends.
const (
	BackendFile  = "file"
	BackendSQL   = "sql"
	BackendRedis = "redis"
)

type Config struct {
	API      APIConfig      `mapstructure:"api"`
	Auth     AuthConfig     `mapstructure:"auth"`
	Database DatabaseConfig `mapstructure:"database"`
	Storage  StorageConfig  `mapstructure:"storage"`
	Redis    RedisConfig    `mapstructure:"redis"`
	Log      LogConfig      `mapstructure:"log"`
	Metrics  MetricsConfig  `mapstructure:"metrics"`
}

type APIConfig struct {
	Host            string        `mapstructure:"host"`
	Port            int           `mapstructure:"port"`
	RequestTimeout  time.Duration `mapstructure:"request_timeout"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`
	CORSOrigins     []string      `mapstructure:"cors_origins"`
}

// Addr is the listen address.
func (c APIConfig) Addr() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

type AuthConfig struct {
	Type            string   `mapstructure:"type"`
	SessionName     string   `mapstructure:"session_name"`
	SessionDuration string   `mapstructure:"session_duration"`
	ExcludedPaths   []string `mapstructure:"excluded_paths"`
	// UserBackend holds users for the /api/v1 surface.
	UserBackend string `mapstructure:"user_backend"`
	// SessionBackend holds sessions for session_db_auth.
	SessionBackend string        `mapstructure:"session_backend"`
	Hasher         string        `mapstructure:"hasher"`
	BcryptCost     int           `mapstructure:"bcrypt_cost"`
	TokenSecret    string        `mapstructure:"token_secret"`
	TokenTTL       time.Duration `mapstructure:"token_ttl"`
	SweepInterval  time.Duration `mapstructure:"sweep_interval"`
	SecureCookies  bool          `mapstructure:"secure_cookies"`
}

// SessionTTL converts SESSION_DURATION seconds into a session lifetime.
// Unset, unparsable or non-positive values mean sessions never expire.
func (a AuthConfig) SessionTTL() *time.Duration {
	secs, err := strconv.Atoi(strings.TrimSpace(a.SessionDuration))
	if err != nil || secs <= 0 {
		return nil
	}
	d := time.Duration(secs) * time.Second
	return &d
}

type DatabaseConfig struct {
	Driver          string        `mapstructure:"driver"`
	Path            string        `mapstructure:"path"`
	Host            string        `mapstructure:"host"`
	Port            string        `mapstructure:"port"`
	Name            string        `mapstructure:"name"`
	User            string        `mapstructure:"user"`
	Password        string        `mapstructure:"password"`
	SSLMode         string        `mapstructure:"ssl_mode"`
	MaxConns        int           `mapstructure:"max_conns"`
	MaxIdle         int           `mapstructure:"max_idle"`
	ConnMaxLifetime time.Duration `mapstructure:"conn_max_lifetime"`
	// Reset drops and recreates the schema on start.
	Reset bool `mapstructure:"reset"`
}

type StorageConfig struct {
	// Driver is "local", "s3" or "memory".
	Driver string   `mapstructure:"driver"`
	Dir    string   `mapstructure:"dir"`
	S3     S3Config `mapstructure:"s3"`
}

type S3Config struct {
	Endpoint        string `mapstructure:"endpoint"`
	Region          string `mapstructure:"region"`
	Bucket          string `mapstructure:"bucket"`
	Prefix          string `mapstructure:"prefix"`
	AccessKeyID     string `mapstructure:"access_key_id"`
	SecretAccessKey string `mapstructure:"secret_access_key"`
}

type RedisConfig struct {
	Addr      string `mapstructure:"addr"`
	Password  string `mapstructure:"password"`
	DB        int    `mapstructure:"db"`
	KeyPrefix string `mapstructure:"key_prefix"`
}

type LogConfig struct {
	Level  string   `mapstructure:"level"`
	Format string   `mapstructure:"format"`
	Redact []string `mapstructure:"redact"`
}

type MetricsConfig struct {
	Enabled bool   `mapstructure:"enabled"`
	Path    string `mapstructure:"path"`
}

// DefaultExcludedPaths bypass the authentication gate.
var DefaultExcludedPaths = []string{
	"/api/v1/status/",
	"/api/v1/unauthorized/",
	"/api/v1/forbidden/",
	"/api/v1/auth_session/login/",
	"/api/v1/auth_token/login/",
}

// envBindings maps config keys onto their historical environment names.
var envBindings = map[string]string{
	"auth.type":             "AUTH_TYPE",
	"auth.session_name":     "SESSION_NAME",
	"auth.session_duration": "SESSION_DURATION",
	"api.host":              "API_HOST",
	"api.port":              "API_PORT",
}

// flagBindings maps command line flags onto config keys.
var flagBindings = map[string]string{
	"host":      "api.host",
	"port":      "api.port",
	"auth-type": "auth.type",
	"log-level": "log.level",
	"db-reset":  "database.reset",
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("api.host", "0.0.0.0")
	v.SetDefault("api.port", 5000)
	v.SetDefault("api.request_timeout", 30*time.Second)
	v.SetDefault("api.shutdown_timeout", 10*time.Second)
	v.SetDefault("api.cors_origins", []string{"*"})

	v.SetDefault("auth.type", AuthDisabled)
	v.SetDefault("auth.session_name", "_my_session_id")
	v.SetDefault("auth.session_duration", "")
	v.SetDefault("auth.excluded_paths", DefaultExcludedPaths)
	v.SetDefault("auth.user_backend", BackendFile)
	v.SetDefault("auth.session_backend", BackendFile)
	v.SetDefault("auth.hasher", "bcrypt")
	v.SetDefault("auth.bcrypt_cost", 10)
	v.SetDefault("auth.token_secret", "")
	v.SetDefault("auth.token_ttl", 24*time.Hour)
	v.SetDefault("auth.sweep_interval", time.Duration(0))
	v.SetDefault("auth.secure_cookies", false)

	v.SetDefault("database.driver", "sqlite3")
	v.SetDefault("database.path", "data/a.db")
	v.SetDefault("database.host", "localhost")
	v.SetDefault("database.port", "5432")
	v.SetDefault("database.name", "")
	v.SetDefault("database.user", "")
	v.SetDefault("database.password", "")
	v.SetDefault("database.ssl_mode", "disable")
	v.SetDefault("database.max_conns", 0)
	v.SetDefault("database.max_idle", 0)
	v.SetDefault("database.conn_max_lifetime", time.Duration(0))
	v.SetDefault("database.reset", false)

	v.SetDefault("storage.driver", "local")
	v.SetDefault("storage.dir", ".")
	v.SetDefault("storage.s3.endpoint", "")
	v.SetDefault("storage.s3.region", "us-east-1")
	v.SetDefault("storage.s3.bucket", "")
	v.SetDefault("storage.s3.prefix", "")
	v.SetDefault("storage.s3.access_key_id", "")
	v.SetDefault("storage.s3.secret_access_key", "")

	v.SetDefault("redis.addr", "localhost:6379")
	v.SetDefault("redis.password", "")
	v.SetDefault("redis.db", 0)
	v.SetDefault("redis.key_prefix", "session:")

	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "text")
	v.SetDefault("log.redact", []string{})

	v.SetDefault("metrics.enabled", true)
	v.SetDefault("metrics.path", "/metrics")
}

// LoadConfig loads the configuration from an optional YAML file, the
// environment and, when given, command line flags.
func LoadConfig(path string, flags *pflag.FlagSet) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	v.SetConfigType("yaml")
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	for key, env := range envBindings {
		if err := v.BindEnv(key, env); err != nil {
			return nil, err
		}
	}
	if flags != nil {
		for name, key := range flagBindings {
			if f := flags.Lookup(name); f != nil {
				if err := v.BindPFlag(key, f); err != nil {
					return nil, err
				}
			}
		}
	}

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			var notFound viper.ConfigFileNotFoundError
			if !errors.As(err, &notFound) && !errors.Is(err, fs.ErrNotExist) {
				return nil, fmt.Errorf("failed to read config file: %w", err)
			}
			slog.Warn("config file not found, using defaults and environment", "path", path)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to decode config: %w", err)
	}

	cfg.Auth.Type = strings.TrimSpace(cfg.Auth.Type)
	if cfg.Auth.SessionName == "" {
		cfg.Auth.SessionName = "_my_session_id"
	}
	if cfg.Metrics.Path == "" {
		cfg.Metrics.Path = "/metrics"
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate rejects values the server cannot start with.
func (c *Config) Validate() error {
	if !slices.Contains(AuthTypes, c.Auth.Type) {
		return fmt.Errorf("unknown auth type %q", c.Auth.Type)
	}
	if c.API.Port <= 0 || c.API.Port > 65535 {
		return fmt.Errorf("invalid api port %d", c.API.Port)
	}
	switch c.Auth.UserBackend {
	case BackendFile, BackendSQL:
	default:
		return fmt.Errorf("unknown user backend %q", c.Auth.UserBackend)
	}
	switch c.Auth.SessionBackend {
	case BackendFile, BackendSQL, BackendRedis:
	default:
		return fmt.Errorf("unknown session backend %q", c.Auth.SessionBackend)
	}
	switch c.Auth.Hasher {
	case "bcrypt", "sha256":
	default:
		return fmt.Errorf("unknown hasher %q", c.Auth.Hasher)
	}
	switch c.Database.Driver {
	case "sqlite3", "postgres":
	default:
		return fmt.Errorf("unsupported database type: %s", c.Database.Driver)
	}
	switch c.Storage.Driver {
	case "local", "memory":
	case "s3":
		if c.Storage.S3.Bucket == "" {
			return errors.New("storage.s3.bucket is required for the s3 driver")
		}
	default:
		return fmt.Errorf("unknown storage driver %q", c.Storage.Driver)
	}
	if c.Auth.Type == AuthToken && c.Auth.TokenSecret == "" {
		return errors.New("auth.token_secret is required for token_auth")
	}
	return nil
}
