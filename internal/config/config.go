// Package config loads server configuration from defaults, an optional YAML
// file and environment variables, in that order of precedence.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"golang.org/x/crypto/bcrypt"
	"gopkg.in/yaml.v3"
)

// MinSecretLength is the shortest JWT secret accepted outside demo mode.
const MinSecretLength = 32

type ServerConfig struct {
	Host              string        `yaml:"host"`
	Port              int           `yaml:"port"`
	ReadHeaderTimeout time.Duration `yaml:"read_header_timeout"`
	ShutdownTimeout   time.Duration `yaml:"shutdown_timeout"`
}

type AuthConfig struct {
	JWTSecret         string        `yaml:"jwt_secret"`
	TokenTTL          time.Duration `yaml:"token_ttl"`
	AdminName         string        `yaml:"admin_name"`
	AdminEmail        string        `yaml:"admin_email"`
	AdminPassword     string        `yaml:"admin_password"`
	AdminPasswordHash string        `yaml:"admin_password_hash"`
	BcryptCost        int           `yaml:"bcrypt_cost"`
}

type CORSConfig struct {
	AllowedOrigins []string `yaml:"allowed_origins"`
}

type LogConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"` // text or json
}

type MetricsConfig struct {
	Enabled bool   `yaml:"enabled"`
	Path    string `yaml:"path"`
}

type Config struct {
	Server  ServerConfig  `yaml:"server"`
	Auth    AuthConfig    `yaml:"auth"`
	CORS    CORSConfig    `yaml:"cors"`
	Log     LogConfig     `yaml:"log"`
	Metrics MetricsConfig `yaml:"metrics"`
	// Demo seeds the sample visitors and the demo admin account.
	Demo bool `yaml:"demo"`
}

// Default returns the configuration used when nothing is overridden.
func Default() *Config {
	return &Config{
		Server: ServerConfig{
			Host:              "0.0.0.0",
			Port:              8000,
			ReadHeaderTimeout: 10 * time.Second,
			ShutdownTimeout:   10 * time.Second,
		},
		Auth: AuthConfig{
			TokenTTL:   24 * time.Hour,
			AdminName:  "Admin User",
			BcryptCost: bcrypt.DefaultCost,
		},
		CORS: CORSConfig{
			AllowedOrigins: []string{"http://localhost:3000", "http://localhost:5173"},
		},
		Log: LogConfig{
			Level:  "info",
			Format: "text",
		},
		Metrics: MetricsConfig{
			Enabled: true,
			Path:    "/metrics",
		},
	}
}

// Load builds the configuration. path may be empty, in which case only
// defaults and the environment are used.
func Load(path string) (*Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(filepath.Clean(path))
		if err != nil {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config file: %w", err)
		}
	}

	if err := cfg.applyEnv(os.LookupEnv); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

type lookupFunc func(key string) (string, bool)

func (c *Config) applyEnv(lookup lookupFunc) error {
	str := func(key string, dst *string) {
		if v, ok := lookup(key); ok && v != "" {
			*dst = v
		}
	}
	var errs []error
	integer := func(key string, dst *int) {
		if v, ok := lookup(key); ok && v != "" {
			n, err := strconv.Atoi(v)
			if err != nil {
				errs = append(errs, fmt.Errorf("%s: %w", key, err))
				return
			}
			*dst = n
		}
	}
	duration := func(key string, dst *time.Duration) {
		if v, ok := lookup(key); ok && v != "" {
			d, err := time.ParseDuration(v)
			if err != nil {
				errs = append(errs, fmt.Errorf("%s: %w", key, err))
				return
			}
			*dst = d
		}
	}
	boolean := func(key string, dst *bool) {
		if v, ok := lookup(key); ok && v != "" {
			b, err := strconv.ParseBool(v)
			if err != nil {
				errs = append(errs, fmt.Errorf("%s: %w", key, err))
				return
			}
			*dst = b
		}
	}

	str("HOST", &c.Server.Host)
	integer("PORT", &c.Server.Port)
	duration("READ_HEADER_TIMEOUT", &c.Server.ReadHeaderTimeout)
	duration("SHUTDOWN_TIMEOUT", &c.Server.ShutdownTimeout)

	str("JWT_SECRET", &c.Auth.JWTSecret)
	duration("TOKEN_TTL", &c.Auth.TokenTTL)
	str("ADMIN_NAME", &c.Auth.AdminName)
	str("ADMIN_EMAIL", &c.Auth.AdminEmail)
	str("ADMIN_PASSWORD", &c.Auth.AdminPassword)
	str("ADMIN_PASSWORD_HASH", &c.Auth.AdminPasswordHash)
	integer("BCRYPT_COST", &c.Auth.BcryptCost)

	if v, ok := lookup("CORS_ALLOWED_ORIGINS"); ok && v != "" {
		c.CORS.AllowedOrigins = splitList(v)
	}

	str("LOG_LEVEL", &c.Log.Level)
	str("LOG_FORMAT", &c.Log.Format)

	boolean("METRICS_ENABLED", &c.Metrics.Enabled)
	str("METRICS_PATH", &c.Metrics.Path)

	boolean("DEMO_MODE", &c.Demo)

	return errors.Join(errs...)
}

// Validate checks required settings. Demo mode relaxes the admin and secret
// requirements because both are filled in at startup.
func (c *Config) Validate() error {
	var errs []error

	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		errs = append(errs, fmt.Errorf("server.port %d out of range", c.Server.Port))
	}
	if c.Auth.TokenTTL <= 0 {
		errs = append(errs, errors.New("auth.token_ttl must be positive"))
	}
	if c.Auth.BcryptCost < bcrypt.MinCost || c.Auth.BcryptCost > bcrypt.MaxCost {
		errs = append(errs, fmt.Errorf("auth.bcrypt_cost must be between %d and %d", bcrypt.MinCost, bcrypt.MaxCost))
	}
	switch c.Log.Format {
	case "text", "json":
	default:
		errs = append(errs, fmt.Errorf("log.format %q must be text or json", c.Log.Format))
	}
	if c.Metrics.Enabled && !strings.HasPrefix(c.Metrics.Path, "/") {
		errs = append(errs, fmt.Errorf("metrics.path %q must start with /", c.Metrics.Path))
	}

	hasPassword := c.Auth.AdminPassword != "" || c.Auth.AdminPasswordHash != ""
	if !c.Demo {
		if len(c.Auth.JWTSecret) < MinSecretLength {
			errs = append(errs, fmt.Errorf("auth.jwt_secret must be at least %d bytes", MinSecretLength))
		}
		if c.Auth.AdminEmail == "" {
			errs = append(errs, errors.New("auth.admin_email is required"))
		}
	} else if c.Auth.JWTSecret != "" && len(c.Auth.JWTSecret) < MinSecretLength {
		errs = append(errs, fmt.Errorf("auth.jwt_secret must be at least %d bytes", MinSecretLength))
	}
	if (!c.Demo || c.Auth.AdminEmail != "") && !hasPassword {
		errs = append(errs, errors.New("auth.admin_password or auth.admin_password_hash is required"))
	}

	return errors.Join(errs...)
}

// HashCost is the bcrypt cost of the admin password hash: the cost of a
// supplied hash when it parses, otherwise BcryptCost.
func (a AuthConfig) HashCost() int {
	if a.AdminPasswordHash != "" {
		if cost, err := bcrypt.Cost([]byte(a.AdminPasswordHash)); err == nil {
			return cost
		}
	}
	return a.BcryptCost
}

// Addr returns the listen address.
func (c *Config) Addr() string {
	return fmt.Sprintf("%s:%d", c.Server.Host, c.Server.Port)
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}
