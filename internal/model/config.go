package model

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/viper"
)

// ServerConfig holds HTTP listener settings.
type ServerConfig struct {
	// Addr is the listen address, e.g. ":8080".
	Addr string `mapstructure:"addr" yaml:"addr"`
}

// DatabaseConfig holds storage settings.
type DatabaseConfig struct {
	// Path is the SQLite database file path. ":memory:" is accepted.
	Path string `mapstructure:"path" yaml:"path"`
}

// AuthConfig holds token issuance settings.
type AuthConfig struct {
	// JWTSecret signs access tokens (HS256). Must be set in production;
	// there is no default.
	JWTSecret string `mapstructure:"jwt_secret" yaml:"jwt_secret"`

	// Issuer and Audience are embedded in and checked against every
	// access token.
	Issuer   string `mapstructure:"issuer" yaml:"issuer"`
	Audience string `mapstructure:"audience" yaml:"audience"`

	// AccessTokenTTLMinutes is the access token lifetime.
	AccessTokenTTLMinutes int `mapstructure:"access_token_ttl_minutes" yaml:"access_token_ttl_minutes"`

	// RefreshTokenTTLDays is the refresh token lifetime.
	RefreshTokenTTLDays int `mapstructure:"refresh_token_ttl_days" yaml:"refresh_token_ttl_days"`

	// BcryptCost is the password hashing cost factor.
	BcryptCost int `mapstructure:"bcrypt_cost" yaml:"bcrypt_cost"`

	// CleanupIntervalMinutes is how often expired and stale blacklisted
	// refresh tokens are swept from storage.
	CleanupIntervalMinutes int `mapstructure:"cleanup_interval_minutes" yaml:"cleanup_interval_minutes"`
}

// AppConfig is the top-level application configuration.
type AppConfig struct {
	Server   ServerConfig   `mapstructure:"server" yaml:"server"`
	Database DatabaseConfig `mapstructure:"database" yaml:"database"`
	Auth     AuthConfig     `mapstructure:"auth" yaml:"auth"`
}

// defaultAppConfig returns a sensible default configuration.
func defaultAppConfig() *AppConfig {
	return &AppConfig{
		Server:   ServerConfig{Addr: ":8080"},
		Database: DatabaseConfig{Path: "todoer.db"},
		Auth: AuthConfig{
			Issuer:                 "todoer",
			Audience:               "todoer-web",
			AccessTokenTTLMinutes:  30,
			RefreshTokenTTLDays:    7,
			BcryptCost:             10,
			CleanupIntervalMinutes: 60,
		},
	}
}

// LoadConfig reads configuration from the given YAML file path using Viper,
// with TODOER_* environment variables overriding file values. If the file
// does not exist, defaults (plus env overrides) are returned.
func LoadConfig(path string) (*AppConfig, error) {
	v := viper.New()
	v.SetConfigFile(path)
	v.SetConfigType("yaml")

	v.SetEnvPrefix("TODOER")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Set defaults so missing keys resolve to sensible values.
	v.SetDefault("server.addr", ":8080")
	v.SetDefault("database.path", "todoer.db")
	v.SetDefault("auth.jwt_secret", "")
	v.SetDefault("auth.issuer", "todoer")
	v.SetDefault("auth.audience", "todoer-web")
	v.SetDefault("auth.access_token_ttl_minutes", 30)
	v.SetDefault("auth.refresh_token_ttl_days", 7)
	v.SetDefault("auth.bcrypt_cost", 10)
	v.SetDefault("auth.cleanup_interval_minutes", 60)

	if err := v.ReadInConfig(); err != nil {
		_, pathErr := err.(*os.PathError)
		_, notFound := err.(viper.ConfigFileNotFoundError)
		if !pathErr && !notFound {
			return nil, fmt.Errorf("reading config %s: %w", path, err)
		}
	}

	cfg := defaultAppConfig()
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("parsing config %s: %w", path, err)
	}

	return cfg, nil
}
