package config

import (
	"errors"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// EnvPrefix is the prefix for environment overrides, e.g. GAMEAPI_SECURITY_JWT_SECRET.
const EnvPrefix = "GAMEAPI"

// MinSecretLen is the shortest JWT secret Validate accepts.
const MinSecretLen = 16

type Config struct {
	Server   ServerConfig   `mapstructure:"server"`
	Database DatabaseConfig `mapstructure:"database"`
	Cache    CacheConfig    `mapstructure:"cache"`
	Security SecurityConfig `mapstructure:"security"`
	Audit    AuditConfig    `mapstructure:"audit"`
}

type ServerConfig struct {
	Port  int  `mapstructure:"port"`
	Debug bool `mapstructure:"debug"`
	// AdminAllowlist restricts moderator and admin routes to these IPs or
	// CIDR prefixes. Empty allows all.
	AdminAllowlist []string `mapstructure:"admin_allowlist"`
	// TrustedProxies may set the client IP via X-Forwarded-For or
	// X-Real-IP. Empty means the TCP peer address is used.
	TrustedProxies []string `mapstructure:"trusted_proxies"`
}

type DatabaseConfig struct {
	Mode         string        `mapstructure:"mode"` // sqlite | mysql
	SQLitePath   string        `mapstructure:"sqlite_path"`
	MySQLDSN     string        `mapstructure:"mysql_dsn"`
	MySQLMaxOpen int           `mapstructure:"mysql_max_open"`
	MySQLMaxIdle int           `mapstructure:"mysql_max_idle"`
	MySQLMaxLife time.Duration `mapstructure:"mysql_max_life"`
}

type CacheConfig struct {
	RedisAddr       string        `mapstructure:"redis_addr"`
	RedisPassword   string        `mapstructure:"redis_password"`
	RedisDB         int           `mapstructure:"redis_db"`
	LocalGCInterval time.Duration `mapstructure:"local_gc_interval"`
}

type SecurityConfig struct {
	// JWTSecret signs access tokens. It is supplied by the deployment and never logged.
	JWTSecret      string        `mapstructure:"jwt_secret"`
	JWTTTL         time.Duration `mapstructure:"jwt_ttl"`
	BcryptCost     int           `mapstructure:"bcrypt_cost"`
	RateLimitRPS   float64       `mapstructure:"rate_limit_rps"`
	RateLimitBurst int           `mapstructure:"rate_limit_burst"`
	// LoginMaxFailures failed logins for one email within LoginLockout
	// block further attempts until the window passes. Zero disables throttling.
	LoginMaxFailures int           `mapstructure:"login_max_failures"`
	LoginLockout     time.Duration `mapstructure:"login_lockout"`
}

type AuditConfig struct {
	Retention     time.Duration `mapstructure:"retention"`
	PurgeInterval time.Duration `mapstructure:"purge_interval"`
}

// Load reads config from the given YAML file path. An empty path uses
// defaults and environment variables only.
func Load(path string) (*Config, error) {
	v := viper.New()
	v.SetConfigType("yaml")
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Defaults
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.debug", false)
	v.SetDefault("server.admin_allowlist", []string{})
	v.SetDefault("server.trusted_proxies", []string{})
	v.SetDefault("database.mode", "sqlite")
	v.SetDefault("database.sqlite_path", "./data/game.db")
	v.SetDefault("database.mysql_dsn", "")
	v.SetDefault("database.mysql_max_open", 50)
	v.SetDefault("database.mysql_max_idle", 10)
	v.SetDefault("database.mysql_max_life", "1h")
	v.SetDefault("cache.redis_addr", "")
	v.SetDefault("cache.redis_password", "")
	v.SetDefault("cache.redis_db", 0)
	v.SetDefault("cache.local_gc_interval", "30s")
	v.SetDefault("security.jwt_secret", "")
	v.SetDefault("security.jwt_ttl", "60m")
	v.SetDefault("security.bcrypt_cost", 12)
	v.SetDefault("security.rate_limit_rps", 100)
	v.SetDefault("security.rate_limit_burst", 200)
	v.SetDefault("security.login_max_failures", 5)
	v.SetDefault("security.login_lockout", "15m")
	v.SetDefault("audit.retention", "720h")
	v.SetDefault("audit.purge_interval", "1h")

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, err
		}
	}

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks settings the server cannot start without.
func (c *Config) Validate() error {
	if c.Security.JWTSecret == "" {
		return errors.New("config: security.jwt_secret is required")
	}
	if len(c.Security.JWTSecret) < MinSecretLen {
		return errors.New("config: security.jwt_secret is too short")
	}
	if c.Security.JWTTTL <= 0 {
		return errors.New("config: security.jwt_ttl must be positive")
	}
	switch c.Database.Mode {
	case "sqlite", "mysql":
	default:
		return errors.New("config: database.mode must be sqlite or mysql")
	}
	return nil
}
