package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Route sources understood by Routes.Source.
const (
	SourceFile     = "file"
	SourceInline   = "inline"
	SourcePostgres = "postgres"
	SourceRedis    = "redis"
)

// Config holds all configuration (file + env overrides)
type Config struct {
	Server struct {
		Addr     string `mapstructure:"addr"`
		LogLevel string `mapstructure:"log_level"`
	} `mapstructure:"server"`

	Routes struct {
		Source string `mapstructure:"source"`
		File   string `mapstructure:"file"`
		Inline string `mapstructure:"inline"`

		// IncludeDefaultTag appends the "default" tag to every detection result.
		IncludeDefaultTag bool   `mapstructure:"include_default_tag"`
		RedisKey          string `mapstructure:"redis_key"`
	} `mapstructure:"routes"`

	Static struct {
		Template string `mapstructure:"template"` // empty = embedded deeplink.html
	} `mapstructure:"static"`

	Postgres struct {
		Host         string `mapstructure:"host"`
		Port         int    `mapstructure:"port"`
		User         string `mapstructure:"user"`
		Password     string `mapstructure:"password"`
		DBName       string `mapstructure:"db_name"`
		SSLMode      string `mapstructure:"ssl_mode"`
		MaxOpenConns int    `mapstructure:"max_open_conns"`
		MaxIdleConns int    `mapstructure:"max_idle_conns"`
	} `mapstructure:"postgres"`

	Listener struct {
		Channel          string `mapstructure:"channel"`
		ReconnectSeconds int    `mapstructure:"reconnect_seconds"`
	} `mapstructure:"listener"`

	Redis struct {
		URL     string `mapstructure:"url"`
		Channel string `mapstructure:"channel"`
	} `mapstructure:"redis"`
}

// Load reads configs/application.yaml (optional) and APP_* env overrides.
func Load() Config {
	cfg, err := LoadFrom("configs")
	if err != nil {
		panic(err)
	}
	return cfg
}

// LoadFrom is Load with an explicit config directory.
func LoadFrom(dir string) (Config, error) {
	v := viper.New()
	v.SetConfigName("application")
	v.SetConfigType("yaml")
	v.AddConfigPath(dir)
	setDefaults(v)
	_ = v.ReadInConfig() // optional; env can fully configure

	v.SetEnvPrefix("APP")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("unable to decode config: %w", err)
	}
	validate(&cfg)
	if err := cfg.check(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Every key gets a default so AutomaticEnv can see it during Unmarshal.
func setDefaults(v *viper.Viper) {
	v.SetDefault("server.addr", ":8080")
	v.SetDefault("server.log_level", "info")
	v.SetDefault("routes.source", SourceFile)
	v.SetDefault("routes.file", "configs/routes.yaml")
	v.SetDefault("routes.inline", "")
	v.SetDefault("routes.include_default_tag", true)
	v.SetDefault("routes.redis_key", "deeplink:routes")
	v.SetDefault("static.template", "")
	v.SetDefault("postgres.host", "localhost")
	v.SetDefault("postgres.port", 5432)
	v.SetDefault("postgres.user", "")
	v.SetDefault("postgres.password", "")
	v.SetDefault("postgres.db_name", "")
	v.SetDefault("postgres.ssl_mode", "disable")
	v.SetDefault("postgres.max_open_conns", 10)
	v.SetDefault("postgres.max_idle_conns", 2)
	v.SetDefault("listener.channel", "")
	v.SetDefault("listener.reconnect_seconds", 5)
	v.SetDefault("redis.url", "redis://localhost:6379/0")
	v.SetDefault("redis.channel", "deeplink:routes:changed")
}

func validate(c *Config) {
	if c.Server.Addr == "" {
		c.Server.Addr = ":8080"
	}
	if c.Routes.Source == "" {
		c.Routes.Source = SourceFile
	}
	c.Routes.Source = strings.ToLower(strings.TrimSpace(c.Routes.Source))
	if c.Postgres.Port == 0 {
		c.Postgres.Port = 5432
	}
	if c.Postgres.SSLMode == "" {
		c.Postgres.SSLMode = "disable"
	}
	if c.Postgres.MaxOpenConns == 0 {
		c.Postgres.MaxOpenConns = 10
	}
	if c.Postgres.MaxIdleConns == 0 {
		c.Postgres.MaxIdleConns = 2
	}
	if c.Listener.ReconnectSeconds <= 0 {
		c.Listener.ReconnectSeconds = 5
	}
}

func (c Config) check() error {
	switch c.Routes.Source {
	case SourceFile:
		if c.Routes.File == "" {
			return fmt.Errorf("routes.file is required for source %q", SourceFile)
		}
	case SourceInline:
		if strings.TrimSpace(c.Routes.Inline) == "" {
			return fmt.Errorf("routes.inline is required for source %q", SourceInline)
		}
	case SourcePostgres:
		if c.Postgres.DBName == "" {
			return fmt.Errorf("postgres.db_name is required for source %q", SourcePostgres)
		}
	case SourceRedis:
		if c.Redis.URL == "" || c.Routes.RedisKey == "" {
			return fmt.Errorf("redis.url and routes.redis_key are required for source %q", SourceRedis)
		}
	default:
		return fmt.Errorf("unknown routes.source %q", c.Routes.Source)
	}
	return nil
}

func (c Config) DSN() string {
	return fmt.Sprintf("postgres://%s:%s@%s:%d/%s?sslmode=%s",
		c.Postgres.User,
		c.Postgres.Password,
		c.Postgres.Host,
		c.Postgres.Port,
		c.Postgres.DBName,
		c.Postgres.SSLMode,
	)
}

func (c Config) Backoff() time.Duration { return time.Duration(c.Listener.ReconnectSeconds) * time.Second }
