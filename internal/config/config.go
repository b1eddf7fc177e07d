package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

type Config struct {
	Poll     PollConfig     `mapstructure:"poll"`
	HTTP     HTTPConfig     `mapstructure:"http"`
	Trigger  TriggerConfig  `mapstructure:"trigger"`
	State    StateConfig    `mapstructure:"state"`
	Database DatabaseConfig `mapstructure:"database"`
	Sources  SourcesConfig  `mapstructure:"sources"`
	Log      LogConfig      `mapstructure:"log"`
}

type PollConfig struct {
	Interval     time.Duration `mapstructure:"interval"`
	CheckTimeout time.Duration `mapstructure:"check_timeout"`
	Parallel     bool          `mapstructure:"parallel"`
	MaxParallel  int           `mapstructure:"max_parallel"`
}

type HTTPConfig struct {
	Timeout      time.Duration `mapstructure:"timeout"`
	UserAgent    string        `mapstructure:"user_agent"`
	MaxBodyBytes int64         `mapstructure:"max_body_bytes"`
}

type TriggerConfig struct {
	Path   string `mapstructure:"path"`
	DryRun bool   `mapstructure:"dry_run"`
}

type StateConfig struct {
	Backend   string `mapstructure:"backend"` // "memory" | "redis" | "postgres"
	KeyPrefix string `mapstructure:"key_prefix"`
}

type DatabaseConfig struct {
	Postgres PostgresConfig `mapstructure:"postgres"`
	Redis    RedisConfig    `mapstructure:"redis"`
}

type PostgresConfig struct {
	Host            string        `mapstructure:"host"`
	Port            int           `mapstructure:"port"`
	DB              string        `mapstructure:"db"`
	User            string        `mapstructure:"user"`
	Password        string        `mapstructure:"password"`
	SSLMode         string        `mapstructure:"sslmode"`
	MaxIdleConns    int           `mapstructure:"max_idle_conns"`
	MaxOpenConns    int           `mapstructure:"max_open_conns"`
	ConnMaxLifetime time.Duration `mapstructure:"conn_max_lifetime"`
	AutoMigrate     bool          `mapstructure:"auto_migrate"`
}

type RedisConfig struct {
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
	PoolSize int    `mapstructure:"pool_size"`
}

type SourcesConfig struct {
	Reddit []RedditSource `mapstructure:"reddit"`
	Amazon []AmazonSource `mapstructure:"amazon"`
	Target []TargetSource `mapstructure:"target"`
}

// RedditSource watches the public comment feed of one user.
type RedditSource struct {
	User string `mapstructure:"user"`
}

type AmazonSource struct {
	Name   string `mapstructure:"name"`
	Domain string `mapstructure:"domain"`
	ASIN   string `mapstructure:"asin"`
}

type TargetSource struct {
	Name string `mapstructure:"name"`
	ID   string `mapstructure:"id"`
}

type LogConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

var (
	ErrInvalidInterval = errors.New("poll interval must be greater than 0")
	ErrInvalidTimeout  = errors.New("poll check_timeout must not be negative")
	ErrUnknownBackend  = errors.New("unknown state backend")
	ErrTriggerPath     = errors.New("trigger path is required")
	ErrInvalidSource   = errors.New("invalid source")
	ErrDuplicateSource = errors.New("duplicate source")
)

func setDefaults(v *viper.Viper) {
	v.SetDefault("poll.interval", 5*time.Minute)
	v.SetDefault("poll.check_timeout", time.Minute)
	v.SetDefault("poll.parallel", false)
	v.SetDefault("poll.max_parallel", 4)

	v.SetDefault("http.timeout", 30*time.Second)
	v.SetDefault("http.user_agent", "changewatch/1.0")
	v.SetDefault("http.max_body_bytes", 8<<20)

	v.SetDefault("trigger.path", "trigger")
	v.SetDefault("trigger.dry_run", false)

	v.SetDefault("state.backend", "memory")

	v.SetDefault("database.postgres.port", 5432)
	v.SetDefault("database.postgres.sslmode", "disable")
	v.SetDefault("database.redis.host", "localhost")
	v.SetDefault("database.redis.port", 6379)

	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "console")
}

// Load reads the YAML file at path, overlays environment variables, and returns a
// validated Config.
func Load(path string) (*Config, error) {
	v := viper.New()
	setDefaults(v)
	v.SetConfigFile(path)
	v.SetConfigType("yaml")

	// Environment variable override: POLL_INTERVAL -> poll.interval
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		return nil, err
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

// Validate reports the first problem that would keep the watcher from starting.
func (c *Config) Validate() error {
	if c.Poll.Interval <= 0 {
		return ErrInvalidInterval
	}
	if c.Poll.CheckTimeout < 0 {
		return ErrInvalidTimeout
	}
	switch c.State.Backend {
	case "memory", "redis", "postgres":
	default:
		return fmt.Errorf("%w: %q", ErrUnknownBackend, c.State.Backend)
	}
	if strings.TrimSpace(c.Trigger.Path) == "" {
		return ErrTriggerPath
	}

	seen := make(map[string]struct{})
	add := func(key string) error {
		if _, ok := seen[key]; ok {
			return fmt.Errorf("%w: %s", ErrDuplicateSource, key)
		}
		seen[key] = struct{}{}
		return nil
	}
	for i, s := range c.Sources.Reddit {
		if strings.TrimSpace(s.User) == "" {
			return fmt.Errorf("%w: sources.reddit[%d] has no user", ErrInvalidSource, i)
		}
		if err := add("reddit_" + s.User); err != nil {
			return err
		}
	}
	for i, s := range c.Sources.Amazon {
		if strings.TrimSpace(s.ASIN) == "" {
			return fmt.Errorf("%w: sources.amazon[%d] has no asin", ErrInvalidSource, i)
		}
		if err := add("amazon_" + s.ASIN); err != nil {
			return err
		}
	}
	for i, s := range c.Sources.Target {
		if strings.TrimSpace(s.ID) == "" {
			return fmt.Errorf("%w: sources.target[%d] has no id", ErrInvalidSource, i)
		}
		if err := add("target_" + s.ID); err != nil {
			return err
		}
	}
	return nil
}
