package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
	"go.uber.org/multierr"

	"github.com/hamed0406/resourcewatch/internal/domain"
)

type Config struct {
	API           APIConfig      `mapstructure:"api"`
	Log           LogConfig      `mapstructure:"log"`
	Schedule      ScheduleConfig `mapstructure:"schedule"`
	Store         StoreConfig    `mapstructure:"store"`
	Auth          AuthConfig     `mapstructure:"auth"`
	Defaults      Defaults       `mapstructure:"defaults"`
	Notifications Notifications  `mapstructure:"notifications"`
	ExitCodes     map[string]int `mapstructure:"exit_codes"`

	// Resources is decoded separately so target order survives.
	Resources []ResourceSpec `mapstructure:"-"`
}

type APIConfig struct {
	Addr           string   `mapstructure:"addr"` // e.g. "127.0.0.1:8080" or ":8080" in Docker
	AllowedOrigins []string `mapstructure:"allowed_origins"`
	CheckPerMin    int      `mapstructure:"check_per_min"` // on-demand checks per client; 0 disables
	CheckBurst     int      `mapstructure:"check_burst"`
}

type LogConfig struct {
	Dir    string `mapstructure:"dir"`
	Level  string `mapstructure:"level"`
	Stderr bool   `mapstructure:"stderr"`
}

type ScheduleConfig struct {
	Spec        string        `mapstructure:"spec"` // cron expression, e.g. "@every 1m"
	Concurrency int           `mapstructure:"concurrency"`
	Timeout     time.Duration `mapstructure:"timeout"` // per resource check
}

type StoreConfig struct {
	Driver      string `mapstructure:"driver"` // memory | postgres | redis
	DatabaseURL string `mapstructure:"database_url"`
	RedisURL    string `mapstructure:"redis_url"`
}

type AuthConfig struct {
	PublicKeys []string `mapstructure:"public_keys"`
	AdminKeys  []string `mapstructure:"admin_keys"`
}

// Defaults are the global values a resource falls back to.
type Defaults struct {
	Style          map[string]string `mapstructure:"style"`
	ErrorMessage   string            `mapstructure:"error_message"`
	WarningMessage string            `mapstructure:"warning_message"`
	Graph          bool              `mapstructure:"graph"`
}

type Notifications struct {
	Enabled  bool            `mapstructure:"enabled"`
	Actions  map[string]bool `mapstructure:"actions"`
	Channels []ChannelConfig `mapstructure:"channels"`
	Timeout  time.Duration   `mapstructure:"timeout"` // per channel delivery
}

// ActionEnabled reports whether notifications may fire for checks started
// by action. Actions missing from the table are enabled.
func (n Notifications) ActionEnabled(action string) bool {
	enabled, ok := n.Actions[strings.ToLower(action)]
	return !ok || enabled
}

type ChannelConfig struct {
	Name    string `mapstructure:"name"`
	Type    string `mapstructure:"type"` // log | slack | webhook | redis
	URL     string `mapstructure:"url"`
	Channel string `mapstructure:"channel"` // pub/sub channel for type redis
}

var (
	validLevels  = map[string]bool{"debug": true, "info": true, "warn": true, "error": true}
	validDrivers = map[string]bool{"memory": true, "postgres": true, "redis": true}
	validSinks   = map[string]bool{"log": true, "slack": true, "webhook": true, "redis": true}
)

func setDefaults(v *viper.Viper) {
	v.SetDefault("api.addr", "127.0.0.1:8080")
	v.SetDefault("api.check_per_min", 6)
	v.SetDefault("api.check_burst", 2)

	v.SetDefault("log.dir", "logs")
	v.SetDefault("log.level", "info")
	v.SetDefault("log.stderr", false)

	v.SetDefault("schedule.spec", "@every 1m")
	v.SetDefault("schedule.concurrency", 4)
	v.SetDefault("schedule.timeout", "30s")

	v.SetDefault("store.driver", "memory")

	v.SetDefault("defaults.error_message", "")
	v.SetDefault("defaults.warning_message", "")
	v.SetDefault("defaults.graph", true)

	v.SetDefault("notifications.enabled", true)
	v.SetDefault("notifications.timeout", "10s")
}

// Load reads the YAML file at path (or ./configs/resourcewatch.yaml when
// path is empty) and RESOURCEWATCH_* environment overrides. A missing
// default file is not an error; a missing explicit file is.
func Load(path string) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	v.SetEnvPrefix("RESOURCEWATCH")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName("resourcewatch")
		v.SetConfigType("yaml")
		v.AddConfigPath("configs")
		v.AddConfigPath(".")
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("read config: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}

	if used := v.ConfigFileUsed(); used != "" {
		specs, err := LoadResources(used)
		if err != nil {
			return nil, err
		}
		cfg.Resources = specs
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}
	return &cfg, nil
}

// Validate collects every problem instead of stopping at the first one.
func (c *Config) Validate() error {
	var err error
	if !validLevels[strings.ToLower(c.Log.Level)] {
		err = multierr.Append(err, fmt.Errorf("invalid log level %q", c.Log.Level))
	}
	if !validDrivers[c.Store.Driver] {
		err = multierr.Append(err, fmt.Errorf("invalid store driver %q", c.Store.Driver))
	}
	if c.Store.Driver == "postgres" && c.Store.DatabaseURL == "" {
		err = multierr.Append(err, errors.New("store.database_url is required for the postgres driver"))
	}
	if c.Store.Driver == "redis" && c.Store.RedisURL == "" {
		err = multierr.Append(err, errors.New("store.redis_url is required for the redis driver"))
	}
	if c.Schedule.Concurrency < 1 {
		err = multierr.Append(err, fmt.Errorf("schedule.concurrency must be >= 1, got %d", c.Schedule.Concurrency))
	}
	if c.Schedule.Timeout < 0 {
		err = multierr.Append(err, fmt.Errorf("schedule.timeout must not be negative"))
	}
	if c.Notifications.Timeout < 0 {
		err = multierr.Append(err, fmt.Errorf("notifications.timeout must not be negative"))
	}

	names := make(map[string]bool, len(c.Notifications.Channels))
	for i, ch := range c.Notifications.Channels {
		if ch.Name == "" {
			err = multierr.Append(err, fmt.Errorf("notifications.channels[%d]: name is required", i))
		} else if names[ch.Name] {
			err = multierr.Append(err, fmt.Errorf("notifications.channels[%d]: duplicate name %q", i, ch.Name))
		}
		names[ch.Name] = true
		if !validSinks[ch.Type] {
			err = multierr.Append(err, fmt.Errorf("notifications.channels[%d]: invalid type %q", i, ch.Type))
		}
		if (ch.Type == "slack" || ch.Type == "webhook" || ch.Type == "redis") && ch.URL == "" {
			err = multierr.Append(err, fmt.Errorf("notifications.channels[%d]: url is required for %s", i, ch.Type))
		}
	}

	if _, cerr := c.Codes(); cerr != nil {
		err = multierr.Append(err, cerr)
	}
	return err
}

// Codes returns the exit-code table with configured overrides applied.
func (c *Config) Codes() (domain.ExitCodes, error) {
	return domain.DefaultExitCodes().Merge(c.ExitCodes)
}
