// Package config loads service configuration from defaults, an optional YAML
// file and FW_-prefixed environment variables, in that order of precedence.
package config

import (
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/viper"
)

type Config struct {
	Service   ServiceConfig   `mapstructure:"service"`
	Log       LogConfig       `mapstructure:"log"`
	Auth      AuthConfig      `mapstructure:"auth"`
	Stream    StreamConfig    `mapstructure:"stream"`
	Mailbox   MailboxConfig   `mapstructure:"mailbox"`
	Presence  PresenceConfig  `mapstructure:"presence"`
	Directory DirectoryConfig `mapstructure:"directory"`
	Bus       BusConfig       `mapstructure:"bus"`
}

type ServiceConfig struct {
	Addr string `mapstructure:"addr"`
}

type LogConfig struct {
	Level  string `mapstructure:"level"`  // debug | info | warn | error
	Format string `mapstructure:"format"` // text | json
}

type AuthConfig struct {
	Secret string `mapstructure:"secret"`
	Issuer string `mapstructure:"issuer"`
}

type StreamConfig struct {
	// HeartbeatInterval must stay at or below 30s so intermediaries never
	// see a silent connection for longer than that.
	HeartbeatInterval time.Duration `mapstructure:"heartbeat_interval"`
	// DrainInterval is the fallback poll; the enqueue wake-up usually wins.
	DrainInterval time.Duration `mapstructure:"drain_interval"`
}

type MailboxConfig struct {
	Capacity        int           `mapstructure:"capacity"`
	EvictionPolicy  string        `mapstructure:"eviction_policy"` // drop_oldest | reject_new
	ExpireOnDrain   bool          `mapstructure:"expire_on_drain"`
	JanitorInterval time.Duration `mapstructure:"janitor_interval"`
	IdleTimeout     time.Duration `mapstructure:"idle_timeout"`
}

type PresenceConfig struct {
	SweepInterval time.Duration `mapstructure:"sweep_interval"`
	StaleAfter    time.Duration `mapstructure:"stale_after"`
}

type DirectoryConfig struct {
	// BaseURL of the company directory service. Empty means unconfigured:
	// company-scoped publishes degrade to broadcast.
	BaseURL   string        `mapstructure:"base_url"`
	Token     string        `mapstructure:"token"`
	Timeout   time.Duration `mapstructure:"timeout"`
	CacheSize int           `mapstructure:"cache_size"`
}

type BusConfig struct {
	BufferSize int `mapstructure:"buffer_size"`
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("service.addr", ":8087")
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "text")
	// Empty defaults register the keys so AutomaticEnv can populate them.
	v.SetDefault("auth.secret", "")
	v.SetDefault("auth.issuer", "fieldworks")
	v.SetDefault("directory.base_url", "")
	v.SetDefault("directory.token", "")
	v.SetDefault("stream.heartbeat_interval", 15*time.Second)
	v.SetDefault("stream.drain_interval", 2*time.Second)
	v.SetDefault("mailbox.capacity", 1024)
	v.SetDefault("mailbox.eviction_policy", "drop_oldest")
	v.SetDefault("mailbox.expire_on_drain", false)
	v.SetDefault("mailbox.janitor_interval", 15*time.Minute)
	v.SetDefault("mailbox.idle_timeout", 30*time.Minute)
	v.SetDefault("presence.sweep_interval", 60*time.Second)
	v.SetDefault("presence.stale_after", 5*time.Minute)
	v.SetDefault("directory.timeout", 5*time.Second)
	v.SetDefault("directory.cache_size", 1024)
	v.SetDefault("bus.buffer_size", 256)
}

// LoadConfig reads the configuration. path may be empty, in which case only
// defaults and environment variables apply. A present file is watched and
// changes are logged; live re-wiring is not attempted.
func LoadConfig(path string) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	v.SetEnvPrefix("FW")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("config: read %s: %w", path, err)
		}
		v.OnConfigChange(func(e fsnotify.Event) {
			slog.Info("config file changed, restart to apply", "file", e.Name, "op", e.Op.String())
		})
		v.WatchConfig()
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("config: unmarshal: %w", err)
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) validate() error {
	if c.Auth.Secret == "" {
		return fmt.Errorf("config: auth.secret is required")
	}
	if c.Stream.HeartbeatInterval <= 0 || c.Stream.HeartbeatInterval > 30*time.Second {
		return fmt.Errorf("config: stream.heartbeat_interval must be within (0s, 30s]")
	}
	if c.Stream.DrainInterval <= 0 {
		return fmt.Errorf("config: stream.drain_interval must be positive")
	}
	return nil
}
