package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/log"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

const (
	PolicyReject = "reject"
	PolicyQueue  = "queue"
)

type Config struct {
	Server struct {
		Buffer_size      int
		Max_connections  int
		Admission_policy string
		Grace_period     time.Duration
		Idle_timeout     time.Duration
	}
	Log struct {
		Level         string
		Preview_bytes int
	}
	Admin struct {
		Addr string
	}
	Debug struct {
		Pprof_addr string
	}
	Stats struct {
		Schedule string
	}
	Registry struct {
		Zookeeper struct {
			Servers         []string
			Base_path       string
			Session_timeout time.Duration
		}
	}
}

// Conf is the process-wide configuration. It holds defaults until LoadConfig succeeds.
var Conf = Default()

// FlagKeys maps command-line flag names to the config keys they override.
var FlagKeys = map[string]string{
	"buffer-size":      "server.buffer_size",
	"max-connections":  "server.max_connections",
	"admission-policy": "server.admission_policy",
	"grace-period":     "server.grace_period",
	"idle-timeout":     "server.idle_timeout",
	"log-level":        "log.level",
	"admin-addr":       "admin.addr",
	"pprof-addr":       "debug.pprof_addr",
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.buffer_size", 1024)
	v.SetDefault("server.max_connections", 0)
	v.SetDefault("server.admission_policy", PolicyReject)
	v.SetDefault("server.grace_period", 5*time.Second)
	v.SetDefault("server.idle_timeout", time.Duration(0))
	v.SetDefault("log.level", "info")
	v.SetDefault("log.preview_bytes", 64)
	v.SetDefault("admin.addr", "")
	v.SetDefault("debug.pprof_addr", "")
	v.SetDefault("stats.schedule", "@every 30s")
	v.SetDefault("registry.zookeeper.servers", []string{})
	v.SetDefault("registry.zookeeper.base_path", "/echor/instances")
	v.SetDefault("registry.zookeeper.session_timeout", 5*time.Second)
}

func newViper() *viper.Viper {
	v := viper.New()
	setDefaults(v)
	v.SetEnvPrefix("ECHOR")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	return v
}

// Default returns the built-in configuration without consulting files or the environment.
func Default() *Config {
	var config Config
	v := viper.New()
	setDefaults(v)
	if err := v.Unmarshal(&config); err != nil {
		panic(fmt.Sprintf("config: invalid defaults: %v", err))
	}
	return &config
}

// LoadConfig reads defaults, then the TOML file at path (optional when empty,
// in which case ./config.toml is tried), then ECHOR_* variables, then any
// changed flags. The result is validated and stored in Conf.
func LoadConfig(path string, flags *pflag.FlagSet) (*Config, error) {
	v := newViper()

	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("toml")
		v.AddConfigPath(".")
	}
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if path != "" || !errors.As(err, &notFound) {
			return nil, fmt.Errorf("failed to read config: %w", err)
		}
	} else {
		log.Debugf("config: loaded %s", v.ConfigFileUsed())
	}

	if flags != nil {
		for name, key := range FlagKeys {
			if f := flags.Lookup(name); f != nil {
				if err := v.BindPFlag(key, f); err != nil {
					return nil, fmt.Errorf("failed to bind flag %s: %w", name, err)
				}
			}
		}
	}

	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("failed to decode config: %w", err)
	}
	if err := config.Validate(); err != nil {
		return nil, err
	}
	Conf = &config
	return &config, nil
}

// Validate reports the first setting that cannot be served.
func (c *Config) Validate() error {
	if c.Server.Buffer_size <= 0 {
		return fmt.Errorf("server.buffer_size must be positive, got %d", c.Server.Buffer_size)
	}
	if c.Server.Max_connections < 0 {
		return fmt.Errorf("server.max_connections must not be negative, got %d", c.Server.Max_connections)
	}
	switch c.Server.Admission_policy {
	case PolicyReject, PolicyQueue:
	default:
		return fmt.Errorf("server.admission_policy must be %q or %q, got %q", PolicyReject, PolicyQueue, c.Server.Admission_policy)
	}
	if c.Server.Grace_period < 0 {
		return fmt.Errorf("server.grace_period must not be negative, got %s", c.Server.Grace_period)
	}
	if c.Server.Idle_timeout < 0 {
		return fmt.Errorf("server.idle_timeout must not be negative, got %s", c.Server.Idle_timeout)
	}
	if _, err := log.ParseLevel(c.Log.Level); err != nil {
		return fmt.Errorf("log.level: %w", err)
	}
	if len(c.Registry.Zookeeper.Servers) > 0 && !strings.HasPrefix(c.Registry.Zookeeper.Base_path, "/") {
		return fmt.Errorf("registry.zookeeper.base_path must be absolute, got %q", c.Registry.Zookeeper.Base_path)
	}
	return nil
}
