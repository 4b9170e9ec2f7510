// Package config loads the settings of training runs, route searches, the
// experiment store and the HTTP server through viper.
package config

import (
	"errors"
	"fmt"
	"strings"

	"github.com/mitchellh/go-homedir"
	"github.com/spf13/viper"
)

// EnvPrefix prefixes every environment override, e.g. RLPATH_TRAINING_EPOCHS
const EnvPrefix = "RLPATH"

type Config struct {
	Logger   LoggerConfig   `mapstructure:"logger" yaml:"logger"`
	Training TrainingConfig `mapstructure:"training" yaml:"training"`
	Routing  RoutingConfig  `mapstructure:"routing" yaml:"routing"`
	Store    StoreConfig    `mapstructure:"store" yaml:"store"`
	Server   ServerConfig   `mapstructure:"server" yaml:"server"`
}

// LoggerConfig holds all the configuration for the logger.
type LoggerConfig struct {
	Level       string `mapstructure:"level" yaml:"level"`
	Format      string `mapstructure:"format" yaml:"format"`
	AddSource   bool   `mapstructure:"add_source" yaml:"add_source"`
	ServiceName string `mapstructure:"service_name" yaml:"service_name"`
	LogFile     string `mapstructure:"log_file" yaml:"log_file"`
	MaxSize     int    `mapstructure:"max_size" yaml:"max_size"`
	MaxBackups  int    `mapstructure:"max_backups" yaml:"max_backups"`
	MaxAge      int    `mapstructure:"max_age" yaml:"max_age"`
	Compress    bool   `mapstructure:"compress" yaml:"compress"`
}

type TrainingConfig struct {
	Epochs         int     `mapstructure:"epochs" yaml:"epochs"`
	MaximumActions int     `mapstructure:"maximum_actions" yaml:"maximum_actions"`
	LearningRate   float64 `mapstructure:"learning_rate" yaml:"learning_rate"`
	Discount       float64 `mapstructure:"discount" yaml:"discount"`
	// Policy is one of random, greedy, softmax, egreedy, strict
	Policy      string  `mapstructure:"policy" yaml:"policy"`
	Seed        uint64  `mapstructure:"seed" yaml:"seed"`
	Temperature float64 `mapstructure:"temperature" yaml:"temperature"`
	Epsilon     float64 `mapstructure:"epsilon" yaml:"epsilon"`
	// Parallelism bounds how many experiments train at once
	Parallelism int `mapstructure:"parallelism" yaml:"parallelism"`
	// Fallback and Rules configure the strict policy
	Fallback string       `mapstructure:"fallback" yaml:"fallback"`
	Rules    []StrictRule `mapstructure:"rules" yaml:"rules"`
}

// StrictRule forces the action labelled Action in the state hashed State.
// An empty State matches every state.
type StrictRule struct {
	State  string `mapstructure:"state" yaml:"state"`
	Action string `mapstructure:"action" yaml:"action"`
}

type RoutingConfig struct {
	MaxSteps int `mapstructure:"max_steps" yaml:"max_steps"`
}

type StoreConfig struct {
	// Backend is file or redis
	Backend string      `mapstructure:"backend" yaml:"backend"`
	Dir     string      `mapstructure:"dir" yaml:"dir"`
	Redis   RedisConfig `mapstructure:"redis" yaml:"redis"`
}

type RedisConfig struct {
	Addr     string `mapstructure:"addr" yaml:"addr"`
	Password string `mapstructure:"password" yaml:"-"`
	DB       int    `mapstructure:"db" yaml:"db"`
	Prefix   string `mapstructure:"prefix" yaml:"prefix"`
}

type ServerConfig struct {
	Addr string `mapstructure:"addr" yaml:"addr"`
	// Mode is the gin mode: debug, release or test
	Mode string `mapstructure:"mode" yaml:"mode"`
}

// NewDefaultConfig creates a new configuration struct populated with default values.
func NewDefaultConfig() *Config {
	v := viper.New()
	SetDefaults(v)

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		panic(fmt.Sprintf("failed to unmarshal default config: %v", err))
	}
	return &cfg
}

// SetDefaults initializes default values for various configuration parameters.
func SetDefaults(v *viper.Viper) {
	v.SetDefault("logger.level", "info")
	v.SetDefault("logger.format", "console")
	v.SetDefault("logger.add_source", false)
	v.SetDefault("logger.service_name", "rlpath")
	v.SetDefault("logger.log_file", "")
	v.SetDefault("logger.max_size", 100)
	v.SetDefault("logger.max_backups", 5)
	v.SetDefault("logger.max_age", 30)
	v.SetDefault("logger.compress", true)

	v.SetDefault("training.epochs", 50)
	v.SetDefault("training.maximum_actions", 1000)
	v.SetDefault("training.learning_rate", 0.8)
	v.SetDefault("training.discount", 0.8)
	v.SetDefault("training.policy", "random")
	v.SetDefault("training.seed", 1)
	v.SetDefault("training.temperature", 1.0)
	v.SetDefault("training.epsilon", 0.1)
	v.SetDefault("training.parallelism", 4)
	v.SetDefault("training.fallback", "greedy")

	v.SetDefault("routing.max_steps", 100)

	v.SetDefault("store.backend", "file")
	v.SetDefault("store.dir", "~/.rlpath/experiments")
	v.SetDefault("store.redis.addr", "127.0.0.1:6379")
	v.SetDefault("store.redis.db", 0)
	v.SetDefault("store.redis.prefix", "rlpath")

	v.SetDefault("server.addr", ":8080")
	v.SetDefault("server.mode", "release")
}

// BindEnv makes every key overridable from RLPATH_ prefixed variables
func BindEnv(v *viper.Viper) error {
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	if err := v.BindEnv("store.redis.password", EnvPrefix+"_REDIS_PASSWORD"); err != nil {
		return fmt.Errorf("binding store.redis.password: %w", err)
	}
	return nil
}

// NewConfigFromViper creates a new configuration instance from a viper object.
func NewConfigFromViper(v *viper.Viper) (*Config, error) {
	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("error unmarshaling config: %w", err)
	}

	dir, err := homedir.Expand(cfg.Store.Dir)
	if err != nil {
		return nil, fmt.Errorf("expanding store.dir: %w", err)
	}
	cfg.Store.Dir = dir

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return &cfg, nil
}

// Load reads the optional config file, applies defaults and environment
// overrides
func Load(path string) (*Config, error) {
	v := viper.New()
	SetDefaults(v)
	if err := BindEnv(v); err != nil {
		return nil, err
	}
	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("reading %s: %w", path, err)
		}
	}
	return NewConfigFromViper(v)
}

// Validate checks the configuration for required fields and sane values.
func (c *Config) Validate() error {
	return errors.Join(
		c.Training.Validate(),
		c.Routing.Validate(),
		c.Store.Validate(),
		c.Server.Validate(),
	)
}

func (t *TrainingConfig) Validate() error {
	if t.Epochs <= 0 {
		return fmt.Errorf("training.epochs must be a positive integer")
	}
	if t.MaximumActions <= 0 {
		return fmt.Errorf("training.maximum_actions must be a positive integer")
	}
	if t.LearningRate <= 0 || t.LearningRate > 1 {
		return fmt.Errorf("training.learning_rate must be in (0, 1]")
	}
	if t.Discount < 0 || t.Discount > 1 {
		return fmt.Errorf("training.discount must be in [0, 1]")
	}
	if t.Epsilon < 0 || t.Epsilon > 1 {
		return fmt.Errorf("training.epsilon must be in [0, 1]")
	}
	if t.Policy == "softmax" && t.Temperature <= 0 {
		return fmt.Errorf("training.temperature must be positive for the softmax policy")
	}
	if t.Policy == "strict" {
		if len(t.Rules) == 0 {
			return fmt.Errorf("training.rules must not be empty for the strict policy")
		}
		for i, r := range t.Rules {
			if r.Action == "" {
				return fmt.Errorf("training.rules[%d] has no action", i)
			}
		}
		if t.Fallback == "strict" {
			return fmt.Errorf("training.fallback cannot be strict")
		}
	}
	return nil
}

func (r *RoutingConfig) Validate() error {
	if r.MaxSteps <= 0 {
		return fmt.Errorf("routing.max_steps must be a positive integer")
	}
	return nil
}

func (s *StoreConfig) Validate() error {
	switch s.Backend {
	case "file":
		if s.Dir == "" {
			return fmt.Errorf("store.dir is required for the file backend")
		}
	case "redis":
		if s.Redis.Addr == "" {
			return fmt.Errorf("store.redis.addr is required for the redis backend")
		}
	default:
		return fmt.Errorf("store.backend must be file or redis, got %q", s.Backend)
	}
	return nil
}

func (s *ServerConfig) Validate() error {
	switch s.Mode {
	case "debug", "release", "test":
		return nil
	default:
		return fmt.Errorf("server.mode must be debug, release or test, got %q", s.Mode)
	}
}
