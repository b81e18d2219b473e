// Package config loads genie's settings from defaults, ~/.genie/config.yaml,
// and GENIE_* environment variables, in increasing precedence.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/felixgeelhaar/genie/internal/credential"
	"github.com/felixgeelhaar/genie/internal/knowledge"
	"github.com/felixgeelhaar/genie/internal/policy"
	"github.com/spf13/viper"
)

// EnvPrefix prefixes every environment override, e.g. GENIE_STORE_DRIVER.
const EnvPrefix = "GENIE"

// Store drivers.
const (
	DriverJSON   = "json"
	DriverSQLite = "sqlite"
	DriverRedis  = "redis"
)

// Config is the top-level configuration structure.
type Config struct {
	Store   StoreConfig   `mapstructure:"store"`
	Policy  PolicyConfig  `mapstructure:"policy"`
	Log     LogConfig     `mapstructure:"log"`
	Metrics MetricsConfig `mapstructure:"metrics"`
}

type StoreConfig struct {
	Driver string      `mapstructure:"driver"`
	Path   string      `mapstructure:"path"`
	Watch  bool        `mapstructure:"watch"`
	Redis  RedisConfig `mapstructure:"redis"`
}

type RedisConfig struct {
	URL      string `mapstructure:"url"`
	Key      string `mapstructure:"key"`
	Password string `mapstructure:"password"`
}

type PolicyConfig struct {
	MaxQuestions int     `mapstructure:"max_questions"`
	MinQuestions int     `mapstructure:"min_questions"`
	Confidence   float64 `mapstructure:"confidence"`
	OnCollision  string  `mapstructure:"on_collision"`
}

type LogConfig struct {
	Verbose bool `mapstructure:"verbose"`
	JSON    bool `mapstructure:"json"`
}

type MetricsConfig struct {
	Addr string `mapstructure:"addr"`
}

var defaults = map[string]interface{}{
	"store.driver":         DriverJSON,
	"store.path":           "",
	"store.watch":          false,
	"store.redis.url":      "redis://localhost:6379/0",
	"store.redis.key":      "genie:knowledge",
	"store.redis.password": "",
	"policy.max_questions": policy.DefaultPolicy.MaxQuestions,
	"policy.min_questions": policy.DefaultPolicy.MinQuestions,
	"policy.confidence":    policy.DefaultPolicy.Confidence,
	"policy.on_collision":  string(policy.DefaultPolicy.OnCollision),
	"log.verbose":          false,
	"log.json":             false,
	"metrics.addr":         "",
}

// Keys lists every recognised configuration key.
func Keys() []string {
	keys := make([]string, 0, len(defaults))
	for k := range defaults {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// IsKey reports whether key is a recognised configuration key.
func IsKey(key string) bool {
	_, ok := defaults[key]
	return ok
}

// Dir returns genie's home directory: $GENIE_HOME or ~/.genie.
func Dir() string {
	if dir := os.Getenv(EnvPrefix + "_HOME"); dir != "" {
		return dir
	}
	home, _ := os.UserHomeDir()
	return filepath.Join(home, ".genie")
}

// DefaultPath is the config file location.
func DefaultPath() string {
	return filepath.Join(Dir(), "config.yaml")
}

// New builds a viper instance with defaults, the config file at path (if it
// exists) and environment overrides. An empty path means DefaultPath.
func New(path string) (*viper.Viper, error) {
	if path == "" {
		path = DefaultPath()
	}

	v := viper.New()
	for k, val := range defaults {
		v.SetDefault(k, val)
	}
	v.SetConfigFile(path)
	v.SetConfigType("yaml")
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if _, err := os.Stat(path); err == nil {
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
		}
	}
	return v, nil
}

// Load unmarshals v, opening sealed secrets and filling the default
// store path for the selected driver.
func Load(v *viper.Viper) (*Config, error) {
	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if credential.IsSealed(cfg.Store.Redis.Password) {
		s, err := credential.NewSealer(Dir())
		if err != nil {
			return nil, err
		}
		plain, err := s.Open(cfg.Store.Redis.Password)
		if err != nil {
			return nil, fmt.Errorf("failed to open store.redis.password: %w", err)
		}
		cfg.Store.Redis.Password = plain
	}

	cfg.Store.Driver = strings.ToLower(cfg.Store.Driver)
	switch cfg.Store.Driver {
	case DriverJSON:
		if cfg.Store.Path == "" {
			cfg.Store.Path = filepath.Join(Dir(), "brain.json")
		}
	case DriverSQLite:
		if cfg.Store.Path == "" {
			cfg.Store.Path = filepath.Join(Dir(), "brain.db")
		}
	case DriverRedis:
	default:
		return nil, fmt.Errorf("unknown store driver %q (use json, sqlite or redis)", cfg.Store.Driver)
	}
	return &cfg, nil
}

// Policy converts the policy section into validated thresholds.
func (c PolicyConfig) Policy() (policy.Policy, error) {
	onCollision, err := knowledge.ParseCollisionPolicy(c.OnCollision)
	if err != nil {
		return policy.Policy{}, err
	}
	p := policy.Policy{
		MaxQuestions: c.MaxQuestions,
		MinQuestions: c.MinQuestions,
		Confidence:   c.Confidence,
		OnCollision:  onCollision,
	}
	if v := p.Check(); v != nil {
		return policy.Policy{}, fmt.Errorf("invalid policy: %w", v)
	}
	return p, nil
}

// Set writes key=value into the config file at path, sealing secrets.
func Set(path, key, value string) error {
	if !IsKey(key) {
		return fmt.Errorf("unknown config key %q", key)
	}
	if path == "" {
		path = DefaultPath()
	}

	v := viper.New()
	v.SetConfigFile(path)
	v.SetConfigType("yaml")
	if _, err := os.Stat(path); err == nil {
		if err := v.ReadInConfig(); err != nil {
			return fmt.Errorf("failed to read config file %s: %w", path, err)
		}
	}

	if credential.IsSecretKey(key) && value != "" {
		s, err := credential.NewSealer(Dir())
		if err != nil {
			return err
		}
		sealed, err := s.Seal(value)
		if err != nil {
			return fmt.Errorf("failed to seal %s: %w", key, err)
		}
		value = sealed
	}
	v.Set(key, value)

	if err := os.MkdirAll(filepath.Dir(path), 0750); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}
	if err := v.WriteConfigAs(path); err != nil {
		return fmt.Errorf("failed to write config file %s: %w", path, err)
	}
	return nil
}

// Get returns the effective value of key as a string, masking secrets.
func Get(v *viper.Viper, key string) (string, error) {
	if !IsKey(key) {
		return "", fmt.Errorf("unknown config key %q", key)
	}
	val := v.GetString(key)
	if credential.IsSecretKey(key) && val != "" {
		return credential.Mask(val), nil
	}
	return val, nil
}

// Source reports where the effective value of key comes from: "env",
// "file" or "default".
func Source(v *viper.Viper, key string) string {
	env := EnvPrefix + "_" + strings.ToUpper(strings.ReplaceAll(key, ".", "_"))
	if _, ok := os.LookupEnv(env); ok {
		return "env"
	}
	if v.InConfig(key) {
		return "file"
	}
	return "default"
}
