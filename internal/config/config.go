// Package config loads astrolabe's runtime configuration from viper: the
// .astrolabe.yaml file, ASTROLABE_* environment variables and CLI flags.
package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"

	"github.com/papapumpkin/astrolabe/internal/zodiac"
)

// EnvPrefix is the prefix of every environment override.
const EnvPrefix = "ASTROLABE"

// ErrInvalid is returned when a loaded configuration fails validation.
var ErrInvalid = errors.New("invalid configuration")

// AntisciaConfig controls antiscion detection.
type AntisciaConfig struct {
	Orb  float64  `mapstructure:"orb" validate:"gte=0,lte=10"`
	Axes []string `mapstructure:"axes" validate:"dive,axis"`
}

// LogConfig controls diagnostic logging.
type LogConfig struct {
	Level  string `mapstructure:"level" validate:"oneof=trace debug info warn error disabled"`
	Format string `mapstructure:"format" validate:"oneof=console json"`
}

// ArchiveConfig locates the chart archive database.
type ArchiveConfig struct {
	Path string `mapstructure:"path" validate:"required"`
}

// CacheConfig controls the snapshot cache. An empty RedisAddr keeps the
// cache in process.
type CacheConfig struct {
	RedisAddr  string        `mapstructure:"redis_addr" validate:"omitempty,hostname_port"`
	Prefix     string        `mapstructure:"prefix"`
	TTL        time.Duration `mapstructure:"ttl" validate:"gte=0"`
	MemorySize int           `mapstructure:"memory_size" validate:"gte=0"`
}

// TelemetryConfig names the JSONL event file. Empty disables telemetry.
type TelemetryConfig struct {
	Path string `mapstructure:"path"`
}

// MetricsConfig names the Prometheus textfile written after each command.
// Empty disables the export.
type MetricsConfig struct {
	Textfile string `mapstructure:"textfile"`
}

// ServerConfig controls the HTTP API.
type ServerConfig struct {
	Addr        string   `mapstructure:"addr" validate:"required"`
	RateLimit   float64  `mapstructure:"rate_limit" validate:"gte=0"`
	Burst       int      `mapstructure:"burst" validate:"gte=1"`
	CORSOrigins []string `mapstructure:"cors_origins"`
}

// Config holds all runtime configuration.
type Config struct {
	HouseSystem string             `mapstructure:"house_system" validate:"house_system"`
	Bodies      []string           `mapstructure:"bodies" validate:"min=1,dive,body"`
	OrbPolicy   string             `mapstructure:"orb_policy" validate:"oneof=aspect body"`
	Orbs        map[string]float64 `mapstructure:"orbs" validate:"dive,keys,aspect,endkeys,gte=0,lte=30"`
	Aspects     []string           `mapstructure:"aspects" validate:"dive,aspect"`
	Antiscia    AntisciaConfig     `mapstructure:"antiscia"`
	Log         LogConfig          `mapstructure:"log"`
	Archive     ArchiveConfig      `mapstructure:"archive"`
	Cache       CacheConfig        `mapstructure:"cache"`
	Telemetry   TelemetryConfig    `mapstructure:"telemetry"`
	Metrics     MetricsConfig      `mapstructure:"metrics"`
	Server      ServerConfig       `mapstructure:"server"`
	Verbose     bool               `mapstructure:"verbose"`
}

// SetupEnv makes viper read ASTROLABE_* variables, with nested keys joined
// by underscores (ASTROLABE_LOG_LEVEL for log.level).
func SetupEnv() {
	viper.SetEnvPrefix(EnvPrefix)
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()
}

// Load reads configuration from viper, applying built-in defaults for any
// values not set by config file, environment, or flags, and validates it.
func Load() (Config, error) {
	return load(viper.GetViper())
}

// Default returns the built-in configuration, ignoring files, environment
// and flags.
func Default() Config {
	cfg, err := load(viper.New())
	if err != nil {
		// The built-in defaults always validate.
		panic(err)
	}
	return cfg
}

func load(v *viper.Viper) (Config, error) {
	setDefaults(v)

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("config: unmarshal: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("house_system", zodiac.Placidus.String())
	v.SetDefault("bodies", []string{"planets"})
	v.SetDefault("orb_policy", "aspect")
	aspects := make([]string, 0, len(zodiac.Aspects()))
	for a, orb := range zodiac.DefaultOrbs() {
		v.SetDefault("orbs."+a.Info().Key, orb)
	}
	for _, a := range zodiac.Aspects() {
		aspects = append(aspects, a.Info().Key)
	}
	v.SetDefault("aspects", aspects)
	v.SetDefault("antiscia.orb", 1.0)
	v.SetDefault("antiscia.axes", []string{"solstitial", "equinoctial"})
	v.SetDefault("log.level", "warn")
	v.SetDefault("log.format", "console")
	v.SetDefault("archive.path", "astrolabe.db")
	v.SetDefault("cache.redis_addr", "")
	v.SetDefault("cache.prefix", "astrolabe:")
	v.SetDefault("cache.ttl", time.Hour)
	v.SetDefault("cache.memory_size", 256)
	v.SetDefault("telemetry.path", "")
	v.SetDefault("metrics.textfile", "")
	v.SetDefault("server.addr", ":8080")
	v.SetDefault("server.rate_limit", 10.0)
	v.SetDefault("server.burst", 20)
	v.SetDefault("server.cors_origins", []string{"*"})
	v.SetDefault("verbose", false)
}
