// Package config loads server configuration from flags, environment, an
// optional YAML file, and a local .env file, in that order of precedence.
package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

const (
	// EnvPrefix namespaces environment overrides, e.g. SCHEMEFINDER_REDIS_URL.
	EnvPrefix = "SCHEMEFINDER"

	// DefaultPort matches the port the web UI expects in development.
	DefaultPort = "5000"

	configName = "schemefinder"
)

// Catalog sources.
const (
	SourceFile     = "file"
	SourcePostgres = "postgres"
)

// Event sinks.
const (
	SinkNone  = "none"
	SinkLog   = "log"
	SinkKafka = "kafka"
)

type Config struct {
	Server   ServerConfig   `mapstructure:"server"`
	Log      LogConfig      `mapstructure:"log"`
	Catalog  CatalogConfig  `mapstructure:"catalog"`
	Postgres PostgresConfig `mapstructure:"postgres"`
	Redis    RedisConfig    `mapstructure:"redis"`
	Events   EventsConfig   `mapstructure:"events"`
	Kafka    KafkaConfig    `mapstructure:"kafka"`
}

// ServerConfig captures HTTP server level configuration.
type ServerConfig struct {
	// Addr wins over Port when both are set.
	Addr           string        `mapstructure:"addr"`
	Port           string        `mapstructure:"port"`
	RequestTimeout time.Duration `mapstructure:"request_timeout"`
	CORSOrigins    []string      `mapstructure:"cors_origins"`
}

type LogConfig struct {
	Level string `mapstructure:"level"`
	JSON  bool   `mapstructure:"json"`
}

type CatalogConfig struct {
	Source string `mapstructure:"source"`
	// Path to a catalog JSON file; empty means the embedded dataset.
	Path string `mapstructure:"path"`
}

type PostgresConfig struct {
	URL string `mapstructure:"url"`
}

// RedisConfig enables the eligibility result cache when URL is set.
type RedisConfig struct {
	URL          string        `mapstructure:"url"`
	TTL          time.Duration `mapstructure:"ttl"`
	PoolSize     int           `mapstructure:"pool_size"`
	MinIdleConns int           `mapstructure:"min_idle_conns"`
	DialTimeout  time.Duration `mapstructure:"dial_timeout"`
	ReadTimeout  time.Duration `mapstructure:"read_timeout"`
	WriteTimeout time.Duration `mapstructure:"write_timeout"`
}

type EventsConfig struct {
	Sink   string `mapstructure:"sink"`
	Buffer int    `mapstructure:"buffer"`
}

type KafkaConfig struct {
	Brokers []string `mapstructure:"brokers"`
	Topic   string   `mapstructure:"topic"`
}

// SetDefaults registers every key so environment overrides are visible to
// Unmarshal.
func SetDefaults(v *viper.Viper) {
	v.SetDefault("server.addr", "")
	v.SetDefault("server.port", "")
	v.SetDefault("server.request_timeout", 10*time.Second)
	v.SetDefault("server.cors_origins", []string{"*"})

	v.SetDefault("log.level", "info")
	v.SetDefault("log.json", false)

	v.SetDefault("catalog.source", SourceFile)
	v.SetDefault("catalog.path", "")

	v.SetDefault("postgres.url", "")

	v.SetDefault("redis.url", "")
	v.SetDefault("redis.ttl", 10*time.Minute)
	v.SetDefault("redis.pool_size", 10)
	v.SetDefault("redis.min_idle_conns", 2)
	v.SetDefault("redis.dial_timeout", 5*time.Second)
	v.SetDefault("redis.read_timeout", 3*time.Second)
	v.SetDefault("redis.write_timeout", 3*time.Second)

	v.SetDefault("events.sink", SinkLog)
	v.SetDefault("events.buffer", 1024)

	v.SetDefault("kafka.brokers", []string{})
	v.SetDefault("kafka.topic", "schemefinder.eligibility-checks")
}

// Load reads configuration into a Config. configFile may be empty, in which
// case ./schemefinder.yaml is used if present. Flags should already be bound
// to v by the caller.
func Load(v *viper.Viper, configFile string) (*Config, error) {
	if err := loadDotEnv(".env"); err != nil {
		return nil, err
	}

	SetDefaults(v)
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	v.AutomaticEnv()
	if err := v.BindEnv("server.port", EnvPrefix+"_SERVER_PORT", "PORT"); err != nil {
		return nil, fmt.Errorf("bind PORT: %w", err)
	}

	if configFile != "" {
		v.SetConfigFile(configFile)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("read config %s: %w", configFile, err)
		}
	} else {
		v.SetConfigName(configName)
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		if err := v.ReadInConfig(); err != nil {
			var notFound viper.ConfigFileNotFoundError
			if !errors.As(err, &notFound) {
				return nil, fmt.Errorf("read config: %w", err)
			}
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}
	cfg.Server.Addr = resolveAddr(cfg.Server)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func resolveAddr(s ServerConfig) string {
	if s.Addr != "" {
		return s.Addr
	}
	if s.Port != "" {
		return ":" + s.Port
	}
	return ":" + DefaultPort
}

// loadDotEnv applies path if it exists. Variables already in the process
// environment are not overwritten.
func loadDotEnv(path string) error {
	if _, err := os.Stat(path); err != nil {
		return nil
	}
	if err := godotenv.Load(path); err != nil {
		return fmt.Errorf("load %s: %w", path, err)
	}
	return nil
}

// Validate checks cross-field requirements.
func (c *Config) Validate() error {
	var errs []error

	switch c.Catalog.Source {
	case SourceFile:
	case SourcePostgres:
		if c.Postgres.URL == "" {
			errs = append(errs, errors.New("postgres.url is required when catalog.source is postgres"))
		}
	default:
		errs = append(errs, fmt.Errorf("catalog.source must be %q or %q, got %q", SourceFile, SourcePostgres, c.Catalog.Source))
	}

	switch c.Events.Sink {
	case SinkNone, SinkLog:
	case SinkKafka:
		if len(c.Kafka.Brokers) == 0 {
			errs = append(errs, errors.New("kafka.brokers is required when events.sink is kafka"))
		}
		if c.Kafka.Topic == "" {
			errs = append(errs, errors.New("kafka.topic is required when events.sink is kafka"))
		}
	default:
		errs = append(errs, fmt.Errorf("events.sink must be one of none, log, kafka, got %q", c.Events.Sink))
	}

	if c.Redis.URL != "" && c.Redis.TTL <= 0 {
		errs = append(errs, errors.New("redis.ttl must be positive"))
	}

	return errors.Join(errs...)
}
