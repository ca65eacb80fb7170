package config

import (
	"crew-route-service/internal/domain"
	"crew-route-service/internal/services"
	"fmt"
	"log"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/mitchellh/mapstructure"
	"github.com/spf13/viper"
)

// Get returns the environment value for key, or fallback when unset.
func Get(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

type ORS struct {
	APIKey    string  `mapstructure:"api_key"`
	BaseURL   string  `mapstructure:"base_url"`
	Profile   string  `mapstructure:"profile"`
	RateLimit float64 `mapstructure:"rate_limit"`
	Burst     int     `mapstructure:"burst"`
}

type Kafka struct {
	Brokers []string `mapstructure:"brokers"`
	Topic   string   `mapstructure:"topic"`
}

type Archive struct {
	Bucket string `mapstructure:"bucket"`
	Region string `mapstructure:"region"`
	Prefix string `mapstructure:"prefix"`
	Dir    string `mapstructure:"dir"`
}

// Config is the runtime configuration for the server and the CLI.
type Config struct {
	Port            string        `mapstructure:"port"`
	DatabaseURL     string        `mapstructure:"database_url"`
	SeedPath        string        `mapstructure:"seed_path"`
	CachePath       string        `mapstructure:"cache_path"`
	DistanceTimeout time.Duration `mapstructure:"distance_timeout"`
	RedisURL        string        `mapstructure:"redis_url"`
	RouteCacheTTL   time.Duration `mapstructure:"route_cache_ttl"`

	FallbackDepotLat float64 `mapstructure:"fallback_depot_lat"`
	FallbackDepotLon float64 `mapstructure:"fallback_depot_lon"`

	ORS        ORS                 `mapstructure:"ors"`
	Kafka      Kafka               `mapstructure:"kafka"`
	Archive    Archive             `mapstructure:"archive"`
	Thresholds services.Thresholds `mapstructure:"thresholds"`
}

func (c Config) FallbackDepot() domain.Coordinates {
	return domain.Coordinates{Lon: c.FallbackDepotLon, Lat: c.FallbackDepotLat}
}

func setDefaults(v *viper.Viper) error {
	v.SetDefault("port", "8080")
	v.SetDefault("database_url", "")
	v.SetDefault("seed_path", "data/seeds/demo.yaml")
	v.SetDefault("cache_path", "data/distance-cache.db")
	v.SetDefault("distance_timeout", "5s")
	v.SetDefault("redis_url", "")
	v.SetDefault("route_cache_ttl", "12h")

	// 1901 W Madison St, Phoenix.
	v.SetDefault("fallback_depot_lat", 33.4466)
	v.SetDefault("fallback_depot_lon", -112.0986)

	v.SetDefault("ors.api_key", "")
	v.SetDefault("ors.base_url", "https://api.openrouteservice.org")
	v.SetDefault("ors.profile", "driving-car")
	v.SetDefault("ors.rate_limit", 1.0)
	v.SetDefault("ors.burst", 1)

	v.SetDefault("kafka.brokers", []string{})
	v.SetDefault("kafka.topic", "route-events")

	v.SetDefault("archive.bucket", "")
	v.SetDefault("archive.region", "us-west-2")
	v.SetDefault("archive.prefix", "")
	v.SetDefault("archive.dir", "")

	// Registering every threshold key lets THRESHOLDS_* env vars override them.
	var th map[string]any
	if err := mapstructure.Decode(services.DefaultThresholds(), &th); err != nil {
		return fmt.Errorf("config: threshold defaults: %w", err)
	}
	for k, val := range th {
		v.SetDefault("thresholds."+k, val)
	}
	return nil
}

// Load reads an optional .env file, an optional config file (YAML, JSON or
// TOML by extension) and the environment, in increasing precedence. Nested
// keys map to env vars with "_" for ".", e.g. ORS_API_KEY.
func Load(path string) (*Config, error) {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found (using environment variables)")
	}

	v := viper.New()
	if err := setDefaults(v); err != nil {
		return nil, err
	}

	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("config: read %q: %w", path, err)
		}
	}

	var cfg Config
	decoderConfigOption := viper.DecoderConfigOption(func(dc *mapstructure.DecoderConfig) {
		dc.DecodeHook = mapstructure.ComposeDecodeHookFunc(
			mapstructure.StringToTimeDurationHookFunc(),
			mapstructure.StringToSliceHookFunc(","),
		)
	})
	if err := v.Unmarshal(&cfg, decoderConfigOption); err != nil {
		return nil, fmt.Errorf("config: decode: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c Config) Validate() error {
	if !c.FallbackDepot().Valid() {
		return fmt.Errorf("config: fallback depot %+v is not a valid coordinate", c.FallbackDepot())
	}
	if c.DistanceTimeout < 0 || c.RouteCacheTTL < 0 {
		return fmt.Errorf("config: durations must not be negative")
	}
	if len(c.Kafka.Brokers) > 0 && c.Kafka.Topic == "" {
		return fmt.Errorf("config: kafka topic is required when brokers are set")
	}
	if err := c.Thresholds.Validate(); err != nil {
		return fmt.Errorf("config: %w", err)
	}
	return nil
}
