package config

import (
	"errors"
	"fmt"
	"io/fs"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"

	"merchant-recon/internal/geocode"
	"merchant-recon/internal/reconcile/model"
)

const envPrefix = "RECON"

type Config struct {
	Server   ServerConfig  `mapstructure:"server"`
	Log      LogConfig     `mapstructure:"log"`
	Matching model.Options `mapstructure:"matching"`
	Geocode  GeocodeConfig `mapstructure:"geocode"`
}

type ServerConfig struct {
	Host         string   `mapstructure:"host"`
	Port         int      `mapstructure:"port"`
	AllowOrigins []string `mapstructure:"allow_origins"`
	MaxUploadMB  int      `mapstructure:"max_upload_mb"`
}

type LogConfig struct {
	Level string `mapstructure:"level"`
	File  string `mapstructure:"file"` // empty: console only
}

type GeocodeConfig struct {
	BaseURL   string        `mapstructure:"base_url"`
	UserAgent string        `mapstructure:"user_agent"`
	Timeout   time.Duration `mapstructure:"timeout"`
	MinDelay  time.Duration `mapstructure:"min_delay"`
	CacheSize int           `mapstructure:"cache_size"`
	Precision int           `mapstructure:"precision"`
	RedisAddr string        `mapstructure:"redis_addr"` // empty: no persistent cache
	RedisTTL  time.Duration `mapstructure:"redis_ttl"`
}

func (g GeocodeConfig) CacheConfig() geocode.CacheConfig {
	return geocode.CacheConfig{
		Size:      g.CacheSize,
		Precision: g.Precision,
		Timeout:   g.Timeout,
		MinDelay:  g.MinDelay,
	}
}

func (c Config) Addr() string { return fmt.Sprintf("%s:%d", c.Server.Host, c.Server.Port) }

// New returns a viper instance with defaults and RECON_* environment
// overrides (RECON_MATCHING_MAX_DISTANCE_MILES, RECON_SERVER_PORT, ...).
// Callers may bind command-line flags to it before calling Load.
func New() *viper.Viper {
	v := viper.New()
	setDefaults(v)
	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	v.AutomaticEnv()
	return v
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.host", "127.0.0.1")
	v.SetDefault("server.port", 8082)
	v.SetDefault("server.allow_origins", []string{"*"})
	v.SetDefault("server.max_upload_mb", 256)

	v.SetDefault("log.level", "info")
	v.SetDefault("log.file", "logs/merchant-recon.log")

	o := model.DefaultOptions()
	v.SetDefault("matching.max_distance_miles", o.MaxDistanceMiles)
	v.SetDefault("matching.min_name_similarity", o.MinNameSimilarity)
	v.SetDefault("matching.min_confidence", o.MinConfidence)
	v.SetDefault("matching.coordinate_precision", o.CoordinatePrecision)
	v.SetDefault("matching.ignore_city", o.IgnoreCity)
	v.SetDefault("matching.ignore_state", o.IgnoreState)
	v.SetDefault("matching.ignore_zip", o.IgnoreZip)
	v.SetDefault("matching.ignore_name", o.IgnoreName)
	v.SetDefault("matching.include_address", o.IncludeAddress)
	v.SetDefault("matching.show_all_potential_matches", o.ShowAllPotentialMatches)
	v.SetDefault("matching.enable_reverse_geocoding", o.EnableReverseGeocoding)
	v.SetDefault("matching.workers", o.Workers)
	v.SetDefault("matching.progress_every", o.ProgressEvery)
	v.SetDefault("matching.name_cache_size", o.NameCacheSize)

	g := geocode.DefaultCacheConfig()
	v.SetDefault("geocode.base_url", geocode.DefaultBaseURL)
	v.SetDefault("geocode.user_agent", geocode.DefaultUserAgent)
	v.SetDefault("geocode.timeout", g.Timeout)
	v.SetDefault("geocode.min_delay", g.MinDelay)
	v.SetDefault("geocode.cache_size", g.Size)
	v.SetDefault("geocode.precision", g.Precision)
	v.SetDefault("geocode.redis_addr", "")
	v.SetDefault("geocode.redis_ttl", 720*time.Hour)
}

// Load reads .env (if present), then file, or recon.yaml from the usual
// places when file is empty, and validates the result.
func Load(v *viper.Viper, file string) (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("load .env: %w", err)
	}

	if file != "" {
		v.SetConfigFile(file)
	} else {
		v.SetConfigName("recon")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath("./config")
		v.AddConfigPath("/etc/merchant-recon/")
	}
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if file != "" || !errors.As(err, &notFound) {
			return nil, fmt.Errorf("read config: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c Config) Validate() error {
	if err := c.Matching.Validate(); err != nil {
		return fmt.Errorf("matching: %w", err)
	}
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return &model.ValidationError{Field: "server.port", Value: c.Server.Port, Message: "must be in [1,65535]"}
	}
	if c.Server.MaxUploadMB < 1 {
		return &model.ValidationError{Field: "server.max_upload_mb", Value: c.Server.MaxUploadMB, Message: "must be >= 1"}
	}
	if c.Geocode.Precision < 0 || c.Geocode.Precision > 6 {
		return &model.ValidationError{Field: "geocode.precision", Value: c.Geocode.Precision, Message: "must be in [0,6]"}
	}
	if c.Geocode.CacheSize < 0 {
		return &model.ValidationError{Field: "geocode.cache_size", Value: c.Geocode.CacheSize, Message: "must be >= 0"}
	}
	if c.Geocode.Timeout < 0 || c.Geocode.MinDelay < 0 {
		return &model.ValidationError{Field: "geocode.timeout", Value: c.Geocode.Timeout, Message: "durations must be >= 0"}
	}
	return nil
}
