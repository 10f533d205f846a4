package config

import (
	"errors"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"

	sharedcfg "github.com/couchcryptid/storm-data-shared/config"
)

// DefaultTileURL is the OpenStreetMap raster tile template.
const DefaultTileURL = "https://{s}.tile.openstreetmap.org/{z}/{x}/{y}.png"

// Config holds all service settings, populated from environment variables.
type Config struct {
	HTTPAddr        string
	LogLevel        string
	LogFormat       string
	ShutdownTimeout time.Duration

	// Upstream prediction service.
	UpstreamBaseURL string
	UpstreamTimeout time.Duration
	DefaultFestival string

	// Views.
	TableRows    int
	MapTileURL   string
	MapTileProbe bool

	// Mapbox geocoding of areas missing from the static registry.
	MapboxToken     string
	MapboxEnabled   bool
	MapboxTimeout   time.Duration
	MapboxCacheSize int
	MapboxRegion    string

	// Event publishing.
	KafkaEnabled bool
	KafkaBrokers []string
	KafkaTopic   string
}

// Load reads configuration from environment variables, applying defaults where unset.
func Load() (*Config, error) {
	shutdownTimeout, err := sharedcfg.ParseShutdownTimeout()
	if err != nil {
		return nil, err
	}

	upstreamTimeout, err := parsePositiveDuration("UPSTREAM_TIMEOUT", "5s")
	if err != nil {
		return nil, err
	}

	mapboxTimeout, err := parsePositiveDuration("MAPBOX_TIMEOUT", "5s")
	if err != nil {
		return nil, err
	}

	tableRows, err := parseTableRows()
	if err != nil {
		return nil, err
	}

	mapboxToken := os.Getenv("MAPBOX_TOKEN")
	mapboxEnabled := mapboxToken != ""
	if v := os.Getenv("MAPBOX_ENABLED"); v != "" {
		mapboxEnabled = v == "true"
	}

	cfg := &Config{
		HTTPAddr:        sharedcfg.EnvOrDefault("HTTP_ADDR", ":8080"),
		LogLevel:        sharedcfg.EnvOrDefault("LOG_LEVEL", "info"),
		LogFormat:       sharedcfg.EnvOrDefault("LOG_FORMAT", "json"),
		ShutdownTimeout: shutdownTimeout,

		UpstreamBaseURL: strings.TrimRight(sharedcfg.EnvOrDefault("UPSTREAM_BASE_URL", "http://localhost:5000/api"), "/"),
		UpstreamTimeout: upstreamTimeout,
		DefaultFestival: sharedcfg.EnvOrDefault("DEFAULT_FESTIVAL", "Diwali"),

		TableRows:    tableRows,
		MapTileURL:   sharedcfg.EnvOrDefault("MAP_TILE_URL", DefaultTileURL),
		MapTileProbe: os.Getenv("MAP_TILE_PROBE") == "true",

		MapboxToken:     mapboxToken,
		MapboxEnabled:   mapboxEnabled,
		MapboxTimeout:   mapboxTimeout,
		MapboxCacheSize: parseMapboxCacheSize(),
		MapboxRegion:    sharedcfg.EnvOrDefault("MAPBOX_REGION", "Bengaluru, Karnataka"),

		KafkaEnabled: os.Getenv("KAFKA_ENABLED") == "true",
		KafkaBrokers: sharedcfg.ParseBrokers(sharedcfg.EnvOrDefault("KAFKA_BROKERS", "localhost:9092")),
		KafkaTopic:   sharedcfg.EnvOrDefault("KAFKA_TOPIC", "hotspot-events"),
	}

	if u, err := url.Parse(cfg.UpstreamBaseURL); err != nil || u.Scheme == "" || u.Host == "" {
		return nil, errors.New("invalid UPSTREAM_BASE_URL")
	}
	if cfg.DefaultFestival == "" {
		return nil, errors.New("DEFAULT_FESTIVAL is required")
	}
	if cfg.MapboxEnabled && cfg.MapboxToken == "" {
		return nil, errors.New("MAPBOX_ENABLED is true but MAPBOX_TOKEN is not set")
	}
	if cfg.KafkaEnabled && len(cfg.KafkaBrokers) == 0 {
		return nil, errors.New("KAFKA_ENABLED is true but KAFKA_BROKERS is empty")
	}
	if cfg.KafkaEnabled && cfg.KafkaTopic == "" {
		return nil, errors.New("KAFKA_TOPIC is required when KAFKA_ENABLED is true")
	}

	return cfg, nil
}

func parsePositiveDuration(key, def string) (time.Duration, error) {
	d, err := time.ParseDuration(sharedcfg.EnvOrDefault(key, def))
	if err != nil || d <= 0 {
		return 0, errors.New("invalid " + key)
	}
	return d, nil
}

func parseTableRows() (int, error) {
	s := sharedcfg.EnvOrDefault("TABLE_ROWS", "15")
	n, err := strconv.Atoi(s)
	if err != nil || n <= 0 || n > 500 {
		return 0, errors.New("TABLE_ROWS must be between 1 and 500")
	}
	return n, nil
}

func parseMapboxCacheSize() int {
	if s := os.Getenv("MAPBOX_CACHE_SIZE"); s != "" {
		if n, err := strconv.Atoi(s); err == nil && n > 0 {
			return n
		}
	}
	return 1000
}
