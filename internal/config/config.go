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

// defaultAPIPath is the relative storm API path served behind the origin.
const defaultAPIPath = "/api"

// Config holds all service settings, populated from environment variables.
type Config struct {
	// StormAPIURL is the resolved base URL; requests go to {StormAPIURL}/storms/{YYYY}/{MM}.
	StormAPIURL     string
	StormAPITimeout time.Duration
	StormCacheSize  int

	HTTPAddr        string
	LogLevel        string
	LogFormat       string
	ShutdownTimeout time.Duration

	// Scene publication.
	KafkaEnabled    bool
	KafkaBrokers    []string
	KafkaSceneTopic string
	RefreshInterval time.Duration
}

// Load reads configuration from environment variables, applying defaults where unset.
func Load() (*Config, error) {
	shutdownTimeout, err := sharedcfg.ParseShutdownTimeout()
	if err != nil {
		return nil, err
	}

	apiTimeout, err := time.ParseDuration(sharedcfg.EnvOrDefault("STORM_API_TIMEOUT", "10s"))
	if err != nil || apiTimeout <= 0 {
		return nil, errors.New("invalid STORM_API_TIMEOUT")
	}

	refreshInterval, err := time.ParseDuration(sharedcfg.EnvOrDefault("REFRESH_INTERVAL", "15m"))
	if err != nil || refreshInterval <= 0 {
		return nil, errors.New("invalid REFRESH_INTERVAL")
	}

	cacheSize, err := parseCacheSize()
	if err != nil {
		return nil, err
	}

	apiURL, err := resolveAPIURL()
	if err != nil {
		return nil, err
	}

	var brokers []string
	if raw := os.Getenv("KAFKA_BROKERS"); raw != "" {
		brokers = sharedcfg.ParseBrokers(raw)
	}
	kafkaEnabled := len(brokers) > 0
	if v := os.Getenv("KAFKA_ENABLED"); v != "" {
		kafkaEnabled = v == "true"
	}

	cfg := &Config{
		StormAPIURL:     apiURL,
		StormAPITimeout: apiTimeout,
		StormCacheSize:  cacheSize,
		HTTPAddr:        sharedcfg.EnvOrDefault("HTTP_ADDR", ":8080"),
		LogLevel:        sharedcfg.EnvOrDefault("LOG_LEVEL", "info"),
		LogFormat:       sharedcfg.EnvOrDefault("LOG_FORMAT", "json"),
		ShutdownTimeout: shutdownTimeout,
		KafkaEnabled:    kafkaEnabled,
		KafkaBrokers:    brokers,
		KafkaSceneTopic: sharedcfg.EnvOrDefault("KAFKA_SCENE_TOPIC", "storm-track-scenes"),
		RefreshInterval: refreshInterval,
	}

	if cfg.KafkaEnabled && len(cfg.KafkaBrokers) == 0 {
		return nil, errors.New("KAFKA_ENABLED is true but KAFKA_BROKERS is not set")
	}
	if cfg.KafkaEnabled && cfg.KafkaSceneTopic == "" {
		return nil, errors.New("KAFKA_SCENE_TOPIC is required when KAFKA_ENABLED is true")
	}

	return cfg, nil
}

// resolveAPIURL prefers STORM_API_URL and otherwise joins STORM_API_ORIGIN with /api.
func resolveAPIURL() (string, error) {
	if raw := strings.TrimSpace(os.Getenv("STORM_API_URL")); raw != "" {
		if !isHTTPURL(raw) {
			return "", errors.New("invalid STORM_API_URL: must be an absolute http(s) URL")
		}
		return strings.TrimRight(raw, "/"), nil
	}

	origin := strings.TrimRight(sharedcfg.EnvOrDefault("STORM_API_ORIGIN", "http://localhost:8000"), "/")
	if !isHTTPURL(origin) {
		return "", errors.New("invalid STORM_API_ORIGIN: must be an absolute http(s) URL")
	}
	return origin + defaultAPIPath, nil
}

func isHTTPURL(raw string) bool {
	u, err := url.Parse(raw)
	if err != nil {
		return false
	}
	return (u.Scheme == "http" || u.Scheme == "https") && u.Host != ""
}

func parseCacheSize() (int, error) {
	s := os.Getenv("STORM_CACHE_SIZE")
	if s == "" {
		return 64, nil
	}
	n, err := strconv.Atoi(s)
	if err != nil || n < 0 {
		return 0, errors.New("invalid STORM_CACHE_SIZE: must be a non-negative integer")
	}
	return n, nil
}
