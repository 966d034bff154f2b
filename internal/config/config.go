package config

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/couchcryptid/incident-feed-etl/internal/domain"
	sharedcfg "github.com/couchcryptid/storm-data-shared/config"
)

// FeedSource is one agency feed to poll: an http(s) URL or a local path.
type FeedSource struct {
	Name   string // unique label used in logs and metrics
	Agency domain.Agency
	URL    string
}

// Config holds all service settings, populated from environment variables.
type Config struct {
	Feeds          []FeedSource
	PollInterval   time.Duration
	FetchTimeout   time.Duration
	FeedTimezone   *time.Location
	ReferenceTable string

	KafkaEnabled   bool
	KafkaBrokers   []string
	KafkaSinkTopic string

	WebSocketEnabled bool
	WebSocketBuffer  int

	HTTPAddr        string
	LogLevel        string
	LogFormat       string
	ShutdownTimeout time.Duration
}

// Load reads configuration from environment variables, applying defaults where unset.
func Load() (*Config, error) {
	shutdownTimeout, err := sharedcfg.ParseShutdownTimeout()
	if err != nil {
		return nil, err
	}

	feeds, err := ParseFeedSources(sharedcfg.EnvOrDefault("FEED_SOURCES", ""))
	if err != nil {
		return nil, err
	}

	pollInterval, err := parsePositiveDuration("POLL_INTERVAL", "30s")
	if err != nil {
		return nil, err
	}
	fetchTimeout, err := parsePositiveDuration("FETCH_TIMEOUT", "10s")
	if err != nil {
		return nil, err
	}

	tzName := sharedcfg.EnvOrDefault("FEED_TIMEZONE", "Local")
	tz, err := time.LoadLocation(tzName)
	if err != nil {
		return nil, fmt.Errorf("invalid FEED_TIMEZONE %q: %w", tzName, err)
	}

	kafkaEnabled, err := parseBool("KAFKA_ENABLED", true)
	if err != nil {
		return nil, err
	}
	wsEnabled, err := parseBool("WEBSOCKET_ENABLED", true)
	if err != nil {
		return nil, err
	}
	wsBuffer, err := strconv.Atoi(sharedcfg.EnvOrDefault("WEBSOCKET_BUFFER", "64"))
	if err != nil || wsBuffer <= 0 {
		return nil, errors.New("invalid WEBSOCKET_BUFFER")
	}

	cfg := &Config{
		Feeds:          feeds,
		PollInterval:   pollInterval,
		FetchTimeout:   fetchTimeout,
		FeedTimezone:   tz,
		ReferenceTable: sharedcfg.EnvOrDefault("REFERENCE_TABLE", "reference.yaml"),

		KafkaEnabled:   kafkaEnabled,
		KafkaBrokers:   sharedcfg.ParseBrokers(sharedcfg.EnvOrDefault("KAFKA_BROKERS", "localhost:9092")),
		KafkaSinkTopic: sharedcfg.EnvOrDefault("KAFKA_SINK_TOPIC", "traffic-incidents"),

		WebSocketEnabled: wsEnabled,
		WebSocketBuffer:  wsBuffer,

		HTTPAddr:        sharedcfg.EnvOrDefault("HTTP_ADDR", ":8080"),
		LogLevel:        sharedcfg.EnvOrDefault("LOG_LEVEL", "info"),
		LogFormat:       sharedcfg.EnvOrDefault("LOG_FORMAT", "json"),
		ShutdownTimeout: shutdownTimeout,
	}

	if cfg.ReferenceTable == "" {
		return nil, errors.New("REFERENCE_TABLE is required")
	}
	if cfg.KafkaEnabled {
		if len(cfg.KafkaBrokers) == 0 {
			return nil, errors.New("KAFKA_BROKERS is required")
		}
		if cfg.KafkaSinkTopic == "" {
			return nil, errors.New("KAFKA_SINK_TOPIC is required")
		}
	}

	return cfg, nil
}

// ParseFeedSources parses "cars=https://host/feed.json,chp=/data/chp.json".
// The agency prefix may carry a label, "chp:stockton=...", to poll several
// feeds of the same agency.
func ParseFeedSources(s string) ([]FeedSource, error) {
	var feeds []FeedSource
	seen := make(map[string]bool)
	for _, entry := range strings.Split(s, ",") {
		entry = strings.TrimSpace(entry)
		if entry == "" {
			continue
		}
		key, url, ok := strings.Cut(entry, "=")
		url = strings.TrimSpace(url)
		if !ok || url == "" {
			return nil, fmt.Errorf("invalid FEED_SOURCES entry %q: want agency=url", entry)
		}
		agencyName, label, _ := strings.Cut(strings.TrimSpace(key), ":")
		agency, err := domain.ParseAgency(agencyName)
		if err != nil {
			return nil, fmt.Errorf("invalid FEED_SOURCES entry %q: %w", entry, err)
		}
		name := string(agency)
		if label = strings.TrimSpace(label); label != "" {
			name += ":" + label
		}
		if seen[name] {
			return nil, fmt.Errorf("invalid FEED_SOURCES: duplicate feed %q", name)
		}
		seen[name] = true
		feeds = append(feeds, FeedSource{Name: name, Agency: agency, URL: url})
	}
	if len(feeds) == 0 {
		return nil, errors.New("FEED_SOURCES is required")
	}
	return feeds, nil
}

func parsePositiveDuration(key, def string) (time.Duration, error) {
	d, err := time.ParseDuration(sharedcfg.EnvOrDefault(key, def))
	if err != nil || d <= 0 {
		return 0, fmt.Errorf("invalid %s", key)
	}
	return d, nil
}

func parseBool(key string, def bool) (bool, error) {
	b, err := strconv.ParseBool(sharedcfg.EnvOrDefault(key, strconv.FormatBool(def)))
	if err != nil {
		return false, fmt.Errorf("invalid %s", key)
	}
	return b, nil
}
