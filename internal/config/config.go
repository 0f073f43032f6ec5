package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

type ServerConfig struct {
	Port string
}

type RESTConfig struct {
	BaseURL  string
	Timeout  time.Duration
	PageSize int
}

type LoggingConfig struct {
	Directory string
	Level     string
	Format    string
}

type SecurityConfig struct {
	JWTSecret    string
	JWTPublicKey string
}

type KafkaConfig struct {
	Enabled bool
	Brokers []string
	GroupID string
	// Topics maps an endpoint to the change-event topics that invalidate it.
	Topics         map[string][]string
	AllowedActions []string
}

type CacheConfig struct {
	TTL time.Duration
	// SessionIdle is how long a session's screens survive without a request.
	SessionIdle time.Duration
}

type ScreensConfig struct {
	File       string
	BulkPolicy string
}

type WebsocketConfig struct {
	SendBuffer int
}

type Config struct {
	Server    ServerConfig
	REST      RESTConfig
	Logging   LoggingConfig
	Security  SecurityConfig
	Kafka     KafkaConfig
	Cache     CacheConfig
	Screens   ScreensConfig
	Websocket WebsocketConfig
}

// Load reads the configuration from the environment. Call godotenv first to honour a local .env.
func Load() (*Config, error) {
	restTimeout, err := durationEnv("REST_TIMEOUT", 10*time.Second)
	if err != nil {
		return nil, err
	}
	cacheTTL, err := durationEnv("CACHE_TTL", 5*time.Minute)
	if err != nil {
		return nil, err
	}
	sessionIdle, err := durationEnv("SESSION_IDLE_TTL", 30*time.Minute)
	if err != nil {
		return nil, err
	}
	pageSize, err := intEnv("LISTING_PAGE_SIZE", 1000)
	if err != nil {
		return nil, err
	}
	sendBuffer, err := intEnv("WS_SEND_BUFFER", 32)
	if err != nil {
		return nil, err
	}
	topics, err := parseTopics(os.Getenv("KAFKA_TOPICS"))
	if err != nil {
		return nil, err
	}

	brokers := splitList(os.Getenv("KAFKA_BROKERS"))
	if len(brokers) == 0 {
		brokers = splitList(os.Getenv("KAFKA_BROKER"))
	}

	cfg := &Config{
		Server: ServerConfig{Port: stringEnv("PORT", "8080")},
		REST: RESTConfig{
			BaseURL:  stringEnv("REST_BASE_URL", "http://localhost:8000/api"),
			Timeout:  restTimeout,
			PageSize: pageSize,
		},
		Logging: LoggingConfig{
			Directory: stringEnv("LOG_DIR", "./logs"),
			Level:     stringEnv("LOG_LEVEL", "info"),
			Format:    stringEnv("LOG_FORMAT", "text"),
		},
		Security: SecurityConfig{
			JWTSecret:    strings.TrimSpace(os.Getenv("JWT_SECRET")),
			JWTPublicKey: strings.ReplaceAll(strings.TrimSpace(os.Getenv("JWT_PUBLIC_KEY")), `\n`, "\n"),
		},
		Kafka: KafkaConfig{
			Enabled:        len(brokers) > 0 && len(topics) > 0,
			Brokers:        brokers,
			GroupID:        stringEnv("KAFKA_GROUP_ID", "pharmadash"),
			Topics:         topics,
			AllowedActions: splitList(stringEnv("KAFKA_ALLOWED_ACTIONS", "created,updated,deleted,restored")),
		},
		Cache:     CacheConfig{TTL: cacheTTL, SessionIdle: sessionIdle},
		Screens:   ScreensConfig{File: stringEnv("SCREENS_FILE", "configs/screens.yaml"), BulkPolicy: stringEnv("BULK_POLICY", "ignore-unknown")},
		Websocket: WebsocketConfig{SendBuffer: sendBuffer},
	}
	if cfg.Security.JWTSecret == "" && cfg.Security.JWTPublicKey == "" {
		return nil, fmt.Errorf("JWT_SECRET or JWT_PUBLIC_KEY must be set")
	}
	return cfg, nil
}

// parseTopics reads "products=pharma.products,pharma.stock;branches=pharma.branches".
func parseTopics(raw string) (map[string][]string, error) {
	topics := make(map[string][]string)
	for _, group := range strings.Split(raw, ";") {
		group = strings.TrimSpace(group)
		if group == "" {
			continue
		}
		endpoint, list, ok := strings.Cut(group, "=")
		endpoint = strings.TrimSpace(endpoint)
		if !ok || endpoint == "" {
			return nil, fmt.Errorf("KAFKA_TOPICS: malformed group %q", group)
		}
		names := splitList(list)
		if len(names) == 0 {
			return nil, fmt.Errorf("KAFKA_TOPICS: no topics for %q", endpoint)
		}
		topics[endpoint] = append(topics[endpoint], names...)
	}
	return topics, nil
}

func splitList(raw string) []string {
	var values []string
	for _, part := range strings.Split(raw, ",") {
		if trimmed := strings.TrimSpace(part); trimmed != "" {
			values = append(values, trimmed)
		}
	}
	return values
}

func stringEnv(key, fallback string) string {
	if value := strings.TrimSpace(os.Getenv(key)); value != "" {
		return value
	}
	return fallback
}

func durationEnv(key string, fallback time.Duration) (time.Duration, error) {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return fallback, nil
	}
	value, err := time.ParseDuration(raw)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", key, err)
	}
	return value, nil
}

func intEnv(key string, fallback int) (int, error) {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return fallback, nil
	}
	value, err := strconv.Atoi(raw)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", key, err)
	}
	return value, nil
}
