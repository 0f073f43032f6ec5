package config

import (
	"testing"
	"time"
)

func TestLoad_Defaults(t *testing.T) {
	t.Setenv("JWT_SECRET", "secret")
	for _, key := range []string{"PORT", "REST_BASE_URL", "REST_TIMEOUT", "CACHE_TTL", "SESSION_IDLE_TTL", "LISTING_PAGE_SIZE", "KAFKA_BROKERS", "KAFKA_BROKER", "KAFKA_TOPICS", "SCREENS_FILE", "BULK_POLICY"} {
		t.Setenv(key, "")
	}

	cfg, err := Load()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.Server.Port != "8080" {
		t.Fatalf("expected port 8080, got %s", cfg.Server.Port)
	}
	if cfg.REST.Timeout != 10*time.Second || cfg.REST.PageSize != 1000 {
		t.Fatalf("unexpected rest config %+v", cfg.REST)
	}
	if cfg.Cache.TTL != 5*time.Minute {
		t.Fatalf("expected 5m cache ttl, got %v", cfg.Cache.TTL)
	}
	if cfg.Cache.SessionIdle != 30*time.Minute {
		t.Fatalf("expected 30m session idle ttl, got %v", cfg.Cache.SessionIdle)
	}
	if cfg.Kafka.Enabled {
		t.Fatal("expected kafka disabled without brokers")
	}
	if cfg.Screens.File != "configs/screens.yaml" || cfg.Screens.BulkPolicy != "ignore-unknown" {
		t.Fatalf("unexpected screens config %+v", cfg.Screens)
	}
}

func TestLoad_KafkaTopics(t *testing.T) {
	t.Setenv("JWT_SECRET", "secret")
	t.Setenv("KAFKA_BROKERS", "kafka-1:9092, kafka-2:9092")
	t.Setenv("KAFKA_TOPICS", "products=pharma.products,pharma.stock; branches=pharma.branches")
	t.Setenv("CACHE_TTL", "30s")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !cfg.Kafka.Enabled || len(cfg.Kafka.Brokers) != 2 {
		t.Fatalf("expected kafka enabled with 2 brokers, got %+v", cfg.Kafka)
	}
	if got := cfg.Kafka.Topics["products"]; len(got) != 2 || got[1] != "pharma.stock" {
		t.Fatalf("unexpected products topics %v", got)
	}
	if got := cfg.Kafka.Topics["branches"]; len(got) != 1 {
		t.Fatalf("unexpected branches topics %v", got)
	}
	if cfg.Cache.TTL != 30*time.Second {
		t.Fatalf("expected 30s ttl, got %v", cfg.Cache.TTL)
	}
}

func TestLoad_Errors(t *testing.T) {
	t.Setenv("JWT_SECRET", "")
	t.Setenv("JWT_PUBLIC_KEY", "")
	if _, err := Load(); err == nil {
		t.Fatal("expected missing jwt key to fail")
	}

	t.Setenv("JWT_SECRET", "secret")
	t.Setenv("CACHE_TTL", "soon")
	if _, err := Load(); err == nil {
		t.Fatal("expected invalid CACHE_TTL to fail")
	}

	t.Setenv("CACHE_TTL", "")
	t.Setenv("KAFKA_TOPICS", "=orphan")
	if _, err := Load(); err == nil {
		t.Fatal("expected malformed KAFKA_TOPICS to fail")
	}
}
