package infra

import (
	"testing"
	"time"
)

func TestLoadConfigDefaults(t *testing.T) {
	t.Setenv("DATABASE_URL", "postgres://example")
	t.Setenv("BOT_TOKEN", "123:abc")
	t.Setenv("PORT", "")
	t.Setenv("PAGE_SIZE", "")
	t.Setenv("KAFKA_BROKERS", "")
	t.Setenv("RECONCILE_CRON", "")

	cfg, err := LoadConfig()
	if err != nil {
		t.Fatalf("LoadConfig returned error: %v", err)
	}
	if cfg.Port != "8080" {
		t.Fatalf("Port mismatch: got %q want %q", cfg.Port, "8080")
	}
	if cfg.PageSize != 10 {
		t.Fatalf("PageSize mismatch: got %d want 10", cfg.PageSize)
	}
	if cfg.MaxPendingPledges != 5 {
		t.Fatalf("MaxPendingPledges mismatch: got %d want 5", cfg.MaxPendingPledges)
	}
	if cfg.PollTimeout != 30*time.Second {
		t.Fatalf("PollTimeout mismatch: got %v", cfg.PollTimeout)
	}
	if len(cfg.KafkaBrokers) != 0 {
		t.Fatalf("KafkaBrokers should default empty, got %#v", cfg.KafkaBrokers)
	}
	if cfg.KafkaTopic != "pledge-events" {
		t.Fatalf("KafkaTopic mismatch: got %q", cfg.KafkaTopic)
	}
}

func TestLoadConfigRequiresDatabaseURL(t *testing.T) {
	t.Setenv("DATABASE_URL", "")
	t.Setenv("BOT_TOKEN", "123:abc")

	if _, err := LoadConfig(); err == nil {
		t.Fatal("expected error when DATABASE_URL is missing")
	}
}

func TestLoadConfigRequiresBotToken(t *testing.T) {
	t.Setenv("DATABASE_URL", "postgres://example")
	t.Setenv("BOT_TOKEN", "")

	if _, err := LoadConfig(); err == nil {
		t.Fatal("expected error when BOT_TOKEN is missing")
	}
}

func TestLoadConfigParsesBrokerList(t *testing.T) {
	t.Setenv("DATABASE_URL", "postgres://example")
	t.Setenv("BOT_TOKEN", "123:abc")
	t.Setenv("KAFKA_BROKERS", "kafka-1:9092, kafka-2:9092 ,")

	cfg, err := LoadConfig()
	if err != nil {
		t.Fatalf("LoadConfig returned error: %v", err)
	}
	expected := []string{"kafka-1:9092", "kafka-2:9092"}
	if len(cfg.KafkaBrokers) != len(expected) {
		t.Fatalf("KafkaBrokers mismatch: got %#v want %#v", cfg.KafkaBrokers, expected)
	}
	for i, b := range expected {
		if cfg.KafkaBrokers[i] != b {
			t.Fatalf("KafkaBrokers[%d] = %q, want %q", i, cfg.KafkaBrokers[i], b)
		}
	}
}

func TestLoadConfigOverrides(t *testing.T) {
	t.Setenv("DATABASE_URL", "postgres://example")
	t.Setenv("BOT_TOKEN", "123:abc")
	t.Setenv("PAGE_SIZE", "25")
	t.Setenv("MAX_PENDING_PLEDGES", "3")
	t.Setenv("POLL_TIMEOUT_SECONDS", "10")

	cfg, err := LoadConfig()
	if err != nil {
		t.Fatalf("LoadConfig returned error: %v", err)
	}
	if cfg.PageSize != 25 {
		t.Fatalf("PageSize mismatch: got %d want 25", cfg.PageSize)
	}
	if cfg.MaxPendingPledges != 3 {
		t.Fatalf("MaxPendingPledges mismatch: got %d want 3", cfg.MaxPendingPledges)
	}
	if cfg.PollTimeout != 10*time.Second {
		t.Fatalf("PollTimeout mismatch: got %v", cfg.PollTimeout)
	}
}
