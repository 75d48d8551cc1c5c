package config

import (
	"strings"
	"testing"
)

func baseConfig() *Config {
	return &Config{
		Telegram: TelegramConfig{Token: "123:abc"},
	}
}

func TestNormalizeDefaultsToLongpoll(t *testing.T) {
	cfg := baseConfig()
	if err := Normalize(cfg); err != nil {
		t.Fatalf("Normalize: %v", err)
	}
	if cfg.Telegram.RunMode != RunModeLongpoll {
		t.Fatalf("run_mode = %q", cfg.Telegram.RunMode)
	}
}

func TestNormalizeAcceptsPollingAlias(t *testing.T) {
	cfg := baseConfig()
	cfg.Telegram.RunMode = "Polling"
	if err := Normalize(cfg); err != nil {
		t.Fatalf("Normalize: %v", err)
	}
	if cfg.Telegram.RunMode != RunModeLongpoll {
		t.Fatalf("run_mode = %q", cfg.Telegram.RunMode)
	}
}

func TestNormalizeRequiresToken(t *testing.T) {
	cfg := &Config{}
	if err := Normalize(cfg); err == nil || !strings.Contains(err.Error(), "token") {
		t.Fatalf("missing token accepted: %v", err)
	}
}

func TestNormalizeWebhookRequiresEndpoint(t *testing.T) {
	cfg := baseConfig()
	cfg.Telegram.RunMode = RunModeWebhook
	if err := Normalize(cfg); err == nil {
		t.Fatal("webhook without url accepted")
	}

	cfg = baseConfig()
	cfg.Telegram.RunMode = RunModeWebhook
	cfg.Webhook = WebhookConfig{URL: "https://example.org/hook", Listen: "0.0.0.0", Port: 8443}
	if err := Normalize(cfg); err != nil {
		t.Fatalf("valid webhook rejected: %v", err)
	}
}

func TestNormalizeRejectsUnknownRunMode(t *testing.T) {
	cfg := baseConfig()
	cfg.Telegram.RunMode = "carrier-pigeon"
	if err := Normalize(cfg); err == nil {
		t.Fatal("unknown run_mode accepted")
	}
}

func TestNormalizeRateLimitExclusions(t *testing.T) {
	cfg := baseConfig()
	cfg.RateLimit.ExcludeUpdates = []string{" Callback ", "MESSAGE"}
	if err := Normalize(cfg); err != nil {
		t.Fatalf("Normalize: %v", err)
	}
	if cfg.RateLimit.ExcludeUpdates[0] != UpdateCallback || cfg.RateLimit.ExcludeUpdates[1] != UpdateMessage {
		t.Fatalf("exclusions not normalized: %v", cfg.RateLimit.ExcludeUpdates)
	}

	cfg = baseConfig()
	cfg.RateLimit.ExcludeUpdates = []string{"inline_query"}
	if err := Normalize(cfg); err == nil {
		t.Fatal("unknown exclusion accepted")
	}
}
