package stt

import (
	"context"
	"testing"

	"github.com/lexiqai/voice-companion/internal/config"
)

func testConfig() *config.Config {
	return &config.Config{
		DeepgramAPIKey:             "test-key",
		DeepgramModel:              "nova-2",
		DeepgramLanguage:           "en",
		CircuitBreakerMaxFailures:  5,
		CircuitBreakerResetTimeout: 30,
	}
}

func TestNewDeepgramClient(t *testing.T) {
	client := NewDeepgramClient(testConfig())
	if client == nil {
		t.Fatal("Expected client, got nil")
	}
	if client.client == nil {
		t.Error("Expected REST client to be initialized")
	}
}

func TestHealthCheck(t *testing.T) {
	client := NewDeepgramClient(testConfig())

	ok, err := client.HealthCheck(context.Background())
	if err != nil {
		t.Errorf("Expected no error, got %v", err)
	}
	if !ok {
		t.Error("Expected healthy client with configured key")
	}
}

func TestHealthCheck_MissingKey(t *testing.T) {
	cfg := testConfig()
	cfg.DeepgramAPIKey = ""
	client := NewDeepgramClient(cfg)

	ok, err := client.HealthCheck(context.Background())
	if err == nil {
		t.Error("Expected error for missing API key")
	}
	if ok {
		t.Error("Expected unhealthy client without API key")
	}
}
