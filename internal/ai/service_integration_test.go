package ai

import (
	"context"
	"fmt"
	"net"
	"net/http"
	"strings"
	"testing"
	"time"

	"hybridhunter/internal/config"
	"hybridhunter/internal/errors"

	"google.golang.org/api/googleapi"
)

// Helper functions to create pointers for test values
func timePtr(d time.Duration) *time.Duration { return &d }
func intPtr(i int) *int                      { return &i }
func float32Ptr(f float32) *float32          { return &f }
func boolPtr(b bool) *bool                   { return &b }

var testLogger = errors.NewNopLogger()

func testOperationConfig() *config.OperationAIConfig {
	return &config.OperationAIConfig{
		Provider:         "gemini",
		Model:            "test-model",
		Timeout:          timePtr(30 * time.Second),
		APIKey:           "test-key",
		MaxRetries:       intPtr(1),
		Temperature:      float32Ptr(0.5),
		UseSystemPrompts: boolPtr(true),
		CircuitBreaker: config.CircuitBreakerConfig{
			Enabled:          true,
			MaxRequests:      5,
			Interval:         30 * time.Second,
			Timeout:          45 * time.Second,
			MinRequests:      2,
			FailureThreshold: 0.8,
		},
	}
}

func TestCircuitBreakerIntegrationWithServices(t *testing.T) {
	service, err := NewService(testOperationConfig(), "test-op", testLogger)
	if err != nil {
		t.Fatalf("Failed to create service: %v", err)
	}

	if service.config.CircuitBreaker.MaxRequests != 5 {
		t.Errorf("Expected circuit breaker max requests 5, got %d", service.config.CircuitBreaker.MaxRequests)
	}

	stats := service.Stats()

	aiOpsStats, ok := stats["ai_operations"].(map[string]any)
	if !ok {
		t.Fatal("AI operations stats should exist and be a map")
	}
	if name, _ := aiOpsStats["name"].(string); name != "AI-test-op" {
		t.Errorf("Expected circuit breaker name 'AI-test-op', got '%s'", name)
	}

	modelOpsStats, ok := stats["model_operations"].(map[string]any)
	if !ok {
		t.Fatal("Model operations stats should exist and be a map")
	}
	if name, _ := modelOpsStats["name"].(string); name != "Model-test-op" {
		t.Errorf("Expected model circuit breaker name 'Model-test-op', got '%s'", name)
	}

	if overallHealthy, _ := stats["overall_healthy"].(bool); !overallHealthy {
		t.Error("Circuit breaker should be healthy initially")
	}
}

func TestNewServiceRejectsUnknownProvider(t *testing.T) {
	cfg := testOperationConfig()
	cfg.Provider = "carrier-pigeon"

	_, err := NewService(cfg, "planner", testLogger)
	if err == nil {
		t.Fatal("Expected an error for an unsupported provider")
	}
	if !errors.IsType(err, errors.ErrorTypeConfig) {
		t.Errorf("Expected config error, got %v", err)
	}
}

func TestNewServiceRequiresAPIKey(t *testing.T) {
	cfg := testOperationConfig()
	cfg.APIKey = ""

	_, err := NewService(cfg, "scorer", testLogger)
	if err == nil {
		t.Fatal("Expected an error when the API key is missing")
	}
	if !strings.Contains(err.Error(), "API key") {
		t.Errorf("Expected error to mention the API key, got %v", err)
	}
}

func TestNewServicesUsesOperationFallbacks(t *testing.T) {
	cfg := &config.Config{
		AI: config.AIConfig{
			Provider:         "gemini",
			Model:            "global-model",
			Timeout:          60 * time.Second,
			APIKey:           "global-api-key",
			Temperature:      0.9,
			UseSystemPrompts: true,
			Scorer: config.OperationAIConfig{
				Model:       "scorer-model",
				Temperature: float32Ptr(0.1),
			},
		},
	}

	services, err := NewServices(cfg, testLogger)
	if err != nil {
		t.Fatalf("Failed to create services: %v", err)
	}

	if services.Planner.config.Model != "global-model" {
		t.Errorf("Expected planner to fall back to global model, got %s", services.Planner.config.Model)
	}
	if services.Scorer.config.Model != "scorer-model" {
		t.Errorf("Expected scorer model override, got %s", services.Scorer.config.Model)
	}
	if *services.Scorer.config.Temperature != 0.1 {
		t.Errorf("Expected scorer temperature 0.1, got %f", *services.Scorer.config.Temperature)
	}
	if *services.Planner.config.Timeout != 60*time.Second {
		t.Errorf("Expected planner timeout fallback 60s, got %v", *services.Planner.config.Timeout)
	}
}

type timeoutErr struct{}

func (timeoutErr) Error() string   { return "i/o timeout" }
func (timeoutErr) Timeout() bool   { return true }
func (timeoutErr) Temporary() bool { return true }

var _ net.Error = timeoutErr{}

func TestIsRetryableError(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		expected bool
	}{
		{"nil", nil, false},
		{"plain error", fmt.Errorf("bad request body"), false},
		{"network timeout", timeoutErr{}, true},
		{"wrapped network timeout", fmt.Errorf("call: %w", timeoutErr{}), true},
		{"rate limited", &googleapi.Error{Code: http.StatusTooManyRequests}, true},
		{"unavailable", &googleapi.Error{Code: http.StatusServiceUnavailable}, true},
		{"unauthorized", &googleapi.Error{Code: http.StatusUnauthorized}, false},
		{"canceled", context.Canceled, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := isRetryableError(tt.err); got != tt.expected {
				t.Errorf("isRetryableError(%v) = %v, want %v", tt.err, got, tt.expected)
			}
		})
	}
}

func TestRetryBackoff(t *testing.T) {
	if d := retryBackoff(1); d < time.Second || d > 1100*time.Millisecond {
		t.Errorf("Expected first backoff around 1s, got %v", d)
	}
	if d := retryBackoff(3); d < 4*time.Second || d > 4400*time.Millisecond {
		t.Errorf("Expected third backoff around 4s, got %v", d)
	}
	if d := retryBackoff(10); d != 30*time.Second {
		t.Errorf("Expected backoff capped at 30s, got %v", d)
	}
}
