package ai

import (
	"context"
	"fmt"

	"hybridhunter/internal/config"
	"hybridhunter/internal/errors"
)

// Service handles one model-backed operation
type Service struct {
	Provider Provider
	config   *config.OperationAIConfig
	logger   *errors.Logger
}

// NewService creates a new AI service instance with configuration for a specific operation
func NewService(cfg *config.OperationAIConfig, operationType string, logger *errors.Logger) (*Service, error) {
	var provider Provider
	var err error

	logger.Debug("Initializing AI service",
		"provider", cfg.Provider,
		"operation_type", operationType,
		"model", cfg.Model,
		"temperature", *cfg.Temperature,
		"timeout", *cfg.Timeout,
		"max_retries", *cfg.MaxRetries,
		"use_system_prompts", *cfg.UseSystemPrompts)

	switch cfg.Provider {
	case "gemini":
		provider, err = NewGeminiProvider(cfg, operationType, logger)
	default:
		return nil, errors.NewConfigError(errors.ErrCodeInvalidConfig,
			fmt.Sprintf("Unsupported AI provider: %s", cfg.Provider), nil)
	}

	if err != nil {
		return nil, err
	}

	return &Service{
		Provider: provider,
		config:   cfg,
		logger:   logger,
	}, nil
}

// Services groups the planner and scorer model clients
type Services struct {
	Planner *Service
	Scorer  *Service
}

// NewServices creates the planner and scorer services from the application config
func NewServices(cfg *config.Config, logger *errors.Logger) (*Services, error) {
	plannerCfg := cfg.GetPlannerConfig()
	planner, err := NewService(&plannerCfg, "planner", logger)
	if err != nil {
		return nil, err
	}

	scorerCfg := cfg.GetScorerConfig()
	scorer, err := NewService(&scorerCfg, "scorer", logger)
	if err != nil {
		return nil, err
	}

	return &Services{Planner: planner, Scorer: scorer}, nil
}

// GetModelInfo returns information about the AI model for health checks
func (s *Service) GetModelInfo(ctx context.Context) *ModelInfo {
	return s.Provider.GetModelInfo(ctx)
}

// Stats returns circuit breaker statistics when the provider exposes them
func (s *Service) Stats() map[string]any {
	if p, ok := s.Provider.(interface{ GetCircuitBreakerStats() map[string]any }); ok {
		return p.GetCircuitBreakerStats()
	}
	return map[string]any{}
}
