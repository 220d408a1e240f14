package server

import (
	"context"
	"io"
	"time"

	"hybridhunter/internal/ai"
	"hybridhunter/internal/config"
	appErrors "hybridhunter/internal/errors"
	"hybridhunter/internal/observability"
	"hybridhunter/internal/pipeline"
	"hybridhunter/internal/types"
)

// SearchRequest represents the JSON body for the search endpoint
// PlanRequest represents the JSON body for the plan endpoint
// ErrorResponse represents an error response
type SearchRequest struct {
	Intent     string `json:"intent"`
	ResumeText string `json:"resume_text"`
	Email      string `json:"email"`
	MinScore   *int   `json:"min_score,omitempty"`
	MaxResults *int   `json:"max_results,omitempty"`
}

type PlanRequest struct {
	Intent     string `json:"intent"`
	ResumeText string `json:"resume_text"`
}

type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message,omitempty"`
}

// Pipeline is the search surface the handlers drive
type Pipeline interface {
	Run(ctx context.Context, req pipeline.Request) types.SearchReport
	Plan(ctx context.Context, intent, resumeText string) (types.SearchPlan, error)
}

// Extractor turns an uploaded resume into text
type Extractor interface {
	Document(name string, r io.ReaderAt, size int64) (string, error)
}

// Server holds configuration for the HTTP server
type Server struct {
	Host    string
	Port    string
	Version string

	// Full application configuration
	AppConfig *config.Config

	Pipeline  Pipeline
	Extractor Extractor
	Stats     func() map[string]any
	Models    func(ctx context.Context) map[string]*ai.ModelInfo

	// Timeout configurations
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
	IdleTimeout  time.Duration

	// Request size limit
	MaxRequestSize int64

	// Rate limiting
	RateLimit   *config.RateLimitConfig
	RateLimiter *RateLimiter

	Observability *observability.ObservabilityManager
	Logger        *appErrors.Logger
}

// ServerConfig holds configuration for creating a Server instance
type ServerConfig struct {
	Host           string
	Port           string
	Version        string
	ReadTimeout    time.Duration
	WriteTimeout   time.Duration
	IdleTimeout    time.Duration
	MaxRequestSize int64
	RateLimit      *config.RateLimitConfig

	Pipeline  Pipeline
	Extractor Extractor
	Stats     func() map[string]any
	Models    func(ctx context.Context) map[string]*ai.ModelInfo

	// Observability is created by Start when nil
	Observability *observability.ObservabilityManager
}

// ConfigFromApp fills a ServerConfig from the server section of cfg
func ConfigFromApp(cfg *config.Config, version string) ServerConfig {
	return ServerConfig{
		Host:           cfg.Server.Host,
		Port:           cfg.Server.Port,
		Version:        version,
		ReadTimeout:    cfg.Server.ReadTimeout,
		WriteTimeout:   cfg.Server.WriteTimeout,
		IdleTimeout:    cfg.Server.IdleTimeout,
		MaxRequestSize: cfg.Server.MaxRequestSize,
		RateLimit:      &cfg.Server.RateLimit,
	}
}

// NewServer creates a new Server instance from a ServerConfig struct
func NewServer(appCfg *config.Config, cfg ServerConfig, logger *appErrors.Logger) *Server {
	if logger == nil {
		logger = appErrors.NewNopLogger()
	}

	var rateLimiter *RateLimiter
	if cfg.RateLimit != nil && cfg.RateLimit.Enabled {
		rateLimiter = NewRateLimiter(
			cfg.RateLimit.RequestsPerMin,
			cfg.RateLimit.Window,
			cfg.RateLimit.BurstCapacity,
			logger,
		)
	}

	return &Server{
		Host:           cfg.Host,
		Port:           cfg.Port,
		Version:        cfg.Version,
		AppConfig:      appCfg,
		Pipeline:       cfg.Pipeline,
		Extractor:      cfg.Extractor,
		Stats:          cfg.Stats,
		Models:         cfg.Models,
		ReadTimeout:    cfg.ReadTimeout,
		WriteTimeout:   cfg.WriteTimeout,
		IdleTimeout:    cfg.IdleTimeout,
		MaxRequestSize: cfg.MaxRequestSize,
		RateLimit:      cfg.RateLimit,
		RateLimiter:    rateLimiter,
		Observability:  cfg.Observability,
		Logger:         logger,
	}
}
