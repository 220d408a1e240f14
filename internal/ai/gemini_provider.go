package ai

import (
	"context"
	"crypto/rand"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"math/big"
	"net"
	"net/http"
	"strings"
	"time"
	"unicode"

	"hybridhunter/internal/config"
	hunterErrors "hybridhunter/internal/errors"
	"hybridhunter/internal/resilience"
	"hybridhunter/internal/types"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"google.golang.org/api/googleapi"
	"google.golang.org/genai"
)

// modelCheckTimeout bounds the model availability lookup behind the health check
const modelCheckTimeout = 10 * time.Second

// GeminiProvider implements Provider for Google Gemini
type GeminiProvider struct {
	client       *genai.Client
	config       *config.OperationAIConfig
	breaker      *resilience.Breaker[*genai.GenerateContentResponse]
	modelBreaker *resilience.Breaker[*genai.Model]
	logger       *hunterErrors.Logger
}

// Ensure GeminiProvider implements Provider
var _ Provider = (*GeminiProvider)(nil)

// NewGeminiProvider creates a new Gemini provider instance for a specific operation
func NewGeminiProvider(cfg *config.OperationAIConfig, operationType string, logger *hunterErrors.Logger) (*GeminiProvider, error) {
	if cfg.APIKey == "" {
		return nil, hunterErrors.NewConfigError(hunterErrors.ErrCodeMissingAPIKey,
			"Gemini API key is not configured for "+operationType, nil)
	}

	client, err := genai.NewClient(context.Background(), &genai.ClientConfig{
		APIKey:      cfg.APIKey,
		Backend:     genai.BackendGeminiAPI,
		HTTPClient:  &http.Client{Timeout: *cfg.Timeout},
		HTTPOptions: genai.HTTPOptions{BaseURL: cfg.BaseURL},
	})
	if err != nil {
		return nil, hunterErrors.NewAIError(hunterErrors.ErrCodeAIServiceFailed,
			"Failed to create Gemini client", err)
	}

	return &GeminiProvider{
		client:       client,
		config:       cfg,
		breaker:      resilience.NewBreaker[*genai.GenerateContentResponse]("AI-"+operationType, cfg.CircuitBreaker, logger),
		modelBreaker: resilience.NewBreaker[*genai.Model]("Model-"+operationType, cfg.CircuitBreaker, logger),
		logger:       logger,
	}, nil
}

// ModelInfo represents information about the AI model
type ModelInfo struct {
	Name        string `json:"name"`
	DisplayName string `json:"displayName,omitempty"`
	Version     string `json:"version,omitempty"`
	Available   bool   `json:"available"`
	Error       string `json:"error,omitempty"`
}

// GetModelInfo checks the readiness and availability of the configured model
func (g *GeminiProvider) GetModelInfo(ctx context.Context) *ModelInfo {
	modelInfo := &ModelInfo{
		Name:      g.config.Model,
		Available: false,
	}

	checkCtx, cancel := context.WithTimeout(ctx, modelCheckTimeout)
	defer cancel()

	model, err := g.modelBreaker.Execute(func() (*genai.Model, error) {
		return g.client.Models.Get(checkCtx, g.config.Model, &genai.GetModelConfig{})
	})
	if err != nil {
		modelInfo.Error = fmt.Sprintf("Failed to get model info: %v", err)
		g.logger.Warn("Model availability check failed",
			"model", g.config.Model,
			"provider", g.config.Provider,
			"error", err.Error())
		return modelInfo
	}

	modelInfo.Available = true
	modelInfo.DisplayName = model.DisplayName
	modelInfo.Version = model.Version

	g.logger.Debug("Model availability check successful",
		"model", g.config.Model,
		"display_name", modelInfo.DisplayName,
		"version", modelInfo.Version)

	return modelInfo
}

// retryBackoff returns the wait before retry attempt n (n >= 1): exponential
// from one second, plus up to 10% jitter, capped at 30 seconds.
func retryBackoff(attempt int) time.Duration {
	baseDelay := time.Duration(math.Pow(2, float64(attempt-1))) * time.Second
	var jitter time.Duration
	if jitterMax := int64(float64(baseDelay) * 0.1); jitterMax > 0 {
		jitterBig, _ := rand.Int(rand.Reader, big.NewInt(jitterMax))
		jitter = time.Duration(jitterBig.Int64())
	}
	return min(baseDelay+jitter, 30*time.Second)
}

// executeWithRetry executes an AI operation with retry logic and exponential backoff
func (g *GeminiProvider) executeWithRetry(ctx context.Context, operation string, fn func() (*genai.GenerateContentResponse, error)) (*genai.GenerateContentResponse, error) {
	var lastErr error
	maxRetries := *g.config.MaxRetries

	for attempt := 0; attempt <= maxRetries; attempt++ {
		if attempt > 0 {
			g.logger.Warn("Retrying AI operation",
				"operation", operation,
				"attempt", attempt,
				"max_retries", maxRetries,
				"error", lastErr.Error())

			select {
			case <-time.After(retryBackoff(attempt)):
			case <-ctx.Done():
				return nil, ctx.Err()
			}
		}

		result, err := fn()
		if err == nil {
			if attempt > 0 {
				g.logger.Info("AI operation succeeded after retry",
					"operation", operation,
					"total_attempts", attempt+1)
			}
			return result, nil
		}

		lastErr = err

		if !isRetryableError(err) {
			g.logger.Debug("Error is not retryable, stopping retry attempts",
				"operation", operation,
				"error", err.Error())
			break
		}
	}

	g.logger.LogError(lastErr, "AI operation failed after all retry attempts",
		"operation", operation,
		"total_attempts", maxRetries+1)

	return nil, fmt.Errorf("operation '%s' failed after %d retries: %w", operation, maxRetries, lastErr)
}

// isRetryableError determines if an error should trigger a retry
func isRetryableError(err error) bool {
	if err == nil {
		return false
	}

	if errors.Is(err, context.Canceled) {
		return false
	}

	// Timeouts and connection failures
	var netErr net.Error
	if errors.As(err, &netErr) {
		return true
	}

	var apiErr *googleapi.Error
	if errors.As(err, &apiErr) {
		switch apiErr.Code {
		case http.StatusTooManyRequests,
			http.StatusInternalServerError,
			http.StatusBadGateway,
			http.StatusServiceUnavailable,
			http.StatusGatewayTimeout:
			return true
		}
	}

	return false
}

// stripFences removes a markdown code fence the model sometimes wraps JSON in
func stripFences(s string) string {
	s = strings.TrimSpace(s)
	s = strings.TrimPrefix(s, "```json")
	s = strings.TrimPrefix(s, "```")
	s = strings.TrimSuffix(s, "```")
	return strings.TrimSpace(s)
}

// sanitizeText drops invalid UTF-8 and control characters that resume
// extraction tends to leave behind. Newlines and tabs are kept.
func sanitizeText(s string) string {
	s = strings.ToValidUTF8(s, "")
	return strings.Map(func(r rune) rune {
		if r == '\n' || r == '\t' || !unicode.IsControl(r) {
			return r
		}
		return -1
	}, s)
}

// decodeResponse unmarshals a model response into out after checking that
// every field the schema marks required is present and not null.
func decodeResponse(text string, schema *genai.Schema, out any) error {
	var fields map[string]json.RawMessage
	if err := json.Unmarshal([]byte(text), &fields); err != nil {
		return err
	}
	if schema != nil {
		var missing []string
		for _, name := range schema.Required {
			raw, ok := fields[name]
			if !ok || string(raw) == "null" {
				missing = append(missing, name)
			}
		}
		if len(missing) > 0 {
			return fmt.Errorf("response is missing required fields: %s", strings.Join(missing, ", "))
		}
	}
	return json.Unmarshal([]byte(text), out)
}

// executeAIOperation is a generic helper to run AI operations with common tracing, circuit breaker, and parsing logic.
func executeAIOperation[Out any](
	g *GeminiProvider,
	ctx context.Context,
	operationName string,
	userPrompt string,
	systemPrompt string,
	genaiConfig *genai.GenerateContentConfig,
	spanAttributes ...attribute.KeyValue,
) (Out, *TokenUsage, error) {
	var output Out
	tracer := otel.Tracer("hybridhunter.ai.gemini")
	ctx, span := tracer.Start(ctx, "gemini."+operationName)
	defer span.End()

	span.SetAttributes(
		attribute.String("ai.provider", "gemini"),
		attribute.String("ai.model", g.config.Model),
		attribute.Float64("ai.temperature", float64(*g.config.Temperature)),
	)
	span.SetAttributes(spanAttributes...)

	userPrompt = sanitizeText(userPrompt)
	contents := genai.Text(userPrompt)
	if *g.config.UseSystemPrompts && systemPrompt != "" {
		genaiConfig.SystemInstruction = genai.NewContentFromText(systemPrompt, genai.RoleUser)
	} else if systemPrompt != "" {
		contents = genai.Text(systemPrompt + "\n\n" + userPrompt)
	}

	result, err := g.breaker.Execute(func() (*genai.GenerateContentResponse, error) {
		return g.executeWithRetry(ctx, operationName, func() (*genai.GenerateContentResponse, error) {
			return g.client.Models.GenerateContent(ctx, g.config.Model, contents, genaiConfig)
		})
	})

	if err != nil {
		span.RecordError(err)
		span.SetAttributes(attribute.Bool("success", false))
		return output, nil, hunterErrors.NewAIError(hunterErrors.ErrCodeAIServiceFailed, "Failed to generate content for "+operationName, err)
	}

	if err := decodeResponse(stripFences(result.Text()), genaiConfig.ResponseSchema, &output); err != nil {
		span.RecordError(err)
		span.SetAttributes(attribute.Bool("success", false))
		return output, nil, hunterErrors.NewAIError(hunterErrors.ErrCodeAIResponseParse, "Failed to parse AI response for "+operationName, err)
	}

	tokenUsage := extractTokenUsage(result)
	if tokenUsage != nil {
		span.SetAttributes(
			attribute.Int64("ai.tokens.input", tokenUsage.InputTokens),
			attribute.Int64("ai.tokens.output", tokenUsage.OutputTokens),
			attribute.Int64("ai.tokens.total", tokenUsage.TotalTokens),
		)
	}

	span.SetAttributes(attribute.Bool("success", true))
	return output, tokenUsage, nil
}

// PlanSearch implements Provider for search planning
func (g *GeminiProvider) PlanSearch(ctx context.Context, input types.PlanSearchInput) (types.PlanSearchOutput, *TokenUsage, error) {
	systemPrompt := resolvePrompt(g.config.Prompts.System, DefaultSystemPrompts.PlanSearch)
	userPrompt := fmt.Sprintf(resolvePrompt(g.config.Prompts.User, DefaultUserPrompts.PlanSearch),
		input.Intent, input.ResumeText)

	output, tokenUsage, err := executeAIOperation[types.PlanSearchOutput](
		g,
		ctx,
		"plan_search",
		userPrompt,
		systemPrompt,
		g.buildPlanSchema(),
		attribute.Int("input.intent_length", len(input.Intent)),
		attribute.Int("input.resume_length", len(input.ResumeText)),
	)
	if err != nil {
		return types.PlanSearchOutput{}, nil, err
	}

	if span := trace.SpanFromContext(ctx); span.IsRecording() {
		span.SetAttributes(
			attribute.Int("output.specific_keywords", len(output.SpecificKeywords)),
			attribute.Int("output.countries", len(output.Countries)),
		)
	}

	return output, tokenUsage, nil
}

// ScoreListing implements Provider for listing fit assessment
func (g *GeminiProvider) ScoreListing(ctx context.Context, input types.ScoreListingInput) (types.ScoreListingOutput, *TokenUsage, error) {
	systemPrompt := resolvePrompt(g.config.Prompts.System, DefaultSystemPrompts.ScoreListing)
	userPrompt := fmt.Sprintf(resolvePrompt(g.config.Prompts.User, DefaultUserPrompts.ScoreListing),
		input.Intent, input.ResumeText, input.Title, input.Company, input.Description)

	output, tokenUsage, err := executeAIOperation[types.ScoreListingOutput](
		g,
		ctx,
		"score_listing",
		userPrompt,
		systemPrompt,
		g.buildScoreSchema(),
		attribute.Int("input.description_length", len(input.Description)),
	)
	if err != nil {
		return types.ScoreListingOutput{}, nil, err
	}

	return output, tokenUsage, nil
}

// GetCircuitBreakerStats returns circuit breaker statistics
func (g *GeminiProvider) GetCircuitBreakerStats() map[string]any {
	return map[string]any{
		"ai_operations":    g.breaker.Stats(),
		"model_operations": g.modelBreaker.Stats(),
		"overall_healthy":  g.breaker.IsHealthy() && g.modelBreaker.IsHealthy(),
	}
}

// Close implements Provider
func (g *GeminiProvider) Close() error {
	return nil
}

// buildPlanSchema creates the schema for planning requests
func (g *GeminiProvider) buildPlanSchema() *genai.GenerateContentConfig {
	stringList := &genai.Schema{
		Type:  genai.TypeArray,
		Items: &genai.Schema{Type: genai.TypeString},
	}
	config := &genai.GenerateContentConfig{
		ResponseMIMEType: "application/json",
		ResponseSchema: &genai.Schema{
			Type: genai.TypeObject,
			Properties: map[string]*genai.Schema{
				"specific_keywords": stringList,
				"broad_keywords":    stringList,
				"countries":         stringList,
				"remote_only":       {Type: genai.TypeBoolean},
			},
			Required: []string{"specific_keywords", "broad_keywords", "countries"},
		},
	}

	if *g.config.Temperature > 0 {
		config.Temperature = g.config.Temperature
	}

	return config
}

// buildScoreSchema creates the schema for scoring requests
func (g *GeminiProvider) buildScoreSchema() *genai.GenerateContentConfig {
	config := &genai.GenerateContentConfig{
		ResponseMIMEType: "application/json",
		ResponseSchema: &genai.Schema{
			Type: genai.TypeObject,
			Properties: map[string]*genai.Schema{
				"score":      {Type: genai.TypeInteger},
				"salary_est": {Type: genai.TypeString},
				"reason":     {Type: genai.TypeString},
			},
			Required: []string{"score", "salary_est", "reason"},
		},
	}

	if *g.config.Temperature > 0 {
		config.Temperature = g.config.Temperature
	}

	return config
}

// TokenUsage represents token usage information from AI responses
type TokenUsage struct {
	InputTokens  int64
	OutputTokens int64
	TotalTokens  int64
}

// extractTokenUsage extracts token usage information from Gemini API response
func extractTokenUsage(result *genai.GenerateContentResponse) *TokenUsage {
	if result == nil || result.UsageMetadata == nil {
		return nil
	}

	usage := result.UsageMetadata
	return &TokenUsage{
		InputTokens:  int64(usage.PromptTokenCount),
		OutputTokens: int64(usage.CandidatesTokenCount),
		TotalTokens:  int64(usage.TotalTokenCount),
	}
}
