// Package planner turns a free-text job intent into a bounded search plan.
package planner

import (
	"context"
	"strings"

	"hybridhunter/internal/ai"
	"hybridhunter/internal/config"
	"hybridhunter/internal/errors"
	"hybridhunter/internal/types"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
)

// defaultKeywordChars bounds the intent text used as a fallback keyword
const defaultKeywordChars = 80

// Model is the language model call the planner depends on
type Model interface {
	PlanSearch(ctx context.Context, input types.PlanSearchInput) (types.PlanSearchOutput, *ai.TokenUsage, error)
}

// Planner builds a SearchPlan from user intent
type Planner struct {
	model           Model
	resumeChars     int
	maxKeywords     int
	maxLocations    int
	defaultLocation string
	logger          *errors.Logger
}

// New creates a planner bound to model and the search limits in cfg
func New(model Model, cfg *config.Config, logger *errors.Logger) *Planner {
	if logger == nil {
		logger = errors.NewNopLogger()
	}
	return &Planner{
		model:           model,
		resumeChars:     cfg.AI.Planner.ResumeChars,
		maxKeywords:     cfg.Search.MaxKeywords,
		maxLocations:    cfg.Search.MaxLocations,
		defaultLocation: cfg.Search.DefaultLocation,
		logger:          logger,
	}
}

// Plan asks the model for search parameters and normalizes them. Any model
// or parse failure is returned as a planning error; there is no retry here.
func (p *Planner) Plan(ctx context.Context, intent, resumeText string) (types.SearchPlan, error) {
	ctx, span := otel.Tracer("hybridhunter.planner").Start(ctx, "planner.plan")
	defer span.End()

	intent = strings.TrimSpace(intent)
	if intent == "" {
		return types.SearchPlan{}, errors.NewValidationError(errors.ErrCodeInvalidRequest,
			"search intent is required", nil)
	}

	input := types.PlanSearchInput{
		Intent:     intent,
		ResumeText: Truncate(resumeText, p.resumeChars),
	}

	out, usage, err := p.model.PlanSearch(ctx, input)
	if err != nil {
		span.RecordError(err)
		return types.SearchPlan{}, errors.NewPlanningError(errors.ErrCodePlanFailed,
			"could not plan search", err)
	}
	if out.SpecificKeywords == nil && out.BroadKeywords == nil && out.Countries == nil {
		return types.SearchPlan{}, errors.NewPlanningError(errors.ErrCodePlanInvalid,
			"planner response is missing every required field", nil)
	}

	plan := p.normalize(intent, out)

	span.SetAttributes(
		attribute.Int("plan.keywords", len(plan.KeywordVariants)),
		attribute.Int("plan.broad_keywords", len(plan.BroadKeywords)),
		attribute.Int("plan.locations", len(plan.TargetLocations)),
		attribute.Bool("plan.remote_only", plan.RemoteOnly),
	)

	args := []any{
		"keywords", plan.KeywordVariants,
		"broad_keywords", plan.BroadKeywords,
		"locations", plan.TargetLocations,
		"remote_only", plan.RemoteOnly,
	}
	if usage != nil {
		args = append(args, "tokens", usage.TotalTokens)
	}
	p.logger.Info("Search planned", args...)

	return plan, nil
}

// normalize bounds and cleans the raw model output. The returned plan always
// has at least one keyword variant and one location.
func (p *Planner) normalize(intent string, out types.PlanSearchOutput) types.SearchPlan {
	plan := types.SearchPlan{
		KeywordVariants: Clean(out.SpecificKeywords, p.maxKeywords),
		BroadKeywords:   Clean(out.BroadKeywords, p.maxKeywords),
		TargetLocations: Clean(out.Countries, p.maxLocations),
		RemoteOnly:      out.RemoteOnly,
	}

	if len(plan.KeywordVariants) == 0 {
		if len(plan.BroadKeywords) > 0 {
			plan.KeywordVariants = append([]string(nil), plan.BroadKeywords...)
		} else {
			plan.KeywordVariants = []string{Truncate(intent, defaultKeywordChars)}
		}
	}
	if len(plan.TargetLocations) == 0 {
		plan.TargetLocations = []string{p.defaultLocation}
	}

	return plan
}

// Clean trims entries, drops blanks and case-insensitive duplicates, and
// keeps at most limit entries (limit <= 0 keeps all).
func Clean(values []string, limit int) []string {
	seen := make(map[string]bool, len(values))
	cleaned := make([]string, 0, len(values))
	for _, v := range values {
		v = strings.TrimSpace(v)
		if v == "" {
			continue
		}
		key := strings.ToLower(v)
		if seen[key] {
			continue
		}
		seen[key] = true
		cleaned = append(cleaned, v)
		if limit > 0 && len(cleaned) == limit {
			break
		}
	}
	return cleaned
}

// Truncate returns at most n runes of s (n <= 0 returns s unchanged)
func Truncate(s string, n int) string {
	if n <= 0 {
		return s
	}
	runes := []rune(s)
	if len(runes) <= n {
		return s
	}
	return string(runes[:n])
}
