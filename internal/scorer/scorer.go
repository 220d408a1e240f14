// Package scorer asks the language model how well each candidate listing
// fits the user. A failed assessment degrades to a zero score instead of
// failing the run.
package scorer

import (
	"context"
	"time"

	"hybridhunter/internal/ai"
	"hybridhunter/internal/config"
	"hybridhunter/internal/errors"
	"hybridhunter/internal/observability"
	"hybridhunter/internal/planner"
	"hybridhunter/internal/types"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"golang.org/x/sync/errgroup"
)

const (
	// degradedRationale marks a listing whose assessment failed
	degradedRationale = "Error"
	// unknownSalary is used when neither the model nor the source gave pay
	unknownSalary = "N/A"
	noRationale   = "N/A"
)

// Model is the language model call the scorer depends on
type Model interface {
	ScoreListing(ctx context.Context, input types.ScoreListingInput) (types.ScoreListingOutput, *ai.TokenUsage, error)
}

// Scorer assesses listings against an intent and resume
type Scorer struct {
	model            Model
	resumeChars      int
	descriptionChars int
	concurrency      int
	logger           *errors.Logger
	metrics          *observability.Metrics
}

// New creates a scorer with the limits configured for the scorer operation
func New(model Model, cfg *config.Config, logger *errors.Logger, metrics *observability.Metrics) *Scorer {
	if logger == nil {
		logger = errors.NewNopLogger()
	}
	return &Scorer{
		model:            model,
		resumeChars:      cfg.AI.Scorer.ResumeChars,
		descriptionChars: cfg.AI.Scorer.DescriptionChars,
		concurrency:      max(cfg.AI.Scorer.Concurrency, 1),
		logger:           logger,
		metrics:          metrics,
	}
}

// Score assesses one listing. It never fails: any model error yields a
// degraded result with score 0.
func (s *Scorer) Score(ctx context.Context, listing types.Listing, intent, resumeText string) types.ScoredListing {
	input := types.ScoreListingInput{
		Intent:      intent,
		ResumeText:  planner.Truncate(resumeText, s.resumeChars),
		Title:       listing.Title,
		Company:     listing.Company,
		Description: planner.Truncate(listing.Description, s.descriptionChars),
	}

	start := time.Now()
	out, usage, err := s.model.ScoreListing(ctx, input)
	s.metrics.RecordAIRequest(ctx, "score_listing", time.Since(start), err, (*observability.TokenUsage)(usage))

	if err != nil {
		scoreErr := errors.NewScoringError(errors.ErrCodeScoreFailed, "listing could not be scored", err).
			WithContext("url", listing.URL)
		s.logger.Warn("Scoring failed, keeping listing with a zero score",
			"url", listing.URL,
			"title", listing.Title,
			"error", scoreErr.Error())
		return Degraded(listing)
	}

	scored := types.ScoredListing{
		Listing:        listing,
		MatchScore:     clamp(out.Score),
		SalaryEstimate: out.SalaryEst,
		Rationale:      out.Reason,
	}
	if scored.SalaryEstimate == "" {
		scored.SalaryEstimate = fallbackSalary(listing)
	}
	if scored.Rationale == "" {
		scored.Rationale = noRationale
	}
	return scored
}

// ScoreAll scores listings with bounded parallelism. The output has the
// same length and order as the input.
func (s *Scorer) ScoreAll(ctx context.Context, listings []types.Listing, intent, resumeText string) []types.ScoredListing {
	ctx, span := otel.Tracer("hybridhunter.scorer").Start(ctx, "scorer.score_all")
	defer span.End()

	scored := make([]types.ScoredListing, len(listings))

	g := new(errgroup.Group)
	g.SetLimit(s.concurrency)
	for i, l := range listings {
		g.Go(func() error {
			if ctx.Err() != nil {
				scored[i] = Degraded(l)
				return nil
			}
			scored[i] = s.Score(ctx, l, intent, resumeText)
			return nil
		})
	}
	_ = g.Wait()

	degraded := 0
	for _, sl := range scored {
		if sl.Rationale == degradedRationale && sl.MatchScore == 0 {
			degraded++
		}
	}
	span.SetAttributes(
		attribute.Int("scorer.listings", len(listings)),
		attribute.Int("scorer.degraded", degraded),
	)
	s.metrics.RecordListings(ctx, "scored", len(scored))
	s.logger.Info("Scoring finished", "listings", len(scored), "degraded", degraded)

	return scored
}

// Degraded is the assessment recorded for a listing that could not be scored
func Degraded(listing types.Listing) types.ScoredListing {
	return types.ScoredListing{
		Listing:        listing,
		MatchScore:     0,
		SalaryEstimate: fallbackSalary(listing),
		Rationale:      degradedRationale,
	}
}

func fallbackSalary(listing types.Listing) string {
	if listing.SalaryRaw == "" || listing.SalaryRaw == types.NotListed {
		return unknownSalary
	}
	return listing.SalaryRaw
}

func clamp(score int) int {
	return min(max(score, 0), 100)
}
