// Package pipeline runs one search end to end: plan, search, score, select
// and optionally deliver.
package pipeline

import (
	"context"
	"fmt"
	"strings"

	"hybridhunter/internal/errors"
	"hybridhunter/internal/observability"
	"hybridhunter/internal/ranking"
	"hybridhunter/internal/types"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
)

const (
	msgPlanningFailed = "Could not plan the search"
	msgNoCandidates   = "No listings found"
	msgNoMatches      = "Candidates found but none matched well enough; try relaxing your criteria"
)

// Planner turns intent into a search plan
type Planner interface {
	Plan(ctx context.Context, intent, resumeText string) (types.SearchPlan, error)
}

// Searcher runs a plan against the listing sources
type Searcher interface {
	Run(ctx context.Context, plan types.SearchPlan) []types.Listing
}

// Scorer assesses candidates
type Scorer interface {
	ScoreAll(ctx context.Context, listings []types.Listing, intent, resumeText string) []types.ScoredListing
}

// Deliverer sends the selected listings to an address
type Deliverer interface {
	Send(ctx context.Context, to string, listings []types.ScoredListing) error
}

// Request is one user-triggered search
type Request struct {
	Intent      string
	ResumeText  string
	Destination string            // empty means no delivery
	Criteria    *ranking.Criteria // overrides the configured selection
}

// Runner wires the stages together
type Runner struct {
	planner   Planner
	searcher  Searcher
	scorer    Scorer
	deliverer Deliverer
	criteria  ranking.Criteria
	logger    *errors.Logger
	metrics   *observability.Metrics
}

// Option customizes a Runner
type Option func(*Runner)

// WithDeliverer enables delivery of results
func WithDeliverer(d Deliverer) Option {
	return func(r *Runner) { r.deliverer = d }
}

// WithMetrics records run metrics
func WithMetrics(m *observability.Metrics) Option {
	return func(r *Runner) { r.metrics = m }
}

// NewRunner creates a runner over the given stages
func NewRunner(p Planner, s Searcher, sc Scorer, criteria ranking.Criteria, logger *errors.Logger, opts ...Option) *Runner {
	if logger == nil {
		logger = errors.NewNopLogger()
	}
	r := &Runner{
		planner:  p,
		searcher: s,
		scorer:   sc,
		criteria: criteria,
		logger:   logger,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Plan runs only the planning stage
func (r *Runner) Plan(ctx context.Context, intent, resumeText string) (types.SearchPlan, error) {
	return r.planner.Plan(ctx, intent, resumeText)
}

// Run executes req. Only planning failure stops a run early; source and
// scoring failures have already been absorbed by the stages, and a delivery
// failure still returns the results.
func (r *Runner) Run(ctx context.Context, req Request) types.SearchReport {
	ctx, span := otel.Tracer("hybridhunter.pipeline").Start(ctx, "pipeline.run")
	defer span.End()

	report := r.run(ctx, req)

	span.SetAttributes(
		attribute.String("run.status", string(report.Status)),
		attribute.Int("run.candidates", report.Candidates),
		attribute.Int("run.results", len(report.Results)),
	)
	if report.Err != nil {
		span.RecordError(report.Err)
		if report.Status == types.StatusPlanningFailed {
			span.SetStatus(codes.Error, report.Message)
		}
	}
	r.metrics.RecordRun(ctx, string(report.Status))

	if report.Err != nil {
		r.logger.LogError(report.Err, "Search run ended with an error", "status", report.Status)
	} else {
		r.logger.Info("Search run finished",
			"status", report.Status,
			"candidates", report.Candidates,
			"results", len(report.Results))
	}
	return report
}

func (r *Runner) run(ctx context.Context, req Request) types.SearchReport {
	plan, err := r.planner.Plan(ctx, req.Intent, req.ResumeText)
	if err != nil {
		return types.SearchReport{
			Status:  types.StatusPlanningFailed,
			Message: msgPlanningFailed,
			Results: []types.ScoredListing{},
			Error:   err.Error(),
			Err:     err,
		}
	}

	report := types.SearchReport{Plan: &plan, Results: []types.ScoredListing{}}

	candidates := r.searcher.Run(ctx, plan)
	report.Candidates = len(candidates)
	if len(candidates) == 0 {
		report.Status = types.StatusNoCandidates
		report.Message = msgNoCandidates
		return report
	}

	scored := r.scorer.ScoreAll(ctx, candidates, req.Intent, req.ResumeText)

	criteria := r.criteria
	if req.Criteria != nil {
		criteria = *req.Criteria
	}
	selected := ranking.Select(scored, criteria)
	r.metrics.RecordListings(ctx, "selected", len(selected))
	if len(selected) == 0 {
		report.Status = types.StatusNoMatches
		report.Message = msgNoMatches
		return report
	}
	report.Results = selected

	to := strings.TrimSpace(req.Destination)
	if to == "" || r.deliverer == nil {
		report.Status = types.StatusCompleted
		report.Message = fmt.Sprintf("Found %d matches", len(selected))
		return report
	}

	if err := r.deliverer.Send(ctx, to, selected); err != nil {
		if !errors.IsType(err, errors.ErrorTypeDelivery) {
			err = errors.NewDeliveryError(errors.ErrCodeDeliveryFailed, "report was not delivered", err)
		}
		report.Status = types.StatusDeliveryFailed
		report.Message = fmt.Sprintf("Found %d matches but the report could not be sent", len(selected))
		report.Error = err.Error()
		report.Err = err
		return report
	}

	report.Status = types.StatusDelivered
	report.Message = fmt.Sprintf("Sent %d matches to %s", len(selected), to)
	report.Delivered = to
	return report
}
