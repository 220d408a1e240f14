package pipeline

import (
	"context"
	stdErrors "errors"

	"hybridhunter/internal/ai"
	"hybridhunter/internal/config"
	"hybridhunter/internal/errors"
	"hybridhunter/internal/extract"
	"hybridhunter/internal/observability"
	"hybridhunter/internal/planner"
	"hybridhunter/internal/ranking"
	"hybridhunter/internal/report"
	"hybridhunter/internal/scorer"
	"hybridhunter/internal/search"
	"hybridhunter/internal/sources"
)

// Components is a fully wired pipeline plus the pieces the outer surfaces
// report on.
type Components struct {
	Runner    *Runner
	AI        *ai.Services
	Adapters  []sources.Adapter
	Extractor *extract.Extractor
}

// Build assembles every stage from cfg. metrics may be nil.
func Build(cfg *config.Config, logger *errors.Logger, metrics *observability.Metrics) (*Components, error) {
	if logger == nil {
		logger = errors.NewNopLogger()
	}

	services, err := ai.NewServices(cfg, logger)
	if err != nil {
		return nil, err
	}

	adapters, err := sources.NewRegistry(cfg, sources.Deps{Logger: logger, Metrics: metrics})
	if err != nil {
		closeAll(services, nil, logger)
		return nil, err
	}

	runner := NewRunner(
		planner.New(services.Planner.Provider, cfg, logger),
		search.New(adapters, cfg, logger, metrics),
		scorer.New(services.Scorer.Provider, cfg, logger, metrics),
		ranking.CriteriaFromConfig(cfg),
		logger,
		WithDeliverer(report.NewMailer(cfg.Delivery, logger)),
		WithMetrics(metrics),
	)

	return &Components{
		Runner:    runner,
		AI:        services,
		Adapters:  adapters,
		Extractor: extract.New(cfg.Extract, logger),
	}, nil
}

// Stats returns breaker state for every model operation and source
func (c *Components) Stats() map[string]any {
	models := map[string]any{}
	if c.AI != nil {
		if c.AI.Planner != nil {
			models["planner"] = c.AI.Planner.Stats()
		}
		if c.AI.Scorer != nil {
			models["scorer"] = c.AI.Scorer.Stats()
		}
	}

	adapters := map[string]any{}
	for _, a := range c.Adapters {
		if s, ok := a.(interface{ Stats() map[string]any }); ok {
			adapters[a.Name()] = s.Stats()
		}
	}

	return map[string]any{
		"models":  models,
		"sources": adapters,
	}
}

// Models checks that the planner and scorer models can be reached
func (c *Components) Models(ctx context.Context) map[string]*ai.ModelInfo {
	models := map[string]*ai.ModelInfo{}
	if c.AI == nil {
		return models
	}
	for name, svc := range map[string]*ai.Service{"planner": c.AI.Planner, "scorer": c.AI.Scorer} {
		if svc != nil && svc.Provider != nil {
			models[name] = svc.GetModelInfo(ctx)
		}
	}
	return models
}

// Close releases model clients and stops source background work
func (c *Components) Close() error {
	return closeAll(c.AI, c.Adapters, nil)
}

func closeAll(services *ai.Services, adapters []sources.Adapter, logger *errors.Logger) error {
	var errs []error
	if services != nil {
		for _, svc := range []*ai.Service{services.Planner, services.Scorer} {
			if svc == nil || svc.Provider == nil {
				continue
			}
			if err := svc.Provider.Close(); err != nil {
				errs = append(errs, err)
			}
		}
	}
	for _, a := range adapters {
		if c, ok := a.(interface{ Close() error }); ok {
			if err := c.Close(); err != nil {
				errs = append(errs, err)
			}
		}
	}

	err := stdErrors.Join(errs...)
	if err != nil && logger != nil {
		logger.LogError(err, "Failed to release pipeline components")
	}
	return err
}
