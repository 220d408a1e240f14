// Package search fans a search plan out over the source adapters and merges
// what comes back into one deduplicated candidate list.
package search

import (
	"context"

	"hybridhunter/internal/config"
	"hybridhunter/internal/errors"
	"hybridhunter/internal/observability"
	"hybridhunter/internal/planner"
	"hybridhunter/internal/sources"
	"hybridhunter/internal/types"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"golang.org/x/sync/errgroup"
)

// Call is one planned adapter invocation
type Call struct {
	Adapter  sources.Adapter
	Keyword  string
	Location string
}

// Orchestrator runs every planned call and merges the results
type Orchestrator struct {
	adapters        []sources.Adapter
	maxKeywords     int
	maxLocations    int
	defaultLocation string
	concurrency     int
	logger          *errors.Logger
	metrics         *observability.Metrics
}

// New creates an orchestrator over adapters, which must be in priority order
func New(adapters []sources.Adapter, cfg *config.Config, logger *errors.Logger, metrics *observability.Metrics) *Orchestrator {
	if logger == nil {
		logger = errors.NewNopLogger()
	}
	return &Orchestrator{
		adapters:        adapters,
		maxKeywords:     cfg.Search.MaxKeywords,
		maxLocations:    cfg.Search.MaxLocations,
		defaultLocation: cfg.Search.DefaultLocation,
		concurrency:     max(cfg.Search.Concurrency, 1),
		logger:          logger,
		metrics:         metrics,
	}
}

// Calls lists the invocations Run will make for plan, in merge order. The
// loop nest is location, then adapter, then keyword. Remote-only adapters
// ignore location, so they are planned once per keyword (with the first
// location) and only when the plan asks for remote work.
func (o *Orchestrator) Calls(plan types.SearchPlan) []Call {
	specific := planner.Clean(plan.KeywordVariants, o.maxKeywords)
	broad := planner.Clean(plan.BroadKeywords, o.maxKeywords)
	if len(broad) == 0 {
		broad = specific
	}
	locations := uniqueCountries(planner.Clean(plan.TargetLocations, 0), o.maxLocations)
	if len(locations) == 0 && o.defaultLocation != "" {
		locations = []string{o.defaultLocation}
	}

	var calls []Call
	for i, location := range locations {
		for _, adapter := range o.adapters {
			if adapter.Kind() == sources.RemoteOnly && (!plan.RemoteOnly || i > 0) {
				continue
			}
			keywords := specific
			if adapter.Keywords() == sources.Broad {
				keywords = broad
			}
			for _, keyword := range keywords {
				c := Call{Adapter: adapter, Keyword: keyword, Location: location}
				if adapter.Kind() == sources.RemoteOnly {
					c.Location = ""
				}
				calls = append(calls, c)
			}
		}
	}
	return calls
}

// uniqueCountries keeps the first spelling of each country ("USA" and "us"
// are one location) and stops at limit.
func uniqueCountries(locations []string, limit int) []string {
	seen := make(map[string]bool, len(locations))
	kept := make([]string, 0, len(locations))
	for _, location := range locations {
		code := sources.CountryCode(location)
		if seen[code] {
			continue
		}
		seen[code] = true
		kept = append(kept, location)
		if limit > 0 && len(kept) == limit {
			break
		}
	}
	return kept
}

// Run executes the plan and returns unique listings in discovery order. An
// empty result is not an error.
func (o *Orchestrator) Run(ctx context.Context, plan types.SearchPlan) []types.Listing {
	ctx, span := otel.Tracer("hybridhunter.search").Start(ctx, "search.run")
	defer span.End()

	calls := o.Calls(plan)
	slots := make([][]types.Listing, len(calls))

	g := new(errgroup.Group)
	g.SetLimit(o.concurrency)
	for i, c := range calls {
		g.Go(func() error {
			if ctx.Err() != nil {
				return nil
			}
			slots[i] = c.Adapter.Fetch(ctx, c.Keyword, c.Location)
			o.logger.Debug("Source call finished",
				"source", c.Adapter.Name(),
				"keyword", c.Keyword,
				"location", c.Location,
				"listings", len(slots[i]))
			return nil
		})
	}
	_ = g.Wait()

	raw := 0
	for _, s := range slots {
		raw += len(s)
	}
	merged := Dedup(slots...)

	span.SetAttributes(
		attribute.Int("search.calls", len(calls)),
		attribute.Int("search.raw_listings", raw),
		attribute.Int("search.unique_listings", len(merged)),
	)
	o.metrics.RecordListings(ctx, "discovered", raw)
	o.metrics.RecordListings(ctx, "unique", len(merged))
	o.logger.Info("Search finished",
		"calls", len(calls),
		"raw_listings", raw,
		"unique_listings", len(merged))

	return merged
}

// Dedup concatenates batches and keeps the first listing seen for each URL
func Dedup(batches ...[]types.Listing) []types.Listing {
	seen := make(map[string]bool)
	out := make([]types.Listing, 0)
	for _, batch := range batches {
		for _, l := range batch {
			if seen[l.URL] {
				continue
			}
			seen[l.URL] = true
			out = append(out, l)
		}
	}
	return out
}
