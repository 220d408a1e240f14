// Package sources holds the job listing adapters. Every adapter is fail-soft:
// transport and decoding errors are logged and yield no listings.
package sources

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"hybridhunter/internal/config"
	"hybridhunter/internal/errors"
	"hybridhunter/internal/observability"
	"hybridhunter/internal/resilience"
	"hybridhunter/internal/types"

	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"golang.org/x/time/rate"
)

// Kind says how an adapter uses the location of a call
type Kind int

const (
	// Partitioned sources are queried once per location
	Partitioned Kind = iota
	// RemoteOnly sources ignore location and run only for remote searches
	RemoteOnly
)

func (k Kind) String() string {
	if k == RemoteOnly {
		return "remote_only"
	}
	return "partitioned"
}

// KeywordSet selects which plan keywords an adapter is queried with
type KeywordSet int

const (
	// Specific keywords are precise title phrases
	Specific KeywordSet = iota
	// Broad keywords are loose topic terms
	Broad
)

// Adapter maps one (keyword, location) pair to normalized listings
type Adapter interface {
	Name() string
	Kind() Kind
	Keywords() KeywordSet
	Fetch(ctx context.Context, keyword, location string) []types.Listing
}

// Result is the outcome of one external call
type Result[T any] struct {
	Value T
	Err   error
}

// Ok wraps a successful value
func Ok[T any](v T) Result[T] { return Result[T]{Value: v} }

// Fail wraps an error
func Fail[T any](err error) Result[T] { return Result[T]{Err: err} }

// Deps are the collaborators shared by every adapter
type Deps struct {
	HTTPClient *http.Client
	Logger     *errors.Logger
	Metrics    *observability.Metrics
}

// NewHTTPClient returns the instrumented client adapters use by default
func NewHTTPClient(timeout time.Duration) *http.Client {
	return &http.Client{
		Timeout:   timeout,
		Transport: otelhttp.NewTransport(http.DefaultTransport),
	}
}

// guard applies pacing and the circuit breaker to one source's calls
type guard struct {
	name    string
	limiter *rate.Limiter
	breaker *resilience.Breaker[[]types.Listing]
	logger  *errors.Logger
	metrics *observability.Metrics
}

func newGuard(name string, pacing config.PacingConfig, cb config.CircuitBreakerConfig, deps Deps) guard {
	limit := rate.Inf
	if pacing.RequestsPerSecond > 0 {
		limit = rate.Limit(pacing.RequestsPerSecond)
	}
	burst := max(pacing.Burst, 1)

	return guard{
		name:    name,
		limiter: rate.NewLimiter(limit, burst),
		breaker: resilience.NewBreaker[[]types.Listing]("source-"+name, cb, deps.Logger),
		logger:  deps.Logger,
		metrics: deps.Metrics,
	}
}

// call waits for the pacing limiter and runs fn under the breaker
func (g guard) call(ctx context.Context, fn func(ctx context.Context) ([]types.Listing, error)) Result[[]types.Listing] {
	if err := g.limiter.Wait(ctx); err != nil {
		return Fail[[]types.Listing](err)
	}
	listings, err := g.breaker.Execute(func() ([]types.Listing, error) {
		return fn(ctx)
	})
	if err != nil {
		return Fail[[]types.Listing](err)
	}
	return Ok(listings)
}

// softFetch runs one source call and absorbs its error. Callers always get
// a slice they can merge, possibly empty.
func (g guard) softFetch(ctx context.Context, keyword, location string, fn func(ctx context.Context) ([]types.Listing, error)) []types.Listing {
	res := g.call(ctx, fn)
	if res.Err == nil {
		g.metrics.RecordSourceCall(ctx, g.name, "ok", len(res.Value))
		return res.Value
	}

	outcome := "error"
	if resilience.IsRejection(res.Err) {
		outcome = "rejected"
	}
	g.metrics.RecordSourceCall(ctx, g.name, outcome, 0)
	if g.logger != nil {
		g.logger.Warn("Source call failed, continuing without its listings",
			"source", g.name,
			"keyword", keyword,
			"location", location,
			"outcome", outcome,
			"error", res.Err.Error())
	}
	return nil
}

// Stats reports the breaker state of the source
func (g guard) Stats() map[string]any {
	return g.breaker.Stats()
}

// statusError describes a non-2xx upstream response
func statusError(source string, resp *http.Response) error {
	return errors.NewAdapterError(errors.ErrCodeSourceFailed,
		fmt.Sprintf("%s returned status %d", source, resp.StatusCode), nil).
		WithContext("status", resp.StatusCode)
}

// NewRegistry builds the enabled adapters in priority order
func NewRegistry(cfg *config.Config, deps Deps, tier1Opts ...Tier1Option) ([]Adapter, error) {
	if deps.HTTPClient == nil {
		deps.HTTPClient = NewHTTPClient(cfg.Sources.Timeout)
	}

	adapters := make([]Adapter, 0, len(cfg.Sources.Order))
	for _, name := range cfg.Sources.Order {
		switch name {
		case config.SourceTier1:
			if !cfg.Sources.Tier1.Enabled {
				continue
			}
			t1, err := NewTier1(cfg, deps, tier1Opts...)
			if err != nil {
				closeAdapters(adapters)
				return nil, err
			}
			adapters = append(adapters, t1)
		case config.SourceAdzuna:
			if cfg.Sources.Adzuna.Enabled {
				adapters = append(adapters, NewAdzuna(cfg, deps))
			}
		case config.SourceRemoteOK:
			if cfg.Sources.RemoteOK.Enabled {
				adapters = append(adapters, NewRemoteOK(cfg, deps))
			}
		default:
			closeAdapters(adapters)
			return nil, errors.NewConfigError(errors.ErrCodeInvalidConfig,
				"unknown source: "+name, nil)
		}
	}
	return adapters, nil
}

// closeAdapters releases adapters built before a registry error
func closeAdapters(adapters []Adapter) {
	for _, a := range adapters {
		if c, ok := a.(interface{ Close() error }); ok {
			_ = c.Close()
		}
	}
}
