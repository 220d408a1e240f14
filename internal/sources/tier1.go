package sources

import (
	"context"
	"math/rand"
	"net/http"
	"strings"
	"sync"
	"time"

	"hybridhunter/internal/config"
	"hybridhunter/internal/errors"
	"hybridhunter/internal/types"

	"google.golang.org/api/customsearch/v1"
	"google.golang.org/api/googleapi/transport"
	"google.golang.org/api/option"
)

// Tier1Source is the source tag of site-restricted search listings
const Tier1Source = "Tier 1 Direct"

// tier1Salary is shown because career-page snippets never carry pay
const tier1Salary = "Check Site"

// Tier1 searches company career sites through a site-restricted web search.
// The domain list is split into chunks and each chunk is one query.
type Tier1 struct {
	guard
	cfg              config.Tier1Config
	descriptionChars int
	search           *customsearch.Service
	domains          *DomainList
	watcher          *DomainWatcher
	watchDelay       time.Duration

	randMu sync.Mutex
	rnd    *rand.Rand
}

// Tier1Option customizes a Tier1 adapter
type Tier1Option func(*Tier1)

// WithRand sets the source used to sample domains
func WithRand(r *rand.Rand) Tier1Option {
	return func(t *Tier1) { t.rnd = r }
}

// WithDomains replaces the configured domain list
func WithDomains(list *DomainList) Tier1Option {
	return func(t *Tier1) { t.domains = list }
}

// WithDomainDebounce sets how long the domain file must be quiet before it
// is reloaded
func WithDomainDebounce(d time.Duration) Tier1Option {
	return func(t *Tier1) { t.watchDelay = d }
}

// NewTier1 creates the site-restricted search adapter
func NewTier1(cfg *config.Config, deps Deps, opts ...Tier1Option) (*Tier1, error) {
	tc := cfg.Sources.Tier1
	t := &Tier1{
		guard:            newGuard(Tier1Source, tc.Pacing, tc.CircuitBreaker, deps),
		cfg:              tc,
		descriptionChars: cfg.Sources.DescriptionChars,
		rnd:              rand.New(rand.NewSource(tc.Seed)),
	}
	if tc.Seed == 0 {
		t.rnd = rand.New(rand.NewSource(time.Now().UnixNano()))
	}
	for _, opt := range opts {
		opt(t)
	}

	if t.domains == nil {
		list, err := initialDomains(tc)
		if err != nil {
			return nil, err
		}
		t.domains = list
	}

	if !cfg.HasTier1Credentials() {
		if deps.Logger != nil {
			deps.Logger.Info("Tier 1 search has no API key or engine ID, adapter will return no listings")
		}
		return t.started(deps)
	}

	base := http.DefaultTransport
	timeout := cfg.Sources.Timeout
	if deps.HTTPClient != nil {
		if deps.HTTPClient.Transport != nil {
			base = deps.HTTPClient.Transport
		}
		timeout = deps.HTTPClient.Timeout
	}
	client := &http.Client{
		Timeout:   timeout,
		Transport: &transport.APIKey{Key: tc.APIKey, Transport: base},
	}

	opt := []option.ClientOption{option.WithHTTPClient(client)}
	if tc.Endpoint != "" {
		opt = append(opt, option.WithEndpoint(tc.Endpoint))
	}
	svc, err := customsearch.NewService(context.Background(), opt...)
	if err != nil {
		return nil, errors.NewAdapterError(errors.ErrCodeSourceOpen, "failed to create custom search client", err)
	}
	t.search = svc

	return t.started(deps)
}

func (t *Tier1) started(deps Deps) (*Tier1, error) {
	if err := t.watch(deps); err != nil {
		return nil, err
	}
	return t, nil
}

// watch starts the domain file watcher when configured. It runs last in
// NewTier1 so a failed constructor never leaves a watcher behind.
func (t *Tier1) watch(deps Deps) error {
	if t.cfg.DomainsFile == "" || !t.cfg.WatchDomains {
		return nil
	}
	t.watcher = NewDomainWatcher(t.cfg.DomainsFile, t.domains, t.watchDelay, deps.Logger)
	if err := t.watcher.Start(); err != nil {
		t.watcher = nil
		return errors.NewIOError(errors.ErrCodeSourceOpen, "failed to watch domain file", err)
	}
	return nil
}

func initialDomains(tc config.Tier1Config) (*DomainList, error) {
	switch {
	case tc.DomainsFile != "":
		domains, err := LoadDomainsFile(tc.DomainsFile)
		if err != nil {
			return nil, errors.NewConfigError(errors.ErrCodeInvalidConfig, "failed to load tier 1 domain file", err)
		}
		return NewDomainList(domains), nil
	case len(tc.Domains) > 0:
		return NewDomainList(tc.Domains), nil
	default:
		return NewDomainList(DefaultDomains), nil
	}
}

func (t *Tier1) Name() string         { return Tier1Source }
func (t *Tier1) Kind() Kind           { return Partitioned }
func (t *Tier1) Keywords() KeywordSet { return Broad }

// Domains exposes the live domain list
func (t *Tier1) Domains() *DomainList { return t.domains }

// Close stops the domain watcher if one is running
func (t *Tier1) Close() error {
	if t.watcher == nil {
		return nil
	}
	return t.watcher.Stop()
}

// Fetch runs one query per domain chunk. Chunks fail independently.
func (t *Tier1) Fetch(ctx context.Context, keyword, location string) []types.Listing {
	if t.search == nil {
		return nil
	}

	var listings []types.Listing
	for _, chunk := range Chunk(t.sampleDomains(), t.cfg.ChunkSize) {
		query := SiteQuery(chunk, keyword, location)
		got := t.softFetch(ctx, keyword, location, func(ctx context.Context) ([]types.Listing, error) {
			return t.query(ctx, query, location)
		})
		listings = append(listings, got...)
	}
	return listings
}

func (t *Tier1) sampleDomains() []string {
	domains := t.domains.Snapshot()
	if t.cfg.SampleDomains <= 0 {
		return domains
	}
	t.randMu.Lock()
	defer t.randMu.Unlock()
	return Sample(t.rnd, domains, t.cfg.SampleDomains)
}

func (t *Tier1) query(ctx context.Context, query, location string) ([]types.Listing, error) {
	res, err := t.search.Cse.List().
		Q(query).
		Cx(t.cfg.EngineID).
		Num(t.cfg.ResultsPerQuery).
		Context(ctx).
		Do()
	if err != nil {
		return nil, errors.NewAdapterError(errors.ErrCodeSourceFailed, "custom search request failed", err)
	}

	listings := make([]types.Listing, 0, len(res.Items))
	for _, item := range res.Items {
		if item == nil {
			continue
		}
		listings = append(listings, types.Listing{
			Title:       ParseResultTitle(item.Title),
			Company:     CompanyFromDisplayLink(item.DisplayLink),
			Location:    location,
			Description: item.Snippet,
			URL:         item.Link,
			Source:      Tier1Source,
			SalaryRaw:   tier1Salary,
		})
	}
	return finalize(listings, t.descriptionChars), nil
}

// ParseResultTitle keeps the part of a result title before the first "|"
// and then before the first "-", which is usually the job title.
func ParseResultTitle(title string) string {
	title, _, _ = strings.Cut(title, "|")
	title, _, _ = strings.Cut(title, "-")
	return strings.TrimSpace(title)
}

// CompanyFromDisplayLink derives a company label from a result's host
func CompanyFromDisplayLink(link string) string {
	link = strings.ReplaceAll(link, "www.", "")
	return strings.ReplaceAll(link, "careers.", "")
}
