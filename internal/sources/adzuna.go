package sources

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"hybridhunter/internal/config"
	"hybridhunter/internal/errors"
	"hybridhunter/internal/types"
)

// AdzunaSource is the source tag of aggregator listings
const AdzunaSource = "Adzuna"

// maxResponseBytes bounds how much of an upstream body is read
const maxResponseBytes = 4 << 20

// countryCodes maps common country names to the aggregator's country codes
var countryCodes = map[string]string{
	"usa":           "us",
	"united states": "us",
	"australia":     "au",
	"uk":            "gb",
	"germany":       "de",
	"canada":        "ca",
	"france":        "fr",
	"netherlands":   "nl",
}

// CountryCode resolves a planner location to an aggregator country code
func CountryCode(location string) string {
	key := strings.ToLower(strings.TrimSpace(location))
	if code, ok := countryCodes[key]; ok {
		return code
	}
	return key
}

type adzunaResponse struct {
	Results []adzunaJob `json:"results"`
}

type adzunaJob struct {
	Title   string `json:"title"`
	Company struct {
		DisplayName string `json:"display_name"`
	} `json:"company"`
	Location struct {
		DisplayName string `json:"display_name"`
	} `json:"location"`
	SalaryMin   float64 `json:"salary_min"`
	Description string  `json:"description"`
	RedirectURL string  `json:"redirect_url"`
}

// Adzuna queries the Adzuna job search API, one country per call
type Adzuna struct {
	guard
	cfg              config.AdzunaConfig
	descriptionChars int
	userAgent        string
	client           *http.Client
	enabled          bool
}

// NewAdzuna creates the aggregator adapter
func NewAdzuna(cfg *config.Config, deps Deps) *Adzuna {
	ac := cfg.Sources.Adzuna
	client := deps.HTTPClient
	if client == nil {
		client = NewHTTPClient(cfg.Sources.Timeout)
	}
	a := &Adzuna{
		guard:            newGuard(AdzunaSource, ac.Pacing, ac.CircuitBreaker, deps),
		cfg:              ac,
		descriptionChars: cfg.Sources.DescriptionChars,
		userAgent:        cfg.Sources.UserAgent,
		client:           client,
		enabled:          cfg.HasAdzunaCredentials(),
	}
	if !a.enabled && deps.Logger != nil {
		deps.Logger.Info("Adzuna has no app ID or key, adapter will return no listings")
	}
	return a
}

func (a *Adzuna) Name() string         { return AdzunaSource }
func (a *Adzuna) Kind() Kind           { return Partitioned }
func (a *Adzuna) Keywords() KeywordSet { return Specific }

// Fetch searches one keyword in the country named by location
func (a *Adzuna) Fetch(ctx context.Context, keyword, location string) []types.Listing {
	if !a.enabled {
		return nil
	}
	return a.softFetch(ctx, keyword, location, func(ctx context.Context) ([]types.Listing, error) {
		return a.search(ctx, keyword, CountryCode(location))
	})
}

// searchURL builds the first-page search request for country
func (a *Adzuna) searchURL(keyword, country string) string {
	q := url.Values{}
	q.Set("app_id", a.cfg.AppID)
	q.Set("app_key", a.cfg.AppKey)
	q.Set("results_per_page", strconv.Itoa(a.cfg.ResultsPerPage))
	q.Set("what", keyword)
	q.Set("sort_by", a.cfg.SortBy)
	q.Set("max_days_old", strconv.Itoa(a.cfg.MaxDaysOld))
	q.Set("content-type", "application/json")

	base := strings.TrimSuffix(a.cfg.BaseURL, "/")
	return fmt.Sprintf("%s/v1/api/jobs/%s/search/1?%s", base, url.PathEscape(country), q.Encode())
}

func (a *Adzuna) search(ctx context.Context, keyword, country string) ([]types.Listing, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, a.searchURL(keyword, country), nil)
	if err != nil {
		return nil, errors.NewAdapterError(errors.ErrCodeSourceFailed, "failed to build Adzuna request", err)
	}
	req.Header.Set("Accept", "application/json")
	if a.userAgent != "" {
		req.Header.Set("User-Agent", a.userAgent)
	}

	resp, err := a.client.Do(req)
	if err != nil {
		return nil, errors.NewAdapterError(errors.ErrCodeSourceFailed, "Adzuna request failed", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return nil, statusError(AdzunaSource, resp)
	}

	var payload adzunaResponse
	if err := json.NewDecoder(io.LimitReader(resp.Body, maxResponseBytes)).Decode(&payload); err != nil {
		return nil, errors.NewAdapterError(errors.ErrCodeSourceBadPayload, "failed to decode Adzuna response", err)
	}

	cc := strings.ToUpper(country)
	listings := make([]types.Listing, 0, len(payload.Results))
	for _, job := range payload.Results {
		listings = append(listings, types.Listing{
			Title:       job.Title,
			Company:     job.Company.DisplayName,
			Location:    fmt.Sprintf("%s (%s)", orPlaceholder(job.Location.DisplayName), cc),
			Description: job.Description,
			URL:         job.RedirectURL,
			Source:      AdzunaSource,
			SalaryRaw:   formatSalaryMin(job.SalaryMin),
		})
	}
	return finalize(listings, a.descriptionChars), nil
}

func formatSalaryMin(v float64) string {
	if v <= 0 {
		return ""
	}
	return strconv.FormatFloat(v, 'f', -1, 64)
}
