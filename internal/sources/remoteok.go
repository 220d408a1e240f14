package sources

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"hybridhunter/internal/config"
	"hybridhunter/internal/errors"
	"hybridhunter/internal/types"
)

// RemoteOKSource is the source tag of remote job board listings
const RemoteOKSource = "RemoteOK"

type remoteOKJob struct {
	Slug        string   `json:"slug"`
	Position    string   `json:"position"`
	Company     string   `json:"company"`
	Tags        []string `json:"tags"`
	Location    string   `json:"location"`
	Description string   `json:"description"`
	SalaryMin   int      `json:"salary_min"`
	SalaryMax   int      `json:"salary_max"`
	URL         string   `json:"url"`
}

// remoteOKStopWords are words that never make a useful board tag
var remoteOKStopWords = map[string]bool{
	"senior": true, "junior": true, "lead": true, "staff": true, "principal": true,
	"remote": true, "the": true, "and": true, "for": true, "with": true,
	"engineer": true, "developer": true, "manager": true,
}

// RemoteOK queries the RemoteOK board. The board is not partitioned by
// location, so the location of a call is ignored.
type RemoteOK struct {
	guard
	cfg              config.RemoteOKConfig
	descriptionChars int
	userAgent        string
	client           *http.Client
}

// NewRemoteOK creates the remote job board adapter
func NewRemoteOK(cfg *config.Config, deps Deps) *RemoteOK {
	rc := cfg.Sources.RemoteOK
	client := deps.HTTPClient
	if client == nil {
		client = NewHTTPClient(cfg.Sources.Timeout)
	}
	return &RemoteOK{
		guard:            newGuard(RemoteOKSource, rc.Pacing, rc.CircuitBreaker, deps),
		cfg:              rc,
		descriptionChars: cfg.Sources.DescriptionChars,
		userAgent:        cfg.Sources.UserAgent,
		client:           client,
	}
}

func (r *RemoteOK) Name() string         { return RemoteOKSource }
func (r *RemoteOK) Kind() Kind           { return RemoteOnly }
func (r *RemoteOK) Keywords() KeywordSet { return Specific }

// Fetch returns board listings matching keyword
func (r *RemoteOK) Fetch(ctx context.Context, keyword, _ string) []types.Listing {
	fields := strings.Fields(strings.ToLower(keyword))
	if len(fields) == 0 {
		return nil
	}
	return r.softFetch(ctx, keyword, "", func(ctx context.Context) ([]types.Listing, error) {
		return r.search(ctx, keyword, pickTag(fields))
	})
}

func (r *RemoteOK) search(ctx context.Context, keyword, tag string) ([]types.Listing, error) {
	u := strings.TrimSuffix(r.cfg.BaseURL, "/") + "/api?" + url.Values{"tag": {tag}}.Encode()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, errors.NewAdapterError(errors.ErrCodeSourceFailed, "failed to build RemoteOK request", err)
	}
	req.Header.Set("Accept", "application/json")
	if r.userAgent != "" {
		req.Header.Set("User-Agent", r.userAgent)
	}

	resp, err := r.client.Do(req)
	if err != nil {
		return nil, errors.NewAdapterError(errors.ErrCodeSourceFailed, "RemoteOK request failed", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return nil, statusError(RemoteOKSource, resp)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return nil, errors.NewAdapterError(errors.ErrCodeSourceFailed, "failed to read RemoteOK response", err)
	}

	jobs, err := parseRemoteOK(body)
	if err != nil {
		return nil, errors.NewAdapterError(errors.ErrCodeSourceBadPayload, "failed to decode RemoteOK response", err)
	}

	jobs = filterRemoteJobs(jobs, keyword)
	if r.cfg.Limit > 0 && len(jobs) > r.cfg.Limit {
		jobs = jobs[:r.cfg.Limit]
	}

	listings := make([]types.Listing, 0, len(jobs))
	for _, j := range jobs {
		jobURL := j.URL
		if jobURL == "" && j.Slug != "" {
			jobURL = strings.TrimSuffix(r.cfg.BaseURL, "/") + "/remote-jobs/" + j.Slug
		}
		location := j.Location
		if strings.TrimSpace(location) == "" {
			location = "Remote"
		}
		listings = append(listings, types.Listing{
			Title:       j.Position,
			Company:     j.Company,
			Location:    location,
			Description: j.Description,
			URL:         jobURL,
			Source:      RemoteOKSource,
			SalaryRaw:   formatSalaryRange(j.SalaryMin, j.SalaryMax),
		})
	}
	return finalize(listings, r.descriptionChars), nil
}

// parseRemoteOK decodes the board's JSON array. Element 0 is metadata.
func parseRemoteOK(body []byte) ([]remoteOKJob, error) {
	var raw []json.RawMessage
	if err := json.Unmarshal(body, &raw); err != nil {
		return nil, err
	}
	if len(raw) <= 1 {
		return nil, nil
	}

	jobs := make([]remoteOKJob, 0, len(raw)-1)
	for _, item := range raw[1:] {
		var j remoteOKJob
		if err := json.Unmarshal(item, &j); err != nil || j.Position == "" {
			continue
		}
		jobs = append(jobs, j)
	}
	return jobs, nil
}

// filterRemoteJobs keeps jobs matching every significant keyword word,
// falling back to any word when nothing matches all of them. Seniority and
// role words are ignored unless the keyword has nothing else.
func filterRemoteJobs(jobs []remoteOKJob, keyword string) []remoteOKJob {
	words := significantWords(strings.Fields(strings.ToLower(keyword)))
	if len(words) == 0 {
		return jobs
	}

	haystack := func(j remoteOKJob) string {
		return strings.ToLower(j.Position + " " + j.Company + " " + strings.Join(j.Tags, " "))
	}

	var all, some []remoteOKJob
	for _, j := range jobs {
		h := haystack(j)
		matched := 0
		for _, w := range words {
			if strings.Contains(h, w) {
				matched++
			}
		}
		if matched == len(words) {
			all = append(all, j)
		}
		if matched > 0 {
			some = append(some, j)
		}
	}
	if len(all) > 0 {
		return all
	}
	return some
}

func significantWords(fields []string) []string {
	kept := make([]string, 0, len(fields))
	for _, f := range fields {
		if !remoteOKStopWords[f] {
			kept = append(kept, f)
		}
	}
	if len(kept) == 0 {
		return fields
	}
	return kept
}

// pickTag chooses the most specific word of a keyword as the board tag
func pickTag(fields []string) string {
	for _, f := range fields {
		if !remoteOKStopWords[f] && len(f) > 2 {
			return f
		}
	}
	return fields[0]
}

func formatSalaryRange(lo, hi int) string {
	switch {
	case lo == 0 && hi == 0:
		return ""
	case lo == hi || hi == 0:
		return fmt.Sprintf("$%d", max(lo, hi))
	case lo == 0:
		return fmt.Sprintf("$%d", hi)
	default:
		return fmt.Sprintf("$%d-$%d", lo, hi)
	}
}
