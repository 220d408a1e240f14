package pipeline

import (
	"context"
	"fmt"
	"testing"

	"hybridhunter/internal/config"
	"hybridhunter/internal/errors"
	"hybridhunter/internal/ranking"
	"hybridhunter/internal/search"
	"hybridhunter/internal/sources"
	"hybridhunter/internal/types"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakePlanner struct {
	plan types.SearchPlan
	err  error
}

func (f fakePlanner) Plan(context.Context, string, string) (types.SearchPlan, error) {
	return f.plan, f.err
}

type countingAdapter struct {
	listings []types.Listing
	calls    int
}

func (c *countingAdapter) Name() string                 { return "fake" }
func (c *countingAdapter) Kind() sources.Kind           { return sources.Partitioned }
func (c *countingAdapter) Keywords() sources.KeywordSet { return sources.Specific }
func (c *countingAdapter) Fetch(context.Context, string, string) []types.Listing {
	c.calls++
	return c.listings
}

type scoreByURL struct {
	scores map[string]int
	calls  int
}

func (s *scoreByURL) ScoreAll(_ context.Context, listings []types.Listing, _, _ string) []types.ScoredListing {
	s.calls++
	out := make([]types.ScoredListing, len(listings))
	for i, l := range listings {
		out[i] = types.ScoredListing{Listing: l, MatchScore: s.scores[l.URL]}
	}
	return out
}

type fakeDeliverer struct {
	err  error
	to   string
	sent int
}

func (f *fakeDeliverer) Send(_ context.Context, to string, listings []types.ScoredListing) error {
	f.to = to
	f.sent = len(listings)
	return f.err
}

func searchConfig() *config.Config {
	cfg := &config.Config{}
	cfg.Search.MaxKeywords = 3
	cfg.Search.MaxLocations = 3
	cfg.Search.Concurrency = 1
	return cfg
}

var backendPlan = types.SearchPlan{
	KeywordVariants: []string{"Backend Engineer"},
	TargetLocations: []string{"us"},
}

var criteria = ranking.Criteria{MinScore: 40, MaxCount: 10}

func threeListings() []types.Listing {
	return []types.Listing{
		{URL: "u70", Title: "A"},
		{URL: "u30", Title: "B"},
		{URL: "u90", Title: "C"},
	}
}

func TestRunSelectsAndOrdersMatches(t *testing.T) {
	adapter := &countingAdapter{listings: threeListings()}
	scorer := &scoreByURL{scores: map[string]int{"u70": 70, "u30": 30, "u90": 90}}
	runner := NewRunner(fakePlanner{plan: backendPlan},
		search.New([]sources.Adapter{adapter}, searchConfig(), nil, nil), scorer, criteria, nil)

	report := runner.Run(context.Background(), Request{Intent: "backend roles"})

	assert.Equal(t, types.StatusCompleted, report.Status)
	assert.Equal(t, 3, report.Candidates)
	require.Len(t, report.Results, 2)
	assert.Equal(t, 90, report.Results[0].MatchScore)
	assert.Equal(t, 70, report.Results[1].MatchScore)
	assert.Equal(t, "Found 2 matches", report.Message)
	require.NotNil(t, report.Plan)
	assert.NoError(t, report.Err)
}

func TestRunPlanningFailureMakesNoSourceCalls(t *testing.T) {
	adapter := &countingAdapter{listings: threeListings()}
	scorer := &scoreByURL{}
	planErr := errors.NewPlanningError(errors.ErrCodePlanFailed, "could not plan search", fmt.Errorf("model down"))
	runner := NewRunner(fakePlanner{err: planErr},
		search.New([]sources.Adapter{adapter}, searchConfig(), nil, nil), scorer, criteria, nil)

	report := runner.Run(context.Background(), Request{Intent: "anything"})

	assert.Equal(t, types.StatusPlanningFailed, report.Status)
	assert.True(t, errors.IsType(report.Err, errors.ErrorTypePlanning))
	assert.NotEmpty(t, report.Error)
	assert.Nil(t, report.Plan)
	assert.Zero(t, adapter.calls)
	assert.Zero(t, scorer.calls)
}

func TestRunNoCandidatesSkipsScoring(t *testing.T) {
	adapter := &countingAdapter{}
	scorer := &scoreByURL{}
	runner := NewRunner(fakePlanner{plan: backendPlan},
		search.New([]sources.Adapter{adapter}, searchConfig(), nil, nil), scorer, criteria, nil)

	report := runner.Run(context.Background(), Request{Intent: "x"})

	assert.Equal(t, types.StatusNoCandidates, report.Status)
	assert.Equal(t, "No listings found", report.Message)
	assert.Equal(t, 1, adapter.calls)
	assert.Zero(t, scorer.calls)
	assert.NotNil(t, report.Results)
	assert.Empty(t, report.Results)
}

func TestRunNoMatches(t *testing.T) {
	adapter := &countingAdapter{listings: threeListings()}
	scorer := &scoreByURL{scores: map[string]int{}}
	runner := NewRunner(fakePlanner{plan: backendPlan},
		search.New([]sources.Adapter{adapter}, searchConfig(), nil, nil), scorer, criteria, nil)

	report := runner.Run(context.Background(), Request{Intent: "x"})

	assert.Equal(t, types.StatusNoMatches, report.Status)
	assert.Equal(t, 3, report.Candidates)
	assert.Contains(t, report.Message, "try relaxing your criteria")
}

func TestRunCriteriaOverride(t *testing.T) {
	adapter := &countingAdapter{listings: threeListings()}
	scorer := &scoreByURL{scores: map[string]int{"u70": 70, "u30": 30, "u90": 90}}
	runner := NewRunner(fakePlanner{plan: backendPlan},
		search.New([]sources.Adapter{adapter}, searchConfig(), nil, nil), scorer, criteria, nil)

	report := runner.Run(context.Background(), Request{
		Intent:   "x",
		Criteria: &ranking.Criteria{MinScore: 10, MaxCount: 1},
	})
	require.Len(t, report.Results, 1)
	assert.Equal(t, "u90", report.Results[0].URL)
}

func TestRunDelivery(t *testing.T) {
	newRunner := func(d Deliverer) *Runner {
		adapter := &countingAdapter{listings: threeListings()}
		scorer := &scoreByURL{scores: map[string]int{"u70": 70, "u90": 90}}
		return NewRunner(fakePlanner{plan: backendPlan},
			search.New([]sources.Adapter{adapter}, searchConfig(), nil, nil), scorer, criteria, nil,
			WithDeliverer(d))
	}

	t.Run("delivered", func(t *testing.T) {
		d := &fakeDeliverer{}
		report := newRunner(d).Run(context.Background(), Request{Intent: "x", Destination: " me@example.com "})

		assert.Equal(t, types.StatusDelivered, report.Status)
		assert.Equal(t, "me@example.com", report.Delivered)
		assert.Equal(t, "me@example.com", d.to)
		assert.Equal(t, 2, d.sent)
	})

	t.Run("delivery failure keeps results", func(t *testing.T) {
		d := &fakeDeliverer{err: fmt.Errorf("smtp: connection refused")}
		report := newRunner(d).Run(context.Background(), Request{Intent: "x", Destination: "me@example.com"})

		assert.Equal(t, types.StatusDeliveryFailed, report.Status)
		assert.Len(t, report.Results, 2)
		assert.True(t, errors.IsType(report.Err, errors.ErrorTypeDelivery))
		assert.Contains(t, report.Error, "connection refused")
		assert.Empty(t, report.Delivered)
	})

	t.Run("no destination", func(t *testing.T) {
		d := &fakeDeliverer{}
		report := newRunner(d).Run(context.Background(), Request{Intent: "x"})

		assert.Equal(t, types.StatusCompleted, report.Status)
		assert.Zero(t, d.sent)
	})
}
