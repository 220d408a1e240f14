package server

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"mime/multipart"
	"net"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"hybridhunter/internal/ai"
	"hybridhunter/internal/config"
	"hybridhunter/internal/errors"
	"hybridhunter/internal/pipeline"
	"hybridhunter/internal/types"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakePipeline struct {
	mu      sync.Mutex
	runs    []pipeline.Request
	report  types.SearchReport
	plan    types.SearchPlan
	planErr error
}

func (f *fakePipeline) Run(ctx context.Context, req pipeline.Request) types.SearchReport {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.runs = append(f.runs, req)
	return f.report
}

func (f *fakePipeline) Plan(ctx context.Context, intent, resumeText string) (types.SearchPlan, error) {
	return f.plan, f.planErr
}

func (f *fakePipeline) lastRun(t *testing.T) pipeline.Request {
	t.Helper()
	f.mu.Lock()
	defer f.mu.Unlock()
	require.NotEmpty(t, f.runs)
	return f.runs[len(f.runs)-1]
}

type fakeExtractor struct {
	text string
	err  error
	got  []byte
}

func (f *fakeExtractor) Document(name string, r io.ReaderAt, size int64) (string, error) {
	buf := make([]byte, size)
	n, _ := r.ReadAt(buf, 0)
	f.got = buf[:n]
	return f.text, f.err
}

func newTestServer(t *testing.T, p *fakePipeline, ex *fakeExtractor, mutate func(*ServerConfig)) *httptest.Server {
	t.Helper()
	appCfg := &config.Config{}
	appCfg.Search.MinScore = 75
	appCfg.Search.MaxResults = 25

	cfg := ServerConfig{
		Version:        "test",
		MaxRequestSize: 1 << 20,
		Pipeline:       p,
		Extractor:      ex,
		Stats: func() map[string]any {
			return map[string]any{"sources": map[string]any{"Adzuna": map[string]any{"state": "closed"}}}
		},
	}
	if mutate != nil {
		mutate(&cfg)
	}

	srv := NewServer(appCfg, cfg, errors.NewNopLogger())
	ts := httptest.NewServer(srv.Handler())
	t.Cleanup(func() {
		ts.Close()
		srv.cleanupRateLimiter()
	})
	return ts
}

func postJSON(t *testing.T, url string, body any, headers map[string]string) *http.Response {
	t.Helper()
	data, err := json.Marshal(body)
	require.NoError(t, err)
	req, err := http.NewRequest(http.MethodPost, url, bytes.NewReader(data))
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	t.Cleanup(func() { _ = resp.Body.Close() })
	return resp
}

func TestSearchJSON(t *testing.T) {
	p := &fakePipeline{report: types.SearchReport{
		Status:  types.StatusCompleted,
		Message: "Found 1 matches",
		Results: []types.ScoredListing{{Listing: types.Listing{Title: "Go Engineer", URL: "https://x/1"}, MatchScore: 90}},
	}}
	ts := newTestServer(t, p, &fakeExtractor{}, nil)

	resp := postJSON(t, ts.URL+"/search", SearchRequest{
		Intent:     "remote go jobs",
		ResumeText: "ten years of Go",
		Email:      " me@example.com ",
	}, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var got types.SearchReport
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&got))
	assert.Equal(t, types.StatusCompleted, got.Status)
	require.Len(t, got.Results, 1)
	assert.Equal(t, "Go Engineer", got.Results[0].Title)

	run := p.lastRun(t)
	assert.Equal(t, "remote go jobs", run.Intent)
	assert.Equal(t, "ten years of Go", run.ResumeText)
	assert.Equal(t, "me@example.com", run.Destination)
	assert.Nil(t, run.Criteria)
}

func TestSearchCriteriaOverride(t *testing.T) {
	p := &fakePipeline{report: types.SearchReport{Status: types.StatusNoMatches, Results: []types.ScoredListing{}}}
	ts := newTestServer(t, p, &fakeExtractor{}, nil)

	minScore := 60
	resp := postJSON(t, ts.URL+"/search", SearchRequest{Intent: "go", MinScore: &minScore}, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	run := p.lastRun(t)
	require.NotNil(t, run.Criteria)
	assert.Equal(t, 60, run.Criteria.MinScore)
	assert.Equal(t, 25, run.Criteria.MaxCount)
}

func TestSearchMultipartResume(t *testing.T) {
	p := &fakePipeline{report: types.SearchReport{Status: types.StatusNoCandidates, Results: []types.ScoredListing{}}}
	ex := &fakeExtractor{text: "extracted resume"}
	ts := newTestServer(t, p, ex, nil)

	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	require.NoError(t, mw.WriteField("intent", "data engineer in Germany"))
	require.NoError(t, mw.WriteField("max_results", "5"))
	fw, err := mw.CreateFormFile("resume", "cv.pdf")
	require.NoError(t, err)
	_, err = fw.Write([]byte("%PDF-1.4 fake"))
	require.NoError(t, err)
	require.NoError(t, mw.Close())

	resp, err := http.Post(ts.URL+"/search", mw.FormDataContentType(), &body)
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	run := p.lastRun(t)
	assert.Equal(t, "data engineer in Germany", run.Intent)
	assert.Equal(t, "extracted resume", run.ResumeText)
	require.NotNil(t, run.Criteria)
	assert.Equal(t, 5, run.Criteria.MaxCount)
	assert.Equal(t, 75, run.Criteria.MinScore)
	assert.Equal(t, "%PDF-1.4 fake", string(ex.got))
}

func TestSearchUnreadableResumeIsDropped(t *testing.T) {
	p := &fakePipeline{report: types.SearchReport{Status: types.StatusNoCandidates, Results: []types.ScoredListing{}}}
	ex := &fakeExtractor{err: errors.NewIOError(errors.ErrCodeInvalidFormat, "not a PDF", nil)}
	ts := newTestServer(t, p, ex, nil)

	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	require.NoError(t, mw.WriteField("intent", "go"))
	fw, err := mw.CreateFormFile("resume", "cv.pdf")
	require.NoError(t, err)
	_, _ = fw.Write([]byte("garbage"))
	require.NoError(t, mw.Close())

	resp, err := http.Post(ts.URL+"/search", mw.FormDataContentType(), &body)
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "", p.lastRun(t).ResumeText)
}

func TestSearchValidation(t *testing.T) {
	ts := newTestServer(t, &fakePipeline{}, &fakeExtractor{}, nil)

	t.Run("missing intent", func(t *testing.T) {
		resp := postJSON(t, ts.URL+"/search", SearchRequest{Intent: "  "}, nil)
		assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	})

	t.Run("invalid email", func(t *testing.T) {
		resp := postJSON(t, ts.URL+"/search", SearchRequest{Intent: "go", Email: "nobody"}, nil)
		assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	})

	t.Run("score out of range", func(t *testing.T) {
		score := 150
		resp := postJSON(t, ts.URL+"/search", SearchRequest{Intent: "go", MinScore: &score}, nil)
		assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	})

	t.Run("wrong content type", func(t *testing.T) {
		resp, err := http.Post(ts.URL+"/search", "text/plain", strings.NewReader("intent=go"))
		require.NoError(t, err)
		defer resp.Body.Close()
		assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	})

	t.Run("bad integer", func(t *testing.T) {
		var body bytes.Buffer
		mw := multipart.NewWriter(&body)
		require.NoError(t, mw.WriteField("intent", "go"))
		require.NoError(t, mw.WriteField("min_score", "high"))
		require.NoError(t, mw.Close())
		resp, err := http.Post(ts.URL+"/search", mw.FormDataContentType(), &body)
		require.NoError(t, err)
		defer resp.Body.Close()
		assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	})

	t.Run("method not allowed", func(t *testing.T) {
		resp, err := http.Get(ts.URL + "/search")
		require.NoError(t, err)
		defer resp.Body.Close()
		assert.Equal(t, http.StatusMethodNotAllowed, resp.StatusCode)
	})
}

func TestSearchBodyTooLarge(t *testing.T) {
	ts := newTestServer(t, &fakePipeline{}, &fakeExtractor{}, func(c *ServerConfig) {
		c.MaxRequestSize = 64
	})

	resp := postJSON(t, ts.URL+"/search", SearchRequest{Intent: strings.Repeat("go ", 100)}, nil)
	assert.Equal(t, http.StatusRequestEntityTooLarge, resp.StatusCode)
}

func TestSearchPlanningFailure(t *testing.T) {
	p := &fakePipeline{report: types.SearchReport{
		Status:  types.StatusPlanningFailed,
		Message: "Could not plan the search",
		Results: []types.ScoredListing{},
		Err:     errors.NewPlanningError(errors.ErrCodePlanFailed, "model unavailable", nil),
	}}
	ts := newTestServer(t, p, &fakeExtractor{}, nil)

	resp := postJSON(t, ts.URL+"/search", SearchRequest{Intent: "go"}, nil)
	assert.Equal(t, http.StatusBadGateway, resp.StatusCode)

	var got map[string]any
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&got))
	assert.Equal(t, "planning_failed", got["status"])
	assert.Equal(t, []any{}, got["results"])
}

func TestPlanEndpoint(t *testing.T) {
	p := &fakePipeline{plan: types.SearchPlan{
		KeywordVariants: []string{"Golang Developer"},
		BroadKeywords:   []string{"Go"},
		TargetLocations: []string{"Germany"},
	}}
	ts := newTestServer(t, p, &fakeExtractor{}, nil)

	resp := postJSON(t, ts.URL+"/plan", PlanRequest{Intent: "go in germany"}, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var plan types.SearchPlan
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&plan))
	assert.Equal(t, p.plan, plan)

	p.planErr = errors.NewPlanningError(errors.ErrCodePlanInvalid, "bad shape", nil)
	resp = postJSON(t, ts.URL+"/plan", PlanRequest{Intent: "go"}, nil)
	assert.Equal(t, http.StatusBadGateway, resp.StatusCode)
}

func TestHealthIsNotRateLimited(t *testing.T) {
	ts := newTestServer(t, &fakePipeline{}, &fakeExtractor{}, func(c *ServerConfig) {
		c.RateLimit = &config.RateLimitConfig{Enabled: true, RequestsPerMin: 1, BurstCapacity: 1, Window: time.Minute}
	})

	for range 3 {
		resp, err := http.Get(ts.URL + "/health")
		require.NoError(t, err)
		_ = resp.Body.Close()
		assert.Equal(t, http.StatusOK, resp.StatusCode)
	}
}

func TestRateLimitPerClient(t *testing.T) {
	p := &fakePipeline{plan: types.SearchPlan{}}
	ts := newTestServer(t, p, &fakeExtractor{}, func(c *ServerConfig) {
		c.RateLimit = &config.RateLimitConfig{Enabled: true, RequestsPerMin: 1, BurstCapacity: 2, Window: time.Minute}
	})

	first := map[string]string{"X-Forwarded-For": "203.0.113.7"}
	assert.Equal(t, http.StatusOK, postJSON(t, ts.URL+"/plan", PlanRequest{Intent: "go"}, first).StatusCode)
	assert.Equal(t, http.StatusOK, postJSON(t, ts.URL+"/plan", PlanRequest{Intent: "go"}, first).StatusCode)
	assert.Equal(t, http.StatusTooManyRequests, postJSON(t, ts.URL+"/plan", PlanRequest{Intent: "go"}, first).StatusCode)

	other := map[string]string{"X-Forwarded-For": "198.51.100.2"}
	assert.Equal(t, http.StatusOK, postJSON(t, ts.URL+"/plan", PlanRequest{Intent: "go"}, other).StatusCode)
}

func TestStatsAndHealth(t *testing.T) {
	ts := newTestServer(t, &fakePipeline{}, &fakeExtractor{}, nil)

	resp, err := http.Get(ts.URL + "/stats")
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var stats map[string]any
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&stats))
	assert.Equal(t, "hybridhunter", stats["service"])
	assert.Contains(t, stats, "circuit_breakers")
	assert.Equal(t, map[string]any{"enabled": false}, stats["rate_limiting"])

	health, err := http.Get(ts.URL + "/health")
	require.NoError(t, err)
	defer health.Body.Close()
	var h map[string]any
	require.NoError(t, json.NewDecoder(health.Body).Decode(&h))
	assert.Equal(t, "healthy", h["status"])
	assert.Equal(t, "test", h["version"])
}

func TestHealthReportsModelReadiness(t *testing.T) {
	models := map[string]*ai.ModelInfo{
		"planner": {Name: "gemini-2.0-flash", Available: true},
		"scorer":  {Name: "gemini-2.0-flash", Available: true},
	}
	ts := newTestServer(t, &fakePipeline{}, &fakeExtractor{}, func(c *ServerConfig) {
		c.Models = func(context.Context) map[string]*ai.ModelInfo { return models }
	})

	resp, err := http.Get(ts.URL + "/health")
	require.NoError(t, err)
	var h map[string]any
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&h))
	_ = resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "healthy", h["status"])
	assert.Contains(t, h, "ai_models")

	models["scorer"] = &ai.ModelInfo{Name: "gemini-2.0-flash", Error: "quota exhausted"}
	resp, err = http.Get(ts.URL + "/health")
	require.NoError(t, err)
	defer resp.Body.Close()
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&h))
	assert.Equal(t, http.StatusServiceUnavailable, resp.StatusCode)
	assert.Equal(t, "degraded", h["status"])
}

func TestServeGracefulShutdown(t *testing.T) {
	srv := NewServer(&config.Config{}, ServerConfig{Pipeline: &fakePipeline{}, Extractor: &fakeExtractor{}}, nil)

	listener, err := (&net.ListenConfig{}).Listen(context.Background(), "tcp", "127.0.0.1:0")
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- srv.Serve(ctx, listener) }()

	require.Eventually(t, func() bool {
		resp, err := http.Get("http://" + listener.Addr().String() + "/health")
		if err != nil {
			return false
		}
		_ = resp.Body.Close()
		return resp.StatusCode == http.StatusOK
	}, 2*time.Second, 10*time.Millisecond)

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("server did not stop")
	}
}

func TestGetClientIP(t *testing.T) {
	tests := []struct {
		name    string
		headers map[string]string
		remote  string
		want    string
	}{
		{"forwarded for", map[string]string{"X-Forwarded-For": "bogus, 10.0.0.1, 10.0.0.2"}, "1.2.3.4:5", "10.0.0.1"},
		{"real ip", map[string]string{"X-Real-IP": "10.0.0.9"}, "1.2.3.4:5", "10.0.0.9"},
		{"remote addr", nil, "1.2.3.4:5", "1.2.3.4"},
		{"remote without port", nil, "1.2.3.4", "1.2.3.4"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := httptest.NewRequest(http.MethodGet, "/", nil)
			r.RemoteAddr = tt.remote
			for k, v := range tt.headers {
				r.Header.Set(k, v)
			}
			assert.Equal(t, tt.want, getClientIP(r))
		})
	}
}

func TestRateLimiterEvictsIdleClients(t *testing.T) {
	rl := NewRateLimiter(60, time.Hour, 1, nil)
	defer rl.Close()

	assert.True(t, rl.Allow("10.0.0.1"))
	assert.False(t, rl.Allow("10.0.0.1"))
	assert.Equal(t, 1, rl.GetStats()["active_clients"])

	rl.evict(time.Now().Add(2 * time.Hour))
	assert.Equal(t, 0, rl.GetStats()["active_clients"])
	assert.True(t, rl.Allow("10.0.0.1"), "an evicted client starts with a full bucket")

	rl.Close()
}
