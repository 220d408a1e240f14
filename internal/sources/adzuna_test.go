package sources

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"hybridhunter/internal/config"
	"hybridhunter/internal/types"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const adzunaPayload = `{"results":[
	{"title":"Identity <b>Engineer</b>","company":{"display_name":"Acme"},"location":{"display_name":"London"},
	 "salary_min":65000,"description":"<p>Own the IAM platform for a large estate of services</p>","redirect_url":"https://adzuna.example/1"},
	{"title":"Okta Admin","company":{"display_name":""},"location":{"display_name":""},
	 "salary_min":0,"description":"","redirect_url":"https://adzuna.example/2"},
	{"title":"No link","redirect_url":""}
]}`

func TestCountryCode(t *testing.T) {
	assert.Equal(t, "us", CountryCode("USA"))
	assert.Equal(t, "us", CountryCode(" United States "))
	assert.Equal(t, "gb", CountryCode("UK"))
	assert.Equal(t, "nz", CountryCode("NZ"), "unknown names pass through lowercased")
}

func TestAdzunaFetch(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/api/jobs/gb/search/1", r.URL.Path)
		q := r.URL.Query()
		assert.Equal(t, "adz-id", q.Get("app_id"))
		assert.Equal(t, "adz-key", q.Get("app_key"))
		assert.Equal(t, "15", q.Get("results_per_page"))
		assert.Equal(t, "Identity Engineer", q.Get("what"))
		assert.Equal(t, "date", q.Get("sort_by"))
		assert.Equal(t, "21", q.Get("max_days_old"))
		assert.Equal(t, "application/json", q.Get("content-type"))
		assert.Equal(t, "hybridhunter-test", r.Header.Get("User-Agent"))

		w.Header().Set("Content-Type", "application/json")
		fmt.Fprint(w, adzunaPayload)
	}))
	defer srv.Close()

	a := NewAdzuna(testConfig(srv.URL), testDeps())
	listings := a.Fetch(context.Background(), "Identity Engineer", "UK")

	require.Len(t, listings, 2)
	assert.Equal(t, types.Listing{
		Title:       "Identity Engineer",
		Company:     "Acme",
		Location:    "London (GB)",
		Description: "Own the IAM platform for a large estate of service",
		URL:         "https://adzuna.example/1",
		Source:      AdzunaSource,
		SalaryRaw:   "65000",
	}, listings[0])

	assert.Equal(t, types.NotListed, listings[1].Company)
	assert.Equal(t, types.NotListed+" (GB)", listings[1].Location)
	assert.Equal(t, types.NotListed, listings[1].SalaryRaw)
	assert.Equal(t, types.NotListed, listings[1].Description)
}

func TestAdzunaFailSoft(t *testing.T) {
	tests := []struct {
		name    string
		handler http.HandlerFunc
	}{
		{"server error", func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusInternalServerError)
		}},
		{"bad credentials", func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusUnauthorized)
		}},
		{"malformed body", func(w http.ResponseWriter, r *http.Request) {
			fmt.Fprint(w, `{"results":[`)
		}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := httptest.NewServer(tt.handler)
			defer srv.Close()

			a := NewAdzuna(testConfig(srv.URL), testDeps())
			assert.Empty(t, a.Fetch(context.Background(), "Go", "USA"))
		})
	}
}

func TestAdzunaWithoutCredentialsMakesNoCalls(t *testing.T) {
	var hits atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
	}))
	defer srv.Close()

	cfg := testConfig(srv.URL)
	cfg.Sources.Adzuna.AppKey = ""

	a := NewAdzuna(cfg, testDeps())
	assert.Nil(t, a.Fetch(context.Background(), "Go", "USA"))
	assert.Zero(t, hits.Load())
}

func TestAdzunaBreakerStopsCalls(t *testing.T) {
	var hits atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer srv.Close()

	cfg := testConfig(srv.URL)
	cfg.Sources.Adzuna.CircuitBreaker = config.CircuitBreakerConfig{
		Enabled:          true,
		MaxRequests:      1,
		Timeout:          time.Minute,
		MinRequests:      2,
		FailureThreshold: 0.5,
	}

	a := NewAdzuna(cfg, testDeps())
	for range 4 {
		assert.Empty(t, a.Fetch(context.Background(), "Go", "USA"))
	}

	assert.Equal(t, int32(2), hits.Load(), "open breaker rejects calls without reaching the server")
	assert.Equal(t, "open", a.Stats()["state"])
}

func TestFormatSalaryMin(t *testing.T) {
	assert.Equal(t, "", formatSalaryMin(0))
	assert.Equal(t, "", formatSalaryMin(-1))
	assert.Equal(t, "52000.5", formatSalaryMin(52000.5))
}
