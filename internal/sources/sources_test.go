package sources

import (
	"time"

	"hybridhunter/internal/config"
	"hybridhunter/internal/errors"
)

// testConfig returns a config with every source enabled, unpaced and without
// breakers, pointed at baseURL
func testConfig(baseURL string) *config.Config {
	cfg := &config.Config{}
	cfg.Sources.Order = []string{config.SourceTier1, config.SourceAdzuna, config.SourceRemoteOK}
	cfg.Sources.DescriptionChars = 50
	cfg.Sources.Timeout = 5 * time.Second
	cfg.Sources.UserAgent = "hybridhunter-test"

	cfg.Sources.Tier1 = config.Tier1Config{
		Enabled:         true,
		APIKey:          "cse-key",
		EngineID:        "cse-cx",
		Endpoint:        baseURL + "/",
		ChunkSize:       6,
		ResultsPerQuery: 10,
	}
	cfg.Sources.Adzuna = config.AdzunaConfig{
		Enabled:        true,
		BaseURL:        baseURL,
		AppID:          "adz-id",
		AppKey:         "adz-key",
		ResultsPerPage: 15,
		MaxDaysOld:     21,
		SortBy:         "date",
	}
	cfg.Sources.RemoteOK = config.RemoteOKConfig{
		Enabled: true,
		BaseURL: baseURL,
		Limit:   15,
	}
	return cfg
}

func testDeps() Deps {
	return Deps{Logger: errors.NewNopLogger()}
}
