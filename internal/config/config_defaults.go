package config

import (
	"time"

	"github.com/spf13/viper"
)

// setDefaults sets the default configuration values
func setDefaults(v *viper.Viper) {
	// AI Configuration - Global defaults
	v.SetDefault("ai.provider", "gemini")
	v.SetDefault("ai.model", "gemini-2.0-flash")
	v.SetDefault("ai.timeout", 60*time.Second)
	v.SetDefault("ai.apiKey", "")
	v.SetDefault("ai.baseUrl", "")
	v.SetDefault("ai.maxRetries", 0) // fail soft instead of retrying
	v.SetDefault("ai.temperature", 0.2)
	v.SetDefault("ai.useSystemPrompts", true)

	// Planner: one call per run, a failure ends the run
	v.SetDefault("ai.planner.provider", "gemini")
	v.SetDefault("ai.planner.model", "")
	v.SetDefault("ai.planner.timeout", 45*time.Second)
	v.SetDefault("ai.planner.maxRetries", 0)
	v.SetDefault("ai.planner.temperature", 0.4)
	v.SetDefault("ai.planner.useSystemPrompts", true)
	v.SetDefault("ai.planner.resumeChars", 2000)

	// Scorer: one call per candidate listing
	v.SetDefault("ai.scorer.provider", "gemini")
	v.SetDefault("ai.scorer.model", "gemini-2.0-flash-lite")
	v.SetDefault("ai.scorer.timeout", 30*time.Second)
	v.SetDefault("ai.scorer.maxRetries", 0)
	v.SetDefault("ai.scorer.temperature", 0.1)
	v.SetDefault("ai.scorer.useSystemPrompts", true)
	v.SetDefault("ai.scorer.resumeChars", 1000)
	v.SetDefault("ai.scorer.descriptionChars", 1000)
	v.SetDefault("ai.scorer.concurrency", 4)

	for _, op := range []string{"planner", "scorer"} {
		prefix := "ai." + op + ".circuitBreaker."
		v.SetDefault(prefix+"enabled", true)
		v.SetDefault(prefix+"maxRequests", 3)
		v.SetDefault(prefix+"interval", 60*time.Second)
		v.SetDefault(prefix+"timeout", 60*time.Second)
		v.SetDefault(prefix+"minRequests", 5)
		v.SetDefault(prefix+"failureThreshold", 0.6)
	}

	// Search orchestration and selection
	v.SetDefault("search.maxKeywords", 3)
	v.SetDefault("search.maxLocations", 3)
	v.SetDefault("search.defaultLocation", "us")
	v.SetDefault("search.concurrency", 4)
	v.SetDefault("search.minScore", 40)
	v.SetDefault("search.maxResults", 50)
	v.SetDefault("search.inclusiveThreshold", false)

	// Sources
	v.SetDefault("sources.order", []string{SourceTier1, SourceAdzuna, SourceRemoteOK})
	v.SetDefault("sources.descriptionChars", 1500)
	v.SetDefault("sources.timeout", 20*time.Second)
	v.SetDefault("sources.userAgent", "hybridhunter/1.0")

	v.SetDefault("sources.tier1.enabled", true)
	v.SetDefault("sources.tier1.apiKey", "")
	v.SetDefault("sources.tier1.engineId", "")
	v.SetDefault("sources.tier1.endpoint", "")
	v.SetDefault("sources.tier1.chunkSize", 6)
	v.SetDefault("sources.tier1.resultsPerQuery", 10)
	v.SetDefault("sources.tier1.sampleDomains", 0)
	v.SetDefault("sources.tier1.seed", 0)
	v.SetDefault("sources.tier1.domains", []string{})
	v.SetDefault("sources.tier1.domainsFile", "")
	v.SetDefault("sources.tier1.watchDomains", false)
	v.SetDefault("sources.tier1.pacing.requestsPerSecond", 2.0)
	v.SetDefault("sources.tier1.pacing.burst", 1)

	v.SetDefault("sources.adzuna.enabled", true)
	v.SetDefault("sources.adzuna.baseUrl", "http://api.adzuna.com")
	v.SetDefault("sources.adzuna.appId", "")
	v.SetDefault("sources.adzuna.appKey", "")
	v.SetDefault("sources.adzuna.resultsPerPage", 15)
	v.SetDefault("sources.adzuna.maxDaysOld", 21)
	v.SetDefault("sources.adzuna.sortBy", "date")
	v.SetDefault("sources.adzuna.pacing.requestsPerSecond", 1.0)
	v.SetDefault("sources.adzuna.pacing.burst", 1)

	v.SetDefault("sources.remoteok.enabled", true)
	v.SetDefault("sources.remoteok.baseUrl", "https://remoteok.com")
	v.SetDefault("sources.remoteok.limit", 15)
	v.SetDefault("sources.remoteok.pacing.requestsPerSecond", 0.5)
	v.SetDefault("sources.remoteok.pacing.burst", 1)

	for _, src := range []string{SourceTier1, SourceAdzuna, SourceRemoteOK} {
		prefix := "sources." + src + ".circuitBreaker."
		v.SetDefault(prefix+"enabled", true)
		v.SetDefault(prefix+"maxRequests", 1)
		v.SetDefault(prefix+"interval", 0)
		v.SetDefault(prefix+"timeout", 2*time.Minute)
		v.SetDefault(prefix+"minRequests", 3)
		v.SetDefault(prefix+"failureThreshold", 0.8)
	}

	// Resume extraction
	v.SetDefault("extract.maxChars", 4000)
	v.SetDefault("extract.maxBytes", 10*1024*1024)

	// Delivery
	v.SetDefault("delivery.attachmentName", "Jobs.xlsx")
	v.SetDefault("delivery.smtp.enabled", true)
	v.SetDefault("delivery.smtp.host", "smtp.gmail.com")
	v.SetDefault("delivery.smtp.port", 465)
	v.SetDefault("delivery.smtp.username", "")
	v.SetDefault("delivery.smtp.password", "")
	v.SetDefault("delivery.smtp.from", "")
	v.SetDefault("delivery.smtp.timeout", 30*time.Second)

	// Server Configuration
	v.SetDefault("server.host", "localhost")
	v.SetDefault("server.port", "8080")
	v.SetDefault("server.readTimeout", 30*time.Second)
	v.SetDefault("server.writeTimeout", 5*time.Minute) // a full run scores every candidate
	v.SetDefault("server.idleTimeout", 120*time.Second)
	v.SetDefault("server.maxRequestSize", 12*1024*1024)
	v.SetDefault("server.rateLimit.enabled", true)
	v.SetDefault("server.rateLimit.requestsPerMin", 6)
	v.SetDefault("server.rateLimit.burstCapacity", 2)
	v.SetDefault("server.rateLimit.window", 10*time.Minute)

	// App Configuration
	v.SetDefault("app.logLevel", "info")
	v.SetDefault("app.defaultFormat", "text")
	v.SetDefault("app.supportedFormats", []string{"json", "text", "markdown"})

	// Vault Configuration
	v.SetDefault("vault.enabled", false)
	v.SetDefault("vault.address", "")
	v.SetDefault("vault.token", "")
	v.SetDefault("vault.tokenFile", "")
	v.SetDefault("vault.namespace", "")
	v.SetDefault("vault.secrets.gemini", "")
	v.SetDefault("vault.secrets.adzuna", "")
	v.SetDefault("vault.secrets.search", "")
	v.SetDefault("vault.secrets.smtp", "")

	// Observability Configuration
	v.SetDefault("observability.enabled", true)
	v.SetDefault("observability.serviceName", "hybridhunter")
	v.SetDefault("observability.serviceVersion", "")
	v.SetDefault("observability.serviceInstance", "")
	v.SetDefault("observability.consoleOutput", false)
	v.SetDefault("observability.tracing.enabled", true)
	v.SetDefault("observability.tracing.sampleRate", 1.0)
	v.SetDefault("observability.metrics.enabled", true)
	v.SetDefault("observability.metrics.collectionInterval", 15*time.Second)
	v.SetDefault("observability.console.enabled", false)
	v.SetDefault("observability.console.prettyPrint", true)
	v.SetDefault("observability.prometheus.enabled", false)
	v.SetDefault("observability.prometheus.endpoint", "/metrics")
	v.SetDefault("observability.prometheus.port", "9090")
	v.SetDefault("observability.otlp.enabled", false)
	v.SetDefault("observability.otlp.endpoint", "http://localhost:4318")
	v.SetDefault("observability.otlp.insecure", true)
	v.SetDefault("observability.otlp.headers", map[string]string{})
}
