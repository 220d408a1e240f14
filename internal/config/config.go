package config

import (
	"fmt"
	"log"
	"strings"
	"time"

	"hybridhunter/internal/errors"

	"github.com/spf13/viper"
)

// Config holds all application configuration.
// Secret precedence order:
// 1. Vault (if configured) - Highest priority
// 2. Config file values
// 3. Environment variables (HYBRIDHUNTER_AI_APIKEY, ADZUNA_APP_KEY, etc.)
// 4. Default values - Lowest priority
type Config struct {
	AI            AIConfig            `mapstructure:"ai"`
	Search        SearchConfig        `mapstructure:"search"`
	Sources       SourcesConfig       `mapstructure:"sources"`
	Extract       ExtractConfig       `mapstructure:"extract"`
	Delivery      DeliveryConfig      `mapstructure:"delivery"`
	Server        ServerConfig        `mapstructure:"server"`
	App           AppConfig           `mapstructure:"app"`
	Vault         VaultConfig         `mapstructure:"vault"`
	Observability ObservabilityConfig `mapstructure:"observability"`
}

// AIConfig holds language model configuration
type AIConfig struct {
	// Global/fallback configuration
	Provider         string        `mapstructure:"provider"`
	Model            string        `mapstructure:"model"`
	Timeout          time.Duration `mapstructure:"timeout"`
	APIKey           string        `mapstructure:"apiKey"`
	BaseURL          string        `mapstructure:"baseUrl"` // empty uses the public endpoint
	MaxRetries       int           `mapstructure:"maxRetries"`
	Temperature      float32       `mapstructure:"temperature"`
	UseSystemPrompts bool          `mapstructure:"useSystemPrompts"`

	// Operation-specific configurations
	Planner OperationAIConfig `mapstructure:"planner"`
	Scorer  OperationAIConfig `mapstructure:"scorer"`
}

// CircuitBreakerConfig represents circuit breaker configuration
type CircuitBreakerConfig struct {
	Enabled          bool          `mapstructure:"enabled"`          // Whether circuit breaker is enabled
	MaxRequests      uint32        `mapstructure:"maxRequests"`      // Max requests allowed when half-open
	Interval         time.Duration `mapstructure:"interval"`         // Interval to clear counts
	Timeout          time.Duration `mapstructure:"timeout"`          // Timeout for half-open to open
	MinRequests      uint32        `mapstructure:"minRequests"`      // Minimum requests before tripping
	FailureThreshold float64       `mapstructure:"failureThreshold"` // Failure ratio threshold (0.0-1.0)
}

// OperationAIConfig holds AI configuration for one model-backed operation
type OperationAIConfig struct {
	Provider         string               `mapstructure:"provider"`
	Model            string               `mapstructure:"model"`
	Timeout          *time.Duration       `mapstructure:"timeout"`
	APIKey           string               `mapstructure:"apiKey"`
	BaseURL          string               `mapstructure:"baseUrl"`
	MaxRetries       *int                 `mapstructure:"maxRetries"`
	Temperature      *float32             `mapstructure:"temperature"`
	UseSystemPrompts *bool                `mapstructure:"useSystemPrompts"`
	Prompts          PromptConfig         `mapstructure:"prompts"`
	CircuitBreaker   CircuitBreakerConfig `mapstructure:"circuitBreaker"`

	// Prompt input bounds. Text beyond these is dropped before the call.
	ResumeChars      int `mapstructure:"resumeChars"`
	DescriptionChars int `mapstructure:"descriptionChars"`

	// Concurrency is the number of in-flight calls (scorer only).
	Concurrency int `mapstructure:"concurrency"`
}

// PromptConfig holds an operation's prompt overrides. Inline text wins over
// a file; both empty means the built-in default is used.
type PromptConfig struct {
	System     string `mapstructure:"system"`
	SystemFile string `mapstructure:"systemFile"`
	User       string `mapstructure:"user"`
	UserFile   string `mapstructure:"userFile"`
}

// SearchConfig bounds the search fan-out and the final selection
type SearchConfig struct {
	MaxKeywords        int    `mapstructure:"maxKeywords"`
	MaxLocations       int    `mapstructure:"maxLocations"`
	DefaultLocation    string `mapstructure:"defaultLocation"`
	Concurrency        int    `mapstructure:"concurrency"`
	MinScore           int    `mapstructure:"minScore"`
	MaxResults         int    `mapstructure:"maxResults"`
	InclusiveThreshold bool   `mapstructure:"inclusiveThreshold"`
}

// SourcesConfig configures the listing source adapters
type SourcesConfig struct {
	// Order is the adapter priority. Earlier sources win duplicate URLs.
	Order            []string       `mapstructure:"order"`
	DescriptionChars int            `mapstructure:"descriptionChars"`
	Timeout          time.Duration  `mapstructure:"timeout"`
	UserAgent        string         `mapstructure:"userAgent"`
	Tier1            Tier1Config    `mapstructure:"tier1"`
	Adzuna           AdzunaConfig   `mapstructure:"adzuna"`
	RemoteOK         RemoteOKConfig `mapstructure:"remoteok"`
}

// PacingConfig limits outbound calls to one source
type PacingConfig struct {
	RequestsPerSecond float64 `mapstructure:"requestsPerSecond"`
	Burst             int     `mapstructure:"burst"`
}

// Tier1Config configures the site-restricted web search adapter
type Tier1Config struct {
	Enabled         bool                 `mapstructure:"enabled"`
	APIKey          string               `mapstructure:"apiKey"`
	EngineID        string               `mapstructure:"engineId"`
	Endpoint        string               `mapstructure:"endpoint"`
	ChunkSize       int                  `mapstructure:"chunkSize"`
	ResultsPerQuery int64                `mapstructure:"resultsPerQuery"`
	SampleDomains   int                  `mapstructure:"sampleDomains"`
	Seed            int64                `mapstructure:"seed"`
	Domains         []string             `mapstructure:"domains"`
	DomainsFile     string               `mapstructure:"domainsFile"`
	WatchDomains    bool                 `mapstructure:"watchDomains"`
	Pacing          PacingConfig         `mapstructure:"pacing"`
	CircuitBreaker  CircuitBreakerConfig `mapstructure:"circuitBreaker"`
}

// AdzunaConfig configures the aggregator API adapter
type AdzunaConfig struct {
	Enabled        bool                 `mapstructure:"enabled"`
	BaseURL        string               `mapstructure:"baseUrl"`
	AppID          string               `mapstructure:"appId"`
	AppKey         string               `mapstructure:"appKey"`
	ResultsPerPage int                  `mapstructure:"resultsPerPage"`
	MaxDaysOld     int                  `mapstructure:"maxDaysOld"`
	SortBy         string               `mapstructure:"sortBy"`
	Pacing         PacingConfig         `mapstructure:"pacing"`
	CircuitBreaker CircuitBreakerConfig `mapstructure:"circuitBreaker"`
}

// RemoteOKConfig configures the remote job board adapter
type RemoteOKConfig struct {
	Enabled        bool                 `mapstructure:"enabled"`
	BaseURL        string               `mapstructure:"baseUrl"`
	Limit          int                  `mapstructure:"limit"`
	Pacing         PacingConfig         `mapstructure:"pacing"`
	CircuitBreaker CircuitBreakerConfig `mapstructure:"circuitBreaker"`
}

// ExtractConfig bounds resume document extraction
type ExtractConfig struct {
	MaxChars int   `mapstructure:"maxChars"`
	MaxBytes int64 `mapstructure:"maxBytes"`
}

// DeliveryConfig holds report delivery configuration
type DeliveryConfig struct {
	AttachmentName string     `mapstructure:"attachmentName"`
	SMTP           SMTPConfig `mapstructure:"smtp"`
}

// SMTPConfig holds mail relay settings. The relay is reached over implicit TLS.
type SMTPConfig struct {
	Enabled  bool          `mapstructure:"enabled"`
	Host     string        `mapstructure:"host"`
	Port     int           `mapstructure:"port"`
	Username string        `mapstructure:"username"`
	Password string        `mapstructure:"password"`
	From     string        `mapstructure:"from"`
	Timeout  time.Duration `mapstructure:"timeout"`
}

// ServerConfig holds HTTP server configuration
type ServerConfig struct {
	Host           string        `mapstructure:"host"`
	Port           string        `mapstructure:"port"`
	ReadTimeout    time.Duration `mapstructure:"readTimeout"`
	WriteTimeout   time.Duration `mapstructure:"writeTimeout"`
	IdleTimeout    time.Duration `mapstructure:"idleTimeout"`
	MaxRequestSize int64         `mapstructure:"maxRequestSize"`

	RateLimit RateLimitConfig `mapstructure:"rateLimit"`
}

// RateLimitConfig holds rate limiting configuration
type RateLimitConfig struct {
	Enabled        bool          `mapstructure:"enabled"`        // Enable/disable rate limiting
	RequestsPerMin int           `mapstructure:"requestsPerMin"` // Requests allowed per minute
	BurstCapacity  int           `mapstructure:"burstCapacity"`  // Burst capacity for token bucket
	Window         time.Duration `mapstructure:"window"`         // Idle time before a client's limiter is dropped
}

// AppConfig holds general application configuration
type AppConfig struct {
	LogLevel         string   `mapstructure:"logLevel"`
	DefaultFormat    string   `mapstructure:"defaultFormat"`
	SupportedFormats []string `mapstructure:"supportedFormats"`
}

// ObservabilityConfig holds observability configuration
type ObservabilityConfig struct {
	Enabled         bool             `mapstructure:"enabled"`
	ServiceName     string           `mapstructure:"serviceName"`
	ServiceVersion  string           `mapstructure:"serviceVersion"`
	ServiceInstance string           `mapstructure:"serviceInstance"`
	ConsoleOutput   bool             `mapstructure:"consoleOutput"`
	Tracing         TracingConfig    `mapstructure:"tracing"`
	Metrics         MetricsConfig    `mapstructure:"metrics"`
	Console         ConsoleConfig    `mapstructure:"console"`
	Prometheus      PrometheusConfig `mapstructure:"prometheus"`
	OTLP            OTLPConfig       `mapstructure:"otlp"`
}

// TracingConfig holds tracing configuration
type TracingConfig struct {
	Enabled    bool    `mapstructure:"enabled"`
	SampleRate float64 `mapstructure:"sampleRate"`
}

// MetricsConfig holds metrics configuration
type MetricsConfig struct {
	Enabled            bool          `mapstructure:"enabled"`
	CollectionInterval time.Duration `mapstructure:"collectionInterval"`
}

// ConsoleConfig holds console output configuration
type ConsoleConfig struct {
	Enabled     bool `mapstructure:"enabled"`
	PrettyPrint bool `mapstructure:"prettyPrint"`
}

// PrometheusConfig holds Prometheus configuration
type PrometheusConfig struct {
	Enabled  bool   `mapstructure:"enabled"`
	Endpoint string `mapstructure:"endpoint"`
	Port     string `mapstructure:"port"`
}

// OTLPConfig holds OTLP exporter configuration
type OTLPConfig struct {
	Enabled  bool              `mapstructure:"enabled"`
	Endpoint string            `mapstructure:"endpoint"`
	Insecure bool              `mapstructure:"insecure"`
	Headers  map[string]string `mapstructure:"headers"`
}

// LoadConfig loads configuration from defaults, the first config.yaml found
// in the standard search paths, and environment variables.
func LoadConfig() (*Config, error) {
	return load("")
}

// LoadConfigFile is LoadConfig with an explicit config file path.
func LoadConfigFile(path string) (*Config, error) {
	return load(path)
}

func load(configFile string) (*Config, error) {
	log.Println("[CONFIG] Starting configuration loading process")

	v := viper.New()

	setDefaults(v)
	log.Println("[CONFIG] Applied default configuration values")

	v.SetEnvPrefix("HYBRIDHUNTER")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	log.Println("[CONFIG] Configured environment variable handling with prefix 'HYBRIDHUNTER'")

	if configFile != "" {
		v.SetConfigFile(configFile)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath("/etc/hybridhunter/")
		v.AddConfigPath("$HOME/.hybridhunter")
		v.AddConfigPath(".")
		log.Println("[CONFIG] Configured config file search paths: /etc/hybridhunter/, $HOME/.hybridhunter, .")
	}

	configFileUsed := ""
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok || configFile != "" {
			return nil, errors.NewConfigError(errors.ErrCodeInvalidConfig, "failed to read config file", err)
		}
		log.Println("[CONFIG] No config file found, using defaults and environment variables")
	} else {
		configFileUsed = v.ConfigFileUsed()
		log.Printf("[CONFIG] Successfully loaded config file: %s", configFileUsed)
	}

	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, errors.NewConfigError(errors.ErrCodeInvalidConfig, "failed to unmarshal config", err)
	}
	log.Println("[CONFIG] Successfully unmarshaled configuration")

	config.applyFallbacks()
	log.Println("[CONFIG] Applied configuration fallbacks and environment variable overrides")

	config.logConfigurationSources(configFileUsed)

	if err := config.loadPrompts(); err != nil {
		return nil, errors.NewConfigError(errors.ErrCodeInvalidConfig, "failed to load custom prompts", err)
	}

	if err := config.Validate(); err != nil {
		return nil, err
	}

	log.Println("[CONFIG] Configuration loading completed successfully")
	return &config, nil
}

// Validate checks if the configuration is valid
func (c *Config) Validate() error {
	invalid := func(format string, args ...any) error {
		return errors.NewConfigError(errors.ErrCodeInvalidConfig, fmt.Sprintf(format, args...), nil)
	}

	if c.AI.Timeout <= 0 {
		return invalid("AI timeout must be positive")
	}
	if c.Search.MaxKeywords < 1 {
		return invalid("search.maxKeywords must be at least 1, got %d", c.Search.MaxKeywords)
	}
	if c.Search.MaxLocations < 1 {
		return invalid("search.maxLocations must be at least 1, got %d", c.Search.MaxLocations)
	}
	if c.Search.MinScore < 0 || c.Search.MinScore > 100 {
		return invalid("search.minScore must be within 0..100, got %d", c.Search.MinScore)
	}
	if c.Search.DefaultLocation == "" {
		return invalid("search.defaultLocation is required")
	}
	if c.Sources.Tier1.ChunkSize < 1 {
		return invalid("sources.tier1.chunkSize must be at least 1, got %d", c.Sources.Tier1.ChunkSize)
	}
	if c.Sources.Tier1.ResultsPerQuery < 1 || c.Sources.Tier1.ResultsPerQuery > 10 {
		return invalid("sources.tier1.resultsPerQuery must be within 1..10, got %d", c.Sources.Tier1.ResultsPerQuery)
	}
	if c.Sources.Adzuna.ResultsPerPage < 1 || c.Sources.Adzuna.ResultsPerPage > 50 {
		return invalid("sources.adzuna.resultsPerPage must be within 1..50, got %d", c.Sources.Adzuna.ResultsPerPage)
	}
	for _, name := range c.Sources.Order {
		switch name {
		case SourceTier1, SourceAdzuna, SourceRemoteOK:
		default:
			return invalid("unknown source in sources.order: %s", name)
		}
	}
	if c.Server.Port == "" {
		return invalid("server port is required")
	}

	validFormats := make(map[string]bool)
	for _, format := range c.App.SupportedFormats {
		validFormats[format] = true
	}
	if !validFormats[c.App.DefaultFormat] {
		return invalid("invalid default format: %s", c.App.DefaultFormat)
	}

	if c.Delivery.SMTP.Enabled && (c.Delivery.SMTP.Host == "" || c.Delivery.SMTP.Port <= 0) {
		return invalid("delivery.smtp host and port are required when delivery is enabled")
	}

	return nil
}

// Source names accepted in sources.order
const (
	SourceTier1    = "tier1"
	SourceAdzuna   = "adzuna"
	SourceRemoteOK = "remoteok"
)

// applyOperationDefaults applies global defaults to operation-specific configuration
func (c *Config) applyOperationDefaults(opCfg *OperationAIConfig) {
	if opCfg.Provider == "" {
		opCfg.Provider = c.AI.Provider
	}
	if opCfg.Model == "" {
		opCfg.Model = c.AI.Model
	}
	if opCfg.Timeout == nil {
		opCfg.Timeout = &c.AI.Timeout
	}
	if opCfg.APIKey == "" {
		opCfg.APIKey = c.AI.APIKey
	}
	if opCfg.BaseURL == "" {
		opCfg.BaseURL = c.AI.BaseURL
	}
	if opCfg.MaxRetries == nil {
		opCfg.MaxRetries = &c.AI.MaxRetries
	}
	if opCfg.Temperature == nil {
		opCfg.Temperature = &c.AI.Temperature
	}
	if opCfg.UseSystemPrompts == nil {
		opCfg.UseSystemPrompts = &c.AI.UseSystemPrompts
	}
}

// GetPlannerConfig returns the AI configuration for search planning with fallback to global config
func (c *Config) GetPlannerConfig() OperationAIConfig {
	config := c.AI.Planner
	c.applyOperationDefaults(&config)
	return config
}

// GetScorerConfig returns the AI configuration for listing scoring with fallback to global config
func (c *Config) GetScorerConfig() OperationAIConfig {
	config := c.AI.Scorer
	c.applyOperationDefaults(&config)
	return config
}

// HasTier1Credentials reports whether the web search adapter can issue queries.
func (c *Config) HasTier1Credentials() bool {
	return c.Sources.Tier1.APIKey != "" && c.Sources.Tier1.EngineID != ""
}

// HasAdzunaCredentials reports whether the aggregator adapter can issue queries.
func (c *Config) HasAdzunaCredentials() bool {
	return c.Sources.Adzuna.AppID != "" && c.Sources.Adzuna.AppKey != ""
}
