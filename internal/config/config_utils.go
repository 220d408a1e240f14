package config

import (
	"fmt"
	"log"
	"os"
	"strings"
)

// applyFallbacks applies environment variable fallbacks
func (c *Config) applyFallbacks() {
	c.applyCredentialFallbacks()
	c.applyDeliveryDefaults()
	c.applyObservabilityDefaults()
}

// legacyEnv maps unprefixed environment variables onto config fields. They
// only fill values that are still empty.
func (c *Config) legacyEnv() []struct {
	name   string
	target *string
} {
	return []struct {
		name   string
		target *string
	}{
		{"GEMINI_API_KEY", &c.AI.APIKey},
		{"ADZUNA_APP_ID", &c.Sources.Adzuna.AppID},
		{"ADZUNA_APP_KEY", &c.Sources.Adzuna.AppKey},
		{"GOOGLE_API_KEY", &c.Sources.Tier1.APIKey},
		{"SEARCH_ENGINE_ID", &c.Sources.Tier1.EngineID},
		{"GMAIL_USER", &c.Delivery.SMTP.Username},
		{"GMAIL_APP_PASSWORD", &c.Delivery.SMTP.Password},
	}
}

// applyCredentialFallbacks fills credentials from unprefixed environment variables
func (c *Config) applyCredentialFallbacks() {
	for _, env := range c.legacyEnv() {
		if *env.target != "" {
			continue
		}
		if value := strings.TrimSpace(os.Getenv(env.name)); value != "" {
			*env.target = value
		}
	}
}

// applyDeliveryDefaults sends from the relay account unless told otherwise
func (c *Config) applyDeliveryDefaults() {
	if c.Delivery.SMTP.From == "" {
		c.Delivery.SMTP.From = c.Delivery.SMTP.Username
	}
	if c.Delivery.AttachmentName == "" {
		c.Delivery.AttachmentName = "Jobs.xlsx"
	}
}

// applyObservabilityDefaults applies default observability configuration values
func (c *Config) applyObservabilityDefaults() {
	if c.Observability.ServiceInstance == "" {
		c.Observability.ServiceInstance = generateServiceInstanceID(c.Observability.ServiceName)
	}
	if c.App.LogLevel == "debug" && !c.Observability.ConsoleOutput {
		c.Observability.ConsoleOutput = true
	}
}

// generateServiceInstanceID generates a unique service instance ID
func generateServiceInstanceID(serviceName string) string {
	if hostname, err := os.Hostname(); err == nil {
		return fmt.Sprintf("%s-%s", serviceName, hostname)
	}
	return fmt.Sprintf("%s-1", serviceName)
}

func isSensitiveEnv(name string) bool {
	lower := strings.ToLower(name)
	for _, marker := range []string{"key", "password", "token", "secret"} {
		if strings.Contains(lower, marker) {
			return true
		}
	}
	return false
}

func configured(value string) string {
	if value != "" {
		return "***CONFIGURED***"
	}
	return "***NOT SET***"
}

// logConfigurationSources logs a summary of configuration sources being used
func (c *Config) logConfigurationSources(configFileUsed string) {
	log.Println("[CONFIG] === Configuration Sources Summary ===")

	if configFileUsed != "" {
		log.Printf("[CONFIG] Config file: %s", configFileUsed)
	} else {
		log.Println("[CONFIG] Config file: None (using defaults)")
	}

	envVars := []string{
		"HYBRIDHUNTER_AI_APIKEY",
		"HYBRIDHUNTER_AI_MODEL",
		"HYBRIDHUNTER_SERVER_PORT",
		"HYBRIDHUNTER_SERVER_HOST",
		"HYBRIDHUNTER_APP_LOGLEVEL",
		"HYBRIDHUNTER_VAULT_ENABLED",
	}
	for _, env := range c.legacyEnv() {
		envVars = append(envVars, env.name)
	}

	log.Println("[CONFIG] Environment variables:")
	hasEnvVars := false
	for _, envVar := range envVars {
		if value := os.Getenv(envVar); value != "" {
			if isSensitiveEnv(envVar) {
				log.Printf("[CONFIG]   %s=***MASKED***", envVar)
			} else {
				log.Printf("[CONFIG]   %s=%s", envVar, value)
			}
			hasEnvVars = true
		}
	}
	if !hasEnvVars {
		log.Println("[CONFIG]   None set")
	}

	log.Println("[CONFIG] === Key Configuration Values ===")
	log.Printf("[CONFIG] AI Provider: %s", c.AI.Provider)
	log.Printf("[CONFIG] AI Model: %s", c.AI.Model)
	log.Printf("[CONFIG] AI API Key: %s", configured(c.AI.APIKey))
	log.Printf("[CONFIG] Sources: %s", strings.Join(c.Sources.Order, ", "))
	log.Printf("[CONFIG] Web search key: %s, engine: %s", configured(c.Sources.Tier1.APIKey), configured(c.Sources.Tier1.EngineID))
	log.Printf("[CONFIG] Adzuna app id: %s, key: %s", configured(c.Sources.Adzuna.AppID), configured(c.Sources.Adzuna.AppKey))
	log.Printf("[CONFIG] SMTP: %s:%d user %s", c.Delivery.SMTP.Host, c.Delivery.SMTP.Port, configured(c.Delivery.SMTP.Username))
	log.Printf("[CONFIG] Selection: minScore=%d maxResults=%d inclusive=%t",
		c.Search.MinScore, c.Search.MaxResults, c.Search.InclusiveThreshold)
	log.Printf("[CONFIG] Server: %s:%s", c.Server.Host, c.Server.Port)
	log.Printf("[CONFIG] Log Level: %s", c.App.LogLevel)
	log.Printf("[CONFIG] Vault Enabled: %t", c.Vault.Enabled)
	log.Printf("[CONFIG] Observability Enabled: %t", c.Observability.Enabled)

	log.Println("[CONFIG] === Operation-Specific AI Configurations ===")
	log.Printf("[CONFIG] Planner - Provider: %s, Model: %s", c.AI.Planner.Provider, c.AI.Planner.Model)
	log.Printf("[CONFIG] Scorer - Provider: %s, Model: %s", c.AI.Scorer.Provider, c.AI.Scorer.Model)

	log.Println("[CONFIG] =====================================")
}
