package config

import (
	"encoding/json"
	"fmt"
	"os"
	"strconv"
	"strings"

	"hybridhunter/internal/errors"

	"github.com/hashicorp/vault/api"
)

// VaultConfig holds Vault connection configuration
type VaultConfig struct {
	Enabled   bool   `mapstructure:"enabled"`
	Address   string `mapstructure:"address"`
	Token     string `mapstructure:"token"`
	TokenFile string `mapstructure:"tokenFile"`
	Namespace string `mapstructure:"namespace"`

	Secrets VaultSecrets `mapstructure:"secrets"`
}

// VaultSecrets defines where to find secrets in Vault. Every path points at
// a KVv2 secret; empty paths are skipped.
type VaultSecrets struct {
	Gemini string `mapstructure:"gemini"` // key: api_key
	Adzuna string `mapstructure:"adzuna"` // keys: app_id, app_key
	Search string `mapstructure:"search"` // keys: api_key, engine_id
	SMTP   string `mapstructure:"smtp"`   // keys: username, password
}

// VaultClient wraps the Vault API client
type VaultClient struct {
	client *api.Client
	config VaultConfig
	logger *errors.Logger
}

// NewVaultClient creates a new Vault client from configuration
func NewVaultClient(config VaultConfig, logger *errors.Logger) (*VaultClient, error) {
	if !config.Enabled {
		if logger != nil {
			logger.Debug("Vault integration disabled")
		}
		return nil, nil
	}

	if logger != nil {
		logger.Debug("Initializing Vault client",
			"address", config.Address,
			"namespace", config.Namespace,
			"token_file", config.TokenFile,
			"has_token", config.Token != "")
	}

	client, err := createVaultAPIClient(config, logger)
	if err != nil {
		return nil, err
	}

	token, err := resolveVaultToken(config, logger)
	if err != nil {
		return nil, err
	}

	client.SetToken(token)
	if logger != nil {
		logger.Debug("Vault token configured", "token_prefix", token[:min(len(token), 8)]+"...")
	}

	if err := testVaultConnection(client, config.Address, logger); err != nil {
		return nil, err
	}

	return &VaultClient{
		client: client,
		config: config,
		logger: logger,
	}, nil
}

// createVaultAPIClient creates and configures the Vault API client
func createVaultAPIClient(config VaultConfig, logger *errors.Logger) (*api.Client, error) {
	vaultConfig := api.DefaultConfig()
	if config.Address != "" {
		vaultConfig.Address = config.Address
	}

	client, err := api.NewClient(vaultConfig)
	if err != nil {
		if logger != nil {
			logger.LogError(err, "Failed to create Vault client")
		}
		return nil, fmt.Errorf("failed to create vault client: %w", err)
	}

	if config.Namespace != "" {
		client.SetNamespace(config.Namespace)
		if logger != nil {
			logger.Debug("Set Vault namespace", "namespace", config.Namespace)
		}
	}

	return client, nil
}

// resolveVaultToken resolves the Vault token from config or file
func resolveVaultToken(config VaultConfig, logger *errors.Logger) (string, error) {
	token := config.Token

	if token == "" && config.TokenFile != "" {
		if logger != nil {
			logger.Debug("Reading Vault token from file", "file", config.TokenFile)
		}
		tokenBytes, err := os.ReadFile(config.TokenFile)
		if err != nil {
			if logger != nil {
				logger.LogError(err, "Failed to read Vault token file", "file", config.TokenFile)
			}
			return "", fmt.Errorf("failed to read vault token file: %w", err)
		}
		token = strings.TrimSpace(string(tokenBytes))
	}

	if token == "" {
		return "", fmt.Errorf("vault token is required when vault is enabled")
	}

	return token, nil
}

// testVaultConnection tests the connection to Vault
func testVaultConnection(client *api.Client, address string, logger *errors.Logger) error {
	health, err := client.Sys().Health()
	if err != nil {
		if logger != nil {
			logger.LogError(err, "Failed to connect to Vault", "address", address)
		}
		return fmt.Errorf("failed to connect to vault: %w", err)
	}

	if logger != nil {
		logger.Info("Successfully connected to Vault",
			"address", address,
			"version", health.Version,
			"sealed", health.Sealed,
			"cluster_name", health.ClusterName)
	}

	return nil
}

// VaultSecret represents a secret read from Vault's KVv2 engine.
type VaultSecret struct {
	Data    map[string]any
	Version int64
}

// GetSecretV2 retrieves a secret from a Vault KVv2 store.
func (vc *VaultClient) GetSecretV2(path string) (*VaultSecret, error) {
	if vc == nil {
		return nil, fmt.Errorf("vault client not initialized")
	}

	if vc.logger != nil {
		vc.logger.Debug("Reading secret from Vault", "path", path)
	}

	secret, err := vc.client.Logical().Read(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read secret from %s: %w", path, err)
	}
	if secret == nil || secret.Data == nil {
		return nil, fmt.Errorf("secret not found at path: %s", path)
	}

	data, err := extractSecretData(secret, path)
	if err != nil {
		return nil, err
	}

	version, err := extractSecretVersion(secret, path)
	if err != nil {
		return nil, err
	}

	return &VaultSecret{
		Data:    data,
		Version: version,
	}, nil
}

// extractSecretData extracts the data field from a KVv2 secret
func extractSecretData(secret *api.Secret, path string) (map[string]any, error) {
	data, ok := secret.Data["data"].(map[string]any)
	if !ok {
		return nil, fmt.Errorf("secret at %s is not in KVv2 format (missing 'data' field)", path)
	}
	return data, nil
}

// extractSecretVersion extracts and parses the version from a KVv2 secret
func extractSecretVersion(secret *api.Secret, path string) (int64, error) {
	metadata, ok := secret.Data["metadata"].(map[string]any)
	if !ok {
		return 0, fmt.Errorf("secret at %s is not in KVv2 format (missing 'metadata' field)", path)
	}

	versionRaw, ok := metadata["version"]
	if !ok {
		return 0, fmt.Errorf("secret metadata at %s is missing 'version' field", path)
	}

	return parseVersionValue(versionRaw, path)
}

// parseVersionValue parses version value from the types Vault's JSON decoding produces
func parseVersionValue(versionRaw any, path string) (int64, error) {
	switch v := versionRaw.(type) {
	case int64:
		return v, nil
	case float64:
		return int64(v), nil
	case json.Number:
		version, err := v.Int64()
		if err != nil {
			return 0, fmt.Errorf("could not parse secret version at %s: %w", path, err)
		}
		return version, nil
	case string:
		version, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			return 0, fmt.Errorf("could not parse secret version at %s: %w", path, err)
		}
		return version, nil
	default:
		return 0, fmt.Errorf("unexpected type for version at %s: %T", path, versionRaw)
	}
}

// stringField returns a string value from secret data
func stringField(secret *VaultSecret, path, key string) (string, error) {
	value, ok := secret.Data[key]
	if !ok {
		return "", fmt.Errorf("key '%s' not found in secret %s", key, path)
	}
	strValue, ok := value.(string)
	if !ok {
		return "", fmt.Errorf("value for key '%s' is not a string in secret %s", key, path)
	}
	return strValue, nil
}

func maskSecret(value string) string {
	switch {
	case len(value) > 8:
		return value[:4] + "****" + value[len(value)-4:]
	case len(value) > 0:
		return "****"
	default:
		return ""
	}
}

// GetStringSecret retrieves a string value from a Vault secret
func (vc *VaultClient) GetStringSecret(path, key string) (string, error) {
	secret, err := vc.GetSecretV2(path)
	if err != nil {
		return "", err
	}
	value, err := stringField(secret, path, key)
	if err != nil {
		return "", err
	}

	if vc.logger != nil {
		vc.logger.Debug("String secret retrieved from Vault",
			"path", path,
			"key", key,
			"masked_value", maskSecret(value))
	}

	return value, nil
}

// secretBinding maps one key of a Vault secret onto a config field
type secretBinding struct {
	key    string
	target *string
}

// secretBindings lists every Vault path the application reads and where each key lands
func secretBindings(config *Config) map[string][]secretBinding {
	paths := config.Vault.Secrets
	bindings := map[string][]secretBinding{}

	if paths.Gemini != "" {
		bindings[paths.Gemini] = append(bindings[paths.Gemini], secretBinding{"api_key", &config.AI.APIKey})
	}
	if paths.Adzuna != "" {
		bindings[paths.Adzuna] = append(bindings[paths.Adzuna],
			secretBinding{"app_id", &config.Sources.Adzuna.AppID},
			secretBinding{"app_key", &config.Sources.Adzuna.AppKey})
	}
	if paths.Search != "" {
		bindings[paths.Search] = append(bindings[paths.Search],
			secretBinding{"api_key", &config.Sources.Tier1.APIKey},
			secretBinding{"engine_id", &config.Sources.Tier1.EngineID})
	}
	if paths.SMTP != "" {
		bindings[paths.SMTP] = append(bindings[paths.SMTP],
			secretBinding{"username", &config.Delivery.SMTP.Username},
			secretBinding{"password", &config.Delivery.SMTP.Password})
	}

	return bindings
}

// applySecret copies the bound keys of one secret into config. Missing keys
// are reported; empty values leave the existing setting in place.
func applySecret(secret *VaultSecret, path string, bindings []secretBinding, logger *errors.Logger) (int, error) {
	applied := 0
	for _, b := range bindings {
		value, err := stringField(secret, path, b.key)
		if err != nil {
			return applied, err
		}
		if value == "" {
			if logger != nil {
				logger.Warn("Empty secret value in Vault", "path", path, "key", b.key)
			}
			continue
		}
		*b.target = value
		applied++
	}
	return applied, nil
}

// applyGeminiKeyToOperations propagates the global model key to operations that have none
func applyGeminiKeyToOperations(config *Config) {
	if config.AI.APIKey == "" {
		return
	}
	if config.AI.Planner.APIKey == "" {
		config.AI.Planner.APIKey = config.AI.APIKey
	}
	if config.AI.Scorer.APIKey == "" {
		config.AI.Scorer.APIKey = config.AI.APIKey
	}
}

// ApplyVaultSecrets loads secrets from Vault and applies them to the config
func ApplyVaultSecrets(config *Config, logger *errors.Logger) error {
	if !config.Vault.Enabled {
		if logger != nil {
			logger.Debug("Vault integration disabled, skipping secret loading")
		}
		return nil
	}

	if logger != nil {
		logger.Info("Loading secrets from Vault",
			"gemini_path", config.Vault.Secrets.Gemini,
			"adzuna_path", config.Vault.Secrets.Adzuna,
			"search_path", config.Vault.Secrets.Search,
			"smtp_path", config.Vault.Secrets.SMTP)
	}

	client, err := NewVaultClient(config.Vault, logger)
	if err != nil {
		return errors.NewConfigError(errors.ErrCodeInvalidConfig, "failed to initialize vault client", err)
	}
	if client == nil {
		return nil
	}

	return loadSecrets(client, config, logger)
}

// secretReader is the part of VaultClient loadSecrets needs
type secretReader interface {
	GetSecretV2(path string) (*VaultSecret, error)
}

func loadSecrets(client secretReader, config *Config, logger *errors.Logger) error {
	total := 0
	for path, bindings := range secretBindings(config) {
		secret, err := client.GetSecretV2(path)
		if err != nil {
			return errors.NewConfigError(errors.ErrCodeInvalidConfig, "failed to read secret from vault", err).
				WithContext("path", path)
		}
		n, err := applySecret(secret, path, bindings, logger)
		if err != nil {
			return errors.NewConfigError(errors.ErrCodeInvalidConfig, "vault secret is missing a field", err).
				WithContext("path", path)
		}
		total += n
	}

	applyGeminiKeyToOperations(config)

	if logger != nil {
		logger.Info("Successfully completed applying secrets from Vault", "values_applied", total)
	}
	return nil
}
