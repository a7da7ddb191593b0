// Package config provides configuration management for the zoom-resume application
package config

import (
	"encoding/base64"
	"encoding/json"
	"fmt"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// ZoomConfig holds Zoom API authentication and connection settings
type ZoomConfig struct {
	AccountID    string `yaml:"account_id" json:"account_id"`
	ClientID     string `yaml:"client_id" json:"client_id"`
	ClientSecret string `yaml:"client_secret" json:"client_secret"`
	BaseURL      string `yaml:"base_url" json:"base_url"`
}

// ProcessorConfig holds the external batch processor endpoint settings
type ProcessorConfig struct {
	BaseURL   string `yaml:"base_url" json:"base_url"`
	AuthToken string `yaml:"auth_token" json:"auth_token"`
}

// GoogleConfig holds Google service-account credentials. Three sources are
// recognized, tried in order: individual fields, a combined JSON document,
// and a base64-encoded JSON document. The first source that yields a
// complete credential wins.
type GoogleConfig struct {
	ClientEmail        string `yaml:"client_email" json:"client_email"`
	PrivateKey         string `yaml:"private_key" json:"private_key"`
	ProjectID          string `yaml:"project_id" json:"project_id"`
	ServiceAccountJSON string `yaml:"service_account_json" json:"service_account_json"`
	ServiceAccountB64  string `yaml:"service_account_base64" json:"service_account_base64"`
}

// ServiceAccount is a resolved Google credential
type ServiceAccount struct {
	ClientEmail string `json:"client_email"`
	PrivateKey  string `json:"private_key"`
	ProjectID   string `json:"project_id"`
	Source      string `json:"-"` // which fallback produced it
}

// ImportConfig holds manifest and resume settings
type ImportConfig struct {
	InputFile      string `yaml:"input_file" json:"input_file"`
	Delimiter      string `yaml:"delimiter" json:"delimiter"`
	CheckpointFile string `yaml:"checkpoint_file" json:"checkpoint_file"`
	Policy         string `yaml:"policy" json:"policy"`
	ImportLog      string `yaml:"import_log" json:"import_log"`
	RetryAttempts  int    `yaml:"retry_attempts" json:"retry_attempts"`
	TimeoutSeconds int    `yaml:"timeout_seconds" json:"timeout_seconds"`
	PreviewTail    int    `yaml:"preview_tail" json:"preview_tail"`
}

// TimeoutDuration returns the per-record timeout as a time.Duration
func (i ImportConfig) TimeoutDuration() time.Duration {
	return time.Duration(i.TimeoutSeconds) * time.Second
}

// DelimiterRune returns the manifest delimiter as a rune
func (i ImportConfig) DelimiterRune() rune {
	if i.Delimiter == "" {
		return ','
	}
	return []rune(i.Delimiter)[0]
}

// LoggingConfig holds logging settings
type LoggingConfig struct {
	Level      string `yaml:"level" json:"level"`
	File       string `yaml:"file" json:"file"`
	Console    bool   `yaml:"console" json:"console"`
	JSONFormat bool   `yaml:"json_format" json:"json_format"`
}

// ActiveHostsConfig holds active host list settings
type ActiveHostsConfig struct {
	File         string `yaml:"file" json:"file"`
	CheckEnabled bool   `yaml:"check_enabled" json:"check_enabled"`
}

// Config represents the complete application configuration
type Config struct {
	Zoom        ZoomConfig        `yaml:"zoom" json:"zoom"`
	Processor   ProcessorConfig   `yaml:"processor" json:"processor"`
	Google      GoogleConfig      `yaml:"google" json:"google"`
	Import      ImportConfig      `yaml:"import" json:"import"`
	Logging     LoggingConfig     `yaml:"logging" json:"logging"`
	ActiveHosts ActiveHostsConfig `yaml:"active_hosts" json:"active_hosts"`
}

// LoadConfig loads configuration from a YAML file with defaults and environment variable overrides
func LoadConfig(configPath string) (*Config, error) {
	config := &Config{}

	// Load from YAML file
	if err := config.loadFromFile(configPath); err != nil {
		return nil, fmt.Errorf("failed to load config from file: %w", err)
	}

	// Apply defaults
	config.setDefaults()

	// Override with environment variables
	config.loadFromEnvironment()

	// Validate configuration
	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return config, nil
}

// loadFromFile loads configuration from a YAML file
func (c *Config) loadFromFile(configPath string) error {
	data, err := os.ReadFile(configPath)
	if err != nil {
		return fmt.Errorf("failed to read config file %s: %w", configPath, err)
	}

	if err := yaml.Unmarshal(data, c); err != nil {
		return fmt.Errorf("failed to parse YAML config: %w", err)
	}

	return nil
}

// setDefaults applies default values for missing configuration
func (c *Config) setDefaults() {
	// Zoom defaults
	if c.Zoom.BaseURL == "" {
		c.Zoom.BaseURL = "https://api.zoom.us/v2"
	}

	// Import defaults
	if c.Import.InputFile == "" {
		c.Import.InputFile = "./recordings.csv"
	}
	if c.Import.CheckpointFile == "" {
		c.Import.CheckpointFile = "./checkpoint.json"
	}
	if c.Import.Policy == "" {
		c.Import.Policy = "identity"
	}
	if c.Import.ImportLog == "" {
		c.Import.ImportLog = "./import-log.csv"
	}
	if c.Import.RetryAttempts == 0 {
		c.Import.RetryAttempts = 3
	}
	if c.Import.TimeoutSeconds == 0 {
		c.Import.TimeoutSeconds = 300
	}
	if c.Import.PreviewTail == 0 {
		c.Import.PreviewTail = 3
	}

	// Logging defaults
	if c.Logging.Level == "" {
		c.Logging.Level = "info"
	}
	if c.Logging.File == "" {
		c.Logging.File = "./zoom-resume.log"
	}
	// Console defaults to true (if not explicitly configured)
	// Note: This will always set to true, override in YAML if false is desired
	c.Logging.Console = true

	// Active hosts defaults
	if c.ActiveHosts.File == "" {
		c.ActiveHosts.File = "./active_hosts.txt"
	}
	// CheckEnabled defaults to true (if not explicitly configured)
	// Note: This will always set to true, override in YAML if false is desired
	c.ActiveHosts.CheckEnabled = true
}

// loadFromEnvironment overrides configuration with environment variables.
// Recognized keys:
//
//	ZOOM_ACCOUNT_ID, ZOOM_CLIENT_ID, ZOOM_CLIENT_SECRET, ZOOM_BASE_URL
//	PROCESSOR_BASE_URL, PROCESSOR_AUTH_TOKEN
//	GOOGLE_CLIENT_EMAIL, GOOGLE_PRIVATE_KEY, GOOGLE_PROJECT_ID
//	GOOGLE_SERVICE_ACCOUNT_JSON, GOOGLE_SERVICE_ACCOUNT_BASE64
//	IMPORT_INPUT_FILE, IMPORT_CHECKPOINT_FILE
func (c *Config) loadFromEnvironment() {
	if val := os.Getenv("ZOOM_ACCOUNT_ID"); val != "" {
		c.Zoom.AccountID = val
	}
	if val := os.Getenv("ZOOM_CLIENT_ID"); val != "" {
		c.Zoom.ClientID = val
	}
	if val := os.Getenv("ZOOM_CLIENT_SECRET"); val != "" {
		c.Zoom.ClientSecret = val
	}
	if val := os.Getenv("ZOOM_BASE_URL"); val != "" {
		c.Zoom.BaseURL = val
	}

	if val := os.Getenv("PROCESSOR_BASE_URL"); val != "" {
		c.Processor.BaseURL = val
	}
	if val := os.Getenv("PROCESSOR_AUTH_TOKEN"); val != "" {
		c.Processor.AuthToken = val
	}

	if val := os.Getenv("GOOGLE_CLIENT_EMAIL"); val != "" {
		c.Google.ClientEmail = val
	}
	if val := os.Getenv("GOOGLE_PRIVATE_KEY"); val != "" {
		c.Google.PrivateKey = val
	}
	if val := os.Getenv("GOOGLE_PROJECT_ID"); val != "" {
		c.Google.ProjectID = val
	}
	if val := os.Getenv("GOOGLE_SERVICE_ACCOUNT_JSON"); val != "" {
		c.Google.ServiceAccountJSON = val
	}
	if val := os.Getenv("GOOGLE_SERVICE_ACCOUNT_BASE64"); val != "" {
		c.Google.ServiceAccountB64 = val
	}

	if val := os.Getenv("IMPORT_INPUT_FILE"); val != "" {
		c.Import.InputFile = val
	}
	if val := os.Getenv("IMPORT_CHECKPOINT_FILE"); val != "" {
		c.Import.CheckpointFile = val
	}
}

// ResolveServiceAccount resolves the Google credential using the documented
// fallback order: individual fields, then the combined JSON document, then
// the base64-encoded JSON document. Returns an error when no source yields a
// complete credential.
func (g GoogleConfig) ResolveServiceAccount() (*ServiceAccount, error) {
	if g.ClientEmail != "" && g.PrivateKey != "" {
		return &ServiceAccount{
			ClientEmail: g.ClientEmail,
			PrivateKey:  normalizePrivateKey(g.PrivateKey),
			ProjectID:   g.ProjectID,
			Source:      "fields",
		}, nil
	}

	if g.ServiceAccountJSON != "" {
		sa, err := parseServiceAccountJSON([]byte(g.ServiceAccountJSON))
		if err != nil {
			return nil, fmt.Errorf("invalid service_account_json: %w", err)
		}
		sa.Source = "json"
		return sa, nil
	}

	if g.ServiceAccountB64 != "" {
		decoded, err := base64.StdEncoding.DecodeString(strings.TrimSpace(g.ServiceAccountB64))
		if err != nil {
			return nil, fmt.Errorf("invalid service_account_base64: %w", err)
		}
		sa, err := parseServiceAccountJSON(decoded)
		if err != nil {
			return nil, fmt.Errorf("invalid service_account_base64 payload: %w", err)
		}
		sa.Source = "base64"
		return sa, nil
	}

	return nil, fmt.Errorf("no Google credentials configured (set client_email/private_key, service_account_json, or service_account_base64)")
}

// Configured reports whether any Google credential source is set
func (g GoogleConfig) Configured() bool {
	return g.ClientEmail != "" || g.PrivateKey != "" || g.ServiceAccountJSON != "" || g.ServiceAccountB64 != ""
}

// parseServiceAccountJSON extracts the credential fields from a service
// account JSON document.
func parseServiceAccountJSON(data []byte) (*ServiceAccount, error) {
	var doc struct {
		ClientEmail string `json:"client_email"`
		PrivateKey  string `json:"private_key"`
		ProjectID   string `json:"project_id"`
	}
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("failed to parse JSON: %w", err)
	}
	if doc.ClientEmail == "" {
		return nil, fmt.Errorf("missing client_email")
	}
	if doc.PrivateKey == "" {
		return nil, fmt.Errorf("missing private_key")
	}
	return &ServiceAccount{
		ClientEmail: doc.ClientEmail,
		PrivateKey:  normalizePrivateKey(doc.PrivateKey),
		ProjectID:   doc.ProjectID,
	}, nil
}

// normalizePrivateKey converts escaped newlines, common in env-sourced keys,
// into real ones.
func normalizePrivateKey(key string) string {
	return strings.ReplaceAll(key, `\n`, "\n")
}

// Validate performs validation on the loaded configuration
func (c *Config) Validate() error {
	// Validate required Zoom configuration
	if c.Zoom.AccountID == "" {
		return fmt.Errorf("zoom.account_id is required")
	}
	if c.Zoom.ClientID == "" {
		return fmt.Errorf("zoom.client_id is required")
	}
	if c.Zoom.ClientSecret == "" {
		return fmt.Errorf("zoom.client_secret is required")
	}

	// Validate import configuration
	if c.Import.InputFile == "" {
		return fmt.Errorf("import.input_file is required")
	}
	if c.Import.CheckpointFile == "" {
		return fmt.Errorf("import.checkpoint_file is required")
	}
	if c.Import.Policy != "count" && c.Import.Policy != "identity" {
		return fmt.Errorf("import.policy must be one of: count, identity")
	}
	if len([]rune(c.Import.Delimiter)) > 1 {
		return fmt.Errorf("import.delimiter must be a single character")
	}
	if c.Import.RetryAttempts < 0 {
		return fmt.Errorf("import.retry_attempts must be >= 0")
	}
	if c.Import.TimeoutSeconds <= 0 {
		return fmt.Errorf("import.timeout_seconds must be greater than 0")
	}

	// Google credentials are optional, but when any source is set it must
	// resolve to a complete credential at startup rather than mid-run.
	if c.Google.Configured() {
		if _, err := c.Google.ResolveServiceAccount(); err != nil {
			return fmt.Errorf("google credentials: %w", err)
		}
	}

	// Validate logging configuration
	validLogLevels := map[string]bool{
		"debug": true,
		"info":  true,
		"warn":  true,
		"error": true,
	}
	if !validLogLevels[strings.ToLower(c.Logging.Level)] {
		return fmt.Errorf("logging.level must be one of: debug, info, warn, error")
	}

	return nil
}
