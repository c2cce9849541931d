package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/awantoch/flowbridge/constants"
	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"
)

type Config struct {
	N8N      N8NConfig      `json:"n8n" yaml:"n8n"`
	Storage  StorageConfig  `json:"storage" yaml:"storage"`
	Sessions SessionConfig  `json:"sessions" yaml:"sessions"`
	Nodes    NodesConfig    `json:"nodes" yaml:"nodes"`
	Event    EventConfig    `json:"event" yaml:"event"`
	Telegram TelegramConfig `json:"telegram" yaml:"telegram"`
	LLM      LLMConfig      `json:"llm" yaml:"llm"`
	Weather  WeatherConfig  `json:"weather" yaml:"weather"`
	HTTP     HTTPConfig     `json:"http" yaml:"http"`
	Tracing  TracingConfig  `json:"tracing" yaml:"tracing"`
	Log      LogConfig      `json:"log" yaml:"log"`
}

// N8NConfig points at the n8n instance whose public REST API is wrapped.
type N8NConfig struct {
	BaseURL        string `json:"base_url" yaml:"base_url" validate:"omitempty,url"`
	APIKey         string `json:"api_key" yaml:"api_key"`
	TimeoutSeconds int    `json:"timeout_seconds" yaml:"timeout_seconds" validate:"gte=0"`
}

// StorageConfig selects the local workflow store.
type StorageConfig struct {
	Driver    string `json:"driver" yaml:"driver" validate:"omitempty,oneof=filesystem s3 memory"`
	Directory string `json:"directory" yaml:"directory"`
	Bucket    string `json:"bucket" yaml:"bucket" validate:"required_if=Driver s3"`
	Region    string `json:"region" yaml:"region" validate:"required_if=Driver s3"`
	Prefix    string `json:"prefix" yaml:"prefix"`
}

// SessionConfig selects where agent conversation history is kept.
type SessionConfig struct {
	Driver     string `json:"driver" yaml:"driver" validate:"omitempty,oneof=memory sqlite postgres"`
	DSN        string `json:"dsn" yaml:"dsn" validate:"required_if=Driver postgres"`
	MaxHistory int    `json:"max_history" yaml:"max_history" validate:"gte=0"`
}

type NodesConfig struct {
	Directory       string `json:"directory" yaml:"directory"`
	CacheTTLSeconds int    `json:"cache_ttl_seconds" yaml:"cache_ttl_seconds" validate:"gte=0"`
	CacheSizeBytes  int    `json:"cache_size_bytes" yaml:"cache_size_bytes" validate:"gte=0"`
}

// EventConfig selects the event bus; nats means NATS Streaming.
type EventConfig struct {
	Driver    string `json:"driver" yaml:"driver" validate:"omitempty,oneof=memory nats"`
	URL       string `json:"url" yaml:"url" validate:"required_if=Driver nats"`
	ClusterID string `json:"cluster_id" yaml:"cluster_id"`
	ClientID  string `json:"client_id" yaml:"client_id"`
}

type TelegramConfig struct {
	Token          string `json:"token" yaml:"token"`
	BaseURL        string `json:"base_url" yaml:"base_url" validate:"omitempty,url"`
	WebhookSecret  string `json:"webhook_secret" yaml:"webhook_secret"`
	PollTimeoutSec int    `json:"poll_timeout_seconds" yaml:"poll_timeout_seconds" validate:"gte=0"`
}

// LLMConfig configures the OpenAI-compatible chat completion endpoint used by the agent.
type LLMConfig struct {
	APIKey  string `json:"api_key" yaml:"api_key"`
	BaseURL string `json:"base_url" yaml:"base_url" validate:"omitempty,url"`
	Model   string `json:"model" yaml:"model"`
}

type WeatherConfig struct {
	GeocodingURL string `json:"geocoding_url" yaml:"geocoding_url" validate:"omitempty,url"`
	ForecastURL  string `json:"forecast_url" yaml:"forecast_url" validate:"omitempty,url"`
}

type HTTPConfig struct {
	Host string `json:"host" yaml:"host"`
	Port int    `json:"port" yaml:"port" validate:"gte=0,lte=65535"`
}

type TracingConfig struct {
	Exporter    string `json:"exporter" yaml:"exporter" validate:"omitempty,oneof=none stdout otlp"`
	Endpoint    string `json:"endpoint" yaml:"endpoint"`
	ServiceName string `json:"service_name" yaml:"service_name"`
}

type LogConfig struct {
	Level string `json:"level" yaml:"level" validate:"omitempty,oneof=debug info warn error"`
}

// LoadConfig reads a config file. Files ending in .yaml or .yml are decoded as
// YAML, everything else as JSON.
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var cfg Config
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config %s: %w", path, err)
		}
	default:
		if err := json.Unmarshal(data, &cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config %s: %w", path, err)
		}
	}
	return &cfg, nil
}

// Load reads the config file when it exists, then applies environment
// overrides and defaults and validates the result. A missing file is not an
// error.
func Load(path string) (*Config, error) {
	cfg := &Config{}
	if path != "" {
		loaded, err := LoadConfig(path)
		switch {
		case err == nil:
			cfg = loaded
		case errors.Is(err, os.ErrNotExist):
		default:
			return nil, err
		}
	}
	ApplyEnv(cfg)
	ApplyDefaults(cfg)
	if err := Validate(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

// ApplyEnv overrides config values with any environment variables that are set.
func ApplyEnv(cfg *Config) {
	setString(&cfg.N8N.BaseURL, constants.EnvN8NBaseURL)
	setString(&cfg.N8N.APIKey, constants.EnvN8NAPIKey)
	setString(&cfg.Storage.Directory, constants.EnvWorkflowsDir)
	setString(&cfg.Storage.Bucket, constants.EnvWorkflowS3Bucket)
	setString(&cfg.Storage.Region, constants.EnvWorkflowS3Region)
	setString(&cfg.Nodes.Directory, constants.EnvNodesDir)
	setString(&cfg.Sessions.Driver, constants.EnvSessionDriver)
	setString(&cfg.Sessions.DSN, constants.EnvSessionDSN)
	setString(&cfg.Telegram.Token, constants.EnvTelegramToken)
	setString(&cfg.Telegram.WebhookSecret, constants.EnvTelegramSecret)
	setString(&cfg.LLM.APIKey, constants.EnvOpenAIAPIKey)
	setString(&cfg.LLM.BaseURL, constants.EnvOpenAIBaseURL)
	setString(&cfg.LLM.Model, constants.EnvOpenAIModel)
	setString(&cfg.Tracing.Exporter, constants.EnvTracingExporter)
	setString(&cfg.Tracing.Endpoint, constants.EnvTracingEndpoint)
	if v := os.Getenv(constants.EnvHTTPPort); v != "" {
		if port, err := strconv.Atoi(v); err == nil {
			cfg.HTTP.Port = port
		}
	}
}

func setString(dst *string, env string) {
	if v := os.Getenv(env); v != "" {
		*dst = v
	}
}

// ApplyDefaults fills every unset field with its default.
func ApplyDefaults(cfg *Config) {
	if cfg.N8N.BaseURL == "" {
		cfg.N8N.BaseURL = DefaultN8NBaseURL
	}
	if cfg.N8N.TimeoutSeconds == 0 {
		cfg.N8N.TimeoutSeconds = DefaultHTTPTimeoutSeconds
	}
	if cfg.Storage.Driver == "" {
		cfg.Storage.Driver = constants.StorageDriverFilesystem
	}
	if cfg.Storage.Directory == "" {
		cfg.Storage.Directory = DefaultWorkflowsDir
	}
	if cfg.Sessions.Driver == "" {
		cfg.Sessions.Driver = constants.StorageDriverMemory
	}
	if cfg.Sessions.Driver == constants.StorageDriverSQLite && cfg.Sessions.DSN == "" {
		cfg.Sessions.DSN = DefaultSQLiteDSN
	}
	if cfg.Sessions.MaxHistory == 0 {
		cfg.Sessions.MaxHistory = DefaultMaxHistory
	}
	if cfg.Nodes.Directory == "" {
		cfg.Nodes.Directory = DefaultNodesDir
	}
	if cfg.Nodes.CacheTTLSeconds == 0 {
		cfg.Nodes.CacheTTLSeconds = DefaultNodeCacheTTLSeconds
	}
	if cfg.Nodes.CacheSizeBytes == 0 {
		cfg.Nodes.CacheSizeBytes = DefaultNodeCacheSizeBytes
	}
	if cfg.Event.Driver == "" {
		cfg.Event.Driver = constants.EventDriverMemory
	}
	if cfg.Event.ClusterID == "" {
		cfg.Event.ClusterID = DefaultNATSClusterID
	}
	if cfg.Event.ClientID == "" {
		cfg.Event.ClientID = DefaultNATSClientID
	}
	if cfg.Telegram.BaseURL == "" {
		cfg.Telegram.BaseURL = DefaultTelegramBaseURL
	}
	if cfg.Telegram.PollTimeoutSec == 0 {
		cfg.Telegram.PollTimeoutSec = DefaultTelegramPollTimeout
	}
	if cfg.LLM.BaseURL == "" {
		cfg.LLM.BaseURL = DefaultOpenAIBaseURL
	}
	if cfg.LLM.Model == "" {
		cfg.LLM.Model = DefaultOpenAIModel
	}
	if cfg.Weather.GeocodingURL == "" {
		cfg.Weather.GeocodingURL = DefaultGeocodingURL
	}
	if cfg.Weather.ForecastURL == "" {
		cfg.Weather.ForecastURL = DefaultForecastURL
	}
	if cfg.HTTP.Port == 0 {
		cfg.HTTP.Port = DefaultHTTPPort
	}
	if cfg.Tracing.ServiceName == "" {
		cfg.Tracing.ServiceName = DefaultServiceName
	}
	if cfg.Log.Level == "" {
		cfg.Log.Level = "info"
	}
}

var validate = validator.New(validator.WithRequiredStructEnabled())

// Validate checks the struct tags on the config and returns a readable error
// listing every offending field.
func Validate(cfg *Config) error {
	err := validate.Struct(cfg)
	if err == nil {
		return nil
	}
	var validationErrors validator.ValidationErrors
	if !errors.As(err, &validationErrors) {
		return err
	}
	msgs := make([]string, 0, len(validationErrors))
	for _, fe := range validationErrors {
		msgs = append(msgs, fmt.Sprintf("%s failed %q", fe.Namespace(), fe.Tag()))
	}
	return fmt.Errorf("invalid config: %s", strings.Join(msgs, "; "))
}

// Addr returns the HTTP listen address.
func (c HTTPConfig) Addr() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}
