// Package config loads UltrAI's process configuration: built-in defaults,
// overridden by an optional YAML file, overridden in turn by environment
// variables.
package config

import (
	"fmt"
	"os"
	"reflect"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/ultrai-project/ultrai-core/types"
)

// Config is UltrAI's complete process configuration.
type Config struct {
	Server       ServerConfig       `yaml:"server" env:"SERVER"`
	Providers    ProvidersConfig    `yaml:"providers" env:"PROVIDERS"`
	Orchestrator OrchestratorConfig `yaml:"orchestrator" env:"ORCHESTRATOR"`
	Redis        RedisConfig        `yaml:"redis" env:"REDIS"`
	Log          LogConfig          `yaml:"log" env:"LOG"`
	Telemetry    TelemetryConfig    `yaml:"telemetry" env:"TELEMETRY"`
}

// ServerConfig configures the HTTP and metrics listeners.
type ServerConfig struct {
	HTTPPort        int           `yaml:"http_port" env:"HTTP_PORT"`
	MetricsPort     int           `yaml:"metrics_port" env:"METRICS_PORT"`
	ReadTimeout     time.Duration `yaml:"read_timeout" env:"READ_TIMEOUT"`
	WriteTimeout    time.Duration `yaml:"write_timeout" env:"WRITE_TIMEOUT"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout" env:"SHUTDOWN_TIMEOUT"`
}

// ProvidersConfig carries one API key per upstream provider. A provider
// with an empty key is permanently unavailable for the process lifetime
// (§4.3).
type ProvidersConfig struct {
	OpenAIAPIKey      string `yaml:"openai_api_key" env:"OPENAI_API_KEY"`
	AnthropicAPIKey   string `yaml:"anthropic_api_key" env:"ANTHROPIC_API_KEY"`
	GoogleAPIKey      string `yaml:"google_api_key" env:"GOOGLE_API_KEY"`
	HuggingFaceAPIKey string `yaml:"huggingface_api_key" env:"HUGGINGFACE_API_KEY"`
}

// Credentials returns the provider→key map the Provider Health & Fallback
// Manager is seeded with at startup.
func (p ProvidersConfig) Credentials() map[types.Provider]string {
	return map[types.Provider]string{
		types.ProviderOpenAI:      p.OpenAIAPIKey,
		types.ProviderAnthropic:   p.AnthropicAPIKey,
		types.ProviderGoogle:      p.GoogleAPIKey,
		types.ProviderHuggingFace: p.HuggingFaceAPIKey,
	}
}

// OrchestratorConfig tunes the pipeline itself (§3, §4.5, §9).
type OrchestratorConfig struct {
	// MinimumModelsRequired is the viability gate's distinct-provider floor.
	// The default is 2; 3 is recommended for production deployments.
	MinimumModelsRequired int `yaml:"minimum_models_required" env:"MINIMUM_MODELS_REQUIRED"`
	// EnableSingleModelFallback, when true, lowers the viability floor to 1
	// rather than refusing the request outright (Open Question decision).
	EnableSingleModelFallback bool `yaml:"enable_single_model_fallback" env:"ENABLE_SINGLE_MODEL_FALLBACK"`
	// OrchestrationTimeout is loaded from YAML and the environment, but no
	// component reads it: a request's deadline comes from the request's own
	// timeout or, when that is unset, the pipeline's fixed 120s default.
	OrchestrationTimeout time.Duration `yaml:"orchestration_timeout" env:"ORCHESTRATION_TIMEOUT"`
	// PerProviderConcurrency bounds in-flight calls per provider within one
	// stage's fan-out (§4.4).
	PerProviderConcurrency int `yaml:"per_provider_concurrency" env:"PER_PROVIDER_CONCURRENCY"`
	// LeadModelPriority overrides DefaultPriorityOrder when non-empty.
	LeadModelPriority []string `yaml:"lead_model_priority" env:"LEAD_MODEL_PRIORITY"`
	// EnableResultCache turns on the Redis-backed artifact cache.
	EnableResultCache bool          `yaml:"enable_result_cache" env:"ENABLE_RESULT_CACHE"`
	ResultCacheTTL    time.Duration `yaml:"result_cache_ttl" env:"RESULT_CACHE_TTL"`
}

// RedisConfig configures the optional result cache's backing store.
type RedisConfig struct {
	Addr     string `yaml:"addr" env:"ADDR"`
	Password string `yaml:"password" env:"PASSWORD"`
	DB       int    `yaml:"db" env:"DB"`
}

// LogConfig configures the zap logger (§4, AMBIENT STACK).
type LogConfig struct {
	Level            string   `yaml:"level" env:"LEVEL"`
	Format           string   `yaml:"format" env:"FORMAT"`
	OutputPaths      []string `yaml:"output_paths" env:"OUTPUT_PATHS"`
	EnableCaller     bool     `yaml:"enable_caller" env:"ENABLE_CALLER"`
	EnableStacktrace bool     `yaml:"enable_stacktrace" env:"ENABLE_STACKTRACE"`
}

// TelemetryConfig configures the OTel SDK.
type TelemetryConfig struct {
	Enabled      bool    `yaml:"enabled" env:"ENABLED"`
	OTLPEndpoint string  `yaml:"otlp_endpoint" env:"OTLP_ENDPOINT"`
	ServiceName  string  `yaml:"service_name" env:"SERVICE_NAME"`
	SampleRate   float64 `yaml:"sample_rate" env:"SAMPLE_RATE"`
}

// Loader loads a Config from defaults, an optional YAML file, and
// environment variables, in that precedence order.
type Loader struct {
	configPath string
	envPrefix  string
	validators []func(*Config) error
}

// NewLoader creates a loader with the UltrAI env prefix.
func NewLoader() *Loader {
	return &Loader{envPrefix: "ULTRAI", validators: make([]func(*Config) error, 0)}
}

// WithConfigPath sets an optional YAML config file path.
func (l *Loader) WithConfigPath(path string) *Loader {
	l.configPath = path
	return l
}

// WithEnvPrefix overrides the environment variable prefix.
func (l *Loader) WithEnvPrefix(prefix string) *Loader {
	l.envPrefix = prefix
	return l
}

// WithValidator adds a post-load validation pass.
func (l *Loader) WithValidator(v func(*Config) error) *Loader {
	l.validators = append(l.validators, v)
	return l
}

// Load builds a Config: defaults, then YAML file (if configured), then
// environment variables, then validators.
func (l *Loader) Load() (*Config, error) {
	cfg := DefaultConfig()

	if l.configPath != "" {
		if err := l.loadFromFile(cfg); err != nil {
			return nil, fmt.Errorf("failed to load config from file: %w", err)
		}
	}

	if err := l.loadFromEnv(cfg); err != nil {
		return nil, fmt.Errorf("failed to load config from env: %w", err)
	}

	for _, v := range l.validators {
		if err := v(cfg); err != nil {
			return nil, fmt.Errorf("config validation failed: %w", err)
		}
	}

	return cfg, nil
}

func (l *Loader) loadFromFile(cfg *Config) error {
	data, err := os.ReadFile(l.configPath)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return fmt.Errorf("failed to read config file: %w", err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return fmt.Errorf("failed to parse config file: %w", err)
	}
	return nil
}

func (l *Loader) loadFromEnv(cfg *Config) error {
	return l.setFieldsFromEnv(reflect.ValueOf(cfg).Elem(), l.envPrefix)
}

// setFieldsFromEnv recursively walks cfg's struct tree, overriding any
// field whose env tag resolves to a set environment variable.
func (l *Loader) setFieldsFromEnv(v reflect.Value, prefix string) error {
	t := v.Type()

	for i := 0; i < v.NumField(); i++ {
		field := v.Field(i)
		fieldType := t.Field(i)

		envTag := fieldType.Tag.Get("env")
		if envTag == "" || envTag == "-" {
			continue
		}
		envKey := prefix + "_" + envTag

		if field.Kind() == reflect.Struct {
			if err := l.setFieldsFromEnv(field, envKey); err != nil {
				return err
			}
			continue
		}

		envValue := os.Getenv(envKey)
		if envValue == "" {
			continue
		}
		if err := setFieldValue(field, envValue); err != nil {
			return fmt.Errorf("failed to set %s: %w", envKey, err)
		}
	}

	return nil
}

func setFieldValue(field reflect.Value, value string) error {
	if !field.CanSet() {
		return nil
	}

	switch field.Kind() {
	case reflect.String:
		field.SetString(value)

	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		if field.Type() == reflect.TypeOf(time.Duration(0)) {
			d, err := time.ParseDuration(value)
			if err != nil {
				return err
			}
			field.SetInt(int64(d))
		} else {
			i, err := strconv.ParseInt(value, 10, 64)
			if err != nil {
				return err
			}
			field.SetInt(i)
		}

	case reflect.Bool:
		b, err := strconv.ParseBool(value)
		if err != nil {
			return err
		}
		field.SetBool(b)

	case reflect.Float64, reflect.Float32:
		f, err := strconv.ParseFloat(value, 64)
		if err != nil {
			return err
		}
		field.SetFloat(f)

	case reflect.Slice:
		if field.Type().Elem().Kind() == reflect.String {
			parts := strings.Split(value, ",")
			for i := range parts {
				parts[i] = strings.TrimSpace(parts[i])
			}
			field.Set(reflect.ValueOf(parts))
		}
	}

	return nil
}

// MustLoad loads a Config, panicking on failure.
func MustLoad(path string) *Config {
	cfg, err := NewLoader().WithConfigPath(path).Load()
	if err != nil {
		panic(fmt.Sprintf("failed to load config: %v", err))
	}
	return cfg
}

// Validate checks invariants Load's field-level parsing cannot: the HTTP
// port range, a positive viability floor, and a positive per-provider
// concurrency.
func (c *Config) Validate() error {
	var errs []string

	if c.Server.HTTPPort <= 0 || c.Server.HTTPPort > 65535 {
		errs = append(errs, "invalid HTTP port")
	}
	if c.Orchestrator.MinimumModelsRequired <= 0 {
		errs = append(errs, "minimum_models_required must be positive")
	}
	if c.Orchestrator.PerProviderConcurrency <= 0 {
		errs = append(errs, "per_provider_concurrency must be positive")
	}

	if len(errs) > 0 {
		return fmt.Errorf("config validation errors: %s", strings.Join(errs, "; "))
	}
	return nil
}
