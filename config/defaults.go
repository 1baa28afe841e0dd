package config

import "time"

// DefaultConfig returns UltrAI's default configuration. Production
// deployments are expected to raise MinimumModelsRequired to 3 (§3) and
// supply provider API keys via environment variables.
func DefaultConfig() *Config {
	return &Config{
		Server:       DefaultServerConfig(),
		Providers:    ProvidersConfig{},
		Orchestrator: DefaultOrchestratorConfig(),
		Redis:        DefaultRedisConfig(),
		Log:          DefaultLogConfig(),
		Telemetry:    DefaultTelemetryConfig(),
	}
}

// DefaultServerConfig returns the default HTTP/metrics listener config.
func DefaultServerConfig() ServerConfig {
	return ServerConfig{
		HTTPPort:        8080,
		MetricsPort:     9091,
		ReadTimeout:     30 * time.Second,
		WriteTimeout:    120 * time.Second,
		ShutdownTimeout: 15 * time.Second,
	}
}

// DefaultOrchestratorConfig returns the pipeline's default tuning. The
// minimum-models floor of 2 is a permissive default for development;
// callers should raise it (3 is recommended) for production.
func DefaultOrchestratorConfig() OrchestratorConfig {
	return OrchestratorConfig{
		MinimumModelsRequired:     2,
		EnableSingleModelFallback: false,
		OrchestrationTimeout:      120 * time.Second,
		PerProviderConcurrency:    8,
		EnableResultCache:         false,
		ResultCacheTTL:            10 * time.Minute,
	}
}

// DefaultRedisConfig returns the default result-cache backing store config.
func DefaultRedisConfig() RedisConfig {
	return RedisConfig{Addr: "localhost:6379", DB: 0}
}

// DefaultLogConfig returns the default zap logger config.
func DefaultLogConfig() LogConfig {
	return LogConfig{
		Level:            "info",
		Format:           "json",
		OutputPaths:      []string{"stdout"},
		EnableCaller:     true,
		EnableStacktrace: false,
	}
}

// DefaultTelemetryConfig returns the default OTel config: disabled until a
// collector endpoint is configured.
func DefaultTelemetryConfig() TelemetryConfig {
	return TelemetryConfig{
		Enabled:      false,
		OTLPEndpoint: "localhost:4317",
		ServiceName:  "ultrai-core",
		SampleRate:   0.1,
	}
}
