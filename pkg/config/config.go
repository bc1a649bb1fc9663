package config

import "time"

// Config is the full service configuration. Defaults come from Default();
// environment variables override individual fields.
type Config struct {
	Server        ServerConfig        `koanf:"server"`
	Gemini        GeminiConfig        `koanf:"gemini"`
	Orchestration OrchestrationConfig `koanf:"orchestration"`
	Models        ModelsConfig        `koanf:"models"`
	Log           LogConfig           `koanf:"log"`
}

type ServerConfig struct {
	Host string `koanf:"host"`
	Port int    `koanf:"port" validate:"min=1,max=65535"`
	// CORSAllowedOrigins lists the browser origins allowed to call the API.
	CORSAllowedOrigins []string `koanf:"cors_allowed_origins"`
}

type GeminiConfig struct {
	APIKey  string        `koanf:"api_key" validate:"required"`
	BaseURL string        `koanf:"base_url"`
	Timeout time.Duration `koanf:"timeout" validate:"min=0"`
	// PrimaryEndpoint and FallbackEndpoint override discovery-time
	// resolution when set.
	PrimaryEndpoint  string `koanf:"primary_endpoint"`
	FallbackEndpoint string `koanf:"fallback_endpoint"`
}

type OrchestrationConfig struct {
	MinInterval       time.Duration `koanf:"min_interval" validate:"min=0"`
	RateLimitCooldown time.Duration `koanf:"rate_limit_cooldown" validate:"min=0"`
	MaxRounds         int           `koanf:"max_rounds" validate:"min=1"`
	Temperature       float64       `koanf:"temperature" validate:"min=0,max=2"`
	QuotaExhaustedTTL time.Duration `koanf:"quota_exhausted_ttl" validate:"min=0"`
	RateLimitedTTL    time.Duration `koanf:"rate_limited_ttl" validate:"min=0"`
	OtherFailureTTL   time.Duration `koanf:"other_failure_ttl" validate:"min=0"`
}

type ModelsConfig struct {
	// Dir holds the exported model artifact files.
	Dir string `koanf:"dir"`
}

type LogConfig struct {
	Level string `koanf:"level" validate:"oneof=debug info warn error"`
	JSON  bool   `koanf:"json"`
}

// Default returns the built-in configuration.
func Default() *Config {
	return &Config{
		Server: ServerConfig{
			Host: "0.0.0.0",
			Port: 8000,
			CORSAllowedOrigins: []string{
				"http://localhost:5173",
				"http://localhost:3000",
				"https://chat-bot-for-machine-learning.vercel.app",
			},
		},
		Gemini: GeminiConfig{
			Timeout: 30 * time.Second,
		},
		Orchestration: OrchestrationConfig{
			MinInterval:       5 * time.Second,
			RateLimitCooldown: 10 * time.Second,
			MaxRounds:         3,
			Temperature:       0.1,
			QuotaExhaustedTTL: time.Hour,
			RateLimitedTTL:    5 * time.Minute,
			OtherFailureTTL:   30 * time.Minute,
		},
		Models: ModelsConfig{
			Dir: "models",
		},
		Log: LogConfig{
			Level: "info",
		},
	}
}
