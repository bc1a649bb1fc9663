package config

import (
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/knadh/koanf/providers/env/v2"
	"github.com/knadh/koanf/providers/structs"
	"github.com/knadh/koanf/v2"
)

// envAliases maps the deployment environment variables the original
// frontend/backend pair already uses onto config paths. Everything else
// follows the SECTION_FIELD convention (e.g. ORCHESTRATION_MAX_ROUNDS).
var envAliases = map[string]string{
	"API_KEY":         "gemini.api_key",
	"GEMINI_API_KEY":  "gemini.api_key",
	"GEMINI_BASE_URL": "gemini.base_url",
	"HOST":            "server.host",
	"PORT":            "server.port",
	"MODELS_DIR":      "models.dir",
	"LOG_LEVEL":       "log.level",
}

// knownSections guards the generic env transform so unrelated process
// environment (PATH, TERM and friends) never lands in the config tree.
var knownSections = map[string]struct{}{
	"server": {}, "gemini": {}, "orchestration": {}, "models": {}, "log": {},
}

// Load builds the configuration from defaults and environment variables,
// then validates it.
func Load() (*Config, error) {
	k := koanf.New(".")
	if err := k.Load(structs.Provider(Default(), "koanf"), nil); err != nil {
		return nil, fmt.Errorf("loading config defaults: %w", err)
	}
	if err := k.Load(env.Provider(".", env.Opt{
		TransformFunc: transformEnvKey,
	}), nil); err != nil {
		return nil, fmt.Errorf("loading config environment: %w", err)
	}

	cfg := &Config{}
	if err := k.Unmarshal("", cfg); err != nil {
		return nil, fmt.Errorf("unmarshaling config: %w", err)
	}
	if err := validator.New().Struct(cfg); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, nil
}

// transformEnvKey converts an environment variable name into a koanf path:
// explicit aliases first, then SECTION_FIELD_NAME -> section.field_name for
// known sections (with or without a TOXICHAT_ prefix); anything else is
// dropped.
func transformEnvKey(key, value string) (string, any) {
	if path, ok := envAliases[key]; ok {
		return path, value
	}
	key = strings.TrimPrefix(key, "TOXICHAT_")
	lower := strings.ToLower(key)
	section, field, ok := strings.Cut(lower, "_")
	if !ok || field == "" {
		return "", nil
	}
	if _, ok := knownSections[section]; !ok {
		return "", nil
	}
	return section + "." + field, value
}
