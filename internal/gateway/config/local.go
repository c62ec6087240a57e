package config

import "strings"

func isLocal(env string) bool {
	return strings.EqualFold(strings.TrimSpace(env), "local")
}

// applyLocalDefaults fills in developer-friendly settings: console logs and,
// when no API key is configured, the offline fake model.
func applyLocalDefaults(cfg *Config) {
	if cfg.LogMode == "" {
		cfg.LogMode = "dev"
	}
	if cfg.LLM.Provider == "" && cfg.LLM.APIKey == "" {
		cfg.LLM.Provider = ProviderFake
	}
}
