package config

import (
	"flag"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	Port    string
	Env     string
	LogMode string
	LLM     LLMConfig
	CORS    CORSConfig
}

type LLMConfig struct {
	Provider     string // "gemini" or "fake"
	APIKey       string
	Model        string
	RPS          float64
	Burst        int
	StageTimeout time.Duration // 0 leaves model calls unbounded
}

type CORSConfig struct {
	AllowOrigins     []string
	AllowCredentials bool
}

const (
	ProviderGemini = "gemini"
	ProviderFake   = "fake"
)

// Load reads .env (if present), command-line flags, then the environment.
func Load() (*Config, error) {
	_ = godotenv.Load()

	fs := flag.NewFlagSet(os.Args[0], flag.ContinueOnError)
	port := fs.String("port", ":8000", "server port")
	if err := fs.Parse(os.Args[1:]); err != nil {
		return nil, err
	}
	return FromEnv(*port)
}

// FromEnv builds the config from environment variables. PORT overrides
// defaultPort.
func FromEnv(defaultPort string) (*Config, error) {
	port := defaultPort
	if envPort := strings.TrimSpace(os.Getenv("PORT")); envPort != "" {
		port = envPort
	}
	if !strings.HasPrefix(port, ":") && !strings.Contains(port, ":") {
		port = ":" + port
	}

	env := firstNonEmpty(strings.TrimSpace(os.Getenv("APP_ENV")), "local")
	cfg := &Config{
		Port:    port,
		Env:     env,
		LogMode: strings.TrimSpace(os.Getenv("LOG_MODE")),
		CORS:    loadCORSConfig(),
	}
	llmCfg, err := loadLLMConfig()
	if err != nil {
		return nil, err
	}
	cfg.LLM = llmCfg

	if isLocal(env) {
		applyLocalDefaults(cfg)
	}
	if cfg.LogMode == "" {
		cfg.LogMode = "prod"
	}
	if cfg.LLM.Provider == "" {
		cfg.LLM.Provider = ProviderGemini
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) validate() error {
	switch c.LLM.Provider {
	case ProviderGemini:
		if c.LLM.APIKey == "" {
			return fmt.Errorf("config: GEMINI_API_KEY is required for provider %q", ProviderGemini)
		}
	case ProviderFake:
	default:
		return fmt.Errorf("config: unknown LLM_PROVIDER %q", c.LLM.Provider)
	}
	if c.CORS.AllowCredentials && containsWildcard(c.CORS.AllowOrigins) {
		return fmt.Errorf("config: CORS_ALLOW_CREDENTIALS cannot be combined with a wildcard origin")
	}
	return nil
}

func loadLLMConfig() (LLMConfig, error) {
	out := LLMConfig{
		Provider: strings.ToLower(strings.TrimSpace(os.Getenv("LLM_PROVIDER"))),
		APIKey:   firstNonEmpty(strings.TrimSpace(os.Getenv("GEMINI_API_KEY")), strings.TrimSpace(os.Getenv("GOOGLE_API_KEY"))),
		Model:    firstNonEmpty(strings.TrimSpace(os.Getenv("GEMINI_MODEL")), "gemini-2.5-flash"),
	}
	if raw := firstEnv("LLM_RPS", "GEMINI_RPS"); raw != "" {
		f, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			return LLMConfig{}, fmt.Errorf("config: invalid LLM_RPS %q: %w", raw, err)
		}
		out.RPS = f
	}
	if raw := firstEnv("LLM_BURST", "GEMINI_BURST"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil {
			return LLMConfig{}, fmt.Errorf("config: invalid LLM_BURST %q: %w", raw, err)
		}
		out.Burst = n
	}
	if raw := strings.TrimSpace(os.Getenv("LLM_STAGE_TIMEOUT")); raw != "" {
		d, err := time.ParseDuration(raw)
		if err != nil {
			return LLMConfig{}, fmt.Errorf("config: invalid LLM_STAGE_TIMEOUT %q: %w", raw, err)
		}
		out.StageTimeout = d
	}
	return out, nil
}

func loadCORSConfig() CORSConfig {
	origins := splitList(os.Getenv("CORS_ALLOW_ORIGINS"))
	if len(origins) == 0 {
		origins = []string{"*"}
	}
	creds, err := strconv.ParseBool(strings.TrimSpace(os.Getenv("CORS_ALLOW_CREDENTIALS")))
	if err != nil {
		creds = false
	}
	return CORSConfig{AllowOrigins: origins, AllowCredentials: creds}
}

func firstEnv(keys ...string) string {
	for _, k := range keys {
		if v := strings.TrimSpace(os.Getenv(k)); v != "" {
			return v
		}
	}
	return ""
}

func splitList(raw string) []string {
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}

func containsWildcard(origins []string) bool {
	for _, o := range origins {
		if o == "*" {
			return true
		}
	}
	return false
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if strings.TrimSpace(v) != "" {
			return v
		}
	}
	return ""
}
