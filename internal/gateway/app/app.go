package app

import (
	"context"
	"fmt"

	"lifepilot/internal/gateway/config"
	"lifepilot/internal/gateway/handler"
	"lifepilot/internal/gateway/handler/rpc"
	"lifepilot/internal/gateway/server"
	"lifepilot/internal/llm"
	"lifepilot/internal/logger"
	"lifepilot/internal/pipeline/lifepilot"
)

type App struct {
	server *server.Server
	client llm.LLMClient
	log    *logger.Logger
}

func New(ctx context.Context) (*App, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	log, err := logger.New(cfg.LogMode)
	if err != nil {
		return nil, fmt.Errorf("failed to build logger: %w", err)
	}
	return NewWithConfig(ctx, cfg, log)
}

// NewWithConfig wires every dependency explicitly; the model client lives as
// long as the App.
func NewWithConfig(ctx context.Context, cfg *config.Config, log *logger.Logger) (*App, error) {
	client, err := newLLMClient(ctx, cfg.LLM, log)
	if err != nil {
		return nil, fmt.Errorf("failed to create llm client: %w", err)
	}

	pipeline := lifepilot.New(client, log.With("component", "pipeline"))

	analyzeHandler := handler.NewAnalyzeHandler(pipeline, log)
	healthHandler := handler.NewHealthHandler(client.Name())
	lifePilotRPC := rpc.NewLifePilotHandler(pipeline, log)

	mux := server.NewMux(server.MuxConfig{
		AllowOrigins:     cfg.CORS.AllowOrigins,
		AllowCredentials: cfg.CORS.AllowCredentials,
		Log:              log.With("component", "http"),
	}, analyzeHandler, healthHandler, lifePilotRPC)
	srv := server.New(cfg.Port, mux, log)

	log.Info("app configured", "env", cfg.Env, "model", client.Name(), "stage_timeout", cfg.LLM.StageTimeout)
	return &App{server: srv, client: client, log: log}, nil
}

func newLLMClient(ctx context.Context, cfg config.LLMConfig, log *logger.Logger) (llm.LLMClient, error) {
	var base llm.LLMClient
	switch cfg.Provider {
	case config.ProviderFake:
		base = llm.NewFakeClient()
	default:
		g, err := llm.NewGeminiClient(ctx, cfg.APIKey, cfg.Model)
		if err != nil {
			return nil, err
		}
		base = g
	}
	return llm.Wrap(base,
		llm.WithLogging(log.With("component", "llm")),
		llm.WithHooks(),
		llm.RateLimit(cfg.RPS, cfg.Burst),
		llm.WithTimeout(cfg.StageTimeout),
	), nil
}

func (a *App) Start() error {
	return a.server.Start()
}

func (a *App) Shutdown(ctx context.Context) error {
	err := a.server.Shutdown(ctx)
	if cerr := a.client.Close(); err == nil {
		err = cerr
	}
	a.log.Sync()
	return err
}
