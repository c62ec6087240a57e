package server

import (
	"net/http"

	"lifepilot/internal/gateway/handler"
	"lifepilot/internal/gateway/handler/rpc"
	"lifepilot/internal/gateway/middleware"
	"lifepilot/internal/logger"
)

// MuxConfig carries the cross-cutting settings applied to every route.
type MuxConfig struct {
	AllowOrigins     []string
	AllowCredentials bool
	Log              *logger.Logger
}

func NewMux(
	cfg MuxConfig,
	analyzeHandler *handler.AnalyzeHandler,
	healthHandler *handler.HealthHandler,
	lifePilotRPC *rpc.LifePilotHandler,
) http.Handler {
	mux := http.NewServeMux()

	// REST
	mux.HandleFunc("/analyze-life", analyzeHandler.HandleAnalyzeLife)
	mux.HandleFunc("/health", healthHandler.HandleHealth)

	// RPC
	mux.Handle(lifePilotRPC.Route())

	log := cfg.Log
	if log == nil {
		log = logger.Nop()
	}
	return middleware.Chain(mux,
		middleware.RequestLog(log),
		middleware.Recover(log),
		middleware.CORS(cfg.AllowOrigins, cfg.AllowCredentials),
	)
}
