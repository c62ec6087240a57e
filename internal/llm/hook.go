package llm

import (
	"context"

	"lifepilot/internal/logger"
)

// PromptHook observes every model call made through a client wrapped with
// WithHooks. The hook travels in the request context, so each request can
// carry its own.
type PromptHook interface {
	Before(ctx context.Context, phase, prompt string)
	After(ctx context.Context, phase, reply string, err error)
}

type ctxKeyHook struct{}
type ctxKeyPhase struct{}

// WithHook attaches hook to ctx for the calls made under it.
func WithHook(ctx context.Context, hook PromptHook) context.Context {
	return context.WithValue(ctx, ctxKeyHook{}, hook)
}

// WithPhase tags ctx with the pipeline stage issuing the call.
func WithPhase(ctx context.Context, phase string) context.Context {
	return context.WithValue(ctx, ctxKeyPhase{}, phase)
}

// HookFrom returns the hook stored in the context.
func HookFrom(ctx context.Context) PromptHook {
	if h, ok := ctx.Value(ctxKeyHook{}).(PromptHook); ok {
		return h
	}
	return nil
}

// PhaseFrom returns the phase string stored in the context.
func PhaseFrom(ctx context.Context) string {
	if s, ok := ctx.Value(ctxKeyPhase{}).(string); ok {
		return s
	}
	return "unknown"
}

// LogHook writes each stage's full prompt and reply at debug level.
type LogHook struct {
	log *logger.Logger
}

func NewLogHook(log *logger.Logger) *LogHook {
	if log == nil {
		log = logger.Nop()
	}
	return &LogHook{log: log}
}

func (h *LogHook) Before(_ context.Context, phase, prompt string) {
	h.log.Debug("stage prompt", "phase", phase, "prompt", prompt)
}

func (h *LogHook) After(_ context.Context, phase, reply string, err error) {
	if err != nil {
		h.log.Debug("stage call failed", "phase", phase, "error", err)
		return
	}
	h.log.Debug("stage reply", "phase", phase, "reply", reply)
}
