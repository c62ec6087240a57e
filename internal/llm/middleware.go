package llm

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"lifepilot/internal/logger"
)

// Middleware decorates an LLMClient with a cross-cutting concern.
type Middleware func(LLMClient) LLMClient

// Wrap applies middlewares in left-to-right order.
// Example: Wrap(inner, A, B) => A(B(inner))
func Wrap(inner LLMClient, mws ...Middleware) LLMClient {
	out := inner
	for i := len(mws) - 1; i >= 0; i-- {
		out = mws[i](out)
	}
	return out
}

// -------- Rate Limiting --------

// RateLimit throttles calls to rps per second with the given burst.
// rps <= 0 disables it.
func RateLimit(rps float64, burst int) Middleware {
	return func(next LLMClient) LLMClient {
		return &rateLimited{next: next, rl: newRPSLimiter(rps, burst)}
	}
}

type rateLimited struct {
	next LLMClient
	rl   *rpsLimiter
	once sync.Once
}

func (c *rateLimited) Name() string { return c.next.Name() }
func (c *rateLimited) Close() error {
	c.once.Do(c.rl.Stop)
	return c.next.Close()
}
func (c *rateLimited) Generate(ctx context.Context, prompt string) (string, error) {
	if err := c.rl.Acquire(ctx); err != nil {
		return "", err
	}
	return c.next.Generate(ctx, prompt)
}

// -------- Deadline --------

// ErrUpstreamTimeout reports that a single model call outlived its deadline.
var ErrUpstreamTimeout = errors.New("llm: upstream call timed out")

// WithTimeout bounds each call to d. Expiry of that deadline surfaces as
// ErrUpstreamTimeout; cancellation of the caller's own context is returned
// as is. d <= 0 leaves calls unbounded.
func WithTimeout(d time.Duration) Middleware {
	return func(next LLMClient) LLMClient {
		if d <= 0 {
			return next
		}
		return &timeoutClient{next: next, d: d}
	}
}

type timeoutClient struct {
	next LLMClient
	d    time.Duration
}

func (c *timeoutClient) Name() string { return c.next.Name() }
func (c *timeoutClient) Close() error { return c.next.Close() }
func (c *timeoutClient) Generate(ctx context.Context, prompt string) (string, error) {
	cctx, cancel := context.WithTimeout(ctx, c.d)
	defer cancel()
	reply, err := c.next.Generate(cctx, prompt)
	if err != nil && ctx.Err() == nil && errors.Is(cctx.Err(), context.DeadlineExceeded) {
		return "", fmt.Errorf("%w after %s: %v", ErrUpstreamTimeout, c.d, err)
	}
	return reply, err
}

// -------- Logging & Hooks --------

// WithLogging logs one line per call with the phase, sizes and latency.
func WithLogging(log *logger.Logger) Middleware {
	if log == nil {
		log = logger.Nop()
	}
	return func(next LLMClient) LLMClient {
		return &logging{next: next, log: log}
	}
}

type logging struct {
	next LLMClient
	log  *logger.Logger
}

func (l *logging) Name() string { return l.next.Name() }
func (l *logging) Close() error { return l.next.Close() }
func (l *logging) Generate(ctx context.Context, prompt string) (string, error) {
	phase := PhaseFrom(ctx)
	start := time.Now()
	l.log.Debug("LLM request", "phase", phase, "model", l.next.Name(), "prompt_bytes", len(prompt))
	reply, err := l.next.Generate(ctx, prompt)
	if err != nil {
		l.log.Warn("LLM error", "phase", phase, "model", l.next.Name(), "duration", time.Since(start), "error", err)
		return reply, err
	}
	l.log.Info("LLM reply", "phase", phase, "model", l.next.Name(), "reply_bytes", len(reply), "duration", time.Since(start))
	return reply, nil
}

// WithHooks calls HookFrom(ctx).Before/After around Generate.
// If no hook is present in the context, it is a no-op.
func WithHooks() Middleware {
	return func(next LLMClient) LLMClient {
		return &hooked{next: next}
	}
}

type hooked struct{ next LLMClient }

func (h *hooked) Name() string { return h.next.Name() }
func (h *hooked) Close() error { return h.next.Close() }
func (h *hooked) Generate(ctx context.Context, prompt string) (string, error) {
	hook := HookFrom(ctx)
	if hook != nil {
		hook.Before(ctx, PhaseFrom(ctx), prompt)
	}
	reply, err := h.next.Generate(ctx, prompt)
	if hook != nil {
		hook.After(ctx, PhaseFrom(ctx), reply, err)
	}
	return reply, err
}
