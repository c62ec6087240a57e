package llm

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"

	"lifepilot/internal/logger"
)

type stubClient struct {
	reply string
	err   error
	delay time.Duration
	calls int
}

func (s *stubClient) Name() string { return "stub" }
func (s *stubClient) Close() error { return nil }
func (s *stubClient) Generate(ctx context.Context, prompt string) (string, error) {
	s.calls++
	if s.delay > 0 {
		select {
		case <-time.After(s.delay):
		case <-ctx.Done():
			return "", ctx.Err()
		}
	}
	return s.reply, s.err
}

type recordingHook struct {
	mu     sync.Mutex
	events []string
}

func (h *recordingHook) Before(_ context.Context, phase, prompt string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.events = append(h.events, "before:"+phase+":"+prompt)
}

func (h *recordingHook) After(_ context.Context, phase, reply string, err error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.events = append(h.events, "after:"+phase+":"+reply)
}

func TestWrapOrder(t *testing.T) {
	var order []string
	tag := func(name string) Middleware {
		return func(next LLMClient) LLMClient {
			order = append(order, name)
			return next
		}
	}
	Wrap(&stubClient{}, tag("A"), tag("B"))
	// inner middlewares are applied first
	assert.Equal(t, []string{"B", "A"}, order)
}

func TestHooksSeePhasePromptAndReply(t *testing.T) {
	hook := &recordingHook{}
	cli := Wrap(&stubClient{reply: "{}"}, WithHooks())

	ctx := WithHook(WithPhase(context.Background(), "plan"), hook)
	got, err := cli.Generate(ctx, "hello")
	require.NoError(t, err)
	assert.Equal(t, "{}", got)
	assert.Equal(t, []string{"before:plan:hello", "after:plan:{}"}, hook.events)
}

func TestHooksAbsentIsNoop(t *testing.T) {
	cli := Wrap(&stubClient{reply: "ok"}, WithHooks())
	got, err := cli.Generate(context.Background(), "p")
	require.NoError(t, err)
	assert.Equal(t, "ok", got)
}

func TestPhaseFromDefault(t *testing.T) {
	assert.Equal(t, "unknown", PhaseFrom(context.Background()))
	assert.Equal(t, "analysis", PhaseFrom(WithPhase(context.Background(), "analysis")))
}

func TestWithTimeoutSurfacesUpstreamTimeout(t *testing.T) {
	cli := Wrap(&stubClient{reply: "late", delay: time.Second}, WithTimeout(20*time.Millisecond))
	_, err := cli.Generate(context.Background(), "p")
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrUpstreamTimeout)
}

func TestWithTimeoutCallerCancelIsNotATimeout(t *testing.T) {
	cli := Wrap(&stubClient{reply: "late", delay: time.Second}, WithTimeout(time.Minute))
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := cli.Generate(ctx, "p")
	require.Error(t, err)
	assert.NotErrorIs(t, err, ErrUpstreamTimeout)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestWithTimeoutDisabled(t *testing.T) {
	inner := &stubClient{reply: "ok"}
	assert.Same(t, LLMClient(inner), WithTimeout(0)(inner))
}

func TestUpstreamErrorPassesThroughUnchanged(t *testing.T) {
	boom := errors.New("service unavailable")
	cli := Wrap(&stubClient{err: boom}, WithLogging(logger.Nop()), WithHooks(), WithTimeout(time.Second), RateLimit(0, 0))
	_, err := cli.Generate(context.Background(), "p")
	assert.Same(t, boom, err)
}

func TestRateLimitBlocksUntilToken(t *testing.T) {
	inner := &stubClient{reply: "ok"}
	cli := Wrap(inner, RateLimit(1, 1))
	defer cli.Close()

	_, err := cli.Generate(context.Background(), "p")
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	_, err = cli.Generate(ctx, "p")
	assert.ErrorIs(t, err, context.DeadlineExceeded)
	assert.Equal(t, 1, inner.calls)
}

func TestRateLimiterRefills(t *testing.T) {
	l := newRPSLimiter(100, 1)
	defer l.Stop()
	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	for i := 0; i < 3; i++ {
		require.NoError(t, l.Acquire(ctx))
	}
}

func TestNilLimiterNeverBlocks(t *testing.T) {
	var l *rpsLimiter
	assert.Nil(t, newRPSLimiter(0, 5))
	assert.NoError(t, l.Acquire(context.Background()))
	l.Stop()
}

func TestLoggingRecordsPhase(t *testing.T) {
	core, logs := observer.New(zap.DebugLevel)
	log := &logger.Logger{SugaredLogger: zap.New(core).Sugar()}
	cli := Wrap(&stubClient{reply: "abc"}, WithLogging(log))

	_, err := cli.Generate(WithPhase(context.Background(), "decision"), "prompt")
	require.NoError(t, err)

	replies := logs.FilterMessage("LLM reply").All()
	require.Len(t, replies, 1)
	fields := replies[0].ContextMap()
	assert.Equal(t, "decision", fields["phase"])
	assert.EqualValues(t, 3, fields["reply_bytes"])
}

func TestLogHookWritesPromptAndReply(t *testing.T) {
	core, logs := observer.New(zap.DebugLevel)
	log := &logger.Logger{SugaredLogger: zap.New(core).Sugar()}
	cli := Wrap(&stubClient{reply: `{"a": 1}`}, WithHooks())

	ctx := WithHook(WithPhase(context.Background(), "analysis"), NewLogHook(log.With("request_id", "r1")))
	_, err := cli.Generate(ctx, "the prompt")
	require.NoError(t, err)

	prompts := logs.FilterMessage("stage prompt").All()
	require.Len(t, prompts, 1)
	assert.Equal(t, "the prompt", prompts[0].ContextMap()["prompt"])
	assert.Equal(t, "r1", prompts[0].ContextMap()["request_id"])
	replies := logs.FilterMessage("stage reply").All()
	require.Len(t, replies, 1)
	assert.Equal(t, `{"a": 1}`, replies[0].ContextMap()["reply"])
	assert.Equal(t, "analysis", replies[0].ContextMap()["phase"])
}

func TestLogHookRecordsFailure(t *testing.T) {
	core, logs := observer.New(zap.DebugLevel)
	log := &logger.Logger{SugaredLogger: zap.New(core).Sugar()}
	cli := Wrap(&stubClient{err: errors.New("refused")}, WithHooks())

	_, err := cli.Generate(WithHook(context.Background(), NewLogHook(log)), "p")
	require.Error(t, err)
	assert.Len(t, logs.FilterMessage("stage call failed").All(), 1)
}

func TestFakeClientRepliesPerPhase(t *testing.T) {
	f := NewFakeClient()
	for _, phase := range []string{"plan", "analysis", "decision"} {
		reply, err := f.Generate(WithPhase(context.Background(), phase), "ignored")
		require.NoError(t, err)
		assert.Contains(t, reply, "{")
		assert.Contains(t, reply, "Here is the "+phase+" result")
	}
}
