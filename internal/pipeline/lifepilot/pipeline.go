// Package lifepilot runs the three-stage planning pipeline:
// plan -> analysis -> decision. Each stage is one model call whose reply is
// reduced to a JSON object and handed to the next stage as context.
package lifepilot

import (
	"context"
	"time"

	"lifepilot/internal/llm"
	"lifepilot/internal/logger"
	"lifepilot/internal/types"
	"lifepilot/internal/util/jsonutil"
)

// Stage names, also used as the llm phase of each call.
const (
	StagePlan     = "plan"
	StageAnalysis = "analysis"
	StageDecision = "decision"
)

// Pipeline holds no per-request state and is safe for concurrent Run calls
// as long as the client is.
type Pipeline struct {
	client llm.LLMClient
	log    *logger.Logger
}

func New(client llm.LLMClient, log *logger.Logger) *Pipeline {
	if log == nil {
		log = logger.Nop()
	}
	return &Pipeline{client: client, log: log}
}

// Run executes the stages strictly in order. The first failure aborts the
// run; results of earlier stages are dropped rather than returned.
func (p *Pipeline) Run(ctx context.Context, profile types.Profile) (types.PipelineOutcome, error) {
	start := time.Now()

	plan, err := p.runStage(ctx, StagePlan, func() (string, error) {
		return PlannerPrompt(profile)
	})
	if err != nil {
		return types.PipelineOutcome{}, err
	}

	analysis, err := p.runStage(ctx, StageAnalysis, func() (string, error) {
		return AnalysisPrompt(profile, plan)
	})
	if err != nil {
		return types.PipelineOutcome{}, err
	}

	decision, err := p.runStage(ctx, StageDecision, func() (string, error) {
		return DecisionPrompt(profile, analysis)
	})
	if err != nil {
		return types.PipelineOutcome{}, err
	}

	p.log.Info("pipeline complete", "duration", time.Since(start))
	return types.PipelineOutcome{Plan: plan, Analysis: analysis, Decision: decision}, nil
}

func (p *Pipeline) runStage(ctx context.Context, stage string, buildPrompt func() (string, error)) (types.StageResult, error) {
	prompt, err := buildPrompt()
	if err != nil {
		return nil, &StageError{Stage: stage, Step: StepPrompt, Err: err}
	}

	reply, err := p.client.Generate(llm.WithPhase(ctx, stage), prompt)
	if err != nil {
		p.log.Warn("stage model call failed", "stage", stage, "error", err)
		return nil, &StageError{Stage: stage, Step: StepGenerate, Err: err}
	}

	obj, err := jsonutil.ExtractObject(reply)
	if err != nil {
		p.log.Warn("stage reply not recoverable", "stage", stage, "reply_bytes", len(reply), "error", err)
		return nil, &StageError{Stage: stage, Step: StepExtract, Err: err}
	}
	p.log.Debug("stage complete", "stage", stage, "keys", len(obj))
	return types.StageResult(obj), nil
}
