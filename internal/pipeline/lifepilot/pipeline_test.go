package lifepilot

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"lifepilot/internal/llm"
	"lifepilot/internal/logger"
	"lifepilot/internal/types"
	"lifepilot/internal/util/jsonutil"
)

// scriptedClient replays one reply (or error) per call, in order.
type scriptedClient struct {
	replies []string
	errs    []error
	prompts []string
	phases  []string
}

func (s *scriptedClient) Name() string { return "scripted" }
func (s *scriptedClient) Close() error { return nil }
func (s *scriptedClient) Generate(ctx context.Context, prompt string) (string, error) {
	i := len(s.prompts)
	s.prompts = append(s.prompts, prompt)
	s.phases = append(s.phases, llm.PhaseFrom(ctx))
	if i < len(s.errs) && s.errs[i] != nil {
		return "", s.errs[i]
	}
	if i >= len(s.replies) {
		return "", fmt.Errorf("unexpected call %d", i+1)
	}
	return s.replies[i], nil
}

func testProfile() types.Profile {
	return types.Profile{
		Age:                 22,
		Country:             "India",
		Education:           "B.Tech Computer Science",
		FieldOfStudy:        "Software Engineering",
		JobTitle:            "Junior Software Engineer",
		Salary:              600000,
		Experience:          1,
		Skills:              "Python, React, Machine Learning",
		TargetCountries:     []string{"Germany", "UAE", "Canada"},
		CareerGoal:          "High paying AI engineer role",
		SalaryGoal:          150000,
		RiskTolerance:       70,
		LifestylePreference: 60,
		Budget:              1200000,
		Savings:             300000,
	}
}

const (
	planReply = `Here is the plan:
{"financial_analysis": true, "career_analysis": true, "education_analysis": false,
 "country_comparison": true, "lifestyle_assessment": true, "risk_assessment": true,
 "ten_year_simulation": true}`

	analysisReply = "```json\n" + `{
  "option_wise_comparison": {"Germany": {"avg_salary": 65000}, "India": {"avg_salary": 12000}},
  "yearly_income_projection": [{"year": 1, "value": 50000}, {"year": 2, "value": 56000}],
  "savings_projection": [{"year": 1, "value": 5000}],
  "metrics": {"financial_roi": 72, "career_growth": 80, "lifestyle": 68, "stability": 61, "risk_management": 58, "overall_score": 70},
  "career_trajectory": [{"month": "Jan", "value": 10}]
}` + "\n```"

	decisionReply = `{"main_path": {"title": "Germany", "description": "Move", "confidence": 88, "potential": "High Potential", "key_reasons": ["salary"]},
"alternative_paths": [{"title": "Stay", "recommended": false, "cost": "$0", "avg_salary": "$12,000/yr", "lifestyle_score": 70, "risk_level": "Low", "growth_potential": 55}],
"roadmap": [{"period": "Months 1-6", "phase": "Prepare", "tasks": ["Learn German"]}]}
Good luck!`
)

func mustExtract(t *testing.T, text string) types.StageResult {
	t.Helper()
	obj, err := jsonutil.ExtractObject(text)
	require.NoError(t, err)
	return types.StageResult(obj)
}

func TestRunReturnsAllThreeStages(t *testing.T) {
	cli := &scriptedClient{replies: []string{planReply, analysisReply, decisionReply}}
	out, err := New(cli, logger.Nop()).Run(context.Background(), testProfile())
	require.NoError(t, err)

	assert.Equal(t, mustExtract(t, planReply), out.Plan)
	assert.Equal(t, mustExtract(t, analysisReply), out.Analysis)
	assert.Equal(t, mustExtract(t, decisionReply), out.Decision)

	assert.Len(t, cli.prompts, 3)
	assert.Equal(t, []string{StagePlan, StageAnalysis, StageDecision}, cli.phases)
}

func TestRunFeedsPriorStageIntoNextPrompt(t *testing.T) {
	cli := &scriptedClient{replies: []string{planReply, analysisReply, decisionReply}}
	_, err := New(cli, nil).Run(context.Background(), testProfile())
	require.NoError(t, err)

	profile := testProfile()
	plan := mustExtract(t, planReply)
	analysis := mustExtract(t, analysisReply)

	wantPlan, err := PlannerPrompt(profile)
	require.NoError(t, err)
	wantAnalysis, err := AnalysisPrompt(profile, plan)
	require.NoError(t, err)
	wantDecision, err := DecisionPrompt(profile, analysis)
	require.NoError(t, err)

	assert.Equal(t, []string{wantPlan, wantAnalysis, wantDecision}, cli.prompts)
	assert.Contains(t, cli.prompts[1], `"education_analysis": false`)
	assert.Contains(t, cli.prompts[2], `"overall_score": 70`)
	// decision stage sees the analysis, not the plan
	assert.NotContains(t, cli.prompts[2], "Task Plan:")
}

func TestRunMalformedAnalysisStopsBeforeDecision(t *testing.T) {
	cli := &scriptedClient{replies: []string{planReply, `{"metrics": {"overall_score": 70,}`, decisionReply}}
	out, err := New(cli, logger.Nop()).Run(context.Background(), testProfile())
	require.Error(t, err)

	assert.Len(t, cli.prompts, 2)
	assert.Equal(t, types.PipelineOutcome{}, out)

	var serr *StageError
	require.ErrorAs(t, err, &serr)
	assert.Equal(t, StageAnalysis, serr.Stage)
	assert.Equal(t, StepExtract, serr.Step)

	var xerr *jsonutil.ExtractError
	require.ErrorAs(t, err, &xerr)
	var syn *json.SyntaxError
	assert.ErrorAs(t, err, &syn)
	assert.Contains(t, err.Error(), "analysis stage: JSON parse error:")
}

func TestRunPlanWithoutJSONFailsImmediately(t *testing.T) {
	cli := &scriptedClient{replies: []string{"I'm sorry, I can't do that.", analysisReply, decisionReply}}
	_, err := New(cli, logger.Nop()).Run(context.Background(), testProfile())
	require.Error(t, err)
	assert.Len(t, cli.prompts, 1)
	assert.ErrorIs(t, err, jsonutil.ErrNoJSONObject)
	assert.EqualError(t, err, "plan stage: JSON parse error: no JSON object found")
}

func TestRunTwoObjectReplyIsRejected(t *testing.T) {
	cli := &scriptedClient{replies: []string{planReply, analysisReply, `{"main_path": {}} and also {"roadmap": []}`}}
	_, err := New(cli, logger.Nop()).Run(context.Background(), testProfile())
	var serr *StageError
	require.ErrorAs(t, err, &serr)
	assert.Equal(t, StageDecision, serr.Stage)
	assert.Equal(t, StepExtract, serr.Step)
}

func TestRunUpstreamFailurePropagates(t *testing.T) {
	boom := errors.New("connection reset")
	cli := &scriptedClient{replies: []string{planReply}, errs: []error{nil, boom}}
	_, err := New(cli, logger.Nop()).Run(context.Background(), testProfile())
	require.Error(t, err)
	assert.Len(t, cli.prompts, 2)
	assert.ErrorIs(t, err, boom)

	var serr *StageError
	require.ErrorAs(t, err, &serr)
	assert.Equal(t, StepGenerate, serr.Step)
	assert.Same(t, boom, serr.Err)
}

func TestRunWithFakeClient(t *testing.T) {
	out, err := New(llm.NewFakeClient(), logger.Nop()).Run(context.Background(), testProfile())
	require.NoError(t, err)
	assert.Equal(t, true, out.Plan["ten_year_simulation"])
	assert.Contains(t, out.Analysis, "yearly_income_projection")
	assert.Contains(t, out.Decision, "roadmap")
}

func TestRunConcurrentRequestsShareNothing(t *testing.T) {
	p := New(llm.NewFakeClient(), logger.Nop())
	errs := make(chan error, 8)
	for i := 0; i < 8; i++ {
		go func() {
			_, err := p.Run(context.Background(), testProfile())
			errs <- err
		}()
	}
	for i := 0; i < 8; i++ {
		assert.NoError(t, <-errs)
	}
}

type countingHook struct {
	before []string
	after  []string
	failed int
}

func (h *countingHook) Before(_ context.Context, phase, _ string) {
	h.before = append(h.before, phase)
}

func (h *countingHook) After(_ context.Context, phase, _ string, err error) {
	h.after = append(h.after, phase)
	if err != nil {
		h.failed++
	}
}

func TestRunHookSeesEachStageOnce(t *testing.T) {
	cli := &scriptedClient{replies: []string{planReply, analysisReply, decisionReply}}
	hook := &countingHook{}
	ctx := llm.WithHook(context.Background(), hook)

	_, err := New(llm.Wrap(cli, llm.WithHooks()), logger.Nop()).Run(ctx, testProfile())
	require.NoError(t, err)

	want := []string{StagePlan, StageAnalysis, StageDecision}
	assert.Equal(t, want, hook.before)
	assert.Equal(t, want, hook.after)
	assert.Zero(t, hook.failed)
}

func TestRunHookStopsAtFailedStage(t *testing.T) {
	cli := &scriptedClient{replies: []string{planReply}, errs: []error{nil, errors.New("connection reset")}}
	hook := &countingHook{}
	ctx := llm.WithHook(context.Background(), hook)

	_, err := New(llm.Wrap(cli, llm.WithHooks()), logger.Nop()).Run(ctx, testProfile())
	require.Error(t, err)

	assert.Equal(t, []string{StagePlan, StageAnalysis}, hook.before)
	assert.Equal(t, 1, hook.failed)
}
