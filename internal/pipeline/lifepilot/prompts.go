package lifepilot

import (
	"lifepilot/internal/llmtool"
	"lifepilot/internal/types"
)

// The output formats below are the only schema the stage results have.
// Clients read these key names; keep them stable.

const plannerFormat = `Return strictly valid JSON only in this format:
{
  "financial_analysis": true,
  "career_analysis": true,
  "education_analysis": true,
  "country_comparison": true,
  "lifestyle_assessment": true,
  "risk_assessment": true,
  "ten_year_simulation": true
}`

const analysisFormat = `Return strictly valid JSON containing:
- option_wise_comparison (detailed metrics for target countries vs current)
- yearly_income_projection (10 years, list of { "year": int, "value": int })
- savings_projection (10 years, list of { "year": int, "value": int })
- metrics (financial_roi, career_growth, lifestyle, stability, risk_management, overall_score) - all 0-100
- career_trajectory (list of { "month": string, "value": int })`

const decisionFormat = `Return strictly valid JSON in this format:
{
  "main_path": {
    "title": "Path Name",
    "description": "Short summary",
    "confidence": 95,
    "potential": "High Potential | Medium Potential",
    "key_reasons": ["Reason 1", "Reason 2"]
  },
  "alternative_paths": [
    {
      "title": "Path Name",
      "recommended": false,
      "cost": "$Amount",
      "avg_salary": "$Amount/yr",
      "lifestyle_score": 85,
      "risk_level": "Low | Medium | High",
      "growth_potential": 90
    }
  ],
  "roadmap": [
    {
      "period": "Months X-Y",
      "phase": "Phase Name",
      "tasks": ["Task 1", "Task 2"]
    }
  ]
}`

// PlannerPrompt asks the model to decompose the decision into analysis flags.
func PlannerPrompt(p types.Profile) (string, error) {
	return llmtool.BuildStagePrompt(llmtool.StagePromptSpec{
		Persona:      "You are LifePilot Planner Agent.",
		Inputs:       []llmtool.PromptInput{{Label: "User Profile", Value: p}},
		Task:         "Break down this life decision into structured analysis tasks.",
		OutputFormat: plannerFormat,
	})
}

// AnalysisPrompt asks for multi-step reasoning and a ten-year simulation
// guided by the plan.
func AnalysisPrompt(p types.Profile, plan types.StageResult) (string, error) {
	return llmtool.BuildStagePrompt(llmtool.StagePromptSpec{
		Persona: "You are LifePilot Analysis Agent.",
		Inputs: []llmtool.PromptInput{
			{Label: "User Profile", Value: p},
			{Label: "Task Plan", Value: plan},
		},
		Task:         "Perform deep multi-step reasoning and a realistic 10-year simulation.",
		OutputFormat: analysisFormat,
	})
}

// DecisionPrompt asks for a weighted-scoring choice and a phased roadmap.
func DecisionPrompt(p types.Profile, analysis types.StageResult) (string, error) {
	return llmtool.BuildStagePrompt(llmtool.StagePromptSpec{
		Persona: "You are LifePilot Decision Agent.",
		Inputs: []llmtool.PromptInput{
			{Label: "User Profile", Value: p},
			{Label: "Analysis Results", Value: analysis},
		},
		Task:         "Choose the best life decision using weighted scoring and provide a visual roadmap.",
		OutputFormat: decisionFormat,
	})
}
