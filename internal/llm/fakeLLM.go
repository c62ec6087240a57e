package llm

import (
	"context"
	"encoding/json"
	"fmt"
)

// FakeClient returns deterministic replies per phase for offline runs. Each
// reply wraps a JSON payload in a line of prose the way real models tend to.
type FakeClient struct{}

func NewFakeClient() *FakeClient { return &FakeClient{} }

func (f *FakeClient) Name() string { return "FakeLLM" }
func (f *FakeClient) Close() error { return nil }

func (f *FakeClient) Generate(ctx context.Context, prompt string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	phase := PhaseFrom(ctx)
	b, err := json.MarshalIndent(fakePayload(phase), "", "  ")
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("Here is the %s result:\n%s\nLet me know if you need anything else.", phase, b), nil
}

func fakePayload(phase string) map[string]any {
	switch phase {
	case "plan":
		return map[string]any{
			"financial_analysis":   true,
			"career_analysis":      true,
			"education_analysis":   true,
			"country_comparison":   true,
			"lifestyle_assessment": true,
			"risk_assessment":      true,
			"ten_year_simulation":  true,
		}
	case "analysis":
		income := make([]any, 0, 10)
		savings := make([]any, 0, 10)
		for y := 1; y <= 10; y++ {
			income = append(income, map[string]any{"year": y, "value": 40000 + 6000*y})
			savings = append(savings, map[string]any{"year": y, "value": 5000 * y * y / 2})
		}
		return map[string]any{
			"option_wise_comparison": map[string]any{
				"current": map[string]any{"avg_salary": 12000, "cost_of_living": 35, "career_growth": 55},
				"target":  map[string]any{"avg_salary": 65000, "cost_of_living": 70, "career_growth": 80},
			},
			"yearly_income_projection": income,
			"savings_projection":       savings,
			"metrics": map[string]any{
				"financial_roi":   72,
				"career_growth":   80,
				"lifestyle":       68,
				"stability":       61,
				"risk_management": 58,
				"overall_score":   70,
			},
			"career_trajectory": []any{
				map[string]any{"month": "Month 1", "value": 10},
				map[string]any{"month": "Month 6", "value": 35},
				map[string]any{"month": "Month 12", "value": 60},
			},
		}
	case "decision":
		return map[string]any{
			"main_path": map[string]any{
				"title":       "Relocate for a senior engineering role",
				"description": "Move abroad after upskilling for one year.",
				"confidence":  82,
				"potential":   "High Potential",
				"key_reasons": []any{"Higher salary ceiling", "Stronger AI job market"},
			},
			"alternative_paths": []any{
				map[string]any{
					"title":            "Stay and grow locally",
					"recommended":      false,
					"cost":             "$0",
					"avg_salary":       "$18,000/yr",
					"lifestyle_score":  74,
					"risk_level":       "Low",
					"growth_potential": 60,
				},
			},
			"roadmap": []any{
				map[string]any{"period": "Months 1-6", "phase": "Upskill", "tasks": []any{"Finish ML certification", "Ship two portfolio projects"}},
				map[string]any{"period": "Months 7-12", "phase": "Apply", "tasks": []any{"Apply to 30 roles", "Prepare visa documents"}},
			},
		}
	default:
		return map[string]any{}
	}
}
