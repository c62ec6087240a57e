package types

import "encoding/json"

// StageResult is the JSON object recovered from one stage's model reply.
// Values are nested map[string]any, []any, string, json.Number, bool or nil.
// The expected keys are described by the stage prompt and are not enforced
// here.
type StageResult map[string]any

// PipelineOutcome is the answer to one analyze request.
type PipelineOutcome struct {
	Plan     StageResult `json:"plan"`
	Analysis StageResult `json:"analysis"`
	Decision StageResult `json:"decision"`
}

// AsMap returns the outcome as plain nested maps with json.Number values
// converted to int64 (when integral and in range) or float64, the form
// generic JSON value converters such as structpb accept.
func (o PipelineOutcome) AsMap() map[string]any {
	return map[string]any{
		"plan":     plainValue(map[string]any(o.Plan)),
		"analysis": plainValue(map[string]any(o.Analysis)),
		"decision": plainValue(map[string]any(o.Decision)),
	}
}

func plainValue(v any) any {
	switch x := v.(type) {
	case json.Number:
		if n, err := x.Int64(); err == nil {
			return n
		}
		if f, err := x.Float64(); err == nil {
			return f
		}
		return x.String()
	case map[string]any:
		if x == nil {
			return map[string]any(nil)
		}
		out := make(map[string]any, len(x))
		for k, vv := range x {
			out[k] = plainValue(vv)
		}
		return out
	case StageResult:
		return plainValue(map[string]any(x))
	case []any:
		out := make([]any, len(x))
		for i, vv := range x {
			out[i] = plainValue(vv)
		}
		return out
	default:
		return v
	}
}
