package types

import (
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"
)

// Profile is the caller's life profile. It is read-only once decoded.
type Profile struct {
	Age                 int      `json:"age"`
	Country             string   `json:"country"`
	Education           string   `json:"education"`
	FieldOfStudy        string   `json:"fieldOfStudy"`
	JobTitle            string   `json:"jobTitle"`
	Salary              float64  `json:"salary"`
	Experience          int      `json:"experience"` // years
	Skills              string   `json:"skills"`
	TargetCountries     []string `json:"targetCountries"`
	CareerGoal          string   `json:"careerGoal"`
	SalaryGoal          float64  `json:"salaryGoal"`
	RiskTolerance       int      `json:"riskTolerance"`       // 0-100
	LifestylePreference int      `json:"lifestylePreference"` // 0-100
	Budget              float64  `json:"budget"`
	Savings             float64  `json:"savings"`
	FamilyDependency    bool     `json:"familyDependency"`
}

const (
	minScore = 0
	maxScore = 100
)

// FieldError describes one rejected profile field.
type FieldError struct {
	Loc string `json:"loc"`
	Msg string `json:"msg"`
}

// ValidationError collects every problem found in a profile payload.
type ValidationError struct {
	Fields []FieldError
}

func (e *ValidationError) Error() string {
	parts := make([]string, 0, len(e.Fields))
	for _, f := range e.Fields {
		parts = append(parts, f.Loc+": "+f.Msg)
	}
	return "invalid profile: " + strings.Join(parts, "; ")
}

// DecodeProfile decodes a JSON object into a Profile. Numeric fields accept
// either JSON numbers or numeric strings ("28"), since form clients post
// everything as text. All fields are required. A payload that is not a JSON
// object is returned as a plain decode error; field problems come back
// together as a *ValidationError.
func DecodeProfile(data []byte) (Profile, error) {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return Profile{}, fmt.Errorf("decode profile: %w", err)
	}
	if raw == nil {
		return Profile{}, fmt.Errorf("decode profile: body must be a JSON object")
	}
	d := &fieldDecoder{raw: raw}
	p := Profile{
		Age:                 d.integer("age"),
		Country:             d.str("country"),
		Education:           d.str("education"),
		FieldOfStudy:        d.str("fieldOfStudy"),
		JobTitle:            d.str("jobTitle"),
		Salary:              d.number("salary"),
		Experience:          d.integer("experience"),
		Skills:              d.str("skills"),
		TargetCountries:     d.strList("targetCountries"),
		CareerGoal:          d.str("careerGoal"),
		SalaryGoal:          d.number("salaryGoal"),
		RiskTolerance:       d.score("riskTolerance"),
		LifestylePreference: d.score("lifestylePreference"),
		Budget:              d.number("budget"),
		Savings:             d.number("savings"),
		FamilyDependency:    d.boolean("familyDependency"),
	}
	if len(d.errs) > 0 {
		return Profile{}, &ValidationError{Fields: d.errs}
	}
	return p, nil
}

type fieldDecoder struct {
	raw  map[string]json.RawMessage
	errs []FieldError
}

func (d *fieldDecoder) fail(name, msg string) {
	d.errs = append(d.errs, FieldError{Loc: name, Msg: msg})
}

func (d *fieldDecoder) lookup(name string) (json.RawMessage, bool) {
	v, ok := d.raw[name]
	if !ok {
		d.fail(name, "field required")
		return nil, false
	}
	if strings.TrimSpace(string(v)) == "null" {
		d.fail(name, "none is not an allowed value")
		return nil, false
	}
	return v, true
}

func (d *fieldDecoder) str(name string) string {
	v, ok := d.lookup(name)
	if !ok {
		return ""
	}
	var s string
	if err := json.Unmarshal(v, &s); err != nil {
		d.fail(name, "str type expected")
		return ""
	}
	return s
}

func (d *fieldDecoder) strList(name string) []string {
	v, ok := d.lookup(name)
	if !ok {
		return nil
	}
	var out []string
	if err := json.Unmarshal(v, &out); err != nil {
		d.fail(name, "value is not a valid list of strings")
		return nil
	}
	if out == nil {
		out = []string{}
	}
	return out
}

func (d *fieldDecoder) boolean(name string) bool {
	v, ok := d.lookup(name)
	if !ok {
		return false
	}
	var b bool
	if err := json.Unmarshal(v, &b); err == nil {
		return b
	}
	var s string
	if err := json.Unmarshal(v, &s); err == nil {
		if b, err := strconv.ParseBool(strings.TrimSpace(s)); err == nil {
			return b
		}
	}
	d.fail(name, "value could not be parsed to a boolean")
	return false
}

// parseNumber accepts a JSON number or a string holding one.
func parseNumber(v json.RawMessage) (float64, bool) {
	var f float64
	if err := json.Unmarshal(v, &f); err == nil {
		return f, true
	}
	var s string
	if err := json.Unmarshal(v, &s); err != nil {
		return 0, false
	}
	f, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, false
	}
	return f, true
}

func (d *fieldDecoder) number(name string) float64 {
	v, ok := d.lookup(name)
	if !ok {
		return 0
	}
	f, ok := parseNumber(v)
	if !ok {
		d.fail(name, "value is not a valid float")
		return 0
	}
	return f
}

func (d *fieldDecoder) integer(name string) int {
	v, ok := d.lookup(name)
	if !ok {
		return 0
	}
	f, ok := parseNumber(v)
	if !ok || f != math.Trunc(f) || math.Abs(f) > math.MaxInt32 {
		d.fail(name, "value is not a valid integer")
		return 0
	}
	return int(f)
}

func (d *fieldDecoder) score(name string) int {
	before := len(d.errs)
	n := d.integer(name)
	if len(d.errs) > before {
		return 0
	}
	switch {
	case n < minScore:
		d.fail(name, fmt.Sprintf("ensure this value is greater than or equal to %d", minScore))
	case n > maxScore:
		d.fail(name, fmt.Sprintf("ensure this value is less than or equal to %d", maxScore))
	}
	return n
}
