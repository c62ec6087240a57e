package llmtool

import (
	"bytes"
	"errors"
	"fmt"
	"strings"

	"lifepilot/internal/util/jsonutil"
)

// PromptInput is a labelled value rendered as indented JSON in the prompt.
type PromptInput struct {
	Label string
	Value any
}

// StagePromptSpec defines the parts of a single-turn stage prompt.
type StagePromptSpec struct {
	Persona      string // "You are ..."
	Inputs       []PromptInput
	Task         string
	OutputFormat string // literal shape the model must return
}

// BuildStagePrompt renders spec as plain text: persona, each input under its
// label, the task, then the output format. Output is a pure function of spec.
func BuildStagePrompt(spec StagePromptSpec) (string, error) {
	if strings.TrimSpace(spec.Persona) == "" {
		return "", errors.New("llmtool: persona is empty")
	}
	if strings.TrimSpace(spec.OutputFormat) == "" {
		return "", errors.New("llmtool: output format is empty")
	}

	var buf bytes.Buffer
	buf.WriteString(strings.TrimSpace(spec.Persona))
	buf.WriteString("\n\n")
	for _, in := range spec.Inputs {
		body, err := formatAnyJSON(in.Value)
		if err != nil {
			return "", fmt.Errorf("llmtool: encode %s: %w", in.Label, err)
		}
		writeSection(&buf, in.Label, body)
	}
	if task := strings.TrimSpace(spec.Task); task != "" {
		buf.WriteString(task)
		buf.WriteString("\n\n")
	}
	buf.WriteString(strings.TrimSpace(spec.OutputFormat))
	buf.WriteString("\n")
	return buf.String(), nil
}

func formatAnyJSON(v any) (string, error) {
	if v == nil {
		return "null", nil
	}
	b, err := jsonutil.MarshalNoEscapeIndent(v)
	if err != nil {
		return "", err
	}
	return string(b), nil
}

func writeSection(buf *bytes.Buffer, label, body string) {
	buf.WriteString(label)
	buf.WriteString(":\n")
	buf.WriteString(body)
	buf.WriteString("\n\n")
}
