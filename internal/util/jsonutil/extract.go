package jsonutil

import (
	"bytes"
	"encoding/json"
	"errors"
	"strings"
)

// ErrNoJSONObject is reported when the text holds no '{' ... '}' span.
var ErrNoJSONObject = errors.New("no JSON object found")

// ExtractError reports why ExtractObject could not recover an object.
// Err is either ErrNoJSONObject or the decoder's diagnostic.
type ExtractError struct {
	Err error
}

func (e *ExtractError) Error() string { return "JSON parse error: " + e.Err.Error() }
func (e *ExtractError) Unwrap() error { return e.Err }

// ObjectSpan returns the text from the first '{' to the last '}'.
//
// The selection is deliberately not brace-balanced: two separate objects in
// one reply merge into a single span (which then fails to parse), and a stray
// '}' in trailing prose is swallowed into the span. Callers rely on these
// failure semantics; do not replace this with a depth-counting scanner.
func ObjectSpan(text string) (string, bool) {
	start := strings.IndexByte(text, '{')
	if start < 0 {
		return "", false
	}
	end := strings.LastIndexByte(text, '}')
	if end < start {
		return "", false
	}
	return text[start : end+1], true
}

// ExtractObject locates the outermost '{' ... '}' span in text (see
// ObjectSpan) and decodes it as a JSON object. Model replies often wrap the
// payload in explanations or code fences; those are ignored as long as they
// contain no braces.
//
// Numbers are kept as json.Number so integers of any size survive exactly.
func ExtractObject(text string) (map[string]any, error) {
	span, ok := ObjectSpan(text)
	if !ok {
		return nil, &ExtractError{Err: ErrNoJSONObject}
	}
	data := []byte(span)
	// full-span validation: trailing data after the object is a syntax error
	var raw json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, &ExtractError{Err: err}
	}
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	var obj map[string]any
	if err := dec.Decode(&obj); err != nil {
		return nil, &ExtractError{Err: err}
	}
	return obj, nil
}
