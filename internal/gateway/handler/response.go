package handler

import (
	"net/http"

	"lifepilot/internal/util/jsonutil"
)

func writeJSON(w http.ResponseWriter, status int, v any) {
	b, err := jsonutil.MarshalNoEscape(v)
	if err != nil {
		status = http.StatusInternalServerError
		b = []byte(`{"detail":"response encoding failed"}`)
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, _ = w.Write(b)
}

// writeDetail writes the {"detail": msg} error body clients already parse.
func writeDetail(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]any{"detail": msg})
}
