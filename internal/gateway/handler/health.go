package handler

import "net/http"

type HealthHandler struct {
	model string
}

func NewHealthHandler(model string) *HealthHandler {
	return &HealthHandler{model: model}
}

func (h *HealthHandler) HandleHealth(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet && r.Method != http.MethodHead {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"status": "ok", "model": h.model})
}
