package handler

import (
	"context"
	"errors"
	"io"
	"net/http"

	"lifepilot/internal/gateway/middleware"
	"lifepilot/internal/llm"
	"lifepilot/internal/logger"
	"lifepilot/internal/pipeline/lifepilot"
	"lifepilot/internal/types"
	"lifepilot/internal/util/jsonutil"
)

const maxProfileBytes = 1 << 20

// statusClientClosedRequest is nginx's non-standard 499: the caller went away
// before the pipeline finished. It only shows up in access logs.
const statusClientClosedRequest = 499

// Analyzer runs the planning pipeline for one profile.
type Analyzer interface {
	Run(ctx context.Context, profile types.Profile) (types.PipelineOutcome, error)
}

type AnalyzeHandler struct {
	analyzer Analyzer
	log      *logger.Logger
}

func NewAnalyzeHandler(analyzer Analyzer, log *logger.Logger) *AnalyzeHandler {
	if log == nil {
		log = logger.Nop()
	}
	return &AnalyzeHandler{analyzer: analyzer, log: log}
}

// HandleAnalyzeLife serves POST /analyze-life: profile in, {plan, analysis,
// decision} out.
func (h *AnalyzeHandler) HandleAnalyzeLife(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		w.Header().Set("Allow", http.MethodPost)
		writeDetail(w, http.StatusMethodNotAllowed, "Method Not Allowed")
		return
	}
	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxProfileBytes))
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			writeDetail(w, http.StatusRequestEntityTooLarge, "request body too large")
			return
		}
		writeDetail(w, http.StatusBadRequest, "failed to read request body: "+err.Error())
		return
	}
	profile, err := types.DecodeProfile(body)
	if err != nil {
		var verr *types.ValidationError
		if errors.As(err, &verr) {
			writeJSON(w, http.StatusUnprocessableEntity, map[string]any{"detail": verr.Fields})
			return
		}
		writeDetail(w, http.StatusBadRequest, err.Error())
		return
	}

	requestID := middleware.RequestIDFrom(r.Context())
	ctx := llm.WithHook(r.Context(), llm.NewLogHook(h.log.With("request_id", requestID)))
	out, err := h.analyzer.Run(ctx, profile)
	if err != nil {
		status := statusForPipelineError(err)
		h.log.Error("analyze-life failed",
			"request_id", requestID,
			"status", status,
			"error", err,
		)
		writeDetail(w, status, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, out)
}

// statusForPipelineError maps a pipeline failure onto an HTTP status.
// Unrecoverable model output is a server fault (500); upstream faults are
// reported as gateway errors.
func statusForPipelineError(err error) int {
	var xerr *jsonutil.ExtractError
	switch {
	case errors.As(err, &xerr):
		return http.StatusInternalServerError
	case errors.Is(err, llm.ErrUpstreamTimeout):
		return http.StatusGatewayTimeout
	case errors.Is(err, context.Canceled):
		return statusClientClosedRequest
	}
	var serr *lifepilot.StageError
	if errors.As(err, &serr) && serr.Step == lifepilot.StepGenerate {
		return http.StatusBadGateway
	}
	return http.StatusInternalServerError
}
