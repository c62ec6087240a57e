package rpc

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"connectrpc.com/connect"
	"google.golang.org/protobuf/encoding/protojson"
	"google.golang.org/protobuf/types/known/structpb"

	"lifepilot/internal/gateway/middleware"
	"lifepilot/internal/llm"
	"lifepilot/internal/logger"
	"lifepilot/internal/pipeline/lifepilot"
	"lifepilot/internal/types"
	"lifepilot/internal/util/jsonutil"
)

const (
	LifePilotServiceName = "lifepilot.v1.LifePilotService"
	// AnalyzeLifeProcedure takes the profile as a google.protobuf.Struct and
	// answers with a Struct holding plan, analysis and decision.
	AnalyzeLifeProcedure = "/" + LifePilotServiceName + "/AnalyzeLife"
)

// Analyzer runs the planning pipeline for one profile.
type Analyzer interface {
	Run(ctx context.Context, profile types.Profile) (types.PipelineOutcome, error)
}

type LifePilotHandler struct {
	analyzer Analyzer
	log      *logger.Logger
}

func NewLifePilotHandler(analyzer Analyzer, log *logger.Logger) *LifePilotHandler {
	if log == nil {
		log = logger.Nop()
	}
	return &LifePilotHandler{analyzer: analyzer, log: log}
}

// Route returns the mount path and handler, in the shape ServeMux.Handle takes.
func (h *LifePilotHandler) Route(opts ...connect.HandlerOption) (string, http.Handler) {
	return AnalyzeLifeProcedure, connect.NewUnaryHandler(AnalyzeLifeProcedure, h.AnalyzeLife, opts...)
}

func (h *LifePilotHandler) AnalyzeLife(ctx context.Context, req *connect.Request[structpb.Struct]) (*connect.Response[structpb.Struct], error) {
	raw, err := protojson.Marshal(req.Msg)
	if err != nil {
		return nil, connect.NewError(connect.CodeInvalidArgument, err)
	}
	profile, err := types.DecodeProfile(raw)
	if err != nil {
		return nil, connect.NewError(connect.CodeInvalidArgument, err)
	}
	hook := llm.NewLogHook(h.log.With("request_id", middleware.RequestIDFrom(ctx), "procedure", AnalyzeLifeProcedure))
	out, err := h.analyzer.Run(llm.WithHook(ctx, hook), profile)
	if err != nil {
		return nil, toPipelineError(err)
	}
	msg, err := structpb.NewStruct(out.AsMap())
	if err != nil {
		return nil, connect.NewError(connect.CodeInternal, fmt.Errorf("encode outcome: %w", err))
	}
	return connect.NewResponse(msg), nil
}

func toPipelineError(err error) error {
	var xerr *jsonutil.ExtractError
	var serr *lifepilot.StageError
	switch {
	case errors.As(err, &xerr):
		return connect.NewError(connect.CodeInternal, err)
	case errors.Is(err, llm.ErrUpstreamTimeout):
		return connect.NewError(connect.CodeDeadlineExceeded, err)
	case errors.Is(err, context.Canceled):
		return connect.NewError(connect.CodeCanceled, err)
	case errors.As(err, &serr) && serr.Step == lifepilot.StepGenerate:
		return connect.NewError(connect.CodeUnavailable, err)
	default:
		return connect.NewError(connect.CodeInternal, fmt.Errorf("pipeline failed: %w", err))
	}
}
