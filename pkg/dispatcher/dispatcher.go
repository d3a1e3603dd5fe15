package dispatcher

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/morezero/classanalyser/pkg/aerr"
	"github.com/morezero/classanalyser/pkg/analyser"
)

const logPrefix = "dispatcher:dispatch"

// Dispatcher routes COMMS requests to analyser query methods.
type Dispatcher struct {
	analyser *analyser.Analyser
}

// NewDispatcher creates a new Dispatcher.
func NewDispatcher(a *analyser.Analyser) *Dispatcher {
	return &Dispatcher{analyser: a}
}

// Dispatch routes a request to the appropriate analyser method and
// returns a response.
func (d *Dispatcher) Dispatch(ctx context.Context, req *AnalyserRequest) *AnalyserResponse {
	slog.Debug(fmt.Sprintf("%s - method=%s id=%s", logPrefix, req.Method, req.ID))

	switch req.Method {
	case "getClassInfo":
		return d.handleGetClassInfo(req)
	case "getMeta":
		return d.handleGetMeta(req)
	case "listLibraries":
		return d.handleListLibraries(req)
	case "listClasses":
		return d.handleListClasses(req)
	case "health":
		return d.handleHealth(ctx, req)
	default:
		return &AnalyserResponse{
			ID: req.ID,
			Ok: false,
			Error: &ErrorDetail{
				Code:      "METHOD_NOT_FOUND",
				Message:   fmt.Sprintf("Unknown method: %s", req.Method),
				Retryable: false,
			},
		}
	}
}

type classNameParams struct {
	ClassName string `json:"className"`
}

func (d *Dispatcher) handleGetClassInfo(req *AnalyserRequest) *AnalyserResponse {
	var input classNameParams
	if err := json.Unmarshal(req.Params, &input); err != nil {
		return errorResponse(req.ID, "INVALID_ARGUMENT", "Failed to parse getClassInfo params", false)
	}

	out, ok := d.analyser.DescribeClass(input.ClassName)
	if !ok {
		return analyserErrorToResponse(req.ID, aerr.New(aerr.NoClassFile, "unknown class %s", input.ClassName))
	}
	return &AnalyserResponse{ID: req.ID, Ok: true, Result: out.Info}
}

func (d *Dispatcher) handleGetMeta(req *AnalyserRequest) *AnalyserResponse {
	var input classNameParams
	if err := json.Unmarshal(req.Params, &input); err != nil {
		return errorResponse(req.ID, "INVALID_ARGUMENT", "Failed to parse getMeta params", false)
	}

	out, ok := d.analyser.DescribeClass(input.ClassName)
	if !ok {
		return analyserErrorToResponse(req.ID, aerr.New(aerr.NoClassFile, "unknown class %s", input.ClassName))
	}
	if out.Meta == nil {
		return analyserErrorToResponse(req.ID, aerr.New(aerr.NoClassFile, "no meta available for %s", input.ClassName))
	}
	return &AnalyserResponse{ID: req.ID, Ok: true, Result: out.Meta}
}

type discoverParams struct {
	Query string `json:"query"`
}

func (d *Dispatcher) handleListClasses(req *AnalyserRequest) *AnalyserResponse {
	var input discoverParams
	if len(req.Params) > 0 {
		if err := json.Unmarshal(req.Params, &input); err != nil {
			return errorResponse(req.ID, "INVALID_ARGUMENT", "Failed to parse listClasses params", false)
		}
	}

	result := d.analyser.DiscoverClasses(input.Query)
	return &AnalyserResponse{ID: req.ID, Ok: true, Result: result}
}

func (d *Dispatcher) handleListLibraries(req *AnalyserRequest) *AnalyserResponse {
	libs := d.analyser.Index.Libraries()
	names := make([]string, 0, len(libs))
	for _, lib := range libs {
		names = append(names, lib.Namespace)
	}
	return &AnalyserResponse{ID: req.ID, Ok: true, Result: names}
}

func (d *Dispatcher) handleHealth(ctx context.Context, req *AnalyserRequest) *AnalyserResponse {
	result := d.analyser.Health(ctx)
	return &AnalyserResponse{ID: req.ID, Ok: true, Result: result}
}

// --- helpers ---

func errorResponse(id, code, message string, retryable bool) *AnalyserResponse {
	return &AnalyserResponse{
		ID: id,
		Ok: false,
		Error: &ErrorDetail{
			Code:      code,
			Message:   message,
			Retryable: retryable,
		},
	}
}

func analyserErrorToResponse(id string, err error) *AnalyserResponse {
	if ae, ok := err.(*aerr.Error); ok {
		return &AnalyserResponse{
			ID: id,
			Ok: false,
			Error: &ErrorDetail{
				Code:      string(ae.Kind),
				Message:   ae.Message,
				Details:   ae.Details,
				Retryable: false,
			},
		}
	}
	return errorResponse(id, "INTERNAL_ERROR", err.Error(), true)
}
