package dispatcher

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/morezero/classanalyser/pkg/aerr"
	"github.com/morezero/classanalyser/pkg/analyser"
	"github.com/morezero/classanalyser/pkg/classdb"
	"github.com/morezero/classanalyser/pkg/classfile"
	"github.com/morezero/classanalyser/pkg/compiler"
	"github.com/morezero/classanalyser/pkg/library"
	"github.com/morezero/classanalyser/pkg/meta"
	"github.com/morezero/classanalyser/pkg/staleness"
)

// fakeResolver derives deterministic fake paths from the class name so
// the test doesn't need a real filesystem layout, mirroring the
// analyser package's own fakeResolver.
type fakeResolver struct{}

func (fakeResolver) Resolve(_ *library.Library, className string) compiler.Paths {
	return compiler.Paths{
		Source: className + ".js",
		Output: className + ".out.js",
		Meta:   className + ".meta.json",
	}
}

// newRoutingAnalyser wires an Analyser with a single compiled class so
// the dispatcher's getClassInfo/getMeta/listLibraries routes have
// something real to return.
func newRoutingAnalyser(t *testing.T) *analyser.Analyser {
	t.Helper()

	classMetas := map[string]*meta.Meta{
		"more.Application": {ClassName: "more.Application"},
	}

	factory := func(className, _, _ string) classfile.ClassFile {
		return classfile.NewFake(className, &classdb.ClassInfo{}, classMetas[className])
	}

	statFn := func(path string) staleness.Stat {
		switch path {
		case "more.Application.js":
			return staleness.Stat{Exists: true, Mtime: time.Unix(1000, 0)}
		default:
			return staleness.Stat{Exists: false}
		}
	}

	dir := t.TempDir()
	a := analyser.New(analyser.Config{
		DBPath:   dir + "/db.json",
		MetaPath: func(className string) string { return dir + "/" + className + ".meta.json" },
		Paths:    fakeResolver{},
		Stat:     statFn,
		Factory:  factory,
	})

	lib := &library.Library{
		Namespace:  "more",
		ClassNames: map[string]struct{}{"more.Application": {}},
	}
	if err := a.AddLibrary(lib); err != nil {
		t.Fatalf("dispatcher:dispatch_routing_test - AddLibrary failed: %v", err)
	}
	if err := a.Open(); err != nil {
		t.Fatalf("dispatcher:dispatch_routing_test - Open failed: %v", err)
	}
	if _, err := a.AnalyseClasses(context.Background(), []string{"more.Application"}, false); err != nil {
		t.Fatalf("dispatcher:dispatch_routing_test - AnalyseClasses failed: %v", err)
	}

	return a
}

func TestDispatch_UnknownMethod(t *testing.T) {
	disp := &Dispatcher{analyser: nil}

	req := &AnalyserRequest{
		ID:     "test-1",
		Method: "nonexistent",
		Params: json.RawMessage(`{}`),
	}

	resp := disp.Dispatch(context.Background(), req)

	if resp.Ok {
		t.Error("dispatcher:dispatch_routing_test - expected Ok=false for unknown method")
	}
	if resp.ID != "test-1" {
		t.Errorf("dispatcher:dispatch_routing_test - expected ID=test-1, got %s", resp.ID)
	}
	if resp.Error == nil {
		t.Fatal("dispatcher:dispatch_routing_test - expected error, got nil")
	}
	if resp.Error.Code != "METHOD_NOT_FOUND" {
		t.Errorf("dispatcher:dispatch_routing_test - expected METHOD_NOT_FOUND, got %s", resp.Error.Code)
	}
	if resp.Error.Retryable {
		t.Error("dispatcher:dispatch_routing_test - METHOD_NOT_FOUND should not be retryable")
	}
}

func TestDispatch_UnknownMethodPreservesRequestID(t *testing.T) {
	disp := &Dispatcher{analyser: nil}

	ids := []string{"req-1", "req-2", "unique-abc-123", ""}
	for _, id := range ids {
		resp := disp.Dispatch(context.Background(), &AnalyserRequest{
			ID:     id,
			Method: "unknown",
			Params: json.RawMessage(`{}`),
		})

		if resp.ID != id {
			t.Errorf("dispatcher:dispatch_routing_test - expected ID=%q, got %q", id, resp.ID)
		}
	}
}

func TestDispatch_GetClassInfo(t *testing.T) {
	a := newRoutingAnalyser(t)
	disp := NewDispatcher(a)

	resp := disp.Dispatch(context.Background(), &AnalyserRequest{
		ID:     "req-1",
		Method: "getClassInfo",
		Params: json.RawMessage(`{"className":"more.Application"}`),
	})

	if !resp.Ok {
		t.Fatalf("dispatcher:dispatch_routing_test - expected Ok=true, got error %v", resp.Error)
	}
	info, ok := resp.Result.(*classdb.ClassInfo)
	if !ok {
		t.Fatalf("dispatcher:dispatch_routing_test - result type = %T, want *classdb.ClassInfo", resp.Result)
	}
	_ = info
}

func TestDispatch_GetClassInfo_UnknownClass(t *testing.T) {
	a := newRoutingAnalyser(t)
	disp := NewDispatcher(a)

	resp := disp.Dispatch(context.Background(), &AnalyserRequest{
		ID:     "req-1",
		Method: "getClassInfo",
		Params: json.RawMessage(`{"className":"does.not.Exist"}`),
	})

	if resp.Ok {
		t.Error("dispatcher:dispatch_routing_test - expected Ok=false for unknown class")
	}
	if resp.Error == nil {
		t.Fatal("dispatcher:dispatch_routing_test - expected error, got nil")
	}
	if resp.Error.Code != string(aerr.NoClassFile) {
		t.Errorf("dispatcher:dispatch_routing_test - Code = %q, want %q", resp.Error.Code, aerr.NoClassFile)
	}
}

func TestDispatch_GetMeta(t *testing.T) {
	a := newRoutingAnalyser(t)
	disp := NewDispatcher(a)

	resp := disp.Dispatch(context.Background(), &AnalyserRequest{
		ID:     "req-1",
		Method: "getMeta",
		Params: json.RawMessage(`{"className":"more.Application"}`),
	})

	if !resp.Ok {
		t.Fatalf("dispatcher:dispatch_routing_test - expected Ok=true, got error %v", resp.Error)
	}
	m, ok := resp.Result.(*meta.Meta)
	if !ok {
		t.Fatalf("dispatcher:dispatch_routing_test - result type = %T, want *meta.Meta", resp.Result)
	}
	if m.ClassName != "more.Application" {
		t.Errorf("dispatcher:dispatch_routing_test - ClassName = %q, want more.Application", m.ClassName)
	}
}

func TestDispatch_ListLibraries(t *testing.T) {
	a := newRoutingAnalyser(t)
	disp := NewDispatcher(a)

	resp := disp.Dispatch(context.Background(), &AnalyserRequest{
		ID:     "req-1",
		Method: "listLibraries",
		Params: json.RawMessage(`{}`),
	})

	if !resp.Ok {
		t.Fatalf("dispatcher:dispatch_routing_test - expected Ok=true, got error %v", resp.Error)
	}
	names, ok := resp.Result.([]string)
	if !ok {
		t.Fatalf("dispatcher:dispatch_routing_test - result type = %T, want []string", resp.Result)
	}
	if len(names) != 1 || names[0] != "more" {
		t.Errorf("dispatcher:dispatch_routing_test - expected [more], got %v", names)
	}
}

func TestDispatch_ListClasses(t *testing.T) {
	a := newRoutingAnalyser(t)
	disp := NewDispatcher(a)

	resp := disp.Dispatch(context.Background(), &AnalyserRequest{
		ID:     "req-1",
		Method: "listClasses",
		Params: json.RawMessage(`{"query":"app"}`),
	})

	if !resp.Ok {
		t.Fatalf("dispatcher:dispatch_routing_test - expected Ok=true, got error %v", resp.Error)
	}
	names, ok := resp.Result.([]string)
	if !ok {
		t.Fatalf("dispatcher:dispatch_routing_test - result type = %T, want []string", resp.Result)
	}
	if len(names) != 1 || names[0] != "more.Application" {
		t.Errorf("dispatcher:dispatch_routing_test - expected [more.Application], got %v", names)
	}
}

func TestDispatch_Health(t *testing.T) {
	a := newRoutingAnalyser(t)
	disp := NewDispatcher(a)

	resp := disp.Dispatch(context.Background(), &AnalyserRequest{
		ID:     "req-1",
		Method: "health",
		Params: json.RawMessage(`{}`),
	})

	if !resp.Ok {
		t.Fatalf("dispatcher:dispatch_routing_test - expected Ok=true, got error %v", resp.Error)
	}
	h, ok := resp.Result.(*analyser.HealthOutput)
	if !ok {
		t.Fatalf("dispatcher:dispatch_routing_test - result type = %T, want *analyser.HealthOutput", resp.Result)
	}
	if h.Status != "healthy" {
		t.Errorf("dispatcher:dispatch_routing_test - Status = %q, want healthy", h.Status)
	}
}

func TestDispatch_InvalidParams_ReturnsInvalidArgument(t *testing.T) {
	a := newRoutingAnalyser(t)
	disp := NewDispatcher(a)

	resp := disp.Dispatch(context.Background(), &AnalyserRequest{
		ID:     "req-1",
		Method: "getClassInfo",
		Params: json.RawMessage(`{invalid json`),
	})

	if resp.Ok {
		t.Error("dispatcher:dispatch_routing_test - expected Ok=false for invalid params")
	}
	if resp.Error == nil {
		t.Fatal("dispatcher:dispatch_routing_test - expected error")
	}
	if resp.Error.Code != "INVALID_ARGUMENT" {
		t.Errorf("dispatcher:dispatch_routing_test - Code = %q, want INVALID_ARGUMENT", resp.Error.Code)
	}
}

func TestErrorResponse(t *testing.T) {
	tests := []struct {
		name      string
		id        string
		code      string
		message   string
		retryable bool
	}{
		{
			name:      "not found error",
			id:        "req-1",
			code:      "NOT_FOUND",
			message:   "Class not found",
			retryable: false,
		},
		{
			name:      "internal error is retryable",
			id:        "req-2",
			code:      "INTERNAL_ERROR",
			message:   "Database unavailable",
			retryable: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp := errorResponse(tt.id, tt.code, tt.message, tt.retryable)

			if resp.ID != tt.id {
				t.Errorf("dispatcher:dispatch_routing_test - ID = %q, want %q", resp.ID, tt.id)
			}
			if resp.Ok {
				t.Error("dispatcher:dispatch_routing_test - expected Ok=false")
			}
			if resp.Error == nil {
				t.Fatal("dispatcher:dispatch_routing_test - expected error, got nil")
			}
			if resp.Error.Code != tt.code {
				t.Errorf("dispatcher:dispatch_routing_test - Code = %q, want %q", resp.Error.Code, tt.code)
			}
			if resp.Result != nil {
				t.Errorf("dispatcher:dispatch_routing_test - expected Result=nil, got %v", resp.Result)
			}
		})
	}
}

func TestAnalyserErrorToResponse_GenericError(t *testing.T) {
	genericErr := errors.New("something went wrong")
	resp := analyserErrorToResponse("req-1", genericErr)

	if resp.Ok {
		t.Error("dispatcher:dispatch_routing_test - expected Ok=false")
	}
	if resp.Error.Code != "INTERNAL_ERROR" {
		t.Errorf("dispatcher:dispatch_routing_test - Code = %q, want INTERNAL_ERROR", resp.Error.Code)
	}
	if !resp.Error.Retryable {
		t.Error("dispatcher:dispatch_routing_test - generic errors should be retryable")
	}
}
