package dispatcher

import (
	"encoding/json"
	"testing"
)

func TestAnalyserRequest_Unmarshal(t *testing.T) {
	raw := `{
		"id": "req-1",
		"type": "invoke",
		"method": "getClassInfo",
		"params": {"className": "more.Application"},
		"ctx": {"correlationId": "corr-1"}
	}`

	var req AnalyserRequest
	if err := json.Unmarshal([]byte(raw), &req); err != nil {
		t.Fatalf("dispatcher:dispatcher_test - failed to unmarshal: %v", err)
	}

	if req.ID != "req-1" {
		t.Errorf("dispatcher:dispatcher_test - expected id req-1, got %s", req.ID)
	}
	if req.Method != "getClassInfo" {
		t.Errorf("dispatcher:dispatcher_test - expected method getClassInfo, got %s", req.Method)
	}
	if req.Ctx == nil {
		t.Fatal("dispatcher:dispatcher_test - expected ctx, got nil")
	}
	if req.Ctx.CorrelationID != "corr-1" {
		t.Errorf("dispatcher:dispatcher_test - expected corr-1, got %s", req.Ctx.CorrelationID)
	}
}

func TestAnalyserResponse_Marshal(t *testing.T) {
	resp := &AnalyserResponse{
		ID: "req-1",
		Ok: true,
		Result: map[string]interface{}{
			"className": "more.Application",
			"extends":   "qx.application.Standalone",
		},
	}

	data, err := json.Marshal(resp)
	if err != nil {
		t.Fatalf("dispatcher:dispatcher_test - failed to marshal: %v", err)
	}

	var decoded map[string]interface{}
	if err := json.Unmarshal(data, &decoded); err != nil {
		t.Fatalf("dispatcher:dispatcher_test - failed to unmarshal response: %v", err)
	}

	if decoded["ok"] != true {
		t.Errorf("dispatcher:dispatcher_test - expected ok=true, got %v", decoded["ok"])
	}
	if decoded["id"] != "req-1" {
		t.Errorf("dispatcher:dispatcher_test - expected id=req-1, got %v", decoded["id"])
	}
}

func TestAnalyserResponse_Error(t *testing.T) {
	resp := &AnalyserResponse{
		ID: "req-2",
		Ok: false,
		Error: &ErrorDetail{
			Code:      "NO_CLASS_FILE",
			Message:   "Class not found",
			Retryable: false,
		},
	}

	data, err := json.Marshal(resp)
	if err != nil {
		t.Fatalf("dispatcher:dispatcher_test - failed to marshal: %v", err)
	}

	var decoded AnalyserResponse
	if err := json.Unmarshal(data, &decoded); err != nil {
		t.Fatalf("dispatcher:dispatcher_test - failed to unmarshal: %v", err)
	}

	if decoded.Ok {
		t.Error("dispatcher:dispatcher_test - expected ok=false")
	}
	if decoded.Error == nil {
		t.Fatal("dispatcher:dispatcher_test - expected error, got nil")
	}
	if decoded.Error.Code != "NO_CLASS_FILE" {
		t.Errorf("dispatcher:dispatcher_test - expected NO_CLASS_FILE, got %s", decoded.Error.Code)
	}
}

func TestInvocationContext_JSON(t *testing.T) {
	raw := `{
		"requestId": "r-1",
		"correlationId": "c-1",
		"deadlineMs": 5000,
		"timeoutMs": 3000
	}`

	var ctx InvocationContext
	if err := json.Unmarshal([]byte(raw), &ctx); err != nil {
		t.Fatalf("dispatcher:dispatcher_test - failed to unmarshal: %v", err)
	}

	if ctx.RequestID != "r-1" {
		t.Errorf("dispatcher:dispatcher_test - RequestID = %q, want %q", ctx.RequestID, "r-1")
	}
	if ctx.DeadlineMs != 5000 {
		t.Errorf("dispatcher:dispatcher_test - DeadlineMs = %d, want 5000", ctx.DeadlineMs)
	}
	if ctx.TimeoutMs != 3000 {
		t.Errorf("dispatcher:dispatcher_test - TimeoutMs = %d, want 3000", ctx.TimeoutMs)
	}
}

func TestErrorDetail_JSON(t *testing.T) {
	detail := &ErrorDetail{
		Code:      "VALIDATION_ERROR",
		Message:   "Field 'className' is required",
		Details:   map[string]string{"field": "className"},
		Retryable: false,
	}

	data, err := json.Marshal(detail)
	if err != nil {
		t.Fatalf("dispatcher:dispatcher_test - marshal failed: %v", err)
	}

	var decoded ErrorDetail
	if err := json.Unmarshal(data, &decoded); err != nil {
		t.Fatalf("dispatcher:dispatcher_test - unmarshal failed: %v", err)
	}

	if decoded.Code != "VALIDATION_ERROR" {
		t.Errorf("dispatcher:dispatcher_test - Code = %q, want %q", decoded.Code, "VALIDATION_ERROR")
	}
	if decoded.Retryable {
		t.Error("dispatcher:dispatcher_test - expected Retryable=false")
	}
}
