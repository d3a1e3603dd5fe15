package events

import (
	"context"
	"testing"
)

func TestNoOpPublisher(t *testing.T) {
	pub := &NoOpPublisher{}
	ctx := context.Background()
	if err := pub.PublishCompiling(ctx, &CompilingClassEvent{ClassName: "my.app.Widget"}); err != nil {
		t.Errorf("events:publisher_test - expected no error, got %v", err)
	}
	if err := pub.PublishCompiled(ctx, &CompiledClassEvent{ClassName: "my.app.Widget"}); err != nil {
		t.Errorf("events:publisher_test - expected no error, got %v", err)
	}
	if err := pub.PublishSaveDatabase(ctx, &SaveDatabaseEvent{}); err != nil {
		t.Errorf("events:publisher_test - expected no error, got %v", err)
	}
}

func TestCallbackPublisher(t *testing.T) {
	var captured *CompiledClassEvent

	pub := &CallbackPublisher{
		OnCompiled: func(_ context.Context, event *CompiledClassEvent) error {
			captured = event
			return nil
		},
	}

	event := &CompiledClassEvent{
		ClassName: "my.app.Widget",
		New:       map[string]interface{}{"mtime": float64(12345)},
	}

	if err := pub.PublishCompiled(context.Background(), event); err != nil {
		t.Errorf("events:publisher_test - expected no error, got %v", err)
	}
	if captured == nil {
		t.Fatal("events:publisher_test - expected callback to be called")
	}
	if captured.ClassName != "my.app.Widget" {
		t.Errorf("events:publisher_test - expected className my.app.Widget, got %s", captured.ClassName)
	}

	// Unset callbacks are no-ops, not panics.
	if err := pub.PublishCompiling(context.Background(), &CompilingClassEvent{ClassName: "x"}); err != nil {
		t.Errorf("events:publisher_test - expected no error from unset callback, got %v", err)
	}
}

func TestMultiPublisher_StopsAtFirstError(t *testing.T) {
	calls := 0
	ok := &CallbackPublisher{OnCompiled: func(_ context.Context, _ *CompiledClassEvent) error {
		calls++
		return nil
	}}
	failErr := &CallbackPublisher{OnCompiled: func(_ context.Context, _ *CompiledClassEvent) error {
		calls++
		return context.Canceled
	}}
	neverCalled := &CallbackPublisher{OnCompiled: func(_ context.Context, _ *CompiledClassEvent) error {
		calls++
		return nil
	}}

	multi := &MultiPublisher{Publishers: []EventPublisher{ok, failErr, neverCalled}}
	err := multi.PublishCompiled(context.Background(), &CompiledClassEvent{ClassName: "x"})
	if err == nil {
		t.Fatal("events:publisher_test - expected error to propagate")
	}
	if calls != 2 {
		t.Errorf("events:publisher_test - expected 2 calls before abort, got %d", calls)
	}
}
