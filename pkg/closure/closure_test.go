package closure

import (
	"context"
	"testing"

	"github.com/morezero/classanalyser/pkg/aerr"
	"github.com/morezero/classanalyser/pkg/classdb"
	"github.com/morezero/classanalyser/pkg/compiler"
)

type fakeDispatcher struct {
	rows map[string]*classdb.ClassInfo
	errs map[string]error
	hits []string
}

func (f *fakeDispatcher) GetClassInfo(ctx context.Context, className string, forceScan bool) (*compiler.Result, error) {
	f.hits = append(f.hits, className)
	if err, ok := f.errs[className]; ok {
		return nil, err
	}
	info, ok := f.rows[className]
	if !ok {
		return nil, aerr.New(aerr.NoClassFile, "unknown class %s", className)
	}
	return &compiler.Result{Info: info, Recompiled: true}, nil
}

func TestWalk_VisitsDependenciesAndDedups(t *testing.T) {
	disp := &fakeDispatcher{rows: map[string]*classdb.ClassInfo{
		"A": {DependsOn: map[string]classdb.DependencyFlags{"B": {Load: true}, "C": {Construct: true}}},
		"B": {DependsOn: map[string]classdb.DependencyFlags{"C": {Load: true}}},
		"C": {},
	}}

	w := NewWalk(disp, false)
	w.AddClass("A")
	w.AddClass("A") // duplicate seed must be ignored

	results, visited, err := w.Run(context.Background())
	if err != nil {
		t.Fatalf("closure:closure_test - unexpected error: %v", err)
	}
	if len(results) != 3 {
		t.Errorf("closure:closure_test - expected 3 visited classes, got %d", len(results))
	}
	if len(visited) != 3 {
		t.Errorf("closure:closure_test - expected visited order of length 3, got %v", visited)
	}
	hitCount := 0
	for _, h := range disp.hits {
		if h == "C" {
			hitCount++
		}
	}
	if hitCount != 1 {
		t.Errorf("closure:closure_test - expected C visited exactly once, got %d", hitCount)
	}
}

func TestWalk_NoClassFileIsLoggedAndNonFatal(t *testing.T) {
	disp := &fakeDispatcher{
		rows: map[string]*classdb.ClassInfo{
			"A": {DependsOn: map[string]classdb.DependencyFlags{"Missing": {Load: true}}},
		},
	}
	w := NewWalk(disp, false)
	w.AddClass("A")
	results, _, err := w.Run(context.Background())
	if err != nil {
		t.Fatalf("closure:closure_test - unexpected error: %v", err)
	}
	if _, ok := results["Missing"]; ok {
		t.Error("closure:closure_test - Missing should not appear in results")
	}
	if _, ok := results["A"]; !ok {
		t.Error("closure:closure_test - A should have been visited")
	}
}

func TestWalk_OtherErrorsAbort(t *testing.T) {
	disp := &fakeDispatcher{
		rows: map[string]*classdb.ClassInfo{"A": {}},
		errs: map[string]error{"A": aerr.New(aerr.ParseError, "boom")},
	}
	w := NewWalk(disp, false)
	w.AddClass("A")
	_, _, err := w.Run(context.Background())
	if !aerr.Is(err, aerr.ParseError) {
		t.Fatalf("closure:closure_test - expected ParseError to abort run, got %v", err)
	}
}

func TestWalk_IndirectLoadLift(t *testing.T) {
	// S5: F.dependsOn={G:{load}}, G.dependsOn={H:{construct}}.
	// After lift: F.dependsOn.H.load == true.
	disp := &fakeDispatcher{rows: map[string]*classdb.ClassInfo{
		"F": {DependsOn: map[string]classdb.DependencyFlags{"G": {Load: true}}},
		"G": {DependsOn: map[string]classdb.DependencyFlags{"H": {Construct: true}}},
		"H": {},
	}}
	w := NewWalk(disp, false)
	w.AddClass("F")
	results, _, err := w.Run(context.Background())
	if err != nil {
		t.Fatalf("closure:closure_test - unexpected error: %v", err)
	}
	flags, ok := results["F"].Info.DependsOn["H"]
	if !ok || !flags.Load {
		t.Errorf("closure:closure_test - expected F.dependsOn.H.load == true, got %+v", results["F"].Info.DependsOn)
	}
}
