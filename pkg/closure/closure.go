// Package closure implements the Dependency Closure (spec §4.E): the
// worklist-driven transitive walk over a compile dispatcher, followed
// by the indirect-load lift.
package closure

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/morezero/classanalyser/pkg/aerr"
	"github.com/morezero/classanalyser/pkg/classdb"
	"github.com/morezero/classanalyser/pkg/compiler"
)

const logPrefix = "closure:walk"

// Dispatcher is the subset of compiler.Dispatcher the closure walk
// needs, kept narrow so tests can supply a fake.
type Dispatcher interface {
	GetClassInfo(ctx context.Context, className string, forceScan bool) (*compiler.Result, error)
}

// Walk runs the Dependency Closure over seed classes (spec §4.E).
type Walk struct {
	Dispatcher Dispatcher
	ForceScan  bool

	queue   []string
	seen    map[string]struct{}
	visited []string // insertion order, for the indirect-load lift and for H's candidate set
	results map[string]*compiler.Result
}

// NewWalk builds an empty Walk.
func NewWalk(dispatcher Dispatcher, forceScan bool) *Walk {
	return &Walk{
		Dispatcher: dispatcher,
		ForceScan:  forceScan,
		seen:       make(map[string]struct{}),
		results:    make(map[string]*compiler.Result),
	}
}

// AddClass seeds the worklist with className, de-duplicating against
// anything already seen (spec §4.E: "a class is added at most once").
func (w *Walk) AddClass(className string) {
	if _, ok := w.seen[className]; ok {
		return
	}
	w.seen[className] = struct{}{}
	w.queue = append(w.queue, className)
}

// Run drains the worklist, recovering NoClassFile errors and aborting
// on any other error (spec §4.E). It returns every compile Result
// keyed by class name, in the order classes were visited.
func (w *Walk) Run(ctx context.Context) (map[string]*compiler.Result, []string, error) {
	for len(w.queue) > 0 {
		className := w.queue[0]
		w.queue = w.queue[1:]

		res, err := w.Dispatcher.GetClassInfo(ctx, className, w.ForceScan)
		if err != nil {
			if aerr.Is(err, aerr.NoClassFile) {
				slog.Warn(fmt.Sprintf("%s - skipping %s: %v", logPrefix, className, err))
				continue
			}
			return nil, nil, fmt.Errorf("%s - aborting on %s: %w", logPrefix, className, err)
		}

		w.results[className] = res
		w.visited = append(w.visited, className)

		for dep := range res.Info.DependsOn {
			w.AddClass(dep)
		}
	}

	liftIndirectLoads(w.results)

	return w.results, w.visited, nil
}

// liftIndirectLoads implements the indirect-load lift (spec §4.E): for
// every class C depending on D with load=true, promote D's
// construct-flagged deps into C's own dependsOn as load=true.
func liftIndirectLoads(results map[string]*compiler.Result) {
	for _, res := range results {
		info := res.Info
		toLift := make(map[string]struct{})
		for depName, flags := range info.DependsOn {
			if !flags.Load {
				continue
			}
			depRes, ok := results[depName]
			if !ok || depRes.Info == nil {
				continue
			}
			for grandDep, grandFlags := range depRes.Info.DependsOn {
				if grandFlags.Construct {
					toLift[grandDep] = struct{}{}
				}
			}
		}
		if len(toLift) == 0 {
			continue
		}
		if info.DependsOn == nil {
			info.DependsOn = make(map[string]classdb.DependencyFlags)
		}
		for grandDep := range toLift {
			existing := info.DependsOn[grandDep]
			existing.Load = true
			info.DependsOn[grandDep] = existing
		}
	}
}
