// Package compiler implements Per-Class Compile Dispatch (spec §4.D):
// the staleness check, event emission and row write-back for one class.
package compiler

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/morezero/classanalyser/pkg/aerr"
	"github.com/morezero/classanalyser/pkg/classdb"
	"github.com/morezero/classanalyser/pkg/classfile"
	"github.com/morezero/classanalyser/pkg/events"
	"github.com/morezero/classanalyser/pkg/library"
	"github.com/morezero/classanalyser/pkg/staleness"
)

const logPrefix = "compiler:dispatch"

// Paths is the set of filesystem locations for one class, supplied by
// an external helper keyed on class name (spec §6: "the caller
// supplies the output path by class name via an external helper").
type Paths struct {
	Source string
	Output string
	Meta   string
}

// PathResolver derives Paths for a class within a library.
type PathResolver interface {
	Resolve(lib *library.Library, className string) Paths
}

// StatFunc reports whether path exists and its mtime. Production code
// wraps os.Stat; tests inject a map-backed fake.
type StatFunc func(path string) staleness.Stat

// Dispatcher is the Per-Class Compile Dispatch component.
type Dispatcher struct {
	DB        *classdb.Database
	Index     *library.Index
	Paths     PathResolver
	Stat      StatFunc
	Publisher events.EventPublisher
	Factory   classfile.Factory
}

// New builds a Dispatcher, defaulting Publisher to a no-op.
func New(db *classdb.Database, idx *library.Index, paths PathResolver, stat StatFunc, factory classfile.Factory, publisher events.EventPublisher) *Dispatcher {
	if publisher == nil {
		publisher = &events.NoOpPublisher{}
	}
	return &Dispatcher{DB: db, Index: idx, Paths: paths, Stat: stat, Publisher: publisher, Factory: factory}
}

// Result is the outcome of GetClassInfo for one class, reused by the
// Dependency Closure and Descendant Fixup passes (spec §4.E, §4.H) to
// learn what just changed.
type Result struct {
	Info       *classdb.ClassInfo
	Old        *classdb.ClassInfo
	Recompiled bool
	ClassFile  classfile.ClassFile // nil unless Recompiled
}

// GetClassInfo implements spec §4.D.
func (d *Dispatcher) GetClassInfo(ctx context.Context, className string, forceScan bool) (*Result, error) {
	lib := d.Index.GetLibraryFromClassname(className)
	if lib == nil {
		return nil, aerr.New(aerr.NoClassFile, "no library claims class %s", className)
	}

	paths := d.Paths.Resolve(lib, className)
	srcStat := d.Stat(paths.Source)

	info := d.DB.Get(className)
	fresh, err := staleness.Check(staleness.Inputs{
		Source:     srcStat,
		Output:     d.Stat(paths.Output),
		OutputMeta: d.Stat(paths.Meta),
		Info:       info,
		ForceScan:  forceScan,
	})
	if err != nil {
		return nil, err
	}
	if fresh {
		return &Result{Info: info, Old: info, Recompiled: false}, nil
	}

	old := info.Clone()
	newInfo := &classdb.ClassInfo{Mtime: srcStat.Mtime.Unix(), LibraryName: lib.Namespace}
	d.DB.Put(className, newInfo)

	cf := d.Factory(className, paths.Source, paths.Output)

	if err := d.Publisher.PublishCompiling(ctx, &events.CompilingClassEvent{
		ClassName: className,
		Old:       toMap(old),
		New:       toMap(newInfo),
	}); err != nil {
		return nil, fmt.Errorf("%s - compilingClass listener failed for %s: %w", logPrefix, className, err)
	}

	if err := cf.Load(ctx); err != nil {
		return nil, err
	}
	cf.WriteDbInfo(newInfo)

	if err := d.Publisher.PublishCompiled(ctx, &events.CompiledClassEvent{
		ClassName: className,
		Old:       toMap(old),
		New:       toMap(newInfo),
	}); err != nil {
		return nil, fmt.Errorf("%s - compiledClass listener failed for %s: %w", logPrefix, className, err)
	}

	slog.Info(fmt.Sprintf("%s - compiled %s", logPrefix, className))
	return &Result{Info: newInfo, Old: old, Recompiled: true, ClassFile: cf}, nil
}

func toMap(info *classdb.ClassInfo) map[string]interface{} {
	if info == nil {
		return nil
	}
	return map[string]interface{}{
		"mtime":             info.Mtime,
		"libraryName":       info.LibraryName,
		"extends":           info.Extends,
		"implement":         info.Implement,
		"include":           info.Include,
		"dependsOn":         info.DependsOn,
		"environmentChecks": info.EnvironmentChecks,
	}
}
