package compiler

import (
	"context"
	"testing"
	"time"

	"github.com/morezero/classanalyser/pkg/aerr"
	"github.com/morezero/classanalyser/pkg/classdb"
	"github.com/morezero/classanalyser/pkg/classfile"
	"github.com/morezero/classanalyser/pkg/events"
	"github.com/morezero/classanalyser/pkg/library"
	"github.com/morezero/classanalyser/pkg/staleness"
)

type fakeResolver struct{}

func (fakeResolver) Resolve(lib *library.Library, className string) Paths {
	return Paths{Source: className + ".js", Output: className + ".build.js", Meta: className + ".meta.json"}
}

func statAll(existing map[string]time.Time) StatFunc {
	return func(path string) staleness.Stat {
		mt, ok := existing[path]
		return staleness.Stat{Exists: ok, Mtime: mt}
	}
}

func newIndexWith(className string) *library.Index {
	idx := library.NewIndex()
	lib := &library.Library{Namespace: "my.app", ClassNames: map[string]struct{}{className: {}}}
	idx.AddLibrary(lib)
	return idx
}

func TestGetClassInfo_UnresolvedClassIsNoClassFile(t *testing.T) {
	d := New(classdb.New(t.TempDir()+"/db.json", nil, nil), library.NewIndex(), fakeResolver{}, statAll(nil), nil, nil)
	_, err := d.GetClassInfo(context.Background(), "nowhere.Thing", false)
	if !aerr.Is(err, aerr.NoClassFile) {
		t.Fatalf("compiler:compiler_test - expected NoClassFile, got %v", err)
	}
}

func TestGetClassInfo_FreshReturnsCached(t *testing.T) {
	now := time.Now()
	db := classdb.New(t.TempDir()+"/db.json", nil, nil)
	db.Put("my.app.Widget", &classdb.ClassInfo{Mtime: now.Unix(), LibraryName: "my.app"})

	stat := statAll(map[string]time.Time{
		"my.app.Widget.js":          now,
		"my.app.Widget.build.js":    now,
		"my.app.Widget.meta.json":   now,
	})

	called := false
	factory := func(className, src, out string) classfile.ClassFile {
		called = true
		return classfile.NewFake(className, &classdb.ClassInfo{}, nil)
	}

	d := New(db, newIndexWith("my.app.Widget"), fakeResolver{}, stat, factory, nil)
	res, err := d.GetClassInfo(context.Background(), "my.app.Widget", false)
	if err != nil {
		t.Fatalf("compiler:compiler_test - unexpected error: %v", err)
	}
	if res.Recompiled {
		t.Error("compiler:compiler_test - expected fresh class to skip recompile")
	}
	if called {
		t.Error("compiler:compiler_test - factory should not be invoked for a fresh class")
	}
}

func TestGetClassInfo_StaleRecompilesAndEmitsEventsInOrder(t *testing.T) {
	now := time.Now()
	stat := statAll(map[string]time.Time{"my.app.Widget.js": now})

	fake := classfile.NewFake("my.app.Widget", &classdb.ClassInfo{Extends: "qx.core.Object"}, nil)
	factory := func(className, src, out string) classfile.ClassFile { return fake }

	var order []string
	pub := &events.CallbackPublisher{
		OnCompiling: func(_ context.Context, e *events.CompilingClassEvent) error {
			order = append(order, "compiling:"+e.ClassName)
			return nil
		},
		OnCompiled: func(_ context.Context, e *events.CompiledClassEvent) error {
			order = append(order, "compiled:"+e.ClassName)
			return nil
		},
	}

	db := classdb.New(t.TempDir()+"/db.json", nil, nil)
	d := New(db, newIndexWith("my.app.Widget"), fakeResolver{}, stat, factory, pub)
	res, err := d.GetClassInfo(context.Background(), "my.app.Widget", false)
	if err != nil {
		t.Fatalf("compiler:compiler_test - unexpected error: %v", err)
	}
	if !res.Recompiled {
		t.Error("compiler:compiler_test - expected recompile")
	}
	if res.Info.Extends != "qx.core.Object" {
		t.Errorf("compiler:compiler_test - expected WriteDbInfo facts merged, got %+v", res.Info)
	}
	if len(order) != 2 || order[0] != "compiling:my.app.Widget" || order[1] != "compiled:my.app.Widget" {
		t.Errorf("compiler:compiler_test - unexpected event order: %v", order)
	}
	if db.Get("my.app.Widget") != res.Info {
		t.Error("compiler:compiler_test - expected DB row to be the new ClassInfo")
	}
}

func TestGetClassInfo_LoadFailurePropagates(t *testing.T) {
	now := time.Now()
	stat := statAll(map[string]time.Time{"my.app.Widget.js": now})
	fake := classfile.NewFailingFake("my.app.Widget", aerr.New(aerr.ParseError, "boom"))
	factory := func(className, src, out string) classfile.ClassFile { return fake }

	db := classdb.New(t.TempDir()+"/db.json", nil, nil)
	d := New(db, newIndexWith("my.app.Widget"), fakeResolver{}, stat, factory, nil)
	_, err := d.GetClassInfo(context.Background(), "my.app.Widget", false)
	if !aerr.Is(err, aerr.ParseError) {
		t.Fatalf("compiler:compiler_test - expected ParseError, got %v", err)
	}
}

func TestGetClassInfo_ForceScanRecompilesEvenIfFresh(t *testing.T) {
	now := time.Now()
	db := classdb.New(t.TempDir()+"/db.json", nil, nil)
	db.Put("my.app.Widget", &classdb.ClassInfo{Mtime: now.Unix(), LibraryName: "my.app"})
	stat := statAll(map[string]time.Time{
		"my.app.Widget.js":        now,
		"my.app.Widget.build.js":  now,
		"my.app.Widget.meta.json": now,
	})
	fake := classfile.NewFake("my.app.Widget", &classdb.ClassInfo{}, nil)
	factory := func(className, src, out string) classfile.ClassFile { return fake }

	d := New(db, newIndexWith("my.app.Widget"), fakeResolver{}, stat, factory, nil)
	res, err := d.GetClassInfo(context.Background(), "my.app.Widget", true)
	if err != nil {
		t.Fatalf("compiler:compiler_test - unexpected error: %v", err)
	}
	if !res.Recompiled {
		t.Error("compiler:compiler_test - expected forceScan to force recompile")
	}
}
