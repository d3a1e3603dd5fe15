package classfile

import (
	"context"

	"github.com/morezero/classanalyser/pkg/aerr"
	"github.com/morezero/classanalyser/pkg/classdb"
	"github.com/morezero/classanalyser/pkg/meta"
)

// Fake is an in-memory ClassFile double for tests (grounded on the
// teacher's CallbackPublisher test-double pattern: a struct of plain
// fields and a func hook, no mocking library).
type Fake struct {
	ClassName string
	DbInfo    *classdb.ClassInfo
	Meta      *meta.Meta
	LoadErr   error

	written *classdb.ClassInfo
	loaded  bool
}

// NewFake builds a Fake that succeeds on Load, reporting dbInfo and
// exposing outerMeta as its live meta.
func NewFake(className string, dbInfo *classdb.ClassInfo, outerMeta *meta.Meta) *Fake {
	return &Fake{ClassName: className, DbInfo: dbInfo, Meta: outerMeta}
}

// NewFailingFake builds a Fake whose Load always fails with err.
func NewFailingFake(className string, err error) *Fake {
	return &Fake{ClassName: className, LoadErr: err}
}

func (f *Fake) Load(ctx context.Context) error {
	if f.LoadErr != nil {
		return f.LoadErr
	}
	f.loaded = true
	return nil
}

// WriteDbInfo copies the facts this fake was seeded with onto info,
// leaving identity fields (Mtime, LibraryName) the caller already set
// untouched — mirroring the real compiler, which reports structural
// facts but does not decide its own cache identity.
func (f *Fake) WriteDbInfo(info *classdb.ClassInfo) {
	if f.DbInfo == nil {
		f.written = info
		return
	}
	info.Extends = f.DbInfo.Extends
	info.Implement = f.DbInfo.Implement
	info.Include = f.DbInfo.Include
	info.DependsOn = f.DbInfo.DependsOn
	info.Translations = f.DbInfo.Translations
	info.EnvironmentChecks = f.DbInfo.EnvironmentChecks
	f.written = info
}

func (f *Fake) GetOuterClassMeta() *meta.Meta {
	if !f.loaded {
		return nil
	}
	return f.Meta
}

func (f *Fake) GetClassName() string { return f.ClassName }

// Written returns whatever WriteDbInfo last received, for assertions.
func (f *Fake) Written() *classdb.ClassInfo { return f.written }

// NoClassFileErr is a convenience constructor for tests exercising the
// closure walk's NoClassFile recovery path (spec §4.E).
func NoClassFileErr(className string) error {
	return aerr.New(aerr.NoClassFile, "no class file for %s", className)
}
