// Package classfile defines the contract the class analyser consumes
// from the external per-class compiler (spec §1: out of scope, §6,
// §9 "dynamic dispatch -> tagged variants"). The analyser never
// constructs a ClassFile itself; one is handed in per compile by the
// caller that owns the source parser.
package classfile

import (
	"context"

	"github.com/morezero/classanalyser/pkg/classdb"
	"github.com/morezero/classanalyser/pkg/meta"
)

// ClassFile is the single capability set the external compiler exposes
// for one class (spec §9): load the source, report the db row it
// discovered, and expose the live meta it built while loading.
type ClassFile interface {
	// Load parses the class's source. On failure it returns a
	// *aerr.Error of kind ParseError or SourceIoError.
	Load(ctx context.Context) error

	// WriteDbInfo fills info with what Load discovered about the class
	// (extends, dependsOn, translations, ...). The compile dispatcher
	// (pkg/compiler) calls it once Load has succeeded.
	WriteDbInfo(info *classdb.ClassInfo)

	// GetOuterClassMeta returns the live, just-compiled meta for this
	// class, or nil if Load has not completed successfully. The Meta
	// Loader/Cache (pkg/metacache) seeds itself from this so the
	// merger never reads a stale on-disk copy for a class compiled
	// earlier in the same run (spec §4.F, §9 "live-vs-disk meta").
	GetOuterClassMeta() *meta.Meta

	// GetClassName returns the fully qualified class name this
	// ClassFile was constructed for.
	GetClassName() string
}

// Factory constructs a ClassFile for one class. The concrete source
// parser, JSDoc engine and output writer live entirely outside this
// module (spec §1); Factory is the seam the compile dispatcher
// (pkg/compiler) calls through.
type Factory func(className, sourcePath, outputPath string) ClassFile
