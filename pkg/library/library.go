// Package library implements the Library Index (spec §4.A): the
// namespace -> library lookup, and the class name -> library
// resolution that the rest of the analyser treats as a black box.
package library

import (
	"fmt"
	"log/slog"
	"strings"

	"github.com/Masterminds/semver/v3"
)

const logPrefix = "library:index"

// SymbolType is what GetSymbolType reports about a name within a
// library's namespace (spec §4.A).
type SymbolType string

const (
	SymbolNone   SymbolType = ""
	SymbolClass  SymbolType = "class"
	SymbolMember SymbolType = "member"
)

// Library is one source library registered with the analyser.
type Library struct {
	Namespace  string
	RootDir    string
	SourcePath string
	Version    string

	// ClassNames is the library's known class set, used by
	// GetSymbolType's linear scan (spec §4.A resolution order step 2).
	// A real source scanner populates this; tests populate it directly.
	ClassNames map[string]struct{}
}

// GetSymbolType reports whether name is a class (or class member) this
// library owns, by namespace-prefix match against its known classes.
func (l *Library) GetSymbolType(name string) SymbolType {
	if _, ok := l.ClassNames[name]; ok {
		return SymbolClass
	}
	prefix := l.Namespace + "."
	if strings.HasPrefix(name, prefix) {
		// A name under our namespace but not itself a registered class
		// is treated as a member reference (e.g. a static constant) —
		// spec §4.A step 2 accepts either "class" or "member".
		return SymbolMember
	}
	return SymbolNone
}

// parsedVersion returns the library's semver, or nil if unset/invalid.
func (l *Library) parsedVersion() *semver.Version {
	if l.Version == "" {
		return nil
	}
	v, err := semver.NewVersion(l.Version)
	if err != nil {
		return nil
	}
	return v
}

// Index is the Library Index (spec §4.A).
type Index struct {
	libraries []*Library
	byNS      map[string]*Library

	// classCache is the "internal class -> library cache populated as
	// classes are parsed" (spec §4.A resolution order step 1).
	classCache map[string]*Library
}

// NewIndex returns an empty Library Index.
func NewIndex() *Index {
	return &Index{
		byNS:       make(map[string]*Library),
		classCache: make(map[string]*Library),
	}
}

// AddLibrary registers lib. A duplicate namespace with an incompatible
// major version is rejected (spec §3 is silent on this; resolved as a
// supplemented constraint — see DESIGN.md).
func (idx *Index) AddLibrary(lib *Library) error {
	if existing, ok := idx.byNS[lib.Namespace]; ok {
		if v1, v2 := existing.parsedVersion(), lib.parsedVersion(); v1 != nil && v2 != nil && v1.Major() != v2.Major() {
			return fmt.Errorf("%s - namespace %q already registered at incompatible major version %s (new %s)",
				logPrefix, lib.Namespace, existing.Version, lib.Version)
		}
		slog.Warn(fmt.Sprintf("%s - namespace %q re-registered, replacing existing library", logPrefix, lib.Namespace))
	}
	idx.byNS[lib.Namespace] = lib
	idx.libraries = append(idx.libraries, lib)
	return nil
}

// FindLibrary looks up a library by namespace.
func (idx *Index) FindLibrary(namespace string) *Library {
	return idx.byNS[namespace]
}

// CacheClass records that className belongs to lib, populating the
// fast-path cache consulted first by GetLibraryFromClassname.
func (idx *Index) CacheClass(className string, lib *Library) {
	idx.classCache[className] = lib
}

// GetLibraryFromClassname implements the two-step resolution order of
// spec §4.A: cache first, then a linear scan of all libraries.
func (idx *Index) GetLibraryFromClassname(className string) *Library {
	if lib, ok := idx.classCache[className]; ok {
		return lib
	}
	for _, lib := range idx.libraries {
		switch lib.GetSymbolType(className) {
		case SymbolClass, SymbolMember:
			idx.classCache[className] = lib
			return lib
		}
	}
	return nil
}

// GetSymbolType resolves className against whichever library claims it.
func (idx *Index) GetSymbolType(className string) SymbolType {
	lib := idx.GetLibraryFromClassname(className)
	if lib == nil {
		return SymbolNone
	}
	return lib.GetSymbolType(className)
}

// Libraries returns every registered library, in registration order.
func (idx *Index) Libraries() []*Library {
	return idx.libraries
}
