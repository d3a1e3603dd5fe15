// Package layout provides the filesystem conventions a standalone
// analyser run needs but spec §1 leaves external: where a class's
// manifest and compiled output live, and how to stat a path.
package layout

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/morezero/classanalyser/pkg/compiler"
	"github.com/morezero/classanalyser/pkg/library"
	"github.com/morezero/classanalyser/pkg/staleness"
)

// OutputResolver is a compiler.PathResolver that lays a class's
// manifest and compiled output out under a single outputDir, mirroring
// the class name as a directory path (spec §6 "the caller supplies the
// output path by class name via an external helper").
type OutputResolver struct {
	OutputDir string
}

// Resolve implements compiler.PathResolver.
func (r OutputResolver) Resolve(lib *library.Library, className string) compiler.Paths {
	rel := strings.ReplaceAll(className, ".", string(filepath.Separator))
	return compiler.Paths{
		Source: filepath.Join(lib.RootDir, rel+".manifest.json"),
		Output: filepath.Join(r.OutputDir, rel+".js"),
		Meta:   filepath.Join(r.OutputDir, rel+".meta.json"),
	}
}

// MetaPath is a metacache.MetaPathFunc sharing the same output
// directory as Resolve's Meta field, usable independently of any one
// library since only the class name varies it.
func (r OutputResolver) MetaPath(className string) string {
	rel := strings.ReplaceAll(className, ".", string(filepath.Separator))
	return filepath.Join(r.OutputDir, rel+".meta.json")
}

// Stat implements compiler.StatFunc against the real filesystem.
func Stat(path string) staleness.Stat {
	info, err := os.Stat(path)
	if err != nil {
		return staleness.Stat{Exists: false}
	}
	return staleness.Stat{Exists: true, Mtime: info.ModTime()}
}

// WalkManifests walks rootDir for "*.manifest.json" files and returns
// the fully-qualified class name for each, the walk function
// pkg/library.ScanForClasses expects.
func WalkManifests(rootDir string) ([]string, error) {
	var names []string
	err := filepath.WalkDir(rootDir, func(path string, d os.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() || !strings.HasSuffix(path, ".manifest.json") {
			return nil
		}
		rel, err := filepath.Rel(rootDir, path)
		if err != nil {
			return err
		}
		rel = strings.TrimSuffix(rel, ".manifest.json")
		names = append(names, library.ClassPathToName(rel))
		return nil
	})
	if err != nil {
		return nil, err
	}
	return names, nil
}
