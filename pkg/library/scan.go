package library

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"strings"

	"golang.org/x/sync/errgroup"
)

// ScanForClasses walks lib.RootDir for source files and registers each
// discovered class name against idx's cache. This is the initial
// per-library class scan (spec §4.A, §5: "may run in parallel because
// [it touches] disjoint state").
func ScanForClasses(lib *Library, walk func(rootDir string) ([]string, error)) error {
	classNames, err := walk(lib.RootDir)
	if err != nil {
		return fmt.Errorf("%s - scan failed for %s: %w", logPrefix, lib.Namespace, err)
	}
	if lib.ClassNames == nil {
		lib.ClassNames = make(map[string]struct{}, len(classNames))
	}
	for _, name := range classNames {
		lib.ClassNames[name] = struct{}{}
	}
	slog.Info(fmt.Sprintf("%s - scanned %d classes for library %s", logPrefix, len(classNames), lib.Namespace))
	return nil
}

// ScanAll runs ScanForClasses across every library concurrently and
// caches the discovered classes into idx (spec §5 allows the per-library
// scan to run in parallel since each library touches disjoint state).
func ScanAll(ctx context.Context, idx *Index, walk func(rootDir string) ([]string, error)) error {
	g, _ := errgroup.WithContext(ctx)
	for _, lib := range idx.Libraries() {
		lib := lib
		g.Go(func() error {
			return ScanForClasses(lib, walk)
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}
	for _, lib := range idx.Libraries() {
		for name := range lib.ClassNames {
			idx.CacheClass(name, lib)
		}
	}
	return nil
}

// ClassPathToName derives a fully-qualified class name from a source
// file path relative to a library's source root, e.g.
// "my/app/Widget.js" -> "my.app.Widget".
func ClassPathToName(relPath string) string {
	relPath = strings.TrimSuffix(relPath, filepath.Ext(relPath))
	parts := strings.Split(filepath.ToSlash(relPath), "/")
	return strings.Join(parts, ".")
}
