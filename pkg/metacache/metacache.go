// Package metacache implements the Meta Loader/Cache (spec §4.F): the
// per-run cache of class meta, shadowed by live meta from classes
// compiled earlier in the same run (spec §9 "live-vs-disk meta").
package metacache

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"os"

	"github.com/morezero/classanalyser/pkg/aerr"
	"github.com/morezero/classanalyser/pkg/meta"
)

const logPrefix = "metacache:cache"

// syntheticRoots never have a meta file — loadMeta returns nil for
// them unconditionally (spec §4.F).
var syntheticRoots = map[string]struct{}{
	"Object": {},
	"Array":  {},
	"Error":  {},
}

// MetaPathFunc resolves a class's "<output path>.meta.json" location
// (spec §6: caller-supplied, by class name, via an external helper).
type MetaPathFunc func(className string) string

// Cache is the Meta Loader/Cache for one analyseClasses run.
type Cache struct {
	metaPath MetaPathFunc
	live     map[string]*meta.Meta // seeded by freshly compiled classes
	disk     map[string]*meta.Meta // cache-or-read results, keyed by class name
	saved    map[string]struct{}   // classes already saved this run (MetaWriteDuplicate guard)
}

// New builds a Cache. metaPath is required; it is how the cache finds
// a class's .meta.json file.
func New(metaPath MetaPathFunc) *Cache {
	return &Cache{
		metaPath: metaPath,
		live:     make(map[string]*meta.Meta),
		disk:     make(map[string]*meta.Meta),
		saved:    make(map[string]struct{}),
	}
}

// SeedLive records the live meta a freshly compiled ClassFile exposed
// via GetOuterClassMeta (spec §4.F). Subsequent LoadMeta calls for
// this class return the live object instead of reading disk.
func (c *Cache) SeedLive(className string, m *meta.Meta) {
	if m != nil {
		m.ClassName = className
	}
	c.live[className] = m
}

// LoadMeta returns the meta for className, or nil if it is a synthetic
// root or unreadable (spec §4.F: unreadable is "treated as ancestor
// not visible", logged not failed).
func (c *Cache) LoadMeta(className string) *meta.Meta {
	if _, ok := syntheticRoots[className]; ok {
		return nil
	}
	if m, ok := c.live[className]; ok {
		return m
	}
	if m, ok := c.disk[className]; ok {
		return m
	}

	path := c.metaPath(className)
	data, err := os.ReadFile(path)
	if err != nil {
		slog.Warn(fmt.Sprintf("%s - could not read meta for %s: %v", logPrefix, className, err))
		c.disk[className] = nil
		return nil
	}

	var m meta.Meta
	if err := json.Unmarshal(data, &m); err != nil {
		slog.Warn(fmt.Sprintf("%s - could not parse meta for %s: %v", logPrefix, className, err))
		c.disk[className] = nil
		return nil
	}
	m.ClassName = className
	c.disk[className] = &m
	return &m
}

// SaveMeta writes className's meta to disk. Saving the same class
// twice in one run is a programmer error and fails loudly (spec §4.F,
// §7 MetaWriteDuplicate).
func (c *Cache) SaveMeta(className string, m *meta.Meta) error {
	if _, ok := c.saved[className]; ok {
		return aerr.New(aerr.MetaWriteDuplicate, "saveMeta called twice for %s in the same run", className)
	}

	data, err := json.MarshalIndent(m, "", "  ")
	if err != nil {
		return fmt.Errorf("%s - failed to marshal meta for %s: %w", logPrefix, className, err)
	}
	path := c.metaPath(className)
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("%s - failed to write meta for %s: %w", logPrefix, className, err)
	}

	c.saved[className] = struct{}{}
	c.live[className] = m
	slog.Info(fmt.Sprintf("%s - saved meta for %s", logPrefix, className))
	return nil
}
