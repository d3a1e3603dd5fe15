// Package descendants implements Descendant Fixup (spec §4.H): after
// the merger runs, recompute descendants[] for ancestor classes that
// were named by a compile but not themselves recompiled.
package descendants

import (
	"fmt"
	"log/slog"
	"sort"

	"github.com/morezero/classanalyser/pkg/classdb"
	"github.com/morezero/classanalyser/pkg/meta"
)

const logPrefix = "descendants:fixup"

// Collector accumulates every ancestor name seen across a run's
// compiles, per spec §4.H ("listeners collect every class name that is
// named as extends, implement, or include in either the old or the
// new ClassInfo").
type Collector struct {
	seen  map[string]struct{}
	order []string
}

// NewCollector returns an empty Collector.
func NewCollector() *Collector {
	return &Collector{seen: make(map[string]struct{})}
}

// Observe records the ancestor names of old and new (either may be
// nil, e.g. old on first compile of a class).
func (c *Collector) Observe(old, newInfo *classdb.ClassInfo) {
	c.add(old.AncestorNames())
	c.add(newInfo.AncestorNames())
}

func (c *Collector) add(names []string) {
	for _, n := range names {
		if _, ok := c.seen[n]; ok {
			continue
		}
		c.seen[n] = struct{}{}
		c.order = append(c.order, n)
	}
}

// Candidates returns the collected names in first-seen order.
func (c *Collector) Candidates() []string {
	return c.order
}

// MetaStore is the subset of metacache.Cache the fixup pass needs.
type MetaStore interface {
	LoadMeta(className string) *meta.Meta
	SaveMeta(className string, m *meta.Meta) error
}

// Run executes the fixup pass (spec §4.H): for every candidate name
// not itself recompiled this run but present in the DB, recompute its
// descendants by a full DB scan and save.
func Run(db *classdb.Database, store MetaStore, candidates []string, recompiled map[string]struct{}) error {
	for _, name := range candidates {
		if _, ok := recompiled[name]; ok {
			continue
		}
		if db.Get(name) == nil {
			continue
		}

		m := store.LoadMeta(name)
		if m == nil {
			slog.Warn(fmt.Sprintf("%s - no meta for ancestor %s, skipping fixup", logPrefix, name))
			continue
		}

		m.Descendants = ComputeDescendants(db, name)
		if err := store.SaveMeta(name, m); err != nil {
			return fmt.Errorf("%s - failed to save fixed-up meta for %s: %w", logPrefix, name, err)
		}
		slog.Info(fmt.Sprintf("%s - refreshed descendants for %s (%d)", logPrefix, name, len(m.Descendants)))
	}
	return nil
}

// ComputeDescendants implements spec §8 invariant 6: X.descendants =
// {Y in DB | Y.extends == X}.
func ComputeDescendants(db *classdb.Database, className string) []string {
	var out []string
	for name, info := range db.All() {
		if info.Extends == className {
			out = append(out, name)
		}
	}
	sort.Strings(out)
	return out
}
