package analyser

import (
	"context"
	"sort"
	"strings"
	"time"

	"github.com/morezero/classanalyser/pkg/classdb"
	"github.com/morezero/classanalyser/pkg/meta"
	"github.com/morezero/classanalyser/pkg/metacache"
)

// DescribeOutput is the full picture of one class: its DB row and its
// merged meta, the analyser's read-only query surface (adapted from
// the teacher's describe-by-ref shape).
type DescribeOutput struct {
	ClassName string
	Info      *classdb.ClassInfo
	Meta      *meta.Meta
}

// DescribeClass returns the DB row and merged meta for className, or
// false if the class is unknown to this analyser. Meta is read fresh
// from disk via a throwaway cache: outside of an AnalyseClasses run
// there is no live meta to shadow it with, and every class's meta has
// already been flushed to disk by the time a query runs (spec §4.F
// "results cached for the run" implies the cache itself does not
// outlive one).
func (a *Analyser) DescribeClass(className string) (*DescribeOutput, bool) {
	info := a.DB.Get(className)
	if info == nil {
		return nil, false
	}
	cache := metacache.New(a.cfg.MetaPath)
	return &DescribeOutput{
		ClassName: className,
		Info:      info,
		Meta:      cache.LoadMeta(className),
	}, true
}

// DiscoverClasses lists every known class name whose namespace or
// name contains query (case-insensitive, empty query matches all),
// sorted for stable output (adapted from the teacher's paginated
// discover, simplified since the class DB has no pagination need at
// the scale spec §2 targets).
func (a *Analyser) DiscoverClasses(query string) []string {
	query = strings.ToLower(query)
	var out []string
	for name := range a.DB.All() {
		if query == "" || strings.Contains(strings.ToLower(name), query) {
			out = append(out, name)
		}
	}
	sort.Strings(out)
	return out
}

// HealthChecks reports the status of each dependency the analyser
// relies on.
type HealthChecks struct {
	Database  bool
	Libraries bool
}

// HealthOutput is the analyser's health snapshot (adapted from the
// teacher's Health method).
type HealthOutput struct {
	Status    string
	Checks    HealthChecks
	Timestamp string
}

// Health checks the analyser's own state: the Class DB must be open
// and at least one library must be registered for AnalyseClasses to
// do anything useful.
func (a *Analyser) Health(_ context.Context) *HealthOutput {
	dbOK := a.DB != nil
	libsOK := len(a.Index.Libraries()) > 0

	status := "healthy"
	if !dbOK || !libsOK {
		status = "degraded"
	}

	return &HealthOutput{
		Status: status,
		Checks: HealthChecks{
			Database:  dbOK,
			Libraries: libsOK,
		},
		Timestamp: time.Now().UTC().Format(time.RFC3339),
	}
}
