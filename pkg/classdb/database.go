package classdb

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/morezero/classanalyser/pkg/aerr"
	"github.com/morezero/classanalyser/pkg/events"
)

const logPrefix = "classdb:database"

// fileDoc is the on-disk shape of db.json (spec §6: a top-level classInfo map).
type fileDoc struct {
	ClassInfo map[string]*ClassInfo `json:"classInfo"`
}

// ResourceSaver is the resource sub-db's save hook (spec §4.B). The
// resource manager itself is out of scope (spec §1); Database only needs
// to coordinate a save call against whatever implements this.
type ResourceSaver interface {
	Save(ctx context.Context) error
}

// Database is the in-memory plus on-disk class database.
type Database struct {
	path      string
	resources ResourceSaver
	publisher events.EventPublisher
	classes   map[string]*ClassInfo
}

// New creates a Database backed by path (default "db.json" per spec §6).
// resources may be nil when processResources is false (spec §6); publisher
// may be nil, in which case saveDatabase listeners are simply not notified.
func New(path string, resources ResourceSaver, publisher events.EventPublisher) *Database {
	if path == "" {
		path = "db.json"
	}
	if publisher == nil {
		publisher = &events.NoOpPublisher{}
	}
	return &Database{
		path:      path,
		resources: resources,
		publisher: publisher,
		classes:   make(map[string]*ClassInfo),
	}
}

// ResourceDBPath derives the resource sub-db path by replacing the final
// path segment of the class DB path with "resource-db.json" (spec §4.B).
func ResourceDBPath(classDBPath string) string {
	dir := filepath.Dir(classDBPath)
	return filepath.Join(dir, "resource-db.json")
}

// Load reads the DB file. An absent or empty file loads as an empty
// database (spec §4.B); a malformed file is a fatal DbParseError (spec §7).
func (d *Database) Load() error {
	data, err := os.ReadFile(d.path)
	if err != nil {
		if os.IsNotExist(err) {
			d.classes = make(map[string]*ClassInfo)
			return nil
		}
		return aerr.New(aerr.DbParseError, "failed to read %s: %v", d.path, err)
	}
	if len(data) == 0 {
		d.classes = make(map[string]*ClassInfo)
		return nil
	}

	var doc fileDoc
	if err := json.Unmarshal(stripJSONComments(data), &doc); err != nil {
		return aerr.New(aerr.DbParseError, "failed to parse %s: %v", d.path, err)
	}
	if doc.ClassInfo == nil {
		doc.ClassInfo = make(map[string]*ClassInfo)
	}
	d.classes = doc.ClassInfo
	slog.Info(fmt.Sprintf("%s - loaded %d classes from %s", logPrefix, len(d.classes), d.path))
	return nil
}

// Get returns the ClassInfo for className, or nil if unknown.
func (d *Database) Get(className string) *ClassInfo {
	return d.classes[className]
}

// Put inserts or replaces the row for className. A ClassInfo is created
// on first compile and updated on every recompile; the analyser never
// deletes a row (spec §3 Lifecycle).
func (d *Database) Put(className string, info *ClassInfo) {
	d.classes[className] = info
}

// All returns every known row, keyed by class name. Used by Descendant
// Fixup's full DB scan (spec §4.H) and by the analyser's DiscoverClasses.
func (d *Database) All() map[string]*ClassInfo {
	return d.classes
}

// Save writes the DB to disk as pretty JSON, emits saveDatabase
// synchronously before the write so listeners may still mutate, and
// triggers the resource sub-db save (spec §4.B).
func (d *Database) Save(ctx context.Context) error {
	payload := make(map[string]interface{}, len(d.classes))
	for name, info := range d.classes {
		payload[name] = info
	}
	if err := d.publisher.PublishSaveDatabase(ctx, &events.SaveDatabaseEvent{Classes: payload}); err != nil {
		return fmt.Errorf("%s - saveDatabase listener failed: %w", logPrefix, err)
	}

	doc := fileDoc{ClassInfo: d.classes}
	data, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return fmt.Errorf("%s - failed to marshal: %w", logPrefix, err)
	}
	if dir := filepath.Dir(d.path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("%s - failed to create dir %s: %w", logPrefix, dir, err)
		}
	}
	if err := os.WriteFile(d.path, data, 0o644); err != nil {
		return fmt.Errorf("%s - failed to write %s: %w", logPrefix, d.path, err)
	}

	if d.resources != nil {
		if err := d.resources.Save(ctx); err != nil {
			return fmt.Errorf("%s - resource sub-db save failed: %w", logPrefix, err)
		}
	}

	slog.Info(fmt.Sprintf("%s - saved %d classes to %s", logPrefix, len(d.classes), d.path))
	return nil
}
