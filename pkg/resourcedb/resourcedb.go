// Package resourcedb is the minimal resource sub-db sidecar spec §1
// places out of scope: just enough to load, hold, and save a
// classdb.ResourceSaver so the Class DB's save-coordination contract
// (spec §4.B) has something real to call. The resource manager that
// actually discovers and hashes resource files is an external
// collaborator this package never implements.
package resourcedb

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
)

const logPrefix = "resourcedb:resourcedb"

// Info is one resource's metadata, the fields a resource manager would
// populate: image dimensions for images, a content type for anything
// else.
type Info struct {
	Type   string `json:"type"`
	Width  int    `json:"width,omitempty"`
	Height int    `json:"height,omitempty"`
}

type fileDoc struct {
	Resources map[string]*Info `json:"resources"`
}

// Database is the resource sub-db: a flat path-to-Info map persisted
// alongside the class DB (spec §4.B "resource-db.json").
type Database struct {
	path      string
	resources map[string]*Info
}

// New creates a Database backed by path. Use classdb.ResourceDBPath to
// derive path from the class DB's own path.
func New(path string) *Database {
	return &Database{
		path:      path,
		resources: make(map[string]*Info),
	}
}

// Load reads the sub-db file. An absent or empty file loads as empty,
// mirroring the class DB's own tolerant load (spec §4.B).
func (d *Database) Load() error {
	data, err := os.ReadFile(d.path)
	if err != nil {
		if os.IsNotExist(err) {
			d.resources = make(map[string]*Info)
			return nil
		}
		return fmt.Errorf("%s - failed to read %s: %w", logPrefix, d.path, err)
	}
	if len(data) == 0 {
		d.resources = make(map[string]*Info)
		return nil
	}

	var doc fileDoc
	if err := json.Unmarshal(data, &doc); err != nil {
		return fmt.Errorf("%s - failed to parse %s: %w", logPrefix, d.path, err)
	}
	if doc.Resources == nil {
		doc.Resources = make(map[string]*Info)
	}
	d.resources = doc.Resources
	return nil
}

// Get returns the Info for resourcePath, or nil if unknown.
func (d *Database) Get(resourcePath string) *Info {
	return d.resources[resourcePath]
}

// Put inserts or replaces the row for resourcePath.
func (d *Database) Put(resourcePath string, info *Info) {
	d.resources[resourcePath] = info
}

// Save writes the sub-db to disk as pretty JSON. It satisfies
// classdb.ResourceSaver, called synchronously from Database.Save
// after the class DB's own write (spec §4.B).
func (d *Database) Save(ctx context.Context) error {
	select {
	case <-ctx.Done():
		return ctx.Err()
	default:
	}

	doc := fileDoc{Resources: d.resources}
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

	slog.Info(fmt.Sprintf("%s - saved %d resources to %s", logPrefix, len(d.resources), d.path))
	return nil
}
