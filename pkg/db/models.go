package db

import "time"

// ClassInfoRow mirrors one classdb.ClassInfo row (spec §4.B), flattened
// for SQL querying: "all classes extending X", "all classes depending
// on Y" are one WHERE clause against this table instead of a scan over
// thousands of JSON files.
type ClassInfoRow struct {
	ClassName         string    `json:"class_name"`
	LibraryName       string    `json:"library_name"`
	Extends           string    `json:"extends"`
	Implement         []string  `json:"implement"`
	Include           []string  `json:"include"`
	Mtime             int64     `json:"mtime"`
	DependsOn         []byte    `json:"depends_on"`
	EnvironmentChecks []string  `json:"environment_checks"`
	Modified          time.Time `json:"modified"`
}

// ClassMetaRow mirrors one merged meta.Meta, one row per class.
type ClassMetaRow struct {
	ClassName   string    `json:"class_name"`
	Type        string    `json:"type"`
	SuperClass  string    `json:"super_class"`
	Interfaces  []string  `json:"interfaces"`
	Mixins      []string  `json:"mixins"`
	Descendants []string  `json:"descendants"`
	Abstract    bool      `json:"abstract"`
	MembersJSON []byte    `json:"members"`
	Modified    time.Time `json:"modified"`
}
