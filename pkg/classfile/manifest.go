package classfile

import (
	"context"
	"encoding/json"
	"os"

	"github.com/morezero/classanalyser/pkg/aerr"
	"github.com/morezero/classanalyser/pkg/classdb"
	"github.com/morezero/classanalyser/pkg/meta"
)

// manifestDoc is the on-disk shape a ManifestClassFile reads. The real
// source parser, JSDoc engine and output writer are out of scope (spec
// §1 Non-goals: "no source transformation"); this reads a JSON document
// an external toolchain already produced for the class, which is the
// smallest thing satisfying the Factory seam without parsing JS.
type manifestDoc struct {
	Extends           string                             `json:"extends"`
	Implement         []string                           `json:"implement"`
	Include           []string                           `json:"include"`
	DependsOn         map[string]classdb.DependencyFlags `json:"dependsOn"`
	Translations      []classdb.TranslationEntry         `json:"translations"`
	EnvironmentChecks []string                           `json:"environmentChecks"`
	Meta              *meta.Meta                         `json:"meta"`
}

// ManifestClassFile is a ClassFile backed by a manifestDoc on disk
// rather than a real source parser.
type ManifestClassFile struct {
	className  string
	sourcePath string

	doc    manifestDoc
	loaded bool
}

// NewManifestFactory returns a Factory producing ManifestClassFile
// instances, suitable for running the analyser end-to-end against a
// directory of pre-built manifests rather than an external compiler
// process.
func NewManifestFactory() Factory {
	return func(className, sourcePath, _ string) ClassFile {
		return &ManifestClassFile{className: className, sourcePath: sourcePath}
	}
}

func (m *ManifestClassFile) Load(_ context.Context) error {
	data, err := os.ReadFile(m.sourcePath)
	if err != nil {
		if os.IsNotExist(err) {
			return aerr.New(aerr.NoClassFile, "no manifest for %s at %s", m.className, m.sourcePath)
		}
		return aerr.New(aerr.SourceIoError, "failed to read manifest for %s: %v", m.className, err)
	}
	if err := json.Unmarshal(data, &m.doc); err != nil {
		return aerr.New(aerr.ParseError, "failed to parse manifest for %s: %v", m.className, err)
	}
	if m.doc.Meta == nil {
		m.doc.Meta = &meta.Meta{ClassName: m.className}
	} else {
		m.doc.Meta.ClassName = m.className
	}
	m.loaded = true
	return nil
}

func (m *ManifestClassFile) WriteDbInfo(info *classdb.ClassInfo) {
	info.Extends = m.doc.Extends
	info.Implement = m.doc.Implement
	info.Include = m.doc.Include
	info.DependsOn = m.doc.DependsOn
	info.Translations = m.doc.Translations
	info.EnvironmentChecks = m.doc.EnvironmentChecks
}

func (m *ManifestClassFile) GetOuterClassMeta() *meta.Meta {
	if !m.loaded {
		return nil
	}
	return m.doc.Meta
}

func (m *ManifestClassFile) GetClassName() string { return m.className }
