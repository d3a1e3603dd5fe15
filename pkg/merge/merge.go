// Package merge implements the Meta Merger (spec §4.G), the core of
// the core: the two-pass computation of appearsIn, overriddenFrom,
// abstractness, mixin-origin, and synthesized property accessors
// across a class's full ancestor graph.
package merge

import "github.com/morezero/classanalyser/pkg/meta"

// Loader is the subset of metacache.Cache the merger needs.
type Loader interface {
	LoadMeta(className string) *meta.Meta
}

// Merger performs the merge for one class at a time.
type Merger struct {
	Cache Loader
}

// New builds a Merger backed by cache.
func New(cache Loader) *Merger {
	return &Merger{Cache: cache}
}

// Merge runs both passes over m, which must be the live meta of a
// freshly compiled class (already seeded into Cache by the caller so
// the walk sees itself via Cache.LoadMeta(m.ClassName), per spec §9
// "live-vs-disk meta").
func (mg *Merger) Merge(m *meta.Meta) {
	fixupAllJSDoc(m.ClassName, m)

	t := mg.buildTable(m.ClassName)

	for propName := range m.Properties {
		p := m.Properties[propName]
		synthesizeAccessors(m, propName, p)
	}

	writeBack(m, t)
}

// buildTable runs Pass 2's recursive ancestor walk (spec §4.G), with a
// visited-set scoped to this call to guard against cyclic inheritance
// (spec §9).
func (mg *Merger) buildTable(className string) *table {
	t := newTable()
	visited := make(map[string]bool)
	mg.walk(className, true, t, visited)
	return t
}

func (mg *Merger) walk(className string, isSelf bool, t *table, visited map[string]bool) {
	if visited[className] {
		return
	}
	visited[className] = true

	cm := mg.Cache.LoadMeta(className)
	if cm == nil {
		return // ancestor not visible (synthetic root, or unreadable — spec §4.F)
	}

	kind := ancestorKindOf(cm)
	for name, member := range cm.Members {
		var jsdoc *meta.JSDoc
		var propertyKind string
		if member != nil {
			jsdoc = member.JSDoc
			propertyKind = member.Property
		}
		visit(t.members, name, className, kind, isSelf, meta.KindFunction, jsdoc, propertyKind)
	}
	for name, prop := range cm.Properties {
		var jsdoc *meta.JSDoc
		if prop != nil {
			jsdoc = prop.JSDoc
		}
		visit(t.properties, name, className, kind, isSelf, "", jsdoc, "")
	}

	for _, iface := range cm.Interfaces {
		mg.walk(iface, false, t, visited)
	}
	for _, mixin := range cm.Mixins {
		mg.walk(mixin, false, t, visited)
	}
	for _, super := range cm.SuperClasses() {
		mg.walk(super, false, t, visited)
	}
}

// writeBack implements spec §4.G's "Write-back to meta" rules.
func writeBack(m *meta.Meta, t *table) {
	for name, prop := range m.Properties {
		row, ok := t.properties[name]
		if !ok {
			continue
		}
		if prop.Refine {
			prop.OverriddenFrom = row.OverriddenFrom
			prop.AppearsIn = row.AppearsIn
			mergePropertySignature(prop, row)
		}
	}

	for name, row := range t.properties {
		if _, declared := m.Properties[name]; declared {
			continue
		}
		if row.Abstract || row.Mixin {
			materializeProperty(m, name, row)
		}
	}

	anyAbstractMember := false
	for name, member := range m.Members {
		if member.Type == meta.KindVariable {
			if row, ok := t.members[name]; ok && row.Type == meta.KindFunction {
				member.Type = meta.KindFunction
			}
		}
	}

	for name, row := range t.members {
		member, declared := m.Members[name]
		if !declared {
			if row.Abstract || row.Mixin || row.PropertyGenerated {
				materializeMember(m, name, row)
				if row.Abstract {
					anyAbstractMember = true
				}
			}
			continue
		}
		if len(row.AppearsIn) > 0 {
			member.AppearsIn = row.AppearsIn
			member.OverriddenFrom = row.OverriddenFrom
			mergeMemberSignature(member, row)
		}
		if member.Abstract {
			anyAbstractMember = true
		}
	}

	if anyAbstractMember {
		m.Abstract = true
	}

	// Empty appearsIn and unset overriddenFrom are already dropped by
	// the JSON omitempty tags on meta.Member; only the members map
	// itself needs an explicit drop-if-empty (spec §4.G write-back).
	if len(m.Members) == 0 {
		m.Members = nil
	}
}

func mergePropertySignature(p *meta.Property, row *entityRow) {
	if row.JSDoc == nil || !row.JSDoc.HasSignature() {
		return
	}
	if p.JSDoc != nil && p.JSDoc.HasSignature() {
		return
	}
	if p.JSDoc == nil {
		p.JSDoc = &meta.JSDoc{}
	}
	p.JSDoc.Params = row.JSDoc.Params
	p.JSDoc.Return = row.JSDoc.Return
}

// mergeMemberSignature copies row's accumulated ancestor signature onto
// a concretely-declared member, the member-table analogue of
// mergePropertySignature (OQ2).
func mergeMemberSignature(member *meta.Member, row *entityRow) {
	if row.JSDoc == nil || !row.JSDoc.HasSignature() {
		return
	}
	if member.JSDoc != nil && member.JSDoc.HasSignature() {
		return
	}
	if member.JSDoc == nil {
		member.JSDoc = &meta.JSDoc{}
	}
	member.JSDoc.Params = row.JSDoc.Params
	member.JSDoc.Return = row.JSDoc.Return
}

func materializeProperty(m *meta.Meta, name string, row *entityRow) {
	if m.Properties == nil {
		m.Properties = make(map[string]*meta.Property)
	}
	m.Properties[name] = &meta.Property{
		Abstract:       row.Abstract,
		Mixin:          row.Mixin,
		Inherited:      true,
		AppearsIn:      row.AppearsIn,
		OverriddenFrom: row.OverriddenFrom,
	}
}

func materializeMember(m *meta.Meta, name string, row *entityRow) {
	if m.Members == nil {
		m.Members = make(map[string]*meta.Member)
	}
	m.Members[name] = &meta.Member{
		Type:           row.Type,
		Access:         row.Access,
		Abstract:       row.Abstract,
		Mixin:          row.Mixin,
		Inherited:      true,
		Property:       row.PropertyKind,
		AppearsIn:      row.AppearsIn,
		OverriddenFrom: row.OverriddenFrom,
		JSDoc:          row.JSDoc,
	}
}
