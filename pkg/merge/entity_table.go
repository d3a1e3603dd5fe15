package merge

import "github.com/morezero/classanalyser/pkg/meta"

// entityRow is the working table row built while walking ancestors
// (spec §4.G Pass 2). It is converted to a meta.Member/meta.Property
// only at write-back time.
type entityRow struct {
	Type      meta.EntityKind
	Access    meta.Access
	Abstract  bool
	Mixin     bool
	Inherited bool

	// PropertyGenerated is set once any ancestor sighting of this
	// member carried a non-empty meta.Member.Property tag, i.e. the
	// member is a synthesized property accessor (get/is/set/reset) on
	// at least one ancestor in the walk.
	PropertyGenerated bool
	PropertyKind      string

	appearsInSeen map[string]struct{}
	AppearsIn     []string
	OverriddenFrom string

	JSDoc *meta.JSDoc
}

func newEntityRow(name string, ancestorKind meta.AncestorKind, isSelf bool) *entityRow {
	return &entityRow{
		Type:          meta.KindFunction,
		Access:        meta.DeriveAccess(name),
		Abstract:      ancestorKind == meta.AncestorInterface,
		Mixin:         ancestorKind == meta.AncestorMixin,
		Inherited:     !isSelf,
		appearsInSeen: make(map[string]struct{}),
	}
}

// table holds the two entity maps built during Pass 2: members and
// properties (spec §4.G: "classEntities = {members:{}, properties:{}}").
type table struct {
	members    map[string]*entityRow
	properties map[string]*entityRow
}

func newTable() *table {
	return &table{
		members:    make(map[string]*entityRow),
		properties: make(map[string]*entityRow),
	}
}

// visit records one entity sighting at one ancestor, per the rules of
// spec §4.G Pass 2's per-ancestor, per-entity bullet list.
func visit(rows map[string]*entityRow, name, ancestorName string, ancestorKind meta.AncestorKind, isSelf bool, entityType meta.EntityKind, jsdoc *meta.JSDoc, propertyKind string) *entityRow {
	row, ok := rows[name]
	if !ok {
		row = newEntityRow(name, ancestorKind, isSelf)
		rows[name] = row
	}
	if entityType != "" {
		row.Type = entityType
	}
	if propertyKind != "" {
		row.PropertyGenerated = true
		row.PropertyKind = propertyKind
	}

	if ancestorKind == meta.AncestorMixin && row.Abstract {
		row.Mixin = true
	}
	if ancestorKind != meta.AncestorInterface {
		row.Abstract = false
	}

	if !isSelf {
		if _, seen := row.appearsInSeen[ancestorName]; !seen {
			row.appearsInSeen[ancestorName] = struct{}{}
			row.AppearsIn = append(row.AppearsIn, ancestorName)
		}
		if row.OverriddenFrom == "" {
			row.OverriddenFrom = ancestorName
		}
	}

	mergeSignature(row, jsdoc)
	return row
}

// mergeSignature implements the OQ2 resolution (spec §9): copy a
// @param/@return signature from ancestor to row only if the row has
// none yet and the ancestor provides one.
func mergeSignature(row *entityRow, src *meta.JSDoc) {
	if src == nil || !src.HasSignature() {
		return
	}
	if row.JSDoc != nil && row.JSDoc.HasSignature() {
		return
	}
	if row.JSDoc == nil {
		row.JSDoc = &meta.JSDoc{}
	}
	row.JSDoc.Params = src.Params
	row.JSDoc.Return = src.Return
	if row.JSDoc.Description == "" {
		row.JSDoc.Description = src.Description
	}
}

func ancestorKindOf(m *meta.Meta) meta.AncestorKind {
	switch {
	case m.IsInterface():
		return meta.AncestorInterface
	case m.IsMixin():
		return meta.AncestorMixin
	default:
		return meta.AncestorClass
	}
}
