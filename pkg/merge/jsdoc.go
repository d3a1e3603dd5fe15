package merge

import (
	"fmt"
	"strings"

	"github.com/morezero/classanalyser/pkg/meta"
)

// fixupJSDoc implements Pass 1 (spec §4.G): resolve bare "{@link #x}"
// references against the owning class name so later consumers (a code
// generator, a doc tool) can follow the link without re-deriving
// context. Full JSDoc parsing is an external concern (spec §1); this
// is the one piece of JSDoc handling the merger itself owns.
func fixupJSDoc(className string, j *meta.JSDoc) {
	if j == nil {
		return
	}
	j.Description = qualifyLinks(className, j.Description)
	if j.Return != nil {
		j.Return.Description = qualifyLinks(className, j.Return.Description)
	}
	for i := range j.Params {
		j.Params[i].Description = qualifyLinks(className, j.Params[i].Description)
	}
}

func qualifyLinks(className, text string) string {
	if text == "" || !strings.Contains(text, "{@link #") {
		return text
	}
	return strings.ReplaceAll(text, "{@link #", fmt.Sprintf("{@link %s#", className))
}

// fixupAllJSDoc walks every documented slot of m, per spec §4.G Pass 1:
// "properties, events, members, statics, and the synthetic slots
// clazz, construct, destruct, defer".
func fixupAllJSDoc(className string, m *meta.Meta) {
	for _, p := range m.Properties {
		fixupJSDoc(className, p.JSDoc)
	}
	for _, e := range m.Events {
		fixupJSDoc(className, e.JSDoc)
	}
	for _, mem := range m.Members {
		fixupJSDoc(className, mem.JSDoc)
	}
	for _, s := range m.Statics {
		fixupJSDoc(className, s.JSDoc)
	}
	for _, slot := range []*meta.Member{m.Clazz, m.Construct, m.Destruct, m.Defer} {
		if slot != nil {
			fixupJSDoc(className, slot.JSDoc)
		}
	}
}
