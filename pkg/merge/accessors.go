package merge

import (
	"fmt"

	"github.com/morezero/classanalyser/pkg/meta"
)

// titleFirst upper-cases the first rune of a property name for
// "get<P>"-style accessor naming, e.g. "enabled" -> "Enabled".
func titleFirst(s string) string {
	if s == "" {
		return s
	}
	r := []rune(s)
	if r[0] >= 'a' && r[0] <= 'z' {
		r[0] -= 'a' - 'A'
	}
	return string(r)
}

// Canonical synthesized JSDoc descriptions (spec §6, bit-exact).
const (
	getterDescFmt = "Gets the (computed) value of the property `%s`.\n\n" +
		"For further details take a look at the property definition: {@link #%s}."
	setterDescFmt = "Sets the user value of the property `%s`.\n\n" +
		"For further details take a look at the property definition: {@link #%s}."
	resetDescFmt = "Resets the user value of the property `%s`.\n\n" +
		"The computed value falls back to the next available value e.g. appearance, init or inheritance value depending on the property configuration and value availability.\n\n" +
		"For further details take a look at the property definition: {@link #%s}."
	asyncGetterDescFmt = "Returns a {@link Promise} which resolves to the (computed) value of the property `%s`.\n" +
		"For further details take a look at the property definition: {@link #%s}."
	asyncSetterDescFmt = "Sets the user value of the property `%s`, returns a {@link Promise} which resolves when the value change has fully completed (in the case where there are asynchronous apply methods or events).\n\n" +
		"For further details take a look at the property definition: {@link #%s}."
)

// accessorSpec describes one get/is/set/reset accessor, with optional
// Async suffix on its method name (spec §4.G "property accessor
// synthesis").
type accessorSpec struct {
	methodName  string
	kind        string // "get", "is", "set", "reset"
	description string
	ret         *meta.Return
	params      []meta.Param
}

// accessorsFor enumerates every accessor method name/spec a property
// P of type Check requires (spec §4.G, §6, §8 invariant 4).
func accessorsFor(propName string, p *meta.Property) []accessorSpec {
	titled := titleFirst(propName)
	var specs []accessorSpec

	specs = append(specs, accessorSpec{
		methodName:  "get" + titled,
		kind:        "get",
		description: fmt.Sprintf(getterDescFmt, propName, propName),
		ret:         &meta.Return{Type: p.Check},
	})
	if p.IsBoolean() {
		specs = append(specs, accessorSpec{
			methodName:  "is" + titled,
			kind:        "is",
			description: fmt.Sprintf(getterDescFmt, propName, propName),
			ret:         &meta.Return{Type: "Boolean"},
		})
	}
	specs = append(specs, accessorSpec{
		methodName:  "set" + titled,
		kind:        "set",
		description: fmt.Sprintf(setterDescFmt, propName, propName),
		params:      []meta.Param{{Name: "value", Type: p.Check}},
	})
	specs = append(specs, accessorSpec{
		methodName:  "reset" + titled,
		kind:        "reset",
		description: fmt.Sprintf(resetDescFmt, propName, propName),
	})

	if p.Async {
		specs = append(specs, accessorSpec{
			methodName:  "get" + titled + "Async",
			kind:        "get",
			description: fmt.Sprintf(asyncGetterDescFmt, propName, propName),
			ret:         &meta.Return{Type: "Promise"},
		})
		if p.IsBoolean() {
			specs = append(specs, accessorSpec{
				methodName:  "is" + titled + "Async",
				kind:        "is",
				description: fmt.Sprintf(asyncGetterDescFmt, propName, propName),
				ret:         &meta.Return{Type: "Promise"},
			})
		}
		specs = append(specs, accessorSpec{
			methodName:  "set" + titled + "Async",
			kind:        "set",
			description: fmt.Sprintf(asyncSetterDescFmt, propName, propName),
			ret:         &meta.Return{Type: "Promise"},
			params:      []meta.Param{{Name: "value", Type: p.Check}},
		})
	}

	return specs
}

// synthesizeAccessors implements spec §4.G's accessor synthesis rule:
// for each accessor a property needs, synthesize a member unless a
// concrete (non-abstract) one already exists.
func synthesizeAccessors(m *meta.Meta, propName string, p *meta.Property) {
	for _, spec := range accessorsFor(propName, p) {
		existing, ok := m.Members[spec.methodName]
		if ok && !existing.Abstract {
			continue // concrete user-supplied member wins
		}
		if m.Members == nil {
			m.Members = make(map[string]*meta.Member)
		}
		m.Members[spec.methodName] = &meta.Member{
			Type:      meta.KindFunction,
			Access:    meta.AccessPublic,
			Inherited: p.Inherited,
			Mixin:     p.Mixin,
			Property:  spec.kind,
			JSDoc: &meta.JSDoc{
				Description: spec.description,
				Return:      spec.ret,
				Params:      spec.params,
			},
		}
	}
}
