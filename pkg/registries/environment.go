package registries

// Environment is the mutable compile-time environment-check map (spec
// §4.I: "set(key, undefined) deletes; set(map) merges").
type Environment struct {
	values map[string]interface{}
}

// NewEnvironment returns an empty Environment.
func NewEnvironment() *Environment {
	return &Environment{values: make(map[string]interface{})}
}

// Set assigns key=value, or deletes key when value is nil.
func (e *Environment) Set(key string, value interface{}) {
	if value == nil {
		delete(e.values, key)
		return
	}
	e.values[key] = value
}

// Merge applies every key in values via Set, so a nil value in the map
// deletes the corresponding key (spec §4.I "set(map) merges").
func (e *Environment) Merge(values map[string]interface{}) {
	for k, v := range values {
		e.Set(k, v)
	}
}

// Get returns the value for key and whether it is set.
func (e *Environment) Get(key string) (interface{}, bool) {
	v, ok := e.values[key]
	return v, ok
}

// All returns every key/value currently set, consumed during
// compilation as the "environment map property" (spec §4.I).
func (e *Environment) All() map[string]interface{} {
	return e.values
}
