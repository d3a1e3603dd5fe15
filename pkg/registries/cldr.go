package registries

import "fmt"

// CLDR is the opaque external locale-data object (out of scope per
// spec §1); the registry only owns its lazy per-locale cache.
type CLDR interface{}

// CLDRLoader lazily produces the CLDR object for one locale.
type CLDRLoader func(locale string) (CLDR, error)

// CLDRCache is the "cache of locale -> CLDR object, loaded lazily by
// an external loader" (spec §4.I).
type CLDRCache struct {
	loader CLDRLoader
	cache  map[string]CLDR
}

// NewCLDRCache builds a CLDRCache backed by loader.
func NewCLDRCache(loader CLDRLoader) *CLDRCache {
	return &CLDRCache{loader: loader, cache: make(map[string]CLDR)}
}

// Get returns the CLDR object for locale, loading and caching it on
// first request.
func (c *CLDRCache) Get(locale string) (CLDR, error) {
	if v, ok := c.cache[locale]; ok {
		return v, nil
	}
	v, err := c.loader(locale)
	if err != nil {
		return nil, fmt.Errorf("registries:cldr - failed to load CLDR for %s: %w", locale, err)
	}
	c.cache[locale] = v
	return v, nil
}
