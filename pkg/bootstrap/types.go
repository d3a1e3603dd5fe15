// Package bootstrap provides bootstrap configuration loading for the
// initial set of libraries, the default locale, and pre-seeded
// environment checks an analyser run starts from.
package bootstrap

// LibraryEntry names one library to register before any class is
// analysed: where its classes live on disk and what namespace they
// belong to.
type LibraryEntry struct {
	Namespace string `json:"namespace"`
	Path      string `json:"path"`
}

// EnvironmentCheck is a single environment key/value pair known to be
// true before any class's qx.core.Environment.get() calls are
// evaluated (e.g. "qx.debug": false for a release build).
type EnvironmentCheck struct {
	Key   string      `json:"key"`
	Value interface{} `json:"value"`
}

// BootstrapConfig is the root bootstrap configuration: the libraries
// to register, the default locale, and the environment checks known
// ahead of any compile.
type BootstrapConfig struct {
	Name          string             `json:"name"`
	Version       string             `json:"version"`
	Description   string             `json:"description,omitempty"`
	Libraries     []LibraryEntry     `json:"libraries"`
	DefaultLocale string             `json:"defaultLocale,omitempty"`
	Locales       []string           `json:"locales,omitempty"`
	Environment   []EnvironmentCheck `json:"environment,omitempty"`
}

// ResolvedBootstrap provides fast lookup over a loaded BootstrapConfig.
type ResolvedBootstrap struct {
	name          string
	version       string
	libraries     []LibraryEntry
	byNamespace   map[string]*LibraryEntry
	defaultLocale string
	locales       []string
	environment   map[string]interface{}
}

// Libraries returns every library entry in registration order.
func (rb *ResolvedBootstrap) Libraries() []LibraryEntry {
	return rb.libraries
}

// Library returns the entry for namespace, or nil if unknown.
func (rb *ResolvedBootstrap) Library(namespace string) *LibraryEntry {
	return rb.byNamespace[namespace]
}

// DefaultLocale returns the configured default locale, or "" if none.
func (rb *ResolvedBootstrap) DefaultLocale() string {
	return rb.defaultLocale
}

// Locales returns every supported locale.
func (rb *ResolvedBootstrap) Locales() []string {
	return rb.locales
}

// Environment returns the pre-seeded environment checks as a flat map.
func (rb *ResolvedBootstrap) Environment() map[string]interface{} {
	return rb.environment
}

// Name returns the bootstrap config name (for versioning/cache invalidation).
func (rb *ResolvedBootstrap) Name() string {
	return rb.name
}

// Version returns the bootstrap config version.
func (rb *ResolvedBootstrap) Version() string {
	return rb.version
}
