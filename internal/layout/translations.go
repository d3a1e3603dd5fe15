package layout

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/morezero/classanalyser/pkg/registries"
)

// JSONTranslation is a registries.Translation backed by a single JSON
// file on disk, one entry per message id. The real .po/.json writer an
// i18n toolchain would use is out of scope (spec §1), same as the
// manifest-backed ClassFile: this is the smallest thing that lets
// UpdateTranslations run against real files instead of a test double.
type JSONTranslation struct {
	path    string
	entries map[string]*registries.MergedEntry
}

// NewTranslationLoader returns a registries.TranslationLoader that
// reads/writes "<dir>/<namespace>/<locale>.json".
func NewTranslationLoader(dir string) registries.TranslationLoader {
	return func(locale, namespace string) (registries.Translation, error) {
		return &JSONTranslation{path: filepath.Join(dir, namespace, locale+".json")}, nil
	}
}

func (t *JSONTranslation) CheckRead(_ context.Context) error {
	data, err := os.ReadFile(t.path)
	if err != nil {
		if os.IsNotExist(err) {
			t.entries = make(map[string]*registries.MergedEntry)
			return nil
		}
		return fmt.Errorf("layout:translations - failed to read %s: %w", t.path, err)
	}
	var entries map[string]*registries.MergedEntry
	if err := json.Unmarshal(data, &entries); err != nil {
		return fmt.Errorf("layout:translations - failed to parse %s: %w", t.path, err)
	}
	t.entries = entries
	return nil
}

func (t *JSONTranslation) Entries() map[string]*registries.MergedEntry {
	return t.entries
}

func (t *JSONTranslation) PutEntry(msgid string, entry *registries.MergedEntry) {
	t.entries[msgid] = entry
}

// Flush persists the translation file back to disk. UpdateTranslations
// itself never calls this (spec §4.I only requires entries to be
// merged in memory); the CLI passthrough calls it once per (locale,
// namespace) after the merge completes.
func (t *JSONTranslation) Flush() error {
	if err := os.MkdirAll(filepath.Dir(t.path), 0o755); err != nil {
		return fmt.Errorf("layout:translations - failed to create dir for %s: %w", t.path, err)
	}
	data, err := json.MarshalIndent(t.entries, "", "  ")
	if err != nil {
		return fmt.Errorf("layout:translations - failed to marshal %s: %w", t.path, err)
	}
	return os.WriteFile(t.path, data, 0o644)
}
