package registries

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/morezero/classanalyser/pkg/classdb"
	"github.com/morezero/classanalyser/pkg/library"
)

const logPrefix = "registries:translations"

// MergedEntry is one message's merged translation-file record,
// accumulating references from every source file that mentions it.
type MergedEntry struct {
	MsgID       string
	MsgIDPlural string
	Comment     string
	// References maps "<class-path>.js" to the sorted, deduplicated
	// line numbers where the message occurs (spec §4.I).
	References map[string][]int
}

// Translation is the external per-(locale,namespace) translation file
// object (spec §1: out of scope; spec §4.I: "checkRead() must complete
// before it is returned to a caller"). The analyser only reads and
// writes through this narrow seam.
type Translation interface {
	CheckRead(ctx context.Context) error
	Entries() map[string]*MergedEntry
	PutEntry(msgid string, entry *MergedEntry)
}

// TranslationLoader produces the Translation object for one
// (locale, namespace) pair.
type TranslationLoader func(locale, namespace string) (Translation, error)

// TranslationCache is the "cache keyed by <locale>:<namespace>" (spec
// §4.I).
type TranslationCache struct {
	loader TranslationLoader
	cache  map[string]Translation
}

// NewTranslationCache builds a TranslationCache backed by loader.
func NewTranslationCache(loader TranslationLoader) *TranslationCache {
	return &TranslationCache{loader: loader, cache: make(map[string]Translation)}
}

func cacheKey(locale, namespace string) string {
	return locale + ":" + namespace
}

// Get returns the Translation for (locale, namespace), loading and
// running CheckRead on first request (spec §4.I).
func (c *TranslationCache) Get(ctx context.Context, locale, namespace string) (Translation, error) {
	key := cacheKey(locale, namespace)
	if t, ok := c.cache[key]; ok {
		return t, nil
	}
	t, err := c.loader(locale, namespace)
	if err != nil {
		return nil, fmt.Errorf("%s - failed to load translation for %s: %w", logPrefix, key, err)
	}
	if err := t.CheckRead(ctx); err != nil {
		return nil, fmt.Errorf("%s - checkRead failed for %s: %w", logPrefix, key, err)
	}
	c.cache[key] = t
	return t, nil
}

// classSourceFile derives the "<class-path>.js" reference used as a
// translation entry's source key (spec §4.I), the inverse of
// library.ClassPathToName.
func classSourceFile(className string) string {
	return strings.ReplaceAll(className, ".", "/") + ".js"
}

// mergeLineNo appends lineNo to existing if not already present,
// keeping the result sorted (spec §9 OQ3: "adopt the array-element
// form as correct" for both single line numbers and arrays — in this
// strongly-typed model each TranslationEntry always carries one
// lineNo, so every merge is a single-element append).
func mergeLineNo(existing []int, lineNo int) []int {
	for _, l := range existing {
		if l == lineNo {
			return existing
		}
	}
	out := append(existing, lineNo)
	sort.Ints(out)
	return out
}

// UpdateTranslations implements spec §4.I's updateTranslations: for
// each locale, read the existing translation file, then for every
// known class in lib's namespace, copy its per-source translations[]
// entries into translation entries, accumulating source-file
// references with line-number de-duplication.
func UpdateTranslations(ctx context.Context, lib *library.Library, locales []string, db *classdb.Database, cache *TranslationCache) error {
	for _, locale := range locales {
		t, err := cache.Get(ctx, locale, lib.Namespace)
		if err != nil {
			return err
		}

		for className := range lib.ClassNames {
			info := db.Get(className)
			if info == nil || len(info.Translations) == 0 {
				continue
			}
			file := classSourceFile(className)

			for _, src := range info.Translations {
				entry := t.Entries()[src.MsgID]
				if entry == nil {
					entry = &MergedEntry{
						MsgID:       src.MsgID,
						MsgIDPlural: src.MsgIDPlural,
						Comment:     src.Comment,
						References:  make(map[string][]int),
					}
				}
				entry.References[file] = mergeLineNo(entry.References[file], src.LineNo)
				t.PutEntry(src.MsgID, entry)
			}
		}
	}
	return nil
}
