// Package analyser is the top-level orchestrator (spec §5): it wires
// the Library Index, Class DB, Per-Class Compile Dispatch, Dependency
// Closure, Meta Loader/Cache, Meta Merger, Descendant Fixup and the
// Environment/Locale/Translation registries into the single
// cooperative run the rest of the spec describes in isolation.
package analyser

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/morezero/classanalyser/pkg/classdb"
	"github.com/morezero/classanalyser/pkg/classfile"
	"github.com/morezero/classanalyser/pkg/closure"
	"github.com/morezero/classanalyser/pkg/compiler"
	"github.com/morezero/classanalyser/pkg/descendants"
	"github.com/morezero/classanalyser/pkg/events"
	"github.com/morezero/classanalyser/pkg/library"
	"github.com/morezero/classanalyser/pkg/merge"
	"github.com/morezero/classanalyser/pkg/meta"
	"github.com/morezero/classanalyser/pkg/metacache"
	"github.com/morezero/classanalyser/pkg/registries"
)

const logPrefix = "analyser:analyser"

// MetaMirror is the optional query-mirror write hook (spec §2 DOMAIN
// STACK "query mirror"): implemented by pkg/db's Repository, but
// declared here so this package never imports pkg/db. A nil MetaMirror
// simply skips mirroring.
type MetaMirror interface {
	UpsertMeta(ctx context.Context, className string, m *meta.Meta) error
}

// Config supplies every externally-owned seam the analyser needs:
// where classes live on disk, how to construct the per-class compiler,
// and how to publish the event contract. None of these are the
// analyser's own concern (spec §1).
type Config struct {
	DBPath   string
	MetaPath metacache.MetaPathFunc
	Paths    compiler.PathResolver
	Stat     compiler.StatFunc
	Factory  classfile.Factory

	Publisher events.EventPublisher
	Resources classdb.ResourceSaver

	// Mirror, when set, receives a best-effort copy of every merged
	// meta (spec §2 "mirroring is best-effort and optional ... never
	// gates analyseClasses correctness"): a mirror write failure is
	// logged, never returned.
	Mirror MetaMirror
}

// Analyser is the orchestrator instance for one project run.
type Analyser struct {
	cfg Config

	DB    *classdb.Database
	Index *library.Index

	dispatcher *compiler.Dispatcher

	Locales          *registries.Locales
	Environment      *registries.Environment
	TranslationCache *registries.TranslationCache
	CLDR             *registries.CLDRCache
}

// New builds an Analyser. Call Open before AnalyseClasses.
func New(cfg Config) *Analyser {
	publisher := cfg.Publisher
	if publisher == nil {
		publisher = &events.NoOpPublisher{}
	}

	db := classdb.New(cfg.DBPath, cfg.Resources, publisher)
	idx := library.NewIndex()

	return &Analyser{
		cfg:         cfg,
		DB:          db,
		Index:       idx,
		dispatcher:  compiler.New(db, idx, cfg.Paths, cfg.Stat, cfg.Factory, publisher),
		Locales:     registries.NewLocales(),
		Environment: registries.NewEnvironment(),
	}
}

// WithTranslations attaches a TranslationCache backed by loader,
// enabling UpdateTranslations. Optional: a project that never runs
// the translation extractor need not call it.
func (a *Analyser) WithTranslations(loader registries.TranslationLoader) *Analyser {
	a.TranslationCache = registries.NewTranslationCache(loader)
	return a
}

// WithCLDR attaches a CLDRCache backed by loader.
func (a *Analyser) WithCLDR(loader registries.CLDRLoader) *Analyser {
	a.CLDR = registries.NewCLDRCache(loader)
	return a
}

// AddLibrary registers lib with the Library Index (spec §4.A).
func (a *Analyser) AddLibrary(lib *library.Library) error {
	return a.Index.AddLibrary(lib)
}

// Open loads the Class DB from disk (spec §4.B). An absent or empty
// file is not an error; a malformed one aborts the run (spec §7
// DbParseError).
func (a *Analyser) Open() error {
	if err := a.DB.Load(); err != nil {
		return fmt.Errorf("%s - failed to open class db: %w", logPrefix, err)
	}
	return nil
}

// SaveDatabase persists the Class DB (spec §4.B). Per spec §5's
// ordering guarantee, callers run this strictly after AnalyseClasses'
// descendant fixup pass has completed.
func (a *Analyser) SaveDatabase(ctx context.Context) error {
	return a.DB.Save(ctx)
}

// UpdateTranslations runs the translation extractor for lib across
// locales (spec §4.I). Requires WithTranslations to have been called.
func (a *Analyser) UpdateTranslations(ctx context.Context, lib *library.Library, locales []string) error {
	if a.TranslationCache == nil {
		return fmt.Errorf("%s - UpdateTranslations called without a translation loader configured", logPrefix)
	}
	return registries.UpdateTranslations(ctx, lib, locales, a.DB, a.TranslationCache)
}

// Summary reports what one AnalyseClasses run did.
type Summary struct {
	Visited    []string
	Recompiled []string
}

// AnalyseClasses is the single cooperative run spec §5 describes: seed
// the Dependency Closure with seeds, drain it through the Per-Class
// Compile Dispatch, then run the Meta Merger over every class that
// was actually recompiled (strictly after every D event in the run),
// then run Descendant Fixup over every class named as an ancestor
// (strictly after every G merge).
func (a *Analyser) AnalyseClasses(ctx context.Context, seeds []string, forceScan bool) (*Summary, error) {
	walk := closure.NewWalk(a.dispatcher, forceScan)
	for _, s := range seeds {
		walk.AddClass(s)
	}

	results, visited, err := walk.Run(ctx)
	if err != nil {
		return nil, fmt.Errorf("%s - dependency closure failed: %w", logPrefix, err)
	}

	// The Meta Loader/Cache and Meta Merger are scoped to this single
	// run (spec §4.F "results cached for the run"): a saveMeta guard
	// that outlived AnalyseClasses would spuriously reject a later
	// run's Descendant Fixup writes for classes it already saved once
	// before.
	metaCache := metacache.New(a.cfg.MetaPath)
	merger := merge.New(metaCache)

	// Seed every recompiled class's live meta before any merge runs,
	// so a merge of a later-visited class sees an earlier-visited
	// ancestor's fresh meta rather than its stale on-disk copy (spec
	// §4.F, §9 "live-vs-disk meta").
	recompiled := make(map[string]struct{})
	for _, className := range visited {
		res := results[className]
		if !res.Recompiled || res.ClassFile == nil {
			continue
		}
		recompiled[className] = struct{}{}
		metaCache.SeedLive(className, res.ClassFile.GetOuterClassMeta())
	}

	for _, className := range visited {
		if _, ok := recompiled[className]; !ok {
			continue
		}
		m := metaCache.LoadMeta(className)
		if m == nil {
			slog.Warn(fmt.Sprintf("%s - %s compiled but exposed no meta, skipping merge", logPrefix, className))
			continue
		}
		merger.Merge(m)
		// A freshly compiled class's own descendants must be computed
		// here, not deferred to Descendant Fixup: saveMeta refuses a
		// second write for the same class in one run (spec §4.F), and
		// H explicitly skips classes recompiled this run (spec §4.H).
		// Invariant 6 (descendants consistency) still has to hold for
		// every class by the time the run ends, recompiled or not.
		m.Descendants = descendants.ComputeDescendants(a.DB, className)
		if err := metaCache.SaveMeta(className, m); err != nil {
			return nil, fmt.Errorf("%s - failed to save merged meta for %s: %w", logPrefix, className, err)
		}
		if a.cfg.Mirror != nil {
			if err := a.cfg.Mirror.UpsertMeta(ctx, className, m); err != nil {
				slog.Warn(fmt.Sprintf("%s - failed to mirror meta for %s: %v", logPrefix, className, err))
			}
		}
	}

	collector := descendants.NewCollector()
	for _, className := range visited {
		res := results[className]
		collector.Observe(res.Old, res.Info)
	}
	if err := descendants.Run(a.DB, metaCache, collector.Candidates(), recompiled); err != nil {
		return nil, fmt.Errorf("%s - descendant fixup failed: %w", logPrefix, err)
	}

	recompiledList := make([]string, 0, len(recompiled))
	for _, className := range visited {
		if _, ok := recompiled[className]; ok {
			recompiledList = append(recompiledList, className)
		}
	}

	return &Summary{Visited: visited, Recompiled: recompiledList}, nil
}
