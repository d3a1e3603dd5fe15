// Package main is the entrypoint for classanalyser.
package main

import (
	"context"
	"fmt"
	"log"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/morezero/classanalyser/internal/config"
	"github.com/morezero/classanalyser/internal/layout"
	"github.com/morezero/classanalyser/internal/server"
	"github.com/morezero/classanalyser/pkg/analyser"
	"github.com/morezero/classanalyser/pkg/bootstrap"
	"github.com/morezero/classanalyser/pkg/classfile"
	"github.com/morezero/classanalyser/pkg/db"
	"github.com/morezero/classanalyser/pkg/library"
)

const usage = `Usage: classanalyser [command]
       classanalyser serve                       Start the long-lived service (COMMS, HTTP, mirror).
       classanalyser analyse <class>...           Run one AnalyseClasses pass over the given seeds.
       classanalyser analyse --force <class>...   Same, ignoring the Staleness Oracle.
       classanalyser watch <interval> <class>...  Re-run analyse every interval (e.g. 2s) until interrupted.
       classanalyser updateTranslations <namespace> <locale>[,<locale>...]
                                                   Run the translation extractor for a library.
       classanalyser migrate up|down|status       Run mirror DB migrations.
       classanalyser ensure-db                    Create the mirror database if missing.
       classanalyser clear                        Truncate the mirror tables; the JSON DB is untouched.

Environment: see internal/config for OUTPUT_DIR, DB_FILENAME, MIRROR_DATABASE_URL, COMMS_URL, CLASSANALYSER_BOOTSTRAP_FILE.
`

func main() {
	args := os.Args[1:]
	cmd := ""
	if len(args) > 0 {
		cmd = args[0]
	}

	var err error
	switch cmd {
	case "serve", "":
		err = server.Run()
	case "analyse":
		err = runAnalyse(args[1:])
	case "watch":
		err = runWatch(args[1:])
	case "updateTranslations":
		err = runUpdateTranslations(args[1:])
	case "migrate":
		if len(args) < 2 {
			log.Fatalf("classanalyser migrate: require subcommand (up, down, status)")
		}
		err = runMigrate(args[1])
	case "ensure-db":
		err = runEnsureDB()
	case "clear":
		err = runClear()
	case "help", "-h", "--help":
		fmt.Print(usage)
		return
	default:
		fmt.Fprintf(os.Stderr, "Unknown command %q.\n%s", cmd, usage)
		os.Exit(1)
	}

	if err != nil {
		log.Fatalf("classanalyser: %v", err)
	}
}

// buildAnalyser constructs an Analyser against the real filesystem,
// sharing the wiring internal/server uses but without COMMS/HTTP: the
// CLI runs one pass (or a poll loop of them) and exits.
func buildAnalyser(ctx context.Context, cfg *config.Config) (*analyser.Analyser, error) {
	bootstrapCfg, err := bootstrap.LoadBootstrapConfig(cfg.BootstrapFile)
	if err != nil {
		return nil, fmt.Errorf("failed to load bootstrap config: %w", err)
	}
	resolved := bootstrap.CreateResolvedBootstrap(bootstrapCfg)

	outputResolver := layout.OutputResolver{OutputDir: cfg.OutputDir}
	a := analyser.New(analyser.Config{
		DBPath:   cfg.DbFilename,
		MetaPath: outputResolver.MetaPath,
		Paths:    outputResolver,
		Stat:     layout.Stat,
		Factory:  classfile.NewManifestFactory(),
	})

	for _, entry := range resolved.Libraries() {
		lib := &library.Library{Namespace: entry.Namespace, RootDir: entry.Path, SourcePath: entry.Path}
		if err := a.AddLibrary(lib); err != nil {
			return nil, fmt.Errorf("failed to register library %s: %w", entry.Namespace, err)
		}
	}
	if err := library.ScanAll(ctx, a.Index, layout.WalkManifests); err != nil {
		return nil, fmt.Errorf("failed to scan libraries: %w", err)
	}
	a.Environment.Merge(resolved.Environment())
	for _, locale := range resolved.Locales() {
		a.Locales.Add(locale)
	}

	if err := a.Open(); err != nil {
		return nil, fmt.Errorf("failed to open class db: %w", err)
	}
	return a, nil
}

func runAnalyse(args []string) error {
	force := false
	var seeds []string
	for _, arg := range args {
		if arg == "--force" {
			force = true
			continue
		}
		seeds = append(seeds, arg)
	}
	if len(seeds) == 0 {
		return fmt.Errorf("analyse: at least one class name is required")
	}

	cfg, err := config.LoadConfig()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	if err := cfg.ValidateForAnalyse(); err != nil {
		return err
	}

	ctx := context.Background()
	a, err := buildAnalyser(ctx, cfg)
	if err != nil {
		return err
	}

	summary, err := a.AnalyseClasses(ctx, seeds, force)
	if err != nil {
		return fmt.Errorf("analyse classes: %w", err)
	}
	if err := a.SaveDatabase(ctx); err != nil {
		return fmt.Errorf("save database: %w", err)
	}
	fmt.Printf("visited %d class(es), recompiled %d\n", len(summary.Visited), len(summary.Recompiled))
	return nil
}

// runWatch re-runs AnalyseClasses on a fixed interval until the
// process receives an interrupt. There is no filesystem watcher: the
// Staleness Oracle already decides per class whether anything changed,
// so the poll loop is only a trigger, not a scheduler.
func runWatch(args []string) error {
	if len(args) < 2 {
		return fmt.Errorf("watch: usage: classanalyser watch <interval> <class>...")
	}
	interval, err := time.ParseDuration(args[0])
	if err != nil {
		return fmt.Errorf("watch: invalid interval %q: %w", args[0], err)
	}
	seeds := args[1:]

	cfg, err := config.LoadConfig()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	if err := cfg.ValidateForAnalyse(); err != nil {
		return err
	}

	ctx := context.Background()
	a, err := buildAnalyser(ctx, cfg)
	if err != nil {
		return err
	}

	slog.Info(fmt.Sprintf("cmd/classanalyser:watch - polling every %s for %v", interval, seeds))
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for range ticker.C {
		summary, err := a.AnalyseClasses(ctx, seeds, false)
		if err != nil {
			slog.Error(fmt.Sprintf("cmd/classanalyser:watch - analyse failed: %v", err))
			continue
		}
		if len(summary.Recompiled) == 0 {
			continue
		}
		if err := a.SaveDatabase(ctx); err != nil {
			slog.Error(fmt.Sprintf("cmd/classanalyser:watch - save database failed: %v", err))
			continue
		}
		slog.Info(fmt.Sprintf("cmd/classanalyser:watch - recompiled %v", summary.Recompiled))
	}
	return nil
}

func runUpdateTranslations(args []string) error {
	if len(args) < 2 {
		return fmt.Errorf("updateTranslations: usage: classanalyser updateTranslations <namespace> <locale>[,<locale>...]")
	}
	namespace := args[0]
	locales := strings.Split(args[1], ",")

	cfg, err := config.LoadConfig()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	if err := cfg.ValidateForAnalyse(); err != nil {
		return err
	}

	ctx := context.Background()
	a, err := buildAnalyser(ctx, cfg)
	if err != nil {
		return err
	}
	a.WithTranslations(layout.NewTranslationLoader(cfg.OutputDir + "/i18n"))

	var lib *library.Library
	for _, l := range a.Index.Libraries() {
		if l.Namespace == namespace {
			lib = l
			break
		}
	}
	if lib == nil {
		return fmt.Errorf("updateTranslations: unknown namespace %q", namespace)
	}

	if err := a.UpdateTranslations(ctx, lib, locales); err != nil {
		return fmt.Errorf("update translations: %w", err)
	}
	for _, locale := range locales {
		t, err := a.TranslationCache.Get(ctx, locale, namespace)
		if err != nil {
			return fmt.Errorf("update translations: %w", err)
		}
		if jt, ok := t.(*layout.JSONTranslation); ok {
			if err := jt.Flush(); err != nil {
				return fmt.Errorf("update translations: %w", err)
			}
		}
	}
	fmt.Printf("updated translations for %s: %s\n", namespace, strings.Join(locales, ", "))
	return nil
}

func runMigrate(sub string) error {
	cfg, err := config.LoadConfig()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	if err := cfg.ValidateForMirror(); err != nil {
		return err
	}
	ctx := context.Background()
	pool, err := db.NewPool(ctx, cfg.MirrorDatabaseURL)
	if err != nil {
		return fmt.Errorf("connect mirror database: %w", err)
	}
	defer pool.Close()

	switch sub {
	case "up":
		files, err := db.LoadMigrationFiles(cfg.MigrationPath)
		if err != nil {
			return fmt.Errorf("load migrations: %w", err)
		}
		return db.RunMigrations(ctx, pool, files)
	case "down":
		return db.MigrationDown(ctx, pool, cfg.MigrationPath)
	case "status":
		return db.MigrationStatus(ctx, pool, cfg.MigrationPath)
	default:
		return fmt.Errorf("classanalyser migrate: unknown subcommand %q (use up, down, status)", sub)
	}
}

func runEnsureDB() error {
	cfg, err := config.LoadConfig()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	if err := cfg.ValidateForMirror(); err != nil {
		return err
	}
	ctx := context.Background()
	if err := db.EnsureDatabase(ctx, cfg.MirrorDatabaseURL); err != nil {
		return err
	}
	fmt.Println("mirror database is ready")
	return nil
}

func runClear() error {
	cfg, err := config.LoadConfig()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	if err := cfg.ValidateForMirror(); err != nil {
		return err
	}
	ctx := context.Background()
	pool, err := db.NewPool(ctx, cfg.MirrorDatabaseURL)
	if err != nil {
		return fmt.Errorf("connect mirror database: %w", err)
	}
	defer pool.Close()

	return db.ClearMirror(ctx, pool)
}
