// Package server orchestrates a long-lived class-analyser process:
// COMMS connection, optional Postgres query mirror, the analyser
// instance itself, a COMMS query dispatcher, and an HTTP health
// endpoint.
package server

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	comms "github.com/nats-io/nats.go"

	"github.com/morezero/classanalyser/internal/config"
	"github.com/morezero/classanalyser/internal/layout"
	"github.com/morezero/classanalyser/pkg/analyser"
	"github.com/morezero/classanalyser/pkg/bootstrap"
	"github.com/morezero/classanalyser/pkg/classfile"
	"github.com/morezero/classanalyser/pkg/commsutil"
	"github.com/morezero/classanalyser/pkg/db"
	"github.com/morezero/classanalyser/pkg/dispatcher"
	"github.com/morezero/classanalyser/pkg/events"
	"github.com/morezero/classanalyser/pkg/library"
)

const (
	logPrefix            = "server:server"
	maxCommsRequestBytes = 1024 * 1024 // 1MB max request body
)

// Server is the class-analyser process: COMMS connection, optional
// Postgres mirror pool, and the HTTP health listener.
type Server struct {
	cfg        *config.Config
	nc         *comms.Conn
	pool       *pgxpool.Pool
	httpServer *http.Server
	analyser   *analyser.Analyser

	analysisMu      sync.Mutex
	lastAnalysisAt  time.Time
	lastAnalysisErr error
}

// recordAnalysis captures the outcome of one AnalyseClasses pass for
// the /healthz report. The initial pass at startup and any future
// scheduled pass both funnel through this.
func (s *Server) recordAnalysis(err error) {
	s.analysisMu.Lock()
	defer s.analysisMu.Unlock()
	s.lastAnalysisErr = err
	if err == nil {
		s.lastAnalysisAt = time.Now()
	}
}

func (s *Server) analysisSnapshot() (time.Time, error) {
	s.analysisMu.Lock()
	defer s.analysisMu.Unlock()
	return s.lastAnalysisAt, s.lastAnalysisErr
}

// Run starts the server, blocks until a shutdown signal, then cleans up.
func Run() error {
	cfg, err := config.LoadConfig()
	if err != nil {
		return fmt.Errorf("%s - failed to load config: %w", logPrefix, err)
	}
	if err := cfg.ValidateForServe(); err != nil {
		return fmt.Errorf("%s - %w", logPrefix, err)
	}

	var logLevel slog.Level
	switch cfg.LogLevel {
	case "debug":
		logLevel = slog.LevelDebug
	case "warn":
		logLevel = slog.LevelWarn
	case "error":
		logLevel = slog.LevelError
	default:
		logLevel = slog.LevelInfo
	}
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: logLevel})))

	slog.Info(fmt.Sprintf("%s - starting classanalyser", logPrefix))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	s := &Server{cfg: cfg}

	bootstrapCfg, err := bootstrap.LoadBootstrapConfig(cfg.BootstrapFile)
	if err != nil {
		return fmt.Errorf("%s - failed to load bootstrap config: %w", logPrefix, err)
	}
	resolved := bootstrap.CreateResolvedBootstrap(bootstrapCfg)

	nc, err := commsutil.Connect(cfg.COMMSURL, cfg.COMMSName)
	if err != nil {
		return fmt.Errorf("%s - failed to connect to COMMS: %w", logPrefix, err)
	}
	s.nc = nc

	publishers := []events.EventPublisher{events.NewCommsPublisher(nc)}

	var repo *db.Repository
	if cfg.MirrorDatabaseURL != "" {
		if err := db.EnsureDatabase(ctx, cfg.MirrorDatabaseURL); err != nil {
			nc.Close()
			return fmt.Errorf("%s - ensure mirror database: %w", logPrefix, err)
		}
		pool, err := db.NewPool(ctx, cfg.MirrorDatabaseURL)
		if err != nil {
			nc.Close()
			return fmt.Errorf("%s - failed to connect to mirror database: %w", logPrefix, err)
		}
		s.pool = pool

		if cfg.RunMigrations {
			files, err := db.LoadMigrationFiles(cfg.MigrationPath)
			if err != nil {
				pool.Close()
				nc.Close()
				return fmt.Errorf("%s - failed to load migrations: %w", logPrefix, err)
			}
			if err := db.RunMigrations(ctx, pool, files); err != nil {
				pool.Close()
				nc.Close()
				return fmt.Errorf("%s - failed to run migrations: %w", logPrefix, err)
			}
		}

		repo = db.NewRepository(pool)
		publishers = append(publishers, &db.ClassInfoMirror{Repo: repo})
		slog.Info(fmt.Sprintf("%s - query mirror enabled at %s", logPrefix, cfg.MirrorDatabaseURL))
	} else {
		slog.Info(fmt.Sprintf("%s - query mirror disabled (MIRROR_DATABASE_URL empty)", logPrefix))
	}

	var publisher events.EventPublisher = publishers[0]
	if len(publishers) > 1 {
		publisher = &events.MultiPublisher{Publishers: publishers}
	}

	outputResolver := layout.OutputResolver{OutputDir: cfg.OutputDir}
	analyserCfg := analyser.Config{
		DBPath:    cfg.DbFilename,
		MetaPath:  outputResolver.MetaPath,
		Paths:     outputResolver,
		Stat:      layout.Stat,
		Factory:   classfile.NewManifestFactory(),
		Publisher: publisher,
	}
	if repo != nil {
		analyserCfg.Mirror = repo
	}
	a := analyser.New(analyserCfg)
	s.analyser = a

	for _, entry := range resolved.Libraries() {
		lib := &library.Library{Namespace: entry.Namespace, RootDir: entry.Path, SourcePath: entry.Path}
		if err := a.AddLibrary(lib); err != nil {
			s.shutdownPartial()
			return fmt.Errorf("%s - failed to register library %s: %w", logPrefix, entry.Namespace, err)
		}
	}
	if err := library.ScanAll(ctx, a.Index, layout.WalkManifests); err != nil {
		s.shutdownPartial()
		return fmt.Errorf("%s - failed to scan libraries: %w", logPrefix, err)
	}

	a.Environment.Merge(resolved.Environment())
	for _, locale := range resolved.Locales() {
		a.Locales.Add(locale)
	}

	if err := a.Open(); err != nil {
		s.shutdownPartial()
		return fmt.Errorf("%s - failed to open class db: %w", logPrefix, err)
	}

	seeds := allClassNames(a.Index)
	if _, err := a.AnalyseClasses(ctx, seeds, false); err != nil {
		s.recordAnalysis(err)
		slog.Error(fmt.Sprintf("%s - initial analyse pass failed: %v", logPrefix, err))
	} else if err := a.SaveDatabase(ctx); err != nil {
		s.recordAnalysis(err)
		slog.Error(fmt.Sprintf("%s - initial database save failed: %v", logPrefix, err))
	} else {
		s.recordAnalysis(nil)
		slog.Info(fmt.Sprintf("%s - initial analyse pass covered %d class(es)", logPrefix, len(seeds)))
	}

	disp := dispatcher.NewDispatcher(a)

	sub, err := nc.Subscribe(commsutil.SubjectQuery, s.handleQuery(ctx, disp))
	if err != nil {
		s.shutdownPartial()
		return fmt.Errorf("%s - failed to subscribe to %s: %w", logPrefix, commsutil.SubjectQuery, err)
	}
	slog.Info(fmt.Sprintf("%s - subscribed to %s", logPrefix, commsutil.SubjectQuery))

	bootstrapSub, err := nc.Subscribe(commsutil.SubjectBootstrap, s.handleBootstrap(resolved))
	if err != nil {
		sub.Unsubscribe()
		s.shutdownPartial()
		return fmt.Errorf("%s - failed to subscribe to %s: %w", logPrefix, commsutil.SubjectBootstrap, err)
	}
	slog.Info(fmt.Sprintf("%s - subscribed to %s", logPrefix, commsutil.SubjectBootstrap))

	mux := http.NewServeMux()
	healthHandler := s.handleHealth()
	mux.HandleFunc("/health", healthHandler)
	mux.HandleFunc("/healthz", healthHandler)

	s.httpServer = &http.Server{Addr: cfg.HTTPAddr, Handler: mux}
	go func() {
		slog.Info(fmt.Sprintf("%s - listening on %s", logPrefix, cfg.HTTPAddr))
		if err := s.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			slog.Error(fmt.Sprintf("%s - HTTP server error: %v", logPrefix, err))
		}
	}()

	slog.Info(fmt.Sprintf("%s - classanalyser is ready", logPrefix))

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	sig := <-sigCh
	slog.Info(fmt.Sprintf("%s - received signal %s, shutting down", logPrefix, sig))

	bootstrapSub.Unsubscribe()
	sub.Unsubscribe()
	s.httpServer.Shutdown(ctx)
	nc.Drain()
	if s.pool != nil {
		s.pool.Close()
	}

	slog.Info(fmt.Sprintf("%s - shutdown complete", logPrefix))
	return nil
}

// allClassNames seeds the Dependency Closure with every class the
// Library Index scanned, so a freshly started server has compiled meta
// for the whole project before it starts answering queries.
func allClassNames(idx *library.Index) []string {
	var names []string
	for _, lib := range idx.Libraries() {
		for className := range lib.ClassNames {
			names = append(names, className)
		}
	}
	return names
}

// shutdownPartial tears down whatever of nc/pool was already
// established before a startup error, so Run's error paths stay
// one-liners.
func (s *Server) shutdownPartial() {
	if s.pool != nil {
		s.pool.Close()
	}
	if s.nc != nil {
		s.nc.Close()
	}
}

// handleQuery adapts a COMMS message into a dispatcher.Dispatch call,
// honoring a per-request deadline from the caller's InvocationContext
// when it is tighter than the server's default request timeout.
func (s *Server) handleQuery(ctx context.Context, disp *dispatcher.Dispatcher) comms.MsgHandler {
	const requestTimeout = 10 * time.Second
	return func(msg *comms.Msg) {
		if len(msg.Data) > maxCommsRequestBytes {
			s.respondError(msg, "", "INVALID_REQUEST", "request body too large")
			return
		}
		var req dispatcher.AnalyserRequest
		if err := json.Unmarshal(msg.Data, &req); err != nil {
			s.respondError(msg, "", "INVALID_REQUEST", "failed to decode request")
			return
		}

		reqCtx, cancel := context.WithTimeout(ctx, requestTimeout)
		if req.Ctx != nil {
			ms := req.Ctx.DeadlineMs
			if ms <= 0 {
				ms = req.Ctx.TimeoutMs
			}
			if ms > 0 && time.Duration(ms)*time.Millisecond < requestTimeout {
				cancel()
				reqCtx, cancel = context.WithTimeout(ctx, time.Duration(ms)*time.Millisecond)
			}
		}
		defer cancel()

		resp := disp.Dispatch(reqCtx, &req)
		data, err := json.Marshal(resp)
		if err != nil {
			slog.Error(fmt.Sprintf("%s - failed to encode response: %v", logPrefix, err))
			s.respondError(msg, req.ID, "INTERNAL_ERROR", "failed to encode response")
			return
		}
		msg.Respond(data)
	}
}

func (s *Server) respondError(msg *comms.Msg, id, code, message string) {
	resp := &dispatcher.AnalyserResponse{ID: id, Ok: false, Error: &dispatcher.ErrorDetail{Code: code, Message: message}}
	data, err := json.Marshal(resp)
	if err != nil {
		return
	}
	msg.Respond(data)
}

// bootstrapResponse is the one-shot snapshot a COMMS client fetches on
// startup: which libraries and locales this analyser knows about, so
// it need not discover them class by class.
type bootstrapResponse struct {
	Name          string   `json:"name"`
	Version       string   `json:"version"`
	Libraries     []string `json:"libraries"`
	DefaultLocale string   `json:"defaultLocale,omitempty"`
	Locales       []string `json:"locales,omitempty"`
}

func (s *Server) handleBootstrap(resolved *bootstrap.ResolvedBootstrap) comms.MsgHandler {
	return func(msg *comms.Msg) {
		names := make([]string, 0, len(resolved.Libraries()))
		for _, lib := range resolved.Libraries() {
			names = append(names, lib.Namespace)
		}
		resp := bootstrapResponse{
			Name:          resolved.Name(),
			Version:       resolved.Version(),
			Libraries:     names,
			DefaultLocale: resolved.DefaultLocale(),
			Locales:       resolved.Locales(),
		}
		data, err := json.Marshal(resp)
		if err != nil {
			slog.Error(fmt.Sprintf("%s - bootstrap response encode: %v", logPrefix, err))
			msg.Respond([]byte(`{"libraries":[]}`))
			return
		}
		msg.Respond(data)
	}
}

// healthReport wraps the analyser's own HealthOutput with the two
// facts only the server knows: whether the mirror connection is alive,
// and when AnalyseClasses last completed without error.
type healthReport struct {
	*analyser.HealthOutput
	MirrorConfigured  bool   `json:"mirrorConfigured"`
	MirrorReachable   bool   `json:"mirrorReachable,omitempty"`
	LastAnalysisAt    string `json:"lastAnalysisAt,omitempty"`
	LastAnalysisError string `json:"lastAnalysisError,omitempty"`
}

func (s *Server) handleHealth() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		healthCtx, cancel := context.WithTimeout(r.Context(), s.cfg.HealthCheckTimeout)
		defer cancel()
		h := s.analyser.Health(healthCtx)

		report := &healthReport{HealthOutput: h, MirrorConfigured: s.pool != nil}
		if s.pool != nil {
			report.MirrorReachable = s.pool.Ping(healthCtx) == nil
			if !report.MirrorReachable {
				h.Status = "degraded"
			}
		}

		lastAt, lastErr := s.analysisSnapshot()
		if !lastAt.IsZero() {
			report.LastAnalysisAt = lastAt.UTC().Format(time.RFC3339)
		}
		if lastErr != nil {
			report.LastAnalysisError = lastErr.Error()
			h.Status = "degraded"
		}

		w.Header().Set("Content-Type", "application/json")
		if h.Status != "healthy" {
			w.WriteHeader(http.StatusServiceUnavailable)
		}
		json.NewEncoder(w).Encode(report)
	}
}
