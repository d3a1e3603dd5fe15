package db

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/morezero/classanalyser/pkg/classdb"
	"github.com/morezero/classanalyser/pkg/events"
	"github.com/morezero/classanalyser/pkg/meta"
)

const mirrorLogPrefix = "db:mirror"

// ClassInfoMirror implements events.EventPublisher so it can sit next
// to a CommsPublisher in an events.MultiPublisher: it only acts on
// PublishSaveDatabase, upserting one class_info row per class in the
// saved database. Mirroring is best-effort per spec §2 DOMAIN STACK
// ("never gates analyseClasses correctness") — a failed upsert is
// logged, not returned, so it cannot fail the saveDatabase call that
// carries it.
type ClassInfoMirror struct {
	Repo *Repository
}

func (m *ClassInfoMirror) PublishCompiling(_ context.Context, _ *events.CompilingClassEvent) error {
	return nil
}

func (m *ClassInfoMirror) PublishCompiled(_ context.Context, _ *events.CompiledClassEvent) error {
	return nil
}

func (m *ClassInfoMirror) PublishSaveDatabase(ctx context.Context, event *events.SaveDatabaseEvent) error {
	for className, raw := range event.Classes {
		info, ok := raw.(*classdb.ClassInfo)
		if !ok {
			continue
		}
		dependsOn, err := json.Marshal(info.DependsOn)
		if err != nil {
			slog.Warn(fmt.Sprintf("%s - failed to marshal dependsOn for %s: %v", mirrorLogPrefix, className, err))
			continue
		}
		row := ClassInfoRow{
			ClassName:         className,
			LibraryName:       info.LibraryName,
			Extends:           info.Extends,
			Implement:         info.Implement,
			Include:           info.Include,
			Mtime:             info.Mtime,
			DependsOn:         dependsOn,
			EnvironmentChecks: info.EnvironmentChecks,
		}
		if err := m.Repo.UpsertClassInfo(ctx, row); err != nil {
			slog.Warn(fmt.Sprintf("%s - failed to mirror class_info for %s: %v", mirrorLogPrefix, className, err))
		}
	}
	return nil
}

// UpsertMeta mirrors one class's merged meta.Meta into class_meta,
// satisfying pkg/analyser's MetaMirror interface structurally (no
// import of pkg/analyser here, avoiding a dependency cycle). Called
// after the Meta Merger produces or refreshes a class's meta; failures
// are the caller's to log, matching the best-effort contract
// ClassInfoMirror observes for class_info.
func (r *Repository) UpsertMeta(ctx context.Context, className string, m *meta.Meta) error {
	members, err := json.Marshal(m)
	if err != nil {
		return fmt.Errorf("%s - failed to marshal meta for %s: %w", mirrorLogPrefix, className, err)
	}
	row := ClassMetaRow{
		ClassName:   className,
		Type:        m.Type,
		SuperClass:  m.SuperClass,
		Interfaces:  m.Interfaces,
		Mixins:      m.Mixins,
		Descendants: m.Descendants,
		Abstract:    m.Abstract,
		MembersJSON: members,
	}
	return r.UpsertClassMeta(ctx, row)
}
