package db

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

const repoLogPrefix = "db:repository"

// Repository provides SQL-queryable access to the class database and
// merged meta mirror (spec §2 DOMAIN STACK "query mirror"). The JSON
// files under the configured DB path remain the source of truth; this
// is a best-effort, optional read surface over the same data.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository creates a new Repository with the given connection pool.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// =========================================================================
// CLASS INFO MIRROR
// =========================================================================

// UpsertClassInfo mirrors one classdb.ClassInfo row, called from the
// saveDatabase listener that drives the mirror (ClassInfoMirror, wired
// up by internal/server; pkg/classdb itself has no Postgres dependency).
func (r *Repository) UpsertClassInfo(ctx context.Context, row ClassInfoRow) error {
	slog.Debug(fmt.Sprintf("%s - UpsertClassInfo class=%s", repoLogPrefix, row.ClassName))

	now := time.Now().UTC()
	_, err := r.pool.Exec(ctx,
		`INSERT INTO class_info
		   (class_name, library_name, extends, implement, include, mtime, depends_on, environment_checks, modified)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		 ON CONFLICT (class_name) DO UPDATE SET
		   library_name = $2,
		   extends = $3,
		   implement = $4,
		   include = $5,
		   mtime = $6,
		   depends_on = $7,
		   environment_checks = $8,
		   modified = $9`,
		row.ClassName, row.LibraryName, row.Extends, row.Implement, row.Include,
		row.Mtime, row.DependsOn, row.EnvironmentChecks, now)
	if err != nil {
		return fmt.Errorf("%s - UpsertClassInfo failed: %w", repoLogPrefix, err)
	}
	return nil
}

// GetClassInfo finds a mirrored class_info row by name.
func (r *Repository) GetClassInfo(ctx context.Context, className string) (*ClassInfoRow, error) {
	row := r.pool.QueryRow(ctx,
		`SELECT class_name, library_name, extends, implement, include, mtime, depends_on, environment_checks, modified
		 FROM class_info
		 WHERE class_name = $1`, className)
	return scanClassInfo(row)
}

// ListExtending returns every class whose "extends" is superClassName,
// the mirror's answer to the query that otherwise requires scanning
// the full on-disk DB (spec §4.H's own full-scan, made SQL).
func (r *Repository) ListExtending(ctx context.Context, superClassName string) ([]ClassInfoRow, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT class_name, library_name, extends, implement, include, mtime, depends_on, environment_checks, modified
		 FROM class_info
		 WHERE extends = $1
		 ORDER BY class_name ASC`, superClassName)
	if err != nil {
		return nil, fmt.Errorf("%s - ListExtending failed: %w", repoLogPrefix, err)
	}
	defer rows.Close()

	var out []ClassInfoRow
	for rows.Next() {
		ci, err := scanClassInfoFromRows(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *ci)
	}
	return out, nil
}

// ListWithEnvironmentCheck returns every class whose environment_checks
// contains check (spec §4.I), e.g. "all classes checking qx.debug".
func (r *Repository) ListWithEnvironmentCheck(ctx context.Context, check string) ([]ClassInfoRow, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT class_name, library_name, extends, implement, include, mtime, depends_on, environment_checks, modified
		 FROM class_info
		 WHERE $1 = ANY(environment_checks)
		 ORDER BY class_name ASC`, check)
	if err != nil {
		return nil, fmt.Errorf("%s - ListWithEnvironmentCheck failed: %w", repoLogPrefix, err)
	}
	defer rows.Close()

	var out []ClassInfoRow
	for rows.Next() {
		ci, err := scanClassInfoFromRows(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *ci)
	}
	return out, nil
}

// =========================================================================
// CLASS META MIRROR
// =========================================================================

// UpsertClassMeta mirrors one class's merged meta.Meta, called after
// the Meta Merger produces or refreshes it (spec §4.G, §4.H).
func (r *Repository) UpsertClassMeta(ctx context.Context, row ClassMetaRow) error {
	slog.Debug(fmt.Sprintf("%s - UpsertClassMeta class=%s", repoLogPrefix, row.ClassName))

	now := time.Now().UTC()
	_, err := r.pool.Exec(ctx,
		`INSERT INTO class_meta
		   (class_name, type, super_class, interfaces, mixins, descendants, abstract, members, modified)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		 ON CONFLICT (class_name) DO UPDATE SET
		   type = $2,
		   super_class = $3,
		   interfaces = $4,
		   mixins = $5,
		   descendants = $6,
		   abstract = $7,
		   members = $8,
		   modified = $9`,
		row.ClassName, row.Type, row.SuperClass, row.Interfaces, row.Mixins,
		row.Descendants, row.Abstract, row.MembersJSON, now)
	if err != nil {
		return fmt.Errorf("%s - UpsertClassMeta failed: %w", repoLogPrefix, err)
	}
	return nil
}

// GetClassMeta finds a mirrored class_meta row by name.
func (r *Repository) GetClassMeta(ctx context.Context, className string) (*ClassMetaRow, error) {
	row := r.pool.QueryRow(ctx,
		`SELECT class_name, type, super_class, interfaces, mixins, descendants, abstract, members, modified
		 FROM class_meta
		 WHERE class_name = $1`, className)
	return scanClassMeta(row)
}

// ListAbstract returns every class currently marked abstract, a query
// spec §4.G's abstract-propagation makes meaningful ("which classes in
// this library still need a concrete subclass").
func (r *Repository) ListAbstract(ctx context.Context) ([]ClassMetaRow, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT class_name, type, super_class, interfaces, mixins, descendants, abstract, members, modified
		 FROM class_meta
		 WHERE abstract = true
		 ORDER BY class_name ASC`)
	if err != nil {
		return nil, fmt.Errorf("%s - ListAbstract failed: %w", repoLogPrefix, err)
	}
	defer rows.Close()

	var out []ClassMetaRow
	for rows.Next() {
		var m ClassMetaRow
		if err := rows.Scan(
			&m.ClassName, &m.Type, &m.SuperClass, &m.Interfaces, &m.Mixins,
			&m.Descendants, &m.Abstract, &m.MembersJSON, &m.Modified,
		); err != nil {
			return nil, fmt.Errorf("%s - ListAbstract scan failed: %w", repoLogPrefix, err)
		}
		out = append(out, m)
	}
	return out, nil
}

// =========================================================================
// SCAN HELPERS
// =========================================================================

func scanClassInfo(row pgx.Row) (*ClassInfoRow, error) {
	var ci ClassInfoRow
	err := row.Scan(
		&ci.ClassName, &ci.LibraryName, &ci.Extends, &ci.Implement, &ci.Include,
		&ci.Mtime, &ci.DependsOn, &ci.EnvironmentChecks, &ci.Modified,
	)
	if err == pgx.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("%s - scan class_info failed: %w", repoLogPrefix, err)
	}
	return &ci, nil
}

func scanClassInfoFromRows(rows pgx.Rows) (*ClassInfoRow, error) {
	var ci ClassInfoRow
	err := rows.Scan(
		&ci.ClassName, &ci.LibraryName, &ci.Extends, &ci.Implement, &ci.Include,
		&ci.Mtime, &ci.DependsOn, &ci.EnvironmentChecks, &ci.Modified,
	)
	if err != nil {
		return nil, fmt.Errorf("%s - scan class_info from rows failed: %w", repoLogPrefix, err)
	}
	return &ci, nil
}

func scanClassMeta(row pgx.Row) (*ClassMetaRow, error) {
	var m ClassMetaRow
	err := row.Scan(
		&m.ClassName, &m.Type, &m.SuperClass, &m.Interfaces, &m.Mixins,
		&m.Descendants, &m.Abstract, &m.MembersJSON, &m.Modified,
	)
	if err == pgx.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("%s - scan class_meta failed: %w", repoLogPrefix, err)
	}
	return &m, nil
}
