// Package migrate applies embedded SQL migrations in lexical order and keeps
// a bookkeeping table of what already ran.
package migrate

import (
	"context"
	"database/sql"
	"fmt"
	"io/fs"
	"sort"
	"strings"
	"time"
)

const defaultTable = "schema_migrations"

// Manager executes SQL migration files read from an fs.FS.
type Manager struct {
	db     *sql.DB
	files  fs.FS
	table  string
	rebind func(string) string
}

// Option configures Manager.
type Option func(*Manager)

// WithTable overrides the default bookkeeping table name.
func WithTable(name string) Option {
	return func(m *Manager) {
		if name != "" {
			m.table = name
		}
	}
}

// WithRebind installs a placeholder rewriter for dialects that do not
// understand ? placeholders.
func WithRebind(fn func(string) string) Option {
	return func(m *Manager) {
		if fn != nil {
			m.rebind = fn
		}
	}
}

// NewManager constructs a Manager over the given migration filesystem. The
// filesystem is read from its root, so callers pass an fs.Sub of the dialect
// directory they want applied.
func NewManager(db *sql.DB, files fs.FS, opts ...Option) *Manager {
	m := &Manager{
		db:     db,
		files:  files,
		table:  defaultTable,
		rebind: func(q string) string { return q },
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Up applies all pending migrations.
func (m *Manager) Up(ctx context.Context) error {
	if err := m.ensureTable(ctx); err != nil {
		return err
	}
	applied, err := m.appliedSet(ctx)
	if err != nil {
		return err
	}
	names, err := m.collect()
	if err != nil {
		return err
	}
	for _, name := range names {
		if applied[name] {
			continue
		}
		body, err := fs.ReadFile(m.files, name)
		if err != nil {
			return fmt.Errorf("read migration %s: %w", name, err)
		}
		if _, err := m.db.ExecContext(ctx, string(body)); err != nil {
			return fmt.Errorf("apply migration %s: %w", name, err)
		}
		if err := m.record(ctx, name); err != nil {
			return err
		}
	}
	return nil
}

// Status returns applied migrations in the order they ran.
func (m *Manager) Status(ctx context.Context) ([]string, error) {
	if err := m.ensureTable(ctx); err != nil {
		return nil, err
	}
	rows, err := m.db.QueryContext(ctx, fmt.Sprintf(
		`SELECT version, applied_at FROM %s ORDER BY version`, m.table))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []string
	for rows.Next() {
		var version, appliedAt string
		if err := rows.Scan(&version, &appliedAt); err != nil {
			return nil, err
		}
		out = append(out, fmt.Sprintf("%s\t%s", version, appliedAt))
	}
	return out, rows.Err()
}

// Pending returns migration files that have not been applied yet.
func (m *Manager) Pending(ctx context.Context) ([]string, error) {
	if err := m.ensureTable(ctx); err != nil {
		return nil, err
	}
	applied, err := m.appliedSet(ctx)
	if err != nil {
		return nil, err
	}
	names, err := m.collect()
	if err != nil {
		return nil, err
	}
	var out []string
	for _, name := range names {
		if !applied[name] {
			out = append(out, name)
		}
	}
	return out, nil
}

func (m *Manager) ensureTable(ctx context.Context) error {
	_, err := m.db.ExecContext(ctx, fmt.Sprintf(`
		CREATE TABLE IF NOT EXISTS %s (
			version TEXT PRIMARY KEY,
			applied_at TEXT NOT NULL
		)`, m.table))
	if err != nil {
		return fmt.Errorf("create %s: %w", m.table, err)
	}
	return nil
}

func (m *Manager) appliedSet(ctx context.Context) (map[string]bool, error) {
	rows, err := m.db.QueryContext(ctx, fmt.Sprintf(`SELECT version FROM %s`, m.table))
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", m.table, err)
	}
	defer rows.Close()

	applied := make(map[string]bool)
	for rows.Next() {
		var v string
		if err := rows.Scan(&v); err != nil {
			return nil, err
		}
		applied[v] = true
	}
	return applied, rows.Err()
}

func (m *Manager) collect() ([]string, error) {
	var names []string
	err := fs.WalkDir(m.files, ".", func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() || !strings.HasSuffix(path, ".sql") {
			return nil
		}
		names = append(names, path)
		return nil
	})
	if err != nil {
		return nil, err
	}
	sort.Strings(names)
	return names, nil
}

func (m *Manager) record(ctx context.Context, name string) error {
	query := m.rebind(fmt.Sprintf(
		`INSERT INTO %s (version, applied_at) VALUES (?, ?)`, m.table))
	_, err := m.db.ExecContext(ctx, query, name,
		time.Now().UTC().Format(time.RFC3339Nano))
	return err
}
