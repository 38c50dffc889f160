// Package pgxstore persists widget records in Postgres through pgx.
package pgxstore

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/goliatone/go-xplot/pkg/state"
)

// DefaultTable holds the widget records unless WithTable overrides it.
const DefaultTable = "xplot_widget_state"

// DB is the subset of *pgxpool.Pool, *pgx.Conn and pgx.Tx the store needs.
type DB interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// Option configures a Store.
type Option func(*Store)

// WithTable stores records in table instead of DefaultTable.
func WithTable(table string) Option {
	return func(s *Store) {
		if table = strings.TrimSpace(table); table != "" {
			s.table = table
		}
	}
}

// WithClock replaces the UpdatedAt source.
func WithClock(now func() time.Time) Option {
	return func(s *Store) {
		if now != nil {
			s.now = now
		}
	}
}

// Store implements state.Store[state.Record] on one Postgres table.
type Store struct {
	db    DB
	table string
	now   func() time.Time
}

var _ state.Store[state.Record] = (*Store)(nil)

// Open connects a pool to dsn and checks the first connection.
func Open(ctx context.Context, dsn string) (*pgxpool.Pool, error) {
	config, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		return nil, fmt.Errorf("pgxstore: parsing postgres dsn: %w", err)
	}
	pool, err := pgxpool.NewWithConfig(ctx, config)
	if err != nil {
		return nil, fmt.Errorf("pgxstore: creating connection pool: %w", err)
	}
	if _, err := pool.Exec(ctx, "SELECT 1"); err != nil {
		pool.Close()
		return nil, fmt.Errorf("pgxstore: opening first connection: %w", err)
	}
	return pool, nil
}

// New builds a store on db.
func New(db DB, opts ...Option) *Store {
	s := &Store{
		db:    db,
		table: DefaultTable,
		now:   func() time.Time { return time.Now().UTC() },
	}
	for _, opt := range opts {
		if opt != nil {
			opt(s)
		}
	}
	return s
}

func (s *Store) ident() string {
	return pgx.Identifier(strings.Split(s.table, ".")).Sanitize()
}

// EnsureSchema creates the record table when it does not exist.
func (s *Store) EnsureSchema(ctx context.Context) error {
	_, err := s.db.Exec(ctx, `CREATE TABLE IF NOT EXISTS `+s.ident()+` (
	notebook text NOT NULL,
	widget_id text NOT NULL,
	model_name text NOT NULL,
	model_module text NOT NULL DEFAULT '',
	model_module_version text NOT NULL DEFAULT '',
	state jsonb NOT NULL,
	snapshot_id text NOT NULL,
	etag text NOT NULL,
	extra jsonb NOT NULL DEFAULT '{}',
	updated_at timestamptz NOT NULL,
	PRIMARY KEY (notebook, widget_id)
)`)
	if err != nil {
		return fmt.Errorf("pgxstore: create table %s: %w", s.table, err)
	}
	return nil
}

func (s *Store) Load(ctx context.Context, ref state.Ref) (state.Record, state.Meta, bool, error) {
	if _, err := ref.Identifier(); err != nil {
		return state.Record{}, state.Meta{}, false, err
	}
	var (
		record state.Record
		meta   state.Meta
	)
	err := s.db.QueryRow(ctx, `SELECT model_name, model_module, model_module_version, state,
	snapshot_id, etag, extra, updated_at
FROM `+s.ident()+` WHERE notebook = $1 AND widget_id = $2`,
		ref.Notebook, ref.WidgetID,
	).Scan(
		&record.ModelName, &record.ModelModule, &record.ModelModuleVersion, &record.State,
		&meta.SnapshotID, &meta.ETag, &meta.Extra, &meta.UpdatedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return state.Record{}, state.Meta{}, false, nil
	}
	if err != nil {
		return state.Record{}, state.Meta{}, false, fmt.Errorf("pgxstore: load %s/%s: %w", ref.Notebook, ref.WidgetID, err)
	}
	if len(meta.Extra) == 0 {
		meta.Extra = nil
	}
	meta.UpdatedAt = meta.UpdatedAt.UTC()
	return record, meta, true, nil
}

// Save upserts record. A non-empty meta.ETag turns the write into a
// conditional update that fails with state.ErrETagMismatch when another
// writer got there first.
func (s *Store) Save(ctx context.Context, ref state.Ref, record state.Record, meta state.Meta) (state.Meta, error) {
	if _, err := ref.Identifier(); err != nil {
		return state.Meta{}, err
	}
	if err := record.Validate(); err != nil {
		return state.Meta{}, err
	}
	saved := meta
	if saved.SnapshotID == "" {
		saved.SnapshotID = uuid.NewString()
	}
	saved.ETag = uuid.NewString()
	saved.UpdatedAt = s.now()
	extra := saved.Extra
	if extra == nil {
		extra = map[string]string{}
	}
	stateValue := record.State
	if stateValue == nil {
		stateValue = map[string]any{}
	}
	args := []any{
		ref.Notebook, ref.WidgetID,
		record.ModelName, record.ModelModule, record.ModelModuleVersion, stateValue,
		saved.SnapshotID, saved.ETag, extra, saved.UpdatedAt,
	}

	if meta.ETag == "" {
		_, err := s.db.Exec(ctx, `INSERT INTO `+s.ident()+`
	(notebook, widget_id, model_name, model_module, model_module_version, state, snapshot_id, etag, extra, updated_at)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
ON CONFLICT (notebook, widget_id) DO UPDATE SET
	model_name = EXCLUDED.model_name,
	model_module = EXCLUDED.model_module,
	model_module_version = EXCLUDED.model_module_version,
	state = EXCLUDED.state,
	snapshot_id = EXCLUDED.snapshot_id,
	etag = EXCLUDED.etag,
	extra = EXCLUDED.extra,
	updated_at = EXCLUDED.updated_at`, args...)
		if err != nil {
			return state.Meta{}, fmt.Errorf("pgxstore: save %s/%s: %w", ref.Notebook, ref.WidgetID, err)
		}
		return saved, nil
	}

	tag, err := s.db.Exec(ctx, `UPDATE `+s.ident()+` SET
	model_name = $3, model_module = $4, model_module_version = $5, state = $6,
	snapshot_id = $7, etag = $8, extra = $9, updated_at = $10
WHERE notebook = $1 AND widget_id = $2 AND etag = $11`, append(args, meta.ETag)...)
	if err != nil {
		return state.Meta{}, fmt.Errorf("pgxstore: save %s/%s: %w", ref.Notebook, ref.WidgetID, err)
	}
	if tag.RowsAffected() == 1 {
		return saved, nil
	}

	tag, err = s.db.Exec(ctx, `INSERT INTO `+s.ident()+`
	(notebook, widget_id, model_name, model_module, model_module_version, state, snapshot_id, etag, extra, updated_at)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
ON CONFLICT (notebook, widget_id) DO NOTHING`, args...)
	if err != nil {
		return state.Meta{}, fmt.Errorf("pgxstore: save %s/%s: %w", ref.Notebook, ref.WidgetID, err)
	}
	if tag.RowsAffected() == 0 {
		return state.Meta{}, fmt.Errorf("%w: %s/%s expected %q", state.ErrETagMismatch, ref.Notebook, ref.WidgetID, meta.ETag)
	}
	return saved, nil
}

// List returns the refs stored for notebook ordered by widget id.
func (s *Store) List(ctx context.Context, notebook string) ([]state.Ref, error) {
	if notebook == "" {
		return nil, fmt.Errorf("state: notebook is required")
	}
	rows, err := s.db.Query(ctx, `SELECT widget_id FROM `+s.ident()+` WHERE notebook = $1 ORDER BY widget_id`, notebook)
	if err != nil {
		return nil, fmt.Errorf("pgxstore: list %s: %w", notebook, err)
	}
	ids, err := pgx.CollectRows(rows, pgx.RowTo[string])
	if err != nil {
		return nil, fmt.Errorf("pgxstore: list %s: %w", notebook, err)
	}
	refs := make([]state.Ref, 0, len(ids))
	for _, id := range ids {
		refs = append(refs, state.Ref{Notebook: notebook, WidgetID: id})
	}
	return refs, nil
}

func (s *Store) Delete(ctx context.Context, ref state.Ref) error {
	key, err := ref.Identifier()
	if err != nil {
		return err
	}
	tag, err := s.db.Exec(ctx, `DELETE FROM `+s.ident()+` WHERE notebook = $1 AND widget_id = $2`, ref.Notebook, ref.WidgetID)
	if err != nil {
		return fmt.Errorf("pgxstore: delete %s: %w", key, err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("%w: %s", state.ErrNotFound, key)
	}
	return nil
}

// WithTx runs f inside a transaction on pool and commits when f succeeds.
func WithTx(ctx context.Context, pool *pgxpool.Pool, f func(*Store) error, opts ...Option) error {
	tx, err := pool.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)
	if err := f(New(tx, opts...)); err != nil {
		return err
	}
	return tx.Commit(ctx)
}
