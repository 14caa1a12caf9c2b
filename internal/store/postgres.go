package store

import (
	"context"
	"embed"
	"io/fs"
	"sort"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/dawa-cli/internal/dawa"
	"github.com/sells-group/dawa-cli/internal/db"
)

//go:embed migrations/*.sql
var migrationFS embed.FS

// migrationLockID serializes concurrent Migrate calls against one database.
const migrationLockID = 8675309

// PostgresStore implements Store using pgxpool.
type PostgresStore struct {
	pool    db.Pool
	closeFn func()
}

// PoolConfig holds optional connection pool tuning parameters.
type PoolConfig struct {
	MaxConns int32 `yaml:"max_conns" mapstructure:"max_conns"`
	MinConns int32 `yaml:"min_conns" mapstructure:"min_conns"`
}

// NewPostgres creates a PostgresStore with a connection pool.
func NewPostgres(ctx context.Context, connString string, poolCfg *PoolConfig) (*PostgresStore, error) {
	pgxCfg, err := pgxpool.ParseConfig(connString)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: parse config")
	}

	maxConns := int32(4)
	minConns := int32(1)
	if poolCfg != nil {
		if poolCfg.MaxConns > 0 {
			maxConns = poolCfg.MaxConns
		}
		if poolCfg.MinConns > 0 {
			minConns = poolCfg.MinConns
		}
	}
	pgxCfg.MaxConns = maxConns
	pgxCfg.MinConns = minConns
	pgxCfg.MaxConnLifetime = 30 * time.Minute
	pgxCfg.MaxConnIdleTime = 5 * time.Minute

	pool, err := pgxpool.NewWithConfig(ctx, pgxCfg)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: create pool")
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, eris.Wrap(err, "postgres: ping")
	}
	return &PostgresStore{pool: pool, closeFn: pool.Close}, nil
}

// NewPostgresFromPool wraps an existing pool. Close does not close it.
func NewPostgresFromPool(pool db.Pool) *PostgresStore {
	return &PostgresStore{pool: pool}
}

// Migrate applies the embedded schema files in lexicographic order. Every
// file is written with IF NOT EXISTS, so re-running is a no-op. The files run
// in one transaction holding a transaction-scoped advisory lock, which is
// released on commit or rollback.
func (s *PostgresStore) Migrate(ctx context.Context) error {
	log := zap.L().With(zap.String("component", "store.postgres"))

	entries, err := fs.ReadDir(migrationFS, "migrations")
	if err != nil {
		return eris.Wrap(err, "postgres: read migration dir")
	}
	sort.Slice(entries, func(i, j int) bool {
		return entries[i].Name() < entries[j].Name()
	})

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return eris.Wrap(err, "postgres: begin migration")
	}
	defer tx.Rollback(ctx) //nolint:errcheck

	if _, err := tx.Exec(ctx, "SELECT pg_advisory_xact_lock($1)", migrationLockID); err != nil {
		return eris.Wrap(err, "postgres: acquire migration advisory lock")
	}

	for _, entry := range entries {
		name := entry.Name()
		data, err := migrationFS.ReadFile("migrations/" + name)
		if err != nil {
			return eris.Wrapf(err, "postgres: read migration %s", name)
		}
		if _, err := tx.Exec(ctx, string(data)); err != nil {
			return eris.Wrapf(err, "postgres: apply migration %s", name)
		}
		log.Debug("schema ensured", zap.String("file", name))
	}

	if err := tx.Commit(ctx); err != nil {
		return eris.Wrap(err, "postgres: commit migration")
	}
	return nil
}

// Load writes tables inside a single transaction. The deferred rollback
// undoes everything unless Commit is reached.
func (s *PostgresStore) Load(ctx context.Context, tables *dawa.Tables, mode Mode) (*LoadResult, error) {
	res, err := s.load(ctx, tables, mode)
	if err != nil {
		return nil, &loadError{err: err}
	}
	return res, nil
}

func (s *PostgresStore) load(ctx context.Context, tables *dawa.Tables, mode Mode) (*LoadResult, error) {
	log := zap.L().With(zap.String("component", "store.postgres"), zap.String("mode", string(mode)))
	res := &LoadResult{Mode: mode, StartedAt: time.Now().UTC()}

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: begin load")
	}
	defer tx.Rollback(ctx) //nolint:errcheck

	if mode == ModeReplace {
		for _, table := range deleteOrder {
			tag, err := tx.Exec(ctx, "DELETE FROM "+table)
			if err != nil {
				return nil, eris.Wrapf(err, "postgres: clear %s", table)
			}
			log.Debug("cleared table", zap.String("table", table), zap.Int64("rows", tag.RowsAffected()))
		}
	}

	counts := make([]int64, 0, 3)
	for _, t := range loadOrder(tables) {
		var n int64
		switch mode {
		case ModeUpsert:
			n, err = db.BulkUpsert(ctx, tx, db.UpsertConfig{
				Table:        t.name,
				Columns:      t.columns,
				ConflictKeys: t.keys,
			}, t.rows)
		case ModeInsert, ModeReplace:
			n, err = db.CopyFrom(ctx, tx, t.name, t.columns, t.rows)
		default:
			return nil, eris.Errorf("postgres: unknown load mode %q", mode)
		}
		if err != nil {
			return nil, eris.Wrapf(err, "postgres: load %s", t.name)
		}
		log.Debug("loaded table", zap.String("table", t.name), zap.Int64("rows", n))
		counts = append(counts, n)
	}
	res.PostalCodes, res.Municipalities, res.Links = counts[0], counts[1], counts[2]

	res.CompletedAt = time.Now().UTC()
	err = tx.QueryRow(ctx,
		`INSERT INTO sync_log (started_at, completed_at, mode, postal_codes, municipalities, links)
		 VALUES ($1, $2, $3, $4, $5, $6) RETURNING id`,
		res.StartedAt, res.CompletedAt, string(mode), res.PostalCodes, res.Municipalities, res.Links,
	).Scan(&res.RunID)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: record sync run")
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, eris.Wrap(err, "postgres: commit load")
	}
	return res, nil
}

// Municipalities lists stored municipalities with their postal-code counts.
func (s *PostgresStore) Municipalities(ctx context.Context) ([]Municipality, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT m.municipalitycode, m.municipalityname, COUNT(l.postalcode)
		 FROM municipality m
		 LEFT JOIN postalcode_to_municipality l ON l.municipalitycode = m.municipalitycode
		 GROUP BY m.municipalitycode, m.municipalityname
		 ORDER BY m.municipalitycode`,
	)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: list municipalities")
	}
	defer rows.Close()

	var out []Municipality
	for rows.Next() {
		var m Municipality
		if err := rows.Scan(&m.Code, &m.Name, &m.PostalCodes); err != nil {
			return nil, eris.Wrap(err, "postgres: scan municipality")
		}
		out = append(out, m)
	}
	return out, eris.Wrap(rows.Err(), "postgres: iterate municipalities")
}

// Runs returns the most recent sync_log rows, newest first.
func (s *PostgresStore) Runs(ctx context.Context, limit int) ([]Run, error) {
	if limit <= 0 {
		limit = DefaultRunsLimit
	}
	rows, err := s.pool.Query(ctx,
		`SELECT id, started_at, completed_at, mode, postal_codes, municipalities, links
		 FROM sync_log ORDER BY id DESC LIMIT $1`,
		limit,
	)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: list runs")
	}
	defer rows.Close()

	var out []Run
	for rows.Next() {
		var r Run
		var mode string
		if err := rows.Scan(&r.ID, &r.StartedAt, &r.CompletedAt, &mode, &r.PostalCodes, &r.Municipalities, &r.Links); err != nil {
			return nil, eris.Wrap(err, "postgres: scan run")
		}
		r.Mode = Mode(mode)
		out = append(out, r)
	}
	return out, eris.Wrap(rows.Err(), "postgres: iterate runs")
}

// Close releases the pool when the store owns it.
func (s *PostgresStore) Close() error {
	if s.closeFn != nil {
		s.closeFn()
	}
	return nil
}
