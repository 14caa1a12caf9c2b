package store

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"
	_ "modernc.org/sqlite"

	"github.com/sells-group/dawa-cli/internal/dawa"
)

// SQLiteStore implements Store using modernc.org/sqlite.
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLite opens a SQLite database at the given path, enables foreign keys
// and configures WAL mode.
func NewSQLite(dsn string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: open")
	}
	// Pragmas are per connection.
	db.SetMaxOpenConns(1)
	for _, pragma := range []string{
		"PRAGMA foreign_keys=ON",
		"PRAGMA journal_mode=WAL",
		"PRAGMA busy_timeout=5000",
		"PRAGMA synchronous=NORMAL",
	} {
		if _, err := db.Exec(pragma); err != nil {
			db.Close()
			return nil, eris.Wrapf(err, "sqlite: exec %s", pragma)
		}
	}
	return &SQLiteStore{db: db}, nil
}

const sqliteMigration = `
CREATE TABLE IF NOT EXISTS postalcode (
	postalcode        INTEGER PRIMARY KEY,
	name              TEXT NOT NULL,
	longitude         REAL NOT NULL,
	latitude          REAL NOT NULL,
	longitude_start   REAL NOT NULL,
	latitude_start    REAL NOT NULL,
	longitude_end     REAL NOT NULL,
	latitude_end      REAL NOT NULL,
	modified_date     DATETIME NOT NULL,
	geo_modified_date DATETIME NOT NULL,
	geo_version       INTEGER NOT NULL,
	dagi_id           TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS municipality (
	municipalitycode TEXT PRIMARY KEY,
	municipalityname TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS postalcode_to_municipality (
	postalcode       INTEGER NOT NULL REFERENCES postalcode(postalcode),
	municipalitycode TEXT NOT NULL REFERENCES municipality(municipalitycode),
	PRIMARY KEY (postalcode, municipalitycode)
);

CREATE INDEX IF NOT EXISTS idx_postalcode_to_municipality_code ON postalcode_to_municipality(municipalitycode);

CREATE TABLE IF NOT EXISTS sync_log (
	id             INTEGER PRIMARY KEY AUTOINCREMENT,
	started_at     DATETIME NOT NULL,
	completed_at   DATETIME NOT NULL DEFAULT (datetime('now')),
	mode           TEXT NOT NULL,
	postal_codes   INTEGER NOT NULL DEFAULT 0,
	municipalities INTEGER NOT NULL DEFAULT 0,
	links          INTEGER NOT NULL DEFAULT 0
);
`

func (s *SQLiteStore) Migrate(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, sqliteMigration)
	return eris.Wrap(err, "sqlite: migrate")
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

func (s *SQLiteStore) Load(ctx context.Context, tables *dawa.Tables, mode Mode) (*LoadResult, error) {
	res, err := s.load(ctx, tables, mode)
	if err != nil {
		return nil, &loadError{err: err}
	}
	return res, nil
}

func (s *SQLiteStore) load(ctx context.Context, tables *dawa.Tables, mode Mode) (*LoadResult, error) {
	log := zap.L().With(zap.String("component", "store.sqlite"), zap.String("mode", string(mode)))
	res := &LoadResult{Mode: mode, StartedAt: time.Now().UTC()}

	switch mode {
	case ModeInsert, ModeUpsert, ModeReplace:
	default:
		return nil, eris.Errorf("sqlite: unknown load mode %q", mode)
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: begin load")
	}
	defer tx.Rollback() //nolint:errcheck

	if mode == ModeReplace {
		for _, table := range deleteOrder {
			if _, err := tx.ExecContext(ctx, "DELETE FROM "+table); err != nil {
				return nil, eris.Wrapf(err, "sqlite: clear %s", table)
			}
		}
	}

	counts := make([]int64, 0, 3)
	for _, t := range loadOrder(tables) {
		n, err := insertRows(ctx, tx, t, mode)
		if err != nil {
			return nil, err
		}
		log.Debug("loaded table", zap.String("table", t.name), zap.Int64("rows", n))
		counts = append(counts, n)
	}
	res.PostalCodes, res.Municipalities, res.Links = counts[0], counts[1], counts[2]

	res.CompletedAt = time.Now().UTC()
	r, err := tx.ExecContext(ctx,
		`INSERT INTO sync_log (started_at, completed_at, mode, postal_codes, municipalities, links)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		res.StartedAt, res.CompletedAt, string(mode), res.PostalCodes, res.Municipalities, res.Links,
	)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: record sync run")
	}
	if res.RunID, err = r.LastInsertId(); err != nil {
		return nil, eris.Wrap(err, "sqlite: sync run id")
	}

	if err := tx.Commit(); err != nil {
		return nil, eris.Wrap(err, "sqlite: commit load")
	}
	return res, nil
}

func insertRows(ctx context.Context, tx *sql.Tx, t tableSpec, mode Mode) (int64, error) {
	if len(t.rows) == 0 {
		return 0, nil
	}
	stmt, err := tx.PrepareContext(ctx, sqliteInsertSQL(t, mode))
	if err != nil {
		return 0, eris.Wrapf(err, "sqlite: prepare insert %s", t.name)
	}
	defer stmt.Close()

	var total int64
	for i, row := range t.rows {
		r, err := stmt.ExecContext(ctx, row...)
		if err != nil {
			return 0, eris.Wrapf(err, "sqlite: insert %s row %d", t.name, i)
		}
		n, err := r.RowsAffected()
		if err != nil {
			return 0, eris.Wrapf(err, "sqlite: rows affected %s", t.name)
		}
		total += n
	}
	return total, nil
}

// sqliteInsertSQL builds the per-row statement for t. Upserts update every
// non-key column; tables made only of keys skip conflicts.
func sqliteInsertSQL(t tableSpec, mode Mode) string {
	placeholders := strings.TrimSuffix(strings.Repeat("?, ", len(t.columns)), ", ")
	q := fmt.Sprintf("INSERT INTO %s (%s) VALUES (%s)", t.name, strings.Join(t.columns, ", "), placeholders)
	if mode != ModeUpsert {
		return q
	}

	keys := make(map[string]bool, len(t.keys))
	for _, k := range t.keys {
		keys[k] = true
	}
	var sets []string
	for _, c := range t.columns {
		if !keys[c] {
			sets = append(sets, fmt.Sprintf("%s = excluded.%s", c, c))
		}
	}
	if len(sets) == 0 {
		return q + fmt.Sprintf(" ON CONFLICT (%s) DO NOTHING", strings.Join(t.keys, ", "))
	}
	return q + fmt.Sprintf(" ON CONFLICT (%s) DO UPDATE SET %s", strings.Join(t.keys, ", "), strings.Join(sets, ", "))
}

func (s *SQLiteStore) Municipalities(ctx context.Context) ([]Municipality, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT m.municipalitycode, m.municipalityname, COUNT(l.postalcode)
		 FROM municipality m
		 LEFT JOIN postalcode_to_municipality l ON l.municipalitycode = m.municipalitycode
		 GROUP BY m.municipalitycode, m.municipalityname
		 ORDER BY m.municipalitycode`,
	)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: list municipalities")
	}
	defer rows.Close()

	var out []Municipality
	for rows.Next() {
		var m Municipality
		if err := rows.Scan(&m.Code, &m.Name, &m.PostalCodes); err != nil {
			return nil, eris.Wrap(err, "sqlite: scan municipality")
		}
		out = append(out, m)
	}
	return out, eris.Wrap(rows.Err(), "sqlite: iterate municipalities")
}

func (s *SQLiteStore) Runs(ctx context.Context, limit int) ([]Run, error) {
	if limit <= 0 {
		limit = DefaultRunsLimit
	}
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, started_at, completed_at, mode, postal_codes, municipalities, links
		 FROM sync_log ORDER BY id DESC LIMIT ?`,
		limit,
	)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: list runs")
	}
	defer rows.Close()

	var out []Run
	for rows.Next() {
		var r Run
		var mode string
		if err := rows.Scan(&r.ID, &r.StartedAt, &r.CompletedAt, &mode, &r.PostalCodes, &r.Municipalities, &r.Links); err != nil {
			return nil, eris.Wrap(err, "sqlite: scan run")
		}
		r.Mode = Mode(mode)
		out = append(out, r)
	}
	return out, eris.Wrap(rows.Err(), "sqlite: iterate runs")
}
