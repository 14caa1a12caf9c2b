// Package store persists postal-code tables into Postgres or SQLite.
package store

import (
	"context"
	"strings"
	"time"

	"github.com/rotisserie/eris"

	"github.com/sells-group/dawa-cli/internal/dawa"
)

// ErrLoad marks a failed (and rolled back) load. Check with eris.Is.
var ErrLoad = eris.New("load failed")

// loadError marks err as a failed load. The driver error stays reachable
// through errors.As.
type loadError struct {
	err error
}

func (e *loadError) Error() string { return ErrLoad.Error() + ": " + e.err.Error() }
func (e *loadError) Unwrap() error { return e.err }
func (e *loadError) Is(target error) bool { return target == ErrLoad }

// Mode selects how Load treats rows that already exist.
type Mode string

const (
	// ModeInsert inserts every row; any existing key fails the whole batch.
	ModeInsert Mode = "insert"
	// ModeUpsert updates existing rows and inserts new ones.
	ModeUpsert Mode = "upsert"
	// ModeReplace empties the three tables before inserting.
	ModeReplace Mode = "replace"
)

// DefaultRunsLimit is used by Runs when limit is not positive.
const DefaultRunsLimit = 20

// Modes lists the accepted load modes.
var Modes = []Mode{ModeInsert, ModeUpsert, ModeReplace}

// ParseMode converts a flag or config value into a Mode.
func ParseMode(s string) (Mode, error) {
	m := Mode(strings.ToLower(strings.TrimSpace(s)))
	if m == "" {
		return ModeInsert, nil
	}
	for _, known := range Modes {
		if m == known {
			return m, nil
		}
	}
	return "", eris.Errorf("store: unknown load mode %q (want insert, upsert or replace)", s)
}

// LoadResult reports what a committed Load wrote.
type LoadResult struct {
	RunID          int64
	Mode           Mode
	PostalCodes    int64
	Municipalities int64
	Links          int64
	StartedAt      time.Time
	CompletedAt    time.Time
}

// Run is a row of sync_log.
type Run struct {
	ID             int64     `json:"id" yaml:"id"`
	StartedAt      time.Time `json:"started_at" yaml:"started_at"`
	CompletedAt    time.Time `json:"completed_at" yaml:"completed_at"`
	Mode           Mode      `json:"mode" yaml:"mode"`
	PostalCodes    int64     `json:"postal_codes" yaml:"postal_codes"`
	Municipalities int64     `json:"municipalities" yaml:"municipalities"`
	Links          int64     `json:"links" yaml:"links"`
}

// Municipality is a stored municipality with the number of postal codes
// linked to it.
type Municipality struct {
	Code        string `json:"municipalitycode" yaml:"municipalitycode"`
	Name        string `json:"municipalityname" yaml:"municipalityname"`
	PostalCodes int    `json:"postal_codes" yaml:"postal_codes"`
}

// Store defines the persistence interface for the postal-code sync.
type Store interface {
	// Migrate creates the tables if they do not exist. It is idempotent.
	Migrate(ctx context.Context) error
	// Load writes all three row sets in one transaction and records the run
	// in sync_log. Nothing is committed when any statement fails.
	Load(ctx context.Context, tables *dawa.Tables, mode Mode) (*LoadResult, error)
	Municipalities(ctx context.Context) ([]Municipality, error)
	Runs(ctx context.Context, limit int) ([]Run, error)
	Close() error
}
