// Package postalsync runs one fetch, transform and load cycle of the postal
// code register.
package postalsync

import (
	"context"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/dawa-cli/internal/dawa"
	"github.com/sells-group/dawa-cli/internal/store"
)

// Source yields validated postal-code records. *dawa.Client implements it.
type Source interface {
	PostalCodes(ctx context.Context) ([]dawa.PostalCodeRecord, error)
}

// Engine orchestrates a sync run.
type Engine struct {
	src   Source
	store store.Store
}

// RunOpts configures a single run.
type RunOpts struct {
	Mode   store.Mode
	DryRun bool // fetch and transform only; the store is not touched
}

// Result summarises a run.
type Result struct {
	Records          int
	Tables           *dawa.Tables
	Load             *store.LoadResult // nil for dry runs
	FetchElapsed     time.Duration
	TransformElapsed time.Duration
	LoadElapsed      time.Duration
}

// NewEngine creates a sync engine. st may be nil when only dry runs are made.
func NewEngine(src Source, st store.Store) *Engine {
	return &Engine{src: src, store: st}
}

// Run fetches the register, derives the three tables and loads them. The
// store is only migrated and written after fetch and transform succeed, so a
// failed download leaves the database untouched.
func (e *Engine) Run(ctx context.Context, opts RunOpts) (*Result, error) {
	log := zap.L().With(zap.String("component", "postalsync.engine"))

	mode := opts.Mode
	if mode == "" {
		mode = store.ModeInsert
	}
	if !opts.DryRun && e.store == nil {
		return nil, eris.New("engine: no store configured")
	}

	res := &Result{}

	start := time.Now()
	records, err := e.src.PostalCodes(ctx)
	res.FetchElapsed = time.Since(start)
	if err != nil {
		log.Error("fetch failed", zap.Error(err), zap.Duration("elapsed", res.FetchElapsed))
		return nil, eris.Wrap(err, "engine: fetch")
	}
	res.Records = len(records)
	log.Info("fetched records", zap.Int("records", res.Records), zap.Duration("elapsed", res.FetchElapsed))

	start = time.Now()
	tables, err := dawa.Transform(records)
	res.TransformElapsed = time.Since(start)
	if err != nil {
		return nil, eris.Wrap(err, "engine: transform")
	}
	res.Tables = tables
	log.Info("transformed records",
		zap.Int("postal_codes", len(tables.PostalCodes)),
		zap.Int("municipalities", len(tables.Municipalities)),
		zap.Int("links", len(tables.Links)),
	)

	if opts.DryRun {
		log.Info("dry run, skipping load")
		return res, nil
	}

	if err := ctx.Err(); err != nil {
		return nil, eris.Wrap(err, "engine: cancelled before load")
	}

	start = time.Now()
	if err := e.store.Migrate(ctx); err != nil {
		return nil, eris.Wrap(err, "engine: ensure schema")
	}
	loaded, err := e.store.Load(ctx, tables, mode)
	res.LoadElapsed = time.Since(start)
	if err != nil {
		log.Error("load failed, transaction rolled back", zap.Error(err), zap.String("mode", string(mode)))
		return nil, eris.Wrap(err, "engine: load")
	}
	res.Load = loaded

	log.Info("sync complete",
		zap.Int64("run_id", loaded.RunID),
		zap.String("mode", string(mode)),
		zap.Int64("postal_codes", loaded.PostalCodes),
		zap.Int64("municipalities", loaded.Municipalities),
		zap.Int64("links", loaded.Links),
		zap.Duration("elapsed", res.FetchElapsed+res.TransformElapsed+res.LoadElapsed),
	)
	return res, nil
}
