package repo

import (
	"context"
	"log/slog"

	"budgettool/src/core/domain"
	"budgettool/src/core/ports"
	"budgettool/src/infra/db"
)

var _ ports.BudgetRepository = (*PostgresRepository)(nil)

// ResultCache is an optional read-through cache for table listings.
type ResultCache interface {
	GetResult(ctx context.Context, key string) (*domain.QueryResult, bool, error)
	SetResult(ctx context.Context, key string, res *domain.QueryResult) error
}

// PostgresRepository implements BudgetRepository on top of a db.Pool.
//
// Queries run on the lease already attached to the request context when
// there is one; otherwise a lease is acquired for the single call.
type PostgresRepository struct {
	pool  *db.Pool
	cache ResultCache
	log   *slog.Logger
}

// NewPostgresRepository constructs a repository backed by Postgres. cache may be nil.
func NewPostgresRepository(pool *db.Pool, cache ResultCache, log *slog.Logger) *PostgresRepository {
	return &PostgresRepository{
		pool:  pool,
		cache: cache,
		log:   log,
	}
}

func (r *PostgresRepository) Health(ctx context.Context) error {
	return r.pool.Health(ctx)
}

// List returns SELECT * FROM table.
func (r *PostgresRepository) List(ctx context.Context, table domain.Table) (*domain.QueryResult, error) {
	if !table.Valid() {
		return nil, domain.NewNotFoundError("table " + string(table))
	}

	key := "table:" + string(table)
	if r.cache != nil {
		res, ok, err := r.cache.GetResult(ctx, key)
		if err != nil {
			r.log.Warn("cache read failed", "key", key, "error", err)
		} else if ok {
			return res, nil
		}
	}

	res, err := r.query(ctx, "SELECT * FROM "+string(table))
	if err != nil {
		return nil, err
	}

	if r.cache != nil {
		if err := r.cache.SetResult(ctx, key, res); err != nil {
			r.log.Warn("cache write failed", "key", key, "error", err)
		}
	}
	return res, nil
}

func (r *PostgresRepository) query(ctx context.Context, q string, args ...any) (*domain.QueryResult, error) {
	if l, ok := db.FromContext(ctx); ok {
		return db.Execute(ctx, l, q, args...)
	}

	var res *domain.QueryResult
	err := r.pool.WithLease(ctx, func(ctx context.Context, l *db.Lease) error {
		var err error
		res, err = db.Execute(ctx, l, q, args...)
		return err
	})
	return res, err
}
