// Package db owns the PostgreSQL connection pool and everything that
// borrows from it.
//
// This package is responsible for:
//   - Creating the pool once at startup and closing it once at shutdown
//   - Bounding concurrent leases to the pool's maximum size
//   - Request-scoped leases that are released on every exit path
//   - Running statements into a normalized tabular result
//
// Example usage:
//
//	mgr := db.NewManager(log)
//	pool, err := mgr.Open(ctx, pgCfg, db.PoolOptions{MinSize: 1, MaxSize: 2, ...})
//	if err != nil {
//	    return err
//	}
//	defer pool.Close()
//
//	err = pool.WithLease(ctx, func(ctx context.Context, l *db.Lease) error {
//	    res, err := db.Execute(ctx, l, "SELECT * FROM accounts")
//	    ...
//	})
package db
