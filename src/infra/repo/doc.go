// Package repo contains the PostgreSQL implementation of the repository ports
// defined in src/core/ports.
//
// Repositories receive the db.Pool via constructor injection. A query runs on
// the lease found in the request context (see db.NewContext) and acquires
// its own lease only when there is none, so an HTTP request never holds more
// than one connection:
//
//	r := repo.NewPostgresRepository(pool, nil, log)
//	res, err := r.List(ctx, domain.TableAccounts)
package repo
