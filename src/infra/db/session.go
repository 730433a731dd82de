package db

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"budgettool/src/core/domain"
)

// Querier is the part of a connection a lease exposes. *pgx.Conn satisfies it.
type Querier interface {
	Prepare(ctx context.Context, name, sql string) (*pgconn.StatementDescription, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
}

// Lease is one connection borrowed from a Pool. It belongs to the unit of
// work that acquired it and must not be shared with concurrent work.
type Lease struct {
	pool     *Pool
	conn     Conn
	released atomic.Bool
}

// Acquire borrows a connection. When all MaxSize connections are leased it
// waits up to the pool's AcquireTimeout and then fails with
// domain.ErrPoolTimeout. If ctx ends first, ctx.Err() is returned.
func (p *Pool) Acquire(ctx context.Context) (*Lease, error) {
	if p.Closed() {
		return nil, domain.ErrPoolClosed
	}

	waitCtx, cancel := context.WithTimeout(ctx, p.opts.AcquireTimeout)
	defer cancel()

	if err := p.sem.Acquire(waitCtx, 1); err != nil {
		return nil, p.acquireError(ctx, err)
	}
	if p.Closed() {
		p.sem.Release(1)
		return nil, domain.ErrPoolClosed
	}

	c, err := p.backend.Acquire(waitCtx)
	if err != nil {
		p.sem.Release(1)
		if p.Closed() {
			return nil, domain.ErrPoolClosed
		}
		return nil, p.acquireError(ctx, err)
	}

	p.inUse.Add(1)
	p.acquired.Add(1)
	return &Lease{pool: p, conn: c}, nil
}

func (p *Pool) acquireError(ctx context.Context, err error) error {
	if ctxErr := ctx.Err(); ctxErr != nil {
		return ctxErr
	}
	if errors.Is(err, context.DeadlineExceeded) {
		p.timeouts.Add(1)
		p.log.Warn("connection pool saturated", "max_size", p.opts.MaxSize, "waited", p.opts.AcquireTimeout)
		return fmt.Errorf("%w (max_size=%d, waited %s)", domain.ErrPoolTimeout, p.opts.MaxSize, p.opts.AcquireTimeout)
	}
	return fmt.Errorf("failed to acquire connection: %w", err)
}

// WithLease acquires a lease, runs fn with it and releases it when fn
// returns, errors, panics or its context is cancelled.
func (p *Pool) WithLease(ctx context.Context, fn func(ctx context.Context, l *Lease) error) error {
	l, err := p.Acquire(ctx)
	if err != nil {
		return err
	}
	defer l.Release()
	return fn(NewContext(ctx, l), l)
}

// Querier returns the leased connection.
func (l *Lease) Querier() Querier {
	return l.conn.Querier()
}

// Released reports whether the lease has been returned to the pool.
func (l *Lease) Released() bool {
	return l.released.Load()
}

// Release returns the connection to the pool. Only the first call has an effect.
func (l *Lease) Release() {
	if !l.released.CompareAndSwap(false, true) {
		return
	}
	l.conn.Release()
	l.pool.inUse.Add(-1)
	l.pool.released.Add(1)
	l.pool.sem.Release(1)
}

type leaseKey struct{}

// NewContext returns a copy of ctx carrying the lease.
func NewContext(ctx context.Context, l *Lease) context.Context {
	return context.WithValue(ctx, leaseKey{}, l)
}

// FromContext returns the lease stored in ctx, if any and still held.
func FromContext(ctx context.Context) (*Lease, bool) {
	l, ok := ctx.Value(leaseKey{}).(*Lease)
	if !ok || l.Released() {
		return nil, false
	}
	return l, true
}
