package dbtest

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"budgettool/src/infra/db"
)

// ErrNoQueries is returned by every statement run on a FakeBackend connection.
var ErrNoQueries = errors.New("dbtest: fake backend does not run queries")

// FakeBackend is an in-memory db.Backend. It hands out connections without a
// server and counts checkouts so tests can verify every lease came back.
type FakeBackend struct {
	Acquired atomic.Int64
	Released atomic.Int64
	Closed   atomic.Int64
}

func (b *FakeBackend) Acquire(ctx context.Context) (db.Conn, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	b.Acquired.Add(1)
	return &fakeConn{b: b}, nil
}

func (b *FakeBackend) Ping(ctx context.Context) error { return ctx.Err() }

func (b *FakeBackend) Close() { b.Closed.Add(1) }

// Outstanding is the number of connections checked out and not yet returned.
func (b *FakeBackend) Outstanding() int64 {
	return b.Acquired.Load() - b.Released.Load()
}

type fakeConn struct {
	b    *FakeBackend
	once sync.Once
}

func (c *fakeConn) Querier() db.Querier { return noQueries{} }

func (c *fakeConn) Release() {
	c.once.Do(func() { c.b.Released.Add(1) })
}

type noQueries struct{}

func (noQueries) Prepare(context.Context, string, string) (*pgconn.StatementDescription, error) {
	return nil, ErrNoQueries
}

func (noQueries) Query(context.Context, string, ...any) (pgx.Rows, error) {
	return nil, ErrNoQueries
}

// NewFakePool returns a real *db.Pool bounded to maxSize leases on top of a
// FakeBackend. The pool is closed when the test ends.
func NewFakePool(t *testing.T, maxSize int) (*db.Pool, *FakeBackend) {
	t.Helper()
	b := &FakeBackend{}
	p := db.NewPool(b, db.PoolOptions{
		MinSize:        1,
		MaxSize:        maxSize,
		ConnectTimeout: time.Second,
		AcquireTimeout: 200 * time.Millisecond,
	}, "fake:5432", slog.New(slog.DiscardHandler))
	t.Cleanup(p.Close)
	return p, b
}
