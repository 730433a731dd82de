package db

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.DiscardHandler)
}

// fakeBackend counts checkouts and returns a fixed querier.
type fakeBackend struct {
	querier  Querier
	pingErr  error
	acquired atomic.Int64
	released atomic.Int64
	closed   atomic.Int64

	// closeGate, when set, makes Close block until it is closed,
	// like pgxpool waiting for acquired connections.
	closeGate chan struct{}
}

func (b *fakeBackend) Acquire(ctx context.Context) (Conn, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	b.acquired.Add(1)
	return &fakeConn{b: b}, nil
}

func (b *fakeBackend) Ping(context.Context) error { return b.pingErr }

func (b *fakeBackend) Close() {
	b.closed.Add(1)
	if b.closeGate != nil {
		<-b.closeGate
	}
}

type fakeConn struct {
	b    *fakeBackend
	once sync.Once
}

func (c *fakeConn) Querier() Querier { return c.b.querier }

func (c *fakeConn) Release() {
	c.once.Do(func() { c.b.released.Add(1) })
}

func testOptions(maxSize int) PoolOptions {
	return PoolOptions{
		MinSize:        1,
		MaxSize:        maxSize,
		ConnectTimeout: time.Second,
		AcquireTimeout: 200 * time.Millisecond,
	}
}

func newTestPool(maxSize int) (*Pool, *fakeBackend) {
	b := &fakeBackend{}
	return NewPool(b, testOptions(maxSize), "test:5432", discardLogger()), b
}

func fakeConnect(b Backend, err error) connectFunc {
	return func(context.Context, *pgxpool.Config) (Backend, error) {
		if err != nil {
			return nil, err
		}
		return b, nil
	}
}

// fakeQuerier serves one canned statement.
type fakeQuerier struct {
	fields     []pgconn.FieldDescription
	rows       [][]any
	prepareErr error
	queryErr   error
	rowsErr    error
	prepared   []string
}

func (q *fakeQuerier) Prepare(_ context.Context, name, _ string) (*pgconn.StatementDescription, error) {
	q.prepared = append(q.prepared, name)
	if q.prepareErr != nil {
		return nil, q.prepareErr
	}
	return &pgconn.StatementDescription{Name: name, Fields: q.fields}, nil
}

func (q *fakeQuerier) Query(context.Context, string, ...any) (pgx.Rows, error) {
	if q.queryErr != nil {
		return nil, q.queryErr
	}
	return &fakeRows{fields: q.fields, rows: q.rows, err: q.rowsErr, idx: -1}, nil
}

type fakeRows struct {
	fields []pgconn.FieldDescription
	rows   [][]any
	err    error
	idx    int
	closed bool
}

func (r *fakeRows) Close()                                       { r.closed = true }
func (r *fakeRows) Err() error                                   { return r.err }
func (r *fakeRows) CommandTag() pgconn.CommandTag                { return pgconn.CommandTag{} }
func (r *fakeRows) FieldDescriptions() []pgconn.FieldDescription { return r.fields }
func (r *fakeRows) RawValues() [][]byte                          { return nil }
func (r *fakeRows) Conn() *pgx.Conn                              { return nil }

func (r *fakeRows) Next() bool {
	if r.closed || r.idx+1 >= len(r.rows) {
		r.closed = true
		return false
	}
	r.idx++
	return true
}

func (r *fakeRows) Values() ([]any, error) {
	if r.idx < 0 || r.idx >= len(r.rows) {
		return nil, errors.New("no current row")
	}
	return r.rows[r.idx], nil
}

func (r *fakeRows) Scan(...any) error {
	return errors.New("not implemented")
}
