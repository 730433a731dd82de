package db

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"golang.org/x/sync/semaphore"

	"budgettool/src/core/domain"
	"budgettool/src/infra/config"
)

// ErrOptionsMismatch is returned by Manager.Open when a live pool for the same
// configuration was opened with different PoolOptions.
var ErrOptionsMismatch = errors.New("pool already open with different options")

// PoolOptions bounds a pool. All values must be positive and MaxSize >= MinSize.
type PoolOptions struct {
	MinSize         int
	MaxSize         int
	ConnectTimeout  time.Duration
	AcquireTimeout  time.Duration
	SSLMode         string
	ConnMaxLifetime time.Duration
}

// OptionsFromConfig maps the envconfig pool section onto PoolOptions.
func OptionsFromConfig(c config.PoolConfig) PoolOptions {
	return PoolOptions{
		MinSize:         c.MinConns,
		MaxSize:         c.MaxConns,
		ConnectTimeout:  c.ConnectTimeout,
		AcquireTimeout:  c.AcquireTimeout,
		SSLMode:         c.SSLMode,
		ConnMaxLifetime: c.ConnMaxLifetime,
	}
}

// Validate checks the pool bounds.
func (o PoolOptions) Validate() error {
	if o.MinSize <= 0 {
		return fmt.Errorf("min size must be positive, got %d", o.MinSize)
	}
	if o.MaxSize < o.MinSize {
		return fmt.Errorf("max size %d is below min size %d", o.MaxSize, o.MinSize)
	}
	if o.ConnectTimeout <= 0 {
		return errors.New("connect timeout must be positive")
	}
	if o.AcquireTimeout <= 0 {
		return errors.New("acquire timeout must be positive")
	}
	return nil
}

// Backend is the driver pool behind a Pool. Manager.Open backs pools with
// pgxpool.
type Backend interface {
	Acquire(ctx context.Context) (Conn, error)
	Ping(ctx context.Context) error
	Close()
}

// Conn is one driver connection checked out of a Backend.
type Conn interface {
	Querier() Querier
	Release()
}

type connectFunc func(ctx context.Context, cfg *pgxpool.Config) (Backend, error)

// Manager creates pools and remembers them so that each configuration gets
// at most one live pool per process.
type Manager struct {
	mu      sync.Mutex
	pools   map[string]*Pool
	log     *slog.Logger
	connect connectFunc
}

// NewManager creates a Manager backed by pgxpool.
func NewManager(log *slog.Logger) *Manager {
	return &Manager{
		pools:   make(map[string]*Pool),
		log:     log,
		connect: connectPgx,
	}
}

// Open returns the live pool for cfg, creating it if needed. Asking for a
// live pool with different options fails with ErrOptionsMismatch; close the
// existing pool first to rebuild it. Creation pings
// the database, so unreachable hosts and rejected credentials surface here
// as a *domain.PoolCreationError within opts.ConnectTimeout.
func (m *Manager) Open(ctx context.Context, cfg *config.PostgresConfig, opts PoolOptions) (*Pool, error) {
	if err := opts.Validate(); err != nil {
		return nil, fmt.Errorf("invalid pool options: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid postgres config: %w", err)
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	key := cfg.DSN(opts.SSLMode)
	if p, ok := m.pools[key]; ok && !p.Closed() {
		if p.opts != opts {
			return nil, fmt.Errorf("%w: %s has max_size=%d min_size=%d",
				ErrOptionsMismatch, cfg.Addr(), p.opts.MaxSize, p.opts.MinSize)
		}
		return p, nil
	}

	poolCfg, err := pgxpool.ParseConfig(key)
	if err != nil {
		return nil, &domain.PoolCreationError{Addr: cfg.Addr(), Err: err}
	}
	poolCfg.MinConns = int32(opts.MinSize)
	poolCfg.MaxConns = int32(opts.MaxSize)
	poolCfg.ConnConfig.ConnectTimeout = opts.ConnectTimeout
	if opts.ConnMaxLifetime > 0 {
		poolCfg.MaxConnLifetime = opts.ConnMaxLifetime
	}

	m.log.Info("creating postgres connection pool", "postgres", cfg,
		"min_size", opts.MinSize, "max_size", opts.MaxSize)

	connectCtx, cancel := context.WithTimeout(ctx, opts.ConnectTimeout)
	defer cancel()

	b, err := m.connect(connectCtx, poolCfg)
	if err != nil {
		return nil, &domain.PoolCreationError{Addr: cfg.Addr(), Err: err}
	}

	p := NewPool(b, opts, cfg.Addr(), m.log)
	p.onClose = func() { m.forget(key, p) }
	m.pools[key] = p

	m.log.Info("database connection established",
		"host", cfg.Host,
		"port", cfg.Port,
		"database", cfg.Database,
	)
	return p, nil
}

// CloseAll closes every pool the manager created, waiting as long as it
// takes for outstanding leases to come back.
func (m *Manager) CloseAll() {
	_ = m.Shutdown(context.Background())
}

// Shutdown closes every pool the manager created. It stops waiting for
// outstanding leases when ctx ends and returns ctx.Err(); the pools are
// already refusing new leases by then.
func (m *Manager) Shutdown(ctx context.Context) error {
	m.mu.Lock()
	pools := make([]*Pool, 0, len(m.pools))
	for _, p := range m.pools {
		pools = append(pools, p)
	}
	m.mu.Unlock()

	var errs []error
	for _, p := range pools {
		if err := p.CloseContext(ctx); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

func (m *Manager) forget(key string, p *Pool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.pools[key] == p {
		delete(m.pools, key)
	}
}

// Pool is a bounded PostgreSQL connection pool. It is safe for concurrent use.
type Pool struct {
	backend Backend
	opts    PoolOptions
	addr    string
	sem     *semaphore.Weighted
	log     *slog.Logger

	closeOnce sync.Once
	closed    atomic.Bool
	onClose   func()

	inUse    atomic.Int64
	acquired atomic.Int64
	released atomic.Int64
	timeouts atomic.Int64
}

// NewPool wraps an already connected backend. opts must pass Validate.
// Most callers want Manager.Open instead.
func NewPool(b Backend, opts PoolOptions, addr string, log *slog.Logger) *Pool {
	return &Pool{
		backend: b,
		opts:    opts,
		addr:    addr,
		sem:     semaphore.NewWeighted(int64(opts.MaxSize)),
		log:     log,
	}
}

// Options returns the bounds the pool was created with.
func (p *Pool) Options() PoolOptions {
	return p.opts
}

// Closed reports whether Close has been called.
func (p *Pool) Closed() bool {
	return p.closed.Load()
}

// Health pings the database.
func (p *Pool) Health(ctx context.Context) error {
	if p.Closed() {
		return domain.ErrPoolClosed
	}
	return p.backend.Ping(ctx)
}

// Close stops new acquisitions, waits for outstanding leases to be released
// and closes every connection. Calling Close more than once is a no-op.
func (p *Pool) Close() {
	p.closeOnce.Do(func() {
		p.closed.Store(true)
		p.log.Info("closing postgres connection pool", "addr", p.addr, "in_use", p.inUse.Load())
		p.backend.Close()
		if p.onClose != nil {
			p.onClose()
		}
		p.log.Info("database connection closed")
	})
}

// CloseContext is Close bounded by ctx. pgxpool waits for every acquired
// connection before closing, so a handler stuck on a lease would block
// shutdown forever. If ctx ends first the pool stays closed to new leases,
// the drain continues in the background and ctx.Err() is returned.
func (p *Pool) CloseContext(ctx context.Context) error {
	done := make(chan struct{})
	go func() {
		p.Close()
		close(done)
	}()

	select {
	case <-done:
		return nil
	case <-ctx.Done():
		p.log.Warn("gave up waiting for leases during pool close",
			"addr", p.addr, "in_use", p.inUse.Load())
		return fmt.Errorf("close pool %s: %w", p.addr, ctx.Err())
	}
}

// Stats is a snapshot of lease accounting.
type Stats struct {
	MinSize  int   `json:"min_size"`
	MaxSize  int   `json:"max_size"`
	InUse    int64 `json:"in_use"`
	Acquired int64 `json:"acquired"`
	Released int64 `json:"released"`
	Timeouts int64 `json:"timeouts"`
}

// Stats returns current lease counters.
func (p *Pool) Stats() Stats {
	return Stats{
		MinSize:  p.opts.MinSize,
		MaxSize:  p.opts.MaxSize,
		InUse:    p.inUse.Load(),
		Acquired: p.acquired.Load(),
		Released: p.released.Load(),
		Timeouts: p.timeouts.Load(),
	}
}

// pgx adapters

func connectPgx(ctx context.Context, cfg *pgxpool.Config) (Backend, error) {
	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to create connection pool: %w", err)
	}
	// NewWithConfig connects lazily; ping so bad hosts and credentials fail now.
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}
	return pgxBackend{pool: pool}, nil
}

type pgxBackend struct {
	pool *pgxpool.Pool
}

func (b pgxBackend) Acquire(ctx context.Context) (Conn, error) {
	c, err := b.pool.Acquire(ctx)
	if err != nil {
		return nil, err
	}
	return pgxConn{conn: c}, nil
}

func (b pgxBackend) Ping(ctx context.Context) error {
	return b.pool.Ping(ctx)
}

func (b pgxBackend) Close() {
	b.pool.Close()
}

type pgxConn struct {
	conn *pgxpool.Conn
}

func (c pgxConn) Querier() Querier {
	return c.conn.Conn()
}

func (c pgxConn) Release() {
	c.conn.Release()
}
