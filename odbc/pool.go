package odbc

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/jonboulle/clockwork"
	"go.uber.org/zap"
)

// poolConn is the slice of Conn the pool cares about.
type poolConn interface {
	Alive() bool
	Close() error
}

type dialFunc func(ctx context.Context) (poolConn, error)

// Pool keeps up to PoolSize connections and hands them out one
// goroutine at a time. Released connections that still pass the
// liveness probe go back on the idle list; dead ones are replaced on
// the next Acquire. Acquire blocks when the pool is exhausted, bounded
// by PoolAcquireTimeout.
type Pool struct {
	dial    dialFunc
	clock   clockwork.Clock
	timeout time.Duration
	log     *zap.Logger

	slots chan struct{}

	mu     sync.Mutex
	idle   []poolConn
	closed bool
}

// NewPool builds a pool dialing real connections from cfg. PoolSize
// must be positive; PoolAcquireTimeout of zero means Acquire blocks
// until the context is done.
func NewPool(e *Environment, cfg *Config) (*Pool, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if cfg.PoolSize < 1 {
		return nil, newKindError(InvalidConfig, "pool size must be positive")
	}
	dial := func(ctx context.Context) (poolConn, error) {
		return e.Connect(ctx, cfg)
	}
	return newPool(dial, cfg.PoolSize, time.Duration(cfg.PoolAcquireTimeout), cfg.logger(), clockwork.NewRealClock()), nil
}

func newPool(dial dialFunc, size int, timeout time.Duration, log *zap.Logger, clock clockwork.Clock) *Pool {
	p := &Pool{
		dial:    dial,
		timeout: timeout,
		log:     log,
		clock:   clock,
		slots:   make(chan struct{}, size),
	}
	for i := 0; i < size; i++ {
		p.slots <- struct{}{}
	}
	return p
}

// Acquire takes a connection from the pool, dialing a fresh one when
// no idle connection is available. Idle connections are probed before
// reuse; a dead one is discarded and replaced. Waiting is bounded by
// the pool's acquire timeout and by ctx.
func (p *Pool) Acquire(ctx context.Context) (*PooledConn, error) {
	var timeoutC <-chan time.Time
	if p.timeout > 0 {
		t := p.clock.NewTimer(p.timeout)
		defer t.Stop()
		timeoutC = t.Chan()
	}
	select {
	case <-p.slots:
	case <-ctx.Done():
		return nil, ctx.Err()
	case <-timeoutC:
		return nil, newKindError(PoolTimeout, "no connection available within %v", p.timeout)
	}

	conn, err := p.take(ctx)
	if err != nil {
		p.slots <- struct{}{}
		return nil, err
	}
	return &PooledConn{p: p, pc: conn}, nil
}

func (p *Pool) take(ctx context.Context) (poolConn, error) {
	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		return nil, errors.New("pool is closed")
	}
	var conn poolConn
	if len(p.idle) > 0 {
		conn = p.idle[0]
		p.idle = p.idle[1:]
	}
	p.mu.Unlock()

	if conn != nil {
		if conn.Alive() {
			return conn, nil
		}
		// stale idle connection, replace it
		p.log.Debug("discarding dead pooled connection")
		conn.Close()
	}
	return p.dial(ctx)
}

// release puts conn back, or closes it when it no longer passes the
// liveness probe, and frees the slot either way.
func (p *Pool) release(conn poolConn) {
	alive := conn.Alive()
	p.mu.Lock()
	if p.closed || !alive {
		p.mu.Unlock()
		conn.Close()
	} else {
		p.idle = append(p.idle, conn)
		p.mu.Unlock()
	}
	p.slots <- struct{}{}
}

// Idle reports how many released connections are parked in the pool.
func (p *Pool) Idle() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.idle)
}

// Close closes every idle connection and fails later Acquires.
// Connections checked out at the time of the call are closed as they
// are released. Close is idempotent.
func (p *Pool) Close() error {
	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		return nil
	}
	p.closed = true
	idle := p.idle
	p.idle = nil
	p.mu.Unlock()

	var err error
	for _, conn := range idle {
		if e := conn.Close(); e != nil && err == nil {
			err = e
		}
	}
	return err
}

// PooledConn is a checked-out pool connection. Release returns it to
// the pool; it must not be used afterwards.
type PooledConn struct {
	p        *Pool
	pc       poolConn
	mu       sync.Mutex
	released bool
}

// Conn returns the underlying connection.
func (c *PooledConn) Conn() *Conn {
	conn, _ := c.pc.(*Conn)
	return conn
}

// Release hands the connection back to the pool. Release is
// idempotent.
func (c *PooledConn) Release() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.released {
		return
	}
	c.released = true
	c.p.release(c.pc)
}
