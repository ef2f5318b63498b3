package odbc

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
	"go.uber.org/zap"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

type fakeConn struct {
	mu     sync.Mutex
	alive  bool
	closed bool
}

func (c *fakeConn) Alive() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.alive && !c.closed
}

func (c *fakeConn) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.closed = true
	return nil
}

func (c *fakeConn) kill() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.alive = false
}

type fakeDialer struct {
	mu    sync.Mutex
	conns []*fakeConn
	err   error
}

func (d *fakeDialer) dial(ctx context.Context) (poolConn, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.err != nil {
		return nil, d.err
	}
	c := &fakeConn{alive: true}
	d.conns = append(d.conns, c)
	return c, nil
}

func (d *fakeDialer) dials() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return len(d.conns)
}

func testPool(t *testing.T, size int, timeout time.Duration, clock clockwork.Clock) (*Pool, *fakeDialer) {
	t.Helper()
	d := &fakeDialer{}
	p := newPool(d.dial, size, timeout, zap.NewNop(), clock)
	t.Cleanup(func() { p.Close() })
	return p, d
}

func TestPoolReusesReleasedConn(t *testing.T) {
	p, d := testPool(t, 2, 0, clockwork.NewRealClock())

	ctx := context.Background()
	c1, err := p.Acquire(ctx)
	require.NoError(t, err)
	require.Equal(t, 1, d.dials())

	first := c1.pc
	c1.Release()
	require.Equal(t, 1, p.Idle())

	c2, err := p.Acquire(ctx)
	require.NoError(t, err)
	require.Same(t, first, c2.pc)
	require.Equal(t, 1, d.dials())
	c2.Release()
}

func TestPoolAcquireTimeout(t *testing.T) {
	clock := clockwork.NewFakeClock()
	p, _ := testPool(t, 1, 5*time.Second, clock)

	ctx := context.Background()
	held, err := p.Acquire(ctx)
	require.NoError(t, err)
	defer held.Release()

	errCh := make(chan error, 1)
	go func() {
		_, err := p.Acquire(ctx)
		errCh <- err
	}()
	// wait for the waiter to arm its timer before advancing time
	clock.BlockUntil(1)
	clock.Advance(5 * time.Second)

	err = <-errCh
	require.Error(t, err)
	require.True(t, IsKind(err, PoolTimeout))
}

func TestPoolAcquireContextCancelled(t *testing.T) {
	p, _ := testPool(t, 1, 0, clockwork.NewRealClock())

	held, err := p.Acquire(context.Background())
	require.NoError(t, err)
	defer held.Release()

	ctx, cancel := context.WithCancel(context.Background())
	errCh := make(chan error, 1)
	go func() {
		_, err := p.Acquire(ctx)
		errCh <- err
	}()
	cancel()
	require.ErrorIs(t, <-errCh, context.Canceled)
}

func TestPoolDiscardsDeadOnRelease(t *testing.T) {
	p, d := testPool(t, 1, 0, clockwork.NewRealClock())

	c, err := p.Acquire(context.Background())
	require.NoError(t, err)
	fc := c.pc.(*fakeConn)
	fc.kill()
	c.Release()

	require.Equal(t, 0, p.Idle())
	require.True(t, fc.closed)

	// the slot is free again, a fresh connection is dialed
	c2, err := p.Acquire(context.Background())
	require.NoError(t, err)
	require.Equal(t, 2, d.dials())
	c2.Release()
}

func TestPoolReplacesStaleIdleConn(t *testing.T) {
	p, d := testPool(t, 1, 0, clockwork.NewRealClock())

	c, err := p.Acquire(context.Background())
	require.NoError(t, err)
	fc := c.pc.(*fakeConn)
	c.Release()
	require.Equal(t, 1, p.Idle())

	// dies while parked in the pool
	fc.kill()

	c2, err := p.Acquire(context.Background())
	require.NoError(t, err)
	require.NotSame(t, fc, c2.pc)
	require.True(t, fc.closed)
	require.Equal(t, 2, d.dials())
	c2.Release()
}

func TestPoolDialErrorFreesSlot(t *testing.T) {
	p, d := testPool(t, 1, 0, clockwork.NewRealClock())
	dialErr := errors.New("dial failed")
	d.err = dialErr

	_, err := p.Acquire(context.Background())
	require.ErrorIs(t, err, dialErr)

	// the failed attempt must not leak its slot
	d.err = nil
	c, err := p.Acquire(context.Background())
	require.NoError(t, err)
	c.Release()
}

func TestPoolReleaseIdempotent(t *testing.T) {
	p, _ := testPool(t, 1, 0, clockwork.NewRealClock())

	c, err := p.Acquire(context.Background())
	require.NoError(t, err)
	c.Release()
	c.Release()
	require.Equal(t, 1, p.Idle())
}

func TestPoolClose(t *testing.T) {
	p, d := testPool(t, 2, 0, clockwork.NewRealClock())

	c, err := p.Acquire(context.Background())
	require.NoError(t, err)
	c.Release()
	require.Equal(t, 1, p.Idle())

	require.NoError(t, p.Close())
	require.True(t, d.conns[0].closed)

	_, err = p.Acquire(context.Background())
	require.Error(t, err)

	require.NoError(t, p.Close())
}

func TestPoolReleaseAfterClose(t *testing.T) {
	p, d := testPool(t, 1, 0, clockwork.NewRealClock())

	c, err := p.Acquire(context.Background())
	require.NoError(t, err)
	require.NoError(t, p.Close())

	// a connection checked out across Close is closed on release
	c.Release()
	require.True(t, d.conns[0].closed)
}
