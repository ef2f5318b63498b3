package arrowodbc

import (
	"context"
	"errors"

	"github.com/apache/arrow-go/v18/arrow"
	"golang.org/x/sync/errgroup"
)

// ConcurrentReader yields the same batches as the Reader it wraps, but
// fetches them on a background goroutine so the next batch is being
// filled while the caller processes the current one.
type ConcurrentReader struct {
	schema *arrow.Schema
	ch     chan arrow.Record
	g      *errgroup.Group
	cancel context.CancelFunc

	rec    arrow.Record
	err    error
	closed bool
}

// IntoConcurrent hands the reader over to a fetch goroutine. The
// caller must not touch r afterwards; the returned reader owns it and
// releases it when done. Cancelling ctx stops fetching.
func (r *Reader) IntoConcurrent(ctx context.Context) *ConcurrentReader {
	ctx, cancel := context.WithCancel(ctx)
	g, ctx := errgroup.WithContext(ctx)
	c := &ConcurrentReader{
		schema: r.Schema(),
		ch:     make(chan arrow.Record, 1),
		g:      g,
		cancel: cancel,
	}
	g.Go(func() error {
		defer close(c.ch)
		defer r.Release()
		for r.Next() {
			rec := r.Record()
			rec.Retain()
			select {
			case c.ch <- rec:
			case <-ctx.Done():
				rec.Release()
				return ctx.Err()
			}
		}
		return r.Err()
	})
	return c
}

// NewConcurrentReader builds a reader over cur and starts fetching
// immediately.
func NewConcurrentReader(ctx context.Context, cur Cursor, opts ...Option) (*ConcurrentReader, error) {
	r, err := NewReader(cur, opts...)
	if err != nil {
		return nil, err
	}
	return r.IntoConcurrent(ctx), nil
}

func (c *ConcurrentReader) Schema() *arrow.Schema { return c.schema }

// Next blocks until the fetch goroutine delivers the next batch.
func (c *ConcurrentReader) Next() bool {
	if c.rec != nil {
		c.rec.Release()
		c.rec = nil
	}
	if c.closed {
		return false
	}
	rec, ok := <-c.ch
	if !ok {
		c.closed = true
		c.err = c.g.Wait()
		return false
	}
	c.rec = rec
	return true
}

// Record returns the current batch, valid until the next call to Next
// or Release.
func (c *ConcurrentReader) Record() arrow.Record { return c.rec }

// Err returns the error that ended iteration, if any.
func (c *ConcurrentReader) Err() error {
	if errors.Is(c.err, context.Canceled) {
		return nil
	}
	return c.err
}

// Release stops the fetch goroutine and frees pending batches. It must
// be called once iteration is over.
func (c *ConcurrentReader) Release() {
	c.cancel()
	for rec := range c.ch {
		rec.Release()
	}
	if c.rec != nil {
		c.rec.Release()
		c.rec = nil
	}
	if !c.closed {
		c.closed = true
		c.err = c.g.Wait()
	}
}
