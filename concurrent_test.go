package arrowodbc

import (
	"context"
	"errors"
	"testing"

	"github.com/apache/arrow-go/v18/arrow"
	"github.com/apache/arrow-go/v18/arrow/array"
	"github.com/stretchr/testify/require"
)

func TestConcurrentMatchesSequential(t *testing.T) {
	seq, err := NewReader(newTestCursor(), WithMaxBatchSize(2))
	require.NoError(t, err)
	defer seq.Release()

	var want []arrow.Record
	for seq.Next() {
		rec := seq.Record()
		rec.Retain()
		want = append(want, rec)
	}
	require.NoError(t, seq.Err())
	defer func() {
		for _, rec := range want {
			rec.Release()
		}
	}()

	cr, err := NewConcurrentReader(context.Background(), newTestCursor(), WithMaxBatchSize(2))
	require.NoError(t, err)
	defer cr.Release()

	i := 0
	for cr.Next() {
		require.Less(t, i, len(want))
		require.True(t, array.RecordEqual(want[i], cr.Record()),
			"batch %d differs", i)
		i++
	}
	require.NoError(t, cr.Err())
	require.Equal(t, len(want), i)
}

func TestConcurrentSchema(t *testing.T) {
	cr, err := NewConcurrentReader(context.Background(), newTestCursor())
	require.NoError(t, err)
	defer cr.Release()

	require.Equal(t, 3, cr.Schema().NumFields())
	require.Equal(t, "id", cr.Schema().Field(0).Name)
}

func TestConcurrentCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cr, err := NewConcurrentReader(ctx, newTestCursor(), WithMaxBatchSize(1))
	require.NoError(t, err)

	cancel()
	cr.Release()
	require.NoError(t, cr.Err())
}

func TestConcurrentPropagatesCursorError(t *testing.T) {
	cur := newTestCursor()
	fetchErr := errors.New("link down mid-fetch")
	cur.err = fetchErr

	cr, err := NewConcurrentReader(context.Background(), cur, WithMaxBatchSize(2))
	require.NoError(t, err)
	defer cr.Release()

	for cr.Next() {
	}
	require.ErrorIs(t, cr.Err(), fetchErr)
}
