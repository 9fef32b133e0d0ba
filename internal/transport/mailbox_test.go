package transport

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/arloliu/halo/types"
)

func TestMailboxes_OfferNeverBlocks(t *testing.T) {
	m := newMailboxes(MinDepth)
	l := link{src: 1, dst: 0, tag: types.TagDisplay}

	for i := range 10 {
		m.offer(l, types.Message{Iteration: i})
	}
	require.Equal(t, 10, m.pending())

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()

	for i := range 10 {
		msg, err := m.take(ctx, nil, l)
		require.NoError(t, err)
		require.Equal(t, i, msg.Iteration)
	}
	require.Zero(t, m.pending())
}

func TestMailboxes_OfferKeepsOrderAcrossRefills(t *testing.T) {
	m := newMailboxes(MinDepth)
	l := link{src: 2, dst: 0, tag: types.TagUp}
	ctx := context.Background()

	next := 0
	for i := range 3 {
		m.offer(l, types.Message{Iteration: i})
	}
	msg, err := m.take(ctx, nil, l)
	require.NoError(t, err)
	require.Equal(t, next, msg.Iteration)
	next++

	for i := 3; i < 6; i++ {
		m.offer(l, types.Message{Iteration: i})
	}
	for ; next < 6; next++ {
		msg, err := m.take(ctx, nil, l)
		require.NoError(t, err)
		require.Equal(t, next, msg.Iteration)
	}
}

func TestMailboxes_TakeWaitsForOffer(t *testing.T) {
	m := newMailboxes(MinDepth)
	l := link{src: 0, dst: 1, tag: types.TagLeft}

	go func() {
		time.Sleep(10 * time.Millisecond)
		m.offer(l, types.Message{Iteration: 7})
	}()

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()

	msg, err := m.take(ctx, nil, l)
	require.NoError(t, err)
	require.Equal(t, 7, msg.Iteration)
}
