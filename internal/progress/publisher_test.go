package progress

import (
	"sync/atomic"
	"testing"
	"time"

	"github.com/nats-io/nats.go/jetstream"
	"github.com/stretchr/testify/require"

	halotest "github.com/arloliu/halo/testing"
)

func TestKey(t *testing.T) {
	require.Equal(t, "abc.progress.3", Key("abc", 3))
}

func TestPublisher(t *testing.T) {
	t.Run("publishes and follows the counter", func(t *testing.T) {
		ctx := t.Context()
		_, nc := halotest.StartEmbeddedNATS(t)
		kv := halotest.CreateJetStreamKV(t, nc, "progress-follow", 0)

		var iteration atomic.Int64
		iteration.Store(2)
		pub := New(kv, Key("run", 0), 20*time.Millisecond, func() int { return int(iteration.Load()) }, halotest.NewTestLogger(t))

		require.NoError(t, pub.Start(ctx))

		got, err := Read(ctx, kv, Key("run", 0))
		require.NoError(t, err)
		require.Equal(t, 2, got)

		iteration.Store(7)
		require.Eventually(t, func() bool {
			got, err := Read(ctx, kv, Key("run", 0))
			return err == nil && got == 7
		}, 2*time.Second, 10*time.Millisecond)

		require.NoError(t, pub.Stop())

		_, err = kv.Get(ctx, Key("run", 0))
		require.ErrorIs(t, err, jetstream.ErrKeyNotFound)
	})

	t.Run("rejects double start", func(t *testing.T) {
		_, nc := halotest.StartEmbeddedNATS(t)
		kv := halotest.CreateJetStreamKV(t, nc, "progress-double", 0)

		pub := New(kv, Key("run", 1), time.Second, func() int { return 0 }, nil)
		require.NoError(t, pub.Start(t.Context()))
		require.ErrorIs(t, pub.Start(t.Context()), ErrAlreadyStarted)
		require.NoError(t, pub.Stop())
	})

	t.Run("stop before start", func(t *testing.T) {
		_, nc := halotest.StartEmbeddedNATS(t)
		kv := halotest.CreateJetStreamKV(t, nc, "progress-stop", 0)

		pub := New(kv, Key("run", 2), time.Second, func() int { return 0 }, nil)
		require.ErrorIs(t, pub.Stop(), ErrNotStarted)
	})
}
