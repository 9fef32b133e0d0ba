package transport

import (
	"context"
	"fmt"
	"sync"

	"github.com/arloliu/halo/types"
)

// cyclicBarrier releases waiters in groups of size and resets for reuse.
type cyclicBarrier struct {
	mu      sync.Mutex
	size    int
	count   int
	release chan struct{}
}

func newCyclicBarrier(size int) *cyclicBarrier {
	return &cyclicBarrier{size: size, release: make(chan struct{})}
}

func (b *cyclicBarrier) wait(ctx context.Context, done <-chan struct{}) error {
	b.mu.Lock()
	release := b.release
	b.count++
	if b.count == b.size {
		b.count = 0
		b.release = make(chan struct{})
		b.mu.Unlock()
		close(release)

		return nil
	}
	b.mu.Unlock()

	select {
	case <-release:
		return nil
	case <-ctx.Done():
		return b.leave(release, fmt.Errorf("barrier: %w", ctx.Err()))
	case <-done:
		return b.leave(release, fmt.Errorf("barrier: %w", types.ErrTransportClosed))
	}
}

// leave withdraws an arrival from the generation identified by release.
// If that generation completed in the meantime the wait succeeded.
func (b *cyclicBarrier) leave(release chan struct{}, err error) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.release != release {
		return nil
	}
	b.count--

	return err
}
