// Package rankclaim assigns ranks to independently started worker processes.
//
// Each process claims the lowest free rank of a run from a JetStream KV
// bucket, holds it with a TTL lease renewed in the background, and deletes it
// on Release. Keys are "<runToken>.rank.<n>".
package rankclaim

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"sync"
	"time"

	"github.com/arloliu/halo/internal/logging"
	"github.com/arloliu/halo/types"
	"github.com/nats-io/nats.go/jetstream"
)

// Common errors returned by the claimer.
var (
	ErrNotClaimed    = errors.New("rank not claimed")
	ErrAlreadyClosed = errors.New("claimer already closed")
)

// noRank marks an unclaimed claimer.
const noRank = -1

// Claimer claims and renews one rank of a run.
type Claimer struct {
	kv    jetstream.KeyValue
	token string
	size  int
	ttl   time.Duration

	mu      sync.Mutex
	rank    int
	stopCh  chan struct{}
	doneCh  chan struct{}
	started bool
	closed  bool

	logger types.Logger
}

// NewClaimer creates a claimer for ranks [0, size) of the run identified by token.
//
// Parameters:
//   - kv: KV bucket holding rank leases (its TTL should match ttl)
//   - token: Run token, see transport.RunToken
//   - size: Number of ranks in the run
//   - ttl: Lease TTL; renewals happen every ttl/3
//   - logger: Logger for debug output (nil for no-op)
//
// Example:
//
//	claimer := rankclaim.NewClaimer(kv, transport.RunToken("heat"), 4, 30*time.Second, logger)
//	rank, err := claimer.Claim(ctx)
func NewClaimer(kv jetstream.KeyValue, token string, size int, ttl time.Duration, logger types.Logger) *Claimer {
	if logger == nil {
		logger = logging.NewNop()
	}

	return &Claimer{
		kv:     kv,
		token:  token,
		size:   size,
		ttl:    ttl,
		rank:   noRank,
		stopCh: make(chan struct{}),
		doneCh: make(chan struct{}),
		logger: logger,
	}
}

// Claim takes the lowest free rank.
//
// Ranks are tried in order with KV Create, which fails with ErrKeyExists when
// another process holds the lease.
//
// Returns:
//   - int: Claimed rank
//   - error: types.ErrNoAvailableRank when all ranks are held, context error, or NATS error
func (c *Claimer) Claim(ctx context.Context) (int, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return noRank, ErrAlreadyClosed
	}
	if c.rank != noRank {
		return c.rank, nil
	}

	for rank := range c.size {
		if err := ctx.Err(); err != nil {
			return noRank, err
		}

		key := c.key(rank)
		revision, err := c.kv.Create(ctx, key, c.leaseValue())
		if err == nil {
			c.rank = rank
			c.logger.Info("rank claimed", "rank", rank, "key", key, "revision", revision)

			return rank, nil
		}
		if !errors.Is(err, jetstream.ErrKeyExists) {
			c.logger.Error("rank claim failed", "rank", rank, "error", err)
			return noRank, fmt.Errorf("failed to claim rank %d: %w", rank, err)
		}

		c.logger.Debug("rank already claimed, trying next", "rank", rank)
	}

	return noRank, fmt.Errorf("%w: all %d ranks held", types.ErrNoAvailableRank, c.size)
}

// StartRenewal renews the lease every ttl/3 until Release or Close.
//
// ctx bounds individual renewals; cancelling it also ends the loop.
func (c *Claimer) StartRenewal(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return ErrAlreadyClosed
	}
	if c.rank == noRank {
		return ErrNotClaimed
	}
	if c.started {
		return nil
	}
	c.started = true

	go c.renewalLoop(ctx, c.rank)

	return nil
}

func (c *Claimer) renewalLoop(ctx context.Context, rank int) {
	defer close(c.doneCh)

	interval := c.ttl / 3
	if interval <= 0 {
		interval = time.Second
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-c.stopCh:
			return
		case <-ticker.C:
			if _, err := c.kv.Put(ctx, c.key(rank), c.leaseValue()); err != nil {
				c.logger.Warn("rank lease renewal failed", "rank", rank, "error", err)
			}
		}
	}
}

// Release stops renewal and deletes the lease so the rank can be reused.
func (c *Claimer) Release(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.rank == noRank {
		return ErrNotClaimed
	}

	c.stopLocked(ctx)

	if err := c.kv.Delete(ctx, c.key(c.rank)); err != nil {
		return fmt.Errorf("failed to release rank %d: %w", c.rank, err)
	}
	c.logger.Info("rank released", "rank", c.rank)
	c.rank = noRank

	return nil
}

// Close stops renewal without deleting the lease; it expires after the TTL.
func (c *Claimer) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.stopLocked(context.Background())
}

// Rank returns the claimed rank, or -1 when none is held.
func (c *Claimer) Rank() int {
	c.mu.Lock()
	defer c.mu.Unlock()

	return c.rank
}

func (c *Claimer) stopLocked(ctx context.Context) {
	if c.closed {
		return
	}
	c.closed = true
	close(c.stopCh)

	if !c.started {
		return
	}
	select {
	case <-c.doneCh:
	case <-ctx.Done():
	case <-time.After(5 * time.Second):
	}
}

func (c *Claimer) key(rank int) string {
	return c.token + ".rank." + strconv.Itoa(rank)
}

func (c *Claimer) leaseValue() []byte {
	return []byte(time.Now().Format(time.RFC3339))
}
