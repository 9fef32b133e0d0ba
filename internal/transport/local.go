package transport

import (
	"context"
	"fmt"
	"sync"

	"github.com/arloliu/halo/types"
)

// LocalGroup is an in-process group of size workers sharing memory mailboxes.
type LocalGroup struct {
	size    int
	boxes   *mailboxes
	barrier *cyclicBarrier
	comms   []*LocalComm
}

// NewLocalGroup creates a group of size ranks whose links buffer depth
// messages. Depths below MinDepth are raised to MinDepth.
//
// Example:
//
//	group, err := transport.NewLocalGroup(4, 6)
//	comm0 := group.Comm(0)
func NewLocalGroup(size, depth int) (*LocalGroup, error) {
	if size <= 0 {
		return nil, fmt.Errorf("%w: group size %d", types.ErrInvalidWorkerCount, size)
	}

	g := &LocalGroup{
		size:    size,
		boxes:   newMailboxes(depth),
		barrier: newCyclicBarrier(size),
		comms:   make([]*LocalComm, size),
	}
	for rank := range size {
		g.comms[rank] = &LocalComm{group: g, rank: rank, done: make(chan struct{})}
	}

	return g, nil
}

// Size returns the number of ranks in the group.
func (g *LocalGroup) Size() int { return g.size }

// Comm returns the communicator of rank, or nil when rank is out of range.
func (g *LocalGroup) Comm(rank int) *LocalComm {
	if checkRank(rank, g.size) != nil {
		return nil
	}

	return g.comms[rank]
}

// Pending returns the number of delivered but unreceived messages.
func (g *LocalGroup) Pending() int {
	return g.boxes.pending()
}

// Close closes every communicator of the group.
func (g *LocalGroup) Close() error {
	for _, c := range g.comms {
		_ = c.Close()
	}

	return nil
}

// LocalComm is one rank's view of a LocalGroup.
type LocalComm struct {
	group     *LocalGroup
	rank      int
	done      chan struct{}
	closeOnce sync.Once
}

var _ types.Comm = (*LocalComm)(nil)

// Rank returns this communicator's rank.
func (c *LocalComm) Rank() int { return c.rank }

// Size returns the group size.
func (c *LocalComm) Size() int { return c.group.size }

// Send copies msg into the mailbox of the (rank, dst, tag) link.
func (c *LocalComm) Send(ctx context.Context, dst int, tag types.Tag, msg types.Message) error {
	if err := checkRank(dst, c.group.size); err != nil {
		return err
	}
	if c.closed() {
		return types.ErrTransportClosed
	}

	out := types.Message{
		Source:    c.rank,
		Tag:       tag,
		Iteration: msg.Iteration,
		Data:      append([]float32(nil), msg.Data...),
	}

	return c.group.boxes.put(ctx, c.done, link{src: c.rank, dst: dst, tag: tag}, out)
}

// Recv returns the next message sent by src with tag.
func (c *LocalComm) Recv(ctx context.Context, src int, tag types.Tag) (types.Message, error) {
	if err := checkRank(src, c.group.size); err != nil {
		return types.Message{}, err
	}
	if c.closed() {
		return types.Message{}, types.ErrTransportClosed
	}

	return c.group.boxes.take(ctx, c.done, link{src: src, dst: c.rank, tag: tag})
}

// Barrier blocks until every rank of the group has called Barrier.
func (c *LocalComm) Barrier(ctx context.Context) error {
	if c.closed() {
		return types.ErrTransportClosed
	}

	return c.group.barrier.wait(ctx, c.done)
}

// Close marks the communicator closed and unblocks its pending calls.
func (c *LocalComm) Close() error {
	c.closeOnce.Do(func() { close(c.done) })
	return nil
}

func (c *LocalComm) closed() bool {
	select {
	case <-c.done:
		return true
	default:
		return false
	}
}
