package transport

import (
	"context"
	"fmt"
	"sync"

	"github.com/arloliu/halo/types"
	"github.com/puzpuzpuz/xsync/v4"
)

// MinDepth is the smallest mailbox depth that keeps the halo exchange deadlock free.
const MinDepth = 2

// link identifies one directed, tagged channel between two ranks.
type link struct {
	src int
	dst int
	tag types.Tag
}

// box is one link's queue. Messages that arrive through offer while ch is
// full wait in overflow; every message in ch precedes every message in
// overflow.
type box struct {
	ch       chan types.Message
	mu       sync.Mutex
	overflow []types.Message
}

// mailboxes maps links to FIFO queues created on first use.
//
// put applies back-pressure to the sender once a link holds depth messages.
// offer never blocks; it is used where the sender cannot be slowed down,
// such as a shared subscription callback. A link is fed by put or by offer,
// never both.
type mailboxes struct {
	depth int
	links *xsync.Map[link, *box]
}

func newMailboxes(depth int) *mailboxes {
	if depth < MinDepth {
		depth = MinDepth
	}

	return &mailboxes{
		depth: depth,
		links: xsync.NewMap[link, *box](),
	}
}

// queue returns the box for l, creating it if needed. Concurrent callers
// for the same link always observe the same box.
func (m *mailboxes) queue(l link) *box {
	if b, ok := m.links.Load(l); ok {
		return b
	}
	b, _ := m.links.LoadOrStore(l, &box{ch: make(chan types.Message, m.depth)})

	return b
}

// put enqueues msg on l, blocking while the queue is full.
func (m *mailboxes) put(ctx context.Context, done <-chan struct{}, l link, msg types.Message) error {
	select {
	case m.queue(l).ch <- msg:
		return nil
	case <-ctx.Done():
		return fmt.Errorf("send %s to %d: %w", l.tag, l.dst, ctx.Err())
	case <-done:
		return fmt.Errorf("send %s to %d: %w", l.tag, l.dst, types.ErrTransportClosed)
	}
}

// offer enqueues msg on l without blocking. Once the channel is full the
// message is held in the link's overflow until take makes room.
func (m *mailboxes) offer(l link, msg types.Message) {
	b := m.queue(l)

	b.mu.Lock()
	defer b.mu.Unlock()

	if len(b.overflow) == 0 {
		select {
		case b.ch <- msg:
			return
		default:
		}
	}
	b.overflow = append(b.overflow, msg)
}

// take dequeues the next message on l, blocking while the queue is empty.
func (m *mailboxes) take(ctx context.Context, done <-chan struct{}, l link) (types.Message, error) {
	b := m.queue(l)

	select {
	case msg := <-b.ch:
		b.refill()
		return msg, nil
	case <-ctx.Done():
		return types.Message{}, fmt.Errorf("recv %s from %d: %w", l.tag, l.src, ctx.Err())
	case <-done:
		return types.Message{}, fmt.Errorf("recv %s from %d: %w", l.tag, l.src, types.ErrTransportClosed)
	}
}

// refill moves overflow messages into the channel while it has room.
func (b *box) refill() {
	b.mu.Lock()
	defer b.mu.Unlock()

	for len(b.overflow) > 0 {
		select {
		case b.ch <- b.overflow[0]:
			b.overflow[0] = types.Message{}
			b.overflow = b.overflow[1:]
		default:
			return
		}
	}
	b.overflow = nil
}

// pending returns the number of queued messages across all links.
func (m *mailboxes) pending() int {
	total := 0
	m.links.Range(func(_ link, b *box) bool {
		b.mu.Lock()
		total += len(b.ch) + len(b.overflow)
		b.mu.Unlock()

		return true
	})

	return total
}

func checkRank(rank, size int) error {
	if rank < 0 || rank >= size {
		return fmt.Errorf("%w: rank %d not in [0, %d)", types.ErrUnknownRank, rank, size)
	}

	return nil
}
