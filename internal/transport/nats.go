package transport

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"sync"
	"sync/atomic"
	"time"

	"github.com/arloliu/halo/internal/kvutil"
	"github.com/arloliu/halo/internal/logging"
	"github.com/arloliu/halo/internal/natsutil"
	"github.com/arloliu/halo/types"
	"github.com/nats-io/nats.go"
	"github.com/nats-io/nats.go/jetstream"
	"github.com/zeebo/xxh3"
)

// NATSOptions configures a NATS communicator.
type NATSOptions struct {
	// Rank and Size place this communicator in the group.
	Rank int
	Size int

	// Depth is the per-link channel depth (minimum MinDepth). Inbound
	// messages beyond it are buffered rather than blocking delivery.
	Depth int

	// SubjectPrefix is the first subject token; messages for rank r of run
	// token t travel on "<prefix>.<t>.<r>".
	SubjectPrefix string

	// RunID identifies the run. Every rank of a group must use the same RunID.
	RunID string

	// BarrierBucket is the JetStream KV bucket holding barrier arrivals.
	BarrierBucket string

	// BarrierTTL bounds the lifetime of barrier keys left by crashed runs.
	BarrierTTL time.Duration

	// Logger receives transport diagnostics. Defaults to a no-op logger.
	Logger types.Logger
}

// RunToken returns the subject-safe token derived from runID.
func RunToken(runID string) string {
	return fmt.Sprintf("%016x", xxh3.HashString(runID))
}

// NATSComm implements types.Comm over NATS core pub/sub with a JetStream KV barrier.
type NATSComm struct {
	nc     *nats.Conn
	kv     jetstream.KeyValue
	sub    *nats.Subscription
	boxes  *mailboxes
	logger types.Logger

	rank    int
	size    int
	prefix  string
	token   string
	barrier atomic.Int64

	fault     atomic.Pointer[error]
	faulted   chan struct{}
	faultOnce sync.Once

	done      chan struct{}
	closeOnce sync.Once
}

var _ types.Comm = (*NATSComm)(nil)

// NewNATS subscribes rank's inbox and opens the barrier bucket.
//
// The subscription is flushed to the server before NewNATS returns, so once
// every rank has passed the first Barrier no message can be lost.
//
// Parameters:
//   - ctx: Context for bucket creation
//   - nc: Connected NATS client (may be shared between communicators)
//   - opts: Group placement and naming
//
// Returns:
//   - *NATSComm: The communicator
//   - error: ErrNATSConnectionRequired, ErrUnknownRank, or a wrapped NATS error
func NewNATS(ctx context.Context, nc *nats.Conn, opts NATSOptions) (*NATSComm, error) {
	if nc == nil {
		return nil, types.ErrNATSConnectionRequired
	}
	if err := checkRank(opts.Rank, opts.Size); err != nil {
		return nil, err
	}
	if opts.SubjectPrefix == "" {
		opts.SubjectPrefix = "halo"
	}
	if opts.BarrierBucket == "" {
		opts.BarrierBucket = "halo-barrier"
	}
	if opts.BarrierTTL <= 0 {
		opts.BarrierTTL = 10 * time.Minute
	}
	if opts.Logger == nil {
		opts.Logger = logging.NewNop()
	}

	js, err := jetstream.New(nc)
	if err != nil {
		return nil, natsutil.Wrap("jetstream", err)
	}
	kv, err := kvutil.EnsureKVBucketWithRetry(ctx, js, jetstream.KeyValueConfig{
		Bucket:  opts.BarrierBucket,
		History: 1,
		TTL:     opts.BarrierTTL,
		Storage: jetstream.MemoryStorage,
	}, 3)
	if err != nil {
		return nil, natsutil.Wrap("barrier bucket", err)
	}

	c := &NATSComm{
		nc:      nc,
		kv:      kv,
		boxes:   newMailboxes(opts.Depth),
		logger:  opts.Logger,
		rank:    opts.Rank,
		size:    opts.Size,
		prefix:  opts.SubjectPrefix,
		token:   RunToken(opts.RunID),
		faulted: make(chan struct{}),
		done:    make(chan struct{}),
	}

	c.sub, err = nc.Subscribe(c.subject(c.rank), c.deliver)
	if err != nil {
		return nil, natsutil.Wrap("subscribe", err)
	}
	if err := nc.FlushWithContext(ctx); err != nil {
		_ = c.sub.Unsubscribe()
		return nil, natsutil.Wrap("flush", err)
	}

	c.logger.Debug("nats transport ready", "rank", c.rank, "size", c.size, "subject", c.sub.Subject)

	return c, nil
}

// Rank returns this communicator's rank.
func (c *NATSComm) Rank() int { return c.rank }

// Size returns the group size.
func (c *NATSComm) Size() int { return c.size }

// Send publishes msg to dst's inbox.
func (c *NATSComm) Send(_ context.Context, dst int, tag types.Tag, msg types.Message) error {
	if err := checkRank(dst, c.size); err != nil {
		return err
	}
	if err := c.check(); err != nil {
		return err
	}

	msg.Source = c.rank
	msg.Tag = tag
	if err := c.nc.Publish(c.subject(dst), Encode(msg)); err != nil {
		return natsutil.Wrap("publish", err)
	}

	return nil
}

// Recv returns the next message from src with tag.
func (c *NATSComm) Recv(ctx context.Context, src int, tag types.Tag) (types.Message, error) {
	if err := checkRank(src, c.size); err != nil {
		return types.Message{}, err
	}
	if err := c.check(); err != nil {
		return types.Message{}, err
	}

	ctx, cancel := c.withFault(ctx)
	defer cancel()

	msg, err := c.boxes.take(ctx, c.done, link{src: src, dst: c.rank, tag: tag})
	if err != nil {
		if ferr := c.faultErr(); ferr != nil {
			return types.Message{}, ferr
		}

		return types.Message{}, err
	}

	return msg, nil
}

// Barrier records this rank's arrival under the next barrier generation and
// waits until all ranks of the run have arrived.
//
// Arrivals are keys "<token>.barrier.<gen>.<rank>" observed through a KV
// watch started before this rank's own put, so no arrival is missed. Rank 0
// deletes a generation's keys after passing it.
func (c *NATSComm) Barrier(ctx context.Context) error {
	if err := c.check(); err != nil {
		return err
	}

	gen := c.barrier.Add(1) - 1
	prefix := c.token + ".barrier." + strconv.FormatInt(gen, 10)

	watcher, err := c.kv.Watch(ctx, prefix+".*")
	if err != nil {
		return natsutil.Wrap("barrier watch", err)
	}
	defer func() { _ = watcher.Stop() }()

	if _, err := c.kv.Put(ctx, prefix+"."+strconv.Itoa(c.rank), []byte(time.Now().Format(time.RFC3339Nano))); err != nil {
		return natsutil.Wrap("barrier put", err)
	}

	arrived := make(map[string]struct{}, c.size)
	for len(arrived) < c.size {
		select {
		case entry, ok := <-watcher.Updates():
			if !ok {
				return fmt.Errorf("barrier %d: %w: watch closed", gen, types.ErrCommunication)
			}
			if entry == nil || entry.Operation() != jetstream.KeyValuePut {
				continue
			}
			arrived[entry.Key()] = struct{}{}
		case <-ctx.Done():
			return fmt.Errorf("barrier %d: %d/%d arrived: %w", gen, len(arrived), c.size, ctx.Err())
		case <-c.done:
			return fmt.Errorf("barrier %d: %w", gen, types.ErrTransportClosed)
		}
	}

	if c.rank == 0 {
		if _, err := kvutil.DeletePrefix(ctx, c.kv, prefix+"."); err != nil {
			c.logger.Warn("failed to clean up barrier keys", "generation", gen, "error", err)
		}
	}

	return nil
}

// Close unsubscribes the inbox. The NATS connection stays open; it belongs to the caller.
func (c *NATSComm) Close() error {
	var err error
	c.closeOnce.Do(func() {
		close(c.done)
		if c.sub != nil {
			err = c.sub.Unsubscribe()
			if errors.Is(err, nats.ErrConnectionClosed) || errors.Is(err, nats.ErrBadSubscription) {
				err = nil
			}
		}
	})

	return err
}

// deliver routes an inbound payload into its link mailbox.
func (c *NATSComm) deliver(m *nats.Msg) {
	msg, err := Decode(m.Data)
	if err == nil {
		err = checkRank(msg.Source, c.size)
	}
	if err != nil {
		c.logger.Error("dropping undecodable message", "rank", c.rank, "error", err)
		c.setFault(fmt.Errorf("inbound on %s: %w", m.Subject, err))

		return
	}

	// One callback serves every link of this rank, so it must not wait on
	// a full link.
	c.boxes.offer(link{src: msg.Source, dst: c.rank, tag: msg.Tag}, msg)
}

func (c *NATSComm) subject(rank int) string {
	return c.prefix + "." + c.token + "." + strconv.Itoa(rank)
}

func (c *NATSComm) check() error {
	select {
	case <-c.done:
		return types.ErrTransportClosed
	default:
	}

	return c.faultErr()
}

func (c *NATSComm) setFault(err error) {
	c.faultOnce.Do(func() {
		c.fault.Store(&err)
		close(c.faulted)
	})
}

func (c *NATSComm) faultErr() error {
	if p := c.fault.Load(); p != nil {
		return *p
	}

	return nil
}

// withFault derives a context that is cancelled when an inbound message
// could not be decoded.
func (c *NATSComm) withFault(ctx context.Context) (context.Context, context.CancelFunc) {
	ctx, cancel := context.WithCancel(ctx)
	go func() {
		select {
		case <-c.faulted:
			cancel()
		case <-ctx.Done():
		}
	}()

	return ctx, cancel
}
