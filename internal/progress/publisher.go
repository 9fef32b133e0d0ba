// Package progress publishes a worker's completed iteration count to a
// JetStream KV bucket so that multi-process runs can be observed from outside.
//
// Each worker writes "<runToken>.progress.<rank>" = "<iteration>" at a fixed
// interval and deletes the key when it stops.
package progress

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"sync"
	"time"

	"github.com/nats-io/nats.go/jetstream"

	"github.com/arloliu/halo/internal/logging"
	"github.com/arloliu/halo/types"
)

// Common errors for progress publishing.
var (
	ErrNotStarted     = errors.New("publisher not started")
	ErrAlreadyStarted = errors.New("publisher already started")
)

// Publisher periodically publishes the value of an iteration counter.
type Publisher struct {
	kv       jetstream.KeyValue
	key      string
	interval time.Duration
	current  func() int
	logger   types.Logger

	mu      sync.Mutex
	started bool
	stopCh  chan struct{}
	doneCh  chan struct{}
}

// Key returns the KV key of rank's progress in the run identified by token.
func Key(token string, rank int) string {
	return token + ".progress." + strconv.Itoa(rank)
}

// New creates a publisher writing current() under key every interval.
//
// Example:
//
//	pub := progress.New(kv, progress.Key(token, rank), time.Second, solver.Iteration, logger)
//	if err := pub.Start(ctx); err != nil {
//	    return err
//	}
//	defer pub.Stop()
func New(kv jetstream.KeyValue, key string, interval time.Duration, current func() int, logger types.Logger) *Publisher {
	if logger == nil {
		logger = logging.NewNop()
	}

	return &Publisher{
		kv:       kv,
		key:      key,
		interval: interval,
		current:  current,
		logger:   logger,
		stopCh:   make(chan struct{}),
		doneCh:   make(chan struct{}),
	}
}

// Start publishes the current value immediately, then every interval until Stop.
// A Publisher runs once; create a new one to publish again.
func (p *Publisher) Start(ctx context.Context) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.started {
		return ErrAlreadyStarted
	}

	if err := p.publish(ctx); err != nil {
		return fmt.Errorf("failed to publish initial progress: %w", err)
	}
	p.started = true

	go p.publishLoop()

	return nil
}

// Stop ends publishing and deletes the key.
func (p *Publisher) Stop() error {
	p.mu.Lock()
	if !p.started {
		p.mu.Unlock()
		return ErrNotStarted
	}
	p.started = false
	close(p.stopCh)
	p.mu.Unlock()

	<-p.doneCh

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	if err := p.kv.Delete(ctx, p.key); err != nil {
		return fmt.Errorf("stopped but failed to delete progress key: %w", err)
	}

	return nil
}

func (p *Publisher) publishLoop() {
	defer close(p.doneCh)

	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()

	for {
		select {
		case <-p.stopCh:
			return
		case <-ticker.C:
			ctx, cancel := context.WithTimeout(context.Background(), p.interval)
			if err := p.publish(ctx); err != nil {
				p.logger.Warn("progress publish failed", "key", p.key, "error", err)
			}
			cancel()
		}
	}
}

func (p *Publisher) publish(ctx context.Context) error {
	if _, err := p.kv.Put(ctx, p.key, []byte(strconv.Itoa(p.current()))); err != nil {
		return fmt.Errorf("put %s: %w", p.key, err)
	}

	return nil
}

// Read returns the last published iteration of key.
func Read(ctx context.Context, kv jetstream.KeyValue, key string) (int, error) {
	entry, err := kv.Get(ctx, key)
	if err != nil {
		return 0, err
	}

	return strconv.Atoi(string(entry.Value()))
}
