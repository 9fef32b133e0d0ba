package halo

import (
	"context"
	"errors"
	"fmt"

	"github.com/nats-io/nats.go"
	"github.com/nats-io/nats.go/jetstream"
	"golang.org/x/sync/errgroup"

	"github.com/arloliu/halo/internal/display"
	"github.com/arloliu/halo/internal/kvutil"
	"github.com/arloliu/halo/internal/natsutil"
	"github.com/arloliu/halo/internal/partition"
	"github.com/arloliu/halo/internal/progress"
	"github.com/arloliu/halo/internal/rankclaim"
	"github.com/arloliu/halo/internal/stencil"
	"github.com/arloliu/halo/internal/transport"
	"github.com/arloliu/halo/source"
)

// Report is the outcome of a Launch.
type Report struct {
	// Layout is the worker layout of the run.
	Layout Layout

	// Results holds every worker's result, indexed by rank.
	Results []*Result
}

// Root returns rank 0's result, which carries the gathered grids.
func (r *Report) Root() *Result {
	return r.Results[0]
}

// Launch runs a whole process group inside the current process.
//
// It creates cfg.Workers communicators on the configured transport, runs one
// Solver per rank under a shared errgroup so the first failing worker cancels
// the others, and closes every communicator before returning.
//
// With the "nats" transport the connection comes from WithNATSConn, or is
// dialed from cfg.Transport.NATS.URL.
//
// Parameters:
//   - ctx: Context for the whole run
//   - cfg: Run configuration
//   - opts: Options applied to every solver
//
// Returns:
//   - *Report: Per-rank results
//   - error: The first worker failure, or a configuration or transport setup error
//
// Example:
//
//	cfg := halo.DefaultConfig()
//	report, err := halo.Launch(ctx, &cfg)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	fmt.Println(report.Root().Elapsed)
func Launch(ctx context.Context, cfg *Config, opts ...Option) (*Report, error) {
	if cfg == nil {
		return nil, ErrInvalidConfig
	}
	SetDefaults(cfg)
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	options := applyOptions(opts)

	comms, release, err := openGroup(ctx, cfg, options)
	if err != nil {
		return nil, err
	}
	defer release()

	solvers := make([]*Solver, len(comms))
	for rank, comm := range comms {
		solvers[rank], err = NewSolver(cfg, comm, opts...)
		if err != nil {
			return nil, err
		}
	}

	group, gctx := errgroup.WithContext(ctx)
	for _, solver := range solvers {
		group.Go(func() error { return solver.Run(gctx) })
	}
	if err := group.Wait(); err != nil {
		return nil, err
	}

	report := &Report{
		Layout:  solvers[0].Layout(),
		Results: make([]*Result, len(solvers)),
	}
	for rank, solver := range solvers {
		report.Results[rank] = solver.Result()
	}

	return report, nil
}

// openGroup creates the communicators of every rank. release closes them,
// and the NATS connection too when openGroup dialed it.
func openGroup(ctx context.Context, cfg *Config, options *solverOptions) ([]Comm, func(), error) {
	depth := cfg.EffectiveMailboxDepth(cfg.GridSize / partition.Side(cfg.Workers))

	if cfg.Transport.Kind != TransportNATS {
		group, err := transport.NewLocalGroup(cfg.Workers, depth)
		if err != nil {
			return nil, nil, err
		}

		comms := make([]Comm, cfg.Workers)
		for rank := range comms {
			comms[rank] = group.Comm(rank)
		}

		return comms, func() { _ = group.Close() }, nil
	}

	nc, owned := options.conn, false
	if nc == nil {
		dialed, err := dial(cfg)
		if err != nil {
			return nil, nil, err
		}
		nc, owned = dialed, true
	}

	comms := make([]Comm, 0, cfg.Workers)
	release := func() {
		closeAll(comms, options.logger)
		if owned {
			if err := nc.Drain(); err != nil {
				options.logger.Warn("failed to drain NATS connection", "error", err)
			}
		}
	}

	sctx, cancel := context.WithTimeout(ctx, cfg.StartupTimeout)
	defer cancel()

	for rank := range cfg.Workers {
		comm, err := transport.NewNATS(sctx, nc, natsOptions(cfg, rank, depth, options.logger))
		if err != nil {
			release()
			return nil, nil, fmt.Errorf("rank %d transport: %w", rank, err)
		}
		comms = append(comms, comm)
	}

	return comms, release, nil
}

func natsOptions(cfg *Config, rank, depth int, logger Logger) transport.NATSOptions {
	n := cfg.Transport.NATS

	return transport.NATSOptions{
		Rank:          rank,
		Size:          cfg.Workers,
		Depth:         depth,
		SubjectPrefix: n.SubjectPrefix,
		RunID:         n.RunID,
		BarrierBucket: n.BarrierBucket,
		Logger:        logger,
	}
}

func dial(cfg *Config) (*nats.Conn, error) {
	if cfg.Transport.NATS.URL == "" {
		return nil, ErrNATSConnectionRequired
	}

	nc, err := nats.Connect(cfg.Transport.NATS.URL, nats.Name("halo-"+cfg.Transport.NATS.RunID))
	if err != nil {
		return nil, natsutil.Wrap("connect", err)
	}

	return nc, nil
}

func closeAll(comms []Comm, logger Logger) {
	for rank, comm := range comms {
		if err := comm.Close(); err != nil {
			logger.Warn("failed to close transport", "rank", rank, "error", err)
		}
	}
}

// Join runs one worker of a multi-process group over NATS.
//
// The process claims the lowest free rank of the run from the
// cfg.Transport.NATS.RankBucket KV bucket, holds it for the duration of the
// run, and releases it afterwards. While running it publishes its completed
// iteration count to the same bucket, see progress.Key. Start cfg.Workers processes with the same
// configuration to form the group.
//
// Parameters:
//   - ctx: Context for the run
//   - cfg: Run configuration (same in every process)
//   - nc: Connected NATS client
//   - opts: Solver options
//
// Returns:
//   - *Result: This worker's result
//   - error: ErrNoAvailableRank when the group is full, or any run failure
func Join(ctx context.Context, cfg *Config, nc *nats.Conn, opts ...Option) (*Result, error) {
	if cfg == nil {
		return nil, ErrInvalidConfig
	}
	if nc == nil {
		return nil, ErrNATSConnectionRequired
	}
	SetDefaults(cfg)
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	options := applyOptions(opts)
	n := cfg.Transport.NATS

	js, err := jetstream.New(nc)
	if err != nil {
		return nil, natsutil.Wrap("jetstream", err)
	}

	sctx, cancel := context.WithTimeout(ctx, cfg.StartupTimeout)
	defer cancel()

	kv, err := kvutil.EnsureKVBucketWithRetry(sctx, js, jetstream.KeyValueConfig{
		Bucket:  n.RankBucket,
		History: 1,
		TTL:     n.RankClaimTTL,
		Storage: jetstream.MemoryStorage,
	}, 3)
	if err != nil {
		return nil, natsutil.Wrap("rank bucket", err)
	}

	claimer := rankclaim.NewClaimer(kv, transport.RunToken(n.RunID), cfg.Workers, n.RankClaimTTL, options.logger)
	defer claimer.Close()

	rank, err := claimer.Claim(sctx)
	if err != nil {
		return nil, err
	}
	if err := claimer.StartRenewal(ctx); err != nil {
		return nil, err
	}
	defer func() {
		rctx, rcancel := context.WithTimeout(context.Background(), cfg.OperationTimeout)
		defer rcancel()
		if err := claimer.Release(rctx); err != nil && !errors.Is(err, rankclaim.ErrNotClaimed) {
			options.logger.Warn("failed to release rank", "rank", rank, "error", err)
		}
	}()

	depth := cfg.EffectiveMailboxDepth(cfg.GridSize / partition.Side(cfg.Workers))
	comm, err := transport.NewNATS(sctx, nc, natsOptions(cfg, rank, depth, options.logger))
	if err != nil {
		return nil, fmt.Errorf("rank %d transport: %w", rank, err)
	}
	defer closeAll([]Comm{comm}, options.logger)

	solver, err := NewSolver(cfg, comm, opts...)
	if err != nil {
		return nil, err
	}

	pub := progress.New(kv, progress.Key(transport.RunToken(n.RunID), rank), n.ProgressInterval, solver.Iteration, options.logger)
	if err := pub.Start(sctx); err != nil {
		return nil, err
	}
	defer func() {
		if err := pub.Stop(); err != nil {
			options.logger.Warn("failed to stop progress publisher", "rank", rank, "error", err)
		}
	}()

	if err := solver.Run(ctx); err != nil {
		return nil, err
	}

	return solver.Result(), nil
}

// Serial runs the same iteration on the unpartitioned grid.
//
// The initial grid is built exactly as the partitioned run builds it, with
// each cell's rank taken from the layout, so the final Snapshot is
// bit-identical to a partitioned run's gathered grid.
//
// Parameters:
//   - cfg: Run configuration; the worker topology must be valid
//   - ic: Initial condition (nil selects source.RankFill)
//
// Returns:
//   - *Snapshot: The final global grid
//   - error: ErrInvalidConfig or a topology error
func Serial(cfg *Config, ic InitialCondition) (*Snapshot, error) {
	if cfg == nil {
		return nil, ErrInvalidConfig
	}
	SetDefaults(cfg)
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	layout, err := partition.New(cfg.GridSize, cfg.Workers)
	if err != nil {
		return nil, err
	}
	if ic == nil {
		ic = source.RankFill()
	}

	global := make([][]float32, cfg.GridSize)
	for r := range global {
		global[r] = make([]float32, cfg.GridSize)
		for c := range global[r] {
			global[r][c] = ic.Value(layout.Owner(r, c), r, c)
		}
	}

	return display.FromRows(stencil.Reference(global, cfg.BoundaryValue, cfg.Iterations)), nil
}
