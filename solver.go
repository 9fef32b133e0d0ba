package halo

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"sync"
	"sync/atomic"
	"time"

	"github.com/arloliu/halo/internal/display"
	"github.com/arloliu/halo/internal/exchange"
	"github.com/arloliu/halo/internal/grid"
	"github.com/arloliu/halo/internal/hooks"
	"github.com/arloliu/halo/internal/logging"
	"github.com/arloliu/halo/internal/metrics"
	"github.com/arloliu/halo/internal/partition"
	"github.com/arloliu/halo/internal/stencil"
	"github.com/arloliu/halo/source"
)

// Result summarizes one worker's run.
type Result struct {
	// Rank of the worker that produced the result.
	Rank int

	// Iterations is the number of completed iterations.
	Iterations int

	// Elapsed is the wall time of the iteration loop, excluding setup and display.
	Elapsed time.Duration

	// Checksum fingerprints the worker's final owned block, see grid.Checksum.
	Checksum uint64

	// Initial and Final are the gathered global grids. Set on rank 0 only,
	// and only when the grid fits the display limit.
	Initial *Snapshot
	Final   *Snapshot
}

// Solver runs the partitioned heat-equation iteration for one worker.
//
// A Solver is bound to one Comm and runs once. All workers of a group must
// use the same configuration and run concurrently: every barrier, halo
// exchange and gather is collective.
//
// Lifecycle:
//
//	Init → Partitioning → Ready → Running → Gathering → Done
//
// Any failure moves the solver to Failed.
type Solver struct {
	cfg  Config
	comm Comm
	rank int

	hooks   Hooks
	metrics MetricsCollector
	logger  Logger
	initial InitialCondition
	output  io.Writer

	layout    atomic.Pointer[partition.Layout]
	state     atomic.Int32 // State
	phase     atomic.Int32 // Phase
	iteration atomic.Int64
	result    atomic.Pointer[Result]

	started atomic.Bool
	ctx     context.Context
	mu      sync.RWMutex
}

// NewSolver creates a solver for the worker behind comm.
//
// The configuration is copied after defaults are applied. Topology is not
// checked here; Run checks it on every worker so each one can report the
// violation itself.
//
// Parameters:
//   - cfg: Run configuration (same on every worker)
//   - comm: This worker's view of the process group
//   - opts: Optional hooks, metrics, logger, initial condition and output
//
// Returns:
//   - *Solver: Solver in StateInit
//   - error: ErrInvalidConfig or ErrCommRequired
//
// Example:
//
//	group, _ := transport.NewLocalGroup(4, 10)
//	solver, err := halo.NewSolver(&cfg, group.Comm(0), halo.WithOutput(os.Stdout))
func NewSolver(cfg *Config, comm Comm, opts ...Option) (*Solver, error) {
	if cfg == nil {
		return nil, ErrInvalidConfig
	}
	if comm == nil {
		return nil, ErrCommRequired
	}

	SetDefaults(cfg)
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	options := applyOptions(opts)

	s := &Solver{
		cfg:     *cfg,
		comm:    comm,
		rank:    comm.Rank(),
		hooks:   hooks.Fill(options.hooks),
		metrics: options.metrics,
		logger:  logging.WithFields(options.logger, "rank", comm.Rank()),
		initial: options.initial,
		output:  options.output,
		ctx:     context.Background(),
	}
	s.state.Store(int32(StateInit))
	s.phase.Store(int32(PhaseIdle))

	return s, nil
}

// applyOptions applies opts and substitutes defaults for missing dependencies.
func applyOptions(opts []Option) *solverOptions {
	options := &solverOptions{}
	for _, opt := range opts {
		opt(options)
	}

	if options.metrics == nil {
		options.metrics = metrics.NewNop()
	}
	if options.logger == nil {
		options.logger = logging.NewNop()
	}
	if options.initial == nil {
		options.initial = source.RankFill()
	}
	if options.output == nil {
		options.output = os.Stdout
	}

	return options
}

// Run executes the whole run: partition, initialize, iterate and display.
//
// Blocks until the teardown barrier completes. Rank 0 writes the initial and
// final grids and the elapsed time to the configured output.
//
// Parameters:
//   - ctx: Cancels the run; a cancelled worker makes its peers fail too
//
// Returns:
//   - error: ErrAlreadyStarted, a topology error (ErrTopology), ErrGridAllocation,
//     or a communication error (ErrCommunication)
func (s *Solver) Run(ctx context.Context) error {
	if !s.started.CompareAndSwap(false, true) {
		return ErrAlreadyStarted
	}

	s.mu.Lock()
	s.ctx = ctx
	s.mu.Unlock()

	err := s.run(ctx)
	if err != nil {
		s.transitionState(s.State(), StateFailed)
		s.logger.Error("solver failed", "state", s.State().String(), "error", err)

		hook := s.hooks.OnError
		go func() {
			if hookErr := hook(ctx, s.rank, err); hookErr != nil {
				s.logger.Warn("error hook failed", "error", hookErr)
			}
		}()

		return err
	}

	s.transitionState(StateGathering, StateDone)

	return nil
}

func (s *Solver) run(ctx context.Context) error {
	s.transitionState(StateInit, StatePartitioning)

	layout, err := partition.New(s.cfg.GridSize, s.cfg.Workers)
	if err != nil {
		s.reportTopology(err)
		return err
	}
	s.layout.Store(&layout)

	ex, err := exchange.New(s.comm, layout, s.rank, exchange.Options{Metrics: s.metrics, Logger: s.logger})
	if err != nil {
		s.reportTopology(err)
		return err
	}

	cur, next, err := s.allocate(layout)
	if err != nil {
		return err
	}

	s.logger.Debug("partitioned",
		"layout", layout.String(),
		"neighbors", ex.Neighbors().Count(),
	)
	s.transitionState(StatePartitioning, StateReady)

	if err := s.barrier(ctx, s.cfg.StartupTimeout, "startup"); err != nil {
		return err
	}

	var printer *display.Printer
	if s.rank == 0 {
		printer = display.NewPrinter(s.output, layout, s.cfg.BoundaryValue)
	}

	initial, err := s.show(ctx, printer, layout, "Initial grid:\n", cur)
	if err != nil {
		return err
	}

	s.transitionState(StateReady, StateRunning)

	start := time.Now()
	for iter := range s.cfg.Iterations {
		if err := s.step(ctx, ex, iter, cur, next); err != nil {
			return err
		}
		cur, next = next, cur
	}
	elapsed := time.Since(start)

	s.transitionState(StateRunning, StateGathering)

	final, err := s.show(ctx, printer, layout, "\nFinal grid:\n", cur)
	if err != nil {
		return err
	}
	if printer != nil {
		if err := printer.Printf("\nTime taken: %g s.\n", elapsed.Seconds()); err != nil {
			return fmt.Errorf("print elapsed time: %w", err)
		}
	}

	s.result.Store(&Result{
		Rank:       s.rank,
		Iterations: s.cfg.Iterations,
		Elapsed:    elapsed,
		Checksum:   cur.Checksum(),
		Initial:    initial,
		Final:      final,
	})

	return s.barrier(ctx, s.cfg.ShutdownTimeout, "teardown")
}

// allocate creates the current and next buffers and fills both with the
// initial condition. Halo cells start at the boundary value.
func (s *Solver) allocate(layout partition.Layout) (*grid.Grid, *grid.Grid, error) {
	cur, err := grid.New(layout.Local, s.cfg.BoundaryValue)
	if err != nil {
		return nil, nil, err
	}
	next, err := grid.New(layout.Local, s.cfg.BoundaryValue)
	if err != nil {
		return nil, nil, err
	}

	row0, col0 := layout.Origin(s.rank)
	cur.Fill(func(row, col int) float32 {
		return s.initial.Value(s.rank, row0+row-1, col0+col-1)
	})
	if err := next.CopyFrom(cur); err != nil {
		return nil, nil, err
	}

	return cur, next, nil
}

// step runs one iteration from cur into next.
func (s *Solver) step(ctx context.Context, ex *exchange.Exchanger, iter int, cur, next *grid.Grid) error {
	iterStart := time.Now()
	mark := iterStart

	// Cancelling sctx releases the vertical transfers when Columns fails.
	sctx, cancel := context.WithCancel(ctx)
	defer cancel()

	s.enterPhase(PhaseExchangeIssued, &mark)
	pending := ex.Begin(sctx, iter, cur)
	if err := ex.Columns(sctx, iter, cur); err != nil {
		cancel()
		_ = pending.Wait()

		return err
	}

	stencil.UpdateInterior(cur, next)
	s.enterPhase(PhaseInteriorComputed, &mark)

	if err := pending.Wait(); err != nil {
		return err
	}
	s.enterPhase(PhaseExchangeCompleted, &mark)

	stencil.UpdateEdges(cur, next)
	s.enterPhase(PhaseEdgeComputed, &mark)

	s.iteration.Store(int64(iter + 1))
	s.metrics.RecordIteration(s.rank, time.Since(iterStart).Seconds())

	hook := s.hooks.OnIteration
	go func() {
		if err := hook(ctx, s.rank, iter); err != nil {
			s.logger.Warn("iteration hook failed", "iteration", iter, "error", err)
		}
	}()

	return nil
}

// enterPhase records the time spent reaching phase and makes it current.
func (s *Solver) enterPhase(phase Phase, mark *time.Time) {
	now := time.Now()
	if phase != PhaseExchangeIssued {
		s.metrics.RecordPhaseDuration(phase.String(), now.Sub(*mark).Seconds())
	}
	*mark = now
	s.phase.Store(int32(phase)) //nolint:gosec // Phase values are controlled enum
}

// show prints header and the gathered grid on rank 0.
//
// Display is collective: every rank takes part in the gather, or none does
// when the grid exceeds the display limit.
func (s *Solver) show(ctx context.Context, printer *display.Printer, layout partition.Layout, header string, g *grid.Grid) (*Snapshot, error) {
	if s.cfg.Display.Disabled {
		return nil, nil
	}

	if printer != nil {
		if err := printer.Printf("%s", header); err != nil {
			return nil, fmt.Errorf("print header: %w", err)
		}
	}

	if !s.cfg.DisplayEnabled() {
		if printer != nil {
			if err := printer.PrintTooBig(); err != nil {
				return nil, fmt.Errorf("print display notice: %w", err)
			}
		}

		return nil, nil
	}

	start := time.Now()
	snap, err := display.Gather(ctx, s.comm, layout, g, printer)
	if err != nil {
		s.metrics.RecordCommError("gather")
		return nil, err
	}
	s.metrics.RecordPhaseDuration("Gather", time.Since(start).Seconds())

	return snap, nil
}

func (s *Solver) barrier(ctx context.Context, timeout time.Duration, name string) error {
	bctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	if err := s.comm.Barrier(bctx); err != nil {
		s.metrics.RecordCommError("barrier")
		return fmt.Errorf("%s barrier: %w", name, err)
	}

	return nil
}

// reportTopology logs a topology violation; every worker reports its own.
func (s *Solver) reportTopology(err error) {
	s.logger.Error("invalid worker topology",
		"grid_size", s.cfg.GridSize,
		"workers", s.cfg.Workers,
		"group_size", s.comm.Size(),
		"error", err,
	)

	if s.rank != 0 {
		return
	}

	// Rank 0 also prints the diagnostic next to the grid output.
	switch {
	case errors.Is(err, ErrNotPerfectSquare):
		_, _ = fmt.Fprintln(s.output, "Must execute using a square number of processes (4,9,...).")
	case errors.Is(err, ErrGridNotDivisible):
		_, _ = fmt.Fprintf(s.output, "Grid dimension %d needs to be a multiple of the number of processes per side %d.\n",
			s.cfg.GridSize, partition.Side(s.cfg.Workers))
	}
}

// Rank returns the worker's rank.
func (s *Solver) Rank() int {
	return s.rank
}

// Layout returns the worker layout. The zero Layout is returned before
// partitioning completes or after it failed.
func (s *Solver) Layout() Layout {
	if l := s.layout.Load(); l != nil {
		return *l
	}

	return Layout{}
}

// State returns the current lifecycle state.
func (s *Solver) State() State {
	return State(s.state.Load())
}

// Phase returns the phase of the current iteration.
func (s *Solver) Phase() Phase {
	return Phase(s.phase.Load())
}

// Iteration returns the number of completed iterations.
func (s *Solver) Iteration() int {
	return int(s.iteration.Load())
}

// Result returns the run summary, or nil until the final grid has been gathered.
func (s *Solver) Result() *Result {
	return s.result.Load()
}

// WaitState waits for the solver to reach the expected state.
//
// Parameters:
//   - expectedState: The state to wait for
//   - timeout: Maximum time to wait
//
// Returns:
//   - <-chan error: Receives nil on success, context.DeadlineExceeded on
//     timeout, or an error when the solver ends in another terminal state
//
// Example:
//
//	go solver.Run(ctx)
//	if err := <-solver.WaitState(halo.StateRunning, 5*time.Second); err != nil {
//	    log.Fatal(err)
//	}
func (s *Solver) WaitState(expectedState State, timeout time.Duration) <-chan error {
	ch := make(chan error, 1)

	go func() {
		defer close(ch)

		ticker := time.NewTicker(10 * time.Millisecond)
		defer ticker.Stop()

		timeoutTimer := time.NewTimer(timeout)
		defer timeoutTimer.Stop()

		for {
			current := s.State()
			if current == expectedState {
				ch <- nil
				return
			}
			if current.IsTerminal() {
				ch <- fmt.Errorf("solver reached %s while waiting for %s", current, expectedState)
				return
			}

			select {
			case <-ticker.C:
			case <-timeoutTimer.C:
				ch <- context.DeadlineExceeded
				return
			}
		}
	}()

	return ch
}

func (s *Solver) transitionState(from, to State) {
	if !isValidTransition(from, to) {
		s.logger.Error("invalid state transition attempted",
			"from", from.String(),
			"to", to.String(),
		)

		return
	}

	s.state.Store(int32(to)) //nolint:gosec // State values are controlled enum

	s.logger.Info("state transition",
		"from", from.String(),
		"to", to.String(),
	)

	s.mu.RLock()
	ctx := s.ctx
	s.mu.RUnlock()

	hook := s.hooks.OnStateChanged
	go func() {
		if err := hook(ctx, s.rank, from, to); err != nil {
			s.logger.Warn("state change hook failed", "from", from.String(), "to", to.String(), "error", err)
		}
	}()

	s.metrics.RecordStateTransition(from, to)
}

var validTransitions = map[State][]State{
	StateInit:         {StatePartitioning, StateFailed},
	StatePartitioning: {StateReady, StateFailed},
	StateReady:        {StateRunning, StateFailed},
	StateRunning:      {StateGathering, StateFailed},
	StateGathering:    {StateDone, StateFailed},
}

func isValidTransition(from, to State) bool {
	for _, allowed := range validTransitions[from] {
		if allowed == to {
			return true
		}
	}

	return false
}
