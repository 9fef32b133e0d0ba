// Package halo provides a partitioned 2D heat-equation solver built on halo
// exchange between message-passing workers.
//
// The global L×L grid is split over P workers arranged as a √P×√P square.
// Every worker owns an ℓ×ℓ block (ℓ = L/√P) surrounded by a one-cell halo
// that mirrors its neighbors' edge cells. Each Jacobi iteration replaces
// every cell with the average of its four neighbors, using values from the
// previous iteration only, so a partitioned run is bit-identical to the
// unpartitioned one.
//
// # Quick Start
//
// Run a whole group inside one process:
//
//	import "github.com/arloliu/halo"
//
//	cfg := halo.DefaultConfig() // L=8, P=4, 10 iterations
//	report, err := halo.Launch(ctx, &cfg)
//	if err != nil {
//	    log.Fatal(err)
//	}
//
// Rank 0 prints the initial grid, the final grid and the elapsed time:
//
//	Initial grid:
//	 0.000 |  0.000  0.000  0.000  0.000 |  0.000  0.000  0.000  0.000 |  0.000
//	---------------------------------------------------------------------------
//	 0.000 |  1.000  1.000  1.000  1.000 |  2.000  2.000  2.000  2.000 |  0.000
//	...
//
// # Architecture
//
// Each worker runs a Solver that moves through a state machine:
//
//	Init → Partitioning → Ready → Running → Gathering → Done
//
// and, inside Running, through the phases of one iteration:
//
//	ExchangeIssued → InteriorComputed → ExchangeCompleted → EdgeComputed
//
// The vertical halo exchange is issued first and completes in the background
// while interior cells, which need no halo values, are updated. The
// horizontal exchange blocks. Edge cells are updated once both have finished.
//
// # Transports
//
// Workers talk through a Comm. The "local" transport runs all workers as
// goroutines with bounded in-memory mailboxes. The "nats" transport sends
// rows and columns over NATS subjects and implements barriers with a
// JetStream KV bucket, so workers may live in separate processes:
//
//	nc, _ := nats.Connect(url)
//	cfg.Transport.Kind = halo.TransportNATS
//	cfg.Transport.NATS.RunID = "run-42"
//	result, err := halo.Join(ctx, &cfg, nc) // start cfg.Workers processes
//
// # Advanced Usage
//
//	hooks := &halo.Hooks{
//	    OnIteration: func(ctx context.Context, rank, iteration int) error {
//	        return nil
//	    },
//	}
//
//	report, err := halo.Launch(ctx, &cfg,
//	    halo.WithHooks(hooks),
//	    halo.WithMetrics(metrics.NewPrometheus(prometheus.DefaultRegisterer, "halo")),
//	    halo.WithInitialCondition(source.Uniform(1)),
//	)
//
// See the examples/ directory and cmd/heatsolve for complete programs.
package halo
