package halo

import (
	"io"

	"github.com/nats-io/nats.go"
)

// Option configures a Solver, Launch or Join with optional dependencies.
type Option func(*solverOptions)

// solverOptions holds optional configuration.
type solverOptions struct {
	hooks   *Hooks
	metrics MetricsCollector
	logger  Logger
	initial InitialCondition
	output  io.Writer
	conn    *nats.Conn
}

// WithHooks sets lifecycle event hooks.
//
// Parameters:
//   - hooks: Hooks structure with callback functions
//
// Returns:
//   - Option: Functional option
//
// Example:
//
//	hooks := &halo.Hooks{
//	    OnIteration: func(ctx context.Context, rank, iteration int) error {
//	        log.Printf("rank %d finished iteration %d", rank, iteration)
//	        return nil
//	    },
//	}
//	report, err := halo.Launch(ctx, &cfg, halo.WithHooks(hooks))
func WithHooks(hooks *Hooks) Option {
	return func(o *solverOptions) {
		o.hooks = hooks
	}
}

// WithMetrics sets a metrics collector.
//
// Parameters:
//   - metrics: MetricsCollector implementation
//
// Returns:
//   - Option: Functional option
//
// Example:
//
//	collector := metrics.NewPrometheus(prometheus.DefaultRegisterer, "halo")
//	report, err := halo.Launch(ctx, &cfg, halo.WithMetrics(collector))
func WithMetrics(metrics MetricsCollector) Option {
	return func(o *solverOptions) {
		o.metrics = metrics
	}
}

// WithLogger sets a logger.
//
// Parameters:
//   - logger: Logger implementation (compatible with zap.SugaredLogger)
//
// Returns:
//   - Option: Functional option
//
// Example:
//
//	logger := logging.NewSlogDefault()
//	report, err := halo.Launch(ctx, &cfg, halo.WithLogger(logger))
func WithLogger(logger Logger) Option {
	return func(o *solverOptions) {
		o.logger = logger
	}
}

// WithInitialCondition sets how owned cells are filled before the first iteration.
// The default fills worker r's block with r+1.
func WithInitialCondition(ic InitialCondition) Option {
	return func(o *solverOptions) {
		o.initial = ic
	}
}

// WithOutput sets where rank 0 prints grids and timing. Defaults to os.Stdout.
// Pass io.Discard to silence output.
func WithOutput(w io.Writer) Option {
	return func(o *solverOptions) {
		o.output = w
	}
}

// WithNATSConn sets the NATS connection used by Launch when the transport kind is "nats".
func WithNATSConn(nc *nats.Conn) Option {
	return func(o *solverOptions) {
		o.conn = nc
	}
}
