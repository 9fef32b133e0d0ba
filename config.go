package halo

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/arloliu/halo/internal/partition"
	"github.com/arloliu/halo/internal/transport"
)

// TransportKind selects how workers communicate.
type TransportKind string

const (
	// TransportLocal runs every worker as a goroutine of one process.
	TransportLocal TransportKind = "local"

	// TransportNATS exchanges messages over NATS subjects with a JetStream KV barrier.
	TransportNATS TransportKind = "nats"
)

// DisplayConfig controls printing of the initial and final grids.
type DisplayConfig struct {
	// Disabled skips gathering and printing entirely.
	Disabled bool `yaml:"disabled"`

	// MaxGridSize is the largest grid dimension that is gathered and printed.
	// Larger grids print "Not displaying grid; too big." instead.
	MaxGridSize int `yaml:"maxGridSize"`
}

// NATSConfig configures the NATS transport.
type NATSConfig struct {
	// URL of the NATS server. The heatsolve binary starts an embedded server when empty.
	URL string `yaml:"url"`

	// SubjectPrefix is the first token of every message subject.
	SubjectPrefix string `yaml:"subjectPrefix"`

	// RunID identifies one run. All workers of a run must share it; concurrent
	// runs on one server must differ.
	RunID string `yaml:"runId"`

	// BarrierBucket is the KV bucket holding barrier arrivals.
	BarrierBucket string `yaml:"barrierBucket"`

	// RankBucket is the KV bucket holding rank leases for worker mode.
	RankBucket string `yaml:"rankBucket"`

	// RankClaimTTL is the lease TTL of a claimed rank. Leases renew every TTL/3.
	RankClaimTTL time.Duration `yaml:"rankClaimTtl"`

	// ProgressInterval is how often a joined worker publishes its iteration
	// count to the rank bucket.
	ProgressInterval time.Duration `yaml:"progressInterval"`
}

// TransportConfig configures worker communication.
type TransportConfig struct {
	// Kind is "local" (default) or "nats".
	Kind TransportKind `yaml:"kind"`

	// MailboxDepth is the number of undelivered messages a link buffers.
	// 0 selects max(4, ℓ+2). Values below 2 are rejected.
	MailboxDepth int `yaml:"mailboxDepth"`

	NATS NATSConfig `yaml:"nats"`
}

// MetricsConfig configures the metrics endpoint of the heatsolve binary.
type MetricsConfig struct {
	// ListenAddr serves /metrics and /health when non-empty (e.g. ":9090").
	ListenAddr string `yaml:"listenAddr"`
}

// Config is the configuration for a solver run.
//
// All duration fields accept standard Go duration strings like "30s", "5m", "1h".
type Config struct {
	// GridSize is the global grid dimension L.
	GridSize int `yaml:"gridSize"`

	// Workers is the number of workers P. Must be a perfect square whose root divides GridSize.
	Workers int `yaml:"workers"`

	// Iterations is the number of Jacobi iterations. 0 runs none, so the
	// final grid equals the initial one. Omitted in YAML, it keeps the default.
	Iterations int `yaml:"iterations"`

	// BoundaryValue is the fixed temperature outside the grid.
	BoundaryValue float32 `yaml:"boundaryValue"`

	// Display controls grid printing on rank 0.
	Display DisplayConfig `yaml:"display"`

	// Transport controls worker communication.
	Transport TransportConfig `yaml:"transport"`

	// StartupTimeout bounds transport setup, rank claiming and the startup barrier.
	StartupTimeout time.Duration `yaml:"startupTimeout"`

	// OperationTimeout bounds individual KV operations.
	OperationTimeout time.Duration `yaml:"operationTimeout"`

	// ShutdownTimeout bounds the teardown barrier and releasing resources.
	ShutdownTimeout time.Duration `yaml:"shutdownTimeout"`

	// Metrics configures the metrics endpoint.
	Metrics MetricsConfig `yaml:"metrics"`
}

// DefaultConfig returns a Config with sensible defaults.
//
// Returns:
//   - Config: 8×8 grid over 4 workers, 10 iterations, zero boundary
func DefaultConfig() Config {
	return Config{
		GridSize:      8,
		Workers:       4,
		Iterations:    10,
		BoundaryValue: 0,
		Display: DisplayConfig{
			MaxGridSize: 32,
		},
		Transport: TransportConfig{
			Kind: TransportLocal,
			NATS: NATSConfig{
				SubjectPrefix: "halo",
				RunID:         "heat",
				BarrierBucket: "halo-barrier",
				RankBucket:    "halo-ranks",
				RankClaimTTL:  30 * time.Second,

				ProgressInterval: time.Second,
			},
		},
		StartupTimeout:   30 * time.Second,
		OperationTimeout: 10 * time.Second,
		ShutdownTimeout:  10 * time.Second,
	}
}

// SetDefaults fills in missing configuration values with defaults.
//
// Iterations is left alone because 0 is a meaningful count.
//
// Parameters:
//   - cfg: Config to apply defaults to (modified in place)
func SetDefaults(cfg *Config) {
	defaults := DefaultConfig()

	if cfg.GridSize == 0 {
		cfg.GridSize = defaults.GridSize
	}
	if cfg.Workers == 0 {
		cfg.Workers = defaults.Workers
	}
	if cfg.Display.MaxGridSize == 0 {
		cfg.Display.MaxGridSize = defaults.Display.MaxGridSize
	}
	if cfg.Transport.Kind == "" {
		cfg.Transport.Kind = defaults.Transport.Kind
	}
	// MailboxDepth of 0 is resolved per layout by EffectiveMailboxDepth.
	n, dn := &cfg.Transport.NATS, defaults.Transport.NATS
	if n.SubjectPrefix == "" {
		n.SubjectPrefix = dn.SubjectPrefix
	}
	if n.RunID == "" {
		n.RunID = dn.RunID
	}
	if n.BarrierBucket == "" {
		n.BarrierBucket = dn.BarrierBucket
	}
	if n.RankBucket == "" {
		n.RankBucket = dn.RankBucket
	}
	if n.RankClaimTTL == 0 {
		n.RankClaimTTL = dn.RankClaimTTL
	}
	if n.ProgressInterval == 0 {
		n.ProgressInterval = dn.ProgressInterval
	}
	if cfg.StartupTimeout == 0 {
		cfg.StartupTimeout = defaults.StartupTimeout
	}
	if cfg.OperationTimeout == 0 {
		cfg.OperationTimeout = defaults.OperationTimeout
	}
	if cfg.ShutdownTimeout == 0 {
		cfg.ShutdownTimeout = defaults.ShutdownTimeout
	}
}

// Validate checks configuration constraints and returns an error wrapping
// ErrInvalidConfig for invalid values.
//
// Worker topology (perfect square, divisibility) is not checked here; every
// worker checks it independently when it starts, see Solver.Run.
//
// Hard Validation Rules:
//   - GridSize > 0, Workers > 0, Iterations >= 0
//   - Display.MaxGridSize >= 0
//   - Transport.Kind is "local" or "nats"
//   - Transport.MailboxDepth is 0 (auto) or >= 2
//   - Timeouts > 0
//   - RankClaimTTL >= 3s (renewal every TTL/3 must stay above 1s)
//   - 0 < ProgressInterval < RankClaimTTL
//
// Returns:
//   - error: Validation error with clear explanation, nil if valid
func (cfg *Config) Validate() error {
	if cfg.GridSize <= 0 {
		return fmt.Errorf("%w: gridSize must be > 0, got %d", ErrInvalidConfig, cfg.GridSize)
	}
	if cfg.Workers <= 0 {
		return fmt.Errorf("%w: workers must be > 0, got %d", ErrInvalidConfig, cfg.Workers)
	}
	if cfg.Iterations < 0 {
		return fmt.Errorf("%w: iterations must be >= 0, got %d", ErrInvalidConfig, cfg.Iterations)
	}
	if cfg.Display.MaxGridSize < 0 {
		return fmt.Errorf("%w: display.maxGridSize must be >= 0, got %d", ErrInvalidConfig, cfg.Display.MaxGridSize)
	}

	switch cfg.Transport.Kind {
	case TransportLocal, TransportNATS:
	default:
		return fmt.Errorf("%w: transport.kind must be %q or %q, got %q",
			ErrInvalidConfig, TransportLocal, TransportNATS, cfg.Transport.Kind)
	}

	if d := cfg.Transport.MailboxDepth; d != 0 && d < transport.MinDepth {
		return fmt.Errorf("%w: transport.mailboxDepth (%d) must be >= %d so halo sends never deadlock",
			ErrInvalidConfig, d, transport.MinDepth)
	}

	if cfg.StartupTimeout <= 0 || cfg.OperationTimeout <= 0 || cfg.ShutdownTimeout <= 0 {
		return fmt.Errorf("%w: timeouts must be > 0 (startup %v, operation %v, shutdown %v)",
			ErrInvalidConfig, cfg.StartupTimeout, cfg.OperationTimeout, cfg.ShutdownTimeout)
	}

	if cfg.Transport.Kind == TransportNATS {
		n := cfg.Transport.NATS
		if n.RankClaimTTL < 3*time.Second {
			return fmt.Errorf("%w: transport.nats.rankClaimTtl (%v) must be >= 3s", ErrInvalidConfig, n.RankClaimTTL)
		}
		if n.ProgressInterval <= 0 || n.ProgressInterval >= n.RankClaimTTL {
			return fmt.Errorf("%w: transport.nats.progressInterval (%v) must be > 0 and < rankClaimTtl (%v)",
				ErrInvalidConfig, n.ProgressInterval, n.RankClaimTTL)
		}
	}

	return nil
}

// ValidateWithWarnings logs warnings for valid but questionable values.
//
// Parameters:
//   - logger: Logger instance for warning output
func (cfg *Config) ValidateWithWarnings(logger Logger) {
	if !cfg.Display.Disabled && cfg.GridSize > cfg.Display.MaxGridSize {
		logger.Warn(
			"grid exceeds display limit and will not be printed",
			"grid_size", cfg.GridSize,
			"max_grid_size", cfg.Display.MaxGridSize,
		)
	}

	if layout, err := partition.New(cfg.GridSize, cfg.Workers); err == nil {
		if d := cfg.Transport.MailboxDepth; d != 0 && d < layout.Local {
			logger.Warn(
				"mailbox depth below local block size; display senders will wait on rank 0",
				"mailbox_depth", d,
				"local", layout.Local,
				"recommended", cfg.EffectiveMailboxDepth(layout.Local),
			)
		}
	}

	if cfg.Transport.Kind == TransportNATS && cfg.Transport.NATS.RunID == DefaultConfig().Transport.NATS.RunID {
		logger.Warn(
			"using the default run ID; concurrent runs on one NATS server will collide",
			"run_id", cfg.Transport.NATS.RunID,
		)
	}
}

// EffectiveMailboxDepth returns the configured mailbox depth, or max(4, local+2) when unset.
func (cfg *Config) EffectiveMailboxDepth(local int) int {
	if cfg.Transport.MailboxDepth != 0 {
		return cfg.Transport.MailboxDepth
	}

	return max(4, local+2)
}

// DisplayEnabled reports whether grids of this run are gathered and printed.
func (cfg *Config) DisplayEnabled() bool {
	return !cfg.Display.Disabled && cfg.GridSize <= cfg.Display.MaxGridSize
}

// TestConfig returns a configuration optimized for fast test execution.
//
// Timeouts are short so that a hung exchange fails the test quickly. Use
// DefaultConfig() for real runs.
//
// Returns:
//   - Config: Configuration with fast timings for tests
//
// Example:
//
//	cfg := halo.TestConfig()
//	cfg.GridSize, cfg.Workers = 12, 9
//	report, err := halo.Launch(ctx, &cfg, halo.WithOutput(io.Discard))
func TestConfig() Config {
	cfg := DefaultConfig()

	cfg.StartupTimeout = 5 * time.Second
	cfg.OperationTimeout = 2 * time.Second
	cfg.ShutdownTimeout = 2 * time.Second
	cfg.Transport.NATS.RankClaimTTL = 3 * time.Second
	cfg.Transport.NATS.ProgressInterval = 100 * time.Millisecond

	return cfg
}

// LoadConfig reads a YAML configuration file, applies defaults and validates it.
//
// Parameters:
//   - path: Path to the YAML file
//
// Returns:
//   - *Config: The loaded configuration
//   - error: Read, parse or validation error
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	return ParseConfig(data)
}

// ParseConfig parses YAML configuration bytes over DefaultConfig, applies
// defaults to zeroed fields and validates the result.
func ParseConfig(data []byte) (*Config, error) {
	cfg := DefaultConfig()
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("%w: failed to parse config: %w", ErrInvalidConfig, err)
	}

	SetDefaults(&cfg)
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}
