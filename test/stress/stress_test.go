package stress_test

import (
	"context"
	"io"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/arloliu/halo"
	"github.com/arloliu/halo/internal/transport"
	halotest "github.com/arloliu/halo/testing"
)

// requireStressEnabled skips the test unless long stress tests are explicitly enabled.
//
// Enable by setting environment variable HALO_STRESS=1 when invoking `go test`.
// Example:
//
//	HALO_STRESS=1 go test -v -timeout 20m ./test/stress
func requireStressEnabled(t *testing.T) {
	t.Helper()
	if os.Getenv("HALO_STRESS") != "1" {
		t.Skip("Skipping long stress test (set HALO_STRESS=1 to run)")
	}
}

// TestStress_LargeLocalGroup runs many workers for many iterations with the
// smallest legal mailboxes and checks the result bit-for-bit.
func TestStress_LargeLocalGroup(t *testing.T) {
	requireStressEnabled(t)

	cfg := halo.TestConfig()
	cfg.GridSize, cfg.Workers, cfg.Iterations = 128, 64, 2_000
	cfg.Display.MaxGridSize = cfg.GridSize
	cfg.Transport.MailboxDepth = transport.MinDepth

	ctx, cancel := context.WithTimeout(t.Context(), 10*time.Minute)
	defer cancel()

	start := time.Now()
	report, err := halo.Launch(ctx, &cfg, halo.WithOutput(io.Discard))
	require.NoError(t, err)
	t.Logf("%s: %d iterations in %v (loop %v)", report.Layout, cfg.Iterations, time.Since(start), report.Root().Elapsed)

	serial, err := halo.Serial(&cfg, nil)
	require.NoError(t, err)
	require.Equal(t, serial.Checksum(), report.Root().Final.Checksum())
}

// TestStress_NATSGroup runs a 6×6 group over NATS.
func TestStress_NATSGroup(t *testing.T) {
	requireStressEnabled(t)

	_, nc := halotest.StartEmbeddedNATS(t)

	cfg := halo.TestConfig()
	cfg.GridSize, cfg.Workers, cfg.Iterations = 72, 36, 500
	cfg.Display.MaxGridSize = cfg.GridSize
	cfg.Transport.Kind = halo.TransportNATS
	cfg.Transport.NATS.RunID = halotest.RunID(t)
	cfg.StartupTimeout = time.Minute

	ctx, cancel := context.WithTimeout(t.Context(), 10*time.Minute)
	defer cancel()

	report, err := halo.Launch(ctx, &cfg, halo.WithNATSConn(nc), halo.WithOutput(io.Discard))
	require.NoError(t, err)

	serial, err := halo.Serial(&cfg, nil)
	require.NoError(t, err)
	require.Equal(t, serial.Checksum(), report.Root().Final.Checksum())
}
