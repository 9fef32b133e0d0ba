package halo

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"

	"github.com/arloliu/halo/internal/logging"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	require.Equal(t, 8, cfg.GridSize)
	require.Equal(t, 4, cfg.Workers)
	require.Equal(t, 10, cfg.Iterations)
	require.Equal(t, float32(0), cfg.BoundaryValue)
	require.False(t, cfg.Display.Disabled)
	require.Equal(t, 32, cfg.Display.MaxGridSize)
	require.Equal(t, TransportLocal, cfg.Transport.Kind)
	require.Equal(t, 0, cfg.Transport.MailboxDepth)
	require.Equal(t, "halo", cfg.Transport.NATS.SubjectPrefix)
	require.Equal(t, "heat", cfg.Transport.NATS.RunID)
	require.Equal(t, "halo-barrier", cfg.Transport.NATS.BarrierBucket)
	require.Equal(t, "halo-ranks", cfg.Transport.NATS.RankBucket)
	require.Equal(t, 30*time.Second, cfg.Transport.NATS.RankClaimTTL)
	require.Equal(t, time.Second, cfg.Transport.NATS.ProgressInterval)
	require.Equal(t, 30*time.Second, cfg.StartupTimeout)
	require.Equal(t, 10*time.Second, cfg.OperationTimeout)
	require.Equal(t, 10*time.Second, cfg.ShutdownTimeout)
	require.NoError(t, cfg.Validate())
}

func TestSetDefaults(t *testing.T) {
	t.Run("applies defaults to empty config", func(t *testing.T) {
		cfg := Config{}
		SetDefaults(&cfg)

		want := DefaultConfig()
		want.Iterations = 0
		require.Equal(t, want, cfg)
	})

	t.Run("preserves custom values", func(t *testing.T) {
		cfg := Config{
			GridSize:      12,
			Workers:       9,
			Iterations:    3,
			BoundaryValue: 1.5,
			Display:       DisplayConfig{Disabled: true, MaxGridSize: 64},
			Transport: TransportConfig{
				Kind:         TransportNATS,
				MailboxDepth: 7,
				NATS: NATSConfig{
					URL:           "nats://example:4222",
					SubjectPrefix: "sim",
					RunID:         "run-42",
					BarrierBucket: "b",
					RankBucket:    "r",
					RankClaimTTL:  time.Minute,

					ProgressInterval: 5 * time.Second,
				},
			},
			StartupTimeout:   time.Minute,
			OperationTimeout: 3 * time.Second,
			ShutdownTimeout:  4 * time.Second,
		}
		want := cfg
		SetDefaults(&cfg)

		require.Equal(t, want, cfg)
	})

	t.Run("leaves mailbox depth on auto", func(t *testing.T) {
		cfg := Config{}
		SetDefaults(&cfg)

		require.Equal(t, 0, cfg.Transport.MailboxDepth)
	})
}

func TestConfig_Validate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"zero grid size", func(c *Config) { c.GridSize = 0 }},
		{"negative grid size", func(c *Config) { c.GridSize = -8 }},
		{"zero workers", func(c *Config) { c.Workers = 0 }},
		{"negative iterations", func(c *Config) { c.Iterations = -1 }},
		{"negative display limit", func(c *Config) { c.Display.MaxGridSize = -1 }},
		{"unknown transport", func(c *Config) { c.Transport.Kind = "mpi" }},
		{"mailbox depth of one", func(c *Config) { c.Transport.MailboxDepth = 1 }},
		{"negative mailbox depth", func(c *Config) { c.Transport.MailboxDepth = -3 }},
		{"zero startup timeout", func(c *Config) { c.StartupTimeout = 0 }},
		{"negative shutdown timeout", func(c *Config) { c.ShutdownTimeout = -time.Second }},
		{"short rank ttl on nats", func(c *Config) {
			c.Transport.Kind = TransportNATS
			c.Transport.NATS.RankClaimTTL = time.Second
		}},
		{"negative progress interval on nats", func(c *Config) {
			c.Transport.Kind = TransportNATS
			c.Transport.NATS.ProgressInterval = -time.Second
		}},
		{"progress interval beyond rank ttl", func(c *Config) {
			c.Transport.Kind = TransportNATS
			c.Transport.NATS.ProgressInterval = time.Minute
		}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.mutate(&cfg)

			err := cfg.Validate()
			require.ErrorIs(t, err, ErrInvalidConfig)
		})
	}

	t.Run("topology is not checked", func(t *testing.T) {
		cfg := DefaultConfig()
		cfg.Workers = 3

		require.NoError(t, cfg.Validate())
	})

	t.Run("zero iterations is kept", func(t *testing.T) {
		cfg := DefaultConfig()
		cfg.Iterations = 0
		SetDefaults(&cfg)

		require.Zero(t, cfg.Iterations)
		require.NoError(t, cfg.Validate())
	})

	t.Run("short rank ttl ignored on local transport", func(t *testing.T) {
		cfg := DefaultConfig()
		cfg.Transport.NATS.RankClaimTTL = time.Second

		require.NoError(t, cfg.Validate())
	})
}

func TestConfig_ValidateWithWarnings(t *testing.T) {
	t.Run("warns when grid is too big to display", func(t *testing.T) {
		logger := logging.NewTest(t)
		cfg := DefaultConfig()
		cfg.GridSize = 64

		cfg.ValidateWithWarnings(logger)

		require.Equal(t, 1, logger.Count("WARN", "display limit"))
	})

	t.Run("warns on small mailbox depth", func(t *testing.T) {
		logger := logging.NewTest(t)
		cfg := DefaultConfig()
		cfg.GridSize = 16
		cfg.Transport.MailboxDepth = 2

		cfg.ValidateWithWarnings(logger)

		require.Equal(t, 1, logger.Count("WARN", "mailbox depth"))
	})

	t.Run("warns on default run id with nats", func(t *testing.T) {
		logger := logging.NewTest(t)
		cfg := DefaultConfig()
		cfg.Transport.Kind = TransportNATS

		cfg.ValidateWithWarnings(logger)

		require.Equal(t, 1, logger.Count("WARN", "run ID"))
	})

	t.Run("quiet for defaults", func(t *testing.T) {
		logger := logging.NewTest(t)
		cfg := DefaultConfig()

		cfg.ValidateWithWarnings(logger)

		require.Empty(t, logger.Entries())
	})
}

func TestConfig_EffectiveMailboxDepth(t *testing.T) {
	cfg := DefaultConfig()
	require.Equal(t, 4, cfg.EffectiveMailboxDepth(1))
	require.Equal(t, 4, cfg.EffectiveMailboxDepth(2))
	require.Equal(t, 10, cfg.EffectiveMailboxDepth(8))

	cfg.Transport.MailboxDepth = 3
	require.Equal(t, 3, cfg.EffectiveMailboxDepth(8))
}

func TestConfig_DisplayEnabled(t *testing.T) {
	cfg := DefaultConfig()
	require.True(t, cfg.DisplayEnabled())

	cfg.GridSize = 32
	require.True(t, cfg.DisplayEnabled())

	cfg.GridSize = 33
	require.False(t, cfg.DisplayEnabled())

	cfg.GridSize = 8
	cfg.Display.Disabled = true
	require.False(t, cfg.DisplayEnabled())
}

func TestTestConfig(t *testing.T) {
	cfg := TestConfig()

	require.NoError(t, cfg.Validate())
	require.Less(t, cfg.StartupTimeout, DefaultConfig().StartupTimeout)
	require.Equal(t, 3*time.Second, cfg.Transport.NATS.RankClaimTTL)
}

func TestConfig_YAML(t *testing.T) {
	yamlConfig := `
gridSize: 16
workers: 16
iterations: 25
boundaryValue: 2.5
display:
  maxGridSize: 20
transport:
  kind: nats
  mailboxDepth: 6
  nats:
    url: nats://127.0.0.1:4222
    runId: yaml-run
    rankClaimTtl: 45s
startupTimeout: 1m
`

	t.Run("unmarshal", func(t *testing.T) {
		var cfg Config
		err := yaml.Unmarshal([]byte(yamlConfig), &cfg)
		require.NoError(t, err)

		require.Equal(t, 16, cfg.GridSize)
		require.Equal(t, 16, cfg.Workers)
		require.Equal(t, 25, cfg.Iterations)
		require.Equal(t, float32(2.5), cfg.BoundaryValue)
		require.Equal(t, 20, cfg.Display.MaxGridSize)
		require.Equal(t, TransportNATS, cfg.Transport.Kind)
		require.Equal(t, 6, cfg.Transport.MailboxDepth)
		require.Equal(t, "nats://127.0.0.1:4222", cfg.Transport.NATS.URL)
		require.Equal(t, "yaml-run", cfg.Transport.NATS.RunID)
		require.Equal(t, 45*time.Second, cfg.Transport.NATS.RankClaimTTL)
		require.Equal(t, time.Minute, cfg.StartupTimeout)
	})

	t.Run("parse applies defaults", func(t *testing.T) {
		cfg, err := ParseConfig([]byte(yamlConfig))
		require.NoError(t, err)

		require.Equal(t, "halo", cfg.Transport.NATS.SubjectPrefix)
		require.Equal(t, "halo-barrier", cfg.Transport.NATS.BarrierBucket)
		require.Equal(t, 10*time.Second, cfg.ShutdownTimeout)
	})

	t.Run("parse keeps default iterations when omitted", func(t *testing.T) {
		cfg, err := ParseConfig([]byte("gridSize: 12\nworkers: 9\n"))
		require.NoError(t, err)
		require.Equal(t, 10, cfg.Iterations)

		cfg, err = ParseConfig([]byte("iterations: 0\n"))
		require.NoError(t, err)
		require.Zero(t, cfg.Iterations)
	})

	t.Run("parse rejects invalid values", func(t *testing.T) {
		_, err := ParseConfig([]byte("transport:\n  mailboxDepth: 1\n"))
		require.ErrorIs(t, err, ErrInvalidConfig)
	})

	t.Run("parse rejects malformed yaml", func(t *testing.T) {
		_, err := ParseConfig([]byte("gridSize: [1, 2"))
		require.ErrorIs(t, err, ErrInvalidConfig)
	})

	t.Run("load from file", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "heat.yaml")
		require.NoError(t, os.WriteFile(path, []byte(yamlConfig), 0o600))

		cfg, err := LoadConfig(path)
		require.NoError(t, err)
		require.Equal(t, 16, cfg.GridSize)
	})

	t.Run("load missing file", func(t *testing.T) {
		_, err := LoadConfig(filepath.Join(t.TempDir(), "missing.yaml"))
		require.Error(t, err)
	})
}
