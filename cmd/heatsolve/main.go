// Package main runs the halo heat-equation solver from a YAML configuration.
//
// Modes:
//   - group:  run every worker in this process (default)
//   - worker: run one worker of a multi-process NATS group; start
//     cfg.workers processes with the same configuration
//
// With transport.kind "nats" and an empty transport.nats.url, group mode
// starts an embedded NATS server.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/nats-io/nats.go"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/arloliu/halo"
	"github.com/arloliu/halo/internal/logging"
	"github.com/arloliu/halo/internal/metrics"
	"github.com/arloliu/halo/internal/natsutil"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run() error {
	configPath := flag.String("config", "", "Path to YAML configuration file (defaults when empty)")
	mode := flag.String("mode", "group", "Run mode: group or worker")
	verbose := flag.Bool("v", false, "Enable debug logging")
	flag.Parse()

	level := slog.LevelWarn
	if *verbose {
		level = slog.LevelDebug
	}
	logger := logging.NewSlogText(level)

	cfg, err := loadConfig(*configPath)
	if err != nil {
		return err
	}
	cfg.ValidateWithWarnings(logger)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	opts := []halo.Option{halo.WithLogger(logger)}

	if cfg.Metrics.ListenAddr != "" {
		srv, err := metrics.NewServer(cfg.Metrics.ListenAddr, prometheus.DefaultGatherer)
		if err != nil {
			return err
		}
		go func() {
			if err := srv.Serve(ctx); err != nil {
				logger.Error("metrics server failed", "error", err)
			}
		}()
		logger.Info("serving metrics", "addr", srv.Addr())

		opts = append(opts, halo.WithMetrics(metrics.NewPrometheus(prometheus.DefaultRegisterer, "halo")))
	}

	switch *mode {
	case "group":
		return runGroup(ctx, cfg, logger, opts)
	case "worker":
		return runWorker(ctx, cfg, opts)
	default:
		return fmt.Errorf("unknown mode %q (want group or worker)", *mode)
	}
}

func loadConfig(path string) (*halo.Config, error) {
	if path == "" {
		cfg := halo.DefaultConfig()
		return &cfg, nil
	}

	return halo.LoadConfig(path)
}

func runGroup(ctx context.Context, cfg *halo.Config, logger *logging.SlogLogger, opts []halo.Option) error {
	if cfg.Transport.Kind == halo.TransportNATS && cfg.Transport.NATS.URL == "" {
		storeDir, err := os.MkdirTemp("", "heatsolve-nats-")
		if err != nil {
			return fmt.Errorf("failed to create NATS store directory: %w", err)
		}
		defer os.RemoveAll(storeDir)

		ns, err := natsutil.StartEmbedded(natsutil.EmbeddedOptions{StoreDir: storeDir, Port: -1, Quiet: true})
		if err != nil {
			return err
		}
		defer ns.Shutdown()

		logger.Info("started embedded NATS server", "url", ns.ClientURL())
		cfg.Transport.NATS.URL = ns.ClientURL()
	}

	_, err := halo.Launch(ctx, cfg, opts...)

	return err
}

func runWorker(ctx context.Context, cfg *halo.Config, opts []halo.Option) error {
	if cfg.Transport.NATS.URL == "" {
		return errors.New("worker mode needs transport.nats.url")
	}
	cfg.Transport.Kind = halo.TransportNATS

	nc, err := nats.Connect(cfg.Transport.NATS.URL, nats.Name("heatsolve-"+cfg.Transport.NATS.RunID))
	if err != nil {
		return fmt.Errorf("failed to connect to NATS: %w", err)
	}
	defer nc.Close()

	_, err = halo.Join(ctx, cfg, nc, opts...)

	return err
}
