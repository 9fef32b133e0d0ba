package natsutil

import (
	"fmt"
	"time"

	"github.com/nats-io/nats-server/v2/server"
)

// EmbeddedOptions configures an in-process NATS server.
type EmbeddedOptions struct {
	// StoreDir holds JetStream state. Required.
	StoreDir string

	// Port to listen on; -1 picks a random free port.
	Port int

	// ReadyTimeout bounds the wait for the server to accept connections.
	ReadyTimeout time.Duration

	// Quiet suppresses all server logging.
	Quiet bool
}

// StartEmbedded starts an in-process NATS server with JetStream enabled.
//
// The caller owns the returned server and must call Shutdown.
//
// Example:
//
//	ns, err := natsutil.StartEmbedded(natsutil.EmbeddedOptions{StoreDir: dir, Port: -1, Quiet: true})
//	if err != nil {
//	    return err
//	}
//	defer ns.Shutdown()
//	nc, err := nats.Connect(ns.ClientURL())
func StartEmbedded(opts EmbeddedOptions) (*server.Server, error) {
	if opts.ReadyTimeout <= 0 {
		opts.ReadyTimeout = 5 * time.Second
	}
	if opts.Port == 0 {
		opts.Port = -1
	}

	ns, err := server.NewServer(&server.Options{
		Host:      "127.0.0.1",
		Port:      opts.Port,
		JetStream: true,
		StoreDir:  opts.StoreDir,
		NoLog:     opts.Quiet,
		NoSigs:    true,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create embedded NATS server: %w", err)
	}

	if !opts.Quiet {
		ns.ConfigureLogger()
	}

	go ns.Start()

	if !ns.ReadyForConnections(opts.ReadyTimeout) {
		ns.Shutdown()
		return nil, fmt.Errorf("embedded NATS server not ready within %s", opts.ReadyTimeout)
	}

	return ns, nil
}
