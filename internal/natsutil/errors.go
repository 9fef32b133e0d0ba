// Package natsutil classifies NATS client errors for the transport layer.
package natsutil

import (
	"errors"
	"fmt"
	"strings"

	"github.com/arloliu/halo/types"
	"github.com/nats-io/nats.go"
	"github.com/nats-io/nats.go/jetstream"
)

// IsConnectivityError checks if an error is caused by connectivity issues.
//
// This includes NATS timeouts, connection refused, disconnections, etc.
//
// Kept in internal/natsutil to avoid importing NATS dependencies in types/ package.
//
// Parameters:
//   - err: Error to check
//
// Returns:
//   - bool: true if error indicates connectivity issue
func IsConnectivityError(err error) bool {
	if err == nil {
		return false
	}

	return errors.Is(err, nats.ErrTimeout) ||
		errors.Is(err, nats.ErrNoServers) ||
		errors.Is(err, nats.ErrDisconnected) ||
		errors.Is(err, nats.ErrConnectionClosed) ||
		errors.Is(err, nats.ErrConnectionDraining) ||
		errors.Is(err, jetstream.ErrNoStreamResponse) ||
		strings.Contains(err.Error(), "connection refused") ||
		strings.Contains(err.Error(), "i/o timeout")
}

// Wrap annotates a NATS error from op so that callers can test it with
// types.IsCommunicationError. A closed connection maps to ErrTransportClosed.
//
// Returns nil when err is nil.
func Wrap(op string, err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, nats.ErrConnectionClosed) || errors.Is(err, nats.ErrConnectionDraining) {
		return fmt.Errorf("%s: %w: %w", op, types.ErrTransportClosed, err)
	}
	if IsConnectivityError(err) {
		return fmt.Errorf("%s: %w: connectivity: %w", op, types.ErrCommunication, err)
	}

	return fmt.Errorf("%s: %w: %w", op, types.ErrCommunication, err)
}
