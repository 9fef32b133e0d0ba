// Package testing provides test utilities for the halo solver.
//
// This package offers helpers for setting up test environments, particularly
// embedded NATS servers for exercising the NATS transport and rank claims. It
// follows Go's convention of providing testing utilities in a dedicated package
// (similar to net/http/httptest).
//
// Key utilities:
//   - StartEmbeddedNATS: Single NATS server with JetStream
//   - Connect: Extra client connection, one per emulated process
//   - CreateJetStreamKV: Convenience wrapper for KV bucket creation
//   - RunID: Per-test run identifier
//
// Example usage:
//
//	import (
//	    "testing"
//	    halotest "github.com/arloliu/halo/testing"
//	)
//
//	func TestMyComponent(t *testing.T) {
//	    _, nc := halotest.StartEmbeddedNATS(t)
//	    // Use nc for your tests
//	}
package testing
