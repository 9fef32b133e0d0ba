// Package types provides core type definitions and interfaces for the halo solver.
//
// This package contains shared types that are used across multiple packages in the
// halo module. By keeping these types in a separate package, internal packages can
// depend on them without importing the root halo package.
//
// Key types:
//   - State: Solver lifecycle state
//   - Phase: Per-iteration exchange/update phase
//   - Neighbors, Direction, Tag: Rank topology and message addressing
//   - Comm, Message: Point-to-point transport used by a worker
//   - InitialCondition: Source of initial owned-cell values
//   - Logger: Structured logging interface
//   - MetricsCollector: Metrics recording interface
package types
