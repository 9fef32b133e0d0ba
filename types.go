package halo

import (
	"github.com/arloliu/halo/internal/display"
	"github.com/arloliu/halo/internal/partition"
	"github.com/arloliu/halo/types"
)

// Re-export types from the types package.
//
// The types subpackage holds the definitions so that internal packages can
// depend on them without importing the root halo package. These aliases keep
// halo.State, halo.Logger and friends available to users.
type (
	State     = types.State
	Phase     = types.Phase
	Direction = types.Direction
	Tag       = types.Tag
	Neighbors = types.Neighbors
	Message   = types.Message
)

// Re-export interfaces from the types package for convenience.
type (
	Comm             = types.Comm
	InitialCondition = types.InitialCondition
	MetricsCollector = types.MetricsCollector
	Logger           = types.Logger
	Hooks            = types.Hooks
)

// Re-export State constants.
const (
	StateInit         = types.StateInit
	StatePartitioning = types.StatePartitioning
	StateReady        = types.StateReady
	StateRunning      = types.StateRunning
	StateGathering    = types.StateGathering
	StateDone         = types.StateDone
	StateFailed       = types.StateFailed
)

// Re-export Phase constants.
const (
	PhaseIdle              = types.PhaseIdle
	PhaseExchangeIssued    = types.PhaseExchangeIssued
	PhaseInteriorComputed  = types.PhaseInteriorComputed
	PhaseExchangeCompleted = types.PhaseExchangeCompleted
	PhaseEdgeComputed      = types.PhaseEdgeComputed
)

// NoRank marks a missing neighbor.
const NoRank = types.NoRank

// Re-export solver data types from internal packages.
type (
	// Layout describes how the global grid is split over workers.
	Layout = partition.Layout

	// Snapshot is a gathered global grid.
	Snapshot = display.Snapshot
)
