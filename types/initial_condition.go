package types

// InitialCondition supplies the starting value of each owned grid cell.
//
// Implementations must be pure functions of their arguments so that every
// worker, and any serial reference run, computes the same values.
type InitialCondition interface {
	// Value returns the initial value for the cell at the given global
	// coordinates (0-based, excluding the boundary) owned by rank.
	Value(rank, globalRow, globalCol int) float32
}
