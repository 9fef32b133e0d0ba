// Package source provides built-in initial conditions for the solver.
//
// An initial condition assigns a starting temperature to every owned cell.
// The package includes:
//
//   - RankFill: every cell of worker r starts at r+1
//   - Uniform: every cell starts at the same value
//   - Static: values read from a fixed global matrix
//   - Func: values computed from global coordinates
//
// Custom conditions can be implemented by satisfying the types.InitialCondition interface.
package source
