package types

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestSentinelErrors(t *testing.T) {
	t.Run("errors.Is works correctly", func(t *testing.T) {
		require.True(t, errors.Is(ErrNotPerfectSquare, ErrNotPerfectSquare))
		require.False(t, errors.Is(ErrNotPerfectSquare, ErrGridNotDivisible))

		wrapped := fmt.Errorf("rank 3: %w", ErrGridNotDivisible)
		require.True(t, errors.Is(wrapped, ErrGridNotDivisible))
		require.True(t, errors.Is(wrapped, ErrTopology))
	})

	t.Run("leaf errors are distinct", func(t *testing.T) {
		allErrors := []error{
			ErrInvalidConfig,
			ErrCommRequired,
			ErrNATSConnectionRequired,
			ErrAlreadyStarted,
			ErrNotPerfectSquare,
			ErrGridNotDivisible,
			ErrInvalidGridSize,
			ErrInvalidWorkerCount,
			ErrUnknownRank,
			ErrGridAllocation,
			ErrSizeMismatch,
			ErrIterationMismatch,
			ErrTransportClosed,
			ErrMalformedMessage,
			ErrNoAvailableRank,
		}

		for i, err1 := range allErrors {
			for j, err2 := range allErrors {
				if i == j {
					require.True(t, errors.Is(err1, err2), "error should equal itself: %v", err1)
				} else {
					require.False(t, errors.Is(err1, err2), "errors should be distinct: %v vs %v", err1, err2)
				}
			}
		}
	})
}

func TestErrorClasses(t *testing.T) {
	require.True(t, IsTopologyError(ErrNotPerfectSquare))
	require.True(t, IsTopologyError(fmt.Errorf("wrapped: %w", ErrInvalidGridSize)))
	require.False(t, IsTopologyError(ErrSizeMismatch))
	require.False(t, IsTopologyError(nil))

	require.True(t, IsCommunicationError(ErrIterationMismatch))
	require.True(t, IsCommunicationError(fmt.Errorf("recv: %w", ErrTransportClosed)))
	require.False(t, IsCommunicationError(ErrGridAllocation))
	require.False(t, IsCommunicationError(nil))
}

func TestTopologyErrorMessages(t *testing.T) {
	require.Contains(t, ErrNotPerfectSquare.Error(), "worker count must be a perfect square")
	require.Contains(t, ErrGridNotDivisible.Error(), "grid dimension must be divisible by processes-per-side")
}
