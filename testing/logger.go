package testing

import (
	"testing"

	"github.com/arloliu/halo/internal/logging"
	"github.com/arloliu/halo/types"
)

// NewTestLogger creates a logger that writes to t.Log.
// This is useful for seeing log output during test runs.
func NewTestLogger(t *testing.T) types.Logger {
	return logging.NewTest(t)
}
