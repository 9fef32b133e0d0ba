package hooks

import (
	"context"

	"github.com/arloliu/halo/types"
)

// NopHooks implements Hooks with no-op callbacks.
//
// This is the default implementation used when no custom hooks are provided,
// eliminating the need for nil checks throughout the codebase.
type NopHooks struct{}

// Compile-time assertions that NopHooks implements hook callbacks.
var (
	_ func(context.Context, int, types.State, types.State) error = (*NopHooks)(nil).OnStateChanged
	_ func(context.Context, int, int) error                      = (*NopHooks)(nil).OnIteration
	_ func(context.Context, int, error) error                    = (*NopHooks)(nil).OnError
)

// NewNop creates a new no-op hooks implementation.
//
// Returns:
//   - types.Hooks: Hooks with no-op implementations
func NewNop() types.Hooks {
	h := &NopHooks{}

	return types.Hooks{
		OnStateChanged: h.OnStateChanged,
		OnIteration:    h.OnIteration,
		OnError:        h.OnError,
	}
}

// Fill returns a copy of hooks with every nil callback replaced by its no-op.
func Fill(hooks *types.Hooks) types.Hooks {
	out := NewNop()
	if hooks == nil {
		return out
	}
	if hooks.OnStateChanged != nil {
		out.OnStateChanged = hooks.OnStateChanged
	}
	if hooks.OnIteration != nil {
		out.OnIteration = hooks.OnIteration
	}
	if hooks.OnError != nil {
		out.OnError = hooks.OnError
	}

	return out
}

// OnStateChanged is a no-op implementation.
func (h *NopHooks) OnStateChanged(_ context.Context, _ int, _, _ types.State) error {
	return nil
}

// OnIteration is a no-op implementation.
func (h *NopHooks) OnIteration(_ context.Context, _, _ int) error {
	return nil
}

// OnError is a no-op implementation.
func (h *NopHooks) OnError(_ context.Context, _ int, _ error) error {
	return nil
}
