// Package cleanup collects teardown hooks (temp files, open clients, the
// mock server) that must run when a command exits.
package cleanup

import (
	"errors"
	"fmt"
	"sync"
)

type hook struct {
	name string
	fn   func() error
}

var (
	mu    sync.Mutex
	hooks []hook
)

// Register adds a hook executed in LIFO order.
func Register(name string, fn func() error) {
	if fn == nil {
		return
	}
	mu.Lock()
	hooks = append(hooks, hook{name: name, fn: fn})
	mu.Unlock()
}

// Pending reports how many hooks are registered.
func Pending() int {
	mu.Lock()
	defer mu.Unlock()
	return len(hooks)
}

// RunAll executes and clears every hook, joining their errors.
func RunAll() error {
	mu.Lock()
	local := hooks
	hooks = nil
	mu.Unlock()

	var errs []error
	for i := len(local) - 1; i >= 0; i-- {
		if err := local[i].fn(); err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", local[i].name, err))
		}
	}
	if len(errs) == 0 {
		return nil
	}
	return fmt.Errorf("cleanup failed: %w", errors.Join(errs...))
}
