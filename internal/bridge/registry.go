package bridge

import (
	"errors"
	"sync"
)

var ErrNotRegistered = errors.New("bridge: no NativeBridge registered")

var (
	mu     sync.RWMutex
	global NativeBridge
)

// Register is called by the host shell before the service starts. Passing
// nil unregisters it.
func Register(b NativeBridge) {
	mu.Lock()
	global = b
	mu.Unlock()
}

// Safe returns the registered bridge, or ErrNotRegistered.
func Safe() (NativeBridge, error) {
	mu.RLock()
	defer mu.RUnlock()
	if global == nil {
		return nil, ErrNotRegistered
	}
	return global, nil
}
