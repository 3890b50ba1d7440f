package common

import (
	"errors"
	"sync/atomic"
)

var (
	ErrModulePaused  = errors.New("module paused")
	ErrReentrantCall = errors.New("reentrant call")
)

type PauseView interface {
	IsPaused(module string) bool
}

func Guard(p PauseView, module string) error {
	if p == nil || module == "" {
		return nil
	}
	if p.IsPaused(module) {
		return ErrModulePaused
	}
	return nil
}

// ReentrancyGuard provides a non-blocking mutual exclusion scope for
// state-mutating operations. External collaborators (token transfers) may
// call back into the engine before an operation completes; a reentrant entry
// fails with ErrReentrantCall instead of deadlocking.
type ReentrancyGuard struct {
	entered atomic.Bool
}

// Acquire takes the guard and returns the release function. The caller must
// defer the release so it runs on every exit path, including failures.
func (g *ReentrancyGuard) Acquire() (func(), error) {
	if !g.entered.CompareAndSwap(false, true) {
		return nil, ErrReentrantCall
	}
	return func() { g.entered.Store(false) }, nil
}
