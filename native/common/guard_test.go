package common

import (
	"errors"
	"testing"
)

type stubPauseView struct {
	modules map[string]bool
}

func (s stubPauseView) IsPaused(module string) bool {
	if s.modules == nil {
		return false
	}
	return s.modules[module]
}

func TestGuardBlocksPausedModule(t *testing.T) {
	pauses := stubPauseView{modules: map[string]bool{"vault": true}}
	if err := Guard(pauses, "vault"); !errors.Is(err, ErrModulePaused) {
		t.Fatalf("expected ErrModulePaused, got %v", err)
	}
	if err := Guard(pauses, "other"); err != nil {
		t.Fatalf("expected nil for unpaused module, got %v", err)
	}
	if err := Guard(nil, "vault"); err != nil {
		t.Fatalf("expected nil for nil pause view, got %v", err)
	}
}

func TestReentrancyGuardRejectsNestedAcquire(t *testing.T) {
	var guard ReentrancyGuard

	release, err := guard.Acquire()
	if err != nil {
		t.Fatalf("acquire: %v", err)
	}
	if _, err := guard.Acquire(); !errors.Is(err, ErrReentrantCall) {
		t.Fatalf("expected ErrReentrantCall, got %v", err)
	}
	release()

	release, err = guard.Acquire()
	if err != nil {
		t.Fatalf("acquire after release: %v", err)
	}
	release()
}
