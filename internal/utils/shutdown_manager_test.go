package utils

import (
	"context"
	"errors"
	"testing"
	"time"
)

func TestShutdownManager_ReverseHookOrder(t *testing.T) {
	ctx, sm := NewShutdownManager(context.Background())

	var order []string
	for _, name := range []string{"mongo", "redis", "server"} {
		hookName := name
		sm.OnShutdown(hookName, func(context.Context) error {
			order = append(order, hookName)
			return nil
		})
	}

	sm.runHooks()

	want := []string{"server", "redis", "mongo"}
	if len(order) != len(want) {
		t.Fatalf("ran %d hooks, want %d", len(order), len(want))
	}
	for i := range want {
		if order[i] != want[i] {
			t.Errorf("hook %d = %s, want %s", i, order[i], want[i])
		}
	}

	select {
	case <-ctx.Done():
	default:
		t.Error("process context not cancelled during shutdown")
	}
}

func TestShutdownManager_FailingHookDoesNotStopOthers(t *testing.T) {
	_, sm := NewShutdownManager(context.Background())

	ran := false
	sm.OnShutdown("store", func(context.Context) error {
		ran = true
		return nil
	})
	sm.OnShutdown("server", func(context.Context) error {
		return errors.New("listener already closed")
	})

	sm.runHooks()

	if !ran {
		t.Error("hook after a failing one did not run")
	}

	select {
	case <-sm.done:
	case <-time.After(time.Second):
		t.Error("Wait would block after all hooks ran")
	}
}
