package utils

import (
	"context"
	"log"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"
)

const drainTimeout = 15 * time.Second

type closeHook struct {
	name string
	fn   func(context.Context) error
}

// ShutdownManager coordinates graceful teardown on SIGINT/SIGTERM.
// Hooks run in reverse registration order: the HTTP server, registered
// last, stops taking requests before the stores it depends on close.
type ShutdownManager struct {
	cancel context.CancelFunc
	mu     sync.Mutex
	hooks  []closeHook
	done   chan struct{}
}

func NewShutdownManager(ctx context.Context) (context.Context, *ShutdownManager) {
	ctx, cancel := context.WithCancel(ctx)
	return ctx, &ShutdownManager{
		cancel: cancel,
		done:   make(chan struct{}),
	}
}

// OnShutdown registers a named close hook. Not safe to call once the
// shutdown sequence has started.
func (sm *ShutdownManager) OnShutdown(name string, fn func(context.Context) error) {
	sm.mu.Lock()
	defer sm.mu.Unlock()
	sm.hooks = append(sm.hooks, closeHook{name: name, fn: fn})
}

// StartListening installs the signal handler. The process context is
// cancelled first so background loops stop before connections close.
func (sm *ShutdownManager) StartListening() {
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		sig := <-sigChan
		log.Printf("[SHUTDOWN] %v received, stopping", sig)
		sm.runHooks()
	}()
}

func (sm *ShutdownManager) runHooks() {
	sm.cancel()

	ctx, cancel := context.WithTimeout(context.Background(), drainTimeout)
	defer cancel()

	sm.mu.Lock()
	hooks := sm.hooks
	sm.mu.Unlock()

	for i := len(hooks) - 1; i >= 0; i-- {
		log.Printf("[SHUTDOWN] Closing %s", hooks[i].name)
		if err := hooks[i].fn(ctx); err != nil {
			log.Printf("[SHUTDOWN] %s close failed: %v", hooks[i].name, err)
		}
	}

	log.Println("[SHUTDOWN] Done")
	close(sm.done)
}

// Wait blocks until the shutdown sequence has run to the end.
func (sm *ShutdownManager) Wait() {
	<-sm.done
}
