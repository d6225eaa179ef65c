package listener

import (
	"errors"
	"sync"
	"sync/atomic"
	"time"

	"github.com/bft-labs/birdcall/pkg/log"
)

var (
	// ErrAlreadyRunning is returned when starting a server that is not stopped.
	ErrAlreadyRunning = errors.New("listener already running")
	// ErrNotRunning is returned when stopping a server that is not running.
	ErrNotRunning = errors.New("listener not running")
	// ErrShutdownTimeout is returned when in-flight uploads outlive the
	// shutdown timeout.
	ErrShutdownTimeout = errors.New("shutdown timeout waiting for uploads")
)

// State represents the lifecycle state of the listener.
type State int

const (
	StateStopped State = iota
	StateStarting
	StateRunning
	StateStopping
)

// String returns a human-readable representation of the state.
func (s State) String() string {
	switch s {
	case StateStopped:
		return "Stopped"
	case StateStarting:
		return "Starting"
	case StateRunning:
		return "Running"
	case StateStopping:
		return "Stopping"
	default:
		return "Unknown"
	}
}

// lifecycle guards state transitions and counts in-flight uploads.
type lifecycle struct {
	mu       sync.RWMutex
	state    State
	inflight sync.WaitGroup
	active   atomic.Int64
	logger   log.Logger
}

func newLifecycle(logger log.Logger) *lifecycle {
	return &lifecycle{state: StateStopped, logger: logger}
}

func (l *lifecycle) State() State {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.state
}

// transitionTo moves to next, rejecting transitions the state machine
// does not allow.
func (l *lifecycle) transitionTo(next State, reason string) error {
	l.mu.Lock()
	prev := l.state

	switch prev {
	case StateStopped:
		if next != StateStarting {
			l.mu.Unlock()
			return ErrNotRunning
		}
	case StateStarting:
		if next != StateRunning && next != StateStopped {
			l.mu.Unlock()
			return ErrAlreadyRunning
		}
	case StateRunning:
		if next != StateStopping {
			l.mu.Unlock()
			return ErrAlreadyRunning
		}
	case StateStopping:
		if next != StateStopped {
			l.mu.Unlock()
			return ErrAlreadyRunning
		}
	}

	l.state = next
	l.mu.Unlock()

	l.logger.Debug("state transition",
		log.String("from", prev.String()),
		log.String("to", next.String()),
		log.String("reason", reason),
	)
	return nil
}

// begin registers an in-flight upload. It fails once the listener has
// started stopping so no upload is added after the final wait begins.
func (l *lifecycle) begin() bool {
	l.mu.RLock()
	defer l.mu.RUnlock()
	if l.state != StateRunning {
		return false
	}
	l.inflight.Add(1)
	l.active.Add(1)
	return true
}

func (l *lifecycle) done() {
	l.active.Add(-1)
	l.inflight.Done()
}

// waitUntil waits for all in-flight uploads to finish or deadline to pass.
func (l *lifecycle) waitUntil(deadline time.Time) error {
	done := make(chan struct{})
	go func() {
		l.inflight.Wait()
		close(done)
	}()

	timer := time.NewTimer(time.Until(deadline))
	defer timer.Stop()

	select {
	case <-done:
		return nil
	case <-timer.C:
	}
	if l.active.Load() == 0 {
		return nil
	}
	return ErrShutdownTimeout
}
