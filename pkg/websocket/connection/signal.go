package connection

import (
	"sync"
	"time"
)

// signal is a resettable event: Fire releases all current and future
// waiters until Reset arms it again.
type signal struct {
	mu sync.Mutex
	ch chan struct{}
}

func newSignal() *signal {
	return &signal{ch: make(chan struct{})}
}

func (s *signal) Fire() {
	s.mu.Lock()
	defer s.mu.Unlock()
	select {
	case <-s.ch:
		// already fired
	default:
		close(s.ch)
	}
}

func (s *signal) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	select {
	case <-s.ch:
		s.ch = make(chan struct{})
	default:
	}
}

// Wait blocks until the signal fires or the timeout elapses. Returns true
// when the signal fired within the window.
func (s *signal) Wait(timeout time.Duration) bool {
	s.mu.Lock()
	ch := s.ch
	s.mu.Unlock()

	select {
	case <-ch:
		return true
	default:
	}

	timer := time.NewTimer(timeout)
	defer timer.Stop()

	select {
	case <-ch:
		return true
	case <-timer.C:
		return false
	}
}
