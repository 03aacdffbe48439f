package dispatch

import (
	"sync"

	"github.com/hashicorp/go-hclog"
)

// Slot runs at most one named background job at a time.
type Slot struct {
	mu   sync.Mutex
	name string
	done chan struct{} // nil while idle
	log  hclog.Logger
}

// NewSlot creates an idle Slot. A nil logger is replaced with a no-op
// logger.
func NewSlot(log hclog.Logger) *Slot {
	if log == nil {
		log = hclog.NewNullLogger()
	}
	return &Slot{log: log}
}

// TryStart launches fn on a new goroutine if no job is active. While a
// job is running it reports false without starting anything.
func (s *Slot) TryStart(name string, fn func()) bool {
	s.mu.Lock()
	if s.done != nil {
		busy := s.name
		s.mu.Unlock()
		s.log.Debug("job slot busy", "running", busy, "rejected", name)
		return false
	}
	done := make(chan struct{})
	s.done = done
	s.name = name
	s.mu.Unlock()

	s.log.Debug("job started", "job", name)
	go func() {
		defer func() {
			s.mu.Lock()
			s.done = nil
			s.name = ""
			s.mu.Unlock()
			close(done)
			s.log.Debug("job finished", "job", name)
		}()
		fn()
	}()
	return true
}

// Active reports whether a job is currently running.
func (s *Slot) Active() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.done != nil
}

// Wait blocks until the current job, if any, finishes.
func (s *Slot) Wait() {
	s.mu.Lock()
	done := s.done
	s.mu.Unlock()
	if done == nil {
		return
	}
	<-done
}
