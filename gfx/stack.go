package gfx

import (
	"sync"

	log "github.com/sirupsen/logrus"
)

type release struct {
	name string
	fn   func()
}

// Stack records release functions in creation order and runs
// them in reverse. Each function runs at most once.
type Stack struct {
	mutex    sync.Mutex
	releases []release
}

// Push records fn to be run when the stack is released.
func (s *Stack) Push(name string, fn func()) {
	s.mutex.Lock()
	defer s.mutex.Unlock()
	s.releases = append(s.releases, release{name: name, fn: fn})
}

// PushReleasable records r.Release under name.
func (s *Stack) PushReleasable(name string, r Releasable) {
	s.Push(name, r.Release)
}

// Len returns the number of pending release functions.
func (s *Stack) Len() int {
	s.mutex.Lock()
	defer s.mutex.Unlock()
	return len(s.releases)
}

// Names returns the pending release names in creation order.
func (s *Stack) Names() []string {
	s.mutex.Lock()
	defer s.mutex.Unlock()
	names := make([]string, len(s.releases))
	for idx, r := range s.releases {
		names[idx] = r.name
	}
	return names
}

// Release runs every pending function, last pushed first.
// Calling it again is a no-op until something new is pushed.
func (s *Stack) Release() {
	for {
		s.mutex.Lock()
		if len(s.releases) == 0 {
			s.mutex.Unlock()
			return
		}
		last := s.releases[len(s.releases)-1]
		s.releases = s.releases[:len(s.releases)-1]
		s.mutex.Unlock()

		log.WithField("resource", last.name).Debug("releasing")
		last.fn()
	}
}
