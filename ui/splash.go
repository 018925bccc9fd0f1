package ui

import "sync"

// Splash is bound to the splash page. The page reads the current status on
// load, so an event sent before its listener was registered is not lost.
type Splash struct {
	mu     sync.Mutex
	state  string
	detail string
	once   sync.Once
}

// Status returns the state ("connecting", "offline" or "loading") and detail.
func (s *Splash) Status() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state == "" {
		return []string{"connecting", ""}
	}
	return []string{s.state, s.detail}
}

func (s *Splash) set(state, detail string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.state, s.detail = state, detail
}

// ready runs start for the first loaded page only.
func (s *Splash) ready(start func()) {
	s.once.Do(start)
}
