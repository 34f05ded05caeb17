package intake

import "sync"

// Sessions holds per-party wizard state in process memory, created on
// first interaction and cleared on completion or reset. Nothing durable
// depends on it: a restart simply starts conversations over.
//
// The transport delivers one update at a time, so forms are not mutated
// concurrently; the mutex guards the map itself.
type Sessions struct {
	mu    sync.Mutex
	forms map[int64]*Form
}

// NewSessions creates an empty session store.
func NewSessions() *Sessions {
	return &Sessions{forms: make(map[int64]*Form)}
}

// Get returns the party's form, if any.
func (s *Sessions) Get(partyID int64) (*Form, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	f, ok := s.forms[partyID]
	return f, ok
}

// Put installs a form for the party, replacing any previous one.
func (s *Sessions) Put(partyID int64, f *Form) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.forms[partyID] = f
}

// Clear drops the party's form.
func (s *Sessions) Clear(partyID int64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.forms, partyID)
}
