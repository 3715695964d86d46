package browse

import "sync/atomic"

// Ticket identifies one request issued on a Slot
type Ticket uint64

// Slot is a request-generation counter for one logical area of the screen
// (the list, the detail pane). Every request takes a ticket; a response is
// applied only if its ticket is still the latest, so the last request wins
// regardless of the order responses arrive in.
type Slot struct {
	gen atomic.Uint64
}

// Begin starts a new request and supersedes all earlier tickets
func (s *Slot) Begin() Ticket {
	return Ticket(s.gen.Add(1))
}

// Current reports whether t is the latest ticket issued
func (s *Slot) Current(t Ticket) bool {
	return uint64(t) == s.gen.Load()
}

// Invalidate discards every outstanding ticket without starting a request
func (s *Slot) Invalidate() {
	s.gen.Add(1)
}
