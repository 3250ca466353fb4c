package generate

import "sync"

// sequenceTracker hands out per-project generation sequence numbers. A
// request persists its result only while its number is still the latest
// issued for that project.
type sequenceTracker struct {
	mu     sync.Mutex
	latest map[string]uint64
}

func newSequenceTracker() *sequenceTracker {
	return &sequenceTracker{latest: make(map[string]uint64)}
}

// begin issues the next sequence number for a project.
func (s *sequenceTracker) begin(projectID string) uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.latest[projectID]++
	return s.latest[projectID]
}

// isLatest reports whether seq is still the newest request for the project.
func (s *sequenceTracker) isLatest(projectID string, seq uint64) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.latest[projectID] == seq
}
