package ledger

import "sync"

// memorySet is a mutex-guarded string set shared by ledger backends.
type memorySet struct {
	mu   sync.Mutex
	seen map[string]struct{}
}

func newMemorySet() *memorySet {
	return &memorySet{seen: make(map[string]struct{})}
}

func (s *memorySet) contains(id string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.seen[id]
	return ok
}

// add returns false when id was already present.
func (s *memorySet) add(id string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.seen[id]; ok {
		return false
	}
	s.seen[id] = struct{}{}
	return true
}

// Memory is an in-process Ledger without durability, used in tests and
// available as an explicit opt-out of persistence.
type Memory struct {
	set *memorySet
}

func NewMemory() *Memory {
	return &Memory{set: newMemorySet()}
}

func (m *Memory) Contains(id string) bool { return m.set.contains(id) }

func (m *Memory) Append(id string) error {
	m.set.add(id)
	return nil
}
