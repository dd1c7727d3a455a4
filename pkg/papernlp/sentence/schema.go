package sentence

import "sync"

// Schema is the run-wide set of secondary entity labels. It starts from a
// default vocabulary and grows as models report labels outside it.
type Schema struct {
	mu     sync.Mutex
	labels []string
	known  map[string]struct{}
}

// NewSchema creates a schema seeded with defaults.
func NewSchema(defaults []string) *Schema {
	s := &Schema{known: make(map[string]struct{}, len(defaults))}
	for _, l := range defaults {
		s.Observe(l)
	}
	return s
}

// Observe records label and reports whether it was new.
func (s *Schema) Observe(label string) bool {
	if label == "" {
		return false
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.known[label]; ok {
		return false
	}
	s.known[label] = struct{}{}
	s.labels = append(s.labels, label)
	return true
}

// Labels returns every known label in the order first seen.
func (s *Schema) Labels() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.labels...)
}
