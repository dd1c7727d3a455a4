package rules

import (
	"sort"
	"strings"
)

// Stoplist holds the words flagged as stop tokens.
type Stoplist struct {
	stops map[string]struct{}
}

// NewStoplist creates a stoplist from the given terms
func NewStoplist(terms []string) *Stoplist {
	s := &Stoplist{stops: make(map[string]struct{}, len(terms))}
	for _, t := range terms {
		s.Add(t)
	}
	return s
}

// IsStop checks if a token is a stopword (case-insensitive)
func (s *Stoplist) IsStop(token string) bool {
	_, ok := s.stops[strings.ToLower(token)]
	return ok
}

// Add adds a stopword
func (s *Stoplist) Add(token string) {
	token = strings.ToLower(strings.TrimSpace(token))
	if token != "" {
		s.stops[token] = struct{}{}
	}
}

// Remove removes a stopword
func (s *Stoplist) Remove(token string) {
	delete(s.stops, strings.ToLower(token))
}

// All returns the stopwords in sorted order.
func (s *Stoplist) All() []string {
	out := make([]string, 0, len(s.stops))
	for t := range s.stops {
		out = append(out, t)
	}
	sort.Strings(out)
	return out
}
