package rules

import "strings"

// Lexicon maps inflected forms to their lemma.
//   - Irregular forms come from synonym groups: "were" -> "be", "mice" -> "mouse"
//   - Everything else goes through a small suffix stripper
type Lexicon struct {
	// canonical -> all variants (including canonical itself)
	groups map[string][]string

	// variant -> canonical
	reverseIndex map[string]string
}

// NewLexicon creates an empty lexicon.
func NewLexicon() *Lexicon {
	return &Lexicon{
		groups:       make(map[string][]string),
		reverseIndex: make(map[string]string),
	}
}

// AddSynonymGroup adds a canonical form and its variants.
// If the group already exists, old reverse index entries are cleaned up first.
func (l *Lexicon) AddSynonymGroup(canonical string, variants []string) {
	canonical = strings.ToLower(canonical)

	if old, exists := l.groups[canonical]; exists {
		for _, v := range old {
			delete(l.reverseIndex, v)
		}
	}

	normalized := []string{canonical}
	seen := map[string]bool{canonical: true}
	for _, v := range variants {
		v = strings.ToLower(v)
		if !seen[v] {
			normalized = append(normalized, v)
			seen[v] = true
		}
	}

	l.groups[canonical] = normalized
	for _, v := range normalized {
		l.reverseIndex[v] = canonical
	}
}

// Normalize returns the canonical form of a token, or the lowercased token
// when the lexicon does not know it.
func (l *Lexicon) Normalize(token string) string {
	token = strings.ToLower(token)
	if canonical, ok := l.reverseIndex[token]; ok {
		return canonical
	}
	return token
}

// Known reports whether the token belongs to a synonym group.
func (l *Lexicon) Known(token string) bool {
	_, ok := l.reverseIndex[strings.ToLower(token)]
	return ok
}

// Lemma returns the dictionary form of a word.
func (l *Lexicon) Lemma(token string) string {
	lower := strings.ToLower(token)
	if canonical, ok := l.reverseIndex[lower]; ok {
		return canonical
	}
	return stripSuffix(lower)
}

// stripSuffix handles the regular English plural and third-person forms.
// Tokens with digits or hyphens ("covid-19", "il-6") are left alone.
func stripSuffix(w string) string {
	if len(w) <= 3 || strings.ContainsAny(w, "0123456789-'") {
		return w
	}
	switch {
	case strings.HasSuffix(w, "sses"):
		return w[:len(w)-2]
	case strings.HasSuffix(w, "ies") && len(w) > 4:
		return w[:len(w)-3] + "y"
	case strings.HasSuffix(w, "ss"), strings.HasSuffix(w, "us"), strings.HasSuffix(w, "is"):
		return w
	case strings.HasSuffix(w, "s"):
		return w[:len(w)-1]
	}
	return w
}
