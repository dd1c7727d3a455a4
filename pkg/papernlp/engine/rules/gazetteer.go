package rules

import "strings"

// Entry is a gazetteer phrase family: a canonical name and its variants,
// all tagged with one label.
type Entry struct {
	ID        string
	Canonical string
	Label     string
	Variants  []string
}

// Match is a recognized phrase covering pieces[From:To].
type Match struct {
	From  int
	To    int
	Entry Entry
}

// Gazetteer recognizes known single- and multi-word phrases in a piece
// sequence with greedy longest match.
type Gazetteer struct {
	dict   map[string]Entry // lowercased phrase -> entry
	maxLen int
}

// NewGazetteer creates a gazetteer. When two entries share a phrase the
// first one wins.
func NewGazetteer(entries []Entry) *Gazetteer {
	g := &Gazetteer{dict: make(map[string]Entry), maxLen: 1}
	for _, e := range entries {
		g.add(e.Canonical, e)
		for _, v := range e.Variants {
			g.add(v, e)
		}
	}
	return g
}

func (g *Gazetteer) add(phrase string, e Entry) {
	key := phraseKey(phrase)
	if key == "" {
		return
	}
	if _, exists := g.dict[key]; exists {
		return
	}
	g.dict[key] = e
	if n := len(strings.Split(key, " ")); n > g.maxLen {
		g.maxLen = n
	}
}

// Len is the number of distinct phrases.
func (g *Gazetteer) Len() int { return len(g.dict) }

// Find applies greedy longest-match over pieces. Matches start on word
// pieces only and never overlap.
func (g *Gazetteer) Find(pieces []Piece) []Match {
	var out []Match
	for i := 0; i < len(pieces); {
		if !pieces[i].Word {
			i++
			continue
		}
		maxPhrase := g.maxLen
		if remaining := len(pieces) - i; maxPhrase > remaining {
			maxPhrase = remaining
		}
		matched := false
		for n := maxPhrase; n >= 1; n-- {
			if !pieces[i+n-1].Word {
				continue
			}
			if e, ok := g.dict[piecesKey(pieces[i:i+n])]; ok {
				out = append(out, Match{From: i, To: i + n, Entry: e})
				i += n
				matched = true
				break
			}
		}
		if !matched {
			i++
		}
	}
	return out
}

// phraseKey tokenizes a phrase the same way text is tokenized, so
// "SARS-CoV-2" and "interleukin 6" line up with piece sequences.
func phraseKey(phrase string) string {
	return piecesKey(Tokenize(phrase))
}

func piecesKey(pieces []Piece) string {
	parts := make([]string, len(pieces))
	for i, p := range pieces {
		parts[i] = strings.ToLower(p.Text)
	}
	return strings.Join(parts, " ")
}
