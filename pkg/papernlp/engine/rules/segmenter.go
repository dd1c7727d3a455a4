package rules

import (
	"strings"
	"unicode"
	"unicode/utf8"
)

// Range is a half-open byte range of a sentence within a text.
type Range struct {
	Start int
	End   int
}

// Segmenter splits text into sentences.
type Segmenter struct {
	protected  map[string]struct{}
	hardBreaks string
}

// NewSegmenter creates a segmenter. Protected words ("e.g.", "al.", "fig.")
// never end a sentence; every rune in hardBreaks always does.
func NewSegmenter(protected []string, hardBreaks string) *Segmenter {
	p := make(map[string]struct{}, len(protected))
	for _, w := range protected {
		p[strings.ToLower(strings.TrimSpace(w))] = struct{}{}
	}
	return &Segmenter{protected: p, hardBreaks: hardBreaks}
}

// Split returns sentence ranges in text order, trimmed of surrounding
// whitespace. Empty sentences are dropped.
func (s *Segmenter) Split(text string) []Range {
	var out []Range
	start := 0
	for i := 0; i < len(text); {
		r, size := utf8.DecodeRuneInString(text[i:])
		end := i + size

		if s.hardBreaks != "" && strings.ContainsRune(s.hardBreaks, r) {
			out = appendRange(out, text, start, end)
			start = end
			i = end
			continue
		}
		if r != '.' && r != '!' && r != '?' {
			i = end
			continue
		}

		j := end
		for j < len(text) && strings.IndexByte(".!?\"')]", text[j]) >= 0 {
			j++
		}
		if r == '.' && s.isProtected(text, i) {
			i = j
			continue
		}
		if j == len(text) || (isSpaceByte(text[j]) && startsSentence(text, j)) {
			out = appendRange(out, text, start, j)
			start = j
		}
		i = j
	}
	return appendRange(out, text, start, len(text))
}

// isProtected reports whether the period at dot closes a protected word or a
// single-letter initial ("J. Smith").
func (s *Segmenter) isProtected(text string, dot int) bool {
	k := dot
	for k > 0 && !isSpaceByte(text[k-1]) {
		k--
	}
	word := strings.TrimLeft(strings.ToLower(text[k:dot+1]), "([\"'")
	if _, ok := s.protected[word]; ok {
		return true
	}
	initial := strings.TrimLeft(text[k:dot], "([\"'")
	if utf8.RuneCountInString(initial) == 1 {
		r, _ := utf8.DecodeRuneInString(initial)
		return unicode.IsUpper(r)
	}
	return false
}

func startsSentence(text string, i int) bool {
	for i < len(text) && isSpaceByte(text[i]) {
		i++
	}
	if i == len(text) {
		return true
	}
	r, _ := utf8.DecodeRuneInString(text[i:])
	return unicode.IsUpper(r) || unicode.IsDigit(r) || strings.ContainsRune("([\"'", r)
}

func appendRange(out []Range, text string, start, end int) []Range {
	for start < end && isSpaceByte(text[start]) {
		start++
	}
	for end > start && isSpaceByte(text[end-1]) {
		end--
	}
	if start < end {
		out = append(out, Range{Start: start, End: end})
	}
	return out
}

func isSpaceByte(b byte) bool {
	switch b {
	case ' ', '\t', '\n', '\r', '\v', '\f':
		return true
	}
	return false
}
