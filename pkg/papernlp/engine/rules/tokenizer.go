package rules

import (
	"unicode"
	"unicode/utf8"
)

// Piece is a token with its byte offsets into the tokenized text.
type Piece struct {
	Text  string
	Start int
	End   int
	Word  bool // false for punctuation and symbols
}

// Tokenize splits text into word and punctuation pieces.
// Words are runs of letters and digits; '-', '.', '\'' and '/' stay inside a
// word when both neighbours are alphanumeric ("COVID-19", "0.05", "don't").
func Tokenize(text string) []Piece {
	var pieces []Piece
	start := -1

	flush := func(end int) {
		if start >= 0 {
			pieces = append(pieces, Piece{Text: text[start:end], Start: start, End: end, Word: true})
			start = -1
		}
	}

	for i := 0; i < len(text); {
		r, size := utf8.DecodeRuneInString(text[i:])
		switch {
		case isWordRune(r):
			if start < 0 {
				start = i
			}
		case start >= 0 && isJoiner(r) && i+size < len(text) && isWordRune(nextRune(text, i+size)):
			// internal joiner, keep scanning
		case unicode.IsSpace(r):
			flush(i)
		default:
			flush(i)
			pieces = append(pieces, Piece{Text: text[i : i+size], Start: i, End: i + size})
		}
		i += size
	}
	flush(len(text))
	return pieces
}

func isWordRune(r rune) bool {
	return unicode.IsLetter(r) || unicode.IsDigit(r) || unicode.Is(unicode.Mn, r)
}

func isJoiner(r rune) bool {
	switch r {
	case '-', '.', '\'', '/', '’':
		return true
	}
	return false
}

func nextRune(s string, i int) rune {
	r, _ := utf8.DecodeRuneInString(s[i:])
	return r
}

// hasLetter reports whether s contains at least one alphabetic character.
func hasLetter(s string) bool {
	for _, r := range s {
		if unicode.IsLetter(r) {
			return true
		}
	}
	return false
}
