package rules

import (
	"sort"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/cognicore/papernlp/pkg/papernlp/engine"
)

// DetectAbbreviations finds "long form (SF)" definitions and reports the
// definition occurrence of each short form plus every later whole-word use.
// Hyphenated compounds ("RT-PCR") are not occurrences of "PCR".
// Long forms are chosen with the Schwartz-Hearst matching rule: the short
// form's characters must appear in order in the long form, the first one at
// the start of a word.
func DetectAbbreviations(text string) []engine.Abbreviation {
	type definition struct {
		long    string
		openAt  int // offset of the short form inside the parentheses
		closeAt int // offset just past ')'
	}
	defs := map[string]definition{}
	var order []string

	for i := 0; i < len(text); i++ {
		if text[i] != '(' {
			continue
		}
		closeIdx := strings.IndexByte(text[i+1:], ')')
		if closeIdx < 0 {
			break
		}
		closeIdx += i + 1
		inner := text[i+1 : closeIdx]
		if strings.ContainsAny(inner, "()") {
			continue
		}
		short := strings.TrimSpace(inner)
		if !validShortForm(short) {
			continue
		}
		if _, seen := defs[short]; seen {
			continue
		}
		long := bestLongForm(short, candidateText(text[:i], short))
		if long == "" || utf8.RuneCountInString(long) <= utf8.RuneCountInString(short) {
			continue
		}
		defs[short] = definition{
			long:    long,
			openAt:  i + 1 + strings.Index(inner, short),
			closeAt: closeIdx + 1,
		}
		order = append(order, short)
	}

	var out []engine.Abbreviation
	for _, short := range order {
		d := defs[short]
		out = append(out, engine.Abbreviation{Start: d.openAt, End: d.openAt + len(short), Short: short, LongForm: d.long})
		for _, at := range wholeWordIndexes(text[d.closeAt:], short) {
			start := d.closeAt + at
			out = append(out, engine.Abbreviation{Start: start, End: start + len(short), Short: short, LongForm: d.long})
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Start < out[j].Start })
	return out
}

func validShortForm(s string) bool {
	n := utf8.RuneCountInString(s)
	if n < 2 || n > 10 || len(strings.Fields(s)) > 2 {
		return false
	}
	first, _ := utf8.DecodeRuneInString(s)
	if !isAlnum(first) {
		return false
	}
	return hasLetter(s)
}

// candidateText returns the words preceding a parenthesis, bounded by the
// previous clause break and by min(|SF|+5, 2|SF|) words.
func candidateText(before, short string) string {
	before = strings.TrimRight(before, " \t\n")
	if k := strings.LastIndexAny(before, ".;:!?()[]"); k >= 0 {
		before = before[k+1:]
	}
	words := strings.Fields(before)
	n := utf8.RuneCountInString(short)
	limit := n + 5
	if 2*n < limit {
		limit = 2 * n
	}
	if len(words) > limit {
		words = words[len(words)-limit:]
	}
	return strings.Join(words, " ")
}

func bestLongForm(short, long string) string {
	s := []rune(strings.ToLower(short))
	orig := []rune(long)
	l := make([]rune, len(orig))
	for i, r := range orig {
		l[i] = unicode.ToLower(r)
	}

	li := len(l) - 1
	for si := len(s) - 1; si >= 0; si-- {
		c := s[si]
		if !isAlnum(c) {
			continue
		}
		for li >= 0 && (l[li] != c || (si == 0 && li > 0 && isAlnum(l[li-1]))) {
			li--
		}
		if li < 0 {
			return ""
		}
		li--
	}
	k := li
	for k >= 0 && orig[k] != ' ' {
		k--
	}
	return strings.TrimSpace(string(orig[k+1:]))
}

func wholeWordIndexes(text, word string) []int {
	var out []int
	for from := 0; ; {
		k := strings.Index(text[from:], word)
		if k < 0 {
			return out
		}
		start := from + k
		end := start + len(word)
		if boundaryBefore(text, start) && boundaryAfter(text, end) {
			out = append(out, start)
		}
		from = end
	}
}

func boundaryBefore(text string, i int) bool {
	if i == 0 {
		return true
	}
	r, _ := utf8.DecodeLastRuneInString(text[:i])
	return !isAlnum(r) && r != '-'
}

func boundaryAfter(text string, i int) bool {
	if i >= len(text) {
		return true
	}
	r, _ := utf8.DecodeRuneInString(text[i:])
	return !isAlnum(r) && r != '-'
}

func isAlnum(r rune) bool {
	return unicode.IsLetter(r) || unicode.IsDigit(r)
}
