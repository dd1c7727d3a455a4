package sentence

import (
	"sort"
	"strings"
	"unicode/utf8"

	"github.com/cognicore/papernlp/pkg/papernlp/engine"
)

// ExpandAbbreviations substitutes long forms for abbreviation occurrences
// whose long form has at least minLong characters. Overlapping or
// out-of-range occurrences are ignored. It reports whether text changed.
func ExpandAbbreviations(text string, abbrs []engine.Abbreviation, minLong int) (string, bool) {
	if len(abbrs) == 0 {
		return text, false
	}
	sorted := append([]engine.Abbreviation(nil), abbrs...)
	sort.SliceStable(sorted, func(i, j int) bool { return sorted[i].Start < sorted[j].Start })

	var b strings.Builder
	last := 0
	changed := false
	for _, a := range sorted {
		if a.Start < last || a.End > len(text) || a.Start >= a.End {
			continue
		}
		if utf8.RuneCountInString(a.LongForm) < minLong {
			continue
		}
		b.WriteString(text[last:a.Start])
		b.WriteString(a.LongForm)
		last = a.End
		changed = changed || a.LongForm != text[a.Start:a.End]
	}
	if !changed {
		return text, false
	}
	b.WriteString(text[last:])
	return b.String(), true
}
