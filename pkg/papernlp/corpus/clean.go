package corpus

import (
	"regexp"
	"strings"

	"golang.org/x/net/html"
	"golang.org/x/text/unicode/norm"
)

// tagPattern only matches complete tags, so "p < 0.05" and "age<fifty" are
// left alone.
var tagPattern = regexp.MustCompile(`</?[a-zA-Z][a-zA-Z0-9]*(\s[^<>]*)?/?>`)

// raw blocks whose content is never paper text
var rawBlocks = []*regexp.Regexp{
	regexp.MustCompile(`(?is)<script\b[^>]*>.*?</script\s*>`),
	regexp.MustCompile(`(?is)<style\b[^>]*>.*?</style\s*>`),
}

// Clean strips inline markup (sup/sub/italic tags, entities) that leaks into
// extracted paper text and NFC-normalizes the result. Only complete tags are
// removed; a stray '<' stays in the text.
func Clean(s string) string {
	if tagPattern.MatchString(s) {
		for _, re := range rawBlocks {
			s = re.ReplaceAllString(s, "")
		}
		s = tagPattern.ReplaceAllString(s, "")
	}
	if strings.Contains(s, "&") {
		s = html.UnescapeString(s)
	}
	return norm.NFC.String(s)
}
