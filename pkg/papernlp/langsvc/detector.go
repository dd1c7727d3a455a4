package langsvc

import (
	"context"
	_ "embed"
	"fmt"
	"sort"
	"strings"
	"unicode"

	"gopkg.in/yaml.v3"
)

//go:embed profiles.yaml
var defaultProfiles []byte

type set map[string]struct{}

func newSet(items []string) set {
	s := make(set, len(items))
	for _, it := range items {
		s[strings.ToLower(it)] = struct{}{}
	}
	return s
}

// ProfileDetector guesses a language from function-word overlap, then from
// character trigrams, then falls back to a default language. Only samples
// without letters are undetectable. It needs a short sample; callers
// truncate long documents first.
type ProfileDetector struct {
	words    map[string]set
	trigrams map[string]set
	codes    []string
	fallback string
}

// NewProfileDetector loads the embedded language profiles.
func NewProfileDetector() (*ProfileDetector, error) {
	return LoadProfiles(defaultProfiles)
}

// LoadProfiles builds a detector from YAML of the form
// "languages: {code: [word, ...]}", with optional "trigrams: {code: [...]}"
// and "fallback: code".
func LoadProfiles(data []byte) (*ProfileDetector, error) {
	var raw struct {
		Languages map[string][]string `yaml:"languages"`
		Trigrams  map[string][]string `yaml:"trigrams"`
		Fallback  string              `yaml:"fallback"`
	}
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("parse language profiles: %w", err)
	}
	if len(raw.Languages) == 0 {
		return nil, fmt.Errorf("parse language profiles: no languages")
	}

	d := &ProfileDetector{
		words:    make(map[string]set, len(raw.Languages)),
		trigrams: make(map[string]set, len(raw.Trigrams)),
		fallback: Normalize(raw.Fallback),
	}
	for code, words := range raw.Languages {
		code = Normalize(code)
		d.words[code] = newSet(words)
		d.codes = append(d.codes, code)
	}
	for code, grams := range raw.Trigrams {
		code = Normalize(code)
		if _, ok := d.words[code]; !ok {
			return nil, fmt.Errorf("parse language profiles: trigrams for unknown language %q", code)
		}
		d.trigrams[code] = newSet(grams)
	}
	if d.fallback != "" {
		if _, ok := d.words[d.fallback]; !ok {
			return nil, fmt.Errorf("parse language profiles: unknown fallback %q", d.fallback)
		}
	}
	sort.Strings(d.codes)
	return d, nil
}

// Detect returns the base language code of text. Ties go to the
// alphabetically first code so results are deterministic.
func (d *ProfileDetector) Detect(_ context.Context, text string) (string, error) {
	words := strings.FieldsFunc(strings.ToLower(text), func(r rune) bool {
		return !unicode.IsLetter(r) && r != '\''
	})
	if len(words) == 0 {
		return "", ErrUndetectable
	}

	if code, ok := d.best(d.words, words); ok {
		return code, nil
	}
	if code, ok := d.best(d.trigrams, trigrams(words)); ok {
		return code, nil
	}
	if d.fallback != "" {
		return d.fallback, nil
	}
	return "", ErrUndetectable
}

func (d *ProfileDetector) best(profiles map[string]set, items []string) (string, bool) {
	best, bestScore := "", 0
	for _, code := range d.codes {
		profile := profiles[code]
		score := 0
		for _, it := range items {
			if _, ok := profile[it]; ok {
				score++
			}
		}
		if score > bestScore {
			best, bestScore = code, score
		}
	}
	return best, bestScore > 0
}

// trigrams lists the in-word letter trigrams of words.
func trigrams(words []string) []string {
	var out []string
	for _, w := range words {
		runes := []rune(strings.ReplaceAll(w, "'", ""))
		for i := 0; i+3 <= len(runes); i++ {
			out = append(out, string(runes[i:i+3]))
		}
	}
	return out
}
