// Package langsvc detects the language of a text sample and translates text
// into a target language.
package langsvc

import (
	"context"
	"errors"
	"strings"

	"golang.org/x/text/language"
)

var (
	// ErrUndetectable is returned when no language can be attributed to a sample.
	ErrUndetectable = errors.New("langsvc: language undetectable")
	// ErrTranslationUnavailable is returned by services that cannot translate.
	ErrTranslationUnavailable = errors.New("langsvc: translation unavailable")
)

// Detector identifies the language of a text sample.
type Detector interface {
	Detect(ctx context.Context, text string) (string, error)
}

// Translator renders text in the target language.
type Translator interface {
	Translate(ctx context.Context, text, target string) (string, error)
}

// Service is the full language service used by the normalizer.
type Service interface {
	Detector
	Translator
}

// Normalize reduces a language tag ("en-US", "EN", "pt_BR") to its base
// language code. Unparseable input is lowercased and returned as-is.
func Normalize(code string) string {
	code = strings.TrimSpace(strings.ReplaceAll(code, "_", "-"))
	if code == "" {
		return ""
	}
	tag, err := language.Parse(code)
	if err != nil {
		return strings.ToLower(code)
	}
	base, _ := tag.Base()
	return base.String()
}

// Same reports whether two tags name the same base language.
func Same(a, b string) bool {
	na, nb := Normalize(a), Normalize(b)
	return na != "" && na == nb
}

// Offline pairs a detector with a translator that always fails. Documents
// outside the target language are then skipped explicitly.
type Offline struct {
	Detector
}

// NewOffline returns an offline service backed by the builtin profile detector.
func NewOffline() (*Offline, error) {
	det, err := NewProfileDetector()
	if err != nil {
		return nil, err
	}
	return &Offline{Detector: det}, nil
}

// Translate always reports ErrTranslationUnavailable, except for empty text.
func (o *Offline) Translate(_ context.Context, text, _ string) (string, error) {
	if strings.TrimSpace(text) == "" {
		return text, nil
	}
	return "", ErrTranslationUnavailable
}
