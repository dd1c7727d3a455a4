package langsvc

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNormalize(t *testing.T) {
	assert.Equal(t, "en", Normalize("en-US"))
	assert.Equal(t, "en", Normalize("EN"))
	assert.Equal(t, "pt", Normalize("pt_BR"))
	assert.Equal(t, "", Normalize("  "))
	assert.True(t, Same("en", "en-GB"))
	assert.False(t, Same("en", "es"))
	assert.False(t, Same("", ""))
}

func TestProfileDetector(t *testing.T) {
	det, err := NewProfileDetector()
	require.NoError(t, err)
	ctx := context.Background()

	cases := map[string]string{
		"The patients were treated with antivirals and the outcome was good.":   "en",
		"Los pacientes fueron tratados con antivirales y el resultado fue bueno": "es",
		"Les patients ont été traités avec des antiviraux dans cette étude":      "fr",
		"Die Patienten wurden mit antiviralen Mitteln behandelt und sind stabil": "de",
	}
	for text, want := range cases {
		got, err := det.Detect(ctx, text)
		require.NoError(t, err, text)
		assert.Equal(t, want, got, text)
	}
}

func TestProfileDetectorUndetectable(t *testing.T) {
	det, err := NewProfileDetector()
	require.NoError(t, err)

	for _, text := range []string{"12345 67.8", "", " -- 2.5% (n=12)"} {
		_, err = det.Detect(context.Background(), text)
		assert.ErrorIs(t, err, ErrUndetectable, text)
	}
}

func TestProfileDetectorTechnicalEnglish(t *testing.T) {
	det, err := NewProfileDetector()
	require.NoError(t, err)
	ctx := context.Background()

	for _, text := range []string{
		"SARS-CoV-2 RT-PCR positivity: 12 patients.",
		"Antiviral efficacy: randomized controlled trials",
	} {
		got, err := det.Detect(ctx, text)
		require.NoError(t, err, text)
		assert.Equal(t, "en", got, text)
	}

	got, err := det.Detect(ctx, "zxqv wrtp")
	require.NoError(t, err)
	assert.Equal(t, "en", got, "lettered samples fall back to the default language")
}

func TestProfileDetectorWithoutFallback(t *testing.T) {
	det, err := LoadProfiles([]byte("languages:\n  en: [the]\ntrigrams:\n  en: [ing]\n"))
	require.NoError(t, err)
	ctx := context.Background()

	got, err := det.Detect(ctx, "Testing")
	require.NoError(t, err)
	assert.Equal(t, "en", got)

	_, err = det.Detect(ctx, "zxqv")
	assert.ErrorIs(t, err, ErrUndetectable)
}

func TestLoadProfilesRejectsUnknownCodes(t *testing.T) {
	_, err := LoadProfiles([]byte("languages:\n  en: [the]\nfallback: xx\n"))
	assert.Error(t, err)
	_, err = LoadProfiles([]byte("languages:\n  en: [the]\ntrigrams:\n  fr: [les]\n"))
	assert.Error(t, err)
}

func TestLoadProfilesRejectsEmpty(t *testing.T) {
	_, err := LoadProfiles([]byte("languages: {}"))
	assert.Error(t, err)
}

func TestOfflineTranslate(t *testing.T) {
	svc, err := NewOffline()
	require.NoError(t, err)

	out, err := svc.Translate(context.Background(), "", "en")
	require.NoError(t, err)
	assert.Empty(t, out)

	_, err = svc.Translate(context.Background(), "Hola", "en")
	assert.ErrorIs(t, err, ErrTranslationUnavailable)
}

func TestHTTPServiceDetectAndTranslate(t *testing.T) {
	var translations int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/detect":
			_ = json.NewEncoder(w).Encode([]detection{{Language: "es", Confidence: 90}, {Language: "pt", Confidence: 10}})
		case "/translate":
			atomic.AddInt32(&translations, 1)
			var req translateRequest
			require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
			assert.Equal(t, "en", req.Target)
			assert.Equal(t, "auto", req.Source)
			_ = json.NewEncoder(w).Encode(translateResponse{TranslatedText: "translated: " + req.Q})
		default:
			http.NotFound(w, r)
		}
	}))
	defer srv.Close()

	svc, err := NewHTTPService(HTTPConfig{URL: srv.URL, RatePerSec: 100})
	require.NoError(t, err)
	ctx := context.Background()

	lang, err := svc.Detect(ctx, "Hola mundo")
	require.NoError(t, err)
	assert.Equal(t, "es", lang)

	out, err := svc.Translate(ctx, "Introducción", "en-US")
	require.NoError(t, err)
	assert.Equal(t, "translated: Introducción", out)

	// Served from cache.
	_, err = svc.Translate(ctx, "Introducción", "en")
	require.NoError(t, err)
	assert.Equal(t, int32(1), atomic.LoadInt32(&translations))

	out, err = svc.Translate(ctx, "   ", "en")
	require.NoError(t, err)
	assert.Equal(t, "   ", out)
	assert.Equal(t, int32(1), atomic.LoadInt32(&translations))
}

func TestHTTPServiceTranslateFailure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "unsupported language", http.StatusBadRequest)
	}))
	defer srv.Close()

	svc, err := NewHTTPService(HTTPConfig{URL: srv.URL})
	require.NoError(t, err)

	_, err = svc.Translate(context.Background(), "Hallo", "en")
	assert.Error(t, err)
}

func TestHTTPServiceRequiresURL(t *testing.T) {
	_, err := NewHTTPService(HTTPConfig{})
	assert.Error(t, err)
}
