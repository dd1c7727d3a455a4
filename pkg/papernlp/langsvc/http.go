package langsvc

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/cognicore/papernlp/internal/httpjson"
	"github.com/patrickmn/go-cache"
	"golang.org/x/time/rate"
)

// HTTPConfig configures a LibreTranslate-compatible language service.
type HTTPConfig struct {
	URL        string
	APIKey     string
	RatePerSec float64 // 0 disables throttling
	Timeout    time.Duration
	CacheTTL   time.Duration
}

// HTTPService detects and translates through a remote service.
// Section names repeat a lot across a corpus ("Introduction", "Methods"), so
// translations are cached.
type HTTPService struct {
	client  *httpjson.Client
	apiKey  string
	limiter *rate.Limiter
	cache   *cache.Cache
}

// NewHTTPService builds a remote language service.
func NewHTTPService(cfg HTTPConfig) (*HTTPService, error) {
	if cfg.URL == "" {
		return nil, fmt.Errorf("langsvc: service URL required")
	}
	ttl := cfg.CacheTTL
	if ttl <= 0 {
		ttl = time.Hour
	}
	svc := &HTTPService{
		client: &httpjson.Client{BaseURL: cfg.URL, APIKey: cfg.APIKey},
		apiKey: cfg.APIKey,
		cache:  cache.New(ttl, 2*ttl),
	}
	if cfg.Timeout > 0 {
		svc.client.HTTPClient = &http.Client{Timeout: cfg.Timeout}
	}
	if cfg.RatePerSec > 0 {
		svc.limiter = rate.NewLimiter(rate.Limit(cfg.RatePerSec), 1)
	}
	return svc, nil
}

type detectRequest struct {
	Q      string `json:"q"`
	APIKey string `json:"api_key,omitempty"`
}

type detection struct {
	Language   string  `json:"language"`
	Confidence float64 `json:"confidence"`
}

type translateRequest struct {
	Q      string `json:"q"`
	Source string `json:"source"`
	Target string `json:"target"`
	Format string `json:"format"`
	APIKey string `json:"api_key,omitempty"`
}

type translateResponse struct {
	TranslatedText string `json:"translatedText"`
}

// Detect asks the service for the most likely language of text.
func (s *HTTPService) Detect(ctx context.Context, text string) (string, error) {
	if strings.TrimSpace(text) == "" {
		return "", ErrUndetectable
	}
	if err := s.wait(ctx); err != nil {
		return "", err
	}
	var out []detection
	if err := s.client.Post(ctx, "/detect", detectRequest{Q: text, APIKey: s.apiKey}, &out); err != nil {
		return "", fmt.Errorf("detect language: %w", err)
	}
	best := detection{}
	for _, d := range out {
		if d.Language != "" && d.Confidence > best.Confidence {
			best = d
		}
	}
	if best.Language == "" {
		return "", ErrUndetectable
	}
	return Normalize(best.Language), nil
}

// Translate renders text in target. Empty text needs no call.
func (s *HTTPService) Translate(ctx context.Context, text, target string) (string, error) {
	if strings.TrimSpace(text) == "" {
		return text, nil
	}
	target = Normalize(target)
	key := target + "\x00" + text
	if v, ok := s.cache.Get(key); ok {
		return v.(string), nil
	}
	if err := s.wait(ctx); err != nil {
		return "", err
	}

	req := translateRequest{Q: text, Source: "auto", Target: target, Format: "text", APIKey: s.apiKey}
	var out translateResponse
	if err := s.client.Post(ctx, "/translate", req, &out); err != nil {
		return "", fmt.Errorf("translate: %w", err)
	}
	if strings.TrimSpace(out.TranslatedText) == "" {
		return "", fmt.Errorf("translate: empty translation")
	}
	s.cache.SetDefault(key, out.TranslatedText)
	return out.TranslatedText, nil
}

func (s *HTTPService) wait(ctx context.Context) error {
	if s.limiter == nil {
		return nil
	}
	return s.limiter.Wait(ctx)
}
