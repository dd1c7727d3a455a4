// Package remote talks to an NLP model service over HTTP. The service hosts
// the real parsing, linking and NER models; this package only moves JSON.
package remote

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/cognicore/papernlp/internal/httpjson"
	"github.com/cognicore/papernlp/pkg/papernlp/engine"
)

// Backend is the factory name of this backend.
const Backend = "remote"

// Config locates the model service.
type Config struct {
	URL     string
	APIKey  string
	Timeout time.Duration
}

// Client implements engine.Parser and engine.Linker against the service.
type Client struct {
	http *httpjson.Client
}

// NewClient creates a client.
func NewClient(cfg Config) (*Client, error) {
	if cfg.URL == "" {
		return nil, fmt.Errorf("remote: service URL required")
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 2 * time.Minute
	}
	return &Client{http: &httpjson.Client{
		BaseURL:    cfg.URL,
		APIKey:     cfg.APIKey,
		HTTPClient: &http.Client{Timeout: timeout},
	}}, nil
}

type textRequest struct {
	Text string `json:"text"`
}

type wireToken struct {
	Text   string    `json:"text"`
	Lemma  string    `json:"lemma"`
	Stop   bool      `json:"is_stop"`
	Vector []float32 `json:"vector,omitempty"`
}

type wireSpan struct {
	Text  string `json:"text"`
	Label string `json:"label"`
	Start int    `json:"start"`
	End   int    `json:"end"`
}

type wireSentence struct {
	Text     string      `json:"text"`
	Tokens   []wireToken `json:"tokens"`
	Entities []wireSpan  `json:"entities"`
}

type wireAbbreviation struct {
	Start    int    `json:"start"`
	End      int    `json:"end"`
	Short    string `json:"short"`
	LongForm string `json:"long_form"`
}

type parseResponse struct {
	Sentences     []wireSentence     `json:"sentences"`
	Abbreviations []wireAbbreviation `json:"abbreviations"`
}

// Parse calls POST /parse.
func (c *Client) Parse(ctx context.Context, text string) (*engine.Parsed, error) {
	var resp parseResponse
	if err := c.http.Post(ctx, "/parse", textRequest{Text: text}, &resp); err != nil {
		return nil, fmt.Errorf("remote parse: %w", err)
	}

	out := &engine.Parsed{Text: text}
	for _, a := range resp.Abbreviations {
		if a.Start < 0 || a.End > len(text) || a.Start >= a.End {
			return nil, fmt.Errorf("remote parse: abbreviation %q out of range [%d,%d)", a.Short, a.Start, a.End)
		}
		out.Abbreviations = append(out.Abbreviations, engine.Abbreviation(a))
	}
	for _, s := range resp.Sentences {
		sent := engine.ParsedSentence{Text: s.Text, Tokens: make([]engine.Token, len(s.Tokens))}
		for i, t := range s.Tokens {
			sent.Tokens[i] = engine.Token(t)
		}
		for _, e := range s.Entities {
			sent.Entities = append(sent.Entities, engine.Span(e))
		}
		out.Sentences = append(out.Sentences, sent)
	}
	return out, nil
}

type linkRequest struct {
	Mentions []string `json:"mentions"`
}

type wireCandidate struct {
	ConceptID     string  `json:"concept_id"`
	CanonicalName string  `json:"canonical_name"`
	Score         float64 `json:"score"`
}

type linkResponse struct {
	Candidates [][]wireCandidate `json:"candidates"`
}

// Link calls POST /link.
func (c *Client) Link(ctx context.Context, mentions []string) ([][]engine.Candidate, error) {
	if len(mentions) == 0 {
		return nil, nil
	}
	var resp linkResponse
	if err := c.http.Post(ctx, "/link", linkRequest{Mentions: mentions}, &resp); err != nil {
		return nil, fmt.Errorf("remote link: %w", err)
	}
	if len(resp.Candidates) != len(mentions) {
		return nil, fmt.Errorf("remote link: got %d candidate lists for %d mentions", len(resp.Candidates), len(mentions))
	}
	out := make([][]engine.Candidate, len(mentions))
	for i, list := range resp.Candidates {
		for _, cand := range list {
			out[i] = append(out[i], engine.Candidate(cand))
		}
	}
	return out, nil
}

// Extractor runs one secondary model hosted by the service.
type Extractor struct {
	client *Client
	model  string
}

// Extractor returns the secondary model named model.
func (c *Client) Extractor(model string) *Extractor {
	return &Extractor{client: c, model: model}
}

// Name returns the model name.
func (x *Extractor) Name() string { return x.model }

type nerResponse struct {
	Sentences [][]wireSpan `json:"sentences"`
}

// Extract calls POST /ner/{model}.
func (x *Extractor) Extract(ctx context.Context, text string) ([][]engine.Span, error) {
	var resp nerResponse
	if err := x.client.http.Post(ctx, "/ner/"+x.model, textRequest{Text: text}, &resp); err != nil {
		return nil, fmt.Errorf("remote ner %s: %w", x.model, err)
	}
	out := make([][]engine.Span, len(resp.Sentences))
	for i, spans := range resp.Sentences {
		out[i] = make([]engine.Span, 0, len(spans))
		for _, s := range spans {
			out[i] = append(out[i], engine.Span(s))
		}
	}
	return out, nil
}

// Builder adapts the client to the engine factory.
func Builder(cfg Config) engine.Builder {
	return func(_ context.Context, models engine.Models) (*engine.Engine, error) {
		c, err := NewClient(cfg)
		if err != nil {
			return nil, err
		}
		eng := &engine.Engine{Parser: c}
		if models.UMLS {
			eng.Linker = c
		}
		for _, name := range models.Secondary() {
			eng.Secondary = append(eng.Secondary, c.Extractor(name))
		}
		return eng, nil
	}
}
