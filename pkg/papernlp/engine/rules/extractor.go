package rules

import (
	"context"
	"sort"
	"strings"

	"github.com/cognicore/papernlp/pkg/papernlp/engine"
)

// GazetteerExtractor is a secondary model backed by a label -> keywords
// table. It runs its own segmentation over the text it receives.
type GazetteerExtractor struct {
	name string
	gaz  *Gazetteer
	seg  *Segmenter
}

// NewGazetteerExtractor builds an extractor from a label -> keywords table.
// Labels are visited in sorted order so a keyword listed under two labels
// always resolves to the same one.
func NewGazetteerExtractor(name string, labels map[string][]string, seg *Segmenter) *GazetteerExtractor {
	names := make([]string, 0, len(labels))
	for label := range labels {
		names = append(names, label)
	}
	sort.Strings(names)

	var entries []Entry
	for _, label := range names {
		for _, kw := range labels[label] {
			entries = append(entries, Entry{Canonical: kw, Label: strings.ToUpper(label)})
		}
	}
	return &GazetteerExtractor{name: name, gaz: NewGazetteer(entries), seg: seg}
}

// Name returns the model name.
func (x *GazetteerExtractor) Name() string { return x.name }

// Extract returns the spans of each sentence of x's own segmentation.
// Offsets refer to text.
func (x *GazetteerExtractor) Extract(ctx context.Context, text string) ([][]engine.Span, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	ranges := x.seg.Split(text)
	out := make([][]engine.Span, len(ranges))
	for i, r := range ranges {
		pieces := offsetPieces(Tokenize(text[r.Start:r.End]), r.Start)
		spans := []engine.Span{}
		for _, m := range x.gaz.Find(pieces) {
			spans = append(spans, matchSpan(text, pieces, m))
		}
		out[i] = spans
	}
	return out, nil
}

func offsetPieces(pieces []Piece, base int) []Piece {
	for i := range pieces {
		pieces[i].Start += base
		pieces[i].End += base
	}
	return pieces
}

func matchSpan(text string, pieces []Piece, m Match) engine.Span {
	start, end := pieces[m.From].Start, pieces[m.To-1].End
	return engine.Span{Text: text[start:end], Label: m.Entry.Label, Start: start, End: end}
}
