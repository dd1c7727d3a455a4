package rules

import (
	"context"

	"github.com/cognicore/papernlp/pkg/papernlp/engine"
)

// EntityLabel tags every mention found by the concept gazetteer.
const EntityLabel = "ENTITY"

// Parser is the builtin primary parser.
type Parser struct {
	seg      *Segmenter
	stops    *Stoplist
	lex      *Lexicon
	vec      Vectorizer
	mentions *Gazetteer
}

// Parse segments text and annotates every sentence.
func (p *Parser) Parse(ctx context.Context, text string) (*engine.Parsed, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	out := &engine.Parsed{Text: text, Abbreviations: DetectAbbreviations(text)}
	for _, r := range p.seg.Split(text) {
		pieces := offsetPieces(Tokenize(text[r.Start:r.End]), r.Start)
		sent := engine.ParsedSentence{Text: text[r.Start:r.End], Tokens: make([]engine.Token, len(pieces))}
		for i, pc := range pieces {
			tok := engine.Token{Text: pc.Text, Lemma: pc.Text}
			if pc.Word {
				tok.Lemma = p.lex.Lemma(pc.Text)
				tok.Stop = p.stops.IsStop(pc.Text)
				tok.Vector = p.vec.Vector(pc.Text)
			}
			sent.Tokens[i] = tok
		}
		for _, m := range p.mentions.Find(pieces) {
			span := matchSpan(text, pieces, m)
			span.Label = EntityLabel
			sent.Entities = append(sent.Entities, span)
		}
		out.Sentences = append(out.Sentences, sent)
	}
	return out, nil
}
