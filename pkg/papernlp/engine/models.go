package engine

import (
	"context"
	"fmt"
	"sort"
	"strings"
)

// Secondary model names, in the order their spans are merged.
const (
	ModelCraft      = "craft"
	ModelJNLPBA     = "jnlpba"
	ModelBC5CDR     = "bc5cdr"
	ModelBioNLP13CG = "bionlp13cg"
)

// Models selects which models a worker loads. The pipeline passes it through
// to the Factory untouched.
type Models struct {
	UMLS       bool `mapstructure:"umls" json:"umls"`
	Craft      bool `mapstructure:"craft" json:"craft"`
	JNLPBA     bool `mapstructure:"jnlpba" json:"jnlpba"`
	BC5CDR     bool `mapstructure:"bc5cdr" json:"bc5cdr"`
	BioNLP13CG bool `mapstructure:"bionlp13cg" json:"bionlp13cg"`
}

// AllModels enables everything.
func AllModels() Models {
	return Models{UMLS: true, Craft: true, JNLPBA: true, BC5CDR: true, BioNLP13CG: true}
}

// Secondary lists the enabled secondary models in merge order.
func (m Models) Secondary() []string {
	var out []string
	if m.Craft {
		out = append(out, ModelCraft)
	}
	if m.JNLPBA {
		out = append(out, ModelJNLPBA)
	}
	if m.BC5CDR {
		out = append(out, ModelBC5CDR)
	}
	if m.BioNLP13CG {
		out = append(out, ModelBioNLP13CG)
	}
	return out
}

// Enabled reports whether the named secondary model is switched on.
func (m Models) Enabled(name string) bool {
	for _, n := range m.Secondary() {
		if n == name {
			return true
		}
	}
	return false
}

// String renders the selection for logs.
func (m Models) String() string {
	names := m.Secondary()
	if m.UMLS {
		names = append([]string{"umls"}, names...)
	}
	if len(names) == 0 {
		return "none"
	}
	return strings.Join(names, ",")
}

// Builder constructs an Engine for one backend.
type Builder func(ctx context.Context, models Models) (*Engine, error)

// Factory maps backend names to builders.
type Factory struct {
	builders map[string]Builder
}

// NewFactory creates an empty factory.
func NewFactory() *Factory {
	return &Factory{builders: make(map[string]Builder)}
}

// Register adds a backend.
func (f *Factory) Register(name string, b Builder) {
	f.builders[strings.ToLower(name)] = b
}

// Backends lists registered backend names.
func (f *Factory) Backends() []string {
	out := make([]string, 0, len(f.builders))
	for name := range f.builders {
		out = append(out, name)
	}
	sort.Strings(out)
	return out
}

// New builds the engine for backend.
func (f *Factory) New(ctx context.Context, backend string, models Models) (*Engine, error) {
	b, ok := f.builders[strings.ToLower(backend)]
	if !ok {
		return nil, fmt.Errorf("engine: unknown backend %q (have %s)", backend, strings.Join(f.Backends(), ", "))
	}
	eng, err := b(ctx, models)
	if err != nil {
		return nil, fmt.Errorf("engine: build %s: %w", backend, err)
	}
	if err := eng.Validate(); err != nil {
		if eng != nil {
			_ = eng.Close()
		}
		return nil, err
	}
	return eng, nil
}

// DefaultLabels is the label vocabulary every sentence starts with. Labels
// reported by secondary models outside this list are added per run.
var DefaultLabels = []string{
	"GGP", "SO", "TAXON", "CHEBI", "GO", "CL", "DNA", "CELL_TYPE", "CELL_LINE", "RNA",
	"PROTEIN", "DISEASE", "CHEMICAL", "CANCER", "ORGAN", "TISSUE", "ORGANISM", "CELL",
	"AMINO_ACID", "GENE_OR_GENE_PRODUCT", "SIMPLE_CHEMICAL", "ANATOMICAL_SYSTEM",
	"IMMATERIAL_ANATOMICAL_ENTITY", "MULTI-TISSUE_STRUCTURE", "DEVELOPING_ANATOMICAL_STRUCTURE",
	"ORGANISM_SUBDIVISION", "CELLULAR_COMPONENT", "PATHOLOGICAL_FORMATION",
}
