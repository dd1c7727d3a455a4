package assemble

// Summary is the id-independent content of a tree. Two runs over the same
// input produce equal summaries even though every id differs.
type Summary struct {
	AbstractSections int
	BodySections     []string
	Sentences        int
	Lemmas           map[string]int
	Entities         map[string]int
}

// Summary computes the tree's summary.
func (t *Tree) Summary() Summary {
	s := Summary{
		AbstractSections: len(t.Abstract),
		Sentences:        len(t.Sentences),
		Lemmas:           map[string]int{},
		Entities:         map[string]int{},
	}
	for _, ref := range t.TextBody {
		s.BodySections = append(s.BodySections, ref.SectionName)
	}
	for _, sent := range t.Sentences {
		for _, l := range sent.Lemmas {
			s.Lemmas[l]++
		}
		for _, e := range sent.Entities {
			s.Entities[e.ConceptID]++
		}
	}
	return s
}
