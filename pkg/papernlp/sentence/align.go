package sentence

// Pair links a primary sentence index to a secondary sentence index.
type Pair struct {
	Primary   int
	Secondary int
}

// Align pairs the sentences of two segmentations of the same text.
//
// Policy: index-aligned, truncated to the shorter sequence. Sentence i of
// the primary parse receives the spans of sentence i of the secondary
// model; sentences past min(primary, secondary) on either side are left
// unpaired and their spans are dropped. The result is strictly increasing
// on both sides, so no secondary sentence is merged twice.
func Align(primary, secondary int) []Pair {
	n := primary
	if secondary < n {
		n = secondary
	}
	if n <= 0 {
		return nil
	}
	pairs := make([]Pair, n)
	for i := range pairs {
		pairs[i] = Pair{Primary: i, Secondary: i}
	}
	return pairs
}
