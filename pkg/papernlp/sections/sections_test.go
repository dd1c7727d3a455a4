package sections

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCanonical(t *testing.T) {
	c := Default()
	cases := map[string]string{
		"intro":                    "introduction",
		"Introduction":             "introduction",
		"methods":                  "methods",
		"Materials and Methods":    "methods",
		"Conclusions:":             "discussion",
		"Case presentation":        "methods",
		"Clinical course":          "clinical",
		"Statistical tests":        "statistics",
		"Data sources":             "statistics",
		"General discussion":       "discussion",
		"Patient recruitment":      "subjects",
		"Experimental results":     "results",
		"Final concluding remarks": "discussion",
		"Funding":                  "funding",
		"  ":                       "",
		"":                         "",
	}
	for in, want := range cases {
		assert.Equal(t, want, c.Canonical(in), in)
	}
}

func TestParseCustomTable(t *testing.T) {
	c, err := Parse([]byte(`
labels:
  methods: [protocol]
  aaa: [protocol]
heuristics:
  - {contains: [Ethic], label: ethics}
`))
	require.NoError(t, err)
	assert.Equal(t, "aaa", c.Canonical("Protocol"))
	assert.Equal(t, "ethics", c.Canonical("Ethics statement"))
	assert.Equal(t, "results", New(Table{Cleanup: []Rule{{Contains: []string{"res"}, Label: "results"}}}).Canonical("Main res"))
}

func TestParseInvalid(t *testing.T) {
	_, err := Parse([]byte("labels: [not, a, map]"))
	assert.Error(t, err)
}
