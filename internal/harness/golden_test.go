package harness

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSnapshot(t *testing.T) {
	trace := Trace{
		States: []StateEvent{{Loaded: false, IDs: []string{}}, {Loaded: true, IDs: []string{"a"}}},
		News: []NewsEvent{
			{Kind: NewsResults, IDs: []string{"a"}},
			{Kind: NewsError, Error: "bad <thing>"},
		},
	}

	got, err := Snapshot("demo", trace)
	require.NoError(t, err)
	assert.Equal(t,
		`{"news":[{"ids":["a"],"kind":"results"},{"error":"bad <thing>","kind":"error"}],`+
			`"scenario":"demo","states":[{"ids":[],"loaded":false},{"ids":["a"],"loaded":true}]}`,
		string(got))
}

func TestSnapshot_EmptyResultsKeepIDs(t *testing.T) {
	got, err := Snapshot("empty", Trace{News: []NewsEvent{{Kind: NewsResults}}})
	require.NoError(t, err)
	assert.Equal(t, `{"news":[{"ids":[],"kind":"results"}],"scenario":"empty","states":[]}`, string(got))
}

func TestSnapshot_Deterministic(t *testing.T) {
	trace := Trace{States: []StateEvent{{Loaded: true, IDs: []string{"b", "a"}}}}

	first, err := Snapshot("x", trace)
	require.NoError(t, err)
	for range 10 {
		again, err := Snapshot("x", trace)
		require.NoError(t, err)
		assert.Equal(t, first, again)
	}
}
