package query

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/nlweb/query-core/pkg/schemas"
)

func TestSelector_DisabledAlwaysNone(t *testing.T) {
	cfg := testConfig()
	cfg.ToolSelectionEnabled = false
	s := NewSelector(cfg)

	tool := s.Select(&schemas.NLWebRequest{DecontextualizedQuery: "compare a vs b", Mode: schemas.ModeList})
	assert.Equal(t, schemas.ToolNone, tool)
}

func TestSelector_GenerateModeAlwaysNone(t *testing.T) {
	s := NewSelector(testConfig())
	tool := s.Select(&schemas.NLWebRequest{DecontextualizedQuery: "compare a vs b", Mode: schemas.ModeGenerate})
	assert.Equal(t, schemas.ToolNone, tool)
}

func TestSelector_DecontextualizedOnIngressAlwaysNone(t *testing.T) {
	s := NewSelector(testConfig())
	tool := s.Select(&schemas.NLWebRequest{
		DecontextualizedQuery:     "compare a vs b",
		Mode:                      schemas.ModeList,
		DecontextualizedOnIngress: true,
	})
	assert.Equal(t, schemas.ToolNone, tool)
}

func TestSelector_KeywordPriorityCompareOverDetailsOverEnsembleOverSearch(t *testing.T) {
	s := NewSelector(testConfig())

	cases := []struct {
		query string
		want  schemas.ToolName
	}{
		{"compare and find details, search and recommend", schemas.ToolCompare},
		{"tell me about this and recommend something, search", schemas.ToolDetails},
		{"recommend something, search for it", schemas.ToolEnsemble},
		{"search for this", schemas.ToolSearch},
		{"just a plain question", schemas.ToolSearch},
	}
	for _, c := range cases {
		got := s.Select(&schemas.NLWebRequest{DecontextualizedQuery: c.query, Mode: schemas.ModeList})
		assert.Equal(t, c.want, got, "query: %q", c.query)
	}
}

func TestSelector_MatchesAreCaseInsensitive(t *testing.T) {
	s := NewSelector(testConfig())
	tool := s.Select(&schemas.NLWebRequest{DecontextualizedQuery: "COMPARE A VS B", Mode: schemas.ModeList})
	assert.Equal(t, schemas.ToolCompare, tool)
}
