package query

import (
	"strings"

	"github.com/nlweb/query-core/pkg/config"
	"github.com/nlweb/query-core/pkg/schemas"
)

// Selector implements ToolSelector: spec.md §4.4's five ordered rules.
type Selector struct {
	cfg *config.Config
}

// NewSelector builds a Selector.
func NewSelector(cfg *config.Config) *Selector {
	return &Selector{cfg: cfg}
}

var (
	compareKeywords  = []string{"compare", "difference", "versus", "vs", "contrast"}
	detailsKeywords  = []string{"details", "information about", "tell me about", "describe"}
	ensembleKeywords = []string{"recommend", "suggest", "what should", "ensemble", "set of"}
	searchKeywords   = []string{"search", "find", "look for", "locate"}
)

// Select chooses a tool name for req per spec.md §4.4, first match wins.
func (s *Selector) Select(req *schemas.NLWebRequest) schemas.ToolName {
	if !s.cfg.ToolSelectionEnabled {
		return schemas.ToolNone
	}
	if req.Mode == schemas.ModeGenerate {
		return schemas.ToolNone
	}
	if req.DecontextualizedOnIngress {
		return schemas.ToolNone
	}

	q := strings.ToLower(req.DecontextualizedQuery)
	switch {
	case containsAny(q, compareKeywords):
		return schemas.ToolCompare
	case containsAny(q, detailsKeywords):
		return schemas.ToolDetails
	case containsAny(q, ensembleKeywords):
		return schemas.ToolEnsemble
	case containsAny(q, searchKeywords):
		return schemas.ToolSearch
	default:
		return schemas.ToolSearch
	}
}

func containsAny(haystack string, needles []string) bool {
	for _, n := range needles {
		if strings.Contains(haystack, n) {
			return true
		}
	}
	return false
}
