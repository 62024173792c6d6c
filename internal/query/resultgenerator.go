package query

import (
	"context"
	"fmt"
	"strings"

	"github.com/nlweb/query-core/pkg/config"
	"github.com/nlweb/query-core/pkg/schemas"
)

// ResultGenerator implements spec.md §4.6's per-mode response shaping.
type ResultGenerator struct {
	cfg  *config.Config
	chat schemas.ChatClient
}

// NewResultGenerator builds a ResultGenerator. chat may be nil; Summarize and
// Generate modes then always degrade to List.
func NewResultGenerator(cfg *config.Config, chat schemas.ChatClient) *ResultGenerator {
	return &ResultGenerator{cfg: cfg, chat: chat}
}

// EnsembleGroup pairs a keyword expansion with the results it produced.
type EnsembleGroup struct {
	Keyword string
	Results []schemas.NLWebResult
}

func (g *ResultGenerator) topK(results []schemas.NLWebResult) []schemas.NLWebResult {
	k := g.cfg.MaxResultsPerQuery
	if k > 0 && len(results) > k {
		return results[:k]
	}
	return results
}

// Generate shapes a plain List/Summarize/Generate response from a single
// merged result set.
func (g *ResultGenerator) Generate(ctx context.Context, req *schemas.NLWebRequest, results []schemas.NLWebResult) (*schemas.NLWebResponse, error) {
	top := g.topK(results)
	resp := g.baseResponse(req, req.Mode, top)

	switch req.Mode {
	case schemas.ModeList:
		// results as-is, summary stays nil
	case schemas.ModeSummarize:
		summary, err := g.summarize(ctx, req.DecontextualizedQuery, top)
		g.applySummaryOrDegrade(resp, summary, err)
	case schemas.ModeGenerate:
		answer, err := g.generate(ctx, req.DecontextualizedQuery, top)
		g.applySummaryOrDegrade(resp, answer, err)
	}
	return resp, nil
}

// GenerateCompare produces the compare handler's side-by-side summary.
func (g *ResultGenerator) GenerateCompare(ctx context.Context, req *schemas.NLWebRequest, subjectA string, resultsA []schemas.NLWebResult, subjectB string, resultsB []schemas.NLWebResult) (*schemas.NLWebResponse, error) {
	topA := g.topK(resultsA)
	topB := g.topK(resultsB)

	merged := make([]schemas.NLWebResult, 0, len(topA)+len(topB))
	merged = append(merged, topA...)
	merged = append(merged, topB...)

	resp := g.baseResponse(req, schemas.ModeSummarize, merged)

	summary, err := g.compareSummary(ctx, subjectA, topA, subjectB, topB)
	g.applySummaryOrDegrade(resp, summary, err)
	return resp, nil
}

// GenerateEnsemble produces the ensemble handler's grouped summary.
func (g *ResultGenerator) GenerateEnsemble(ctx context.Context, req *schemas.NLWebRequest, groups []EnsembleGroup) (*schemas.NLWebResponse, error) {
	var merged []schemas.NLWebResult
	for _, grp := range groups {
		merged = append(merged, g.topK(grp.Results)...)
	}

	resp := g.baseResponse(req, schemas.ModeSummarize, merged)

	summary, err := g.ensembleSummary(ctx, groups)
	g.applySummaryOrDegrade(resp, summary, err)
	return resp, nil
}

func (g *ResultGenerator) baseResponse(req *schemas.NLWebRequest, mode schemas.Mode, results []schemas.NLWebResult) *schemas.NLWebResponse {
	return &schemas.NLWebResponse{
		QueryID:               req.QueryID,
		Query:                 req.Query,
		DecontextualizedQuery: req.DecontextualizedQuery,
		Mode:                  mode,
		Results:               results,
		Site:                  req.Site,
		Warning:               req.Warning,
	}
}

// applySummaryOrDegrade sets resp.Summary on success, or degrades resp to
// List mode with a warning on chat-client failure (spec.md §7
// chat-client-unavailable: "Degrade to List mode... do not fail the
// request.").
func (g *ResultGenerator) applySummaryOrDegrade(resp *schemas.NLWebResponse, summary string, err error) {
	if err != nil {
		resp.Mode = schemas.ModeList
		resp.Warning = appendWarning(resp.Warning, "chat client unavailable, degraded to list mode")
		resp.Summary = nil
		return
	}
	resp.Summary = &summary
}

func (g *ResultGenerator) summarize(ctx context.Context, query string, results []schemas.NLWebResult) (string, error) {
	if g.chat == nil {
		return "", schemas.ErrChatClientUnavailable("no chat client configured", nil)
	}
	messages := []schemas.ChatMessage{
		{Role: "system", Content: "Summarize the following search results for the user's query. Be concise."},
		{Role: "user", Content: query + "\n\n" + formatSnippets(results)},
	}
	out, err := g.chat.Complete(ctx, messages)
	if err != nil {
		return "", schemas.ErrChatClientUnavailable("summarize failed", err)
	}
	return out, nil
}

func (g *ResultGenerator) generate(ctx context.Context, query string, results []schemas.NLWebResult) (string, error) {
	if g.chat == nil {
		return "", schemas.ErrChatClientUnavailable("no chat client configured", nil)
	}
	messages := []schemas.ChatMessage{
		{Role: "system", Content: "Answer the user's question using only the provided results. Cite sources by URL where relevant."},
		{Role: "user", Content: query + "\n\n" + formatSnippets(results)},
	}
	out, err := g.chat.Complete(ctx, messages)
	if err != nil {
		return "", schemas.ErrChatClientUnavailable("generate failed", err)
	}
	return out, nil
}

func (g *ResultGenerator) compareSummary(ctx context.Context, subjectA string, resultsA []schemas.NLWebResult, subjectB string, resultsB []schemas.NLWebResult) (string, error) {
	if g.chat == nil {
		return "", schemas.ErrChatClientUnavailable("no chat client configured", nil)
	}
	var b strings.Builder
	fmt.Fprintf(&b, "=== %s ===\n%s\n\n=== %s ===\n%s\n", subjectA, formatSnippets(resultsA), subjectB, formatSnippets(resultsB))

	messages := []schemas.ChatMessage{
		{Role: "system", Content: "Produce a side-by-side comparison of the two subjects using only the provided results, with one section per subject."},
		{Role: "user", Content: b.String()},
	}
	out, err := g.chat.Complete(ctx, messages)
	if err != nil {
		return "", schemas.ErrChatClientUnavailable("compare summary failed", err)
	}
	return out, nil
}

func (g *ResultGenerator) ensembleSummary(ctx context.Context, groups []EnsembleGroup) (string, error) {
	if g.chat == nil {
		return "", schemas.ErrChatClientUnavailable("no chat client configured", nil)
	}
	var b strings.Builder
	for _, grp := range groups {
		fmt.Fprintf(&b, "=== %s ===\n%s\n\n", grp.Keyword, formatSnippets(grp.Results))
	}

	messages := []schemas.ChatMessage{
		{Role: "system", Content: "Produce a grouped recommendation summary from the provided result sets, with one section per group."},
		{Role: "user", Content: b.String()},
	}
	out, err := g.chat.Complete(ctx, messages)
	if err != nil {
		return "", schemas.ErrChatClientUnavailable("ensemble summary failed", err)
	}
	return out, nil
}

func formatSnippets(results []schemas.NLWebResult) string {
	var b strings.Builder
	for i, r := range results {
		fmt.Fprintf(&b, "%d. %s - %s (%s)\n", i+1, r.Name, r.Description, r.URL)
	}
	return b.String()
}

func appendWarning(existing, add string) string {
	if existing == "" {
		return add
	}
	return existing + "; " + add
}
