package query

import (
	"context"
	"fmt"
	"strings"

	"golang.org/x/sync/errgroup"

	"github.com/nlweb/query-core/pkg/config"
	"github.com/nlweb/query-core/pkg/schemas"
)

// BackendQuerier is the subset of BackendManager a Handler needs: fan a
// single query out across the registered backends and return the merged,
// ordered results.
type BackendQuerier interface {
	Query(ctx context.Context, query, site string, maxResults int) ([]schemas.NLWebResult, error)
}

// Handler implements one ToolHandler per spec.md §4.5.
type Handler interface {
	Execute(ctx context.Context, req *schemas.NLWebRequest) (*schemas.NLWebResponse, error)
	CanHandle(req *schemas.NLWebRequest) bool
	Priority(req *schemas.NLWebRequest) int
}

// SearchHandler is the default tool: a single BackendManager query shaped by
// ResultGenerator.
type SearchHandler struct {
	backend BackendQuerier
	gen     *ResultGenerator
	cfg     *config.Config
}

// NewSearchHandler builds a SearchHandler.
func NewSearchHandler(backend BackendQuerier, gen *ResultGenerator, cfg *config.Config) *SearchHandler {
	return &SearchHandler{backend: backend, gen: gen, cfg: cfg}
}

func (h *SearchHandler) CanHandle(req *schemas.NLWebRequest) bool { return true }
func (h *SearchHandler) Priority(req *schemas.NLWebRequest) int   { return 0 }

func (h *SearchHandler) Execute(ctx context.Context, req *schemas.NLWebRequest) (*schemas.NLWebResponse, error) {
	results, err := h.backend.Query(ctx, req.DecontextualizedQuery, req.Site, h.cfg.MaxResultsPerQuery)
	if err != nil {
		return nil, err
	}
	return h.gen.Generate(ctx, req, results)
}

// DetailsHandler augments the query with a "detailed specifications" framing
// and requests fewer, deeper results.
type DetailsHandler struct {
	backend BackendQuerier
	gen     *ResultGenerator
	cfg     *config.Config
}

// NewDetailsHandler builds a DetailsHandler.
func NewDetailsHandler(backend BackendQuerier, gen *ResultGenerator, cfg *config.Config) *DetailsHandler {
	return &DetailsHandler{backend: backend, gen: gen, cfg: cfg}
}

func (h *DetailsHandler) CanHandle(req *schemas.NLWebRequest) bool { return true }
func (h *DetailsHandler) Priority(req *schemas.NLWebRequest) int   { return 0 }

func (h *DetailsHandler) Execute(ctx context.Context, req *schemas.NLWebRequest) (*schemas.NLWebResponse, error) {
	augmented := req.DecontextualizedQuery + " detailed specifications"

	maxResults := h.cfg.MaxResultsPerQuery / 2
	if maxResults < 1 {
		maxResults = 1
	}

	results, err := h.backend.Query(ctx, augmented, req.Site, maxResults)
	if err != nil {
		return nil, err
	}

	detailed := *req
	if h.cfg.DefaultMode == schemas.ModeGenerate {
		detailed.Mode = schemas.ModeGenerate
	} else {
		detailed.Mode = schemas.ModeSummarize
	}
	return h.gen.Generate(ctx, &detailed, results)
}

// CompareHandler splits the query into two subject phrases and queries the
// backend for each in parallel.
type CompareHandler struct {
	backend BackendQuerier
	gen     *ResultGenerator
	cfg     *config.Config
}

// NewCompareHandler builds a CompareHandler.
func NewCompareHandler(backend BackendQuerier, gen *ResultGenerator, cfg *config.Config) *CompareHandler {
	return &CompareHandler{backend: backend, gen: gen, cfg: cfg}
}

func (h *CompareHandler) CanHandle(req *schemas.NLWebRequest) bool { return true }
func (h *CompareHandler) Priority(req *schemas.NLWebRequest) int   { return 0 }

func (h *CompareHandler) Execute(ctx context.Context, req *schemas.NLWebRequest) (*schemas.NLWebResponse, error) {
	subjectA, subjectB, ok := splitCompareSubjects(req.DecontextualizedQuery)
	if !ok {
		return nil, schemas.ErrInvalidArgument("compare tool could not identify two subjects in the query")
	}

	var resultsA, resultsB []schemas.NLWebResult
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		res, err := h.backend.Query(gctx, subjectA, req.Site, h.cfg.MaxResultsPerQuery)
		if err != nil {
			return err
		}
		resultsA = res
		return nil
	})
	g.Go(func() error {
		res, err := h.backend.Query(gctx, subjectB, req.Site, h.cfg.MaxResultsPerQuery)
		if err != nil {
			return err
		}
		resultsB = res
		return nil
	})
	if err := g.Wait(); err != nil {
		return nil, schemas.ErrBackendUnavailable("compare backend query failed", err)
	}

	return h.gen.GenerateCompare(ctx, req, subjectA, resultsA, subjectB, resultsB)
}

var compareSeparators = []string{" versus ", " vs. ", " vs ", " and ", " to ", ","}
var comparePrefixes = []string{"compare ", "difference between ", "contrast "}

// splitCompareSubjects extracts the two subjects of a comparison query, e.g.
// "compare .NET Core vs .NET Framework" -> (".NET Core", ".NET Framework").
func splitCompareSubjects(query string) (string, string, bool) {
	trimmed := query
	lower := strings.ToLower(trimmed)
	for _, prefix := range comparePrefixes {
		if strings.HasPrefix(lower, prefix) {
			trimmed = trimmed[len(prefix):]
			break
		}
	}

	lower = strings.ToLower(trimmed)
	for _, sep := range compareSeparators {
		if idx := strings.Index(lower, sep); idx >= 0 {
			a := strings.TrimSpace(trimmed[:idx])
			b := strings.TrimSpace(trimmed[idx+len(sep):])
			if a != "" && b != "" {
				return a, b, true
			}
		}
	}
	return "", "", false
}

// EnsembleHandler issues N parallel backend queries using keyword
// expansions derived from the query.
type EnsembleHandler struct {
	backend BackendQuerier
	gen     *ResultGenerator
	cfg     *config.Config
}

// NewEnsembleHandler builds an EnsembleHandler.
func NewEnsembleHandler(backend BackendQuerier, gen *ResultGenerator, cfg *config.Config) *EnsembleHandler {
	return &EnsembleHandler{backend: backend, gen: gen, cfg: cfg}
}

func (h *EnsembleHandler) CanHandle(req *schemas.NLWebRequest) bool { return true }
func (h *EnsembleHandler) Priority(req *schemas.NLWebRequest) int   { return 0 }

func (h *EnsembleHandler) Execute(ctx context.Context, req *schemas.NLWebRequest) (*schemas.NLWebResponse, error) {
	expansions := ensembleExpansions(req.DecontextualizedQuery)
	groups := make([]EnsembleGroup, len(expansions))

	g, gctx := errgroup.WithContext(ctx)
	for i, kw := range expansions {
		i, kw := i, kw
		g.Go(func() error {
			results, err := h.backend.Query(gctx, kw, req.Site, h.cfg.MaxResultsPerQuery)
			if err != nil {
				return err
			}
			groups[i] = EnsembleGroup{Keyword: kw, Results: results}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, schemas.ErrBackendUnavailable("ensemble backend query failed", err)
	}

	return h.gen.GenerateEnsemble(ctx, req, groups)
}

var ensembleStopwords = map[string]bool{
	"recommend": true, "suggest": true, "what": true, "should": true,
	"i": true, "we": true, "ensemble": true, "set": true, "of": true,
	"a": true, "the": true, "for": true, "me": true, "some": true,
}

// ensembleExpansions derives keyword expansions from a query by dropping
// stopwords, falling back to the full query when nothing significant
// remains.
func ensembleExpansions(query string) []string {
	words := strings.Fields(query)
	var keywords []string
	for _, w := range words {
		clean := strings.Trim(strings.ToLower(w), ".,!?")
		if clean == "" || ensembleStopwords[clean] {
			continue
		}
		keywords = append(keywords, clean)
	}
	if len(keywords) == 0 {
		return []string{query}
	}
	return keywords
}

// HandlerRegistry maps a ToolName to its Handler and applies the
// fallback-to-search policy of spec.md §4.5's last paragraph.
type HandlerRegistry struct {
	handlers map[schemas.ToolName]Handler
	search   Handler
}

// NewHandlerRegistry builds a HandlerRegistry. search also backs the
// ToolNone entry (the default flow) and is the fallback target on handler
// failure.
func NewHandlerRegistry(search, details, compare, ensemble Handler) *HandlerRegistry {
	return &HandlerRegistry{
		handlers: map[schemas.ToolName]Handler{
			schemas.ToolNone:     search,
			schemas.ToolSearch:   search,
			schemas.ToolDetails:  details,
			schemas.ToolCompare:  compare,
			schemas.ToolEnsemble: ensemble,
		},
		search: search,
	}
}

// Dispatch runs the handler selected for tool, falling back to search on
// failure (and surfacing the fallback's error, if any, instead).
func (hr *HandlerRegistry) Dispatch(ctx context.Context, tool schemas.ToolName, req *schemas.NLWebRequest) (*schemas.NLWebResponse, error) {
	handler, ok := hr.handlers[tool]
	if !ok {
		handler = hr.search
	}

	resp, err := handler.Execute(ctx, req)
	if err == nil {
		return resp, nil
	}
	if handler == hr.search {
		return nil, err
	}

	fallbackReq := *req
	fallbackResp, fbErr := hr.search.Execute(ctx, &fallbackReq)
	if fbErr != nil {
		return nil, fbErr
	}
	fallbackResp.Warning = appendWarning(fallbackResp.Warning, fmt.Sprintf("%s tool failed, fell back to search", tool))
	return fallbackResp, nil
}
