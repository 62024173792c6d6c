// Package query implements the request-processing pipeline described in
// spec.md §4.3-4.6: QueryProcessor normalizes a request, ToolSelector picks a
// strategy, the matching Handler runs it, and ResultGenerator shapes the
// response for the request's mode.
package query

import (
	"context"
	"strings"

	"github.com/google/uuid"

	"github.com/nlweb/query-core/pkg/config"
	"github.com/nlweb/query-core/pkg/schemas"
)

// Processor implements QueryProcessor: length validation, query_id
// assignment, and decontextualization.
type Processor struct {
	cfg    *config.Config
	chat   schemas.ChatClient
	logger schemas.Logger
}

// NewProcessor builds a Processor. chat may be nil, in which case
// decontextualization always degrades to the original query.
func NewProcessor(cfg *config.Config, chat schemas.ChatClient, logger schemas.Logger) *Processor {
	return &Processor{cfg: cfg, chat: chat, logger: logger}
}

// Process validates and normalizes req in place, assigning QueryID and
// DecontextualizedQuery.
func (p *Processor) Process(ctx context.Context, req *schemas.NLWebRequest) error {
	if strings.TrimSpace(req.Query) == "" {
		return schemas.ErrInvalidArgument("query must not be empty")
	}
	if len(req.Query) > p.cfg.MaxQueryLength {
		return schemas.ErrInvalidArgument("query exceeds MaxQueryLength")
	}
	if req.QueryID == "" {
		req.QueryID = uuid.NewString()
	}

	if req.DecontextualizedOnIngress {
		return nil
	}

	if len(req.Prev) == 0 || !p.cfg.EnableDecontextualization {
		req.DecontextualizedQuery = req.Query
		return nil
	}

	rewritten, err := p.decontextualize(ctx, req.Prev, req.Query)
	if err != nil {
		p.logger.Warn("decontextualization failed, falling back to original query: " + err.Error())
		req.DecontextualizedQuery = req.Query
		req.Warning = appendWarning(req.Warning, "decontextualization unavailable, used original query")
		return nil
	}
	req.DecontextualizedQuery = rewritten
	return nil
}

func (p *Processor) decontextualize(ctx context.Context, prev []string, query string) (string, error) {
	if p.chat == nil {
		return "", schemas.ErrChatClientUnavailable("no chat client configured", nil)
	}

	var b strings.Builder
	for _, q := range prev {
		b.WriteString(q)
		b.WriteString("\n")
	}
	b.WriteString(query)

	messages := []schemas.ChatMessage{
		{Role: "system", Content: "Rewrite the final user query into a standalone query that incorporates the necessary context from the prior queries. Respond with only the rewritten query."},
		{Role: "user", Content: b.String()},
	}

	out, err := p.chat.Complete(ctx, messages)
	if err != nil {
		return "", schemas.ErrChatClientUnavailable("decontextualization call failed", err)
	}
	rewritten := strings.TrimSpace(out)
	if rewritten == "" {
		return "", schemas.ErrChatClientUnavailable("decontextualization returned empty query", nil)
	}
	return rewritten, nil
}
