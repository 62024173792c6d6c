// Package mcpadapter implements McpAdapter (spec.md §4.8): a static catalog
// of tools and prompts exposed to Model Context Protocol clients, backed by
// QueryService.
package mcpadapter

import (
	"context"
	"fmt"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/nlweb/query-core/pkg/schemas"
)

// QueryRunner is the subset of QueryService the adapter needs.
type QueryRunner interface {
	Process(ctx context.Context, req *schemas.NLWebRequest) (*schemas.NLWebResponse, error)
}

// Adapter implements the four MCP operations over a static tool/prompt
// catalog (spec.md §4.8).
type Adapter struct {
	service QueryRunner
	logger  schemas.Logger
}

// NewAdapter builds an Adapter over service.
func NewAdapter(service QueryRunner, logger schemas.Logger) *Adapter {
	return &Adapter{service: service, logger: logger}
}

var toolCatalog = []mcp.Tool{
	mcp.NewTool("nlweb_search",
		mcp.WithDescription("Search NLWeb-indexed content for a natural-language query."),
		mcp.WithString("query", mcp.Required(), mcp.Description("The search query.")),
		mcp.WithString("mode", mcp.Description("One of list, summarize, generate. Defaults to list.")),
		mcp.WithString("site", mcp.Description("Restrict the search to a single site.")),
		mcp.WithBoolean("streaming", mcp.Description("Whether to stream the response. Ignored by call_tool.")),
	),
	mcp.NewTool("nlweb_query_history",
		mcp.WithDescription("Search with decontextualization over a conversation history."),
		mcp.WithString("query", mcp.Required(), mcp.Description("The latest user query.")),
		mcp.WithString("previous_queries", mcp.Description("Comma-separated prior queries, oldest first.")),
		mcp.WithString("mode", mcp.Description("One of list, summarize, generate. Defaults to list.")),
	),
}

var promptCatalog = []mcp.Prompt{
	mcp.NewPrompt("nlweb_search_prompt",
		mcp.WithPromptDescription("Frame a search request around a topic."),
		mcp.WithArgument("topic", mcp.ArgumentDescription("The subject to search for."), mcp.RequiredArgument()),
		mcp.WithArgument("context", mcp.ArgumentDescription("Optional additional context.")),
	),
	mcp.NewPrompt("nlweb_summarize_prompt",
		mcp.WithPromptDescription("Frame a request to summarize search results for a query."),
		mcp.WithArgument("query", mcp.ArgumentDescription("The query to summarize results for."), mcp.RequiredArgument()),
		mcp.WithArgument("result_count", mcp.ArgumentDescription("Optional desired result count.")),
	),
	mcp.NewPrompt("nlweb_generate_prompt",
		mcp.WithPromptDescription("Frame a retrieval-augmented generation request."),
		mcp.WithArgument("question", mcp.ArgumentDescription("The question to answer."), mcp.RequiredArgument()),
		mcp.WithArgument("style", mcp.ArgumentDescription("Optional answer style.")),
	),
}

// ListTools returns the static tool catalog.
func (a *Adapter) ListTools(ctx context.Context) []mcp.Tool {
	return toolCatalog
}

// ListPrompts returns the static prompt catalog.
func (a *Adapter) ListPrompts(ctx context.Context) []mcp.Prompt {
	return promptCatalog
}

// CallTool translates arguments into an NLWebRequest, runs QueryService, and
// formats the response as a newline-delimited text block. It never returns a
// Go error: validation and execution failures are reported via IsError.
func (a *Adapter) CallTool(ctx context.Context, name string, arguments map[string]interface{}) *mcp.CallToolResult {
	switch name {
	case "nlweb_search":
		return a.callSearch(ctx, arguments)
	case "nlweb_query_history":
		return a.callQueryHistory(ctx, arguments)
	default:
		return errorResult(fmt.Sprintf("Unknown tool: %s", name))
	}
}

func (a *Adapter) callSearch(ctx context.Context, args map[string]interface{}) *mcp.CallToolResult {
	query, ok := stringArg(args, "query")
	if !ok || strings.TrimSpace(query) == "" {
		return errorResult("Missing required argument: query")
	}

	mode, err := schemas.ParseMode(stringArgOrEmpty(args, "mode"), schemas.ModeList)
	if err != nil {
		return errorResult(err.Error())
	}

	req := &schemas.NLWebRequest{
		Query: query,
		Mode:  mode,
		Site:  stringArgOrEmpty(args, "site"),
	}
	return a.runAndFormat(ctx, req)
}

func (a *Adapter) callQueryHistory(ctx context.Context, args map[string]interface{}) *mcp.CallToolResult {
	query, ok := stringArg(args, "query")
	if !ok || strings.TrimSpace(query) == "" {
		return errorResult("Missing required argument: query")
	}

	mode, err := schemas.ParseMode(stringArgOrEmpty(args, "mode"), schemas.ModeList)
	if err != nil {
		return errorResult(err.Error())
	}

	req := &schemas.NLWebRequest{
		Query: query,
		Mode:  mode,
		Prev:  schemas.SplitPrev(stringArgOrEmpty(args, "previous_queries")),
	}
	return a.runAndFormat(ctx, req)
}

func (a *Adapter) runAndFormat(ctx context.Context, req *schemas.NLWebRequest) *mcp.CallToolResult {
	resp, err := a.service.Process(ctx, req)
	if err != nil {
		if nerr, ok := err.(*schemas.NLWebError); ok {
			return errorResult(nerr.Message)
		}
		return errorResult(err.Error())
	}
	return mcp.NewToolResultText(formatResponse(resp))
}

// GetPrompt renders one of the static prompts with the supplied arguments.
func (a *Adapter) GetPrompt(ctx context.Context, name string, arguments map[string]string) *mcp.GetPromptResult {
	switch name {
	case "nlweb_search_prompt":
		topic := arguments["topic"]
		text := fmt.Sprintf("Search for information about %q.", topic)
		if ctxVal := arguments["context"]; ctxVal != "" {
			text += fmt.Sprintf(" Additional context: %s", ctxVal)
		}
		return singleMessagePrompt("Search prompt", text)
	case "nlweb_summarize_prompt":
		query := arguments["query"]
		text := fmt.Sprintf("Summarize the search results for %q.", query)
		if count := arguments["result_count"]; count != "" {
			text += fmt.Sprintf(" Use up to %s results.", count)
		}
		return singleMessagePrompt("Summarize prompt", text)
	case "nlweb_generate_prompt":
		question := arguments["question"]
		text := fmt.Sprintf("Answer the question %q using retrieved results.", question)
		if style := arguments["style"]; style != "" {
			text += fmt.Sprintf(" Answer style: %s.", style)
		}
		return singleMessagePrompt("Generate prompt", text)
	default:
		return singleMessagePrompt(fmt.Sprintf("Unknown prompt: %s", name), "")
	}
}

func singleMessagePrompt(description, text string) *mcp.GetPromptResult {
	return mcp.NewGetPromptResult(description, []mcp.PromptMessage{
		mcp.NewPromptMessage(mcp.RoleUser, mcp.NewTextContent(text)),
	})
}

func errorResult(msg string) *mcp.CallToolResult {
	result := mcp.NewToolResultText(msg)
	result.IsError = true
	return result
}

func stringArg(args map[string]interface{}, key string) (string, bool) {
	v, ok := args[key]
	if !ok {
		return "", false
	}
	s, ok := v.(string)
	return s, ok
}

func stringArgOrEmpty(args map[string]interface{}, key string) string {
	s, _ := stringArg(args, key)
	return s
}

// formatResponse renders an NLWebResponse as the newline-delimited text
// block described in spec.md §4.8.
func formatResponse(resp *schemas.NLWebResponse) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Query ID: %s\n", resp.QueryID)
	fmt.Fprintf(&b, "Results Count: %d\n", len(resp.Results))
	if resp.Summary != nil {
		fmt.Fprintf(&b, "Summary: %s\n", *resp.Summary)
	}
	for i, r := range resp.Results {
		fmt.Fprintf(&b, "%d. %s / %s / %.2f / %s\n", i+1, r.Name, r.URL, r.Score, r.Description)
	}
	return b.String()
}
