package mcpadapter

import (
	"context"
	"strings"
	"testing"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nlweb/query-core/pkg/logging"
	"github.com/nlweb/query-core/pkg/schemas"
)

type fakeQueryRunner struct {
	resp *schemas.NLWebResponse
	err  error
}

func (f *fakeQueryRunner) Process(ctx context.Context, req *schemas.NLWebRequest) (*schemas.NLWebResponse, error) {
	return f.resp, f.err
}

func testAdapterLogger() schemas.Logger {
	return logging.NewDefaultLogger(schemas.LogLevelError)
}

func TestListTools_ReturnsStaticCatalog(t *testing.T) {
	a := NewAdapter(&fakeQueryRunner{}, testAdapterLogger())
	tools := a.ListTools(context.Background())
	require.Len(t, tools, 2)
	assert.Equal(t, "nlweb_search", tools[0].Name)
	assert.Equal(t, "nlweb_query_history", tools[1].Name)
}

func TestListPrompts_ReturnsStaticCatalog(t *testing.T) {
	a := NewAdapter(&fakeQueryRunner{}, testAdapterLogger())
	prompts := a.ListPrompts(context.Background())
	require.Len(t, prompts, 3)
}

func TestCallTool_Search_Success(t *testing.T) {
	summary := "a summary"
	resp := &schemas.NLWebResponse{
		QueryID: "q1",
		Results: []schemas.NLWebResult{{Name: "A", URL: "http://a", Score: 0.876, Description: "desc"}},
		Summary: &summary,
	}
	a := NewAdapter(&fakeQueryRunner{resp: resp}, testAdapterLogger())

	result := a.CallTool(context.Background(), "nlweb_search", map[string]interface{}{"query": "test", "mode": "list"})
	require.False(t, result.IsError)
	require.Len(t, result.Content, 1)

	text := contentText(t, result)
	assert.Contains(t, text, "Query ID: q1")
	assert.Contains(t, text, "Results Count: 1")
	assert.Contains(t, text, "0.88")
}

func TestCallTool_UnknownToolIsError(t *testing.T) {
	a := NewAdapter(&fakeQueryRunner{}, testAdapterLogger())
	result := a.CallTool(context.Background(), "unknown", map[string]interface{}{})
	require.True(t, result.IsError)
	assert.Equal(t, "Unknown tool: unknown", contentText(t, result))
}

func TestCallTool_MissingQueryIsError(t *testing.T) {
	a := NewAdapter(&fakeQueryRunner{}, testAdapterLogger())
	result := a.CallTool(context.Background(), "nlweb_search", map[string]interface{}{})
	require.True(t, result.IsError)
}

func TestCallTool_ServiceErrorSurfacesAsIsError(t *testing.T) {
	a := NewAdapter(&fakeQueryRunner{err: schemas.ErrBackendUnavailable("no backends", nil)}, testAdapterLogger())
	result := a.CallTool(context.Background(), "nlweb_search", map[string]interface{}{"query": "test"})
	require.True(t, result.IsError)
	assert.Contains(t, contentText(t, result), "no backends")
}

func TestGetPrompt_KnownPrompt(t *testing.T) {
	a := NewAdapter(&fakeQueryRunner{}, testAdapterLogger())
	result := a.GetPrompt(context.Background(), "nlweb_search_prompt", map[string]string{"topic": "golang"})
	require.NotNil(t, result)
	require.Len(t, result.Messages, 1)
}

func TestGetPrompt_UnknownPromptIsDescribedAsUnknown(t *testing.T) {
	a := NewAdapter(&fakeQueryRunner{}, testAdapterLogger())
	result := a.GetPrompt(context.Background(), "nope", map[string]string{})
	assert.True(t, strings.Contains(result.Description, "Unknown prompt: nope"))
}

func contentText(t *testing.T, result *mcp.CallToolResult) string {
	t.Helper()
	require.Len(t, result.Content, 1)
	text, ok := result.Content[0].(mcp.TextContent)
	require.True(t, ok, "expected a TextContent item")
	return text.Text
}
