package httpapi

import (
	"fmt"

	"github.com/tidwall/gjson"
	"github.com/valyala/fasthttp"
)

// handleMCP dispatches a single JSON-RPC-shaped request to one of the four
// MCP adapter operations. Method params are pulled out with gjson rather
// than decoded into per-method structs, since each method's arguments are
// an open, caller-defined shape (mirroring how the MCP tool/prompt
// arguments themselves are untyped maps). Any validation failure is
// reported as an RFC 7807 problem document.
func (s *Server) handleMCP(ctx *fasthttp.RequestCtx) {
	correlationID := correlationIDFromContext(ctx)
	raw := ctx.PostBody()

	if !gjson.ValidBytes(raw) {
		sendProblem(ctx, fasthttp.StatusBadRequest, "invalid-request", "malformed JSON request body", correlationID)
		return
	}

	method := gjson.GetBytes(raw, "method").String()
	switch method {
	case "list_tools":
		SendJSON(ctx, fasthttp.StatusOK, map[string]interface{}{"tools": s.adapter.ListTools(ctx)})
	case "list_prompts":
		SendJSON(ctx, fasthttp.StatusOK, map[string]interface{}{"prompts": s.adapter.ListPrompts(ctx)})
	case "call_tool":
		s.handleCallTool(ctx, raw, correlationID)
	case "get_prompt":
		s.handleGetPrompt(ctx, raw, correlationID)
	default:
		sendProblem(ctx, fasthttp.StatusBadRequest, "invalid-method", fmt.Sprintf("unknown MCP method: %s", method), correlationID)
	}
}

func (s *Server) handleCallTool(ctx *fasthttp.RequestCtx, raw []byte, correlationID string) {
	name := gjson.GetBytes(raw, "params.name").String()
	if name == "" {
		sendProblem(ctx, fasthttp.StatusBadRequest, "invalid-params", "call_tool requires a tool name", correlationID)
		return
	}
	arguments := interfaceMap(gjson.GetBytes(raw, "params.arguments"))
	result := s.adapter.CallTool(ctx, name, arguments)
	SendJSON(ctx, fasthttp.StatusOK, result)
}

func (s *Server) handleGetPrompt(ctx *fasthttp.RequestCtx, raw []byte, correlationID string) {
	name := gjson.GetBytes(raw, "params.name").String()
	if name == "" {
		sendProblem(ctx, fasthttp.StatusBadRequest, "invalid-params", "get_prompt requires a prompt name", correlationID)
		return
	}
	arguments := stringMap(gjson.GetBytes(raw, "params.arguments"))
	result := s.adapter.GetPrompt(ctx, name, arguments)
	SendJSON(ctx, fasthttp.StatusOK, result)
}

func interfaceMap(v gjson.Result) map[string]interface{} {
	out := make(map[string]interface{})
	v.ForEach(func(key, value gjson.Result) bool {
		out[key.String()] = value.Value()
		return true
	})
	return out
}

func stringMap(v gjson.Result) map[string]string {
	out := make(map[string]string)
	v.ForEach(func(key, value gjson.Result) bool {
		out[key.String()] = value.String()
		return true
	})
	return out
}
