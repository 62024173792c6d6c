// Package httpapi implements HttpSurface (spec.md §4.9): the fasthttp-based
// /ask and /mcp endpoints, correlation-id and rate-limit middleware, wired
// over QueryService and the MCP Adapter.
package httpapi

import (
	"fmt"

	"github.com/bytedance/sonic"
	"github.com/tidwall/sjson"
	"github.com/valyala/fasthttp"

	"github.com/nlweb/query-core/pkg/schemas"
)

// ProblemDocument is an RFC 7807 problem document, used for every error
// response from /ask and /mcp (including 429 rate-limit rejections).
type ProblemDocument struct {
	Type     string `json:"type"`
	Title    string `json:"title"`
	Status   int    `json:"status"`
	Detail   string `json:"detail"`
	Instance string `json:"instance"`
}

// SendJSON writes data as a JSON response body with the given status code.
func SendJSON(ctx *fasthttp.RequestCtx, status int, data interface{}) {
	payload, err := sonic.Marshal(data)
	if err != nil {
		ctx.Response.Reset()
		ctx.SetStatusCode(fasthttp.StatusInternalServerError)
		ctx.SetContentType("application/json")
		ctx.SetBodyString(`{"error":"failed to encode response"}`)
		return
	}
	ctx.SetStatusCode(status)
	ctx.SetContentType("application/json")
	ctx.SetBody(payload)
}

// SendJSONWithCorrelation writes data as JSON, injecting a top-level
// correlation_id field via sjson rather than adding it to the response
// struct itself — the correlation id is operational metadata, not part of
// the documented response shape, so it is patched into the wire bytes
// instead of widening NLWebResponse.
func SendJSONWithCorrelation(ctx *fasthttp.RequestCtx, status int, data interface{}, correlationID string) {
	payload, err := sonic.Marshal(data)
	if err != nil {
		ctx.Response.Reset()
		ctx.SetStatusCode(fasthttp.StatusInternalServerError)
		ctx.SetContentType("application/json")
		ctx.SetBodyString(`{"error":"failed to encode response"}`)
		return
	}
	patched, err := sjson.SetBytes(payload, "correlation_id", correlationID)
	if err != nil {
		patched = payload
	}
	ctx.SetStatusCode(status)
	ctx.SetContentType("application/json")
	ctx.SetBody(patched)
}

// sendProblem writes an RFC 7807 problem document.
func sendProblem(ctx *fasthttp.RequestCtx, status int, title, detail, correlationID string) {
	SendJSON(ctx, status, ProblemDocument{
		Type:     "about:blank",
		Title:    title,
		Status:   status,
		Detail:   detail,
		Instance: correlationID,
	})
}

// SendError translates err into either an *schemas.NLWebError's fixed status
// (wrapping any other error as internal) and writes it as a problem
// document, logging the failure at a severity matching its kind.
func SendError(ctx *fasthttp.RequestCtx, logger schemas.Logger, err error, correlationID string) {
	nerr, ok := err.(*schemas.NLWebError)
	if !ok {
		nerr = schemas.ErrInternal("internal error", err)
	}

	if nerr.Kind == schemas.KindInternal {
		logger.Error(nerr)
	} else {
		logger.Warn(fmt.Sprintf("request %s failed: %v", correlationID, nerr))
	}

	sendProblem(ctx, nerr.StatusCode, string(nerr.Kind), nerr.Message, correlationID)
}
