package httpapi

import (
	"bufio"
	"bytes"
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/bytedance/sonic"
	"github.com/valyala/fasthttp"

	"github.com/nlweb/query-core/internal/pool"
	"github.com/nlweb/query-core/pkg/schemas"
)

// framePool reuses the byte buffers used to marshal each streamed frame,
// avoiding a fresh allocation per frame on a long-lived SSE connection.
var framePool = pool.New(func() *bytes.Buffer { return new(bytes.Buffer) })

// askRequestBody is the union of the GET query-string and POST JSON-body
// shapes for /ask (spec.md §6).
type askRequestBody struct {
	Query                 string `json:"query"`
	Mode                  string `json:"mode"`
	Site                  string `json:"site"`
	Prev                  string `json:"prev"`
	DecontextualizedQuery string `json:"decontextualized_query"`
	QueryID               string `json:"query_id"`
	Streaming             *bool  `json:"streaming"`
}

// handleAsk parses either request shape, builds an NLWebRequest, and
// dispatches to the unary or streaming path depending on the resolved
// streaming flag.
func (s *Server) handleAsk(ctx *fasthttp.RequestCtx) {
	correlationID := correlationIDFromContext(ctx)

	body, err := parseAskRequestBody(ctx)
	if err != nil {
		SendError(ctx, s.logger, err, correlationID)
		return
	}

	req, err := s.buildAskRequest(body)
	if err != nil {
		SendError(ctx, s.logger, err, correlationID)
		return
	}

	if req.Streaming {
		s.handleAskStream(ctx, req, correlationID)
		return
	}
	s.handleAskUnary(ctx, req, correlationID)
}

func parseAskRequestBody(ctx *fasthttp.RequestCtx) (askRequestBody, error) {
	var body askRequestBody

	if string(ctx.Method()) == fasthttp.MethodPost {
		if len(ctx.PostBody()) > 0 {
			if err := sonic.Unmarshal(ctx.PostBody(), &body); err != nil {
				return body, schemas.ErrInvalidArgument("malformed JSON request body")
			}
		}
		return body, nil
	}

	args := ctx.QueryArgs()
	body.Query = string(args.Peek("query"))
	body.Mode = string(args.Peek("mode"))
	body.Site = string(args.Peek("site"))
	body.Prev = string(args.Peek("prev"))
	body.DecontextualizedQuery = string(args.Peek("decontextualized_query"))
	body.QueryID = string(args.Peek("query_id"))
	if raw := string(args.Peek("streaming")); raw != "" {
		if v, err := strconv.ParseBool(raw); err == nil {
			body.Streaming = &v
		}
	}
	return body, nil
}

func (s *Server) buildAskRequest(body askRequestBody) (*schemas.NLWebRequest, error) {
	mode, err := schemas.ParseMode(body.Mode, s.cfg.DefaultMode)
	if err != nil {
		return nil, err
	}

	site := body.Site
	if site == "" {
		site = s.cfg.DefaultSite
	}

	streaming := s.cfg.EnableStreaming
	if body.Streaming != nil {
		streaming = *body.Streaming
	}

	req := &schemas.NLWebRequest{
		QueryID:               body.QueryID,
		Query:                 body.Query,
		Mode:                  mode,
		Site:                  site,
		Prev:                  schemas.SplitPrev(body.Prev),
		DecontextualizedQuery: body.DecontextualizedQuery,
		Streaming:             streaming,
	}
	if body.DecontextualizedQuery != "" {
		req.DecontextualizedOnIngress = true
	}
	return req, nil
}

func (s *Server) requestContext() (context.Context, context.CancelFunc) {
	timeout := time.Duration(s.cfg.DefaultTimeoutSeconds) * time.Second
	if timeout <= 0 {
		return context.WithCancel(context.Background())
	}
	return context.WithTimeout(context.Background(), timeout)
}

func (s *Server) handleAskUnary(ctx *fasthttp.RequestCtx, req *schemas.NLWebRequest, correlationID string) {
	reqCtx, cancel := s.requestContext()
	defer cancel()

	resp, err := s.service.Process(reqCtx, req)
	if err != nil {
		SendError(ctx, s.logger, err, correlationID)
		return
	}
	SendJSONWithCorrelation(ctx, fasthttp.StatusOK, resp, correlationID)
}

// handleAskStream writes the frames from QueryService.ProcessStream as SSE,
// one `data: ...` line per frame. The request's context is cancelled as soon as the
// stream writer stops being read from (a closed connection or a broken
// write), which propagates to QueryService as a normal cancellation.
func (s *Server) handleAskStream(ctx *fasthttp.RequestCtx, req *schemas.NLWebRequest, correlationID string) {
	ctx.SetContentType("text/event-stream")
	ctx.Response.Header.Set("Cache-Control", "no-cache")
	ctx.Response.Header.Set("Connection", "keep-alive")

	reqCtx, cancel := s.requestContext()
	frames := s.service.ProcessStream(reqCtx, req)

	ctx.Response.SetBodyStreamWriter(func(w *bufio.Writer) {
		defer cancel()

		for frame := range frames {
			buf := framePool.Get()
			buf.Reset()

			payload, err := sonic.Marshal(frame)
			if err != nil {
				s.logger.Warn(fmt.Sprintf("request %s: failed to marshal stream frame: %v", correlationID, err))
				framePool.Put(buf)
				continue
			}
			buf.Write(payload)

			if _, err := fmt.Fprintf(w, "data: %s\n\n", buf.Bytes()); err != nil {
				framePool.Put(buf)
				return
			}
			framePool.Put(buf)

			if err := w.Flush(); err != nil {
				return
			}
		}
	})
}
