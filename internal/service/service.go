// Package service implements QueryService, the façade described in
// spec.md §4.7: it runs QueryProcessor, ToolSelector, and the selected
// ToolHandler, then assembles either a single NLWebResponse or a finite
// stream of frames.
package service

import (
	"context"
	"time"

	"github.com/nlweb/query-core/internal/query"
	"github.com/nlweb/query-core/pkg/schemas"
)

// streamBufferSize bounds the producer/consumer channel so a slow HTTP
// writer applies backpressure to the pipeline instead of the producer
// growing memory unboundedly (spec.md §9 "Streaming control flow").
const streamBufferSize = 16

// QueryService is the single entry point for both the unary and streaming
// query paths. Rate limiting is assumed to already have happened at the
// HTTP layer; QueryService trusts its caller (spec.md §4.7).
type QueryService struct {
	processor *query.Processor
	selector  *query.Selector
	handlers  *query.HandlerRegistry
	logger    schemas.Logger
}

// NewQueryService builds a QueryService from its already-constructed
// pipeline stages.
func NewQueryService(processor *query.Processor, selector *query.Selector, handlers *query.HandlerRegistry, logger schemas.Logger) *QueryService {
	return &QueryService{processor: processor, selector: selector, handlers: handlers, logger: logger}
}

// Process runs the unary path: QueryProcessor -> ToolSelector -> Handler,
// stamping GeneratedAt on success.
func (svc *QueryService) Process(ctx context.Context, req *schemas.NLWebRequest) (*schemas.NLWebResponse, error) {
	if err := svc.processor.Process(ctx, req); err != nil {
		return nil, err
	}

	tool := svc.selector.Select(req)
	resp, err := svc.handlers.Dispatch(ctx, tool, req)
	if err != nil {
		return nil, err
	}

	resp.GeneratedAt = time.Now()
	return resp, nil
}

// ProcessStream runs the streaming path, returning a channel of frames in
// the fixed emission order of spec.md §4.7. The channel is closed when the
// sequence ends, whether by completion, error, or cancellation.
func (svc *QueryService) ProcessStream(ctx context.Context, req *schemas.NLWebRequest) <-chan schemas.StreamFrame {
	out := make(chan schemas.StreamFrame, streamBufferSize)
	go svc.streamPipeline(ctx, req, out)
	return out
}

func (svc *QueryService) streamPipeline(ctx context.Context, req *schemas.NLWebRequest, out chan<- schemas.StreamFrame) {
	defer close(out)

	if err := svc.processor.Process(ctx, req); err != nil {
		svc.emitTerminalError(ctx, out, err)
		return
	}
	if !svc.emit(ctx, out, schemas.StreamFrame{Type: schemas.FrameQueryID, Data: req.QueryID}) {
		return
	}
	if !svc.emit(ctx, out, schemas.StreamFrame{Type: schemas.FrameDecontextualizedQuery, Data: req.DecontextualizedQuery}) {
		return
	}

	tool := svc.selector.Select(req)
	resp, err := svc.handlers.Dispatch(ctx, tool, req)
	if err != nil {
		svc.emitTerminalError(ctx, out, err)
		return
	}

	for _, r := range resp.Results {
		if !svc.emit(ctx, out, schemas.StreamFrame{Type: schemas.FrameResult, Data: r}) {
			return
		}
	}

	if resp.Summary != nil {
		if !svc.emit(ctx, out, schemas.StreamFrame{Type: schemas.FrameSummary, Data: *resp.Summary}) {
			return
		}
	}

	svc.emit(ctx, out, schemas.StreamFrame{Type: schemas.FrameComplete, Data: nil})
}

// emit writes frame to out unless ctx is already done, in which case it
// reports false so the caller stops the sequence without a terminal frame.
func (svc *QueryService) emit(ctx context.Context, out chan<- schemas.StreamFrame, frame schemas.StreamFrame) bool {
	if ctx.Err() != nil {
		return false
	}
	select {
	case <-ctx.Done():
		return false
	case out <- frame:
		return true
	}
}

// emitTerminalError writes a single error frame, unless ctx is already done
// (a cancellation writes no terminal frame at all, per spec.md §5).
func (svc *QueryService) emitTerminalError(ctx context.Context, out chan<- schemas.StreamFrame, err error) {
	if ctx.Err() != nil {
		return
	}

	msg := err.Error()
	if nerr, ok := err.(*schemas.NLWebError); ok {
		msg = nerr.Message
	}

	select {
	case <-ctx.Done():
	case out <- schemas.StreamFrame{Type: schemas.FrameError, Data: msg}:
	}
}
