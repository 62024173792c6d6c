package httpapi

import (
	"github.com/fasthttp/router"
	"github.com/valyala/fasthttp"

	"github.com/nlweb/query-core/internal/mcpadapter"
	"github.com/nlweb/query-core/internal/ratelimiter"
	"github.com/nlweb/query-core/internal/service"
	"github.com/nlweb/query-core/pkg/config"
	"github.com/nlweb/query-core/pkg/schemas"
)

// Server is HttpSurface (spec.md §4.9): the fasthttp router binding /ask and
// /mcp to QueryService and the MCP adapter, behind correlation-id and
// rate-limit middleware.
type Server struct {
	cfg     *config.Config
	service *service.QueryService
	adapter *mcpadapter.Adapter
	limiter *ratelimiter.RateLimiter
	logger  schemas.Logger
	router  *router.Router
}

// NewServer wires the route table.
func NewServer(cfg *config.Config, svc *service.QueryService, adapter *mcpadapter.Adapter, limiter *ratelimiter.RateLimiter, logger schemas.Logger) *Server {
	s := &Server{
		cfg:     cfg,
		service: svc,
		adapter: adapter,
		limiter: limiter,
		logger:  logger,
	}

	r := router.New()
	r.GET("/ask", chain(logger, limiter, cfg.RateLimiting, s.handleAsk))
	r.POST("/ask", chain(logger, limiter, cfg.RateLimiting, s.handleAsk))
	r.POST("/mcp", chain(logger, limiter, cfg.RateLimiting, s.handleMCP))
	r.GET("/healthz", s.handleHealthz)
	s.router = r

	return s
}

func (s *Server) handleHealthz(ctx *fasthttp.RequestCtx) {
	SendJSON(ctx, fasthttp.StatusOK, map[string]string{"status": "ok"})
}

// Handler returns the fasthttp request handler to serve.
func (s *Server) Handler() fasthttp.RequestHandler {
	return s.router.Handler
}

// ListenAndServe starts serving the router on addr.
func (s *Server) ListenAndServe(addr string) error {
	return fasthttp.ListenAndServe(addr, s.Handler())
}
