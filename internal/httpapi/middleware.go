package httpapi

import (
	"strconv"

	"github.com/google/uuid"
	"github.com/valyala/fasthttp"

	"github.com/nlweb/query-core/pkg/config"
	"github.com/nlweb/query-core/internal/ratelimiter"
	"github.com/nlweb/query-core/pkg/schemas"
)

const correlationIDHeader = "X-Correlation-ID"

// correlationIDKey is the fasthttp user-value key under which the resolved
// correlation id is stashed for handlers to read back.
type correlationIDKey struct{}

// withCorrelationID resolves a correlation id from the inbound header (or
// mints one), echoes it on the response, and makes it available to next via
// correlationIDFromContext.
func withCorrelationID(next fasthttp.RequestHandler) fasthttp.RequestHandler {
	return func(ctx *fasthttp.RequestCtx) {
		id := string(ctx.Request.Header.Peek(correlationIDHeader))
		if id == "" {
			id = uuid.NewString()
		}
		ctx.SetUserValue(correlationIDKey{}, id)
		ctx.Response.Header.Set(correlationIDHeader, id)
		next(ctx)
	}
}

func correlationIDFromContext(ctx *fasthttp.RequestCtx) string {
	if v, ok := ctx.UserValue(correlationIDKey{}).(string); ok {
		return v
	}
	return ""
}

// withRateLimit gates next behind limiter, identifying the caller by the
// configured client header when client-based limiting is enabled, else by
// remote IP when IP-based limiting is enabled, else a shared identifier
// (spec.md §4.1). It always sets X-RateLimit-Reset, sets X-RateLimit-Limit
// and X-RateLimit-Remaining only when the limiter is enabled, and on
// rejection adds Retry-After and responds 429 without calling next.
func withRateLimit(logger schemas.Logger, limiter *ratelimiter.RateLimiter, cfg config.RateLimitingConfig, next fasthttp.RequestHandler) fasthttp.RequestHandler {
	return func(ctx *fasthttp.RequestCtx) {
		identifier := rateLimitIdentifier(ctx, cfg)

		allowed := limiter.Allow(identifier)
		status := limiter.Status(identifier)
		writeRateLimitHeaders(ctx, status)

		if !allowed {
			ctx.Response.Header.Set("Retry-After", strconv.Itoa(int(status.ResetIn.Seconds())))
			SendError(ctx, logger, schemas.ErrRateLimited("rate limit exceeded for this client"), correlationIDFromContext(ctx))
			return
		}

		next(ctx)
	}
}

func rateLimitIdentifier(ctx *fasthttp.RequestCtx, cfg config.RateLimitingConfig) string {
	if cfg.EnableClientBasedLimiting {
		if id := string(ctx.Request.Header.Peek(cfg.ClientIDHeader)); id != "" {
			return "client:" + id
		}
	}
	if cfg.EnableIPBasedLimiting {
		return "ip:" + ctx.RemoteIP().String()
	}
	return "global"
}

func writeRateLimitHeaders(ctx *fasthttp.RequestCtx, status ratelimiter.Status) {
	if status.Total >= 0 {
		ctx.Response.Header.Set("X-RateLimit-Limit", strconv.Itoa(status.Total))
	}
	if status.Remaining >= 0 {
		ctx.Response.Header.Set("X-RateLimit-Remaining", strconv.Itoa(status.Remaining))
	}
	ctx.Response.Header.Set("X-RateLimit-Reset", strconv.Itoa(int(status.ResetIn.Seconds())))
}

// chain composes the standard middleware stack around a route handler.
func chain(logger schemas.Logger, limiter *ratelimiter.RateLimiter, rlCfg config.RateLimitingConfig, handler fasthttp.RequestHandler) fasthttp.RequestHandler {
	return withCorrelationID(withRateLimit(logger, limiter, rlCfg, handler))
}
