package httpapi

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/valyala/fasthttp"

	"github.com/nlweb/query-core/internal/ratelimiter"
	"github.com/nlweb/query-core/pkg/config"
)

func TestWithCorrelationID_GeneratesWhenAbsent(t *testing.T) {
	var seen string
	h := withCorrelationID(func(ctx *fasthttp.RequestCtx) {
		seen = correlationIDFromContext(ctx)
	})

	ctx := &fasthttp.RequestCtx{}
	h(ctx)

	require.NotEmpty(t, seen)
	assert.Equal(t, seen, string(ctx.Response.Header.Peek(correlationIDHeader)))
}

func TestWithCorrelationID_EchoesSuppliedHeader(t *testing.T) {
	var seen string
	h := withCorrelationID(func(ctx *fasthttp.RequestCtx) {
		seen = correlationIDFromContext(ctx)
	})

	ctx := &fasthttp.RequestCtx{}
	ctx.Request.Header.Set(correlationIDHeader, "fixed-id")
	h(ctx)

	assert.Equal(t, "fixed-id", seen)
	assert.Equal(t, "fixed-id", string(ctx.Response.Header.Peek(correlationIDHeader)))
}

func TestWithRateLimit_AllowsUnderLimit(t *testing.T) {
	cfg := config.RateLimitingConfig{Enabled: true, RequestsPerWindow: 2, WindowSizeInMinutes: 1, EnableIPBasedLimiting: true}
	limiter := ratelimiter.New(cfg)

	called := false
	h := withRateLimit(testLogger(), limiter, cfg, func(ctx *fasthttp.RequestCtx) { called = true })

	ctx := &fasthttp.RequestCtx{}
	h(ctx)

	assert.True(t, called)
	assert.Equal(t, "2", string(ctx.Response.Header.Peek("X-RateLimit-Limit")))
}

func TestWithRateLimit_RejectsOverLimitWith429(t *testing.T) {
	cfg := config.RateLimitingConfig{Enabled: true, RequestsPerWindow: 1, WindowSizeInMinutes: 1, EnableIPBasedLimiting: true}
	limiter := ratelimiter.New(cfg)

	calls := 0
	h := withRateLimit(testLogger(), limiter, cfg, func(ctx *fasthttp.RequestCtx) { calls++ })

	h(&fasthttp.RequestCtx{})

	ctx := &fasthttp.RequestCtx{}
	h(ctx)

	assert.Equal(t, 1, calls)
	assert.Equal(t, fasthttp.StatusTooManyRequests, ctx.Response.StatusCode())
	assert.NotEmpty(t, string(ctx.Response.Header.Peek("Retry-After")))
}

func TestRateLimitIdentifier_PrefersClientHeaderWhenEnabled(t *testing.T) {
	cfg := config.RateLimitingConfig{EnableClientBasedLimiting: true, ClientIDHeader: "X-Client-ID", EnableIPBasedLimiting: true}

	ctx := &fasthttp.RequestCtx{}
	ctx.Request.Header.Set("X-Client-ID", "abc")

	assert.Equal(t, "client:abc", rateLimitIdentifier(ctx, cfg))
}

func TestRateLimitIdentifier_FallsBackToIP(t *testing.T) {
	cfg := config.RateLimitingConfig{EnableIPBasedLimiting: true}
	ctx := &fasthttp.RequestCtx{}
	assert.Contains(t, rateLimitIdentifier(ctx, cfg), "ip:")
}

func TestRateLimitIdentifier_FallsBackToGlobal(t *testing.T) {
	cfg := config.RateLimitingConfig{}
	ctx := &fasthttp.RequestCtx{}
	assert.Equal(t, "global", rateLimitIdentifier(ctx, cfg))
}
