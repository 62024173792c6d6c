// Command nlweb-server wires the query core's components into a runnable
// fasthttp server exposing /ask and /mcp, following bifrost's
// transports/bifrost-http/main.go composition root pattern.
//
// Concrete DataBackend and ChatClient implementations are outside this
// module's scope (spec.md §1 Non-goals); this binary starts with an empty
// BackendRegistry and a nil ChatClient. Operators fork main() to call
// Registry.Register with their own backends before traffic is expected to
// return results.
package main

import (
	"flag"
	"log"

	"github.com/nlweb/query-core/internal/backend"
	"github.com/nlweb/query-core/internal/httpapi"
	"github.com/nlweb/query-core/internal/mcpadapter"
	"github.com/nlweb/query-core/internal/query"
	"github.com/nlweb/query-core/internal/ratelimiter"
	"github.com/nlweb/query-core/internal/service"
	"github.com/nlweb/query-core/pkg/config"
	"github.com/nlweb/query-core/pkg/logging"
	"github.com/nlweb/query-core/pkg/schemas"
)

func main() {
	addr := flag.String("addr", "", "listen address, overrides NLWEB_LISTEN_ADDR when set")
	logLevel := flag.String("log-level", "info", "log level: debug, info, warn, error")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config: %v", err)
	}
	if *addr != "" {
		cfg.ListenAddr = *addr
	}

	logger := logging.NewDefaultLogger(parseLogLevel(*logLevel))

	toolDefs, err := config.LoadToolDefinitions(cfg.ToolDefinitionsPath)
	if err != nil {
		log.Fatalf("tool definitions: %v", err)
	}
	disabledTools := disabledToolTypes(toolDefs)

	registry := backend.NewRegistry()
	for _, ep := range cfg.MultiBackend.Endpoints {
		logger.Warn("configured backend endpoint " + ep.ID + " has no registered DataBackend implementation; skipping")
	}
	manager := backend.NewManager(registry, cfg.MultiBackend, logger)

	var chat schemas.ChatClient // no concrete ChatClient is wired; Summarize/Generate degrade to List.

	processor := query.NewProcessor(cfg, chat, logger)
	selector := query.NewSelector(cfg)
	generator := query.NewResultGenerator(cfg, chat)

	search := query.NewSearchHandler(manager, generator, cfg)
	details := query.NewDetailsHandler(manager, generator, cfg)
	compare := query.NewCompareHandler(manager, generator, cfg)
	ensemble := query.NewEnsembleHandler(manager, generator, cfg)

	handlers := query.NewHandlerRegistry(search,
		disableOr(disabledTools[schemas.ToolDetails], search, details),
		disableOr(disabledTools[schemas.ToolCompare], search, compare),
		disableOr(disabledTools[schemas.ToolEnsemble], search, ensemble),
	)

	svc := service.NewQueryService(processor, selector, handlers, logger)
	adapter := mcpadapter.NewAdapter(svc, logger)
	limiter := ratelimiter.New(cfg.RateLimiting)

	server := httpapi.NewServer(cfg, svc, adapter, limiter, logger)

	logger.Info("nlweb-server listening on " + cfg.ListenAddr)
	if err := server.ListenAndServe(cfg.ListenAddr); err != nil {
		log.Fatalf("server: %v", err)
	}
}

// disabledToolTypes reports which tool types a loaded tool-definitions
// document explicitly disables.
func disabledToolTypes(defs []schemas.ToolDefinition) map[schemas.ToolName]bool {
	disabled := make(map[schemas.ToolName]bool)
	for _, d := range defs {
		if !d.Enabled {
			disabled[d.Type] = true
		}
	}
	return disabled
}

// disableOr returns fallback (the search handler) in place of h when the
// tool-definitions document disabled h's tool type.
func disableOr(disabled bool, fallback, h query.Handler) query.Handler {
	if disabled {
		return fallback
	}
	return h
}

func parseLogLevel(raw string) schemas.LogLevel {
	switch raw {
	case "debug":
		return schemas.LogLevelDebug
	case "warn":
		return schemas.LogLevelWarn
	case "error":
		return schemas.LogLevelError
	default:
		return schemas.LogLevelInfo
	}
}
