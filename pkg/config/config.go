// Package config assembles the single immutable configuration struct the
// query core is built from, per spec.md §9's design note: "accept the
// options from §6 via a single immutable struct built at startup; reject on
// validation errors rather than at first use."
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"

	"github.com/nlweb/query-core/pkg/schemas"
)

// RateLimitingConfig configures the RateLimiter.
type RateLimitingConfig struct {
	Enabled                   bool
	RequestsPerWindow         int
	WindowSizeInMinutes       int
	EnableIPBasedLimiting     bool
	EnableClientBasedLimiting bool
	ClientIDHeader            string
}

// BackendEndpointConfig describes one configured backend endpoint.
type BackendEndpointConfig struct {
	ID            string
	Enabled       bool
	BackendType   string
	Priority      int
	WriteEndpoint bool
}

// MultiBackendConfig configures BackendManager's fan-out behavior.
type MultiBackendConfig struct {
	Enabled                   bool
	WriteEndpoint             string
	EnableParallelQuerying    bool
	EnableResultDeduplication bool
	MaxConcurrentQueries      int
	BackendTimeoutSeconds     int
	Endpoints                 []BackendEndpointConfig
}

// Config is the single, immutable configuration struct the query core is
// built from. It is not mutated once components are built from it; the
// only change after Load is cmd/nlweb-server overriding ListenAddr from its
// -addr flag before any component is constructed.
type Config struct {
	DefaultMode               schemas.Mode
	EnableStreaming           bool
	DefaultTimeoutSeconds     int
	MaxResultsPerQuery        int
	EnableDecontextualization bool
	MaxQueryLength            int
	DefaultSite               string
	ToolSelectionEnabled      bool
	RateLimiting              RateLimitingConfig
	MultiBackend              MultiBackendConfig

	// ToolDefinitionsPath, when set, points at the JSON tool-definitions
	// document to load and validate at startup.
	ToolDefinitionsPath string

	ListenAddr string
}

// Load builds a Config from environment variables (optionally pre-loaded
// from a .env file via godotenv, the way bifrost and muster both do),
// applying defaults and rejecting invalid values immediately.
func Load() (*Config, error) {
	_ = godotenv.Load() // .env is optional; ignore a missing file

	mode, err := schemas.ParseMode(getEnv("NLWEB_DEFAULT_MODE", "list"), schemas.ModeList)
	if err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}

	cfg := &Config{
		DefaultMode:               mode,
		EnableStreaming:           getEnvBool("NLWEB_ENABLE_STREAMING", true),
		DefaultTimeoutSeconds:     getEnvInt("NLWEB_DEFAULT_TIMEOUT_SECONDS", 30),
		MaxResultsPerQuery:        getEnvInt("NLWEB_MAX_RESULTS_PER_QUERY", 10),
		EnableDecontextualization: getEnvBool("NLWEB_ENABLE_DECONTEXTUALIZATION", true),
		MaxQueryLength:            getEnvInt("NLWEB_MAX_QUERY_LENGTH", 2000),
		DefaultSite:               getEnv("NLWEB_DEFAULT_SITE", ""),
		ToolSelectionEnabled:      getEnvBool("NLWEB_TOOL_SELECTION_ENABLED", true),
		ToolDefinitionsPath:       getEnv("NLWEB_TOOL_DEFINITIONS_PATH", ""),
		ListenAddr:                getEnv("NLWEB_LISTEN_ADDR", ":8080"),
		RateLimiting: RateLimitingConfig{
			Enabled:                   getEnvBool("NLWEB_RATE_LIMIT_ENABLED", true),
			RequestsPerWindow:         getEnvInt("NLWEB_RATE_LIMIT_REQUESTS_PER_WINDOW", 100),
			WindowSizeInMinutes:       getEnvInt("NLWEB_RATE_LIMIT_WINDOW_MINUTES", 1),
			EnableIPBasedLimiting:     getEnvBool("NLWEB_RATE_LIMIT_IP_BASED", true),
			EnableClientBasedLimiting: getEnvBool("NLWEB_RATE_LIMIT_CLIENT_BASED", false),
			ClientIDHeader:            getEnv("NLWEB_RATE_LIMIT_CLIENT_ID_HEADER", "X-Client-ID"),
		},
		MultiBackend: MultiBackendConfig{
			Enabled:                   getEnvBool("NLWEB_MULTI_BACKEND_ENABLED", true),
			WriteEndpoint:             getEnv("NLWEB_MULTI_BACKEND_WRITE_ENDPOINT", ""),
			EnableParallelQuerying:    getEnvBool("NLWEB_MULTI_BACKEND_PARALLEL", true),
			EnableResultDeduplication: getEnvBool("NLWEB_MULTI_BACKEND_DEDUP", true),
			MaxConcurrentQueries:      getEnvInt("NLWEB_MULTI_BACKEND_MAX_CONCURRENT", 5),
			BackendTimeoutSeconds:     getEnvInt("NLWEB_MULTI_BACKEND_TIMEOUT_SECONDS", 8),
		},
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate rejects structurally invalid configuration. It is called by Load
// but is exported so tests and callers building a Config by hand can reuse
// it.
func (c *Config) Validate() error {
	if c.MaxQueryLength <= 0 {
		return fmt.Errorf("config: MaxQueryLength must be positive")
	}
	if c.MaxResultsPerQuery <= 0 {
		return fmt.Errorf("config: MaxResultsPerQuery must be positive")
	}
	if c.DefaultTimeoutSeconds <= 0 {
		return fmt.Errorf("config: DefaultTimeoutSeconds must be positive")
	}
	if c.RateLimiting.Enabled {
		if c.RateLimiting.RequestsPerWindow <= 0 {
			return fmt.Errorf("config: RateLimiting.RequestsPerWindow must be positive when enabled")
		}
		if c.RateLimiting.WindowSizeInMinutes <= 0 {
			return fmt.Errorf("config: RateLimiting.WindowSizeInMinutes must be positive when enabled")
		}
	}
	if c.MultiBackend.Enabled {
		if c.MultiBackend.MaxConcurrentQueries <= 0 {
			return fmt.Errorf("config: MultiBackend.MaxConcurrentQueries must be positive when enabled")
		}
		if c.MultiBackend.BackendTimeoutSeconds <= 0 {
			return fmt.Errorf("config: MultiBackend.BackendTimeoutSeconds must be positive when enabled")
		}
		writeEndpoints := 0
		for _, ep := range c.MultiBackend.Endpoints {
			if ep.ID == "" {
				return fmt.Errorf("config: backend endpoint missing id")
			}
			if ep.WriteEndpoint {
				writeEndpoints++
				if !ep.Enabled {
					return fmt.Errorf("config: write endpoint %q cannot be disabled", ep.ID)
				}
			}
		}
		if writeEndpoints > 1 {
			return fmt.Errorf("config: at most one backend endpoint may be the write endpoint")
		}
	}
	return nil
}

func getEnv(key, def string) string {
	if v, ok := os.LookupEnv(key); ok && strings.TrimSpace(v) != "" {
		return v
	}
	return def
}

func getEnvBool(key string, def bool) bool {
	if v, ok := os.LookupEnv(key); ok {
		if b, err := strconv.ParseBool(strings.TrimSpace(v)); err == nil {
			return b
		}
	}
	return def
}

func getEnvInt(key string, def int) int {
	if v, ok := os.LookupEnv(key); ok {
		if n, err := strconv.Atoi(strings.TrimSpace(v)); err == nil {
			return n
		}
	}
	return def
}
