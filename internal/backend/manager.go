package backend

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"sync/atomic"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/nlweb/query-core/pkg/config"
	"github.com/nlweb/query-core/pkg/schemas"
)

// Manager orchestrates parallel queries across the Registry's enabled
// backends, applies per-backend timeouts, and merges, deduplicates, and
// orders the combined result set (spec.md §4.2).
type Manager struct {
	registry *Registry
	cfg      config.MultiBackendConfig
	logger   schemas.Logger

	seq atomic.Int64
}

// NewManager builds a Manager over registry using cfg's fan-out policy.
func NewManager(registry *Registry, cfg config.MultiBackendConfig, logger schemas.Logger) *Manager {
	return &Manager{registry: registry, cfg: cfg, logger: logger}
}

type backendResult struct {
	endpointID string
	priority   int
	results    []schemas.NLWebResult
	err        error
}

// Query fans a single query out across all enabled backends, bounded by
// ctx, and returns the merged, deduplicated (if enabled), and ordered
// result set truncated to maxResults.
func (m *Manager) Query(ctx context.Context, query, site string, maxResults int) ([]schemas.NLWebResult, error) {
	enabled := m.registry.Enabled()
	if len(enabled) == 0 {
		return nil, schemas.ErrBackendUnavailable("no enabled backends", nil)
	}

	var (
		mu      sync.Mutex
		results []backendResult
	)
	record := func(br backendResult) {
		mu.Lock()
		results = append(results, br)
		mu.Unlock()
	}

	timeout := time.Duration(m.cfg.BackendTimeoutSeconds) * time.Second

	run := func(reg *Registration) {
		callCtx := ctx
		var cancel context.CancelFunc
		if timeout > 0 {
			callCtx, cancel = context.WithTimeout(ctx, timeout)
			defer cancel()
		}

		res, err := reg.Backend.Search(callCtx, query, site, maxResults)
		if errors.Is(err, schemas.ErrNotImplemented) {
			m.logger.Debug(fmt.Sprintf("backend %s does not implement search, skipping", reg.Endpoint.ID))
			return
		}
		if err != nil {
			m.logger.Warn(fmt.Sprintf("backend %s query failed: %v", reg.Endpoint.ID, err))
			record(backendResult{endpointID: reg.Endpoint.ID, priority: reg.Endpoint.Priority, err: err})
			return
		}
		record(backendResult{endpointID: reg.Endpoint.ID, priority: reg.Endpoint.Priority, results: res})
	}

	if m.cfg.EnableParallelQuerying {
		g, gctx := errgroup.WithContext(ctx)
		if m.cfg.MaxConcurrentQueries > 0 {
			g.SetLimit(m.cfg.MaxConcurrentQueries)
		}
		for _, reg := range enabled {
			reg := reg
			g.Go(func() error {
				run(reg)
				select {
				case <-gctx.Done():
				default:
				}
				return nil
			})
		}
		_ = g.Wait() // run() never returns an error; failures are recorded, not propagated
	} else {
		for _, reg := range enabled {
			run(reg)
		}
	}

	return m.merge(results, maxResults)
}

// merge applies the dedup/sort/truncate steps of spec.md §4.2 steps 4-5.
func (m *Manager) merge(byBackend []backendResult, maxResults int) ([]schemas.NLWebResult, error) {
	succeeded := 0
	var merged []schemas.NLWebResult

	for _, br := range byBackend {
		if br.err != nil {
			continue
		}
		succeeded++
		for _, r := range br.results {
			r.BackendSource = br.endpointID
			r.BackendPriority = br.priority
			r.Seq = m.seq.Add(1)
			merged = append(merged, r)
		}
	}

	if succeeded == 0 && len(byBackend) > 0 {
		return nil, schemas.ErrBackendUnavailable("all backends failed", nil)
	}

	if m.cfg.EnableResultDeduplication {
		merged = dedupeByURL(merged)
	}

	sort.SliceStable(merged, func(i, j int) bool {
		a, b := merged[i], merged[j]
		if a.Score != b.Score {
			return a.Score > b.Score
		}
		if a.BackendPriority != b.BackendPriority {
			return a.BackendPriority > b.BackendPriority
		}
		return a.Seq < b.Seq
	})

	if maxResults > 0 && len(merged) > maxResults {
		merged = merged[:maxResults]
	}
	return merged, nil
}

// dedupeByURL keeps, per normalized url, the result with the highest score,
// breaking ties by higher backend priority and then by first-seen order
// (lower Seq), per spec.md §4.2 step 4 and the tie-break decision recorded
// in SPEC_FULL.md §12.2.
func dedupeByURL(in []schemas.NLWebResult) []schemas.NLWebResult {
	best := make(map[string]schemas.NLWebResult, len(in))
	order := make([]string, 0, len(in))

	for _, r := range in {
		key := r.NormalizedURL()
		cur, exists := best[key]
		if !exists {
			best[key] = r
			order = append(order, key)
			continue
		}
		if betterResult(r, cur) {
			best[key] = r
		}
	}

	out := make([]schemas.NLWebResult, 0, len(order))
	for _, key := range order {
		out = append(out, best[key])
	}
	return out
}

func betterResult(candidate, current schemas.NLWebResult) bool {
	if candidate.Score != current.Score {
		return candidate.Score > current.Score
	}
	if candidate.BackendPriority != current.BackendPriority {
		return candidate.BackendPriority > current.BackendPriority
	}
	return candidate.Seq < current.Seq
}
