package backend

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nlweb/query-core/pkg/config"
	"github.com/nlweb/query-core/pkg/logging"
	"github.com/nlweb/query-core/pkg/schemas"
)

type fakeBackend struct {
	name    string
	results []schemas.NLWebResult
	err     error
	delay   time.Duration
}

func (f *fakeBackend) Name() string { return f.name }

func (f *fakeBackend) Search(ctx context.Context, query, site string, maxResults int) ([]schemas.NLWebResult, error) {
	if f.delay > 0 {
		select {
		case <-time.After(f.delay):
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	if f.err != nil {
		return nil, f.err
	}
	return f.results, nil
}

func testLogger() schemas.Logger {
	return logging.NewDefaultLogger(schemas.LogLevelError)
}

func TestQuery_NoEnabledBackends(t *testing.T) {
	r := NewRegistry()
	m := NewManager(r, config.MultiBackendConfig{}, testLogger())

	_, err := m.Query(context.Background(), "q", "", 10)
	require.Error(t, err)
	assert.True(t, schemas.IsKind(err, schemas.KindBackendUnavailable))
}

func TestQuery_MergesAcrossBackends(t *testing.T) {
	r := NewRegistry()
	r.Register(&fakeBackend{name: "a", results: []schemas.NLWebResult{{URL: "http://x.com/1", Score: 0.5}}},
		schemas.BackendEndpoint{ID: "a", Enabled: true, Priority: 1})
	r.Register(&fakeBackend{name: "b", results: []schemas.NLWebResult{{URL: "http://x.com/2", Score: 0.9}}},
		schemas.BackendEndpoint{ID: "b", Enabled: true, Priority: 1})

	m := NewManager(r, config.MultiBackendConfig{
		EnableParallelQuerying:    true,
		EnableResultDeduplication: true,
		MaxConcurrentQueries:      5,
		BackendTimeoutSeconds:     2,
	}, testLogger())

	results, err := m.Query(context.Background(), "q", "", 10)
	require.NoError(t, err)
	require.Len(t, results, 2)
	assert.Equal(t, "http://x.com/2", results[0].URL, "higher score must sort first")
	assert.Equal(t, "http://x.com/1", results[1].URL)
}

func TestQuery_DedupKeepsHigherScore(t *testing.T) {
	r := NewRegistry()
	r.Register(&fakeBackend{name: "a", results: []schemas.NLWebResult{{URL: "http://X.com/page", Score: 0.3}}},
		schemas.BackendEndpoint{ID: "a", Enabled: true, Priority: 1})
	r.Register(&fakeBackend{name: "b", results: []schemas.NLWebResult{{URL: " http://x.com/page ", Score: 0.8}}},
		schemas.BackendEndpoint{ID: "b", Enabled: true, Priority: 1})

	m := NewManager(r, config.MultiBackendConfig{
		EnableParallelQuerying:    false,
		EnableResultDeduplication: true,
		BackendTimeoutSeconds:     2,
	}, testLogger())

	results, err := m.Query(context.Background(), "q", "", 10)
	require.NoError(t, err)
	require.Len(t, results, 1, "normalized urls must collapse to one result")
	assert.Equal(t, 0.8, results[0].Score)
}

func TestQuery_DedupTieBreaksOnPriorityThenArrival(t *testing.T) {
	r := NewRegistry()
	r.Register(&fakeBackend{name: "low", results: []schemas.NLWebResult{{URL: "http://x.com/p", Score: 0.5}}},
		schemas.BackendEndpoint{ID: "low", Enabled: true, Priority: 1})
	r.Register(&fakeBackend{name: "high", results: []schemas.NLWebResult{{URL: "http://x.com/p", Score: 0.5}}},
		schemas.BackendEndpoint{ID: "high", Enabled: true, Priority: 9})

	m := NewManager(r, config.MultiBackendConfig{
		EnableParallelQuerying:    false,
		EnableResultDeduplication: true,
		BackendTimeoutSeconds:     2,
	}, testLogger())

	results, err := m.Query(context.Background(), "q", "", 10)
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, "high", results[0].BackendSource, "equal score ties must favor the higher-priority backend")
}

func TestQuery_PartialFailureToleratesOtherBackends(t *testing.T) {
	r := NewRegistry()
	r.Register(&fakeBackend{name: "ok", results: []schemas.NLWebResult{{URL: "http://x.com/1", Score: 0.5}}},
		schemas.BackendEndpoint{ID: "ok", Enabled: true, Priority: 1})
	r.Register(&fakeBackend{name: "broken", err: errors.New("boom")},
		schemas.BackendEndpoint{ID: "broken", Enabled: true, Priority: 1})

	m := NewManager(r, config.MultiBackendConfig{
		EnableParallelQuerying: true,
		MaxConcurrentQueries:   5,
		BackendTimeoutSeconds:  2,
	}, testLogger())

	results, err := m.Query(context.Background(), "q", "", 10)
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, "http://x.com/1", results[0].URL)
}

func TestQuery_AllBackendsFailReturnsBackendUnavailable(t *testing.T) {
	r := NewRegistry()
	r.Register(&fakeBackend{name: "broken", err: errors.New("boom")},
		schemas.BackendEndpoint{ID: "broken", Enabled: true, Priority: 1})

	m := NewManager(r, config.MultiBackendConfig{BackendTimeoutSeconds: 2}, testLogger())

	_, err := m.Query(context.Background(), "q", "", 10)
	require.Error(t, err)
	assert.True(t, schemas.IsKind(err, schemas.KindBackendUnavailable))
}

func TestQuery_NotImplementedBackendIsSkippedSilently(t *testing.T) {
	r := NewRegistry()
	r.Register(&fakeBackend{name: "unsearchable", err: schemas.ErrNotImplemented},
		schemas.BackendEndpoint{ID: "unsearchable", Enabled: true, Priority: 1})
	r.Register(&fakeBackend{name: "ok", results: []schemas.NLWebResult{{URL: "http://x.com/1", Score: 0.5}}},
		schemas.BackendEndpoint{ID: "ok", Enabled: true, Priority: 1})

	m := NewManager(r, config.MultiBackendConfig{BackendTimeoutSeconds: 2}, testLogger())

	results, err := m.Query(context.Background(), "q", "", 10)
	require.NoError(t, err)
	require.Len(t, results, 1)
}

func TestQuery_BackendTimeoutIsDiscarded(t *testing.T) {
	r := NewRegistry()
	r.Register(&fakeBackend{name: "slow", delay: 200 * time.Millisecond, results: []schemas.NLWebResult{{URL: "http://x.com/slow", Score: 0.9}}},
		schemas.BackendEndpoint{ID: "slow", Enabled: true, Priority: 1})
	r.Register(&fakeBackend{name: "fast", results: []schemas.NLWebResult{{URL: "http://x.com/fast", Score: 0.1}}},
		schemas.BackendEndpoint{ID: "fast", Enabled: true, Priority: 1})

	m := NewManager(r, config.MultiBackendConfig{
		EnableParallelQuerying: true,
		MaxConcurrentQueries:   5,
		BackendTimeoutSeconds:  0, // rely on the caller's context deadline instead
	}, testLogger())

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	results, err := m.Query(ctx, "q", "", 10)
	require.NoError(t, err)
	require.Len(t, results, 1, "the slow backend must be dropped once its context deadline elapses")
	assert.Equal(t, "http://x.com/fast", results[0].URL)
}

func TestQuery_MaxResultsTruncates(t *testing.T) {
	r := NewRegistry()
	r.Register(&fakeBackend{name: "a", results: []schemas.NLWebResult{
		{URL: "http://x.com/1", Score: 0.9},
		{URL: "http://x.com/2", Score: 0.8},
		{URL: "http://x.com/3", Score: 0.7},
	}}, schemas.BackendEndpoint{ID: "a", Enabled: true, Priority: 1})

	m := NewManager(r, config.MultiBackendConfig{BackendTimeoutSeconds: 2}, testLogger())

	results, err := m.Query(context.Background(), "q", "", 2)
	require.NoError(t, err)
	require.Len(t, results, 2)
	assert.Equal(t, "http://x.com/1", results[0].URL)
	assert.Equal(t, "http://x.com/2", results[1].URL)
}

func TestQuery_SerialDispatchRunsPriorityDescendingOrder(t *testing.T) {
	var order []string
	mkBackend := func(name string) *fakeBackend {
		return &fakeBackend{name: name, results: []schemas.NLWebResult{{URL: "http://x.com/" + name, Score: 0.1}}}
	}
	r := NewRegistry()
	r.Register(mkBackend("low"), schemas.BackendEndpoint{ID: "low", Enabled: true, Priority: 1})
	r.Register(mkBackend("high"), schemas.BackendEndpoint{ID: "high", Enabled: true, Priority: 9})

	for _, reg := range r.Enabled() {
		order = append(order, reg.Endpoint.ID)
	}
	require.Equal(t, []string{"high", "low"}, order)

	m := NewManager(r, config.MultiBackendConfig{BackendTimeoutSeconds: 2}, testLogger())
	results, err := m.Query(context.Background(), "q", "", 10)
	require.NoError(t, err)
	require.Len(t, results, 2)
}
