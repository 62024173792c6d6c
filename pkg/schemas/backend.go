package schemas

import "context"

// DataBackend is the contract for a pluggable source of NLWebResults.
// Concrete implementations (vector store, web search, mock catalog) are out
// of scope for the core; only this contract is consumed.
type DataBackend interface {
	// Search returns candidate results for query, optionally scoped to
	// site. It must honor cancellation promptly and may return an empty
	// slice. A permanent "not implemented" condition should be reported via
	// ErrNotImplemented so the caller can treat the backend as
	// enabled-but-unsearchable rather than failed.
	Search(ctx context.Context, query string, site string, maxResults int) ([]NLWebResult, error)

	// Name returns a short human-readable identifier for logging.
	Name() string
}

// ErrNotImplemented is returned by a DataBackend.Search implementation that
// does not support search (enabled-but-unsearchable, per spec.md §4.2).
var ErrNotImplemented = ErrInvalidArgument("backend does not implement search")

// BackendEndpoint describes one registered backend's identity and dispatch
// policy, independent of the DataBackend instance itself.
type BackendEndpoint struct {
	ID           string
	Enabled      bool
	BackendType  string
	Priority     int
	WriteEndpoint bool
	Properties   map[string]string
}
