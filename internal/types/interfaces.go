package types

import "context"

// ProvenanceKind labels where a state lookup was satisfied from.
type ProvenanceKind string

const (
	ProvenanceCache    ProvenanceKind = "cache"
	ProvenanceDB       ProvenanceKind = "db"
	ProvenanceAPI      ProvenanceKind = "api"
	ProvenanceFallback ProvenanceKind = "fallback"
)

// StateHit is a successful state lookup plus its provenance. Notice is a
// short user-visible caveat ("may be stale") set in degraded mode.
type StateHit struct {
	State  *PreviousState
	Source ProvenanceKind
	Fresh  bool
	Notice string
}

// StateStore is the layered per-user state store. Get returns (nil, nil)
// when nothing is found anywhere; lookups never fail the request.
// Set's complete flag marks a fully aggregated collection, which earns a
// longer freshness window than a partial fetch.
type StateStore interface {
	Get(ctx context.Context, user UserID, key StateKey) (*StateHit, error)
	Set(ctx context.Context, user UserID, key StateKey, state *PreviousState, queryContext string, complete bool) error
	FindByQuery(ctx context.Context, user UserID, terms []string) (*StateHit, error)
	AppendOperations(results ...OperationResult)
	RecentOperations() []OperationResult
	Flush()
}
