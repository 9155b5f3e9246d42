package types

// SourceCollectionKind names the collection a transfer sources from.
type SourceCollectionKind string

const (
	SourceKindList     SourceCollectionKind = "list"
	SourceKindCampaign SourceCollectionKind = "campaign"
)

// Operation is one resolved call against the external CRM API. Built by
// the intent resolver, consumed exactly once by the aggregator.
type Operation struct {
	Route       string               `json:"route"`
	Method      string               `json:"method"`
	Name        string               `json:"name"`
	SourceID    string               `json:"source_id,omitempty"`
	TargetID    string               `json:"target_id,omitempty"`
	SourceKind  SourceCollectionKind `json:"source_kind,omitempty"`
	PublisherID string               `json:"publisher_id,omitempty"`
}

// IsWrite reports whether the operation mutates CRM data.
func (o Operation) IsWrite() bool {
	return o.Method != "GET"
}

// EndpointResult is the aggregator's per-operation outcome: the raw
// envelope (already normalized) plus any extracted operation metadata.
type EndpointResult struct {
	Endpoint         string               `json:"endpoint"`
	Method           string               `json:"method"`
	Name             string               `json:"name"`
	SourceID         string               `json:"source_id,omitempty"`
	SourceKind       SourceCollectionKind `json:"source_kind,omitempty"`
	Data             map[string]any       `json:"data,omitempty"`
	Error            string               `json:"error,omitempty"`
	Operation        *OperationResult     `json:"operation,omitempty"`
	PagesFetched     int                  `json:"pages_fetched,omitempty"`
	NotFullySearched bool                 `json:"not_fully_searched,omitempty"`
}
