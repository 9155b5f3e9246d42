package tools

import (
	"context"
	"encoding/json"

	"github.com/user/creatordesk/internal/creatoriq"
	"github.com/user/creatordesk/internal/types"
)

// SearchCatalogTool runs a whole-dataset fuzzy search over a CRM
// collection, paginating through every page before matching so results
// beyond page one are found.
type SearchCatalogTool struct {
	agg *creatoriq.Aggregator
	ws  *Workspace
}

func NewSearchCatalogTool(agg *creatoriq.Aggregator, ws *Workspace) *SearchCatalogTool {
	return &SearchCatalogTool{agg: agg, ws: ws}
}

func (t *SearchCatalogTool) Name() string { return "search_catalog" }

func (t *SearchCatalogTool) Description() string {
	return "Search campaigns, publishers, or lists by name. Fetches every page before " +
		"matching, so use this instead of fetch_more_data when looking for something specific. " +
		"Matching is fuzzy: partial names and close word overlap both hit."
}

func (t *SearchCatalogTool) Parameters() json.RawMessage {
	return json.RawMessage(`{
		"type": "object",
		"properties": {
			"query": {"type": "string", "description": "Name or partial name to search for"},
			"endpoint": {
				"type": "string",
				"enum": ["campaigns", "publishers", "lists", "campaign_publishers"],
				"description": "Which collection to search"
			},
			"campaign_id": {"type": "string", "description": "Required for campaign_publishers"},
			"filters": {"type": "object", "description": "Extra CRM query parameters"}
		},
		"required": ["query", "endpoint"]
	}`)
}

type searchCatalogArgs struct {
	Query      string         `json:"query"`
	Endpoint   string         `json:"endpoint"`
	CampaignID string         `json:"campaign_id"`
	Filters    map[string]any `json:"filters"`
}

func (t *SearchCatalogTool) Execute(ctx context.Context, args json.RawMessage) (string, error) {
	var parsed searchCatalogArgs
	if err := json.Unmarshal(args, &parsed); err != nil {
		return toolFailure("invalid arguments: " + err.Error()), nil
	}

	var op types.Operation
	params := map[string]any{"fetch_all": true}
	for k, v := range parsed.Filters {
		params[k] = v
	}

	switch parsed.Endpoint {
	case "campaigns":
		op = types.Operation{Route: "/campaigns", Method: "GET", Name: "List Campaigns"}
		params["campaign_search_term"] = parsed.Query
	case "publishers":
		op = types.Operation{Route: "/publishers", Method: "GET", Name: "List Publishers"}
		params["publisher_search_term"] = parsed.Query
	case "lists":
		op = types.Operation{Route: "/lists", Method: "GET", Name: "Get Lists"}
		params["list_search_term"] = parsed.Query
	case "campaign_publishers":
		if parsed.CampaignID == "" {
			return toolFailure("campaign_publishers requires campaign_id"), nil
		}
		op = types.Operation{
			Route: "/campaigns/" + parsed.CampaignID + "/publishers", Method: "GET",
			Name: "Get Campaign Publishers", SourceID: parsed.CampaignID, SourceKind: types.SourceKindCampaign,
		}
		params["publisher_search_term"] = parsed.Query
	default:
		return toolFailure("unknown endpoint " + parsed.Endpoint), nil
	}

	results := t.agg.Execute(ctx, []types.Operation{op}, parsed.Query, params, nil)
	result := results[0]
	if result.Error != "" {
		return toolFailure(result.Error), nil
	}
	t.ws.Add(result)

	summary := map[string]any{
		"success":            true,
		"query":              parsed.Query,
		"pages_searched":     result.PagesFetched,
		"not_fully_searched": result.NotFullySearched,
	}
	if key, kind := creatoriq.CollectionKey(result.Data); key != "" {
		items, _ := result.Data[key].([]any)
		summary["matches"] = len(items)
		summary["names"] = matchNames(items, kind)
	}
	return toolPayload(summary), nil
}

func matchNames(items []any, kind string) []string {
	field := "Name"
	switch kind {
	case "campaign":
		field = "CampaignName"
	case "publisher":
		field = "PublisherName"
	}
	var names []string
	for _, raw := range items {
		if m, ok := raw.(map[string]any); ok {
			if name, ok := m[field].(string); ok && name != "" {
				names = append(names, name)
			}
		}
		if len(names) >= 20 {
			break
		}
	}
	return names
}
