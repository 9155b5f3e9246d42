package tools

import (
	"context"
	"encoding/json"

	"github.com/user/creatordesk/internal/creatoriq"
	"github.com/user/creatordesk/internal/types"
)

// FetchMoreTool pulls one more page of a CRM collection into the
// workspace when the model decides the initial context is not enough.
type FetchMoreTool struct {
	agg *creatoriq.Aggregator
	ws  *Workspace
}

func NewFetchMoreTool(agg *creatoriq.Aggregator, ws *Workspace) *FetchMoreTool {
	return &FetchMoreTool{agg: agg, ws: ws}
}

func (t *FetchMoreTool) Name() string { return "fetch_more_data" }

func (t *FetchMoreTool) Description() string {
	return "Fetch a page of CRM data: campaigns, publishers, or lists. " +
		"Pass campaign_id or list_id to fetch the publishers inside that collection. " +
		"Use the page parameter to continue past page 1."
}

func (t *FetchMoreTool) Parameters() json.RawMessage {
	return json.RawMessage(`{
		"type": "object",
		"properties": {
			"endpoint": {
				"type": "string",
				"enum": ["campaigns", "publishers", "lists"],
				"description": "Which collection to fetch"
			},
			"page": {"type": "integer", "description": "Page number, starting at 1"},
			"campaign_id": {"type": "string", "description": "Fetch publishers in this campaign"},
			"list_id": {"type": "string", "description": "Fetch publishers in this list"}
		},
		"required": ["endpoint"]
	}`)
}

type fetchMoreArgs struct {
	Endpoint   string `json:"endpoint"`
	Page       int    `json:"page"`
	CampaignID string `json:"campaign_id"`
	ListID     string `json:"list_id"`
}

func (t *FetchMoreTool) Execute(ctx context.Context, args json.RawMessage) (string, error) {
	var parsed fetchMoreArgs
	if err := json.Unmarshal(args, &parsed); err != nil {
		return toolFailure("invalid arguments: " + err.Error()), nil
	}

	op, ok := operationFor(parsed)
	if !ok {
		return toolFailure("unknown endpoint " + parsed.Endpoint), nil
	}
	params := map[string]any{}
	if parsed.Page > 1 {
		params["page"] = parsed.Page
	}

	results := t.agg.Execute(ctx, []types.Operation{op}, "", params, nil)
	result := results[0]
	if result.Error != "" {
		return toolFailure(result.Error), nil
	}
	t.ws.Add(result)

	summary := map[string]any{
		"success":  true,
		"endpoint": result.Endpoint,
		"page":     parsed.Page,
	}
	if key, _ := creatoriq.CollectionKey(result.Data); key != "" {
		items, _ := result.Data[key].([]any)
		summary["items"] = len(items)
		summary["total_pages"] = intOf(result.Data["total_pages"])
	}
	return toolPayload(summary), nil
}

func operationFor(parsed fetchMoreArgs) (types.Operation, bool) {
	switch {
	case parsed.CampaignID != "":
		return types.Operation{
			Route: "/campaigns/" + parsed.CampaignID + "/publishers", Method: "GET",
			Name: "Get Campaign Publishers", SourceID: parsed.CampaignID, SourceKind: types.SourceKindCampaign,
		}, true
	case parsed.ListID != "":
		return types.Operation{
			Route: "/lists/" + parsed.ListID + "/publishers", Method: "GET",
			Name: "Get Publishers in List", SourceID: parsed.ListID, SourceKind: types.SourceKindList,
		}, true
	case parsed.Endpoint == "campaigns":
		return types.Operation{Route: "/campaigns", Method: "GET", Name: "List Campaigns"}, true
	case parsed.Endpoint == "publishers":
		return types.Operation{Route: "/publishers", Method: "GET", Name: "List Publishers"}, true
	case parsed.Endpoint == "lists":
		return types.Operation{Route: "/lists", Method: "GET", Name: "Get Lists"}, true
	default:
		return types.Operation{}, false
	}
}
