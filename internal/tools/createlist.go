package tools

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/user/creatordesk/internal/creatoriq"
	"github.com/user/creatordesk/internal/types"
)

// CreateListTool creates a CRM list and optionally seeds it with
// publishers in the same call.
type CreateListTool struct {
	agg *creatoriq.Aggregator
	ws  *Workspace
}

func NewCreateListTool(agg *creatoriq.Aggregator, ws *Workspace) *CreateListTool {
	return &CreateListTool{agg: agg, ws: ws}
}

func (t *CreateListTool) Name() string { return "create_list" }

func (t *CreateListTool) Description() string {
	return "Create a new publisher list. Optionally pass publisher_ids to add " +
		"those publishers to the list right after creating it."
}

func (t *CreateListTool) Parameters() json.RawMessage {
	return json.RawMessage(`{
		"type": "object",
		"properties": {
			"name": {"type": "string", "description": "Name for the new list"},
			"description": {"type": "string", "description": "Optional list description"},
			"publisher_ids": {
				"type": "array",
				"items": {"type": "integer"},
				"description": "Publishers to add to the new list"
			}
		},
		"required": ["name"]
	}`)
}

type createListArgs struct {
	Name         string `json:"name"`
	Description  string `json:"description"`
	PublisherIDs []int  `json:"publisher_ids"`
}

func (t *CreateListTool) Execute(ctx context.Context, args json.RawMessage) (string, error) {
	var parsed createListArgs
	if err := json.Unmarshal(args, &parsed); err != nil {
		return toolFailure("invalid arguments: " + err.Error()), nil
	}
	if parsed.Name == "" {
		return toolFailure("name is required"), nil
	}

	createOp := types.Operation{Route: "/lists", Method: "POST", Name: "Create List"}
	params := map[string]any{"list_name": parsed.Name}
	results := t.agg.Execute(ctx, []types.Operation{createOp}, "", params, nil)
	created := results[0]
	t.ws.Add(created)
	if created.Error != "" {
		return toolFailure(created.Error), nil
	}

	listID := ""
	if created.Operation != nil {
		listID = created.Operation.ID
	}
	summary := map[string]any{"success": true, "name": parsed.Name, "list_id": listID}

	if len(parsed.PublisherIDs) > 0 {
		if listID == "" {
			summary["publishers_added"] = false
			summary["note"] = "list created but its ID was missing, publishers not added"
			return toolPayload(summary), nil
		}
		ids := make([]any, len(parsed.PublisherIDs))
		for i, id := range parsed.PublisherIDs {
			ids[i] = id
		}
		addOp := types.Operation{
			Route: "/lists/" + listID + "/publishers", Method: "POST",
			Name: "Add Publishers To List", TargetID: listID,
		}
		addResults := t.agg.Execute(ctx, []types.Operation{addOp}, "",
			map[string]any{"publisher_ids": ids}, nil)
		added := addResults[0]
		t.ws.Add(added)
		if added.Error != "" {
			summary["publishers_added"] = false
			summary["note"] = fmt.Sprintf("list created but adding publishers failed: %s", added.Error)
		} else {
			summary["publishers_added"] = len(parsed.PublisherIDs)
		}
	}
	return toolPayload(summary), nil
}
