package tools

import (
	"context"
	"encoding/json"
	"sort"
	"strings"

	"github.com/user/creatordesk/internal/creatoriq"
	"github.com/user/creatordesk/internal/types"
)

// AnalyzeDataTool runs local analysis over everything the run has
// accumulated. It never calls the CRM; it exists so the model can reason
// over large datasets without replaying them through the context window.
type AnalyzeDataTool struct {
	ws *Workspace
}

func NewAnalyzeDataTool(ws *Workspace) *AnalyzeDataTool {
	return &AnalyzeDataTool{ws: ws}
}

func (t *AnalyzeDataTool) Name() string { return "analyze_data" }

func (t *AnalyzeDataTool) Description() string {
	return "Analyze the data already fetched in this run without calling the CRM again. " +
		"Supports summarize, compare, filter, aggregate, and identify_patterns."
}

func (t *AnalyzeDataTool) Parameters() json.RawMessage {
	return json.RawMessage(`{
		"type": "object",
		"properties": {
			"analysis_type": {
				"type": "string",
				"enum": ["summarize", "compare", "filter", "aggregate", "identify_patterns"],
				"description": "What analysis to run"
			},
			"criteria": {"type": "string", "description": "Name or status to filter or compare by"}
		},
		"required": ["analysis_type"]
	}`)
}

type analyzeArgs struct {
	AnalysisType string `json:"analysis_type"`
	Criteria     string `json:"criteria"`
}

func (t *AnalyzeDataTool) Execute(ctx context.Context, args json.RawMessage) (string, error) {
	var parsed analyzeArgs
	if err := json.Unmarshal(args, &parsed); err != nil {
		return toolFailure("invalid arguments: " + err.Error()), nil
	}

	entities := t.ws.Entities()
	switch parsed.AnalysisType {
	case "summarize":
		return toolPayload(map[string]any{
			"success":    true,
			"campaigns":  len(entities.Campaigns),
			"publishers": len(entities.Publishers),
			"lists":      len(entities.Lists),
		}), nil

	case "compare":
		comparison := make([]map[string]any, 0, len(entities.Campaigns))
		for _, c := range entities.Campaigns {
			comparison = append(comparison, map[string]any{
				"name": c.Name, "status": c.Status, "publishers": c.PublishersCount,
			})
		}
		sort.Slice(comparison, func(i, j int) bool {
			return comparison[i]["publishers"].(int) > comparison[j]["publishers"].(int)
		})
		return toolPayload(map[string]any{"success": true, "campaigns": comparison}), nil

	case "filter":
		if parsed.Criteria == "" {
			return toolFailure("filter requires criteria"), nil
		}
		matched := filterEntities(entities, parsed.Criteria)
		return toolPayload(map[string]any{
			"success": true, "criteria": parsed.Criteria, "matches": matched,
		}), nil

	case "aggregate":
		byStatus := map[string]int{}
		for _, p := range entities.Publishers {
			status := p.Status
			if status == "" {
				status = "unknown"
			}
			byStatus[status]++
		}
		return toolPayload(map[string]any{
			"success": true, "publishers_by_status": byStatus,
			"total_publishers": len(entities.Publishers),
		}), nil

	case "identify_patterns":
		return toolPayload(map[string]any{
			"success":  true,
			"patterns": identifyPatterns(entities),
		}), nil

	default:
		return toolFailure("unknown analysis_type " + parsed.AnalysisType), nil
	}
}

func filterEntities(entities *types.PreviousState, criteria string) []map[string]any {
	var matched []map[string]any
	add := func(kind string, e types.Entity) {
		if creatoriq.MatchesName(e.Name, criteria) ||
			strings.EqualFold(e.Status, criteria) {
			matched = append(matched, map[string]any{
				"kind": kind, "id": e.ID, "name": e.Name, "status": e.Status,
			})
		}
	}
	for _, c := range entities.Campaigns {
		add("campaign", c)
	}
	for _, p := range entities.Publishers {
		add("publisher", p)
	}
	for _, l := range entities.Lists {
		add("list", l)
	}
	return matched
}

func identifyPatterns(entities *types.PreviousState) []string {
	var patterns []string

	statuses := map[string]int{}
	for _, p := range entities.Publishers {
		if p.Status != "" {
			statuses[p.Status]++
		}
	}
	if len(statuses) > 0 {
		top, topCount := "", 0
		for status, count := range statuses {
			if count > topCount {
				top, topCount = status, count
			}
		}
		patterns = append(patterns,
			"most common publisher status is "+top)
	}

	empty := 0
	for _, l := range entities.Lists {
		if l.PublishersCount == 0 {
			empty++
		}
	}
	if empty > 0 {
		patterns = append(patterns, "some lists have no publishers")
	}

	if len(patterns) == 0 {
		patterns = append(patterns, "no notable patterns in the accumulated data")
	}
	return patterns
}
