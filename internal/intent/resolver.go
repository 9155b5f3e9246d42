package intent

import (
	"log/slog"
	"strings"

	"github.com/user/creatordesk/internal/types"
)

// Resolver maps free-text queries onto CRM operations. Resolution is a
// single ordered rule table: write intents are checked before read
// intents so that "create a list of my publishers" creates a list
// instead of fetching publishers. The first rule that applies decides
// the operations; later rules are never consulted.
type Resolver struct {
	logger *slog.Logger
}

func NewResolver(logger *slog.Logger) *Resolver {
	return &Resolver{logger: logger.With("component", "intent")}
}

type rule struct {
	tag     string
	applies func(q string) bool
	build   func(r *Resolver, query, q string, prev *types.PreviousState) []types.Operation
}

// rules is evaluated top to bottom. Order is load-bearing.
var rules = []rule{
	{
		tag: "create_list",
		applies: func(q string) bool {
			return (strings.Contains(q, "create") || strings.Contains(q, "make")) &&
				strings.Contains(q, "list")
		},
		build: buildCreateList,
	},
	{
		tag: "transfer_publishers",
		applies: func(q string) bool {
			return (strings.Contains(q, "add") || strings.Contains(q, "copy") || strings.Contains(q, "move")) &&
				(strings.Contains(q, "publisher") || strings.Contains(q, "influencer"))
		},
		build: buildTransfer,
	},
	{
		tag: "update_status",
		applies: func(q string) bool {
			return strings.Contains(q, "update") && strings.Contains(q, "status") &&
				(strings.Contains(q, "publisher") || strings.Contains(q, "influencer"))
		},
		build: buildUpdateStatus,
	},
	{
		tag: "send_message",
		applies: func(q string) bool {
			return (strings.Contains(q, "send") && strings.Contains(q, "message")) ||
				(strings.Contains(q, "message") &&
					(strings.Contains(q, "publisher") || strings.Contains(q, "influencer")))
		},
		build: buildSendMessage,
	},
	{
		tag: "read_lists",
		applies: func(q string) bool {
			return strings.Contains(q, "list")
		},
		build: buildReadLists,
	},
	{
		tag: "read_campaigns",
		applies: func(q string) bool {
			return strings.Contains(q, "campaign") || strings.Contains(q, "ready rocker") ||
				strings.Contains(q, "ambassador") || strings.Contains(q, "program")
		},
		build: buildReadCampaigns,
	},
	{
		tag: "read_publishers",
		applies: func(q string) bool {
			return strings.Contains(q, "publisher") || strings.Contains(q, "influencer")
		},
		build: func(r *Resolver, query, q string, prev *types.PreviousState) []types.Operation {
			return []types.Operation{{Route: "/publishers", Method: "GET", Name: "List Publishers"}}
		},
	},
}

// Resolve returns the ranked operations for a query. It never returns
// an empty slice; queries that match nothing fall back to listing
// campaigns, the broadest read.
func (r *Resolver) Resolve(query string, prev *types.PreviousState) []types.Operation {
	q := strings.ToLower(query)

	for _, rule := range rules {
		if !rule.applies(q) {
			continue
		}
		ops := rule.build(r, query, q, prev)
		if len(ops) == 0 {
			continue
		}
		r.logger.Debug("intent resolved", "rule", rule.tag, "operations", len(ops))
		return ops
	}

	r.logger.Debug("intent resolved", "rule", "default")
	return []types.Operation{{Route: "/campaigns", Method: "GET", Name: "List Campaigns"}}
}

func buildCreateList(r *Resolver, query, q string, prev *types.PreviousState) []types.Operation {
	return []types.Operation{{Route: "/lists", Method: "POST", Name: "Create List"}}
}

// Transfer phrase sets. The awkward "from list to campaign" phrase has
// to be checked before the bare "list" keyword or list-to-campaign
// moves would be misread as list-targeted.
var (
	listSourcePhrases     = []string{"from list", "in list", "list called", "source list"}
	campaignSourcePhrases = []string{"from campaign", "in campaign", "campaign called", "source campaign"}
	listTargetPhrases     = []string{"to list", "into list", "target list"}
	campaignTargetPhrases = []string{"to campaign", "into campaign", "target campaign"}
)

func buildTransfer(r *Resolver, query, q string, prev *types.PreviousState) []types.Operation {
	crossKind := strings.Contains(q, "from list to campaign")
	isListTarget := strings.Contains(q, "list") && !crossKind
	isCampaignTarget := strings.Contains(q, "campaign") || crossKind

	if isListTarget {
		if ops := r.resolveTransfer(query, prev, types.SourceKindList); ops != nil {
			return ops
		}
	}
	if isCampaignTarget {
		if ops := r.resolveTransfer(query, prev, types.SourceKindCampaign); ops != nil {
			return ops
		}
	}

	// Could not pin both endpoints of the transfer down; fetch the
	// candidate containers so the caller can try again with state.
	var ops []types.Operation
	if isListTarget {
		ops = append(ops, types.Operation{Route: "/lists", Method: "GET", Name: "Get Lists"})
	}
	if isCampaignTarget {
		ops = append(ops, types.Operation{Route: "/campaigns", Method: "GET", Name: "List Campaigns"})
	}
	if len(ops) == 0 {
		ops = append(ops, types.Operation{Route: "/lists", Method: "GET", Name: "Get Lists"})
	}
	return ops
}

// resolveTransfer tries to resolve both the source container and the
// target of a publisher transfer against previous state. Returns nil
// when either side is unresolved or they are the same container.
func (r *Resolver) resolveTransfer(query string, prev *types.PreviousState, target types.SourceCollectionKind) []types.Operation {
	sourceID, sourceKind := r.findTransferSource(query, prev)
	if sourceID == "" {
		return nil
	}

	var targetID string
	switch target {
	case types.SourceKindList:
		for _, phrase := range listTargetPhrases {
			if name := ExtractNameAfterPhrase(query, phrase); name != "" {
				targetID = prev.FindList(name)
				break
			}
		}
	case types.SourceKindCampaign:
		for _, phrase := range campaignTargetPhrases {
			if name := ExtractNameAfterPhrase(query, phrase); name != "" {
				targetID = prev.FindCampaign(name)
				break
			}
		}
	}
	if targetID == "" || (targetID == sourceID && sourceKind == target) {
		return nil
	}

	var sourceOp types.Operation
	switch sourceKind {
	case types.SourceKindList:
		sourceOp = types.Operation{
			Route: "/lists/" + sourceID + "/publishers", Method: "GET",
			Name: "Get Source List Publishers", SourceID: sourceID, SourceKind: sourceKind,
		}
	case types.SourceKindCampaign:
		sourceOp = types.Operation{
			Route: "/campaigns/" + sourceID + "/publishers", Method: "GET",
			Name: "Get Source Campaign Publishers", SourceID: sourceID, SourceKind: sourceKind,
		}
	}

	var targetOp types.Operation
	switch target {
	case types.SourceKindList:
		targetOp = types.Operation{
			Route: "/lists/" + targetID + "/publishers", Method: "POST",
			Name: "Add Publishers To List", SourceID: sourceID, SourceKind: sourceKind, TargetID: targetID,
		}
	case types.SourceKindCampaign:
		targetOp = types.Operation{
			Route: "/campaigns/" + targetID + "/publishers", Method: "POST",
			Name: "Add Publishers To Campaign", SourceID: sourceID, SourceKind: sourceKind, TargetID: targetID,
		}
	}

	r.logger.Debug("transfer resolved",
		"source_kind", string(sourceKind), "source_id", sourceID, "target_id", targetID)
	return []types.Operation{sourceOp, targetOp}
}

func (r *Resolver) findTransferSource(query string, prev *types.PreviousState) (string, types.SourceCollectionKind) {
	for _, phrase := range listSourcePhrases {
		name := ExtractNameAfterPhrase(query, phrase)
		if name == "" {
			continue
		}
		if id := prev.FindList(name); id != "" {
			return id, types.SourceKindList
		}
	}
	for _, phrase := range campaignSourcePhrases {
		name := ExtractNameAfterPhrase(query, phrase)
		if name == "" {
			continue
		}
		if id := prev.FindCampaign(name); id != "" {
			return id, types.SourceKindCampaign
		}
	}
	return "", ""
}

func buildUpdateStatus(r *Resolver, query, q string, prev *types.PreviousState) []types.Operation {
	return []types.Operation{{
		Route: "/publishers/{publisher_id}", Method: "PUT", Name: "Update Publisher Status",
	}}
}

func buildSendMessage(r *Resolver, query, q string, prev *types.PreviousState) []types.Operation {
	id := ExtractPublisherID(query)
	if id == "" {
		// Placeholder route. The payload builder gets one more chance to
		// fill the ID from params or state before the call is refused.
		return []types.Operation{{
			Route: "/publishers/{publisher_id}/messages", Method: "POST", Name: "Send Message to Publisher",
		}}
	}
	return []types.Operation{{
		Route: "/publishers/" + id + "/messages", Method: "POST",
		Name: "Send Message to Publisher", PublisherID: id,
	}}
}

func buildReadLists(r *Resolver, query, q string, prev *types.PreviousState) []types.Operation {
	ops := []types.Operation{{Route: "/lists", Method: "GET", Name: "Get Lists"}}

	if name := ExtractListName(query); name != "" {
		if id := prev.FindList(name); id != "" {
			ops = append(ops, types.Operation{
				Route: "/lists/" + id + "/publishers", Method: "GET",
				Name: "Get Publishers in List", SourceID: id, SourceKind: types.SourceKindList,
			})
		}
	}
	return ops
}

func buildReadCampaigns(r *Resolver, query, q string, prev *types.PreviousState) []types.Operation {
	ops := []types.Operation{{Route: "/campaigns", Method: "GET", Name: "List Campaigns"}}

	var drillID string
	if name := ExtractCampaignName(query); name != "" {
		drillID = prev.FindCampaign(name)
	}
	if drillID == "" && prev != nil && len(prev.Campaigns) > 0 &&
		(strings.Contains(q, "publisher") || strings.Contains(q, "influencer")) {
		drillID = prev.Campaigns[0].ID
	}
	if drillID != "" {
		ops = append(ops, types.Operation{
			Route: "/campaigns/" + drillID + "/publishers", Method: "GET",
			Name: "Get Campaign Publishers", SourceID: drillID, SourceKind: types.SourceKindCampaign,
		})
	}
	return ops
}
