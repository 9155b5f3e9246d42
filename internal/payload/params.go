package payload

import (
	"strings"

	"github.com/user/creatordesk/internal/intent"
	"github.com/user/creatordesk/internal/types"
)

// BuildParams derives the CRM parameter bag from the query text and any
// previous state. Callers may pre-populate the bag; derived values never
// overwrite what the caller set.
func BuildParams(query string, prev *types.PreviousState, params map[string]any) map[string]any {
	if params == nil {
		params = make(map[string]any)
	}
	q := strings.ToLower(query)

	set := func(key string, value any) {
		if _, exists := params[key]; !exists {
			params[key] = value
		}
	}

	mentionsCampaign := strings.Contains(q, "campaign") || strings.Contains(q, "ready rocker") ||
		strings.Contains(q, "ambassador") || strings.Contains(q, "program")
	mentionsPublishers := strings.Contains(q, "publisher") || strings.Contains(q, "influencer")
	wantsCount := strings.Contains(q, "how many") || strings.Contains(q, "count") ||
		strings.Contains(q, "total")

	if mentionsCampaign {
		set("search_campaigns", true)
		if term := campaignSearchTerm(query, q); term != "" {
			set("campaign_search_term", term)
		}
	}
	if strings.Contains(q, "list") {
		if name := intent.ExtractListName(query); name != "" {
			set("list_search_term", name)
		}
	}

	if mentionsPublishers || wantsCount {
		set("include_publishers", true)
		if term, ok := params["campaign_search_term"].(string); ok {
			if id := prev.FindCampaign(term); id != "" {
				set("campaign_id", id)
			}
		}
		if term, ok := params["list_search_term"].(string); ok {
			if id := prev.FindList(term); id != "" {
				set("list_id", id)
			}
		}
	}

	if wantsCount || strings.Contains(q, "all ") || strings.HasSuffix(q, "all") ||
		strings.Contains(q, "every") {
		set("fetch_all", true)
	}

	return params
}

// campaignSearchTerm names the campaign the query is about. The Ready
// Rocker ambassador program is referenced by several aliases, so those
// collapse to one canonical term before the generic quoted-name check.
func campaignSearchTerm(query, q string) string {
	if (strings.Contains(q, "ready") && strings.Contains(q, "rocker")) ||
		(strings.Contains(q, "ambassador") && strings.Contains(q, "program")) {
		return "Ready Rocker"
	}
	return intent.ExtractCampaignName(query)
}
