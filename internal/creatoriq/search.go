package creatoriq

import (
	"math"
	"strings"
)

// MatchesName reports whether an entity name matches a free-text search
// term. Matching runs three checks in order of strictness: exact
// substring, known aliases, then word overlap where at least 60% of the
// term's significant words (longer than two characters) must appear in
// the name.
func MatchesName(name, term string) bool {
	n := strings.ToLower(strings.TrimSpace(name))
	t := strings.ToLower(strings.TrimSpace(term))
	if t == "" {
		return true
	}
	if strings.Contains(n, t) {
		return true
	}

	// The Ready Rocker ambassador program goes by both names.
	if t == "ready rocker" {
		if (strings.Contains(n, "ready") && strings.Contains(n, "rocker")) ||
			(strings.Contains(n, "ambassador") && strings.Contains(n, "program")) {
			return true
		}
	}

	var words []string
	for _, w := range strings.Fields(t) {
		if len(w) > 2 {
			words = append(words, w)
		}
	}
	if len(words) < 2 {
		return false
	}
	needed := int(math.Ceil(0.6 * float64(len(words))))
	matched := 0
	for _, w := range words {
		if strings.Contains(n, w) {
			matched++
		}
	}
	return matched >= needed
}

// nameField names the display field for each entity kind in a
// normalized item.
func nameField(kind string) string {
	switch kind {
	case "campaign":
		return "CampaignName"
	case "publisher":
		return "PublisherName"
	default:
		return "Name"
	}
}

// filterItems keeps the items whose name matches term. Items without a
// usable name field are dropped rather than matched blindly.
func filterItems(items []any, kind, term string) []any {
	if term == "" {
		return items
	}
	filtered := make([]any, 0, len(items))
	for _, raw := range items {
		m, ok := raw.(map[string]any)
		if !ok {
			continue
		}
		if MatchesName(stringField(m, nameField(kind)), term) {
			filtered = append(filtered, m)
		}
	}
	return filtered
}
