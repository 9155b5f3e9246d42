package creatoriq

import (
	"fmt"

	"github.com/user/creatordesk/internal/types"
)

// The CRM wraps every object in a single-key envelope: a list item
// arrives as {"List": {...}}, a publisher as {"Publisher": {...}}.
// Unwrapping happens exactly once, at the aggregator boundary, so
// everything downstream sees plain objects.

var envelopeKeys = []string{"List", "Publisher", "Campaign"}

// collectionKeys maps the known collection field names to the kind of
// entity they hold.
var collectionKeys = map[string]string{
	"ListsCollection":      "list",
	"PublisherCollection":  "publisher",
	"PublishersCollection": "publisher",
	"CampaignCollection":   "campaign",
}

// CollectionKey returns the collection field present in data and the
// entity kind it holds, or "", "". Exposed for consumers that summarize
// normalized results.
func CollectionKey(data map[string]any) (string, string) {
	return collectionKey(data)
}

// collectionKey returns the collection field present in data and the
// entity kind it holds, or "", "".
func collectionKey(data map[string]any) (string, string) {
	for key, kind := range collectionKeys {
		if _, ok := data[key].([]any); ok {
			return key, kind
		}
	}
	return "", ""
}

// unwrapItem strips one envelope layer from a single object. Objects
// without a recognized wrapper come back unchanged.
func unwrapItem(item map[string]any) map[string]any {
	for _, key := range envelopeKeys {
		if inner, ok := item[key].(map[string]any); ok {
			return inner
		}
	}
	return item
}

// normalizeData unwraps envelopes in collections and in direct objects.
// It mutates and returns data.
func normalizeData(data map[string]any) map[string]any {
	if data == nil {
		return nil
	}
	if key, _ := collectionKey(data); key != "" {
		items, _ := data[key].([]any)
		for i, raw := range items {
			if m, ok := raw.(map[string]any); ok {
				items[i] = unwrapItem(m)
			}
		}
		data[key] = items
	}
	for _, key := range envelopeKeys {
		if inner, ok := data[key].(map[string]any); ok {
			data[key] = inner
		}
	}
	return data
}

// ExtractEntities converts normalized endpoint results into the compact
// entity state carried between turns. Publishers are tagged with the
// collection they were discovered through.
func ExtractEntities(results []types.EndpointResult) *types.PreviousState {
	state := &types.PreviousState{}

	for _, result := range results {
		if result.Data == nil {
			continue
		}
		key, kind := collectionKey(result.Data)
		if key == "" {
			continue
		}
		items, _ := result.Data[key].([]any)
		for _, raw := range items {
			m, ok := raw.(map[string]any)
			if !ok {
				continue
			}
			switch kind {
			case "campaign":
				state.Campaigns = append(state.Campaigns, types.Entity{
					ID:              stringField(m, "CampaignId"),
					Name:            stringField(m, "CampaignName"),
					Status:          stringField(m, "CampaignStatus"),
					PublishersCount: intField(m, "PublishersCount"),
				})
			case "publisher":
				e := types.Entity{
					ID:     stringField(m, "Id"),
					Name:   stringField(m, "PublisherName"),
					Status: stringField(m, "Status"),
				}
				switch result.SourceKind {
				case types.SourceKindList:
					e.ListID = result.SourceID
				case types.SourceKindCampaign:
					e.CampaignID = result.SourceID
				}
				state.Publishers = append(state.Publishers, e)
			case "list":
				count := intField(m, "PublishersCount")
				if publishers, ok := m["Publishers"].([]any); ok && count == 0 {
					count = len(publishers)
				}
				state.Lists = append(state.Lists, types.Entity{
					ID:              stringField(m, "Id"),
					Name:            stringField(m, "Name"),
					PublishersCount: count,
				})
			}
		}
	}
	return state
}

// stringField reads a field that the API serves inconsistently as a
// string or a number.
func stringField(m map[string]any, key string) string {
	switch v := m[key].(type) {
	case string:
		return v
	case float64:
		if v == float64(int64(v)) {
			return fmt.Sprintf("%d", int64(v))
		}
		return fmt.Sprintf("%v", v)
	case nil:
		return ""
	default:
		return fmt.Sprintf("%v", v)
	}
}

func intField(m map[string]any, key string) int {
	switch v := m[key].(type) {
	case float64:
		return int(v)
	case int:
		return v
	default:
		return 0
	}
}
