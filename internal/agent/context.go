// Package agent orchestrates a run: parallel source fan-out, the CRM
// fetch, context assembly, the iterative tool loop, and final synthesis.
package agent

import (
	"fmt"
	"strings"

	"github.com/pkoukk/tiktoken-go"

	"github.com/user/creatordesk/internal/creatoriq"
	"github.com/user/creatordesk/internal/sources"
	"github.com/user/creatordesk/internal/types"
)

// ContextBuilder renders everything gathered for a run into one bounded
// text block for the model.
type ContextBuilder struct {
	tokenizer *tiktoken.Tiktoken
	maxTokens int
	reserve   int
}

// NewContextBuilder creates a builder sized to the model's context
// window. model selects the tokenizer; unknown models fall back to
// cl100k_base.
func NewContextBuilder(model string, maxTokens, reserve int) (*ContextBuilder, error) {
	enc, err := tiktoken.EncodingForModel(model)
	if err != nil {
		enc, err = tiktoken.GetEncoding("cl100k_base")
		if err != nil {
			return nil, fmt.Errorf("get tokenizer: %w", err)
		}
	}
	return &ContextBuilder{tokenizer: enc, maxTokens: maxTokens, reserve: reserve}, nil
}

func (b *ContextBuilder) countTokens(text string) int {
	return len(b.tokenizer.Encode(text, nil, nil))
}

// ContextInput is everything that can contribute to the context block.
type ContextInput struct {
	Previous    *types.PreviousState
	Operations  []types.OperationResult
	Notice      string
	SourceData  []types.AgentResult
	CRMResults  []types.EndpointResult
	ItemsPerSet int
}

const defaultItemsPerSet = 5

// Build renders the context block. When the rendered block exceeds the
// input budget, it is re-rendered with fewer items per section and, as
// a last resort, truncated at the token boundary.
func (b *ContextBuilder) Build(in ContextInput) string {
	if in.ItemsPerSet <= 0 {
		in.ItemsPerSet = defaultItemsPerSet
	}
	budget := b.maxTokens - b.reserve

	block := b.render(in)
	if b.countTokens(block) <= budget {
		return block
	}

	in.ItemsPerSet = 2
	block = b.render(in)
	if b.countTokens(block) <= budget {
		return block
	}

	tokens := b.tokenizer.Encode(block, nil, nil)
	block = b.tokenizer.Decode(tokens[:budget])
	return block + "\n[context truncated]\n--- CONTEXT END ---"
}

func (b *ContextBuilder) render(in ContextInput) string {
	var sb strings.Builder
	sb.WriteString("--- CONTEXT START ---\n")
	sb.WriteString("CAPABILITIES: You are a CRM assistant for Creator IQ. ")
	sb.WriteString("You can read campaigns, publishers, and lists, create lists, ")
	sb.WriteString("transfer publishers, update statuses, and send messages.\n")

	if in.Notice != "" {
		sb.WriteString("\nNOTICE: " + in.Notice + "\n")
	}

	b.renderPrevious(&sb, in.Previous, in.Operations, in.ItemsPerSet)
	b.renderSources(&sb, in.SourceData)
	b.renderCRM(&sb, in.CRMResults, in.ItemsPerSet)

	sb.WriteString("--- CONTEXT END ---")
	return sb.String()
}

func (b *ContextBuilder) renderPrevious(sb *strings.Builder, prev *types.PreviousState, ops []types.OperationResult, perSet int) {
	if prev.Empty() && len(ops) == 0 {
		return
	}
	sb.WriteString("\nPREVIOUS CONTEXT:\n")
	if prev != nil {
		for i, c := range prev.Campaigns {
			if i >= perSet {
				fmt.Fprintf(sb, "... and %d more campaigns\n", len(prev.Campaigns)-perSet)
				break
			}
			fmt.Fprintf(sb, "[%d] %s (ID: %s) with %d publishers\n", i+1, c.Name, c.ID, c.PublishersCount)
		}
		if len(prev.Publishers) > 0 {
			fmt.Fprintf(sb, "Known publishers: %d\n", len(prev.Publishers))
		}
		if len(prev.Lists) > 0 {
			fmt.Fprintf(sb, "Known lists: %d\n", len(prev.Lists))
		}
	}
	for i, op := range ops {
		if i >= perSet {
			fmt.Fprintf(sb, "... and %d more operations\n", len(ops)-perSet)
			break
		}
		outcome := "Success"
		if !op.Successful {
			outcome = "Failed"
		}
		fmt.Fprintf(sb, "[%d] %s: %s (%s)\n", i+1, op.Type, op.Details, outcome)
	}
}

func (b *ContextBuilder) renderSources(sb *strings.Builder, results []types.AgentResult) {
	for _, result := range results {
		if result.Error != "" {
			fmt.Fprintf(sb, "\n%s unavailable: %s\n", sectionTitle(result.Source), result.Error)
			continue
		}
		switch result.Source {
		case types.SourceWebSearch:
			sb.WriteString("\nWEB SEARCH RESULTS:\n")
			if hits, ok := result.Results.([]sources.WebResult); ok {
				for i, hit := range hits {
					fmt.Fprintf(sb, "%d. %s\n   %s\n   %s\n", i+1, hit.Title, hit.URL, hit.Description)
				}
			}
		case types.SourceFileStore, types.SourceFileAnalysis:
			fmt.Fprintf(sb, "\n%s:\n", sectionTitle(result.Source))
			if text, ok := result.Results.(string); ok {
				sb.WriteString(text + "\n")
			}
		case types.SourceMessaging:
			sb.WriteString("\nMESSAGING:\n")
			if messages, ok := result.Results.([]sources.MessageSnippet); ok {
				for _, m := range messages {
					fmt.Fprintf(sb, "- %s | %s | %s\n", m.Date, m.From, m.Subject)
				}
			}
		case types.SourceMemory:
			if result.Details != "" {
				sb.WriteString("\nRECALLED CONTEXT: " + result.Details + "\n")
			}
		case types.SourceRepoMap, types.SourceCRMCatalog:
			if result.Details != "" {
				fmt.Fprintf(sb, "\nCATALOG: %s\n", result.Details)
			}
		}
	}
}

func sectionTitle(tag types.SourceTag) string {
	switch tag {
	case types.SourceWebSearch:
		return "WEB SEARCH"
	case types.SourceFileStore:
		return "FILE STORE"
	case types.SourceFileAnalysis:
		return "FILE ANALYSIS"
	case types.SourceMessaging:
		return "MESSAGING"
	case types.SourceMemory:
		return "MEMORY"
	default:
		return strings.ToUpper(string(tag))
	}
}

func (b *ContextBuilder) renderCRM(sb *strings.Builder, results []types.EndpointResult, perSet int) {
	if len(results) == 0 {
		return
	}
	sb.WriteString("\nCRM DATA:\n")

	for _, result := range results {
		if result.Operation != nil {
			outcome := "SUCCESS"
			if !result.Operation.Successful {
				outcome = "FAILED"
			}
			fmt.Fprintf(sb, "\nWRITE OPERATION RESULT (%s): %s - %s\n",
				outcome, result.Operation.Type, result.Operation.Details)
			continue
		}
		if result.Error != "" {
			fmt.Fprintf(sb, "\n%s %s failed: %s\n", result.Method, result.Endpoint, result.Error)
			continue
		}
		if result.Data == nil {
			continue
		}

		key, kind := creatoriq.CollectionKey(result.Data)
		if key == "" {
			continue
		}
		items, _ := result.Data[key].([]any)
		fmt.Fprintf(sb, "\n%s from %s (%d total", collectionLabel(kind), result.Endpoint, len(items))
		if result.NotFullySearched {
			sb.WriteString(", search incomplete")
		}
		sb.WriteString("):\n")

		for i, raw := range items {
			if i >= perSet {
				fmt.Fprintf(sb, "... and %d more\n", len(items)-perSet)
				break
			}
			m, ok := raw.(map[string]any)
			if !ok {
				continue
			}
			sb.WriteString("- " + itemLine(kind, m) + "\n")
		}
	}
}

func collectionLabel(kind string) string {
	switch kind {
	case "campaign":
		return "Campaigns"
	case "publisher":
		return "Publishers"
	case "list":
		return "Lists"
	default:
		return "Items"
	}
}

func itemLine(kind string, m map[string]any) string {
	switch kind {
	case "campaign":
		return fmt.Sprintf("%s (ID: %s) status %s, %d publishers",
			str(m["CampaignName"]), str(m["CampaignId"]), str(m["CampaignStatus"]), num(m["PublishersCount"]))
	case "publisher":
		return fmt.Sprintf("%s (ID: %s) status %s",
			str(m["PublisherName"]), str(m["Id"]), str(m["Status"]))
	case "list":
		return fmt.Sprintf("%s (ID: %s)", str(m["Name"]), str(m["Id"]))
	default:
		return fmt.Sprintf("%v", m)
	}
}

func str(v any) string {
	switch t := v.(type) {
	case string:
		return t
	case float64:
		if t == float64(int64(t)) {
			return fmt.Sprintf("%d", int64(t))
		}
		return fmt.Sprintf("%v", t)
	case nil:
		return ""
	default:
		return fmt.Sprintf("%v", t)
	}
}

func num(v any) int {
	if f, ok := v.(float64); ok {
		return int(f)
	}
	if n, ok := v.(int); ok {
		return n
	}
	return 0
}
