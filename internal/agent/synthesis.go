package agent

import (
	"context"
	"fmt"
	"strings"

	"github.com/user/creatordesk/internal/types"
	"github.com/user/creatordesk/pkg/llm"
)

// Synthesizer produces the final answer in one model call when the
// iterative loop is not requested.
type Synthesizer struct {
	provider llm.Provider
}

func NewSynthesizer(provider llm.Provider) *Synthesizer {
	return &Synthesizer{provider: provider}
}

// Synthesize answers the query from the assembled context. List-focused
// queries get extra guidance so the model does not conflate lists with
// campaigns.
func (s *Synthesizer) Synthesize(ctx context.Context, req *types.AgentRequest, contextBlock string) (string, error) {
	system := "You are a CRM assistant for Creator IQ. Answer from the provided context. " +
		"Be specific: use names, IDs, and counts from the data. " +
		"If the context says a search was incomplete, say so instead of guessing."
	if isListQuery(req.Query) {
		system += " The question is about lists. Lists and campaigns are different objects; " +
			"answer about lists only, and mention list IDs so follow-up actions can target them."
	}

	messages := []llm.Message{llm.System(system)}
	for _, turn := range req.ConversationHistory {
		messages = append(messages, llm.Message{Role: turn.Role, Content: turn.Content})
	}
	messages = append(messages, llm.User(
		fmt.Sprintf("%s\n\nContext information:\n%s", req.Query, contextBlock)))

	resp, err := s.provider.Complete(ctx, messages, nil)
	if err != nil {
		return "", fmt.Errorf("synthesizing answer: %w", err)
	}
	return strings.TrimSpace(resp.Content), nil
}

func isListQuery(query string) bool {
	q := strings.ToLower(query)
	return strings.Contains(q, "list") && !strings.Contains(q, "campaign")
}
