package sources

import (
	"context"
	"fmt"

	"github.com/user/creatordesk/internal/types"
)

// Memory recalls the closest prior conversation state for the user when
// the request did not name a state key itself.
type Memory struct {
	store types.StateStore
}

func NewMemory(store types.StateStore) *Memory {
	return &Memory{store: store}
}

func (s *Memory) Tag() types.SourceTag { return types.SourceMemory }

func (s *Memory) Enabled(req *types.AgentRequest) bool {
	return s.store != nil && req.StateKey == "" && req.PreviousState == nil
}

func (s *Memory) Fetch(ctx context.Context, req *types.AgentRequest) types.AgentResult {
	hit, err := s.store.FindByQuery(ctx, req.UserID, queryTerms(req.Query))
	if err != nil {
		return failure(s.Tag(), err)
	}
	if hit == nil || hit.State.Empty() {
		return types.AgentResult{Source: s.Tag(), Details: "no relevant prior context"}
	}
	return types.AgentResult{
		Source:  s.Tag(),
		Results: hit.State,
		Details: fmt.Sprintf("recalled prior context: %d campaigns, %d publishers, %d lists",
			len(hit.State.Campaigns), len(hit.State.Publishers), len(hit.State.Lists)),
	}
}
