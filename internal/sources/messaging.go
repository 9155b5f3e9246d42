package sources

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/user/creatordesk/internal/types"
)

// Messaging pulls recent conversation snippets from the messaging
// service so the agent can reference past outreach.
type Messaging struct {
	baseURL string
	token   string
	client  *http.Client
}

func NewMessaging(baseURL, token string) *Messaging {
	return &Messaging{
		baseURL: strings.TrimRight(baseURL, "/"),
		token:   token,
		client:  &http.Client{Timeout: 15 * time.Second},
	}
}

func (s *Messaging) Tag() types.SourceTag { return types.SourceMessaging }

func (s *Messaging) Enabled(req *types.AgentRequest) bool {
	return req.IncludeMessages && s.baseURL != ""
}

// MessageSnippet is one message from the service.
type MessageSnippet struct {
	From    string `json:"from"`
	Subject string `json:"subject"`
	Snippet string `json:"snippet"`
	Date    string `json:"date"`
}

func (s *Messaging) Fetch(ctx context.Context, req *types.AgentRequest) types.AgentResult {
	u := s.baseURL + "/messages?" + url.Values{"q": {req.Query}, "limit": {"10"}}.Encode()
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return failure(s.Tag(), err)
	}
	token := s.token
	if req.ProviderToken != "" {
		token = req.ProviderToken
	}
	httpReq.Header.Set("Authorization", "Bearer "+token)

	resp, err := s.client.Do(httpReq)
	if err != nil {
		return failure(s.Tag(), fmt.Errorf("messaging: %w", err))
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return failure(s.Tag(), fmt.Errorf("messaging: reading response: %w", err))
	}
	if resp.StatusCode != http.StatusOK {
		return failure(s.Tag(), fmt.Errorf("messaging: status %d", resp.StatusCode))
	}

	var messages []MessageSnippet
	if err := json.Unmarshal(body, &messages); err != nil {
		return failure(s.Tag(), fmt.Errorf("messaging: parsing response: %w", err))
	}

	return types.AgentResult{
		Source:  s.Tag(),
		Results: messages,
		Details: fmt.Sprintf("%d messages", len(messages)),
	}
}
