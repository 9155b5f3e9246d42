package sources

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/user/creatordesk/internal/types"
)

const defaultBraveURL = "https://api.search.brave.com/res/v1/web/search"

// WebSearch queries the Brave Search API.
type WebSearch struct {
	apiKey  string
	baseURL string
	client  *http.Client
}

func NewWebSearch(apiKey string) *WebSearch {
	return &WebSearch{
		apiKey:  apiKey,
		baseURL: defaultBraveURL,
		client:  &http.Client{Timeout: 15 * time.Second},
	}
}

func (s *WebSearch) Tag() types.SourceTag { return types.SourceWebSearch }

func (s *WebSearch) Enabled(req *types.AgentRequest) bool {
	return req.IncludeWeb && s.apiKey != ""
}

// WebResult is one search hit.
type WebResult struct {
	Title       string `json:"title"`
	URL         string `json:"url"`
	Description string `json:"description"`
}

type braveResponse struct {
	Web struct {
		Results []WebResult `json:"results"`
	} `json:"web"`
}

func (s *WebSearch) Fetch(ctx context.Context, req *types.AgentRequest) types.AgentResult {
	u, _ := url.Parse(s.baseURL)
	q := u.Query()
	q.Set("q", req.Query)
	q.Set("count", "5")
	u.RawQuery = q.Encode()

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return failure(s.Tag(), err)
	}
	httpReq.Header.Set("Accept", "application/json")
	httpReq.Header.Set("X-Subscription-Token", s.apiKey)

	resp, err := s.client.Do(httpReq)
	if err != nil {
		return failure(s.Tag(), fmt.Errorf("web search: %w", err))
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return failure(s.Tag(), fmt.Errorf("web search: reading response: %w", err))
	}
	if resp.StatusCode != http.StatusOK {
		return failure(s.Tag(), fmt.Errorf("web search: status %d: %s", resp.StatusCode, body))
	}

	var parsed braveResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		return failure(s.Tag(), fmt.Errorf("web search: parsing response: %w", err))
	}

	return types.AgentResult{
		Source:  s.Tag(),
		Results: parsed.Web.Results,
		Details: fmt.Sprintf("%d web results", len(parsed.Web.Results)),
	}
}
