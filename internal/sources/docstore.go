package sources

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	htmltomarkdown "github.com/JohannesKaufmann/html-to-markdown/v2"

	"github.com/user/creatordesk/internal/types"
)

const maxDocChars = 50000

// DocStore fetches matching documents from the internal document
// service and converts their HTML to markdown for the context window.
type DocStore struct {
	baseURL string
	client  *http.Client
}

func NewDocStore(baseURL string) *DocStore {
	return &DocStore{
		baseURL: strings.TrimRight(baseURL, "/"),
		client:  &http.Client{Timeout: 30 * time.Second},
	}
}

func (s *DocStore) Tag() types.SourceTag { return types.SourceFileStore }

func (s *DocStore) Enabled(req *types.AgentRequest) bool {
	return req.IncludeDocs && s.baseURL != ""
}

func (s *DocStore) Fetch(ctx context.Context, req *types.AgentRequest) types.AgentResult {
	u := s.baseURL + "/search?" + url.Values{"q": {req.Query}}.Encode()
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return failure(s.Tag(), err)
	}

	resp, err := s.client.Do(httpReq)
	if err != nil {
		return failure(s.Tag(), fmt.Errorf("document store: %w", err))
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return failure(s.Tag(), fmt.Errorf("document store: status %d", resp.StatusCode))
	}
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return failure(s.Tag(), fmt.Errorf("document store: reading response: %w", err))
	}

	md, err := htmltomarkdown.ConvertString(string(body))
	if err != nil {
		return failure(s.Tag(), fmt.Errorf("document store: converting to markdown: %w", err))
	}
	if len(md) > maxDocChars {
		md = md[:maxDocChars] + "\n\n[Content truncated]"
	}

	return types.AgentResult{Source: s.Tag(), Results: md}
}
