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

// Catalog searches the data catalog for repos, tables, and functions
// mentioned by the query, feeding the response's SourceData block.
type Catalog struct {
	baseURL string
	client  *http.Client
}

func NewCatalog(baseURL string) *Catalog {
	return &Catalog{
		baseURL: strings.TrimRight(baseURL, "/"),
		client:  &http.Client{Timeout: 15 * time.Second},
	}
}

func (s *Catalog) Tag() types.SourceTag { return types.SourceRepoMap }

func (s *Catalog) Enabled(req *types.AgentRequest) bool {
	return req.IncludeCatalog && s.baseURL != ""
}

// CatalogHits groups catalog matches by kind.
type CatalogHits struct {
	Repos     []string `json:"repos"`
	Tables    []string `json:"tables"`
	Functions []string `json:"functions"`
}

func (s *Catalog) Fetch(ctx context.Context, req *types.AgentRequest) types.AgentResult {
	u := s.baseURL + "/catalog/search?" + url.Values{"q": {req.Query}}.Encode()
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return failure(s.Tag(), err)
	}

	resp, err := s.client.Do(httpReq)
	if err != nil {
		return failure(s.Tag(), fmt.Errorf("catalog: %w", err))
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return failure(s.Tag(), fmt.Errorf("catalog: reading response: %w", err))
	}
	if resp.StatusCode != http.StatusOK {
		return failure(s.Tag(), fmt.Errorf("catalog: status %d", resp.StatusCode))
	}

	var hits CatalogHits
	if err := json.Unmarshal(body, &hits); err != nil {
		return failure(s.Tag(), fmt.Errorf("catalog: parsing response: %w", err))
	}

	return types.AgentResult{
		Source:  s.Tag(),
		Results: hits,
		Details: fmt.Sprintf("%d repos, %d tables, %d functions",
			len(hits.Repos), len(hits.Tables), len(hits.Functions)),
	}
}
