//go:build integration

package test

import (
	"bytes"
	"context"
	"database/sql"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"

	_ "modernc.org/sqlite"

	"github.com/user/creatordesk/internal/agent"
	"github.com/user/creatordesk/internal/creatoriq"
	"github.com/user/creatordesk/internal/intent"
	"github.com/user/creatordesk/internal/payload"
	"github.com/user/creatordesk/internal/server"
	"github.com/user/creatordesk/internal/statestore"
	"github.com/user/creatordesk/internal/types"
	"github.com/user/creatordesk/pkg/llm"
)

// mockProvider is a test double that returns a canned LLM response.
type mockProvider struct {
	response *llm.Response
}

func (m *mockProvider) Complete(_ context.Context, _ []llm.Message, _ []llm.Tool) (*llm.Response, error) {
	return m.response, nil
}

func (m *mockProvider) Stream(_ context.Context, _ []llm.Message, _ []llm.Tool) (<-chan llm.Delta, error) {
	return nil, nil
}

func crmFixture() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]any{
			"CampaignCollection": []any{
				map[string]any{"Campaign": map[string]any{
					"CampaignId": 9, "CampaignName": "Ready Rocker",
					"CampaignStatus": "Active", "PublishersCount": 12,
				}},
			},
			"page": 1, "total_pages": 1,
		})
	})
}

func TestEndToEndOverHTTP(t *testing.T) {
	dir := t.TempDir()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	crm := httptest.NewServer(crmFixture())
	defer crm.Close()

	db, err := sql.Open("sqlite", filepath.Join(dir, "state.db"))
	if err != nil {
		t.Fatal(err)
	}
	defer db.Close()
	durable, err := statestore.NewSQLStore(db, logger)
	if err != nil {
		t.Fatal(err)
	}
	store := statestore.NewLayered(statestore.NewMemoryCache(), durable, logger)

	ctxBuilder, err := agent.NewContextBuilder("gpt-4", 128000, 4096)
	if err != nil {
		t.Fatal(err)
	}

	client := creatoriq.NewClient(crm.URL, "test-key", logger)
	aggregator := creatoriq.NewAggregator(client, payload.NewBuilder(logger), logger)
	provider := &mockProvider{response: &llm.Response{Content: "You have 1 campaign: Ready Rocker."}}

	orch := agent.NewOrchestrator(
		intent.NewResolver(logger), aggregator, ctxBuilder,
		provider, store, nil, logger, agent.Options{})

	srv := httptest.NewServer(server.NewServer(orch.Run, logger))
	defer srv.Close()

	body := `{"query":"how many campaigns do I have?"}`
	req, _ := http.NewRequest(http.MethodPost, srv.URL+"/agent", bytes.NewReader([]byte(body)))
	req.Header.Set("Authorization", "Bearer user-42")
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d", resp.StatusCode)
	}

	var out types.AgentResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(out.Answer, "Ready Rocker") {
		t.Errorf("answer = %q", out.Answer)
	}
	if out.StateKey == "" {
		t.Fatal("no state key returned")
	}

	// The durable row must be visible to a follow-up request.
	store.WaitForWrites()
	state, _, err := durable.Get(context.Background(), "user-42", out.StateKey)
	if err != nil {
		t.Fatal(err)
	}
	if state == nil || len(state.Campaigns) != 1 {
		t.Fatalf("persisted state = %+v", state)
	}
	if state.Campaigns[0].Name != "Ready Rocker" {
		t.Errorf("campaign = %+v", state.Campaigns[0])
	}
}
