package creatoriq

import (
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/user/creatordesk/internal/payload"
	"github.com/user/creatordesk/internal/types"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newTestAggregator(t *testing.T, handler http.HandlerFunc) (*Aggregator, *httptest.Server) {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	logger := discardLogger()
	client := NewClient(server.URL, "test-key", logger)
	return NewAggregator(client, payload.NewBuilder(logger), logger), server
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(v)
}

func publisherPage(page, totalPages int, names ...string) map[string]any {
	items := make([]any, 0, len(names))
	for i, name := range names {
		items = append(items, map[string]any{
			"Publisher": map[string]any{
				"Id": 100*page + i, "PublisherName": name, "Status": "Active",
			},
		})
	}
	return map[string]any{
		"page": page, "total_pages": totalPages,
		"PublisherCollection": items,
	}
}

func TestAggregatorFetchesAllPagesAndFilters(t *testing.T) {
	var pagesServed []string
	agg, _ := newTestAggregator(t, func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("x-api-key") != "test-key" {
			t.Errorf("missing api key header")
		}
		page := r.URL.Query().Get("page")
		pagesServed = append(pagesServed, page)
		switch page {
		case "1":
			writeJSON(w, publisherPage(1, 3, "Alice Adams", "Bob Brown"))
		case "2":
			writeJSON(w, publisherPage(2, 3, "Carol Clark", "Dan Diaz"))
		case "3":
			writeJSON(w, publisherPage(3, 3, "Jane Jones", "Ed Evans"))
		default:
			t.Errorf("unexpected page %q", page)
		}
	})

	ops := []types.Operation{{Route: "/publishers", Method: "GET", Name: "List Publishers"}}
	params := map[string]any{"fetch_all": true, "publisher_search_term": "jane"}

	results := agg.Execute(t.Context(), ops, "find jane across all publishers", params, nil)

	if len(results) != 1 {
		t.Fatalf("got %d results", len(results))
	}
	r := results[0]
	if r.Error != "" {
		t.Fatalf("unexpected error: %s", r.Error)
	}
	if r.PagesFetched != 3 {
		t.Errorf("pages fetched = %d, want 3", r.PagesFetched)
	}
	if len(pagesServed) != 3 {
		t.Errorf("server saw pages %v", pagesServed)
	}
	if r.NotFullySearched {
		t.Error("fully fetched dataset flagged as incomplete")
	}

	// The whole dataset was searched, so the match on page 3 is found.
	items := r.Data["PublisherCollection"].([]any)
	if len(items) != 1 {
		t.Fatalf("filtered items = %d, want 1: %v", len(items), items)
	}
	if items[0].(map[string]any)["PublisherName"] != "Jane Jones" {
		t.Errorf("wrong publisher kept: %v", items[0])
	}

	// Downstream consumers must not try to paginate further.
	if intField(r.Data, "page") != 1 || intField(r.Data, "total_pages") != 1 {
		t.Errorf("pagination fields not collapsed: page=%v total_pages=%v",
			r.Data["page"], r.Data["total_pages"])
	}
}

func TestAggregatorPageCap(t *testing.T) {
	served := 0
	agg, _ := newTestAggregator(t, func(w http.ResponseWriter, r *http.Request) {
		served++
		writeJSON(w, publisherPage(served, 25, fmt.Sprintf("Person %d", served)))
	})

	ops := []types.Operation{{Route: "/publishers", Method: "GET", Name: "List Publishers"}}
	results := agg.Execute(t.Context(), ops, "everyone", map[string]any{"fetch_all": true}, nil)

	r := results[0]
	if r.PagesFetched != maxPagesPerFetch {
		t.Errorf("pages fetched = %d, want %d", r.PagesFetched, maxPagesPerFetch)
	}
	if !r.NotFullySearched {
		t.Error("capped fetch not flagged")
	}
	items := r.Data["PublisherCollection"].([]any)
	if len(items) != maxPagesPerFetch {
		t.Errorf("items = %d, want %d", len(items), maxPagesPerFetch)
	}
}

func TestAggregatorCreateListMetadata(t *testing.T) {
	agg, _ := newTestAggregator(t, func(w http.ResponseWriter, r *http.Request) {
		if r.Method != "POST" || r.URL.Path != "/lists" {
			t.Errorf("unexpected request %s %s", r.Method, r.URL.Path)
		}
		var body map[string]any
		json.NewDecoder(r.Body).Decode(&body)
		if body["Name"] != "VIP Creators" {
			t.Errorf("body Name = %v", body["Name"])
		}
		writeJSON(w, map[string]any{"List": map[string]any{"Id": 77, "Name": "VIP Creators"}})
	})

	ops := []types.Operation{{Route: "/lists", Method: "POST", Name: "Create List"}}
	results := agg.Execute(t.Context(), ops, `create a list called "VIP Creators"`, nil, nil)

	op := results[0].Operation
	if op == nil || !op.Successful {
		t.Fatalf("missing success metadata: %+v", results[0])
	}
	if op.Type != "Create List" || op.ID != "77" {
		t.Errorf("metadata = %+v", op)
	}
	if !strings.Contains(op.Details, "VIP Creators") {
		t.Errorf("details = %q", op.Details)
	}
}

func TestAggregatorUnresolvedMessageNeverCalls(t *testing.T) {
	calls := 0
	agg, _ := newTestAggregator(t, func(w http.ResponseWriter, r *http.Request) {
		calls++
	})

	ops := []types.Operation{{
		Route: "/publishers/{publisher_id}/messages", Method: "POST",
		Name: "Send Message to Publisher",
	}}
	results := agg.Execute(t.Context(), ops, "send a message", nil, &types.PreviousState{})

	if calls != 0 {
		t.Errorf("unresolved operation reached the API %d times", calls)
	}
	r := results[0]
	if r.Error == "" {
		t.Error("expected an error on the result")
	}
	if r.Operation == nil || r.Operation.Successful {
		t.Errorf("expected failed operation metadata: %+v", r.Operation)
	}
}

func TestAggregatorTransferFeedsWorkingState(t *testing.T) {
	var campaignBody map[string]any
	agg, _ := newTestAggregator(t, func(w http.ResponseWriter, r *http.Request) {
		switch {
		case r.Method == "GET" && r.URL.Path == "/lists/7/publishers":
			writeJSON(w, publisherPage(1, 1, "Jane Jones", "Ed Evans"))
		case r.Method == "POST" && r.URL.Path == "/campaigns/5/publishers":
			json.NewDecoder(r.Body).Decode(&campaignBody)
			writeJSON(w, map[string]any{})
		default:
			t.Errorf("unexpected request %s %s", r.Method, r.URL.Path)
		}
	})

	ops := []types.Operation{
		{
			Route: "/lists/7/publishers", Method: "GET", Name: "Get Source List Publishers",
			SourceID: "7", SourceKind: types.SourceKindList,
		},
		{
			Route: "/campaigns/5/publishers", Method: "POST", Name: "Add Publishers To Campaign",
			SourceID: "7", SourceKind: types.SourceKindList, TargetID: "5",
		},
	}
	results := agg.Execute(t.Context(), ops, "add publishers from the list to the campaign", nil, nil)

	if results[1].Error != "" {
		t.Fatalf("transfer failed: %s", results[1].Error)
	}
	// The target call used a publisher fetched by the source call.
	if campaignBody["publisherId"] != float64(100) {
		t.Errorf("publisherId = %v, want 100", campaignBody["publisherId"])
	}
	if campaignBody["status"] != "Invited" {
		t.Errorf("status = %v", campaignBody["status"])
	}
	if results[1].Operation == nil || !results[1].Operation.Successful {
		t.Errorf("missing transfer metadata: %+v", results[1].Operation)
	}
}

func TestAggregatorMessage404Classified(t *testing.T) {
	agg, _ := newTestAggregator(t, func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "not found", http.StatusNotFound)
	})

	ops := []types.Operation{{
		Route: "/publishers/999999/messages", Method: "POST",
		Name: "Send Message to Publisher", PublisherID: "999999",
	}}
	results := agg.Execute(t.Context(), ops, "message publisher 999999", nil, nil)

	r := results[0]
	if r.Error == "" {
		t.Fatal("expected error")
	}
	if !strings.Contains(r.Error, "publisher_not_found") {
		t.Errorf("error not classified as publisher_not_found: %s", r.Error)
	}
	if r.Operation == nil || r.Operation.Successful {
		t.Errorf("expected failed metadata: %+v", r.Operation)
	}
}

func TestExtractEntities(t *testing.T) {
	results := []types.EndpointResult{
		{
			Endpoint: "/campaigns",
			Data: map[string]any{
				"CampaignCollection": []any{
					map[string]any{
						"CampaignId": float64(555), "CampaignName": "Ready Rocker Ambassador Program",
						"CampaignStatus": "Active", "PublishersCount": float64(12),
					},
				},
			},
		},
		{
			Endpoint: "/lists/7/publishers", SourceID: "7", SourceKind: types.SourceKindList,
			Data: map[string]any{
				"PublisherCollection": []any{
					map[string]any{"Id": float64(101), "PublisherName": "Jane Jones", "Status": "Active"},
				},
			},
		},
	}

	state := ExtractEntities(results)
	if len(state.Campaigns) != 1 || state.Campaigns[0].ID != "555" {
		t.Fatalf("campaigns = %+v", state.Campaigns)
	}
	if state.Campaigns[0].PublishersCount != 12 {
		t.Errorf("publishers count = %d", state.Campaigns[0].PublishersCount)
	}
	if len(state.Publishers) != 1 {
		t.Fatalf("publishers = %+v", state.Publishers)
	}
	if state.Publishers[0].ListID != "7" {
		t.Errorf("publisher not tagged with source list: %+v", state.Publishers[0])
	}
}
