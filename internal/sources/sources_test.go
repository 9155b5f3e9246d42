package sources

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/user/creatordesk/internal/types"
)

func TestWebSearchFetch(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("X-Subscription-Token") != "brave-key" {
			t.Error("missing subscription token")
		}
		if r.URL.Query().Get("q") != "creator marketing trends" {
			t.Errorf("q = %q", r.URL.Query().Get("q"))
		}
		w.Write([]byte(`{"web":{"results":[{"title":"Trends","url":"https://example.com","description":"..."}]}}`))
	}))
	defer server.Close()

	src := NewWebSearch("brave-key")
	src.baseURL = server.URL

	result := src.Fetch(t.Context(), &types.AgentRequest{Query: "creator marketing trends"})
	if result.Error != "" {
		t.Fatalf("error: %s", result.Error)
	}
	hits := result.Results.([]WebResult)
	if len(hits) != 1 || hits[0].Title != "Trends" {
		t.Errorf("results = %+v", hits)
	}
}

func TestWebSearchFailureIsResult(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "rate limited", http.StatusTooManyRequests)
	}))
	defer server.Close()

	src := NewWebSearch("brave-key")
	src.baseURL = server.URL

	result := src.Fetch(t.Context(), &types.AgentRequest{Query: "anything"})
	if result.Error == "" {
		t.Error("expected error in result")
	}
	if result.Source != types.SourceWebSearch {
		t.Errorf("source = %q", result.Source)
	}
}

func TestMessagingFetch(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Authorization") != "Bearer user-token" {
			t.Errorf("authorization = %q", r.Header.Get("Authorization"))
		}
		w.Write([]byte(`[{"from":"jane@example.com","subject":"Rates","snippet":"Updated rates attached","date":"2025-03-01"}]`))
	}))
	defer server.Close()

	src := NewMessaging(server.URL, "service-token")
	req := &types.AgentRequest{Query: "rates", IncludeMessages: true, ProviderToken: "user-token"}
	if !src.Enabled(req) {
		t.Fatal("source should be enabled")
	}

	result := src.Fetch(t.Context(), req)
	if result.Error != "" {
		t.Fatalf("error: %s", result.Error)
	}
	messages := result.Results.([]MessageSnippet)
	if len(messages) != 1 || messages[0].Subject != "Rates" {
		t.Errorf("messages = %+v", messages)
	}
}

func TestEnabledGates(t *testing.T) {
	if NewWebSearch("").Enabled(&types.AgentRequest{IncludeWeb: true}) {
		t.Error("web search enabled without an api key")
	}
	if NewWebSearch("key").Enabled(&types.AgentRequest{IncludeWeb: false}) {
		t.Error("web search enabled without the request flag")
	}
	if NewDocStore("").Enabled(&types.AgentRequest{IncludeDocs: true}) {
		t.Error("doc store enabled without a base URL")
	}
	if NewMemory(nil).Enabled(&types.AgentRequest{}) {
		t.Error("memory enabled without a store")
	}
	if NewMemory(nil).Enabled(&types.AgentRequest{StateKey: "k"}) {
		t.Error("memory should stay off when a state key is supplied")
	}
}

func TestQueryTerms(t *testing.T) {
	terms := queryTerms(`How many publishers are in the "Ready Rocker" campaign?`)
	want := map[string]bool{"how": true, "many": true, "publishers": true,
		"are": true, "the": true, "ready": true, "rocker": true, "campaign": true}
	for _, term := range terms {
		if !want[term] {
			t.Errorf("unexpected term %q", term)
		}
	}
	for _, term := range terms {
		if len(term) <= 2 {
			t.Errorf("short term kept: %q", term)
		}
	}
}
