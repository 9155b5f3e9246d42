// Package sources holds the auxiliary context providers that run in
// parallel with the CRM fetch: web search, the document store, the
// messaging inbox, the data catalog, and recalled memory.
package sources

import (
	"context"
	"strings"

	"github.com/user/creatordesk/internal/types"
)

// Source contributes one slice of context to an agent run. Fetch never
// returns a Go error; failures ride inside the AgentResult so one
// broken source cannot abort the run.
type Source interface {
	Tag() types.SourceTag
	Enabled(req *types.AgentRequest) bool
	Fetch(ctx context.Context, req *types.AgentRequest) types.AgentResult
}

func failure(tag types.SourceTag, err error) types.AgentResult {
	return types.AgentResult{Source: tag, Error: err.Error()}
}

// queryTerms splits a query into lowercased search terms, dropping
// short filler words.
func queryTerms(query string) []string {
	var terms []string
	for _, word := range strings.Fields(strings.ToLower(query)) {
		word = strings.Trim(word, `.,!?"'`)
		if len(word) > 2 {
			terms = append(terms, word)
		}
	}
	return terms
}
