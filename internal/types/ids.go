package types

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

type UserID string
type StateKey string
type ToolCallID string

// NewStateKey generates a key scoping one conversation context for a user.
// The query slug keeps keys greppable in the durable store.
func NewStateKey(user UserID, query string) StateKey {
	slug := strings.ToLower(strings.Join(strings.Fields(query), "_"))
	if len(slug) > 20 {
		slug = slug[:20]
	}
	return StateKey(fmt.Sprintf("ciq_%s_%s_%d", user, slug, time.Now().UnixMilli()))
}

func NewToolCallID() ToolCallID {
	return ToolCallID(uuid.New().String())
}
