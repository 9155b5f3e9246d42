package intent

import (
	"io"
	"log/slog"
	"testing"

	"github.com/user/creatordesk/internal/types"
)

func testResolver() *Resolver {
	return NewResolver(slog.New(slog.NewTextHandler(io.Discard, nil)))
}

func TestResolveCreateList(t *testing.T) {
	ops := testResolver().Resolve(`create a list called 'VIP Creators'`, nil)

	if len(ops) != 1 {
		t.Fatalf("got %d operations, want 1", len(ops))
	}
	if ops[0].Route != "/lists" || ops[0].Method != "POST" || ops[0].Name != "Create List" {
		t.Errorf("unexpected operation: %+v", ops[0])
	}
}

func TestResolveWriteBeatsRead(t *testing.T) {
	// "list" and "publishers" both appear, but creation must win.
	ops := testResolver().Resolve("create a list of my best publishers", nil)

	if ops[0].Method != "POST" || ops[0].Route != "/lists" {
		t.Errorf("creation lost to a read: %+v", ops[0])
	}
}

func TestResolveUpdateStatus(t *testing.T) {
	ops := testResolver().Resolve("update publisher 12345 status to invited", nil)

	if len(ops) != 1 {
		t.Fatalf("got %d operations, want 1", len(ops))
	}
	if ops[0].Route != "/publishers/{publisher_id}" || ops[0].Method != "PUT" {
		t.Errorf("unexpected operation: %+v", ops[0])
	}
}

func TestResolveSendMessage(t *testing.T) {
	ops := testResolver().Resolve("send a message to publisher 12345", nil)
	if len(ops) != 1 {
		t.Fatalf("got %d operations, want 1", len(ops))
	}
	if ops[0].Route != "/publishers/12345/messages" || ops[0].Method != "POST" {
		t.Errorf("unexpected operation: %+v", ops[0])
	}
	if ops[0].PublisherID != "12345" {
		t.Errorf("publisher ID not carried: %+v", ops[0])
	}

	// Without an ID the route keeps its placeholder so the payload
	// builder can try to fill it from state.
	ops = testResolver().Resolve("send a message to my top publisher", nil)
	if ops[0].Route != "/publishers/{publisher_id}/messages" {
		t.Errorf("expected placeholder route, got %q", ops[0].Route)
	}
}

func TestResolveTransferWithState(t *testing.T) {
	prev := &types.PreviousState{
		Lists:     []types.Entity{{ID: "77", Name: "Summer Hits"}},
		Campaigns: []types.Entity{{ID: "9", Name: "Fall Push"}},
	}

	ops := testResolver().Resolve(`add publishers from list "Summer Hits" to campaign "Fall Push"`, prev)

	if len(ops) != 2 {
		t.Fatalf("got %d operations, want 2: %+v", len(ops), ops)
	}
	if ops[0].Route != "/lists/77/publishers" || ops[0].Method != "GET" {
		t.Errorf("unexpected source operation: %+v", ops[0])
	}
	if ops[0].SourceID != "77" || ops[0].SourceKind != types.SourceKindList {
		t.Errorf("source provenance missing: %+v", ops[0])
	}
	if ops[1].Route != "/campaigns/9/publishers" || ops[1].Method != "POST" {
		t.Errorf("unexpected target operation: %+v", ops[1])
	}
	if ops[1].TargetID != "9" || ops[1].SourceID != "77" {
		t.Errorf("target provenance missing: %+v", ops[1])
	}
}

func TestResolveTransferWithoutState(t *testing.T) {
	ops := testResolver().Resolve(`add publishers from list "Summer Hits" to campaign "Fall Push"`, nil)

	// Unresolvable transfer degrades to fetching both container kinds.
	if len(ops) != 2 {
		t.Fatalf("got %d operations, want 2: %+v", len(ops), ops)
	}
	if ops[0].Route != "/lists" || ops[1].Route != "/campaigns" {
		t.Errorf("unexpected fallback operations: %+v", ops)
	}
	for _, op := range ops {
		if op.IsWrite() {
			t.Errorf("fallback must not write: %+v", op)
		}
	}
}

func TestResolveListDrillDown(t *testing.T) {
	prev := &types.PreviousState{
		Lists: []types.Entity{{ID: "42", Name: "VIP Creators"}},
	}

	ops := testResolver().Resolve(`show publishers in the "VIP Creators" list`, prev)

	if len(ops) != 2 {
		t.Fatalf("got %d operations, want 2: %+v", len(ops), ops)
	}
	if ops[0].Route != "/lists" {
		t.Errorf("unexpected first operation: %+v", ops[0])
	}
	if ops[1].Route != "/lists/42/publishers" || ops[1].Name != "Get Publishers in List" {
		t.Errorf("unexpected drill-down: %+v", ops[1])
	}
}

func TestResolveCampaignDrillDown(t *testing.T) {
	prev := &types.PreviousState{
		Campaigns: []types.Entity{{ID: "555", Name: "Ready Rocker Ambassador Program"}},
	}

	ops := testResolver().Resolve("how many publishers are in the ready rocker program", prev)

	if len(ops) != 2 {
		t.Fatalf("got %d operations, want 2: %+v", len(ops), ops)
	}
	if ops[1].Route != "/campaigns/555/publishers" {
		t.Errorf("unexpected drill-down: %+v", ops[1])
	}
}

func TestResolvePublishersFallback(t *testing.T) {
	ops := testResolver().Resolve("show me all publishers", nil)

	if len(ops) != 1 || ops[0].Route != "/publishers" {
		t.Errorf("unexpected operations: %+v", ops)
	}
}

func TestResolveDefault(t *testing.T) {
	ops := testResolver().Resolve("what can you do", nil)

	if len(ops) != 1 || ops[0].Route != "/campaigns" || ops[0].Name != "List Campaigns" {
		t.Errorf("unexpected default: %+v", ops)
	}
}
