package intent

import (
	"testing"
	"time"
)

func TestExtractListName(t *testing.T) {
	cases := []struct {
		query string
		want  string
	}{
		{`create a list called "VIP Creators"`, "VIP Creators"},
		{`make a new list named 'Summer Stars'`, "Summer Stars"},
		{`add them to the "Holdouts" list`, "Holdouts"},
		{`create list Top Performers`, "Top Performers"},
		{`show me all campaigns`, ""},
	}
	for _, c := range cases {
		if got := ExtractListName(c.query); got != c.want {
			t.Errorf("ExtractListName(%q) = %q, want %q", c.query, got, c.want)
		}
	}
}

func TestDefaultListName(t *testing.T) {
	now := time.Date(2025, 3, 14, 9, 0, 0, 0, time.UTC)
	if got := DefaultListName(now); got != "New List 2025-03-14" {
		t.Errorf("DefaultListName = %q", got)
	}
}

func TestExtractNameAfterPhrase(t *testing.T) {
	cases := []struct {
		query, phrase, want string
	}{
		{`move publishers from list "Summer Hits" to campaign "Fall Push"`, "from list", "Summer Hits"},
		{`move publishers from list "Summer Hits" to campaign "Fall Push"`, "to campaign", "Fall Push"},
		{`copy publishers from list Summer Hits to list Winter Bench`, "from list", "Summer Hits"},
		{`copy publishers from list Summer Hits to list Winter Bench`, "to list", "Winter Bench"},
		{`show campaigns`, "from list", ""},
	}
	for _, c := range cases {
		if got := ExtractNameAfterPhrase(c.query, c.phrase); got != c.want {
			t.Errorf("ExtractNameAfterPhrase(%q, %q) = %q, want %q", c.query, c.phrase, got, c.want)
		}
	}
}

func TestExtractPublisherID(t *testing.T) {
	cases := []struct {
		query string
		want  string
	}{
		{"send a message to publisher 12345", "12345"},
		{"message publisher id 987654", "987654"},
		{"update publisher with id 42", "42"},
		{"message this publisher 5551234", "5551234"},
		{"ping 12345678 about the launch", "12345678"},
		{"send a message to my top creator", ""},
		{"message the 5 publishers in that list", ""},
	}
	for _, c := range cases {
		if got := ExtractPublisherID(c.query); got != c.want {
			t.Errorf("ExtractPublisherID(%q) = %q, want %q", c.query, got, c.want)
		}
	}
}

func TestExtractStatus(t *testing.T) {
	cases := []struct {
		query string
		want  string
	}{
		{"update publisher 12345 status to Invited", "invited"},
		{`set status to "active"`, "active"},
		{"update the status pending for them", "pending"},
		{"update publisher 12345", ""},
	}
	for _, c := range cases {
		if got := ExtractStatus(c.query); got != c.want {
			t.Errorf("ExtractStatus(%q) = %q, want %q", c.query, got, c.want)
		}
	}
}

func TestExtractMessage(t *testing.T) {
	cases := []struct {
		query string
		want  string
	}{
		{`send publisher 12345 a message saying "welcome aboard"`, "welcome aboard"},
		{`message publisher 12345 with message 'rates updated'`, "rates updated"},
		{`tell publisher 12345 "see the new brief"`, "see the new brief"},
		{"send publisher 12345 this\nmessage: launch moved to Friday", "launch moved to Friday"},
		{"send publisher 12345 a message", ""},
	}
	for _, c := range cases {
		if got := ExtractMessage(c.query); got != c.want {
			t.Errorf("ExtractMessage(%q) = %q, want %q", c.query, got, c.want)
		}
	}
}
