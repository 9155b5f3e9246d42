package creatoriq

import "testing"

func TestMatchesName(t *testing.T) {
	cases := []struct {
		name, term string
		want       bool
	}{
		{"Summer Launch 2025", "summer", true},
		{"Summer Launch 2025", "SUMMER LAUNCH", true},
		{"Ready Rocker Official", "ready rocker", true},
		{"Ambassador Program Q3", "ready rocker", true},
		{"Winter Sale", "ready rocker", false},
		// Word overlap: 2 of 3 significant words is enough.
		{"Summer Launch 2025", "summer fitness launch", true},
		{"Summer Launch 2025", "winter fitness push", false},
		// Single unmatched word never matches by overlap.
		{"Summer Launch 2025", "fitness", false},
		{"anything", "", true},
	}
	for _, c := range cases {
		if got := MatchesName(c.name, c.term); got != c.want {
			t.Errorf("MatchesName(%q, %q) = %v, want %v", c.name, c.term, got, c.want)
		}
	}
}

func TestFilterItems(t *testing.T) {
	items := []any{
		map[string]any{"Id": float64(1), "PublisherName": "Jane Doe"},
		map[string]any{"Id": float64(2), "PublisherName": "John Smith"},
		"not an object",
	}

	got := filterItems(items, "publisher", "jane")
	if len(got) != 1 {
		t.Fatalf("got %d items, want 1", len(got))
	}
	m := got[0].(map[string]any)
	if m["PublisherName"] != "Jane Doe" {
		t.Errorf("wrong item kept: %v", m)
	}
}

func TestNormalizeData(t *testing.T) {
	data := map[string]any{
		"page":        float64(1),
		"total_pages": float64(1),
		"ListsCollection": []any{
			map[string]any{"List": map[string]any{"Id": float64(7), "Name": "VIPs"}},
			map[string]any{"Id": float64(8), "Name": "Already flat"},
		},
	}

	normalizeData(data)
	items := data["ListsCollection"].([]any)
	first := items[0].(map[string]any)
	if first["Name"] != "VIPs" {
		t.Errorf("envelope not unwrapped: %v", first)
	}
	second := items[1].(map[string]any)
	if second["Name"] != "Already flat" {
		t.Errorf("flat item mangled: %v", second)
	}

	// Direct objects unwrap too.
	direct := map[string]any{"List": map[string]any{"Id": float64(9), "Name": "Created"}}
	normalizeData(direct)
	if direct["List"].(map[string]any)["Name"] != "Created" {
		t.Errorf("direct object mangled: %v", direct)
	}
}
