package agent

import "testing"

func TestExtractMemory(t *testing.T) {
	cases := []struct {
		name       string
		query      string
		want       bool
		confidence float64
	}{
		{
			name:       "preference",
			query:      "I prefer seeing publisher counts next to every list.",
			want:       true,
			confidence: 0.7,
		},
		{
			name:       "strong directive",
			query:      "Always send messages from the team account.",
			want:       true,
			confidence: 0.9,
		},
		{
			name:       "two keywords",
			query:      "Our team policy is to invite publishers before messaging them.",
			want:       true,
			confidence: 0.8,
		},
		{
			name:  "situational",
			query: "Show me the campaigns",
			want:  false,
		},
		{
			name:  "excluded by temporal marker",
			query: "Just this once, always include inactive publishers.",
			want:  false,
		},
	}

	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			got := ExtractMemory(c.query)
			if (got != nil) != c.want {
				t.Fatalf("ExtractMemory(%q) = %+v, want present=%v", c.query, got, c.want)
			}
			if got != nil && got.Confidence != c.confidence {
				t.Errorf("confidence = %v, want %v", got.Confidence, c.confidence)
			}
		})
	}
}

func TestExtractMemoryFirstSentenceOnly(t *testing.T) {
	got := ExtractMemory("Remember that our default campaign is Ready Rocker. Then show me lists.")
	if got == nil {
		t.Fatal("expected a memory")
	}
	if got.Content != "Remember that our default campaign is Ready Rocker." {
		t.Errorf("content = %q", got.Content)
	}
}
