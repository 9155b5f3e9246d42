package agent

import (
	"strings"
)

// ExtractedMemory is a candidate long-lived fact pulled from a query.
type ExtractedMemory struct {
	Content    string
	Tags       []string
	Confidence float64
}

var memoryKeywords = []string{
	"prefer", "always", "never", "remember", "default",
	"system", "config", "project", "team", "policy", "workflow",
}

var memoryExcludeKeywords = []string{
	"today", "now", "currently", "temporary", "test", "just this once", "this time",
}

// ExtractMemory decides whether a query states something worth keeping
// across sessions. Returns nil when the text is situational.
func ExtractMemory(query string) *ExtractedMemory {
	q := strings.ToLower(query)

	for _, word := range memoryExcludeKeywords {
		if strings.Contains(q, word) {
			return nil
		}
	}

	var tags []string
	for _, word := range memoryKeywords {
		if strings.Contains(q, word) {
			tags = append(tags, word)
		}
	}
	if len(tags) == 0 {
		return nil
	}

	sentence := firstSentence(query)
	if len(sentence) > 200 {
		sentence = sentence[:200]
	}

	confidence := 0.7
	if len(tags) >= 2 {
		confidence = 0.8
	}
	if strings.Contains(q, "always") || strings.Contains(q, "never") {
		confidence = 0.9
	}
	return &ExtractedMemory{Content: sentence, Tags: tags, Confidence: confidence}
}

func firstSentence(text string) string {
	for _, sep := range []string{". ", "! ", "? ", "\n"} {
		if i := strings.Index(text, sep); i >= 0 {
			return strings.TrimSpace(text[:i+1])
		}
	}
	return strings.TrimSpace(text)
}
