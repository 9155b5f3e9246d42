package intent

import (
	"regexp"
	"strings"
	"time"
)

// Extraction is regex-based slot filling over the raw query text. Each
// extractor applies its patterns in a fixed priority order: quoted
// phrases beat unquoted heuristics, which beat defaults.

var listNamePatterns = []*regexp.Regexp{
	// "list called 'X'" / "list named 'X'"
	regexp.MustCompile(`(?i)list\s+(?:called|named|titled)?\s*["']([^"']+)["']`),
	// "'X' list"
	regexp.MustCompile(`(?i)["']([^"']+)["']\s+list`),
	// "create list Vip Creators" without quotes, capitalized phrase
	regexp.MustCompile(`(?i:create|make)\s+(?i:a\s+)?(?i:new\s+)?(?i:list)\s+(?:(?i:called|named|titled)\s+)?([A-Z][a-zA-Z0-9]*(?:\s+[A-Z][a-zA-Z0-9]*)*)`),
}

// ExtractListName pulls a list name out of the query, or "" if none of
// the patterns match.
func ExtractListName(query string) string {
	for _, pattern := range listNamePatterns {
		if m := pattern.FindStringSubmatch(query); m != nil {
			return strings.TrimSpace(m[1])
		}
	}
	return ""
}

// DefaultListName is the timestamped fallback used when no name could
// be extracted from a creation request.
func DefaultListName(now time.Time) string {
	return "New List " + now.Format("2006-01-02")
}

var campaignNamePatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?i)campaign\s+(?:called|named|titled)?\s*["']([^"']+)["']`),
	regexp.MustCompile(`(?i)["']([^"']+)["']\s+campaign`),
}

// ExtractCampaignName pulls a campaign name out of the query.
func ExtractCampaignName(query string) string {
	for _, pattern := range campaignNamePatterns {
		if m := pattern.FindStringSubmatch(query); m != nil {
			return strings.TrimSpace(m[1])
		}
	}
	return ""
}

var (
	quotedName      = regexp.MustCompile(`["']([^"']+)["']`)
	capitalizedName = regexp.MustCompile(`\b([A-Z][a-zA-Z0-9-]*(?:\s+[A-Z][a-zA-Z0-9-]*)*)`)
)

// ExtractNameAfterPhrase returns the entity name following phrase in
// the query ("from list", "to campaign", ...), preferring a quoted name
// over a capitalized run of words. Returns "" when the phrase is absent
// or no name follows it.
func ExtractNameAfterPhrase(query, phrase string) string {
	idx := strings.Index(strings.ToLower(query), strings.ToLower(phrase))
	if idx < 0 {
		return ""
	}
	after := strings.TrimSpace(query[idx+len(phrase):])
	if m := quotedName.FindStringSubmatch(after); m != nil {
		return strings.TrimSpace(m[1])
	}
	if m := capitalizedName.FindStringSubmatch(after); m != nil {
		return strings.TrimSpace(m[1])
	}
	return ""
}

var publisherIDPatterns = []*regexp.Regexp{
	// "publisher 12345", "publisher id 12345", "publisher with id 12345"
	regexp.MustCompile(`(?i)publisher\s+(?:with\s+)?(?:id\s+)?(\d+)`),
	// "send message to publisher 12345"
	regexp.MustCompile(`(?i)(?:send|message)(?:\s+to)?\s+publisher\s+(?:id\s+)?(\d+)`),
	// "this publisher 12345"
	regexp.MustCompile(`(?i)this\s+publisher\s+(\d+)`),
	// bare 6-10 digit token that is likely a publisher ID
	regexp.MustCompile(`\b(\d{6,10})\b`),
}

// ExtractPublisherID returns the first publisher ID found in the query
// using the ordered pattern set, or "".
func ExtractPublisherID(query string) string {
	for _, pattern := range publisherIDPatterns {
		if m := pattern.FindStringSubmatch(query); m != nil {
			return m[1]
		}
	}
	return ""
}

var statusPattern = regexp.MustCompile(`(?i)status\s+(?:to\s+)?["']?([a-zA-Z]+)["']?`)

// ExtractStatus returns the lowercased status word from the query, or "".
// Validation against the allowed status set is the payload builder's job.
func ExtractStatus(query string) string {
	if m := statusPattern.FindStringSubmatch(query); m != nil {
		return strings.ToLower(strings.TrimSpace(m[1]))
	}
	return ""
}

var messagePatterns = []*regexp.Regexp{
	// "message saying 'hello world'"
	regexp.MustCompile(`(?i)message\s+(?:saying\s+|content\s+)?["']([^"']+)["']`),
	// "with message 'hello world'"
	regexp.MustCompile(`(?i)with\s+message\s+["']([^"']+?)["']`),
	// any quoted phrase of reasonable length
	regexp.MustCompile(`["']([^"']{3,100})["']`),
}

// ExtractMessage returns message body text from the query, checking the
// pattern set first and then a trailing "message: ..." line.
func ExtractMessage(query string) string {
	for _, pattern := range messagePatterns {
		if m := pattern.FindStringSubmatch(query); m != nil {
			return strings.TrimSpace(m[1])
		}
	}
	for _, line := range strings.Split(query, "\n") {
		if i := strings.Index(strings.ToLower(line), "message:"); i >= 0 {
			if body := strings.TrimSpace(line[i+len("message:"):]); body != "" {
				return body
			}
		}
	}
	return ""
}
