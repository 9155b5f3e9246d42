// Package payload turns resolved operations into concrete request
// bodies and query strings. All slot filling that needs state (the
// publisher ID ladder, transfer membership) lives here; the intent
// resolver only names the operation.
package payload

import (
	"log/slog"
	"net/url"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/user/creatordesk/internal/intent"
	"github.com/user/creatordesk/internal/types"
)

const publisherIDPlaceholder = "{publisher_id}"

// BuiltCall is one fully materialized CRM request.
type BuiltCall struct {
	Route  string
	Method string
	Body   map[string]any
	Query  url.Values

	// Unresolved is set when the route still carries the publisher ID
	// placeholder after the full resolution ladder. Such calls must not
	// be issued.
	Unresolved bool
}

type Builder struct {
	logger *slog.Logger
	now    func() time.Time
}

func NewBuilder(logger *slog.Logger) *Builder {
	return &Builder{logger: logger.With("component", "payload"), now: time.Now}
}

var allowedStatuses = map[string]string{
	"active":   "Active",
	"inactive": "Inactive",
	"pending":  "Pending",
	"invited":  "Invited",
}

// Build materializes one operation into a request. Write bodies are
// derived from the query text, the parameter bag, and previous state;
// reads get pagination and filter query parameters.
func (b *Builder) Build(op types.Operation, query string, params map[string]any, prev *types.PreviousState) BuiltCall {
	call := BuiltCall{Route: op.Route, Method: op.Method, Query: url.Values{}}

	if strings.Contains(call.Route, publisherIDPlaceholder) {
		if id := b.resolvePublisherID(op, params, prev); id != "" {
			call.Route = strings.ReplaceAll(call.Route, publisherIDPlaceholder, id)
		} else {
			call.Unresolved = true
			return call
		}
	}

	if !op.IsWrite() {
		b.buildReadQuery(&call, op, params)
		return call
	}

	switch op.Name {
	case "Create List":
		name := intent.ExtractListName(query)
		if name == "" {
			if fromParams, ok := params["list_name"].(string); ok && fromParams != "" {
				name = fromParams
			} else {
				name = intent.DefaultListName(b.now())
			}
		}
		call.Body = map[string]any{"Name": name, "Description": ""}

	case "Add Publishers To List":
		call.Body = map[string]any{"PublisherId": b.transferPublisherIDs(op, params, prev)}

	case "Add Publishers To Campaign":
		ids := b.transferPublisherIDs(op, params, prev)
		body := map[string]any{"status": "Invited"}
		if len(ids) > 0 {
			// Campaign membership is added one publisher at a time.
			body["publisherId"] = ids[0]
		}
		call.Body = body

	case "Update Publisher Status":
		status, ok := allowedStatuses[intent.ExtractStatus(query)]
		if !ok {
			status = "Active"
		}
		call.Body = map[string]any{"Status": status}

	case "Send Message to Publisher":
		content := intent.ExtractMessage(query)
		if content == "" {
			content = "Hello from Creator IQ!"
		}
		call.Body = map[string]any{
			"Subject": "Message from Creator IQ",
			"Content": content,
		}

	default:
		call.Body = map[string]any{}
	}
	return call
}

func (b *Builder) buildReadQuery(call *BuiltCall, op types.Operation, params map[string]any) {
	page := 1
	if p, ok := intFromParam(params["page"]); ok && p > 0 {
		page = p
	}
	call.Query.Set("page", strconv.Itoa(page))

	if limit, ok := intFromParam(params["limit"]); ok && limit > 0 {
		call.Query.Set("size", strconv.Itoa(limit))
	}
	if order, ok := params["order"].(string); ok && order != "" {
		call.Query.Set("order", order)
	}
	if fields, ok := params["fields"].(string); ok && fields != "" {
		call.Query.Set("fields", fields)
	}

	if filter := filterFor(call.Route, params); filter != "" {
		call.Query.Set("filter", filter)
	}
}

// filterFor builds the name filter for the route's collection. Each
// collection filters on a differently named field.
func filterFor(route string, params map[string]any) string {
	switch {
	case strings.HasPrefix(route, "/campaigns") && !strings.Contains(route, "/publishers"):
		if term, ok := params["campaign_search_term"].(string); ok && term != "" {
			return "CampaignName=" + term
		}
	case strings.Contains(route, "/publishers"):
		if term, ok := params["publisher_search_term"].(string); ok && term != "" {
			return "PublisherName=" + term
		}
	case strings.HasPrefix(route, "/lists"):
		if term, ok := params["list_search_term"].(string); ok && term != "" {
			return "Name=" + term
		}
	}
	return ""
}

var routePublisherID = regexp.MustCompile(`/publishers/(\d+)`)

// resolvePublisherID walks the resolution ladder: the operation itself,
// the parameter bag (array then scalar), the route, then previous state
// scoped to the operation's source collection. Invalid candidates are
// discarded with a warning rather than silently used.
func (b *Builder) resolvePublisherID(op types.Operation, params map[string]any, prev *types.PreviousState) string {
	if id, ok := validPublisherID(op.PublisherID); ok {
		return id
	}
	if op.PublisherID != "" {
		b.logger.Warn("discarding invalid publisher id", "candidate", op.PublisherID, "from", "operation")
	}

	if arr, ok := params["publisher_ids"].([]any); ok {
		for _, raw := range arr {
			if id, ok := publisherIDFromAny(raw); ok {
				return id
			}
			b.logger.Warn("discarding invalid publisher id", "candidate", raw, "from", "params")
		}
	}
	if raw, exists := params["publisher_id"]; exists {
		if id, ok := publisherIDFromAny(raw); ok {
			return id
		}
		b.logger.Warn("discarding invalid publisher id", "candidate", raw, "from", "params")
	}

	if m := routePublisherID.FindStringSubmatch(op.Route); m != nil {
		if id, ok := validPublisherID(m[1]); ok {
			return id
		}
	}

	if prev != nil {
		for _, p := range prev.Publishers {
			if op.SourceID != "" && !publisherInSource(p, op) {
				continue
			}
			if id, ok := validPublisherID(p.ID); ok {
				return id
			}
		}
	}
	return ""
}

func publisherInSource(p types.Entity, op types.Operation) bool {
	switch op.SourceKind {
	case types.SourceKindList:
		return p.ListID == op.SourceID
	case types.SourceKindCampaign:
		return p.CampaignID == op.SourceID
	default:
		return p.ListID == op.SourceID || p.CampaignID == op.SourceID
	}
}

// transferPublisherIDs collects the publishers to move: an explicit
// params array wins, otherwise every previous-state publisher belonging
// to the transfer's source collection.
func (b *Builder) transferPublisherIDs(op types.Operation, params map[string]any, prev *types.PreviousState) []int {
	var ids []int
	if arr, ok := params["publisher_ids"].([]any); ok {
		for _, raw := range arr {
			if id, ok := publisherIDFromAny(raw); ok {
				n, _ := strconv.Atoi(id)
				ids = append(ids, n)
			} else {
				b.logger.Warn("discarding invalid publisher id", "candidate", raw, "from", "params")
			}
		}
		if len(ids) > 0 {
			return ids
		}
	}

	if prev != nil {
		for _, p := range prev.Publishers {
			if !publisherInSource(p, op) {
				continue
			}
			if id, ok := validPublisherID(p.ID); ok {
				n, _ := strconv.Atoi(id)
				ids = append(ids, n)
			}
		}
	}
	return ids
}

func validPublisherID(s string) (string, bool) {
	n, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil || n <= 0 {
		return "", false
	}
	return strconv.Itoa(n), true
}

func publisherIDFromAny(raw any) (string, bool) {
	switch v := raw.(type) {
	case string:
		return validPublisherID(v)
	case float64:
		if v != float64(int(v)) {
			return "", false
		}
		return validPublisherID(strconv.Itoa(int(v)))
	case int:
		return validPublisherID(strconv.Itoa(v))
	default:
		return "", false
	}
}

func intFromParam(raw any) (int, bool) {
	switch v := raw.(type) {
	case int:
		return v, true
	case float64:
		return int(v), true
	case string:
		n, err := strconv.Atoi(v)
		if err != nil {
			return 0, false
		}
		return n, true
	default:
		return 0, false
	}
}
