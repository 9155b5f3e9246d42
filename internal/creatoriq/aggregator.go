package creatoriq

import (
	"context"
	"fmt"
	"log/slog"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/user/creatordesk/internal/payload"
	"github.com/user/creatordesk/internal/types"
)

// maxPagesPerFetch caps whole-dataset aggregation. Beyond it the result
// is flagged NotFullySearched instead of fetched further.
const maxPagesPerFetch = 10

// Aggregator executes resolved operations in order, sharing discovered
// state within the batch so a transfer's target operation can see the
// publishers its source operation just fetched.
type Aggregator struct {
	client  *Client
	builder *payload.Builder
	logger  *slog.Logger
	now     func() time.Time
}

func NewAggregator(client *Client, builder *payload.Builder, logger *slog.Logger) *Aggregator {
	return &Aggregator{
		client:  client,
		builder: builder,
		logger:  logger.With("component", "aggregator"),
		now:     time.Now,
	}
}

// Execute runs the operations sequentially and returns one result per
// operation. Failures are isolated: a failed operation yields a result
// carrying its error, never an aborted batch.
func (a *Aggregator) Execute(ctx context.Context, ops []types.Operation, query string, params map[string]any, prev *types.PreviousState) []types.EndpointResult {
	working := cloneState(prev)
	results := make([]types.EndpointResult, 0, len(ops))

	for _, op := range ops {
		result := a.executeOne(ctx, op, query, params, working)
		results = append(results, result)

		// Fold what this read discovered into the working state so the
		// next operation in the batch can resolve against it.
		if result.Error == "" && !op.IsWrite() {
			discovered := ExtractEntities([]types.EndpointResult{result})
			working.Campaigns = append(working.Campaigns, discovered.Campaigns...)
			working.Publishers = append(working.Publishers, discovered.Publishers...)
			working.Lists = append(working.Lists, discovered.Lists...)
		}
	}
	return results
}

func (a *Aggregator) executeOne(ctx context.Context, op types.Operation, query string, params map[string]any, working *types.PreviousState) types.EndpointResult {
	result := types.EndpointResult{
		Endpoint: op.Route, Method: op.Method, Name: op.Name,
		SourceID: op.SourceID, SourceKind: op.SourceKind,
	}

	call := a.builder.Build(op, query, params, working)
	result.Endpoint = call.Route

	if call.Unresolved {
		result.Error = "publisher could not be identified from the request or previous context"
		result.Operation = &types.OperationResult{
			Successful: false,
			Type:       op.Name,
			Details:    "No publisher ID could be resolved; the operation was not attempted",
			Timestamp:  a.now(),
		}
		a.logger.Warn("operation skipped, unresolved publisher id", "operation", op.Name)
		return result
	}

	if op.IsWrite() {
		a.executeWrite(ctx, &result, op, call)
		return result
	}
	a.executeRead(ctx, &result, call, params)
	return result
}

func (a *Aggregator) executeWrite(ctx context.Context, result *types.EndpointResult, op types.Operation, call payload.BuiltCall) {
	data, err := a.client.Do(ctx, call.Method, call.Route, call.Query, call.Body)
	if err != nil {
		result.Error = err.Error()
		result.Operation = &types.OperationResult{
			Successful: false, Type: op.Name, Details: err.Error(), Timestamp: a.now(),
		}
		a.logger.Error("write operation failed", "operation", op.Name, "error", err)
		return
	}

	result.Data = normalizeData(data)
	result.Operation = a.stampWrite(op, call, result.Data)
	a.logger.Info("write operation succeeded", "operation", op.Name, "details", result.Operation.Details)
}

// stampWrite builds the operation log entry for a successful write.
func (a *Aggregator) stampWrite(op types.Operation, call payload.BuiltCall, data map[string]any) *types.OperationResult {
	entry := &types.OperationResult{Successful: true, Type: op.Name, Timestamp: a.now()}

	switch op.Name {
	case "Create List":
		name, _ := call.Body["Name"].(string)
		if created, ok := data["List"].(map[string]any); ok {
			entry.ID = stringField(created, "Id")
		}
		entry.Details = fmt.Sprintf("Created list %q", name)
		if entry.ID != "" {
			entry.Details += " (id " + entry.ID + ")"
		}

	case "Add Publishers To List":
		ids, _ := call.Body["PublisherId"].([]int)
		entry.ID = op.TargetID
		entry.Details = fmt.Sprintf("Added %d publisher(s) %s to list %s", len(ids), joinInts(ids), op.TargetID)

	case "Add Publishers To Campaign":
		entry.ID = op.TargetID
		if id, ok := call.Body["publisherId"].(int); ok {
			entry.Details = fmt.Sprintf("Added publisher %d to campaign %s with status Invited", id, op.TargetID)
		} else {
			entry.Details = "Added publishers to campaign " + op.TargetID
		}

	case "Send Message to Publisher":
		publisherID := publisherIDFromRoute(call.Route)
		entry.ID = publisherID
		entry.Details = "Sent message to publisher " + publisherID
		if msg, ok := data["Message"].(map[string]any); ok {
			if mid := stringField(msg, "Id"); mid != "" {
				entry.Details += " (message " + mid + ")"
			}
		}

	case "Update Publisher Status":
		status, _ := call.Body["Status"].(string)
		publisherID := publisherIDFromRoute(call.Route)
		entry.ID = publisherID
		entry.Details = fmt.Sprintf("Updated publisher %s status to %s", publisherID, status)

	default:
		entry.Details = op.Name + " completed"
	}
	return entry
}

func (a *Aggregator) executeRead(ctx context.Context, result *types.EndpointResult, call payload.BuiltCall, params map[string]any) {
	data, err := a.client.Do(ctx, call.Method, call.Route, call.Query, nil)
	if err != nil {
		result.Error = err.Error()
		a.logger.Error("read operation failed", "endpoint", call.Route, "error", err)
		return
	}
	result.PagesFetched = 1

	key, kind := collectionKey(data)
	totalPages := intField(data, "total_pages")
	fetchAll, _ := params["fetch_all"].(bool)

	if fetchAll && key != "" && totalPages > 1 {
		items, _ := data[key].([]any)
		last := totalPages
		if last > maxPagesPerFetch {
			last = maxPagesPerFetch
			result.NotFullySearched = true
		}

		for page := 2; page <= last; page++ {
			call.Query.Set("page", strconv.Itoa(page))
			pageData, err := a.client.Do(ctx, call.Method, call.Route, call.Query, nil)
			if err != nil {
				// Keep what we have; the result is just incomplete.
				result.NotFullySearched = true
				a.logger.Warn("pagination stopped early", "endpoint", call.Route, "page", page, "error", err)
				break
			}
			result.PagesFetched++
			if more, ok := pageData[key].([]any); ok {
				items = append(items, more...)
			}
			if declared := intField(pageData, "total_pages"); declared > 0 && page >= declared {
				break
			}
		}

		data[key] = items
		data["page"] = float64(1)
		data["total_pages"] = float64(1)
	}

	normalizeData(data)

	if key != "" {
		if term := searchTermFor(kind, params); term != "" {
			items, _ := data[key].([]any)
			data[key] = filterItems(items, kind, term)
		}
	}

	if kind == "list" {
		if include, _ := params["include_publishers"].(bool); include {
			a.enrichListCounts(ctx, data, key)
		}
	}

	result.Data = data
}

// searchTermFor returns the local filter term for the collection kind.
// Local filtering runs even when the API was given a filter; the API's
// name matching is exact and misses partial or aliased names.
func searchTermFor(kind string, params map[string]any) string {
	var paramKey string
	switch kind {
	case "campaign":
		paramKey = "campaign_search_term"
	case "publisher":
		paramKey = "publisher_search_term"
	case "list":
		paramKey = "list_search_term"
	default:
		return ""
	}
	term, _ := params[paramKey].(string)
	return term
}

// enrichListCounts fills PublishersCount on each list via per-list
// sub-fetches. Best effort: failures are logged and the count left
// at zero.
func (a *Aggregator) enrichListCounts(ctx context.Context, data map[string]any, key string) {
	items, _ := data[key].([]any)
	for _, raw := range items {
		m, ok := raw.(map[string]any)
		if !ok {
			continue
		}
		if intField(m, "PublishersCount") > 0 {
			continue
		}
		id := stringField(m, "Id")
		if id == "" {
			continue
		}
		detail, err := a.client.Do(ctx, "GET", "/lists/"+id, nil, nil)
		if err != nil {
			a.logger.Warn("list enrichment failed", "list_id", id, "error", err)
			continue
		}
		inner := unwrapItem(detail)
		if publishers, ok := inner["Publishers"].([]any); ok {
			m["PublishersCount"] = float64(len(publishers))
		} else if count := intField(inner, "PublishersCount"); count > 0 {
			m["PublishersCount"] = float64(count)
		}
	}
}

func cloneState(prev *types.PreviousState) *types.PreviousState {
	clone := &types.PreviousState{}
	if prev != nil {
		clone.Campaigns = append(clone.Campaigns, prev.Campaigns...)
		clone.Publishers = append(clone.Publishers, prev.Publishers...)
		clone.Lists = append(clone.Lists, prev.Lists...)
		clone.OperationResults = append(clone.OperationResults, prev.OperationResults...)
	}
	return clone
}

var routePublisherIDPattern = regexp.MustCompile(`/publishers/(\d+)`)

func publisherIDFromRoute(route string) string {
	if m := routePublisherIDPattern.FindStringSubmatch(route); m != nil {
		return m[1]
	}
	return ""
}

func joinInts(ids []int) string {
	parts := make([]string, len(ids))
	for i, id := range ids {
		parts[i] = strconv.Itoa(id)
	}
	return "[" + strings.Join(parts, ", ") + "]"
}
