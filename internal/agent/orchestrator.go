package agent

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"golang.org/x/sync/errgroup"

	"github.com/user/creatordesk/internal/creatoriq"
	"github.com/user/creatordesk/internal/intent"
	"github.com/user/creatordesk/internal/payload"
	"github.com/user/creatordesk/internal/sources"
	"github.com/user/creatordesk/internal/tools"
	"github.com/user/creatordesk/internal/types"
	"github.com/user/creatordesk/pkg/llm"
)

// Options tunes per-run defaults.
type Options struct {
	MaxIterations  int
	ReasoningLevel string
}

// Orchestrator runs one agent request end to end: state recall, intent
// resolution, parallel source fan-out, the CRM fetch, answering, and
// state persistence.
type Orchestrator struct {
	resolver   *intent.Resolver
	aggregator *creatoriq.Aggregator
	ctxBuilder *ContextBuilder
	provider   llm.Provider
	store      types.StateStore
	sources    []sources.Source
	logger     *slog.Logger
	opts       Options
}

func NewOrchestrator(
	resolver *intent.Resolver,
	aggregator *creatoriq.Aggregator,
	ctxBuilder *ContextBuilder,
	provider llm.Provider,
	store types.StateStore,
	srcs []sources.Source,
	logger *slog.Logger,
	opts Options,
) *Orchestrator {
	if opts.MaxIterations <= 0 {
		opts.MaxIterations = DefaultMaxIterations
	}
	if opts.ReasoningLevel == "" {
		opts.ReasoningLevel = "medium"
	}
	return &Orchestrator{
		resolver:   resolver,
		aggregator: aggregator,
		ctxBuilder: ctxBuilder,
		provider:   provider,
		store:      store,
		sources:    srcs,
		logger:     logger.With("component", "orchestrator"),
		opts:       opts,
	}
}

// Run handles one request. It always produces a response; partial
// failures surface inside it rather than as errors.
func (o *Orchestrator) Run(ctx context.Context, req *types.AgentRequest) (*types.AgentResponse, error) {
	if req.Query == "" {
		return nil, fmt.Errorf("query is required")
	}
	if req.ReasoningLevel == "" {
		req.ReasoningLevel = o.opts.ReasoningLevel
	}

	prev, notice := o.recallState(ctx, req)

	params := payload.BuildParams(req.Query, prev, req.CreatorIQParams)
	ops := o.resolver.Resolve(req.Query, prev)

	var crmResults []types.EndpointResult
	var sourceResults []types.AgentResult

	group, groupCtx := errgroup.WithContext(ctx)
	group.Go(func() error {
		crmResults = o.aggregator.Execute(groupCtx, ops, req.Query, params, prev)
		return nil
	})

	collected := make(chan types.AgentResult, len(o.sources))
	for _, src := range o.sources {
		if !src.Enabled(req) {
			continue
		}
		group.Go(func() error {
			collected <- src.Fetch(groupCtx, req)
			return nil
		})
	}
	// Fetchers never return errors; Wait is just the join point.
	_ = group.Wait()
	close(collected)
	for result := range collected {
		sourceResults = append(sourceResults, result)
	}

	// Recalled memory can stand in for missing previous state.
	if prev == nil {
		prev = recalledState(sourceResults)
	}

	o.recordOperations(crmResults)

	contextBlock := o.ctxBuilder.Build(ContextInput{
		Previous:   prev,
		Operations: o.store.RecentOperations(),
		Notice:     notice,
		SourceData: sourceResults,
		CRMResults: crmResults,
	})

	ws := tools.NewWorkspace(crmResults)
	answer, reasoning, steps, toolsUsed := o.answer(ctx, req, contextBlock, ws)

	response := &types.AgentResponse{
		Answer:     answer,
		Reasoning:  reasoning,
		StepsTaken: steps,
		ToolsUsed:  toolsUsed,
		Sources:    o.describeSources(sourceResults, crmResults),
		SourceData: catalogData(sourceResults),
	}

	if memory := ExtractMemory(req.Query); memory != nil {
		o.logger.Info("memory candidate extracted",
			"content", memory.Content, "confidence", memory.Confidence)
	}

	response.StateKey = o.persistState(ctx, req, ws.Results())
	return response, nil
}

// recallState resolves previous state: explicit beats keyed lookup.
// The returned notice is non-empty when serving degraded data.
func (o *Orchestrator) recallState(ctx context.Context, req *types.AgentRequest) (*types.PreviousState, string) {
	if req.PreviousState != nil {
		return req.PreviousState, ""
	}
	if req.StateKey == "" {
		return nil, ""
	}
	hit, err := o.store.Get(ctx, req.UserID, req.StateKey)
	if err != nil || hit == nil {
		return nil, ""
	}
	return hit.State, hit.Notice
}

func recalledState(results []types.AgentResult) *types.PreviousState {
	for _, result := range results {
		if result.Source != types.SourceMemory || result.Error != "" {
			continue
		}
		if state, ok := result.Results.(*types.PreviousState); ok {
			return state
		}
	}
	return nil
}

func (o *Orchestrator) recordOperations(results []types.EndpointResult) {
	var ops []types.OperationResult
	for _, result := range results {
		if result.Operation != nil {
			ops = append(ops, *result.Operation)
		}
	}
	if len(ops) > 0 {
		o.store.AppendOperations(ops...)
	}
}

// answer runs the iterative loop when requested, otherwise a single
// synthesis call. Task mode implies the loop.
func (o *Orchestrator) answer(ctx context.Context, req *types.AgentRequest, contextBlock string, ws *tools.Workspace) (string, string, []types.Step, []string) {
	if !req.AllowIterations && !req.TaskMode {
		answer, err := NewSynthesizer(o.provider).Synthesize(ctx, req, contextBlock)
		if err != nil {
			o.logger.Error("synthesis failed", "error", err)
			return "I could not produce an answer: " + err.Error(), "", nil, nil
		}
		return answer, "", nil, nil
	}

	registry := o.buildRegistry(req, ws)
	loop := NewLoop(o.provider, registry, o.ctxBuilder, o.logger, o.opts.MaxIterations)
	result := loop.Run(ctx, req, contextBlock, ws)
	return result.Answer, result.Reasoning, result.Steps, result.ToolsUsed
}

// buildRegistry wires the tool set for this run's workspace, honoring
// the request's tool allowlist when present.
func (o *Orchestrator) buildRegistry(req *types.AgentRequest, ws *tools.Workspace) *tools.Registry {
	registry := tools.NewRegistry()
	available := []tools.Tool{
		tools.NewFetchMoreTool(o.aggregator, ws),
		tools.NewSearchCatalogTool(o.aggregator, ws),
		tools.NewCreateListTool(o.aggregator, ws),
		tools.NewAnalyzeDataTool(ws),
	}

	allowed := map[string]bool{}
	for _, name := range req.Tools {
		allowed[name] = true
	}
	for _, tool := range available {
		if len(allowed) == 0 || allowed[tool.Name()] {
			registry.Register(tool)
		}
	}
	return registry
}

func (o *Orchestrator) describeSources(sourceResults []types.AgentResult, crmResults []types.EndpointResult) []types.AgentResult {
	out := append([]types.AgentResult(nil), sourceResults...)

	succeeded := 0
	var failures []string
	for _, result := range crmResults {
		if result.Error == "" {
			succeeded++
		} else {
			failures = append(failures, fmt.Sprintf("%s: %s", result.Endpoint, result.Error))
		}
	}
	crm := types.AgentResult{
		Source:  types.SourceCRMCatalog,
		Details: fmt.Sprintf("%d of %d operations succeeded", succeeded, len(crmResults)),
	}
	if len(failures) > 0 {
		crm.Error = strings.Join(failures, "; ")
	}
	return append(out, crm)
}

func catalogData(results []types.AgentResult) *types.SourceData {
	for _, result := range results {
		if result.Source != types.SourceRepoMap || result.Error != "" {
			continue
		}
		if hits, ok := result.Results.(sources.CatalogHits); ok {
			return &types.SourceData{
				ReposMentioned:     hits.Repos,
				TablesMentioned:    hits.Tables,
				FunctionsMentioned: hits.Functions,
			}
		}
	}
	return nil
}

// persistState extracts the run's entity view and stores it under the
// request's key, or a new key for fresh conversations.
func (o *Orchestrator) persistState(ctx context.Context, req *types.AgentRequest, results []types.EndpointResult) types.StateKey {
	state := creatoriq.ExtractEntities(results)
	if state.Empty() {
		return req.StateKey
	}

	key := req.StateKey
	if key == "" {
		key = types.NewStateKey(req.UserID, req.Query)
	}

	complete := true
	for _, result := range results {
		if result.NotFullySearched {
			complete = false
			break
		}
	}

	if err := o.store.Set(ctx, req.UserID, key, state, queryContext(state), complete); err != nil {
		o.logger.Warn("state persistence failed", "key", key, "error", err)
	}
	return key
}

// queryContext is the compact searchable summary stored beside the
// state, used by find-by-query recall.
func queryContext(state *types.PreviousState) string {
	var sb strings.Builder
	if len(state.Campaigns) > 0 {
		fmt.Fprintf(&sb, "campaigns:%d,", len(state.Campaigns))
	}
	if len(state.Publishers) > 0 {
		fmt.Fprintf(&sb, "publishers:%d,", len(state.Publishers))
	}
	if len(state.Lists) > 0 {
		fmt.Fprintf(&sb, "lists:%d,", len(state.Lists))
	}
	for i, c := range state.Campaigns {
		if i >= 3 {
			break
		}
		sb.WriteString(strings.ToLower(c.Name) + ",")
	}
	for i, l := range state.Lists {
		if i >= 3 {
			break
		}
		sb.WriteString(strings.ToLower(l.Name) + ",")
	}
	return sb.String()
}
