package agent

import (
	"context"
	"fmt"
	"log/slog"
	"regexp"
	"strings"

	"github.com/user/creatordesk/internal/tools"
	"github.com/user/creatordesk/internal/types"
	"github.com/user/creatordesk/pkg/llm"
)

// DefaultMaxIterations bounds the tool-calling loop.
const DefaultMaxIterations = 5

// Loop is the iterative tool-calling state machine: the model sees the
// context, may call tools, the results feed back in, until it answers
// in plain text or hits the iteration cap.
type Loop struct {
	provider      llm.Provider
	registry      *tools.Registry
	builder       *ContextBuilder
	logger        *slog.Logger
	maxIterations int
}

func NewLoop(provider llm.Provider, registry *tools.Registry, builder *ContextBuilder, logger *slog.Logger, maxIterations int) *Loop {
	if maxIterations <= 0 {
		maxIterations = DefaultMaxIterations
	}
	return &Loop{
		provider:      provider,
		registry:      registry,
		builder:       builder,
		logger:        logger.With("component", "loop"),
		maxIterations: maxIterations,
	}
}

// LoopResult is the loop's outcome: an answer always, plus the steps
// that produced it.
type LoopResult struct {
	Answer    string
	Reasoning string
	Steps     []types.Step
	ToolsUsed []string
}

var reasoningPattern = regexp.MustCompile(`(?s)REASONING:(.*?)(?:ANSWER:|$)`)
var answerPattern = regexp.MustCompile(`(?s)ANSWER:(.*)$`)

// Run executes the loop. It never returns an error: provider failures
// and the iteration cap both produce a degraded answer carrying the
// steps taken so far.
func (l *Loop) Run(ctx context.Context, req *types.AgentRequest, contextBlock string, ws *tools.Workspace) *LoopResult {
	maxIterations := l.maxIterations
	if req.MaxIterations > 0 && req.MaxIterations < maxIterations {
		maxIterations = req.MaxIterations
	}

	messages := []llm.Message{llm.System(l.systemPrompt(req.ReasoningLevel))}
	for _, turn := range req.ConversationHistory {
		messages = append(messages, llm.Message{Role: turn.Role, Content: turn.Content})
	}
	messages = append(messages, llm.User(
		fmt.Sprintf("Task: %s\n\nInitial Context:\n%s", req.Query, contextBlock)))

	result := &LoopResult{}
	seenTools := map[string]bool{}

	for iteration := 1; iteration <= maxIterations; iteration++ {
		resp, err := l.provider.Complete(ctx, messages, l.registry.AsLLMTools())
		if err != nil {
			l.logger.Error("model call failed", "iteration", iteration, "error", err)
			result.Answer = "I ran into an error while working on this: " + err.Error()
			return result
		}

		if len(resp.ToolCalls) == 0 {
			result.Answer, result.Reasoning = splitAnswer(resp.Content)
			return result
		}

		messages = append(messages, llm.Assistant(resp.Content, resp.ToolCalls))
		workspaceBefore := len(ws.Results())

		for _, call := range resp.ToolCalls {
			output := l.executeCall(ctx, call)
			messages = append(messages, llm.ToolResult(call.ID, output))

			if !seenTools[call.Function.Name] {
				seenTools[call.Function.Name] = true
				result.ToolsUsed = append(result.ToolsUsed, call.Function.Name)
			}
			result.Steps = append(result.Steps, types.Step{
				Step:   len(result.Steps) + 1,
				Action: fmt.Sprintf("%s(%s)", call.Function.Name, compactArgs(call.Function.Arguments)),
				Result: truncateForStep(output),
			})
		}

		// Tools changed the dataset; show the model the refreshed view.
		if len(ws.Results()) > workspaceBefore {
			refreshed := l.builder.Build(ContextInput{CRMResults: ws.Results(), ItemsPerSet: 3})
			messages = append(messages, llm.User("Updated context after tool calls:\n"+refreshed))
		}
	}

	l.logger.Warn("iteration cap reached", "max_iterations", maxIterations)
	result.Answer = fmt.Sprintf(
		"I reached the maximum number of iterations (%d) before finishing. Here is what I gathered:\n\n%s",
		maxIterations, l.builder.Build(ContextInput{CRMResults: ws.Results(), ItemsPerSet: 3}))
	return result
}

func (l *Loop) executeCall(ctx context.Context, call llm.ToolCall) string {
	tool, ok := l.registry.Get(call.Function.Name)
	if !ok {
		return fmt.Sprintf(`{"success":false,"error":"unknown tool %s"}`, call.Function.Name)
	}
	l.logger.Debug("executing tool", "tool", call.Function.Name)

	output, err := tool.Execute(ctx, call.Function.Arguments)
	if err != nil {
		return fmt.Sprintf(`{"success":false,"error":%q}`, err.Error())
	}
	return output
}

func (l *Loop) systemPrompt(reasoningLevel string) string {
	var sb strings.Builder
	sb.WriteString("You are a CRM assistant for Creator IQ, working with campaigns, publishers, and lists.\n")
	sb.WriteString("Data from the CRM is paginated. When a result says total_pages is greater than 1, ")
	sb.WriteString("or a search is marked incomplete, use fetch_more_data or search_catalog before ")
	sb.WriteString("claiming something does not exist.\n")
	sb.WriteString("Available tools: " + strings.Join(l.registry.Names(), ", ") + ".\n")

	switch reasoningLevel {
	case "high":
		sb.WriteString("Work step by step. Before answering, verify your claims against the data. ")
		sb.WriteString("Format your final reply as REASONING: your reasoning, then ANSWER: the answer.")
	case "low":
		sb.WriteString("Answer directly and briefly. Only call tools when the context clearly lacks the answer.")
	default:
		sb.WriteString("Use tools when the context is insufficient. ")
		sb.WriteString("You may format your final reply as REASONING: ... ANSWER: ... if reasoning helps.")
	}
	return sb.String()
}

// splitAnswer separates a REASONING:/ANSWER: formatted reply. Replies
// without the markers come back whole.
func splitAnswer(content string) (answer, reasoning string) {
	if m := reasoningPattern.FindStringSubmatch(content); m != nil {
		reasoning = strings.TrimSpace(m[1])
	}
	if m := answerPattern.FindStringSubmatch(content); m != nil {
		return strings.TrimSpace(m[1]), reasoning
	}
	if reasoning != "" {
		// REASONING present but no ANSWER marker; the whole text is the answer.
		return strings.TrimSpace(content), reasoning
	}
	return strings.TrimSpace(content), ""
}

func compactArgs(args []byte) string {
	s := string(args)
	if len(s) > 120 {
		s = s[:120] + "..."
	}
	return s
}

func truncateForStep(s string) string {
	if len(s) > 300 {
		return s[:300] + "..."
	}
	return s
}
