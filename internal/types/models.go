package types

import (
	"strings"
	"time"
)

// Entity is one discovered CRM object: a campaign, list, or publisher.
// For publishers, at most one of CampaignID/ListID is set, naming the
// collection the publisher was discovered through.
type Entity struct {
	ID              string `json:"id"`
	Name            string `json:"name"`
	Status          string `json:"status,omitempty"`
	CampaignID      string `json:"campaign_id,omitempty"`
	ListID          string `json:"list_id,omitempty"`
	PublishersCount int    `json:"publishers_count,omitempty"`
}

// PreviousState is the cross-turn memory for one state key. Each
// successful pass writes a fresh PreviousState; states supersede, they
// are never merged.
type PreviousState struct {
	Campaigns        []Entity          `json:"campaigns"`
	Publishers       []Entity          `json:"publishers"`
	Lists            []Entity          `json:"lists"`
	OperationResults []OperationResult `json:"operation_results,omitempty"`
}

// Empty reports whether the state carries nothing worth persisting.
func (s *PreviousState) Empty() bool {
	if s == nil {
		return true
	}
	return len(s.Campaigns) == 0 && len(s.Publishers) == 0 &&
		len(s.Lists) == 0 && len(s.OperationResults) == 0
}

// FindList returns the ID of the first list whose name contains the
// given name, case-insensitively.
func (s *PreviousState) FindList(name string) string {
	return findEntity(s.listsOrNil(), name)
}

// FindCampaign is FindList for campaigns.
func (s *PreviousState) FindCampaign(name string) string {
	return findEntity(s.campaignsOrNil(), name)
}

func (s *PreviousState) listsOrNil() []Entity {
	if s == nil {
		return nil
	}
	return s.Lists
}

func (s *PreviousState) campaignsOrNil() []Entity {
	if s == nil {
		return nil
	}
	return s.Campaigns
}

func findEntity(entities []Entity, name string) string {
	if name == "" {
		return ""
	}
	needle := strings.ToLower(name)
	for _, e := range entities {
		if strings.Contains(strings.ToLower(e.Name), needle) {
			return e.ID
		}
	}
	return ""
}

// OperationResult records the outcome of one write operation. The
// operation log is append-only and capped to the 20 most recent entries.
type OperationResult struct {
	Successful bool      `json:"successful"`
	Type       string    `json:"type"`
	Details    string    `json:"details"`
	ID         string    `json:"id,omitempty"`
	Timestamp  time.Time `json:"timestamp"`
}

// SourceTag discriminates AgentResult values by origin.
type SourceTag string

const (
	SourceMemory       SourceTag = "memory"
	SourceFileStore    SourceTag = "file_store"
	SourceFileAnalysis SourceTag = "file_analysis"
	SourceWebSearch    SourceTag = "web_search"
	SourceMessaging    SourceTag = "messaging"
	SourceCRMCatalog   SourceTag = "crm_catalog"
	SourceRepoMap      SourceTag = "repo_map"
)

// AgentResult is the unit the context builder consumes: one source's
// results, or its failure. Per-source failures never abort the run.
type AgentResult struct {
	Source  SourceTag `json:"source"`
	Results any       `json:"results,omitempty"`
	Error   string    `json:"error,omitempty"`
	Details string    `json:"details,omitempty"`
}

// ChatTurn is one prior message in the conversation history.
type ChatTurn struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// AgentRequest is the orchestration request body.
type AgentRequest struct {
	Query               string         `json:"query"`
	ConversationHistory []ChatTurn     `json:"conversation_history,omitempty"`
	IncludeWeb          bool           `json:"include_web"`
	IncludeDocs         bool           `json:"include_docs"`
	IncludeMessages     bool           `json:"include_messages"`
	IncludeCatalog      bool           `json:"include_catalog"`
	ProviderToken       string         `json:"provider_token,omitempty"`
	CreatorIQParams     map[string]any `json:"creator_iq_params,omitempty"`
	StateKey            StateKey       `json:"state_key,omitempty"`
	PreviousState       *PreviousState `json:"previous_state,omitempty"`
	TaskMode            bool           `json:"task_mode"`
	Tools               []string       `json:"tools,omitempty"`
	AllowIterations     bool           `json:"allow_iterations"`
	MaxIterations       int            `json:"max_iterations,omitempty"`
	ReasoningLevel      string         `json:"reasoning_level,omitempty"`

	// UserID is resolved from the transport's auth header, not the body.
	UserID UserID `json:"-"`
}

// Step describes one iteration of the tool-calling loop for the caller.
type Step struct {
	Step   int    `json:"step"`
	Action string `json:"action"`
	Result string `json:"result"`
}

// SourceData carries catalog mentions extracted during the run.
type SourceData struct {
	ReposMentioned     []string `json:"repos_mentioned"`
	TablesMentioned    []string `json:"tables_mentioned"`
	FunctionsMentioned []string `json:"functions_mentioned"`
}

// AgentResponse is the orchestration response body.
type AgentResponse struct {
	Answer     string        `json:"answer"`
	Reasoning  string        `json:"reasoning,omitempty"`
	StepsTaken []Step        `json:"steps_taken,omitempty"`
	ToolsUsed  []string      `json:"tools_used"`
	Sources    []AgentResult `json:"sources"`
	SourceData *SourceData   `json:"source_data,omitempty"`
	StateKey   StateKey      `json:"state_key,omitempty"`
}
