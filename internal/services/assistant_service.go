package services

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"kolboard/internal/models"
	"kolboard/internal/pipeline"
	"kolboard/internal/utils"
)

var ErrNotConversationOwner = errors.New("user does not own this conversation")

// maxToolRounds bounds the tool-call loop per user message.
const maxToolRounds = 3

type AssistantStore interface {
	CreateConversation(c *models.Conversation) error
	GetConversation(id int) (*models.Conversation, error)
	ListConversations(userID int) ([]*models.Conversation, error)
	InsertMessage(m *models.AssistantMessage) error
	ListMessages(conversationID, limit, offset int) ([]*models.AssistantMessage, error)
	InsertAction(a *models.AgentAction) error
	ListActions(conversationID int) ([]*models.AgentAction, error)
}

// Completer is the chat backend seam (utils.LLMClient in production).
type Completer interface {
	Complete(messages []ChatMessage, tools []ToolDef) (*ChatMessage, error)
}

// Aliases keep service signatures free of the utils package name.
type (
	ChatMessage = utils.ChatMessage
	ToolDef     = utils.ToolDef
)

// AskResult is what the chat endpoint returns: the reply plus the tool
// calls executed while producing it.
type AskResult struct {
	ConversationID int                   `json:"conversation_id"`
	Reply          string                `json:"reply"`
	Actions        []*models.AgentAction `json:"actions,omitempty"`
}

// AssistantService is a thin passthrough to the completion backend: it
// declares domain tools, executes whichever ones the model calls against
// the repositories, and logs each call as an AgentAction.
type AssistantService struct {
	Repo          AssistantStore
	LLM           Completer
	Opportunities OpportunityStore
}

func NewAssistantService(repo AssistantStore, llm Completer, opportunities OpportunityStore) *AssistantService {
	return &AssistantService{Repo: repo, LLM: llm, Opportunities: opportunities}
}

const systemPrompt = "You are the assistant inside a KOL relationship management tool. " +
	"Use the provided tools to answer questions about the pipeline. " +
	"Answer briefly and concretely; cite record names, not ids."

func (s *AssistantService) Ask(userID, conversationID int, text string) (*AskResult, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil, errors.New("message text is required")
	}

	conv, err := s.conversationFor(userID, conversationID, text)
	if err != nil {
		return nil, err
	}

	userMsg := &models.AssistantMessage{
		ConversationID: conv.ID,
		Role:           "user",
		Text:           text,
		CreatedAt:      time.Now(),
	}
	if err := s.Repo.InsertMessage(userMsg); err != nil {
		return nil, err
	}

	messages, err := s.transcript(conv.ID)
	if err != nil {
		return nil, err
	}

	var actions []*models.AgentAction
	reply := ""
	for round := 0; round < maxToolRounds; round++ {
		resp, err := s.LLM.Complete(messages, toolDefs())
		if err != nil {
			return nil, err
		}
		if len(resp.ToolCalls) == 0 {
			reply = resp.Content
			break
		}
		messages = append(messages, *resp)
		for _, call := range resp.ToolCalls {
			result := s.executeTool(call.Function.Name, json.RawMessage(call.Function.Arguments))
			action := &models.AgentAction{
				ConversationID: conv.ID,
				Tool:           call.Function.Name,
				Arguments:      json.RawMessage(call.Function.Arguments),
				Result:         result,
				CreatedAt:      time.Now(),
			}
			if err := s.Repo.InsertAction(action); err != nil {
				return nil, err
			}
			actions = append(actions, action)
			messages = append(messages, ChatMessage{
				Role:       "tool",
				ToolCallID: call.ID,
				Content:    string(result),
			})
		}
	}
	if reply == "" {
		reply = "I could not finish answering within the tool budget; try narrowing the question."
	}

	assistantMsg := &models.AssistantMessage{
		ConversationID: conv.ID,
		Role:           "assistant",
		Text:           reply,
		CreatedAt:      time.Now(),
	}
	if err := s.Repo.InsertMessage(assistantMsg); err != nil {
		return nil, err
	}

	return &AskResult{ConversationID: conv.ID, Reply: reply, Actions: actions}, nil
}

func (s *AssistantService) Conversations(userID int) ([]*models.Conversation, error) {
	return s.Repo.ListConversations(userID)
}

func (s *AssistantService) Messages(userID, conversationID, limit, offset int) ([]*models.AssistantMessage, error) {
	if _, err := s.ownedConversation(userID, conversationID); err != nil {
		return nil, err
	}
	return s.Repo.ListMessages(conversationID, limit, offset)
}

func (s *AssistantService) Actions(userID, conversationID int) ([]*models.AgentAction, error) {
	if _, err := s.ownedConversation(userID, conversationID); err != nil {
		return nil, err
	}
	return s.Repo.ListActions(conversationID)
}

func (s *AssistantService) conversationFor(userID, conversationID int, firstText string) (*models.Conversation, error) {
	if conversationID == 0 {
		title := firstText
		if len(title) > 60 {
			title = title[:60]
		}
		conv := &models.Conversation{UserID: userID, Title: title, CreatedAt: time.Now()}
		if err := s.Repo.CreateConversation(conv); err != nil {
			return nil, err
		}
		return conv, nil
	}
	return s.ownedConversation(userID, conversationID)
}

func (s *AssistantService) ownedConversation(userID, conversationID int) (*models.Conversation, error) {
	conv, err := s.Repo.GetConversation(conversationID)
	if err != nil || conv == nil {
		return nil, ErrNotConversationOwner
	}
	if conv.UserID != userID {
		return nil, ErrNotConversationOwner
	}
	return conv, nil
}

// transcript rebuilds the llm message list from the stored conversation,
// capped to the most recent turns.
func (s *AssistantService) transcript(conversationID int) ([]ChatMessage, error) {
	history, err := s.Repo.ListMessages(conversationID, 20, 0)
	if err != nil {
		return nil, err
	}
	messages := []ChatMessage{{Role: "system", Content: systemPrompt}}
	for _, m := range history {
		messages = append(messages, ChatMessage{Role: m.Role, Content: m.Text})
	}
	return messages, nil
}

func (s *AssistantService) executeTool(name string, args json.RawMessage) json.RawMessage {
	var result any
	var err error
	switch name {
	case "pipeline_summary":
		result, err = s.toolPipelineSummary()
	case "search_opportunities":
		result, err = s.toolSearchOpportunities(args)
	case "list_stages":
		result, err = s.toolListStages(args)
	default:
		err = fmt.Errorf("unknown tool: %s", name)
	}
	if err != nil {
		out, _ := json.Marshal(map[string]string{"error": err.Error()})
		return out
	}
	out, merr := json.Marshal(result)
	if merr != nil {
		out, _ = json.Marshal(map[string]string{"error": merr.Error()})
	}
	return out
}

func (s *AssistantService) toolPipelineSummary() (any, error) {
	return s.Opportunities.StageTotals()
}

func (s *AssistantService) toolSearchOpportunities(args json.RawMessage) (any, error) {
	var params struct {
		Query string `json:"query"`
		Stage string `json:"stage"`
		Limit int    `json:"limit"`
	}
	if err := json.Unmarshal(args, &params); err != nil {
		return nil, fmt.Errorf("bad arguments: %w", err)
	}
	if params.Limit <= 0 || params.Limit > 25 {
		params.Limit = 10
	}
	f := models.OpportunityFilter{}
	if params.Query != "" {
		f.Search = &params.Query
	}
	if params.Stage != "" {
		stage := pipeline.Stage(params.Stage)
		if !pipeline.Known(stage) {
			return nil, fmt.Errorf("%w: %s", ErrUnknownStage, stage)
		}
		f.Stage = &stage
	}
	return s.Opportunities.Filter(f, params.Limit, 0)
}

func (s *AssistantService) toolListStages(args json.RawMessage) (any, error) {
	var params struct {
		Category string `json:"category"`
	}
	if err := json.Unmarshal(args, &params); err != nil {
		return nil, fmt.Errorf("bad arguments: %w", err)
	}
	cat := pipeline.Category(params.Category)
	stages := pipeline.StagesFor(cat)
	if len(stages) == 0 {
		return nil, fmt.Errorf("unknown category: %s", params.Category)
	}
	return stages, nil
}

func toolDefs() []ToolDef {
	return []ToolDef{
		utils.NewToolDef("pipeline_summary",
			"Per-stage record counts and total deal value across the whole pipeline.",
			json.RawMessage(`{"type":"object","properties":{}}`)),
		utils.NewToolDef("search_opportunities",
			"Search opportunities by name, optionally restricted to one stage.",
			json.RawMessage(`{"type":"object","properties":{"query":{"type":"string"},"stage":{"type":"string"},"limit":{"type":"integer"}}}`)),
		utils.NewToolDef("list_stages",
			"Ordered stage list for a category (lead, deal, account, outreach).",
			json.RawMessage(`{"type":"object","properties":{"category":{"type":"string"}},"required":["category"]}`)),
	}
}
