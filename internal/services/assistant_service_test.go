package services

import (
	"encoding/json"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"kolboard/internal/models"
	"kolboard/internal/pipeline"
	"kolboard/internal/utils"
)

type memAssistant struct {
	nextID        int
	conversations map[int]*models.Conversation
	messages      []*models.AssistantMessage
	actions       []*models.AgentAction
}

func newMemAssistant() *memAssistant {
	return &memAssistant{conversations: map[int]*models.Conversation{}}
}

func (m *memAssistant) CreateConversation(c *models.Conversation) error {
	m.nextID++
	c.ID = m.nextID
	cp := *c
	m.conversations[c.ID] = &cp
	return nil
}

func (m *memAssistant) GetConversation(id int) (*models.Conversation, error) {
	c, ok := m.conversations[id]
	if !ok {
		return nil, errors.New("no rows")
	}
	cp := *c
	return &cp, nil
}

func (m *memAssistant) ListConversations(userID int) ([]*models.Conversation, error) {
	var out []*models.Conversation
	for _, c := range m.conversations {
		if c.UserID == userID {
			cp := *c
			out = append(out, &cp)
		}
	}
	return out, nil
}

func (m *memAssistant) InsertMessage(msg *models.AssistantMessage) error {
	cp := *msg
	cp.ID = len(m.messages) + 1
	msg.ID = cp.ID
	m.messages = append(m.messages, &cp)
	return nil
}

func (m *memAssistant) ListMessages(conversationID, limit, offset int) ([]*models.AssistantMessage, error) {
	var out []*models.AssistantMessage
	for _, msg := range m.messages {
		if msg.ConversationID == conversationID {
			cp := *msg
			out = append(out, &cp)
		}
	}
	return out, nil
}

func (m *memAssistant) InsertAction(a *models.AgentAction) error {
	cp := *a
	cp.ID = len(m.actions) + 1
	a.ID = cp.ID
	m.actions = append(m.actions, &cp)
	return nil
}

func (m *memAssistant) ListActions(conversationID int) ([]*models.AgentAction, error) {
	var out []*models.AgentAction
	for _, a := range m.actions {
		if a.ConversationID == conversationID {
			cp := *a
			out = append(out, &cp)
		}
	}
	return out, nil
}

// scriptedCompleter replays canned responses in order.
type scriptedCompleter struct {
	responses []ChatMessage
	calls     int
}

func (c *scriptedCompleter) Complete(messages []ChatMessage, tools []ToolDef) (*ChatMessage, error) {
	if c.calls >= len(c.responses) {
		return nil, errors.New("no scripted response left")
	}
	resp := c.responses[c.calls]
	c.calls++
	return &resp, nil
}

func toolCallResponse(id, name, args string) ChatMessage {
	return ChatMessage{
		Role: "assistant",
		ToolCalls: []utils.ToolCall{{
			ID:   id,
			Type: "function",
			Function: utils.ToolCallFunction{
				Name:      name,
				Arguments: args,
			},
		}},
	}
}

func TestAskStartsConversationAndPersistsBothTurns(t *testing.T) {
	repo := newMemAssistant()
	llm := &scriptedCompleter{responses: []ChatMessage{
		{Role: "assistant", Content: "Four leads, two deals."},
	}}
	svc := NewAssistantService(repo, llm, newMemStore())

	res, err := svc.Ask(7, 0, "How is the pipeline?")
	require.NoError(t, err)
	assert.NotZero(t, res.ConversationID)
	assert.Equal(t, "Four leads, two deals.", res.Reply)
	assert.Empty(t, res.Actions)

	msgs, _ := repo.ListMessages(res.ConversationID, 50, 0)
	require.Len(t, msgs, 2)
	assert.Equal(t, "user", msgs[0].Role)
	assert.Equal(t, "assistant", msgs[1].Role)
}

func TestAskExecutesToolCallsAndLogsActions(t *testing.T) {
	repo := newMemAssistant()
	store := newMemStore()
	store.seed(pipeline.StageContacted, "Grace", "Ada")

	llm := &scriptedCompleter{responses: []ChatMessage{
		toolCallResponse("call_1", "pipeline_summary", "{}"),
		{Role: "assistant", Content: "Two contacted leads."},
	}}
	svc := NewAssistantService(repo, llm, store)

	res, err := svc.Ask(7, 0, "Summarize the pipeline")
	require.NoError(t, err)
	assert.Equal(t, "Two contacted leads.", res.Reply)
	require.Len(t, res.Actions, 1)
	assert.Equal(t, "pipeline_summary", res.Actions[0].Tool)

	var rows []map[string]any
	require.NoError(t, json.Unmarshal(res.Actions[0].Result, &rows))
	require.Len(t, rows, 1)
	assert.Equal(t, float64(2), rows[0]["count"])

	logged, _ := repo.ListActions(res.ConversationID)
	assert.Len(t, logged, 1)
}

func TestAskStopsAtToolBudget(t *testing.T) {
	repo := newMemAssistant()
	llm := &scriptedCompleter{responses: []ChatMessage{
		toolCallResponse("c1", "pipeline_summary", "{}"),
		toolCallResponse("c2", "pipeline_summary", "{}"),
		toolCallResponse("c3", "pipeline_summary", "{}"),
		{Role: "assistant", Content: "never reached"},
	}}
	svc := NewAssistantService(repo, llm, newMemStore())

	res, err := svc.Ask(7, 0, "loop forever")
	require.NoError(t, err)
	assert.Equal(t, 3, llm.calls)
	assert.NotEqual(t, "never reached", res.Reply)
	assert.Len(t, res.Actions, 3)
}

func TestAskRejectsForeignConversation(t *testing.T) {
	repo := newMemAssistant()
	conv := &models.Conversation{UserID: 1, Title: "theirs"}
	require.NoError(t, repo.CreateConversation(conv))

	svc := NewAssistantService(repo, &scriptedCompleter{}, newMemStore())
	_, err := svc.Ask(2, conv.ID, "peek")
	assert.ErrorIs(t, err, ErrNotConversationOwner)
}
