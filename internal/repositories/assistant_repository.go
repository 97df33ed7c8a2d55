package repositories

import (
	"database/sql"
	"log"

	"kolboard/internal/models"
)

type AssistantRepository struct {
	db *sql.DB
}

func NewAssistantRepository(db *sql.DB) *AssistantRepository {
	if db == nil {
		log.Fatalf("received nil database connection")
	}
	return &AssistantRepository{db: db}
}

func (r *AssistantRepository) CreateConversation(c *models.Conversation) error {
	const query = `
		INSERT INTO conversations (user_id, title, created_at)
		VALUES ($1, $2, $3)
		RETURNING id
	`
	return r.db.QueryRow(query, c.UserID, c.Title, c.CreatedAt).Scan(&c.ID)
}

func (r *AssistantRepository) GetConversation(id int) (*models.Conversation, error) {
	const query = `SELECT id, user_id, title, created_at FROM conversations WHERE id=$1`
	c := &models.Conversation{}
	if err := r.db.QueryRow(query, id).Scan(&c.ID, &c.UserID, &c.Title, &c.CreatedAt); err != nil {
		return nil, err
	}
	return c, nil
}

func (r *AssistantRepository) ListConversations(userID int) ([]*models.Conversation, error) {
	const query = `
		SELECT id, user_id, title, created_at
		FROM conversations
		WHERE user_id=$1
		ORDER BY created_at DESC
	`
	rows, err := r.db.Query(query, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*models.Conversation
	for rows.Next() {
		c := &models.Conversation{}
		if err := rows.Scan(&c.ID, &c.UserID, &c.Title, &c.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

func (r *AssistantRepository) InsertMessage(m *models.AssistantMessage) error {
	const query = `
		INSERT INTO assistant_messages (conversation_id, role, text, created_at)
		VALUES ($1, $2, $3, $4)
		RETURNING id
	`
	return r.db.QueryRow(query, m.ConversationID, m.Role, m.Text, m.CreatedAt).Scan(&m.ID)
}

func (r *AssistantRepository) ListMessages(conversationID, limit, offset int) ([]*models.AssistantMessage, error) {
	const query = `
		SELECT id, conversation_id, role, text, created_at
		FROM assistant_messages
		WHERE conversation_id=$1
		ORDER BY created_at, id
		LIMIT $2 OFFSET $3
	`
	rows, err := r.db.Query(query, conversationID, limit, offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*models.AssistantMessage
	for rows.Next() {
		m := &models.AssistantMessage{}
		if err := rows.Scan(&m.ID, &m.ConversationID, &m.Role, &m.Text, &m.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, m)
	}
	return out, rows.Err()
}

func (r *AssistantRepository) InsertAction(a *models.AgentAction) error {
	const query = `
		INSERT INTO agent_actions (conversation_id, tool, arguments, result, created_at)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id
	`
	return r.db.QueryRow(query, a.ConversationID, a.Tool, []byte(a.Arguments), []byte(a.Result), a.CreatedAt).Scan(&a.ID)
}

func (r *AssistantRepository) ListActions(conversationID int) ([]*models.AgentAction, error) {
	const query = `
		SELECT id, conversation_id, tool, arguments, result, created_at
		FROM agent_actions
		WHERE conversation_id=$1
		ORDER BY created_at, id
	`
	rows, err := r.db.Query(query, conversationID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*models.AgentAction
	for rows.Next() {
		a := &models.AgentAction{}
		var args, result []byte
		if err := rows.Scan(&a.ID, &a.ConversationID, &a.Tool, &args, &result, &a.CreatedAt); err != nil {
			return nil, err
		}
		a.Arguments = args
		a.Result = result
		out = append(out, a)
	}
	return out, rows.Err()
}
