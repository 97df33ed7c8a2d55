package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"kolboard/internal/services"
)

type AssistantHandler struct {
	service *services.AssistantService
}

func NewAssistantHandler(service *services.AssistantService) *AssistantHandler {
	return &AssistantHandler{service: service}
}

type askRequest struct {
	ConversationID int    `json:"conversation_id"`
	Text           string `json:"text" binding:"required"`
}

// Ask sends a message to the assistant. Omitting conversation_id starts a
// new conversation; the id comes back in the response.
func (h *AssistantHandler) Ask(c *gin.Context) {
	userID, _ := getUserAndRole(c)
	var req askRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	res, err := h.service.Ask(userID, req.ConversationID, req.Text)
	if err != nil {
		if errors.Is(err, services.ErrNotConversationOwner) {
			c.JSON(http.StatusForbidden, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, res)
}

func (h *AssistantHandler) Conversations(c *gin.Context) {
	userID, _ := getUserAndRole(c)
	conversations, err := h.service.Conversations(userID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, conversations)
}

func (h *AssistantHandler) Messages(c *gin.Context) {
	userID, _ := getUserAndRole(c)
	conversationID, ok := pathID(c, "id")
	if !ok {
		return
	}
	limit, offset := pagination(c)
	messages, err := h.service.Messages(userID, conversationID, limit, offset)
	if err != nil {
		if errors.Is(err, services.ErrNotConversationOwner) {
			c.JSON(http.StatusForbidden, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, messages)
}

func (h *AssistantHandler) Actions(c *gin.Context) {
	userID, _ := getUserAndRole(c)
	conversationID, ok := pathID(c, "id")
	if !ok {
		return
	}
	actions, err := h.service.Actions(userID, conversationID)
	if err != nil {
		if errors.Is(err, services.ErrNotConversationOwner) {
			c.JSON(http.StatusForbidden, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, actions)
}
