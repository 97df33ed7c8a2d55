package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"kolboard/internal/models"
	"kolboard/internal/services"
)

type ListHandler struct {
	service *services.ListService
}

func NewListHandler(service *services.ListService) *ListHandler {
	return &ListHandler{service: service}
}

func (h *ListHandler) Create(c *gin.Context) {
	var list models.KolList
	if err := c.ShouldBindJSON(&list); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if list.OwnerID == 0 {
		userID, _ := getUserAndRole(c)
		list.OwnerID = userID
	}
	if err := h.service.Create(&list); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusCreated, list)
}

func (h *ListHandler) Get(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	list, err := h.service.GetByID(id)
	if err != nil {
		if errors.Is(err, services.ErrListNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, list)
}

func (h *ListHandler) Mine(c *gin.Context) {
	userID, _ := getUserAndRole(c)
	limit, offset := pagination(c)
	lists, err := h.service.ListByOwner(userID, limit, offset)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, lists)
}

func (h *ListHandler) Rename(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	var req struct {
		Name string `json:"name" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if err := h.service.Rename(id, req.Name); err != nil {
		if errors.Is(err, services.ErrListNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "list renamed"})
}

func (h *ListHandler) Delete(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	if err := h.service.Delete(id); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "list deleted"})
}

func (h *ListHandler) AddEntry(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	var req memberRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if err := h.service.AddEntry(id, req.OpportunityID); err != nil {
		if errors.Is(err, services.ErrListNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "entry added"})
}

func (h *ListHandler) RemoveEntry(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	opportunityID, ok := pathID(c, "opportunity_id")
	if !ok {
		return
	}
	if err := h.service.RemoveEntry(id, opportunityID); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "entry removed"})
}

func (h *ListHandler) Members(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	members, err := h.service.Members(id)
	if err != nil {
		if errors.Is(err, services.ErrListNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, members)
}

// ReorderEntries rewrites the curated ordering of a list in one go.
func (h *ListHandler) ReorderEntries(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	var req struct {
		IDs []int `json:"ids" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if err := h.service.ReorderEntries(id, req.IDs); err != nil {
		if errors.Is(err, services.ErrListNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "reordered"})
}
