package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"kolboard/internal/models"
	"kolboard/internal/services"
)

type ContactHandler struct {
	service *services.ContactService
}

func NewContactHandler(service *services.ContactService) *ContactHandler {
	return &ContactHandler{service: service}
}

func (h *ContactHandler) Create(c *gin.Context) {
	var contact models.Contact
	if err := c.ShouldBindJSON(&contact); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if err := h.service.Create(&contact); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusCreated, contact)
}

func (h *ContactHandler) Get(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	contact, err := h.service.GetByID(id)
	if err != nil {
		if errors.Is(err, services.ErrContactNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, contact)
}

func (h *ContactHandler) List(c *gin.Context) {
	limit, offset := pagination(c)
	contacts, err := h.service.ListPaginated(limit, offset)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, contacts)
}

func (h *ContactHandler) Update(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	var contact models.Contact
	if err := c.ShouldBindJSON(&contact); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	contact.ID = id
	if err := h.service.Update(&contact); err != nil {
		if errors.Is(err, services.ErrContactNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, contact)
}

func (h *ContactHandler) Delete(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	if err := h.service.Delete(id); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "contact deleted"})
}

type linkRequest struct {
	ContactID int    `json:"contact_id" binding:"required"`
	Role      string `json:"role"`
	IsPrimary bool   `json:"is_primary"`
}

// Link attaches a contact to an opportunity. Marking it primary demotes
// any previous primary for that opportunity.
func (h *ContactHandler) Link(c *gin.Context) {
	opportunityID, ok := pathID(c, "id")
	if !ok {
		return
	}
	var req linkRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if err := h.service.Link(opportunityID, req.ContactID, req.Role, req.IsPrimary); err != nil {
		if errors.Is(err, services.ErrContactNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "contact linked"})
}

func (h *ContactHandler) Unlink(c *gin.Context) {
	opportunityID, ok := pathID(c, "id")
	if !ok {
		return
	}
	contactID, ok := pathID(c, "contact_id")
	if !ok {
		return
	}
	if err := h.service.Unlink(opportunityID, contactID); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "contact unlinked"})
}

func (h *ContactHandler) ListForOpportunity(c *gin.Context) {
	opportunityID, ok := pathID(c, "id")
	if !ok {
		return
	}
	contacts, err := h.service.ListForOpportunity(opportunityID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, contacts)
}

func (h *ContactHandler) Primary(c *gin.Context) {
	opportunityID, ok := pathID(c, "id")
	if !ok {
		return
	}
	primary, err := h.service.PrimaryFor(opportunityID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	if primary == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "no primary contact"})
		return
	}
	c.JSON(http.StatusOK, primary)
}
