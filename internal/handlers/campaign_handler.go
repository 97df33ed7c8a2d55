package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"kolboard/internal/models"
	"kolboard/internal/services"
)

type CampaignHandler struct {
	service *services.CampaignService
}

func NewCampaignHandler(service *services.CampaignService) *CampaignHandler {
	return &CampaignHandler{service: service}
}

func (h *CampaignHandler) Create(c *gin.Context) {
	var campaign models.Campaign
	if err := c.ShouldBindJSON(&campaign); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if campaign.OwnerID == 0 {
		userID, _ := getUserAndRole(c)
		campaign.OwnerID = userID
	}
	if err := h.service.Create(&campaign); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusCreated, campaign)
}

func (h *CampaignHandler) Get(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	campaign, err := h.service.GetByID(id)
	if err != nil {
		if errors.Is(err, services.ErrCampaignNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, campaign)
}

func (h *CampaignHandler) List(c *gin.Context) {
	limit, offset := pagination(c)
	campaigns, err := h.service.ListPaginated(limit, offset)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, campaigns)
}

func (h *CampaignHandler) Update(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	var campaign models.Campaign
	if err := c.ShouldBindJSON(&campaign); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	campaign.ID = id
	if err := h.service.Update(&campaign); err != nil {
		if errors.Is(err, services.ErrCampaignNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, campaign)
}

func (h *CampaignHandler) Delete(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	if err := h.service.Delete(id); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "campaign deleted"})
}

type memberRequest struct {
	OpportunityID int `json:"opportunity_id" binding:"required"`
}

func (h *CampaignHandler) AddMember(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	var req memberRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if err := h.service.AddMember(id, req.OpportunityID); err != nil {
		if errors.Is(err, services.ErrCampaignNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "member added"})
}

func (h *CampaignHandler) RemoveMember(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	opportunityID, ok := pathID(c, "opportunity_id")
	if !ok {
		return
	}
	if err := h.service.RemoveMember(id, opportunityID); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "member removed"})
}

func (h *CampaignHandler) Members(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	members, err := h.service.Members(id)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, members)
}
