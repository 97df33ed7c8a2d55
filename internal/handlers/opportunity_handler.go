package handlers

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"kolboard/internal/authz"
	"kolboard/internal/models"
	"kolboard/internal/pipeline"
	"kolboard/internal/services"
)

type OpportunityHandler struct {
	pipeline *services.PipelineService
	ordering *services.OrderingService
	outreach *services.OutreachService
}

func NewOpportunityHandler(p *services.PipelineService, o *services.OrderingService, out *services.OutreachService) *OpportunityHandler {
	return &OpportunityHandler{pipeline: p, ordering: o, outreach: out}
}

// @Summary      Create an opportunity
// @Tags         Opportunities
// @Accept       json
// @Produce      json
// @Param        opportunity  body      models.Opportunity  true  "New opportunity"
// @Success      201          {object}  models.Opportunity
// @Failure      400          {object}  map[string]string
// @Router       /opportunities [post]
func (h *OpportunityHandler) Create(c *gin.Context) {
	var o models.Opportunity
	if err := c.ShouldBindJSON(&o); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if o.OwnerID == 0 {
		userID, _ := getUserAndRole(c)
		o.OwnerID = userID
	}
	if err := h.pipeline.Create(&o); err != nil {
		switch {
		case errors.Is(err, services.ErrNameRequired), errors.Is(err, services.ErrUnknownStage):
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		default:
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		}
		return
	}
	c.JSON(http.StatusCreated, o)
}

func (h *OpportunityHandler) Get(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	o, err := h.pipeline.GetByID(id)
	if err != nil {
		if errors.Is(err, services.ErrOpportunityNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, o)
}

// List filters by stage, category, owner, source, and free-text search.
func (h *OpportunityHandler) List(c *gin.Context) {
	limit, offset := pagination(c)

	var f models.OpportunityFilter
	if v := c.Query("stage"); v != "" {
		s := pipeline.Stage(v)
		if !pipeline.Known(s) {
			c.JSON(http.StatusBadRequest, gin.H{"error": "unknown stage: " + v})
			return
		}
		f.Stage = &s
	}
	if v := c.Query("category"); v != "" {
		cat := pipeline.Category(v)
		if len(pipeline.StagesFor(cat)) == 0 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "unknown category: " + v})
			return
		}
		f.Category = &cat
	}
	if v := c.Query("owner_id"); v != "" {
		id, ok := parseQueryInt(c, "owner_id")
		if !ok {
			return
		}
		f.OwnerID = &id
	}
	if v := c.Query("source"); v != "" {
		f.Source = &v
	}
	if v := strings.TrimSpace(c.Query("q")); v != "" {
		f.Search = &v
	}

	list, err := h.pipeline.List(f, limit, offset)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, list)
}

// Board returns the kanban view of one category: stages in display order,
// cards ordered by position within each stage.
func (h *OpportunityHandler) Board(c *gin.Context) {
	cat := pipeline.Category(c.Param("category"))
	stages := pipeline.StagesFor(cat)
	if len(stages) == 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "unknown category: " + string(cat)})
		return
	}
	board, err := h.pipeline.Board(cat)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	columns := make([]gin.H, 0, len(stages))
	for _, s := range stages {
		cards := board[s]
		if cards == nil {
			cards = []*models.Opportunity{}
		}
		columns = append(columns, gin.H{"stage": s, "cards": cards})
	}
	c.JSON(http.StatusOK, gin.H{"category": cat, "columns": columns})
}

func (h *OpportunityHandler) Update(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	var patch models.OpportunityPatch
	if err := c.ShouldBindJSON(&patch); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if err := h.pipeline.UpdatePatch(id, &patch); err != nil {
		switch {
		case errors.Is(err, services.ErrOpportunityNotFound):
			c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
		case errors.Is(err, services.ErrUnknownStage):
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		default:
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		}
		return
	}
	o, err := h.pipeline.GetByID(id)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, o)
}

// Delete removes a record outright; outreach reps archive via the dead
// stage instead, so this is limited to elevated roles.
func (h *OpportunityHandler) Delete(c *gin.Context) {
	_, roleID := getUserAndRole(c)
	if !authz.IsElevated(roleID) {
		c.JSON(http.StatusForbidden, gin.H{"error": "insufficient role"})
		return
	}
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	if err := h.pipeline.Delete(id); err != nil {
		if errors.Is(err, services.ErrOpportunityNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "opportunity deleted"})
}

type transitionRequest struct {
	Stage pipeline.Stage `json:"stage" binding:"required"`
	Via   string         `json:"via"`
	Note  string         `json:"note"`
}

// Transition moves a record to another stage. Drags that land on a
// category-incompatible column come back with rejected=true and a 200;
// the board snaps the card back instead of showing an error.
func (h *OpportunityHandler) Transition(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	var req transitionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	via := services.ViaExplicit
	if req.Via == string(services.ViaDrag) {
		via = services.ViaDrag
	}
	res, err := h.pipeline.RequestTransition(id, req.Stage, via, req.Note)
	if err != nil {
		switch {
		case errors.Is(err, services.ErrOpportunityNotFound):
			c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
		case errors.Is(err, services.ErrUnknownStage):
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		default:
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		}
		return
	}
	c.JSON(http.StatusOK, res)
}

type bulkAssignRequest struct {
	IDs   []int                   `json:"ids" binding:"required"`
	Patch models.OpportunityPatch `json:"patch"`
}

// BulkAssign applies one patch to many records. Writes are independent:
// the response lists which IDs were updated and which failed with why.
func (h *OpportunityHandler) BulkAssign(c *gin.Context) {
	var req bulkAssignRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if len(req.IDs) == 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "ids must not be empty"})
		return
	}
	res := h.pipeline.BulkAssign(req.IDs, &req.Patch)
	status := http.StatusOK
	if len(res.Updated) == 0 && len(res.Failed) > 0 {
		status = http.StatusUnprocessableEntity
	}
	c.JSON(status, res)
}

type reorderRequest struct {
	Stage pipeline.Stage `json:"stage" binding:"required"`
	IDs   []int          `json:"ids" binding:"required"`
}

func (h *OpportunityHandler) Reorder(c *gin.Context) {
	var req reorderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if !pipeline.Known(req.Stage) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "unknown stage: " + string(req.Stage)})
		return
	}
	if err := h.ordering.ReorderWithinStage(req.Stage, req.IDs); err != nil {
		if errors.Is(err, services.ErrNotInStage) {
			c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "reordered"})
}

type moveRequest struct {
	From     pipeline.Stage `json:"from" binding:"required"`
	To       pipeline.Stage `json:"to" binding:"required"`
	Position int            `json:"position"`
}

// Move handles the drag gesture end-to-end: stage transition (if the
// target column differs) plus insertion at the dropped index.
func (h *OpportunityHandler) Move(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	var req moveRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	res, err := h.ordering.MoveToStageAtPosition(id, req.From, req.To, req.Position)
	if err != nil {
		switch {
		case errors.Is(err, services.ErrOpportunityNotFound):
			c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
		case errors.Is(err, services.ErrUnknownStage):
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		case errors.Is(err, services.ErrNotInStage):
			c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
		default:
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		}
		return
	}
	c.JSON(http.StatusOK, res)
}

func (h *OpportunityHandler) History(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	entries, err := h.pipeline.StageHistoryFor(id)
	if err != nil {
		if errors.Is(err, services.ErrOpportunityNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, entries)
}

type outreachEmailRequest struct {
	Subject string `json:"subject" binding:"required"`
	Body    string `json:"body" binding:"required"`
}

// SendEmail mails the record's primary contact and stamps last_contacted_at.
func (h *OpportunityHandler) SendEmail(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	var req outreachEmailRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if err := h.outreach.SendToPrimary(id, req.Subject, req.Body); err != nil {
		switch {
		case errors.Is(err, services.ErrOpportunityNotFound):
			c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
		case errors.Is(err, services.ErrNoPrimaryContact):
			c.JSON(http.StatusUnprocessableEntity, gin.H{"error": err.Error()})
		default:
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		}
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "email sent"})
}
