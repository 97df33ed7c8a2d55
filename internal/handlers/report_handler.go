package handlers

import (
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"kolboard/internal/models"
	"kolboard/internal/pipeline"
	"kolboard/internal/services"
)

type ReportHandler struct {
	service *services.ReportService
}

func NewReportHandler(service *services.ReportService) *ReportHandler {
	return &ReportHandler{service: service}
}

// Summary returns counts and deal values per stage, grouped by category,
// including stages with zero records.
func (h *ReportHandler) Summary(c *gin.Context) {
	summary, err := h.service.Summary()
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, summary)
}

func (h *ReportHandler) Filter(c *gin.Context) {
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

	rows, err := h.service.FilterOpportunities(f, limit, offset)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, rows)
}

func (h *ReportHandler) ExportPDF(c *gin.Context) {
	data, err := h.service.SummaryPDF()
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	filename := "pipeline_" + time.Now().Format("2006-01-02") + ".pdf"
	c.Header("Content-Disposition", "attachment; filename="+filename)
	c.Data(http.StatusOK, "application/pdf", data)
}
