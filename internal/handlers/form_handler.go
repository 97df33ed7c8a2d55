package handlers

import (
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"kolboard/internal/models"
	"kolboard/internal/services"
)

type FormHandler struct {
	service *services.FormService
	email   services.EmailService
	baseURL string
}

func NewFormHandler(service *services.FormService, email services.EmailService, publicBaseURL string) *FormHandler {
	return &FormHandler{service: service, email: email, baseURL: strings.TrimRight(publicBaseURL, "/")}
}

func (h *FormHandler) Create(c *gin.Context) {
	var form models.Form
	if err := c.ShouldBindJSON(&form); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if form.OwnerID == 0 {
		userID, _ := getUserAndRole(c)
		form.OwnerID = userID
	}
	if err := h.service.Create(&form); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusCreated, form)
}

func (h *FormHandler) Get(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	form, err := h.service.GetByID(id)
	if err != nil {
		if errors.Is(err, services.ErrFormNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, form)
}

func (h *FormHandler) List(c *gin.Context) {
	limit, offset := pagination(c)
	forms, err := h.service.ListPaginated(limit, offset)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, forms)
}

func (h *FormHandler) Update(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	var form models.Form
	if err := c.ShouldBindJSON(&form); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	form.ID = id
	if err := h.service.Update(&form); err != nil {
		if errors.Is(err, services.ErrFormNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, form)
}

func (h *FormHandler) Delete(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	if err := h.service.Delete(id); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "form deleted"})
}

// PublicGet serves the field schema to the unauthenticated form page.
// Only the render-relevant parts of the form are exposed.
func (h *FormHandler) PublicGet(c *gin.Context) {
	form, err := h.service.GetBySlugPublic(c.Param("slug"))
	if err != nil {
		if errors.Is(err, services.ErrFormNotFound) || errors.Is(err, services.ErrFormNotPublic) {
			c.JSON(http.StatusNotFound, gin.H{"error": "form not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"title":  form.Title,
		"slug":   form.Slug,
		"fields": form.Fields,
	})
}

// PublicSubmit accepts an unauthenticated submission and creates the
// opportunity at the form's entry stage.
func (h *FormHandler) PublicSubmit(c *gin.Context) {
	var req struct {
		Answers map[string]string `json:"answers" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	resp, err := h.service.Submit(c.Param("slug"), req.Answers)
	if err != nil {
		switch {
		case errors.Is(err, services.ErrFormNotFound), errors.Is(err, services.ErrFormNotPublic):
			c.JSON(http.StatusNotFound, gin.H{"error": "form not found"})
		case errors.Is(err, services.ErrMissingAnswer):
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		default:
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		}
		return
	}
	c.JSON(http.StatusCreated, gin.H{"message": "submission received", "response_id": resp.ID})
}

func (h *FormHandler) Responses(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	responses, err := h.service.Responses(id)
	if err != nil {
		if errors.Is(err, services.ErrFormNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, responses)
}

func (h *FormHandler) ExportCSV(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	data, err := h.service.ExportCSV(id)
	if err != nil {
		if errors.Is(err, services.ErrFormNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=form_%d_responses.csv", id))
	c.Data(http.StatusOK, "text/csv", data)
}

func (h *FormHandler) ExportPDF(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	data, err := h.service.ExportPDF(id)
	if err != nil {
		if errors.Is(err, services.ErrFormNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=form_%d_responses.pdf", id))
	c.Data(http.StatusOK, "application/pdf", data)
}

type shareLinkRequest struct {
	Email string `json:"email" binding:"required,email"`
}

// ShareLink mails the public form URL to a prospect.
func (h *FormHandler) ShareLink(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	var req shareLinkRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	form, err := h.service.GetByID(id)
	if err != nil {
		if errors.Is(err, services.ErrFormNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	link := fmt.Sprintf("%s/public/forms/%s", h.baseURL, form.Slug)
	if err := h.email.SendFormLink(req.Email, form.Title, link); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "link sent"})
}
