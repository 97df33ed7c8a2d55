package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"kolboard/internal/authz"
	"kolboard/internal/models"
	"kolboard/internal/services"
)

type UserHandler struct {
	service services.UserService
}

func NewUserHandler(service services.UserService) *UserHandler {
	return &UserHandler{service: service}
}

type registerRequest struct {
	FullName string `json:"full_name" binding:"required"`
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
	RoleID   int    `json:"role_id"`
}

// @Summary      Register a user
// @Tags         Users
// @Accept       json
// @Produce      json
// @Param        user  body      registerRequest  true  "New user"
// @Success      201   {object}  models.User
// @Failure      400   {object}  map[string]string
// @Router       /register [post]
func (h *UserHandler) Register(c *gin.Context) {
	var req registerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	user := &models.User{
		FullName: req.FullName,
		Email:    req.Email,
		RoleID:   req.RoleID,
	}
	if err := h.service.CreateUserWithPassword(user, req.Password); err != nil {
		if errors.Is(err, services.ErrEmailRequired) || errors.Is(err, services.ErrPasswordTooShort) {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusCreated, user)
}

func (h *UserHandler) GetUser(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	user, err := h.service.GetUserByID(id)
	if err != nil || user == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "user not found"})
		return
	}
	c.JSON(http.StatusOK, user)
}

func (h *UserHandler) ListUsers(c *gin.Context) {
	limit, offset := pagination(c)
	users, err := h.service.ListUsers(limit, offset)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, users)
}

func (h *UserHandler) UpdateUser(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	existing, err := h.service.GetUserByID(id)
	if err != nil || existing == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "user not found"})
		return
	}

	var req struct {
		FullName *string `json:"full_name"`
		Email    *string `json:"email"`
		RoleID   *int    `json:"role_id"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if req.FullName != nil {
		existing.FullName = *req.FullName
	}
	if req.Email != nil {
		existing.Email = *req.Email
	}
	if req.RoleID != nil {
		// role changes require admin
		_, roleID := getUserAndRole(c)
		if roleID != authz.RoleAdmin {
			c.JSON(http.StatusForbidden, gin.H{"error": "only admins can change roles"})
			return
		}
		existing.RoleID = *req.RoleID
	}

	if err := h.service.UpdateUser(existing); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, existing)
}

func (h *UserHandler) DeleteUser(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	if err := h.service.DeleteUser(id); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "user deleted"})
}

func (h *UserHandler) Me(c *gin.Context) {
	userID, _ := getUserAndRole(c)
	user, err := h.service.GetUserByID(userID)
	if err != nil || user == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "user not found"})
		return
	}
	c.JSON(http.StatusOK, user)
}
