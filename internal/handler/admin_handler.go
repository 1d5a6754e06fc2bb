package handler

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"gorm.io/datatypes"
	"learn2b.app/ieltsbackend/internal/model"
	"learn2b.app/ieltsbackend/internal/service"
	"learn2b.app/ieltsbackend/pkg/response"
	"learn2b.app/ieltsbackend/pkg/validator"
)

type AdminHandler struct {
	service service.AdminService
}

func NewAdminHandler(service service.AdminService) *AdminHandler {
	return &AdminHandler{service: service}
}

func (h *AdminHandler) GetDashboard(c *gin.Context) {
	stats, err := h.service.GetDashboardStats(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	c.JSON(http.StatusOK, stats)
}

func (h *AdminHandler) GetUsers(c *gin.Context) {
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "20"))

	users, err := h.service.GetUsers(c.Request.Context(), c.Query("search"), page, limit)
	if err != nil {
		response.Error(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": users})
}

type updateRoleRequest struct {
	Role string `json:"role" binding:"required,oneof=student teacher admin"`
}

func (h *AdminHandler) UpdateUserRole(c *gin.Context) {
	userID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid user id"})
		return
	}

	var req updateRoleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": validator.FormatValidationError(err)})
		return
	}

	if err := h.service.UpdateUserRole(c.Request.Context(), userID, req.Role); err != nil {
		response.Error(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "role updated successfully"})
}

type moderationRequest struct {
	Hidden *bool `json:"hidden" binding:"required"`
}

func (h *AdminHandler) SetPostHidden(c *gin.Context) {
	postID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid post id"})
		return
	}

	var req moderationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": validator.FormatValidationError(err)})
		return
	}

	if err := h.service.SetPostHidden(c.Request.Context(), postID, *req.Hidden); err != nil {
		response.Error(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "post updated"})
}

func (h *AdminHandler) SetCommentHidden(c *gin.Context) {
	commentID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid comment id"})
		return
	}

	var req moderationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": validator.FormatValidationError(err)})
		return
	}

	if err := h.service.SetCommentHidden(c.Request.Context(), commentID, *req.Hidden); err != nil {
		response.Error(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "comment updated"})
}

type pinRequest struct {
	Pinned *bool `json:"pinned" binding:"required"`
}

func (h *AdminHandler) SetPostPinned(c *gin.Context) {
	postID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid post id"})
		return
	}

	var req pinRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": validator.FormatValidationError(err)})
		return
	}

	if err := h.service.SetPostPinned(c.Request.Context(), postID, *req.Pinned); err != nil {
		response.Error(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "post updated"})
}

type createBadgeRequest struct {
	Name        string         `json:"name" binding:"required,min=2,max=100"`
	Description string         `json:"description" binding:"required"`
	IconURL     *string        `json:"icon_url"`
	Category    string         `json:"category" binding:"required,oneof=streak completion community score special"`
	Criteria    map[string]any `json:"criteria" binding:"required"`
}

func (h *AdminHandler) CreateBadge(c *gin.Context) {
	var req createBadgeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": validator.FormatValidationError(err)})
		return
	}

	raw, err := json.Marshal(req.Criteria)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid criteria"})
		return
	}
	criteria := datatypes.JSON(raw)

	badge := &model.Badge{
		Name:        req.Name,
		Description: req.Description,
		IconURL:     req.IconURL,
		Category:    req.Category,
		Criteria:    criteria,
	}
	if err := h.service.CreateBadge(c.Request.Context(), badge); err != nil {
		response.Error(c, err)
		return
	}

	c.JSON(http.StatusCreated, badge)
}
