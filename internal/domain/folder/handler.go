package folder

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"cloudvault/internal/domain/plan"
	"cloudvault/internal/pkg/response"
)

type Handler struct {
	service *Service
}

func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

type createRequest struct {
	Name     string  `json:"name" binding:"required"`
	ParentID *string `json:"parent_id"`
}

func (h *Handler) Create(c *gin.Context) {
	ownerID := c.GetString("owner_id")

	var req createRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, http.StatusBadRequest, "INVALID_REQUEST", "name is required")
		return
	}

	f, err := h.service.Create(c.Request.Context(), ownerID, req.ParentID, req.Name)
	if err != nil {
		writeError(c, err)
		return
	}
	response.Success(c, http.StatusCreated, f)
}

func (h *Handler) List(c *gin.Context) {
	ownerID := c.GetString("owner_id")

	var parentID *string
	if p := c.Query("parent_id"); p != "" {
		parentID = &p
	}

	folders, err := h.service.ListChildren(c.Request.Context(), ownerID, parentID)
	if err != nil {
		writeError(c, err)
		return
	}
	response.Success(c, http.StatusOK, folders)
}

func (h *Handler) Get(c *gin.Context) {
	ownerID := c.GetString("owner_id")

	f, err := h.service.Get(c.Request.Context(), ownerID, c.Param("id"))
	if err != nil {
		writeError(c, err)
		return
	}

	path, err := h.service.Path(c.Request.Context(), f)
	if err != nil {
		writeError(c, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"folder": f, "path": path})
}

type renameRequest struct {
	Name string `json:"name" binding:"required"`
}

func (h *Handler) Rename(c *gin.Context) {
	ownerID := c.GetString("owner_id")

	var req renameRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, http.StatusBadRequest, "INVALID_REQUEST", "name is required")
		return
	}

	f, err := h.service.Rename(c.Request.Context(), ownerID, c.Param("id"), req.Name)
	if err != nil {
		writeError(c, err)
		return
	}
	response.Success(c, http.StatusOK, f)
}

type moveRequest struct {
	ParentID *string `json:"parent_id"`
}

func (h *Handler) Move(c *gin.Context) {
	ownerID := c.GetString("owner_id")

	var req moveRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, http.StatusBadRequest, "INVALID_REQUEST", "invalid body")
		return
	}

	f, err := h.service.Move(c.Request.Context(), ownerID, c.Param("id"), req.ParentID)
	if err != nil {
		writeError(c, err)
		return
	}
	response.Success(c, http.StatusOK, f)
}

func (h *Handler) Delete(c *gin.Context) {
	ownerID := c.GetString("owner_id")

	if err := h.service.Delete(c.Request.Context(), ownerID, c.Param("id")); err != nil {
		writeError(c, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"deleted": true})
}

func writeError(c *gin.Context, err error) {
	var limitErr *plan.LimitError
	switch {
	case errors.As(err, &limitErr):
		response.ErrorWithDetails(c, http.StatusForbidden, "PLAN_LIMIT", limitErr.Error(), gin.H{
			"current":    limitErr.Current,
			"limit":      limitErr.Limit,
			"plan":       limitErr.PlanID,
			"upgrade_to": limitErr.UpgradeTo,
		})
	case plan.IsPolicyDenial(err):
		response.Error(c, http.StatusForbidden, "PLAN_LIMIT", err.Error())
	case errors.Is(err, ErrNotFound):
		response.Error(c, http.StatusNotFound, "NOT_FOUND", err.Error())
	case errors.Is(err, ErrInvalidName), errors.Is(err, ErrInvalidParent), errors.Is(err, ErrInvalidPath):
		response.Error(c, http.StatusBadRequest, "VALIDATION", err.Error())
	case errors.Is(err, ErrNameTaken), errors.Is(err, ErrPathExists), errors.Is(err, ErrFolderNotEmpty):
		response.Error(c, http.StatusConflict, "CONFLICT", err.Error())
	default:
		response.Error(c, http.StatusInternalServerError, "INTERNAL", "internal error")
	}
}
