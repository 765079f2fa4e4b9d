package file

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"cloudvault/internal/domain/folder"
	"cloudvault/internal/domain/plan"
	"cloudvault/internal/pkg/response"
)

type Handler struct {
	service     *Service
	downloadTTL int64 // seconds
}

func NewHandler(service *Service, downloadTTLSeconds int64) *Handler {
	return &Handler{service: service, downloadTTL: downloadTTLSeconds}
}

type intentRequest struct {
	FileName     string  `json:"file_name" binding:"required"`
	FolderID     *string `json:"folder_id"`
	Size         int64   `json:"size" binding:"required"`
	ContentType  string  `json:"content_type"`
}

// Intent starts an upload: the response carries the pending file record and
// the signed credential the client uploads with.
func (h *Handler) Intent(c *gin.Context) {
	ownerID := c.GetString("owner_id")

	var req intentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, http.StatusBadRequest, "INVALID_REQUEST", "file_name and size are required")
		return
	}

	f, cred, err := h.service.Intent(c.Request.Context(), ownerID, req.FolderID, req.FileName, req.Size, req.ContentType)
	if err != nil {
		writeError(c, err)
		return
	}
	response.Success(c, http.StatusCreated, gin.H{"file": f, "upload": cred})
}

// Finalize is the client callback after the blob upload completed.
func (h *Handler) Finalize(c *gin.Context) {
	ownerID := c.GetString("owner_id")

	f, err := h.service.Finalize(c.Request.Context(), ownerID, c.Param("id"))
	if err != nil {
		writeError(c, err)
		return
	}
	response.Success(c, http.StatusOK, f)
}

func (h *Handler) List(c *gin.Context) {
	ownerID := c.GetString("owner_id")

	var folderID *string
	if p := c.Query("folder_id"); p != "" {
		folderID = &p
	}

	files, err := h.service.List(c.Request.Context(), ownerID, folderID)
	if err != nil {
		writeError(c, err)
		return
	}
	response.Success(c, http.StatusOK, files)
}

func (h *Handler) ListTrash(c *gin.Context) {
	ownerID := c.GetString("owner_id")

	files, err := h.service.ListTrash(c.Request.Context(), ownerID)
	if err != nil {
		writeError(c, err)
		return
	}
	response.Success(c, http.StatusOK, files)
}

func (h *Handler) Get(c *gin.Context) {
	ownerID := c.GetString("owner_id")

	f, err := h.service.Get(c.Request.Context(), ownerID, c.Param("id"))
	if err != nil {
		writeError(c, err)
		return
	}
	response.Success(c, http.StatusOK, f)
}

func (h *Handler) SoftDelete(c *gin.Context) {
	ownerID := c.GetString("owner_id")

	if err := h.service.SoftDelete(c.Request.Context(), ownerID, c.Param("id")); err != nil {
		writeError(c, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"deleted": true})
}

func (h *Handler) Restore(c *gin.Context) {
	ownerID := c.GetString("owner_id")

	f, err := h.service.Restore(c.Request.Context(), ownerID, c.Param("id"))
	if err != nil {
		writeError(c, err)
		return
	}
	response.Success(c, http.StatusOK, f)
}

func (h *Handler) Purge(c *gin.Context) {
	ownerID := c.GetString("owner_id")

	if err := h.service.Purge(c.Request.Context(), ownerID, c.Param("id")); err != nil {
		writeError(c, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"purged": true})
}

func (h *Handler) DownloadURL(c *gin.Context) {
	ownerID := c.GetString("owner_id")

	url, err := h.service.DownloadURL(c.Request.Context(), ownerID, c.Param("id"), time.Duration(h.downloadTTL)*time.Second)
	if err != nil {
		writeError(c, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"url": url})
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
	case errors.Is(err, ErrNotFound), errors.Is(err, folder.ErrNotFound):
		response.Error(c, http.StatusNotFound, "NOT_FOUND", err.Error())
	case errors.Is(err, ErrInvalidSize), errors.Is(err, folder.ErrInvalidPath), errors.Is(err, folder.ErrInvalidName):
		response.Error(c, http.StatusBadRequest, "VALIDATION", err.Error())
	case errors.Is(err, folder.ErrPathExists), errors.Is(err, ErrPathOccupied):
		response.Error(c, http.StatusConflict, "CONFLICT", err.Error())
	case errors.Is(err, ErrNotUploaded), errors.Is(err, ErrNotDeleted):
		response.Error(c, http.StatusConflict, "CONFLICT", err.Error())
	case errors.Is(err, context.DeadlineExceeded):
		response.Error(c, http.StatusBadGateway, "STORAGE_UNAVAILABLE", "blob store request timed out, retry later")
	default:
		response.Error(c, http.StatusInternalServerError, "INTERNAL", "internal error")
	}
}
