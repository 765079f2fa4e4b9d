package share

import (
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"cloudvault/internal/domain/plan"
	"cloudvault/internal/pkg/response"
)

// Handler is the owner-facing share link surface.
type Handler struct {
	service *Service
}

func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

type createRequest struct {
	FileIDs   []string   `json:"file_ids"`
	FolderIDs []string   `json:"folder_ids"`
	ExpiresAt *time.Time `json:"expires_at"`
	Password  string     `json:"password"`
}

func (h *Handler) Create(c *gin.Context) {
	ownerID := c.GetString("owner_id")

	var req createRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, http.StatusBadRequest, "INVALID_REQUEST", "invalid body")
		return
	}

	link, err := h.service.Create(c.Request.Context(), ownerID, CreateParams{
		FileIDs:   req.FileIDs,
		FolderIDs: req.FolderIDs,
		ExpiresAt: req.ExpiresAt,
		Password:  req.Password,
	})
	if err != nil {
		writeError(c, err)
		return
	}
	response.Success(c, http.StatusCreated, link)
}

type updateRequest struct {
	FileIDs     *[]string  `json:"file_ids"`
	FolderIDs   *[]string  `json:"folder_ids"`
	ExpiresAt   *time.Time `json:"expires_at"`
	ClearExpiry bool       `json:"clear_expiry"`
	Password    *string    `json:"password"`
}

func (h *Handler) Update(c *gin.Context) {
	ownerID := c.GetString("owner_id")

	var req updateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, http.StatusBadRequest, "INVALID_REQUEST", "invalid body")
		return
	}

	link, err := h.service.Update(c.Request.Context(), ownerID, c.Param("id"), UpdateParams{
		FileIDs:     req.FileIDs,
		FolderIDs:   req.FolderIDs,
		ExpiresAt:   req.ExpiresAt,
		ClearExpiry: req.ClearExpiry,
		Password:    req.Password,
	})
	if err != nil {
		writeError(c, err)
		return
	}
	response.Success(c, http.StatusOK, link)
}

func (h *Handler) List(c *gin.Context) {
	ownerID := c.GetString("owner_id")

	links, err := h.service.List(c.Request.Context(), ownerID)
	if err != nil {
		writeError(c, err)
		return
	}
	response.Success(c, http.StatusOK, links)
}

func (h *Handler) Get(c *gin.Context) {
	ownerID := c.GetString("owner_id")

	link, err := h.service.Get(c.Request.Context(), ownerID, c.Param("id"))
	if err != nil {
		writeError(c, err)
		return
	}
	response.Success(c, http.StatusOK, link)
}

func (h *Handler) Revoke(c *gin.Context) {
	ownerID := c.GetString("owner_id")

	if err := h.service.Revoke(c.Request.Context(), ownerID, c.Param("id")); err != nil {
		writeError(c, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"revoked": true})
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
	case errors.Is(err, ErrNoTargets), errors.Is(err, ErrFolderNotRoot), errors.Is(err, ErrTargetNotFound):
		response.Error(c, http.StatusBadRequest, "VALIDATION", err.Error())
	default:
		if reason, ok := IsGone(err); ok {
			response.Error(c, http.StatusGone, "LINK_GONE", "share link "+reason)
			return
		}
		response.Error(c, http.StatusInternalServerError, "INTERNAL", "internal error")
	}
}
