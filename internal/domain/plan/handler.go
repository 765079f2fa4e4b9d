package plan

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"cloudvault/internal/pkg/response"
)

// StorageUsage is implemented by the file domain's quota enforcer.
type StorageUsage interface {
	UsedBytes(ctx context.Context, ownerID string) (int64, error)
}

type Handler struct {
	service *Service
	usage   StorageUsage
}

func NewHandler(service *Service, usage StorageUsage) *Handler {
	return &Handler{service: service, usage: usage}
}

// List returns all active plans. Public.
func (h *Handler) List(c *gin.Context) {
	plans, err := h.service.Plans(c.Request.Context())
	if err != nil {
		response.Error(c, http.StatusInternalServerError, "INTERNAL", "failed to list plans")
		return
	}
	response.Success(c, http.StatusOK, plans)
}

// Current returns the caller's subscription and plan.
func (h *Handler) Current(c *gin.Context) {
	ownerID := c.GetString("owner_id")

	sub, p, err := h.service.CurrentSubscription(c.Request.Context(), ownerID)
	if err != nil {
		response.Error(c, http.StatusInternalServerError, "INTERNAL", "failed to load subscription")
		return
	}
	response.Success(c, http.StatusOK, gin.H{"subscription": sub, "plan": p})
}

type subscribeRequest struct {
	PlanID string `json:"plan_id" binding:"required"`
}

// Subscribe switches the caller to a different plan.
func (h *Handler) Subscribe(c *gin.Context) {
	ownerID := c.GetString("owner_id")

	var req subscribeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, http.StatusBadRequest, "INVALID_REQUEST", "plan_id is required")
		return
	}

	sub, err := h.service.Subscribe(c.Request.Context(), ownerID, ID(req.PlanID))
	if err != nil {
		if err == ErrPlanNotFound {
			response.Error(c, http.StatusNotFound, "PLAN_NOT_FOUND", err.Error())
			return
		}
		response.Error(c, http.StatusInternalServerError, "INTERNAL", "failed to subscribe")
		return
	}
	response.Success(c, http.StatusCreated, sub)
}

// Usage returns current storage usage against the plan's effective limits.
func (h *Handler) Usage(c *gin.Context) {
	ownerID := c.GetString("owner_id")
	ctx := c.Request.Context()

	_, p, err := h.service.CurrentSubscription(ctx, ownerID)
	if err != nil {
		response.Error(c, http.StatusInternalServerError, "INTERNAL", "failed to load subscription")
		return
	}

	used, err := h.usage.UsedBytes(ctx, ownerID)
	if err != nil {
		response.Error(c, http.StatusInternalServerError, "INTERNAL", "failed to compute usage")
		return
	}

	limit, err := h.service.StorageLimitBytes(ctx, ownerID)
	if err != nil {
		response.Error(c, http.StatusInternalServerError, "INTERNAL", "failed to resolve limits")
		return
	}

	data := gin.H{
		"plan_id":    p.ID,
		"plan_name":  p.Name,
		"used_bytes": used,
	}
	if limit != nil {
		data["limit_bytes"] = *limit
	}
	response.Success(c, http.StatusOK, data)
}
