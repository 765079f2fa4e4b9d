package share

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"cloudvault/internal/blob"
	folderdomain "cloudvault/internal/domain/folder"
	"cloudvault/internal/pkg/response"
	"cloudvault/internal/pkg/sharetoken"
)

// PublicHandler serves unauthenticated link visitors under /s/:token.
type PublicHandler struct {
	service     *Service
	store       blob.Store
	downloadTTL time.Duration
}

func NewPublicHandler(service *Service, store blob.Store, downloadTTL time.Duration) *PublicHandler {
	return &PublicHandler{service: service, store: store, downloadTTL: downloadTTL}
}

// Resolve returns the link's public metadata. Targets are withheld until the
// visitor presents a valid access token when the link is password protected.
func (h *PublicHandler) Resolve(c *gin.Context) {
	link, ok := h.lookup(c)
	if !ok {
		return
	}

	if link.RequiresPassword() && !h.hasAccess(c, link) {
		response.Success(c, http.StatusOK, gin.H{
			"token":             link.Token,
			"expires_at":        link.ExpiresAt,
			"password_required": true,
		})
		return
	}

	view, err := h.service.View(c.Request.Context(), link)
	if err != nil {
		response.Error(c, http.StatusInternalServerError, "INTERNAL", "internal error")
		return
	}
	response.Success(c, http.StatusOK, view)
}

type unlockRequest struct {
	Password string `json:"password"`
}

// Unlock exchanges the link password for a short-lived access token. Links
// without a password also pass through so clients can use one flow.
func (h *PublicHandler) Unlock(c *gin.Context) {
	link, ok := h.lookup(c)
	if !ok {
		return
	}

	var req unlockRequest
	if err := c.ShouldBindJSON(&req); err != nil && link.RequiresPassword() {
		response.Error(c, http.StatusBadRequest, "INVALID_REQUEST", "invalid body")
		return
	}

	if !h.service.CheckPassword(link, req.Password) {
		response.Error(c, http.StatusUnauthorized, "WRONG_PASSWORD", "wrong password")
		return
	}

	token, err := h.service.IssueAccessToken(link)
	if err != nil {
		response.Error(c, http.StatusInternalServerError, "INTERNAL", "internal error")
		return
	}
	response.Success(c, http.StatusOK, gin.H{"access_token": token})
}

// Download issues a presigned URL for one shared file.
func (h *PublicHandler) Download(c *gin.Context) {
	link, ok := h.requireAccess(c)
	if !ok {
		return
	}

	f, allowed, err := h.service.CanAccessFile(c.Request.Context(), link, c.Param("id"))
	if err != nil {
		response.Error(c, http.StatusInternalServerError, "INTERNAL", "internal error")
		return
	}
	if !allowed {
		response.Error(c, http.StatusNotFound, "NOT_FOUND", "file not found")
		return
	}

	url, err := h.store.IssueDownloadURL(c.Request.Context(), f.StorageKey, h.downloadTTL)
	if err != nil {
		response.Error(c, http.StatusBadGateway, "STORAGE_UNAVAILABLE", "storage backend unavailable")
		return
	}
	response.Success(c, http.StatusOK, gin.H{
		"url":        url,
		"file_name":  f.FileName,
		"size":       f.Size,
		"expires_in": int64(h.downloadTTL.Seconds()),
	})
}

// Browse lists a folder reachable through the link.
func (h *PublicHandler) Browse(c *gin.Context) {
	link, ok := h.requireAccess(c)
	if !ok {
		return
	}

	folderID := c.Param("id")
	allowed, err := h.service.CanAccessFolder(c.Request.Context(), link, folderID)
	if err != nil {
		response.Error(c, http.StatusInternalServerError, "INTERNAL", "internal error")
		return
	}
	if !allowed {
		response.Error(c, http.StatusNotFound, "NOT_FOUND", "folder not found")
		return
	}

	listing, err := h.service.Browse(c.Request.Context(), link, folderID)
	if err != nil {
		if errors.Is(err, folderdomain.ErrNotFound) {
			response.Error(c, http.StatusNotFound, "NOT_FOUND", "folder not found")
			return
		}
		response.Error(c, http.StatusInternalServerError, "INTERNAL", "internal error")
		return
	}
	response.Success(c, http.StatusOK, listing)
}

// lookup fetches the link by token and rejects revoked or expired ones.
func (h *PublicHandler) lookup(c *gin.Context) (*ShareLink, bool) {
	link, err := h.service.GetByToken(c.Request.Context(), c.Param("token"))
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			response.Error(c, http.StatusNotFound, "NOT_FOUND", "share link not found")
		} else {
			response.Error(c, http.StatusInternalServerError, "INTERNAL", "internal error")
		}
		return nil, false
	}
	if err := h.service.ValidateActive(link); err != nil {
		if reason, ok := IsGone(err); ok {
			response.Error(c, http.StatusGone, "LINK_GONE", "share link "+reason)
		} else {
			response.Error(c, http.StatusInternalServerError, "INTERNAL", "internal error")
		}
		return nil, false
	}
	return link, true
}

// requireAccess resolves the link and, for password protected links, demands
// a bearer access token bound to this exact link.
func (h *PublicHandler) requireAccess(c *gin.Context) (*ShareLink, bool) {
	link, ok := h.lookup(c)
	if !ok {
		return nil, false
	}
	if !link.RequiresPassword() {
		return link, true
	}
	if !h.hasAccess(c, link) {
		response.Error(c, http.StatusUnauthorized, "ACCESS_TOKEN_REQUIRED", "unlock the link first")
		return nil, false
	}
	return link, true
}

func (h *PublicHandler) hasAccess(c *gin.Context, link *ShareLink) bool {
	raw := bearerToken(c)
	if raw == "" {
		return false
	}
	err := h.service.VerifyAccessToken(raw, link)
	switch {
	case err == nil:
		return true
	case errors.Is(err, sharetoken.ErrExpired),
		errors.Is(err, sharetoken.ErrWrongLink),
		errors.Is(err, sharetoken.ErrMalformed):
		return false
	default:
		return false
	}
}

func bearerToken(c *gin.Context) string {
	header := c.GetHeader("Authorization")
	if header == "" {
		return ""
	}
	parts := strings.SplitN(header, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return ""
	}
	return strings.TrimSpace(parts[1])
}
