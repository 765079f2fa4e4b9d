package plan

import "github.com/gin-gonic/gin"

// RegisterPublicRoutes registers routes that need no authentication.
func RegisterPublicRoutes(r *gin.RouterGroup, h *Handler) {
	r.GET("/plans", h.List)
}

// RegisterRoutes registers tenant-scoped subscription routes.
func RegisterRoutes(r *gin.RouterGroup, h *Handler) {
	r.GET("/subscription", h.Current)
	r.POST("/subscription", h.Subscribe)
	r.GET("/usage", h.Usage)
}
