package share

import "github.com/gin-gonic/gin"

// RegisterRoutes registers the owner-facing share link routes under the
// protected group.
func RegisterRoutes(r *gin.RouterGroup, h *Handler) {
	shares := r.Group("/shares")
	{
		shares.POST("", h.Create)
		shares.GET("", h.List)
		shares.GET("/:id", h.Get)
		shares.PATCH("/:id", h.Update)
		shares.POST("/:id/revoke", h.Revoke)
		shares.DELETE("/:id", h.Delete)
	}
}

// RegisterPublicRoutes registers the unauthenticated visitor routes.
func RegisterPublicRoutes(r *gin.RouterGroup, h *PublicHandler) {
	s := r.Group("/s/:token")
	{
		s.GET("", h.Resolve)
		s.POST("/unlock", h.Unlock)
		s.GET("/files/:id/download", h.Download)
		s.GET("/folders/:id", h.Browse)
	}
}
