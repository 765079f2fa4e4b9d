package folder

import "github.com/gin-gonic/gin"

// RegisterRoutes registers folder routes under the protected group.
func RegisterRoutes(r *gin.RouterGroup, h *Handler) {
	folders := r.Group("/folders")
	{
		folders.POST("", h.Create)
		folders.GET("", h.List)
		folders.GET("/:id", h.Get)
		folders.PATCH("/:id/name", h.Rename)
		folders.PATCH("/:id/parent", h.Move)
		folders.DELETE("/:id", h.Delete)
	}
}
