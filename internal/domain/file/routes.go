package file

import "github.com/gin-gonic/gin"

// RegisterRoutes registers file routes under the protected group.
func RegisterRoutes(r *gin.RouterGroup, h *Handler) {
	files := r.Group("/files")
	{
		files.POST("/intent", h.Intent)
		files.POST("/:id/finalize", h.Finalize)
		files.GET("", h.List)
		files.GET("/trash", h.ListTrash)
		files.GET("/:id", h.Get)
		files.GET("/:id/download", h.DownloadURL)
		files.DELETE("/:id", h.SoftDelete)
		files.POST("/:id/restore", h.Restore)
		files.DELETE("/:id/purge", h.Purge)
	}
}
