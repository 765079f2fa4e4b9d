package account

import "github.com/gin-gonic/gin"

// RegisterPublicRoutes registers signup and login.
func RegisterPublicRoutes(r *gin.RouterGroup, h *Handler) {
	auth := r.Group("/auth")
	{
		auth.POST("/signup", h.Signup)
		auth.POST("/login", h.Login)
	}
}

// RegisterRoutes registers the authenticated account routes.
func RegisterRoutes(r *gin.RouterGroup, h *Handler) {
	r.GET("/me", h.Me)
}
