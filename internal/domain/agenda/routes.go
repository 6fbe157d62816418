package agenda

import "github.com/gin-gonic/gin"

func RegisterRoutes(r *gin.RouterGroup, h *Handler) {
	grp := r.Group("/agenda")
	{
		grp.POST("", h.Create)
		grp.GET("", h.List)
		grp.PUT("/:id/stato", h.SetState)
		grp.POST("/:id/annulla", h.Cancel)
		grp.DELETE("/:id", h.Delete)
	}
}
